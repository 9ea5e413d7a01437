package remote

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/specialistvlad/burstgraph/internal/message"
)

// echoServer answers every request with its own args as the result.
func echoServer(t *testing.T) *httptest.Server {
	t.Helper()
	ser := message.JSONSerializer{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, message.MimeTypeJSON, r.Header.Get("Content-Type"))
		body, err := io.ReadAll(r.Body)
		assert.NoError(t, err)

		req, err := ser.DeserializeRequest(body)
		if err != nil {
			out, _ := ser.SerializeResponse(message.NewErrorResponse(req, message.CodeMalformedRequest, err.Error()))
			w.WriteHeader(http.StatusBadRequest)
			_, _ = w.Write(out)
			return
		}
		out, err := ser.SerializeResponse(message.NewResponse(req, req.Args))
		assert.NoError(t, err)
		_, _ = w.Write(out)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestHTTPClient_Submit(t *testing.T) {
	srv := echoServer(t)
	c := NewHTTPClient(srv.URL, time.Second)
	defer c.Close()

	req := message.NewRequest(message.OpTraversal, map[string]any{"name": "people", "partitions": 2})
	resp, err := c.Submit(context.Background(), req)
	require.NoError(t, err)

	assert.Equal(t, req.RequestID, resp.RequestID)
	assert.Equal(t, message.CodeSuccess, resp.Code)
	assert.Equal(t, map[string]any{"name": "people", "partitions": float64(2)}, resp.Result)
}

func TestHTTPClient_Failures(t *testing.T) {
	ctx := context.Background()
	req := message.NewRequest(message.OpTraversal, nil)

	t.Run("body that is not a response", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			http.Error(w, "nope", http.StatusTeapot)
		}))
		defer srv.Close()

		_, err := NewHTTPClient(srv.URL, time.Second).Submit(ctx, req)
		assert.ErrorContains(t, err, "unexpected response with status 418")
		assert.True(t, message.IsSerializationError(err))
	})

	t.Run("unreachable server", func(t *testing.T) {
		srv := httptest.NewServer(http.NotFoundHandler())
		url := srv.URL
		srv.Close()

		_, err := NewHTTPClient(url, time.Second).Submit(ctx, req)
		assert.ErrorContains(t, err, "failed to execute request")
	})

	t.Run("cancelled context", func(t *testing.T) {
		srv := echoServer(t)
		cctx, cancel := context.WithCancel(ctx)
		cancel()

		_, err := NewHTTPClient(srv.URL, 0).Submit(cctx, req)
		assert.ErrorIs(t, err, context.Canceled)
	})
}
