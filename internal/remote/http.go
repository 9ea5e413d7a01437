package remote

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/specialistvlad/burstgraph/internal/ctxlog"
	"github.com/specialistvlad/burstgraph/internal/message"
)

// Client submits requests to a graph server.
type Client interface {
	Submit(ctx context.Context, req message.Request) (message.Response, error)
	Close() error
}

var (
	_ Client = (*HTTPClient)(nil)
	_ Client = (*SocketClient)(nil)
)

// HTTPClient posts serialized requests to the server's HTTP endpoint.
type HTTPClient struct {
	url        string
	client     *http.Client
	serializer message.Serializer
}

// NewHTTPClient creates a client for the endpoint at url, for example
// http://localhost:8182/gremlin. A zero timeout leaves requests bounded only
// by their context.
func NewHTTPClient(url string, timeout time.Duration) *HTTPClient {
	return &HTTPClient{
		url: url,
		client: &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
		serializer: message.JSONSerializer{},
	}
}

// Submit sends req and returns the server's response. Failed responses are
// returned as responses, not errors; errors report transport or decoding
// failures.
func (c *HTTPClient) Submit(ctx context.Context, req message.Request) (message.Response, error) {
	logger := ctxlog.FromContext(ctx).With("client", "http", "request_id", req.RequestID)

	body, err := c.serializer.SerializeRequest(req)
	if err != nil {
		return message.Response{}, err
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return message.Response{}, fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", c.serializer.MimeType())
	httpReq.Header.Set("Accept", c.serializer.MimeType())

	logger.Debug("Submitting request.", "op", req.Op, "url", c.url)
	httpResp, err := c.client.Do(httpReq)
	if err != nil {
		return message.Response{}, fmt.Errorf("failed to execute request: %w", err)
	}
	defer httpResp.Body.Close()

	data, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return message.Response{}, fmt.Errorf("failed to read response body: %w", err)
	}
	resp, err := c.serializer.DeserializeResponse(data)
	if err != nil {
		return message.Response{}, fmt.Errorf("unexpected response with status %s: %w", httpResp.Status, err)
	}
	logger.Debug("Received response.", "status", httpResp.Status, "code", resp.Code)
	return resp, nil
}

// Close releases idle connections.
func (c *HTTPClient) Close() error {
	c.client.CloseIdleConnections()
	return nil
}
