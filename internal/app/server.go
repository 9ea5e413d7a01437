package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/zishang520/socket.io/v2/socket"

	"github.com/specialistvlad/burstgraph/internal/ctxlog"
	"github.com/specialistvlad/burstgraph/internal/message"
	"github.com/specialistvlad/burstgraph/internal/partition"
)

const (
	// PathGremlin accepts serialized requests over HTTP POST.
	PathGremlin = "/gremlin"
	// PathSocketIO is where socket.io clients connect.
	PathSocketIO = "/socket.io/"

	maxRequestBytes = 1 << 20
	shutdownTimeout = 5 * time.Second
)

// Handler returns the HTTP handler of the server: the health check, the
// HTTP endpoint and the socket.io endpoint. Requests are evaluated under
// ctx, so cancelling it interrupts running traversals.
func (a *App) Handler(ctx context.Context) http.Handler {
	ctx = ctxlog.WithLogger(ctx, a.logger)
	if a.sio == nil {
		a.sio = a.newSocketServer(ctx)
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", a.healthHandler)
	mux.HandleFunc("POST "+PathGremlin, a.gremlinHandler)
	mux.Handle(PathSocketIO, a.sio.ServeHandler(nil))
	return mux
}

// Serve runs the server on the configured port until ctx is cancelled.
func (a *App) Serve(ctx context.Context) error {
	ctx = ctxlog.WithLogger(ctx, a.logger)
	if a.config.ServerPort <= 0 {
		return errors.New("server port must be set to serve")
	}

	addr := fmt.Sprintf(":%d", a.config.ServerPort)
	srv := &http.Server{
		Addr:    addr,
		Handler: a.Handler(ctx),
	}
	a.httpServer = srv

	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("Graph server starting.", "address", fmt.Sprintf("http://localhost%s", addr), "traversals", len(a.templates))
		// ListenAndServe returns ErrServerClosed on graceful shutdown.
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			a.logger.Error("Graph server failed unexpectedly.", "error", err)
		}
		return err
	case <-ctx.Done():
		return a.Close()
	}
}

// Close shuts down the HTTP server, if running, and the socket.io server.
func (a *App) Close() error {
	a.logger.Debug("Closing graph server...")
	if a.sio != nil {
		a.sio.Close(nil)
		a.sio = nil
	}
	if a.httpServer == nil {
		a.logger.Debug("Graph server was not running.")
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	a.logger.Info("Shutting down graph server...")
	if err := a.httpServer.Shutdown(ctx); err != nil {
		a.logger.Error("Graph server shutdown failed.", "error", err)
		return err
	}
	a.httpServer = nil
	a.logger.Debug("Graph server shut down gracefully.")
	return nil
}

func (a *App) healthHandler(w http.ResponseWriter, r *http.Request) {
	a.logger.Debug("Health check endpoint hit.", "remote_addr", r.RemoteAddr, "path", r.URL.Path)
	w.WriteHeader(http.StatusOK)
	fmt.Fprintln(w, "OK")
}

func (a *App) gremlinHandler(w http.ResponseWriter, r *http.Request) {
	ctx := ctxlog.WithLogger(r.Context(), a.logger.With("transport", "http", "remote_addr", r.RemoteAddr))

	body, err := io.ReadAll(io.LimitReader(r.Body, maxRequestBytes))
	if err != nil {
		http.Error(w, fmt.Sprintf("failed to read request: %v", err), http.StatusBadRequest)
		return
	}
	payload, code := a.respond(ctx, body)

	w.Header().Set("Content-Type", a.serializer.MimeType())
	w.WriteHeader(httpStatus(code))
	_, _ = w.Write(payload)
}

func httpStatus(code message.Code) int {
	switch {
	case code.IsSuccess():
		return http.StatusOK
	case code == message.CodeMalformedRequest, code == message.CodeInvalidRequestArguments:
		return http.StatusBadRequest
	case code == message.CodeServerErrorTimeout:
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

func (a *App) newSocketServer(ctx context.Context) *socket.Server {
	srv := socket.NewServer(nil, nil)
	srv.On("connection", func(clients ...any) {
		client := clients[0].(*socket.Socket)
		logger := a.logger.With("transport", "socket.io", "sid", client.Id())
		logger.Debug("Client connected.")
		reqCtx := ctxlog.WithLogger(ctx, logger)

		client.On(message.EventRequest, func(args ...any) {
			data, ok := socketPayload(args)
			if !ok {
				logger.Warn("Ignoring request event without a payload.", "args", len(args))
				return
			}
			// Evaluated off the socket's event loop.
			go func() {
				payload, _ := a.respond(reqCtx, data)
				client.Emit(message.EventResponse, string(payload))
			}()
		})
		client.On("disconnect", func(reason ...any) {
			logger.Debug("Client disconnected.", "reason", reason)
		})
	})
	return srv
}

// socketPayload extracts the serialized request of a socket.io event.
func socketPayload(args []any) ([]byte, bool) {
	if len(args) == 0 {
		return nil, false
	}
	switch v := args[0].(type) {
	case string:
		return []byte(v), true
	case []byte:
		return v, true
	default:
		return nil, false
	}
}

// respond decodes a serialized request, handles it and serializes the
// response. It always produces a response payload.
func (a *App) respond(ctx context.Context, data []byte) ([]byte, message.Code) {
	logger := ctxlog.FromContext(ctx)

	var resp message.Response
	req, err := a.serializer.DeserializeRequest(data)
	if err != nil {
		logger.Warn("Rejecting malformed request.", "error", err)
		resp = message.NewErrorResponse(req, message.CodeMalformedRequest, err.Error())
	} else {
		resp = a.Handle(ctx, req)
	}

	payload, err := a.serializer.SerializeResponse(resp)
	if err != nil {
		logger.Error("Failed to serialize response.", "request_id", req.RequestID, "error", err)
		resp = message.NewErrorResponse(req, message.CodeServerErrorSerialization, err.Error())
		payload, _ = a.serializer.SerializeResponse(resp)
	}
	return payload, resp.Code
}

// Handle evaluates one request. The only supported op is "traversal", with
// a required "name" argument and an optional "partitions" argument.
func (a *App) Handle(ctx context.Context, req message.Request) message.Response {
	logger := ctxlog.FromContext(ctx).With("request_id", req.RequestID, "op", req.Op)

	if req.Op != message.OpTraversal {
		return message.NewErrorResponse(req, message.CodeInvalidRequestArguments, fmt.Sprintf("unsupported op %q", req.Op))
	}
	rawName, _ := req.Arg("name")
	name, ok := rawName.(string)
	if !ok || name == "" {
		return message.NewErrorResponse(req, message.CodeInvalidRequestArguments, `argument "name" must be a non-empty string`)
	}
	partitions := 0
	if raw, given := req.Arg("partitions"); given {
		n, ok := wholeNumber(raw)
		if !ok || n < 1 {
			return message.NewErrorResponse(req, message.CodeInvalidRequestArguments, `argument "partitions" must be a positive integer`)
		}
		partitions = n
	}

	start := time.Now()
	values, err := a.Execute(ctx, name, partitions)
	switch {
	case errors.Is(err, ErrUnknownTraversal), errors.Is(err, partition.ErrNotPartitionable):
		return message.NewErrorResponse(req, message.CodeInvalidRequestArguments, err.Error())
	case errors.Is(err, context.DeadlineExceeded):
		logger.Warn("Traversal timed out.", "traversal", name, "timeout", a.config.EvaluationTimeout)
		return message.NewErrorResponse(req, message.CodeServerErrorTimeout,
			fmt.Sprintf("evaluation exceeded the configured timeout of %s", a.config.EvaluationTimeout))
	case err != nil:
		logger.Error("Traversal failed.", "traversal", name, "error", err)
		return message.NewErrorResponse(req, message.CodeServerErrorEvaluation, err.Error())
	}

	logger.Info("Request served.", "traversal", name, "results", len(values), "duration", time.Since(start))
	if len(values) == 0 {
		return message.Response{RequestID: req.RequestID, Code: message.CodeNoContent}
	}
	return message.NewResponse(req, values)
}

func wholeNumber(v any) (int, bool) {
	switch n := v.(type) {
	case int:
		return n, true
	case int64:
		return int(n), true
	case float64:
		if n != float64(int(n)) {
			return 0, false
		}
		return int(n), true
	default:
		return 0, false
	}
}
