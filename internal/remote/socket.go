package remote

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/zishang520/engine.io-client-go/transports"
	"github.com/zishang520/engine.io/v2/types"
	"github.com/zishang520/socket.io-client-go/socket"

	"github.com/specialistvlad/burstgraph/internal/ctxlog"
	"github.com/specialistvlad/burstgraph/internal/message"
)

// ErrClosed is returned by Submit once the client has been closed.
var ErrClosed = errors.New("remote: client closed")

const defaultConnectTimeout = 15 * time.Second

// SocketOptions configures DialSocket.
type SocketOptions struct {
	Namespace          string
	InsecureSkipVerify bool
	// ConnectTimeout defaults to 15s.
	ConnectTimeout time.Duration
}

// SocketClient sends requests over one socket.io connection. Several
// requests may be in flight at once.
type SocketClient struct {
	io         *socket.Socket
	serializer message.Serializer
	logger     *slog.Logger

	mu      sync.Mutex
	pending map[uuid.UUID]chan message.Response
	closed  bool
}

// DialSocket connects to the socket.io endpoint of a graph server, for
// example http://localhost:8182/socket.io/, and waits for the connection.
func DialSocket(ctx context.Context, rawURL string, opts SocketOptions) (*SocketClient, error) {
	logger := ctxlog.FromContext(ctx).With("client", "socket.io", "url", rawURL)
	logger.Info("Connecting to graph server...")

	parsedURL, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse URL: %w", err)
	}

	ioOpts := socket.DefaultOptions()
	if parsedURL.Path != "" && parsedURL.Path != "/" {
		ioOpts.SetPath(parsedURL.Path)
	}
	if opts.InsecureSkipVerify {
		logger.Warn("Skipping TLS certificate verification.")
		ioOpts.SetTLSClientConfig(&tls.Config{InsecureSkipVerify: true})
	}
	ioOpts.SetTransports(types.NewSet(transports.WebSocket))

	namespace := opts.Namespace
	if namespace == "" {
		namespace = "/"
	}
	baseURL := fmt.Sprintf("%s://%s", parsedURL.Scheme, parsedURL.Host)
	manager := socket.NewManager(baseURL, ioOpts)
	io := manager.Socket(namespace, ioOpts)

	c := &SocketClient{
		io:         io,
		serializer: message.JSONSerializer{},
		logger:     logger,
		pending:    make(map[uuid.UUID]chan message.Response),
	}
	io.On(types.EventName(message.EventResponse), c.onResponse)

	connectChan := make(chan error, 1)
	io.Once(types.EventName("connect"), func(...any) {
		logger.Info("Successfully connected.", "sid", io.Id())
		connectChan <- nil
	})
	io.Once(types.EventName("connect_error"), func(errs ...any) {
		err, _ := errs[0].(error)
		if err == nil {
			err = fmt.Errorf("connect error: %v", errs[0])
		}
		connectChan <- err
	})

	timeout := opts.ConnectTimeout
	if timeout <= 0 {
		timeout = defaultConnectTimeout
	}
	timer := time.NewTimer(timeout)
	defer timer.Stop()

	logger.Debug("Initiating connection...")
	io.Connect()

	select {
	case err := <-connectChan:
		if err != nil {
			io.Disconnect()
			return nil, fmt.Errorf("socket.io connection failed: %w", err)
		}
		return c, nil
	case <-ctx.Done():
		io.Disconnect()
		return nil, fmt.Errorf("context cancelled while waiting for socket.io connection: %w", ctx.Err())
	case <-timer.C:
		io.Disconnect()
		return nil, fmt.Errorf("timed out after %s waiting for socket.io connection", timeout)
	}
}

// onResponse hands a response event to the request waiting for it.
func (c *SocketClient) onResponse(args ...any) {
	if len(args) == 0 {
		c.logger.Warn("Ignoring response event without a payload.")
		return
	}
	var data []byte
	switch v := args[0].(type) {
	case string:
		data = []byte(v)
	case []byte:
		data = v
	default:
		c.logger.Warn("Ignoring response event with an unexpected payload.", "type", fmt.Sprintf("%T", v))
		return
	}
	resp, err := c.serializer.DeserializeResponse(data)
	if err != nil {
		c.logger.Warn("Ignoring undecodable response.", "error", err)
		return
	}

	c.mu.Lock()
	ch, ok := c.pending[resp.RequestID]
	delete(c.pending, resp.RequestID)
	c.mu.Unlock()
	if !ok {
		c.logger.Debug("Dropping response to an unknown request.", "request_id", resp.RequestID)
		return
	}
	ch <- resp
}

// Submit emits req and waits for its response or for ctx to end.
func (c *SocketClient) Submit(ctx context.Context, req message.Request) (message.Response, error) {
	payload, err := c.serializer.SerializeRequest(req)
	if err != nil {
		return message.Response{}, err
	}

	done := make(chan message.Response, 1)
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return message.Response{}, ErrClosed
	}
	c.pending[req.RequestID] = done
	c.mu.Unlock()

	c.logger.Debug("Emitting request.", "request_id", req.RequestID, "op", req.Op)
	c.io.Emit(message.EventRequest, string(payload))

	select {
	case resp := <-done:
		return resp, nil
	case <-ctx.Done():
		c.mu.Lock()
		delete(c.pending, req.RequestID)
		c.mu.Unlock()
		return message.Response{}, fmt.Errorf("waiting for response to %s: %w", req.RequestID, ctx.Err())
	}
}

// Close disconnects the socket. Requests still waiting end with their
// context.
func (c *SocketClient) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil
	}
	c.closed = true
	c.logger.Debug("Disconnecting socket client.", "sid", c.io.Id())
	c.io.Disconnect()
	return nil
}
