package client

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"

	"github.com/wagiedev/mcpws-go/internal/config"
	"github.com/wagiedev/mcpws-go/internal/errors"
	"github.com/wagiedev/mcpws-go/internal/protocol"
	"github.com/wagiedev/mcpws-go/internal/transport"
)

// Client is a connected request issuer.
type Client struct {
	log        *slog.Logger
	transport  config.Transport
	correlator *protocol.Correlator
	options    *config.Options

	// Result of the last successful initialize.
	infoMu     sync.RWMutex
	serverInfo *protocol.InitializeResult

	// Lifecycle management
	mu        sync.Mutex
	connected bool
	closed    bool      // Tracks if Close() has been called
	closeOnce sync.Once // Ensures Close() only runs once
}

// New creates a new client.
//
// The client is not connected after creation. Call Start() with options to connect.
func New() *Client {
	return &Client{}
}

// Start connects the client.
//
// When options.Transport is set it is used as is; otherwise the client
// dials options.URL over WebSocket. ctx bounds only the dial: the
// connection stays open until Close is called or the server goes away.
func (c *Client) Start(ctx context.Context, options *config.Options) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return errors.ErrClientClosed
	}

	if c.connected {
		return errors.ErrClientAlreadyConnected
	}

	if options == nil {
		options = config.NewOptions()
	}

	c.options = options
	c.log = options.Log().With("component", "client")

	var t config.Transport

	if options.Transport != nil {
		t = options.Transport

		c.log.Debug("Using injected custom transport")
	} else {
		url := options.URL
		if url == "" {
			url = config.DefaultURL
		}

		c.log.Info("Connecting", "url", url)

		conn, err := transport.Dial(ctx, options.Log(), url, &transport.Options{
			ReadLimit:    options.ReadLimit,
			Subprotocols: options.Subprotocols,
		})
		if err != nil {
			return fmt.Errorf("connect to %s: %w", url, err)
		}

		t = conn
	}

	c.transport = t

	// The read loop must outlive ctx, which may carry a dial timeout.
	c.correlator = protocol.NewCorrelator(c.log, t, options.RequestTimeout)
	c.correlator.Start(context.Background())

	c.connected = true
	c.log.Info("Client started successfully")

	return nil
}

// active returns the correlator of a connected client.
func (c *Client) active() (*protocol.Correlator, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return nil, errors.ErrClientClosed
	}

	if !c.connected {
		return nil, errors.ErrClientNotConnected
	}

	return c.correlator, nil
}

// Request sends method with params and returns the raw result.
//
// A response carrying an error object is returned as *errors.ResponseError.
func (c *Client) Request(ctx context.Context, method string, params map[string]any) (json.RawMessage, error) {
	correlator, err := c.active()
	if err != nil {
		return nil, err
	}

	return correlator.Request(ctx, method, params)
}

// call performs a request and decodes its result into out.
func (c *Client) call(ctx context.Context, method string, params map[string]any, out any) error {
	raw, err := c.Request(ctx, method, params)
	if err != nil {
		return fmt.Errorf("%s: %w", method, err)
	}

	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("decode %s result: %w", method, err)
	}

	return nil
}

// Initialize performs the initialize handshake and records the server's
// reply, which ServerInfo returns afterwards.
func (c *Client) Initialize(ctx context.Context) (*protocol.InitializeResult, error) {
	if _, err := c.active(); err != nil {
		return nil, err
	}

	params := map[string]any{
		"protocolVersion": c.options.ProtocolVersion,
		"clientInfo": map[string]any{
			"name":    c.options.ClientName,
			"version": c.options.ClientVersion,
		},
	}

	var result protocol.InitializeResult
	if err := c.call(ctx, protocol.MethodInitialize, params, &result); err != nil {
		return nil, err
	}

	c.infoMu.Lock()
	c.serverInfo = &result
	c.infoMu.Unlock()

	c.log.Debug("Initialized",
		"server", result.ServerInfo.Name,
		"server_version", result.ServerInfo.Version,
		"protocol_version", result.ProtocolVersion,
	)

	return &result, nil
}

// ServerInfo returns the result of the last successful Initialize, or nil.
func (c *Client) ServerInfo() *protocol.InitializeResult {
	c.infoMu.RLock()
	defer c.infoMu.RUnlock()

	return c.serverInfo
}

// ListTools returns the tools the server offers.
func (c *Client) ListTools(ctx context.Context) ([]protocol.ToolInfo, error) {
	var result protocol.ListToolsResult
	if err := c.call(ctx, protocol.MethodToolsList, map[string]any{}, &result); err != nil {
		return nil, err
	}

	return result.Tools, nil
}

// CallTool invokes the named tool with arguments.
func (c *Client) CallTool(ctx context.Context, name string, arguments map[string]any) (*protocol.CallToolResult, error) {
	if arguments == nil {
		arguments = map[string]any{}
	}

	params := map[string]any{
		"name":      name,
		"arguments": arguments,
	}

	var result protocol.CallToolResult
	if err := c.call(ctx, protocol.MethodToolsCall, params, &result); err != nil {
		return nil, err
	}

	return &result, nil
}

// ListResources returns the resources the server offers.
func (c *Client) ListResources(ctx context.Context) ([]protocol.ResourceInfo, error) {
	var result protocol.ListResourcesResult
	if err := c.call(ctx, protocol.MethodResourcesList, map[string]any{}, &result); err != nil {
		return nil, err
	}

	return result.Resources, nil
}

// ReadResource returns the contents of the resource at uri.
func (c *Client) ReadResource(ctx context.Context, uri string) (*protocol.ReadResourceResult, error) {
	var result protocol.ReadResourceResult
	if err := c.call(ctx, protocol.MethodResourcesRead, map[string]any{"uri": uri}, &result); err != nil {
		return nil, err
	}

	return &result, nil
}

// PendingRequests returns the number of requests awaiting a response.
func (c *Client) PendingRequests() int {
	correlator, err := c.active()
	if err != nil {
		return 0
	}

	return correlator.PendingCount()
}

// Done returns a channel that is closed when the connection ends.
// It returns nil before Start.
func (c *Client) Done() <-chan struct{} {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.correlator == nil {
		return nil
	}

	return c.correlator.Done()
}

// Err returns the error that ended the connection, if any.
func (c *Client) Err() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.correlator == nil {
		return nil
	}

	return c.correlator.FatalError()
}

// Close terminates the connection and fails every pending request.
//
// After Close(), the client cannot be reused - create a new client with New().
// This method is safe to call multiple times.
func (c *Client) Close() error {
	var closeErr error

	c.closeOnce.Do(func() {
		c.mu.Lock()
		c.closed = true
		wasConnected := c.connected
		c.connected = false
		c.mu.Unlock()

		if !wasConnected {
			return
		}

		c.log.Info("Closing client")

		// Stop the correlator first so pending requests fail with
		// ErrCorrelatorStopped rather than a transport error.
		if c.correlator != nil {
			c.correlator.Stop()
		}

		if c.transport != nil {
			closeErr = c.transport.Close()
		}

		c.log.Info("Client closed")
	})

	return closeErr
}
