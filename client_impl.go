package mcpws

import (
	"context"
	"encoding/json"

	"github.com/wagiedev/mcpws-go/internal/client"
)

// clientWrapper wraps the internal client to adapt it to the public interface.
type clientWrapper struct {
	impl *client.Client
}

// Compile-time check that *clientWrapper implements the Client interface.
var _ Client = (*clientWrapper)(nil)

// newClientImpl creates the internal client implementation.
func newClientImpl() Client {
	return &clientWrapper{impl: client.New()}
}

func (c *clientWrapper) Start(ctx context.Context, opts ...Option) error {
	return c.impl.Start(ctx, applyOptions(opts))
}

func (c *clientWrapper) Initialize(ctx context.Context) (*InitializeResult, error) {
	return c.impl.Initialize(ctx)
}

func (c *clientWrapper) ServerInfo() *InitializeResult {
	return c.impl.ServerInfo()
}

func (c *clientWrapper) ListTools(ctx context.Context) ([]ToolInfo, error) {
	return c.impl.ListTools(ctx)
}

func (c *clientWrapper) CallTool(ctx context.Context, name string, arguments map[string]any) (*ToolResult, error) {
	return c.impl.CallTool(ctx, name, arguments)
}

func (c *clientWrapper) ListResources(ctx context.Context) ([]ResourceInfo, error) {
	return c.impl.ListResources(ctx)
}

func (c *clientWrapper) ReadResource(ctx context.Context, uri string) (*ReadResourceResult, error) {
	return c.impl.ReadResource(ctx, uri)
}

func (c *clientWrapper) Request(ctx context.Context, method string, params map[string]any) (json.RawMessage, error) {
	return c.impl.Request(ctx, method, params)
}

func (c *clientWrapper) PendingRequests() int {
	return c.impl.PendingRequests()
}

func (c *clientWrapper) Done() <-chan struct{} {
	return c.impl.Done()
}

func (c *clientWrapper) Err() error {
	return c.impl.Err()
}

func (c *clientWrapper) Close() error {
	return c.impl.Close()
}
