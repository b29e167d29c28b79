package mcpws

import (
	"context"
	"encoding/json"
)

// Client issues requests to an mcpws server over one connection.
//
// Lifecycle: Clients are single-use. After Close(), create a new client with NewClient().
//
// Example usage:
//
//	client := mcpws.NewClient()
//	defer client.Close()
//
//	if err := client.Start(ctx, mcpws.WithURL("ws://localhost:8765")); err != nil {
//	    log.Fatal(err)
//	}
//
//	tools, err := client.ListTools(ctx)
//	if err != nil {
//	    log.Fatal(err)
//	}
type Client interface {
	// Start connects to the server. Must be called before any other methods.
	// ctx bounds only the connection attempt.
	Start(ctx context.Context, opts ...Option) error

	// Initialize performs the initialize handshake.
	Initialize(ctx context.Context) (*InitializeResult, error)

	// ServerInfo returns the result of the last successful Initialize, or nil.
	ServerInfo() *InitializeResult

	// ListTools returns the tools the server offers.
	ListTools(ctx context.Context) ([]ToolInfo, error)

	// CallTool invokes a tool. A handler failure on the server is returned
	// as *ResponseError.
	CallTool(ctx context.Context, name string, arguments map[string]any) (*ToolResult, error)

	// ListResources returns the resources the server offers.
	ListResources(ctx context.Context) ([]ResourceInfo, error)

	// ReadResource returns the contents of the resource at uri.
	ReadResource(ctx context.Context, uri string) (*ReadResourceResult, error)

	// Request sends an arbitrary method and returns the raw result.
	Request(ctx context.Context, method string, params map[string]any) (json.RawMessage, error)

	// PendingRequests returns the number of requests awaiting a response.
	PendingRequests() int

	// Done is closed when the connection ends.
	Done() <-chan struct{}

	// Err returns the error that ended the connection, if any.
	Err() error

	// Close terminates the connection and fails every pending request.
	// Safe to call multiple times.
	Close() error
}

// NewClient creates a new Client.
//
// The client is not connected after creation. Call Start() to connect.
func NewClient() Client {
	return newClientImpl()
}
