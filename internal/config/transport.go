// Package config provides configuration types for mcpws clients, servers
// and binaries.
package config

import "context"

// Transport defines the interface for exchanging envelopes with a peer.
// Implement this to provide custom transports for testing, mocking,
// or alternative carriers.
//
// The default implementation is the WebSocket connection from the
// transport package. Custom transports can be injected via
// Options.Transport.
type Transport interface {
	// ReadMessages returns channels for receiving messages and errors.
	// Each message is one complete text frame. Both channels are closed
	// when reading completes or an error occurs.
	ReadMessages(ctx context.Context) (<-chan []byte, <-chan error)

	// SendMessage sends one complete message.
	// This method must be safe for concurrent use.
	SendMessage(ctx context.Context, data []byte) error

	// Close terminates the transport and releases resources.
	// It's safe to call Close multiple times.
	Close() error
}
