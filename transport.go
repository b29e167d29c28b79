package mcpws

import "github.com/wagiedev/mcpws-go/internal/config"

// Transport defines the interface a Client uses to exchange messages.
// Implement this to provide custom transports for testing, mocking,
// or carriers other than WebSocket.
//
// The default implementation is a WebSocket connection dialed to the URL
// set by WithURL. Custom transports can be injected via WithTransport.
type Transport = config.Transport
