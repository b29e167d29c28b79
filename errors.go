package mcpws

import "github.com/wagiedev/mcpws-go/internal/errors"

// Re-export error types from internal package

// MCPError is the base interface for all mcpws errors.
type MCPError = errors.MCPError

// ResponseError is returned when the server answers with an error object.
type ResponseError = errors.ResponseError

// TransportError indicates a send or receive on the connection failed.
type TransportError = errors.TransportError

// ParseError indicates an inbound message could not be parsed.
type ParseError = errors.ParseError

// HandlerError indicates a tool handler or resource reader failed.
type HandlerError = errors.HandlerError

// UnknownToolError indicates a call named an unregistered tool.
type UnknownToolError = errors.UnknownToolError

// UnknownResourceError indicates a read named an unregistered resource.
type UnknownResourceError = errors.UnknownResourceError

// UnknownMethodError indicates a request named an unsupported method.
type UnknownMethodError = errors.UnknownMethodError

// Re-export sentinel errors from internal package.
var (
	// ErrClientNotConnected indicates the client is not connected.
	ErrClientNotConnected = errors.ErrClientNotConnected

	// ErrClientAlreadyConnected indicates the client is already connected.
	ErrClientAlreadyConnected = errors.ErrClientAlreadyConnected

	// ErrClientClosed indicates the client has been closed and cannot be reused.
	ErrClientClosed = errors.ErrClientClosed

	// ErrTransportClosed indicates the connection has been closed.
	ErrTransportClosed = errors.ErrTransportClosed

	// ErrRequestTimeout indicates a request timed out.
	ErrRequestTimeout = errors.ErrRequestTimeout

	// ErrCorrelatorStopped indicates the client stopped before a response arrived.
	ErrCorrelatorStopped = errors.ErrCorrelatorStopped

	// ErrRequestCancelled indicates the caller abandoned a pending request.
	ErrRequestCancelled = errors.ErrRequestCancelled

	// ErrRateLimited indicates the server rejected a request over its rate limit.
	ErrRateLimited = errors.ErrRateLimited
)
