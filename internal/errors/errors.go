package errors

import (
	"errors"
	"fmt"
)

// MCPError is the base interface for all mcpws errors.
type MCPError interface {
	error
	IsMCPError() bool
}

// Compile-time verification that all error types implement MCPError.
var (
	_ MCPError = (*ParseError)(nil)
	_ MCPError = (*UnknownMethodError)(nil)
	_ MCPError = (*UnknownToolError)(nil)
	_ MCPError = (*UnknownResourceError)(nil)
	_ MCPError = (*HandlerError)(nil)
	_ MCPError = (*TransportError)(nil)
	_ MCPError = (*ResponseError)(nil)
)

// Sentinel errors for commonly checked conditions.
var (
	// ErrClientNotConnected indicates the client is not connected.
	ErrClientNotConnected = errors.New("client not connected")

	// ErrClientAlreadyConnected indicates the client is already connected.
	ErrClientAlreadyConnected = errors.New("client already connected")

	// ErrClientClosed indicates the client has been closed and cannot be reused.
	ErrClientClosed = errors.New("client closed: clients are single-use, create a new one with NewClient()")

	// ErrTransportClosed indicates the transport has been closed.
	ErrTransportClosed = errors.New("transport closed")

	// ErrRequestTimeout indicates a request timed out.
	ErrRequestTimeout = errors.New("request timeout")

	// ErrCorrelatorStopped indicates the correlator stopped before a response arrived.
	ErrCorrelatorStopped = errors.New("correlator stopped")

	// ErrRequestCancelled indicates the caller abandoned a pending request.
	ErrRequestCancelled = errors.New("request cancelled")

	// ErrInvalidEnvelope indicates an envelope violates the result/error invariant.
	ErrInvalidEnvelope = errors.New("invalid envelope")

	// ErrRateLimited indicates the server rejected a request because the
	// connection exceeded its request rate.
	ErrRateLimited = errors.New("rate limit exceeded")
)

// ParseError indicates an inbound message could not be parsed as an envelope.
//
// ID holds whatever request id could be recovered from the message, or nil
// when the id field itself could not be read.
type ParseError struct {
	ID      any
	RawData string
	Err     error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse error: %v", e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// IsMCPError implements MCPError.
func (e *ParseError) IsMCPError() bool { return true }

// UnknownMethodError indicates a request named a method the server does not route.
type UnknownMethodError struct {
	Method string
}

func (e *UnknownMethodError) Error() string {
	return "unknown method " + e.Method
}

// IsMCPError implements MCPError.
func (e *UnknownMethodError) IsMCPError() bool { return true }

// UnknownToolError indicates tools/call named a tool that is not registered.
type UnknownToolError struct {
	Name string
}

func (e *UnknownToolError) Error() string {
	return "unknown tool " + e.Name
}

// IsMCPError implements MCPError.
func (e *UnknownToolError) IsMCPError() bool { return true }

// UnknownResourceError indicates resources/read named a uri that is not registered.
type UnknownResourceError struct {
	URI string
}

func (e *UnknownResourceError) Error() string {
	return "unknown resource " + e.URI
}

// IsMCPError implements MCPError.
func (e *UnknownResourceError) IsMCPError() bool { return true }

// HandlerError indicates a tool handler or resource reader failed.
//
// Target is the tool name or resource uri whose handler failed.
type HandlerError struct {
	Target string
	Err    error
}

func (e *HandlerError) Error() string {
	return fmt.Sprintf("%s failed: %v", e.Target, e.Err)
}

func (e *HandlerError) Unwrap() error {
	return e.Err
}

// IsMCPError implements MCPError.
func (e *HandlerError) IsMCPError() bool { return true }

// TransportError indicates a send or receive on the transport failed.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("transport %s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// IsMCPError implements MCPError.
func (e *TransportError) IsMCPError() bool { return true }

// ResponseError is returned to a client caller when the peer answered with
// an error object instead of a result.
type ResponseError struct {
	Code    int
	Message string
	Data    any
}

func (e *ResponseError) Error() string {
	if e.Code != 0 {
		return fmt.Sprintf("server error %d: %s", e.Code, e.Message)
	}

	return "server error: " + e.Message
}

// IsMCPError implements MCPError.
func (e *ResponseError) IsMCPError() bool { return true }
