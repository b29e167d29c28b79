// Package errors defines error types for the mcpws client and server.
//
// This package provides structured error types for the failure kinds of the
// protocol core: malformed envelopes, unknown methods, tools and resources,
// failing handlers, transport failures and error responses returned by a
// peer. All error types support unwrapping and can be checked using
// errors.Is, errors.As, and errors.AsType.
package errors
