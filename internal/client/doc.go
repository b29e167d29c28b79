// Package client implements the request side of an mcpws connection.
//
// A Client owns one transport and one protocol.Correlator. Every method
// that talks to the server is a single request/response exchange; any
// number of them may run concurrently and each response is routed back to
// the goroutine that issued the matching request.
//
// The typed methods (Initialize, ListTools, CallTool, ListResources,
// ReadResource) decode results into protocol types. Request exposes the raw
// exchange for methods the typed API does not cover.
package client
