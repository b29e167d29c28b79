// Package protocol implements request/response correlation for clients and
// method dispatch for servers.
//
// The Correlator is the client half. It assigns a ULID to every outbound
// request, records a pending entry, and resolves that entry when the
// response with the same id arrives on the transport read loop. Responses
// are matched purely by id, so concurrently outstanding requests may be
// answered in any order. Pending entries are removed exactly once: by a
// matching response, by the caller abandoning the request, or by
// transport teardown.
//
// The Dispatcher is the server half. It reads envelopes from one
// connection, routes each method to the tool and resource registries, and
// writes back a response carrying the request id. Handler failures become
// error responses and never terminate the connection.
//
// Example usage:
//
//	correlator := protocol.NewCorrelator(log, conn, 30*time.Second)
//	correlator.Start(ctx)
//	defer correlator.Stop()
//
//	result, err := correlator.Request(ctx, protocol.MethodToolsList, nil)
package protocol
