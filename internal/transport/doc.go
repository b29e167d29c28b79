// Package transport carries envelopes over WebSocket text frames.
//
// Conn adapts a github.com/coder/websocket connection to the
// ReadMessages/SendMessage/Close contract used by the correlator and the
// dispatcher. Dial opens client connections and Accept upgrades server
// requests; both apply the same read limit and subprotocol options.
package transport
