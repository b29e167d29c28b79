package config

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Defaults shared by the library and the binaries.
const (
	DefaultProtocolVersion  = "2024-01-01"
	DefaultServerName       = "mcpws-server"
	DefaultServerVersion    = "1.0.0"
	DefaultClientName       = "mcpws-client"
	DefaultClientVersion    = "1.0.0"
	DefaultAddr             = "localhost:8765"
	DefaultURL              = "ws://localhost:8765"
	DefaultRequestTimeout   = 30 * time.Second
	DefaultReadLimit        = 1 << 20
	DefaultMetricsNamespace = "mcpws"
	DefaultPath             = "/"
	DefaultShutdownTimeout  = 5 * time.Second
)

// Options configures clients and servers.
type Options struct {
	// Logger is the slog logger for debug output.
	// If nil, logging is disabled (silent operation).
	Logger *slog.Logger

	// URL is the WebSocket endpoint a client dials.
	URL string

	// RequestTimeout bounds how long a client waits for a response when
	// the request context carries no deadline.
	// Zero means requests wait until their context is done.
	RequestTimeout time.Duration

	// ClientName and ClientVersion are sent as clientInfo in initialize.
	ClientName    string
	ClientVersion string

	// Subprotocols are offered during the WebSocket handshake.
	Subprotocols []string

	// Transport allows injecting a custom client transport.
	// If nil, the client dials URL over WebSocket.
	Transport Transport

	// ServerName and ServerVersion are reported as serverInfo in initialize.
	ServerName    string
	ServerVersion string

	// ProtocolVersion is reported by initialize.
	ProtocolVersion string

	// Path is the HTTP path that upgrades to WebSocket.
	Path string

	// Handlers are extra HTTP handlers mounted beside Path, keyed by
	// ServeMux pattern.
	Handlers map[string]http.Handler

	// ShutdownTimeout bounds graceful shutdown of a listening server.
	ShutdownTimeout time.Duration

	// ReadLimit caps the size of a single inbound message in bytes.
	ReadLimit int64

	// RateLimit is the sustained number of requests per second accepted on
	// one server connection. Zero disables rate limiting.
	RateLimit float64

	// RateBurst is the number of requests allowed in a burst above RateLimit.
	RateBurst int

	// MetricsRegisterer receives the server collectors.
	// If nil, metrics are not recorded.
	MetricsRegisterer prometheus.Registerer

	// MetricsNamespace prefixes every metric name.
	MetricsNamespace string
}

// NewOptions returns Options populated with defaults.
func NewOptions() *Options {
	return &Options{
		URL:              DefaultURL,
		RequestTimeout:   DefaultRequestTimeout,
		ClientName:       DefaultClientName,
		ClientVersion:    DefaultClientVersion,
		ServerName:       DefaultServerName,
		ServerVersion:    DefaultServerVersion,
		ProtocolVersion:  DefaultProtocolVersion,
		Path:             DefaultPath,
		ShutdownTimeout:  DefaultShutdownTimeout,
		ReadLimit:        DefaultReadLimit,
		MetricsNamespace: DefaultMetricsNamespace,
	}
}

// Log returns the configured logger or a logger that discards everything.
func (o *Options) Log() *slog.Logger {
	if o == nil || o.Logger == nil {
		return slog.New(slog.DiscardHandler)
	}

	return o.Logger
}
