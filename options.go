package mcpws

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/wagiedev/mcpws-go/internal/config"
)

// Options holds client and server configuration.
type Options = config.Options

// Option configures Options using the functional options pattern.
// The same option type serves NewServer, Client.Start and WithClient;
// options that do not apply to one side are ignored by it.
type Option func(*Options)

// applyOptions applies functional options on top of the defaults.
func applyOptions(opts []Option) *Options {
	options := config.NewOptions()
	for _, opt := range opts {
		opt(options)
	}

	return options
}

// ===== Shared Configuration =====

// WithLogger sets the logger for debug output.
// If not set, logging is disabled (silent operation).
func WithLogger(logger *slog.Logger) Option {
	return func(o *Options) {
		o.Logger = logger
	}
}

// WithProtocolVersion sets the protocol version a client announces and a
// server reports from initialize.
func WithProtocolVersion(version string) Option {
	return func(o *Options) {
		o.ProtocolVersion = version
	}
}

// WithReadLimit caps the size in bytes of a single inbound message.
func WithReadLimit(limit int64) Option {
	return func(o *Options) {
		o.ReadLimit = limit
	}
}

// WithSubprotocols sets the WebSocket subprotocols offered by a client or
// accepted by a server.
func WithSubprotocols(protocols ...string) Option {
	return func(o *Options) {
		o.Subprotocols = protocols
	}
}

// ===== Client Configuration =====

// WithURL sets the WebSocket endpoint a client dials.
func WithURL(url string) Option {
	return func(o *Options) {
		o.URL = url
	}
}

// WithRequestTimeout bounds how long a client waits for each response
// when the request context has no deadline of its own. Zero disables the
// default timeout; requests then wait until their context is done.
func WithRequestTimeout(timeout time.Duration) Option {
	return func(o *Options) {
		o.RequestTimeout = timeout
	}
}

// WithClientInfo sets the clientInfo sent by Initialize.
func WithClientInfo(name, version string) Option {
	return func(o *Options) {
		o.ClientName = name
		o.ClientVersion = version
	}
}

// WithTransport injects a custom client transport instead of dialing URL.
func WithTransport(transport Transport) Option {
	return func(o *Options) {
		o.Transport = transport
	}
}

// ===== Server Configuration =====

// WithServerInfo sets the serverInfo reported by initialize.
func WithServerInfo(name, version string) Option {
	return func(o *Options) {
		o.ServerName = name
		o.ServerVersion = version
	}
}

// WithRateLimit limits each server connection to rps sustained requests per
// second with the given burst. Requests over the limit receive an error
// response. A burst of zero defaults to rps rounded down, at least one.
func WithRateLimit(rps float64, burst int) Option {
	return func(o *Options) {
		o.RateLimit = rps
		o.RateBurst = burst
	}
}

// WithMetrics registers the server's Prometheus collectors with reg under
// namespace. An empty namespace keeps the default.
func WithMetrics(reg prometheus.Registerer, namespace string) Option {
	return func(o *Options) {
		o.MetricsRegisterer = reg

		if namespace != "" {
			o.MetricsNamespace = namespace
		}
	}
}

// WithPath sets the HTTP path that upgrades to WebSocket. Default: /
func WithPath(path string) Option {
	return func(o *Options) {
		o.Path = path
	}
}

// WithHandler mounts an extra HTTP handler beside the WebSocket endpoint,
// such as a metrics or health endpoint.
func WithHandler(pattern string, handler http.Handler) Option {
	return func(o *Options) {
		if o.Handlers == nil {
			o.Handlers = make(map[string]http.Handler, 1)
		}

		o.Handlers[pattern] = handler
	}
}

// WithShutdownTimeout bounds graceful shutdown in ListenAndServe and Serve.
func WithShutdownTimeout(timeout time.Duration) Option {
	return func(o *Options) {
		o.ShutdownTimeout = timeout
	}
}
