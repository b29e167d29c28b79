package mcpws

import (
	"context"
	stderrors "errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/wagiedev/mcpws-go/internal/metrics"
	"github.com/wagiedev/mcpws-go/internal/protocol"
	"github.com/wagiedev/mcpws-go/internal/registry"
	"github.com/wagiedev/mcpws-go/internal/resources"
	"github.com/wagiedev/mcpws-go/internal/tools"
	"github.com/wagiedev/mcpws-go/internal/transport"
)

// readHeaderTimeout bounds the HTTP upgrade request.
const readHeaderTimeout = 10 * time.Second

// Server answers protocol requests on WebSocket connections.
//
// Tools and resources may be added or removed while the server runs; the
// change is visible to the next request on every connection.
type Server struct {
	log        *slog.Logger
	options    *Options
	registry   *registry.Registry
	dispatcher *protocol.Dispatcher

	// Live sessions, each with the cancel func that ends it.
	mu       sync.Mutex
	sessions map[string]context.CancelFunc
}

// Compile-time check that *Server is an http.Handler.
var _ http.Handler = (*Server)(nil)

// NewServer creates a server with an empty registry.
//
// With WithMetrics the server registers its collectors once; creating two
// servers on the same registerer panics on the duplicate registration.
func NewServer(opts ...Option) *Server {
	options := applyOptions(opts)
	log := options.Log().With("component", "server")

	var collector *metrics.Collector
	if options.MetricsRegisterer != nil {
		collector = metrics.NewCollector(options.MetricsNamespace, options.MetricsRegisterer)
	}

	reg := registry.New()

	return &Server{
		log:        log,
		options:    options,
		registry:   reg,
		dispatcher: protocol.NewDispatcher(options.Log(), reg, reg, options, collector),
		sessions:   make(map[string]context.CancelFunc),
	}
}

// AddTool registers a tool. Names must be unique.
func (s *Server) AddTool(tool *Tool, handler ToolHandler) error {
	return s.registry.AddTool(tool, handler)
}

// RemoveTool unregisters a tool and reports whether it was present.
func (s *Server) RemoveTool(name string) bool {
	return s.registry.RemoveTool(name)
}

// AddResource registers a resource. URIs must be unique.
func (s *Server) AddResource(resource *Resource, read ResourceReader) error {
	return s.registry.AddResource(resource, read)
}

// RemoveResource unregisters a resource and reports whether it was present.
func (s *Server) RemoveResource(uri string) bool {
	return s.registry.RemoveResource(uri)
}

// AddExamples registers the demo tools (calculator, get_weather,
// generate_ascii_art, generate_simple_ascii_art) and resources
// (file://README.md, file://data/users.json).
func (s *Server) AddExamples() error {
	if err := tools.Register(s.registry); err != nil {
		return fmt.Errorf("register example tools: %w", err)
	}

	if err := resources.Register(s.registry); err != nil {
		return fmt.Errorf("register example resources: %w", err)
	}

	return nil
}

// Sessions returns the number of live connections.
func (s *Server) Sessions() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return len(s.sessions)
}

// ServeHTTP upgrades the request to WebSocket and serves the connection
// until it closes.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := transport.Accept(w, r, s.options.Log(), &transport.Options{
		ReadLimit:    s.options.ReadLimit,
		Subprotocols: s.options.Subprotocols,
	})
	if err != nil {
		s.log.Warn("WebSocket upgrade failed", "remote_addr", r.RemoteAddr, "error", err)

		return
	}

	defer conn.Close()

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	session := s.dispatcher.NewSession()

	s.mu.Lock()
	s.sessions[session.ID] = cancel
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		delete(s.sessions, session.ID)
		s.mu.Unlock()
	}()

	s.log.Debug("Accepted connection", "session_id", session.ID, "remote_addr", r.RemoteAddr)

	if err := session.Serve(ctx, conn); err != nil {
		s.log.Warn("Session ended with error", "session_id", session.ID, "error", err)
	}
}

// CloseSessions ends every live connection.
func (s *Server) CloseSessions() {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, cancel := range s.sessions {
		cancel()
	}
}

// Handler returns the HTTP handler serving the WebSocket endpoint at the
// configured path plus any handlers added with WithHandler.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.Handle(s.options.Path, s)

	for pattern, h := range s.options.Handlers {
		mux.Handle(pattern, h)
	}

	return mux
}

// ListenAndServe listens on addr and serves until ctx is done, then shuts
// down gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	var lc net.ListenConfig

	ln, err := lc.Listen(ctx, "tcp", addr)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", addr, err)
	}

	return s.Serve(ctx, ln)
}

// Serve accepts connections on ln until ctx is done, then stops accepting,
// ends every live session and waits up to the shutdown timeout for
// handlers to return. A nil error means a clean shutdown.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: readHeaderTimeout,
		ErrorLog:          slog.NewLogLogger(s.log.Handler(), slog.LevelWarn),
	}

	// Hijacked WebSocket connections are invisible to Shutdown.
	srv.RegisterOnShutdown(s.CloseSessions)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		s.log.Info("Listening", "addr", ln.Addr().String(), "path", s.options.Path)

		if err := srv.Serve(ln); err != nil && !stderrors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("serve: %w", err)
		}

		return nil
	})

	g.Go(func() error {
		<-gctx.Done()

		s.log.Info("Shutting down", "sessions", s.Sessions())

		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.options.ShutdownTimeout)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown: %w", err)
		}

		return nil
	})

	return g.Wait()
}
