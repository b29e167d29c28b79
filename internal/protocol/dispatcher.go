package protocol

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"log/slog"
	"runtime/debug"
	"time"

	"github.com/google/uuid"
	"github.com/modelcontextprotocol/go-sdk/mcp"
	"golang.org/x/time/rate"

	"github.com/wagiedev/mcpws-go/internal/config"
	"github.com/wagiedev/mcpws-go/internal/envelope"
	"github.com/wagiedev/mcpws-go/internal/errors"
	"github.com/wagiedev/mcpws-go/internal/metrics"
)

// ToolRegistry supplies the tools a Dispatcher exposes.
//
// CallTool returns *errors.UnknownToolError for names it does not know.
type ToolRegistry interface {
	ListTools() []map[string]any
	CallTool(ctx context.Context, name string, arguments map[string]any) (map[string]any, error)
}

// ResourceRegistry supplies the resources a Dispatcher exposes.
//
// ReadResource returns *errors.UnknownResourceError for uris it does not know.
type ResourceRegistry interface {
	ListResources() []map[string]any
	ReadResource(ctx context.Context, uri string) (*mcp.ResourceContents, error)
}

// Dispatcher routes inbound requests to registry handlers and answers them.
//
// One Dispatcher serves any number of connections; each call to
// HandleConnection owns one connection and processes its messages in
// arrival order.
type Dispatcher struct {
	log       *slog.Logger
	tools     ToolRegistry
	resources ResourceRegistry
	options   *config.Options
	metrics   *metrics.Collector
}

// NewDispatcher creates a dispatcher over the given registries.
//
// options supplies server info, the protocol version and the per-connection
// rate limit. collector may be nil.
func NewDispatcher(
	log *slog.Logger,
	tools ToolRegistry,
	resources ResourceRegistry,
	options *config.Options,
	collector *metrics.Collector,
) *Dispatcher {
	if options == nil {
		options = config.NewOptions()
	}

	return &Dispatcher{
		log:       log.With("component", "dispatcher"),
		tools:     tools,
		resources: resources,
		options:   options,
		metrics:   collector,
	}
}

// Session is the per-connection state of a Dispatcher.
type Session struct {
	ID string

	dispatcher *Dispatcher
	log        *slog.Logger
	limiter    *rate.Limiter
}

// NewSession creates the state for one connection.
func (d *Dispatcher) NewSession() *Session {
	id := uuid.NewString()

	s := &Session{
		ID:         id,
		dispatcher: d,
		log:        d.log.With("session_id", id),
	}

	if d.options.RateLimit > 0 {
		burst := d.options.RateBurst
		if burst <= 0 {
			burst = max(1, int(d.options.RateLimit))
		}

		s.limiter = rate.NewLimiter(rate.Limit(d.options.RateLimit), burst)
	}

	return s
}

// HandleConnection serves one connection in a new session until it closes
// or ctx is done.
func (d *Dispatcher) HandleConnection(ctx context.Context, transport Transport) error {
	return d.NewSession().Serve(ctx, transport)
}

// Serve processes messages from transport in arrival order until it closes
// or ctx is done.
//
// A clean close returns nil. A failed write tears the connection down and
// returns a *errors.TransportError.
func (s *Session) Serve(ctx context.Context, transport Transport) error {
	s.dispatcher.metrics.SessionOpened()
	defer s.dispatcher.metrics.SessionClosed()

	s.log.Info("Client connected")
	defer s.log.Info("Client disconnected")

	messages, errs := transport.ReadMessages(ctx)

	for {
		select {
		case msg, ok := <-messages:
			if !ok {
				if err := bufferedError(errs); err != nil {
					s.log.Debug("Transport read ended", "error", err)

					return &errors.TransportError{Op: "receive", Err: err}
				}

				return nil
			}

			resp := s.Handle(ctx, msg)
			if resp == nil {
				continue
			}

			data, err := json.Marshal(resp)
			if err != nil {
				s.log.Error("Failed to marshal response", "error", err)

				data, _ = json.Marshal(envelope.NewError(resp.ID, envelope.CodeInternalError, "failed to encode result"))
			}

			if err := transport.SendMessage(ctx, data); err != nil {
				s.log.Error("Failed to send response", "error", err)

				return &errors.TransportError{Op: "send", Err: err}
			}

		case err, ok := <-errs:
			if !ok {
				errs = nil

				continue
			}

			if err != nil {
				s.log.Debug("Transport read ended", "error", err)

				return &errors.TransportError{Op: "receive", Err: err}
			}

		case <-ctx.Done():
			return nil
		}
	}
}

// Handle processes one inbound message and returns the response to send,
// or nil when the message needs no answer (notifications and stray
// responses).
func (s *Session) Handle(ctx context.Context, data []byte) *envelope.Envelope {
	start := time.Now()

	env, err := envelope.Parse(data)
	if err != nil {
		s.log.Warn("Received malformed message", "error", err)

		var id any
		if parseErr, ok := stderrors.AsType[*errors.ParseError](err); ok {
			id = parseErr.ID
		}

		s.dispatcher.metrics.RecordRequest("", metrics.OutcomeParseError, time.Since(start))

		return envelope.FromError(id, err)
	}

	if env.IsResponse() {
		s.log.Debug("Ignoring response sent to server", "id", env.ID)

		return nil
	}

	if env.IsNotification() {
		s.log.Debug("Ignoring notification", "method", env.Method)

		return nil
	}

	if s.limiter != nil && !s.limiter.Allow() {
		s.log.Warn("Rate limit exceeded", "method", env.Method)
		s.dispatcher.metrics.RecordRequest(methodLabel(env.Method), metrics.OutcomeRateLimited, time.Since(start))

		return envelope.FromError(env.ID, errors.ErrRateLimited)
	}

	s.log.Debug("Received request", "id", env.ID, "method", env.Method)

	result, err := s.dispatcher.dispatch(ctx, env.Method, env.Params)

	outcome := metrics.OutcomeOK
	defer func() {
		s.dispatcher.metrics.RecordRequest(methodLabel(env.Method), outcome, time.Since(start))
	}()

	if err != nil {
		outcome = metrics.OutcomeError

		s.log.Warn("Request failed", "id", env.ID, "method", env.Method, "error", err)

		return envelope.FromError(env.ID, err)
	}

	resp, err := envelope.NewResult(env.ID, result)
	if err != nil {
		outcome = metrics.OutcomeError

		s.log.Error("Failed to encode result", "id", env.ID, "method", env.Method, "error", err)

		return envelope.FromError(env.ID, &errors.HandlerError{Target: env.Method, Err: err})
	}

	return resp
}

// methodLabel maps method to its metrics label. Methods the dispatcher
// does not route share one label so clients cannot mint new series.
func methodLabel(method string) string {
	switch method {
	case MethodInitialize, MethodToolsList, MethodToolsCall, MethodResourcesList, MethodResourcesRead:
		return method
	default:
		return metrics.MethodUnknown
	}
}

// dispatch routes method to its handler. Panics raised by handlers are
// recovered into *errors.HandlerError.
func (d *Dispatcher) dispatch(ctx context.Context, method string, params map[string]any) (result any, err error) {
	defer func() {
		if r := recover(); r != nil {
			d.log.Error("Handler panicked", "method", method, "panic", r, "stack", string(debug.Stack()))

			result = nil
			err = &errors.HandlerError{Target: method, Err: fmt.Errorf("panic: %v", r)}
		}
	}()

	switch method {
	case MethodInitialize:
		return d.handleInitialize(), nil

	case MethodToolsList:
		return map[string]any{"tools": d.listTools()}, nil

	case MethodToolsCall:
		return d.handleToolsCall(ctx, params)

	case MethodResourcesList:
		return map[string]any{"resources": d.listResources()}, nil

	case MethodResourcesRead:
		return d.handleResourcesRead(ctx, params)

	default:
		return nil, &errors.UnknownMethodError{Method: method}
	}
}

// handleInitialize answers the initialize method.
func (d *Dispatcher) handleInitialize() *InitializeResult {
	return &InitializeResult{
		ProtocolVersion: d.options.ProtocolVersion,
		Capabilities: map[string]any{
			"tools":     map[string]any{},
			"resources": map[string]any{},
		},
		ServerInfo: Info{
			Name:    d.options.ServerName,
			Version: d.options.ServerVersion,
		},
	}
}

func (d *Dispatcher) listTools() []map[string]any {
	if d.tools == nil {
		return []map[string]any{}
	}

	return d.tools.ListTools()
}

func (d *Dispatcher) listResources() []map[string]any {
	if d.resources == nil {
		return []map[string]any{}
	}

	return d.resources.ListResources()
}

// handleToolsCall handles the tools/call method.
func (d *Dispatcher) handleToolsCall(ctx context.Context, params map[string]any) (any, error) {
	name, _ := params["name"].(string)

	arguments, ok := params["arguments"].(map[string]any)
	if !ok && params["arguments"] != nil {
		return nil, &errors.HandlerError{Target: name, Err: fmt.Errorf("arguments must be an object")}
	}

	if d.tools == nil {
		return nil, &errors.UnknownToolError{Name: name}
	}

	d.log.Debug("Calling tool", "tool", name)

	result, err := d.tools.CallTool(ctx, name, arguments)
	if err != nil {
		if _, isMCP := stderrors.AsType[errors.MCPError](err); isMCP {
			return nil, err
		}

		return nil, &errors.HandlerError{Target: name, Err: err}
	}

	return result, nil
}

// handleResourcesRead handles the resources/read method.
func (d *Dispatcher) handleResourcesRead(ctx context.Context, params map[string]any) (any, error) {
	uri, _ := params["uri"].(string)

	if d.resources == nil {
		return nil, &errors.UnknownResourceError{URI: uri}
	}

	d.log.Debug("Reading resource", "uri", uri)

	contents, err := d.resources.ReadResource(ctx, uri)
	if err != nil {
		if _, isMCP := stderrors.AsType[errors.MCPError](err); isMCP {
			return nil, err
		}

		return nil, &errors.HandlerError{Target: uri, Err: err}
	}

	return &ReadResourceResult{
		Contents: []ResourceContents{{
			URI:      contents.URI,
			MIMEType: contents.MIMEType,
			Text:     contents.Text,
		}},
	}, nil
}
