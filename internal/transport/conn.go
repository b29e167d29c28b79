package transport

import (
	"context"
	stderrors "errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"sync/atomic"

	"github.com/coder/websocket"

	"github.com/wagiedev/mcpws-go/internal/config"
	"github.com/wagiedev/mcpws-go/internal/errors"
)

// Compile-time verification that Conn implements config.Transport.
var _ config.Transport = (*Conn)(nil)

// Options configures Dial and Accept.
type Options struct {
	// ReadLimit caps one inbound message in bytes. Zero uses the
	// websocket library default.
	ReadLimit int64

	// Subprotocols are offered (Dial) or accepted (Accept).
	Subprotocols []string

	// OriginPatterns lists additional origins Accept allows.
	OriginPatterns []string

	// HTTPHeader is sent with the Dial handshake.
	HTTPHeader http.Header
}

// Conn is one WebSocket connection.
type Conn struct {
	log *slog.Logger
	ws  *websocket.Conn

	readOnce  sync.Once
	closed    atomic.Bool
	closeOnce sync.Once
	closeErr  error
}

// Dial connects to a WebSocket server at url.
func Dial(ctx context.Context, log *slog.Logger, url string, opts *Options) (*Conn, error) {
	if opts == nil {
		opts = &Options{}
	}

	ws, _, err := websocket.Dial(ctx, url, &websocket.DialOptions{
		Subprotocols: opts.Subprotocols,
		HTTPHeader:   opts.HTTPHeader,
	})
	if err != nil {
		return nil, &errors.TransportError{Op: "dial", Err: err}
	}

	return newConn(log, ws, opts), nil
}

// Accept upgrades an HTTP request to a WebSocket connection.
//
// On failure Accept has already written an HTTP error response.
func Accept(w http.ResponseWriter, r *http.Request, log *slog.Logger, opts *Options) (*Conn, error) {
	if opts == nil {
		opts = &Options{}
	}

	ws, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		Subprotocols:   opts.Subprotocols,
		OriginPatterns: opts.OriginPatterns,
	})
	if err != nil {
		return nil, &errors.TransportError{Op: "accept", Err: err}
	}

	return newConn(log, ws, opts), nil
}

func newConn(log *slog.Logger, ws *websocket.Conn, opts *Options) *Conn {
	if opts.ReadLimit > 0 {
		ws.SetReadLimit(opts.ReadLimit)
	}

	return &Conn{
		log: log.With("component", "transport"),
		ws:  ws,
	}
}

// Subprotocol returns the negotiated subprotocol, if any.
func (c *Conn) Subprotocol() string {
	return c.ws.Subprotocol()
}

// ReadMessages starts the read loop and returns its channels.
//
// Every text or binary frame is delivered as one message. Both channels
// are closed when the peer closes the connection, ctx is done, or Close is
// called; an abnormal read failure is delivered on the error channel
// first. ReadMessages must be called at most once.
func (c *Conn) ReadMessages(ctx context.Context) (<-chan []byte, <-chan error) {
	messages := make(chan []byte, 16)
	errs := make(chan error, 1)

	started := false

	c.readOnce.Do(func() {
		started = true

		go c.readLoop(ctx, messages, errs)
	})

	if !started {
		errs <- fmt.Errorf("read loop already started")
		close(errs)
		close(messages)
	}

	return messages, errs
}

func (c *Conn) readLoop(ctx context.Context, messages chan<- []byte, errs chan<- error) {
	defer close(errs)
	defer close(messages)

	for {
		_, data, err := c.ws.Read(ctx)
		if err != nil {
			if c.isCleanClose(ctx, err) {
				c.log.Debug("Connection closed", "status", websocket.CloseStatus(err))

				return
			}

			c.log.Debug("Read failed", "error", err)
			errs <- err

			return
		}

		select {
		case messages <- data:
		case <-ctx.Done():
			return
		}
	}
}

// isCleanClose reports whether a read error is an orderly shutdown rather
// than a failure.
func (c *Conn) isCleanClose(ctx context.Context, err error) bool {
	if c.closed.Load() || ctx.Err() != nil {
		return true
	}

	switch websocket.CloseStatus(err) {
	case websocket.StatusNormalClosure, websocket.StatusGoingAway:
		return true
	}

	return stderrors.Is(err, context.Canceled)
}

// SendMessage writes data as one text frame. It is safe for concurrent use.
func (c *Conn) SendMessage(ctx context.Context, data []byte) error {
	if c.closed.Load() {
		return errors.ErrTransportClosed
	}

	if err := c.ws.Write(ctx, websocket.MessageText, data); err != nil {
		return fmt.Errorf("websocket write: %w", err)
	}

	return nil
}

// Close performs the closing handshake. It's safe to call Close multiple times.
func (c *Conn) Close() error {
	c.closeOnce.Do(func() {
		c.closed.Store(true)

		err := c.ws.Close(websocket.StatusNormalClosure, "closing")
		if err != nil && websocket.CloseStatus(err) == -1 && !stderrors.Is(err, net.ErrClosed) {
			c.closeErr = err
		}
	})

	return c.closeErr
}
