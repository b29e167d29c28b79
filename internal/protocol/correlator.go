package protocol

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/wagiedev/mcpws-go/internal/envelope"
	"github.com/wagiedev/mcpws-go/internal/errors"
)

// Correlator pairs outbound requests with the responses that answer them.
//
// The Correlator handles:
//   - Assigning a unique ULID to every outbound request
//   - Tracking pending requests until their response arrives
//   - Resolving pending requests from the transport read loop
//   - Reclaiming entries of requests the caller abandoned
//   - Failing every pending request when the transport goes away
//
// The Correlator must be started with Start() before use and manages its
// own goroutine for reading and routing messages.
type Correlator struct {
	log       *slog.Logger
	transport Transport
	timeout   time.Duration

	// Request tracking. closed is set once the pending map has been drained
	// for teardown; no entries are added after that.
	pendingMu sync.Mutex
	pending   map[string]*Call
	closed    bool

	// Fatal error handling - stores error and broadcasts via done channel
	errMu    sync.RWMutex
	fatalErr error

	// Lifecycle management
	closeOnce sync.Once
	done      chan struct{}
	wg        sync.WaitGroup
}

// Call is one outstanding request.
type Call struct {
	ID     string
	Method string

	correlator *Correlator
	done       chan struct{}
	resp       *envelope.Envelope
	err        error
}

// NewCorrelator creates a new correlator.
//
// timeout is the default response timeout applied by Request; zero means
// Request waits until its context is done.
func NewCorrelator(log *slog.Logger, transport Transport, timeout time.Duration) *Correlator {
	return &Correlator{
		log:       log.With("component", "correlator"),
		transport: transport,
		timeout:   timeout,
		pending:   make(map[string]*Call, 10),
		done:      make(chan struct{}),
	}
}

// closeDone safely closes the done channel exactly once.
func (c *Correlator) closeDone() {
	c.closeOnce.Do(func() {
		close(c.done)
	})
}

// SetFatalError stores a fatal error and broadcasts to all waiters by closing done.
func (c *Correlator) SetFatalError(err error) {
	c.errMu.Lock()

	if c.fatalErr == nil {
		c.fatalErr = err
	}

	c.errMu.Unlock()

	c.closeDone()
}

// FatalError returns the fatal error if one occurred.
func (c *Correlator) FatalError() error {
	c.errMu.RLock()
	defer c.errMu.RUnlock()

	return c.fatalErr
}

// Done returns a channel that is closed when the correlator stops.
func (c *Correlator) Done() <-chan struct{} {
	return c.done
}

// Start begins reading responses from the transport.
//
// The read loop stops when the context is cancelled, the transport closes,
// or Stop is called. Every request still pending at that point is failed.
func (c *Correlator) Start(ctx context.Context) {
	c.log.Debug("Starting correlator")

	messages, errs := c.transport.ReadMessages(ctx)

	c.wg.Go(func() {
		c.readLoop(ctx, messages, errs)
	})
}

// Stop shuts the correlator down and fails all pending requests with
// ErrCorrelatorStopped. It's safe to call Stop multiple times.
func (c *Correlator) Stop() {
	c.log.Debug("Stopping correlator")

	c.closeDone()
	c.wg.Wait()
	c.failAll(errors.ErrCorrelatorStopped)
}

// PendingCount returns the number of requests awaiting a response.
func (c *Correlator) PendingCount() int {
	c.pendingMu.Lock()
	defer c.pendingMu.Unlock()

	return len(c.pending)
}

// Go sends a request and returns its Call without waiting for the response.
//
// The pending entry is recorded before the envelope is written, so a fast
// response cannot be missed. If the write fails the entry is removed and a
// *errors.TransportError is returned.
func (c *Correlator) Go(ctx context.Context, method string, params map[string]any) (*Call, error) {
	id := ulid.Make().String()

	data, err := json.Marshal(envelope.NewRequest(id, method, params))
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	call := &Call{
		ID:         id,
		Method:     method,
		correlator: c,
		done:       make(chan struct{}),
	}

	c.pendingMu.Lock()

	if c.closed {
		c.pendingMu.Unlock()

		return nil, c.stoppedError()
	}

	c.pending[id] = call
	c.pendingMu.Unlock()

	c.log.Debug("Sending request", "request_id", id, "method", method)

	if err := c.transport.SendMessage(ctx, data); err != nil {
		c.remove(call)
		c.log.Error("Failed to send request", "request_id", id, "method", method, "error", err)

		return nil, &errors.TransportError{Op: "send", Err: err}
	}

	return call, nil
}

// Request sends a request and waits for its result.
//
// A response carrying an error object is returned as *errors.ResponseError.
// When ctx has no deadline and the correlator has a default timeout,
// waiting longer than that abandons the request and returns an error
// wrapping ErrRequestTimeout. A deadline on ctx takes precedence.
func (c *Correlator) Request(ctx context.Context, method string, params map[string]any) (json.RawMessage, error) {
	call, err := c.Go(ctx, method, params)
	if err != nil {
		return nil, err
	}

	if _, hasDeadline := ctx.Deadline(); !hasDeadline && c.timeout > 0 {
		var cancel context.CancelFunc

		ctx, cancel = context.WithTimeoutCause(ctx, c.timeout,
			fmt.Errorf("%w after %s", errors.ErrRequestTimeout, c.timeout))
		defer cancel()
	}

	resp, err := call.Wait(ctx)
	if err != nil {
		c.log.Debug("Request abandoned", "request_id", call.ID, "method", method, "error", err)

		return nil, err
	}

	if err := resp.Err(); err != nil {
		c.log.Debug("Request returned error", "request_id", call.ID, "method", method, "error", err)

		return nil, err
	}

	return resp.Result, nil
}

// Done returns a channel that is closed once the call is resolved.
func (call *Call) Done() <-chan struct{} {
	return call.done
}

// Wait blocks until the response arrives, the correlator stops, or ctx is
// done. When ctx ends first the call is cancelled and its pending entry
// removed; the returned error is the context cause.
//
// The response is returned as received, including error responses.
func (call *Call) Wait(ctx context.Context) (*envelope.Envelope, error) {
	select {
	case <-call.done:
		return call.resp, call.err
	case <-ctx.Done():
		if call.Cancel() {
			return nil, context.Cause(ctx)
		}

		// The response won the race; it is already resolved.
		<-call.done

		return call.resp, call.err
	}
}

// Cancel abandons the call and removes its pending entry. A later response
// with the same id is dropped. Cancel reports whether the call was still
// pending.
func (call *Call) Cancel() bool {
	if !call.correlator.remove(call) {
		return false
	}

	call.resolve(nil, errors.ErrRequestCancelled)

	return true
}

// resolve is called exactly once, by whoever removed the pending entry.
func (call *Call) resolve(resp *envelope.Envelope, err error) {
	call.resp = resp
	call.err = err
	close(call.done)
}

// remove deletes call from the pending map if it is still there.
func (c *Correlator) remove(call *Call) bool {
	c.pendingMu.Lock()
	defer c.pendingMu.Unlock()

	if c.pending[call.ID] != call {
		return false
	}

	delete(c.pending, call.ID)

	return true
}

// claim removes and returns the pending call for id.
func (c *Correlator) claim(id string) (*Call, bool) {
	c.pendingMu.Lock()
	defer c.pendingMu.Unlock()

	call, exists := c.pending[id]
	if exists {
		delete(c.pending, id)
	}

	return call, exists
}

// failAll drains the pending map and fails every call. After failAll no
// new calls are accepted.
func (c *Correlator) failAll(cause error) {
	if err := c.FatalError(); err != nil {
		cause = err
	}

	c.pendingMu.Lock()
	calls := c.pending
	c.pending = make(map[string]*Call)
	c.closed = true
	c.pendingMu.Unlock()

	if len(calls) > 0 {
		c.log.Debug("Failing pending requests", "count", len(calls), "error", cause)
	}

	for _, call := range calls {
		call.resolve(nil, cause)
	}
}

// stoppedError returns the error reported to requests made after teardown.
func (c *Correlator) stoppedError() error {
	if err := c.FatalError(); err != nil {
		return err
	}

	return errors.ErrCorrelatorStopped
}

// bufferedError returns a read error already waiting on errs. A transport
// may close its message channel right after queueing the error that ended
// it, so a closed message channel is checked against errs first.
func bufferedError(errs <-chan error) error {
	if errs == nil {
		return nil
	}

	select {
	case err := <-errs:
		return err
	default:
		return nil
	}
}

// readLoop reads messages from the transport and routes responses.
func (c *Correlator) readLoop(ctx context.Context, messages <-chan []byte, errs <-chan error) {
	cause := errors.ErrCorrelatorStopped

	defer func() {
		c.closeDone()
		c.failAll(cause)
		c.log.Debug("Correlator read loop stopped")
	}()

	for {
		select {
		case msg, ok := <-messages:
			if !ok {
				if err := bufferedError(errs); err != nil {
					c.log.Debug("Transport error in correlator", "error", err)
					c.SetFatalError(&errors.TransportError{Op: "receive", Err: err})

					return
				}

				c.log.Debug("Message channel closed")

				cause = &errors.TransportError{Op: "receive", Err: errors.ErrTransportClosed}

				return
			}

			c.handleMessage(msg)

		case err, ok := <-errs:
			if !ok {
				errs = nil

				continue
			}

			if err != nil {
				c.log.Debug("Transport error in correlator", "error", err)
				c.SetFatalError(&errors.TransportError{Op: "receive", Err: err})

				return
			}

		case <-c.done:
			c.log.Debug("Correlator stop signal received")

			return

		case <-ctx.Done():
			c.log.Debug("Context cancelled in correlator read loop")

			return
		}
	}
}

// handleMessage resolves the pending call a response answers. Anything
// that does not match a pending call is dropped.
func (c *Correlator) handleMessage(data []byte) {
	env, err := envelope.Parse(data)
	if err != nil {
		c.log.Warn("Dropping malformed message", "error", err)

		return
	}

	if env.IsRequest() {
		c.log.Debug("Dropping inbound request", "method", env.Method)

		return
	}

	id, ok := env.Key()
	if !ok {
		c.log.Warn("Dropping response without id", "error", env.Err())

		return
	}

	call, exists := c.claim(id)
	if !exists {
		c.log.Debug("No pending request for response", "request_id", id)

		return
	}

	c.log.Debug("Received response", "request_id", id, "method", call.Method)

	call.resolve(env, nil)
}
