package protocol

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wagiedev/mcpws-go/internal/envelope"
	"github.com/wagiedev/mcpws-go/internal/errors"
)

func startCorrelator(t *testing.T, timeout time.Duration) (*Correlator, *mockTransport) {
	t.Helper()

	transport := newMockTransport()
	correlator := NewCorrelator(slog.Default(), transport, timeout)
	correlator.Start(context.Background())

	t.Cleanup(correlator.Stop)

	return correlator, transport
}

func TestCorrelator_ResponseCarriesRequestID(t *testing.T) {
	correlator, transport := startCorrelator(t, 0)

	call, err := correlator.Go(context.Background(), MethodToolsList, nil)
	require.NoError(t, err)

	req := transport.nextSent(t)
	require.Equal(t, call.ID, req.ID)
	require.Equal(t, MethodToolsList, req.Method)
	require.NotNil(t, req.Params)

	transport.respond(t, req, map[string]any{"tools": []any{}})

	resp, err := call.Wait(context.Background())
	require.NoError(t, err)
	require.Equal(t, call.ID, resp.ID)
	require.Equal(t, 0, correlator.PendingCount())
}

func TestCorrelator_UniqueIDs(t *testing.T) {
	correlator, _ := startCorrelator(t, 0)

	seen := make(map[string]bool, 100)

	for range 100 {
		call, err := correlator.Go(context.Background(), MethodInitialize, nil)
		require.NoError(t, err)
		require.False(t, seen[call.ID], "duplicate id %s", call.ID)

		seen[call.ID] = true
	}

	require.Equal(t, 100, correlator.PendingCount())
}

func TestCorrelator_OutOfOrderResponses(t *testing.T) {
	correlator, transport := startCorrelator(t, 0)

	const n = 5

	calls := make([]*Call, n)
	reqs := make([]*envelope.Envelope, n)

	for i := range n {
		call, err := correlator.Go(context.Background(), MethodToolsCall, map[string]any{"index": i})
		require.NoError(t, err)

		calls[i] = call
		reqs[i] = transport.nextSent(t)
	}

	for i := n - 1; i >= 0; i-- {
		transport.respond(t, reqs[i], map[string]any{"index": i})
	}

	for i, call := range calls {
		resp, err := call.Wait(context.Background())
		require.NoError(t, err)
		require.Equal(t, call.ID, resp.ID)

		var got struct {
			Index int `json:"index"`
		}

		require.NoError(t, resp.DecodeResult(&got))
		assert.Equal(t, i, got.Index, "response routed to the wrong caller")
	}

	require.Equal(t, 0, correlator.PendingCount())
}

func TestCorrelator_Request_ErrorResponse(t *testing.T) {
	correlator, transport := startCorrelator(t, time.Second)

	go func() {
		req := transport.nextSent(t)
		data, _ := json.Marshal(envelope.NewError(req.ID, envelope.CodeMethodNotFound, "unknown method foo/bar"))
		transport.deliver(data)
	}()

	_, err := correlator.Request(context.Background(), "foo/bar", nil)

	respErr, ok := stderrors.AsType[*errors.ResponseError](err)
	require.True(t, ok, "expected ResponseError, got %v", err)
	require.Equal(t, envelope.CodeMethodNotFound, respErr.Code)
	require.Contains(t, err.Error(), "unknown method foo/bar")
}

func TestCorrelator_Request_Result(t *testing.T) {
	correlator, transport := startCorrelator(t, time.Second)

	go func() {
		req := transport.nextSent(t)
		transport.respond(t, req, map[string]any{"protocolVersion": "2024-01-01"})
	}()

	raw, err := correlator.Request(context.Background(), MethodInitialize, nil)
	require.NoError(t, err)
	require.JSONEq(t, `{"protocolVersion":"2024-01-01"}`, string(raw))
}

func TestCorrelator_Request_Timeout(t *testing.T) {
	correlator, _ := startCorrelator(t, 20*time.Millisecond)

	_, err := correlator.Request(context.Background(), MethodToolsList, nil)
	require.ErrorIs(t, err, errors.ErrRequestTimeout)
	require.Equal(t, 0, correlator.PendingCount())
}

func TestCorrelator_Request_CallerDeadlineWins(t *testing.T) {
	correlator, transport := startCorrelator(t, 20*time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	type outcome struct {
		raw json.RawMessage
		err error
	}

	done := make(chan outcome, 1)

	go func() {
		raw, err := correlator.Request(ctx, MethodToolsList, nil)
		done <- outcome{raw: raw, err: err}
	}()

	req := transport.nextSent(t)

	time.Sleep(100 * time.Millisecond)
	transport.respond(t, req, map[string]any{"tools": []any{}})

	got := <-done
	require.NoError(t, got.err)
	require.JSONEq(t, `{"tools":[]}`, string(got.raw))
}

func TestCorrelator_CancelDoesNotLeak(t *testing.T) {
	correlator, transport := startCorrelator(t, 0)

	before := correlator.PendingCount()

	abandoned, err := correlator.Go(context.Background(), MethodToolsCall, nil)
	require.NoError(t, err)

	abandonedReq := transport.nextSent(t)

	require.Equal(t, before+1, correlator.PendingCount())
	require.True(t, abandoned.Cancel())
	require.False(t, abandoned.Cancel(), "second cancel must be a no-op")

	_, err = abandoned.Wait(context.Background())
	require.ErrorIs(t, err, errors.ErrRequestCancelled)

	// The late response for the abandoned id is dropped.
	transport.respond(t, abandonedReq, map[string]any{})

	// An unrelated request/response cycle still works.
	call, err := correlator.Go(context.Background(), MethodToolsList, nil)
	require.NoError(t, err)
	transport.respond(t, transport.nextSent(t), map[string]any{"tools": []any{}})

	_, err = call.Wait(context.Background())
	require.NoError(t, err)

	require.Equal(t, before, correlator.PendingCount())
}

func TestCorrelator_WaitContextCancelRemovesEntry(t *testing.T) {
	correlator, _ := startCorrelator(t, 0)

	call, err := correlator.Go(context.Background(), MethodToolsList, nil)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = call.Wait(ctx)
	require.ErrorIs(t, err, context.Canceled)
	require.Equal(t, 0, correlator.PendingCount())
}

func TestCorrelator_SendFailureRemovesEntry(t *testing.T) {
	correlator, transport := startCorrelator(t, 0)
	transport.setSendError(stderrors.New("broken pipe"))

	call, err := correlator.Go(context.Background(), MethodToolsList, nil)
	require.Nil(t, call)

	transportErr, ok := stderrors.AsType[*errors.TransportError](err)
	require.True(t, ok)
	require.Equal(t, "send", transportErr.Op)
	require.Equal(t, 0, correlator.PendingCount())
}

func TestCorrelator_MalformedInputDoesNotStopReadLoop(t *testing.T) {
	correlator, transport := startCorrelator(t, 0)

	call, err := correlator.Go(context.Background(), MethodInitialize, nil)
	require.NoError(t, err)

	req := transport.nextSent(t)

	transport.deliver([]byte(`{"id": "1", "result": `))
	transport.deliver([]byte(`not json at all`))
	transport.deliver([]byte(`{"id":"unknown-id","result":{}}`))
	transport.respond(t, req, map[string]any{})

	resp, err := call.Wait(context.Background())
	require.NoError(t, err)
	require.Equal(t, call.ID, resp.ID)
}

func TestCorrelator_TransportErrorFailsPending(t *testing.T) {
	correlator, transport := startCorrelator(t, 0)

	call, err := correlator.Go(context.Background(), MethodToolsList, nil)
	require.NoError(t, err)

	transport.errChan <- stderrors.New("connection reset")

	_, err = call.Wait(context.Background())

	transportErr, ok := stderrors.AsType[*errors.TransportError](err)
	require.True(t, ok, "expected TransportError, got %v", err)
	require.Equal(t, "receive", transportErr.Op)

	<-correlator.Done()
	require.Error(t, correlator.FatalError())

	_, err = correlator.Go(context.Background(), MethodToolsList, nil)
	require.Error(t, err)
	require.Equal(t, 0, correlator.PendingCount())
}

func TestCorrelator_TransportCloseFailsPending(t *testing.T) {
	correlator, transport := startCorrelator(t, 0)

	call, err := correlator.Go(context.Background(), MethodToolsList, nil)
	require.NoError(t, err)

	close(transport.msgChan)

	_, err = call.Wait(context.Background())
	require.ErrorIs(t, err, errors.ErrTransportClosed)
}

func TestCorrelator_ErrorQueuedBeforeCloseIsReported(t *testing.T) {
	for range 50 {
		transport := newMockTransport()
		transport.errChan <- stderrors.New("connection reset")
		close(transport.msgChan)

		correlator := NewCorrelator(slog.Default(), transport, 0)
		correlator.Start(context.Background())

		<-correlator.Done()
		correlator.Stop()

		transportErr, ok := stderrors.AsType[*errors.TransportError](correlator.FatalError())
		require.True(t, ok, "expected TransportError, got %v", correlator.FatalError())
		require.EqualError(t, transportErr.Err, "connection reset")
	}
}

func TestCorrelator_StopFailsPending(t *testing.T) {
	transport := newMockTransport()
	correlator := NewCorrelator(slog.Default(), transport, 0)
	correlator.Start(context.Background())

	call, err := correlator.Go(context.Background(), MethodToolsList, nil)
	require.NoError(t, err)

	correlator.Stop()

	_, err = call.Wait(context.Background())
	require.ErrorIs(t, err, errors.ErrCorrelatorStopped)

	_, err = correlator.Go(context.Background(), MethodToolsList, nil)
	require.ErrorIs(t, err, errors.ErrCorrelatorStopped)
}

func TestCorrelator_Stop_MultipleCalls(t *testing.T) {
	transport := newMockTransport()
	correlator := NewCorrelator(slog.Default(), transport, 0)
	correlator.Start(context.Background())

	correlator.Stop()
	correlator.Stop()
	correlator.Stop()

	select {
	case <-correlator.Done():
	default:
		t.Fatal("done channel should be closed")
	}
}

func TestCorrelator_SetFatalError_ConcurrentWithStop(t *testing.T) {
	// Run with: go test -race -count=100
	for range 100 {
		transport := newMockTransport()
		correlator := NewCorrelator(slog.Default(), transport, 0)
		correlator.Start(context.Background())

		var wg sync.WaitGroup

		wg.Go(func() {
			correlator.SetFatalError(stderrors.New("transport error"))
		})
		wg.Go(func() {
			correlator.Stop()
		})

		wg.Wait()

		select {
		case <-correlator.Done():
		default:
			t.Fatal("done channel should be closed")
		}
	}
}

func TestCorrelator_SetFatalError_KeepsFirst(t *testing.T) {
	correlator, _ := startCorrelator(t, 0)

	correlator.SetFatalError(stderrors.New("first error"))
	require.EqualError(t, correlator.FatalError(), "first error")

	correlator.SetFatalError(stderrors.New("second error"))
	require.EqualError(t, correlator.FatalError(), "first error")
}

func TestCorrelator_CancelRacesResponse(t *testing.T) {
	// Each call is resolved exactly once whether the response or the cancel
	// wins. Run with: go test -race -count=100
	correlator, transport := startCorrelator(t, 0)

	for range 100 {
		call, err := correlator.Go(context.Background(), MethodToolsList, nil)
		require.NoError(t, err)

		req := transport.nextSent(t)

		var wg sync.WaitGroup

		wg.Go(func() {
			transport.respond(t, req, map[string]any{})
		})
		wg.Go(func() {
			call.Cancel()
		})

		wg.Wait()

		resp, err := call.Wait(context.Background())
		if err != nil {
			require.ErrorIs(t, err, errors.ErrRequestCancelled)
		} else {
			require.Equal(t, call.ID, resp.ID)
		}
	}

	require.Eventually(t, func() bool {
		return correlator.PendingCount() == 0
	}, time.Second, 5*time.Millisecond)
}

func TestCorrelator_ConcurrentRequests(t *testing.T) {
	correlator, transport := startCorrelator(t, 5*time.Second)

	// Echo server: answer every request with its own id as the result.
	go func() {
		for data := range transport.sent {
			req, err := envelope.Parse(data)
			if err != nil {
				continue
			}

			resp, _ := envelope.NewResult(req.ID, map[string]any{"echo": req.ID})
			out, _ := json.Marshal(resp)
			transport.deliver(out)
		}
	}()

	var wg sync.WaitGroup

	errs := make(chan error, 50)

	for i := range 50 {
		wg.Go(func() {
			raw, err := correlator.Request(context.Background(), MethodToolsCall, map[string]any{"n": i})
			if err != nil {
				errs <- err

				return
			}

			var got map[string]any
			if err := json.Unmarshal(raw, &got); err != nil {
				errs <- err

				return
			}

			if got["echo"] == nil {
				errs <- fmt.Errorf("missing echo in %s", raw)
			}
		})
	}

	wg.Wait()
	close(errs)

	for err := range errs {
		require.NoError(t, err)
	}

	require.Equal(t, 0, correlator.PendingCount())
	require.Len(t, transport.getMessages(), 50)
}
