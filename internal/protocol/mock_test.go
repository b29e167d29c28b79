package protocol

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/wagiedev/mcpws-go/internal/envelope"
)

// mockTransport implements Transport for testing.
type mockTransport struct {
	mu       sync.Mutex
	messages [][]byte
	sendErr  error
	sent     chan []byte
	msgChan  chan []byte
	errChan  chan error
}

func newMockTransport() *mockTransport {
	return &mockTransport{
		messages: make([][]byte, 0, 10),
		sent:     make(chan []byte, 100),
		msgChan:  make(chan []byte, 10),
		errChan:  make(chan error, 1),
	}
}

func (m *mockTransport) ReadMessages(_ context.Context) (<-chan []byte, <-chan error) {
	return m.msgChan, m.errChan
}

func (m *mockTransport) SendMessage(_ context.Context, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.sendErr != nil {
		return m.sendErr
	}

	m.messages = append(m.messages, data)
	m.sent <- data

	return nil
}

func (m *mockTransport) setSendError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.sendErr = err
}

func (m *mockTransport) getMessages() [][]byte {
	m.mu.Lock()
	defer m.mu.Unlock()

	result := make([][]byte, len(m.messages))
	copy(result, m.messages)

	return result
}

func (m *mockTransport) deliver(data []byte) {
	m.msgChan <- data
}

// nextSent returns the next envelope written to the transport.
func (m *mockTransport) nextSent(t *testing.T) *envelope.Envelope {
	t.Helper()

	select {
	case data := <-m.sent:
		env, err := envelope.Parse(data)
		require.NoError(t, err)

		return env
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for a sent message")

		return nil
	}
}

// respond delivers a result response for req.
func (m *mockTransport) respond(t *testing.T, req *envelope.Envelope, result any) {
	t.Helper()

	resp, err := envelope.NewResult(req.ID, result)
	require.NoError(t, err)

	data, err := json.Marshal(resp)
	require.NoError(t, err)

	m.deliver(data)
}
