package protocol

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"log/slog"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wagiedev/mcpws-go/internal/config"
	"github.com/wagiedev/mcpws-go/internal/envelope"
	"github.com/wagiedev/mcpws-go/internal/errors"
	"github.com/wagiedev/mcpws-go/internal/metrics"
	"github.com/wagiedev/mcpws-go/internal/registry"
)

func newTestRegistry(t *testing.T) *registry.Registry {
	t.Helper()

	reg := registry.New()

	require.NoError(t, reg.AddTool(
		registry.NewTool("echo", "echoes text", registry.SimpleSchema(map[string]string{"text": "string"})),
		func(_ context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			args, err := registry.ParseArguments(req)
			if err != nil {
				return nil, err
			}

			text, err := registry.StringArgument(args, "text")
			if err != nil {
				return nil, err
			}

			return registry.TextResult(text), nil
		},
	))

	require.NoError(t, reg.AddTool(
		registry.NewTool("explode", "panics", nil),
		func(_ context.Context, _ *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			panic("kaboom")
		},
	))

	require.NoError(t, reg.AddResource(
		registry.NewResource("file://README.md", "readme", "project readme", "text/markdown"),
		func(_ context.Context, _ string) (string, error) { return "# hello", nil },
	))

	return reg
}

func newTestDispatcher(t *testing.T, mutate func(*config.Options)) *Dispatcher {
	t.Helper()

	reg := newTestRegistry(t)
	opts := config.NewOptions()

	if mutate != nil {
		mutate(opts)
	}

	return NewDispatcher(slog.Default(), reg, reg, opts, nil)
}

func handle(t *testing.T, s *Session, raw string) *envelope.Envelope {
	t.Helper()

	resp := s.Handle(context.Background(), []byte(raw))
	require.NotNil(t, resp)

	// Every response must survive the wire invariant check.
	_, err := json.Marshal(resp)
	require.NoError(t, err)

	return resp
}

func TestDispatcher_Initialize(t *testing.T) {
	d := newTestDispatcher(t, func(o *config.Options) {
		o.ServerName = "demo"
		o.ServerVersion = "9.9.9"
	})

	resp := handle(t, d.NewSession(), `{"id":"1","method":"initialize","params":{"protocolVersion":"2024-01-01"}}`)
	require.Nil(t, resp.Error)
	require.Equal(t, "1", resp.ID)

	var result InitializeResult
	require.NoError(t, resp.DecodeResult(&result))
	assert.Equal(t, config.DefaultProtocolVersion, result.ProtocolVersion)
	assert.Equal(t, Info{Name: "demo", Version: "9.9.9"}, result.ServerInfo)
	assert.Contains(t, result.Capabilities, "tools")
	assert.Contains(t, result.Capabilities, "resources")
}

func TestDispatcher_ToolsListIsIdempotent(t *testing.T) {
	s := newTestDispatcher(t, nil).NewSession()

	first := handle(t, s, `{"id":"1","method":"tools/list"}`)
	second := handle(t, s, `{"id":"2","method":"tools/list"}`)

	var a, b ListToolsResult
	require.NoError(t, first.DecodeResult(&a))
	require.NoError(t, second.DecodeResult(&b))

	require.Len(t, a.Tools, 2)
	assert.Equal(t, "echo", a.Tools[0].Name)

	if diff := cmp.Diff(a, b); diff != "" {
		t.Fatalf("tools/list changed between calls (-first +second):\n%s", diff)
	}
}

func TestDispatcher_UnknownMethod(t *testing.T) {
	s := newTestDispatcher(t, nil).NewSession()

	resp := handle(t, s, `{"id":"abc","method":"foo/bar","params":{}}`)

	require.Equal(t, "abc", resp.ID)
	require.Nil(t, resp.Result)
	require.NotNil(t, resp.Error)
	assert.Equal(t, envelope.CodeMethodNotFound, resp.Error.Code)
	assert.Equal(t, "unknown method foo/bar", resp.Error.Message)
}

func TestDispatcher_ToolsCall(t *testing.T) {
	s := newTestDispatcher(t, nil).NewSession()

	t.Run("unknown tool names the tool", func(t *testing.T) {
		resp := handle(t, s, `{"id":"1","method":"tools/call","params":{"name":"nonexistent","arguments":{}}}`)

		require.Nil(t, resp.Result)
		require.NotNil(t, resp.Error)
		assert.Contains(t, resp.Error.Message, "nonexistent")
		assert.Equal(t, envelope.CodeInvalidParams, resp.Error.Code)
	})

	t.Run("registered tool returns a result", func(t *testing.T) {
		resp := handle(t, s, `{"id":"2","method":"tools/call","params":{"name":"echo","arguments":{"text":"hi"}}}`)

		require.Nil(t, resp.Error)

		var result CallToolResult
		require.NoError(t, resp.DecodeResult(&result))
		assert.Equal(t, "hi", result.Text())
		assert.False(t, result.IsError)
	})

	t.Run("handler error becomes an error response", func(t *testing.T) {
		resp := handle(t, s, `{"id":"3","method":"tools/call","params":{"name":"echo","arguments":{}}}`)

		require.NotNil(t, resp.Error)
		assert.Equal(t, envelope.CodeInternalError, resp.Error.Code)
		assert.Contains(t, resp.Error.Message, `missing required argument "text"`)
	})

	t.Run("handler panic becomes an error response", func(t *testing.T) {
		resp := handle(t, s, `{"id":"4","method":"tools/call","params":{"name":"explode"}}`)

		require.NotNil(t, resp.Error)
		assert.Contains(t, resp.Error.Message, "kaboom")
	})

	t.Run("non-object arguments are rejected", func(t *testing.T) {
		resp := handle(t, s, `{"id":"5","method":"tools/call","params":{"name":"echo","arguments":"hi"}}`)

		require.NotNil(t, resp.Error)
		assert.Contains(t, resp.Error.Message, "arguments must be an object")
	})
}

func TestDispatcher_Resources(t *testing.T) {
	s := newTestDispatcher(t, nil).NewSession()

	listing := handle(t, s, `{"id":"1","method":"resources/list"}`)

	var list ListResourcesResult
	require.NoError(t, listing.DecodeResult(&list))
	require.Equal(t, []ResourceInfo{{
		URI:         "file://README.md",
		Name:        "readme",
		Description: "project readme",
		MIMEType:    "text/markdown",
	}}, list.Resources)

	read := handle(t, s, `{"id":"2","method":"resources/read","params":{"uri":"file://README.md"}}`)

	var contents ReadResourceResult
	require.NoError(t, read.DecodeResult(&contents))
	require.Len(t, contents.Contents, 1)
	assert.Equal(t, "# hello", contents.Contents[0].Text)
	assert.Equal(t, "text/markdown", contents.Contents[0].MIMEType)

	missing := handle(t, s, `{"id":"3","method":"resources/read","params":{"uri":"file://nope"}}`)
	require.NotNil(t, missing.Error)
	assert.Equal(t, "3", missing.ID)
	assert.Contains(t, missing.Error.Message, "file://nope")
}

func TestDispatcher_ParseErrors(t *testing.T) {
	s := newTestDispatcher(t, nil).NewSession()

	t.Run("unreadable json gets a null id", func(t *testing.T) {
		resp := handle(t, s, `{"id":"1","method":`)

		assert.Nil(t, resp.ID)
		require.NotNil(t, resp.Error)
		assert.Equal(t, envelope.CodeParseError, resp.Error.Code)

		data, err := json.Marshal(resp)
		require.NoError(t, err)
		assert.Contains(t, string(data), `"id":null`)
	})

	t.Run("recoverable id is echoed", func(t *testing.T) {
		resp := handle(t, s, `{"id":"7","method":"tools/call","params":[1,2]}`)

		assert.Equal(t, "7", resp.ID)
		require.NotNil(t, resp.Error)
		assert.Equal(t, envelope.CodeParseError, resp.Error.Code)
	})
}

func TestDispatcher_IgnoresNotificationsAndResponses(t *testing.T) {
	s := newTestDispatcher(t, nil).NewSession()

	assert.Nil(t, s.Handle(context.Background(), []byte(`{"method":"notifications/initialized"}`)))
	assert.Nil(t, s.Handle(context.Background(), []byte(`{"id":"1","result":{}}`)))
}

func TestDispatcher_RateLimit(t *testing.T) {
	d := newTestDispatcher(t, func(o *config.Options) {
		o.RateLimit = 0.001
		o.RateBurst = 2
	})
	s := d.NewSession()

	require.Nil(t, handle(t, s, `{"id":"1","method":"tools/list"}`).Error)
	require.Nil(t, handle(t, s, `{"id":"2","method":"tools/list"}`).Error)

	limited := handle(t, s, `{"id":"3","method":"tools/list"}`)
	require.NotNil(t, limited.Error)
	assert.Equal(t, "3", limited.ID)
	assert.Equal(t, envelope.CodeRateLimited, limited.Error.Code)

	// Limits are per session.
	require.Nil(t, handle(t, d.NewSession(), `{"id":"4","method":"tools/list"}`).Error)
}

func TestDispatcher_NilRegistries(t *testing.T) {
	s := NewDispatcher(slog.Default(), nil, nil, nil, nil).NewSession()

	var tools ListToolsResult
	require.NoError(t, handle(t, s, `{"id":"1","method":"tools/list"}`).DecodeResult(&tools))
	assert.Empty(t, tools.Tools)

	resp := handle(t, s, `{"id":"2","method":"tools/call","params":{"name":"echo"}}`)
	require.NotNil(t, resp.Error)
	assert.Contains(t, resp.Error.Message, "unknown tool echo")
}

func TestDispatcher_HandleConnection_MalformedThenValid(t *testing.T) {
	d := newTestDispatcher(t, nil)
	transport := newMockTransport()

	done := make(chan error, 1)

	go func() {
		done <- d.HandleConnection(context.Background(), transport)
	}()

	transport.deliver([]byte(`{{{ not json`))

	parseResp := transport.nextSent(t)
	require.Nil(t, parseResp.ID)
	require.NotNil(t, parseResp.Error)

	transport.deliver([]byte(`{"id":"after","method":"tools/call","params":{"name":"echo","arguments":{"text":"still here"}}}`))

	resp := transport.nextSent(t)
	require.Equal(t, "after", resp.ID)
	require.Nil(t, resp.Error)

	close(transport.msgChan)

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("HandleConnection did not return after the transport closed")
	}
}

func TestDispatcher_HandleConnection_SendFailure(t *testing.T) {
	d := newTestDispatcher(t, nil)
	transport := newMockTransport()
	transport.setSendError(stderrors.New("connection reset"))

	transport.deliver([]byte(`{"id":"1","method":"initialize"}`))

	err := d.HandleConnection(context.Background(), transport)

	transportErr, ok := stderrors.AsType[*errors.TransportError](err)
	require.True(t, ok, "expected TransportError, got %v", err)
	require.Equal(t, "send", transportErr.Op)
}

func TestDispatcher_HandleConnection_ErrorQueuedBeforeClose(t *testing.T) {
	d := newTestDispatcher(t, nil)

	for range 50 {
		transport := newMockTransport()
		transport.errChan <- stderrors.New("connection reset")
		close(transport.msgChan)

		err := d.HandleConnection(context.Background(), transport)

		transportErr, ok := stderrors.AsType[*errors.TransportError](err)
		require.True(t, ok, "expected TransportError, got %v", err)
		require.Equal(t, "receive", transportErr.Op)
	}
}

func TestDispatcher_HandleConnection_ContextCancel(t *testing.T) {
	d := newTestDispatcher(t, nil)
	transport := newMockTransport()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	require.NoError(t, d.HandleConnection(ctx, transport))
}

func TestDispatcher_Metrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	collector := metrics.NewCollector("test", reg)
	tools := newTestRegistry(t)

	d := NewDispatcher(slog.Default(), tools, tools, config.NewOptions(), collector)
	transport := newMockTransport()

	done := make(chan error, 1)

	go func() {
		done <- d.HandleConnection(context.Background(), transport)
	}()

	transport.deliver([]byte(`{"id":"1","method":"tools/list"}`))
	transport.nextSent(t)
	transport.deliver([]byte(`{"id":"2","method":"foo/bar"}`))
	transport.nextSent(t)
	transport.deliver([]byte(`garbage`))
	transport.nextSent(t)

	close(transport.msgChan)
	require.NoError(t, <-done)

	count, err := testutil.GatherAndCount(reg, "test_requests_total")
	require.NoError(t, err)
	assert.Equal(t, 3, count)

	count, err = testutil.GatherAndCount(reg, "test_sessions_total")
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestDispatcher_MetricsBoundUnknownMethods(t *testing.T) {
	reg := prometheus.NewRegistry()
	collector := metrics.NewCollector("test", reg)
	tools := newTestRegistry(t)

	s := NewDispatcher(slog.Default(), tools, tools, config.NewOptions(), collector).NewSession()

	for i := range 200 {
		resp := handle(t, s, fmt.Sprintf(`{"id":"%d","method":"junk/%d"}`, i, i))
		require.NotNil(t, resp.Error)
	}

	handle(t, s, `{"id":"x","method":"tools/list"}`)

	count, err := testutil.GatherAndCount(reg, "test_requests_total")
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	count, err = testutil.GatherAndCount(reg, "test_request_duration_seconds")
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	families, err := reg.Gather()
	require.NoError(t, err)

	methods := map[string]float64{}

	for _, family := range families {
		if family.GetName() != "test_requests_total" {
			continue
		}

		for _, m := range family.GetMetric() {
			for _, label := range m.GetLabel() {
				if label.GetName() == "method" {
					methods[label.GetValue()] = m.GetCounter().GetValue()
				}
			}
		}
	}

	assert.Equal(t, map[string]float64{metrics.MethodUnknown: 200, MethodToolsList: 1}, methods)
}
