//go:build integration

package integration

import (
	"context"
	"errors"
	"fmt"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	mcpws "github.com/wagiedev/mcpws-go"
)

// startServer serves srv on a loopback listener until the test ends and
// returns its WebSocket url and a function that stops it early.
func startServer(t *testing.T, srv *mcpws.Server) (string, func() error) {
	t.Helper()

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	served := make(chan error, 1)

	go func() { served <- srv.Serve(ctx, ln) }()

	var (
		stopped bool
		result  error
	)

	stop := func() error {
		if !stopped {
			stopped = true

			cancel()

			select {
			case result = <-served:
			case <-time.After(10 * time.Second):
				result = errors.New("server did not stop")
			}
		}

		return result
	}

	t.Cleanup(func() { _ = stop() })

	return fmt.Sprintf("ws://%s/", ln.Addr()), stop
}

// startExampleServer serves the example tools and resources.
func startExampleServer(t *testing.T, opts ...mcpws.Option) (*mcpws.Server, string) {
	t.Helper()

	srv := mcpws.NewServer(opts...)
	require.NoError(t, srv.AddExamples())

	url, _ := startServer(t, srv)

	return srv, url
}

func connect(t *testing.T, url string, opts ...mcpws.Option) mcpws.Client {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	c := mcpws.NewClient()
	require.NoError(t, c.Start(ctx, append([]mcpws.Option{mcpws.WithURL(url)}, opts...)...))
	t.Cleanup(func() { _ = c.Close() })

	return c
}

func testContext(t *testing.T) context.Context {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	t.Cleanup(cancel)

	return ctx
}

func requireResponseError(t *testing.T, err error, code int) {
	t.Helper()

	require.Error(t, err)

	respErr, ok := errors.AsType[*mcpws.ResponseError](err)
	require.True(t, ok, "expected *ResponseError, got %T: %v", err, err)
	require.Equal(t, code, respErr.Code)
}
