package config

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault_IsValid(t *testing.T) {
	require.NoError(t, Default().Validate())
}

func TestParse_OverridesDefaults(t *testing.T) {
	cfg, err := Parse([]byte(`
server:
  addr: 0.0.0.0:9000
  rate_limit: 20
  rate_burst: 40
client:
  request_timeout: 2s
log:
  level: debug
  format: json
`))
	require.NoError(t, err)

	assert.Equal(t, "0.0.0.0:9000", cfg.Server.Addr)
	assert.Equal(t, "/", cfg.Server.Path)
	assert.Equal(t, DefaultProtocolVersion, cfg.Server.ProtocolVersion)
	assert.InDelta(t, 20, cfg.Server.RateLimit, 0)
	assert.Equal(t, 40, cfg.Server.RateBurst)
	assert.Equal(t, DefaultURL, cfg.Client.URL)

	timeout, err := cfg.Client.Timeout()
	require.NoError(t, err)
	assert.Equal(t, 2*time.Second, timeout)
}

func TestParse_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr string
	}{
		{name: "bad yaml", input: "server: [", wantErr: "parse config"},
		{name: "relative path", input: "server:\n  path: ws", wantErr: "server.path"},
		{name: "metrics on ws path", input: "server:\n  path: /metrics", wantErr: "metrics_path"},
		{name: "negative rate", input: "server:\n  rate_limit: -1", wantErr: "rate_limit"},
		{name: "bad shutdown", input: "server:\n  shutdown_timeout: soon", wantErr: "shutdown_timeout"},
		{name: "http url", input: "client:\n  url: http://localhost:8765", wantErr: "client.url"},
		{name: "bad timeout", input: "client:\n  request_timeout: forever", wantErr: "request_timeout"},
		{name: "bad level", input: "log:\n  level: loud", wantErr: "log.level"},
		{name: "bad format", input: "log:\n  format: xml", wantErr: "log.format"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.input))
			require.ErrorContains(t, err, tt.wantErr)
		})
	}
}

func TestResolve(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "mcpws.yaml")
	require.NoError(t, os.WriteFile(path, []byte("server:\n  addr: 127.0.0.1:7000\n"), 0o600))

	t.Run("no flag and no env uses defaults", func(t *testing.T) {
		t.Setenv(EnvConfig, "")

		cfg, err := Resolve("")
		require.NoError(t, err)
		assert.Equal(t, DefaultAddr, cfg.Server.Addr)
	})

	t.Run("env selects the file", func(t *testing.T) {
		t.Setenv(EnvConfig, path)

		cfg, err := Resolve("")
		require.NoError(t, err)
		assert.Equal(t, "127.0.0.1:7000", cfg.Server.Addr)
	})

	t.Run("flag wins over env", func(t *testing.T) {
		t.Setenv(EnvConfig, filepath.Join(dir, "missing.yaml"))

		cfg, err := Resolve(path)
		require.NoError(t, err)
		assert.Equal(t, "127.0.0.1:7000", cfg.Server.Addr)
	})

	t.Run("missing file is an error", func(t *testing.T) {
		_, err := Resolve(filepath.Join(dir, "missing.yaml"))
		require.ErrorContains(t, err, "read config")
	})
}

func TestLogConfig_NewLogger(t *testing.T) {
	var buf bytes.Buffer

	log, err := LogConfig{Level: "warn", Format: "json"}.NewLogger(&buf)
	require.NoError(t, err)

	log.Info("hidden")
	log.Warn("shown", "component", "test")

	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), `"msg":"shown"`)
	assert.Contains(t, buf.String(), `"component":"test"`)
}

func TestOptions_Log(t *testing.T) {
	var opts *Options
	require.NotNil(t, opts.Log())

	opts = NewOptions()
	require.NotNil(t, opts.Log())
	assert.Equal(t, DefaultProtocolVersion, opts.ProtocolVersion)
	assert.Equal(t, DefaultRequestTimeout, opts.RequestTimeout)
}
