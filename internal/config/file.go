package config

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// EnvConfig names the environment variable that points at a config file.
const EnvConfig = "MCPWS_CONFIG"

// File is the configuration file read by the mcpws binaries.
//
// A file is selected by the --config flag or the MCPWS_CONFIG environment
// variable. There is no automatic discovery: with neither set, the
// defaults apply.
type File struct {
	// Server configures mcpws-server.
	Server ServerConfig `yaml:"server"`

	// Client configures mcpws-client.
	Client ClientConfig `yaml:"client"`

	// Log configures the slog handler of both binaries.
	Log LogConfig `yaml:"log"`
}

// ServerConfig configures the server binary.
type ServerConfig struct {
	// Addr is the TCP listen address.
	// Default: localhost:8765
	Addr string `yaml:"addr"`

	// Path is the HTTP path that upgrades to WebSocket.
	// Default: /
	Path string `yaml:"path"`

	// Name and Version are reported as serverInfo.
	Name    string `yaml:"name"`
	Version string `yaml:"version"`

	// ProtocolVersion is reported by initialize.
	// Default: 2024-01-01
	ProtocolVersion string `yaml:"protocol_version"`

	// ReadLimit caps one inbound message in bytes.
	// Default: 1048576
	ReadLimit int64 `yaml:"read_limit"`

	// RateLimit is requests per second per connection; 0 disables.
	RateLimit float64 `yaml:"rate_limit"`

	// RateBurst is the burst allowance above RateLimit.
	RateBurst int `yaml:"rate_burst"`

	// MetricsPath serves Prometheus metrics; empty disables the endpoint.
	// Default: /metrics
	MetricsPath string `yaml:"metrics_path"`

	// ShutdownTimeout bounds graceful shutdown.
	// Default: 5s
	ShutdownTimeout string `yaml:"shutdown_timeout"`
}

// ClientConfig configures the client binary.
type ClientConfig struct {
	// URL is the server endpoint.
	// Default: ws://localhost:8765
	URL string `yaml:"url"`

	// RequestTimeout bounds each request.
	// Default: 30s
	RequestTimeout string `yaml:"request_timeout"`

	// Name and Version are sent as clientInfo.
	Name    string `yaml:"name"`
	Version string `yaml:"version"`
}

// LogConfig configures logging.
type LogConfig struct {
	// Level is one of debug, info, warn, error.
	// Default: info
	Level string `yaml:"level"`

	// Format is text or json.
	// Default: text
	Format string `yaml:"format"`
}

// Default returns the default configuration.
func Default() *File {
	return &File{
		Server: ServerConfig{
			Addr:            DefaultAddr,
			Path:            DefaultPath,
			Name:            DefaultServerName,
			Version:         DefaultServerVersion,
			ProtocolVersion: DefaultProtocolVersion,
			ReadLimit:       DefaultReadLimit,
			MetricsPath:     "/metrics",
			ShutdownTimeout: DefaultShutdownTimeout.String(),
		},
		Client: ClientConfig{
			URL:            DefaultURL,
			RequestTimeout: DefaultRequestTimeout.String(),
			Name:           DefaultClientName,
			Version:        DefaultClientVersion,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// Resolve loads the file named by path, or by MCPWS_CONFIG when path is
// empty. With neither set it returns Default().
func Resolve(path string) (*File, error) {
	if path == "" {
		path = os.Getenv(EnvConfig)
	}

	if path == "" {
		return Default(), nil
	}

	return LoadFile(path)
}

// LoadFile loads configuration from a specific file path. Values absent
// from the file keep their defaults.
func LoadFile(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	return Parse(data)
}

// Parse decodes YAML configuration over the defaults and validates it.
func Parse(data []byte) (*File, error) {
	cfg := Default()

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks the configuration for values the binaries cannot use.
func (f *File) Validate() error {
	if f.Server.Addr == "" {
		return fmt.Errorf("server.addr is required")
	}

	if !strings.HasPrefix(f.Server.Path, "/") {
		return fmt.Errorf("server.path must start with /: %q", f.Server.Path)
	}

	if f.Server.MetricsPath != "" && f.Server.MetricsPath == f.Server.Path {
		return fmt.Errorf("server.metrics_path must differ from server.path")
	}

	if f.Server.ReadLimit <= 0 {
		return fmt.Errorf("server.read_limit must be positive")
	}

	if f.Server.RateLimit < 0 || f.Server.RateBurst < 0 {
		return fmt.Errorf("server.rate_limit and server.rate_burst must not be negative")
	}

	if _, err := f.Server.ShutdownGrace(); err != nil {
		return err
	}

	if !strings.HasPrefix(f.Client.URL, "ws://") && !strings.HasPrefix(f.Client.URL, "wss://") {
		return fmt.Errorf("client.url must be a ws:// or wss:// url: %q", f.Client.URL)
	}

	if _, err := f.Client.Timeout(); err != nil {
		return err
	}

	if _, err := f.Log.level(); err != nil {
		return err
	}

	switch f.Log.Format {
	case "text", "json":
	default:
		return fmt.Errorf("log.format must be text or json: %q", f.Log.Format)
	}

	return nil
}

// ShutdownGrace parses ShutdownTimeout.
func (s ServerConfig) ShutdownGrace() (time.Duration, error) {
	d, err := time.ParseDuration(s.ShutdownTimeout)
	if err != nil {
		return 0, fmt.Errorf("server.shutdown_timeout: %w", err)
	}

	return d, nil
}

// Timeout parses RequestTimeout.
func (c ClientConfig) Timeout() (time.Duration, error) {
	d, err := time.ParseDuration(c.RequestTimeout)
	if err != nil {
		return 0, fmt.Errorf("client.request_timeout: %w", err)
	}

	if d < 0 {
		return 0, fmt.Errorf("client.request_timeout must not be negative")
	}

	return d, nil
}

func (l LogConfig) level() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(l.Level)); err != nil {
		return 0, fmt.Errorf("log.level: %w", err)
	}

	return level, nil
}

// NewLogger builds a logger writing to w.
func (l LogConfig) NewLogger(w io.Writer) (*slog.Logger, error) {
	level, err := l.level()
	if err != nil {
		return nil, err
	}

	opts := &slog.HandlerOptions{Level: level}

	if l.Format == "json" {
		return slog.New(slog.NewJSONHandler(w, opts)), nil
	}

	return slog.New(slog.NewTextHandler(w, opts)), nil
}
