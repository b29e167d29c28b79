// mcpws-server serves the example tools and resources over WebSocket.
//
// Configuration comes from a YAML file named by --config or MCPWS_CONFIG;
// flags override file values. Prometheus metrics are served beside the
// WebSocket endpoint unless server.metrics_path is empty.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/pflag"

	mcpws "github.com/wagiedev/mcpws-go"
	"github.com/wagiedev/mcpws-go/internal/config"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	flagSet := pflag.NewFlagSet("mcpws-server", pflag.ContinueOnError)
	configPath := flagSet.String("config", "", "path to YAML config file (default: $"+config.EnvConfig+")")
	addr := flagSet.String("addr", config.DefaultAddr, "listen address")
	path := flagSet.String("path", config.DefaultPath, "HTTP path that upgrades to WebSocket")
	metricsPath := flagSet.String("metrics-path", "/metrics", "Prometheus endpoint; empty disables it")
	rateLimit := flagSet.Float64("rate-limit", 0, "requests per second per connection; 0 disables")
	rateBurst := flagSet.Int("rate-burst", 0, "burst allowance above --rate-limit")
	logLevel := flagSet.String("log-level", "info", "debug, info, warn or error")
	logFormat := flagSet.String("log-format", "text", "text or json")

	if err := flagSet.Parse(args); err != nil {
		if err == pflag.ErrHelp {
			return nil
		}

		return err
	}

	cfg, err := config.Resolve(*configPath)
	if err != nil {
		return err
	}

	if flagSet.Changed("addr") {
		cfg.Server.Addr = *addr
	}

	if flagSet.Changed("path") {
		cfg.Server.Path = *path
	}

	if flagSet.Changed("metrics-path") {
		cfg.Server.MetricsPath = *metricsPath
	}

	if flagSet.Changed("rate-limit") {
		cfg.Server.RateLimit = *rateLimit
	}

	if flagSet.Changed("rate-burst") {
		cfg.Server.RateBurst = *rateBurst
	}

	if flagSet.Changed("log-level") {
		cfg.Log.Level = *logLevel
	}

	if flagSet.Changed("log-format") {
		cfg.Log.Format = *logFormat
	}

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	logger, err := cfg.Log.NewLogger(os.Stderr)
	if err != nil {
		return err
	}

	grace, err := cfg.Server.ShutdownGrace()
	if err != nil {
		return err
	}

	opts := []mcpws.Option{
		mcpws.WithLogger(logger),
		mcpws.WithServerInfo(cfg.Server.Name, cfg.Server.Version),
		mcpws.WithProtocolVersion(cfg.Server.ProtocolVersion),
		mcpws.WithPath(cfg.Server.Path),
		mcpws.WithReadLimit(cfg.Server.ReadLimit),
		mcpws.WithRateLimit(cfg.Server.RateLimit, cfg.Server.RateBurst),
		mcpws.WithShutdownTimeout(grace),
	}

	if cfg.Server.MetricsPath != "" {
		registry := prometheus.NewRegistry()
		registry.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)

		opts = append(opts,
			mcpws.WithMetrics(registry, config.DefaultMetricsNamespace),
			mcpws.WithHandler(cfg.Server.MetricsPath, promhttp.HandlerFor(registry, promhttp.HandlerOpts{})),
		)
	}

	srv := mcpws.NewServer(opts...)
	if err := srv.AddExamples(); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger.Info("Starting mcpws-server",
		"addr", cfg.Server.Addr,
		"path", cfg.Server.Path,
		"metrics_path", cfg.Server.MetricsPath,
	)

	if err := srv.ListenAndServe(ctx, cfg.Server.Addr); err != nil {
		return err
	}

	logger.Info("Server stopped")

	return nil
}
