// mcpws-client connects to an mcpws server and runs the demo session:
// initialize, list and call tools, then list and read resources.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/pflag"

	mcpws "github.com/wagiedev/mcpws-go"
	"github.com/wagiedev/mcpws-go/internal/config"
	"github.com/wagiedev/mcpws-go/internal/demo"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	flagSet := pflag.NewFlagSet("mcpws-client", pflag.ContinueOnError)
	configPath := flagSet.String("config", "", "path to YAML config file (default: $"+config.EnvConfig+")")
	url := flagSet.String("url", config.DefaultURL, "server WebSocket url")
	timeout := flagSet.Duration("timeout", config.DefaultRequestTimeout, "per-request timeout")
	concurrent := flagSet.Bool("concurrent", false, "issue independent requests concurrently")
	logLevel := flagSet.String("log-level", "info", "debug, info, warn or error")

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

	if flagSet.Changed("log-level") {
		cfg.Log.Level = *logLevel
	}

	if flagSet.Changed("url") {
		cfg.Client.URL = *url
	}

	if flagSet.Changed("timeout") {
		cfg.Client.RequestTimeout = timeout.String()
	}

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	logger, err := cfg.Log.NewLogger(os.Stderr)
	if err != nil {
		return err
	}

	requestTimeout, err := cfg.Client.Timeout()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	return mcpws.WithClient(ctx, func(c mcpws.Client) error {
		return demo.Run(ctx, c, os.Stdout, demo.Options{Concurrent: *concurrent})
	},
		mcpws.WithLogger(logger),
		mcpws.WithURL(cfg.Client.URL),
		mcpws.WithRequestTimeout(requestTimeout),
		mcpws.WithClientInfo(cfg.Client.Name, cfg.Client.Version),
	)
}
