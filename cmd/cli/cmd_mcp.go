package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"net/http"
	"time"

	"github.com/Killjoybr/IA-CAI/pkg/config"
	"github.com/Killjoybr/IA-CAI/pkg/defaults"
	"github.com/Killjoybr/IA-CAI/pkg/mcpserver"
	"github.com/Killjoybr/IA-CAI/pkg/scoring"
)

const mcpUsage = defaults.ToolName + " mcp [-http addr] [flags]"

// runMCP serves the scan tools over stdio, or over streamable HTTP when
// -http is set.
func runMCP(ctx context.Context, args []string, e env) error {
	var httpAddr string
	cfg, err := loadConfig("mcp", args, e, func(c *config.Config, fs *flag.FlagSet) {
		c.RegisterCrawlFlags(fs)
		fs.StringVar(&c.Output.Lang, "lang", c.Output.Lang, "Default severity label language: en, pt")
		fs.StringVar(&c.Metrics.Addr, "metrics-addr", c.Metrics.Addr, "Serve Prometheus metrics on this address")
		fs.StringVar(&c.Telemetry.Endpoint, "otel-endpoint", c.Telemetry.Endpoint, "OTLP gRPC endpoint for traces")
		fs.StringVar(&httpAddr, "http", e.getenv(config.EnvPrefix+"MCP_HTTP_ADDR"), "Listen address for streamable HTTP (default: stdio)")
	}, mcpUsage)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return exitWithError(defaults.ExitUserError, "%v", err)
	}

	// stdout carries the protocol in stdio mode; logs stay on stderr.
	logger := newLogger(cfg.Log, e.stderr)
	rec, stop, err := observability(ctx, cfg, logger)
	defer stop()
	if err != nil {
		return exitWithError(defaults.ExitInternalError, "%v", err)
	}
	sc, err := newScanner(cfg, logger, rec)
	if err != nil {
		return err
	}
	srv, err := mcpserver.New(mcpserver.Config{
		Scanner:    sc,
		Classifier: scoring.New(),
		Lang:       scoring.ParseLang(cfg.Output.Lang),
		MaxPages:   cfg.MaxPages,
		Timeout:    cfg.Timeout,
		Logger:     logger,
	})
	if err != nil {
		return exitWithError(defaults.ExitInternalError, "%v", err)
	}

	if httpAddr == "" {
		if err := srv.RunStdio(ctx); err != nil && !errors.Is(err, context.Canceled) {
			return exitWithError(defaults.ExitInternalError, "mcp: %v", err)
		}
		return nil
	}
	return serveMCPHTTP(ctx, httpAddr, srv.HTTPHandler(), logger)
}

func serveMCPHTTP(ctx context.Context, addr string, h http.Handler, logger *slog.Logger) error {
	httpSrv := &http.Server{
		Addr:              addr,
		Handler:           h,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		// No WriteTimeout: tool calls stream for as long as a scan runs.
		IdleTimeout:    60 * time.Second,
		MaxHeaderBytes: 1 << 20,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("serving MCP over HTTP", slog.String("addr", addr))
		errCh <- httpSrv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return exitWithError(defaults.ExitInternalError, "mcp: %v", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	logger.Info("shutting down")
	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		return exitWithError(defaults.ExitInternalError, "mcp shutdown: %v", err)
	}
	return nil
}
