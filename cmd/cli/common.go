package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/Killjoybr/IA-CAI/pkg/config"
	"github.com/Killjoybr/IA-CAI/pkg/defaults"
	"github.com/Killjoybr/IA-CAI/pkg/metrics"
	"github.com/Killjoybr/IA-CAI/pkg/scanner"
	"github.com/Killjoybr/IA-CAI/pkg/telemetry"
	"github.com/Killjoybr/IA-CAI/pkg/ui"
)

// preParse finds -config and -profile ahead of the real parse so the
// file and profile can seed the flag defaults.
func preParse(args []string) (path, profile string) {
	for i := 0; i < len(args); i++ {
		a := args[i]
		if a == "--" {
			break
		}
		name, value, hasValue := strings.Cut(strings.TrimLeft(a, "-"), "=")
		if !strings.HasPrefix(a, "-") || (name != "config" && name != "profile") {
			continue
		}
		if !hasValue && i+1 < len(args) {
			i++
			value = args[i]
		}
		if name == "config" {
			path = value
		} else {
			profile = value
		}
	}
	return path, profile
}

// loadConfig resolves defaults, profile, config file and environment,
// then applies the command's flags. A single positional argument is
// taken as the target.
func loadConfig(name string, args []string, e env, register func(*config.Config, *flag.FlagSet), usage string) (*config.Config, error) {
	path, profile := preParse(args)
	cfg, err := config.Resolve(profile, path, e.getenv)
	if err != nil {
		return nil, exitWithError(defaults.ExitUserError, "%v", err)
	}

	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(e.stderr)
	fs.String("config", path, "YAML config file")
	fs.String("profile", profile, "Bundled profile: "+strings.Join(config.Profiles(), ", "))
	verbose := fs.Bool("v", false, "Debug logging")
	register(cfg, fs)
	fs.Usage = func() {
		fmt.Fprintf(fs.Output(), "Usage: %s\n\nFlags:\n", usage)
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return nil, err
		}
		return nil, exitWithUsage(err.Error(), usage)
	}

	switch rest := fs.Args(); {
	case len(rest) == 1 && cfg.Target == "":
		cfg.Target = rest[0]
	case len(rest) > 0:
		return nil, exitWithUsage(fmt.Sprintf("unexpected arguments: %s", strings.Join(rest, " ")), usage)
	}
	if *verbose {
		cfg.Log.Level = "debug"
	}
	ui.SetNoColor(cfg.Output.NoColor)
	return cfg, nil
}

func newLogger(lc config.LogConfig, w io.Writer) *slog.Logger {
	var level slog.Level
	if err := level.UnmarshalText([]byte(lc.Level)); err != nil {
		level = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: level}
	if lc.Format == "json" {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

// observability starts the metrics endpoint and trace exporter that cfg
// asks for. The returned stop func is always non-nil.
func observability(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*metrics.Recorder, func(), error) {
	var (
		rec     *metrics.Recorder
		srv     *metrics.Server
		cleanup []func()
	)
	stop := func() {
		for i := len(cleanup) - 1; i >= 0; i-- {
			cleanup[i]()
		}
	}

	if cfg.Metrics.Addr != "" {
		rec = metrics.NewRecorder()
		var err error
		srv, err = metrics.Serve(cfg.Metrics.Addr, rec, logger)
		if err != nil {
			return nil, stop, err
		}
		cleanup = append(cleanup, func() { _ = srv.Close() })
	}

	shutdown, err := telemetry.Setup(telemetry.Options{
		Endpoint: cfg.Telemetry.Endpoint,
		Insecure: cfg.Telemetry.Insecure,
	})
	if err != nil {
		stop()
		return nil, func() {}, err
	}
	cleanup = append(cleanup, func() {
		flushCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
		defer cancel()
		if err := shutdown(flushCtx); err != nil {
			logger.Warn("trace flush failed", slog.Any("error", err))
		}
	})
	return rec, stop, nil
}

func newScanner(cfg *config.Config, logger *slog.Logger, rec *metrics.Recorder) (*scanner.Scanner, error) {
	sc, err := scanner.New(cfg.HTTPClient(),
		scanner.WithLogger(logger),
		scanner.WithRecorder(rec),
		scanner.WithExclude(cfg.Exclude...),
	)
	if err != nil {
		return nil, exitWithError(defaults.ExitUserError, "%v", err)
	}
	return sc, nil
}
