package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"slices"

	"github.com/Killjoybr/IA-CAI/pkg/config"
	"github.com/Killjoybr/IA-CAI/pkg/defaults"
	"github.com/Killjoybr/IA-CAI/pkg/finding"
	"github.com/Killjoybr/IA-CAI/pkg/output"
	"github.com/Killjoybr/IA-CAI/pkg/output/writers"
	"github.com/Killjoybr/IA-CAI/pkg/scanner"
	"github.com/Killjoybr/IA-CAI/pkg/scoring"
	"github.com/Killjoybr/IA-CAI/pkg/storage"
	"github.com/Killjoybr/IA-CAI/pkg/ui"
)

const scanUsage = defaults.ToolName + " scan [flags] <target>"

func runScan(ctx context.Context, args []string, e env) error {
	cfg, err := loadConfig("scan", args, e, (*config.Config).RegisterScanFlags, scanUsage)
	if err != nil {
		return err
	}
	if err := cfg.ValidateScan(); err != nil {
		if errors.Is(err, config.ErrMissingRequired) {
			return exitWithUsage("a target is required (-u or positional argument)", scanUsage)
		}
		return exitWithError(defaults.ExitUserError, "%v", err)
	}

	format, err := resolveFormat(cfg.Output)
	if err != nil {
		return exitWithError(defaults.ExitUserError, "%v", err)
	}
	opts := outputOptions(cfg.Output)

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

	console := format == output.FormatTable && cfg.Output.File == ""
	if console && ui.IsTerminal(e.stderr) {
		ui.PrintBanner(e.stderr)
	}

	rep, err := sc.Scan(ctx, cfg.ScanTarget())
	if err != nil {
		if errors.Is(err, scanner.ErrInvalidTarget) {
			return exitWithError(defaults.ExitUserError, "%v", err)
		}
		return exitWithError(defaults.ExitInternalError, "scan: %v", err)
	}
	if cfg.Output.Annotate {
		rep.Annotate(scoring.New(), opts.Lang)
	}

	if err := writeReport(rep, format, cfg.Output.File, opts, e.stdout); err != nil {
		return exitWithError(defaults.ExitInternalError, "%v", err)
	}
	if console {
		printBreakdown(e.stderr, rep)
	}

	if cfg.Storage.Bucket != "" {
		store, err := storage.NewS3Store(storage.Options{
			Bucket:   cfg.Storage.Bucket,
			Prefix:   cfg.Storage.Prefix,
			Region:   cfg.Storage.Region,
			Endpoint: cfg.Storage.Endpoint,
		}, logger)
		if err != nil {
			return exitWithError(defaults.ExitUserError, "%v", err)
		}
		loc, err := store.SaveReport(ctx, rep, format, opts)
		if err != nil {
			return exitWithError(defaults.ExitInternalError, "%v", err)
		}
		logger.Info("report uploaded", slog.String("location", loc))
	}

	switch {
	case !rep.Reachable():
		return exitWithError(defaults.ExitNetworkError, "target %s unreachable: %v", rep.Target, rep.Err())
	case len(rep.Findings) > 0:
		return exitQuiet(defaults.ExitFindings)
	}
	return nil
}

// resolveFormat picks the configured format, or the one implied by the
// output file extension when the format was left at table.
func resolveFormat(oc config.OutputConfig) (output.Format, error) {
	f, err := output.ParseFormat(oc.Format)
	if err != nil {
		return "", err
	}
	if f == output.FormatTable && oc.File != "" {
		if inferred, ok := output.FormatFromPath(oc.File); ok {
			f = inferred
		}
	}
	if f.Binary() && oc.File == "" {
		return "", fmt.Errorf("format %s writes binary output; set -output", f)
	}
	return f, nil
}

func outputOptions(oc config.OutputConfig) output.Options {
	opts := output.Options{
		Pretty: oc.Pretty,
		Lang:   scoring.ParseLang(oc.Lang),
		Title:  defaults.ToolName + " report",
	}
	if oc.Template != "" {
		if slices.Contains(writers.BuiltInTemplates(), oc.Template) {
			opts.Template.BuiltIn = oc.Template
		} else {
			opts.Template.TemplatePath = oc.Template
		}
	}
	return opts
}

func writeReport(rep *scanner.Report, f output.Format, path string, opts output.Options, stdout io.Writer) error {
	if path != "" {
		return output.WriteFile(path, f, rep, opts)
	}
	return output.Write(stdout, f, rep, opts)
}

// printBreakdown adds per-type and per-severity counts under the table.
func printBreakdown(w io.Writer, rep *scanner.Report) {
	if len(rep.Findings) == 0 {
		return
	}
	ui.PrintSection(w, "By type")
	for _, kc := range rep.CountByKind() {
		ui.PrintStat(w, kc.Kind.String(), kc.Count)
	}
	bySev := rep.CountBySeverity()
	if len(bySev) == 0 {
		return
	}
	ui.PrintSection(w, "By severity")
	for _, sev := range slices.Backward(finding.Severities()) {
		if n := bySev[sev]; n > 0 {
			ui.PrintStat(w, sev.String(), n)
		}
	}
}
