package main

import (
	"context"
	"errors"
	"flag"
	"fmt"

	"github.com/Killjoybr/IA-CAI/pkg/config"
	"github.com/Killjoybr/IA-CAI/pkg/defaults"
	"github.com/Killjoybr/IA-CAI/pkg/jsonutil"
	"github.com/Killjoybr/IA-CAI/pkg/scanner"
)

const crawlUsage = defaults.ToolName + " crawl [flags] <target>"

type crawlOutput struct {
	Target  string   `json:"target"`
	URLs    []string `json:"urls"`
	Fetched int      `json:"pages_fetched"`
	Errors  []string `json:"errors,omitempty"`
}

func runCrawl(ctx context.Context, args []string, e env) error {
	var asJSON bool
	cfg, err := loadConfig("crawl", args, e, func(c *config.Config, fs *flag.FlagSet) {
		c.RegisterCrawlFlags(fs)
		fs.BoolVar(&asJSON, "json", false, "Print a JSON object instead of one URL per line")
	}, crawlUsage)
	if err != nil {
		return err
	}
	if err := cfg.ValidateScan(); err != nil {
		if errors.Is(err, config.ErrMissingRequired) {
			return exitWithUsage("a target is required (-u or positional argument)", crawlUsage)
		}
		return exitWithError(defaults.ExitUserError, "%v", err)
	}

	logger := newLogger(cfg.Log, e.stderr)
	sc, err := newScanner(cfg, logger, nil)
	if err != nil {
		return err
	}
	res, err := sc.Crawl(ctx, cfg.ScanTarget())
	if err != nil {
		if errors.Is(err, scanner.ErrInvalidTarget) {
			return exitWithError(defaults.ExitUserError, "%v", err)
		}
		return exitWithError(defaults.ExitInternalError, "crawl: %v", err)
	}

	if asJSON {
		out := crawlOutput{Target: cfg.Target, URLs: res.URLs, Fetched: res.Fetched}
		for _, ferr := range res.Errors {
			out.Errors = append(out.Errors, ferr.Error())
		}
		data, err := jsonutil.MarshalIndent(out, "  ")
		if err != nil {
			return err
		}
		fmt.Fprintln(e.stdout, string(data))
	} else {
		for _, u := range res.URLs {
			fmt.Fprintln(e.stdout, u)
		}
	}

	if res.Fetched == 0 {
		return exitWithError(defaults.ExitNetworkError, "target %s unreachable", cfg.Target)
	}
	return nil
}
