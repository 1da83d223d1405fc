// Command webprobe crawls a web target, probes it for missing security
// headers, reflected XSS and error-based SQL injection, and estimates a
// severity for every finding.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/Killjoybr/IA-CAI/pkg/defaults"
	"github.com/Killjoybr/IA-CAI/pkg/ui"
)

// env is the process surface a command touches.
type env struct {
	stdin  io.Reader
	stdout io.Writer
	stderr io.Writer
	getenv func(string) string
}

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], env{
		stdin:  os.Stdin,
		stdout: os.Stdout,
		stderr: os.Stderr,
		getenv: os.Getenv,
	})
	cancel()
	os.Exit(code)
}

func run(ctx context.Context, args []string, e env) int {
	if len(args) == 0 {
		printUsage(e.stderr)
		return defaults.ExitUserError
	}

	var err error
	switch args[0] {
	case "scan":
		err = runScan(ctx, args[1:], e)
	case "crawl":
		err = runCrawl(ctx, args[1:], e)
	case "classify":
		err = runClassify(args[1:], e)
	case "mcp":
		err = runMCP(ctx, args[1:], e)
	case "worker":
		err = runWorker(ctx, args[1:], e)
	case "version", "-version", "--version":
		if ui.IsTerminal(e.stdout) {
			ui.PrintBanner(e.stdout)
		}
		fmt.Fprintf(e.stdout, "%s %s\n", defaults.ToolName, defaults.Version)
	case "help", "-h", "-help", "--help":
		printUsage(e.stdout)
	default:
		if strings.HasPrefix(args[0], "-") {
			// Bare flags mean scan.
			err = runScan(ctx, args, e)
			break
		}
		err = exitWithUsage(fmt.Sprintf("unknown command %q", args[0]), defaults.ToolName+" <command> [flags]")
	}
	return exitCode(err, e.stderr)
}

func printUsage(w io.Writer) {
	fmt.Fprintf(w, `%[1]s %[2]s - web vulnerability crawl/probe scanner

Usage:
  %[1]s <command> [flags]

Commands:
  scan      Crawl a target, probe every page and report findings
  crawl     Crawl only and print the discovered URLs
  classify  Estimate severity for findings read as JSON
  mcp       Serve scan tools over the Model Context Protocol
  worker    Consume scan jobs from an AMQP queue
  version   Print the version
  help      Show this help

Common flags:
  -config <file>    YAML config file
  -profile <name>   Bundled profile: quick, default, deep
  -v                Debug logging

Examples:
  %[1]s scan -u testphp.vulnweb.com
  %[1]s scan -u https://staging.example.com -max-pages 50 -format json -o report.json
  %[1]s scan -profile deep -u https://staging.example.com -format pdf -o report.pdf
  echo '{"type":"xss_reflected","url":"http://a/?q=1","payload":"<script>"}' | %[1]s classify
  %[1]s mcp -http 127.0.0.1:8080

Run '%[1]s <command> -h' for command flags.
`, defaults.ToolName, defaults.Version)
}
