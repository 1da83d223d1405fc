package main

import (
	"bytes"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/Killjoybr/IA-CAI/pkg/defaults"
	"github.com/Killjoybr/IA-CAI/pkg/finding"
	"github.com/Killjoybr/IA-CAI/pkg/jsonutil"
	"github.com/Killjoybr/IA-CAI/pkg/scanner"
	"github.com/Killjoybr/IA-CAI/pkg/scoring"
	"github.com/Killjoybr/IA-CAI/pkg/ui"
)

const classifyUsage = defaults.ToolName + ` classify [flags] [file...]

Reads findings as a JSON object, a JSON array or one object per line,
from -finding, the named files, or stdin.`

func runClassify(args []string, e env) error {
	fs := flag.NewFlagSet("classify", flag.ContinueOnError)
	fs.SetOutput(e.stderr)
	inline := fs.String("finding", "", "Finding as JSON")
	lang := fs.String("lang", "en", "Severity label language: en, pt")
	asJSON := fs.Bool("json", false, "Print annotated findings as JSON lines")
	noColor := fs.Bool("no-color", false, "Disable colored output")
	fs.Usage = func() {
		fmt.Fprintf(fs.Output(), "Usage: %s\n\nFlags:\n", classifyUsage)
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return err
		}
		return exitWithUsage(err.Error(), classifyUsage)
	}
	ui.SetNoColor(*noColor)

	var findings []finding.Finding
	switch {
	case *inline != "":
		got, err := decodeFindings(strings.NewReader(*inline))
		if err != nil {
			return exitWithError(defaults.ExitUserError, "-finding: %v", err)
		}
		findings = got
	case fs.NArg() > 0:
		for _, path := range fs.Args() {
			f, err := os.Open(path)
			if err != nil {
				return exitWithError(defaults.ExitUserError, "%v", err)
			}
			more, err := decodeFindings(f)
			_ = f.Close()
			if err != nil {
				return exitWithError(defaults.ExitUserError, "%s: %v", path, err)
			}
			findings = append(findings, more...)
		}
	default:
		got, err := decodeFindings(e.stdin)
		if err != nil {
			return exitWithError(defaults.ExitUserError, "stdin: %v", err)
		}
		findings = got
	}
	if len(findings) == 0 {
		return exitWithUsage("no findings to classify", classifyUsage)
	}

	records := scanner.AnnotateLang(scoring.New(), findings, scoring.ParseLang(*lang))
	if *asJSON {
		enc := jsonutil.NewStreamEncoder(e.stdout)
		for _, r := range records {
			if err := enc.Encode(r); err != nil {
				return err
			}
		}
		return nil
	}
	printRecords(e.stdout, records)
	return nil
}

// decodeFindings accepts a JSON array or a stream of JSON objects.
func decodeFindings(r io.Reader) ([]finding.Finding, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return nil, nil
	}
	if data[0] == '[' {
		var fs []finding.Finding
		if err := jsonutil.Unmarshal(data, &fs); err != nil {
			return nil, err
		}
		return fs, nil
	}
	var fs []finding.Finding
	dec := jsonutil.NewStreamDecoder(bytes.NewReader(data))
	for {
		var f finding.Finding
		err := dec.Decode(&f)
		if errors.Is(err, io.EOF) {
			return fs, nil
		}
		if err != nil {
			return nil, fmt.Errorf("finding %d: %w", len(fs)+1, err)
		}
		fs = append(fs, f)
	}
}

func printRecords(w io.Writer, records []finding.Record) {
	r := ui.Renderer(w)
	for _, rec := range records {
		label := ui.SeverityStyle(rec.SeverityClass).Renderer(r).Render(fmt.Sprintf("%-8s", rec.SeverityLabel))
		subject := rec.URL
		switch {
		case rec.Header != "":
			subject += " [" + rec.Header + "]"
		case rec.Param != "":
			subject += " [" + rec.Param + "]"
		}
		fmt.Fprintf(w, "%s %.3f  %-18s %s\n", label, rec.SeverityConfidence, rec.Kind, subject)
	}
}
