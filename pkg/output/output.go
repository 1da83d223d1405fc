// Package output selects and drives report writers.
package output

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/text/language"

	"github.com/Killjoybr/IA-CAI/pkg/output/writers"
	"github.com/Killjoybr/IA-CAI/pkg/scanner"
)

// Format names an output format.
type Format string

const (
	FormatTable    Format = "table"
	FormatJSON     Format = "json"
	FormatJSONL    Format = "jsonl"
	FormatYAML     Format = "yaml"
	FormatCSV      Format = "csv"
	FormatMarkdown Format = "markdown"
	FormatPDF      Format = "pdf"
	FormatXLSX     Format = "xlsx"
	FormatTemplate Format = "template"
)

// ErrUnknownFormat is returned for an unsupported format name.
var ErrUnknownFormat = errors.New("output: unknown format")

// Formats lists every supported format.
func Formats() []Format {
	return []Format{FormatTable, FormatJSON, FormatJSONL, FormatYAML, FormatCSV,
		FormatMarkdown, FormatPDF, FormatXLSX, FormatTemplate}
}

var aliases = map[string]Format{
	"text":   FormatTable,
	"md":     FormatMarkdown,
	"yml":    FormatYAML,
	"ndjson": FormatJSONL,
	"tmpl":   FormatTemplate,
	"excel":  FormatXLSX,
}

// ParseFormat resolves a format name or alias, case-insensitively.
func ParseFormat(s string) (Format, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if f, ok := aliases[s]; ok {
		return f, nil
	}
	for _, f := range Formats() {
		if string(f) == s {
			return f, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownFormat, s)
}

// FormatFromPath infers a format from a file extension.
func FormatFromPath(path string) (Format, bool) {
	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), ".")
	if ext == "" || ext == "txt" {
		return "", false
	}
	f, err := ParseFormat(ext)
	if err != nil || f == FormatTable || f == FormatTemplate {
		return "", false
	}
	return f, true
}

// Binary reports whether f produces non-text output.
func (f Format) Binary() bool {
	return f == FormatPDF || f == FormatXLSX
}

// Extension returns the file extension for f, without the dot.
func (f Format) Extension() string {
	switch f {
	case FormatTable, FormatTemplate:
		return "txt"
	case FormatMarkdown:
		return "md"
	}
	return string(f)
}

// ContentType returns the media type for f.
func (f Format) ContentType() string {
	switch f {
	case FormatJSON:
		return "application/json"
	case FormatJSONL:
		return "application/x-ndjson"
	case FormatYAML:
		return "application/yaml"
	case FormatCSV:
		return "text/csv"
	case FormatMarkdown:
		return "text/markdown"
	case FormatPDF:
		return "application/pdf"
	case FormatXLSX:
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	}
	return "text/plain; charset=utf-8"
}

// Options carries per-format settings.
type Options struct {
	Pretty   bool
	Lang     language.Tag
	Title    string
	Template writers.TemplateConfig
	Quiet    bool
}

// New returns a writer for f.
func New(f Format, w io.Writer, opts Options) (writers.Writer, error) {
	switch f {
	case FormatTable:
		return writers.NewTableWriter(w, writers.TableOptions{Quiet: opts.Quiet}), nil
	case FormatJSON:
		return writers.NewJSONWriter(w, writers.JSONOptions{Pretty: opts.Pretty}), nil
	case FormatJSONL:
		return writers.NewJSONLWriter(w), nil
	case FormatYAML:
		return writers.NewYAMLWriter(w), nil
	case FormatCSV:
		return writers.NewCSVWriter(w, writers.CSVOptions{SanitizeFormulas: true}), nil
	case FormatMarkdown:
		return writers.NewMarkdownWriter(w, writers.MarkdownOptions{Title: opts.Title, IncludeURLs: true}), nil
	case FormatPDF:
		return writers.NewPDFWriter(w, writers.PDFOptions{Title: opts.Title, Lang: opts.Lang}), nil
	case FormatXLSX:
		return writers.NewXLSXWriter(w), nil
	case FormatTemplate:
		tc := opts.Template
		if tc.TemplatePath == "" && tc.TemplateString == "" && tc.BuiltIn == "" {
			tc.BuiltIn = "summary"
		}
		return writers.NewTemplateWriter(w, tc)
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, f)
}

// Write renders rep to w in format f.
func Write(w io.Writer, f Format, rep *scanner.Report, opts Options) error {
	wr, err := New(f, w, opts)
	if err != nil {
		return err
	}
	return wr.Write(rep)
}

// WriteFile renders rep into path, creating or truncating it.
func WriteFile(path string, f Format, rep *scanner.Report, opts Options) (err error) {
	// Fail on a bad format or template before touching the file.
	if _, err := New(f, io.Discard, opts); err != nil {
		return err
	}

	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("output: %w", err)
	}
	defer func() {
		if cerr := file.Close(); err == nil {
			err = cerr
		}
	}()
	return Write(file, f, rep, opts)
}
