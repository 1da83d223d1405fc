// Package writers renders a finished scan report in the supported
// output formats.
package writers

import (
	"strconv"
	"strings"

	"github.com/Killjoybr/IA-CAI/pkg/finding"
	"github.com/Killjoybr/IA-CAI/pkg/scanner"
)

// Writer renders one report to its destination.
type Writer interface {
	Write(rep *scanner.Report) error
}

// columns is the flat row layout shared by csv, table, markdown, xlsx
// and pdf.
var columns = []string{"type", "severity", "confidence", "url", "param", "header", "payload", "detail"}

// Columns returns the flat row header.
func Columns() []string {
	return append([]string(nil), columns...)
}

// row flattens a record in columns order. Severity fields are blank for
// unannotated records.
func row(r finding.Record) []string {
	sev, conf := "", ""
	if r.Annotated() {
		sev = r.SeverityLabel
		if sev == "" {
			sev = r.SeverityClass.String()
		}
		conf = strconv.FormatFloat(r.SeverityConfidence, 'f', 3, 64)
	}
	return []string{
		r.Kind.String(),
		sev,
		conf,
		r.URL,
		r.Param,
		r.Header,
		r.Payload,
		r.Detail,
	}
}

// truncate shortens s to at most n runes, marking the cut.
func truncate(s string, n int) string {
	if n <= 0 {
		return s
	}
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	if n <= 3 {
		return string(runes[:n])
	}
	return string(runes[:n-3]) + "..."
}

// sanitizeForCSV prefixes cells a spreadsheet would treat as formulas.
func sanitizeForCSV(s string) string {
	if s == "" {
		return s
	}
	switch s[0] {
	case '=', '+', '-', '@', '\t', '\r':
		return "'" + s
	}
	return s
}

func escapeMarkdown(s string) string {
	r := strings.NewReplacer("|", `\|`, "\n", " ", "\r", "", "`", "\\`")
	return r.Replace(s)
}
