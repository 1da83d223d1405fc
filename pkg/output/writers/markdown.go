package writers

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/Killjoybr/IA-CAI/pkg/scanner"
)

var _ Writer = (*MarkdownWriter)(nil)

// MarkdownWriter writes a summary and a findings table in GitHub
// flavoured Markdown.
type MarkdownWriter struct {
	w    io.Writer
	opts MarkdownOptions
}

// MarkdownOptions configures the Markdown writer.
type MarkdownOptions struct {
	// Title defaults to "webprobe scan report".
	Title string
	// MaxCellWidth truncates long cells (0 = no limit).
	MaxCellWidth int
	// IncludeURLs lists every crawled page.
	IncludeURLs bool
}

// NewMarkdownWriter creates a Markdown writer.
func NewMarkdownWriter(w io.Writer, opts MarkdownOptions) *MarkdownWriter {
	if opts.Title == "" {
		opts.Title = "webprobe scan report"
	}
	return &MarkdownWriter{w: w, opts: opts}
}

// Write renders rep.
func (mw *MarkdownWriter) Write(rep *scanner.Report) error {
	b := bufio.NewWriter(mw.w)

	fmt.Fprintf(b, "# %s\n\n", mw.opts.Title)
	fmt.Fprintf(b, "| | |\n|---|---|\n")
	fmt.Fprintf(b, "| Target | `%s` |\n", escapeMarkdown(rep.Target))
	fmt.Fprintf(b, "| Scan ID | `%s` |\n", rep.ScanID)
	fmt.Fprintf(b, "| Started | %s |\n", rep.StartedAt.Format("2006-01-02 15:04:05 MST"))
	fmt.Fprintf(b, "| Duration | %.2fs |\n", rep.DurationSeconds)
	fmt.Fprintf(b, "| Pages | %d (%d answered) |\n", len(rep.URLs), rep.PagesFetched)
	fmt.Fprintf(b, "| Requests | %d |\n", rep.Requests)
	fmt.Fprintf(b, "| Findings | %d |\n\n", len(rep.Findings))

	if !rep.Reachable() {
		fmt.Fprintf(b, "> **Target unreachable.** No page returned a response.\n\n")
	}

	if counts := rep.CountByKind(); len(counts) > 0 {
		fmt.Fprintf(b, "## Summary\n\n| Type | Count |\n|---|---:|\n")
		for _, kc := range counts {
			fmt.Fprintf(b, "| %s | %d |\n", kc.Kind, kc.Count)
		}
		b.WriteString("\n")
	}

	items := rep.Items()
	if len(items) > 0 {
		b.WriteString("## Findings\n\n")
		b.WriteString("| # | " + strings.Join(columns, " | ") + " |\n")
		b.WriteString("|---" + strings.Repeat("|---", len(columns)) + "|\n")
		for i, rec := range items {
			cells := row(rec)
			for j := range cells {
				cells[j] = escapeMarkdown(truncate(cells[j], mw.opts.MaxCellWidth))
				if cells[j] != "" && (columns[j] == "url" || columns[j] == "payload") {
					cells[j] = "`" + cells[j] + "`"
				}
			}
			fmt.Fprintf(b, "| %d | %s |\n", i+1, strings.Join(cells, " | "))
		}
		b.WriteString("\n")
	} else if rep.Reachable() {
		b.WriteString("No findings.\n\n")
	}

	if mw.opts.IncludeURLs && len(rep.URLs) > 0 {
		b.WriteString("## Crawled pages\n\n")
		for _, u := range rep.URLs {
			fmt.Fprintf(b, "- %s\n", escapeMarkdown(u))
		}
		b.WriteString("\n")
	}

	if len(rep.Errors) > 0 {
		fmt.Fprintf(b, "<details><summary>%d errors</summary>\n\n", len(rep.Errors))
		for _, e := range rep.Errors {
			fmt.Fprintf(b, "- %s\n", escapeMarkdown(e))
		}
		b.WriteString("\n</details>\n")
	}
	return b.Flush()
}
