package writers

import (
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/Killjoybr/IA-CAI/pkg/finding"
	"github.com/Killjoybr/IA-CAI/pkg/scanner"
	"github.com/Killjoybr/IA-CAI/pkg/ui"
)

var _ Writer = (*TableWriter)(nil)

// TableWriter renders a console table. Color is used only when the
// destination is a terminal.
type TableWriter struct {
	w    io.Writer
	opts TableOptions
}

// TableOptions configures the console table.
type TableOptions struct {
	// MaxCellWidth truncates url, payload and detail cells (default 60).
	MaxCellWidth int
	// Quiet prints only the summary block.
	Quiet bool
}

// NewTableWriter creates a console table writer.
func NewTableWriter(w io.Writer, opts TableOptions) *TableWriter {
	if opts.MaxCellWidth == 0 {
		opts.MaxCellWidth = 60
	}
	return &TableWriter{w: w, opts: opts}
}

var tableColumns = []string{"#", "type", "severity", "url", "param/header", "detail"}

// Write renders the summary and the findings table.
func (tw *TableWriter) Write(rep *scanner.Report) error {
	r := ui.Renderer(tw.w)

	ui.PrintSection(tw.w, "Scan "+rep.ScanID)
	ui.PrintStat(tw.w, "Target", rep.Target)
	ui.PrintStat(tw.w, "Pages", fmt.Sprintf("%d (%d answered)", len(rep.URLs), rep.PagesFetched))
	ui.PrintStat(tw.w, "Requests", rep.Requests)
	ui.PrintStat(tw.w, "Findings", len(rep.Findings))
	ui.PrintStat(tw.w, "Duration", fmt.Sprintf("%.2fs", rep.DurationSeconds))
	if len(rep.Errors) > 0 {
		ui.PrintStat(tw.w, "Errors", len(rep.Errors))
	}
	if !rep.Reachable() {
		ui.PrintError(tw.w, "target unreachable")
	}

	items := rep.Items()
	if tw.opts.Quiet || len(items) == 0 {
		return nil
	}

	rows := make([][]string, len(items))
	for i, rec := range items {
		where := rec.Param
		if where == "" {
			where = rec.Header
		}
		sev := rec.SeverityLabel
		if sev == "" {
			sev = "-"
		}
		rows[i] = []string{
			fmt.Sprint(i + 1),
			rec.Kind.String(),
			sev,
			truncate(rec.URL, tw.opts.MaxCellWidth),
			where,
			truncate(rec.Detail, tw.opts.MaxCellWidth),
		}
	}

	header := ui.HeaderCellStyle.Renderer(r)
	cell := lipgloss.NewStyle().Renderer(r).Padding(0, 1)
	t := table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(ui.MutedStyle.Renderer(r)).
		Headers(tableColumns...).
		Rows(rows...).
		StyleFunc(func(rowIdx, col int) lipgloss.Style {
			if rowIdx == table.HeaderRow {
				return header.Padding(0, 1)
			}
			if rowIdx < 0 || rowIdx >= len(items) {
				return cell
			}
			rec := items[rowIdx]
			switch tableColumns[col] {
			case "type":
				return ui.KindStyle(rec.Kind).Renderer(r).Padding(0, 1)
			case "severity":
				return severityCell(rec).Renderer(r).Padding(0, 1)
			}
			return cell
		})

	_, err := fmt.Fprintln(tw.w, t.Render())
	return err
}

func severityCell(rec finding.Record) lipgloss.Style {
	if !rec.Annotated() {
		return ui.MutedStyle
	}
	return ui.SeverityStyle(rec.SeverityClass)
}
