package writers

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"github.com/Killjoybr/IA-CAI/pkg/scanner"
)

var _ Writer = (*XLSXWriter)(nil)

const (
	sheetFindings = "Findings"
	sheetPages    = "Pages"
	sheetSummary  = "Summary"
)

// XLSXWriter writes a workbook with Findings, Pages and Summary sheets.
type XLSXWriter struct {
	w io.Writer
}

// NewXLSXWriter creates a spreadsheet writer.
func NewXLSXWriter(w io.Writer) *XLSXWriter {
	return &XLSXWriter{w: w}
}

// Write builds the workbook and streams it to the destination.
func (xw *XLSXWriter) Write(rep *scanner.Report) (err error) {
	f := excelize.NewFile()
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}()

	if err := f.SetSheetName("Sheet1", sheetFindings); err != nil {
		return fmt.Errorf("xlsx: %w", err)
	}
	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("xlsx: style: %w", err)
	}

	if err := writeSheetRow(f, sheetFindings, 1, toAny(columns)); err != nil {
		return err
	}
	for i, rec := range rep.Items() {
		if err := writeSheetRow(f, sheetFindings, i+2, toAny(row(rec))); err != nil {
			return err
		}
	}
	if err := f.SetRowStyle(sheetFindings, 1, 1, bold); err != nil {
		return fmt.Errorf("xlsx: %w", err)
	}
	if err := f.AutoFilter(sheetFindings, fmt.Sprintf("A1:%s1", lastColumn()), nil); err != nil {
		return fmt.Errorf("xlsx: filter: %w", err)
	}

	if _, err := f.NewSheet(sheetPages); err != nil {
		return fmt.Errorf("xlsx: %w", err)
	}
	if err := writeSheetRow(f, sheetPages, 1, []any{"url"}); err != nil {
		return err
	}
	for i, u := range rep.URLs {
		if err := writeSheetRow(f, sheetPages, i+2, []any{u}); err != nil {
			return err
		}
	}

	if _, err := f.NewSheet(sheetSummary); err != nil {
		return fmt.Errorf("xlsx: %w", err)
	}
	summary := [][]any{
		{"scan_id", rep.ScanID},
		{"target", rep.Target},
		{"started_at", rep.StartedAt},
		{"duration_seconds", rep.DurationSeconds},
		{"pages", len(rep.URLs)},
		{"pages_fetched", rep.PagesFetched},
		{"requests", rep.Requests},
		{"findings", len(rep.Findings)},
		{"errors", len(rep.Errors)},
	}
	for i, r := range summary {
		if err := writeSheetRow(f, sheetSummary, i+1, r); err != nil {
			return err
		}
	}

	if _, err := f.WriteTo(xw.w); err != nil {
		return fmt.Errorf("xlsx: write: %w", err)
	}
	return nil
}

func writeSheetRow(f *excelize.File, sheet string, n int, values []any) error {
	cell, err := excelize.CoordinatesToCellName(1, n)
	if err != nil {
		return fmt.Errorf("xlsx: %w", err)
	}
	if err := f.SetSheetRow(sheet, cell, &values); err != nil {
		return fmt.Errorf("xlsx: %s row %d: %w", sheet, n, err)
	}
	return nil
}

func lastColumn() string {
	name, _ := excelize.ColumnNumberToName(len(columns))
	return name
}

func toAny(ss []string) []any {
	out := make([]any, len(ss))
	for i, s := range ss {
		out[i] = s
	}
	return out
}
