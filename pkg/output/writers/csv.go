package writers

import (
	"encoding/csv"
	"fmt"
	"io"

	"github.com/Killjoybr/IA-CAI/pkg/scanner"
)

var _ Writer = (*CSVWriter)(nil)

// UTF-8 BOM for Excel compatibility.
const utf8BOM = "\xEF\xBB\xBF"

// CSVWriter writes one row per finding.
type CSVWriter struct {
	w    io.Writer
	opts CSVOptions
}

// CSVOptions configures the CSV writer.
type CSVOptions struct {
	// OmitHeader drops the column header row.
	OmitHeader bool
	// Delimiter defaults to a comma.
	Delimiter rune
	// ExcelCompatible prefixes a UTF-8 BOM.
	ExcelCompatible bool
	// SanitizeFormulas prefixes cells starting with = + - @ so
	// spreadsheets do not evaluate them. Payloads often do.
	SanitizeFormulas bool
}

// NewCSVWriter creates a CSV writer.
func NewCSVWriter(w io.Writer, opts CSVOptions) *CSVWriter {
	return &CSVWriter{w: w, opts: opts}
}

// Write emits the header and one row per record.
func (cw *CSVWriter) Write(rep *scanner.Report) error {
	if cw.opts.ExcelCompatible {
		if _, err := io.WriteString(cw.w, utf8BOM); err != nil {
			return fmt.Errorf("csv: write BOM: %w", err)
		}
	}

	w := csv.NewWriter(cw.w)
	if cw.opts.Delimiter != 0 {
		w.Comma = cw.opts.Delimiter
	}
	if !cw.opts.OmitHeader {
		if err := w.Write(columns); err != nil {
			return fmt.Errorf("csv: write header: %w", err)
		}
	}
	for _, rec := range rep.Items() {
		cells := row(rec)
		if cw.opts.SanitizeFormulas {
			for i := range cells {
				cells[i] = sanitizeForCSV(cells[i])
			}
		}
		if err := w.Write(cells); err != nil {
			return fmt.Errorf("csv: write row: %w", err)
		}
	}
	w.Flush()
	return w.Error()
}
