package writers

import (
	"fmt"
	"io"

	gofpdf "github.com/go-pdf/fpdf"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/Killjoybr/IA-CAI/pkg/defaults"
	"github.com/Killjoybr/IA-CAI/pkg/finding"
	"github.com/Killjoybr/IA-CAI/pkg/scanner"
)

var _ Writer = (*PDFWriter)(nil)

// PDFWriter renders an A4 report: a summary page followed by one block
// per finding.
type PDFWriter struct {
	w    io.Writer
	opts PDFOptions

	// noCompress keeps streams readable in tests.
	noCompress bool
}

// PDFOptions configures the PDF writer.
type PDFOptions struct {
	Title string
	// Lang controls title casing of headings (default English).
	Lang language.Tag
}

// NewPDFWriter creates a PDF writer.
func NewPDFWriter(w io.Writer, opts PDFOptions) *PDFWriter {
	if opts.Title == "" {
		opts.Title = "Web vulnerability scan report"
	}
	if opts.Lang == language.Und {
		opts.Lang = language.English
	}
	return &PDFWriter{w: w, opts: opts}
}

var pdfSeverityColors = map[finding.Severity][3]int{
	finding.High:   {220, 38, 38},
	finding.Medium: {217, 119, 6},
	finding.Low:    {22, 163, 74},
}

// Write renders rep.
func (pw *PDFWriter) Write(rep *scanner.Report) error {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetCompression(!pw.noCompress)
	pdf.SetTitle(pw.opts.Title, true)
	pdf.SetCreator(defaults.ToolName+" "+defaults.Version, true)
	pdf.SetAutoPageBreak(true, 15)
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	title := cases.Title(pw.opts.Lang)

	pdf.SetFooterFunc(func() {
		pdf.SetY(-12)
		pdf.SetFont("Helvetica", "I", 8)
		pdf.SetTextColor(128, 128, 128)
		pdf.CellFormat(0, 8, fmt.Sprintf("%s - %d", rep.ScanID, pdf.PageNo()), "", 0, "C", false, 0, "")
	})

	pdf.AddPage()
	pdf.SetFont("Helvetica", "B", 18)
	pdf.SetTextColor(30, 41, 59)
	pdf.MultiCell(0, 10, tr(title.String(pw.opts.Title)), "", "L", false)
	pdf.Ln(4)

	pdf.SetFont("Helvetica", "", 10)
	pdf.SetTextColor(60, 60, 60)
	summary := [][2]string{
		{"Target", rep.Target},
		{"Scan ID", rep.ScanID},
		{"Started", rep.StartedAt.Format("2006-01-02 15:04:05 MST")},
		{"Duration", fmt.Sprintf("%.2fs", rep.DurationSeconds)},
		{"Pages", fmt.Sprintf("%d (%d answered)", len(rep.URLs), rep.PagesFetched)},
		{"Requests", fmt.Sprint(rep.Requests)},
		{"Findings", fmt.Sprint(len(rep.Findings))},
	}
	for _, kv := range summary {
		pdf.SetFont("Helvetica", "B", 10)
		pdf.CellFormat(35, 7, kv[0], "", 0, "L", false, 0, "")
		pdf.SetFont("Helvetica", "", 10)
		pdf.MultiCell(0, 7, tr(kv[1]), "", "L", false)
	}

	if counts := rep.CountByKind(); len(counts) > 0 {
		pdf.Ln(4)
		pw.sectionHeader(pdf, tr(title.String("findings by type")))
		pdf.SetFont("Helvetica", "B", 10)
		pdf.SetFillColor(30, 41, 59)
		pdf.SetTextColor(255, 255, 255)
		pdf.CellFormat(80, 8, "Type", "1", 0, "L", true, 0, "")
		pdf.CellFormat(30, 8, "Count", "1", 1, "C", true, 0, "")
		pdf.SetFont("Helvetica", "", 10)
		pdf.SetTextColor(40, 40, 40)
		for _, kc := range counts {
			pdf.CellFormat(80, 7, kc.Kind.String(), "1", 0, "L", false, 0, "")
			pdf.CellFormat(30, 7, fmt.Sprint(kc.Count), "1", 1, "C", false, 0, "")
		}
	}

	items := rep.Items()
	if len(items) > 0 {
		pdf.AddPage()
		pw.sectionHeader(pdf, tr(title.String("findings")))
		for i, rec := range items {
			pw.findingBlock(pdf, tr, i+1, rec)
		}
	}

	if len(rep.Errors) > 0 {
		pdf.Ln(4)
		pw.sectionHeader(pdf, tr(title.String("errors")))
		pdf.SetFont("Courier", "", 8)
		pdf.SetTextColor(90, 90, 90)
		for _, e := range rep.Errors {
			pdf.MultiCell(0, 4, tr(truncate(e, 300)), "", "L", false)
		}
	}

	if err := pdf.Output(pw.w); err != nil {
		return fmt.Errorf("pdf: %w", err)
	}
	return nil
}

func (pw *PDFWriter) sectionHeader(pdf *gofpdf.Fpdf, text string) {
	pdf.SetFont("Helvetica", "B", 13)
	pdf.SetTextColor(125, 86, 244)
	pdf.CellFormat(0, 9, text, "B", 1, "L", false, 0, "")
	pdf.Ln(2)
}

func (pw *PDFWriter) findingBlock(pdf *gofpdf.Fpdf, tr func(string) string, n int, rec finding.Record) {
	pdf.SetFont("Helvetica", "B", 10)
	pdf.SetTextColor(30, 41, 59)
	heading := fmt.Sprintf("%d. %s", n, rec.Kind)
	if rec.Annotated() {
		c := pdfSeverityColors[rec.SeverityClass]
		pdf.CellFormat(120, 6, heading, "", 0, "L", false, 0, "")
		pdf.SetTextColor(c[0], c[1], c[2])
		pdf.CellFormat(0, 6, tr(fmt.Sprintf("%s (%.2f)", rec.SeverityLabel, rec.SeverityConfidence)), "", 1, "R", false, 0, "")
	} else {
		pdf.CellFormat(0, 6, heading, "", 1, "L", false, 0, "")
	}

	pdf.SetFont("Helvetica", "", 9)
	pdf.SetTextColor(60, 60, 60)
	pdf.MultiCell(0, 5, tr(rec.Detail), "", "L", false)
	pdf.SetFont("Courier", "", 8)
	pdf.MultiCell(0, 4, tr(rec.URL), "", "L", false)
	if rec.Payload != "" {
		pdf.MultiCell(0, 4, tr("payload: "+rec.Payload), "", "L", false)
	}
	pdf.Ln(3)
}
