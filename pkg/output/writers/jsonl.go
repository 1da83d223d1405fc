package writers

import (
	"fmt"
	"io"

	"github.com/Killjoybr/IA-CAI/pkg/jsonutil"
	"github.com/Killjoybr/IA-CAI/pkg/scanner"
)

var _ Writer = (*JSONLWriter)(nil)

// JSONLWriter writes one finding per line, annotated when the report
// has been annotated. An empty report writes nothing.
type JSONLWriter struct {
	w io.Writer
}

// NewJSONLWriter creates a JSON Lines writer.
func NewJSONLWriter(w io.Writer) *JSONLWriter {
	return &JSONLWriter{w: w}
}

// Write encodes each record on its own line.
func (jw *JSONLWriter) Write(rep *scanner.Report) error {
	enc := jsonutil.NewStreamEncoder(jw.w)
	for i, rec := range rep.Items() {
		if err := enc.Encode(rec); err != nil {
			return fmt.Errorf("jsonl: record %d: %w", i, err)
		}
	}
	return nil
}
