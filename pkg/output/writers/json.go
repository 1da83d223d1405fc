package writers

import (
	"fmt"
	"io"
	"strings"

	"github.com/Killjoybr/IA-CAI/pkg/jsonutil"
	"github.com/Killjoybr/IA-CAI/pkg/scanner"
)

var _ Writer = (*JSONWriter)(nil)

// JSONWriter writes the whole report as one JSON document.
type JSONWriter struct {
	w    io.Writer
	opts JSONOptions
}

// JSONOptions configures the JSON writer.
type JSONOptions struct {
	// Pretty enables indented output.
	Pretty bool
	// IndentSize sets the number of spaces per level (default 2).
	IndentSize int
}

// NewJSONWriter creates a JSON writer.
func NewJSONWriter(w io.Writer, opts JSONOptions) *JSONWriter {
	if opts.IndentSize == 0 {
		opts.IndentSize = 2
	}
	return &JSONWriter{w: w, opts: opts}
}

// Write encodes rep followed by a newline.
func (jw *JSONWriter) Write(rep *scanner.Report) error {
	enc := jsonutil.NewStreamEncoder(jw.w)
	if jw.opts.Pretty {
		enc.SetIndent(strings.Repeat(" ", jw.opts.IndentSize))
	}
	if err := enc.Encode(rep); err != nil {
		return fmt.Errorf("json: encode: %w", err)
	}
	return nil
}
