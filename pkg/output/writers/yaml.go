package writers

import (
	"fmt"
	"io"

	"gopkg.in/yaml.v3"

	"github.com/Killjoybr/IA-CAI/pkg/scanner"
)

var _ Writer = (*YAMLWriter)(nil)

// YAMLWriter writes the report as a YAML document.
type YAMLWriter struct {
	w io.Writer
}

// NewYAMLWriter creates a YAML writer.
func NewYAMLWriter(w io.Writer) *YAMLWriter {
	return &YAMLWriter{w: w}
}

// Write encodes rep.
func (yw *YAMLWriter) Write(rep *scanner.Report) error {
	enc := yaml.NewEncoder(yw.w)
	enc.SetIndent(2)
	if err := enc.Encode(rep); err != nil {
		return fmt.Errorf("yaml: encode: %w", err)
	}
	return enc.Close()
}
