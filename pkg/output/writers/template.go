package writers

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path"
	"sort"
	"strings"
	"text/template"
	"time"

	"github.com/Masterminds/sprig/v3"

	"github.com/Killjoybr/IA-CAI/pkg/finding"
	"github.com/Killjoybr/IA-CAI/pkg/jsonutil"
	"github.com/Killjoybr/IA-CAI/pkg/scanner"
	"github.com/Killjoybr/IA-CAI/templates"
)

var _ Writer = (*TemplateWriter)(nil)

// TemplateConfig selects the template to render.
type TemplateConfig struct {
	// TemplatePath is a template file on disk.
	TemplatePath string
	// TemplateString is an inline template.
	TemplateString string
	// BuiltIn names a bundled template; see BuiltInTemplates.
	BuiltIn string
	// Vars are extra values exposed to the template (Region,
	// AWSAccountID for asff).
	Vars map[string]string
}

// BuiltInTemplates lists the bundled template names.
func BuiltInTemplates() []string {
	entries, err := templates.FS.ReadDir("output")
	if err != nil {
		return nil
	}
	var names []string
	for _, e := range entries {
		names = append(names, strings.TrimSuffix(e.Name(), path.Ext(e.Name())))
	}
	sort.Strings(names)
	return names
}

// TemplateWriter renders a report through a text/template with the
// sprig function library.
type TemplateWriter struct {
	w      io.Writer
	config TemplateConfig
	tmpl   *template.Template
}

// NewTemplateWriter parses the template immediately so a bad template
// fails before the scan starts.
func NewTemplateWriter(w io.Writer, config TemplateConfig) (*TemplateWriter, error) {
	src, err := loadTemplate(config)
	if err != nil {
		return nil, err
	}

	funcMap := sprig.TxtFuncMap()
	funcMap["severityIcon"] = tmplSeverityIcon
	funcMap["fingerprint"] = func(f finding.Finding) string { return f.Fingerprint() }
	funcMap["json"] = tmplToJSON

	tmpl, err := template.New("webprobe").Funcs(funcMap).Parse(src)
	if err != nil {
		return nil, fmt.Errorf("template: parse: %w", err)
	}
	return &TemplateWriter{w: w, config: config, tmpl: tmpl}, nil
}

func loadTemplate(config TemplateConfig) (string, error) {
	switch {
	case config.TemplatePath != "":
		content, err := os.ReadFile(config.TemplatePath)
		if err != nil {
			return "", fmt.Errorf("template: read %s: %w", config.TemplatePath, err)
		}
		return string(content), nil
	case config.TemplateString != "":
		return config.TemplateString, nil
	case config.BuiltIn != "":
		content, err := templates.FS.ReadFile("output/" + config.BuiltIn + ".tmpl")
		if err != nil {
			return "", fmt.Errorf("template: unknown built-in %q (available: %s)",
				config.BuiltIn, strings.Join(BuiltInTemplates(), ", "))
		}
		return string(content), nil
	}
	return "", fmt.Errorf("template: set TemplatePath, TemplateString, or BuiltIn")
}

// tmplData is what templates see.
type tmplData struct {
	ScanID         string
	Target         string
	StartedAt      string
	Duration       float64
	URLs           []string
	PagesFetched   int
	Requests       int
	Items          []finding.Record
	KindCounts     []scanner.KindCount
	SeverityCounts map[string]int
	Errors         []string

	Region       string
	AWSAccountID string
	Vars         map[string]string
}

// Write renders rep.
func (tw *TemplateWriter) Write(rep *scanner.Report) error {
	sev := map[string]int{}
	for k, v := range rep.CountBySeverity() {
		sev[k.String()] = v
	}
	data := tmplData{
		ScanID:         rep.ScanID,
		Target:         rep.Target,
		StartedAt:      rep.StartedAt.Format(time.RFC3339),
		Duration:       rep.DurationSeconds,
		URLs:           rep.URLs,
		PagesFetched:   rep.PagesFetched,
		Requests:       rep.Requests,
		Items:          rep.Items(),
		KindCounts:     rep.CountByKind(),
		SeverityCounts: sev,
		Errors:         rep.Errors,
		Region:         tw.config.Vars["Region"],
		AWSAccountID:   tw.config.Vars["AWSAccountID"],
		Vars:           tw.config.Vars,
	}

	var buf bytes.Buffer
	if err := tw.tmpl.Execute(&buf, data); err != nil {
		return fmt.Errorf("template: execute: %w", err)
	}
	_, err := tw.w.Write(buf.Bytes())
	return err
}

func tmplSeverityIcon(sev string) string {
	switch finding.Severity(strings.ToLower(sev)) {
	case finding.High:
		return "[H]"
	case finding.Medium:
		return "[M]"
	case finding.Low:
		return "[L]"
	}
	return "[?]"
}

func tmplToJSON(v any) (string, error) {
	b, err := jsonutil.Marshal(v)
	if err != nil {
		return "", err
	}
	return string(b), nil
}
