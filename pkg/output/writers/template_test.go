package writers

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/language"

	"github.com/Killjoybr/IA-CAI/pkg/jsonutil"
)

func TestBuiltInTemplates(t *testing.T) {
	t.Parallel()
	assert.Equal(t, []string{"asff", "summary"}, BuiltInTemplates())
}

func TestTemplateSummary(t *testing.T) {
	t.Parallel()

	w, err := NewTemplateWriter(nil, TemplateConfig{BuiltIn: "summary"})
	require.NoError(t, err)
	var buf bytes.Buffer
	w.w = &buf
	require.NoError(t, w.Write(annotatedReport(language.English)))
	out := buf.String()

	assert.Contains(t, out, "webprobe scan summary")
	assert.Contains(t, out, "Target:    http://example.test/")
	assert.Contains(t, out, "Missing Header")
	assert.Contains(t, out, "[H] High")
	assert.Contains(t, out, "1. [missing_header] (medium)")
	assert.Contains(t, out, "Errors (1):")
}

func TestTemplateASFF(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	w, err := NewTemplateWriter(&buf, TemplateConfig{
		BuiltIn: "asff",
		Vars:    map[string]string{"Region": "eu-west-1", "AWSAccountID": "123456789012"},
	})
	require.NoError(t, err)
	require.NoError(t, w.Write(annotatedReport(language.English)))

	var got []map[string]any
	require.NoError(t, jsonutil.Unmarshal(buf.Bytes(), &got), buf.String())
	require.Len(t, got, 3)
	assert.Equal(t, "123456789012", got[0]["AwsAccountId"])
	assert.Equal(t, "MEDIUM", got[0]["Severity"].(map[string]any)["Label"])
	assert.Equal(t, "HIGH", got[1]["Severity"].(map[string]any)["Label"])
	assert.Contains(t, got[1]["ProductArn"], "eu-west-1")
}

func TestTemplateInlineAndFile(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	w, err := NewTemplateWriter(&buf, TemplateConfig{TemplateString: `{{ len .Items }} {{ .Target | upper }}`})
	require.NoError(t, err)
	require.NoError(t, w.Write(fixtureReport()))
	assert.Equal(t, "3 HTTP://EXAMPLE.TEST/", buf.String())

	path := filepath.Join(t.TempDir(), "ids.tmpl")
	require.NoError(t, os.WriteFile(path, []byte(`{{ range .Items }}{{ fingerprint .Finding }} {{ end }}`), 0o600))
	buf.Reset()
	w, err = NewTemplateWriter(&buf, TemplateConfig{TemplatePath: path})
	require.NoError(t, err)
	require.NoError(t, w.Write(fixtureReport()))
	assert.Regexp(t, `^([0-9a-f]{32} ){3}$`, buf.String())
}

func TestTemplateErrors(t *testing.T) {
	t.Parallel()

	_, err := NewTemplateWriter(nil, TemplateConfig{})
	assert.Error(t, err)

	_, err = NewTemplateWriter(nil, TemplateConfig{BuiltIn: "nope"})
	assert.ErrorContains(t, err, "asff, summary")

	_, err = NewTemplateWriter(nil, TemplateConfig{TemplateString: "{{ .Broken "})
	assert.Error(t, err)

	_, err = NewTemplateWriter(nil, TemplateConfig{TemplatePath: filepath.Join(t.TempDir(), "missing")})
	assert.Error(t, err)
}
