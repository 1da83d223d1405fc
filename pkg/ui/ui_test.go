package ui

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Killjoybr/IA-CAI/pkg/defaults"
	"github.com/Killjoybr/IA-CAI/pkg/finding"
)

func TestPrintBannerPlainWhenPiped(t *testing.T) {
	var buf bytes.Buffer
	PrintBanner(&buf)

	out := buf.String()
	assert.Contains(t, out, "v"+defaults.Version)
	assert.NotContains(t, out, "\x1b[", "non-terminal output must not carry ANSI codes")
}

func TestPrintStat(t *testing.T) {
	var buf bytes.Buffer
	PrintStat(&buf, "Pages", 3)
	assert.Equal(t, "  Pages: 3\n", buf.String())
}

func TestPrintSectionAndError(t *testing.T) {
	var buf bytes.Buffer
	PrintSection(&buf, "Findings")
	PrintError(&buf, "boom")
	assert.Contains(t, buf.String(), "Findings")
	assert.True(t, strings.HasSuffix(buf.String(), " boom\n"))
}

func TestSeverityStyleDistinct(t *testing.T) {
	high := SeverityStyle(finding.High).GetForeground()
	med := SeverityStyle(finding.Medium).GetForeground()
	low := SeverityStyle(finding.Low).GetForeground()
	assert.NotEqual(t, high, med)
	assert.NotEqual(t, med, low)
	assert.Equal(t, Muted, SeverityStyle("bogus").GetForeground())
}

func TestKindStyle(t *testing.T) {
	assert.Equal(t, Error, KindStyle(finding.KindSQLiErrorBased).GetForeground())
	assert.Equal(t, Warning, KindStyle(finding.KindMissingHeader).GetForeground())
	assert.Equal(t, Muted, KindStyle("other").GetForeground())
}

func TestIsTerminal(t *testing.T) {
	assert.False(t, IsTerminal(&bytes.Buffer{}))
}

func TestNoColorEnv(t *testing.T) {
	t.Setenv("NO_COLOR", "1")
	assert.True(t, IsNoColor())
}
