// Package ui holds terminal styling for human-readable output.
package ui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/Killjoybr/IA-CAI/pkg/finding"
)

// Color palette
var (
	Primary   = lipgloss.Color("#7D56F4")
	Secondary = lipgloss.Color("#00D4AA")

	High   = lipgloss.Color("#FF6B6B")
	Medium = lipgloss.Color("#FFD93D")
	Low    = lipgloss.Color("#6BCB77")

	Success = lipgloss.Color("#00D26A")
	Warning = lipgloss.Color("#FFB800")
	Error   = lipgloss.Color("#FF3838")
	Muted   = lipgloss.Color("#6B7280")
)

// Pre-configured styles
var (
	TitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(Primary).
			Padding(0, 1)

	BannerStyle = lipgloss.NewStyle().
			Foreground(Primary).
			Bold(true)

	VersionStyle = lipgloss.NewStyle().
			Foreground(Secondary).
			Bold(true)

	SectionStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FAFAFA")).
			Bold(true).
			MarginTop(1)

	StatLabelStyle = lipgloss.NewStyle().
			Foreground(Muted)

	StatValueStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FAFAFA")).
			Bold(true)

	URLStyle = lipgloss.NewStyle().
			Foreground(Secondary).
			Underline(true)

	HeaderCellStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(Primary)

	ErrorStyle = lipgloss.NewStyle().
			Foreground(Error).
			Bold(true)

	MutedStyle = lipgloss.NewStyle().
			Foreground(Muted)
)

// SeverityStyle returns the badge style for a severity class.
func SeverityStyle(s finding.Severity) lipgloss.Style {
	base := lipgloss.NewStyle().Bold(true)
	switch s {
	case finding.High:
		return base.Foreground(High)
	case finding.Medium:
		return base.Foreground(Medium)
	case finding.Low:
		return base.Foreground(Low)
	default:
		return base.Foreground(Muted)
	}
}

// KindStyle returns the style for a finding type.
func KindStyle(k finding.Kind) lipgloss.Style {
	base := lipgloss.NewStyle()
	switch {
	case k.IsInjection():
		return base.Foreground(Error).Bold(true)
	case k == finding.KindMissingHeader:
		return base.Foreground(Warning)
	default:
		return base.Foreground(Muted)
	}
}
