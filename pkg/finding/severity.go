package finding

import (
	"fmt"
	"strings"
)

// Severity is the class the severity classifier assigns to a finding.
// Values are lowercase strings.
type Severity string

const (
	// Low represents limited impact.
	Low Severity = "low"

	// Medium represents moderate impact.
	Medium Severity = "medium"

	// High represents significant impact requiring a prompt fix.
	High Severity = "high"
)

// Severities returns the classes in index order.
func Severities() []Severity {
	return []Severity{Low, Medium, High}
}

// SeverityFromIndex maps a class index (0 low, 1 medium, 2 high) to its
// Severity. ok is false for any other index.
func SeverityFromIndex(i int) (s Severity, ok bool) {
	switch i {
	case 0:
		return Low, true
	case 1:
		return Medium, true
	case 2:
		return High, true
	}
	return "", false
}

// ParseSeverity parses a severity name, case-insensitively.
func ParseSeverity(s string) (Severity, error) {
	sev := Severity(strings.ToLower(strings.TrimSpace(s)))
	if !sev.IsValid() {
		return "", fmt.Errorf("finding: unknown severity %q", s)
	}
	return sev, nil
}

// IsValid reports whether s is a recognized severity.
func (s Severity) IsValid() bool {
	switch s {
	case Low, Medium, High:
		return true
	}
	return false
}

// Index returns the class index of s, or -1 when s is not valid.
func (s Severity) Index() int {
	switch s {
	case Low:
		return 0
	case Medium:
		return 1
	case High:
		return 2
	}
	return -1
}

// Score returns a numeric score for sorting. High=3, Medium=2, Low=1,
// unknown=0.
func (s Severity) Score() int {
	return s.Index() + 1
}

// String returns the severity as a string.
func (s Severity) String() string {
	return string(s)
}

// ToSARIF maps severity to a SARIF result level.
func (s Severity) ToSARIF() string {
	switch s {
	case High:
		return "error"
	case Medium:
		return "warning"
	default:
		return "note"
	}
}
