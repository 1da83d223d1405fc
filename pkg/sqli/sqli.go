// Package sqli detects error-based SQL injection: a malformed value that
// makes the application leak a database error message.
package sqli

import (
	"strings"

	"github.com/Killjoybr/IA-CAI/pkg/finding"
	"github.com/Killjoybr/IA-CAI/pkg/injection"
)

// DefaultPayloads returns the probe payloads in probe order.
func DefaultPayloads() []string {
	return []string{
		`'`,
		`' OR '1'='1`,
		`" OR "1"="1`,
		`';--`,
	}
}

// ErrorSignatures returns the lowercase substrings that identify a SQL
// error message in a response body.
func ErrorSignatures() []string {
	return []string{
		"you have an error in your sql syntax",
		"warning: mysql",
		"unclosed quotation mark after the character string",
		"sql syntax",
		"odbc sql server driver",
	}
}

// MatchSignature returns the first signature found in the lowercased
// body.
func MatchSignature(body []byte) (string, bool) {
	lower := strings.ToLower(string(body))
	for _, sig := range ErrorSignatures() {
		if strings.Contains(lower, sig) {
			return sig, true
		}
	}
	return "", false
}

// Check implements injection.Check for error-based SQLi.
type Check struct {
	payloads []string
}

var _ injection.Check = (*Check)(nil)

// New returns a check using DefaultPayloads, or the given values instead
// when any are supplied.
func New(values ...string) *Check {
	if len(values) == 0 {
		values = DefaultPayloads()
	}
	return &Check{payloads: values}
}

// Kind implements injection.Check.
func (c *Check) Kind() finding.Kind { return finding.KindSQLiErrorBased }

// Payloads implements injection.Check.
func (c *Check) Payloads() []string {
	out := make([]string, len(c.payloads))
	copy(out, c.payloads)
	return out
}

// Detect ignores the payload: any known error signature is a hit.
func (c *Check) Detect(_ string, body []byte) (string, bool) {
	sig, ok := MatchSignature(body)
	if !ok {
		return "", false
	}
	return "matched " + sig, true
}

// Detail implements injection.Check.
func (c *Check) Detail(param, evidence string) string {
	if evidence == "" {
		return "possible error-based SQL injection in parameter " + param
	}
	return "possible error-based SQL injection in parameter " + param + " (" + evidence + ")"
}
