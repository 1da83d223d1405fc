// Package xss detects reflected cross-site scripting: a payload that comes
// back in the response body byte for byte, unescaped.
package xss

import (
	"bytes"

	"github.com/Killjoybr/IA-CAI/pkg/finding"
	"github.com/Killjoybr/IA-CAI/pkg/injection"
)

// Payload is a probe value and the injection context it targets.
type Payload struct {
	Value   string
	Context string
}

// DefaultPayloads returns the probe payloads in probe order.
func DefaultPayloads() []Payload {
	return []Payload{
		{Value: `"><script>alert(1)</script>`, Context: "html"},
		{Value: `'><img src=x onerror=alert(1)>`, Context: "attribute"},
	}
}

// Check implements injection.Check for reflected XSS.
type Check struct {
	payloads []string
}

var _ injection.Check = (*Check)(nil)

// New returns a check using DefaultPayloads, or the given values instead
// when any are supplied.
func New(values ...string) *Check {
	if len(values) == 0 {
		for _, p := range DefaultPayloads() {
			values = append(values, p.Value)
		}
	}
	return &Check{payloads: values}
}

// Kind implements injection.Check.
func (c *Check) Kind() finding.Kind { return finding.KindXSSReflected }

// Payloads implements injection.Check.
func (c *Check) Payloads() []string {
	out := make([]string, len(c.payloads))
	copy(out, c.payloads)
	return out
}

// Detect reports a hit when payload appears verbatim in body. An encoded
// or partially stripped echo is not a hit.
func (c *Check) Detect(payload string, body []byte) (string, bool) {
	if payload == "" || !bytes.Contains(body, []byte(payload)) {
		return "", false
	}
	return "payload reflected unescaped", true
}

// Detail implements injection.Check.
func (c *Check) Detail(param, _ string) string {
	return "possible reflected XSS in parameter " + param
}
