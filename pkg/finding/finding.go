package finding

import (
	"fmt"

	"github.com/spaolacci/murmur3"
)

// Finding is one reported vulnerability or misconfiguration instance.
// URL is the exact URL of the request that produced it; for injection
// kinds it carries the substituted query.
type Finding struct {
	Kind    Kind   `json:"type" yaml:"type"`
	URL     string `json:"url" yaml:"url"`
	Detail  string `json:"detail" yaml:"detail"`
	Header  string `json:"header,omitempty" yaml:"header,omitempty"`
	Param   string `json:"param,omitempty" yaml:"param,omitempty"`
	Payload string `json:"payload,omitempty" yaml:"payload,omitempty"`
}

// NewMissingHeader builds a missing_header finding for url.
func NewMissingHeader(url, header string) Finding {
	return Finding{
		Kind:   KindMissingHeader,
		URL:    url,
		Detail: "missing security header: " + header,
		Header: header,
	}
}

// NewInjection builds an injection finding.
func NewInjection(kind Kind, url, param, payload, detail string) Finding {
	return Finding{
		Kind:    kind,
		URL:     url,
		Detail:  detail,
		Param:   param,
		Payload: payload,
	}
}

// Fingerprint returns a stable 128-bit hash of the fields that identify
// the issue (not the detail text). Two findings with equal fingerprints
// report the same thing, which lets consumers deduplicate across scans.
func (f Finding) Fingerprint() string {
	h := murmur3.New128()
	for _, part := range []string{string(f.Kind), f.URL, f.Header, f.Param, f.Payload} {
		_, _ = h.Write([]byte(part))
		_, _ = h.Write([]byte{0})
	}
	hi, lo := h.Sum128()
	return fmt.Sprintf("%016x%016x", hi, lo)
}
