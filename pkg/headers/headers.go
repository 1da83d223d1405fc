// Package headers audits responses for missing security headers.
package headers

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/Killjoybr/IA-CAI/pkg/finding"
	"github.com/Killjoybr/IA-CAI/pkg/httpclient"
)

// SecurityHeader is a response header the auditor requires.
type SecurityHeader struct {
	// Name is the lowercase header name.
	Name        string
	Description string
}

// RequiredHeaders returns the headers every response should carry, in
// report order.
func RequiredHeaders() []SecurityHeader {
	return []SecurityHeader{
		{Name: "content-security-policy", Description: "restricts where scripts and other resources load from"},
		{Name: "x-frame-options", Description: "prevents framing (clickjacking)"},
		{Name: "x-content-type-options", Description: "disables MIME sniffing"},
		{Name: "strict-transport-security", Description: "forces HTTPS on later visits"},
	}
}

// Missing returns the names of required headers absent from h. Names are
// compared lowercased; a header that is present with an empty value
// counts as present.
func Missing(h http.Header) []string {
	present := make(map[string]bool, len(h))
	for name := range h {
		present[strings.ToLower(name)] = true
	}
	var missing []string
	for _, req := range RequiredHeaders() {
		if !present[req.Name] {
			missing = append(missing, req.Name)
		}
	}
	return missing
}

// Auditor checks one URL per call.
type Auditor struct {
	fetcher httpclient.Getter
	logger  *slog.Logger
}

// NewAuditor creates an auditor. A nil logger means slog.Default().
func NewAuditor(fetcher httpclient.Getter, logger *slog.Logger) *Auditor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Auditor{fetcher: fetcher, logger: logger}
}

// Audit issues one GET to rawURL and reports one missing_header finding
// per absent required header. A failed fetch is not a finding: the
// outcome carries no findings and records the error.
func (a *Auditor) Audit(ctx context.Context, rawURL string) finding.Outcome {
	var out finding.Outcome
	out.Requests = 1

	page, err := a.fetcher.Get(httpclient.WithPurpose(ctx, "headers"), rawURL)
	if err != nil {
		a.logger.WarnContext(ctx, "header audit skipped",
			slog.String("url", rawURL), slog.String("error", err.Error()))
		out.Fail(fmt.Errorf("header audit %s: %w", rawURL, err))
		return out
	}

	for _, name := range Missing(page.Header) {
		out.Add(finding.NewMissingHeader(rawURL, name))
	}
	return out
}
