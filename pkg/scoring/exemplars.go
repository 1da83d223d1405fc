package scoring

import "github.com/Killjoybr/IA-CAI/pkg/finding"

// Example is a labelled training finding. Class is a severity index
// (0 low, 1 medium, 2 high).
type Example struct {
	Finding finding.Finding
	Class   int
}

// Exemplars returns the fixed training set: one or more findings per
// kind and header tier.
func Exemplars() []Example {
	const u = "http://a"
	return []Example{
		{finding.Finding{Kind: finding.KindXSSReflected, URL: u, Payload: "p"}, 2},
		{finding.Finding{Kind: finding.KindSQLiErrorBased, URL: u, Payload: "p"}, 2},
		{finding.Finding{Kind: finding.KindMissingHeader, URL: u, Header: "content-security-policy"}, 1},
		{finding.Finding{Kind: finding.KindMissingHeader, URL: u, Header: "x-frame-options"}, 1},
		{finding.Finding{Kind: finding.KindMissingHeader, URL: u, Header: "strict-transport-security"}, 2},
		{finding.Finding{Kind: finding.KindMissingHeader, URL: u, Header: "x-content-type-options"}, 1},
		{finding.Finding{Kind: "other", URL: u}, 0},
	}
}
