// Package scoring estimates a severity class for a finding with a small
// multinomial logistic regression fitted once, at construction, on a
// fixed set of hand-labelled exemplars.
//
// The model is illustrative. It ranks findings consistently; it makes no
// claim of statistical validity.
package scoring

import (
	"strings"

	"github.com/Killjoybr/IA-CAI/pkg/finding"
)

// NumFeatures is the length of a feature vector.
const NumFeatures = 4

// urlLengthScale is the URL length that maps to a feature value of 1.
const urlLengthScale = 200.0

// Features is the numeric projection of a finding:
//
//	[0] finding type score   0..2
//	[1] payload present      0 or 1
//	[2] header criticality   0..2
//	[3] URL length / 200     clamped to 0..1
type Features [NumFeatures]float64

// Extract projects f onto its feature vector. It never fails: absent or
// unknown fields encode as zero.
func Extract(f finding.Finding) Features {
	var x Features
	x[0] = typeScore(f.Kind)
	if f.Payload != "" {
		x[1] = 1
	}
	x[2] = headerScore(f.Header)
	x[3] = min(float64(len(f.URL))/urlLengthScale, 1)
	return x
}

// typeScore encodes the finding kind. A new Kind gets its branch here.
func typeScore(k finding.Kind) float64 {
	switch k {
	case finding.KindXSSReflected, finding.KindSQLiErrorBased:
		return 2
	case finding.KindMissingHeader:
		return 1
	}
	return 0
}

// headerScore rates how much a missing header matters. Matching is by
// substring on the lowercased name so decorated names still score.
func headerScore(header string) float64 {
	if header == "" {
		return 0
	}
	h := strings.ToLower(header)
	switch {
	case strings.Contains(h, "content-security-policy"), strings.Contains(h, "strict-transport-security"):
		return 2
	case strings.Contains(h, "x-frame-options"), strings.Contains(h, "x-content-type-options"):
		return 1
	}
	return 0
}
