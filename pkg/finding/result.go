package finding

import "errors"

// Outcome is what a network-touching probe returns. Failures never abort
// a probe; each one is recorded in Errors and the probe moves on, so an
// Outcome with no findings and no errors means "probed, nothing found"
// while one with errors means some requests did not complete.
type Outcome struct {
	Findings []Finding
	// Requests counts requests issued, successful or not.
	Requests int
	Errors   []error
}

// Add appends a finding.
func (o *Outcome) Add(f Finding) {
	o.Findings = append(o.Findings, f)
}

// Fail records a swallowed failure.
func (o *Outcome) Fail(err error) {
	if err != nil {
		o.Errors = append(o.Errors, err)
	}
}

// Merge appends other's findings, requests and errors to o.
func (o *Outcome) Merge(other Outcome) {
	o.Findings = append(o.Findings, other.Findings...)
	o.Requests += other.Requests
	o.Errors = append(o.Errors, other.Errors...)
}

// Err joins all recorded failures, nil if there were none.
func (o Outcome) Err() error {
	return errors.Join(o.Errors...)
}

// Record is a Finding as it crosses the process boundary, optionally
// annotated with a severity estimate.
type Record struct {
	Finding `json:",inline" yaml:",inline"`

	SeverityClass      Severity `json:"severity_class,omitempty" yaml:"severity_class,omitempty"`
	SeverityConfidence float64  `json:"severity_confidence,omitzero" yaml:"severity_confidence,omitempty"`
	// SeverityLabel is SeverityClass in the requested display language.
	SeverityLabel string `json:"severity_label,omitempty" yaml:"severity_label,omitempty"`
}

// Annotated reports whether a severity estimate is attached.
func (r Record) Annotated() bool {
	return r.SeverityClass != ""
}

// Records wraps findings without annotation.
func Records(fs []Finding) []Record {
	out := make([]Record, len(fs))
	for i, f := range fs {
		out[i] = Record{Finding: f}
	}
	return out
}
