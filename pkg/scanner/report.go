package scanner

import (
	"errors"
	"sort"
	"time"

	"golang.org/x/text/language"

	"github.com/Killjoybr/IA-CAI/pkg/finding"
	"github.com/Killjoybr/IA-CAI/pkg/scoring"
)

// Report is the result of one scan. A failed page still counts as
// visited, so an unreachable target shows up as URLs holding only the
// seed with PagesFetched zero, which is different from a reachable site
// with no findings.
type Report struct {
	ScanID    string        `json:"scan_id" yaml:"scan_id"`
	Target    string        `json:"target" yaml:"target"`
	StartedAt time.Time     `json:"started_at" yaml:"started_at"`
	Duration  time.Duration `json:"-" yaml:"-"`
	// DurationSeconds mirrors Duration for serialization.
	DurationSeconds float64 `json:"duration_seconds" yaml:"duration_seconds"`

	URLs []string `json:"urls" yaml:"urls"`
	// PagesFetched counts visited pages that answered at all.
	PagesFetched int               `json:"pages_fetched" yaml:"pages_fetched"`
	Findings     []finding.Finding `json:"findings" yaml:"findings"`
	// Records is Findings with severity estimates, set by Annotate.
	Records []finding.Record `json:"annotated,omitempty" yaml:"annotated,omitempty"`

	// Requests counts every HTTP request the scan issued.
	Requests int      `json:"requests" yaml:"requests"`
	Errors   []string `json:"errors,omitempty" yaml:"errors,omitempty"`

	errs []error
}

// Reachable reports whether any crawled page returned a response.
func (r *Report) Reachable() bool {
	return r.PagesFetched > 0
}

// Err joins the failures swallowed during the scan.
func (r *Report) Err() error {
	return errors.Join(r.errs...)
}

func (r *Report) fail(errs ...error) {
	for _, err := range errs {
		if err == nil {
			continue
		}
		r.errs = append(r.errs, err)
		r.Errors = append(r.Errors, err.Error())
	}
}

// Annotate attaches severity estimates with labels in lang.
func (r *Report) Annotate(c *scoring.Classifier, lang language.Tag) {
	r.Records = AnnotateLang(c, r.Findings, lang)
}

// Items returns the records to render: annotated when available,
// otherwise the bare findings.
func (r *Report) Items() []finding.Record {
	if r.Records != nil {
		return r.Records
	}
	return finding.Records(r.Findings)
}

// KindCount is a number of findings of one kind.
type KindCount struct {
	Kind  finding.Kind `json:"type" yaml:"type"`
	Count int          `json:"count" yaml:"count"`
}

// CountByKind tallies findings per kind, most frequent first.
func (r *Report) CountByKind() []KindCount {
	counts := map[finding.Kind]int{}
	for _, f := range r.Findings {
		counts[f.Kind]++
	}
	out := make([]KindCount, 0, len(counts))
	for k, n := range counts {
		out = append(out, KindCount{Kind: k, Count: n})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Kind < out[j].Kind
	})
	return out
}

// CountBySeverity tallies annotated records per class. It is empty
// before Annotate.
func (r *Report) CountBySeverity() map[finding.Severity]int {
	out := map[finding.Severity]int{}
	for _, rec := range r.Records {
		if rec.Annotated() {
			out[rec.SeverityClass]++
		}
	}
	return out
}

// Annotate classifies each finding, in order, with English labels.
func Annotate(c *scoring.Classifier, fs []finding.Finding) []finding.Record {
	return AnnotateLang(c, fs, language.English)
}

// AnnotateLang classifies each finding, in order, labelling classes in
// lang. Findings are not modified.
func AnnotateLang(c *scoring.Classifier, fs []finding.Finding, lang language.Tag) []finding.Record {
	out := make([]finding.Record, len(fs))
	for i, f := range fs {
		est := c.Classify(f)
		out[i] = finding.Record{
			Finding:            f,
			SeverityClass:      est.Class,
			SeverityConfidence: est.Confidence,
			SeverityLabel:      scoring.Label(est.Index, lang),
		}
	}
	return out
}
