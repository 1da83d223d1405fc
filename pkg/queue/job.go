// Package queue runs webprobe as an AMQP worker: scan jobs arrive on one
// queue and finished reports are published to another.
package queue

import (
	"time"

	"github.com/Killjoybr/IA-CAI/pkg/scanner"
)

// Job is one scan request.
type Job struct {
	ID       string `json:"id"`
	Target   string `json:"target"`
	MaxPages int    `json:"max_pages,omitempty"`
	// Timeout is the per-request timeout in seconds.
	Timeout float64 `json:"timeout,omitempty"`
	// Format is the report format uploaded to storage; empty means json.
	Format string `json:"format,omitempty"`
	Lang   string `json:"lang,omitempty"`
}

// Status values carried by Result.
const (
	StatusDone   = "done"
	StatusFailed = "failed"
)

// Result is published once per consumed job.
type Result struct {
	JobID     string          `json:"job_id"`
	Status    string          `json:"status"`
	Error     string          `json:"error,omitempty"`
	ReportURL string          `json:"report_url,omitempty"`
	Report    *scanner.Report `json:"report,omitempty"`
}

func (j Job) target(defaults scanner.Target) scanner.Target {
	t := scanner.Target{URL: j.Target, MaxPages: j.MaxPages, Timeout: defaults.Timeout}
	if t.MaxPages <= 0 {
		t.MaxPages = defaults.MaxPages
	}
	if j.Timeout > 0 {
		t.Timeout = time.Duration(j.Timeout * float64(time.Second))
	}
	return t
}
