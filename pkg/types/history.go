// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// SourceOutcome is how one source fared during a run. It never carries
// artifact content.
type SourceOutcome struct {
	Source   string        `json:"source" yaml:"source"`
	Items    int           `json:"items" yaml:"items"`
	Duration time.Duration `json:"duration" yaml:"duration"`

	// Error is the failure text when the source failed unexpectedly.
	Error string `json:"error,omitempty" yaml:"error,omitempty"`
}

// Failed reports whether the source failed and was replaced by an empty list.
func (o SourceOutcome) Failed() bool { return o.Error != "" }

// RunRecord describes one aggregation run.
type RunRecord struct {
	ID        string          `json:"id" yaml:"id"`
	StartedAt time.Time       `json:"started_at" yaml:"started_at"`
	StartDate string          `json:"start_date" yaml:"start_date"`
	EndDate   string          `json:"end_date" yaml:"end_date"`
	Sources   []string        `json:"sources" yaml:"sources"`
	Outcomes  []SourceOutcome `json:"outcomes" yaml:"outcomes"`
}

// Failures counts the outcomes that failed.
func (r RunRecord) Failures() int {
	n := 0
	for _, o := range r.Outcomes {
		if o.Failed() {
			n++
		}
	}
	return n
}
