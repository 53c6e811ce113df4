package models

import (
	"time"
)

// RunOutcome describes how a single monitoring run ended
type RunOutcome string

const (
	OutcomeMatched    RunOutcome = "matched"
	OutcomeNoMatches  RunOutcome = "no_matches"
	OutcomeNoEntries  RunOutcome = "no_entries"
	OutcomeBlocked    RunOutcome = "blocked"
	OutcomeLoadFailed RunOutcome = "load_failed"
)

// RunReport summarizes one monitoring run
type RunReport struct {
	URL            string             `json:"url"`
	Selector       string             `json:"selector,omitempty"`
	EntriesFound   int                `json:"entries_found"`
	SkippedEntries int                `json:"skipped_entries"`
	Products       []ExtractedProduct `json:"products"`
	Matches        []Match            `json:"matches"`
	Outcome        RunOutcome         `json:"outcome"`
	Reason         string             `json:"reason,omitempty"`
	Notified       bool               `json:"notified"`
	NotifyError    string             `json:"notify_error,omitempty"`
	StartedAt      time.Time          `json:"started_at"`
	CompletedAt    *time.Time         `json:"completed_at,omitempty"`
}

// NewRunReport creates a report for a run against url
func NewRunReport(url string) *RunReport {
	return &RunReport{
		URL:       url,
		StartedAt: time.Now(),
	}
}

// Finish records the outcome and completion time
func (r *RunReport) Finish(outcome RunOutcome, reason string) {
	r.Outcome = outcome
	r.Reason = reason
	now := time.Now()
	r.CompletedAt = &now
}

// PricedCount returns how many extracted products carry a price
func (r *RunReport) PricedCount() int {
	count := 0
	for i := range r.Products {
		if r.Products[i].HasPrice() {
			count++
		}
	}
	return count
}

// Duration returns the run time, or zero if the run has not finished
func (r *RunReport) Duration() time.Duration {
	if r.CompletedAt == nil {
		return 0
	}
	return r.CompletedAt.Sub(r.StartedAt)
}
