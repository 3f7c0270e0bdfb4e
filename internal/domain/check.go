package domain

import (
	"fmt"
	"time"
)

// Trigger describes what started a check.
type Trigger string

const (
	TriggerStart    Trigger = "start"
	TriggerPeriodic Trigger = "periodic"
	TriggerManual   Trigger = "manual"
)

// Strategy names the data source used to detect divergence.
type Strategy string

const (
	StrategyLocalFetch Strategy = "local"
	StrategyRemoteAPI  Strategy = "remote-api"
)

// ValidateStrategy parses a strategy name.
func ValidateStrategy(s string) (Strategy, error) {
	switch Strategy(s) {
	case StrategyLocalFetch, StrategyRemoteAPI:
		return Strategy(s), nil
	case "":
		return StrategyLocalFetch, nil
	default:
		return "", fmt.Errorf("unknown strategy %q (expected %q or %q)", s, StrategyLocalFetch, StrategyRemoteAPI)
	}
}

// CheckReport records one divergence check and what was done with it.
type CheckReport struct {
	ID         string           `json:"id"`
	Trigger    Trigger          `json:"trigger"`
	Strategy   Strategy         `json:"strategy"`
	Branch     string           `json:"branch"`
	Result     DivergenceResult `json:"result"`
	Notified   bool             `json:"notified"`
	Suppressed bool             `json:"suppressed"`
	Discarded  bool             `json:"discarded"`
	StartedAt  time.Time        `json:"started_at"`
	FinishedAt time.Time        `json:"finished_at"`
}

// NewCheckReport starts a report for a check about to run.
func NewCheckReport(trigger Trigger, strategy Strategy) *CheckReport {
	return &CheckReport{
		ID:        NewCheckID(),
		Trigger:   trigger,
		Strategy:  strategy,
		StartedAt: time.Now(),
	}
}

// Finish stores the result and marks the report complete.
func (r *CheckReport) Finish(result DivergenceResult) {
	r.Result = result
	r.FinishedAt = time.Now()
}

// Duration returns how long the check took.
func (r *CheckReport) Duration() time.Duration {
	if r.FinishedAt.IsZero() {
		return 0
	}
	return r.FinishedAt.Sub(r.StartedAt)
}

// Entry flattens the report for the check history.
func (r *CheckReport) Entry() HistoryEntry {
	return HistoryEntry{
		ID:          r.ID,
		Trigger:     r.Trigger,
		Strategy:    r.Strategy,
		Branch:      r.Branch,
		Kind:        r.Result.Kind,
		NewestHash:  r.Result.NewestHash,
		CommitCount: len(r.Result.Commits),
		Reason:      r.Result.Reason,
		Notified:    r.Notified,
		Discarded:   r.Discarded,
		StartedAt:   r.StartedAt,
		FinishedAt:  r.FinishedAt,
	}
}

// HistoryEntry is a stored summary of a check.
type HistoryEntry struct {
	ID          string         `json:"id"`
	Trigger     Trigger        `json:"trigger"`
	Strategy    Strategy       `json:"strategy"`
	Branch      string         `json:"branch"`
	Kind        DivergenceKind `json:"kind"`
	NewestHash  string         `json:"newest_hash,omitempty"`
	CommitCount int            `json:"commit_count"`
	Reason      string         `json:"reason,omitempty"`
	Notified    bool           `json:"notified"`
	Discarded   bool           `json:"discarded,omitempty"`
	StartedAt   time.Time      `json:"started_at"`
	FinishedAt  time.Time      `json:"finished_at"`
}

// WatchStatus is a snapshot of the watcher.
type WatchStatus struct {
	Watching         bool          `json:"watching"`
	Interval         time.Duration `json:"interval"`
	Strategy         Strategy      `json:"strategy"`
	Repository       string        `json:"repository"`
	Remote           string        `json:"remote"`
	LastNotifiedHash string        `json:"last_notified_hash,omitempty"`
	LastReport       *CheckReport  `json:"last_report,omitempty"`
}
