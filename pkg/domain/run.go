package domain

import (
	"sort"
	"time"
)

// Status is the lifecycle position of a walk.
type Status string

const (
	StatusReady     Status = "ready"
	StatusRunning   Status = "running"
	StatusHalted    Status = "halted"    // a halt rule matched
	StatusExhausted Status = "exhausted" // frontier emptied
)

// Terminal reports whether no further steps are possible.
func (s Status) Terminal() bool {
	return s == StatusHalted || s == StatusExhausted
}

// Run is the persisted outcome of one walk.
type Run struct {
	ID         string      `json:"id"`
	Plan       string      `json:"plan,omitempty"`
	Status     Status      `json:"status"`
	HaltedAt   *NodeHandle `json:"halted_at,omitempty"`
	Log        *Log        `json:"log"`
	StartedAt  time.Time   `json:"started_at"`
	FinishedAt time.Time   `json:"finished_at"`
}

// RunSummary is the listing view of a run, without snapshot payloads.
type RunSummary struct {
	ID         string    `json:"id"`
	Plan       string    `json:"plan,omitempty"`
	Status     Status    `json:"status"`
	Snapshots  int       `json:"snapshots"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
}

// Summary returns the listing view of r.
func (r *Run) Summary() RunSummary {
	return RunSummary{
		ID:         r.ID,
		Plan:       r.Plan,
		Status:     r.Status,
		Snapshots:  r.Log.Len(),
		StartedAt:  r.StartedAt,
		FinishedAt: r.FinishedAt,
	}
}

// Final decodes the last snapshot, which reflects the graph when the walk ended.
func (r *Run) Final() (*Graph, error) {
	last, ok := r.Log.Last()
	if !ok {
		return nil, nil
	}
	return last.Graph()
}

// SortRunSummaries orders runs by start time, then ID.
func SortRunSummaries(runs []RunSummary) {
	sort.Slice(runs, func(i, j int) bool {
		if !runs[i].StartedAt.Equal(runs[j].StartedAt) {
			return runs[i].StartedAt.Before(runs[j].StartedAt)
		}
		return runs[i].ID < runs[j].ID
	})
}
