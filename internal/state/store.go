// Package state keeps the ledger of database load runs in a SQLite file.
package state

import "time"

// RunStatus represents the status of a load run.
type RunStatus string

// Run status constants.
const (
	RunStatusRunning   RunStatus = "running"
	RunStatusCompleted RunStatus = "completed"
	RunStatusFailed    RunStatus = "failed"
)

// Run is one execution of the load command.
type Run struct {
	ID          string       `json:"id" yaml:"id"`
	Target      string       `json:"target" yaml:"target"`
	Status      RunStatus    `json:"status" yaml:"status"`
	StartedAt   time.Time    `json:"started_at" yaml:"started_at"`
	CompletedAt *time.Time   `json:"completed_at,omitempty" yaml:"completed_at,omitempty"`
	Error       string       `json:"error,omitempty" yaml:"error,omitempty"`
	Tables      []TableCount `json:"tables,omitempty" yaml:"tables,omitempty"`
	Outcome     `yaml:",inline"`
}

// TableCount is the number of rows a run inserted into one table.
type TableCount struct {
	Table string `json:"table" yaml:"table"`
	Rows  int64  `json:"rows" yaml:"rows"`
}

// Outcome holds the data-quality counters of a finished run.
type Outcome struct {
	CastFallbacks    int `json:"cast_fallbacks" yaml:"cast_fallbacks"`
	UnknownPenalties int `json:"unknown_penalties" yaml:"unknown_penalties"`
}

// Duration returns how long the run took, or 0 while it is running.
func (r *Run) Duration() time.Duration {
	if r.CompletedAt == nil {
		return 0
	}
	return r.CompletedAt.Sub(r.StartedAt)
}
