package run

import "time"

// Status is the lifecycle of a run. Runs start queued and are resolved to a
// terminal status by simulation or a real automation callback; they are never
// deleted.
type Status string

const (
	StatusQueued    Status = "queued"
	StatusSucceeded Status = "succeeded"
	StatusFailed    Status = "failed"
)

// IsTerminal reports whether s resolves the run.
func (s Status) IsTerminal() bool {
	return s == StatusSucceeded || s == StatusFailed
}

// LogEntry is one append-only line of a run's log.
type LogEntry struct {
	At  time.Time `json:"at"`
	Msg string    `json:"msg"`
}

// Run is one attempt to execute a filing against a resolved adapter. Only
// the most recent run for a filing is authoritative for "current processing"
// queries.
type Run struct {
	ID         string
	FilingID   string
	AdapterID  string
	Status     Status
	Log        []LogEntry
	StartedAt  time.Time
	FinishedAt *time.Time
}
