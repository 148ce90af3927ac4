package adapter

import "time"

// Adapter is a configured automation integration for one
// (state, filing type) pair. Rows are created and toggled by operators and
// never mutated by the pipeline itself.
type Adapter struct {
	ID         string
	StateCode  string
	FilingType string
	Name       string
	Version    *string
	Enabled    bool
	CreatedAt  time.Time
}
