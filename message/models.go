package message

import "time"

// Message is a human-readable note attached to a filing, or to the general
// support inbox when FilingID is nil. Append-only.
type Message struct {
	ID        string
	FilingID  *string
	FromRole  string
	Body      string
	CreatedAt time.Time
}
