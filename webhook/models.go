package webhook

import "time"

// Direction of a logged webhook relative to this system.
const (
	DirectionIn  = "in"
	DirectionOut = "out"
)

// Webhook is one append-only audit row for an externally triggered
// automation event.
type Webhook struct {
	ID        string
	Direction string
	Event     string
	Status    int
	Payload   []byte
	CreatedAt time.Time
}

// Automation event vocabulary. Events outside this set are logged and
// appended to the task ledger but never change the filing stage.
const (
	EventSubmitted = "SUBMITTED"
	EventApproved  = "APPROVED"
	EventRejected  = "REJECTED"
	EventFailed    = "FAILED"
)
