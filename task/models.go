package task

import "time"

// Status mirrors the filing_tasks.status enum.
type Status string

const (
	StatusTodo       Status = "todo"
	StatusInProgress Status = "in_progress"
	StatusBlocked    Status = "blocked"
	StatusDone       Status = "done"
	StatusError      Status = "error"
)

// Task is one checklist sub-step of a filing. Rows are append-only: repeated
// automation events for the same logical step insert new rows rather than
// mutating, so every attempt stays individually auditable. Seq is a
// per-filing monotonic sequence assigned at insert.
type Task struct {
	ID        string
	FilingID  string
	Seq       int
	Code      string
	Label     string
	Status    Status
	Payload   []byte
	Result    []byte
	CreatedAt time.Time
	UpdatedAt time.Time
}

// ChecklistItem is one entry of the fixed intake checklist.
type ChecklistItem struct {
	Code  string
	Label string
}

// Checklist is the ordered set of sub-steps seeded for every new filing.
func Checklist() []ChecklistItem {
	return []ChecklistItem{
		{Code: "NAME_CHECK", Label: "Check name availability"},
		{Code: "STATE_PORTAL_CREATE", Label: "Create state portal account"},
		{Code: "PAY_STATE_FEES", Label: "Pay government fees"},
		{Code: "DOWNLOAD_RECEIPT", Label: "Download receipt"},
		{Code: "UPLOAD_ARTICLES", Label: "Upload Articles of Organization"},
	}
}
