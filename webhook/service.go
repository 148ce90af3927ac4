package webhook

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"fileflow/filing"
	"fileflow/task"
)

// ErrMissingFields signals an ingest call without filing id or event name.
var ErrMissingFields = errors.New("webhook: filing id and event are required")

// eventStages is the fixed event -> stage mapping. Rejections and hard
// failures both park the filing in 'failed'; the distinction lives in the
// task ledger and the audit log.
var eventStages = map[string]filing.Stage{
	EventSubmitted: filing.StageSubmitted,
	EventApproved:  filing.StageApproved,
	EventRejected:  filing.StageFailed,
	EventFailed:    filing.StageFailed,
}

// TxBeginner abstracts pgxpool.Pool for testability.
type TxBeginner interface {
	Begin(ctx context.Context) (pgx.Tx, error)
}

// FilingStore is the slice of the filing repository ingest needs.
type FilingStore interface {
	GetByID(ctx context.Context, id string) (filing.Filing, error)
	LockStageTx(ctx context.Context, tx pgx.Tx, filingID string) (filing.Stage, error)
	AdvanceStageTx(ctx context.Context, tx pgx.Tx, filingID string, next filing.Stage) (filing.Stage, bool, error)
}

// TaskAppender appends automation events to the task ledger.
type TaskAppender interface {
	AppendEventTx(ctx context.Context, tx pgx.Tx, filingID, code, label string, result map[string]any) (task.Task, error)
}

// KeyStore reserves delivery idempotency keys.
type KeyStore interface {
	InsertDeliveryKeyTx(ctx context.Context, tx pgx.Tx, key string) error
}

// AuditLogger is the best-effort webhook recorder.
type AuditLogger interface {
	Log(ctx context.Context, direction, event string, status int, payload map[string]any)
}

// Service ingests automation events from the external RPA actor and drives
// the filing stage from them.
type Service struct {
	pool    TxBeginner
	filings FilingStore
	tasks   TaskAppender
	keys    KeyStore
	audit   AuditLogger
	now     func() time.Time
	keyGen  func() string
}

// NewService wires the ingest service. audit may be nil.
func NewService(pool TxBeginner, filings FilingStore, tasks TaskAppender, keys KeyStore, audit AuditLogger) *Service {
	return &Service{
		pool:    pool,
		filings: filings,
		tasks:   tasks,
		keys:    keys,
		audit:   audit,
		now:     time.Now,
		keyGen:  func() string { return uuid.NewString() },
	}
}

// WithClock overrides the timestamp source (tests).
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// AutomationEvent is one inbound RPA notification.
type AutomationEvent struct {
	FilingID string
	Event    string
	Payload  map[string]any
	// DeliveryID is the sender's delivery identifier. Replays of the same
	// DeliveryID are full no-ops. When absent a random key is generated and
	// replay protection degrades to the terminal-stage guard.
	DeliveryID string
}

// IngestResult reports what the event did to the filing.
type IngestResult struct {
	Stage    filing.Stage
	Changed  bool
	Replayed bool
}

// HandleAutomationEvent logs the delivery, appends a task ledger row carrying
// the raw payload, and applies the mapped stage if any. Replay protection is
// layered: a duplicate delivery key is a full no-op, and a terminal event
// arriving for a filing already in its mapped terminal stage is also a full
// no-op (stage and task count unchanged).
func (s *Service) HandleAutomationEvent(ctx context.Context, ev AutomationEvent) (IngestResult, error) {
	if ev.FilingID == "" || ev.Event == "" {
		return IngestResult{}, ErrMissingFields
	}

	auditPayload := map[string]any{"filing_id": ev.FilingID, "event": ev.Event}
	for k, v := range ev.Payload {
		auditPayload[k] = v
	}
	if s.audit != nil {
		s.audit.Log(ctx, DirectionIn, "RPA_"+ev.Event, 200, auditPayload)
	}

	f, err := s.filings.GetByID(ctx, ev.FilingID)
	if err != nil {
		return IngestResult{}, err
	}

	next, mapped := eventStages[ev.Event]
	if mapped && next.IsTerminal() && f.Stage == next {
		return IngestResult{Stage: f.Stage, Replayed: true}, nil
	}

	key := ev.DeliveryID
	if key == "" {
		key = s.keyGen()
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return IngestResult{}, fmt.Errorf("webhook: begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	if err := s.keys.InsertDeliveryKeyTx(ctx, tx, key); err != nil {
		if errors.Is(err, ErrDuplicateDelivery) {
			return IngestResult{Stage: f.Stage, Replayed: true}, nil
		}
		return IngestResult{}, err
	}

	// The row lock serializes concurrent deliveries for the same filing so
	// the ledger seq computed by the task append cannot collide. It also
	// re-reads the stage, closing the window between the prefetch above and
	// this transaction.
	locked, err := s.filings.LockStageTx(ctx, tx, ev.FilingID)
	if err != nil {
		return IngestResult{}, err
	}
	f.Stage = locked
	if mapped && next.IsTerminal() && locked == next {
		return IngestResult{Stage: locked, Replayed: true}, nil
	}

	result := map[string]any{"event": ev.Event, "timestamp": s.now().UTC().Format(time.RFC3339)}
	for k, v := range ev.Payload {
		result[k] = v
	}
	code := "RPA_" + ev.Event
	label := "RPA Event: " + ev.Event
	if _, err := s.tasks.AppendEventTx(ctx, tx, ev.FilingID, code, label, result); err != nil {
		return IngestResult{}, err
	}

	out := IngestResult{Stage: f.Stage}
	if mapped {
		_, changed, err := s.filings.AdvanceStageTx(ctx, tx, ev.FilingID, next)
		if err != nil {
			return IngestResult{}, err
		}
		out.Changed = changed
		if changed {
			out.Stage = next
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return IngestResult{}, fmt.Errorf("webhook: commit ingest: %w", err)
	}
	return out, nil
}
