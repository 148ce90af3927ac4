package run

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"fileflow/adapter"
	"fileflow/filing"
)

var (
	// ErrInvalidOutcome signals a simulate call with an outcome other than
	// succeeded or failed.
	ErrInvalidOutcome = errors.New("run: outcome must be succeeded or failed")
)

// TxBeginner abstracts pgxpool.Pool for testability.
type TxBeginner interface {
	Begin(ctx context.Context) (pgx.Tx, error)
}

// AdapterResolver answers which adapter is authoritative for a pair.
type AdapterResolver interface {
	Resolve(ctx context.Context, stateCode, filingType string) (adapter.Adapter, error)
}

// FilingStore is the slice of the filing repository the engine needs.
type FilingStore interface {
	GetByID(ctx context.Context, id string) (filing.Filing, error)
	AdvanceStageTx(ctx context.Context, tx pgx.Tx, filingID string, next filing.Stage) (filing.Stage, bool, error)
}

// RunStore is the run row access used by the engine.
type RunStore interface {
	InsertTx(ctx context.Context, tx pgx.Tx, filingID, adapterID, initialLog string) (Run, error)
	GetByID(ctx context.Context, id string) (Run, error)
	FinishTx(ctx context.Context, tx pgx.Tx, runID string, status Status, logMsg string) (Run, error)
	AppendLogTx(ctx context.Context, tx pgx.Tx, runID, logMsg string) error
}

// NoteWriter appends a customer-visible message in the same transaction.
type NoteWriter interface {
	AppendNoteTx(ctx context.Context, tx pgx.Tx, filingID string, fromRole, body string) error
}

// OutcomePolicy maps a run's terminal status to the filing stage it implies.
// It is injected rather than hard-coded so the coupling between run outcome
// and filing stage is explicit and swappable.
type OutcomePolicy map[Status]filing.Stage

// DefaultOutcomePolicy: a successful run means the filing reached the state
// portal; a failed run parks the filing in 'failed' for operator review.
func DefaultOutcomePolicy() OutcomePolicy {
	return OutcomePolicy{
		StatusSucceeded: filing.StageSubmitted,
		StatusFailed:    filing.StageFailed,
	}
}

// Service is the run engine. It creates runs against resolved adapters and
// resolves them from simulated or real outcomes. It never drives automation
// itself; execution is delegated to an external actor.
type Service struct {
	pool     TxBeginner
	runs     RunStore
	filings  FilingStore
	registry AdapterResolver
	notes    NoteWriter
	policy   OutcomePolicy
}

// NewService wires the run engine. policy may be nil to use the default.
func NewService(pool TxBeginner, runs RunStore, filings FilingStore, registry AdapterResolver, notes NoteWriter, policy OutcomePolicy) *Service {
	if policy == nil {
		policy = DefaultOutcomePolicy()
	}
	return &Service{
		pool:     pool,
		runs:     runs,
		filings:  filings,
		registry: registry,
		notes:    notes,
		policy:   policy,
	}
}

// Queue creates a run for the filing if an enabled adapter resolves for its
// (state, filing type) pair. Queuing alone does not advance the filing's
// stage; only a resolved outcome or an inbound automation event does.
func (s *Service) Queue(ctx context.Context, filingID string) (Run, error) {
	f, err := s.filings.GetByID(ctx, filingID)
	if err != nil {
		return Run{}, err
	}

	resolved, err := s.registry.Resolve(ctx, f.StateCode, string(f.FilingType))
	if err != nil {
		if errors.Is(err, adapter.ErrNoAdapter) {
			return Run{}, fmt.Errorf("run: queue filing %s: %w", filingID, adapter.ErrNoAdapter)
		}
		return Run{}, err
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return Run{}, fmt.Errorf("run: begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	r, err := s.runs.InsertTx(ctx, tx, f.ID, resolved.ID, "Queued by operator")
	if err != nil {
		return Run{}, err
	}

	if err := tx.Commit(ctx); err != nil {
		return Run{}, fmt.Errorf("run: commit queue: %w", err)
	}
	return r, nil
}

// Simulate resolves a run with an injected outcome: terminal status plus
// finished_at on the run, exactly one message on the parent filing, and the
// policy-mapped stage applied through the guarded transition path. A stage
// conflict (the filing has already moved past the implied stage) is recorded
// in the run log rather than failing the simulation, since the run's own
// resolution is still valid.
func (s *Service) Simulate(ctx context.Context, runID string, outcome Status) (Run, error) {
	if !outcome.IsTerminal() {
		return Run{}, fmt.Errorf("%w: %q", ErrInvalidOutcome, outcome)
	}

	existing, err := s.runs.GetByID(ctx, runID)
	if err != nil {
		return Run{}, err
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return Run{}, fmt.Errorf("run: begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	resolved, err := s.runs.FinishTx(ctx, tx, existing.ID, outcome, "Outcome injected via simulate")
	if err != nil {
		return Run{}, err
	}

	body := "Run completed successfully."
	if outcome == StatusFailed {
		body = "Run failed during automation."
	}
	if s.notes != nil {
		if err := s.notes.AppendNoteTx(ctx, tx, existing.FilingID, "ops", body); err != nil {
			return Run{}, err
		}
	}

	if next, ok := s.policy[outcome]; ok {
		_, _, err := s.filings.AdvanceStageTx(ctx, tx, existing.FilingID, next)
		switch {
		case err == nil:
		case errors.Is(err, filing.ErrStageRegression), errors.Is(err, filing.ErrIllegalTransition):
			logMsg := fmt.Sprintf("Stage left unchanged: %v", err)
			if lerr := s.runs.AppendLogTx(ctx, tx, existing.ID, logMsg); lerr != nil {
				return Run{}, lerr
			}
		default:
			return Run{}, err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return Run{}, fmt.Errorf("run: commit simulate: %w", err)
	}
	return resolved, nil
}

// Get returns a run by id.
func (s *Service) Get(ctx context.Context, runID string) (Run, error) {
	return s.runs.GetByID(ctx, runID)
}
