package filing

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
)

// TxBeginner abstracts pgxpool.Pool for testability.
type TxBeginner interface {
	Begin(ctx context.Context) (pgx.Tx, error)
}

// Store defines the row access the service needs.
type Store interface {
	CreateBusinessTx(ctx context.Context, tx pgx.Tx, params CreateBusinessParams) (Business, error)
	CreateFilingTx(ctx context.Context, tx pgx.Tx, params CreateFilingParams) (Filing, error)
	AdvanceStageTx(ctx context.Context, tx pgx.Tx, filingID string, next Stage) (Stage, bool, error)
	SetPaidTotalTx(ctx context.Context, tx pgx.Tx, filingID string, amountCents int64) error
	GetByID(ctx context.Context, id string) (Filing, error)
}

// TaskSeeder seeds the intake checklist alongside filing creation.
type TaskSeeder interface {
	SeedChecklistTx(ctx context.Context, tx pgx.Tx, filingID string) error
}

// NoteWriter is the narrow slice of the message repository the service uses.
type NoteWriter interface {
	AppendNoteTx(ctx context.Context, tx pgx.Tx, filingID string, fromRole, body string) error
}

// Service owns intake submission and operator stage actions.
type Service struct {
	pool  TxBeginner
	store Store
	tasks TaskSeeder
	notes NoteWriter
}

// NewService builds a Service. store and tasks must be non-nil; notes may be
// nil when no message trail is wanted (tests).
func NewService(pool TxBeginner, store Store, tasks TaskSeeder, notes NoteWriter) *Service {
	return &Service{pool: pool, store: store, tasks: tasks, notes: notes}
}

// SubmitIntakeParams carries the intake wizard's final payload.
type SubmitIntakeParams struct {
	OwnerID          string
	LegalName        string
	DBA              *string
	StateCode        string
	EntityType       EntityType
	FilingType       FilingType
	QuotedTotalCents int64
	ExternalRef      map[string]any
	EINService       bool
	MailForwarding   bool
	UseHostedAgent   bool
	AgentAddress     string
}

// SubmitIntake creates the business, the filing in stage 'intake', and the
// fixed task checklist in a single transaction.
func (s *Service) SubmitIntake(ctx context.Context, params SubmitIntakeParams) (Filing, error) {
	if params.OwnerID == "" {
		return Filing{}, fmt.Errorf("%w: missing owner id", ErrValidation)
	}
	if strings.TrimSpace(params.LegalName) == "" {
		return Filing{}, fmt.Errorf("%w: legal name required", ErrValidation)
	}
	if len(params.StateCode) != 2 {
		return Filing{}, fmt.Errorf("%w: two-letter state code required", ErrValidation)
	}
	if params.EntityType == "" {
		params.EntityType = EntityLLC
	}
	if params.FilingType == "" {
		params.FilingType = TypeLLCFormation
	}
	if !IsValidFilingType(params.FilingType) {
		return Filing{}, fmt.Errorf("%w: invalid filing type %q", ErrValidation, params.FilingType)
	}
	if params.QuotedTotalCents < 0 {
		return Filing{}, fmt.Errorf("%w: invalid quoted total", ErrValidation)
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return Filing{}, fmt.Errorf("filing: begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	stateCode := strings.ToUpper(params.StateCode)
	biz, err := s.store.CreateBusinessTx(ctx, tx, CreateBusinessParams{
		OwnerID:        params.OwnerID,
		LegalName:      params.LegalName,
		DBA:            params.DBA,
		FormationState: stateCode,
		EntityType:     params.EntityType,
	})
	if err != nil {
		return Filing{}, err
	}

	f, err := s.store.CreateFilingTx(ctx, tx, CreateFilingParams{
		BusinessID:       biz.ID,
		StateCode:        stateCode,
		FilingType:       params.FilingType,
		QuotedTotalCents: params.QuotedTotalCents,
		ExternalRef:      params.ExternalRef,
		EINService:       params.EINService,
		MailForwarding:   params.MailForwarding,
		UseHostedAgent:   params.UseHostedAgent,
		AgentAddress:     params.AgentAddress,
	})
	if err != nil {
		return Filing{}, err
	}

	if err := s.tasks.SeedChecklistTx(ctx, tx, f.ID); err != nil {
		return Filing{}, err
	}

	if err := tx.Commit(ctx); err != nil {
		return Filing{}, fmt.Errorf("filing: commit intake: %w", err)
	}
	return f, nil
}

// MarkPaid records the quoted amount as paid on the filing and leaves a note.
// Operator action; does not touch the stage.
func (s *Service) MarkPaid(ctx context.Context, filingID string) (int64, error) {
	f, err := s.store.GetByID(ctx, filingID)
	if err != nil {
		return 0, err
	}
	amount := f.QuotedTotalCents

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("filing: begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	if err := s.store.SetPaidTotalTx(ctx, tx, filingID, amount); err != nil {
		return 0, err
	}
	if s.notes != nil {
		body := fmt.Sprintf("Payment recorded: $%.2f", float64(amount)/100)
		if err := s.notes.AppendNoteTx(ctx, tx, filingID, "ops", body); err != nil {
			return 0, err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("filing: commit mark paid: %w", err)
	}
	return amount, nil
}

// Advance applies a stage transition through the guarded path in its own
// transaction. Returns the previous stage and whether the row changed.
func (s *Service) Advance(ctx context.Context, filingID string, next Stage) (Stage, bool, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return "", false, fmt.Errorf("filing: begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	prev, changed, err := s.store.AdvanceStageTx(ctx, tx, filingID, next)
	if err != nil {
		return prev, false, err
	}
	if err := tx.Commit(ctx); err != nil {
		return prev, false, fmt.Errorf("filing: commit stage advance: %w", err)
	}
	return prev, changed, nil
}

// Requeue is the operator path out of an error stage back to 'queued'.
func (s *Service) Requeue(ctx context.Context, filingID string) error {
	f, err := s.store.GetByID(ctx, filingID)
	if err != nil {
		return err
	}
	if !f.Stage.IsError() {
		return fmt.Errorf("%w: requeue from %s", ErrIllegalTransition, f.Stage)
	}
	_, _, err = s.Advance(ctx, filingID, StageQueued)
	return err
}
