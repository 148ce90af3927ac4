package payment

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"fileflow/filing"
)

// ErrInvalidParams signals a malformed capture request.
var ErrInvalidParams = errors.New("payment: invalid request")

// TxBeginner abstracts pgxpool.Pool for testability.
type TxBeginner interface {
	Begin(ctx context.Context) (pgx.Tx, error)
}

// Store is the payment row access used by the service.
type Store interface {
	InsertTx(ctx context.Context, tx pgx.Tx, p Payment) (Payment, error)
	UnpaidFilings(ctx context.Context) ([]UnpaidFiling, error)
}

// FilingStore is the slice of the filing repository the service needs.
type FilingStore interface {
	GetByID(ctx context.Context, id string) (filing.Filing, error)
	SetPaidTotalTx(ctx context.Context, tx pgx.Tx, filingID string, amountCents int64) error
	AdvanceStageTx(ctx context.Context, tx pgx.Tx, filingID string, next filing.Stage) (filing.Stage, bool, error)
}

// NoteWriter appends a reconciliation note in the same transaction.
type NoteWriter interface {
	AppendNoteTx(ctx context.Context, tx pgx.Tx, filingID string, fromRole, body string) error
}

// Service records captured payments and runs the backfill reconciliation.
type Service struct {
	pool    TxBeginner
	store   Store
	filings FilingStore
	notes   NoteWriter
}

// NewService wires the payment service. notes may be nil.
func NewService(pool TxBeginner, store Store, filings FilingStore, notes NoteWriter) *Service {
	return &Service{pool: pool, store: store, filings: filings, notes: notes}
}

// RecordParams carries a checkout completion.
type RecordParams struct {
	FilingID    string
	AmountCents int64
	Provider    string
	ProviderRef string
	// AdvanceStage applies the payment-capture stage transition:
	// intake -> ready, or ready -> queued when the filing was already ready.
	AdvanceStage bool
}

// RecordResult reports what a capture did to the filing.
type RecordResult struct {
	Payment  Payment
	Stage    filing.Stage
	Mismatch bool
}

// Record inserts an immutable succeeded payment, stamps paid_total_cents,
// and optionally advances the stage. A capture covering the quote walks the
// whole payment edge (intake -> ready -> queued) in one transaction, so a
// single checkout leaves the filing ready for automation; a partial capture
// stops at ready for operator review. A capture amount that differs from the
// quoted total does not fail the call; it is flagged and a reconciliation
// note is appended so operators can follow up.
func (s *Service) Record(ctx context.Context, params RecordParams) (RecordResult, error) {
	if params.FilingID == "" {
		return RecordResult{}, fmt.Errorf("%w: missing filing id", ErrInvalidParams)
	}
	if params.AmountCents <= 0 {
		return RecordResult{}, fmt.Errorf("%w: amount must be positive", ErrInvalidParams)
	}
	if params.Provider == "" {
		return RecordResult{}, fmt.Errorf("%w: missing provider", ErrInvalidParams)
	}

	f, err := s.filings.GetByID(ctx, params.FilingID)
	if err != nil {
		return RecordResult{}, err
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return RecordResult{}, fmt.Errorf("payment: begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	p, err := s.store.InsertTx(ctx, tx, Payment{
		FilingID:    params.FilingID,
		Status:      StatusSucceeded,
		Provider:    params.Provider,
		ProviderRef: params.ProviderRef,
		AmountCents: params.AmountCents,
	})
	if err != nil {
		return RecordResult{}, err
	}

	if err := s.filings.SetPaidTotalTx(ctx, tx, params.FilingID, params.AmountCents); err != nil {
		return RecordResult{}, err
	}

	mismatch := f.QuotedTotalCents > 0 && params.AmountCents != f.QuotedTotalCents
	if mismatch && s.notes != nil {
		body := fmt.Sprintf("Payment reconciliation alert: captured %d cents, quoted %d cents.",
			params.AmountCents, f.QuotedTotalCents)
		if err := s.notes.AppendNoteTx(ctx, tx, params.FilingID, "system", body); err != nil {
			return RecordResult{}, err
		}
	}

	stage := f.Stage
	if params.AdvanceStage {
		covered := params.AmountCents >= f.QuotedTotalCents
		for _, next := range paymentPath(f.Stage, covered) {
			if _, _, err := s.filings.AdvanceStageTx(ctx, tx, params.FilingID, next); err != nil {
				return RecordResult{}, err
			}
			stage = next
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return RecordResult{}, fmt.Errorf("payment: commit record: %w", err)
	}
	return RecordResult{Payment: p, Stage: stage, Mismatch: mismatch}, nil
}

// paymentPath returns the stage edges a capture may take, in order. Filings
// at or past queued are untouched; the payment gate in the advance guard
// still protects the queued edge when paid lands at zero.
func paymentPath(from filing.Stage, covered bool) []filing.Stage {
	switch from {
	case filing.StageIntake:
		if covered {
			return []filing.Stage{filing.StageReady, filing.StageQueued}
		}
		return []filing.Stage{filing.StageReady}
	case filing.StageReady:
		return []filing.Stage{filing.StageQueued}
	}
	return nil
}

// BackfillResult reports the reconciliation job's outcome.
type BackfillResult struct {
	FilingsChecked  int
	PaymentsCreated int
}

// Backfill synthesizes a succeeded 'backfill' payment equal to the quoted
// amount for every filing that has a positive quote and no payment row.
// Idempotent: the unpaid prefetch excludes filings that already have a
// payment, so a second invocation inserts nothing.
func (s *Service) Backfill(ctx context.Context) (BackfillResult, error) {
	unpaid, err := s.store.UnpaidFilings(ctx)
	if err != nil {
		return BackfillResult{}, err
	}

	result := BackfillResult{FilingsChecked: len(unpaid)}
	if len(unpaid) == 0 {
		return result, nil
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return BackfillResult{}, fmt.Errorf("payment: begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	for _, u := range unpaid {
		if _, err := s.store.InsertTx(ctx, tx, Payment{
			FilingID:    u.FilingID,
			Status:      StatusSucceeded,
			Provider:    ProviderBackfill,
			ProviderRef: "admin-fix",
			AmountCents: u.QuotedTotalCents,
		}); err != nil {
			return BackfillResult{}, err
		}
		if err := s.filings.SetPaidTotalTx(ctx, tx, u.FilingID, u.QuotedTotalCents); err != nil {
			return BackfillResult{}, err
		}
		result.PaymentsCreated++
	}

	if err := tx.Commit(ctx); err != nil {
		return BackfillResult{}, fmt.Errorf("payment: commit backfill: %w", err)
	}
	return result, nil
}
