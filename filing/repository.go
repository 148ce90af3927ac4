package filing

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var (
	// ErrNotFound is returned when no filing row exists for the identifier.
	ErrNotFound = errors.New("filing: not found")
	// ErrInvalidStage signals a stage value outside the enum.
	ErrInvalidStage = errors.New("filing: invalid stage")
	// ErrIllegalTransition signals a stage edge the state machine does not allow.
	ErrIllegalTransition = errors.New("filing: illegal stage transition")
	// ErrStageRegression signals an attempt to move backwards along the forward path.
	ErrStageRegression = errors.New("filing: stage regression")
	// ErrPaymentRequired signals an advance past 'ready' without a captured payment.
	ErrPaymentRequired = errors.New("filing: payment required before stage may advance")
	// ErrValidation signals a malformed intake or operator request.
	ErrValidation = errors.New("filing: invalid request")
)

// Repository provides row access for businesses and filings.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository wires a pgxpool-backed filing repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const filingColumns = `
	id, business_id, state_code, filing_type::text, stage::text,
	quoted_total_cents, paid_total_cents, external_ref,
	ein_service, ein_status::text, mail_forwarding, mail_forwarding_status::text,
	use_hosted_agent, registered_agent_address, created_at
`

func scanFiling(row pgx.Row) (Filing, error) {
	var f Filing
	err := row.Scan(
		&f.ID,
		&f.BusinessID,
		&f.StateCode,
		&f.FilingType,
		&f.Stage,
		&f.QuotedTotalCents,
		&f.PaidTotalCents,
		&f.ExternalRef,
		&f.EINService,
		&f.EINStatus,
		&f.MailForwarding,
		&f.MailForwardingStatus,
		&f.UseHostedAgent,
		&f.RegisteredAgentAddr,
		&f.CreatedAt,
	)
	return f, err
}

// GetByID fetches a filing by its primary key.
func (r *Repository) GetByID(ctx context.Context, id string) (Filing, error) {
	query := `SELECT ` + filingColumns + ` FROM filings WHERE id = $1`
	f, err := scanFiling(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Filing{}, ErrNotFound
		}
		return Filing{}, fmt.Errorf("filing: query by id: %w", err)
	}
	return f, nil
}

// GetOwnedByID fetches a filing only if the business it belongs to is owned
// by ownerID. Missing and foreign rows are indistinguishable by design.
func (r *Repository) GetOwnedByID(ctx context.Context, id, ownerID string) (Filing, error) {
	query := `
		SELECT ` + filingColumns + `
		FROM filings f
		WHERE f.id = $1
		  AND EXISTS (SELECT 1 FROM businesses b WHERE b.id = f.business_id AND b.owner_id = $2)
	`
	f, err := scanFiling(r.pool.QueryRow(ctx, query, id, ownerID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Filing{}, ErrNotFound
		}
		return Filing{}, fmt.Errorf("filing: query owned by id: %w", err)
	}
	return f, nil
}

// ListForOwner returns the filings belonging to ownerID, newest first.
func (r *Repository) ListForOwner(ctx context.Context, ownerID string, limit int) ([]Filing, error) {
	if limit <= 0 || limit > 100 {
		limit = 100
	}
	query := `
		SELECT ` + filingColumns + `
		FROM filings f
		JOIN businesses b ON b.id = f.business_id
		WHERE b.owner_id = $1
		ORDER BY f.created_at DESC
		LIMIT $2
	`
	return r.listFilings(ctx, query, ownerID, limit)
}

// ListAll returns filings across owners for operator views, newest first.
func (r *Repository) ListAll(ctx context.Context, limit int) ([]Filing, error) {
	if limit <= 0 || limit > 200 {
		limit = 200
	}
	query := `SELECT ` + filingColumns + ` FROM filings f ORDER BY f.created_at DESC LIMIT $1`
	return r.listFilings(ctx, query, limit)
}

func (r *Repository) listFilings(ctx context.Context, query string, args ...any) ([]Filing, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("filing: list: %w", err)
	}
	defer rows.Close()

	out := make([]Filing, 0, 16)
	for rows.Next() {
		f, err := scanFiling(rows)
		if err != nil {
			return nil, fmt.Errorf("filing: scan: %w", err)
		}
		out = append(out, f)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("filing: iterate: %w", err)
	}
	return out, nil
}

// AdvanceStageTx applies next to the filing's stage inside the caller's
// transaction. The row is locked first so concurrent webhook deliveries
// serialize; the transition table plus the forward-ordinal guard make the
// operation idempotent for terminal replays and reject regressions outright.
// Returns the previous stage and whether the row actually changed.
func (r *Repository) AdvanceStageTx(ctx context.Context, tx pgx.Tx, filingID string, next Stage) (Stage, bool, error) {
	var (
		current Stage
		paid    int64
	)
	if err := tx.QueryRow(ctx,
		`SELECT stage::text, paid_total_cents FROM filings WHERE id = $1 FOR UPDATE`,
		filingID,
	).Scan(&current, &paid); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", false, ErrNotFound
		}
		return "", false, fmt.Errorf("filing: lock for stage update: %w", err)
	}

	if current == next {
		return current, false, nil
	}
	if err := CheckTransition(current, next); err != nil {
		return current, false, err
	}
	if ord := next.Ordinal(); ord >= stageOrdinals[StageQueued] && paid <= 0 {
		return current, false, ErrPaymentRequired
	}

	if _, err := tx.Exec(ctx,
		`UPDATE filings SET stage = $1::filing_stage WHERE id = $2`,
		next, filingID,
	); err != nil {
		return current, false, fmt.Errorf("filing: update stage: %w", err)
	}
	return current, true, nil
}

// LockStageTx takes the filing's row lock for the caller's transaction and
// returns the stage as of the lock. Callers that append ledger rows must lock
// first so the per-filing seq is computed under mutual exclusion.
func (r *Repository) LockStageTx(ctx context.Context, tx pgx.Tx, filingID string) (Stage, error) {
	var current Stage
	if err := tx.QueryRow(ctx,
		`SELECT stage::text FROM filings WHERE id = $1 FOR UPDATE`,
		filingID,
	).Scan(&current); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", ErrNotFound
		}
		return "", fmt.Errorf("filing: lock row: %w", err)
	}
	return current, nil
}

// SetPaidTotalTx records the captured amount on the filing row.
func (r *Repository) SetPaidTotalTx(ctx context.Context, tx pgx.Tx, filingID string, amountCents int64) error {
	tag, err := tx.Exec(ctx,
		`UPDATE filings SET paid_total_cents = $1 WHERE id = $2`,
		amountCents, filingID,
	)
	if err != nil {
		return fmt.Errorf("filing: set paid total: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
