package payment

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository provides row access to payments.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository wires a pgxpool-backed payment repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const paymentColumns = `id, filing_id, status, provider, provider_ref, amount_cents, created_at`

// InsertTx writes an immutable payment row inside the caller's transaction.
func (r *Repository) InsertTx(ctx context.Context, tx pgx.Tx, p Payment) (Payment, error) {
	const insertSQL = `
		INSERT INTO payments (filing_id, status, provider, provider_ref, amount_cents)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING ` + paymentColumns + `
	`
	var out Payment
	if err := tx.QueryRow(ctx, insertSQL,
		p.FilingID, p.Status, p.Provider, p.ProviderRef, p.AmountCents,
	).Scan(&out.ID, &out.FilingID, &out.Status, &out.Provider, &out.ProviderRef, &out.AmountCents, &out.CreatedAt); err != nil {
		return Payment{}, fmt.Errorf("payment: insert: %w", err)
	}
	return out, nil
}

// ListForFiling returns payments for one filing, oldest first.
func (r *Repository) ListForFiling(ctx context.Context, filingID string) ([]Payment, error) {
	const query = `
		SELECT ` + paymentColumns + `
		FROM payments
		WHERE filing_id = $1
		ORDER BY created_at ASC
	`
	rows, err := r.pool.Query(ctx, query, filingID)
	if err != nil {
		return nil, fmt.Errorf("payment: list: %w", err)
	}
	defer rows.Close()

	out := make([]Payment, 0, 2)
	for rows.Next() {
		var p Payment
		if err := rows.Scan(&p.ID, &p.FilingID, &p.Status, &p.Provider, &p.ProviderRef, &p.AmountCents, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("payment: scan: %w", err)
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("payment: iterate: %w", err)
	}
	return out, nil
}

// UnpaidFilings returns filings with a positive quoted amount and no payment
// row. This is the backfill prefetch; the NOT EXISTS membership check is what
// makes running the job twice a no-op.
func (r *Repository) UnpaidFilings(ctx context.Context) ([]UnpaidFiling, error) {
	const query = `
		SELECT f.id, f.quoted_total_cents
		FROM filings f
		WHERE f.quoted_total_cents > 0
		  AND NOT EXISTS (SELECT 1 FROM payments p WHERE p.filing_id = f.id)
		ORDER BY f.created_at ASC
	`
	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("payment: unpaid filings: %w", err)
	}
	defer rows.Close()

	out := make([]UnpaidFiling, 0, 8)
	for rows.Next() {
		var u UnpaidFiling
		if err := rows.Scan(&u.FilingID, &u.QuotedTotalCents); err != nil {
			return nil, fmt.Errorf("payment: scan unpaid: %w", err)
		}
		out = append(out, u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("payment: iterate unpaid: %w", err)
	}
	return out, nil
}

// CountForFiling returns the number of payment rows for a filing.
func (r *Repository) CountForFiling(ctx context.Context, filingID string) (int, error) {
	var n int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM payments WHERE filing_id = $1`, filingID).Scan(&n); err != nil {
		return 0, fmt.Errorf("payment: count: %w", err)
	}
	return n, nil
}
