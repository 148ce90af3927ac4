package task

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository provides row access to the filing task ledger.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository wires a pgxpool-backed task repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// SeedChecklistTx inserts the fixed intake checklist for a freshly created
// filing inside the caller's transaction. Every item starts in 'todo'.
func (r *Repository) SeedChecklistTx(ctx context.Context, tx pgx.Tx, filingID string) error {
	const insertSQL = `
		INSERT INTO filing_tasks (filing_id, seq, code, label, status)
		VALUES ($1, next_task_seq($1), $2, $3, 'todo')
	`
	for _, item := range Checklist() {
		if _, err := tx.Exec(ctx, insertSQL, filingID, item.Code, item.Label); err != nil {
			return fmt.Errorf("task: seed %s: %w", item.Code, err)
		}
	}
	return nil
}

// AppendEventTx inserts a new 'done' task row recording an automation event.
// This is an append, never an update: replays and retries of the same logical
// step each get their own row with the raw payload preserved as result.
func (r *Repository) AppendEventTx(ctx context.Context, tx pgx.Tx, filingID, code, label string, result map[string]any) (Task, error) {
	resultBytes, err := json.Marshal(result)
	if err != nil {
		return Task{}, fmt.Errorf("task: marshal result: %w", err)
	}

	const insertSQL = `
		INSERT INTO filing_tasks (filing_id, seq, code, label, status, result)
		VALUES ($1, next_task_seq($1), $2, $3, 'done', $4)
		RETURNING id, filing_id, seq, code, label, status::text, payload, result, created_at, updated_at
	`
	var t Task
	if err := tx.QueryRow(ctx, insertSQL, filingID, code, label, resultBytes).Scan(
		&t.ID, &t.FilingID, &t.Seq, &t.Code, &t.Label, &t.Status, &t.Payload, &t.Result, &t.CreatedAt, &t.UpdatedAt,
	); err != nil {
		return Task{}, fmt.Errorf("task: append event: %w", err)
	}
	return t, nil
}

// ListForFiling returns the ledger for one filing in sequence order.
func (r *Repository) ListForFiling(ctx context.Context, filingID string) ([]Task, error) {
	const query = `
		SELECT id, filing_id, seq, code, label, status::text, payload, result, created_at, updated_at
		FROM filing_tasks
		WHERE filing_id = $1
		ORDER BY seq ASC
	`
	rows, err := r.pool.Query(ctx, query, filingID)
	if err != nil {
		return nil, fmt.Errorf("task: list: %w", err)
	}
	defer rows.Close()

	out := make([]Task, 0, 8)
	for rows.Next() {
		var t Task
		if err := rows.Scan(&t.ID, &t.FilingID, &t.Seq, &t.Code, &t.Label, &t.Status, &t.Payload, &t.Result, &t.CreatedAt, &t.UpdatedAt); err != nil {
			return nil, fmt.Errorf("task: scan: %w", err)
		}
		out = append(out, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("task: iterate: %w", err)
	}
	return out, nil
}

// CountForFiling returns the number of ledger rows for a filing.
func (r *Repository) CountForFiling(ctx context.Context, filingID string) (int, error) {
	var n int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM filing_tasks WHERE filing_id = $1`, filingID).Scan(&n); err != nil {
		return 0, fmt.Errorf("task: count: %w", err)
	}
	return n, nil
}
