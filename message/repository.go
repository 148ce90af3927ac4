package message

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository provides append and read access to messages.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository wires a pgxpool-backed message repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const messageColumns = `id, filing_id, from_role, body, created_at`

// Append inserts a message outside any surrounding transaction.
func (r *Repository) Append(ctx context.Context, filingID *string, fromRole, body string) (Message, error) {
	return r.append(ctx, r.pool, filingID, fromRole, body)
}

// AppendTx inserts a message inside the caller's transaction so it commits
// or rolls back together with the triggering stage change.
func (r *Repository) AppendTx(ctx context.Context, tx pgx.Tx, filingID *string, fromRole, body string) (Message, error) {
	return r.append(ctx, tx, filingID, fromRole, body)
}

type execQuerier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

func (r *Repository) append(ctx context.Context, q execQuerier, filingID *string, fromRole, body string) (Message, error) {
	if body == "" {
		return Message{}, fmt.Errorf("message: empty body")
	}
	if fromRole == "" {
		fromRole = "system"
	}

	const insertSQL = `
		INSERT INTO messages (filing_id, from_role, body)
		VALUES ($1, $2, $3)
		RETURNING ` + messageColumns + `
	`
	var m Message
	if err := q.QueryRow(ctx, insertSQL, filingID, fromRole, body).Scan(
		&m.ID, &m.FilingID, &m.FromRole, &m.Body, &m.CreatedAt,
	); err != nil {
		return Message{}, fmt.Errorf("message: append: %w", err)
	}
	return m, nil
}

// AppendNoteTx is a convenience wrapper for callers that only need to leave
// a note against a filing and do not care about the stored row.
func (r *Repository) AppendNoteTx(ctx context.Context, tx pgx.Tx, filingID string, fromRole, body string) error {
	_, err := r.append(ctx, tx, &filingID, fromRole, body)
	return err
}

// ListForFiling returns all messages for one filing, oldest first.
func (r *Repository) ListForFiling(ctx context.Context, filingID string) ([]Message, error) {
	const query = `
		SELECT ` + messageColumns + `
		FROM messages
		WHERE filing_id = $1
		ORDER BY created_at ASC
	`
	return r.list(ctx, query, filingID)
}

// ListInbox returns support-inbox messages (no filing attached), newest first.
func (r *Repository) ListInbox(ctx context.Context, limit int) ([]Message, error) {
	if limit <= 0 || limit > 100 {
		limit = 100
	}
	const query = `
		SELECT ` + messageColumns + `
		FROM messages
		WHERE filing_id IS NULL
		ORDER BY created_at DESC
		LIMIT $1
	`
	return r.list(ctx, query, limit)
}

func (r *Repository) list(ctx context.Context, query string, args ...any) ([]Message, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("message: list: %w", err)
	}
	defer rows.Close()

	out := make([]Message, 0, 8)
	for rows.Next() {
		var m Message
		if err := rows.Scan(&m.ID, &m.FilingID, &m.FromRole, &m.Body, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("message: scan: %w", err)
		}
		out = append(out, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("message: iterate: %w", err)
	}
	return out, nil
}
