package webhook

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Recorder writes the append-only webhook audit log. Logging is best-effort
// by design: a failure here must never block or fail the caller's primary
// operation, so errors are swallowed after a diagnostic line.
type Recorder struct {
	pool *pgxpool.Pool
}

// NewRecorder wires a pgxpool-backed webhook recorder.
func NewRecorder(pool *pgxpool.Pool) *Recorder {
	return &Recorder{pool: pool}
}

// Log appends one audit row. Never returns an error.
func (r *Recorder) Log(ctx context.Context, direction, event string, status int, payload map[string]any) {
	payloadBytes, err := json.Marshal(payload)
	if err != nil {
		log.Printf("webhook: drop audit row %s: marshal: %v", event, err)
		return
	}
	if _, err := r.pool.Exec(ctx,
		`INSERT INTO webhooks (direction, event, status, payload) VALUES ($1, $2, $3, $4)`,
		direction, event, status, payloadBytes,
	); err != nil {
		log.Printf("webhook: drop audit row %s: %v", event, err)
	}
}

// List returns recent audit rows, newest first, for the operator screen.
func (r *Recorder) List(ctx context.Context, limit int) ([]Webhook, error) {
	if limit <= 0 || limit > 200 {
		limit = 200
	}
	rows, err := r.pool.Query(ctx,
		`SELECT id, direction, event, status, payload, created_at FROM webhooks ORDER BY created_at DESC LIMIT $1`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("webhook: list: %w", err)
	}
	defer rows.Close()

	out := make([]Webhook, 0, limit)
	for rows.Next() {
		var w Webhook
		if err := rows.Scan(&w.ID, &w.Direction, &w.Event, &w.Status, &w.Payload, &w.CreatedAt); err != nil {
			return nil, fmt.Errorf("webhook: scan: %w", err)
		}
		out = append(out, w)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("webhook: iterate: %w", err)
	}
	return out, nil
}
