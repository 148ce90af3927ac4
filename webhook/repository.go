package webhook

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// ErrDuplicateDelivery signals the delivery key was already processed; the
// caller treats the whole event as an idempotent replay.
var ErrDuplicateDelivery = errors.New("webhook: duplicate delivery")

// Repository reserves idempotency keys for inbound deliveries.
type Repository struct{}

// NewRepository builds the key store; all writes go through the caller's tx.
func NewRepository() *Repository {
	return &Repository{}
}

// InsertDeliveryKeyTx reserves the key inside the active transaction. A
// unique violation means the delivery was already applied.
func (r *Repository) InsertDeliveryKeyTx(ctx context.Context, tx pgx.Tx, key string) error {
	if key == "" {
		return fmt.Errorf("webhook: empty delivery key")
	}
	if _, err := tx.Exec(ctx, `INSERT INTO idempotency (key) VALUES ($1)`, key); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return ErrDuplicateDelivery
		}
		return fmt.Errorf("webhook: insert delivery key: %w", err)
	}
	return nil
}
