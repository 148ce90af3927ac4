package adapter

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var (
	// ErrNoAdapter is returned when no enabled adapter matches a
	// (state, filing type) pair. Callers must treat this as "cannot queue a
	// run", not as a system fault.
	ErrNoAdapter = errors.New("adapter: no enabled adapter")
	// ErrNotFound is returned when the adapter id does not exist.
	ErrNotFound = errors.New("adapter: not found")
	// ErrMissingFields signals a create call without the required fields.
	ErrMissingFields = errors.New("adapter: state code, filing type and name are required")
)

// Repository is the adapter registry. Resolution is a pure query with
// explicit ordering; nothing is cached.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository wires a pgxpool-backed adapter registry.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const adapterColumns = `id, state_code, filing_type::text, name, version, enabled, created_at`

func scanAdapter(row pgx.Row) (Adapter, error) {
	var a Adapter
	err := row.Scan(&a.ID, &a.StateCode, &a.FilingType, &a.Name, &a.Version, &a.Enabled, &a.CreatedAt)
	return a, err
}

// Resolve returns the authoritative adapter for the pair: enabled exact
// matches ordered by creation time descending, first row wins. Most recently
// created enabled adapter is the tie-break when operators leave duplicates.
func (r *Repository) Resolve(ctx context.Context, stateCode, filingType string) (Adapter, error) {
	const query = `
		SELECT ` + adapterColumns + `
		FROM state_adapters
		WHERE state_code = $1 AND filing_type = $2::filing_type AND enabled = true
		ORDER BY created_at DESC
		LIMIT 1
	`
	a, err := scanAdapter(r.pool.QueryRow(ctx, query, strings.ToUpper(stateCode), filingType))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Adapter{}, ErrNoAdapter
		}
		return Adapter{}, fmt.Errorf("adapter: resolve: %w", err)
	}
	return a, nil
}

// CreateParams enumerates the operator-supplied fields for a new adapter.
type CreateParams struct {
	StateCode  string
	FilingType string
	Name       string
	Version    *string
}

// Create inserts a new adapter, enabled by default.
func (r *Repository) Create(ctx context.Context, params CreateParams) (Adapter, error) {
	if strings.TrimSpace(params.StateCode) == "" ||
		strings.TrimSpace(params.FilingType) == "" ||
		strings.TrimSpace(params.Name) == "" {
		return Adapter{}, ErrMissingFields
	}

	const insertSQL = `
		INSERT INTO state_adapters (state_code, filing_type, name, version, enabled)
		VALUES ($1, $2::filing_type, $3, $4, true)
		RETURNING ` + adapterColumns + `
	`
	a, err := scanAdapter(r.pool.QueryRow(ctx, insertSQL,
		strings.ToUpper(params.StateCode),
		params.FilingType,
		params.Name,
		params.Version,
	))
	if err != nil {
		return Adapter{}, fmt.Errorf("adapter: create: %w", err)
	}
	return a, nil
}

// Toggle flips the enabled flag. A plain boolean flip: in-flight runs keep
// the adapter they resolved.
func (r *Repository) Toggle(ctx context.Context, id string, enabled bool) (Adapter, error) {
	const updateSQL = `
		UPDATE state_adapters
		SET enabled = $1
		WHERE id = $2
		RETURNING ` + adapterColumns + `
	`
	a, err := scanAdapter(r.pool.QueryRow(ctx, updateSQL, enabled, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Adapter{}, ErrNotFound
		}
		return Adapter{}, fmt.Errorf("adapter: toggle: %w", err)
	}
	return a, nil
}

// List returns every adapter, newest first, for operator screens.
func (r *Repository) List(ctx context.Context) ([]Adapter, error) {
	const query = `
		SELECT ` + adapterColumns + `
		FROM state_adapters
		ORDER BY created_at DESC
	`
	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("adapter: list: %w", err)
	}
	defer rows.Close()

	out := make([]Adapter, 0, 8)
	for rows.Next() {
		a, err := scanAdapter(rows)
		if err != nil {
			return nil, fmt.Errorf("adapter: scan: %w", err)
		}
		out = append(out, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("adapter: iterate: %w", err)
	}
	return out, nil
}
