package run

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var (
	// ErrRunNotFound is returned when the run id does not exist.
	ErrRunNotFound = errors.New("run: not found")
	// ErrRunFinished is returned when a terminal run is resolved again.
	ErrRunFinished = errors.New("run: already finished")
)

// Repository provides row access to filing runs.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository wires a pgxpool-backed run repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const runColumns = `id, filing_id, adapter_id, status::text, log, started_at, finished_at`

func scanRun(row pgx.Row) (Run, error) {
	var (
		r        Run
		logBytes []byte
	)
	if err := row.Scan(&r.ID, &r.FilingID, &r.AdapterID, &r.Status, &logBytes, &r.StartedAt, &r.FinishedAt); err != nil {
		return Run{}, err
	}
	if len(logBytes) > 0 {
		if err := json.Unmarshal(logBytes, &r.Log); err != nil {
			return Run{}, fmt.Errorf("run: decode log: %w", err)
		}
	}
	return r, nil
}

// InsertTx creates a queued run with an initial log entry inside the
// caller's transaction.
func (repo *Repository) InsertTx(ctx context.Context, tx pgx.Tx, filingID, adapterID, initialLog string) (Run, error) {
	entry, err := json.Marshal([]LogEntry{{At: time.Now().UTC(), Msg: initialLog}})
	if err != nil {
		return Run{}, fmt.Errorf("run: marshal log: %w", err)
	}

	const insertSQL = `
		INSERT INTO filing_runs (filing_id, adapter_id, status, log)
		VALUES ($1, $2, 'queued', $3)
		RETURNING ` + runColumns + `
	`
	r, err := scanRun(tx.QueryRow(ctx, insertSQL, filingID, adapterID, entry))
	if err != nil {
		return Run{}, fmt.Errorf("run: insert: %w", err)
	}
	return r, nil
}

// GetByID fetches a run by its primary key.
func (repo *Repository) GetByID(ctx context.Context, id string) (Run, error) {
	query := `SELECT ` + runColumns + ` FROM filing_runs WHERE id = $1`
	r, err := scanRun(repo.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Run{}, ErrRunNotFound
		}
		return Run{}, fmt.Errorf("run: query by id: %w", err)
	}
	return r, nil
}

// FinishTx resolves a queued run to a terminal status, stamps finished_at,
// and appends a closing log entry, all inside the caller's transaction. A run
// that is already terminal is left untouched and reported as ErrRunFinished;
// a resolution is written exactly once.
func (repo *Repository) FinishTx(ctx context.Context, tx pgx.Tx, runID string, status Status, logMsg string) (Run, error) {
	entry, err := json.Marshal(LogEntry{At: time.Now().UTC(), Msg: logMsg})
	if err != nil {
		return Run{}, fmt.Errorf("run: marshal log: %w", err)
	}

	const updateSQL = `
		UPDATE filing_runs
		SET status = $1::run_status,
		    finished_at = now(),
		    log = log || $2::jsonb
		WHERE id = $3 AND status = 'queued'
		RETURNING ` + runColumns + `
	`
	r, err := scanRun(tx.QueryRow(ctx, updateSQL, status, entry, runID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			var exists bool
			if checkErr := tx.QueryRow(ctx,
				`SELECT EXISTS (SELECT 1 FROM filing_runs WHERE id = $1)`, runID,
			).Scan(&exists); checkErr != nil {
				return Run{}, fmt.Errorf("run: finish: %w", checkErr)
			}
			if exists {
				return Run{}, ErrRunFinished
			}
			return Run{}, ErrRunNotFound
		}
		return Run{}, fmt.Errorf("run: finish: %w", err)
	}
	return r, nil
}

// AppendLogTx adds a log entry to a run without changing its status.
func (repo *Repository) AppendLogTx(ctx context.Context, tx pgx.Tx, runID, logMsg string) error {
	entry, err := json.Marshal(LogEntry{At: time.Now().UTC(), Msg: logMsg})
	if err != nil {
		return fmt.Errorf("run: marshal log: %w", err)
	}
	tag, err := tx.Exec(ctx, `UPDATE filing_runs SET log = log || $1::jsonb WHERE id = $2`, entry, runID)
	if err != nil {
		return fmt.Errorf("run: append log: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrRunNotFound
	}
	return nil
}

// ListForFiling returns runs for one filing, newest first. The first element
// is the authoritative "current processing" run.
func (repo *Repository) ListForFiling(ctx context.Context, filingID string) ([]Run, error) {
	query := `SELECT ` + runColumns + ` FROM filing_runs WHERE filing_id = $1 ORDER BY started_at DESC`
	rows, err := repo.pool.Query(ctx, query, filingID)
	if err != nil {
		return nil, fmt.Errorf("run: list: %w", err)
	}
	defer rows.Close()

	out := make([]Run, 0, 4)
	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("run: scan: %w", err)
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("run: iterate: %w", err)
	}
	return out, nil
}
