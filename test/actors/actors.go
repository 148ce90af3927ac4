package actors

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"fileflow/filing"
)

// legalEdge guards every stage write the actors make, so fuzzed SQL can
// never take an edge the application itself would refuse.
func legalEdge(from, to string) bool {
	return from != to && filing.CanTransition(filing.Stage(from), filing.Stage(to))
}

// IntakeCreator keeps adding fresh intake filings for the seeded business.
func IntakeCreator(ctx context.Context, pool *pgxpool.Pool, businessID string, stop <-chan struct{}) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-stop:
			return nil
		default:
		}
		_, err := pool.Exec(ctx, `INSERT INTO filings (business_id, state_code, filing_type, stage, quoted_total_cents)
                                  VALUES ($1, 'WY', 'LLC_FORMATION', 'intake', $2)`,
			businessID, int64(19900+rand.Intn(300)*100))
		if err != nil {
			return fmt.Errorf("intake creator insert: %w", err)
		}
		time.Sleep(time.Duration(40+rand.Intn(60)) * time.Millisecond)
	}
}

// Payer simulates competing checkout completions against one filing: the
// first payer to take the row lock records the single full-quote payment and
// walks the payment edge (intake -> ready -> queued) in one transaction; the
// rest observe a paid filing and do nothing.
func Payer(ctx context.Context, pool *pgxpool.Pool, filingID string, stop <-chan struct{}) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-stop:
			return nil
		default:
		}
		tx, err := pool.Begin(ctx)
		if err != nil {
			return err
		}
		var stage string
		var quoted, paid int64
		err = tx.QueryRow(ctx, `SELECT stage, quoted_total_cents, paid_total_cents FROM filings WHERE id=$1 FOR UPDATE`, filingID).Scan(&stage, &quoted, &paid)
		if err == nil && stage == "intake" && paid == 0 {
			_, err = tx.Exec(ctx, `INSERT INTO payments (filing_id, provider, provider_ref, amount_cents)
                                   VALUES ($1, 'stripe', $2, $3)`,
				filingID, fmt.Sprintf("cs_%d", rand.Int63()), quoted)
			if err == nil {
				_, _ = tx.Exec(ctx, `UPDATE filings SET paid_total_cents = $2, stage = 'queued' WHERE id=$1`,
					filingID, quoted)
			}
		}
		if err != nil {
			_ = tx.Rollback(ctx)
			if !lockContention(err) {
				return fmt.Errorf("payer: %w", err)
			}
		} else {
			_ = tx.Commit(ctx)
		}
		time.Sleep(time.Duration(20+rand.Intn(40)) * time.Millisecond)
	}
}

// WebhookSender replays automation callbacks against one filing, reusing a
// fixed delivery id part of the time so the idempotency key gets hammered.
// Each applied delivery appends exactly one ledger task and only ever moves
// the stage forward; terminal filings absorb everything as a no-op.
func WebhookSender(ctx context.Context, pool *pgxpool.Pool, filingID string, stop <-chan struct{}) error {
	events := []string{"SUBMITTED", "APPROVED", "REJECTED", "HEARTBEAT"}
	targets := map[string]string{"SUBMITTED": "submitted", "APPROVED": "approved", "REJECTED": "failed"}
	replayKey := "replay-" + filingID

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-stop:
			return nil
		default:
		}
		event := events[rand.Intn(len(events))]
		delivery := fmt.Sprintf("evt_%d", rand.Int63())
		if rand.Intn(2) == 0 {
			event = "SUBMITTED"
			delivery = replayKey
		}

		if err := applyDelivery(ctx, pool, filingID, event, delivery, targets[event]); err != nil {
			if lockContention(err) {
				continue
			}
			return fmt.Errorf("webhook sender: %w", err)
		}
		time.Sleep(time.Duration(15+rand.Intn(35)) * time.Millisecond)
	}
}

func applyDelivery(ctx context.Context, pool *pgxpool.Pool, filingID, event, delivery, target string) error {
	tx, err := pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `INSERT INTO idempotency (key) VALUES ($1)`, delivery); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			// replayed delivery, drop it
			return nil
		}
		return err
	}

	var stage string
	if err := tx.QueryRow(ctx, `SELECT stage FROM filings WHERE id=$1 FOR UPDATE`, filingID).Scan(&stage); err != nil {
		return err
	}
	if stage == "approved" {
		// terminal filings swallow late callbacks without side effects
		return nil
	}

	_, err = tx.Exec(ctx, `INSERT INTO filing_tasks (filing_id, seq, code, label, status, payload)
                           VALUES ($1, next_task_seq($1), $2, $3, 'done', jsonb_build_object('delivery_id', $4::text))`,
		filingID, "RPA_"+event, "RPA Event: "+event, delivery)
	if err != nil {
		return err
	}

	if target != "" && legalEdge(stage, target) {
		_, _ = tx.Exec(ctx, `UPDATE filings SET stage=$2 WHERE id=$1`, filingID, target)
	}
	_, _ = tx.Exec(ctx, `INSERT INTO webhooks (direction, event, status, payload)
                         VALUES ('in', $1, 200, jsonb_build_object('filing_id', $2::text, 'delivery_id', $3::text))`,
		event, filingID, delivery)

	return tx.Commit(ctx)
}

// RunQueuer piles automation runs onto the seeded filing/adapter pair.
func RunQueuer(ctx context.Context, pool *pgxpool.Pool, filingID, adapterID string, stop <-chan struct{}) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-stop:
			return nil
		default:
		}
		_, err := pool.Exec(ctx, `INSERT INTO filing_runs (filing_id, adapter_id, status, log)
                                  VALUES ($1, $2, 'queued', '[{"at":"seed","message":"Queued by stress actor"}]'::jsonb)`,
			filingID, adapterID)
		if err != nil {
			return fmt.Errorf("run queuer insert: %w", err)
		}
		time.Sleep(time.Duration(60+rand.Intn(80)) * time.Millisecond)
	}
}

// RunSimulator drains queued runs with SKIP LOCKED, settles each one with a
// random terminal outcome and moves the filing stage accordingly, never
// backwards.
func RunSimulator(ctx context.Context, pool *pgxpool.Pool, filingID string, stop <-chan struct{}) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-stop:
			return nil
		default:
		}
		tx, err := pool.Begin(ctx)
		if err != nil {
			return err
		}
		var runID string
		err = tx.QueryRow(ctx, `SELECT id FROM filing_runs WHERE filing_id=$1 AND status='queued'
                                ORDER BY started_at LIMIT 1 FOR UPDATE SKIP LOCKED`, filingID).Scan(&runID)
		if err == nil {
			outcome := "succeeded"
			if rand.Intn(4) == 0 {
				outcome = "failed"
			}
			_, err = tx.Exec(ctx, `UPDATE filing_runs
                                   SET status=$2::run_status, finished_at=now(),
                                       log = log || jsonb_build_object('at', now()::text, 'message', 'Run '||$2)
                                   WHERE id=$1`, runID, outcome)
			if err == nil {
				var stage string
				if err = tx.QueryRow(ctx, `SELECT stage FROM filings WHERE id=$1 FOR UPDATE`, filingID).Scan(&stage); err == nil {
					if outcome == "succeeded" && legalEdge(stage, "submitted") {
						_, _ = tx.Exec(ctx, `UPDATE filings SET stage='submitted' WHERE id=$1`, filingID)
					}
					if outcome == "failed" && legalEdge(stage, "failed") {
						_, _ = tx.Exec(ctx, `UPDATE filings SET stage='failed' WHERE id=$1`, filingID)
					}
				}
			}
		}
		if err != nil {
			_ = tx.Rollback(ctx)
			if !errors.Is(err, pgx.ErrNoRows) && !lockContention(err) {
				return fmt.Errorf("run simulator: %w", err)
			}
		} else {
			_ = tx.Commit(ctx)
		}
		time.Sleep(time.Duration(30+rand.Intn(50)) * time.Millisecond)
	}
}

// Requeuer flips parked filings back onto the conveyor, only ever from an
// error stage and only when the payment gate is already satisfied.
func Requeuer(ctx context.Context, pool *pgxpool.Pool, filingID string, stop <-chan struct{}) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-stop:
			return nil
		default:
		}
		_, err := pool.Exec(ctx, `UPDATE filings SET stage='queued'
                                  WHERE id=$1 AND stage IN ('rejected','needs_info','failed') AND paid_total_cents > 0`, filingID)
		if err != nil {
			return fmt.Errorf("requeuer: %w", err)
		}
		time.Sleep(time.Duration(50+rand.Intn(100)) * time.Millisecond)
	}
}

// Backfiller runs the payment reconciliation job: a synthetic payment for
// every quoted filing without one. Single-flight, same as the admin job.
func Backfiller(ctx context.Context, pool *pgxpool.Pool, stop <-chan struct{}) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-stop:
			return nil
		default:
		}
		_, err := pool.Exec(ctx, `WITH created AS (
                                      INSERT INTO payments (filing_id, provider, provider_ref, amount_cents)
                                      SELECT f.id, 'backfill', 'admin-fix', f.quoted_total_cents
                                      FROM filings f
                                      WHERE f.quoted_total_cents > 0
                                        AND NOT EXISTS (SELECT 1 FROM payments p WHERE p.filing_id = f.id)
                                      RETURNING filing_id, amount_cents
                                  )
                                  UPDATE filings f SET paid_total_cents = c.amount_cents
                                  FROM created c WHERE f.id = c.filing_id`)
		if err != nil && !lockContention(err) {
			return fmt.Errorf("backfiller: %w", err)
		}
		time.Sleep(time.Duration(200+rand.Intn(200)) * time.Millisecond)
	}
}

// lockContention reports serialization/deadlock/unique errors that are
// expected under concurrent actors and chaos kills.
func lockContention(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "23505", "40001", "40P01", "57P01":
			return true
		}
	}
	return errors.Is(err, pgx.ErrNoRows)
}
