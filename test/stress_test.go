package test

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"math/rand"
	"os"
	"os/exec"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/sync/errgroup"

	"fileflow/test/actors"
	"fileflow/test/chaos"
	"fileflow/test/infra"
	"fileflow/test/oracles"
)

var (
	flDuration    = flag.Duration("duration", 90*time.Second, "how long to run stress")
	flConcurrency = flag.Int("concurrency", 8, "number of concurrent actors")
	flSeed        = flag.Int64("seed", time.Now().UnixNano(), "random seed")
	flDSN         = flag.String("dsn", "", "existing Postgres DSN to reuse (avoids Docker)")
)

func seedRNG(seed int64) { rand.Seed(seed) }

func TestFilingPipelineConcurrency(t *testing.T) {
	flag.Parse()
	seed := *flSeed
	seedRNG(seed)

	var (
		pgC        *infra.PGContainer
		dsn        string
		err        error
		usedShared bool
	)
	ctx, cancel := context.WithTimeout(context.Background(), *flDuration+60*time.Second)
	defer cancel()

	switch {
	case *flDSN != "":
		dsn = *flDSN
		usedShared = true
		pgC = &infra.PGContainer{}
	case os.Getenv("STRESS_TEST_PG_DSN") != "":
		dsn = os.Getenv("STRESS_TEST_PG_DSN")
		usedShared = true
		pgC = &infra.PGContainer{}
	default:
		if dockerAvailable(ctx) {
			pgC, dsn, err = infra.StartPostgres16(ctx, "")
			if err != nil {
				t.Fatalf("start postgres: %v", err)
			}
		} else {
			dsn, err = infra.InitLocalDatabase(ctx)
			if err != nil {
				t.Fatalf("init local database: %v", err)
			}
			pgC = &infra.PGContainer{}
		}
	}
	defer pgC.Terminate(context.Background())

	// migrations
	pool, teardown, err := infra.ApplyMigrations(ctx, dsn, usedShared)
	if err != nil {
		t.Fatalf("apply migrations: %v", err)
	}
	defer pool.Close()
	defer func() {
		if err := teardown(context.Background()); err != nil {
			t.Logf("teardown warning: %v", err)
		}
	}()

	// seed minimal data
	seedData := mustSeed(t, ctx, pool)

	// run actors
	g, ctx2 := errgroup.WithContext(ctx)
	stop := make(chan struct{})

	// payers and webhook senders battling over the same filing
	for i := 0; i < *flConcurrency; i++ {
		g.Go(func() error { return actors.Payer(ctx2, pool, seedData.filingID, stop) })
		g.Go(func() error { return actors.WebhookSender(ctx2, pool, seedData.filingID, stop) })
	}

	// intake creator
	g.Go(func() error { return actors.IntakeCreator(ctx2, pool, seedData.businessID, stop) })
	// run queuer and simulator
	g.Go(func() error { return actors.RunQueuer(ctx2, pool, seedData.filingID, seedData.adapterID, stop) })
	g.Go(func() error { return actors.RunSimulator(ctx2, pool, seedData.filingID, stop) })
	// operator requeue of parked filings
	g.Go(func() error { return actors.Requeuer(ctx2, pool, seedData.filingID, stop) })
	// single-flight payment reconciliation job
	g.Go(func() error { return actors.Backfiller(ctx2, pool, stop) })
	// chaos: kill random backend
	go chaos.TerminateRandomBackend(ctx2, pool, stop)

	// schedule oracle checks until duration reached
	deadline := time.Now().Add(*flDuration)
	ticker := time.NewTicker(2 * time.Second)
	defer ticker.Stop()

	var failed bool
loop:
	for time.Now().Before(deadline) {
		select {
		case <-ctx.Done():
			break loop
		case <-ticker.C:
			name, row, err := oracles.Run(ctx2, pool)
			if err != nil {
				if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
					break loop
				}
				t.Fatalf("oracle error: %v", err)
			}
			if name != "" {
				failed = true
				dumpRecent(t, ctx2, pool)
				t.Fatalf("Oracle %s failed. First row: %s (seed=%d)", name, row, seed)
			}
		}
	}

	close(stop)
	if err := g.Wait(); err != nil && !failed {
		if !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded) {
			t.Fatalf("actors errored: %v", err)
		}
	}
}

func dockerAvailable(ctx context.Context) bool {
	if _, err := exec.LookPath("docker"); err != nil {
		return false
	}
	c := exec.CommandContext(ctx, "docker", "info")
	c.Stdout = io.Discard
	c.Stderr = io.Discard
	return c.Run() == nil
}

type seedIDs struct {
	ownerID    string
	businessID string
	filingID   string
	adapterID  string
}

func mustSeed(t *testing.T, ctx context.Context, pool *pgxpool.Pool) seedIDs {
	t.Helper()
	var s seedIDs
	// owner profile
	if err := pool.QueryRow(ctx, `INSERT INTO profiles (email, full_name, password_hash) VALUES ($1,$2,'x') RETURNING id`,
		fmt.Sprintf("u%d@example.com", rand.Int63()), "Stress User").Scan(&s.ownerID); err != nil {
		t.Fatalf("seed profile: %v", err)
	}
	// business
	if err := pool.QueryRow(ctx, `INSERT INTO businesses (owner_id, legal_name, formation_state) VALUES ($1,$2,'WY') RETURNING id`,
		s.ownerID, fmt.Sprintf("Stress LLC %d", rand.Int63())).Scan(&s.businessID); err != nil {
		t.Fatalf("seed business: %v", err)
	}
	// filing waiting at intake with a quote; actors walk it through the pipeline
	if err := pool.QueryRow(ctx, `INSERT INTO filings (business_id, state_code, filing_type, stage, quoted_total_cents)
                                  VALUES ($1,'WY','LLC_FORMATION','intake',29900) RETURNING id`,
		s.businessID).Scan(&s.filingID); err != nil {
		t.Fatalf("seed filing: %v", err)
	}
	// enabled adapter for WY formations so runs have somewhere to land
	if err := pool.QueryRow(ctx, `INSERT INTO state_adapters (state_code, filing_type, name, version, enabled)
                                  VALUES ('WY','LLC_FORMATION','wy-sos-portal','1.0',true) RETURNING id`).Scan(&s.adapterID); err != nil {
		t.Fatalf("seed adapter: %v", err)
	}
	return s
}

func dumpRecent(t *testing.T, ctx context.Context, pool *pgxpool.Pool) {
	t.Helper()
	type dump struct {
		name string
		sql  string
	}
	dumps := []dump{
		{"filings", `SELECT id, stage, quoted_total_cents, paid_total_cents FROM filings ORDER BY created_at DESC LIMIT 50`},
		{"filing_tasks", `SELECT id, filing_id, seq, code, status, created_at FROM filing_tasks ORDER BY created_at DESC LIMIT 50`},
		{"filing_runs", `SELECT id, filing_id, status, started_at, finished_at FROM filing_runs ORDER BY started_at DESC LIMIT 50`},
		{"payments", `SELECT id, filing_id, provider, amount_cents, created_at FROM payments ORDER BY created_at DESC LIMIT 50`},
		{"webhooks", `SELECT id, direction, event, status, created_at FROM webhooks ORDER BY created_at DESC LIMIT 50`},
	}
	for _, d := range dumps {
		rows, err := pool.Query(ctx, d.sql)
		if err != nil {
			t.Logf("dump %s error: %v", d.name, err)
			continue
		}
		cols := rows.FieldDescriptions()
		t.Logf("-- %s --", d.name)
		for rows.Next() {
			vals, _ := rows.Values()
			// compact print
			buf := make([]any, 0, len(vals))
			for i := range vals {
				buf = append(buf, fmt.Sprintf("%s=%v", string(cols[i].Name), vals[i]))
			}
			t.Logf("%s", buf)
		}
		rows.Close()
	}
}
