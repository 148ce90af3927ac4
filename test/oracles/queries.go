package oracles

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

type Oracle struct {
	Name string
	SQL  string
}

func All() []Oracle {
	return []Oracle{
		{
			Name: "O1_task_seq_monotonic",
			SQL: `WITH seqs AS (
                      SELECT filing_id, seq,
                             LAG(seq) OVER (PARTITION BY filing_id ORDER BY seq) AS prev
                      FROM filing_tasks)
                  SELECT * FROM seqs WHERE prev IS NOT NULL AND seq <= prev`,
		},
		{
			Name: "O2_payment_gate",
			SQL: `SELECT id, stage, paid_total_cents FROM filings
                  WHERE stage IN ('queued','submitting','submitted','approved')
                    AND paid_total_cents <= 0`,
		},
		{
			Name: "O3_run_terminal_consistency",
			SQL: `SELECT id, status, finished_at FROM filing_runs
                  WHERE (status IN ('succeeded','failed') AND finished_at IS NULL)
                     OR (status = 'queued' AND finished_at IS NOT NULL)`,
		},
		{
			Name: "O4_backfill_single_shot",
			SQL: `SELECT filing_id, COUNT(*) FROM payments
                  WHERE provider = 'backfill'
                  GROUP BY filing_id HAVING COUNT(*) > 1`,
		},
		{
			Name: "O5_delivery_applied_once",
			SQL: `SELECT payload->>'delivery_id', COUNT(*) FROM filing_tasks
                  WHERE payload ? 'delivery_id'
                  GROUP BY payload->>'delivery_id' HAVING COUNT(*) > 1`,
		},
		{
			Name: "O6_automation_tasks_settled",
			SQL:  `SELECT id, code, status FROM filing_tasks WHERE code LIKE 'RPA\_%' AND status <> 'done'`,
		},
		{
			Name: "O7_payment_amounts_sane",
			SQL:  `SELECT id, amount_cents FROM payments WHERE amount_cents <= 0`,
		},
		{
			Name: "O8_task_seq_func_present",
			SQL: `SELECT 'missing_next_task_seq' AS detail
                  WHERE NOT EXISTS (SELECT 1 FROM pg_proc WHERE proname = 'next_task_seq')`,
		},
	}
}

// Run executes all oracles and returns the first failure (name and sample row text) or empty name if all pass.
func Run(ctx context.Context, pool *pgxpool.Pool) (string, string, error) {
	for _, o := range All() {
		rows, err := pool.Query(ctx, o.SQL)
		if err != nil {
			return o.Name, "", fmt.Errorf("oracle %s: %w", o.Name, err)
		}
		has := rows.Next()
		if has {
			vals, err := rows.Values()
			rows.Close()
			if err != nil {
				return o.Name, "", err
			}
			return o.Name, fmt.Sprintf("%v", vals), nil
		}
		rows.Close()
	}
	return "", "", nil
}
