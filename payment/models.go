package payment

import "time"

// Payment records funds captured against a filing. Rows are immutable once
// written; 'succeeded' is the only status this system ever records.
type Payment struct {
	ID          string
	FilingID    string
	Status      string
	Provider    string
	ProviderRef string
	AmountCents int64
	CreatedAt   time.Time
}

const (
	StatusSucceeded = "succeeded"

	// ProviderBackfill marks rows synthesized by the reconciliation job.
	ProviderBackfill = "backfill"
)

// UnpaidFiling is one filing the backfill job found with a positive quote
// and no payment row.
type UnpaidFiling struct {
	FilingID         string
	QuotedTotalCents int64
}
