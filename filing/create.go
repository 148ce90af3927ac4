package filing

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5"
)

// CreateBusinessParams enumerates the fields required to insert a business.
type CreateBusinessParams struct {
	OwnerID        string
	LegalName      string
	DBA            *string
	FormationState string
	EntityType     EntityType
}

// CreateFilingParams enumerates the fields required to insert a filing at intake.
type CreateFilingParams struct {
	BusinessID       string
	StateCode        string
	FilingType       FilingType
	QuotedTotalCents int64
	ExternalRef      map[string]any
	EINService       bool
	MailForwarding   bool
	UseHostedAgent   bool
	AgentAddress     string
}

// CreateBusinessTx inserts a business row inside the caller's transaction.
func (r *Repository) CreateBusinessTx(ctx context.Context, tx pgx.Tx, params CreateBusinessParams) (Business, error) {
	const insertSQL = `
		INSERT INTO businesses (owner_id, legal_name, dba, formation_state, entity_type)
		VALUES ($1, $2, $3, $4, $5::entity_type)
		RETURNING id, owner_id, legal_name, dba, formation_state, entity_type::text, created_at
	`
	var b Business
	if err := tx.QueryRow(ctx, insertSQL,
		params.OwnerID,
		params.LegalName,
		params.DBA,
		params.FormationState,
		params.EntityType,
	).Scan(&b.ID, &b.OwnerID, &b.LegalName, &b.DBA, &b.FormationState, &b.EntityType, &b.CreatedAt); err != nil {
		return Business{}, fmt.Errorf("filing: insert business: %w", err)
	}
	return b, nil
}

// CreateFilingTx inserts a filing row in stage 'intake' inside the caller's
// transaction and returns the stored row.
func (r *Repository) CreateFilingTx(ctx context.Context, tx pgx.Tx, params CreateFilingParams) (Filing, error) {
	externalRef, err := json.Marshal(params.ExternalRef)
	if err != nil {
		return Filing{}, fmt.Errorf("filing: marshal external ref: %w", err)
	}

	const insertSQL = `
		INSERT INTO filings (
			business_id, state_code, filing_type, stage, quoted_total_cents,
			external_ref, ein_service, mail_forwarding, use_hosted_agent, registered_agent_address
		)
		VALUES ($1, $2, $3::filing_type, 'intake', $4, $5, $6, $7, $8, $9)
		RETURNING ` + filingColumns + `
	`
	f, err := scanFiling(tx.QueryRow(ctx, insertSQL,
		params.BusinessID,
		params.StateCode,
		params.FilingType,
		params.QuotedTotalCents,
		externalRef,
		params.EINService,
		params.MailForwarding,
		params.UseHostedAgent,
		params.AgentAddress,
	))
	if err != nil {
		return Filing{}, fmt.Errorf("filing: insert filing: %w", err)
	}
	return f, nil
}
