package filing

import "time"

// FilingType identifies which state filing a record drives.
type FilingType string

const (
	TypeLLCFormation FilingType = "LLC_FORMATION"
	TypeAnnualReport FilingType = "ANNUAL_REPORT"
	TypeEIN          FilingType = "EIN"
	TypeAmendment    FilingType = "AMENDMENT"
)

// EntityType mirrors the businesses.entity_type enum.
type EntityType string

const (
	EntityLLC       EntityType = "LLC"
	EntityCorp      EntityType = "CORP"
	EntityNonprofit EntityType = "NONPROFIT"
	EntityOther     EntityType = "OTHER"
)

// ServiceStatus tracks the add-on services (EIN, mail forwarding) that ride
// along with a filing but progress independently of its stage.
type ServiceStatus string

const (
	ServicePending ServiceStatus = "pending"
	ServiceQueued  ServiceStatus = "queued"
	ServiceActive  ServiceStatus = "active"
	ServiceDone    ServiceStatus = "approved"
	ServiceFailed  ServiceStatus = "failed"
)

// Business is the owning entity a filing is formed for.
type Business struct {
	ID             string
	OwnerID        string
	LegalName      string
	DBA            *string
	FormationState string
	EntityType     EntityType
	CreatedAt      time.Time
}

// Filing mirrors the filings table. Monetary amounts are integer cents.
// Rows are never hard-deleted; they are retained for audit.
type Filing struct {
	ID                    string
	BusinessID            string
	StateCode             string
	FilingType            FilingType
	Stage                 Stage
	QuotedTotalCents      int64
	PaidTotalCents        int64
	ExternalRef           []byte
	EINService            bool
	EINStatus             ServiceStatus
	MailForwarding        bool
	MailForwardingStatus  ServiceStatus
	UseHostedAgent        bool
	RegisteredAgentAddr   string
	CreatedAt             time.Time
}

// IsValidFilingType reports whether t is a member of the filing type enum.
func IsValidFilingType(t FilingType) bool {
	switch t {
	case TypeLLCFormation, TypeAnnualReport, TypeEIN, TypeAmendment:
		return true
	default:
		return false
	}
}
