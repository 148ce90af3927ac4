package httpapi

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"fileflow/authz"
	"fileflow/filing"
)

const defaultListLimit = 100

type submitIntakeRequest struct {
	LegalName        string         `json:"legal_name"`
	DBA              *string        `json:"dba"`
	StateCode        string         `json:"state_code"`
	EntityType       string         `json:"entity_type"`
	FilingType       string         `json:"filing_type"`
	QuotedTotalCents int64          `json:"quoted_total_cents"`
	ExternalRef      map[string]any `json:"external_ref"`
	EINService       bool           `json:"ein_service"`
	MailForwarding   bool           `json:"mail_forwarding"`
	UseHostedAgent   bool           `json:"use_hosted_agent"`
	AgentAddress     string         `json:"agent_address"`
}

func (s *Server) handleSubmitIntake(w http.ResponseWriter, r *http.Request) {
	p := principalFrom(r)
	if err := authz.Authorize(p, authz.ActionSubmitIntake, authz.Resource{}); err != nil {
		respondError(w, err)
		return
	}

	var req submitIntakeRequest
	if !decode(w, r, &req) {
		return
	}

	f, err := s.filingService.SubmitIntake(r.Context(), filing.SubmitIntakeParams{
		OwnerID:          p.UserID,
		LegalName:        req.LegalName,
		DBA:              req.DBA,
		StateCode:        req.StateCode,
		EntityType:       filing.EntityType(req.EntityType),
		FilingType:       filing.FilingType(req.FilingType),
		QuotedTotalCents: req.QuotedTotalCents,
		ExternalRef:      req.ExternalRef,
		EINService:       req.EINService,
		MailForwarding:   req.MailForwarding,
		UseHostedAgent:   req.UseHostedAgent,
		AgentAddress:     req.AgentAddress,
	})
	if err != nil {
		respondError(w, err)
		return
	}

	respondOK(w, http.StatusCreated, envelope{"filing": toFilingResponse(f)})
}

func (s *Server) handleListFilings(w http.ResponseWriter, r *http.Request) {
	p := principalFrom(r)

	limit := defaultListLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			limit = n
		}
	}

	if isOperator(p) {
		if err := authz.Authorize(p, authz.ActionListAllFilings, authz.Resource{}); err != nil {
			respondError(w, err)
			return
		}
		filings, err := s.filings.ListAll(r.Context(), limit)
		if err != nil {
			respondError(w, err)
			return
		}
		respondOK(w, http.StatusOK, envelope{"filings": toFilingResponses(filings)})
		return
	}

	filings, err := s.filings.ListForOwner(r.Context(), p.UserID, limit)
	if err != nil {
		respondError(w, err)
		return
	}
	respondOK(w, http.StatusOK, envelope{"filings": toFilingResponses(filings)})
}

// handleFilingDetail aggregates the filing with its task ledger, payments,
// runs, and message trail. Customers resolve the filing through the
// owner-scoped query, so a foreign filing reads as not found.
func (s *Server) handleFilingDetail(w http.ResponseWriter, r *http.Request) {
	p := principalFrom(r)
	id := chi.URLParam(r, "id")

	var (
		f   filing.Filing
		err error
	)
	if isOperator(p) {
		f, err = s.filings.GetByID(r.Context(), id)
	} else {
		f, err = s.filings.GetOwnedByID(r.Context(), id, p.UserID)
	}
	if err != nil {
		respondError(w, err)
		return
	}

	tasks, err := s.tasks.ListForFiling(r.Context(), f.ID)
	if err != nil {
		respondError(w, err)
		return
	}
	payments, err := s.payments.ListForFiling(r.Context(), f.ID)
	if err != nil {
		respondError(w, err)
		return
	}
	runs, err := s.runs.ListForFiling(r.Context(), f.ID)
	if err != nil {
		respondError(w, err)
		return
	}
	messages, err := s.messages.ListForFiling(r.Context(), f.ID)
	if err != nil {
		respondError(w, err)
		return
	}

	respondOK(w, http.StatusOK, envelope{
		"filing":   toFilingResponse(f),
		"tasks":    toTaskResponses(tasks),
		"payments": toPaymentResponses(payments),
		"runs":     toRunResponses(runs),
		"messages": toMessageResponses(messages),
	})
}

func (s *Server) handleMarkPaid(w http.ResponseWriter, r *http.Request) {
	p := principalFrom(r)
	if err := authz.Authorize(p, authz.ActionMarkPaid, authz.Resource{}); err != nil {
		respondError(w, err)
		return
	}

	amount, err := s.filingService.MarkPaid(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, err)
		return
	}
	respondOK(w, http.StatusOK, envelope{"paid_total_cents": amount})
}

func (s *Server) handleRequeue(w http.ResponseWriter, r *http.Request) {
	p := principalFrom(r)
	if err := authz.Authorize(p, authz.ActionRequeueFiling, authz.Resource{}); err != nil {
		respondError(w, err)
		return
	}

	id := chi.URLParam(r, "id")
	if err := s.filingService.Requeue(r.Context(), id); err != nil {
		respondError(w, err)
		return
	}
	respondOK(w, http.StatusOK, envelope{"stage": string(filing.StageQueued)})
}
