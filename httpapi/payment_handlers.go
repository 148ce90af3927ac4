package httpapi

import (
	"net/http"

	"fileflow/authz"
	"fileflow/payment"
)

func (s *Server) handleBackfill(w http.ResponseWriter, r *http.Request) {
	p := principalFrom(r)
	if err := authz.Authorize(p, authz.ActionBackfillPayment, authz.Resource{}); err != nil {
		respondError(w, err)
		return
	}

	result, err := s.paymentService.Backfill(r.Context())
	if err != nil {
		respondError(w, err)
		return
	}
	respondOK(w, http.StatusOK, envelope{
		"filings_checked":  result.FilingsChecked,
		"payments_created": result.PaymentsCreated,
	})
}

type mockCheckoutRequest struct {
	SessionID string `json:"session_id"`
	FilingID  string `json:"filing_id"`
	Success   bool   `json:"success"`
}

// handleMockCheckout completes a simulated checkout. On success a succeeded
// payment is recorded against the quoted total and the stage advances along
// the payment edge.
func (s *Server) handleMockCheckout(w http.ResponseWriter, r *http.Request) {
	p := principalFrom(r)
	if err := authz.Authorize(p, authz.ActionRecordPayment, authz.Resource{}); err != nil {
		respondError(w, err)
		return
	}

	var req mockCheckoutRequest
	if !decode(w, r, &req) {
		return
	}
	if req.SessionID == "" || req.FilingID == "" {
		respondMessage(w, http.StatusBadRequest, "session_id and filing_id are required")
		return
	}

	if !req.Success {
		respondOK(w, http.StatusOK, envelope{"success": false})
		return
	}

	// Customers can only pay for their own filings.
	if !isOperator(p) {
		if _, err := s.filings.GetOwnedByID(r.Context(), req.FilingID, p.UserID); err != nil {
			respondError(w, err)
			return
		}
	}

	f, err := s.filings.GetByID(r.Context(), req.FilingID)
	if err != nil {
		respondError(w, err)
		return
	}

	result, err := s.paymentService.Record(r.Context(), payment.RecordParams{
		FilingID:     req.FilingID,
		AmountCents:  f.QuotedTotalCents,
		Provider:     "stripe",
		ProviderRef:  req.SessionID,
		AdvanceStage: true,
	})
	if err != nil {
		respondError(w, err)
		return
	}

	respondOK(w, http.StatusOK, envelope{
		"success": true,
		"payment": toPaymentResponse(result.Payment),
		"stage":   string(result.Stage),
	})
}
