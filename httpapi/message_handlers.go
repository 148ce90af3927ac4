package httpapi

import (
	"net/http"
	"strconv"
	"strings"

	"fileflow/authz"
	"fileflow/message"
)

type sendMessageRequest struct {
	FilingID *string `json:"filing_id"`
	Body     string  `json:"body"`
}

func (s *Server) handleSendMessage(w http.ResponseWriter, r *http.Request) {
	p := principalFrom(r)
	if err := authz.Authorize(p, authz.ActionSendMessage, authz.Resource{}); err != nil {
		respondError(w, err)
		return
	}

	var req sendMessageRequest
	if !decode(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.Body) == "" {
		respondMessage(w, http.StatusBadRequest, "body is required")
		return
	}

	if req.FilingID != nil && !isOperator(p) {
		if _, err := s.filings.GetOwnedByID(r.Context(), *req.FilingID, p.UserID); err != nil {
			respondError(w, err)
			return
		}
	}

	m, err := s.messages.Append(r.Context(), req.FilingID, string(p.Role), req.Body)
	if err != nil {
		respondError(w, err)
		return
	}
	respondOK(w, http.StatusCreated, envelope{"message": toMessageResponses([]message.Message{m})[0]})
}

func (s *Server) handleListMessages(w http.ResponseWriter, r *http.Request) {
	p := principalFrom(r)

	if filingID := r.URL.Query().Get("filing_id"); filingID != "" {
		if !isOperator(p) {
			if _, err := s.filings.GetOwnedByID(r.Context(), filingID, p.UserID); err != nil {
				respondError(w, err)
				return
			}
		}
		msgs, err := s.messages.ListForFiling(r.Context(), filingID)
		if err != nil {
			respondError(w, err)
			return
		}
		respondOK(w, http.StatusOK, envelope{"messages": toMessageResponses(msgs)})
		return
	}

	if err := authz.Authorize(p, authz.ActionViewInbox, authz.Resource{}); err != nil {
		respondError(w, err)
		return
	}

	limit := defaultListLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			limit = n
		}
	}

	msgs, err := s.messages.ListInbox(r.Context(), limit)
	if err != nil {
		respondError(w, err)
		return
	}
	respondOK(w, http.StatusOK, envelope{"messages": toMessageResponses(msgs)})
}
