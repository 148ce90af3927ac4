package httpapi

import (
	"net/http"
	"strconv"

	"fileflow/authz"
	"fileflow/webhook"
)

type automationEventRequest struct {
	FilingID   string         `json:"filing_id"`
	Event      string         `json:"event"`
	Payload    map[string]any `json:"payload"`
	DeliveryID string         `json:"delivery_id"`
}

func (s *Server) handleAutomationWebhook(w http.ResponseWriter, r *http.Request) {
	var req automationEventRequest
	if !decode(w, r, &req) {
		return
	}

	result, err := s.webhookService.HandleAutomationEvent(r.Context(), webhook.AutomationEvent{
		FilingID:   req.FilingID,
		Event:      req.Event,
		Payload:    req.Payload,
		DeliveryID: req.DeliveryID,
	})
	if err != nil {
		respondError(w, err)
		return
	}

	respondOK(w, http.StatusOK, envelope{
		"stage":    string(result.Stage),
		"changed":  result.Changed,
		"replayed": result.Replayed,
	})
}

func (s *Server) handleListWebhooks(w http.ResponseWriter, r *http.Request) {
	p := principalFrom(r)
	if err := authz.Authorize(p, authz.ActionViewWebhooks, authz.Resource{}); err != nil {
		respondError(w, err)
		return
	}

	limit := defaultListLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			limit = n
		}
	}

	hooks, err := s.webhookLog.List(r.Context(), limit)
	if err != nil {
		respondError(w, err)
		return
	}
	respondOK(w, http.StatusOK, envelope{"webhooks": toWebhookResponses(hooks)})
}
