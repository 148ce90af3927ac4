package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"fileflow/authz"
	"fileflow/run"
)

type queueRunRequest struct {
	FilingID string `json:"filing_id"`
}

func (s *Server) handleQueueRun(w http.ResponseWriter, r *http.Request) {
	p := principalFrom(r)
	if err := authz.Authorize(p, authz.ActionQueueRun, authz.Resource{}); err != nil {
		respondError(w, err)
		return
	}

	var req queueRunRequest
	if !decode(w, r, &req) {
		return
	}
	if req.FilingID == "" {
		respondMessage(w, http.StatusBadRequest, "filing_id is required")
		return
	}

	queued, err := s.runService.Queue(r.Context(), req.FilingID)
	if err != nil {
		respondError(w, err)
		return
	}
	respondOK(w, http.StatusCreated, envelope{"run": toRunResponse(queued)})
}

type simulateRunRequest struct {
	Outcome string `json:"outcome"`
}

func (s *Server) handleSimulateRun(w http.ResponseWriter, r *http.Request) {
	p := principalFrom(r)
	if err := authz.Authorize(p, authz.ActionSimulateRun, authz.Resource{}); err != nil {
		respondError(w, err)
		return
	}

	var req simulateRunRequest
	if !decode(w, r, &req) {
		return
	}

	resolved, err := s.runService.Simulate(r.Context(), chi.URLParam(r, "id"), run.Status(req.Outcome))
	if err != nil {
		respondError(w, err)
		return
	}
	respondOK(w, http.StatusOK, envelope{"run": toRunResponse(resolved)})
}
