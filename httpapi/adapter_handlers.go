package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"fileflow/adapter"
	"fileflow/authz"
)

type createAdapterRequest struct {
	StateCode  string  `json:"state_code"`
	FilingType string  `json:"filing_type"`
	Name       string  `json:"name"`
	Version    *string `json:"version"`
}

func (s *Server) handleCreateAdapter(w http.ResponseWriter, r *http.Request) {
	p := principalFrom(r)
	if err := authz.Authorize(p, authz.ActionCreateAdapter, authz.Resource{}); err != nil {
		respondError(w, err)
		return
	}

	var req createAdapterRequest
	if !decode(w, r, &req) {
		return
	}

	created, err := s.registry.Create(r.Context(), adapter.CreateParams{
		StateCode:  req.StateCode,
		FilingType: req.FilingType,
		Name:       req.Name,
		Version:    req.Version,
	})
	if err != nil {
		respondError(w, err)
		return
	}
	respondOK(w, http.StatusCreated, envelope{"adapter": toAdapterResponse(created)})
}

type toggleAdapterRequest struct {
	Enabled bool `json:"enabled"`
}

func (s *Server) handleToggleAdapter(w http.ResponseWriter, r *http.Request) {
	p := principalFrom(r)
	if err := authz.Authorize(p, authz.ActionToggleAdapter, authz.Resource{}); err != nil {
		respondError(w, err)
		return
	}

	var req toggleAdapterRequest
	if !decode(w, r, &req) {
		return
	}

	toggled, err := s.registry.Toggle(r.Context(), chi.URLParam(r, "id"), req.Enabled)
	if err != nil {
		respondError(w, err)
		return
	}
	respondOK(w, http.StatusOK, envelope{"adapter": toAdapterResponse(toggled)})
}

func (s *Server) handleListAdapters(w http.ResponseWriter, r *http.Request) {
	p := principalFrom(r)
	if err := authz.Authorize(p, authz.ActionListAdapters, authz.Resource{}); err != nil {
		respondError(w, err)
		return
	}

	adapters, err := s.registry.List(r.Context())
	if err != nil {
		respondError(w, err)
		return
	}

	out := make([]adapterResponse, 0, len(adapters))
	for _, a := range adapters {
		out = append(out, toAdapterResponse(a))
	}
	respondOK(w, http.StatusOK, envelope{"adapters": out})
}
