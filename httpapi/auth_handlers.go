package httpapi

import (
	"net/http"

	"fileflow/auth"
)

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req auth.RegisterRequest
	if !decode(w, r, &req) {
		return
	}

	// Elevated roles are provisioned out of band, never through the open
	// registration endpoint.
	req.Role = auth.RoleCustomer

	profile, err := s.authService.Register(r.Context(), req)
	if err != nil {
		respondError(w, err)
		return
	}

	respondOK(w, http.StatusCreated, envelope{"profile": toProfileResponse(*profile)})
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req auth.LoginRequest
	if !decode(w, r, &req) {
		return
	}

	result, err := s.authService.Login(r.Context(), req)
	if err != nil {
		respondError(w, err)
		return
	}

	respondOK(w, http.StatusOK, envelope{
		"token":   result.Token,
		"profile": toProfileResponse(result.Profile),
	})
}
