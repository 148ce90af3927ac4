package httpapi

import (
	"hash/fnv"
	"net/http"
	"strings"
	"time"
)

// nameCheckResults is the fixed response pool for the mock availability
// checker. Selection hashes the normalized (state, name) pair so repeated
// checks of the same name are stable.
var nameCheckResults = []struct {
	Status  string
	Message string
}{
	{Status: "AVAILABLE", Message: "Name is available for registration"},
	{Status: "CONFLICT", Message: "Name conflicts with existing entity"},
	{Status: "AVAILABLE", Message: "Name is available for registration"},
	{Status: "AVAILABLE", Message: "Name is available for registration"},
	{Status: "CONFLICT", Message: "Name is too similar to existing entity"},
}

func (s *Server) handleNameAvailability(w http.ResponseWriter, r *http.Request) {
	state := r.URL.Query().Get("state")
	name := r.URL.Query().Get("name")
	if state == "" || name == "" {
		respondMessage(w, http.StatusBadRequest, "state and name parameters are required")
		return
	}

	h := fnv.New32a()
	h.Write([]byte(strings.ToUpper(state) + "|" + strings.ToLower(strings.TrimSpace(name))))
	result := nameCheckResults[int(h.Sum32())%len(nameCheckResults)]

	respondOK(w, http.StatusOK, envelope{
		"state":      state,
		"name":       name,
		"status":     result.Status,
		"message":    result.Message,
		"checked_at": time.Now().UTC().Format(time.RFC3339),
	})
}
