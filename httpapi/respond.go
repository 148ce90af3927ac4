package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"

	"fileflow/adapter"
	"fileflow/auth"
	"fileflow/authz"
	"fileflow/filing"
	"fileflow/payment"
	"fileflow/run"
	"fileflow/webhook"
)

type envelope map[string]any

func respondJSON(w http.ResponseWriter, status int, payload envelope) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload != nil {
		_ = json.NewEncoder(w).Encode(payload)
	}
}

func respondOK(w http.ResponseWriter, status int, payload envelope) {
	if payload == nil {
		payload = envelope{}
	}
	payload["ok"] = true
	respondJSON(w, status, payload)
}

func respondError(w http.ResponseWriter, err error) {
	respondJSON(w, errorStatus(err), envelope{"ok": false, "error": err.Error()})
}

func respondMessage(w http.ResponseWriter, status int, msg string) {
	ok := status < http.StatusBadRequest
	respondJSON(w, status, envelope{"ok": ok, "error": msg})
}

// errorStatus translates service sentinels to HTTP status codes. Anything
// unrecognized is a 500.
func errorStatus(err error) int {
	switch {
	case errors.Is(err, filing.ErrNotFound),
		errors.Is(err, run.ErrRunNotFound),
		errors.Is(err, adapter.ErrNotFound),
		errors.Is(err, auth.ErrProfileNotFound):
		return http.StatusNotFound
	case errors.Is(err, authz.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, auth.ErrInvalidCredentials):
		return http.StatusUnauthorized
	case errors.Is(err, filing.ErrPaymentRequired):
		return http.StatusPaymentRequired
	case errors.Is(err, adapter.ErrNoAdapter),
		errors.Is(err, run.ErrRunFinished),
		errors.Is(err, filing.ErrIllegalTransition),
		errors.Is(err, filing.ErrStageRegression),
		errors.Is(err, auth.ErrDuplicateEmail):
		return http.StatusConflict
	case errors.Is(err, filing.ErrValidation),
		errors.Is(err, filing.ErrInvalidStage),
		errors.Is(err, run.ErrInvalidOutcome),
		errors.Is(err, webhook.ErrMissingFields),
		errors.Is(err, adapter.ErrMissingFields),
		errors.Is(err, payment.ErrInvalidParams),
		errors.Is(err, auth.ErrWeakPassword),
		errors.Is(err, auth.ErrMissingFields),
		errors.Is(err, auth.ErrInvalidRole):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// decode reads a JSON body into dst. Returns false after writing a 400 when
// the body is malformed.
func decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		respondMessage(w, http.StatusBadRequest, "invalid JSON body")
		return false
	}
	return true
}
