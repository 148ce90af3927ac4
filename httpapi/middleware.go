package httpapi

import (
	"context"
	"net/http"
	"strings"

	"fileflow/auth"
	"fileflow/authz"
)

type contextKey string

const (
	ctxKeyUserID contextKey = "userID"
	ctxKeyRole   contextKey = "role"
)

// requireAuth verifies the bearer token and stashes the principal in the
// request context.
func (s *Server) requireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		if !strings.HasPrefix(header, "Bearer ") {
			respondMessage(w, http.StatusUnauthorized, "missing bearer token")
			return
		}

		userID, role, err := s.authService.VerifyToken(strings.TrimPrefix(header, "Bearer "))
		if err != nil {
			respondMessage(w, http.StatusUnauthorized, "invalid token")
			return
		}

		ctx := context.WithValue(r.Context(), ctxKeyUserID, userID)
		ctx = context.WithValue(ctx, ctxKeyRole, role)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// principalFrom reads the authenticated principal out of the context.
// Handlers behind requireAuth can rely on it being populated.
func principalFrom(r *http.Request) authz.Principal {
	p := authz.Principal{}
	if id, ok := r.Context().Value(ctxKeyUserID).(string); ok {
		p.UserID = id
	}
	if role, ok := r.Context().Value(ctxKeyRole).(auth.Role); ok {
		p.Role = role
	}
	return p
}

// isOperator reports whether the principal carries an elevated role.
func isOperator(p authz.Principal) bool {
	return p.Role == auth.RoleAdmin || p.Role == auth.RoleOps
}
