package v1

import (
	"context"
	"net/http"
	"strings"

	"ledgerd/internal/ledger"
)

type ctxKey string

const ctxKeyUser ctxKey = "authenticatedUser"

func parseBearerToken(r *http.Request) (string, bool) {
	h := r.Header.Get("Authorization")
	if h == "" {
		return "", false
	}
	if !strings.HasPrefix(h, "Bearer ") && !strings.HasPrefix(h, "bearer ") {
		return "", false
	}
	return strings.TrimSpace(h[len("Bearer "):]), true
}

// requireAuth resolves the opaque bearer token to its user and stores the
// user in the request context. Handlers behind it trust that user ID for
// every ownership check.
func (s *Server) requireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, ok := parseBearerToken(r)
		if !ok {
			unauthorized(w)
			return
		}
		user, err := s.authSvc.Authenticate(r.Context(), token)
		if err != nil {
			s.writeDomainErr(w, r, err)
			return
		}
		ctx := context.WithValue(r.Context(), ctxKeyUser, user)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// userFrom extracts the authenticated user placed by requireAuth.
func userFrom(r *http.Request) (ledger.User, bool) {
	u, ok := r.Context().Value(ctxKeyUser).(ledger.User)
	return u, ok
}
