package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/akorchak/fleet-dispatch/internal/domain"
)

// TokenVerifier resolves a bearer token to the user id it was issued for.
type TokenVerifier interface {
	Verify(token string) (uuid.UUID, error)
}

// UserGetter loads a user by id.
type UserGetter interface {
	GetByID(ctx context.Context, id uuid.UUID) (domain.User, error)
}

type contextKey struct{}

var userKey contextKey

// UserFromContext returns the authenticated user stored by Authenticator.
func UserFromContext(ctx context.Context) (domain.User, bool) {
	user, ok := ctx.Value(userKey).(domain.User)
	return user, ok
}

// NewAuthenticator returns a middleware that resolves the Authorization
// bearer token to a user and stores it in the request context. Requests with
// a missing, malformed, or expired token, or a token whose user no longer
// exists, are rejected with 401.
func NewAuthenticator(tokens TokenVerifier, users UserGetter) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
			if !ok || raw == "" {
				writeAuthError(w, http.StatusUnauthorized, "missing bearer token")
				return
			}

			userID, err := tokens.Verify(raw)
			if err != nil {
				writeAuthError(w, http.StatusUnauthorized, "invalid or expired token")
				return
			}
			user, err := users.GetByID(r.Context(), userID)
			if err != nil {
				writeAuthError(w, http.StatusUnauthorized, "invalid or expired token")
				return
			}

			ctx := context.WithValue(r.Context(), userKey, user)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireRole returns a middleware that rejects authenticated requests whose
// user does not hold the given role. Wire it after NewAuthenticator.
func RequireRole(role domain.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user, ok := UserFromContext(r.Context())
			if !ok {
				writeAuthError(w, http.StatusUnauthorized, "missing bearer token")
				return
			}
			if user.Role != role {
				writeAuthError(w, http.StatusForbidden, "this endpoint is for "+string(role)+"s")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// writeAuthError writes the API error envelope. Duplicated from the handler
// package to keep the import direction handler -> middleware.
func writeAuthError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"status": "error",
		"errors": message,
	})
}
