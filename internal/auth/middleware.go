package auth

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"reportflow/internal/models"
)

func writeError(w http.ResponseWriter, code int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": msg})
}

// BearerToken extracts the token from an Authorization header.
func BearerToken(r *http.Request) string {
	h := r.Header.Get("Authorization")
	if len(h) < 7 || !strings.EqualFold(h[:7], "Bearer ") {
		return ""
	}
	return strings.TrimSpace(h[7:])
}

func Authenticate(m *SessionManager) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw := BearerToken(r)
			if raw == "" {
				writeError(w, http.StatusUnauthorized, "missing bearer token")
				return
			}
			u, sess, err := m.Resolve(r.Context(), raw)
			switch {
			case err == nil:
			case errors.Is(err, ErrSessionExpired):
				writeError(w, http.StatusUnauthorized, "session expired")
				return
			case errors.Is(err, ErrInvalidToken), errors.Is(err, ErrInactiveUser):
				writeError(w, http.StatusUnauthorized, err.Error())
				return
			default:
				writeError(w, http.StatusInternalServerError, "authentication failed")
				return
			}
			next.ServeHTTP(w, r.WithContext(WithUser(r.Context(), u, sess.Token)))
		})
	}
}

func RequireRole(roles ...models.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if UserFromContext(r.Context()) == nil {
				writeError(w, http.StatusUnauthorized, "not authenticated")
				return
			}
			if !HasRole(r.Context(), roles...) {
				writeError(w, http.StatusForbidden, "forbidden")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
