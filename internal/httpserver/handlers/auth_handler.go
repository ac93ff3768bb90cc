package handlers

import (
	"errors"
	"net/http"

	"go.uber.org/zap"

	"reportflow/internal/auth"
	"reportflow/internal/models"
	"reportflow/internal/store"
)

type loginReq struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

func Login(sm *auth.SessionManager, st store.Store, lg *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req loginReq
		if err := decodeJSON(w, r, &req); err != nil {
			respondError(w, http.StatusBadRequest, err.Error())
			return
		}
		issued, err := sm.Login(r.Context(), req.Email, req.Password)
		switch {
		case err == nil:
		case errors.Is(err, auth.ErrBadCredentials):
			lg.Infow("login failed", "email", req.Email, "ip", r.RemoteAddr)
			respondError(w, http.StatusUnauthorized, "invalid credentials")
			return
		case errors.Is(err, auth.ErrInactiveUser):
			respondError(w, http.StatusUnauthorized, "account is deactivated")
			return
		default:
			lg.Errorw("login", "error", err)
			respondError(w, http.StatusInternalServerError, "login failed")
			return
		}
		audit(r.Context(), st, lg, issued.User.ID, "", "login", nil)
		respondJSON(w, map[string]any{
			"token":      issued.Token,
			"expires_at": issued.ExpiresAt,
			"user":       issued.User,
		})
	}
}

func Me(lg *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		u := auth.UserFromContext(r.Context())
		if u == nil {
			respondError(w, http.StatusUnauthorized, "not authenticated")
			return
		}
		respondJSON(w, u)
	}
}

func Logout(sm *auth.SessionManager, st store.Store, lg *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := sm.Revoke(r.Context(), auth.SessionIDFromContext(r.Context())); err != nil && !errors.Is(err, store.ErrNotFound) {
			lg.Errorw("logout", "error", err)
			respondError(w, http.StatusInternalServerError, "logout failed")
			return
		}
		audit(r.Context(), st, lg, auth.Subject(r.Context()), "", "logout", nil)
		respondJSON(w, map[string]any{"message": "logged out"})
	}
}

// isAE reports whether the caller only sees their own reports.
func isAE(u *models.User) bool {
	return u != nil && u.Role == models.RoleAE
}
