package handlers

import (
	"net/http"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"reportflow/internal/auth"
	"reportflow/internal/models"
	"reportflow/internal/store"
	"reportflow/internal/util"
)

func ListUsers(st store.Store, lg *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		users, err := st.ListUsers(r.Context())
		if err != nil {
			lg.Errorw("list users", "error", err)
			respondError(w, http.StatusInternalServerError, "could not list users")
			return
		}
		if users == nil {
			users = []models.User{}
		}
		respondJSON(w, users)
	}
}

type createUserReq struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
	Name     string `json:"name" validate:"required"`
	Role     string `json:"role" validate:"required,oneof=admin ae supervisor accounting"`
}

func CreateUser(st store.Store, lg *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req createUserReq
		if err := decodeJSON(w, r, &req); err != nil {
			respondError(w, http.StatusBadRequest, err.Error())
			return
		}
		hash, err := auth.HashPassword(req.Password)
		if err != nil {
			lg.Errorw("hash password", "error", err)
			respondError(w, http.StatusInternalServerError, "could not create user")
			return
		}
		u := &models.User{
			ID:           uuid.NewString(),
			Email:        util.NormalizeEmail(req.Email),
			PasswordHash: hash,
			Name:         strings.TrimSpace(req.Name),
			Role:         models.Role(req.Role),
			IsActive:     true,
		}
		if err := st.CreateUser(r.Context(), u); err != nil {
			writeStoreError(w, lg, err, "create user")
			return
		}
		audit(r.Context(), st, lg, auth.Subject(r.Context()), "", "user_created", map[string]any{"user_id": u.ID, "role": u.Role})
		respondStatus(w, http.StatusCreated, u)
	}
}

func GetUser(st store.Store, lg *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := idParam(w, r)
		if !ok {
			return
		}
		u, err := st.GetUser(r.Context(), id)
		if err != nil {
			writeStoreError(w, lg, err, "get user")
			return
		}
		respondJSON(w, u)
	}
}

type updateUserReq struct {
	Email    *string `json:"email" validate:"omitempty,email"`
	Name     *string `json:"name" validate:"omitempty,min=1"`
	Role     *string `json:"role" validate:"omitempty,oneof=admin ae supervisor accounting"`
	IsActive *bool   `json:"is_active"`
	Password *string `json:"password" validate:"omitempty,min=6"`
}

func UpdateUser(st store.Store, lg *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req updateUserReq
		if err := decodeJSON(w, r, &req); err != nil {
			respondError(w, http.StatusBadRequest, err.Error())
			return
		}
		id, ok := idParam(w, r)
		if !ok {
			return
		}
		u, err := st.GetUser(r.Context(), id)
		if err != nil {
			writeStoreError(w, lg, err, "get user")
			return
		}
		self := u.ID == auth.Subject(r.Context())
		if self && ((req.IsActive != nil && !*req.IsActive) || (req.Role != nil && models.Role(*req.Role) != models.RoleAdmin)) {
			respondError(w, http.StatusBadRequest, "cannot deactivate or demote your own account")
			return
		}
		if req.Email != nil {
			u.Email = util.NormalizeEmail(*req.Email)
		}
		if req.Name != nil {
			u.Name = strings.TrimSpace(*req.Name)
		}
		if req.Role != nil {
			u.Role = models.Role(*req.Role)
		}
		if req.IsActive != nil {
			u.IsActive = *req.IsActive
		}
		if req.Password != nil {
			hash, err := auth.HashPassword(*req.Password)
			if err != nil {
				lg.Errorw("hash password", "error", err)
				respondError(w, http.StatusInternalServerError, "could not update user")
				return
			}
			u.PasswordHash = hash
		}
		if err := st.UpdateUser(r.Context(), u); err != nil {
			writeStoreError(w, lg, err, "update user")
			return
		}
		audit(r.Context(), st, lg, auth.Subject(r.Context()), "", "user_updated", map[string]any{"user_id": u.ID})
		respondJSON(w, u)
	}
}

// DeleteUser deactivates the account; reports keep their creator.
func DeleteUser(st store.Store, lg *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := idParam(w, r)
		if !ok {
			return
		}
		if id == auth.Subject(r.Context()) {
			respondError(w, http.StatusBadRequest, "cannot deactivate your own account")
			return
		}
		u, err := st.GetUser(r.Context(), id)
		if err != nil {
			writeStoreError(w, lg, err, "get user")
			return
		}
		u.IsActive = false
		if err := st.UpdateUser(r.Context(), u); err != nil {
			writeStoreError(w, lg, err, "deactivate user")
			return
		}
		audit(r.Context(), st, lg, auth.Subject(r.Context()), "", "user_deactivated", map[string]any{"user_id": u.ID})
		respondJSON(w, map[string]any{"message": "user deactivated"})
	}
}
