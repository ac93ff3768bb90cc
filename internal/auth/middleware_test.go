package auth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"reportflow/internal/models"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if UserFromContext(r.Context()) == nil {
			w.WriteHeader(http.StatusTeapot)
			return
		}
		w.WriteHeader(http.StatusOK)
	})
}

func TestAuthenticateMiddleware(t *testing.T) {
	m, _, u := newTestManager(t)
	iss, _ := m.Issue(context.Background(), u)
	h := Authenticate(m)(okHandler())

	cases := []struct {
		name   string
		header string
		want   int
	}{
		{"missing", "", http.StatusUnauthorized},
		{"wrong scheme", "Basic abc", http.StatusUnauthorized},
		{"garbage", "Bearer nope", http.StatusUnauthorized},
		{"valid", "Bearer " + iss.Token, http.StatusOK},
		{"lowercase scheme", "bearer " + iss.Token, http.StatusOK},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/auth/me", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			rr := httptest.NewRecorder()
			h.ServeHTTP(rr, req)
			if rr.Code != tc.want {
				t.Fatalf("status = %d, want %d", rr.Code, tc.want)
			}
		})
	}
}

func TestRequireRole(t *testing.T) {
	h := RequireRole(models.RoleAdmin)(okHandler())

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/users", nil))
	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without user, got %d", rr.Code)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/users", nil)
	req = req.WithContext(WithUser(req.Context(), &models.User{ID: "u", Role: models.RoleAE}, "s"))
	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	if rr.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for ae, got %d", rr.Code)
	}

	req = req.WithContext(WithUser(req.Context(), &models.User{ID: "u", Role: models.RoleAdmin}, "s"))
	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200 for admin, got %d", rr.Code)
	}
}
