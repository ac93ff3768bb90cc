package httpserver

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"reportflow/internal/auth"
	"reportflow/internal/httpserver/handlers"
	"reportflow/internal/metrics"
	"reportflow/internal/models"
	"reportflow/internal/store"
)

type Deps struct {
	Store     store.Store
	Sessions  *auth.SessionManager
	Harvest   handlers.HarvestSource
	Populator handlers.Populator
	Logger    *zap.SugaredLogger

	FrontendURL        string
	LoginRatePerMinute int
	LoginRateBurst     int
	// TrustProxy honours X-Forwarded-For/X-Real-IP. Only enable it behind a
	// proxy that overwrites those headers; otherwise clients choose their
	// own rate-limit key.
	TrustProxy bool
	// RequestLogging toggles chi's access log; tests turn it off.
	RequestLogging bool
}

func NewRouter(d Deps) http.Handler {
	st, lg := d.Store, d.Logger
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	if d.TrustProxy {
		r.Use(middleware.RealIP)
	}
	r.Use(middleware.Recoverer)
	if d.RequestLogging {
		r.Use(middleware.Logger)
	}
	r.Use(metrics.Instrument)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   allowedOrigins(d.FrontendURL),
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Authorization", "Content-Type", "X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           600,
	}))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":"OK","timestamp":"` + time.Now().UTC().Format(time.RFC3339) + `"}`))
	})
	r.Handle("/metrics", metrics.Handler())

	limiter := newIPLimiter(d.LoginRatePerMinute, d.LoginRateBurst)
	r.Route("/api", func(api chi.Router) {
		api.With(limiter.Middleware).Post("/auth/login", handlers.Login(d.Sessions, st, lg))

		api.Group(func(protected chi.Router) {
			protected.Use(auth.Authenticate(d.Sessions))
			protected.Get("/auth/me", handlers.Me(lg))
			protected.Post("/auth/logout", handlers.Logout(d.Sessions, st, lg))

			protected.Get("/reports", handlers.ListReports(st, lg))
			protected.With(auth.RequireRole(models.RoleAE, models.RoleAdmin)).
				Post("/reports", handlers.CreateReport(st, d.Populator, lg))
			protected.Get("/reports/{id}", handlers.GetReport(st, lg))
			protected.Put("/reports/{id}", handlers.UpdateReport(st, lg))
			protected.Post("/reports/{id}/approve", handlers.ApproveReport(st, lg))
			protected.Patch("/reports/{id}/status", handlers.UpdateReportStatus(st, lg))

			protected.Group(func(admin chi.Router) {
				admin.Use(auth.RequireRole(models.RoleAdmin))
				admin.Get("/users", handlers.ListUsers(st, lg))
				admin.Post("/users", handlers.CreateUser(st, lg))
				admin.Get("/users/{id}", handlers.GetUser(st, lg))
				admin.Put("/users/{id}", handlers.UpdateUser(st, lg))
				admin.Delete("/users/{id}", handlers.DeleteUser(st, lg))
			})

			protected.Get("/harvest/clients", handlers.HarvestClients(d.Harvest, lg))
			protected.Get("/harvest/projects", handlers.HarvestProjects(d.Harvest, lg))
			protected.Get("/harvest/time-entries", handlers.HarvestTimeEntries(d.Harvest, lg))

			protected.Get("/dashboard/stats", handlers.DashboardStats(st, lg))
			protected.Get("/audit", handlers.MyLogs(st, lg))
		})
	})
	return r
}

func allowedOrigins(frontend string) []string {
	if frontend == "" {
		return []string{"http://localhost:3000"}
	}
	return []string{frontend}
}
