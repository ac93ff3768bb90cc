package handlers

import (
	"net/http"
	"time"

	"go.uber.org/zap"

	"reportflow/internal/auth"
	"reportflow/internal/models"
	"reportflow/internal/store"
)

// DashboardStats summarizes reports for the current calendar month. AEs
// only count their own reports.
func DashboardStats(st store.Store, lg *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		now := time.Now().UTC()
		start := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
		f := store.StatsFilter{MonthStart: start, MonthEnd: start.AddDate(0, 1, 0)}
		if u := auth.UserFromContext(r.Context()); isAE(u) {
			f.CreatedByID = u.ID
		}
		stats, err := st.ReportStats(r.Context(), f)
		if err != nil {
			lg.Errorw("report stats", "error", err)
			respondError(w, http.StatusInternalServerError, "could not load stats")
			return
		}
		if stats.RecentReports == nil {
			stats.RecentReports = []models.Report{}
		}
		respondJSON(w, stats)
	}
}
