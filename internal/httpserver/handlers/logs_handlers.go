package handlers

import (
	"context"
	"net/http"

	"go.uber.org/zap"

	"reportflow/internal/auth"
	"reportflow/internal/models"
	"reportflow/internal/store"
)

const auditListLimit = 200

// audit records an action; failures are logged and never fail the request.
func audit(ctx context.Context, st store.Store, lg *zap.SugaredLogger, userID, reportID, action string, meta map[string]any) {
	if meta == nil {
		meta = map[string]any{}
	}
	entry := &models.AuditLog{Action: action, Metadata: models.NewJSONB(meta)}
	if userID != "" {
		entry.UserID = &userID
	}
	if reportID != "" {
		entry.ReportID = &reportID
	}
	if err := st.AddAuditLog(ctx, entry); err != nil {
		lg.Warnw("audit log write failed", "action", action, "error", err)
	}
}

// MyLogs returns recent audit logs. Regular users see their own logs.
// Administrators can pass ?all=1 to see recent logs for everyone.
func MyLogs(st store.Store, lg *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		uid := auth.Subject(r.Context())
		if r.URL.Query().Get("all") == "1" && auth.HasRole(r.Context(), models.RoleAdmin) {
			uid = ""
		}
		logs, err := st.ListAuditLogs(r.Context(), uid, auditListLimit)
		if err != nil {
			lg.Errorw("list audit logs", "error", err)
			respondError(w, http.StatusInternalServerError, "could not load logs")
			return
		}
		if logs == nil {
			logs = []models.AuditLog{}
		}
		respondJSON(w, logs)
	}
}
