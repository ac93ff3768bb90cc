package handlers

import (
	"context"
	"net/http"
	"time"

	"go.uber.org/zap"

	"reportflow/internal/services/harvest"
)

// HarvestSource is the read side of the time-tracking integration.
type HarvestSource interface {
	Clients(ctx context.Context) ([]harvest.Client, harvest.Source)
	Projects(ctx context.Context, clientID string) ([]harvest.Project, harvest.Source)
	TimeEntries(ctx context.Context, q harvest.TimeEntryQuery) ([]harvest.TimeEntry, harvest.Source)
}

func HarvestClients(hv HarvestSource, lg *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		data, src := hv.Clients(r.Context())
		respondJSON(w, map[string]any{"data": data, "source": src})
	}
}

func HarvestProjects(hv HarvestSource, lg *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		data, src := hv.Projects(r.Context(), r.URL.Query().Get("client_id"))
		respondJSON(w, map[string]any{"data": data, "source": src})
	}
}

func HarvestTimeEntries(hv HarvestSource, lg *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		from, to := q.Get("from"), q.Get("to")
		if from == "" || to == "" {
			respondError(w, http.StatusBadRequest, "from and to are required")
			return
		}
		fd, err1 := time.Parse(dateLayout, from)
		td, err2 := time.Parse(dateLayout, to)
		if err1 != nil || err2 != nil {
			respondError(w, http.StatusBadRequest, "from and to must be YYYY-MM-DD dates")
			return
		}
		if td.Before(fd) {
			respondError(w, http.StatusBadRequest, "to must not be before from")
			return
		}
		data, src := hv.TimeEntries(r.Context(), harvest.TimeEntryQuery{
			From:       from,
			To:         to,
			ClientID:   q.Get("client_id"),
			ClientName: q.Get("client"),
			ProjectID:  q.Get("project"),
		})
		respondJSON(w, map[string]any{"data": data, "source": src})
	}
}
