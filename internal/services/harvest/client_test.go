package harvest

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"go.uber.org/zap"
)

func newTestAPI(t *testing.T, h http.HandlerFunc) *API {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return New(Config{BaseURL: srv.URL, AccessToken: "tok", AccountID: "42"}, zap.NewNop().Sugar())
}

func TestUnconfiguredFallsBackToMock(t *testing.T) {
	api := New(Config{}, zap.NewNop().Sugar())
	clients, src := api.Clients(context.Background())
	if src != SourceMock || len(clients) != 2 {
		t.Fatalf("clients = %d from %s", len(clients), src)
	}
	projects, _ := api.Projects(context.Background(), "2")
	if len(projects) != 1 || projects[0].Name != "Crisis Communications" {
		t.Fatalf("unexpected mock projects %+v", projects)
	}
	entries, src := api.TimeEntries(context.Background(), TimeEntryQuery{From: "2024-05-01", To: "2024-05-15"})
	if src != SourceMock || len(entries) != 1 {
		t.Fatalf("entries = %d from %s", len(entries), src)
	}
}

func TestTimeEntriesSendsHeadersAndPaginates(t *testing.T) {
	var calls int
	api := newTestAPI(t, func(w http.ResponseWriter, r *http.Request) {
		calls++
		if r.URL.Path != "/time_entries" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if r.Header.Get("Authorization") != "Bearer tok" || r.Header.Get("Harvest-Account-ID") != "42" {
			t.Errorf("missing auth headers: %v", r.Header)
		}
		if r.URL.Query().Get("from") != "2024-06-01" {
			t.Errorf("from not forwarded: %s", r.URL.RawQuery)
		}
		resp := map[string]any{}
		switch r.URL.Query().Get("page") {
		case "1":
			resp["time_entries"] = []TimeEntry{{ID: 1, SpentDate: "2024-06-02", Hours: 2, Client: Ref{Name: "Acme Corp"}}}
			resp["next_page"] = 2
		default:
			resp["time_entries"] = []TimeEntry{{ID: 2, SpentDate: "2024-06-03", Hours: 3, Client: Ref{Name: "Other Co"}}}
			resp["next_page"] = nil
		}
		_ = json.NewEncoder(w).Encode(resp)
	})

	entries, src := api.TimeEntries(context.Background(), TimeEntryQuery{From: "2024-06-01", To: "2024-06-30"})
	if src != SourceHarvest || len(entries) != 2 || calls != 2 {
		t.Fatalf("entries=%d src=%s calls=%d", len(entries), src, calls)
	}

	entries, _ = api.TimeEntries(context.Background(), TimeEntryQuery{From: "2024-06-01", To: "2024-06-30", ClientName: "acme"})
	if len(entries) != 1 || entries[0].ID != 1 {
		t.Fatalf("client name filter failed: %+v", entries)
	}
}

func TestServerErrorFallsBack(t *testing.T) {
	api := newTestAPI(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"invalid_token"}`, http.StatusUnauthorized)
	})
	clients, src := api.Clients(context.Background())
	if src != SourceMock || len(clients) != len(mockClients) {
		t.Fatalf("expected mock clients, got %d from %s", len(clients), src)
	}
}

func TestMalformedBodyFallsBack(t *testing.T) {
	api := newTestAPI(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("<html>"))
	})
	_, src := api.Projects(context.Background(), "")
	if src != SourceMock {
		t.Fatalf("expected mock source, got %s", src)
	}
}

func TestFilterEntries(t *testing.T) {
	got := filterEntries(mockEntries, TimeEntryQuery{ProjectID: "2"})
	if len(got) != 1 || got[0].Task.Name != "NOWFE Wine Dinner" {
		t.Fatalf("project filter: %+v", got)
	}
	got = filterEntries(mockEntries, TimeEntryQuery{ClientName: "ochsner"})
	if len(got) != 0 {
		t.Fatalf("client name filter: %+v", got)
	}
}
