package drafting

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"go.uber.org/zap"

	"reportflow/internal/models"
)

var sampleEntries = []models.HarvestEntry{
	{ProjectName: "Media Relations", TaskName: "Social Media Management", Hours: 8.5, Notes: "Updated social calendars"},
	{ProjectName: "Event Planning", TaskName: "NOWFE Wine Dinner", Hours: 4, Notes: "Coordinated interviews"},
	{ProjectName: "Media Relations", TaskName: "Social Media Management", Hours: 1.5},
}

func TestSummarizeGroupsByProjectAndTask(t *testing.T) {
	groups := Summarize(sampleEntries)
	if len(groups) != 2 {
		t.Fatalf("groups = %d, want 2", len(groups))
	}
	if groups[0].Project != "Media Relations" || groups[0].TotalHours != 10 || len(groups[0].Notes) != 1 {
		t.Fatalf("unexpected first group %+v", groups[0])
	}
}

func TestDraftWithoutKeyUsesTemplate(t *testing.T) {
	g := New(Config{}, zap.NewNop().Sugar())
	content, src := g.Draft(context.Background(), Request{ClientName: "BESH", ReportPeriod: "May 2024", Entries: sampleEntries})
	if src != models.ContentTemplate {
		t.Fatalf("source = %s", src)
	}
	for _, want := range []string{"COMPLETED PROJECTS & RESULTS", "ACTION ITEMS FOR TEG", "ACTION ITEMS FOR CLIENT", "Media Relations - Social Media Management (10 hours)", "Total hours: 14"} {
		if !strings.Contains(content, want) {
			t.Errorf("template missing %q:\n%s", want, content)
		}
	}
}

func TestDraftUsesCompletion(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, "/chat/completions") {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		var body struct {
			Model     string `json:"model"`
			MaxTokens int    `json:"max_tokens"`
			Messages  []struct {
				Content string `json:"content"`
			} `json:"messages"`
		}
		_ = json.NewDecoder(r.Body).Decode(&body)
		if body.MaxTokens != maxTokens || len(body.Messages) != 2 || !strings.Contains(body.Messages[1].Content, "BESH") {
			t.Errorf("unexpected request %+v", body)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"x","object":"chat.completion","choices":[{"index":0,"message":{"role":"assistant","content":"Generated report"},"finish_reason":"stop"}]}`))
	}))
	defer srv.Close()

	g := New(Config{APIKey: "sk-test", BaseURL: srv.URL + "/v1"}, zap.NewNop().Sugar())
	content, src := g.Draft(context.Background(), Request{ClientName: "BESH", ReportPeriod: "May 2024", Entries: sampleEntries})
	if src != models.ContentAI || content != "Generated report" {
		t.Fatalf("got %q from %s", content, src)
	}
}

func TestDraftFallsBackOnAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error":{"message":"boom","type":"server_error"}}`))
	}))
	defer srv.Close()

	g := New(Config{APIKey: "sk-test", BaseURL: srv.URL + "/v1"}, zap.NewNop().Sugar())
	_, src := g.Draft(context.Background(), Request{ClientName: "BESH", Entries: sampleEntries})
	if src != models.ContentTemplate {
		t.Fatalf("source = %s, want template", src)
	}
}

func TestHoursFormatting(t *testing.T) {
	cases := map[float64]string{10: "10", 8.5: "8.5", 0.25: "0.25", 0: "0"}
	for in, want := range cases {
		if got := hours(in); got != want {
			t.Errorf("hours(%v) = %q, want %q", in, got, want)
		}
	}
}
