package reportgen

import (
	"context"
	"testing"
	"time"

	"go.uber.org/zap"

	"reportflow/internal/models"
	"reportflow/internal/services/drafting"
	"reportflow/internal/services/harvest"
	"reportflow/internal/store"
)

type stubDrafter struct {
	calls int
	got   drafting.Request
}

func (s *stubDrafter) Draft(_ context.Context, req drafting.Request) (string, models.ContentSource) {
	s.calls++
	s.got = req
	return "drafted", models.ContentTemplate
}

func newReport(t *testing.T, st store.Store, content string) *models.Report {
	t.Helper()
	r := &models.Report{
		Title:        "BESH May",
		ClientName:   "BESH",
		ReportPeriod: "May 2024",
		StartDate:    time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC),
		EndDate:      time.Date(2024, 5, 31, 0, 0, 0, 0, time.UTC),
		Content:      content,
		Status:       models.StatusDraft,
		CreatedByID:  "u1",
	}
	if err := st.CreateReport(context.Background(), r); err != nil {
		t.Fatal(err)
	}
	return r
}

func TestPopulateCachesEntriesAndDrafts(t *testing.T) {
	ctx := context.Background()
	st := store.NewMemory()
	d := &stubDrafter{}
	p := New(st, harvest.New(harvest.Config{}, zap.NewNop().Sugar()), d, zap.NewNop().Sugar())

	r := newReport(t, st, "")
	res := p.Populate(ctx, r)

	if res.Source != harvest.SourceMock || len(res.Entries) != 2 {
		t.Fatalf("source=%s entries=%d", res.Source, len(res.Entries))
	}
	if d.calls != 1 || d.got.ClientName != "BESH" || len(d.got.Entries) != 2 {
		t.Fatalf("drafter not called as expected: %+v", d)
	}
	cached, _ := st.ListHarvestEntries(ctx, r.ID)
	if len(cached) != 2 {
		t.Fatalf("cached %d entries", len(cached))
	}
	got, _ := st.GetReport(ctx, r.ID)
	if got.Content != "drafted" || got.ContentSource != models.ContentTemplate {
		t.Fatalf("report not updated: %+v", got)
	}
}

func TestPopulateKeepsManualContent(t *testing.T) {
	st := store.NewMemory()
	d := &stubDrafter{}
	p := New(st, harvest.New(harvest.Config{}, zap.NewNop().Sugar()), d, zap.NewNop().Sugar())

	r := newReport(t, st, "written by hand")
	res := p.Populate(context.Background(), r)
	if d.calls != 0 || res.Content != "written by hand" {
		t.Fatalf("manual content overwritten: calls=%d content=%q", d.calls, res.Content)
	}
}

func TestPopulateSkipsContentOnceSubmitted(t *testing.T) {
	ctx := context.Background()
	st := store.NewMemory()
	p := New(st, harvest.New(harvest.Config{}, zap.NewNop().Sugar()), &stubDrafter{}, zap.NewNop().Sugar())

	r := newReport(t, st, "")
	if err := st.UpdateReportFields(ctx, r.ID, models.StatusDraft, map[string]any{"status": models.StatusPendingAE}); err != nil {
		t.Fatal(err)
	}
	p.Populate(ctx, r)
	got, _ := st.GetReport(ctx, r.ID)
	if got.Content != "" {
		t.Fatalf("content written after submit: %q", got.Content)
	}
}

func TestConvertDropsBadDates(t *testing.T) {
	out := Convert("r1", []harvest.TimeEntry{
		{SpentDate: "2024-05-02", Hours: 1, Project: harvest.Ref{Name: "P"}},
		{SpentDate: "not-a-date", Hours: 2},
	})
	if len(out) != 1 || out[0].ReportID != "r1" || out[0].ProjectName != "P" {
		t.Fatalf("unexpected %+v", out)
	}
}
