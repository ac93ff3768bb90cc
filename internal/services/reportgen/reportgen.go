// Package reportgen fills a freshly created report with cached time entries
// and a drafted body.
package reportgen

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"reportflow/internal/models"
	"reportflow/internal/services/drafting"
	"reportflow/internal/services/harvest"
	"reportflow/internal/store"
)

const dateLayout = "2006-01-02"

type EntryFetcher interface {
	TimeEntries(ctx context.Context, q harvest.TimeEntryQuery) ([]harvest.TimeEntry, harvest.Source)
}

type Drafter interface {
	Draft(ctx context.Context, req drafting.Request) (string, models.ContentSource)
}

type Populator struct {
	store   store.Store
	entries EntryFetcher
	drafter Drafter
	lg      *zap.SugaredLogger
}

func New(st store.Store, entries EntryFetcher, drafter Drafter, lg *zap.SugaredLogger) *Populator {
	return &Populator{store: st, entries: entries, drafter: drafter, lg: lg}
}

// Result is what Populate managed to attach to the report.
type Result struct {
	Entries       []models.HarvestEntry
	Source        harvest.Source
	Content       string
	ContentSource models.ContentSource
}

// Populate fetches time entries for r, caches them and drafts content while
// the report is still a draft. Each step is independent: failures are logged
// and the remaining steps still run.
func (p *Populator) Populate(ctx context.Context, r *models.Report) Result {
	raw, src := p.entries.TimeEntries(ctx, harvest.TimeEntryQuery{
		From:       r.StartDate.Format(dateLayout),
		To:         r.EndDate.Format(dateLayout),
		ClientName: r.ClientName,
	})
	res := Result{Entries: Convert(r.ID, raw), Source: src, Content: r.Content, ContentSource: r.ContentSource}

	if err := p.store.ReplaceHarvestEntries(ctx, r.ID, res.Entries); err != nil {
		p.lg.Warnw("cache time entries failed", "report_id", r.ID, "error", err)
	}

	if r.Content != "" {
		return res
	}
	content, cs := p.drafter.Draft(ctx, drafting.Request{
		ClientName:   r.ClientName,
		ReportPeriod: r.ReportPeriod,
		Entries:      res.Entries,
	})
	err := p.store.UpdateReportFields(ctx, r.ID, models.StatusDraft, map[string]any{
		"content":        content,
		"content_source": cs,
	})
	if err != nil {
		p.lg.Warnw("store drafted content failed", "report_id", r.ID, "error", err)
		return res
	}
	r.Content, r.ContentSource = content, cs
	res.Content, res.ContentSource = content, cs
	return res
}

// Convert maps Harvest entries onto cached rows for reportID. Entries with
// an unparseable date are dropped.
func Convert(reportID string, in []harvest.TimeEntry) []models.HarvestEntry {
	out := make([]models.HarvestEntry, 0, len(in))
	for _, e := range in {
		d, err := time.Parse(dateLayout, e.SpentDate)
		if err != nil {
			continue
		}
		out = append(out, models.HarvestEntry{
			ID:          uuid.NewString(),
			ReportID:    reportID,
			Date:        d,
			Hours:       e.Hours,
			ClientName:  e.Client.Name,
			ProjectName: e.Project.Name,
			TaskName:    e.Task.Name,
			Notes:       e.Notes,
			UserName:    e.User.Name,
		})
	}
	return out
}
