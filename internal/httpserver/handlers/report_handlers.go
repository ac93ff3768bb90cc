package handlers

import (
	"context"
	"errors"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"reportflow/internal/approval"
	"reportflow/internal/auth"
	"reportflow/internal/metrics"
	"reportflow/internal/models"
	"reportflow/internal/services/reportgen"
	"reportflow/internal/store"
)

const (
	dateLayout   = "2006-01-02"
	defaultLimit = 10
	maxLimit     = 100
)

// Populator fills a new report with time entries and drafted content.
type Populator interface {
	Populate(ctx context.Context, r *models.Report) reportgen.Result
}

type reportDetail struct {
	*models.Report
	Approvals      []models.Approval     `json:"approvals"`
	HarvestEntries []models.HarvestEntry `json:"harvest_entries"`
}

func ListReports(st store.Store, lg *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		f := store.ReportFilter{ClientName: strings.TrimSpace(q.Get("client_name"))}
		if s := q.Get("status"); s != "" {
			f.Status = models.ReportStatus(s)
			if !f.Status.Valid() {
				respondError(w, http.StatusBadRequest, "unknown status "+strconv.Quote(s))
				return
			}
		}
		for key, dst := range map[string]**time.Time{"start_date": &f.StartFrom, "end_date": &f.StartTo} {
			if v := q.Get(key); v != "" {
				d, err := time.Parse(dateLayout, v)
				if err != nil {
					respondError(w, http.StatusBadRequest, key+" must be a YYYY-MM-DD date")
					return
				}
				*dst = &d
			}
		}
		f.Page = positiveInt(q.Get("page"), 1)
		f.Limit = positiveInt(q.Get("limit"), defaultLimit)
		if f.Limit > maxLimit {
			f.Limit = maxLimit
		}
		if u := auth.UserFromContext(r.Context()); isAE(u) {
			f.CreatedByID = u.ID
		}

		reports, total, err := st.ListReports(r.Context(), f)
		if err != nil {
			lg.Errorw("list reports", "error", err)
			respondError(w, http.StatusInternalServerError, "could not list reports")
			return
		}
		if reports == nil {
			reports = []models.Report{}
		}
		respondJSON(w, map[string]any{
			"reports": reports,
			"pagination": map[string]any{
				"page":  f.Page,
				"limit": f.Limit,
				"total": total,
				"pages": int(math.Ceil(float64(total) / float64(f.Limit))),
			},
		})
	}
}

type createReportReq struct {
	Title        string `json:"title"`
	ClientName   string `json:"client_name" validate:"required"`
	ReportPeriod string `json:"report_period"`
	StartDate    string `json:"start_date" validate:"required,datetime=2006-01-02"`
	EndDate      string `json:"end_date" validate:"required,datetime=2006-01-02"`
	Content      string `json:"content"`
}

func CreateReport(st store.Store, pop Populator, lg *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req createReportReq
		if err := decodeJSON(w, r, &req); err != nil {
			respondError(w, http.StatusBadRequest, err.Error())
			return
		}
		start, _ := time.Parse(dateLayout, req.StartDate)
		end, _ := time.Parse(dateLayout, req.EndDate)
		if end.Before(start) {
			respondError(w, http.StatusBadRequest, "end_date must not be before start_date")
			return
		}
		client := strings.TrimSpace(req.ClientName)
		period := strings.TrimSpace(req.ReportPeriod)
		if period == "" {
			period = periodLabel(start, end)
		}
		title := strings.TrimSpace(req.Title)
		if title == "" {
			title = client + " - " + period
		}
		u := auth.UserFromContext(r.Context())
		rep := &models.Report{
			ID:           uuid.NewString(),
			Title:        title,
			ClientName:   client,
			ReportPeriod: period,
			StartDate:    start,
			EndDate:      end,
			Content:      req.Content,
			Status:       models.StatusDraft,
			CreatedByID:  u.ID,
		}
		if rep.Content != "" {
			rep.ContentSource = models.ContentManual
		}
		if err := st.CreateReport(r.Context(), rep); err != nil {
			lg.Errorw("create report", "error", err)
			respondError(w, http.StatusInternalServerError, "could not create report")
			return
		}
		res := pop.Populate(r.Context(), rep)
		audit(r.Context(), st, lg, u.ID, rep.ID, "report_created", map[string]any{
			"client_name":    rep.ClientName,
			"entries":        len(res.Entries),
			"harvest_source": res.Source,
			"content_source": rep.ContentSource,
		})
		respondStatus(w, http.StatusCreated, map[string]any{
			"report":          rep,
			"harvest_entries": res.Entries,
			"harvest_source":  res.Source,
		})
	}
}

func GetReport(st store.Store, lg *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rep, ok := loadReport(w, r, st, lg)
		if !ok {
			return
		}
		approvals, err := st.ListApprovals(r.Context(), rep.ID)
		if err != nil {
			lg.Errorw("list approvals", "report_id", rep.ID, "error", err)
			respondError(w, http.StatusInternalServerError, "could not load report")
			return
		}
		entries, err := st.ListHarvestEntries(r.Context(), rep.ID)
		if err != nil {
			lg.Errorw("list harvest entries", "report_id", rep.ID, "error", err)
			respondError(w, http.StatusInternalServerError, "could not load report")
			return
		}
		if approvals == nil {
			approvals = []models.Approval{}
		}
		if entries == nil {
			entries = []models.HarvestEntry{}
		}
		respondJSON(w, reportDetail{Report: rep, Approvals: approvals, HarvestEntries: entries})
	}
}

type updateReportReq struct {
	Title   *string `json:"title"`
	Content *string `json:"content"`
}

// UpdateReport edits a draft. Only the creator or an admin may do so.
func UpdateReport(st store.Store, lg *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req updateReportReq
		if err := decodeJSON(w, r, &req); err != nil {
			respondError(w, http.StatusBadRequest, err.Error())
			return
		}
		rep, ok := loadReport(w, r, st, lg)
		if !ok {
			return
		}
		u := auth.UserFromContext(r.Context())
		if rep.CreatedByID != u.ID && u.Role != models.RoleAdmin {
			respondError(w, http.StatusForbidden, "only the creator can edit this report")
			return
		}
		if rep.Status != models.StatusDraft {
			respondError(w, http.StatusConflict, "only draft reports can be edited")
			return
		}
		fields := map[string]any{}
		if req.Title != nil {
			t := strings.TrimSpace(*req.Title)
			if t == "" {
				respondError(w, http.StatusBadRequest, "title must not be empty")
				return
			}
			fields["title"] = t
		}
		if req.Content != nil {
			fields["content"] = *req.Content
			fields["content_source"] = models.ContentManual
		}
		if len(fields) == 0 {
			respondError(w, http.StatusBadRequest, "nothing to update")
			return
		}
		if err := st.UpdateReportFields(r.Context(), rep.ID, models.StatusDraft, fields); err != nil {
			writeStoreError(w, lg, err, "update report")
			return
		}
		updated, err := st.GetReport(r.Context(), rep.ID)
		if err != nil {
			writeStoreError(w, lg, err, "reload report")
			return
		}
		audit(r.Context(), st, lg, u.ID, rep.ID, "report_updated", nil)
		respondJSON(w, updated)
	}
}

type approveReq struct {
	Action   string `json:"action" validate:"required"`
	Comments string `json:"comments"`
}

// ApproveReport applies {action: approve|reject} to the report's current stage.
func ApproveReport(st store.Store, lg *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req approveReq
		if err := decodeJSON(w, r, &req); err != nil {
			respondError(w, http.StatusBadRequest, err.Error())
			return
		}
		action, err := approval.ParseAction(req.Action)
		if err != nil {
			respondError(w, http.StatusBadRequest, "action must be approve or reject")
			return
		}
		transition(w, r, st, lg, req.Comments, func(current models.ReportStatus, role models.Role) (approval.Transition, error) {
			return approval.Decide(current, role, action)
		})
	}
}

type statusReq struct {
	Status   string `json:"status" validate:"required"`
	Comments string `json:"comments"`
}

// UpdateReportStatus moves the report to an explicit target status, which
// must be the one the approval chain allows next.
func UpdateReportStatus(st store.Store, lg *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req statusReq
		if err := decodeJSON(w, r, &req); err != nil {
			respondError(w, http.StatusBadRequest, err.Error())
			return
		}
		target := models.ReportStatus(strings.TrimSpace(req.Status))
		transition(w, r, st, lg, req.Comments, func(current models.ReportStatus, role models.Role) (approval.Transition, error) {
			return approval.DecideTarget(current, role, target)
		})
	}
}

type decideFunc func(current models.ReportStatus, role models.Role) (approval.Transition, error)

func transition(w http.ResponseWriter, r *http.Request, st store.Store, lg *zap.SugaredLogger, comments string, decide decideFunc) {
	rep, ok := loadReport(w, r, st, lg)
	if !ok {
		return
	}
	u := auth.UserFromContext(r.Context())
	t, err := decide(rep.Status, u.Role)
	if err != nil {
		writeApprovalError(w, err)
		return
	}
	now := time.Now().UTC()
	approval.Apply(rep, t, u.ID, now)
	a := &models.Approval{
		ID:         uuid.NewString(),
		ReportID:   rep.ID,
		UserID:     u.ID,
		Role:       u.Role,
		Action:     string(t.Action),
		FromStatus: t.From,
		ToStatus:   t.To,
		Comments:   strings.TrimSpace(comments),
		CreatedAt:  now,
	}
	if err := st.TransitionReport(r.Context(), rep.ID, t.From, approval.Columns(rep, t), a); err != nil {
		writeStoreError(w, lg, err, "transition report")
		return
	}
	metrics.ReportTransitions.WithLabelValues(string(t.To)).Inc()
	audit(r.Context(), st, lg, u.ID, rep.ID, "report_"+string(t.Action), map[string]any{
		"from": t.From,
		"to":   t.To,
	})
	lg.Infow("report transitioned", "report_id", rep.ID, "from", t.From, "to", t.To, "by", u.ID)
	respondJSON(w, map[string]any{"report": rep, "approval": a})
}

// loadReport fetches {id} and enforces that AEs only see their own reports.
func loadReport(w http.ResponseWriter, r *http.Request, st store.Store, lg *zap.SugaredLogger) (*models.Report, bool) {
	id, ok := idParam(w, r)
	if !ok {
		return nil, false
	}
	rep, err := st.GetReport(r.Context(), id)
	if err != nil {
		writeStoreError(w, lg, err, "get report")
		return nil, false
	}
	if u := auth.UserFromContext(r.Context()); isAE(u) && rep.CreatedByID != u.ID {
		respondError(w, http.StatusForbidden, "access denied")
		return nil, false
	}
	return rep, true
}

func writeStoreError(w http.ResponseWriter, lg *zap.SugaredLogger, err error, op string) {
	switch {
	case errors.Is(err, store.ErrNotFound):
		respondError(w, http.StatusNotFound, "not found")
	case errors.Is(err, store.ErrConflict):
		respondError(w, http.StatusConflict, "report was changed by another request")
	case errors.Is(err, store.ErrDuplicateEmail):
		respondError(w, http.StatusConflict, "email already registered")
	default:
		lg.Errorw(op, "error", err)
		respondError(w, http.StatusInternalServerError, "internal error")
	}
}

func writeApprovalError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, approval.ErrNotPermitted):
		respondError(w, http.StatusForbidden, err.Error())
	case errors.Is(err, approval.ErrUnknownAction):
		respondError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, approval.ErrFinalized), errors.Is(err, approval.ErrInvalidTransition):
		respondError(w, http.StatusConflict, err.Error())
	default:
		respondError(w, http.StatusInternalServerError, "internal error")
	}
}

func positiveInt(s string, def int) int {
	n, err := strconv.Atoi(s)
	if err != nil || n < 1 {
		return def
	}
	return n
}

// periodLabel names a date range: "May 2024" for a single month.
func periodLabel(start, end time.Time) string {
	if start.Year() == end.Year() && start.Month() == end.Month() {
		return start.Format("January 2006")
	}
	return start.Format("Jan 2, 2006") + " - " + end.Format("Jan 2, 2006")
}
