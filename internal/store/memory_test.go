package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/zap"

	"reportflow/internal/models"
)

func TestMemoryUsersUniqueEmail(t *testing.T) {
	ctx := context.Background()
	st := NewMemory()
	u := &models.User{Email: "ae@example.com", Name: "AE", Role: models.RoleAE}
	if err := st.CreateUser(ctx, u); err != nil {
		t.Fatalf("CreateUser: %v", err)
	}
	if u.ID == "" {
		t.Fatal("expected generated id")
	}
	dup := &models.User{Email: "AE@example.com", Name: "Other", Role: models.RoleAE}
	if err := st.CreateUser(ctx, dup); !errors.Is(err, ErrDuplicateEmail) {
		t.Fatalf("expected ErrDuplicateEmail, got %v", err)
	}
	got, err := st.GetUserByEmail(ctx, "Ae@Example.com")
	if err != nil || got.ID != u.ID {
		t.Fatalf("GetUserByEmail = %+v, %v", got, err)
	}
	if _, err := st.GetUser(ctx, "missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestMemorySessionLifecycle(t *testing.T) {
	ctx := context.Background()
	st := NewMemory()
	s := &models.Session{Token: "tok", UserID: "u1", ExpiresAt: time.Now().Add(time.Hour)}
	if err := st.CreateSession(ctx, s); err != nil {
		t.Fatal(err)
	}
	if _, err := st.GetSession(ctx, "tok"); err != nil {
		t.Fatalf("GetSession: %v", err)
	}
	if err := st.DeleteSession(ctx, "tok"); err != nil {
		t.Fatal(err)
	}
	if _, err := st.GetSession(ctx, "tok"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound after delete, got %v", err)
	}
}

func TestMemoryTransitionCompareAndSet(t *testing.T) {
	ctx := context.Background()
	st := NewMemory()
	r := &models.Report{Title: "May", ClientName: "Acme", Status: models.StatusPendingSupervisor, CreatedByID: "ae"}
	if err := st.CreateReport(ctx, r); err != nil {
		t.Fatal(err)
	}
	cols := map[string]any{"status": models.StatusPendingAccounting}
	a := &models.Approval{ReportID: r.ID, UserID: "sup", Role: models.RoleSupervisor, Action: "approve"}
	if err := st.TransitionReport(ctx, r.ID, models.StatusPendingSupervisor, cols, a); err != nil {
		t.Fatalf("first transition: %v", err)
	}
	// a second request racing on the same stage sees the stale status
	if err := st.TransitionReport(ctx, r.ID, models.StatusPendingSupervisor, cols, a); !errors.Is(err, ErrConflict) {
		t.Fatalf("expected ErrConflict, got %v", err)
	}
	approvals, _ := st.ListApprovals(ctx, r.ID)
	if len(approvals) != 1 {
		t.Fatalf("expected one approval row, got %d", len(approvals))
	}
	got, _ := st.GetReport(ctx, r.ID)
	if got.Status != models.StatusPendingAccounting {
		t.Fatalf("status = %s", got.Status)
	}
	if err := st.TransitionReport(ctx, "nope", models.StatusDraft, cols, nil); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestMemoryUpdateReportFieldsRequiresStatus(t *testing.T) {
	ctx := context.Background()
	st := NewMemory()
	r := &models.Report{Title: "t", Status: models.StatusPendingAE}
	_ = st.CreateReport(ctx, r)
	err := st.UpdateReportFields(ctx, r.ID, models.StatusDraft, map[string]any{"content": "x"})
	if !errors.Is(err, ErrConflict) {
		t.Fatalf("expected ErrConflict, got %v", err)
	}
	if err := st.UpdateReportFields(ctx, r.ID, models.StatusPendingAE, map[string]any{"content": "x", "content_source": models.ContentManual}); err != nil {
		t.Fatal(err)
	}
	got, _ := st.GetReport(ctx, r.ID)
	if got.Content != "x" || got.ContentSource != models.ContentManual {
		t.Fatalf("unexpected report %+v", got)
	}
}

func TestMemoryListReportsFiltersAndPages(t *testing.T) {
	ctx := context.Background()
	st := NewMemory()
	base := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	for i, c := range []string{"Besh Restaurant Group", "Ochsner Health", "besh bakery"} {
		r := &models.Report{ClientName: c, Status: models.StatusDraft, CreatedByID: "ae", StartDate: base.AddDate(0, i, 0)}
		if err := st.CreateReport(ctx, r); err != nil {
			t.Fatal(err)
		}
	}
	got, total, err := st.ListReports(ctx, ReportFilter{ClientName: "BESH"})
	if err != nil || total != 2 || len(got) != 2 {
		t.Fatalf("client filter: %d/%d, %v", len(got), total, err)
	}
	from := base.AddDate(0, 1, 0)
	got, total, _ = st.ListReports(ctx, ReportFilter{StartFrom: &from})
	if total != 2 || len(got) != 2 {
		t.Fatalf("date filter total=%d", total)
	}
	got, total, _ = st.ListReports(ctx, ReportFilter{Page: 2, Limit: 2})
	if total != 3 || len(got) != 1 {
		t.Fatalf("paging: len=%d total=%d", len(got), total)
	}
	got, _, _ = st.ListReports(ctx, ReportFilter{Page: 5, Limit: 2})
	if len(got) != 0 {
		t.Fatalf("expected empty page, got %d", len(got))
	}
}

func TestMemoryStatsScopedByCreator(t *testing.T) {
	ctx := context.Background()
	st := NewMemory()
	now := time.Now()
	for _, r := range []models.Report{
		{CreatedByID: "a", Status: models.StatusApproved},
		{CreatedByID: "a", Status: models.StatusPendingAE},
		{CreatedByID: "a", Status: models.StatusRejected},
		{CreatedByID: "b", Status: models.StatusPendingAccounting},
	} {
		r := r
		_ = st.CreateReport(ctx, &r)
	}
	f := StatsFilter{CreatedByID: "a", MonthStart: now.Add(-time.Hour), MonthEnd: now.Add(time.Hour)}
	stats, err := st.ReportStats(ctx, f)
	if err != nil {
		t.Fatal(err)
	}
	if stats.TotalReports != 3 || stats.PendingApproval != 1 || stats.ApprovedThisMonth != 1 || stats.RejectedThisMonth != 1 {
		t.Fatalf("unexpected stats %+v", stats)
	}
	if len(stats.RecentReports) != 3 {
		t.Fatalf("recent = %d", len(stats.RecentReports))
	}
	f.CreatedByID = ""
	stats, _ = st.ReportStats(ctx, f)
	if stats.TotalReports != 4 || stats.PendingApproval != 2 {
		t.Fatalf("unscoped stats %+v", stats)
	}
}

func TestMemoryAuditNewestFirst(t *testing.T) {
	ctx := context.Background()
	st := NewMemory()
	a, b := "a", "b"
	_ = st.AddAuditLog(ctx, &models.AuditLog{UserID: &a, Action: "LOGIN"})
	_ = st.AddAuditLog(ctx, &models.AuditLog{UserID: &b, Action: "LOGIN"})
	_ = st.AddAuditLog(ctx, &models.AuditLog{UserID: &a, Action: "REPORT_CREATE"})

	logs, _ := st.ListAuditLogs(ctx, "a", 10)
	if len(logs) != 2 || logs[0].Action != "REPORT_CREATE" {
		t.Fatalf("unexpected logs %+v", logs)
	}
	logs, _ = st.ListAuditLogs(ctx, "", 2)
	if len(logs) != 2 {
		t.Fatalf("limit not applied: %d", len(logs))
	}
}

func TestSeedUsersIdempotent(t *testing.T) {
	ctx := context.Background()
	st := NewMemory()
	lg := zap.NewNop().Sugar()
	if err := SeedUsers(ctx, st, lg); err != nil {
		t.Fatalf("SeedUsers: %v", err)
	}
	if err := SeedUsers(ctx, st, lg); err != nil {
		t.Fatalf("SeedUsers second run: %v", err)
	}
	users, _ := st.ListUsers(ctx)
	if len(users) != len(defaultUsers) {
		t.Fatalf("expected %d users, got %d", len(defaultUsers), len(users))
	}
	for _, u := range users {
		if u.PasswordHash == "" || u.PasswordHash == "admin123" {
			t.Fatalf("password not hashed for %s", u.Email)
		}
	}
}

func TestMemoryAuditEmptyIsNotNil(t *testing.T) {
	logs, err := NewMemory().ListAuditLogs(context.Background(), "nobody", 10)
	if err != nil {
		t.Fatal(err)
	}
	if logs == nil {
		t.Fatal("expected an empty slice, got nil")
	}
}
