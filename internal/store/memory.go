package store

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"reportflow/internal/models"
)

// MemoryStore keeps everything in maps behind one RWMutex.
type MemoryStore struct {
	mu        sync.RWMutex
	users     map[string]models.User
	sessions  map[string]models.Session
	reports   map[string]models.Report
	approvals map[string][]models.Approval
	entries   map[string][]models.HarvestEntry
	audit     []models.AuditLog
	now       func() time.Time
}

var _ Store = (*MemoryStore)(nil)

func NewMemory() *MemoryStore {
	return &MemoryStore{
		users:     make(map[string]models.User),
		sessions:  make(map[string]models.Session),
		reports:   make(map[string]models.Report),
		approvals: make(map[string][]models.Approval),
		entries:   make(map[string][]models.HarvestEntry),
		now:       time.Now,
	}
}

func (m *MemoryStore) CreateUser(_ context.Context, u *models.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.users {
		if strings.EqualFold(existing.Email, u.Email) {
			return ErrDuplicateEmail
		}
	}
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	now := m.now()
	if u.CreatedAt.IsZero() {
		u.CreatedAt = now
	}
	u.UpdatedAt = now
	m.users[u.ID] = *u
	return nil
}

func (m *MemoryStore) GetUser(_ context.Context, id string) (*models.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	u, ok := m.users[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &u, nil
}

func (m *MemoryStore) GetUserByEmail(_ context.Context, email string) (*models.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, u := range m.users {
		if strings.EqualFold(u.Email, email) {
			return &u, nil
		}
	}
	return nil, ErrNotFound
}

func (m *MemoryStore) ListUsers(_ context.Context) ([]models.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]models.User, 0, len(m.users))
	for _, u := range m.users {
		out = append(out, u)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (m *MemoryStore) UpdateUser(_ context.Context, u *models.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.users[u.ID]; !ok {
		return ErrNotFound
	}
	for id, existing := range m.users {
		if id != u.ID && strings.EqualFold(existing.Email, u.Email) {
			return ErrDuplicateEmail
		}
	}
	u.UpdatedAt = m.now()
	m.users[u.ID] = *u
	return nil
}

func (m *MemoryStore) CreateSession(_ context.Context, s *models.Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if s.CreatedAt.IsZero() {
		s.CreatedAt = m.now()
	}
	m.sessions[s.Token] = *s
	return nil
}

func (m *MemoryStore) GetSession(_ context.Context, token string) (*models.Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.sessions[token]
	if !ok {
		return nil, ErrNotFound
	}
	return &s, nil
}

func (m *MemoryStore) DeleteSession(_ context.Context, token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, token)
	return nil
}

func (m *MemoryStore) CreateReport(_ context.Context, r *models.Report) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	now := m.now()
	r.CreatedAt, r.UpdatedAt = now, now
	m.reports[r.ID] = *r
	return nil
}

func (m *MemoryStore) GetReport(_ context.Context, id string) (*models.Report, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	r, ok := m.reports[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &r, nil
}

func (m *MemoryStore) ListReports(_ context.Context, f ReportFilter) ([]models.Report, int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var matched []models.Report
	for _, r := range m.reports {
		if matchReport(r, f) {
			matched = append(matched, r)
		}
	}
	sort.Slice(matched, func(i, j int) bool { return matched[i].CreatedAt.After(matched[j].CreatedAt) })
	total := int64(len(matched))
	off, lim := f.offset(), f.limit()
	if off >= len(matched) {
		return []models.Report{}, total, nil
	}
	end := off + lim
	if end > len(matched) {
		end = len(matched)
	}
	return matched[off:end], total, nil
}

func matchReport(r models.Report, f ReportFilter) bool {
	if f.Status != "" && r.Status != f.Status {
		return false
	}
	if f.CreatedByID != "" && r.CreatedByID != f.CreatedByID {
		return false
	}
	if f.ClientName != "" && !strings.Contains(strings.ToLower(r.ClientName), strings.ToLower(f.ClientName)) {
		return false
	}
	if f.StartFrom != nil && r.StartDate.Before(*f.StartFrom) {
		return false
	}
	if f.StartTo != nil && r.StartDate.After(*f.StartTo) {
		return false
	}
	return true
}

func (m *MemoryStore) UpdateReportFields(_ context.Context, id string, expect models.ReportStatus, fields map[string]any) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.reports[id]
	if !ok {
		return ErrNotFound
	}
	if r.Status != expect {
		return ErrConflict
	}
	assignReportColumns(&r, fields)
	r.UpdatedAt = m.now()
	m.reports[id] = r
	return nil
}

func (m *MemoryStore) TransitionReport(_ context.Context, id string, from models.ReportStatus, columns map[string]any, a *models.Approval) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.reports[id]
	if !ok {
		return ErrNotFound
	}
	if r.Status != from {
		return ErrConflict
	}
	assignReportColumns(&r, columns)
	m.reports[id] = r
	if a != nil {
		if a.ID == "" {
			a.ID = uuid.NewString()
		}
		if a.CreatedAt.IsZero() {
			a.CreatedAt = m.now()
		}
		m.approvals[id] = append(m.approvals[id], *a)
	}
	return nil
}

// assignReportColumns mirrors a gorm column map onto the struct.
func assignReportColumns(r *models.Report, cols map[string]any) {
	for k, v := range cols {
		switch k {
		case "title":
			r.Title, _ = v.(string)
		case "content":
			r.Content, _ = v.(string)
		case "content_source":
			r.ContentSource, _ = v.(models.ContentSource)
		case "status":
			r.Status, _ = v.(models.ReportStatus)
		case "updated_at":
			r.UpdatedAt, _ = v.(time.Time)
		case "ae_approved_by_id":
			r.AEApprovedByID, _ = v.(*string)
		case "ae_approved_at":
			r.AEApprovedAt, _ = v.(*time.Time)
		case "supervisor_approved_by_id":
			r.SupervisorApprovedByID, _ = v.(*string)
		case "supervisor_approved_at":
			r.SupervisorApprovedAt, _ = v.(*time.Time)
		case "accounting_approved_by_id":
			r.AccountingApprovedByID, _ = v.(*string)
		case "accounting_approved_at":
			r.AccountingApprovedAt, _ = v.(*time.Time)
		}
	}
}

func (m *MemoryStore) ListApprovals(_ context.Context, reportID string) ([]models.Approval, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]models.Approval{}, m.approvals[reportID]...), nil
}

func (m *MemoryStore) ReplaceHarvestEntries(_ context.Context, reportID string, entries []models.HarvestEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := m.now()
	out := make([]models.HarvestEntry, len(entries))
	for i, e := range entries {
		if e.ID == "" {
			e.ID = uuid.NewString()
		}
		e.ReportID = reportID
		e.CreatedAt = now
		out[i] = e
	}
	m.entries[reportID] = out
	return nil
}

func (m *MemoryStore) ListHarvestEntries(_ context.Context, reportID string) ([]models.HarvestEntry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := append([]models.HarvestEntry{}, m.entries[reportID]...)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out, nil
}

func (m *MemoryStore) ReportStats(_ context.Context, f StatsFilter) (*models.ReportStats, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	stats := &models.ReportStats{}
	var mine []models.Report
	for _, r := range m.reports {
		if f.CreatedByID != "" && r.CreatedByID != f.CreatedByID {
			continue
		}
		mine = append(mine, r)
		stats.TotalReports++
		if r.Status.Pending() {
			stats.PendingApproval++
		}
		inMonth := !r.CreatedAt.Before(f.MonthStart) && r.CreatedAt.Before(f.MonthEnd)
		if inMonth && r.Status == models.StatusApproved {
			stats.ApprovedThisMonth++
		}
		if inMonth && r.Status == models.StatusRejected {
			stats.RejectedThisMonth++
		}
	}
	sort.Slice(mine, func(i, j int) bool { return mine[i].CreatedAt.After(mine[j].CreatedAt) })
	if len(mine) > recentReportsLimit {
		mine = mine[:recentReportsLimit]
	}
	stats.RecentReports = append([]models.Report{}, mine...)
	return stats, nil
}

func (m *MemoryStore) AddAuditLog(_ context.Context, l *models.AuditLog) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	l.ID = int64(len(m.audit) + 1)
	if l.CreatedAt.IsZero() {
		l.CreatedAt = m.now()
	}
	m.audit = append(m.audit, *l)
	return nil
}

func (m *MemoryStore) ListAuditLogs(_ context.Context, userID string, limit int) ([]models.AuditLog, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := []models.AuditLog{}
	for i := len(m.audit) - 1; i >= 0 && (limit <= 0 || len(out) < limit); i-- {
		l := m.audit[i]
		if userID != "" && (l.UserID == nil || *l.UserID != userID) {
			continue
		}
		out = append(out, l)
	}
	return out, nil
}
