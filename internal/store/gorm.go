package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"reportflow/internal/models"
)

const recentReportsLimit = 5

type GormStore struct {
	db *gorm.DB
}

var _ Store = (*GormStore)(nil)

// Open connects to postgres, retrying while the database comes up, and
// migrates the schema.
func Open(dsn string, lg *zap.SugaredLogger) (*GormStore, error) {
	const maxAttempts = 10
	var (
		db  *gorm.DB
		err error
	)
	for i := 1; i <= maxAttempts; i++ {
		db, err = gorm.Open(postgres.Open(dsn), &gorm.Config{TranslateError: true})
		if err == nil {
			break
		}
		lg.Warnw("db connect failed", "attempt", i, "max", maxAttempts, "error", err)
		time.Sleep(2 * time.Second)
	}
	if err != nil {
		return nil, fmt.Errorf("connect after %d attempts: %w", maxAttempts, err)
	}
	if err := db.AutoMigrate(models.All()...); err != nil {
		return nil, fmt.Errorf("automigrate: %w", err)
	}
	return NewGorm(db), nil
}

func NewGorm(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

func (s *GormStore) DB() *gorm.DB { return s.db }

func mapErr(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return ErrNotFound
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return ErrDuplicateEmail
	}
	return err
}

func (s *GormStore) CreateUser(ctx context.Context, u *models.User) error {
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	return mapErr(s.db.WithContext(ctx).Create(u).Error)
}

func (s *GormStore) GetUser(ctx context.Context, id string) (*models.User, error) {
	var u models.User
	if err := s.db.WithContext(ctx).First(&u, "id = ?", id).Error; err != nil {
		return nil, mapErr(err)
	}
	return &u, nil
}

func (s *GormStore) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	var u models.User
	if err := s.db.WithContext(ctx).First(&u, "LOWER(email) = ?", strings.ToLower(email)).Error; err != nil {
		return nil, mapErr(err)
	}
	return &u, nil
}

func (s *GormStore) ListUsers(ctx context.Context) ([]models.User, error) {
	var users []models.User
	if err := s.db.WithContext(ctx).Order("created_at desc").Find(&users).Error; err != nil {
		return nil, err
	}
	return users, nil
}

func (s *GormStore) UpdateUser(ctx context.Context, u *models.User) error {
	res := s.db.WithContext(ctx).Model(&models.User{}).Where("id = ?", u.ID).Updates(map[string]any{
		"email":         u.Email,
		"name":          u.Name,
		"role":          u.Role,
		"is_active":     u.IsActive,
		"password_hash": u.PasswordHash,
		"updated_at":    time.Now(),
	})
	if res.Error != nil {
		return mapErr(res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *GormStore) CreateSession(ctx context.Context, sess *models.Session) error {
	return s.db.WithContext(ctx).Create(sess).Error
}

func (s *GormStore) GetSession(ctx context.Context, token string) (*models.Session, error) {
	var sess models.Session
	if err := s.db.WithContext(ctx).First(&sess, "token = ?", token).Error; err != nil {
		return nil, mapErr(err)
	}
	return &sess, nil
}

func (s *GormStore) DeleteSession(ctx context.Context, token string) error {
	return s.db.WithContext(ctx).Delete(&models.Session{}, "token = ?", token).Error
}

func (s *GormStore) CreateReport(ctx context.Context, r *models.Report) error {
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	return s.db.WithContext(ctx).Create(r).Error
}

func (s *GormStore) GetReport(ctx context.Context, id string) (*models.Report, error) {
	var r models.Report
	if err := s.db.WithContext(ctx).First(&r, "id = ?", id).Error; err != nil {
		return nil, mapErr(err)
	}
	return &r, nil
}

func (s *GormStore) ListReports(ctx context.Context, f ReportFilter) ([]models.Report, int64, error) {
	filtered := func() *gorm.DB {
		q := s.db.WithContext(ctx).Model(&models.Report{})
		if f.Status != "" {
			q = q.Where("status = ?", f.Status)
		}
		if f.CreatedByID != "" {
			q = q.Where("created_by_id = ?", f.CreatedByID)
		}
		if f.ClientName != "" {
			q = q.Where("LOWER(client_name) LIKE ?", "%"+strings.ToLower(f.ClientName)+"%")
		}
		if f.StartFrom != nil {
			q = q.Where("start_date >= ?", *f.StartFrom)
		}
		if f.StartTo != nil {
			q = q.Where("start_date <= ?", *f.StartTo)
		}
		return q
	}
	var total int64
	if err := filtered().Count(&total).Error; err != nil {
		return nil, 0, err
	}
	reports := []models.Report{}
	if err := filtered().Order("created_at desc").Offset(f.offset()).Limit(f.limit()).Find(&reports).Error; err != nil {
		return nil, 0, err
	}
	return reports, total, nil
}

func (s *GormStore) UpdateReportFields(ctx context.Context, id string, expect models.ReportStatus, fields map[string]any) error {
	cols := make(map[string]any, len(fields)+1)
	for k, v := range fields {
		cols[k] = v
	}
	cols["updated_at"] = time.Now()
	res := s.db.WithContext(ctx).Model(&models.Report{}).
		Where("id = ? AND status = ?", id, expect).
		Updates(cols)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return s.missingOrConflict(ctx, id)
	}
	return nil
}

func (s *GormStore) TransitionReport(ctx context.Context, id string, from models.ReportStatus, columns map[string]any, a *models.Approval) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.Report{}).
			Where("id = ? AND status = ?", id, from).
			Updates(columns)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrConflict
		}
		if a == nil {
			return nil
		}
		if a.ID == "" {
			a.ID = uuid.NewString()
		}
		return tx.Create(a).Error
	})
}

// missingOrConflict tells a stale status apart from an unknown id.
func (s *GormStore) missingOrConflict(ctx context.Context, id string) error {
	var n int64
	if err := s.db.WithContext(ctx).Model(&models.Report{}).Where("id = ?", id).Count(&n).Error; err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return ErrConflict
}

func (s *GormStore) ListApprovals(ctx context.Context, reportID string) ([]models.Approval, error) {
	approvals := []models.Approval{}
	err := s.db.WithContext(ctx).Where("report_id = ?", reportID).Order("created_at asc").Find(&approvals).Error
	return approvals, err
}

func (s *GormStore) ReplaceHarvestEntries(ctx context.Context, reportID string, entries []models.HarvestEntry) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("report_id = ?", reportID).Delete(&models.HarvestEntry{}).Error; err != nil {
			return err
		}
		if len(entries) == 0 {
			return nil
		}
		for i := range entries {
			entries[i].ReportID = reportID
			if entries[i].ID == "" {
				entries[i].ID = uuid.NewString()
			}
		}
		return tx.Create(&entries).Error
	})
}

func (s *GormStore) ListHarvestEntries(ctx context.Context, reportID string) ([]models.HarvestEntry, error) {
	entries := []models.HarvestEntry{}
	err := s.db.WithContext(ctx).Where("report_id = ?", reportID).Order("date asc").Find(&entries).Error
	return entries, err
}

func (s *GormStore) ReportStats(ctx context.Context, f StatsFilter) (*models.ReportStats, error) {
	scoped := func() *gorm.DB {
		q := s.db.WithContext(ctx).Model(&models.Report{})
		if f.CreatedByID != "" {
			q = q.Where("created_by_id = ?", f.CreatedByID)
		}
		return q
	}
	stats := &models.ReportStats{RecentReports: []models.Report{}}
	if err := scoped().Count(&stats.TotalReports).Error; err != nil {
		return nil, err
	}
	if err := scoped().Where("status IN ?", models.PendingStatuses()).Count(&stats.PendingApproval).Error; err != nil {
		return nil, err
	}
	monthly := func(status models.ReportStatus, out *int64) error {
		return scoped().
			Where("status = ? AND created_at >= ? AND created_at < ?", status, f.MonthStart, f.MonthEnd).
			Count(out).Error
	}
	if err := monthly(models.StatusApproved, &stats.ApprovedThisMonth); err != nil {
		return nil, err
	}
	if err := monthly(models.StatusRejected, &stats.RejectedThisMonth); err != nil {
		return nil, err
	}
	if err := scoped().Order("created_at desc").Limit(recentReportsLimit).Find(&stats.RecentReports).Error; err != nil {
		return nil, err
	}
	return stats, nil
}

func (s *GormStore) AddAuditLog(ctx context.Context, l *models.AuditLog) error {
	return s.db.WithContext(ctx).Create(l).Error
}

func (s *GormStore) ListAuditLogs(ctx context.Context, userID string, limit int) ([]models.AuditLog, error) {
	q := s.db.WithContext(ctx).Order("created_at desc")
	if userID != "" {
		q = q.Where("user_id = ?", userID)
	}
	if limit > 0 {
		q = q.Limit(limit)
	}
	logs := []models.AuditLog{}
	err := q.Find(&logs).Error
	return logs, err
}
