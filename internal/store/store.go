// Package store persists users, sessions, reports and their satellites.
// Two implementations share the Store contract: GormStore (postgres) and
// MemoryStore (process-local, used for development and tests).
package store

import (
	"context"
	"errors"
	"time"

	"reportflow/internal/models"
)

var (
	ErrNotFound       = errors.New("record not found")
	ErrConflict       = errors.New("record changed concurrently")
	ErrDuplicateEmail = errors.New("email already registered")
)

type ReportFilter struct {
	Status      models.ReportStatus
	ClientName  string
	CreatedByID string
	StartFrom   *time.Time
	StartTo     *time.Time
	Page        int
	Limit       int
}

func (f ReportFilter) offset() int {
	if f.Page < 1 {
		return 0
	}
	return (f.Page - 1) * f.limit()
}

func (f ReportFilter) limit() int {
	switch {
	case f.Limit <= 0:
		return 10
	case f.Limit > 100:
		return 100
	}
	return f.Limit
}

type StatsFilter struct {
	CreatedByID string
	MonthStart  time.Time
	MonthEnd    time.Time
}

type Store interface {
	CreateUser(ctx context.Context, u *models.User) error
	GetUser(ctx context.Context, id string) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	ListUsers(ctx context.Context) ([]models.User, error)
	UpdateUser(ctx context.Context, u *models.User) error

	CreateSession(ctx context.Context, s *models.Session) error
	GetSession(ctx context.Context, token string) (*models.Session, error)
	DeleteSession(ctx context.Context, token string) error

	CreateReport(ctx context.Context, r *models.Report) error
	GetReport(ctx context.Context, id string) (*models.Report, error)
	ListReports(ctx context.Context, f ReportFilter) ([]models.Report, int64, error)
	// UpdateReportFields applies fields only while the report still has
	// status expect; otherwise it returns ErrConflict.
	UpdateReportFields(ctx context.Context, id string, expect models.ReportStatus, fields map[string]any) error
	// TransitionReport moves a report out of status from using the already
	// computed columns and records the approval row atomically.
	TransitionReport(ctx context.Context, id string, from models.ReportStatus, columns map[string]any, a *models.Approval) error
	ListApprovals(ctx context.Context, reportID string) ([]models.Approval, error)

	ReplaceHarvestEntries(ctx context.Context, reportID string, entries []models.HarvestEntry) error
	ListHarvestEntries(ctx context.Context, reportID string) ([]models.HarvestEntry, error)

	ReportStats(ctx context.Context, f StatsFilter) (*models.ReportStats, error)

	AddAuditLog(ctx context.Context, l *models.AuditLog) error
	// ListAuditLogs returns the newest entries; an empty userID means all users.
	ListAuditLogs(ctx context.Context, userID string, limit int) ([]models.AuditLog, error)
}
