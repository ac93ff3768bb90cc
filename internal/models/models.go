package models

import "time"

type Role string

const (
	RoleAdmin      Role = "admin"
	RoleAE         Role = "ae"
	RoleSupervisor Role = "supervisor"
	RoleAccounting Role = "accounting"
)

func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleAE, RoleSupervisor, RoleAccounting:
		return true
	}
	return false
}

type ReportStatus string

const (
	StatusDraft             ReportStatus = "draft"
	StatusPendingAE         ReportStatus = "pending_ae"
	StatusPendingSupervisor ReportStatus = "pending_supervisor"
	StatusPendingAccounting ReportStatus = "pending_accounting"
	StatusApproved          ReportStatus = "approved"
	StatusRejected          ReportStatus = "rejected"
)

func (s ReportStatus) Valid() bool {
	switch s {
	case StatusDraft, StatusPendingAE, StatusPendingSupervisor, StatusPendingAccounting, StatusApproved, StatusRejected:
		return true
	}
	return false
}

// Pending reports whether the status is waiting on an approver.
func (s ReportStatus) Pending() bool {
	return s == StatusPendingAE || s == StatusPendingSupervisor || s == StatusPendingAccounting
}

func PendingStatuses() []ReportStatus {
	return []ReportStatus{StatusPendingAE, StatusPendingSupervisor, StatusPendingAccounting}
}

type ContentSource string

const (
	ContentAI       ContentSource = "ai"
	ContentTemplate ContentSource = "template"
	ContentManual   ContentSource = "manual"
)

type User struct {
	ID           string    `gorm:"type:uuid;primaryKey" json:"id"`
	Email        string    `gorm:"uniqueIndex;not null" json:"email"`
	PasswordHash string    `gorm:"not null" json:"-"`
	Name         string    `gorm:"not null" json:"name"`
	Role         Role      `gorm:"type:varchar(20);not null;index" json:"role"`
	IsActive     bool      `gorm:"not null;default:true" json:"is_active"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

type Session struct {
	Token     string    `gorm:"primaryKey;size:64" json:"-"`
	UserID    string    `gorm:"type:uuid;index;not null" json:"user_id"`
	ExpiresAt time.Time `gorm:"index;not null" json:"expires_at"`
	CreatedAt time.Time `json:"created_at"`
}

func (s Session) Expired(now time.Time) bool {
	return !now.Before(s.ExpiresAt)
}

type Report struct {
	ID                     string        `gorm:"type:uuid;primaryKey" json:"id"`
	Title                  string        `gorm:"not null" json:"title"`
	ClientName             string        `gorm:"not null;index" json:"client_name"`
	ReportPeriod           string        `gorm:"not null" json:"report_period"`
	StartDate              time.Time     `gorm:"type:date;not null" json:"start_date"`
	EndDate                time.Time     `gorm:"type:date;not null" json:"end_date"`
	Content                string        `gorm:"type:text" json:"content"`
	ContentSource          ContentSource `gorm:"type:varchar(20)" json:"content_source,omitempty"`
	Status                 ReportStatus  `gorm:"type:varchar(32);not null;index" json:"status"`
	CreatedByID            string        `gorm:"type:uuid;not null;index" json:"created_by_id"`
	AEApprovedByID         *string       `gorm:"type:uuid" json:"ae_approved_by_id,omitempty"`
	AEApprovedAt           *time.Time    `json:"ae_approved_at,omitempty"`
	SupervisorApprovedByID *string       `gorm:"type:uuid" json:"supervisor_approved_by_id,omitempty"`
	SupervisorApprovedAt   *time.Time    `json:"supervisor_approved_at,omitempty"`
	AccountingApprovedByID *string       `gorm:"type:uuid" json:"accounting_approved_by_id,omitempty"`
	AccountingApprovedAt   *time.Time    `json:"accounting_approved_at,omitempty"`
	CreatedAt              time.Time     `json:"created_at"`
	UpdatedAt              time.Time     `json:"updated_at"`
}

type Approval struct {
	ID         string       `gorm:"type:uuid;primaryKey" json:"id"`
	ReportID   string       `gorm:"type:uuid;index;not null" json:"report_id"`
	UserID     string       `gorm:"type:uuid;not null" json:"user_id"`
	Role       Role         `gorm:"type:varchar(20);not null" json:"role"`
	Action     string       `gorm:"type:varchar(16);not null" json:"action"`
	FromStatus ReportStatus `gorm:"type:varchar(32);not null" json:"from_status"`
	ToStatus   ReportStatus `gorm:"type:varchar(32);not null" json:"to_status"`
	Comments   string       `gorm:"type:text" json:"comments,omitempty"`
	CreatedAt  time.Time    `json:"created_at"`
}

type HarvestEntry struct {
	ID          string    `gorm:"type:uuid;primaryKey" json:"id"`
	ReportID    string    `gorm:"type:uuid;index;not null" json:"report_id"`
	Date        time.Time `gorm:"type:date;not null" json:"date"`
	Hours       float64   `gorm:"not null" json:"hours"`
	ClientName  string    `json:"client_name"`
	ProjectName string    `json:"project_name"`
	TaskName    string    `json:"task_name"`
	Notes       string    `gorm:"type:text" json:"notes,omitempty"`
	UserName    string    `json:"user_name"`
	CreatedAt   time.Time `json:"created_at"`
}

type AuditLog struct {
	ID        int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID    *string   `gorm:"type:uuid;index" json:"user_id,omitempty"`
	ReportID  *string   `gorm:"type:uuid" json:"report_id,omitempty"`
	Action    string    `gorm:"not null" json:"action"`
	Metadata  JSONB     `gorm:"type:jsonb;default:'{}'::jsonb" json:"metadata"`
	CreatedAt time.Time `json:"created_at"`
}

// ReportStats backs the dashboard summary.
type ReportStats struct {
	TotalReports      int64    `json:"total_reports"`
	PendingApproval   int64    `json:"pending_approval"`
	ApprovedThisMonth int64    `json:"approved_this_month"`
	RejectedThisMonth int64    `json:"rejected_this_month"`
	RecentReports     []Report `json:"recent_reports"`
}

// All lists every model for AutoMigrate.
func All() []any {
	return []any{&User{}, &Session{}, &Report{}, &Approval{}, &HarvestEntry{}, &AuditLog{}}
}
