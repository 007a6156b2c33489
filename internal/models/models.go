package models

import (
	"time"

	"gorm.io/gorm"
)

// User roles
const (
	RoleAdmin    = "admin"
	RoleTeamLead = "team_lead"
	RoleCC       = "cc"
)

// User represents a staff member: administrator, team lead or contact-center agent.
type User struct {
	ID           uint           `gorm:"primaryKey" json:"id"`
	Username     string         `gorm:"uniqueIndex;size:100;not null" json:"username"`
	Password     string         `gorm:"size:255" json:"-"` // Hashed password, empty for LDAP users
	Email        string         `gorm:"size:255" json:"email"`
	FullName     string         `gorm:"size:200;index" json:"full_name"`
	Role         string         `gorm:"size:50;default:cc" json:"role"` // admin, team_lead, cc
	TeamLeadID   *uint          `json:"team_lead_id"`
	TeamLead     *User          `gorm:"foreignKey:TeamLeadID" json:"team_lead,omitempty"`
	Abbreviation string         `gorm:"size:20;index" json:"abbreviation"` // CC short code used on return rows
	AuthType     string         `gorm:"size:20;default:local" json:"auth_type"` // local, ldap
	IsActive     bool           `gorm:"default:true" json:"is_active"`
	LastLogin    *time.Time     `json:"last_login"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
	DeletedAt    gorm.DeletedAt `gorm:"index" json:"-"`
}

// IssueSource is a configured external spreadsheet feeding issue rows.
type IssueSource struct {
	ID            uint           `gorm:"primaryKey" json:"id"`
	Name          string         `gorm:"uniqueIndex;size:100;not null" json:"name"`
	DisplayName   string         `gorm:"size:200" json:"display_name"`
	SpreadsheetID string         `gorm:"size:200;not null" json:"spreadsheet_id"`
	SheetName     string         `gorm:"size:100" json:"sheet_name"`
	IsActive      bool           `gorm:"default:true" json:"is_active"`
	LastSyncedAt  *time.Time     `json:"last_synced_at"`
	CreatedBy     uint           `json:"created_by"`
	CreatedAt     time.Time      `json:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at"`
	DeletedAt     gorm.DeletedAt `gorm:"index" json:"-"`
}

// Issue is a single reported defect imported from a source spreadsheet.
// (source_id, row_hash) is the dedup key: re-importing identical content
// updates the existing row instead of inserting a duplicate.
type Issue struct {
	ID             uint         `gorm:"primaryKey" json:"id"`
	SourceID       uint         `gorm:"uniqueIndex:idx_issues_source_hash;not null" json:"source_id"`
	Source         *IssueSource `gorm:"foreignKey:SourceID" json:"source,omitempty"`
	RowHash        string       `gorm:"uniqueIndex:idx_issues_source_hash;size:64;not null" json:"row_hash"`
	IssueDate      string       `gorm:"size:10;index" json:"issue_date"` // YYYY-MM-DD
	Responsible    string       `gorm:"size:200;index" json:"responsible"`
	ClientID       string       `gorm:"size:100" json:"client_id"`
	IssueType      string       `gorm:"size:200" json:"issue_type"`
	Comment        string       `gorm:"type:text" json:"comment"`
	Reporter       string       `gorm:"size:200" json:"reporter"`
	TaskID         string       `gorm:"size:100" json:"task_id"`
	SeverityRate   *int         `json:"severity_rate"`           // 1..3, nil when absent
	Category       string       `gorm:"size:20" json:"category"` // client, internal, or empty
	ResolvedUserID *uint        `gorm:"index" json:"resolved_user_id"`
	ResolvedUser   *User        `gorm:"foreignKey:ResolvedUserID" json:"resolved_user,omitempty"`
	RawRow         string       `gorm:"type:text" json:"-"` // original row preserved for audit
	CreatedAt      time.Time    `gorm:"index" json:"created_at"`
	UpdatedAt      time.Time    `json:"updated_at"`
}

// SystemConfig represents system-wide configuration (stored in database)
type SystemConfig struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Key       string    `gorm:"uniqueIndex;size:100;not null" json:"key"`
	Value     string    `gorm:"type:text" json:"value"`
	Type      string    `gorm:"size:20;default:string" json:"type"` // string, int, bool, json
	Group     string    `gorm:"size:50;index" json:"group"`         // general, email, report, sync
	Label     string    `gorm:"size:200" json:"label"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// SystemLog represents a system operation log
type SystemLog struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Level     string    `gorm:"size:20;index" json:"level"` // info, warning, error
	Module    string    `gorm:"size:100;index" json:"module"`
	Action    string    `gorm:"size:200;index" json:"action"`
	Message   string    `gorm:"type:text" json:"message"`
	UserID    *uint     `json:"user_id"`
	IP        string    `gorm:"size:50" json:"ip"`
	UserAgent string    `gorm:"size:500" json:"user_agent"`
	Extra     string    `gorm:"type:text" json:"extra"` // JSON extra data
	CreatedAt time.Time `gorm:"index" json:"created_at"`
}

// TableName overrides
func (User) TableName() string         { return "users" }
func (IssueSource) TableName() string  { return "issue_sources" }
func (Issue) TableName() string        { return "issues" }
func (SystemConfig) TableName() string { return "system_configs" }
func (SystemLog) TableName() string    { return "system_logs" }
