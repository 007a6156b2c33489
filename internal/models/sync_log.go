package models

import "time"

// Sync run statuses. A log is opened as running and closed exactly once as
// success or failed; rows are never deleted or re-opened.
const (
	SyncStatusRunning = "running"
	SyncStatusSuccess = "success"
	SyncStatusFailed  = "failed"
)

// SyncLog is the append-only audit record for one issue-source sync run.
type SyncLog struct {
	ID           uint       `gorm:"primaryKey" json:"id"`
	SourceID     uint       `gorm:"index;not null" json:"source_id"`
	SourceName   string     `gorm:"size:100" json:"source_name"`
	Status       string     `gorm:"size:20;default:running" json:"status"`
	RowsFetched  int        `json:"rows_fetched"`
	RowsInserted int        `json:"rows_inserted"`
	RowsUpdated  int        `json:"rows_updated"`
	RowsSkipped  int        `json:"rows_skipped"`
	SkipSamples  string     `gorm:"type:text" json:"skip_samples"` // JSON sample of skip reasons
	RowErrors    string     `gorm:"type:text" json:"row_errors"`   // JSON sample of per-row errors
	ErrorMessage string     `gorm:"type:text" json:"error_message"`
	StartedAt    time.Time  `json:"started_at"`
	FinishedAt   *time.Time `json:"finished_at"`
	CreatedAt    time.Time  `gorm:"index" json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

// ReturnsSyncLog is the append-only audit record for one returns-feed sync run.
type ReturnsSyncLog struct {
	ID           uint       `gorm:"primaryKey" json:"id"`
	Status       string     `gorm:"size:20;default:running" json:"status"`
	RowsFetched  int        `json:"rows_fetched"`
	RowsInserted int        `json:"rows_inserted"`
	RowsUpdated  int        `json:"rows_updated"`
	RowsSkipped  int        `json:"rows_skipped"`
	SkipSamples  string     `gorm:"type:text" json:"skip_samples"`
	RowErrors    string     `gorm:"type:text" json:"row_errors"`
	ErrorMessage string     `gorm:"type:text" json:"error_message"`
	StartedAt    time.Time  `json:"started_at"`
	FinishedAt   *time.Time `json:"finished_at"`
	CreatedAt    time.Time  `gorm:"index" json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

func (SyncLog) TableName() string        { return "sync_logs" }
func (ReturnsSyncLog) TableName() string { return "returns_sync_logs" }
