package models

import "time"

// SyncLock is an advisory lock preventing overlapping sync runs for the same
// target. Uniqueness of (lock_name, lock_key) makes acquisition atomic at the
// database level; stale locks are reclaimed after ExpiresAt.
type SyncLock struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	LockName  string    `gorm:"uniqueIndex:idx_lock_name_key;size:100;not null" json:"lock_name"`
	LockKey   string    `gorm:"uniqueIndex:idx_lock_name_key;size:100;not null" json:"lock_key"`
	LockedBy  string    `gorm:"size:100" json:"locked_by"`
	LockedAt  time.Time `json:"locked_at"`
	ExpiresAt time.Time `gorm:"index" json:"expires_at"`
}

func (SyncLock) TableName() string { return "sync_locks" }
