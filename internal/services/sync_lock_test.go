package services

import (
	"errors"
	"testing"
	"time"

	"github.com/rkalenko/qcdash/internal/models"
)

func TestSyncLock_AcquireConflict(t *testing.T) {
	db := newTestDB(t)
	a := NewSyncLockService(db)
	b := NewSyncLockService(db)

	if err := a.Acquire("issue_sync", "1"); err != nil {
		t.Fatalf("first acquire failed: %v", err)
	}
	if err := b.Acquire("issue_sync", "1"); err != ErrSyncInProgress {
		t.Fatalf("second acquire = %v, expected ErrSyncInProgress", err)
	}

	// A different key on the same name is independent
	if err := b.Acquire("issue_sync", "2"); err != nil {
		t.Fatalf("acquire of different key failed: %v", err)
	}

	a.Release("issue_sync", "1")
	if err := b.Acquire("issue_sync", "1"); err != nil {
		t.Fatalf("acquire after release failed: %v", err)
	}
}

func TestSyncLock_ReleaseRequiresOwnership(t *testing.T) {
	db := newTestDB(t)
	a := NewSyncLockService(db)
	b := NewSyncLockService(db)

	if err := a.Acquire("returns_sync", "global"); err != nil {
		t.Fatalf("acquire failed: %v", err)
	}

	// A non-owner release is a no-op
	b.Release("returns_sync", "global")
	if err := b.Acquire("returns_sync", "global"); err != ErrSyncInProgress {
		t.Fatalf("lock should still be held, got %v", err)
	}
}

func TestSyncLock_ExpiredLockReclaimed(t *testing.T) {
	db := newTestDB(t)
	svc := NewSyncLockService(db)

	// A crashed run left a stale lock behind
	stale := models.SyncLock{
		LockName:  "issue_sync",
		LockKey:   "1",
		LockedBy:  "dead-host-123",
		LockedAt:  time.Now().Add(-time.Hour),
		ExpiresAt: time.Now().Add(-30 * time.Minute),
	}
	if err := db.Create(&stale).Error; err != nil {
		t.Fatalf("failed to seed stale lock: %v", err)
	}

	if err := svc.Acquire("issue_sync", "1"); err != nil {
		t.Fatalf("expired lock was not reclaimed: %v", err)
	}
}

func TestSyncLock_DatabaseErrorNotMaskedAsConflict(t *testing.T) {
	db := newTestDB(t)
	svc := NewSyncLockService(db)

	// Simulate an outage: a failed insert must not read as a held lock
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("failed to get sql.DB: %v", err)
	}
	sqlDB.Close()

	err = svc.Acquire("issue_sync", "1")
	if err == nil {
		t.Fatal("acquire against a closed database should fail")
	}
	if errors.Is(err, ErrSyncInProgress) {
		t.Fatalf("database failure reported as ErrSyncInProgress: %v", err)
	}
}
