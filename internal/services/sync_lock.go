package services

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/rkalenko/qcdash/internal/models"
	"gorm.io/gorm"
)

// ErrSyncInProgress is returned when a sync run is requested for a target
// that already holds the advisory lock.
var ErrSyncInProgress = errors.New("sync already in progress")

// Stale locks left by crashed runs are reclaimable after this long.
const syncLockTTL = 30 * time.Minute

// SyncLockService hands out advisory per-target locks backed by the
// sync_locks table. Acquisition is atomic through the unique
// (lock_name, lock_key) index.
type SyncLockService struct {
	db    *gorm.DB
	owner string
}

func NewSyncLockService(db *gorm.DB) *SyncLockService {
	hostname, _ := os.Hostname()
	return &SyncLockService{
		db:    db,
		owner: fmt.Sprintf("%s-%s", hostname, uuid.NewString()[:8]),
	}
}

// Acquire takes the lock for (name, key) or returns ErrSyncInProgress.
// Expired locks are cleared first so a crashed run cannot wedge its target.
func (s *SyncLockService) Acquire(name, key string) error {
	now := time.Now()

	s.db.Where("lock_name = ? AND lock_key = ? AND expires_at < ?", name, key, now).
		Delete(&models.SyncLock{})

	lock := models.SyncLock{
		LockName:  name,
		LockKey:   key,
		LockedBy:  s.owner,
		LockedAt:  now,
		ExpiresAt: now.Add(syncLockTTL),
	}
	if err := s.db.Create(&lock).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return ErrSyncInProgress
		}
		// Drivers without error translation: a live lock row means the
		// unique index rejected us; anything else is a real DB failure.
		var held int64
		s.db.Model(&models.SyncLock{}).
			Where("lock_name = ? AND lock_key = ? AND expires_at >= ?", name, key, now).
			Count(&held)
		if held > 0 {
			return ErrSyncInProgress
		}
		return fmt.Errorf("failed to acquire sync lock %s/%s: %w", name, key, err)
	}
	return nil
}

// Release drops the lock if this instance still owns it.
func (s *SyncLockService) Release(name, key string) {
	s.db.Where("lock_name = ? AND lock_key = ? AND locked_by = ?", name, key, s.owner).
		Delete(&models.SyncLock{})
}
