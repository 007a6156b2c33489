package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/rkalenko/qcdash/internal/config"
	"github.com/rkalenko/qcdash/internal/models"
	"github.com/rkalenko/qcdash/pkg/logger"
	"github.com/robfig/cron/v3"
)

// SyncScheduler enqueues periodic ingestion runs. Actual work happens in the
// task queue processor so scheduled and manually triggered runs share one
// code path.
type SyncScheduler struct {
	cfg           *config.SyncConfig
	queue         TaskQueue
	cronScheduler *cron.Cron
}

func NewSyncScheduler(cfg *config.SyncConfig, queue TaskQueue) *SyncScheduler {
	return &SyncScheduler{cfg: cfg, queue: queue}
}

func (s *SyncScheduler) Start() {
	if !s.cfg.Enabled {
		logger.Infof("[SyncScheduler] Disabled by config")
		return
	}

	s.cronScheduler = cron.New()
	_, err := s.cronScheduler.AddFunc(s.cfg.CronSpec, s.tick)
	if err != nil {
		logger.Errorf("[SyncScheduler] Invalid cron spec %q: %v", s.cfg.CronSpec, err)
		return
	}

	s.cronScheduler.Start()
	logger.Infof("[SyncScheduler] Started (cron: %s)", s.cfg.CronSpec)
}

func (s *SyncScheduler) Stop() {
	if s.cronScheduler != nil {
		s.cronScheduler.Stop()
	}
}

func (s *SyncScheduler) tick() {
	if err := s.queue.Enqueue(&SyncTask{Kind: SyncKindAll}); err != nil {
		logger.Errorf("[SyncScheduler] Failed to enqueue full sync: %v", err)
	}
	if s.cfg.ReturnsSpreadsheetID != "" {
		if err := s.queue.Enqueue(&SyncTask{Kind: SyncKindReturns}); err != nil {
			logger.Errorf("[SyncScheduler] Failed to enqueue returns sync: %v", err)
		}
	}
}

// NewSyncProcessor builds the task-queue processor dispatching sync tasks to
// the two engines. An in-flight target is not an error worth retrying.
func NewSyncProcessor(issueSync *IssueSyncService, returnsSync *ReturnsSyncService) func(context.Context, *SyncTask) error {
	return func(ctx context.Context, task *SyncTask) error {
		switch task.Kind {
		case SyncKindSource:
			_, err := issueSync.RunSource(ctx, task.SourceID)
			if errors.Is(err, ErrSyncInProgress) {
				logger.Warnf("[Sync] Source %d already syncing, skipping", task.SourceID)
				return nil
			}
			return err
		case SyncKindAll:
			results := issueSync.RunAll(ctx)
			for _, result := range results {
				if result.Status == models.SyncStatusFailed {
					logger.Warnf("[Sync] Source %s failed during full sync: %s", result.SourceName, result.Error)
				}
			}
			return nil
		case SyncKindReturns:
			_, err := returnsSync.Run(ctx)
			if errors.Is(err, ErrSyncInProgress) {
				logger.Warnf("[Sync] Returns feed already syncing, skipping")
				return nil
			}
			return err
		default:
			return fmt.Errorf("unknown sync task kind: %s", task.Kind)
		}
	}
}
