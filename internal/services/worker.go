package services

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/hibiken/asynq"
	"github.com/rkalenko/qcdash/internal/config"
	"github.com/rkalenko/qcdash/pkg/logger"
)

// Worker processes async sync tasks from the Redis queue.
type Worker struct {
	server    *asynq.Server
	mux       *asynq.ServeMux
	processor func(context.Context, *SyncTask) error
	running   bool
	mu        sync.Mutex
}

// NewWorker creates a new worker instance
func NewWorker(cfg *config.RedisConfig) *Worker {
	if !cfg.Enabled {
		return nil
	}

	redisOpt := asynq.RedisClientOpt{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	}

	server := asynq.NewServer(
		redisOpt,
		asynq.Config{
			// Sources are processed one at a time to keep load on the
			// spreadsheet API and the database predictable.
			Concurrency: 1,
			Queues: map[string]int{
				"default": 1,
			},
			ErrorHandler: asynq.ErrorHandlerFunc(func(ctx context.Context, task *asynq.Task, err error) {
				logger.Errorf("[Worker] Error processing task %s: %v", task.Type(), err)
			}),
		},
	)

	return &Worker{
		server: server,
		mux:    asynq.NewServeMux(),
	}
}

// SetProcessor sets the function to process sync tasks
func (w *Worker) SetProcessor(processor func(context.Context, *SyncTask) error) {
	w.processor = processor
}

// Start begins processing tasks
func (w *Worker) Start() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.running {
		return nil
	}

	w.mux.HandleFunc(TaskTypeSync, w.handleSyncTask)

	if err := w.server.Start(w.mux); err != nil {
		return err
	}

	w.running = true
	logger.Infof("[Worker] Started")
	return nil
}

// Stop gracefully shuts down the worker
func (w *Worker) Stop() {
	w.mu.Lock()
	defer w.mu.Unlock()

	if !w.running {
		return
	}

	w.server.Shutdown()
	w.running = false
	logger.Infof("[Worker] Stopped")
}

func (w *Worker) handleSyncTask(ctx context.Context, task *asynq.Task) error {
	if w.processor == nil {
		logger.Warnf("[Worker] No processor configured, dropping task")
		return nil
	}

	var syncTask SyncTask
	if err := json.Unmarshal(task.Payload(), &syncTask); err != nil {
		logger.Errorf("[Worker] Failed to unmarshal task payload: %v", err)
		return err
	}

	return w.processor(ctx, &syncTask)
}
