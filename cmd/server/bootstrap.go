package main

import (
	"github.com/rkalenko/qcdash/internal/config"
	"github.com/rkalenko/qcdash/internal/handlers"
	"github.com/rkalenko/qcdash/internal/models"
	"github.com/rkalenko/qcdash/internal/services"
	"github.com/rkalenko/qcdash/internal/sheets"
	"github.com/rkalenko/qcdash/internal/utils"
	"github.com/rkalenko/qcdash/pkg/logger"
)

// appServices holds all initialized services and handlers needed by the application.
type appServices struct {
	taskQueue     services.TaskQueue
	worker        *services.Worker
	syncScheduler *services.SyncScheduler
	reportService *services.ReportService
	authHandler   *handlers.AuthHandler
}

// bootstrap initializes all application dependencies: database, services, schedulers.
func bootstrap(cfg *config.Config) *appServices {
	utils.SetJWTSecret(cfg.JWT.Secret)

	// Initialize database
	if err := models.InitDB(&cfg.Database); err != nil {
		logger.Fatalf("Failed to connect to database: %v", err)
	}

	// Auto migrate database
	if err := models.AutoMigrate(); err != nil {
		logger.Fatalf("Failed to migrate database: %v", err)
	}

	// Seed default data
	if err := models.SeedDefaultData(); err != nil {
		logger.Warn().Err(err).Msg("Failed to seed default data")
	}

	// Initialize system logger
	services.InitSystemLogger(models.GetDB())

	// Start system log cleanup scheduler
	services.StartLogCleanupScheduler(models.GetDB())

	// Ingestion engines share one spreadsheet client
	fetcher := sheets.NewClient(&cfg.Sheets)
	issueSync := services.NewIssueSyncService(models.GetDB(), fetcher)
	returnsSync := services.NewReturnsSyncService(models.GetDB(), fetcher, &cfg.Sync)
	processor := services.NewSyncProcessor(issueSync, returnsSync)

	// Initialize task queue (uses Redis if enabled, otherwise sync mode)
	taskQueue := services.InitTaskQueue(cfg)
	if syncQueue, ok := taskQueue.(*services.SyncQueue); ok {
		syncQueue.SetProcessor(processor)
	}

	// Start async worker if Redis is enabled
	var worker *services.Worker
	if cfg.Redis.Enabled {
		worker = services.NewWorker(&cfg.Redis)
		if worker != nil {
			worker.SetProcessor(processor)
			if err := worker.Start(); err != nil {
				logger.Errorf("Failed to start worker: %v", err)
			}
		}
	}

	// Periodic sync runs go through the same queue as manual triggers
	syncScheduler := services.NewSyncScheduler(&cfg.Sync, taskQueue)
	syncScheduler.Start()

	// Daily email report
	emailService := services.NewEmailService(models.GetDB())
	reportService := services.NewReportService(models.GetDB(), emailService)
	reportService.StartScheduler()

	// Create default admin user
	authHandler := handlers.NewAuthHandler(models.GetDB(), cfg)
	if err := authHandler.CreateAdminIfNotExists(); err != nil {
		logger.Warn().Err(err).Msg("Failed to create admin user")
	}

	return &appServices{
		taskQueue:     taskQueue,
		worker:        worker,
		syncScheduler: syncScheduler,
		reportService: reportService,
		authHandler:   authHandler,
	}
}

// shutdown gracefully stops all services.
func (s *appServices) shutdown() {
	s.syncScheduler.Stop()
	s.reportService.StopScheduler()
	services.StopLogCleanupScheduler()
	logger.Info().Msg("All schedulers stopped")

	if s.worker != nil {
		s.worker.Stop()
	}
	if s.taskQueue != nil {
		s.taskQueue.Close()
	}
}
