package main

import (
	"github.com/gin-gonic/gin"
	"github.com/rkalenko/qcdash/internal/config"
	"github.com/rkalenko/qcdash/internal/handlers"
	"github.com/rkalenko/qcdash/internal/middleware"
	"github.com/rkalenko/qcdash/internal/models"
	"github.com/rkalenko/qcdash/pkg/logger"
)

// registerRoutes sets up all HTTP routes on the given Gin engine.
func registerRoutes(r *gin.Engine, svc *appServices, cfg *config.Config) {
	// Middleware
	r.Use(logger.GinLogger(), logger.GinRecovery())
	r.RedirectTrailingSlash = false
	r.RedirectFixedPath = false
	r.Use(middleware.CORS(cfg.Server.AllowedOrigins))

	// Rate limiter for manual sync triggers
	syncLimiter := middleware.NewRateLimiter(1, 5)

	// Health check
	healthHandler := handlers.NewHealthHandler()
	r.GET("/health", healthHandler.CheckHealth)

	// API routes
	api := r.Group("/api")
	{
		// Auth routes (public)
		auth := api.Group("/auth")
		{
			auth.POST("/login", svc.authHandler.Login)
			auth.GET("/config", svc.authHandler.GetAuthConfig)
		}

		// Protected routes (any authenticated role)
		protected := api.Group("")
		protected.Use(middleware.AuthRequired())
		{
			// Auth
			protected.GET("/auth/me", svc.authHandler.GetCurrentUser)
			protected.POST("/auth/logout", svc.authHandler.Logout)

			// Dashboard and listings (role scoping happens in the services)
			dashboardHandler := handlers.NewDashboardHandler(models.GetDB())
			protected.GET("/dashboard/stats", dashboardHandler.GetStats)
			protected.GET("/issues", dashboardHandler.ListIssues)
			protected.GET("/returns", dashboardHandler.ListReturns)

			// Sources (read for all users)
			sourceHandler := handlers.NewSourceHandler(models.GetDB())
			protected.GET("/sources", sourceHandler.List)
			protected.GET("/sources/:id", sourceHandler.GetByID)

			// Sync history (read for all users)
			syncHandler := handlers.NewSyncHandler(models.GetDB(), cfg.Sync.ReturnsSpreadsheetID != "")
			protected.GET("/sync/logs", syncHandler.ListLogs)
			protected.GET("/sync/returns/logs", syncHandler.ListReturnsLogs)
		}

		// Staff routes (admin and team leads)
		staff := api.Group("")
		staff.Use(middleware.AuthRequired(), middleware.RoleRequired(models.RoleAdmin, models.RoleTeamLead))
		{
			userHandler := handlers.NewUserHandler(models.GetDB())
			staff.GET("/users", userHandler.List)
			staff.GET("/users/:id", userHandler.GetByID)
		}

		// Admin only routes, write operations audited
		admin := api.Group("")
		admin.Use(middleware.AuthRequired(), middleware.AdminRequired(), middleware.AuditLog())
		{
			// Users (write operations)
			userHandler := handlers.NewUserHandler(models.GetDB())
			admin.POST("/users", userHandler.Create)
			admin.PUT("/users/:id", userHandler.Update)
			admin.DELETE("/users/:id", userHandler.Delete)

			// Sources (write operations)
			sourceHandler := handlers.NewSourceHandler(models.GetDB())
			admin.POST("/sources", sourceHandler.Create)
			admin.PUT("/sources/:id", sourceHandler.Update)
			admin.DELETE("/sources/:id", sourceHandler.Delete)

			// System Config
			systemConfigHandler := handlers.NewSystemConfigHandler(models.GetDB(), svc.reportService)
			admin.GET("/system/config/:group", systemConfigHandler.ListGroup)
			admin.PUT("/system/config/:group", systemConfigHandler.UpdateGroup)

			// System Logs
			systemLogHandler := handlers.NewSystemLogHandler(models.GetDB())
			admin.GET("/system/logs", systemLogHandler.List)
			admin.GET("/system/logs/modules", systemLogHandler.GetModules)
			admin.POST("/system/logs/cleanup", systemLogHandler.Cleanup)
		}

		// Manual sync triggers (admin only, rate limited)
		syncTrigger := api.Group("", middleware.AuthRequired(), middleware.AdminRequired(), syncLimiter.Middleware())
		{
			syncHandler := handlers.NewSyncHandler(models.GetDB(), cfg.Sync.ReturnsSpreadsheetID != "")
			syncTrigger.POST("/sync/run", syncHandler.RunAll)
			syncTrigger.POST("/sync/returns", syncHandler.RunReturns)
			syncTrigger.POST("/sources/:id/sync", syncHandler.RunSource)
		}
	}
}
