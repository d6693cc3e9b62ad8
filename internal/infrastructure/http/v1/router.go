// Package v1 provides HTTP API version 1.
package v1

import (
	"github.com/gin-gonic/gin"

	"gledger/internal/domain/ledger"
	"gledger/internal/domain/reports"
	"gledger/internal/infrastructure/http/v1/handlers"
	"gledger/internal/infrastructure/http/v1/middleware"
	"gledger/internal/infrastructure/storage/postgres"
	"gledger/pkg/logger"
)

// RouterConfig holds router dependencies.
type RouterConfig struct {
	Pool *postgres.Pool

	Logger *logger.Logger

	// TokenValidator for bearer token validation
	TokenValidator middleware.TokenValidator

	JournalService  *ledger.JournalService
	BatchService    *ledger.BatchService
	SettingsService *ledger.SettingsService
	ReportsService  *reports.Service
}

// NewRouter creates and configures the Gin router.
func NewRouter(cfg RouterConfig) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()

	// Global middleware (order matters!)
	router.Use(middleware.Recovery())
	router.Use(middleware.Trace())
	router.Use(middleware.Logger(cfg.Logger))
	router.Use(middleware.ErrorHandler())

	// Health endpoints (no auth required)
	healthHandler := handlers.NewHealthHandler(cfg.Pool)
	health := router.Group("/health")
	{
		health.GET("/live", healthHandler.Live)
		health.GET("/ready", healthHandler.Ready)
		health.GET("/info", healthHandler.Info)
	}

	// API v1, tenant scope comes from the token
	v1 := router.Group("/api/v1")
	v1.Use(middleware.Auth(cfg.TokenValidator))
	{
		journalHandler := handlers.NewJournalHandler(cfg.JournalService)
		journals := v1.Group("/journals")
		{
			journals.POST("", journalHandler.Create)
			journals.GET("", journalHandler.List)
			journals.GET("/:id", journalHandler.Get)
			journals.DELETE("/:id", journalHandler.Delete)
			journals.POST("/:id/entries", journalHandler.AddEntry)
			journals.PUT("/:id/entries/:lineNo", journalHandler.UpdateEntry)
			journals.DELETE("/:id/entries/:lineNo", journalHandler.RemoveEntry)
			journals.POST("/:id/post", journalHandler.Post)
			journals.POST("/:id/reverse", journalHandler.Reverse)
		}

		batchHandler := handlers.NewBatchHandler(cfg.BatchService)
		batches := v1.Group("/batches")
		{
			batches.POST("", batchHandler.Create)
			batches.GET("", batchHandler.List)
			batches.GET("/:id", batchHandler.Get)
			batches.GET("/:id/journals", batchHandler.Journals)
			batches.POST("/:id/journals", batchHandler.AddJournal)
			batches.DELETE("/:id/journals/:journalId", batchHandler.RemoveJournal)
			batches.POST("/:id/ready", batchHandler.Ready)
			batches.POST("/:id/post", batchHandler.Post)
			batches.POST("/:id/cancel", batchHandler.Cancel)
		}

		reportsHandler := handlers.NewReportsHandler(cfg.ReportsService)
		ledgerGroup := v1.Group("/ledger")
		{
			ledgerGroup.GET("/entries", reportsHandler.Entries)
			ledgerGroup.GET("/account-totals", reportsHandler.AccountTotals)
		}

		settingsHandler := handlers.NewSettingsHandler(cfg.SettingsService)
		settings := v1.Group("/settings")
		{
			settings.GET("", settingsHandler.Get)
			settings.PUT("", settingsHandler.Update)
		}
	}

	return router
}
