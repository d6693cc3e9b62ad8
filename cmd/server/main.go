// Package main is the entry point for the gledger API server.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"gledger/internal/domain/auth"
	"gledger/internal/domain/ledger"
	"gledger/internal/domain/reports"
	v1 "gledger/internal/infrastructure/http/v1"
	"gledger/internal/infrastructure/storage/postgres"
	"gledger/internal/infrastructure/storage/postgres/ledger_repo"
	"gledger/internal/infrastructure/storage/postgres/report_repo"
	"gledger/pkg/logger"
)

func main() {
	log, err := logger.New(logger.Config{
		Level:       getEnv("LOG_LEVEL", "info"),
		Development: getEnv("APP_ENV", "development") == "development",
	})
	if err != nil {
		fmt.Printf("failed to initialize logger: %v\n", err)
		os.Exit(1)
	}

	ctx := context.Background()
	log.Info("starting gledger server")

	// --- Database ---
	poolCfg := postgres.DefaultPoolConfig(mustEnv("DATABASE_URL"))
	pool, err := postgres.NewPool(ctx, poolCfg)
	if err != nil {
		log.Fatalw("failed to connect to database", "error", err)
	}
	defer pool.Close()
	log.Info("database connection established")

	txManager := postgres.NewTxManager(pool)

	// --- Repositories ---
	journalRepo := ledger_repo.NewJournalRepo(txManager)
	batchRepo := ledger_repo.NewBatchRepo(txManager)
	settingsRepo := ledger_repo.NewSettingsRepo(txManager)
	accountDirectory := ledger_repo.NewAccountDirectory(txManager)
	reportRepo := report_repo.NewReportRepo(txManager)

	// --- Notifications ---
	notifier := postgres.NewOutboxNotifier(txManager)
	relay := postgres.NewNotificationRelay(pool.Unwrap(), getEnvInt("NOTIFY_BATCH_SIZE", 50), logSink{})

	relayCtx, stopRelay := context.WithCancel(ctx)
	defer stopRelay()
	go runRelay(relayCtx, relay, getEnvDuration("NOTIFY_INTERVAL", 10*time.Second), log)

	// --- Domain services ---
	sequencer := postgres.NewPgSequencer(txManager)
	validator := ledger.NewValidator(accountDirectory)

	journalService := ledger.NewJournalService(
		journalRepo, settingsRepo, validator, sequencer, txManager, notifier)
	batchService := ledger.NewBatchService(
		batchRepo, journalRepo, settingsRepo, validator, sequencer, txManager, notifier)
	settingsService := ledger.NewSettingsService(settingsRepo)
	reportsService := reports.NewService(reportRepo)

	// --- Identity ---
	jwtSecret := getEnv("JWT_SECRET", "your-secret-key-change-in-production")
	jwtService := auth.NewJWTService(auth.DefaultJWTConfig(jwtSecret))

	// --- Router ---
	router := v1.NewRouter(v1.RouterConfig{
		Pool:            pool,
		Logger:          log,
		TokenValidator:  jwtService,
		JournalService:  journalService,
		BatchService:    batchService,
		SettingsService: settingsService,
		ReportsService:  reportsService,
	})

	// --- HTTP Server ---
	port := getEnv("APP_PORT", "8080")
	server := &http.Server{
		Addr:         ":" + port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Infow("server starting", "port", port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalw("server failed", "error", err)
		}
	}()

	// --- Graceful shutdown ---
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down server...")
	stopRelay()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Fatalw("server forced to shutdown", "error", err)
	}

	log.Info("server stopped")
}

// runRelay drains the notification outbox until ctx is cancelled.
func runRelay(ctx context.Context, relay *postgres.NotificationRelay, interval time.Duration, log *logger.Logger) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := relay.ProcessBatch(ctx)
			if err != nil {
				log.Warnw("notification relay batch failed", "error", err)
				continue
			}
			if n > 0 {
				log.Infow("notifications delivered", "count", n)
			}
		}
	}
}

// logSink is the default delivery target when no external sink is
// configured: posting events land in the structured log.
type logSink struct{}

func (logSink) Deliver(ctx context.Context, event ledger.Event) error {
	logger.Info(ctx, "posting event",
		"type", event.Type,
		"tenant_id", event.TenantID,
		"subject_id", event.ID,
		"summary", event.Summary)
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func mustEnv(key string) string {
	value := os.Getenv(key)
	if value == "" {
		fmt.Printf("required environment variable %s not set\n", key)
		os.Exit(1)
	}
	return value
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		var result int
		if _, err := fmt.Sscanf(value, "%d", &result); err == nil {
			return result
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
