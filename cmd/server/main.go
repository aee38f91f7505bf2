package main

import (
	"context"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	journalapp "github.com/gescom/backend/internal/application/journal"
	numberingapp "github.com/gescom/backend/internal/application/numbering"
	syncapp "github.com/gescom/backend/internal/application/sync"
	"github.com/gescom/backend/internal/domain/tax"
	"github.com/gescom/backend/internal/infrastructure/config"
	"github.com/gescom/backend/internal/infrastructure/logger"
	"github.com/gescom/backend/internal/infrastructure/persistence"
	"github.com/gescom/backend/internal/infrastructure/scheduler"
	"github.com/gescom/backend/internal/infrastructure/telemetry"
	"github.com/gescom/backend/internal/infrastructure/woocommerce"
	"github.com/gescom/backend/internal/interfaces/http/handler"
	"github.com/gescom/backend/internal/interfaces/http/router"
)

func main() {
	var configPath string
	flag.StringVar(&configPath, "config", "", "Path to config file (default: ./config.toml)")
	flag.Parse()

	// Load configuration
	cfg, err := config.Load(configPath)
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	// Initialize logger
	log := logger.New(cfg.Log.Level, cfg.Log.Format)
	defer func() {
		_ = log.Sync()
	}()

	log.Info("Starting order mirror",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Environment),
		zap.String("version", cfg.App.Version),
	)

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	// Database connection with zap-backed GORM logger
	gormLog := logger.NewGormLogger(log, logger.MapGormLogLevel(cfg.Log.Level))
	db, err := persistence.NewDatabaseWithCustomLogger(&cfg.Database, gormLog)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Failed to close database", zap.Error(err))
		}
	}()
	log.Info("Database connected",
		zap.String("host", cfg.Database.Host),
		zap.String("database", cfg.Database.Name),
	)

	// Database tracing instrumentation
	tracingPlugin := telemetry.NewDBTracingPlugin(telemetry.DBTracingConfig{
		Enabled:         cfg.Telemetry.DBTraceEnabled,
		LogQueryParams:  cfg.Telemetry.DBTraceQueryParams,
		LogRowsAffected: cfg.Telemetry.DBTraceRowsAffected,
		DBName:          cfg.Database.Name,
	}, log)
	if err := tracingPlugin.Register(db.DB); err != nil {
		log.Fatal("Failed to register database tracing", zap.Error(err))
	}

	// Repositories
	orderRepo := persistence.NewGormOrderRepository(db.DB)
	syncStateRepo := persistence.NewGormSyncStateRepository(db.DB)
	journalRepo := persistence.NewGormJournalRepository(db.DB)
	numberRepo := persistence.NewGormDocumentNumberRepository(db.DB)

	// Commerce platform adapter
	wooCfg := woocommerce.NewConfig(
		cfg.WooCommerce.BaseURL,
		cfg.WooCommerce.ConsumerKey,
		cfg.WooCommerce.ConsumerSecret,
	)
	if cfg.WooCommerce.Timeout > 0 {
		wooCfg.TimeoutSeconds = int(cfg.WooCommerce.Timeout.Seconds())
	}
	platform, err := woocommerce.NewAdapter(wooCfg)
	if err != nil {
		log.Fatal("Failed to create platform adapter", zap.Error(err))
	}

	// Tax rate cache, seeded from the upstream catalog when reachable
	rateCache := tax.NewRateCache(platform, log)
	if err := rateCache.Initialize(context.Background()); err != nil {
		log.Warn("Tax catalog unavailable, using built-in rates", zap.Error(err))
	}

	// Application services
	numberingService := numberingapp.NewService(numberRepo, log)
	journalService := journalapp.NewService(journalRepo, orderRepo, numberingService, rateCache, log)

	accountID := uuid.Nil
	if cfg.Sync.AccountID != "" {
		accountID, err = uuid.Parse(cfg.Sync.AccountID)
		if err != nil {
			log.Fatal("Invalid sync account id", zap.String("account_id", cfg.Sync.AccountID), zap.Error(err))
		}
	}

	// Customer import stays an external collaborator; no mirror is wired here.
	syncService := syncapp.NewService(
		accountID,
		platform,
		orderRepo,
		syncStateRepo,
		rateCache,
		journalService,
		nil,
		log,
		syncapp.WithPageSize(cfg.Sync.PageSize),
		syncapp.WithInitialWindow(cfg.Sync.InitialWindow),
		syncapp.WithBatchPause(cfg.Sync.BatchPause),
	)

	// Periodic sync loop
	syncScheduler := scheduler.NewSyncScheduler(func(ctx context.Context) error {
		_, err := syncService.SyncOnce(ctx)
		return err
	}, log)
	if cfg.Sync.Enabled {
		if err := syncScheduler.Start(cfg.Sync.IntervalMinutes); err != nil {
			log.Fatal("Failed to start sync scheduler", zap.Error(err))
		}
		log.Info("Sync scheduler started", zap.Int("interval_minutes", cfg.Sync.IntervalMinutes))
	}

	// HTTP layer
	engine := router.Setup(log, router.Handlers{
		Sync:    handler.NewSyncHandler(syncService, syncScheduler, log),
		Order:   handler.NewOrderHandler(orderRepo),
		Journal: handler.NewJournalHandler(journalService),
		Number:  handler.NewNumberHandler(numberingService),
	})

	srv := &http.Server{
		Addr:         cfg.HTTP.Addr(),
		Handler:      engine,
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
	}

	// Start server in goroutine
	go func() {
		log.Info("Server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
	defer cancel()

	if syncScheduler.Running() {
		if err := syncScheduler.Stop(ctx); err != nil {
			log.Error("Failed to stop sync scheduler", zap.Error(err))
		}
	}

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("Server forced to shutdown", zap.Error(err))
	}

	log.Info("Server exited gracefully")
}
