package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/SiteBossInc/owl-sync/internal/api"
	"github.com/SiteBossInc/owl-sync/internal/catalog"
	"github.com/SiteBossInc/owl-sync/internal/config"
	"github.com/SiteBossInc/owl-sync/internal/orders"
	"github.com/SiteBossInc/owl-sync/internal/provider"
	"github.com/SiteBossInc/owl-sync/internal/provider/shopify"
	"github.com/SiteBossInc/owl-sync/internal/provider/siteboss"
	"github.com/SiteBossInc/owl-sync/internal/query"
	"github.com/SiteBossInc/owl-sync/internal/reconcile"
	"github.com/SiteBossInc/owl-sync/internal/repository"
	"github.com/SiteBossInc/owl-sync/internal/repository/memory"
	"github.com/SiteBossInc/owl-sync/internal/repository/postgres"
	"github.com/SiteBossInc/owl-sync/internal/scheduler"
	"github.com/SiteBossInc/owl-sync/internal/service"
	"github.com/SiteBossInc/owl-sync/internal/warehouse"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Initialize logger
	var logger *zap.Logger
	if cfg.Environment == "production" {
		logger, _ = zap.NewProduction()
	} else {
		logger, _ = zap.NewDevelopment()
	}
	defer logger.Sync()

	logger.Info("Starting OWL sync engine",
		zap.String("port", cfg.Port),
		zap.String("environment", cfg.Environment),
		zap.String("sync_frequency", string(cfg.Sync.Frequency)),
	)

	// Repositories: Postgres when configured, in-memory otherwise
	var repos *repository.Repositories
	if cfg.Database.Host != "" {
		db, err := postgres.NewConnection(cfg.Database)
		if err != nil {
			logger.Fatal("Failed to connect to database", zap.Error(err))
		}
		defer db.Close()
		repos = postgres.NewRepositories(db, logger)
	} else {
		logger.Warn("DB_HOST not set, using in-memory repositories")
		repos = memory.NewRepositories()
	}

	tenantID := cfg.SiteBoss.TenantID
	if tenantID == "" {
		logger.Fatal("SITEBOSS_TENANT_ID is required")
	}

	// Engine state
	catalogStore := catalog.NewStore(logger)
	mirror := warehouse.NewMirror(logger)
	reports := reconcile.NewReportStore()
	engine := orders.NewEngine(tenantID, reports, mirror, logger)

	// Providers
	storefront := shopify.NewClient(cfg.Shopify, logger)
	warehouseClient := siteboss.NewClient(cfg.SiteBoss, logger)

	// Sync pipeline and scheduler
	pipeline := service.NewSyncPipeline(tenantID, storefront, warehouseClient,
		catalogStore, mirror, reports, logger)
	sched := scheduler.New(tenantID, cfg.Sync, pipeline.RunOnce, logger)

	facade := query.NewFacade(tenantID, reports, mirror, engine, pipeline,
		cfg.Sync.LowStockThreshold, logger)

	// Apply stored order-ingestion filters at startup
	if settings, err := repos.Settings.GetByTenantID(context.Background(), tenantID); err == nil {
		engine.SetFilters(orders.IngestFilters{
			MinOrderAmount: settings.OrderIngestion.MinOrderAmount,
			ExcludeTags:    settings.OrderIngestion.ExcludeTags,
		})
		pipeline.SetWebhookSettings(settings.Webhooks, settings.InventorySync.LowStockThreshold)
	}

	var validator provider.CredentialValidator = warehouseClient

	router := api.NewRouter(api.Deps{
		Cfg:             cfg,
		Repos:           repos,
		Engine:          engine,
		Facade:          facade,
		Warehouse:       warehouseClient,
		Validator:       validator,
		Webhooks:        pipeline,
		OnTrackingEvent: sched.Trigger,
	}, logger)

	// Create HTTP server
	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	// Sync scheduler: runs on the configured cadence, plus webhook triggers
	syncCtx, stopSync := context.WithCancel(context.Background())
	go sched.Run(syncCtx)
	logger.Info("Sync scheduler started", zap.String("frequency", string(cfg.Sync.Frequency)))

	logger.Info("Server started successfully", zap.String("address", srv.Addr))

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")
	stopSync()

	// Graceful shutdown with timeout
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Fatal("Server forced to shutdown", zap.Error(err))
	}

	logger.Info("Server exited")
}
