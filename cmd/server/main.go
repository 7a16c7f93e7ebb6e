package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	catalogapp "github.com/StoneFind22/CineMan/internal/application/catalog"
	importapp "github.com/StoneFind22/CineMan/internal/application/import"
	inventoryapp "github.com/StoneFind22/CineMan/internal/application/inventory"
	"github.com/StoneFind22/CineMan/internal/domain/inventory"
	"github.com/StoneFind22/CineMan/internal/infrastructure/cache"
	"github.com/StoneFind22/CineMan/internal/infrastructure/config"
	"github.com/StoneFind22/CineMan/internal/infrastructure/event"
	"github.com/StoneFind22/CineMan/internal/infrastructure/logger"
	"github.com/StoneFind22/CineMan/internal/infrastructure/persistence"
	"github.com/StoneFind22/CineMan/internal/infrastructure/scheduler"
	"github.com/StoneFind22/CineMan/internal/infrastructure/storage"
	"github.com/StoneFind22/CineMan/internal/infrastructure/telemetry"
	"github.com/StoneFind22/CineMan/internal/interfaces/http/handler"
	"github.com/StoneFind22/CineMan/internal/interfaces/http/middleware"
	"github.com/StoneFind22/CineMan/internal/interfaces/http/router"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	_ "github.com/StoneFind22/CineMan/docs"
)

//	@title			CineMan Inventory API
//	@version		1.0
//	@description	Inventory consumption engine for cinema concession stands: recipes, sales deduction, stock ledger and CSV reconciliation.

//	@contact.name	CineMan
//	@contact.url	https://github.com/StoneFind22/CineMan

//	@host		localhost:8080
//	@BasePath	/api/v1

//	@externalDocs.description	OpenAPI
//	@externalDocs.url			https://swagger.io/resources/open-api/

// ConsumptionMetrics is the recorder the consumption service reports to
var _ inventoryapp.ConsumptionRecorder = (*telemetry.ConsumptionMetrics)(nil)

const shutdownTimeout = 30 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	logCfg := logger.Config{Level: cfg.Log.Level, Format: cfg.Log.Format, Output: cfg.Log.Output}
	bootLog, err := logger.New(logCfg)
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}

	ctx := context.Background()

	// Log export must exist before the process logger so that the bridge core can tee into it
	logProvider, err := telemetry.NewLoggerProvider(ctx, telemetry.LogsConfig{
		Enabled:           cfg.Telemetry.LogsEnabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		ServiceName:       cfg.Telemetry.ServiceName,
		Insecure:          cfg.Telemetry.Insecure,
	}, bootLog)
	if err != nil {
		bootLog.Fatal("Failed to initialize log export", zap.Error(err))
	}
	log, err := logger.New(logCfg, telemetry.NewZapOTELCore(telemetry.ZapBridgeConfig{
		ServiceName:    cfg.Telemetry.ServiceName,
		LoggerProvider: logProvider,
		Level:          logger.ParseLevel(cfg.Log.Level),
	}))
	if err != nil {
		bootLog.Fatal("Failed to initialize logger", zap.Error(err))
	}
	defer func() { _ = log.Sync() }()

	log.Info("Starting CineMan inventory service",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
		zap.String("db_driver", cfg.Database.Driver),
	)

	tracerProvider, err := telemetry.NewTracerProvider(ctx, telemetry.Config{
		Enabled:           cfg.Telemetry.Enabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		SamplingRatio:     cfg.Telemetry.SamplingRatio,
		ServiceName:       cfg.Telemetry.ServiceName,
		Insecure:          cfg.Telemetry.Insecure,
	}, log)
	if err != nil {
		log.Fatal("Failed to initialize tracing", zap.Error(err))
	}

	meterProvider, err := telemetry.NewMeterProvider(ctx, telemetry.MetricsConfig{
		Enabled:           cfg.Telemetry.MetricsEnabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		ExportInterval:    cfg.Telemetry.MetricsInterval,
		ServiceName:       cfg.Telemetry.ServiceName,
		Insecure:          cfg.Telemetry.Insecure,
	}, log)
	if err != nil {
		log.Fatal("Failed to initialize metrics", zap.Error(err))
	}
	meter := meterProvider.Meter("github.com/StoneFind22/CineMan")

	profilerCfg := telemetry.DefaultProfilerConfig(cfg.Telemetry.ProfilingServer, cfg.Telemetry.ServiceName)
	profilerCfg.Enabled = cfg.Telemetry.ProfilingEnabled
	profiler, err := telemetry.NewProfiler(profilerCfg, log)
	if err != nil {
		log.Fatal("Failed to start profiler", zap.Error(err))
	}
	if profiler.IsEnabled() && tracerProvider.IsEnabled() {
		if err := tracerProvider.EnableSpanProfiles(); err != nil {
			log.Warn("Failed to link spans to profiles", zap.Error(err))
		}
	}

	// Database
	gormOpts := []logger.GormLoggerOption{logger.WithBoundValues(cfg.Telemetry.DBLogFullSQL)}
	if cfg.Telemetry.DBSlowQueryThresh > 0 {
		gormOpts = append(gormOpts, logger.WithSlowThreshold(cfg.Telemetry.DBSlowQueryThresh))
	}
	gormLog := logger.NewGormLogger(log, logger.MapGormLogLevel(cfg.Log.Level), gormOpts...)
	db, err := persistence.NewDatabase(&cfg.Database, persistence.WithLogger(gormLog))
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Error closing database", zap.Error(err))
		}
	}()
	if cfg.Database.Driver == config.DriverSQLite {
		if err := db.AutoMigrate(); err != nil {
			log.Fatal("Failed to prepare embedded database", zap.Error(err))
		}
	}

	dbCfg := telemetry.DefaultDBInstrumentationConfig()
	dbCfg.TraceEnabled = cfg.Telemetry.DBTraceEnabled && tracerProvider.IsEnabled()
	dbCfg.LogFullSQL = cfg.Telemetry.DBLogFullSQL
	if cfg.Telemetry.DBSlowQueryThresh > 0 {
		dbCfg.SlowQueryThresh = cfg.Telemetry.DBSlowQueryThresh
	}
	if cfg.Database.Driver == config.DriverSQLite {
		dbCfg.DBSystem = "sqlite"
	}
	dbInstrumentation, err := telemetry.NewDBInstrumentation(dbCfg, meter, log)
	if err != nil {
		log.Fatal("Failed to build database instrumentation", zap.Error(err))
	}
	if err := db.DB.Use(dbInstrumentation); err != nil {
		log.Fatal("Failed to instrument database", zap.Error(err))
	}
	if reg, err := telemetry.RegisterDBPoolMetrics(db.DB, meter); err != nil {
		log.Warn("Failed to register connection pool metrics", zap.Error(err))
	} else {
		defer func() { _ = reg.Unregister() }()
	}
	log.Info("Database connected")

	// Repositories
	itemRepo := persistence.NewGormInventoryItemRepository(db.DB)
	movementRepo := persistence.NewGormStockMovementRepository(db.DB)
	productRepo := persistence.NewGormProductRepository(db.DB)
	categoryRepo := persistence.NewGormCategoryRepository(db.DB)
	recipeRepo := persistence.NewGormRecipeRepository(db.DB)
	txScope := persistence.NewGormTransactionScope(db.DB)

	policy := inventory.StockPolicy{
		AllowNegativeStock:  cfg.Inventory.AllowNegativeStock,
		EnforceMovementSign: cfg.Inventory.EnforceMovementSign,
	}

	// Import plans
	planStore, err := cache.NewPlanStoreFactory(cfg.Import, cfg.Redis, cache.WithLogger(log)).CreateStore(ctx)
	if err != nil {
		log.Fatal("Failed to create import plan store", zap.Error(err))
	}
	defer func() {
		if err := planStore.Close(); err != nil {
			log.Error("Error closing import plan store", zap.Error(err))
		}
	}()

	// Application services
	inventoryService := inventoryapp.NewInventoryService(itemRepo, movementRepo, recipeRepo, txScope, policy)
	consumptionService := inventoryapp.NewConsumptionService(txScope, policy, cfg.Inventory.MaxRecipeDepth)
	productService := catalogapp.NewProductService(productRepo, categoryRepo, recipeRepo, itemRepo,
		persistence.NewGormRecipeTransactionScope(db.DB), cfg.Inventory.MaxRecipeDepth)
	categoryService := catalogapp.NewCategoryService(categoryRepo, productRepo)
	reconciliationService := importapp.NewReconciliationService(itemRepo, txScope, planStore, policy,
		importapp.ReconciliationConfig{
			MaxErrors:   cfg.Import.MaxErrors,
			MaxFileSize: cfg.Import.MaxFileSize,
			MaxRows:     cfg.Import.MaxRows,
		})

	inventoryService.SetLogger(log)
	consumptionService.SetLogger(log)
	productService.SetLogger(log)
	reconciliationService.SetLogger(log)

	if cfg.Storage.Enabled {
		archive, err := storage.NewS3ImportArchive(ctx, &cfg.Storage, storage.WithLogger(log))
		if err != nil {
			log.Warn("Import archive unavailable, uploads will not be kept", zap.Error(err))
		} else if err := archive.EnsureBucket(ctx); err != nil {
			log.Warn("Import archive bucket unavailable, uploads will not be kept", zap.Error(err))
		} else {
			reconciliationService.SetArchive(archive)
			log.Info("Import archive enabled", zap.String("bucket", cfg.Storage.Bucket))
		}
	}

	// Domain events
	eventBus := event.NewInMemoryEventBus(log)
	eventBus.Subscribe(inventoryapp.NewStockAlertHandler(log).
		WithNotifier(inventoryapp.NewLoggingStockAlertNotifier(log)))
	eventBus.Subscribe(catalogapp.NewProductStatusHandler(log, recipeRepo))
	eventBus.Subscribe(event.NewAuditLogHandler(log))

	inventoryService.SetEventPublisher(eventBus)
	consumptionService.SetEventPublisher(eventBus)
	productService.SetEventPublisher(eventBus)
	reconciliationService.SetEventPublisher(eventBus)

	// Consumption metrics
	bgCtx, stopBackground := context.WithCancel(ctx)
	defer stopBackground()

	consumptionMetrics, err := telemetry.NewConsumptionMetrics(telemetry.ConsumptionMetricsConfig{
		Meter:         meter,
		Logger:        log,
		StockProvider: telemetry.NewRepositoryStockLevelProvider(itemRepo),
	})
	if err != nil {
		log.Warn("Failed to initialize consumption metrics", zap.Error(err))
	} else {
		consumptionService.SetRecorder(consumptionMetrics)
		if meterProvider.IsEnabled() {
			consumptionMetrics.StartPeriodicCollection(bgCtx, cfg.Telemetry.MetricsInterval)
		}
		defer consumptionMetrics.Stop()
	}

	// Nightly ledger audit
	var (
		auditScheduler *scheduler.Scheduler
		auditTrigger   *scheduler.CronTrigger
	)
	if cfg.Inventory.AuditEnabled {
		hour, minute, err := scheduler.ParseCronSchedule(cfg.Inventory.AuditSchedule)
		if err != nil {
			log.Fatal("Invalid ledger audit schedule", zap.Error(err))
		}
		auditScheduler = scheduler.NewScheduler(scheduler.DefaultSchedulerConfig(),
			scheduler.NewLedgerAuditExecutor(itemRepo, movementRepo, log.Named("ledger_audit")), log)
		if err := auditScheduler.Start(bgCtx); err != nil {
			log.Fatal("Failed to start ledger audit scheduler", zap.Error(err))
		}
		triggerCfg := scheduler.DefaultCronTriggerConfig()
		triggerCfg.DailyHour, triggerCfg.DailyMinute = hour, minute
		auditTrigger = scheduler.NewCronTrigger(triggerCfg, auditScheduler, log)
		if err := auditTrigger.Start(bgCtx); err != nil {
			log.Fatal("Failed to start ledger audit trigger", zap.Error(err))
		}
	}

	// HTTP
	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	var rateLimiter *middleware.RateLimiter
	if cfg.HTTP.RateLimitEnabled {
		rateLimiter = middleware.NewRateLimiter(cfg.HTTP.RateLimitRequests, cfg.HTTP.RateLimitWindow)
		rateLimiter.StartCleanup(bgCtx)
	}

	checks := map[string]handler.Pinger{"database": db}
	if redisStore, ok := planStore.(*cache.RedisPlanStore); ok {
		checks["redis"] = redisStore
	}

	engine := router.NewEngine(router.EngineConfig{
		ServiceName:      cfg.Telemetry.ServiceName,
		HTTP:             cfg.HTTP,
		Swagger:          cfg.Swagger,
		MaxBodySize:      cfg.Import.MaxFileSize + 1<<20,
		TracingEnabled:   tracerProvider.IsEnabled(),
		ProfilingEnabled: profiler.IsEnabled(),
		Meter:            meter,
		RateLimiter:      rateLimiter,
		Logger:           log,
	}, router.Handlers{
		Inventory:  handler.NewInventoryItemHandler(inventoryService),
		Import:     handler.NewImportHandler(reconciliationService, cfg.Import.MaxFileSize),
		Sales:      handler.NewSaleHandler(consumptionService, inventoryService),
		Products:   handler.NewProductHandler(productService, consumptionService),
		Categories: handler.NewCategoryHandler(categoryService),
		System:     handler.NewSystemHandler(cfg.App.Name, checks),
	})

	srv := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        engine,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}

	go func() {
		log.Info("Server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", zap.Error(err))
	}
	if auditTrigger != nil {
		if err := auditTrigger.Stop(shutdownCtx); err != nil {
			log.Error("Error stopping ledger audit trigger", zap.Error(err))
		}
	}
	if auditScheduler != nil {
		if err := auditScheduler.Stop(shutdownCtx); err != nil {
			log.Error("Error stopping ledger audit scheduler", zap.Error(err))
		}
	}
	stopBackground()
	if err := eventBus.Stop(shutdownCtx); err != nil {
		log.Error("Error stopping event bus", zap.Error(err))
	}
	if err := profiler.Stop(); err != nil {
		log.Error("Error stopping profiler", zap.Error(err))
	}
	if err := meterProvider.Shutdown(shutdownCtx); err != nil {
		log.Error("Error shutting down metrics", zap.Error(err))
	}
	if err := tracerProvider.Shutdown(shutdownCtx); err != nil {
		log.Error("Error shutting down tracing", zap.Error(err))
	}
	if err := logProvider.Shutdown(shutdownCtx); err != nil {
		log.Error("Error shutting down log export", zap.Error(err))
	}

	log.Info("Server exited gracefully")
}
