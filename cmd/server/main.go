package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	_ "github.com/erp/syncengine/docs"
	integrationapp "github.com/erp/syncengine/internal/application/integration"
	"github.com/erp/syncengine/internal/domain/integration"
	"github.com/erp/syncengine/internal/infrastructure/auth"
	"github.com/erp/syncengine/internal/infrastructure/cache"
	"github.com/erp/syncengine/internal/infrastructure/config"
	"github.com/erp/syncengine/internal/infrastructure/connector"
	"github.com/erp/syncengine/internal/infrastructure/logger"
	"github.com/erp/syncengine/internal/infrastructure/persistence"
	"github.com/erp/syncengine/internal/infrastructure/scheduler"
	"github.com/erp/syncengine/internal/infrastructure/secrets"
	"github.com/erp/syncengine/internal/infrastructure/storage"
	"github.com/erp/syncengine/internal/infrastructure/telemetry"
	"github.com/erp/syncengine/internal/interfaces/http/handler"
	"github.com/erp/syncengine/internal/interfaces/http/router"
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	gormlogger "gorm.io/gorm/logger"
)

//	@title			ERP Integration Sync Engine API
//	@version		1.0
//	@description	Pushes ERP records to accounting platforms, tax gateways, payment gateways and custom webhooks.

//	@contact.name	API Support

//	@license.name	Apache 2.0
//	@license.url	http://www.apache.org/licenses/LICENSE-2.0.html

//	@BasePath	/api/v1

//	@securityDefinitions.apikey	BearerAuth
//	@in							header
//	@name						Authorization
//	@description				Bearer token authentication. Format: "Bearer {token}"

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	log, err := logger.New(&logger.Config{
		Level:      cfg.Log.Level,
		Format:     cfg.Log.Format,
		Output:     cfg.Log.Output,
		TimeFormat: "2006-01-02T15:04:05.000Z07:00",
	})
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}

	rootCtx := context.Background()
	serviceName := cfg.Telemetry.ServiceName

	// Telemetry providers. Disabled providers are no-ops, so the rest of the
	// wiring does not branch on cfg.Telemetry.Enabled.
	tracerProvider, err := telemetry.NewTracerProvider(rootCtx, telemetry.Config{
		Enabled:           cfg.Telemetry.Enabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		SamplingRatio:     cfg.Telemetry.SamplingRatio,
		ServiceName:       serviceName,
		ServiceVersion:    cfg.App.Version,
		Insecure:          cfg.Telemetry.Insecure,
	}, log)
	if err != nil {
		log.Fatal("Failed to initialize tracer provider", zap.Error(err))
	}
	meterProvider, err := telemetry.NewMeterProvider(rootCtx, telemetry.MetricsConfig{
		Enabled:           cfg.Telemetry.Enabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		ExportInterval:    cfg.Telemetry.MetricsInterval,
		ServiceName:       serviceName,
		ServiceVersion:    cfg.App.Version,
		Insecure:          cfg.Telemetry.Insecure,
	}, log)
	if err != nil {
		log.Fatal("Failed to initialize meter provider", zap.Error(err))
	}
	loggerProvider, err := telemetry.NewLoggerProvider(rootCtx, telemetry.LogsConfig{
		Enabled:           cfg.Telemetry.Enabled && cfg.Telemetry.LogsEnabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		ServiceName:       serviceName,
		ServiceVersion:    cfg.App.Version,
		Insecure:          cfg.Telemetry.Insecure,
	}, log)
	if err != nil {
		log.Fatal("Failed to initialize logger provider", zap.Error(err))
	}
	if log, err = telemetry.BridgeLogger(log, loggerProvider, serviceName); err != nil {
		panic(err.Error())
	}
	defer func() {
		_ = log.Sync()
	}()

	log.Info("Starting sync engine",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
		zap.Bool("telemetry", cfg.Telemetry.Enabled),
	)

	// Database
	gormLog := logger.NewGormLogger(log, gormlogger.Config{
		LogLevel:                  logger.MapGormLogLevel(cfg.Log.Level),
		SlowThreshold:             cfg.Telemetry.DBSlowQueryThresh,
		IgnoreRecordNotFoundError: true,
	})
	db, err := persistence.NewDatabase(&cfg.Database, persistence.WithGormLogger(gormLog))
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Error closing database", zap.Error(err))
		}
	}()

	dbTracing := telemetry.DefaultDBTracingConfig()
	dbTracing.Enabled = cfg.Telemetry.Enabled && cfg.Telemetry.DBTraceEnabled
	dbTracing.LogFullSQL = cfg.Telemetry.DBLogFullSQL
	dbTracing.SlowQueryThresh = cfg.Telemetry.DBSlowQueryThresh
	if err := telemetry.RegisterDBTracing(db.DB, dbTracing, log); err != nil {
		log.Fatal("Failed to register database tracing", zap.Error(err))
	}
	dbMetricsConfig := telemetry.DefaultDBMetricsConfig()
	dbMetricsConfig.SlowQueryThreshold = cfg.Telemetry.DBSlowQueryThresh
	dbMetrics, err := telemetry.RegisterDBMetrics(db.DB, meterProvider, dbMetricsConfig, log)
	if err != nil {
		log.Fatal("Failed to register database metrics", zap.Error(err))
	}
	if dbMetrics != nil {
		defer dbMetrics.Stop()
	}
	log.Info("Database connected successfully")

	// Repositories
	cipher, err := secrets.New(cfg.Credentials.EncryptionKey)
	if err != nil {
		log.Fatal("Invalid credentials encryption key", zap.Error(err))
	}
	if cfg.Credentials.EncryptionKey == "" {
		log.Warn("credentials.encryption_key is empty, integration credentials are stored in plaintext")
	}
	configRepo := persistence.NewGormIntegrationConfigRepository(db.DB, cipher)
	jobRepo := persistence.NewGormSyncJobRepository(db.DB)
	mappingRepo := persistence.NewGormRecordMappingRepository(db.DB)
	recordErrorRepo := persistence.NewGormSyncRecordErrorRepository(db.DB)
	auditRepo := persistence.NewGormAuditLogRepository(db.DB)
	records := persistence.NewGormLocalRecordSource(db.DB, nil)

	// Job locks
	locker, err := cache.NewJobLockerFactory(cfg.Redis,
		cache.WithLogger(log),
		cache.WithInMemoryFallback(cfg.App.Env != "production"),
	).CreateLocker()
	if err != nil {
		log.Fatal("Failed to create job locker", zap.Error(err))
	}

	// Audit archive
	var archiver integrationapp.AuditArchiver
	if cfg.Storage.Enabled {
		s3Archiver, err := storage.NewS3AuditArchiver(&cfg.Storage,
			storage.WithLogger(log),
			storage.WithPresignExpiration(cfg.Storage.PresignExpiration),
		)
		if err != nil {
			log.Fatal("Failed to create audit archiver", zap.Error(err))
		}
		if err := s3Archiver.EnsureBucket(rootCtx); err != nil {
			log.Fatal("Failed to prepare audit bucket", zap.Error(err), zap.String("bucket", s3Archiver.Bucket()))
		}
		archiver = s3Archiver
	} else if cfg.App.Env != "production" {
		archiver = storage.NewMemoryArchiver()
	}

	// Application services
	outbound := &http.Client{Transport: otelhttp.NewTransport(http.DefaultTransport)}
	registry := connector.NewRegistry(connector.WithHTTPClient(outbound))
	auditService := integrationapp.NewAuditService(auditRepo, archiver, log)
	configService := integrationapp.NewConfigService(configRepo, auditService)
	connectionTester := integrationapp.NewConnectionTester(configRepo, registry, auditService, log)

	var syncMetrics integrationapp.SyncMetrics
	if meterProvider.IsEnabled() {
		m, err := telemetry.NewSyncMetrics(telemetry.SyncMetricsConfig{
			Meter:           meterProvider.Meter("sync"),
			Logger:          log,
			RunningProvider: telemetry.NewGormRunningJobsProvider(db.DB),
		})
		if err != nil {
			log.Fatal("Failed to create sync metrics", zap.Error(err))
		}
		m.StartPeriodicCollection(rootCtx, cfg.Telemetry.RunningJobsPoll)
		defer m.Stop()
		syncMetrics = m
	}

	overrides := make(map[integration.IntegrationType]int, len(cfg.Sync.WorkerOverrides))
	for t, n := range cfg.Sync.WorkerOverrides {
		overrides[integration.IntegrationType(t)] = n
	}
	orchestrator := integrationapp.NewSyncOrchestrator(integrationapp.SyncOrchestratorDeps{
		Configs:      configRepo,
		Jobs:         jobRepo,
		Mappings:     mappingRepo,
		RecordErrors: recordErrorRepo,
		Records:      records,
		Registry:     registry,
		Locker:       locker,
		Audit:        auditService,
		Metrics:      syncMetrics,
		Logger:       log,
	}, integrationapp.OrchestratorConfig{
		MaxWorkers:         cfg.Sync.MaxWorkers,
		WorkerOverrides:    overrides,
		ProgressFlushEvery: cfg.Sync.ProgressFlushEvery,
		LockTTL:            cfg.Sync.LockTTL,
		MaxConcurrentAsync: cfg.Sync.MaxConcurrentAsync,
	})
	configService.OnDelete(orchestrator.ForgetIntegration)

	// Cadence scheduler
	if cfg.Scheduler.Enabled {
		syncScheduler, err := scheduler.NewSyncScheduler(scheduler.SyncSchedulerConfig{
			Enabled:           cfg.Scheduler.Enabled,
			MaxConcurrentJobs: cfg.Scheduler.MaxConcurrentJobs,
			QueueSize:         cfg.Scheduler.QueueSize,
			JobTimeout:        cfg.Scheduler.JobTimeout,
			DueCheckSpec:      cfg.Scheduler.DueCheckSpec,
			OrphanCheckSpec:   cfg.Scheduler.OrphanCheckSpec,
			LivenessDeadline:  cfg.Scheduler.LivenessDeadline,
		}, configRepo, registry, orchestrator, log)
		if err != nil {
			log.Fatal("Invalid scheduler configuration", zap.Error(err))
		}
		if err := syncScheduler.Start(rootCtx); err != nil {
			log.Fatal("Failed to start sync scheduler", zap.Error(err))
		}
		defer func() {
			if err := syncScheduler.Stop(context.Background()); err != nil {
				log.Error("Error stopping sync scheduler", zap.Error(err))
			}
		}()
		log.Info("Sync scheduler started",
			zap.Int("max_concurrent_jobs", cfg.Scheduler.MaxConcurrentJobs),
			zap.String("due_check", cfg.Scheduler.DueCheckSpec),
		)
	}

	// HTTP
	checks := map[string]handler.HealthChecker{
		"database": handler.HealthCheckFunc(func(ctx context.Context) error { return db.Ping(ctx) }),
	}
	if redisLocker, ok := locker.(*cache.RedisJobLocker); ok {
		checks["redis"] = redisLocker
	}

	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	engine := router.NewEngine(router.EngineDeps{
		Config:       cfg,
		Logger:       log,
		Tokens:       auth.NewJWTService(cfg.JWT),
		Meters:       meterProvider,
		Integrations: handler.NewIntegrationHandler(configService, orchestrator, connectionTester, auditService),
		System:       handler.NewSystemHandler(cfg.App.Name, cfg.App.Version, checks),
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

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Error("Server forced to shutdown", zap.Error(err))
	}
	// running jobs are cancelled, finish their current record and fail
	if err := orchestrator.Shutdown(ctx); err != nil {
		log.Warn("Background syncs still running at shutdown", zap.Error(err))
	}

	for name, shutdown := range map[string]func(context.Context) error{
		"tracer": tracerProvider.Shutdown,
		"meter":  meterProvider.Shutdown,
		"logger": loggerProvider.Shutdown,
	} {
		if err := shutdown(ctx); err != nil {
			log.Warn("Telemetry shutdown failed", zap.String("provider", name), zap.Error(err))
		}
	}

	log.Info("Server exited gracefully")
}
