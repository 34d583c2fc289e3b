// cmd/api/main.go
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"

	"github.com/ammerola/stockmirror/internal/adapters/db"
	"github.com/ammerola/stockmirror/internal/adapters/memory"
	redis_a "github.com/ammerola/stockmirror/internal/adapters/redis_adapter"
	"github.com/ammerola/stockmirror/internal/core/ports"
	"github.com/ammerola/stockmirror/internal/core/services"
	"github.com/ammerola/stockmirror/internal/handlers"
	"github.com/ammerola/stockmirror/internal/handlers/middleware"
	"github.com/ammerola/stockmirror/internal/pkg/config"
	"github.com/ammerola/stockmirror/internal/pkg/logger"
	"github.com/ammerola/stockmirror/internal/workers"
)

// Build information injected at compile time
var (
	Version   = "dev"
	BuildTime = "unknown"
	GoVersion = "unknown"
)

func main() {
	slogger := logger.SetupLogger("debug", "json")

	slogger.Info("starting stockmirror api",
		slog.String("version", Version),
		slog.String("build_time", BuildTime),
		slog.String("go_version", GoVersion),
	)

	cfg, err := config.Load(slogger)
	if err != nil {
		slogger.Error("failed to load configuration", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// Reconfigure logger with loaded settings
	slogger = logger.SetupLogger(cfg.App.LogLevel, cfg.App.LogFormat)
	slogger.Info("configuration loaded",
		slog.String("environment", cfg.App.Environment),
		slog.String("log_level", cfg.App.LogLevel),
	)

	ctx, stop := context.WithCancel(context.Background())
	defer stop()

	deps, err := initializeDependencies(ctx, cfg, slogger)
	if err != nil {
		slogger.Error("failed to initialize dependencies", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer deps.cleanup()

	server := setupHTTPServer(ctx, cfg, deps, slogger)

	serverErrors := make(chan error, 1)
	go func() {
		slogger.Info("starting HTTP server",
			slog.String("address", cfg.GetServerAddress()),
			slog.Bool("tls", cfg.Server.TLSEnabled),
		)

		if cfg.Server.TLSEnabled {
			serverErrors <- server.ListenAndServeTLS(cfg.Server.TLSCertFile, cfg.Server.TLSKeyFile)
		} else {
			serverErrors <- server.ListenAndServe()
		}
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM, syscall.SIGQUIT)

	select {
	case err := <-serverErrors:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			slogger.Error("server error", slog.String("error", err.Error()))
		}
	case sig := <-shutdown:
		slogger.Info("shutdown signal received",
			slog.String("signal", sig.String()),
		)

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.GracefulTimeout)
		defer shutdownCancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			slogger.Error("failed to gracefully shutdown server", slog.String("error", err.Error()))
			server.Close()
		}

		// Flush queued audit events before the asynq client goes away
		if err := deps.emitter.Close(shutdownCtx); err != nil {
			slogger.Warn("audit queue not drained",
				slog.Int64("dropped", deps.emitter.Dropped()),
				slog.String("error", err.Error()))
		}

		slogger.Info("server shutdown complete")
	}
}

// dependencies holds all application dependencies
type dependencies struct {
	database       *db.Database
	redisClient    *redis.Client
	asynqClient    *asynq.Client
	asynqInspector *asynq.Inspector
	emitter        *services.AuditEmitter

	inventoryHandler *handlers.InventoryHandler
	stockHandler     *handlers.StockHandler
	importHandler    *handlers.ImportHandler
	healthHandler    *handlers.HealthHandler
}

func (d *dependencies) cleanup() {
	if d.emitter != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		_ = d.emitter.Close(ctx)
		cancel()
	}
	if d.asynqInspector != nil {
		d.asynqInspector.Close()
	}
	if d.asynqClient != nil {
		d.asynqClient.Close()
	}
	if d.redisClient != nil {
		d.redisClient.Close()
	}
	if d.database != nil {
		d.database.Close()
	}
}

// initializeDependencies wires the service. Only the seed catalog is
// required: without Postgres every write stays in the mirror, without Redis
// audit events go to the log and import history is not kept.
func initializeDependencies(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*dependencies, error) {
	deps := &dependencies{}

	seed, err := memory.LoadCatalogFile(cfg.Sync.SeedCatalog)
	if err != nil {
		return nil, fmt.Errorf("failed to load seed catalog: %w", err)
	}
	mirror := memory.NewMirror(seed)
	logger.Info("local mirror loaded", slog.Int("items", mirror.Len()))

	var remote ports.RemoteStore
	database, err := connectDatabase(ctx, cfg, logger)
	if err != nil {
		logger.Warn("remote store unavailable, serving from the local mirror",
			slog.String("error", err.Error()))
		remote = db.NewOfflineStore(err)
	} else {
		deps.database = database
		remote = db.NewInventoryStore(database, logger)
	}

	var auditSink ports.AuditSink = services.NewLogAuditSink(logger)
	var jobs ports.ImportJobRepository

	redisClient, err := connectRedis(ctx, cfg, logger)
	if err != nil {
		logger.Warn("redis unavailable, audit events are logged only",
			slog.String("error", err.Error()))
	} else {
		deps.redisClient = redisClient
		cache := redis_a.NewCache(redisClient, cfg.Redis.TTL, logger)
		jobs = redis_a.NewImportJobStore(cache, cfg.Sync.ImportResultTTL)

		asynqRedisOpt := asynq.RedisClientOpt{
			Addr:     cfg.Asynq.RedisAddr,
			Password: cfg.Asynq.RedisPassword,
			DB:       cfg.Asynq.RedisDB,
		}
		deps.asynqClient = asynq.NewClient(asynqRedisOpt)
		deps.asynqInspector = asynq.NewInspector(asynqRedisOpt)
		auditSink = workers.NewAuditEnqueuer(deps.asynqClient, cfg.Asynq.RetryMax, logger)
	}

	deps.emitter = services.NewAuditEmitter(auditSink, logger, cfg.Sync.AuditQueueSize)

	var coordinatorOpts []services.CoordinatorOption
	if cfg.Sync.JoinInFlight {
		coordinatorOpts = append(coordinatorOpts, services.WithJoinInFlight())
	}
	executor := services.NewRemoteQueryExecutor(remote, logger)
	coordinator := services.NewFetchCoordinator(executor, mirror, logger, coordinatorOpts...)

	mutations := services.NewMutationService(remote, mirror, coordinator, deps.emitter, logger,
		services.WithImportBatchSize(cfg.Sync.ImportBatchSize))

	// Handlers take interfaces, so absent backends must be passed as
	// untyped nil rather than typed nil pointers.
	var auditLog ports.AuditLogRepository
	var healthDB ports.Database
	if deps.database != nil {
		auditLog = db.NewAuditLogRepository(deps.database.SQLDB(), logger)
		healthDB = deps.database
	}

	deps.inventoryHandler = handlers.NewInventoryHandler(coordinator, mutations, auditLog, logger,
		handlers.WithPageLimits(cfg.Sync.DefaultPageSize, cfg.Sync.MaxPageSize))
	deps.stockHandler = handlers.NewStockHandler(mutations, logger)
	deps.importHandler = handlers.NewImportHandler(mutations, jobs, logger, cfg.Sync.MaxImportRows)
	deps.healthHandler = handlers.NewHealthHandler(healthDB, deps.redisClient, deps.asynqInspector,
		mirror, cfg, logger)

	logger.Info("all dependencies initialized",
		slog.Bool("remote_online", deps.database != nil),
		slog.Bool("redis_online", deps.redisClient != nil))
	return deps, nil
}

func connectDatabase(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*db.Database, error) {
	logger.Info("connecting to database",
		slog.String("host", cfg.Database.Host),
		slog.String("database", cfg.Database.Name),
	)

	dbConfig := &db.Config{
		Host:               cfg.Database.Host,
		Port:               cfg.Database.Port,
		User:               cfg.Database.User,
		Password:           cfg.Database.Password,
		Database:           cfg.Database.Name,
		SSLMode:            cfg.Database.SSLMode,
		MaxConnections:     cfg.Database.MaxConnections,
		MinConnections:     cfg.Database.MinConnections,
		MaxConnLifetime:    cfg.Database.MaxConnLifetime,
		MaxConnIdleTime:    cfg.Database.MaxConnIdleTime,
		HealthCheckPeriod:  cfg.Database.HealthCheckPeriod,
		ConnectTimeout:     cfg.Database.ConnectTimeout,
		StatementCacheMode: cfg.Database.StatementCacheMode,
		EnableQueryLogging: cfg.Database.EnableQueryLogging,
	}

	database, err := db.NewDatabase(ctx, dbConfig, logger)
	if err != nil {
		return nil, err
	}

	if cfg.Database.MigrateOnStart {
		if err := runMigrations(ctx, dbConfig, logger); err != nil {
			database.Close()
			return nil, err
		}
	}

	return database, nil
}

func connectRedis(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*redis.Client, error) {
	logger.Info("connecting to Redis",
		slog.String("host", cfg.Redis.Host),
		slog.String("port", cfg.Redis.Port),
	)

	client := redis.NewClient(&redis.Options{
		Addr:            cfg.GetRedisAddress(),
		Password:        cfg.Redis.Password,
		DB:              cfg.Redis.DB,
		MaxRetries:      cfg.Redis.MaxRetries,
		MinRetryBackoff: cfg.Redis.MinRetryBackoff,
		MaxRetryBackoff: cfg.Redis.MaxRetryBackoff,
		DialTimeout:     cfg.Redis.DialTimeout,
		ReadTimeout:     cfg.Redis.ReadTimeout,
		WriteTimeout:    cfg.Redis.WriteTimeout,
		PoolSize:        cfg.Redis.PoolSize,
		MinIdleConns:    cfg.Redis.MinIdleConns,
		PoolTimeout:     cfg.Redis.PoolTimeout,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}
	return client, nil
}

func setupHTTPServer(ctx context.Context, cfg *config.Config, deps *dependencies, logger *slog.Logger) *http.Server {
	mux := http.NewServeMux()

	if cfg.Server.EnableHealthCheck {
		deps.healthHandler.RegisterRoutes(mux)
	}
	deps.inventoryHandler.RegisterRoutes(mux)
	deps.stockHandler.RegisterRoutes(mux)
	deps.importHandler.RegisterRoutes(mux)

	mws := []func(http.Handler) http.Handler{
		middleware.Recovery(logger),
		middleware.RequestID(cfg.Security.RequestIDHeader),
		middleware.Logger(logger),
		middleware.CORS(cfg.Security.AllowedOrigins),
	}
	if cfg.Security.SecureHeaders {
		mws = append(mws, middleware.SecureHeaders)
	}
	mws = append(mws,
		middleware.RateLimit(ctx, cfg.Security.RateLimitRequests, cfg.Security.RateLimitDuration),
		middleware.MaxBody(cfg.Security.MaxBodyBytes),
		middleware.Timeout(cfg.Server.WriteTimeout),
	)

	return &http.Server{
		Addr:           cfg.GetServerAddress(),
		Handler:        middleware.Chain(mux, mws...),
		ReadTimeout:    cfg.Server.ReadTimeout,
		WriteTimeout:   cfg.Server.WriteTimeout + time.Second,
		IdleTimeout:    cfg.Server.IdleTimeout,
		MaxHeaderBytes: cfg.Server.MaxHeaderBytes,
		ErrorLog:       slog.NewLogLogger(logger.Handler(), slog.LevelError),
	}
}

func runMigrations(ctx context.Context, dbConfig *db.Config, logger *slog.Logger) error {
	logger.Info("running database migrations")

	return db.RunMigrationsWithRetry(ctx, &db.MigrationConfig{
		DatabaseURL: dbConfig.URL(),
		TableName:   "schema_migrations",
		SchemaName:  "public",
	}, logger, 3)
}
