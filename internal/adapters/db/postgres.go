// internal/adapters/db/postgres.go
package db

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"net/url"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/jackc/pgx/v5/tracelog"

	"github.com/ammerola/stockmirror/internal/core/domain"
	"github.com/ammerola/stockmirror/internal/core/ports"
)

// applicationName tags every connection in pg_stat_activity
const applicationName = "stockmirror"

// Config describes the connection to the remote inventory database. Zero
// pool settings leave pgx's own defaults in place.
type Config struct {
	Host               string
	Port               string
	User               string
	Password           string
	Database           string
	SSLMode            string
	MaxConnections     int32
	MinConnections     int32
	MaxConnLifetime    time.Duration
	MaxConnIdleTime    time.Duration
	HealthCheckPeriod  time.Duration
	ConnectTimeout     time.Duration
	StatementCacheMode string // describe (default), prepare, exec or simple
	EnableQueryLogging bool
}

// DefaultConfig returns the local development settings
func DefaultConfig() *Config {
	return &Config{
		Host:              "localhost",
		Port:              "5432",
		User:              "stockmirror",
		Password:          "stockmirror_dev",
		Database:          "stockmirror",
		SSLMode:           "disable",
		MaxConnections:    25,
		MinConnections:    2,
		MaxConnLifetime:   time.Hour,
		MaxConnIdleTime:   30 * time.Minute,
		HealthCheckPeriod: time.Minute,
		ConnectTimeout:    5 * time.Second,
	}
}

// URL renders the config as an escaped postgres URL. The pool and
// golang-migrate both connect through it.
func (c *Config) URL() string {
	q := url.Values{}
	q.Set("sslmode", c.SSLMode)
	q.Set("application_name", applicationName)
	if c.ConnectTimeout > 0 {
		q.Set("connect_timeout", strconv.Itoa(max(int(c.ConnectTimeout.Seconds()), 1)))
	}

	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(c.User, c.Password),
		Host:     c.Host + ":" + c.Port,
		Path:     "/" + c.Database,
		RawQuery: q.Encode(),
	}
	return u.String()
}

// Database is the pgx pool behind the remote inventory store
type Database struct {
	pool   *pgxpool.Pool
	logger *slog.Logger
}

var _ ports.Database = (*Database)(nil)

// NewDatabase opens the pool and fails unless the server answers a ping
func NewDatabase(ctx context.Context, config *Config, logger *slog.Logger) (*Database, error) {
	if config == nil {
		config = DefaultConfig()
	}
	logger = logger.With(slog.String("component", "postgres"))

	poolConfig, err := buildPoolConfig(config, logger)
	if err != nil {
		return nil, err
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database %s on %s: %w", config.Database, config.Host, err)
	}

	logger.Info("database connection established",
		slog.String("host", config.Host),
		slog.String("database", config.Database),
		slog.Int("max_connections", int(poolConfig.MaxConns)),
		slog.String("exec_mode", poolConfig.ConnConfig.DefaultQueryExecMode.String()),
	)

	return &Database{pool: pool, logger: logger}, nil
}

func buildPoolConfig(config *Config, logger *slog.Logger) (*pgxpool.Config, error) {
	poolConfig, err := pgxpool.ParseConfig(config.URL())
	if err != nil {
		return nil, fmt.Errorf("failed to parse database url: %w", err)
	}

	if config.MaxConnections > 0 {
		poolConfig.MaxConns = config.MaxConnections
	}
	if config.MinConnections > 0 {
		poolConfig.MinConns = min(config.MinConnections, poolConfig.MaxConns)
	}
	if config.MaxConnLifetime > 0 {
		poolConfig.MaxConnLifetime = config.MaxConnLifetime
	}
	if config.MaxConnIdleTime > 0 {
		poolConfig.MaxConnIdleTime = config.MaxConnIdleTime
	}
	if config.HealthCheckPeriod > 0 {
		poolConfig.HealthCheckPeriod = config.HealthCheckPeriod
	}

	poolConfig.ConnConfig.DefaultQueryExecMode = queryExecMode(config.StatementCacheMode)

	if config.EnableQueryLogging {
		poolConfig.ConnConfig.Tracer = &tracelog.TraceLog{
			Logger:   slogTracer(logger),
			LogLevel: tracelog.LogLevelDebug,
		}
	}

	return poolConfig, nil
}

// queryExecMode maps the configured cache mode. exec and simple suit
// transaction-pooling proxies that cannot keep prepared statements.
func queryExecMode(mode string) pgx.QueryExecMode {
	switch mode {
	case "prepare":
		return pgx.QueryExecModeCacheStatement
	case "exec":
		return pgx.QueryExecModeExec
	case "simple":
		return pgx.QueryExecModeSimpleProtocol
	default:
		return pgx.QueryExecModeCacheDescribe
	}
}

// Pool returns the underlying pgxpool.Pool
func (db *Database) Pool() *pgxpool.Pool {
	return db.pool
}

// SQLDB exposes the pool through database/sql for code written against it.
// The returned handle shares the pool and must be closed before Close.
func (db *Database) SQLDB() *sql.DB {
	return stdlib.OpenDBFromPool(db.pool)
}

// Close closes all database connections
func (db *Database) Close() {
	db.pool.Close()
	db.logger.Info("database connections closed")
}

// Ping verifies database connectivity
func (db *Database) Ping(ctx context.Context) error {
	return db.pool.Ping(ctx)
}

// Health reports pool usage and the planner's row estimate for the
// inventory table. A failed estimate marks the pool degraded.
func (db *Database) Health(ctx context.Context) map[string]interface{} {
	stats := db.pool.Stat()
	health := map[string]interface{}{
		"status":               "healthy",
		"total_connections":    stats.TotalConns(),
		"idle_connections":     stats.IdleConns(),
		"acquired_connections": stats.AcquiredConns(),
		"max_connections":      stats.MaxConns(),
	}

	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	var estimate int64
	err := db.pool.QueryRow(ctx,
		"SELECT COALESCE(reltuples, 0)::bigint FROM pg_class WHERE relname = $1",
		domain.InventoryTable,
	).Scan(&estimate)
	switch {
	case err == nil:
		health["inventory_rows_estimate"] = max(estimate, 0)
	case err == pgx.ErrNoRows:
		health["status"] = "degraded"
		health["error"] = "inventory table missing, migrations not applied"
	default:
		health["status"] = "unhealthy"
		health["error"] = err.Error()
	}

	return health
}

// Transaction runs fn in a transaction, committing when it returns nil
func (db *Database) Transaction(ctx context.Context, fn func(pgx.Tx) error) error {
	if err := pgx.BeginFunc(ctx, db.pool, fn); err != nil {
		return fmt.Errorf("transaction failed: %w", err)
	}
	return nil
}

func (db *Database) Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error) {
	return db.pool.Query(ctx, sql, args...)
}

func (db *Database) QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row {
	return db.pool.QueryRow(ctx, sql, args...)
}

func (db *Database) Exec(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error) {
	return db.pool.Exec(ctx, sql, args...)
}

// slogTracer forwards pgx trace output to logger at the matching level
func slogTracer(logger *slog.Logger) tracelog.Logger {
	logger = logger.With(slog.String("component", "pgx"))
	return tracelog.LoggerFunc(func(ctx context.Context, level tracelog.LogLevel, msg string, data map[string]interface{}) {
		attrs := make([]slog.Attr, 0, len(data))
		for k, v := range data {
			attrs = append(attrs, slog.Any(k, v))
		}
		logger.LogAttrs(ctx, slogLevel(level), msg, attrs...)
	})
}

func slogLevel(level tracelog.LogLevel) slog.Level {
	switch level {
	case tracelog.LogLevelError:
		return slog.LevelError
	case tracelog.LogLevelWarn:
		return slog.LevelWarn
	case tracelog.LogLevelInfo:
		return slog.LevelInfo
	default:
		return slog.LevelDebug
	}
}
