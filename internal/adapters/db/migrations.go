// internal/adapters/db/migrations.go
package db

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	_ "github.com/jackc/pgx/v5/stdlib"
)

//go:embed migrations/*.sql
var migrationFiles embed.FS

// MigrationConfig points the schema migrations at a database. Empty fields
// fall back to schema_migrations in public with a five minute statement
// timeout.
type MigrationConfig struct {
	DatabaseURL      string
	TableName        string
	SchemaName       string
	ForceDirty       bool
	StatementTimeout time.Duration
}

func (c MigrationConfig) withDefaults() MigrationConfig {
	if c.TableName == "" {
		c.TableName = "schema_migrations"
	}
	if c.SchemaName == "" {
		c.SchemaName = "public"
	}
	if c.StatementTimeout == 0 {
		c.StatementTimeout = 5 * time.Minute
	}
	return c
}

// RunMigrationsWithRetry applies the embedded inventory schema, retrying
// with a linear backoff while the database comes up
func RunMigrationsWithRetry(ctx context.Context, config *MigrationConfig, logger *slog.Logger, maxRetries int) error {
	if config == nil {
		return errors.New("migration config is required")
	}
	cfg := config.withDefaults()
	logger = logger.With(slog.String("component", "migrations"))

	var lastErr error
	for attempt := range max(maxRetries, 1) {
		if attempt > 0 {
			wait := time.Duration(attempt) * 2 * time.Second
			logger.InfoContext(ctx, "retrying migration",
				slog.Int("attempt", attempt+1),
				slog.Duration("wait", wait))
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(wait):
			}
		}

		version, err := migrateUp(ctx, cfg, logger)
		if err == nil {
			logger.InfoContext(ctx, "schema is current", slog.Uint64("version", uint64(version)))
			return nil
		}
		lastErr = err
		logger.ErrorContext(ctx, "migration attempt failed",
			slog.String("error", err.Error()),
			slog.Int("attempt", attempt+1))
	}

	return fmt.Errorf("migrations failed after %d attempts: %w", max(maxRetries, 1), lastErr)
}

// migrateUp opens a short-lived connection, applies pending migrations and
// returns the resulting schema version
func migrateUp(ctx context.Context, cfg MigrationConfig, logger *slog.Logger) (version uint, err error) {
	sqlDB, err := sql.Open("pgx", cfg.DatabaseURL)
	if err != nil {
		return 0, fmt.Errorf("failed to open database: %w", err)
	}
	sqlDB.SetMaxOpenConns(2)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := sqlDB.PingContext(pingCtx); err != nil {
		sqlDB.Close()
		return 0, fmt.Errorf("failed to ping database: %w", err)
	}

	driver, err := postgres.WithInstance(sqlDB, &postgres.Config{
		MigrationsTable:  cfg.TableName,
		SchemaName:       cfg.SchemaName,
		StatementTimeout: cfg.StatementTimeout,
	})
	if err != nil {
		sqlDB.Close()
		return 0, fmt.Errorf("failed to create postgres driver: %w", err)
	}

	source, err := iofs.New(migrationFiles, "migrations")
	if err != nil {
		sqlDB.Close()
		return 0, fmt.Errorf("failed to read embedded migrations: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", source, "postgres", driver)
	if err != nil {
		sqlDB.Close()
		return 0, fmt.Errorf("failed to create migration instance: %w", err)
	}
	// closing the driver closes sqlDB
	defer func() {
		sourceErr, dbErr := m.Close()
		if err == nil {
			err = errors.Join(sourceErr, dbErr)
		}
	}()

	current, dirty, err := schemaVersion(m)
	if err != nil {
		return 0, err
	}
	if dirty {
		if !cfg.ForceDirty {
			return current, fmt.Errorf("schema version %d is dirty", current)
		}
		logger.WarnContext(ctx, "forcing dirty schema version", slog.Uint64("version", uint64(current)))
		if err := m.Force(int(current)); err != nil {
			return current, fmt.Errorf("failed to force version %d: %w", current, err)
		}
	}

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return current, fmt.Errorf("failed to run migrations: %w", err)
	}

	version, _, err = schemaVersion(m)
	return version, err
}

// schemaVersion treats an empty migrations table as version 0
func schemaVersion(m *migrate.Migrate) (uint, bool, error) {
	version, dirty, err := m.Version()
	if errors.Is(err, migrate.ErrNilVersion) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("failed to read schema version: %w", err)
	}
	return version, dirty, nil
}
