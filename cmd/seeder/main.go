// cmd/seeder/main.go
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/ammerola/stockmirror/internal/adapters/db"
	"github.com/ammerola/stockmirror/internal/adapters/memory"
	"github.com/ammerola/stockmirror/internal/core/domain"
	"github.com/ammerola/stockmirror/internal/core/ports"
	"github.com/ammerola/stockmirror/internal/core/services"
	"github.com/ammerola/stockmirror/internal/pkg/logger"
)

// seederState tracks which catalog files have been loaded
type seederState struct {
	ProcessedCatalogs []string  `json:"processed_catalogs"`
	ProcessedCount    int       `json:"processed_count"`
	LastUpdate        time.Time `json:"last_update"`
}

// catalogSeeder upserts catalogs into the remote store by SKU
type catalogSeeder struct {
	store     ports.RemoteStore
	batchSize int
	logger    *slog.Logger
}

// Seed writes items in batches and returns how many rows were sent
func (s *catalogSeeder) Seed(ctx context.Context, items []domain.InventoryItem) (int, error) {
	rows := make([]domain.InventoryRow, len(items))
	for i, item := range items {
		rows[i] = domain.ToRow(item)
	}

	sent := 0
	for batch := range slices.Chunk(rows, s.batchSize) {
		if err := s.store.UpsertBySKU(ctx, batch); err != nil {
			return sent, fmt.Errorf("failed to upsert batch at row %d: %w", sent, err)
		}
		sent += len(batch)
		s.logger.Debug("batch upserted", slog.Int("rows", len(batch)), slog.Int("sent", sent))
	}
	return sent, nil
}

func main() {
	var (
		catalogDir = flag.String("catalogs", "", "Directory of JSON catalogs (empty loads the built-in catalog)")
		stateFile  = flag.String("state", "./.seed_state.json", "State file for tracking progress")
		batchSize  = flag.Int("batch-size", services.DefaultImportBatchSize, "Rows per upsert")
		logLevel   = flag.String("log-level", "info", "Log level (debug, info, warn, error)")
		migrate    = flag.Bool("migrate", true, "Apply schema migrations before seeding")
		dryRun     = flag.Bool("dry-run", false, "Validate catalogs without modifying the database")
		force      = flag.Bool("force", false, "Reload catalogs already recorded in the state file")
	)
	flag.Parse()

	slogger := logger.SetupLogger(*logLevel, "json")
	slog.SetDefault(slogger)

	ctx := context.Background()

	catalogs, err := findCatalogs(*catalogDir)
	if err != nil {
		slogger.Error("failed to find catalogs", slog.String("error", err.Error()))
		os.Exit(1)
	}

	var store ports.RemoteStore
	if !*dryRun {
		dbConfig := &db.Config{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", "5432"),
			User:     getEnv("DB_USER", "stockmirror"),
			Password: getEnv("DB_PASSWORD", "stockmirror_dev"),
			Database: getEnv("DB_NAME", "stockmirror"),
			SSLMode:  getEnv("DB_SSL_MODE", "disable"),
		}
		dbConfig.MaxConnections, dbConfig.MinConnections = 4, 1

		database, err := db.NewDatabase(ctx, dbConfig, slogger)
		if err != nil {
			slogger.Error("failed to connect to database", slog.String("error", err.Error()))
			os.Exit(1)
		}
		defer database.Close()

		if *migrate {
			if err := db.RunMigrationsWithRetry(ctx, &db.MigrationConfig{
				DatabaseURL: dbConfig.URL(),
				TableName:   "schema_migrations",
				SchemaName:  "public",
			}, slogger, 3); err != nil {
				slogger.Error("failed to run migrations", slog.String("error", err.Error()))
				os.Exit(1)
			}
		}

		store = db.NewInventoryStore(database, slogger)
	}

	seeder := &catalogSeeder{store: store, batchSize: max(*batchSize, 1), logger: slogger}

	var state seederState
	if !*force {
		if data, err := os.ReadFile(*stateFile); err == nil {
			_ = json.Unmarshal(data, &state)
		}
	}

	totalRows := 0
	loaded := map[string]int{}
	var failed []string

	for i, path := range catalogs {
		name := catalogName(path)
		fmt.Printf("PROGRESS: Loading %d/%d: %s\n", i+1, len(catalogs), name)

		if !*force && slices.Contains(state.ProcessedCatalogs, name) {
			slogger.Info("skipping already loaded catalog", slog.String("catalog", name))
			continue
		}

		items, err := memory.LoadCatalogFile(path)
		if err != nil {
			slogger.Error("failed to load catalog",
				slog.String("catalog", name),
				slog.String("error", err.Error()))
			failed = append(failed, name)
			continue
		}

		if !*dryRun {
			sent, err := seeder.Seed(ctx, items)
			if err != nil {
				slogger.Error("failed to seed catalog",
					slog.String("catalog", name),
					slog.Int("sent", sent),
					slog.String("error", err.Error()))
				failed = append(failed, name)
				continue
			}
		}

		fmt.Printf("SUCCESS: Loaded %s - %d items\n", name, len(items))
		loaded[name] = len(items)
		totalRows += len(items)

		state.ProcessedCatalogs = append(state.ProcessedCatalogs, name)
		state.ProcessedCount = len(state.ProcessedCatalogs)
		state.LastUpdate = time.Now()
	}

	if !*dryRun {
		if data, err := json.MarshalIndent(state, "", "  "); err == nil {
			if err := os.WriteFile(*stateFile, data, 0o644); err != nil {
				slogger.Warn("failed to write state file", slog.String("error", err.Error()))
			}
		}
	}

	fmt.Println("\n" + strings.Repeat("=", 60))
	fmt.Println("SEEDING SUMMARY")
	fmt.Println(strings.Repeat("=", 60))
	fmt.Printf("Catalogs loaded: %d\n", len(loaded))
	fmt.Printf("Items upserted:  %d\n", totalRows)
	for name, count := range loaded {
		fmt.Printf("  - %s: %d items\n", name, count)
	}
	if len(failed) > 0 {
		fmt.Printf("\nFailed catalogs (%d):\n", len(failed))
		for _, name := range failed {
			fmt.Printf("  - %s\n", name)
		}
	}
	if *dryRun {
		fmt.Println("\n[DRY RUN] No changes were made to the database")
	}

	slogger.Info("seed operation completed",
		slog.Int("catalogs_loaded", len(loaded)),
		slog.Int("items", totalRows),
		slog.Int("failed", len(failed)))

	if len(failed) > 0 {
		os.Exit(1)
	}
}

// findCatalogs lists *.json files in dir. An empty dir selects the built-in
// catalog, which LoadCatalogFile resolves from an empty path.
func findCatalogs(dir string) ([]string, error) {
	if dir == "" {
		return []string{""}, nil
	}
	files, err := filepath.Glob(filepath.Join(dir, "*.json"))
	if err != nil {
		return nil, err
	}
	slices.Sort(files)
	return files, nil
}

func catalogName(path string) string {
	if path == "" {
		return "built-in"
	}
	return strings.TrimSuffix(filepath.Base(path), ".json")
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
