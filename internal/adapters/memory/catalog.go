// internal/adapters/memory/catalog.go
package memory

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/ammerola/stockmirror/internal/core/domain"
)

//go:embed seed_catalog.json
var seedCatalog []byte

// SeedCatalog returns the catalog compiled into the binary
func SeedCatalog() ([]domain.InventoryItem, error) {
	return LoadCatalog(bytes.NewReader(seedCatalog))
}

// LoadCatalogFile reads a catalog from disk, falling back to the compiled
// catalog when path is empty.
func LoadCatalogFile(path string) ([]domain.InventoryItem, error) {
	if path == "" {
		return SeedCatalog()
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open seed catalog: %w", err)
	}
	defer f.Close()

	return LoadCatalog(f)
}

// LoadCatalog decodes a JSON array of items, applies defaults and validates
// every entry.
func LoadCatalog(r io.Reader) ([]domain.InventoryItem, error) {
	var items []domain.InventoryItem
	if err := json.NewDecoder(r).Decode(&items); err != nil {
		return nil, fmt.Errorf("failed to decode seed catalog: %w", err)
	}

	now := time.Now().UTC()
	for i := range items {
		items[i].RecomputeStock()
		items[i].ApplyDefaults(now)
		if err := items[i].Validate(); err != nil {
			return nil, fmt.Errorf("seed catalog entry %d: %w", i, err)
		}
	}

	return items, nil
}
