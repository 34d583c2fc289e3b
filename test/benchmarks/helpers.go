// test/benchmarks/helpers.go
package benchmarks

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/ammerola/stockmirror/internal/core/domain"
)

var (
	benchCategories = []string{"Hardware", "Paint", "Tools", "Electrical", "Garden", "Plumbing"}
	benchLocations  = []string{"Warehouse A", "Warehouse B", "Storefront"}
	benchNames      = []string{
		"Hex Bolt M8", "Wood Screw 4x40", "Masking Tape 24mm", "Claw Hammer 16oz",
		"Cable Tie 200mm", "PVC Elbow 40mm", "Paint Roller 230mm", "Garden Hose 15m",
	}
)

// buildCatalog creates n active items with local ids and distinct skus
func buildCatalog(n int) []domain.InventoryItem {
	now := time.Now().UTC()
	items := make([]domain.InventoryItem, n)
	for i := range items {
		items[i] = domain.InventoryItem{
			ID:                fmt.Sprintf("local-%d", i+1),
			SKU:               fmt.Sprintf("BENCH-%05d", i),
			Name:              fmt.Sprintf("%s #%d", benchNames[i%len(benchNames)], i),
			Category:          benchCategories[i%len(benchCategories)],
			Tags:              []string{"bench"},
			Cost:              decimal.NewFromInt(int64(1 + i%40)),
			Price:             decimal.NewFromInt(int64(2 + i%60)),
			Stock:             (i * 7) % 150,
			LowStockThreshold: domain.DefaultLowStockThreshold,
			MinStockCount:     20,
			Location:          benchLocations[i%len(benchLocations)],
			DateAdded:         now.Add(-time.Duration(i) * time.Minute),
			LastUpdated:       now,
			IsActive:          true,
		}
	}
	return items
}

// buildRows renders n remote rows with uuid ids
func buildRows(n int) []domain.InventoryRow {
	items := buildCatalog(n)
	rows := make([]domain.InventoryRow, n)
	for i, item := range items {
		item.ID = uuid.NewString()
		rows[i] = domain.ToRow(item)
	}
	return rows
}

// staticStore serves a fixed result set and accepts every write
type staticStore struct {
	rows []domain.InventoryRow
}

func (s *staticStore) List(_ context.Context, params domain.ListParams) ([]domain.InventoryRow, int, error) {
	params = params.Normalize()
	start := min(params.Offset(), len(s.rows))
	end := min(start+params.PageSize, len(s.rows))
	return s.rows[start:end], len(s.rows), nil
}

func (s *staticStore) Insert(_ context.Context, row domain.InventoryRow) (domain.InventoryRow, error) {
	id := uuid.NewString()
	row.ID = &id
	return row, nil
}

func (s *staticStore) Update(_ context.Context, row domain.InventoryRow) (domain.InventoryRow, error) {
	return row, nil
}

func (s *staticStore) Delete(context.Context, string) error { return nil }

func (s *staticStore) UpsertBySKU(context.Context, []domain.InventoryRow) error { return nil }

// discardPublisher drops audit events
type discardPublisher struct{}

func (discardPublisher) Emit(context.Context, domain.AuditEvent) {}
