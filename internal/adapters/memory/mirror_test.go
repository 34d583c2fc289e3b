package memory_test

import (
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ammerola/stockmirror/internal/adapters/memory"
	"github.com/ammerola/stockmirror/internal/core/domain"
)

func testItems() []domain.InventoryItem {
	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	return []domain.InventoryItem{
		{ID: "local-1", SKU: "B-1", Name: "bolt", Category: "Hardware", Location: "A", Stock: 30, Price: decimal.NewFromInt(3), DateAdded: base},
		{ID: "local-2", SKU: "A-1", Name: "Anchor", Category: "Hardware", Location: "B", Stock: 5, Price: decimal.NewFromInt(12), DateAdded: base.Add(time.Hour)},
		{ID: "local-3", SKU: "P-1", Name: "Paint", Category: "Paint", Location: "A", Stock: 100, Price: decimal.NewFromFloat(2.5), DateAdded: base.Add(-time.Hour)},
		{ID: "local-4", SKU: "C-1", Name: "Clamp", Category: "Tools", Location: "B", Stock: 5, Price: decimal.NewFromInt(20), DateAdded: base.Add(2 * time.Hour)},
	}
}

func names(items []domain.InventoryItem) []string {
	out := make([]string, len(items))
	for i, item := range items {
		out[i] = item.Name
	}
	return out
}

func TestMirror_Query(t *testing.T) {
	tests := []struct {
		name      string
		params    domain.ListParams
		wantNames []string
		wantTotal int
	}{
		{
			name:      "default_sort_is_name_ascending_byte_order",
			params:    domain.ListParams{},
			wantNames: []string{"Anchor", "Clamp", "Paint", "bolt"},
			wantTotal: 4,
		},
		{
			name:      "search_matches_name_sku_or_category",
			params:    domain.ListParams{Search: "PAINT"},
			wantNames: []string{"Paint"},
			wantTotal: 1,
		},
		{
			name:      "search_by_sku",
			params:    domain.ListParams{Search: "-1", SortField: domain.SortBySKU},
			wantNames: []string{"Anchor", "bolt", "Clamp", "Paint"},
			wantTotal: 4,
		},
		{
			name:      "category_filter_exact",
			params:    domain.ListParams{Category: "Hardware"},
			wantNames: []string{"Anchor", "bolt"},
			wantTotal: 2,
		},
		{
			name:      "undefined_filter_ignored",
			params:    domain.ListParams{Category: "undefined", Location: "undefined"},
			wantNames: []string{"Anchor", "Clamp", "Paint", "bolt"},
			wantTotal: 4,
		},
		{
			name:      "location_filter",
			params:    domain.ListParams{Location: "B"},
			wantNames: []string{"Anchor", "Clamp"},
			wantTotal: 2,
		},
		{
			name:      "numeric_sort_descending_is_stable",
			params:    domain.ListParams{SortField: domain.SortByStock, SortDirection: domain.SortDesc},
			wantNames: []string{"Paint", "bolt", "Anchor", "Clamp"},
			wantTotal: 4,
		},
		{
			name:      "decimal_sort",
			params:    domain.ListParams{SortField: domain.SortByPrice},
			wantNames: []string{"Paint", "bolt", "Anchor", "Clamp"},
			wantTotal: 4,
		},
		{
			name:      "time_sort",
			params:    domain.ListParams{SortField: domain.SortByDateAdded},
			wantNames: []string{"Paint", "bolt", "Anchor", "Clamp"},
			wantTotal: 4,
		},
		{
			name:      "second_page",
			params:    domain.ListParams{Page: 2, PageSize: 3},
			wantNames: []string{"bolt"},
			wantTotal: 4,
		},
		{
			name:      "page_past_the_end",
			params:    domain.ListParams{Page: 5, PageSize: 3},
			wantNames: []string{},
			wantTotal: 4,
		},
	}

	mirror := memory.NewMirror(testItems())

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			items, total := mirror.Query(tt.params)
			assert.Equal(t, tt.wantNames, names(items))
			assert.Equal(t, tt.wantTotal, total)
		})
	}
}

func TestMirror_ReturnsCopies(t *testing.T) {
	mirror := memory.NewMirror([]domain.InventoryItem{{ID: "local-1", SKU: "S", Name: "N", Tags: []string{"a"}}})

	item, ok := mirror.FindByID("local-1")
	require.True(t, ok)
	item.Tags[0] = "mutated"
	item.Name = "mutated"

	again, _ := mirror.FindByID("local-1")
	assert.Equal(t, "N", again.Name)
	assert.Equal(t, "a", again.Tags[0])
}

func TestMirror_Prepend(t *testing.T) {
	mirror := memory.NewMirror(testItems())

	created := mirror.Prepend(domain.InventoryItem{SKU: "N-1", Name: "Newest"})
	assert.Equal(t, "local-5", created.ID)

	snapshot := mirror.Snapshot()
	require.Len(t, snapshot, 5)
	assert.Equal(t, "Newest", snapshot[0].Name)

	t.Run("replaces_same_id", func(t *testing.T) {
		mirror.Prepend(domain.InventoryItem{ID: "local-3", SKU: "P-1", Name: "Paint v2"})

		snapshot := mirror.Snapshot()
		assert.Len(t, snapshot, 5)
		assert.Equal(t, "Paint v2", snapshot[0].Name)
	})

	t.Run("keeps_remote_id", func(t *testing.T) {
		remoteID := "3f2504e0-4f89-11d3-9a0c-0305e82c3301"
		got := mirror.Prepend(domain.InventoryItem{ID: remoteID, SKU: "R-1", Name: "Remote"})
		assert.Equal(t, remoteID, got.ID)
	})
}

func TestMirror_UpdateRecomputesStock(t *testing.T) {
	mirror := memory.NewMirror(testItems())

	item, _ := mirror.FindByID("local-1")
	item.Locations = []domain.LocationStock{{Name: "A", Stock: 7}, {Name: "B", Stock: 8}}
	require.True(t, mirror.Update(item))

	got, _ := mirror.FindByID("local-1")
	assert.Equal(t, 15, got.Stock)

	assert.False(t, mirror.Update(domain.InventoryItem{ID: "missing"}))
}

func TestMirror_Delete(t *testing.T) {
	mirror := memory.NewMirror(testItems())

	assert.True(t, mirror.Delete("local-2"))
	assert.False(t, mirror.Delete("local-2"))
	assert.Equal(t, 3, mirror.Len())
}

func TestMirror_UpsertBySKU(t *testing.T) {
	mirror := memory.NewMirror(testItems())
	original, _ := mirror.FindByID("local-1")

	inserted, updated := mirror.UpsertBySKU([]domain.InventoryItem{
		{SKU: "B-1", Name: "Bolt (imported)", Stock: 1},
		{SKU: "Z-9", Name: "Zipper"},
	})

	assert.Equal(t, 1, inserted)
	assert.Equal(t, 1, updated)

	got, ok := mirror.FindByID("local-1")
	require.True(t, ok)
	assert.Equal(t, "Bolt (imported)", got.Name)
	assert.Equal(t, original.DateAdded, got.DateAdded)

	found := mirror.FindBySKU("Z-9")
	require.Len(t, found, 1)
	assert.True(t, strings.HasPrefix(found[0].ID, memory.LocalIDPrefix))
}

func TestMirror_FindBySKU(t *testing.T) {
	mirror := memory.NewMirror([]domain.InventoryItem{
		{ID: "local-1", SKU: "HW-NAIL-001", Location: "Warehouse A", Stock: 100},
		{ID: "local-2", SKU: "HW-NAIL-001", Location: "Warehouse B", Stock: 45},
		{ID: "local-3", SKU: "OTHER"},
	})

	members := mirror.FindBySKU("HW-NAIL-001")
	assert.Len(t, members, 2)
	assert.Equal(t, 145, domain.AggregateBySKU(members, "HW-NAIL-001").Total)
}

func TestMirror_ConcurrentAccess(t *testing.T) {
	mirror := memory.NewMirror(testItems())

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(2)
		go func(n int) {
			defer wg.Done()
			mirror.Prepend(domain.InventoryItem{SKU: fmt.Sprintf("C-%d", n), Name: "concurrent"})
		}(i)
		go func() {
			defer wg.Done()
			_, _ = mirror.Query(domain.ListParams{Search: "concurrent"})
		}()
	}
	wg.Wait()

	_, total := mirror.Query(domain.ListParams{Search: "concurrent"})
	assert.Equal(t, 20, total)
}

func TestSeedCatalog(t *testing.T) {
	items, err := memory.SeedCatalog()
	require.NoError(t, err)
	require.NotEmpty(t, items)

	for _, item := range items {
		require.NoError(t, item.Validate())
		if len(item.Locations) > 0 {
			sum := 0
			for _, loc := range item.Locations {
				sum += loc.Stock
			}
			assert.Equal(t, sum, item.Stock, "stock of %s matches its locations", item.SKU)
		}
	}

	mirror := memory.NewMirror(items)
	assert.Equal(t, 145, domain.AggregateBySKU(mirror.FindBySKU("HW-NAIL-001"), "HW-NAIL-001").Total)

	created := mirror.Prepend(domain.InventoryItem{SKU: "NEW", Name: "New"})
	assert.Equal(t, fmt.Sprintf("local-%d", len(items)+1), created.ID)
}

func TestLoadCatalog_RejectsInvalidEntries(t *testing.T) {
	_, err := memory.LoadCatalog(strings.NewReader(`[{"sku":"","name":"x"}]`))
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrInvalidItem)

	_, err = memory.LoadCatalog(strings.NewReader(`not json`))
	assert.Error(t, err)
}
