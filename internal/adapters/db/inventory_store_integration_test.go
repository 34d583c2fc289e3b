//go:build integration
// +build integration

package db_test

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"

	"github.com/ammerola/stockmirror/internal/adapters/db"
	"github.com/ammerola/stockmirror/internal/core/domain"
	"github.com/ammerola/stockmirror/test/helpers"
)

type InventoryStoreSuite struct {
	suite.Suite
	testDB *helpers.TestDB
	store  *db.InventoryStore
	audit  *db.AuditLogRepository
	ctx    context.Context
}

func (s *InventoryStoreSuite) SetupSuite() {
	s.testDB = helpers.SetupTestDB(s.T())
	s.store = db.NewInventoryStore(s.testDB.Database, helpers.TestLogger())
	sqlDB := s.testDB.Database.SQLDB()
	s.T().Cleanup(func() { sqlDB.Close() })
	s.audit = db.NewAuditLogRepository(sqlDB, helpers.TestLogger())
	s.ctx = context.Background()
}

func (s *InventoryStoreSuite) SetupTest() {
	helpers.TruncateAllTables(s.T(), s.testDB.PgxPool)
}

func (s *InventoryStoreSuite) insert(overrides ...func(*domain.InventoryItem)) domain.InventoryItem {
	item := helpers.CreateTestInventoryItem(overrides...)
	item.ID = ""
	stored, err := s.store.Insert(s.ctx, domain.ToRow(*item))
	s.Require().NoError(err)
	return domain.ToCanonical(stored)
}

func (s *InventoryStoreSuite) TestInsert_AssignsRemoteID() {
	item := s.insert(func(i *domain.InventoryItem) {
		i.Locations = []domain.LocationStock{{Name: "Warehouse A", Stock: 100}, {Name: "Warehouse B", Stock: 45}}
		i.Dimensions = &domain.Dimensions{Length: 1, Width: 2, Height: 3, Unit: "cm"}
	})

	s.True(domain.IsRemoteID(item.ID))
	s.Equal(145, item.Stock)
	s.Len(item.Locations, 2)
	s.Equal("cm", item.Dimensions.Unit)
	s.False(item.LastUpdated.IsZero())
}

func (s *InventoryStoreSuite) TestUpdate_StampsLastUpdated() {
	item := s.insert()
	before := item.LastUpdated

	time.Sleep(10 * time.Millisecond)
	item.Name = "Renamed"
	item.Price = decimal.NewFromFloat(19.99)

	stored, err := s.store.Update(s.ctx, domain.ToRow(item))
	s.Require().NoError(err)

	updated := domain.ToCanonical(stored)
	s.Equal("Renamed", updated.Name)
	s.True(decimal.NewFromFloat(19.99).Equal(updated.Price))
	s.True(updated.LastUpdated.After(before))
	s.Equal(item.DateAdded.Unix(), updated.DateAdded.Unix())
}

func (s *InventoryStoreSuite) TestUpdate_UnknownID() {
	item := helpers.CreateTestInventoryItem()
	item.ID = uuid.NewString()

	_, err := s.store.Update(s.ctx, domain.ToRow(*item))
	s.ErrorIs(err, domain.ErrNotFound)
}

func (s *InventoryStoreSuite) TestDelete() {
	item := s.insert()

	s.NoError(s.store.Delete(s.ctx, item.ID))
	s.ErrorIs(s.store.Delete(s.ctx, item.ID), domain.ErrNotFound)
}

func (s *InventoryStoreSuite) TestList_PaginationAndCount() {
	for i := 0; i < 25; i++ {
		s.insert(func(item *domain.InventoryItem) {
			item.SKU = fmt.Sprintf("PAGE-%02d", i)
			item.Name = fmt.Sprintf("Item %02d", i)
		})
	}

	rows, total, err := s.store.List(s.ctx, domain.ListParams{Page: 1, PageSize: 10, SortDirection: domain.SortDesc})
	s.Require().NoError(err)
	s.Len(rows, 10)
	s.Equal(25, total)
	s.Equal("Item 24", rows[0].Name)

	rows, total, err = s.store.List(s.ctx, domain.ListParams{Page: 3, PageSize: 10})
	s.Require().NoError(err)
	s.Len(rows, 5)
	s.Equal(25, total)

	rows, total, err = s.store.List(s.ctx, domain.ListParams{Page: 9, PageSize: 10})
	s.Require().NoError(err)
	s.Empty(rows)
	s.Equal(25, total)
}

func (s *InventoryStoreSuite) TestList_SearchAndFilters() {
	s.insert(func(i *domain.InventoryItem) {
		i.SKU, i.Name, i.Category, i.Location = "HW-NAIL-001", "Steel Nails", "Hardware", "Warehouse A"
	})
	s.insert(func(i *domain.InventoryItem) {
		i.SKU, i.Name, i.Category, i.Location = "HW-SCREW-002", "Wood Screws", "Hardware", "Warehouse B"
	})
	s.insert(func(i *domain.InventoryItem) {
		i.SKU, i.Name, i.Category, i.Location = "PT-001", "Wall Paint 100%", "Paint", "Warehouse A"
	})

	tests := []struct {
		name   string
		params domain.ListParams
		want   int
	}{
		{name: "search_by_name_case_insensitive", params: domain.ListParams{Search: "nails"}, want: 1},
		{name: "search_by_sku", params: domain.ListParams{Search: "hw-"}, want: 2},
		{name: "search_by_category", params: domain.ListParams{Search: "paint"}, want: 1},
		{name: "literal_percent", params: domain.ListParams{Search: "100%"}, want: 1},
		{name: "underscore_is_literal", params: domain.ListParams{Search: "HW_"}, want: 0},
		{name: "category_filter", params: domain.ListParams{Category: "Hardware"}, want: 2},
		{name: "location_filter", params: domain.ListParams{Location: "Warehouse A"}, want: 2},
		{name: "undefined_filter", params: domain.ListParams{Category: "undefined"}, want: 3},
	}

	for _, tt := range tests {
		s.Run(tt.name, func() {
			rows, total, err := s.store.List(s.ctx, tt.params)
			s.NoError(err)
			s.Len(rows, tt.want)
			s.Equal(tt.want, total)
		})
	}
}

func (s *InventoryStoreSuite) TestUpsertBySKU() {
	existing := s.insert(func(i *domain.InventoryItem) { i.SKU = "UP-1" })

	rows := []domain.InventoryRow{
		domain.ToRow(domain.InventoryItem{SKU: "UP-1", Name: "Overwritten", Stock: 9}),
		domain.ToRow(domain.InventoryItem{SKU: "UP-2", Name: "Fresh", Stock: 1}),
	}
	s.Require().NoError(s.store.UpsertBySKU(s.ctx, rows))

	listed, total, err := s.store.List(s.ctx, domain.ListParams{Search: "UP-", SortField: domain.SortBySKU})
	s.Require().NoError(err)
	s.Equal(2, total)
	s.Equal(existing.ID, *listed[0].ID)
	s.Equal("Overwritten", listed[0].Name)
	s.Equal(9, *listed[0].Stock)
	s.Equal("Fresh", listed[1].Name)
}

func (s *InventoryStoreSuite) TestAuditLogRoundTrip() {
	itemID := uuid.NewString()
	for i, stage := range []domain.AuditStage{domain.StageAttempt, domain.StageCompleted} {
		event := domain.NewAuditEvent(domain.OpUpdate, stage, domain.InventoryItem{ID: itemID, Name: "Widget"},
			map[string]any{"step": i})
		event.OccurredAt = time.Now().Add(time.Duration(i) * time.Second)
		s.Require().NoError(s.audit.Insert(s.ctx, event))
		s.Require().NoError(s.audit.Insert(s.ctx, event), "replay is ignored")
	}

	events, err := s.audit.ListByItem(s.ctx, itemID, 10)
	s.Require().NoError(err)
	s.Require().Len(events, 2)
	s.Equal(domain.StageCompleted, events[0].Stage)

	n, err := s.audit.DeleteOlderThan(s.ctx, time.Now().Add(time.Hour))
	s.NoError(err)
	s.Equal(int64(2), n)
}

func (s *InventoryStoreSuite) TestConcurrentInserts() {
	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()
			item := helpers.CreateTestInventoryItem(func(item *domain.InventoryItem) {
				item.ID = ""
				item.SKU = fmt.Sprintf("CONC-%d", idx)
			})
			_, err := s.store.Insert(context.Background(), domain.ToRow(*item))
			s.NoError(err)
		}(i)
	}
	wg.Wait()

	_, total, err := s.store.List(s.ctx, domain.ListParams{Search: "CONC-"})
	s.NoError(err)
	s.Equal(10, total)
}

func TestInventoryStoreSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration tests in short mode")
	}
	suite.Run(t, new(InventoryStoreSuite))
}
