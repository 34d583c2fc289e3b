// internal/adapters/db/inventory_store.go
package db

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"

	"github.com/ammerola/stockmirror/internal/core/domain"
	"github.com/ammerola/stockmirror/internal/core/ports"
)

// inventoryColumns is the select list shared by every query that returns rows.
// The id is rendered as text so it scans straight into the row's string id.
var inventoryColumns = []string{
	"id::text AS id", "sku", "name", "category", "subcategory", "brand", "tags",
	"cost", "rrp", "price", "stock", "low_stock_threshold", "min_stock_count",
	"location", "locations", "dimensions", "weight",
	"date_added", "last_updated", "is_active", "image_url", "supplier", "barcode",
}

// upsertColumns are the columns written by UpsertBySKU, in value order
var upsertColumns = []string{
	"sku", "name", "category", "subcategory", "brand", "tags",
	"cost", "rrp", "price", "stock", "low_stock_threshold", "min_stock_count",
	"location", "locations", "dimensions", "weight",
	"date_added", "is_active", "image_url", "supplier", "barcode",
}

// sortColumns maps canonical sort fields onto columns. Anything not listed
// here never reaches ORDER BY.
var sortColumns = map[domain.SortField]string{
	domain.SortByName:              "name",
	domain.SortBySKU:               "sku",
	domain.SortByCategory:          "category",
	domain.SortBySubcategory:       "subcategory",
	domain.SortByBrand:             "brand",
	domain.SortByCost:              "cost",
	domain.SortByRRP:               "rrp",
	domain.SortByPrice:             "price",
	domain.SortByStock:             "stock",
	domain.SortByLowStockThreshold: "low_stock_threshold",
	domain.SortByMinStockCount:     "min_stock_count",
	domain.SortByLocation:          "location",
	domain.SortBySupplier:          "supplier",
	domain.SortByDateAdded:         "date_added",
	domain.SortByLastUpdated:       "last_updated",
}

// byteOrderColumns sort with the C collation so remote pages order strings
// the same way the mirror does.
var byteOrderColumns = map[string]bool{
	"name":        true,
	"sku":         true,
	"category":    true,
	"subcategory": true,
	"brand":       true,
	"location":    true,
	"supplier":    true,
}

var psql = squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)

// InventoryStore is the PostgreSQL implementation of ports.RemoteStore
type InventoryStore struct {
	db     ports.Database
	logger *slog.Logger
}

var _ ports.RemoteStore = (*InventoryStore)(nil)

// NewInventoryStore creates a new inventory store
func NewInventoryStore(db ports.Database, logger *slog.Logger) *InventoryStore {
	return &InventoryStore{
		db:     db,
		logger: logger.With(slog.String("repository", "inventory")),
	}
}

// List returns one page of rows and the exact number of matching rows
func (s *InventoryStore) List(ctx context.Context, params domain.ListParams) ([]domain.InventoryRow, int, error) {
	params = params.Normalize()

	query, args, err := buildListQuery(params)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to build list query: %w", err)
	}

	rows, err := s.db.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to query inventory items: %w", err)
	}
	defer rows.Close()

	var (
		result []domain.InventoryRow
		total  int
	)
	for rows.Next() {
		var row domain.InventoryRow
		targets := append(scanTargets(&row), &total)
		if err := rows.Scan(targets...); err != nil {
			return nil, 0, fmt.Errorf("failed to scan inventory item: %w", err)
		}
		result = append(result, row)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("error iterating rows: %w", err)
	}

	// A page past the end carries no window count, so ask for it directly.
	if len(result) == 0 && params.Offset() > 0 {
		total, err = s.count(ctx, params)
		if err != nil {
			return nil, 0, err
		}
	}

	s.logger.DebugContext(ctx, "inventory page listed",
		slog.Int("page", params.Page),
		slog.Int("rows", len(result)),
		slog.Int("total", total))

	return result, total, nil
}

func (s *InventoryStore) count(ctx context.Context, params domain.ListParams) (int, error) {
	query, args, err := applyFilters(psql.Select("COUNT(*)").From(domain.InventoryTable), params).ToSql()
	if err != nil {
		return 0, fmt.Errorf("failed to build count query: %w", err)
	}

	var total int
	if err := s.db.QueryRow(ctx, query, args...).Scan(&total); err != nil {
		return 0, fmt.Errorf("failed to count inventory items: %w", err)
	}
	return total, nil
}

// Insert creates a row and returns it as stored, including the assigned id
func (s *InventoryStore) Insert(ctx context.Context, row domain.InventoryRow) (domain.InventoryRow, error) {
	values := writeValues(row)
	values["last_updated"] = squirrel.Expr("NOW()")
	if row.DateAdded == nil {
		values["date_added"] = squirrel.Expr("NOW()")
	}

	query, args, err := psql.Insert(domain.InventoryTable).
		SetMap(values).
		Suffix("RETURNING " + strings.Join(inventoryColumns, ", ")).
		ToSql()
	if err != nil {
		return domain.InventoryRow{}, fmt.Errorf("failed to build insert: %w", err)
	}

	var stored domain.InventoryRow
	if err := s.db.QueryRow(ctx, query, args...).Scan(scanTargets(&stored)...); err != nil {
		return domain.InventoryRow{}, fmt.Errorf("failed to insert inventory item: %w", err)
	}

	s.logger.DebugContext(ctx, "inventory item inserted",
		slog.String("id", deref(stored.ID)),
		slog.String("sku", stored.SKU))

	return stored, nil
}

// Update overwrites the row with the same id. last_updated is stamped by the
// server so it reflects commit time.
func (s *InventoryStore) Update(ctx context.Context, row domain.InventoryRow) (domain.InventoryRow, error) {
	if row.ID == nil || *row.ID == "" {
		return domain.InventoryRow{}, fmt.Errorf("update requires an id: %w", domain.ErrInvalidItem)
	}

	values := writeValues(row)
	values["last_updated"] = squirrel.Expr("NOW()")
	if row.DateAdded == nil {
		delete(values, "date_added")
	}

	query, args, err := psql.Update(domain.InventoryTable).
		SetMap(values).
		Where(squirrel.Eq{"id": *row.ID}).
		Suffix("RETURNING " + strings.Join(inventoryColumns, ", ")).
		ToSql()
	if err != nil {
		return domain.InventoryRow{}, fmt.Errorf("failed to build update: %w", err)
	}

	var stored domain.InventoryRow
	if err := s.db.QueryRow(ctx, query, args...).Scan(scanTargets(&stored)...); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.InventoryRow{}, fmt.Errorf("inventory item %s: %w", *row.ID, domain.ErrNotFound)
		}
		return domain.InventoryRow{}, fmt.Errorf("failed to update inventory item: %w", err)
	}

	s.logger.DebugContext(ctx, "inventory item updated", slog.String("id", *row.ID))

	return stored, nil
}

// Delete removes the row with the given id
func (s *InventoryStore) Delete(ctx context.Context, id string) error {
	query, args, err := psql.Delete(domain.InventoryTable).Where(squirrel.Eq{"id": id}).ToSql()
	if err != nil {
		return fmt.Errorf("failed to build delete: %w", err)
	}

	tag, err := s.db.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to delete inventory item: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("inventory item %s: %w", id, domain.ErrNotFound)
	}

	s.logger.InfoContext(ctx, "inventory item deleted", slog.String("id", id))

	return nil
}

// UpsertBySKU writes rows in one statement inside a transaction, overwriting
// every row whose sku already exists.
func (s *InventoryStore) UpsertBySKU(ctx context.Context, rows []domain.InventoryRow) error {
	if len(rows) == 0 {
		return nil
	}

	query, args, err := buildUpsertQuery(rows, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("failed to build upsert: %w", err)
	}

	err = s.db.Transaction(ctx, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx, query, args...)
		if err != nil {
			return err
		}
		s.logger.DebugContext(ctx, "inventory batch upserted",
			slog.Int("rows", len(rows)),
			slog.Int64("affected", tag.RowsAffected()))
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to upsert inventory batch: %w", err)
	}

	return nil
}

func buildListQuery(params domain.ListParams) (string, []interface{}, error) {
	column, ok := sortColumns[params.SortField]
	if !ok {
		column = sortColumns[domain.SortByName]
	}
	if byteOrderColumns[column] {
		column += ` COLLATE "C"`
	}
	direction := "ASC"
	if params.SortDirection == domain.SortDesc {
		direction = "DESC"
	}

	qb := psql.Select(append(append([]string(nil), inventoryColumns...), "COUNT(*) OVER() AS total_count")...).
		From(domain.InventoryTable)
	qb = applyFilters(qb, params).
		OrderBy(column+" "+direction, "id ASC").
		Limit(uint64(params.PageSize)).
		Offset(uint64(params.Offset()))

	return qb.ToSql()
}

func applyFilters(qb squirrel.SelectBuilder, params domain.ListParams) squirrel.SelectBuilder {
	if params.Search != "" {
		pattern := "%" + escapeLike(params.Search) + "%"
		qb = qb.Where(squirrel.Or{
			squirrel.ILike{"name": pattern},
			squirrel.ILike{"sku": pattern},
			squirrel.ILike{"category": pattern},
		})
	}
	if !domain.IsUnsetFilter(params.Category) {
		qb = qb.Where(squirrel.Eq{"category": params.Category})
	}
	if !domain.IsUnsetFilter(params.Location) {
		qb = qb.Where(squirrel.Eq{"location": params.Location})
	}
	return qb
}

func buildUpsertQuery(rows []domain.InventoryRow, now time.Time) (string, []interface{}, error) {
	qb := psql.Insert(domain.InventoryTable).Columns(upsertColumns...)
	for _, row := range rows {
		values := writeValues(row)
		if row.DateAdded == nil {
			values["date_added"] = now
		}
		ordered := make([]interface{}, len(upsertColumns))
		for i, col := range upsertColumns {
			ordered[i] = values[col]
		}
		qb = qb.Values(ordered...)
	}

	updates := make([]string, 0, len(upsertColumns))
	for _, col := range upsertColumns {
		if col == "sku" || col == "date_added" {
			continue
		}
		updates = append(updates, col+" = EXCLUDED."+col)
	}
	updates = append(updates, "last_updated = NOW()")

	return qb.Suffix("ON CONFLICT (sku) DO UPDATE SET " + strings.Join(updates, ", ")).ToSql()
}

// writeValues maps a row onto its writable columns. Nil pointers become NULL.
func writeValues(row domain.InventoryRow) map[string]interface{} {
	tags := row.Tags
	if tags == nil {
		tags = []string{}
	}
	return map[string]interface{}{
		"sku":                 row.SKU,
		"name":                row.Name,
		"category":            row.Category,
		"subcategory":         row.Subcategory,
		"brand":               row.Brand,
		"tags":                tags,
		"cost":                row.Cost,
		"rrp":                 row.RRP,
		"price":               row.Price,
		"stock":               stockValue(row.Stock),
		"low_stock_threshold": row.LowStockThreshold,
		"min_stock_count":     row.MinStockCount,
		"location":            row.Location,
		"locations":           jsonValue(row.Locations),
		"dimensions":          row.Dimensions,
		"weight":              row.Weight,
		"date_added":          row.DateAdded,
		"is_active":           boolValue(row.IsActive, true),
		"image_url":           row.ImageURL,
		"supplier":            row.Supplier,
		"barcode":             row.Barcode,
	}
}

func scanTargets(row *domain.InventoryRow) []interface{} {
	return []interface{}{
		&row.ID, &row.SKU, &row.Name, &row.Category, &row.Subcategory, &row.Brand, &row.Tags,
		&row.Cost, &row.RRP, &row.Price, &row.Stock, &row.LowStockThreshold, &row.MinStockCount,
		&row.Location, &row.Locations, &row.Dimensions, &row.Weight,
		&row.DateAdded, &row.LastUpdated, &row.IsActive, &row.ImageURL, &row.Supplier, &row.Barcode,
	}
}

func jsonValue(locations []domain.LocationStock) interface{} {
	if len(locations) == 0 {
		return nil
	}
	return locations
}

func stockValue(stock *int) int {
	if stock == nil {
		return 0
	}
	return *stock
}

func boolValue(v *bool, fallback bool) bool {
	if v == nil {
		return fallback
	}
	return *v
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// escapeLike neutralises LIKE wildcards so search is a literal substring match
func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}
