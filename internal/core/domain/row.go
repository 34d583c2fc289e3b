// internal/core/domain/row.go
package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// InventoryTable is the remote table holding inventory rows
const InventoryTable = "inventory_items"

// InventoryRow is the flat, snake_cased shape stored by the remote store.
// Nullable columns are pointers so absent values can be told apart from zero.
type InventoryRow struct {
	ID                *string          `db:"id" json:"id,omitempty"`
	SKU               string           `db:"sku" json:"sku"`
	Name              string           `db:"name" json:"name"`
	Category          *string          `db:"category" json:"category,omitempty"`
	Subcategory       *string          `db:"subcategory" json:"subcategory,omitempty"`
	Brand             *string          `db:"brand" json:"brand,omitempty"`
	Tags              []string         `db:"tags" json:"tags,omitempty"`
	Cost              *decimal.Decimal `db:"cost" json:"cost,omitempty"`
	RRP               *decimal.Decimal `db:"rrp" json:"rrp,omitempty"`
	Price             *decimal.Decimal `db:"price" json:"price,omitempty"`
	Stock             *int             `db:"stock" json:"stock,omitempty"`
	LowStockThreshold *int             `db:"low_stock_threshold" json:"low_stock_threshold,omitempty"`
	MinStockCount     *int             `db:"min_stock_count" json:"min_stock_count,omitempty"`
	Location          *string          `db:"location" json:"location,omitempty"`
	Locations         []LocationStock  `db:"locations" json:"locations,omitempty"`
	Dimensions        *Dimensions      `db:"dimensions" json:"dimensions,omitempty"`
	Weight            *Weight          `db:"weight" json:"weight,omitempty"`
	DateAdded         *time.Time       `db:"date_added" json:"date_added,omitempty"`
	LastUpdated       *time.Time       `db:"last_updated" json:"last_updated,omitempty"`
	IsActive          *bool            `db:"is_active" json:"is_active,omitempty"`
	ImageURL          *string          `db:"image_url" json:"image_url,omitempty"`
	Supplier          *string          `db:"supplier" json:"supplier,omitempty"`
	Barcode           *string          `db:"barcode" json:"barcode,omitempty"`
}

// ToCanonical translates a remote row into the canonical item, filling the
// default for every absent column.
func ToCanonical(row InventoryRow) InventoryItem {
	item := InventoryItem{
		ID:                deref(row.ID, ""),
		SKU:               row.SKU,
		Name:              row.Name,
		Category:          deref(row.Category, DefaultCategory),
		Subcategory:       deref(row.Subcategory, ""),
		Brand:             deref(row.Brand, ""),
		Tags:              NormalizeTags(row.Tags),
		Cost:              deref(row.Cost, decimal.Zero),
		Stock:             deref(row.Stock, 0),
		LowStockThreshold: deref(row.LowStockThreshold, DefaultLowStockThreshold),
		MinStockCount:     deref(row.MinStockCount, DefaultMinStockCount),
		Location:          deref(row.Location, DefaultLocation),
		IsActive:          deref(row.IsActive, true),
		ImageURL:          deref(row.ImageURL, ""),
		Supplier:          deref(row.Supplier, ""),
		Barcode:           deref(row.Barcode, ""),
		DateAdded:         deref(row.DateAdded, time.Time{}),
	}
	item.RRP = deref(row.RRP, item.Cost)
	item.Price = deref(row.Price, item.RRP)
	item.LastUpdated = deref(row.LastUpdated, item.DateAdded)

	if len(row.Locations) > 0 {
		item.Locations = append([]LocationStock(nil), row.Locations...)
		item.RecomputeStock()
	}
	if row.Dimensions != nil {
		d := *row.Dimensions
		item.Dimensions = &d
	}
	if row.Weight != nil {
		w := *row.Weight
		item.Weight = &w
	}
	return item
}

// ToRow translates a canonical item into the remote row shape. An empty id
// is left unset so the remote store assigns one.
func ToRow(item InventoryItem) InventoryRow {
	row := InventoryRow{
		SKU:               item.SKU,
		Name:              item.Name,
		Category:          ptr(item.Category),
		Subcategory:       ptr(item.Subcategory),
		Brand:             ptr(item.Brand),
		Tags:              NormalizeTags(item.Tags),
		Cost:              ptr(item.Cost),
		RRP:               ptr(item.RRP),
		Price:             ptr(item.Price),
		Stock:             ptr(item.Stock),
		LowStockThreshold: ptr(item.LowStockThreshold),
		MinStockCount:     ptr(item.MinStockCount),
		Location:          ptr(item.Location),
		IsActive:          ptr(item.IsActive),
		ImageURL:          ptr(item.ImageURL),
		Supplier:          ptr(item.Supplier),
		Barcode:           ptr(item.Barcode),
	}
	if item.ID != "" {
		row.ID = ptr(item.ID)
	}
	if len(item.Locations) > 0 {
		row.Locations = append([]LocationStock(nil), item.Locations...)
	}
	if item.Dimensions != nil {
		d := *item.Dimensions
		row.Dimensions = &d
	}
	if item.Weight != nil {
		w := *item.Weight
		row.Weight = &w
	}
	if !item.DateAdded.IsZero() {
		row.DateAdded = ptr(item.DateAdded)
	}
	if !item.LastUpdated.IsZero() {
		row.LastUpdated = ptr(item.LastUpdated)
	}
	return row
}

func deref[T any](p *T, fallback T) T {
	if p == nil {
		return fallback
	}
	return *p
}

func ptr[T any](v T) *T {
	return &v
}
