// internal/core/domain/inventory.go
package domain

import (
	"fmt"
	"regexp"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Defaults applied to items created without the optional fields set
const (
	DefaultCategory          = "Uncategorized"
	DefaultLocation          = "Main Warehouse"
	DefaultLowStockThreshold = 10
	DefaultMinStockCount     = 0
)

// remoteIDPattern matches the canonical 8-4-4-4-12 form only. Braced and
// urn-prefixed forms that uuid.Parse tolerates are treated as local ids.
var remoteIDPattern = regexp.MustCompile(`^[0-9a-fA-F]{8}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{12}$`)

// IsRemoteID reports whether id was issued by the authoritative store.
// Anything else is a locally minted id and never leaves the process.
func IsRemoteID(id string) bool {
	if !remoteIDPattern.MatchString(id) {
		return false
	}
	_, err := uuid.Parse(id)
	return err == nil
}

// LocationStock is the quantity held at one physical location
type LocationStock struct {
	Name  string `json:"name"`
	Stock int    `json:"stock"`
}

// Dimensions of a single unit
type Dimensions struct {
	Length float64 `json:"length"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
	Unit   string  `json:"unit"`
}

// Weight of a single unit
type Weight struct {
	Value float64 `json:"value"`
	Unit  string  `json:"unit"`
}

// InventoryItem is the canonical in-memory record for a stock-keeping item
type InventoryItem struct {
	ID                string          `json:"id"`
	SKU               string          `json:"sku"`
	Name              string          `json:"name"`
	Category          string          `json:"category"`
	Subcategory       string          `json:"subcategory,omitempty"`
	Brand             string          `json:"brand,omitempty"`
	Tags              []string        `json:"tags"`
	Cost              decimal.Decimal `json:"cost"`
	RRP               decimal.Decimal `json:"rrp"`
	Price             decimal.Decimal `json:"price"`
	Stock             int             `json:"stock"`
	LowStockThreshold int             `json:"lowStockThreshold"`
	MinStockCount     int             `json:"minStockCount"`
	Location          string          `json:"location"`
	Locations         []LocationStock `json:"locations,omitempty"`
	Dimensions        *Dimensions     `json:"dimensions,omitempty"`
	Weight            *Weight         `json:"weight,omitempty"`
	DateAdded         time.Time       `json:"dateAdded"`
	LastUpdated       time.Time       `json:"lastUpdated"`
	IsActive          bool            `json:"isActive"`
	ImageURL          string          `json:"imageUrl,omitempty"`
	Supplier          string          `json:"supplier,omitempty"`
	Barcode           string          `json:"barcode,omitempty"`
}

// Validate performs domain validation on the inventory item
func (i *InventoryItem) Validate() error {
	if i.SKU == "" {
		return fmt.Errorf("%w: sku is required", ErrInvalidItem)
	}
	if i.Name == "" {
		return fmt.Errorf("%w: name is required", ErrInvalidItem)
	}
	if i.Stock < 0 {
		return fmt.Errorf("%w: stock cannot be negative", ErrInvalidItem)
	}
	if i.LowStockThreshold < 0 || i.MinStockCount < 0 {
		return fmt.Errorf("%w: stock thresholds cannot be negative", ErrInvalidItem)
	}
	for _, loc := range i.Locations {
		if loc.Name == "" {
			return fmt.Errorf("%w: location name is required", ErrInvalidItem)
		}
		if loc.Stock < 0 {
			return fmt.Errorf("%w: stock at %s cannot be negative", ErrInvalidItem, loc.Name)
		}
	}
	if i.Cost.IsNegative() || i.RRP.IsNegative() || i.Price.IsNegative() {
		return fmt.Errorf("%w: prices cannot be negative", ErrInvalidItem)
	}
	return nil
}

// ApplyDefaults fills every unset optional field. now stamps the lifecycle
// timestamps when they are missing.
func (i *InventoryItem) ApplyDefaults(now time.Time) {
	if i.Category == "" {
		i.Category = DefaultCategory
	}
	if i.Location == "" {
		if len(i.Locations) > 0 {
			i.Location = i.Locations[0].Name
		} else {
			i.Location = DefaultLocation
		}
	}
	if i.LowStockThreshold == 0 {
		i.LowStockThreshold = DefaultLowStockThreshold
	}
	if i.RRP.IsZero() {
		i.RRP = i.Cost
	}
	if i.Price.IsZero() {
		i.Price = i.RRP
	}
	i.Tags = NormalizeTags(i.Tags)
	if i.DateAdded.IsZero() {
		i.DateAdded = now
	}
	if i.LastUpdated.IsZero() {
		i.LastUpdated = now
	}
	// New records always start active.
	if i.ID == "" {
		i.IsActive = true
	}
}

// Touch stamps an edit. Tags are normalised, a missing dateAdded is
// backfilled and lastUpdated moves to now. Every other field is kept as
// given, zero values included.
func (i *InventoryItem) Touch(now time.Time) {
	i.Tags = NormalizeTags(i.Tags)
	if i.DateAdded.IsZero() {
		i.DateAdded = now
	}
	i.LastUpdated = now
}

// RecomputeStock rewrites Stock as the sum of the per-location counts.
// Items without a location breakdown keep their own count.
func (i *InventoryItem) RecomputeStock() {
	if len(i.Locations) == 0 {
		return
	}
	total := 0
	for _, loc := range i.Locations {
		total += loc.Stock
	}
	i.Stock = total
}

// SetLocationStock sets the count held at one location, adding the location
// when it is not yet part of the breakdown, and recomputes the aggregate.
func (i *InventoryItem) SetLocationStock(location string, count int) {
	for idx := range i.Locations {
		if i.Locations[idx].Name == location {
			i.Locations[idx].Stock = count
			i.RecomputeStock()
			return
		}
	}
	i.Locations = append(i.Locations, LocationStock{Name: location, Stock: count})
	i.RecomputeStock()
}

// LocationCount returns the count held at location and whether the item has
// a breakdown entry for it.
func (i *InventoryItem) LocationCount(location string) (int, bool) {
	for _, loc := range i.Locations {
		if loc.Name == location {
			return loc.Stock, true
		}
	}
	return 0, false
}

// ReplenishmentQuantity returns the quantity a reorder adds to stock.
// A positive request wins, otherwise max(minStockCount, 2*lowStockThreshold).
func (i *InventoryItem) ReplenishmentQuantity(requested int) int {
	if requested > 0 {
		return requested
	}
	return max(i.MinStockCount, i.LowStockThreshold*2)
}

// AddStock adds qty units. With a location breakdown the units land on the
// primary location entry, or the first entry when the primary is absent.
func (i *InventoryItem) AddStock(qty int) {
	if len(i.Locations) == 0 {
		i.Stock += qty
		return
	}
	target := 0
	for idx, loc := range i.Locations {
		if loc.Name == i.Location {
			target = idx
			break
		}
	}
	i.Locations[target].Stock += qty
	i.RecomputeStock()
}

// IsLowStock reports whether the item is at or below its own threshold
func (i *InventoryItem) IsLowStock() bool {
	return i.Stock <= i.LowStockThreshold
}

// Clone returns a deep copy so callers cannot alias slices held by a store
func (i InventoryItem) Clone() InventoryItem {
	out := i
	if i.Tags != nil {
		out.Tags = append([]string(nil), i.Tags...)
	}
	if i.Locations != nil {
		out.Locations = append([]LocationStock(nil), i.Locations...)
	}
	if i.Dimensions != nil {
		d := *i.Dimensions
		out.Dimensions = &d
	}
	if i.Weight != nil {
		w := *i.Weight
		out.Weight = &w
	}
	return out
}

// NormalizeTags de-duplicates tags keeping first-seen order and never
// returns nil.
func NormalizeTags(tags []string) []string {
	out := make([]string, 0, len(tags))
	seen := make(map[string]struct{}, len(tags))
	for _, t := range tags {
		if t == "" {
			continue
		}
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	return out
}
