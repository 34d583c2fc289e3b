// internal/core/domain/stock.go
package domain

// LocationLowStockUnits flags a single location as low independently of the
// item-level threshold used for catalog badges.
const LocationLowStockUnits = 5

// LocationLevel is one member of a SKU's stock breakdown
type LocationLevel struct {
	Name   string `json:"name"`
	Stock  int    `json:"stock"`
	ItemID string `json:"itemId"`
	Low    bool   `json:"low"`
}

// StockBreakdown is the total stock of one SKU across every location
type StockBreakdown struct {
	SKU       string          `json:"sku"`
	Total     int             `json:"total"`
	Locations []LocationLevel `json:"locations"`
}

// AggregateBySKU groups every item carrying sku and sums their stock. Items
// with a location breakdown contribute one level per entry, others contribute
// their own location. The result is computed from items on every call.
func AggregateBySKU(items []InventoryItem, sku string) StockBreakdown {
	out := StockBreakdown{SKU: sku, Locations: []LocationLevel{}}
	for _, item := range items {
		if item.SKU != sku {
			continue
		}
		if len(item.Locations) == 0 {
			out.add(item.Location, item.Stock, item.ID)
			continue
		}
		for _, loc := range item.Locations {
			out.add(loc.Name, loc.Stock, item.ID)
		}
	}
	return out
}

func (b *StockBreakdown) add(name string, stock int, itemID string) {
	b.Total += stock
	b.Locations = append(b.Locations, LocationLevel{
		Name:   name,
		Stock:  stock,
		ItemID: itemID,
		Low:    stock <= LocationLowStockUnits,
	})
}

// LowLocations returns the levels at or below LocationLowStockUnits
func (b StockBreakdown) LowLocations() []LocationLevel {
	var low []LocationLevel
	for _, l := range b.Locations {
		if l.Low {
			low = append(low, l)
		}
	}
	return low
}
