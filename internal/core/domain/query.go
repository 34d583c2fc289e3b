// internal/core/domain/query.go
package domain

import (
	"fmt"
	"strings"
)

// Paging limits shared by the remote and local query paths
const (
	DefaultPageSize = 20
	MaxPageSize     = 200
)

// UndefinedFilter is the sentinel some clients send for "no filter"
const UndefinedFilter = "undefined"

// SortDirection is asc or desc
type SortDirection string

const (
	SortAsc  SortDirection = "asc"
	SortDesc SortDirection = "desc"
)

// SortField is a canonical sortable attribute of an item
type SortField string

const (
	SortByName              SortField = "name"
	SortBySKU               SortField = "sku"
	SortByCategory          SortField = "category"
	SortBySubcategory       SortField = "subcategory"
	SortByBrand             SortField = "brand"
	SortByCost              SortField = "cost"
	SortByRRP               SortField = "rrp"
	SortByPrice             SortField = "price"
	SortByStock             SortField = "stock"
	SortByLowStockThreshold SortField = "lowStockThreshold"
	SortByMinStockCount     SortField = "minStockCount"
	SortByLocation          SortField = "location"
	SortBySupplier          SortField = "supplier"
	SortByDateAdded         SortField = "dateAdded"
	SortByLastUpdated       SortField = "lastUpdated"
)

// sortFieldAliases accepts both the canonical and the row spelling
var sortFieldAliases = map[string]SortField{
	"name":                SortByName,
	"sku":                 SortBySKU,
	"category":            SortByCategory,
	"subcategory":         SortBySubcategory,
	"brand":               SortByBrand,
	"cost":                SortByCost,
	"rrp":                 SortByRRP,
	"price":               SortByPrice,
	"stock":               SortByStock,
	"lowstockthreshold":   SortByLowStockThreshold,
	"low_stock_threshold": SortByLowStockThreshold,
	"minstockcount":       SortByMinStockCount,
	"min_stock_count":     SortByMinStockCount,
	"location":            SortByLocation,
	"supplier":            SortBySupplier,
	"dateadded":           SortByDateAdded,
	"date_added":          SortByDateAdded,
	"lastupdated":         SortByLastUpdated,
	"last_updated":        SortByLastUpdated,
}

// ParseSortField resolves a client supplied field name. Unknown names fall
// back to name so a bad query string can never reach the store verbatim.
func ParseSortField(s string) SortField {
	if f, ok := sortFieldAliases[strings.ToLower(strings.TrimSpace(s))]; ok {
		return f
	}
	return SortByName
}

// ListParams is one page request against either store
type ListParams struct {
	Page          int           `json:"page"`
	PageSize      int           `json:"pageSize"`
	Search        string        `json:"search,omitempty"`
	SortField     SortField     `json:"sortField"`
	SortDirection SortDirection `json:"sortDirection"`
	Category      string        `json:"category,omitempty"`
	Location      string        `json:"location,omitempty"`
}

// Normalize clamps paging, resolves the sort and drops sentinel filters.
// Two requests that normalize to the same value are the same request.
func (p ListParams) Normalize() ListParams {
	if p.Page < 1 {
		p.Page = 1
	}
	if p.PageSize <= 0 {
		p.PageSize = DefaultPageSize
	}
	if p.PageSize > MaxPageSize {
		p.PageSize = MaxPageSize
	}
	p.Search = strings.TrimSpace(p.Search)
	p.SortField = ParseSortField(string(p.SortField))
	if p.SortDirection != SortDesc {
		p.SortDirection = SortAsc
	}
	if IsUnsetFilter(p.Category) {
		p.Category = ""
	}
	if IsUnsetFilter(p.Location) {
		p.Location = ""
	}
	return p
}

// Offset is the zero-based index of the first row of the page
func (p ListParams) Offset() int {
	return (p.Page - 1) * p.PageSize
}

// Key identifies the request for deduplication
func (p ListParams) Key() string {
	return fmt.Sprintf("%d|%d|%s|%s|%s|%s|%s",
		p.Page, p.PageSize, p.Search, p.SortField, p.SortDirection, p.Category, p.Location)
}

// IsUnsetFilter reports whether a category or location filter is absent
func IsUnsetFilter(v string) bool {
	v = strings.TrimSpace(v)
	return v == "" || v == UndefinedFilter
}

// Source says which store produced a page
type Source string

const (
	SourceRemote Source = "remote"
	SourceLocal  Source = "local"
)

// Page is the result handed to callers. Params identifies the request that
// produced it, since concurrent fetches may complete out of order.
type Page struct {
	Items      []InventoryItem `json:"items"`
	TotalCount int             `json:"totalCount"`
	Params     ListParams      `json:"params"`
	Source     Source          `json:"source"`
	Warning    string          `json:"warning,omitempty"`
	Skipped    bool            `json:"skipped,omitempty"`
}

// Clone deep-copies the page items
func (p Page) Clone() Page {
	out := p
	out.Items = make([]InventoryItem, len(p.Items))
	for i := range p.Items {
		out.Items[i] = p.Items[i].Clone()
	}
	return out
}

// MoveDirection is the direction of a manual position swap
type MoveDirection string

const (
	MoveUp   MoveDirection = "up"
	MoveDown MoveDirection = "down"
)

// ImportResult summarizes a bulk import
type ImportResult struct {
	Received      int      `json:"received"`
	Inserted      int      `json:"inserted"`
	Updated       int      `json:"updated"`
	Skipped       int      `json:"skipped"`
	RemoteBatches int      `json:"remoteBatches"`
	FailedBatches int      `json:"failedBatches"`
	Errors        []string `json:"errors,omitempty"`
}
