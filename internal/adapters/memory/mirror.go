// internal/adapters/memory/mirror.go
package memory

import (
	"cmp"
	"slices"
	"strconv"
	"strings"
	"sync"

	"github.com/ammerola/stockmirror/internal/core/domain"
	"github.com/ammerola/stockmirror/internal/core/ports"
)

// LocalIDPrefix marks ids minted by the mirror for items the remote store
// has never accepted.
const LocalIDPrefix = "local-"

// Mirror is the in-process, ordered copy of the catalog. Reads take the read
// lock, every write takes the write lock, and items cross the boundary only
// as deep copies.
type Mirror struct {
	mu     sync.RWMutex
	items  []domain.InventoryItem
	nextID int
}

var _ ports.MirrorStore = (*Mirror)(nil)

// NewMirror creates a mirror holding a copy of seed in the given order
func NewMirror(seed []domain.InventoryItem) *Mirror {
	m := &Mirror{items: make([]domain.InventoryItem, 0, len(seed))}
	for _, item := range seed {
		item = item.Clone()
		item.RecomputeStock()
		m.observeID(item.ID)
		m.items = append(m.items, item)
	}
	return m
}

// observeID keeps nextID ahead of any local id already present
func (m *Mirror) observeID(id string) {
	n, ok := strings.CutPrefix(id, LocalIDPrefix)
	if !ok {
		return
	}
	if v, err := strconv.Atoi(n); err == nil && v > m.nextID {
		m.nextID = v
	}
}

func (m *Mirror) mintID() string {
	m.nextID++
	return LocalIDPrefix + strconv.Itoa(m.nextID)
}

func (m *Mirror) indexOf(id string) int {
	return slices.IndexFunc(m.items, func(item domain.InventoryItem) bool {
		return item.ID == id
	})
}

// Query filters, sorts and pages the mirror with the same semantics as the
// remote list query. The count is the number of matches before paging.
func (m *Mirror) Query(params domain.ListParams) ([]domain.InventoryItem, int) {
	params = params.Normalize()

	m.mu.RLock()
	matched := make([]domain.InventoryItem, 0, len(m.items))
	for _, item := range m.items {
		if matches(item, params) {
			matched = append(matched, item)
		}
	}
	m.mu.RUnlock()

	sortItems(matched, params.SortField, params.SortDirection)

	total := len(matched)
	start := min(params.Offset(), total)
	end := min(start+params.PageSize, total)

	page := make([]domain.InventoryItem, 0, end-start)
	for _, item := range matched[start:end] {
		page = append(page, item.Clone())
	}
	return page, total
}

// FindByID returns a copy of the item with the given id
func (m *Mirror) FindByID(id string) (domain.InventoryItem, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if idx := m.indexOf(id); idx >= 0 {
		return m.items[idx].Clone(), true
	}
	return domain.InventoryItem{}, false
}

// FindBySKU returns every item carrying sku, one per location record
func (m *Mirror) FindBySKU(sku string) []domain.InventoryItem {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []domain.InventoryItem
	for _, item := range m.items {
		if item.SKU == sku {
			out = append(out, item.Clone())
		}
	}
	return out
}

// Prepend inserts item at the front. An item without an id gets a local one;
// an item whose id is already present replaces the old entry.
func (m *Mirror) Prepend(item domain.InventoryItem) domain.InventoryItem {
	item = item.Clone()
	item.RecomputeStock()

	m.mu.Lock()
	defer m.mu.Unlock()

	if item.ID == "" {
		item.ID = m.mintID()
	} else {
		m.observeID(item.ID)
		if idx := m.indexOf(item.ID); idx >= 0 {
			m.items = slices.Delete(m.items, idx, idx+1)
		}
	}
	m.items = slices.Insert(m.items, 0, item)

	return item.Clone()
}

// Update replaces the item with the same id in place
func (m *Mirror) Update(item domain.InventoryItem) bool {
	item = item.Clone()
	item.RecomputeStock()

	m.mu.Lock()
	defer m.mu.Unlock()

	idx := m.indexOf(item.ID)
	if idx < 0 {
		return false
	}
	m.items[idx] = item
	return true
}

// Delete removes the item with the given id
func (m *Mirror) Delete(id string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	idx := m.indexOf(id)
	if idx < 0 {
		return false
	}
	m.items = slices.Delete(m.items, idx, idx+1)
	return true
}

// UpsertBySKU overwrites the first item sharing each sku, keeping its id and
// dateAdded, and prepends the rest.
func (m *Mirror) UpsertBySKU(items []domain.InventoryItem) (inserted, updated int) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, item := range items {
		item = item.Clone()
		item.RecomputeStock()

		idx := slices.IndexFunc(m.items, func(existing domain.InventoryItem) bool {
			return existing.SKU == item.SKU
		})
		if idx >= 0 {
			item.ID = m.items[idx].ID
			if !m.items[idx].DateAdded.IsZero() {
				item.DateAdded = m.items[idx].DateAdded
			}
			m.items[idx] = item
			updated++
			continue
		}

		if item.ID == "" {
			item.ID = m.mintID()
		} else {
			m.observeID(item.ID)
		}
		m.items = slices.Insert(m.items, 0, item)
		inserted++
	}
	return inserted, updated
}

// Snapshot returns a copy of every item in mirror order
func (m *Mirror) Snapshot() []domain.InventoryItem {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]domain.InventoryItem, len(m.items))
	for i, item := range m.items {
		out[i] = item.Clone()
	}
	return out
}

// Len returns the number of items held
func (m *Mirror) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.items)
}

func matches(item domain.InventoryItem, params domain.ListParams) bool {
	if params.Category != "" && item.Category != params.Category {
		return false
	}
	if params.Location != "" && item.Location != params.Location {
		return false
	}
	if params.Search == "" {
		return true
	}
	q := strings.ToLower(params.Search)
	return strings.Contains(strings.ToLower(item.Name), q) ||
		strings.Contains(strings.ToLower(item.SKU), q) ||
		strings.Contains(strings.ToLower(item.Category), q)
}

// sortItems orders items by field, stable so equal keys keep mirror order
func sortItems(items []domain.InventoryItem, field domain.SortField, dir domain.SortDirection) {
	compare := comparator(field)
	slices.SortStableFunc(items, func(a, b domain.InventoryItem) int {
		c := compare(a, b)
		if dir == domain.SortDesc {
			return -c
		}
		return c
	})
}

func comparator(field domain.SortField) func(a, b domain.InventoryItem) int {
	switch field {
	case domain.SortBySKU:
		return byString(func(i domain.InventoryItem) string { return i.SKU })
	case domain.SortByCategory:
		return byString(func(i domain.InventoryItem) string { return i.Category })
	case domain.SortBySubcategory:
		return byString(func(i domain.InventoryItem) string { return i.Subcategory })
	case domain.SortByBrand:
		return byString(func(i domain.InventoryItem) string { return i.Brand })
	case domain.SortByLocation:
		return byString(func(i domain.InventoryItem) string { return i.Location })
	case domain.SortBySupplier:
		return byString(func(i domain.InventoryItem) string { return i.Supplier })
	case domain.SortByCost:
		return func(a, b domain.InventoryItem) int { return a.Cost.Cmp(b.Cost) }
	case domain.SortByRRP:
		return func(a, b domain.InventoryItem) int { return a.RRP.Cmp(b.RRP) }
	case domain.SortByPrice:
		return func(a, b domain.InventoryItem) int { return a.Price.Cmp(b.Price) }
	case domain.SortByStock:
		return byOrdered(func(i domain.InventoryItem) int { return i.Stock })
	case domain.SortByLowStockThreshold:
		return byOrdered(func(i domain.InventoryItem) int { return i.LowStockThreshold })
	case domain.SortByMinStockCount:
		return byOrdered(func(i domain.InventoryItem) int { return i.MinStockCount })
	case domain.SortByDateAdded:
		return func(a, b domain.InventoryItem) int { return a.DateAdded.Compare(b.DateAdded) }
	case domain.SortByLastUpdated:
		return func(a, b domain.InventoryItem) int { return a.LastUpdated.Compare(b.LastUpdated) }
	default:
		return byString(func(i domain.InventoryItem) string { return i.Name })
	}
}

func byString(key func(domain.InventoryItem) string) func(a, b domain.InventoryItem) int {
	return func(a, b domain.InventoryItem) int {
		return strings.Compare(key(a), key(b))
	}
}

func byOrdered[T cmp.Ordered](key func(domain.InventoryItem) T) func(a, b domain.InventoryItem) int {
	return func(a, b domain.InventoryItem) int {
		return cmp.Compare(key(a), key(b))
	}
}
