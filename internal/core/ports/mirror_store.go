// internal/core/ports/mirror_store.go
package ports

import "github.com/ammerola/stockmirror/internal/core/domain"

// MirrorStore is the in-process fallback copy of the catalog. Every method
// is synchronous and returns copies the caller may freely modify.
type MirrorStore interface {
	Query(params domain.ListParams) ([]domain.InventoryItem, int)
	FindByID(id string) (domain.InventoryItem, bool)
	FindBySKU(sku string) []domain.InventoryItem
	// Prepend inserts at the front, minting a local id when the item has none
	Prepend(item domain.InventoryItem) domain.InventoryItem
	Update(item domain.InventoryItem) bool
	Delete(id string) bool
	UpsertBySKU(items []domain.InventoryItem) (inserted, updated int)
	Snapshot() []domain.InventoryItem
	Len() int
}
