// internal/core/ports/remote_store.go
package ports

import (
	"context"

	"github.com/ammerola/stockmirror/internal/core/domain"
)

// RemoteStore is the authoritative store of inventory rows.
// Implementations may fail, time out, or return zero rows at any time.
type RemoteStore interface {
	// List returns one page of rows plus the exact count of matching rows
	List(ctx context.Context, params domain.ListParams) ([]domain.InventoryRow, int, error)
	// Insert omits the row id so the store assigns one
	Insert(ctx context.Context, row domain.InventoryRow) (domain.InventoryRow, error)
	Update(ctx context.Context, row domain.InventoryRow) (domain.InventoryRow, error)
	Delete(ctx context.Context, id string) error
	// UpsertBySKU overwrites rows whose sku already exists
	UpsertBySKU(ctx context.Context, rows []domain.InventoryRow) error
}
