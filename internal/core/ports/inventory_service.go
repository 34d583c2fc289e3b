// internal/core/ports/inventory_service.go
package ports

import (
	"context"

	"github.com/ammerola/stockmirror/internal/core/domain"
)

// InventoryQueryService is the read side used by the handlers
type InventoryQueryService interface {
	Fetch(ctx context.Context, params domain.ListParams) domain.Page
	Refresh(ctx context.Context) domain.Page
	Reorder(index int, direction domain.MoveDirection) (domain.Page, bool)
	Last() (domain.Page, bool)
}

// InventoryMutationService is the write side used by the handlers
type InventoryMutationService interface {
	Create(ctx context.Context, item domain.InventoryItem) (domain.InventoryItem, error)
	Update(ctx context.Context, id string, item domain.InventoryItem) (domain.InventoryItem, error)
	Delete(ctx context.Context, id string) error
	ReorderStock(ctx context.Context, id string, quantity int) (domain.InventoryItem, error)
	Discontinue(ctx context.Context, id string) (domain.InventoryItem, error)
	SetLocationStock(ctx context.Context, sku, location string, count int) (domain.StockBreakdown, error)
	StockBreakdown(sku string) domain.StockBreakdown
	CompleteTransfer(ctx context.Context, transfer domain.TransferRecord) (domain.StockBreakdown, error)
	BulkImport(ctx context.Context, rows []domain.ImportItem) (domain.ImportResult, error)
}
