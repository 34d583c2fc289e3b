// internal/adapters/db/offline_store.go
package db

import (
	"context"
	"fmt"

	"github.com/ammerola/stockmirror/internal/core/domain"
	"github.com/ammerola/stockmirror/internal/core/ports"
)

// OfflineStore stands in for the remote store when no connection could be
// established at startup. Every call fails with domain.ErrRemoteUnavailable,
// which sends reads to the mirror and keeps writes local.
type OfflineStore struct {
	cause error
}

var _ ports.RemoteStore = (*OfflineStore)(nil)

// NewOfflineStore records why the remote store is unavailable
func NewOfflineStore(cause error) *OfflineStore {
	return &OfflineStore{cause: cause}
}

func (s *OfflineStore) err() error {
	if s.cause == nil {
		return domain.ErrRemoteUnavailable
	}
	return fmt.Errorf("%w: %v", domain.ErrRemoteUnavailable, s.cause)
}

func (s *OfflineStore) List(context.Context, domain.ListParams) ([]domain.InventoryRow, int, error) {
	return nil, 0, s.err()
}

func (s *OfflineStore) Insert(context.Context, domain.InventoryRow) (domain.InventoryRow, error) {
	return domain.InventoryRow{}, s.err()
}

func (s *OfflineStore) Update(context.Context, domain.InventoryRow) (domain.InventoryRow, error) {
	return domain.InventoryRow{}, s.err()
}

func (s *OfflineStore) Delete(context.Context, string) error {
	return s.err()
}

func (s *OfflineStore) UpsertBySKU(context.Context, []domain.InventoryRow) error {
	return s.err()
}
