package db_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ammerola/stockmirror/internal/adapters/db"
	"github.com/ammerola/stockmirror/internal/core/domain"
)

func TestOfflineStore_AlwaysUnavailable(t *testing.T) {
	ctx := context.Background()
	store := db.NewOfflineStore(errors.New("dial tcp: connection refused"))

	_, _, err := store.List(ctx, domain.ListParams{})
	assert.ErrorIs(t, err, domain.ErrRemoteUnavailable)
	assert.Contains(t, err.Error(), "connection refused")

	_, err = store.Insert(ctx, domain.InventoryRow{})
	assert.ErrorIs(t, err, domain.ErrRemoteUnavailable)

	_, err = store.Update(ctx, domain.InventoryRow{})
	assert.ErrorIs(t, err, domain.ErrRemoteUnavailable)

	assert.ErrorIs(t, store.Delete(ctx, "x"), domain.ErrRemoteUnavailable)
	assert.ErrorIs(t, store.UpsertBySKU(ctx, nil), domain.ErrRemoteUnavailable)
	assert.ErrorIs(t, db.NewOfflineStore(nil).Delete(ctx, "x"), domain.ErrRemoteUnavailable)
}
