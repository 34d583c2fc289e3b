// internal/core/services/executor.go
package services

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/ammerola/stockmirror/internal/core/domain"
	"github.com/ammerola/stockmirror/internal/core/ports"
)

// QueryResult is the outcome of one remote list call. Err is non-nil exactly
// when the remote store could not answer, in which case Items is empty.
type QueryResult struct {
	Items      []domain.InventoryItem
	TotalCount int
	Err        error
}

// QueryExecutor runs a list query and reports failure as a value
type QueryExecutor interface {
	Fetch(ctx context.Context, params domain.ListParams) QueryResult
}

// RemoteQueryExecutor lists inventory from the remote store
type RemoteQueryExecutor struct {
	store  ports.RemoteStore
	logger *slog.Logger
}

var _ QueryExecutor = (*RemoteQueryExecutor)(nil)

// NewRemoteQueryExecutor creates a new executor over store
func NewRemoteQueryExecutor(store ports.RemoteStore, logger *slog.Logger) *RemoteQueryExecutor {
	return &RemoteQueryExecutor{
		store:  store,
		logger: logger.With(slog.String("service", "remote_query")),
	}
}

// Fetch queries one page. It never panics; transport errors, query errors
// and panics in the store all come back in QueryResult.Err.
func (e *RemoteQueryExecutor) Fetch(ctx context.Context, params domain.ListParams) (result QueryResult) {
	params = params.Normalize()

	defer func() {
		if r := recover(); r != nil {
			e.logger.ErrorContext(ctx, "remote query panicked", slog.Any("panic", r))
			result = QueryResult{Err: fmt.Errorf("remote query panicked: %v", r)}
		}
	}()

	rows, total, err := e.store.List(ctx, params)
	if err != nil {
		e.logger.WarnContext(ctx, "remote query failed",
			slog.String("error", err.Error()),
			slog.Int("page", params.Page))
		return QueryResult{Err: fmt.Errorf("failed to list remote inventory: %w", err)}
	}

	items := make([]domain.InventoryItem, len(rows))
	for i, row := range rows {
		items[i] = domain.ToCanonical(row)
	}

	return QueryResult{Items: items, TotalCount: total}
}
