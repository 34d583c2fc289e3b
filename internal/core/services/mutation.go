// internal/core/services/mutation.go
package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/ammerola/stockmirror/internal/core/domain"
	"github.com/ammerola/stockmirror/internal/core/ports"
)

// DefaultImportBatchSize is the number of rows sent per remote upsert
const DefaultImportBatchSize = 50

// MutationOption configures a MutationService
type MutationOption func(*MutationService)

// WithClock replaces the clock used for timestamps
func WithClock(now func() time.Time) MutationOption {
	return func(s *MutationService) {
		s.now = now
	}
}

// WithImportBatchSize sets the remote upsert batch size
func WithImportBatchSize(n int) MutationOption {
	return func(s *MutationService) {
		if n > 0 {
			s.batchSize = n
		}
	}
}

// MutationService applies writes to the remote store first and the mirror
// second. A remote failure never loses the write: the mirror keeps it and the
// caller gets a *domain.MutationError.
type MutationService struct {
	remote    ports.RemoteStore
	mirror    ports.MirrorStore
	refresher Refresher
	audit     AuditPublisher
	logger    *slog.Logger
	now       func() time.Time
	batchSize int
}

var _ ports.InventoryMutationService = (*MutationService)(nil)

// NewMutationService creates a new mutation service
func NewMutationService(
	remote ports.RemoteStore,
	mirror ports.MirrorStore,
	refresher Refresher,
	audit AuditPublisher,
	logger *slog.Logger,
	opts ...MutationOption,
) *MutationService {
	s := &MutationService{
		remote:    remote,
		mirror:    mirror,
		refresher: refresher,
		audit:     audit,
		logger:    logger.With(slog.String("service", "inventory_mutation")),
		now:       func() time.Time { return time.Now().UTC() },
		batchSize: DefaultImportBatchSize,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Create stores a new item. The remote store assigns the id; when it cannot,
// the item is kept in the mirror under a local id.
func (s *MutationService) Create(ctx context.Context, item domain.InventoryItem) (domain.InventoryItem, error) {
	item = item.Clone()
	item.ID = ""
	item.RecomputeStock()
	item.ApplyDefaults(s.now())

	if err := item.Validate(); err != nil {
		return domain.InventoryItem{}, fmt.Errorf("failed to create item: %w", err)
	}

	s.emit(ctx, domain.OpCreate, domain.StageAttempt, item, map[string]any{"sku": item.SKU})

	var stored domain.InventoryRow
	err := guard(func() (err error) {
		stored, err = s.remote.Insert(ctx, domain.ToRow(item))
		return err
	})
	if err != nil {
		local := s.mirror.Prepend(item)
		s.fallback(ctx, domain.OpCreate, local, err)
		s.refresh(ctx)
		return local, &domain.MutationError{Op: domain.OpCreate, ItemID: local.ID, Err: err}
	}

	created := s.mirror.Prepend(domain.ToCanonical(stored))
	s.emit(ctx, domain.OpCreate, domain.StageCompleted, created, nil)
	s.logger.InfoContext(ctx, "inventory item created",
		slog.String("item_id", created.ID),
		slog.String("sku", created.SKU))

	s.refresh(ctx)
	return created, nil
}

// Update replaces the item with id. Items with a local id only exist in the
// mirror and never reach the remote store.
func (s *MutationService) Update(ctx context.Context, id string, item domain.InventoryItem) (domain.InventoryItem, error) {
	existing, inMirror := s.mirror.FindByID(id)
	remote := domain.IsRemoteID(id)

	if !inMirror && !remote {
		s.emit(ctx, domain.OpUpdate, domain.StageNotFound, domain.InventoryItem{ID: id, Name: item.Name}, nil)
		return domain.InventoryItem{}, fmt.Errorf("failed to update item %s: %w", id, domain.ErrNotFound)
	}

	item = item.Clone()
	item.ID = id
	if inMirror && item.DateAdded.IsZero() {
		item.DateAdded = existing.DateAdded
	}
	item.RecomputeStock()
	item.Touch(s.now())

	if err := item.Validate(); err != nil {
		return domain.InventoryItem{}, fmt.Errorf("failed to update item %s: %w", id, err)
	}

	s.emit(ctx, domain.OpUpdate, domain.StageAttempt, item, nil)

	if !remote {
		s.storeLocal(item, inMirror)
		s.emit(ctx, domain.OpUpdate, domain.StageCompleted, item, map[string]any{"local_only": true})
		s.refresh(ctx)
		return item, nil
	}

	var stored domain.InventoryRow
	err := guard(func() (err error) {
		stored, err = s.remote.Update(ctx, domain.ToRow(item))
		return err
	})
	if err != nil {
		s.storeLocal(item, inMirror)
		s.fallback(ctx, domain.OpUpdate, item, err)
		s.refresh(ctx)
		return item, &domain.MutationError{Op: domain.OpUpdate, ItemID: id, Err: err}
	}

	updated := domain.ToCanonical(stored)
	s.storeLocal(updated, inMirror)
	s.emit(ctx, domain.OpUpdate, domain.StageCompleted, updated, nil)

	s.refresh(ctx)
	return updated, nil
}

// Delete removes the item with id. The mirror copy goes even when the remote
// delete fails.
func (s *MutationService) Delete(ctx context.Context, id string) error {
	existing, ok := s.mirror.FindByID(id)
	if !ok {
		s.emit(ctx, domain.OpDelete, domain.StageNotFound, domain.InventoryItem{ID: id}, nil)
		return fmt.Errorf("failed to delete item %s: %w", id, domain.ErrNotFound)
	}

	s.emit(ctx, domain.OpDelete, domain.StageAttempt, existing, nil)

	if !domain.IsRemoteID(id) {
		s.mirror.Delete(id)
		s.emit(ctx, domain.OpDelete, domain.StageCompleted, existing, map[string]any{"local_only": true})
		s.refresh(ctx)
		return nil
	}

	err := guard(func() error {
		return s.remote.Delete(ctx, id)
	})
	s.mirror.Delete(id)

	if err != nil {
		s.fallback(ctx, domain.OpDelete, existing, err)
		s.refresh(ctx)
		return &domain.MutationError{Op: domain.OpDelete, ItemID: id, Err: err}
	}

	s.emit(ctx, domain.OpDelete, domain.StageCompleted, existing, nil)
	s.refresh(ctx)
	return nil
}

// ReorderStock adds quantity units to the item. A quantity of zero or less
// replenishes by max(minStockCount, 2*lowStockThreshold).
func (s *MutationService) ReorderStock(ctx context.Context, id string, quantity int) (domain.InventoryItem, error) {
	item, ok := s.mirror.FindByID(id)
	if !ok {
		s.emit(ctx, domain.OpReorderStock, domain.StageNotFound, domain.InventoryItem{ID: id}, nil)
		return domain.InventoryItem{}, fmt.Errorf("failed to reorder stock for %s: %w", id, domain.ErrNotFound)
	}

	qty := item.ReplenishmentQuantity(quantity)
	item.AddStock(qty)

	s.emit(ctx, domain.OpReorderStock, domain.StageAttempt, item, map[string]any{"quantity": qty})
	return s.Update(ctx, id, item)
}

// Discontinue marks the item inactive. It never deletes.
func (s *MutationService) Discontinue(ctx context.Context, id string) (domain.InventoryItem, error) {
	item, ok := s.mirror.FindByID(id)
	if !ok {
		s.emit(ctx, domain.OpUpdate, domain.StageNotFound, domain.InventoryItem{ID: id}, nil)
		return domain.InventoryItem{}, fmt.Errorf("failed to discontinue %s: %w", id, domain.ErrNotFound)
	}

	item.IsActive = false
	return s.Update(ctx, id, item)
}

// StockBreakdown aggregates the current mirror members of sku
func (s *MutationService) StockBreakdown(sku string) domain.StockBreakdown {
	return domain.AggregateBySKU(s.mirror.FindBySKU(sku), sku)
}

// SetLocationStock sets the unit count of sku at location and returns the
// recomputed breakdown.
func (s *MutationService) SetLocationStock(ctx context.Context, sku, location string, count int) (domain.StockBreakdown, error) {
	if location == "" {
		return domain.StockBreakdown{}, fmt.Errorf("%w: location is required", domain.ErrInvalidItem)
	}
	if count < 0 {
		return domain.StockBreakdown{}, fmt.Errorf("%w: stock at %s cannot be negative", domain.ErrInvalidItem, location)
	}

	members := s.mirror.FindBySKU(sku)
	if len(members) == 0 {
		return domain.StockBreakdown{}, fmt.Errorf("failed to set stock for %s: %w", sku, domain.ErrNotFound)
	}

	target := locationHolder(members, location)
	item := members[target]
	switch {
	case len(item.Locations) > 0:
		item.SetLocationStock(location, count)
	case item.Location == location:
		item.Stock = count
	default:
		// single-location record gains a breakdown
		item.Locations = []domain.LocationStock{{Name: item.Location, Stock: item.Stock}}
		item.SetLocationStock(location, count)
	}

	_, err := s.Update(ctx, item.ID, item)
	if err != nil && !domain.IsPartialSuccess(err) {
		return domain.StockBreakdown{}, err
	}
	return s.StockBreakdown(sku), err
}

// CompleteTransfer moves units of the transferred sku between two locations
// as a decrement at the source followed by an increment at the destination.
func (s *MutationService) CompleteTransfer(ctx context.Context, transfer domain.TransferRecord) (domain.StockBreakdown, error) {
	if transfer.ReferenceNumber == "" {
		transfer.ReferenceNumber = domain.NewTransferReference(s.now())
	}
	details := map[string]any{
		"reference": transfer.ReferenceNumber,
		"from":      transfer.FromLocation,
		"to":        transfer.ToLocation,
		"quantity":  transfer.Quantity,
	}

	sku := transfer.Item.SKU
	members := s.mirror.FindBySKU(sku)
	if len(members) > 0 {
		// validate against the current record rather than the caller's copy
		transfer.Item = members[locationHolder(members, transfer.FromLocation)]
	}

	if err := transfer.Validate(); err != nil {
		return domain.StockBreakdown{}, err
	}
	if len(members) == 0 {
		s.emit(ctx, domain.OpTransfer, domain.StageNotFound, transfer.Item, details)
		return domain.StockBreakdown{}, fmt.Errorf("failed to transfer %s: %w", sku, domain.ErrNotFound)
	}

	available := holderUnits(members, transfer.FromLocation)

	s.emit(ctx, domain.OpTransfer, domain.StageAttempt, transfer.Item, details)

	var partial error
	_, err := s.SetLocationStock(ctx, sku, transfer.FromLocation, available-transfer.Quantity)
	if err != nil && !domain.IsPartialSuccess(err) {
		s.emit(ctx, domain.OpTransfer, domain.StageFailed, transfer.Item, withError(details, err))
		return domain.StockBreakdown{}, fmt.Errorf("failed to transfer %s: %w", sku, err)
	}
	partial = errors.Join(partial, err)

	destination := holderUnits(s.mirror.FindBySKU(sku), transfer.ToLocation)
	breakdown, err := s.SetLocationStock(ctx, sku, transfer.ToLocation, destination+transfer.Quantity)
	if err != nil && !domain.IsPartialSuccess(err) {
		s.emit(ctx, domain.OpTransfer, domain.StageFailed, transfer.Item, withError(details, err))
		return domain.StockBreakdown{}, fmt.Errorf("failed to transfer %s: %w", sku, err)
	}
	partial = errors.Join(partial, err)

	if partial != nil {
		s.emit(ctx, domain.OpTransfer, domain.StageLocalFallback, transfer.Item, withError(details, partial))
		return breakdown, partial
	}

	s.emit(ctx, domain.OpTransfer, domain.StageCompleted, transfer.Item, details)
	s.logger.InfoContext(ctx, "stock transferred",
		slog.String("reference", transfer.ReferenceNumber),
		slog.String("sku", sku),
		slog.Int("quantity", transfer.Quantity))
	return breakdown, nil
}

// BulkImport reconciles rows with the catalog by sku. Every valid row is
// applied to the mirror; rows go to the remote store in batches and a failed
// batch does not stop the rest. Defaults fill only rows for new skus; rows for
// known skus are taken as given and keep the stored active status unless
// they set one.
func (s *MutationService) BulkImport(ctx context.Context, rows []domain.ImportItem) (domain.ImportResult, error) {
	result := domain.ImportResult{Received: len(rows)}
	now := s.now()

	valid := make([]domain.InventoryItem, 0, len(rows))
	position := make(map[string]int, len(rows))
	for i, row := range rows {
		item := s.importItem(row, now)
		if err := item.Validate(); err != nil {
			result.Skipped++
			result.Errors = append(result.Errors, fmt.Sprintf("row %d: %v", i+1, err))
			continue
		}
		if idx, seen := position[item.SKU]; seen {
			// a later row for the same sku wins
			valid[idx] = item
			result.Skipped++
			continue
		}
		position[item.SKU] = len(valid)
		valid = append(valid, item)
	}

	if len(valid) == 0 {
		return result, nil
	}

	s.emit(ctx, domain.OpImport, domain.StageAttempt, domain.InventoryItem{}, map[string]any{
		"received": result.Received,
		"valid":    len(valid),
	})

	var remoteErr error
	for start := 0; start < len(valid); start += s.batchSize {
		batch := valid[start:min(start+s.batchSize, len(valid))]
		rows := make([]domain.InventoryRow, len(batch))
		for i, item := range batch {
			rows[i] = domain.ToRow(item)
		}

		result.RemoteBatches++
		err := guard(func() error {
			return s.remote.UpsertBySKU(ctx, rows)
		})
		if err != nil {
			result.FailedBatches++
			result.Errors = append(result.Errors, fmt.Sprintf("batch %d: %v", result.RemoteBatches, err))
			remoteErr = errors.Join(remoteErr, err)
			s.logger.WarnContext(ctx, "import batch failed",
				slog.String("error", err.Error()),
				slog.Int("batch", result.RemoteBatches),
				slog.Int("rows", len(rows)))
		}
	}

	result.Inserted, result.Updated = s.mirror.UpsertBySKU(valid)

	summary := map[string]any{
		"inserted":       result.Inserted,
		"updated":        result.Updated,
		"skipped":        result.Skipped,
		"failed_batches": result.FailedBatches,
	}

	if remoteErr != nil {
		s.fallback(ctx, domain.OpImport, domain.InventoryItem{}, remoteErr)
		s.refresh(ctx)
		return result, &domain.MutationError{Op: domain.OpImport, Err: remoteErr}
	}

	s.emit(ctx, domain.OpImport, domain.StageCompleted, domain.InventoryItem{}, summary)
	s.logger.InfoContext(ctx, "import completed",
		slog.Int("inserted", result.Inserted),
		slog.Int("updated", result.Updated),
		slog.Int("skipped", result.Skipped))

	s.refresh(ctx)
	return result, nil
}

// importItem prepares one import row against the current mirror record
// for its sku.
func (s *MutationService) importItem(row domain.ImportItem, now time.Time) domain.InventoryItem {
	item := row.Item.Clone()
	item.RecomputeStock()

	if existing := s.mirror.FindBySKU(item.SKU); item.SKU != "" && len(existing) > 0 {
		if item.DateAdded.IsZero() {
			item.DateAdded = existing[0].DateAdded
		}
		item.Touch(now)
		item.IsActive = existing[0].IsActive
	} else {
		item.ApplyDefaults(now)
		item.IsActive = true
	}

	if row.Active != nil {
		item.IsActive = *row.Active
	}
	return item
}

func (s *MutationService) storeLocal(item domain.InventoryItem, inMirror bool) {
	if inMirror && s.mirror.Update(item) {
		return
	}
	s.mirror.Prepend(item)
}

func (s *MutationService) fallback(ctx context.Context, op domain.MutationOp, item domain.InventoryItem, err error) {
	s.logger.WarnContext(ctx, "remote write failed, kept locally",
		slog.String("op", string(op)),
		slog.String("item_id", item.ID),
		slog.String("error", err.Error()))
	s.emit(ctx, op, domain.StageRemoteFailed, item, map[string]any{"error": err.Error()})
	s.emit(ctx, op, domain.StageLocalFallback, item, nil)
}

func (s *MutationService) emit(ctx context.Context, op domain.MutationOp, stage domain.AuditStage, item domain.InventoryItem, details map[string]any) {
	if s.audit == nil {
		return
	}
	s.audit.Emit(ctx, domain.NewAuditEvent(op, stage, item, details))
}

func (s *MutationService) refresh(ctx context.Context) {
	if s.refresher != nil {
		s.refresher.Refresh(ctx)
	}
}

// guard runs fn and turns a panic into an error
func guard(fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("remote store panicked: %v", r)
		}
	}()
	return fn()
}

// locationHolder picks the member that should carry the count for location:
// one already tracking it, else one with a breakdown, else the first.
func locationHolder(members []domain.InventoryItem, location string) int {
	for i, m := range members {
		if _, ok := m.LocationCount(location); ok {
			return i
		}
	}
	for i, m := range members {
		if len(m.Locations) == 0 && m.Location == location {
			return i
		}
	}
	for i, m := range members {
		if len(m.Locations) > 0 {
			return i
		}
	}
	return 0
}

// holderUnits returns the units at location on the member that carries it
func holderUnits(members []domain.InventoryItem, location string) int {
	if len(members) == 0 {
		return 0
	}
	m := members[locationHolder(members, location)]
	if n, ok := m.LocationCount(location); ok {
		return n
	}
	if len(m.Locations) == 0 && m.Location == location {
		return m.Stock
	}
	return 0
}

func withError(details map[string]any, err error) map[string]any {
	out := make(map[string]any, len(details)+1)
	for k, v := range details {
		out[k] = v
	}
	out["error"] = err.Error()
	return out
}
