// internal/adapters/db/audit_log_repository.go
package db

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/Masterminds/squirrel"

	"github.com/ammerola/stockmirror/internal/core/domain"
	"github.com/ammerola/stockmirror/internal/core/ports"
)

const auditLogTable = "inventory_audit_log"

// AuditLogRepository persists audit events through database/sql so it can
// run on a pgx stdlib handle in production and on sqlmock in tests.
type AuditLogRepository struct {
	db     *sql.DB
	logger *slog.Logger
}

var _ ports.AuditLogRepository = (*AuditLogRepository)(nil)

// NewAuditLogRepository creates a new audit log repository
func NewAuditLogRepository(db *sql.DB, logger *slog.Logger) *AuditLogRepository {
	return &AuditLogRepository{
		db:     db,
		logger: logger.With(slog.String("repository", "audit_log")),
	}
}

// Insert appends one event. Replayed events with a known id are ignored.
func (r *AuditLogRepository) Insert(ctx context.Context, event domain.AuditEvent) error {
	details := event.Details
	if details == nil {
		details = map[string]any{}
	}
	payload, err := json.Marshal(details)
	if err != nil {
		return fmt.Errorf("failed to marshal audit details: %w", err)
	}

	_, err = squirrel.Insert(auditLogTable).
		Columns("id", "action", "stage", "item_id", "item_name", "details", "occurred_at").
		Values(event.ID.String(), string(event.Action), string(event.Stage),
			event.ItemID, event.ItemName, string(payload), event.OccurredAt).
		Suffix("ON CONFLICT (id) DO NOTHING").
		PlaceholderFormat(squirrel.Dollar).
		RunWith(r.db).
		ExecContext(ctx)
	if err != nil {
		return fmt.Errorf("failed to insert audit event: %w", err)
	}

	return nil
}

// DeleteOlderThan prunes events that occurred before the cutoff
func (r *AuditLogRepository) DeleteOlderThan(ctx context.Context, before time.Time) (int64, error) {
	res, err := squirrel.Delete(auditLogTable).
		Where(squirrel.Lt{"occurred_at": before}).
		PlaceholderFormat(squirrel.Dollar).
		RunWith(r.db).
		ExecContext(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to prune audit log: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to read pruned row count: %w", err)
	}

	r.logger.InfoContext(ctx, "audit log pruned",
		slog.Int64("deleted", n),
		slog.Time("before", before))

	return n, nil
}

// ListByItem returns the most recent events for one item, newest first
func (r *AuditLogRepository) ListByItem(ctx context.Context, itemID string, limit int) ([]domain.AuditEvent, error) {
	if limit <= 0 {
		limit = 50
	}

	rows, err := squirrel.Select("id", "action", "stage", "item_id", "item_name", "details", "occurred_at").
		From(auditLogTable).
		Where(squirrel.Eq{"item_id": itemID}).
		OrderBy("occurred_at DESC").
		Limit(uint64(limit)).
		PlaceholderFormat(squirrel.Dollar).
		RunWith(r.db).
		QueryContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to query audit log: %w", err)
	}
	defer rows.Close()

	events := make([]domain.AuditEvent, 0)
	for rows.Next() {
		var (
			event    domain.AuditEvent
			id       string
			action   string
			stage    string
			itemID   sql.NullString
			itemName sql.NullString
			details  []byte
		)
		if err := rows.Scan(&id, &action, &stage, &itemID, &itemName, &details, &event.OccurredAt); err != nil {
			return nil, fmt.Errorf("failed to scan audit event: %w", err)
		}
		if err := event.ID.UnmarshalText([]byte(id)); err != nil {
			return nil, fmt.Errorf("invalid audit event id %q: %w", id, err)
		}
		event.Action = domain.MutationOp(action)
		event.Stage = domain.AuditStage(stage)
		event.ItemID = itemID.String
		event.ItemName = itemName.String
		if len(details) > 0 {
			if err := json.Unmarshal(details, &event.Details); err != nil {
				return nil, fmt.Errorf("failed to decode audit details: %w", err)
			}
		}
		events = append(events, event)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating audit rows: %w", err)
	}

	return events, nil
}
