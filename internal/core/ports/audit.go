// internal/core/ports/audit.go
package ports

import (
	"context"
	"time"

	"github.com/ammerola/stockmirror/internal/core/domain"
)

// AuditSink receives audit events from the emitter
type AuditSink interface {
	Record(ctx context.Context, event domain.AuditEvent) error
}

// AuditLogRepository persists audit events
type AuditLogRepository interface {
	Insert(ctx context.Context, event domain.AuditEvent) error
	DeleteOlderThan(ctx context.Context, before time.Time) (int64, error)
	ListByItem(ctx context.Context, itemID string, limit int) ([]domain.AuditEvent, error)
}
