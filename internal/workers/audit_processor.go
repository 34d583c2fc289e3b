// internal/workers/audit_processor.go
package workers

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/hibiken/asynq"

	"github.com/ammerola/stockmirror/internal/core/domain"
	"github.com/ammerola/stockmirror/internal/core/ports"
	"github.com/ammerola/stockmirror/internal/pkg/logger"
)

// AuditProcessor persists audit events delivered by the queue
type AuditProcessor struct {
	repo   ports.AuditLogRepository
	logger *slog.Logger
}

// NewAuditProcessor creates a new audit processor
func NewAuditProcessor(repo ports.AuditLogRepository, logger *slog.Logger) *AuditProcessor {
	return &AuditProcessor{
		repo:   repo,
		logger: logger.With(slog.String("processor", "audit")),
	}
}

// ProcessRecord stores one audit event
func (p *AuditProcessor) ProcessRecord(ctx context.Context, t *asynq.Task) error {
	ctx = logger.WithValue(ctx, logger.ContextKeyTaskType, t.Type())

	var event domain.AuditEvent
	if err := json.Unmarshal(t.Payload(), &event); err != nil {
		return fmt.Errorf("failed to unmarshal audit event: %v: %w", err, asynq.SkipRetry)
	}

	if err := p.repo.Insert(ctx, event); err != nil {
		return fmt.Errorf("failed to store audit event %s: %w", event.ID, err)
	}

	p.logger.DebugContext(ctx, "audit event stored",
		slog.String("event_id", event.ID.String()),
		slog.String("item_id", event.ItemID))
	return nil
}
