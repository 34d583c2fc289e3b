// internal/workers/cleanup_processor.go
package workers

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"

	"github.com/ammerola/stockmirror/internal/core/ports"
	"github.com/ammerola/stockmirror/internal/pkg/logger"
)

// CleanupProcessor handles cleanup tasks
type CleanupProcessor struct {
	repo      ports.AuditLogRepository
	retention time.Duration
	now       func() time.Time
	logger    *slog.Logger
}

// NewCleanupProcessor creates a new cleanup processor
func NewCleanupProcessor(repo ports.AuditLogRepository, retention time.Duration, logger *slog.Logger) *CleanupProcessor {
	return &CleanupProcessor{
		repo:      repo,
		retention: retention,
		now:       func() time.Time { return time.Now().UTC() },
		logger:    logger.With(slog.String("processor", "cleanup")),
	}
}

// PruneAuditLog removes audit rows older than the retention window
func (p *CleanupProcessor) PruneAuditLog(ctx context.Context, t *asynq.Task) error {
	ctx = logger.WithValue(ctx, logger.ContextKeyTaskType, t.Type())

	var payload AuditPrunePayload
	if len(t.Payload()) > 0 {
		if err := json.Unmarshal(t.Payload(), &payload); err != nil {
			return fmt.Errorf("failed to unmarshal prune payload: %v: %w", err, asynq.SkipRetry)
		}
	}

	retention := p.retention
	if payload.Retention > 0 {
		retention = payload.Retention
	}
	if retention <= 0 {
		p.logger.InfoContext(ctx, "audit retention disabled, nothing to prune")
		return nil
	}

	cutoff := p.now().Add(-retention)
	deleted, err := p.repo.DeleteOlderThan(ctx, cutoff)
	if err != nil {
		return fmt.Errorf("failed to prune audit log: %w", err)
	}

	p.logger.InfoContext(ctx, "audit log pruned",
		slog.Time("cutoff", cutoff),
		slog.Int64("rows_deleted", deleted))
	return nil
}
