// internal/workers/audit_enqueuer.go
package workers

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/hibiken/asynq"

	"github.com/ammerola/stockmirror/internal/core/domain"
	"github.com/ammerola/stockmirror/internal/core/ports"
)

// TaskEnqueuer is the subset of *asynq.Client used to publish tasks
type TaskEnqueuer interface {
	EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
}

// AuditEnqueuer hands audit events to the worker for persistence
type AuditEnqueuer struct {
	client   TaskEnqueuer
	maxRetry int
	logger   *slog.Logger
}

var _ ports.AuditSink = (*AuditEnqueuer)(nil)

// NewAuditEnqueuer creates a sink publishing to client
func NewAuditEnqueuer(client TaskEnqueuer, maxRetry int, logger *slog.Logger) *AuditEnqueuer {
	return &AuditEnqueuer{
		client:   client,
		maxRetry: maxRetry,
		logger:   logger.With(slog.String("component", "audit_enqueuer")),
	}
}

// Record enqueues event. The event id doubles as the task id so a repeated
// event is stored once.
func (e *AuditEnqueuer) Record(ctx context.Context, event domain.AuditEvent) error {
	task, err := NewAuditRecordTask(event)
	if err != nil {
		return err
	}

	info, err := e.client.EnqueueContext(ctx, task,
		asynq.Queue(QueueAudit),
		asynq.MaxRetry(e.maxRetry),
		asynq.TaskID(event.ID.String()),
	)
	if err != nil {
		if errors.Is(err, asynq.ErrTaskIDConflict) {
			return nil
		}
		return fmt.Errorf("failed to enqueue audit event: %w", err)
	}

	e.logger.DebugContext(ctx, "audit event enqueued",
		slog.String("task_id", info.ID),
		slog.String("action", string(event.Action)),
		slog.String("stage", string(event.Stage)))
	return nil
}
