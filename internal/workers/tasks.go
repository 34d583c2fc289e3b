// internal/workers/tasks.go
package workers

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/hibiken/asynq"

	"github.com/ammerola/stockmirror/internal/core/domain"
)

const (
	TypeAuditRecord = "audit:record"
	TypeAuditPrune  = "audit:prune"
)

// QueueAudit carries audit traffic below request-path work
const QueueAudit = "low"

// AuditPrunePayload is the payload of an audit:prune task. A zero Retention
// means the processor's configured retention.
type AuditPrunePayload struct {
	Retention time.Duration `json:"retention,omitempty"`
}

// NewAuditRecordTask wraps event in an audit:record task
func NewAuditRecordTask(event domain.AuditEvent) (*asynq.Task, error) {
	payload, err := json.Marshal(event)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal audit event: %w", err)
	}
	return asynq.NewTask(TypeAuditRecord, payload), nil
}

// NewAuditPruneTask creates an audit:prune task
func NewAuditPruneTask(retention time.Duration) (*asynq.Task, error) {
	payload, err := json.Marshal(AuditPrunePayload{Retention: retention})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal prune payload: %w", err)
	}
	return asynq.NewTask(TypeAuditPrune, payload), nil
}
