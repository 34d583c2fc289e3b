// internal/core/domain/audit.go
package domain

import (
	"time"

	"github.com/google/uuid"
)

// AuditStage is the point in a mutation's life an event describes
type AuditStage string

const (
	StageAttempt       AuditStage = "attempt"
	StageCompleted     AuditStage = "completed"
	StageRemoteFailed  AuditStage = "remote_failed"
	StageLocalFallback AuditStage = "local_fallback"
	StageNotFound      AuditStage = "not_found"
	StageFailed        AuditStage = "failed"
)

// AuditEvent is one append-only record of a mutation attempt or outcome
type AuditEvent struct {
	ID         uuid.UUID      `json:"id"`
	Action     MutationOp     `json:"action"`
	Stage      AuditStage     `json:"stage"`
	ItemID     string         `json:"itemId,omitempty"`
	ItemName   string         `json:"itemName,omitempty"`
	Details    map[string]any `json:"details,omitempty"`
	OccurredAt time.Time      `json:"occurredAt"`
}

// NewAuditEvent stamps a fresh event
func NewAuditEvent(action MutationOp, stage AuditStage, item InventoryItem, details map[string]any) AuditEvent {
	return AuditEvent{
		ID:         uuid.New(),
		Action:     action,
		Stage:      stage,
		ItemID:     item.ID,
		ItemName:   item.Name,
		Details:    details,
		OccurredAt: time.Now().UTC(),
	}
}
