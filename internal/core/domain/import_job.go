// internal/core/domain/import_job.go
package domain

import "time"

// ImportStatus is the lifecycle state of a bulk import
type ImportStatus string

const (
	ImportRunning   ImportStatus = "running"
	ImportCompleted ImportStatus = "completed"
	// ImportPartial means every row is in the mirror but some remote batches failed
	ImportPartial ImportStatus = "partial"
	ImportFailed  ImportStatus = "failed"
)

// ImportItem is one row of a bulk import. A nil Active means the row did
// not say: an existing sku keeps its status and a new one starts active.
type ImportItem struct {
	Item   InventoryItem
	Active *bool
}

// ImportJob records the outcome of one bulk import request
type ImportJob struct {
	ID             string       `json:"id"`
	IdempotencyKey string       `json:"idempotencyKey,omitempty"`
	Status         ImportStatus `json:"status"`
	Result         ImportResult `json:"result"`
	Error          string       `json:"error,omitempty"`
	StartedAt      time.Time    `json:"startedAt"`
	FinishedAt     *time.Time   `json:"finishedAt,omitempty"`
}

// Finish sets the terminal status from the import outcome
func (j *ImportJob) Finish(result ImportResult, err error, now time.Time) {
	j.Result = result
	j.FinishedAt = &now
	switch {
	case err == nil:
		j.Status = ImportCompleted
	case IsPartialSuccess(err):
		j.Status = ImportPartial
		j.Error = err.Error()
	default:
		j.Status = ImportFailed
		j.Error = err.Error()
	}
}
