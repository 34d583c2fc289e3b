// internal/core/ports/import_jobs.go
package ports

import (
	"context"

	"github.com/ammerola/stockmirror/internal/core/domain"
)

// ImportJobRepository keeps import outcomes for later lookup
type ImportJobRepository interface {
	// Claim binds an idempotency key to jobID. When the key is already bound
	// it returns the existing job id and false.
	Claim(ctx context.Context, idempotencyKey, jobID string) (string, bool, error)
	Save(ctx context.Context, job domain.ImportJob) error
	Get(ctx context.Context, jobID string) (domain.ImportJob, error)
}
