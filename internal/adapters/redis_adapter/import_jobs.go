// internal/adapters/redis_adapter/import_jobs.go
package redis_a

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ammerola/stockmirror/internal/core/domain"
	"github.com/ammerola/stockmirror/internal/core/ports"
)

// ImportJobStore keeps import outcomes and idempotency keys in the cache
type ImportJobStore struct {
	cache ports.CacheRepository
	ttl   time.Duration
}

var _ ports.ImportJobRepository = (*ImportJobStore)(nil)

// NewImportJobStore creates a store whose entries expire after ttl
func NewImportJobStore(cache ports.CacheRepository, ttl time.Duration) *ImportJobStore {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &ImportJobStore{cache: cache, ttl: ttl}
}

// Claim binds idempotencyKey to jobID unless another job already holds it
func (s *ImportJobStore) Claim(ctx context.Context, idempotencyKey, jobID string) (string, bool, error) {
	key := BuildKey(PrefixIdempotency, idempotencyKey)

	ok, err := s.cache.SetNX(ctx, key, jobID, s.ttl)
	if err != nil {
		return "", false, fmt.Errorf("failed to claim idempotency key: %w", err)
	}
	if ok {
		return jobID, true, nil
	}

	var existing string
	if err := s.cache.Get(ctx, key, &existing); err != nil {
		return "", false, fmt.Errorf("failed to read idempotency key: %w", err)
	}
	return existing, false, nil
}

// Save stores job under its id
func (s *ImportJobStore) Save(ctx context.Context, job domain.ImportJob) error {
	if err := s.cache.SetWithTTL(ctx, BuildKey(PrefixImportJob, job.ID), job, s.ttl); err != nil {
		return fmt.Errorf("failed to save import job %s: %w", job.ID, err)
	}
	return nil
}

// Get loads the job with jobID
func (s *ImportJobStore) Get(ctx context.Context, jobID string) (domain.ImportJob, error) {
	var job domain.ImportJob
	if err := s.cache.Get(ctx, BuildKey(PrefixImportJob, jobID), &job); err != nil {
		if errors.Is(err, ErrCacheMiss) {
			return domain.ImportJob{}, fmt.Errorf("import job %s: %w", jobID, domain.ErrNotFound)
		}
		return domain.ImportJob{}, fmt.Errorf("failed to load import job %s: %w", jobID, err)
	}
	return job, nil
}
