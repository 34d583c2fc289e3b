// internal/handlers/import.go
package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/ammerola/stockmirror/internal/core/domain"
	"github.com/ammerola/stockmirror/internal/core/ports"
)

// IdempotencyKeyHeader lets a client retry an import without applying it twice
const IdempotencyKeyHeader = "Idempotency-Key"

// ImportHandler runs bulk imports and serves their recorded outcome
type ImportHandler struct {
	mutations ports.InventoryMutationService
	jobs      ports.ImportJobRepository
	logger    *slog.Logger
	maxRows   int
	now       func() time.Time
}

// NewImportHandler creates a new import handler. jobs may be nil, in which
// case outcomes are returned but not kept and idempotency keys are ignored.
func NewImportHandler(mutations ports.InventoryMutationService, jobs ports.ImportJobRepository, logger *slog.Logger, maxRows int) *ImportHandler {
	return &ImportHandler{
		mutations: mutations,
		jobs:      jobs,
		logger:    logger.With(slog.String("handler", "import")),
		maxRows:   maxRows,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// RegisterRoutes mounts the import endpoints on mux
func (h *ImportHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/v1/import", h.Import)
	mux.HandleFunc("GET /api/v1/import/{jobId}", h.GetImportJob)
}

// Import handles POST /api/v1/import
func (h *ImportHandler) Import(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req ImportRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, h.logger, http.StatusBadRequest, "Invalid request body")
		return
	}
	if len(req.Items) == 0 {
		respondError(w, h.logger, http.StatusBadRequest, "items are required")
		return
	}
	if h.maxRows > 0 && len(req.Items) > h.maxRows {
		respondError(w, h.logger, http.StatusRequestEntityTooLarge, "Too many rows in one import")
		return
	}

	job := domain.ImportJob{
		ID:             uuid.New().String(),
		IdempotencyKey: r.Header.Get(IdempotencyKeyHeader),
		Status:         domain.ImportRunning,
		StartedAt:      h.now(),
	}

	if job.IdempotencyKey != "" && h.jobs != nil {
		existingID, claimed, err := h.jobs.Claim(ctx, job.IdempotencyKey, job.ID)
		if err != nil {
			h.logger.ErrorContext(ctx, "failed to claim idempotency key",
				slog.String("error", err.Error()))
			respondError(w, h.logger, http.StatusServiceUnavailable, "Import could not be registered")
			return
		}
		if !claimed {
			h.replay(w, r, existingID)
			return
		}
	}

	h.save(ctx, job)

	rows := make([]domain.ImportItem, len(req.Items))
	for i, it := range req.Items {
		rows[i] = domain.ImportItem{Item: it.ToDomain(), Active: it.IsActive}
	}

	result, err := h.mutations.BulkImport(ctx, rows)
	job.Finish(result, err, h.now())
	h.save(ctx, job)

	h.logger.InfoContext(ctx, "import finished",
		slog.String("job_id", job.ID),
		slog.String("status", string(job.Status)),
		slog.Int("received", result.Received),
		slog.Int("skipped", result.Skipped))

	switch job.Status {
	case domain.ImportCompleted:
		respondJSON(w, h.logger, http.StatusCreated, job)
	case domain.ImportPartial:
		respondJSON(w, h.logger, http.StatusAccepted, job)
	default:
		respondJSON(w, h.logger, errorStatus(err), job)
	}
}

// GetImportJob handles GET /api/v1/import/{jobId}
func (h *ImportHandler) GetImportJob(w http.ResponseWriter, r *http.Request) {
	if h.jobs == nil {
		respondError(w, h.logger, http.StatusServiceUnavailable, "Import history is not available")
		return
	}

	job, err := h.jobs.Get(r.Context(), r.PathValue("jobId"))
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			respondError(w, h.logger, http.StatusNotFound, "Import job not found")
			return
		}
		h.logger.ErrorContext(r.Context(), "failed to load import job",
			slog.String("error", err.Error()))
		respondError(w, h.logger, http.StatusInternalServerError, "Failed to load import job")
		return
	}

	respondJSON(w, h.logger, http.StatusOK, job)
}

// replay answers a repeated idempotency key with the job it is bound to
func (h *ImportHandler) replay(w http.ResponseWriter, r *http.Request, jobID string) {
	w.Header().Set("Idempotent-Replayed", "true")

	job, err := h.jobs.Get(r.Context(), jobID)
	if err != nil {
		// the first request claimed the key but has not saved its job yet
		respondJSON(w, h.logger, http.StatusConflict, map[string]string{
			"error": "Import with this idempotency key is in progress",
			"jobId": jobID,
		})
		return
	}
	if job.Status == domain.ImportRunning {
		respondJSON(w, h.logger, http.StatusConflict, job)
		return
	}

	respondJSON(w, h.logger, http.StatusOK, job)
}

func (h *ImportHandler) save(ctx context.Context, job domain.ImportJob) {
	if h.jobs == nil {
		return
	}
	if err := h.jobs.Save(ctx, job); err != nil {
		h.logger.WarnContext(ctx, "failed to save import job",
			slog.String("job_id", job.ID),
			slog.String("error", err.Error()))
	}
}

// ImportRequest is the body of a bulk import
type ImportRequest struct {
	Items []ItemRequest `json:"items"`
}
