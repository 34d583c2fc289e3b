// internal/handlers/inventory.go
package handlers

import (
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/ammerola/stockmirror/internal/core/domain"
	"github.com/ammerola/stockmirror/internal/core/ports"
)

const (
	defaultAuditLimit = 50
	maxAuditLimit     = 500
)

// InventoryHandler handles inventory-related HTTP requests
type InventoryHandler struct {
	query       ports.InventoryQueryService
	mutations   ports.InventoryMutationService
	audit       ports.AuditLogRepository
	logger      *slog.Logger
	pageSize    int
	maxPageSize int
}

// InventoryHandlerOption configures an InventoryHandler
type InventoryHandlerOption func(*InventoryHandler)

// WithPageLimits sets the page size used when a request names none and the
// largest page a request may ask for.
func WithPageLimits(pageSize, maxPageSize int) InventoryHandlerOption {
	return func(h *InventoryHandler) {
		if pageSize > 0 {
			h.pageSize = pageSize
		}
		if maxPageSize > 0 {
			h.maxPageSize = maxPageSize
		}
	}
}

// NewInventoryHandler creates a new inventory handler. audit may be nil when
// no audit log is configured.
func NewInventoryHandler(
	query ports.InventoryQueryService,
	mutations ports.InventoryMutationService,
	audit ports.AuditLogRepository,
	logger *slog.Logger,
	opts ...InventoryHandlerOption,
) *InventoryHandler {
	h := &InventoryHandler{
		query:       query,
		mutations:   mutations,
		audit:       audit,
		logger:      logger.With(slog.String("handler", "inventory")),
		pageSize:    domain.DefaultPageSize,
		maxPageSize: domain.MaxPageSize,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// RegisterRoutes mounts the inventory endpoints on mux
func (h *InventoryHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/v1/inventory", h.ListInventory)
	mux.HandleFunc("POST /api/v1/inventory", h.CreateInventory)
	mux.HandleFunc("POST /api/v1/inventory/refresh", h.RefreshInventory)
	mux.HandleFunc("POST /api/v1/inventory/move", h.MoveItem)
	mux.HandleFunc("PUT /api/v1/inventory/{id}", h.UpdateInventory)
	mux.HandleFunc("DELETE /api/v1/inventory/{id}", h.DeleteInventory)
	mux.HandleFunc("POST /api/v1/inventory/{id}/reorder-stock", h.ReorderStock)
	mux.HandleFunc("POST /api/v1/inventory/{id}/discontinue", h.Discontinue)
	mux.HandleFunc("GET /api/v1/inventory/{id}/audit", h.AuditTrail)
}

// ListInventory handles GET /api/v1/inventory
func (h *InventoryHandler) ListInventory(w http.ResponseWriter, r *http.Request) {
	page := h.query.Fetch(r.Context(), h.parseListParams(r))
	respondJSON(w, h.logger, http.StatusOK, page)
}

// RefreshInventory handles POST /api/v1/inventory/refresh
func (h *InventoryHandler) RefreshInventory(w http.ResponseWriter, r *http.Request) {
	page := h.query.Refresh(r.Context())
	respondJSON(w, h.logger, http.StatusOK, page)
}

// MoveItem handles POST /api/v1/inventory/move
func (h *InventoryHandler) MoveItem(w http.ResponseWriter, r *http.Request) {
	var req MoveRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, h.logger, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.Direction != domain.MoveUp && req.Direction != domain.MoveDown {
		respondError(w, h.logger, http.StatusBadRequest, "direction must be up or down")
		return
	}

	page, ok := h.query.Reorder(req.Index, req.Direction)
	if !ok {
		respondError(w, h.logger, http.StatusConflict, "Item cannot be moved")
		return
	}

	respondJSON(w, h.logger, http.StatusOK, page)
}

// CreateInventory handles POST /api/v1/inventory
func (h *InventoryHandler) CreateInventory(w http.ResponseWriter, r *http.Request) {
	var req ItemRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, h.logger, http.StatusBadRequest, "Invalid request body")
		return
	}

	item, err := h.mutations.Create(r.Context(), req.ToDomain())
	respondMutation(w, r, h.logger, http.StatusCreated, item, err)
}

// UpdateInventory handles PUT /api/v1/inventory/{id}
func (h *InventoryHandler) UpdateInventory(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	var req ItemRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, h.logger, http.StatusBadRequest, "Invalid request body")
		return
	}

	item, err := h.mutations.Update(r.Context(), id, req.ToDomain())
	respondMutation(w, r, h.logger, http.StatusOK, item, err)
}

// DeleteInventory handles DELETE /api/v1/inventory/{id}
func (h *InventoryHandler) DeleteInventory(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	err := h.mutations.Delete(r.Context(), id)
	respondMutation(w, r, h.logger, http.StatusOK, map[string]string{"id": id}, err)
}

// ReorderStock handles POST /api/v1/inventory/{id}/reorder-stock. An empty
// body or a non-positive quantity replenishes by the item's own rule.
func (h *InventoryHandler) ReorderStock(w http.ResponseWriter, r *http.Request) {
	var req ReorderStockRequest
	if err := decodeJSON(r, &req); err != nil && !errors.Is(err, io.EOF) {
		respondError(w, h.logger, http.StatusBadRequest, "Invalid request body")
		return
	}

	item, err := h.mutations.ReorderStock(r.Context(), r.PathValue("id"), req.Quantity)
	respondMutation(w, r, h.logger, http.StatusOK, item, err)
}

// Discontinue handles POST /api/v1/inventory/{id}/discontinue
func (h *InventoryHandler) Discontinue(w http.ResponseWriter, r *http.Request) {
	item, err := h.mutations.Discontinue(r.Context(), r.PathValue("id"))
	respondMutation(w, r, h.logger, http.StatusOK, item, err)
}

// AuditTrail handles GET /api/v1/inventory/{id}/audit
func (h *InventoryHandler) AuditTrail(w http.ResponseWriter, r *http.Request) {
	if h.audit == nil {
		respondError(w, h.logger, http.StatusServiceUnavailable, "Audit log is not available")
		return
	}

	limit := defaultAuditLimit
	if l, err := strconv.Atoi(r.URL.Query().Get("limit")); err == nil && l > 0 {
		limit = min(l, maxAuditLimit)
	}

	id := r.PathValue("id")
	events, err := h.audit.ListByItem(r.Context(), id, limit)
	if err != nil {
		h.logger.ErrorContext(r.Context(), "failed to list audit events",
			slog.String("item_id", id),
			slog.String("error", err.Error()))
		respondError(w, h.logger, http.StatusInternalServerError, "Failed to load audit trail")
		return
	}

	respondJSON(w, h.logger, http.StatusOK, map[string]any{
		"itemId": id,
		"events": events,
	})
}

// parseListParams reads paging, sorting and filters from the query string.
// The remaining normalization happens in the coordinator.
func (h *InventoryHandler) parseListParams(r *http.Request) domain.ListParams {
	q := r.URL.Query()
	params := domain.ListParams{
		Search:        q.Get("search"),
		SortField:     domain.SortField(q.Get("sort")),
		SortDirection: domain.SortDirection(strings.ToLower(q.Get("order"))),
		Category:      q.Get("category"),
		Location:      q.Get("location"),
	}

	if p, err := strconv.Atoi(q.Get("page")); err == nil {
		params.Page = p
	}

	size := q.Get("page_size")
	if size == "" {
		size = q.Get("limit")
	}
	params.PageSize = h.pageSize
	if s, err := strconv.Atoi(size); err == nil && s > 0 {
		params.PageSize = min(s, h.maxPageSize)
	}

	return params
}

// Request DTOs

// MoveRequest swaps the item at Index with its neighbour
type MoveRequest struct {
	Index     int                  `json:"index"`
	Direction domain.MoveDirection `json:"direction"`
}

// ReorderStockRequest is the optional body of a reorder
type ReorderStockRequest struct {
	Quantity int `json:"quantity"`
}

// ItemRequest is the body of create and update requests
type ItemRequest struct {
	SKU               string                 `json:"sku"`
	Name              string                 `json:"name"`
	Category          string                 `json:"category,omitempty"`
	Subcategory       string                 `json:"subcategory,omitempty"`
	Brand             string                 `json:"brand,omitempty"`
	Tags              []string               `json:"tags,omitempty"`
	Cost              decimal.Decimal        `json:"cost"`
	RRP               decimal.Decimal        `json:"rrp"`
	Price             decimal.Decimal        `json:"price"`
	Stock             int                    `json:"stock"`
	LowStockThreshold int                    `json:"lowStockThreshold"`
	MinStockCount     int                    `json:"minStockCount"`
	Location          string                 `json:"location,omitempty"`
	Locations         []domain.LocationStock `json:"locations,omitempty"`
	Dimensions        *domain.Dimensions     `json:"dimensions,omitempty"`
	Weight            *domain.Weight         `json:"weight,omitempty"`
	IsActive          *bool                  `json:"isActive,omitempty"`
	ImageURL          string                 `json:"imageUrl,omitempty"`
	Supplier          string                 `json:"supplier,omitempty"`
	Barcode           string                 `json:"barcode,omitempty"`
}

// ToDomain converts the request to a domain model. A missing isActive means
// active.
func (r ItemRequest) ToDomain() domain.InventoryItem {
	item := domain.InventoryItem{
		SKU:               strings.TrimSpace(r.SKU),
		Name:              strings.TrimSpace(r.Name),
		Category:          r.Category,
		Subcategory:       r.Subcategory,
		Brand:             r.Brand,
		Tags:              r.Tags,
		Cost:              r.Cost,
		RRP:               r.RRP,
		Price:             r.Price,
		Stock:             r.Stock,
		LowStockThreshold: r.LowStockThreshold,
		MinStockCount:     r.MinStockCount,
		Location:          r.Location,
		Locations:         r.Locations,
		Dimensions:        r.Dimensions,
		Weight:            r.Weight,
		IsActive:          true,
		ImageURL:          r.ImageURL,
		Supplier:          r.Supplier,
		Barcode:           r.Barcode,
	}
	if r.IsActive != nil {
		item.IsActive = *r.IsActive
	}
	return item
}
