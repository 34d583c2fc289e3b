// internal/handlers/stock.go
package handlers

import (
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/ammerola/stockmirror/internal/core/domain"
	"github.com/ammerola/stockmirror/internal/core/ports"
)

// StockHandler serves per-location stock and transfers
type StockHandler struct {
	mutations ports.InventoryMutationService
	logger    *slog.Logger
	now       func() time.Time
}

// NewStockHandler creates a new stock handler
func NewStockHandler(mutations ports.InventoryMutationService, logger *slog.Logger) *StockHandler {
	return &StockHandler{
		mutations: mutations,
		logger:    logger.With(slog.String("handler", "stock")),
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// RegisterRoutes mounts the stock endpoints on mux
func (h *StockHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/v1/stock/{sku}", h.GetBreakdown)
	mux.HandleFunc("PUT /api/v1/stock/{sku}/locations/{location}", h.SetLocationStock)
	mux.HandleFunc("POST /api/v1/transfers", h.CreateTransfer)
}

// GetBreakdown handles GET /api/v1/stock/{sku}
func (h *StockHandler) GetBreakdown(w http.ResponseWriter, r *http.Request) {
	sku := r.PathValue("sku")

	breakdown := h.mutations.StockBreakdown(sku)
	if len(breakdown.Locations) == 0 {
		respondError(w, h.logger, http.StatusNotFound, "SKU not found")
		return
	}

	respondJSON(w, h.logger, http.StatusOK, breakdown)
}

// SetLocationStock handles PUT /api/v1/stock/{sku}/locations/{location}
func (h *StockHandler) SetLocationStock(w http.ResponseWriter, r *http.Request) {
	var req LocationStockRequest
	if err := decodeJSON(r, &req); err != nil || req.Stock == nil {
		respondError(w, h.logger, http.StatusBadRequest, "stock is required")
		return
	}

	breakdown, err := h.mutations.SetLocationStock(r.Context(),
		r.PathValue("sku"), strings.TrimSpace(r.PathValue("location")), *req.Stock)
	respondMutation(w, r, h.logger, http.StatusOK, breakdown, err)
}

// CreateTransfer handles POST /api/v1/transfers
func (h *StockHandler) CreateTransfer(w http.ResponseWriter, r *http.Request) {
	var req TransferRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, h.logger, http.StatusBadRequest, "Invalid request body")
		return
	}

	sku := strings.TrimSpace(req.SKU)
	if len(h.mutations.StockBreakdown(sku).Locations) == 0 {
		respondError(w, h.logger, http.StatusNotFound, "SKU not found")
		return
	}

	now := h.now()
	transfer := domain.TransferRecord{
		FromLocation:    strings.TrimSpace(req.FromLocation),
		ToLocation:      strings.TrimSpace(req.ToLocation),
		Quantity:        req.Quantity,
		Item:            domain.InventoryItem{SKU: sku},
		Date:            now,
		ReferenceNumber: domain.NewTransferReference(now),
	}

	breakdown, err := h.mutations.CompleteTransfer(r.Context(), transfer)
	respondMutation(w, r, h.logger, http.StatusCreated, TransferResponse{
		ReferenceNumber: transfer.ReferenceNumber,
		Date:            transfer.Date,
		Breakdown:       breakdown,
	}, err)
}

// LocationStockRequest sets the unit count at one location
type LocationStockRequest struct {
	Stock *int `json:"stock"`
}

// TransferRequest moves units of a SKU between two locations
type TransferRequest struct {
	SKU          string `json:"sku"`
	FromLocation string `json:"fromLocation"`
	ToLocation   string `json:"toLocation"`
	Quantity     int    `json:"quantity"`
}

// TransferResponse is the outcome of a completed transfer
type TransferResponse struct {
	ReferenceNumber string                `json:"referenceNumber"`
	Date            time.Time             `json:"date"`
	Breakdown       domain.StockBreakdown `json:"breakdown"`
}
