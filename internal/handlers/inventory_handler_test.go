// internal/handlers/inventory_handler_test.go
package handlers_test

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/ammerola/stockmirror/internal/core/domain"
	"github.com/ammerola/stockmirror/internal/handlers"
	"github.com/ammerola/stockmirror/test/helpers"
	"github.com/ammerola/stockmirror/test/mocks"
)

const remoteID = "3f0e8d5c-2b1a-4c7e-9f3d-6a5b4c3d2e1f"

type inventoryMocks struct {
	query     *mocks.MockInventoryQueryService
	mutations *mocks.MockInventoryMutationService
	audit     *mocks.MockAuditLogRepository
}

func newInventoryServer(t *testing.T, opts ...handlers.InventoryHandlerOption) (*http.ServeMux, inventoryMocks) {
	t.Helper()

	ctrl := gomock.NewController(t)
	m := inventoryMocks{
		query:     mocks.NewMockInventoryQueryService(ctrl),
		mutations: mocks.NewMockInventoryMutationService(ctrl),
		audit:     mocks.NewMockAuditLogRepository(ctrl),
	}

	mux := http.NewServeMux()
	handlers.NewInventoryHandler(m.query, m.mutations, m.audit, helpers.TestLogger(), opts...).RegisterRoutes(mux)
	return mux, m
}

func serve(mux http.Handler, method, target string, body any) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		if s, ok := body.(string); ok {
			buf.WriteString(s)
		} else {
			_ = json.NewEncoder(&buf).Encode(body)
		}
	}

	req := httptest.NewRequest(method, target, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, req)
	return w
}

func decodeMutation(t *testing.T, body []byte, data any) handlers.MutationResponse {
	t.Helper()

	var envelope struct {
		Data    json.RawMessage `json:"data"`
		Warning string          `json:"warning"`
	}
	require.NoError(t, json.Unmarshal(body, &envelope))
	if data != nil {
		require.NoError(t, json.Unmarshal(envelope.Data, data))
	}
	return handlers.MutationResponse{Warning: envelope.Warning}
}

func TestInventoryHandler_ListInventory(t *testing.T) {
	items := helpers.CreateTestInventoryItems(3)

	tests := []struct {
		name       string
		target     string
		opts       []handlers.InventoryHandlerOption
		wantParams domain.ListParams
	}{
		{
			name:   "query_string_parsed",
			target: "/api/v1/inventory?page=2&page_size=10&search=bolt&sort=stock&order=DESC&category=Hardware&location=undefined",
			wantParams: domain.ListParams{
				Page: 2, PageSize: 10, Search: "bolt",
				SortField: domain.SortByStock, SortDirection: domain.SortDesc,
				Category: "Hardware", Location: "undefined",
			},
		},
		{
			name:       "configured_default_page_size",
			target:     "/api/v1/inventory",
			opts:       []handlers.InventoryHandlerOption{handlers.WithPageLimits(25, 100)},
			wantParams: domain.ListParams{PageSize: 25},
		},
		{
			name:       "page_size_capped",
			target:     "/api/v1/inventory?limit=5000",
			opts:       []handlers.InventoryHandlerOption{handlers.WithPageLimits(25, 100)},
			wantParams: domain.ListParams{PageSize: 100},
		},
		{
			name:       "garbage_ignored",
			target:     "/api/v1/inventory?page=abc&page_size=-3",
			wantParams: domain.ListParams{PageSize: domain.DefaultPageSize},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mux, m := newInventoryServer(t, tt.opts...)

			page := domain.Page{Items: items, TotalCount: 3, Params: tt.wantParams, Source: domain.SourceRemote}
			m.query.EXPECT().Fetch(gomock.Any(), tt.wantParams).Return(page)

			w := serve(mux, http.MethodGet, tt.target, nil)

			require.Equal(t, http.StatusOK, w.Code)
			var got domain.Page
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
			assert.Equal(t, 3, got.TotalCount)
			assert.Equal(t, domain.SourceRemote, got.Source)
			require.Len(t, got.Items, 3)
			assert.Equal(t, "TEST-001", got.Items[0].SKU)
		})
	}
}

func TestInventoryHandler_ListInventory_FallbackWarning(t *testing.T) {
	mux, m := newInventoryServer(t)

	m.query.EXPECT().Fetch(gomock.Any(), gomock.Any()).Return(domain.Page{
		Items:   helpers.CreateTestInventoryItems(1),
		Source:  domain.SourceLocal,
		Warning: "Showing local inventory: remote store unavailable",
	})

	w := serve(mux, http.MethodGet, "/api/v1/inventory", nil)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"source":"local"`)
	assert.Contains(t, w.Body.String(), `"warning":"Showing local inventory`)
}

func TestInventoryHandler_RefreshInventory(t *testing.T) {
	mux, m := newInventoryServer(t)

	m.query.EXPECT().Refresh(gomock.Any()).Return(domain.Page{TotalCount: 7, Source: domain.SourceRemote})

	w := serve(mux, http.MethodPost, "/api/v1/inventory/refresh", nil)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"totalCount":7`)
}

func TestInventoryHandler_MoveItem(t *testing.T) {
	tests := []struct {
		name           string
		body           any
		setupMocks     func(*mocks.MockInventoryQueryService)
		expectedStatus int
	}{
		{
			name: "moves_down",
			body: handlers.MoveRequest{Index: 0, Direction: domain.MoveDown},
			setupMocks: func(m *mocks.MockInventoryQueryService) {
				m.EXPECT().Reorder(0, domain.MoveDown).Return(domain.Page{TotalCount: 2}, true)
			},
			expectedStatus: http.StatusOK,
		},
		{
			name: "boundary_is_a_conflict",
			body: handlers.MoveRequest{Index: 0, Direction: domain.MoveUp},
			setupMocks: func(m *mocks.MockInventoryQueryService) {
				m.EXPECT().Reorder(0, domain.MoveUp).Return(domain.Page{}, false)
			},
			expectedStatus: http.StatusConflict,
		},
		{
			name:           "unknown_direction",
			body:           `{"index":1,"direction":"sideways"}`,
			setupMocks:     func(*mocks.MockInventoryQueryService) {},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "malformed_body",
			body:           `{"index":`,
			setupMocks:     func(*mocks.MockInventoryQueryService) {},
			expectedStatus: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mux, m := newInventoryServer(t)
			tt.setupMocks(m.query)

			w := serve(mux, http.MethodPost, "/api/v1/inventory/move", tt.body)

			assert.Equal(t, tt.expectedStatus, w.Code)
		})
	}
}

func TestInventoryHandler_CreateInventory(t *testing.T) {
	request := handlers.ItemRequest{
		SKU:   " PT-WHITE-1L ",
		Name:  "White Primer 1L",
		Cost:  decimal.RequireFromString("4.10"),
		Stock: 12,
	}
	created := domain.InventoryItem{ID: remoteID, SKU: "PT-WHITE-1L", Name: "White Primer 1L", Stock: 12, IsActive: true}
	local := created
	local.ID = "local-31"

	tests := []struct {
		name           string
		body           any
		setupMocks     func(*mocks.MockInventoryMutationService)
		expectedStatus int
		expectedID     string
		expectWarning  bool
		expectedError  string
	}{
		{
			name: "created_remotely",
			body: request,
			setupMocks: func(m *mocks.MockInventoryMutationService) {
				m.EXPECT().Create(gomock.Any(), gomock.Cond(func(item domain.InventoryItem) bool {
					return item.SKU == "PT-WHITE-1L" && item.IsActive && item.Cost.Equal(decimal.RequireFromString("4.10"))
				})).Return(created, nil)
			},
			expectedStatus: http.StatusCreated,
			expectedID:     remoteID,
		},
		{
			name: "kept_locally",
			body: request,
			setupMocks: func(m *mocks.MockInventoryMutationService) {
				m.EXPECT().Create(gomock.Any(), gomock.Any()).Return(local, &domain.MutationError{
					Op: domain.OpCreate, ItemID: local.ID, Err: errors.New("connection refused"),
				})
			},
			expectedStatus: http.StatusAccepted,
			expectedID:     "local-31",
			expectWarning:  true,
		},
		{
			name: "validation_error",
			body: handlers.ItemRequest{Name: "No SKU"},
			setupMocks: func(m *mocks.MockInventoryMutationService) {
				m.EXPECT().Create(gomock.Any(), gomock.Any()).
					Return(domain.InventoryItem{}, fmt.Errorf("failed to create item: %w: sku is required", domain.ErrInvalidItem))
			},
			expectedStatus: http.StatusBadRequest,
			expectedError:  "sku is required",
		},
		{
			name:           "malformed_body",
			body:           `{"sku": 12`,
			setupMocks:     func(*mocks.MockInventoryMutationService) {},
			expectedStatus: http.StatusBadRequest,
			expectedError:  "Invalid request body",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mux, m := newInventoryServer(t)
			tt.setupMocks(m.mutations)

			w := serve(mux, http.MethodPost, "/api/v1/inventory", tt.body)

			require.Equal(t, tt.expectedStatus, w.Code)
			if tt.expectedError != "" {
				var resp handlers.ErrorResponse
				require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
				assert.Contains(t, resp.Error, tt.expectedError)
				return
			}

			var item domain.InventoryItem
			resp := decodeMutation(t, w.Body.Bytes(), &item)
			assert.Equal(t, tt.expectedID, item.ID)
			assert.Equal(t, tt.expectWarning, resp.Warning != "")
		})
	}
}

func TestInventoryHandler_UpdateInventory(t *testing.T) {
	tests := []struct {
		name           string
		id             string
		body           any
		setupMocks     func(*mocks.MockInventoryMutationService)
		expectedStatus int
	}{
		{
			name: "updated",
			id:   remoteID,
			body: handlers.ItemRequest{SKU: "A", Name: "A", Stock: 3, IsActive: new(bool)},
			setupMocks: func(m *mocks.MockInventoryMutationService) {
				m.EXPECT().Update(gomock.Any(), remoteID, gomock.Cond(func(item domain.InventoryItem) bool {
					return !item.IsActive && item.Stock == 3
				})).Return(domain.InventoryItem{ID: remoteID, SKU: "A", Name: "A", Stock: 3}, nil)
			},
			expectedStatus: http.StatusOK,
		},
		{
			name: "unknown_local_id",
			id:   "local-99",
			body: handlers.ItemRequest{SKU: "A", Name: "A"},
			setupMocks: func(m *mocks.MockInventoryMutationService) {
				m.EXPECT().Update(gomock.Any(), "local-99", gomock.Any()).
					Return(domain.InventoryItem{}, fmt.Errorf("failed to update item local-99: %w", domain.ErrNotFound))
			},
			expectedStatus: http.StatusNotFound,
		},
		{
			name: "unexpected_error",
			id:   remoteID,
			body: handlers.ItemRequest{SKU: "A", Name: "A"},
			setupMocks: func(m *mocks.MockInventoryMutationService) {
				m.EXPECT().Update(gomock.Any(), remoteID, gomock.Any()).
					Return(domain.InventoryItem{}, errors.New("boom"))
			},
			expectedStatus: http.StatusInternalServerError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mux, m := newInventoryServer(t)
			tt.setupMocks(m.mutations)

			w := serve(mux, http.MethodPut, "/api/v1/inventory/"+tt.id, tt.body)

			assert.Equal(t, tt.expectedStatus, w.Code)
		})
	}
}

func TestInventoryHandler_DeleteInventory(t *testing.T) {
	tests := []struct {
		name           string
		err            error
		expectedStatus int
	}{
		{name: "deleted", expectedStatus: http.StatusOK},
		{
			name:           "remote_failed_kept_deleted_locally",
			err:            &domain.MutationError{Op: domain.OpDelete, ItemID: remoteID, Err: errors.New("timeout")},
			expectedStatus: http.StatusAccepted,
		},
		{
			name:           "missing",
			err:            fmt.Errorf("failed to delete item %s: %w", remoteID, domain.ErrNotFound),
			expectedStatus: http.StatusNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mux, m := newInventoryServer(t)
			m.mutations.EXPECT().Delete(gomock.Any(), remoteID).Return(tt.err)

			w := serve(mux, http.MethodDelete, "/api/v1/inventory/"+remoteID, nil)

			assert.Equal(t, tt.expectedStatus, w.Code)
		})
	}
}

func TestInventoryHandler_ReorderStock(t *testing.T) {
	tests := []struct {
		name     string
		body     any
		quantity int
	}{
		{name: "empty_body_uses_default_rule", body: nil, quantity: 0},
		{name: "explicit_quantity", body: handlers.ReorderStockRequest{Quantity: 24}, quantity: 24},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mux, m := newInventoryServer(t)
			m.mutations.EXPECT().ReorderStock(gomock.Any(), "local-7", tt.quantity).
				Return(domain.InventoryItem{ID: "local-7", Stock: 13}, nil)

			w := serve(mux, http.MethodPost, "/api/v1/inventory/local-7/reorder-stock", tt.body)

			require.Equal(t, http.StatusOK, w.Code)
			var item domain.InventoryItem
			decodeMutation(t, w.Body.Bytes(), &item)
			assert.Equal(t, 13, item.Stock)
		})
	}
}

func TestInventoryHandler_Discontinue(t *testing.T) {
	mux, m := newInventoryServer(t)
	m.mutations.EXPECT().Discontinue(gomock.Any(), remoteID).
		Return(domain.InventoryItem{ID: remoteID, IsActive: false}, nil)

	w := serve(mux, http.MethodPost, "/api/v1/inventory/"+remoteID+"/discontinue", nil)

	require.Equal(t, http.StatusOK, w.Code)
	var item domain.InventoryItem
	decodeMutation(t, w.Body.Bytes(), &item)
	assert.False(t, item.IsActive)
}

func TestInventoryHandler_AuditTrail(t *testing.T) {
	events := []domain.AuditEvent{
		domain.NewAuditEvent(domain.OpUpdate, domain.StageCompleted, domain.InventoryItem{ID: remoteID}, nil),
		domain.NewAuditEvent(domain.OpUpdate, domain.StageAttempt, domain.InventoryItem{ID: remoteID}, nil),
	}

	tests := []struct {
		name           string
		target         string
		setupMocks     func(*mocks.MockAuditLogRepository)
		expectedStatus int
	}{
		{
			name:   "default_limit",
			target: "/api/v1/inventory/" + remoteID + "/audit",
			setupMocks: func(m *mocks.MockAuditLogRepository) {
				m.EXPECT().ListByItem(gomock.Any(), remoteID, 50).Return(events, nil)
			},
			expectedStatus: http.StatusOK,
		},
		{
			name:   "limit_capped",
			target: "/api/v1/inventory/" + remoteID + "/audit?limit=100000",
			setupMocks: func(m *mocks.MockAuditLogRepository) {
				m.EXPECT().ListByItem(gomock.Any(), remoteID, 500).Return(events, nil)
			},
			expectedStatus: http.StatusOK,
		},
		{
			name:   "repository_error",
			target: "/api/v1/inventory/" + remoteID + "/audit",
			setupMocks: func(m *mocks.MockAuditLogRepository) {
				m.EXPECT().ListByItem(gomock.Any(), remoteID, 50).Return(nil, errors.New("relation does not exist"))
			},
			expectedStatus: http.StatusInternalServerError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mux, m := newInventoryServer(t)
			tt.setupMocks(m.audit)

			w := serve(mux, http.MethodGet, tt.target, nil)

			require.Equal(t, tt.expectedStatus, w.Code)
			if tt.expectedStatus == http.StatusOK {
				var resp struct {
					ItemID string              `json:"itemId"`
					Events []domain.AuditEvent `json:"events"`
				}
				require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
				assert.Equal(t, remoteID, resp.ItemID)
				assert.Len(t, resp.Events, 2)
			}
		})
	}
}

func TestInventoryHandler_AuditTrail_NoRepository(t *testing.T) {
	ctrl := gomock.NewController(t)
	mux := http.NewServeMux()
	handlers.NewInventoryHandler(
		mocks.NewMockInventoryQueryService(ctrl),
		mocks.NewMockInventoryMutationService(ctrl),
		nil,
		helpers.TestLogger(),
	).RegisterRoutes(mux)

	w := serve(mux, http.MethodGet, "/api/v1/inventory/"+remoteID+"/audit", nil)

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestStockHandler(t *testing.T) {
	breakdown := domain.AggregateBySKU([]domain.InventoryItem{
		{ID: "local-1", SKU: "HW-NAIL-001", Location: "Warehouse A", Stock: 100},
		{ID: "local-2", SKU: "HW-NAIL-001", Location: "Warehouse B", Stock: 45},
	}, "HW-NAIL-001")
	empty := domain.AggregateBySKU(nil, "NOPE")

	newServer := func(t *testing.T) (*http.ServeMux, *mocks.MockInventoryMutationService) {
		ctrl := gomock.NewController(t)
		m := mocks.NewMockInventoryMutationService(ctrl)
		mux := http.NewServeMux()
		handlers.NewStockHandler(m, helpers.TestLogger()).RegisterRoutes(mux)
		return mux, m
	}

	t.Run("breakdown", func(t *testing.T) {
		mux, m := newServer(t)
		m.EXPECT().StockBreakdown("HW-NAIL-001").Return(breakdown)

		w := serve(mux, http.MethodGet, "/api/v1/stock/HW-NAIL-001", nil)

		require.Equal(t, http.StatusOK, w.Code)
		var got domain.StockBreakdown
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
		assert.Equal(t, 145, got.Total)
		assert.Len(t, got.Locations, 2)
	})

	t.Run("breakdown_unknown_sku", func(t *testing.T) {
		mux, m := newServer(t)
		m.EXPECT().StockBreakdown("NOPE").Return(empty)

		w := serve(mux, http.MethodGet, "/api/v1/stock/NOPE", nil)

		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("set_location_stock", func(t *testing.T) {
		mux, m := newServer(t)
		m.EXPECT().SetLocationStock(gomock.Any(), "HW-NAIL-001", "Warehouse B", 50).Return(breakdown, nil)

		w := serve(mux, http.MethodPut, "/api/v1/stock/HW-NAIL-001/locations/Warehouse%20B", map[string]int{"stock": 50})

		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("set_location_stock_requires_count", func(t *testing.T) {
		mux, _ := newServer(t)

		w := serve(mux, http.MethodPut, "/api/v1/stock/HW-NAIL-001/locations/Warehouse%20B", `{}`)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("set_location_stock_negative", func(t *testing.T) {
		mux, m := newServer(t)
		m.EXPECT().SetLocationStock(gomock.Any(), "HW-NAIL-001", "Warehouse B", -2).
			Return(domain.StockBreakdown{}, fmt.Errorf("%w: stock at Warehouse B cannot be negative", domain.ErrInvalidItem))

		w := serve(mux, http.MethodPut, "/api/v1/stock/HW-NAIL-001/locations/Warehouse%20B", map[string]int{"stock": -2})

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("transfer", func(t *testing.T) {
		mux, m := newServer(t)
		m.EXPECT().StockBreakdown("HW-NAIL-001").Return(breakdown)
		m.EXPECT().CompleteTransfer(gomock.Any(), gomock.Cond(func(tr domain.TransferRecord) bool {
			return tr.Item.SKU == "HW-NAIL-001" && tr.FromLocation == "Warehouse A" &&
				tr.ToLocation == "Warehouse B" && tr.Quantity == 30 && tr.ReferenceNumber != ""
		})).Return(breakdown, nil)

		w := serve(mux, http.MethodPost, "/api/v1/transfers", handlers.TransferRequest{
			SKU: "HW-NAIL-001", FromLocation: " Warehouse A", ToLocation: "Warehouse B ", Quantity: 30,
		})

		require.Equal(t, http.StatusCreated, w.Code)
		var resp handlers.TransferResponse
		decodeMutation(t, w.Body.Bytes(), &resp)
		assert.Regexp(t, `^TRF-\d{8}-[0-9A-F]{6}$`, resp.ReferenceNumber)
		assert.WithinDuration(t, time.Now(), resp.Date, time.Minute)
	})

	t.Run("transfer_insufficient_stock", func(t *testing.T) {
		mux, m := newServer(t)
		m.EXPECT().StockBreakdown("HW-NAIL-001").Return(breakdown)
		m.EXPECT().CompleteTransfer(gomock.Any(), gomock.Any()).
			Return(domain.StockBreakdown{}, fmt.Errorf("%w: only 100 units at Warehouse A", domain.ErrInvalidTransfer))

		w := serve(mux, http.MethodPost, "/api/v1/transfers", handlers.TransferRequest{
			SKU: "HW-NAIL-001", FromLocation: "Warehouse A", ToLocation: "Warehouse B", Quantity: 300,
		})

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("transfer_unknown_sku", func(t *testing.T) {
		mux, m := newServer(t)
		m.EXPECT().StockBreakdown("NOPE").Return(empty)

		w := serve(mux, http.MethodPost, "/api/v1/transfers", handlers.TransferRequest{
			SKU: "NOPE", FromLocation: "A", ToLocation: "B", Quantity: 1,
		})

		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}
