package handlers

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mantenix/inventory-service/internal/application"
	"github.com/mantenix/inventory-service/internal/domain"
)

func pendingRequest(id string) *domain.InventoryRequest {
	return &domain.InventoryRequest{ID: id, Status: domain.StatusPending, QuantityRequested: 4}
}

func TestRequestHandlers_Create(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		requests := &mockRequestService{
			createFn: func(_ context.Context, _ domain.Session, cmd application.CreateRequestCommand) (*domain.InventoryRequest, error) {
				assert.Equal(t, "wo-1", cmd.WorkOrderID)
				assert.Equal(t, "item-1", cmd.InventoryItemID)
				assert.Equal(t, int64(4), cmd.Quantity)
				assert.Equal(t, domain.UrgencyHigh, cmd.Urgency)
				assert.Equal(t, domain.Location{ID: "wh-1", Type: domain.LocationWarehouse, CompanyID: "company-b"}, cmd.Source)
				return pendingRequest("req-1"), nil
			},
		}
		router := newTestRouter(Services{Requests: requests})

		rec := performRequest(router, http.MethodPost, "/api/v1/requests",
			`{"workOrderId":"wo-1","inventoryItemId":"item-1","quantityRequested":4,"urgency":"HIGH",`+
				`"sourceCompanyId":"company-b","sourceLocationId":"wh-1","sourceLocationType":"WAREHOUSE"}`)

		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
		assert.Contains(t, rec.Body.String(), `"status":"PENDING"`)
	})

	t.Run("zero quantity", func(t *testing.T) {
		router := newTestRouter(Services{Requests: &mockRequestService{}})

		rec := performRequest(router, http.MethodPost, "/api/v1/requests",
			`{"workOrderId":"wo-1","inventoryItemId":"item-1","quantityRequested":0}`)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("unknown urgency", func(t *testing.T) {
		router := newTestRouter(Services{Requests: &mockRequestService{}})

		rec := performRequest(router, http.MethodPost, "/api/v1/requests",
			`{"workOrderId":"wo-1","inventoryItemId":"item-1","quantityRequested":1,"urgency":"ASAP"}`)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("forbidden", func(t *testing.T) {
		requests := &mockRequestService{
			createFn: func(context.Context, domain.Session, application.CreateRequestCommand) (*domain.InventoryRequest, error) {
				return nil, domain.ErrForbidden
			},
		}
		router := newTestRouter(Services{Requests: requests})

		rec := performRequest(router, http.MethodPost, "/api/v1/requests",
			`{"workOrderId":"wo-1","inventoryItemId":"item-1","quantityRequested":1}`)

		assert.Equal(t, http.StatusForbidden, rec.Code)
	})
}

func TestRequestHandlers_Update(t *testing.T) {
	requests := &mockRequestService{
		updateFn: func(_ context.Context, _ domain.Session, id string, changes domain.RequestChanges) (*domain.InventoryRequest, error) {
			assert.Equal(t, "req-1", id)
			require.NotNil(t, changes.Quantity)
			assert.Equal(t, int64(3), *changes.Quantity)
			require.NotNil(t, changes.Urgency)
			assert.Equal(t, domain.UrgencyUrgent, *changes.Urgency)
			assert.Nil(t, changes.Notes)
			return pendingRequest(id), nil
		},
	}
	router := newTestRouter(Services{Requests: requests})

	rec := performRequest(router, http.MethodPut, "/api/v1/requests/req-1", `{"quantityRequested":3,"urgency":"URGENT"}`)

	assert.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
}

func TestRequestHandlers_Approve(t *testing.T) {
	t.Run("without body", func(t *testing.T) {
		requests := &mockRequestService{
			approveFn: func(_ context.Context, _ domain.Session, cmd application.ApproveRequestCommand) (*domain.InventoryRequest, error) {
				assert.Equal(t, "req-1", cmd.RequestID)
				assert.Nil(t, cmd.QuantityApproved)
				return &domain.InventoryRequest{ID: cmd.RequestID, Status: domain.StatusApproved}, nil
			},
		}
		router := newTestRouter(Services{Requests: requests})

		rec := performRequest(router, http.MethodPost, "/api/v1/requests/req-1/approve", "")

		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		assert.Contains(t, rec.Body.String(), `"status":"APPROVED"`)
	})

	t.Run("partial quantity", func(t *testing.T) {
		requests := &mockRequestService{
			approveFn: func(_ context.Context, _ domain.Session, cmd application.ApproveRequestCommand) (*domain.InventoryRequest, error) {
				require.NotNil(t, cmd.QuantityApproved)
				assert.Equal(t, int64(2), *cmd.QuantityApproved)
				assert.Equal(t, "half now", cmd.Notes)
				return &domain.InventoryRequest{ID: cmd.RequestID, Status: domain.StatusApproved}, nil
			},
		}
		router := newTestRouter(Services{Requests: requests})

		rec := performRequest(router, http.MethodPost, "/api/v1/requests/req-1/approve",
			`{"quantityApproved":2,"reviewNotes":"half now"}`)

		assert.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	})

	t.Run("insufficient stock", func(t *testing.T) {
		requests := &mockRequestService{
			approveFn: func(context.Context, domain.Session, application.ApproveRequestCommand) (*domain.InventoryRequest, error) {
				return nil, &domain.StockError{
					Kind:      domain.ErrInsufficientStock,
					ItemID:    "item-1",
					Requested: 4,
					Available: 1,
				}
			},
		}
		router := newTestRouter(Services{Requests: requests})

		rec := performRequest(router, http.MethodPost, "/api/v1/requests/req-1/approve", "")

		require.Equal(t, http.StatusConflict, rec.Code)
		body := decodeError(t, rec)
		assert.Equal(t, application.CodeInsufficientStock, body.Code)
		assert.Equal(t, "4", body.Details["requested"])
		assert.Equal(t, "1", body.Details["available"])
	})

	t.Run("not editable", func(t *testing.T) {
		requests := &mockRequestService{
			approveFn: func(context.Context, domain.Session, application.ApproveRequestCommand) (*domain.InventoryRequest, error) {
				return nil, domain.ErrRequestNotEditable
			},
		}
		router := newTestRouter(Services{Requests: requests})

		rec := performRequest(router, http.MethodPost, "/api/v1/requests/req-1/approve", "")

		assert.Equal(t, http.StatusConflict, rec.Code)
		assert.Equal(t, application.CodeRequestNotEditable, decodeError(t, rec).Code)
	})
}

func TestRequestHandlers_RejectAndCancel(t *testing.T) {
	var rejected, cancelled application.ReviewCommand
	requests := &mockRequestService{
		rejectFn: func(_ context.Context, _ domain.Session, cmd application.ReviewCommand) (*domain.InventoryRequest, error) {
			rejected = cmd
			return &domain.InventoryRequest{ID: cmd.RequestID, Status: domain.StatusRejected}, nil
		},
		cancelFn: func(_ context.Context, _ domain.Session, cmd application.ReviewCommand) (*domain.InventoryRequest, error) {
			cancelled = cmd
			return &domain.InventoryRequest{ID: cmd.RequestID, Status: domain.StatusCancelled}, nil
		},
	}
	router := newTestRouter(Services{Requests: requests})

	rec := performRequest(router, http.MethodPost, "/api/v1/requests/req-1/reject", `{"reviewNotes":"wrong part"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, application.ReviewCommand{RequestID: "req-1", Notes: "wrong part"}, rejected)

	rec = performRequest(router, http.MethodPost, "/api/v1/requests/req-2/cancel", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, application.ReviewCommand{RequestID: "req-2"}, cancelled)
}

func TestRequestHandlers_Custody(t *testing.T) {
	var calls []string
	record := func(step string) func(context.Context, domain.Session, string) (*domain.InventoryRequest, error) {
		return func(_ context.Context, _ domain.Session, id string) (*domain.InventoryRequest, error) {
			calls = append(calls, step+":"+id)
			return &domain.InventoryRequest{ID: id}, nil
		}
	}
	requests := &mockRequestService{
		deliverFn: record("deliver"),
		receiveFn: record("receive"),
		confirmFn: record("confirm"),
	}
	router := newTestRouter(Services{Requests: requests})

	for _, step := range []string{"deliver", "receive", "confirm"} {
		rec := performRequest(router, http.MethodPost, "/api/v1/requests/req-1/"+step, "")
		require.Equal(t, http.StatusOK, rec.Code, step)
	}
	assert.Equal(t, []string{"deliver:req-1", "receive:req-1", "confirm:req-1"}, calls)
}

func TestRequestHandlers_Get(t *testing.T) {
	requests := &mockRequestService{
		getFn: func(_ context.Context, _ domain.Session, id string) (*application.RequestDetail, error) {
			return &application.RequestDetail{
				InventoryRequest:        pendingRequest(id),
				DestinationLocationName: "North site",
			}, nil
		},
	}
	router := newTestRouter(Services{Requests: requests})

	rec := performRequest(router, http.MethodGet, "/api/v1/requests/req-1", "")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"destinationLocationName":"North site"`)
	assert.Contains(t, rec.Body.String(), `"id":"req-1"`)
}

func TestRequestHandlers_List(t *testing.T) {
	t.Run("filters", func(t *testing.T) {
		requests := &mockRequestService{
			listFn: func(_ context.Context, _ domain.Session, f domain.RequestFilter, _ domain.Page) ([]*domain.InventoryRequest, int64, error) {
				assert.Equal(t, []domain.RequestStatus{domain.StatusPending, domain.StatusApproved, domain.StatusDelivered}, f.Statuses)
				assert.Equal(t, domain.UrgencyLow, f.Urgency)
				assert.Equal(t, "wo-1", f.WorkOrderID)
				require.NotNil(t, f.From)
				require.NotNil(t, f.To)
				assert.Equal(t, time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC), *f.From)
				assert.Equal(t, time.Date(2026, 3, 31, 23, 59, 59, int(999*time.Millisecond), time.UTC), *f.To)
				return nil, 0, nil
			},
		}
		router := newTestRouter(Services{Requests: requests})

		rec := performRequest(router, http.MethodGet,
			"/api/v1/requests?status=PENDING,APPROVED&status=DELIVERED&urgency=LOW&workOrderId=wo-1&from=2026-03-01&to=2026-03-31", "")

		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		assert.Contains(t, rec.Body.String(), `"data":[]`)
	})

	t.Run("unknown status", func(t *testing.T) {
		router := newTestRouter(Services{Requests: &mockRequestService{}})

		rec := performRequest(router, http.MethodGet, "/api/v1/requests?status=LOST", "")

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Contains(t, decodeError(t, rec).Details, "status")
	})

	t.Run("bad date", func(t *testing.T) {
		router := newTestRouter(Services{Requests: &mockRequestService{}})

		rec := performRequest(router, http.MethodGet, "/api/v1/requests?from=yesterday", "")

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}
