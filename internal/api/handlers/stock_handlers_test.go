package handlers

import (
	"context"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mantenix/inventory-service/internal/application"
	"github.com/mantenix/inventory-service/internal/domain"
)

func TestStockHandlers_GetByItem(t *testing.T) {
	t.Run("empty renders an array", func(t *testing.T) {
		stock := &mockStockService{
			byItemFn: func(_ context.Context, _ domain.Session, itemID string) ([]application.StockView, error) {
				assert.Equal(t, "item-1", itemID)
				return nil, nil
			},
		}
		router := newTestRouter(Services{Stock: stock})

		rec := performRequest(router, http.MethodGet, "/api/v1/stock/items/item-1", "")

		require.Equal(t, http.StatusOK, rec.Code)
		assert.JSONEq(t, `{"data":[]}`, rec.Body.String())
	})

	t.Run("low stock flags", func(t *testing.T) {
		stock := &mockStockService{
			byItemFn: func(context.Context, domain.Session, string) ([]application.StockView, error) {
				return []application.StockView{{
					InventoryStock: &domain.InventoryStock{ID: "s-1", Quantity: 1, AvailableQuantity: 1},
					BelowMinimum:   true,
				}}, nil
			},
		}
		router := newTestRouter(Services{Stock: stock})

		rec := performRequest(router, http.MethodGet, "/api/v1/stock/items/item-1", "")

		require.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), `"belowMinimum":true`)
	})
}

func TestStockHandlers_GetByLocation(t *testing.T) {
	t.Run("type is case-insensitive", func(t *testing.T) {
		stock := &mockStockService{
			byLocationFn: func(_ context.Context, _ domain.Session, loc domain.Location) ([]application.StockView, error) {
				assert.Equal(t, domain.Location{ID: "van-7", Type: domain.LocationVehicle}, loc)
				return nil, nil
			},
		}
		router := newTestRouter(Services{Stock: stock})

		rec := performRequest(router, http.MethodGet, "/api/v1/stock/locations/vehicle/van-7", "")

		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("unknown type", func(t *testing.T) {
		router := newTestRouter(Services{Stock: &mockStockService{}})

		rec := performRequest(router, http.MethodGet, "/api/v1/stock/locations/shelf/s-1", "")

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestStockHandlers_Adjust(t *testing.T) {
	t.Run("zero is a valid count", func(t *testing.T) {
		stock := &mockStockService{
			adjustFn: func(_ context.Context, _ domain.Session, cmd application.AdjustStockCommand) (application.StockView, *domain.InventoryMovement, error) {
				assert.Equal(t, int64(0), cmd.Quantity)
				assert.Equal(t, domain.Location{ID: "wh-1", Type: domain.LocationWarehouse}, cmd.Location)
				assert.Equal(t, "cycle count", cmd.Reason)
				return application.StockView{InventoryStock: &domain.InventoryStock{ID: "s-1"}},
					&domain.InventoryMovement{ID: "mv-1", Type: domain.MovementAdjustment, Delta: -3}, nil
			},
		}
		router := newTestRouter(Services{Stock: stock})

		rec := performRequest(router, http.MethodPost, "/api/v1/stock/adjust",
			`{"inventoryItemId":"item-1","locationId":"wh-1","locationType":"WAREHOUSE","quantity":0,"reason":"cycle count"}`)

		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		assert.Contains(t, rec.Body.String(), `"movement":{"id":"mv-1"`)
	})

	t.Run("missing quantity", func(t *testing.T) {
		router := newTestRouter(Services{Stock: &mockStockService{}})

		rec := performRequest(router, http.MethodPost, "/api/v1/stock/adjust",
			`{"inventoryItemId":"item-1","locationId":"wh-1","locationType":"WAREHOUSE","reason":"count"}`)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("negative quantity", func(t *testing.T) {
		router := newTestRouter(Services{Stock: &mockStockService{}})

		rec := performRequest(router, http.MethodPost, "/api/v1/stock/adjust",
			`{"inventoryItemId":"item-1","locationId":"wh-1","locationType":"WAREHOUSE","quantity":-1,"reason":"count"}`)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestStockHandlers_Transfer(t *testing.T) {
	body := `{"inventoryItemId":"item-1","fromLocationId":"wh-1","fromLocationType":"WAREHOUSE",` +
		`"toLocationId":"van-7","toLocationType":"VEHICLE","toCompanyId":"company-b","quantity":3,"reason":"restock"}`

	t.Run("success", func(t *testing.T) {
		stock := &mockStockService{
			transferFn: func(_ context.Context, _ domain.Session, cmd application.TransferStockCommand) (*domain.InventoryMovement, error) {
				assert.Equal(t, domain.Location{ID: "wh-1", Type: domain.LocationWarehouse}, cmd.From)
				assert.Equal(t, domain.Location{ID: "van-7", Type: domain.LocationVehicle, CompanyID: "company-b"}, cmd.To)
				assert.Equal(t, int64(3), cmd.Quantity)
				return &domain.InventoryMovement{ID: "mv-1", Type: domain.MovementTransfer, Quantity: 3}, nil
			},
		}
		router := newTestRouter(Services{Stock: stock})

		rec := performRequest(router, http.MethodPost, "/api/v1/stock/transfer", body)

		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
		assert.Contains(t, rec.Body.String(), `"type":"TRANSFER"`)
	})

	t.Run("insufficient at chosen location", func(t *testing.T) {
		stock := &mockStockService{
			transferFn: func(context.Context, domain.Session, application.TransferStockCommand) (*domain.InventoryMovement, error) {
				return nil, &domain.StockError{
					Kind:      domain.ErrInsufficientStockAtChosenLocation,
					ItemID:    "item-1",
					Location:  domain.Location{ID: "wh-1", Type: domain.LocationWarehouse},
					Requested: 3,
					Available: 2,
				}
			},
		}
		router := newTestRouter(Services{Stock: stock})

		rec := performRequest(router, http.MethodPost, "/api/v1/stock/transfer", body)

		require.Equal(t, http.StatusConflict, rec.Code)
		errBody := decodeError(t, rec)
		assert.Equal(t, application.CodeInsufficientStockAtChosenLocation, errBody.Code)
		assert.Equal(t, "WAREHOUSE:wh-1", errBody.Details["location"])
	})

	t.Run("stock writes run first", func(t *testing.T) {
		guard := func(c *gin.Context) {
			c.AbortWithStatus(http.StatusTeapot)
		}
		router := newTestRouter(Services{Stock: &mockStockService{}}, guard)

		rec := performRequest(router, http.MethodPost, "/api/v1/stock/transfer", body)
		assert.Equal(t, http.StatusTeapot, rec.Code)

		rec = performRequest(router, http.MethodPost, "/api/v1/stock/adjust", body)
		assert.Equal(t, http.StatusTeapot, rec.Code)
	})

	t.Run("zero quantity", func(t *testing.T) {
		router := newTestRouter(Services{Stock: &mockStockService{}})

		rec := performRequest(router, http.MethodPost, "/api/v1/stock/transfer",
			`{"inventoryItemId":"item-1","fromLocationId":"wh-1","fromLocationType":"WAREHOUSE","toLocationId":"s-1","toLocationType":"SITE","quantity":0}`)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestMovementHandlers(t *testing.T) {
	t.Run("list filters", func(t *testing.T) {
		movements := &mockMovementService{
			listFn: func(_ context.Context, _ domain.Session, f domain.MovementFilter, _ domain.Page) ([]*domain.InventoryMovement, int64, error) {
				assert.Equal(t, domain.MovementTransfer, f.Type)
				assert.Equal(t, "req-1", f.RequestID)
				return []*domain.InventoryMovement{{ID: "mv-1"}}, 1, nil
			},
		}
		router := newTestRouter(Services{Movements: movements})

		rec := performRequest(router, http.MethodGet, "/api/v1/movements?type=TRANSFER&requestId=req-1", "")

		require.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), `"totalItems":1`)
	})

	t.Run("unknown type", func(t *testing.T) {
		router := newTestRouter(Services{Movements: &mockMovementService{}})

		rec := performRequest(router, http.MethodGet, "/api/v1/movements?type=LOSS", "")

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("get not found", func(t *testing.T) {
		movements := &mockMovementService{
			getFn: func(_ context.Context, _ domain.Session, id string) (*domain.InventoryMovement, error) {
				return nil, domain.NewNotFoundError("movement", id)
			},
		}
		router := newTestRouter(Services{Movements: movements})

		rec := performRequest(router, http.MethodGet, "/api/v1/movements/mv-404", "")

		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}
