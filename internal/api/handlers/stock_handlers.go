package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/mantenix/inventory-service/internal/application"
	"github.com/mantenix/inventory-service/internal/domain"
	"github.com/mantenix/inventory-service/pkg/errors"
)

type adjustBody struct {
	InventoryItemID string `json:"inventoryItemId" binding:"required"`
	LocationID      string `json:"locationId" binding:"required"`
	LocationType    string `json:"locationType" binding:"required,location_type"`
	CompanyID       string `json:"companyId"`
	Quantity        *int64 `json:"quantity" binding:"required,gte=0"`
	Reason          string `json:"reason" binding:"required,max=500,safe_string"`
}

type transferBody struct {
	InventoryItemID  string `json:"inventoryItemId" binding:"required"`
	FromLocationID   string `json:"fromLocationId" binding:"required"`
	FromLocationType string `json:"fromLocationType" binding:"required,location_type"`
	FromCompanyID    string `json:"fromCompanyId"`
	ToLocationID     string `json:"toLocationId" binding:"required"`
	ToLocationType   string `json:"toLocationType" binding:"required,location_type"`
	ToCompanyID      string `json:"toCompanyId"`
	Quantity         int64  `json:"quantity" binding:"required,gt=0"`
	Reason           string `json:"reason" binding:"max=500,safe_string"`
	WorkOrderID      string `json:"workOrderId"`
}

type adjustResponse struct {
	Stock    application.StockView     `json:"stock"`
	Movement *domain.InventoryMovement `json:"movement"`
}

// GetStockByItem handles GET /stock/items/:itemId
func (h *Handlers) GetStockByItem(c *gin.Context) {
	session, ok := h.session(c)
	if !ok {
		return
	}

	rows, err := h.stock.GetByItem(c.Request.Context(), session, c.Param("itemId"))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": nonNil(rows)})
}

// GetStockByLocation handles GET /stock/locations/:locationType/:locationId
func (h *Handlers) GetStockByLocation(c *gin.Context) {
	session, ok := h.session(c)
	if !ok {
		return
	}

	locType := domain.LocationType(strings.ToUpper(c.Param("locationType")))
	if !locType.IsValid() {
		h.responder(c).RespondWithAppError(errors.ErrValidationWithFields("invalid location",
			map[string]string{"locationType": "must be one of: WAREHOUSE, SITE, VEHICLE"}))
		return
	}
	loc := domain.Location{ID: c.Param("locationId"), Type: locType}

	rows, err := h.stock.GetByLocation(c.Request.Context(), session, loc)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": nonNil(rows)})
}

// AdjustStock handles POST /stock/adjust, setting an absolute count
func (h *Handlers) AdjustStock(c *gin.Context) {
	session, ok := h.session(c)
	if !ok {
		return
	}
	var body adjustBody
	if !h.bind(c, &body) {
		return
	}

	view, movement, err := h.stock.Adjust(c.Request.Context(), session, application.AdjustStockCommand{
		InventoryItemID: body.InventoryItemID,
		Location: domain.Location{
			ID:        body.LocationID,
			Type:      domain.LocationType(body.LocationType),
			CompanyID: body.CompanyID,
		},
		Quantity: *body.Quantity,
		Reason:   body.Reason,
	})
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, adjustResponse{Stock: view, Movement: movement})
}

// TransferStock handles POST /stock/transfer
func (h *Handlers) TransferStock(c *gin.Context) {
	session, ok := h.session(c)
	if !ok {
		return
	}
	var body transferBody
	if !h.bind(c, &body) {
		return
	}

	movement, err := h.stock.Transfer(c.Request.Context(), session, application.TransferStockCommand{
		InventoryItemID: body.InventoryItemID,
		From: domain.Location{
			ID:        body.FromLocationID,
			Type:      domain.LocationType(body.FromLocationType),
			CompanyID: body.FromCompanyID,
		},
		To: domain.Location{
			ID:        body.ToLocationID,
			Type:      domain.LocationType(body.ToLocationType),
			CompanyID: body.ToCompanyID,
		},
		Quantity:    body.Quantity,
		Reason:      body.Reason,
		WorkOrderID: body.WorkOrderID,
	})
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, movement)
}

func nonNil[T any](rows []T) []T {
	if rows == nil {
		return []T{}
	}
	return rows
}
