package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mantenix/inventory-service/internal/domain"
	"github.com/mantenix/inventory-service/pkg/errors"
)

// ListMovements handles GET /movements
func (h *Handlers) ListMovements(c *gin.Context) {
	session, ok := h.session(c)
	if !ok {
		return
	}

	from, to, appErr := timeRange(c)
	if appErr != nil {
		h.responder(c).RespondWithAppError(appErr)
		return
	}
	f := domain.MovementFilter{
		Type:            domain.MovementType(c.Query("type")),
		InventoryItemID: c.Query("inventoryItemId"),
		CompanyID:       c.Query("companyId"),
		WorkOrderID:     c.Query("workOrderId"),
		RequestID:       c.Query("requestId"),
		From:            from,
		To:              to,
	}
	if f.Type != "" && !f.Type.IsValid() {
		h.responder(c).RespondWithAppError(errors.ErrValidationWithFields("invalid query parameters",
			map[string]string{"type": "must be one of: TRANSFER, ADJUSTMENT"}))
		return
	}

	p, window := page(c)
	movements, total, err := h.movements.List(c.Request.Context(), session, f, window)
	if err != nil {
		h.fail(c, err)
		return
	}
	respondPage(c, movements, p, total)
}

// GetMovement handles GET /movements/:id
func (h *Handlers) GetMovement(c *gin.Context) {
	session, ok := h.session(c)
	if !ok {
		return
	}

	movement, err := h.movements.Get(c.Request.Context(), session, c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, movement)
}
