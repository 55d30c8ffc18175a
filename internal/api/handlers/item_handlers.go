package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"github.com/mantenix/inventory-service/internal/domain"
	"github.com/mantenix/inventory-service/pkg/errors"
)

type itemBody struct {
	Code         string          `json:"code" binding:"required,item_code"`
	Name         string          `json:"name" binding:"required,max=200,safe_string"`
	Description  string          `json:"description" binding:"max=2000,safe_string"`
	Category     string          `json:"category" binding:"max=100,safe_string"`
	Unit         string          `json:"unit" binding:"max=30"`
	MinStock     int64           `json:"minStock" binding:"gte=0"`
	MaxStock     int64           `json:"maxStock" binding:"gte=0"`
	ReorderPoint int64           `json:"reorderPoint" binding:"gte=0"`
	UnitCost     decimal.Decimal `json:"unitCost"`
}

func (b itemBody) attributes() domain.ItemAttributes {
	return domain.ItemAttributes{
		Code:         b.Code,
		Name:         b.Name,
		Description:  b.Description,
		Category:     b.Category,
		Unit:         b.Unit,
		MinStock:     b.MinStock,
		MaxStock:     b.MaxStock,
		ReorderPoint: b.ReorderPoint,
		UnitCost:     b.UnitCost,
	}
}

// CreateItem handles POST /items
func (h *Handlers) CreateItem(c *gin.Context) {
	session, ok := h.session(c)
	if !ok {
		return
	}
	var body itemBody
	if !h.bind(c, &body) {
		return
	}

	item, err := h.items.Create(c.Request.Context(), session, body.attributes())
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, item)
}

// UpdateItem handles PUT /items/:id
func (h *Handlers) UpdateItem(c *gin.Context) {
	session, ok := h.session(c)
	if !ok {
		return
	}
	var body itemBody
	if !h.bind(c, &body) {
		return
	}

	item, err := h.items.Update(c.Request.Context(), session, c.Param("id"), body.attributes())
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, item)
}

// DeactivateItem handles DELETE /items/:id. Items are soft-deleted.
func (h *Handlers) DeactivateItem(c *gin.Context) {
	session, ok := h.session(c)
	if !ok {
		return
	}

	item, err := h.items.Deactivate(c.Request.Context(), session, c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, item)
}

// GetItem handles GET /items/:id
func (h *Handlers) GetItem(c *gin.Context) {
	session, ok := h.session(c)
	if !ok {
		return
	}

	item, err := h.items.Get(c.Request.Context(), session, c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, item)
}

// ListItems handles GET /items
func (h *Handlers) ListItems(c *gin.Context) {
	session, ok := h.session(c)
	if !ok {
		return
	}

	f := domain.ItemFilter{
		Search:   c.Query("search"),
		Category: c.Query("category"),
	}
	if raw := c.Query("isActive"); raw != "" {
		active, err := strconv.ParseBool(raw)
		if err != nil {
			h.responder(c).RespondWithAppError(errors.ErrValidationWithFields("invalid query parameters",
				map[string]string{"isActive": "must be true or false"}))
			return
		}
		f.IsActive = &active
	}

	p, window := page(c)
	items, total, err := h.items.List(c.Request.Context(), session, f, window)
	if err != nil {
		h.fail(c, err)
		return
	}
	respondPage(c, items, p, total)
}
