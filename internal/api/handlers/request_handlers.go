package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mantenix/inventory-service/internal/application"
	"github.com/mantenix/inventory-service/internal/domain"
	"github.com/mantenix/inventory-service/pkg/errors"
)

type createRequestBody struct {
	WorkOrderID        string `json:"workOrderId" binding:"required"`
	InventoryItemID    string `json:"inventoryItemId" binding:"required"`
	QuantityRequested  int64  `json:"quantityRequested" binding:"required,gt=0"`
	Urgency            string `json:"urgency" binding:"omitempty,urgency"`
	SourceCompanyID    string `json:"sourceCompanyId"`
	SourceLocationID   string `json:"sourceLocationId"`
	SourceLocationType string `json:"sourceLocationType" binding:"omitempty,location_type"`
	Notes              string `json:"notes" binding:"max=2000,safe_string"`
}

type updateRequestBody struct {
	QuantityRequested *int64  `json:"quantityRequested" binding:"omitempty,gt=0"`
	Urgency           *string `json:"urgency" binding:"omitempty,urgency"`
	Notes             *string `json:"notes" binding:"omitempty,max=2000,safe_string"`
}

type approveBody struct {
	QuantityApproved *int64 `json:"quantityApproved" binding:"omitempty,gt=0"`
	ReviewNotes      string `json:"reviewNotes" binding:"max=2000,safe_string"`
}

type reviewBody struct {
	ReviewNotes string `json:"reviewNotes" binding:"max=2000,safe_string"`
}

// CreateRequest handles POST /requests
func (h *Handlers) CreateRequest(c *gin.Context) {
	session, ok := h.session(c)
	if !ok {
		return
	}
	var body createRequestBody
	if !h.bind(c, &body) {
		return
	}

	cmd := application.CreateRequestCommand{
		WorkOrderID:     body.WorkOrderID,
		InventoryItemID: body.InventoryItemID,
		Quantity:        body.QuantityRequested,
		Urgency:         domain.Urgency(body.Urgency),
		Source: domain.Location{
			ID:        body.SourceLocationID,
			Type:      domain.LocationType(body.SourceLocationType),
			CompanyID: body.SourceCompanyID,
		},
		Notes: body.Notes,
	}

	req, err := h.requests.Create(c.Request.Context(), session, cmd)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, req)
}

// UpdateRequest handles PUT /requests/:id
func (h *Handlers) UpdateRequest(c *gin.Context) {
	session, ok := h.session(c)
	if !ok {
		return
	}
	var body updateRequestBody
	if !h.bind(c, &body) {
		return
	}

	changes := domain.RequestChanges{Quantity: body.QuantityRequested, Notes: body.Notes}
	if body.Urgency != nil {
		u := domain.Urgency(*body.Urgency)
		changes.Urgency = &u
	}

	req, err := h.requests.Update(c.Request.Context(), session, c.Param("id"), changes)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, req)
}

// ApproveRequest handles POST /requests/:id/approve. The body is optional.
func (h *Handlers) ApproveRequest(c *gin.Context) {
	session, ok := h.session(c)
	if !ok {
		return
	}
	var body approveBody
	if c.Request.ContentLength > 0 && !h.bind(c, &body) {
		return
	}

	req, err := h.requests.Approve(c.Request.Context(), session, application.ApproveRequestCommand{
		RequestID:        c.Param("id"),
		QuantityApproved: body.QuantityApproved,
		Notes:            body.ReviewNotes,
	})
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, req)
}

// RejectRequest handles POST /requests/:id/reject
func (h *Handlers) RejectRequest(c *gin.Context) {
	h.review(c, h.requests.Reject)
}

// CancelRequest handles POST /requests/:id/cancel
func (h *Handlers) CancelRequest(c *gin.Context) {
	h.review(c, h.requests.Cancel)
}

type reviewFunc func(ctx context.Context, session domain.Session, cmd application.ReviewCommand) (*domain.InventoryRequest, error)

func (h *Handlers) review(c *gin.Context, fn reviewFunc) {
	session, ok := h.session(c)
	if !ok {
		return
	}
	var body reviewBody
	if c.Request.ContentLength > 0 && !h.bind(c, &body) {
		return
	}

	req, err := fn(c.Request.Context(), session, application.ReviewCommand{RequestID: c.Param("id"), Notes: body.ReviewNotes})
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, req)
}

// DeliverRequest handles POST /requests/:id/deliver
func (h *Handlers) DeliverRequest(c *gin.Context) {
	h.custody(c, h.requests.DeliverFromWarehouse)
}

// ReceiveRequest handles POST /requests/:id/receive
func (h *Handlers) ReceiveRequest(c *gin.Context) {
	h.custody(c, h.requests.ReceiveAtDestination)
}

// ConfirmRequest handles POST /requests/:id/confirm
func (h *Handlers) ConfirmRequest(c *gin.Context) {
	h.custody(c, h.requests.ConfirmReceipt)
}

type custodyFunc func(ctx context.Context, session domain.Session, id string) (*domain.InventoryRequest, error)

func (h *Handlers) custody(c *gin.Context, fn custodyFunc) {
	session, ok := h.session(c)
	if !ok {
		return
	}

	req, err := fn(c.Request.Context(), session, c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, req)
}

// GetRequest handles GET /requests/:id
func (h *Handlers) GetRequest(c *gin.Context) {
	session, ok := h.session(c)
	if !ok {
		return
	}

	detail, err := h.requests.Get(c.Request.Context(), session, c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, detail)
}

// ListRequests handles GET /requests
func (h *Handlers) ListRequests(c *gin.Context) {
	session, ok := h.session(c)
	if !ok {
		return
	}

	from, to, appErr := timeRange(c)
	if appErr != nil {
		h.responder(c).RespondWithAppError(appErr)
		return
	}
	f := domain.RequestFilter{
		Urgency:         domain.Urgency(c.Query("urgency")),
		InventoryItemID: c.Query("inventoryItemId"),
		RequestedBy:     c.Query("requestedBy"),
		WorkOrderID:     c.Query("workOrderId"),
		From:            from,
		To:              to,
		Search:          c.Query("search"),
	}
	invalid := map[string]string{}
	for _, raw := range listValues(c, "status") {
		status := domain.RequestStatus(raw)
		if !status.IsValid() {
			invalid["status"] = "unknown status " + raw
			break
		}
		f.Statuses = append(f.Statuses, status)
	}
	if f.Urgency != "" && !f.Urgency.IsValid() {
		invalid["urgency"] = "must be one of: LOW, NORMAL, HIGH, URGENT"
	}
	if len(invalid) > 0 {
		h.responder(c).RespondWithAppError(errors.ErrValidationWithFields("invalid query parameters", invalid))
		return
	}

	p, window := page(c)
	requests, total, err := h.requests.List(c.Request.Context(), session, f, window)
	if err != nil {
		h.fail(c, err)
		return
	}
	respondPage(c, requests, p, total)
}
