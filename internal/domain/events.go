package domain

import "time"

// Event types raised by the domain
const (
	requestCreatedEvent    = "inventory.request.created"
	requestApprovedEvent   = "inventory.request.approved"
	requestRejectedEvent   = "inventory.request.rejected"
	requestCancelledEvent  = "inventory.request.cancelled"
	requestDispatchedEvent = "inventory.request.dispatched"
	requestReceivedEvent   = "inventory.request.received"
	requestDeliveredEvent  = "inventory.request.delivered"

	stockTransferredEvent = "inventory.stock.transferred"
	stockAdjustedEvent    = "inventory.stock.adjusted"
)

// Aggregate types used as outbox aggregate names
const (
	AggregateRequest  = "InventoryRequest"
	AggregateMovement = "InventoryMovement"
)

// DomainEvent is the interface for all domain events
type DomainEvent interface {
	EventType() string
	AggregateID() string
	AggregateType() string
	OccurredAt() time.Time
	Tenant() (companyID, groupID string)
}

// RequestEvent is raised on every request status change
type RequestEvent struct {
	Type                    string        `json:"-"`
	RequestID               string        `json:"requestId"`
	WorkOrderID             string        `json:"workOrderId"`
	InventoryItemID         string        `json:"inventoryItemId"`
	Status                  RequestStatus `json:"status"`
	QuantityRequested       int64         `json:"quantityRequested"`
	QuantityApproved        *int64        `json:"quantityApproved,omitempty"`
	QuantityDelivered       *int64        `json:"quantityDelivered,omitempty"`
	SourceLocationID        string        `json:"sourceLocationId,omitempty"`
	SourceLocationType      LocationType  `json:"sourceLocationType,omitempty"`
	DestinationLocationID   string        `json:"destinationLocationId,omitempty"`
	DestinationLocationType LocationType  `json:"destinationLocationType,omitempty"`
	ActorID                 string        `json:"actorId"`
	CompanyID               string        `json:"companyId"`
	CompanyGroupID          string        `json:"companyGroupId,omitempty"`
	Notes                   string        `json:"notes,omitempty"`
	At                      time.Time     `json:"occurredAt"`
}

func newRequestEvent(eventType string, r *InventoryRequest, actorID string, now time.Time) *RequestEvent {
	return &RequestEvent{
		Type:                    eventType,
		RequestID:               r.ID,
		WorkOrderID:             r.WorkOrderID,
		InventoryItemID:         r.InventoryItemID,
		Status:                  r.Status,
		QuantityRequested:       r.QuantityRequested,
		QuantityApproved:        r.QuantityApproved,
		QuantityDelivered:       r.QuantityDelivered,
		SourceLocationID:        r.SourceLocationID,
		SourceLocationType:      r.SourceLocationType,
		DestinationLocationID:   r.DestinationLocationID,
		DestinationLocationType: r.DestinationLocationType,
		ActorID:                 actorID,
		CompanyID:               r.CompanyID,
		CompanyGroupID:          r.CompanyGroupID,
		Notes:                   r.ReviewNotes,
		At:                      now,
	}
}

func (e *RequestEvent) EventType() string        { return e.Type }
func (e *RequestEvent) AggregateID() string      { return e.RequestID }
func (e *RequestEvent) AggregateType() string    { return AggregateRequest }
func (e *RequestEvent) OccurredAt() time.Time    { return e.At }
func (e *RequestEvent) Tenant() (string, string) { return e.CompanyID, e.CompanyGroupID }

// StockMovedEvent is raised for every appended movement
type StockMovedEvent struct {
	MovementID       string       `json:"movementId"`
	Type             MovementType `json:"type"`
	InventoryItemID  string       `json:"inventoryItemId"`
	FromLocationID   string       `json:"fromLocationId,omitempty"`
	FromLocationType LocationType `json:"fromLocationType,omitempty"`
	ToLocationID     string       `json:"toLocationId,omitempty"`
	ToLocationType   LocationType `json:"toLocationType,omitempty"`
	Quantity         int64        `json:"quantity"`
	Delta            int64        `json:"delta,omitempty"`
	RequestID        string       `json:"requestId,omitempty"`
	WorkOrderID      string       `json:"workOrderId,omitempty"`
	Reason           string       `json:"reason,omitempty"`
	CreatedBy        string       `json:"createdBy"`
	CompanyID        string       `json:"companyId"`
	CompanyGroupID   string       `json:"companyGroupId,omitempty"`
	At               time.Time    `json:"occurredAt"`
}

// NewStockMovedEvent describes m
func NewStockMovedEvent(m *InventoryMovement) *StockMovedEvent {
	return &StockMovedEvent{
		MovementID:       m.ID,
		Type:             m.Type,
		InventoryItemID:  m.InventoryItemID,
		FromLocationID:   m.FromLocationID,
		FromLocationType: m.FromLocationType,
		ToLocationID:     m.ToLocationID,
		ToLocationType:   m.ToLocationType,
		Quantity:         m.Quantity,
		Delta:            m.Delta,
		RequestID:        m.RequestID,
		WorkOrderID:      m.WorkOrderID,
		Reason:           m.Reason,
		CreatedBy:        m.CreatedBy,
		CompanyID:        m.CompanyID,
		CompanyGroupID:   m.CompanyGroupID,
		At:               m.CreatedAt,
	}
}

func (e *StockMovedEvent) EventType() string {
	if e.Type == MovementAdjustment {
		return stockAdjustedEvent
	}
	return stockTransferredEvent
}
func (e *StockMovedEvent) AggregateID() string      { return e.MovementID }
func (e *StockMovedEvent) AggregateType() string    { return AggregateMovement }
func (e *StockMovedEvent) OccurredAt() time.Time    { return e.At }
func (e *StockMovedEvent) Tenant() (string, string) { return e.CompanyID, e.CompanyGroupID }
