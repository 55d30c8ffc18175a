package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// RequestStatus is the lifecycle state of an inventory request
type RequestStatus string

const (
	StatusPending               RequestStatus = "PENDING"
	StatusApproved              RequestStatus = "APPROVED"
	StatusRejected              RequestStatus = "REJECTED"
	StatusCancelled             RequestStatus = "CANCELLED"
	StatusInTransit             RequestStatus = "IN_TRANSIT"
	StatusReceivedAtDestination RequestStatus = "RECEIVED_AT_DESTINATION"
	StatusReadyForPickup        RequestStatus = "READY_FOR_PICKUP"
	StatusDelivered             RequestStatus = "DELIVERED"
)

var transitions = map[RequestStatus][]RequestStatus{
	StatusPending:               {StatusApproved, StatusRejected, StatusCancelled},
	StatusApproved:              {StatusInTransit, StatusReadyForPickup},
	StatusInTransit:             {StatusReceivedAtDestination},
	StatusReceivedAtDestination: {StatusReadyForPickup},
	StatusReadyForPickup:        {StatusDelivered},
}

// IsValid checks if the status is known
func (s RequestStatus) IsValid() bool {
	_, ok := transitions[s]
	return ok || s.IsTerminal()
}

// IsTerminal reports whether no further transition is possible
func (s RequestStatus) IsTerminal() bool {
	return s == StatusDelivered || s == StatusRejected || s == StatusCancelled
}

// CanTransitionTo reports whether next directly follows s
func (s RequestStatus) CanTransitionTo(next RequestStatus) bool {
	for _, allowed := range transitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// Urgency of a request
type Urgency string

const (
	UrgencyLow    Urgency = "LOW"
	UrgencyNormal Urgency = "NORMAL"
	UrgencyHigh   Urgency = "HIGH"
	UrgencyUrgent Urgency = "URGENT"
)

// IsValid checks if the urgency is valid
func (u Urgency) IsValid() bool {
	switch u {
	case UrgencyLow, UrgencyNormal, UrgencyHigh, UrgencyUrgent:
		return true
	default:
		return false
	}
}

// StatusChange is one entry of a request's status history
type StatusChange struct {
	Status  RequestStatus `bson:"status" json:"status"`
	ActorID string        `bson:"actorId" json:"actorId"`
	At      time.Time     `bson:"at" json:"at"`
	Notes   string        `bson:"notes,omitempty" json:"notes,omitempty"`
}

// InventoryRequest asks for stock of one item to be moved to a work order's
// destination. The ledger is touched once, at approval; later steps only
// record custody.
type InventoryRequest struct {
	ID                string `bson:"_id" json:"id"`
	WorkOrderID       string `bson:"workOrderId" json:"workOrderId"`
	InventoryItemID   string `bson:"inventoryItemId" json:"inventoryItemId"`
	ItemCode          string `bson:"itemCode,omitempty" json:"itemCode,omitempty"`
	ItemName          string `bson:"itemName,omitempty" json:"itemName,omitempty"`
	QuantityRequested int64  `bson:"quantityRequested" json:"quantityRequested"`
	QuantityApproved  *int64 `bson:"quantityApproved,omitempty" json:"quantityApproved,omitempty"`
	QuantityDelivered *int64 `bson:"quantityDelivered,omitempty" json:"quantityDelivered,omitempty"`

	Status  RequestStatus `bson:"status" json:"status"`
	Urgency Urgency       `bson:"urgency" json:"urgency"`

	SourceCompanyID         string       `bson:"sourceCompanyId,omitempty" json:"sourceCompanyId,omitempty"`
	SourceLocationID        string       `bson:"sourceLocationId,omitempty" json:"sourceLocationId,omitempty"`
	SourceLocationType      LocationType `bson:"sourceLocationType,omitempty" json:"sourceLocationType,omitempty"`
	DestinationLocationID   string       `bson:"destinationLocationId" json:"destinationLocationId"`
	DestinationLocationType LocationType `bson:"destinationLocationType" json:"destinationLocationType"`
	DestinationCompanyID    string       `bson:"destinationCompanyId,omitempty" json:"destinationCompanyId,omitempty"`

	RequestedBy string     `bson:"requestedBy" json:"requestedBy"`
	ReviewedBy  string     `bson:"reviewedBy,omitempty" json:"reviewedBy,omitempty"`
	ReviewedAt  *time.Time `bson:"reviewedAt,omitempty" json:"reviewedAt,omitempty"`
	ReviewNotes string     `bson:"reviewNotes,omitempty" json:"reviewNotes,omitempty"`

	WarehouseDeliveredBy           string     `bson:"warehouseDeliveredBy,omitempty" json:"warehouseDeliveredBy,omitempty"`
	WarehouseDeliveredAt           *time.Time `bson:"warehouseDeliveredAt,omitempty" json:"warehouseDeliveredAt,omitempty"`
	DestinationWarehouseReceivedBy string     `bson:"destinationWarehouseReceivedBy,omitempty" json:"destinationWarehouseReceivedBy,omitempty"`
	DestinationWarehouseReceivedAt *time.Time `bson:"destinationWarehouseReceivedAt,omitempty" json:"destinationWarehouseReceivedAt,omitempty"`
	ReceivedBy                     string     `bson:"receivedBy,omitempty" json:"receivedBy,omitempty"`
	ReceivedAt                     *time.Time `bson:"receivedAt,omitempty" json:"receivedAt,omitempty"`

	Notes         string         `bson:"notes,omitempty" json:"notes,omitempty"`
	StatusHistory []StatusChange `bson:"statusHistory" json:"statusHistory"`

	// Owning tenant, taken from the work order
	CompanyID      string `bson:"companyId" json:"companyId"`
	CompanyGroupID string `bson:"companyGroupId,omitempty" json:"companyGroupId,omitempty"`

	CreatedAt time.Time `bson:"createdAt" json:"createdAt"`
	UpdatedAt time.Time `bson:"updatedAt" json:"updatedAt"`
	Version   int64     `bson:"version" json:"version"`

	domainEvents []DomainEvent
}

// NewRequestParams carries everything needed to open a request
type NewRequestParams struct {
	WorkOrderID    string
	Item           *InventoryItem
	Quantity       int64
	Urgency        Urgency
	Source         Location
	Destination    Location
	RequestedBy    string
	Notes          string
	CompanyID      string
	CompanyGroupID string
}

// NewInventoryRequest creates a PENDING request
func NewInventoryRequest(p NewRequestParams, now time.Time) (*InventoryRequest, error) {
	if p.Quantity <= 0 {
		return nil, fmt.Errorf("%w: quantityRequested must be positive, got %d", ErrInvalidQuantity, p.Quantity)
	}
	if p.Item == nil || p.WorkOrderID == "" || p.RequestedBy == "" || p.CompanyID == "" {
		return nil, fmt.Errorf("%w: item, work order, requester and company are required", ErrInvalidInput)
	}
	if err := p.Destination.Validate(); err != nil {
		return nil, err
	}
	urgency := p.Urgency
	if urgency == "" {
		urgency = UrgencyNormal
	}
	if !urgency.IsValid() {
		return nil, fmt.Errorf("%w: invalid urgency %q", ErrInvalidInput, urgency)
	}
	if !p.Source.IsZero() {
		if err := p.Source.Validate(); err != nil {
			return nil, err
		}
	}

	r := &InventoryRequest{
		ID:                      uuid.NewString(),
		WorkOrderID:             p.WorkOrderID,
		InventoryItemID:         p.Item.ID,
		ItemCode:                p.Item.Code,
		ItemName:                p.Item.Name,
		QuantityRequested:       p.Quantity,
		Status:                  StatusPending,
		Urgency:                 urgency,
		SourceCompanyID:         p.Source.CompanyID,
		SourceLocationID:        p.Source.ID,
		SourceLocationType:      p.Source.Type,
		DestinationLocationID:   p.Destination.ID,
		DestinationLocationType: p.Destination.Type,
		DestinationCompanyID:    p.Destination.CompanyID,
		RequestedBy:             p.RequestedBy,
		Notes:                   strings.TrimSpace(p.Notes),
		CompanyID:               p.CompanyID,
		CompanyGroupID:          p.CompanyGroupID,
		CreatedAt:               now,
		UpdatedAt:               now,
		Version:                 1,
	}
	r.StatusHistory = []StatusChange{{Status: StatusPending, ActorID: p.RequestedBy, At: now}}
	r.record(requestCreatedEvent, p.RequestedBy, now)
	return r, nil
}

// Precondition captures the state a conditional write expects to replace
type Precondition struct {
	Status  RequestStatus
	Version int64
}

// Precondition returns the current status and version
func (r *InventoryRequest) Precondition() Precondition {
	return Precondition{Status: r.Status, Version: r.Version}
}

// Source returns the chosen source location, zero when none was chosen
func (r *InventoryRequest) Source() Location {
	return Location{ID: r.SourceLocationID, Type: r.SourceLocationType, CompanyID: r.SourceCompanyID}
}

// Destination returns the resolved destination location
func (r *InventoryRequest) Destination() Location {
	return Location{ID: r.DestinationLocationID, Type: r.DestinationLocationType, CompanyID: r.DestinationCompanyID}
}

// DestinationOwner is the company that receives the stock. Sites carry no
// company, so the request's own company receives on their behalf.
func (r *InventoryRequest) DestinationOwner() string {
	if r.DestinationCompanyID != "" {
		return r.DestinationCompanyID
	}
	return r.CompanyID
}

// SourceOwner is the company that hands the stock over, falling back to the
// request's company when the source carried none.
func (r *InventoryRequest) SourceOwner() string {
	if r.SourceCompanyID != "" {
		return r.SourceCompanyID
	}
	return r.CompanyID
}

// IsInterCompany reports whether the stock crosses a company boundary
func (r *InventoryRequest) IsInterCompany() bool {
	return r.SourceCompanyID != "" && r.SourceCompanyID != r.DestinationOwner()
}

// RequestChanges are the fields editable while PENDING. Nil means unchanged.
type RequestChanges struct {
	Quantity *int64
	Urgency  *Urgency
	Notes    *string
}

// Update edits a PENDING request
func (r *InventoryRequest) Update(c RequestChanges, actorID string, now time.Time) error {
	if r.Status != StatusPending {
		return r.notEditable("update")
	}
	if c.Quantity != nil && *c.Quantity <= 0 {
		return fmt.Errorf("%w: quantityRequested must be positive, got %d", ErrInvalidQuantity, *c.Quantity)
	}
	if c.Urgency != nil && !c.Urgency.IsValid() {
		return fmt.Errorf("%w: invalid urgency %q", ErrInvalidInput, *c.Urgency)
	}

	if c.Quantity != nil {
		r.QuantityRequested = *c.Quantity
	}
	if c.Urgency != nil {
		r.Urgency = *c.Urgency
	}
	if c.Notes != nil {
		r.Notes = strings.TrimSpace(*c.Notes)
	}
	r.touch(now)
	return nil
}

// ApprovalQuantity returns the quantity to transfer, defaulting to the
// requested one. It fails unless the request is PENDING.
func (r *InventoryRequest) ApprovalQuantity(approved *int64) (int64, error) {
	if r.Status != StatusPending {
		return 0, r.notEditable("approve")
	}
	if approved == nil {
		return r.QuantityRequested, nil
	}
	if *approved <= 0 || *approved > r.QuantityRequested {
		return 0, fmt.Errorf("%w: quantityApproved must be between 1 and %d, got %d",
			ErrInvalidQuantity, r.QuantityRequested, *approved)
	}
	return *approved, nil
}

// Approve records a successful transfer from source. The source company
// always follows the stock row the transfer drew from.
func (r *InventoryRequest) Approve(actorID string, qty int64, notes string, source Location, now time.Time) error {
	if _, err := r.ApprovalQuantity(&qty); err != nil {
		return err
	}
	return r.approve(actorID, qty, notes, source, now)
}

func (r *InventoryRequest) approve(actorID string, qty int64, notes string, source Location, now time.Time) error {
	if err := r.transition(StatusApproved, actorID, notes, now); err != nil {
		return err
	}
	r.QuantityApproved = &qty
	r.ReviewedBy = actorID
	r.ReviewedAt = &now
	r.ReviewNotes = notes
	r.SourceLocationID = source.ID
	r.SourceLocationType = source.Type
	if source.CompanyID != "" {
		r.SourceCompanyID = source.CompanyID
	}
	r.record(requestApprovedEvent, actorID, now)
	return nil
}

// Reject closes a PENDING request without touching the ledger
func (r *InventoryRequest) Reject(actorID, notes string, now time.Time) error {
	if err := r.transition(StatusRejected, actorID, notes, now); err != nil {
		return err
	}
	r.ReviewedBy = actorID
	r.ReviewedAt = &now
	r.ReviewNotes = notes
	r.record(requestRejectedEvent, actorID, now)
	return nil
}

// Cancel withdraws a PENDING request
func (r *InventoryRequest) Cancel(actorID, notes string, now time.Time) error {
	if err := r.transition(StatusCancelled, actorID, notes, now); err != nil {
		return err
	}
	r.record(requestCancelledEvent, actorID, now)
	return nil
}

// DeliverFromWarehouse hands the stock over at the source. Inter-company
// requests go in transit; the rest are ready for pickup straight away.
func (r *InventoryRequest) DeliverFromWarehouse(actorID string, now time.Time) error {
	if r.Status != StatusApproved {
		return r.notEditable("deliver")
	}
	next := StatusReadyForPickup
	if r.IsInterCompany() {
		next = StatusInTransit
	}
	if err := r.transition(next, actorID, "", now); err != nil {
		return err
	}
	r.WarehouseDeliveredBy = actorID
	r.WarehouseDeliveredAt = &now
	r.record(requestDispatchedEvent, actorID, now)
	return nil
}

// ReceiveAtDestination records arrival at the destination warehouse and makes
// the stock available for pickup in the same write.
func (r *InventoryRequest) ReceiveAtDestination(actorID string, now time.Time) error {
	if r.Status != StatusInTransit {
		return r.notEditable("receive")
	}
	if err := r.transition(StatusReceivedAtDestination, actorID, "", now); err != nil {
		return err
	}
	if err := r.transition(StatusReadyForPickup, actorID, "", now); err != nil {
		return err
	}
	r.DestinationWarehouseReceivedBy = actorID
	r.DestinationWarehouseReceivedAt = &now
	r.record(requestReceivedEvent, actorID, now)
	return nil
}

// ConfirmReceipt closes the request once the requester has the stock
func (r *InventoryRequest) ConfirmReceipt(actorID string, now time.Time) error {
	if err := r.transition(StatusDelivered, actorID, "", now); err != nil {
		return err
	}
	delivered := int64(0)
	if r.QuantityApproved != nil {
		delivered = *r.QuantityApproved
	}
	r.ReceivedBy = actorID
	r.ReceivedAt = &now
	r.QuantityDelivered = &delivered
	r.record(requestDeliveredEvent, actorID, now)
	return nil
}

// MarkApprovedFromMovement repairs a PENDING request whose transfer was
// already recorded by movement. The recorded quantity wins over the current
// requested quantity, since the ledger already moved it.
func (r *InventoryRequest) MarkApprovedFromMovement(m *InventoryMovement, now time.Time) error {
	if r.Status != StatusPending {
		return r.notEditable("reconcile")
	}
	if m.RequestID != r.ID || m.Type != MovementTransfer {
		return fmt.Errorf("%w: movement %s does not belong to request %s", ErrInvalidMovement, m.ID, r.ID)
	}
	if m.Quantity <= 0 {
		return fmt.Errorf("%w: movement %s carries no quantity", ErrInvalidMovement, m.ID)
	}
	source := Location{ID: m.FromLocationID, Type: m.FromLocationType, CompanyID: m.FromCompanyID}
	return r.approve(m.CreatedBy, m.Quantity, "recovered from recorded transfer", source, now)
}

// GetDomainEvents returns events raised since the last clear
func (r *InventoryRequest) GetDomainEvents() []DomainEvent {
	return r.domainEvents
}

// ClearDomainEvents drops raised events
func (r *InventoryRequest) ClearDomainEvents() {
	r.domainEvents = nil
}

func (r *InventoryRequest) transition(next RequestStatus, actorID, notes string, now time.Time) error {
	if !r.Status.CanTransitionTo(next) {
		return fmt.Errorf("%w: request %s cannot move from %s to %s", ErrRequestNotEditable, r.ID, r.Status, next)
	}
	r.Status = next
	r.StatusHistory = append(r.StatusHistory, StatusChange{Status: next, ActorID: actorID, At: now, Notes: notes})
	r.touch(now)
	return nil
}

func (r *InventoryRequest) touch(now time.Time) {
	r.UpdatedAt = now
	r.Version++
}

func (r *InventoryRequest) notEditable(op string) error {
	return fmt.Errorf("%w: cannot %s request %s in status %s", ErrRequestNotEditable, op, r.ID, r.Status)
}

func (r *InventoryRequest) record(eventType, actorID string, now time.Time) {
	r.domainEvents = append(r.domainEvents, newRequestEvent(eventType, r, actorID, now))
}
