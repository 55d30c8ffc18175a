package domain

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// MovementType classifies a ledger change
type MovementType string

const (
	MovementTransfer   MovementType = "TRANSFER"
	MovementAdjustment MovementType = "ADJUSTMENT"
)

// IsValid checks if the movement type is valid
func (t MovementType) IsValid() bool {
	return t == MovementTransfer || t == MovementAdjustment
}

// InventoryMovement is an immutable audit entry for one quantity change.
// Quantity is the magnitude; Delta carries the sign of an adjustment. A
// recount that changes nothing is still recorded with zero quantity.
type InventoryMovement struct {
	ID               string       `bson:"_id" json:"id"`
	Type             MovementType `bson:"type" json:"type"`
	InventoryItemID  string       `bson:"inventoryItemId" json:"inventoryItemId"`
	FromLocationID   string       `bson:"fromLocationId,omitempty" json:"fromLocationId,omitempty"`
	FromLocationType LocationType `bson:"fromLocationType,omitempty" json:"fromLocationType,omitempty"`
	FromLocationName string       `bson:"fromLocationName,omitempty" json:"fromLocationName,omitempty"`
	FromCompanyID    string       `bson:"fromCompanyId,omitempty" json:"fromCompanyId,omitempty"`
	ToLocationID     string       `bson:"toLocationId,omitempty" json:"toLocationId,omitempty"`
	ToLocationType   LocationType `bson:"toLocationType,omitempty" json:"toLocationType,omitempty"`
	ToLocationName   string       `bson:"toLocationName,omitempty" json:"toLocationName,omitempty"`
	ToCompanyID      string       `bson:"toCompanyId,omitempty" json:"toCompanyId,omitempty"`
	Quantity         int64        `bson:"quantity" json:"quantity"`
	Delta            int64        `bson:"delta,omitempty" json:"delta,omitempty"`
	Reason           string       `bson:"reason,omitempty" json:"reason,omitempty"`
	WorkOrderID      string       `bson:"workOrderId,omitempty" json:"workOrderId,omitempty"`
	RequestID        string       `bson:"requestId,omitempty" json:"requestId,omitempty"`

	// Tenant that caused the movement
	CompanyID      string `bson:"companyId" json:"companyId"`
	CompanyGroupID string `bson:"companyGroupId,omitempty" json:"companyGroupId,omitempty"`

	CreatedBy string    `bson:"createdBy" json:"createdBy"`
	CreatedAt time.Time `bson:"createdAt" json:"createdAt"`
}

// TransferCommand moves Quantity units of an item between two locations
type TransferCommand struct {
	InventoryItemID string
	From            Location
	To              Location
	Quantity        int64
	Reason          string
	WorkOrderID     string
	RequestID       string
	ActorID         string
	CompanyID       string
	CompanyGroupID  string
}

// Validate checks the command before any ledger work
func (c TransferCommand) Validate() error {
	if c.InventoryItemID == "" {
		return fmt.Errorf("%w: inventoryItemId is required", ErrInvalidInput)
	}
	if c.Quantity <= 0 {
		return fmt.Errorf("%w: transfer quantity must be positive, got %d", ErrInvalidQuantity, c.Quantity)
	}
	if err := c.From.Validate(); err != nil {
		return err
	}
	if err := c.To.Validate(); err != nil {
		return err
	}
	if c.From.SameAs(c.To) {
		return fmt.Errorf("%w: source and destination are the same location", ErrInvalidInput)
	}
	return nil
}

// NewTransferMovement builds the TRANSFER entry for a completed transfer
func NewTransferMovement(cmd TransferCommand, fromName, toName string, now time.Time) *InventoryMovement {
	return &InventoryMovement{
		ID:               uuid.NewString(),
		Type:             MovementTransfer,
		InventoryItemID:  cmd.InventoryItemID,
		FromLocationID:   cmd.From.ID,
		FromLocationType: cmd.From.Type,
		FromLocationName: fromName,
		FromCompanyID:    cmd.From.CompanyID,
		ToLocationID:     cmd.To.ID,
		ToLocationType:   cmd.To.Type,
		ToLocationName:   toName,
		ToCompanyID:      cmd.To.CompanyID,
		Quantity:         cmd.Quantity,
		Reason:           cmd.Reason,
		WorkOrderID:      cmd.WorkOrderID,
		RequestID:        cmd.RequestID,
		CompanyID:        cmd.CompanyID,
		CompanyGroupID:   cmd.CompanyGroupID,
		CreatedBy:        cmd.ActorID,
		CreatedAt:        now,
	}
}

// NewAdjustmentMovement records a signed change at stock's location. A
// decrease is recorded as leaving the location, an increase as arriving.
func NewAdjustmentMovement(stock *InventoryStock, delta int64, reason, actorID, companyID, groupID string, now time.Time) *InventoryMovement {
	m := &InventoryMovement{
		ID:              uuid.NewString(),
		Type:            MovementAdjustment,
		InventoryItemID: stock.InventoryItemID,
		Quantity:        abs(delta),
		Delta:           delta,
		Reason:          reason,
		CompanyID:       companyID,
		CompanyGroupID:  groupID,
		CreatedBy:       actorID,
		CreatedAt:       now,
	}
	if delta < 0 {
		m.FromLocationID = stock.LocationID
		m.FromLocationType = stock.LocationType
		m.FromLocationName = stock.LocationName
		m.FromCompanyID = stock.CompanyID
	} else {
		m.ToLocationID = stock.LocationID
		m.ToLocationType = stock.LocationType
		m.ToLocationName = stock.LocationName
		m.ToCompanyID = stock.CompanyID
	}
	return m
}

// Validate checks required fields before the entry is appended
func (m *InventoryMovement) Validate() error {
	switch {
	case !m.Type.IsValid():
		return fmt.Errorf("%w: unknown type %q", ErrInvalidMovement, m.Type)
	case m.InventoryItemID == "":
		return fmt.Errorf("%w: inventoryItemId is required", ErrInvalidMovement)
	case m.Quantity < 0, m.Type == MovementTransfer && m.Quantity == 0:
		return fmt.Errorf("%w: invalid quantity %d", ErrInvalidMovement, m.Quantity)
	case m.FromLocationID == "" && m.ToLocationID == "":
		return fmt.Errorf("%w: a from or to location is required", ErrInvalidMovement)
	}
	return nil
}

func abs(v int64) int64 {
	if v < 0 {
		return -v
	}
	return v
}
