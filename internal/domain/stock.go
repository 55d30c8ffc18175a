package domain

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// InventoryStock is the ledger row for one item at one location.
//
// quantity >= 0, reservedQuantity >= 0 and
// availableQuantity = quantity - reservedQuantity hold after every mutation.
type InventoryStock struct {
	ID                string       `bson:"_id" json:"id"`
	InventoryItemID   string       `bson:"inventoryItemId" json:"inventoryItemId"`
	LocationID        string       `bson:"locationId" json:"locationId"`
	LocationType      LocationType `bson:"locationType" json:"locationType"`
	LocationName      string       `bson:"locationName" json:"locationName"`
	CompanyID         string       `bson:"companyId,omitempty" json:"companyId,omitempty"`
	Quantity          int64        `bson:"quantity" json:"quantity"`
	ReservedQuantity  int64        `bson:"reservedQuantity" json:"reservedQuantity"`
	AvailableQuantity int64        `bson:"availableQuantity" json:"availableQuantity"`
	MinStock          int64        `bson:"minStock,omitempty" json:"minStock,omitempty"`
	MaxStock          int64        `bson:"maxStock,omitempty" json:"maxStock,omitempty"`
	LastCountDate     *time.Time   `bson:"lastCountDate,omitempty" json:"lastCountDate,omitempty"`
	Version           int64        `bson:"version" json:"version"`
	CreatedAt         time.Time    `bson:"createdAt" json:"createdAt"`
	UpdatedAt         time.Time    `bson:"updatedAt" json:"updatedAt"`
}

// NewInventoryStock creates an empty row for item at loc
func NewInventoryStock(itemID string, loc Location, name string, now time.Time) *InventoryStock {
	if name == "" {
		name = loc.ID
	}
	return &InventoryStock{
		ID:              uuid.NewString(),
		InventoryItemID: itemID,
		LocationID:      loc.ID,
		LocationType:    loc.Type,
		LocationName:    name,
		CompanyID:       loc.CompanyID,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
}

// Location returns the row's location including its owning company
func (s *InventoryStock) Location() Location {
	return Location{ID: s.LocationID, Type: s.LocationType, CompanyID: s.SourceCompanyID()}
}

// SourceCompanyID is the company that owns the stock. A warehouse is keyed by
// its company id, so it owns itself when no company was recorded.
func (s *InventoryStock) SourceCompanyID() string {
	if s.CompanyID != "" {
		return s.CompanyID
	}
	if s.LocationType == LocationWarehouse {
		return s.LocationID
	}
	return ""
}

// Availability converts the row into a breakdown line
func (s *InventoryStock) Availability() LocationAvailability {
	return LocationAvailability{
		LocationID:   s.LocationID,
		LocationType: s.LocationType,
		LocationName: s.LocationName,
		Available:    s.AvailableQuantity,
	}
}

// CheckInvariant returns ErrStockInvariant when the row is inconsistent
func (s *InventoryStock) CheckInvariant() error {
	if s.Quantity < 0 || s.ReservedQuantity < 0 || s.AvailableQuantity != s.Quantity-s.ReservedQuantity {
		return fmt.Errorf("%w: quantity=%d reserved=%d available=%d",
			ErrStockInvariant, s.Quantity, s.ReservedQuantity, s.AvailableQuantity)
	}
	return nil
}

// Increment adds qty to quantity and availability
func (s *InventoryStock) Increment(qty int64, now time.Time) error {
	if qty <= 0 {
		return fmt.Errorf("%w: increment must be positive, got %d", ErrInvalidQuantity, qty)
	}
	s.Quantity += qty
	s.AvailableQuantity += qty
	s.touch(now)
	return nil
}

// Decrement removes qty from the available part of the row
func (s *InventoryStock) Decrement(qty int64, now time.Time) error {
	if qty <= 0 {
		return fmt.Errorf("%w: decrement must be positive, got %d", ErrInvalidQuantity, qty)
	}
	if s.AvailableQuantity < qty {
		return NewInsufficientStockError(s.InventoryItemID, s.Location(), qty, s.AvailableQuantity)
	}
	s.Quantity -= qty
	s.AvailableQuantity -= qty
	s.touch(now)
	return nil
}

// SetAbsolute sets the physical count and returns the signed delta.
// Reservations larger than the new count are clamped to it.
func (s *InventoryStock) SetAbsolute(newQty int64, now time.Time) (int64, error) {
	if newQty < 0 {
		return 0, fmt.Errorf("%w: quantity must not be negative, got %d", ErrInvalidQuantity, newQty)
	}
	delta := newQty - s.Quantity
	s.Quantity = newQty
	if s.ReservedQuantity > newQty {
		s.ReservedQuantity = newQty
	}
	s.AvailableQuantity = newQty - s.ReservedQuantity
	s.LastCountDate = &now
	s.touch(now)
	return delta, nil
}

func (s *InventoryStock) touch(now time.Time) {
	s.Version++
	s.UpdatedAt = now
}
