package domain

import (
	"errors"
	"fmt"
	"strings"
)

// Domain error kinds. Match with errors.Is.
var (
	ErrForbidden                         = errors.New("forbidden")
	ErrNotFound                          = errors.New("resource not found")
	ErrInvalidQuantity                   = errors.New("invalid quantity")
	ErrInvalidInput                      = errors.New("invalid input")
	ErrRequestNotEditable                = errors.New("request is not editable in its current status")
	ErrInsufficientStock                 = errors.New("insufficient stock")
	ErrInsufficientStockAtChosenLocation = errors.New("insufficient stock at chosen location")
	ErrTransferFailed                    = errors.New("transfer failed")
	ErrDuplicateCode                     = errors.New("item code already exists")
	ErrConcurrentModification            = errors.New("resource was modified concurrently")
	ErrStockInvariant                    = errors.New("stock invariant violated")
	ErrInvalidMovement                   = errors.New("invalid movement")
)

// LocationAvailability is one line of a stock breakdown
type LocationAvailability struct {
	LocationID   string       `json:"locationId"`
	LocationType LocationType `json:"locationType"`
	LocationName string       `json:"locationName,omitempty"`
	Available    int64        `json:"available"`
}

func (a LocationAvailability) String() string {
	name := a.LocationName
	if name == "" {
		name = a.LocationID
	}
	return fmt.Sprintf("%s (%s): %d", name, a.LocationType, a.Available)
}

// StockError reports a quantity that cannot be satisfied. Kind is one of
// ErrInsufficientStock or ErrInsufficientStockAtChosenLocation.
type StockError struct {
	Kind      error
	ItemID    string
	Location  Location
	Requested int64
	Available int64
	Breakdown []LocationAvailability
}

func (e *StockError) Error() string {
	var b strings.Builder
	b.WriteString(e.Kind.Error())
	fmt.Fprintf(&b, ": item %s requested %d, available %d", e.ItemID, e.Requested, e.Available)
	if !e.Location.IsZero() {
		fmt.Fprintf(&b, " at %s", e.Location)
	}
	return b.String()
}

func (e *StockError) Unwrap() error { return e.Kind }

// NewInsufficientStockError builds the error for a missing or short row
func NewInsufficientStockError(itemID string, loc Location, requested, available int64) *StockError {
	return &StockError{
		Kind:      ErrInsufficientStock,
		ItemID:    itemID,
		Location:  loc,
		Requested: requested,
		Available: available,
	}
}

// TransferError wraps a failure after the source decrement. It matches both
// ErrTransferFailed and the underlying cause.
type TransferError struct {
	Step string
	Err  error
}

func (e *TransferError) Error() string {
	return fmt.Sprintf("%s during %s: %v", ErrTransferFailed, e.Step, e.Err)
}

func (e *TransferError) Unwrap() []error { return []error{ErrTransferFailed, e.Err} }

// NotFoundError names the missing resource
type NotFoundError struct {
	Resource string
	ID       string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s not found: %s", e.Resource, e.ID)
}

func (e *NotFoundError) Unwrap() error { return ErrNotFound }

// NewNotFoundError creates a NotFoundError
func NewNotFoundError(resource, id string) error {
	return &NotFoundError{Resource: resource, ID: id}
}
