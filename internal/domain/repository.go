package domain

import (
	"context"

	"github.com/mantenix/inventory-service/pkg/tenant"
)

// Page is a one-based page window
type Page struct {
	Number int64
	Size   int64
}

// Offset returns the number of rows to skip
func (p Page) Offset() int64 {
	if p.Number < 1 {
		return 0
	}
	return (p.Number - 1) * p.Size
}

// ItemRepository persists catalog items
type ItemRepository interface {
	Create(ctx context.Context, item *InventoryItem) error
	Update(ctx context.Context, item *InventoryItem) error
	FindByID(ctx context.Context, id string) (*InventoryItem, error)
	List(ctx context.Context, f ItemFilter, scope tenant.Scope, page Page) ([]*InventoryItem, int64, error)
}

// StockRepository is the stock ledger store. Increment and Decrement are
// single conditional writes; Decrement never lets availableQuantity go
// below zero.
type StockRepository interface {
	Get(ctx context.Context, itemID string, loc Location) (*InventoryStock, error)
	FindAllForItem(ctx context.Context, itemID string) ([]*InventoryStock, error)
	FindByLocation(ctx context.Context, loc Location) ([]*InventoryStock, error)

	// Increment creates the row named name when absent
	Increment(ctx context.Context, itemID string, loc Location, name string, qty int64) (*InventoryStock, error)
	Decrement(ctx context.Context, itemID string, loc Location, qty int64) (*InventoryStock, error)

	// Save writes stock when its stored version is stock.Version-1, or inserts it
	// when stock.Version is 1.
	Save(ctx context.Context, stock *InventoryStock) error
}

// MovementRepository is the append-only movement log
type MovementRepository interface {
	Append(ctx context.Context, m *InventoryMovement) error
	FindByID(ctx context.Context, id string) (*InventoryMovement, error)
	FindTransferByRequest(ctx context.Context, requestID string) (*InventoryMovement, error)
	List(ctx context.Context, f MovementFilter, scope tenant.Scope, page Page) ([]*InventoryMovement, int64, error)
}

// RequestRepository persists inventory requests
type RequestRepository interface {
	Create(ctx context.Context, r *InventoryRequest) error

	// Update replaces r only when the stored request still matches pre;
	// otherwise it returns ErrConcurrentModification.
	Update(ctx context.Context, r *InventoryRequest, pre Precondition) error

	FindByID(ctx context.Context, id string) (*InventoryRequest, error)
	FindByStatus(ctx context.Context, status RequestStatus, limit int64) ([]*InventoryRequest, error)
	List(ctx context.Context, f RequestFilter, scope tenant.Scope, page Page) ([]*InventoryRequest, int64, error)
}
