package application

import (
	"context"
	"errors"
	"fmt"

	"github.com/mantenix/inventory-service/internal/domain"
	"github.com/mantenix/inventory-service/pkg/logging"
)

// StockLedger owns per item, per location quantities. Every mutation runs in
// its own transaction, or joins the caller's.
type StockLedger struct {
	stock     domain.StockRepository
	movements *MovementLog
	resolver  *LocationResolver
	tx        Transactor
	events    EventPublisher
	metrics   Recorder
	clock     Clock
	logger    *logging.Logger
}

// LedgerDeps groups the collaborators shared by the ledger and transfer engine
type LedgerDeps struct {
	Stock     domain.StockRepository
	Movements *MovementLog
	Resolver  *LocationResolver
	Tx        Transactor
	Events    EventPublisher
	Metrics   Recorder
	Clock     Clock
	Logger    *logging.Logger
}

func (d LedgerDeps) withDefaults() LedgerDeps {
	if d.Events == nil {
		d.Events = NopPublisher
	}
	if d.Metrics == nil {
		d.Metrics = NopRecorder
	}
	if d.Clock == nil {
		d.Clock = SystemClock
	}
	if d.Logger == nil {
		d.Logger = logging.NewNop()
	}
	return d
}

// NewStockLedger creates a StockLedger
func NewStockLedger(deps LedgerDeps) *StockLedger {
	deps = deps.withDefaults()
	return &StockLedger{
		stock:     deps.Stock,
		movements: deps.Movements,
		resolver:  deps.Resolver,
		tx:        deps.Tx,
		events:    deps.Events,
		metrics:   deps.Metrics,
		clock:     deps.Clock,
		logger:    deps.Logger.WithComponent("stock-ledger"),
	}
}

// Get returns the row for item at loc
func (l *StockLedger) Get(ctx context.Context, itemID string, loc domain.Location) (*domain.InventoryStock, error) {
	return l.stock.Get(ctx, itemID, loc)
}

// FindAllForItem returns every location holding a row for the item
func (l *StockLedger) FindAllForItem(ctx context.Context, itemID string) ([]*domain.InventoryStock, error) {
	return l.stock.FindAllForItem(ctx, itemID)
}

// FindByLocation returns every row at loc
func (l *StockLedger) FindByLocation(ctx context.Context, loc domain.Location) ([]*domain.InventoryStock, error) {
	return l.stock.FindByLocation(ctx, loc)
}

// Increment adds qty at loc, creating the row when absent
func (l *StockLedger) Increment(ctx context.Context, itemID string, loc domain.Location, qty int64) (*domain.InventoryStock, error) {
	if qty <= 0 {
		return nil, fmt.Errorf("%w: increment must be positive, got %d", domain.ErrInvalidQuantity, qty)
	}
	loc = loc.Normalize()
	name := l.resolver.ResolveName(ctx, loc)

	var stock *domain.InventoryStock
	err := l.tx.WithTransaction(ctx, func(txCtx context.Context) error {
		var err error
		stock, err = l.stock.Increment(txCtx, itemID, loc, name, qty)
		return err
	})
	return stock, err
}

// Decrement removes qty from the available quantity at loc
func (l *StockLedger) Decrement(ctx context.Context, itemID string, loc domain.Location, qty int64) (*domain.InventoryStock, error) {
	if qty <= 0 {
		return nil, fmt.Errorf("%w: decrement must be positive, got %d", domain.ErrInvalidQuantity, qty)
	}

	var stock *domain.InventoryStock
	err := l.tx.WithTransaction(ctx, func(txCtx context.Context) error {
		var err error
		stock, err = l.stock.Decrement(txCtx, itemID, loc.Normalize(), qty)
		return err
	})
	return stock, err
}

// AdjustStockCommand sets the physical count of an item at a location
type AdjustStockCommand struct {
	InventoryItemID string
	Location        domain.Location
	Quantity        int64
	Reason          string
	ActorID         string
	CompanyID       string
	CompanyGroupID  string
}

// SetAbsolute sets the count and records the signed difference as an
// ADJUSTMENT movement in the same transaction.
func (l *StockLedger) SetAbsolute(ctx context.Context, cmd AdjustStockCommand) (*domain.InventoryStock, *domain.InventoryMovement, error) {
	if cmd.Quantity < 0 {
		return nil, nil, fmt.Errorf("%w: quantity must not be negative, got %d", domain.ErrInvalidQuantity, cmd.Quantity)
	}
	loc := cmd.Location.Normalize()
	if err := loc.Validate(); err != nil {
		return nil, nil, err
	}
	name := l.resolver.ResolveName(ctx, loc)

	var (
		stock    *domain.InventoryStock
		movement *domain.InventoryMovement
		delta    int64
	)
	err := l.tx.WithTransaction(ctx, func(txCtx context.Context) error {
		now := l.clock()
		var err error
		stock, err = l.stock.Get(txCtx, cmd.InventoryItemID, loc)
		if errors.Is(err, domain.ErrNotFound) {
			stock = domain.NewInventoryStock(cmd.InventoryItemID, loc, name, now)
		} else if err != nil {
			return err
		}

		delta, err = stock.SetAbsolute(cmd.Quantity, now)
		if err != nil {
			return err
		}
		if err := l.stock.Save(txCtx, stock); err != nil {
			return err
		}

		movement = domain.NewAdjustmentMovement(stock, delta, cmd.Reason, cmd.ActorID, cmd.CompanyID, cmd.CompanyGroupID, now)
		if err := l.movements.Record(txCtx, movement); err != nil {
			return err
		}
		return l.events.Publish(txCtx, domain.NewStockMovedEvent(movement))
	})
	if err != nil {
		l.logger.WithContext(ctx).Warn("Stock adjustment failed",
			"inventoryItemId", cmd.InventoryItemID,
			"location", loc.String(),
			"error", err,
		)
		return nil, nil, err
	}

	l.metrics.RecordAdjustment(delta)
	l.logger.Audit(ctx, "adjust", "inventory_stock", stock.ID, cmd.ActorID, map[string]any{
		"inventoryItemId": cmd.InventoryItemID,
		"location":        loc.String(),
		"quantity":        cmd.Quantity,
		"delta":           delta,
		"reason":          cmd.Reason,
	})
	return stock, movement, nil
}
