package application

import (
	"context"

	"github.com/mantenix/inventory-service/internal/domain"
)

// StockService exposes the ledger to people: reads, absolute adjustments
// and manual transfers.
type StockService struct {
	ledger *StockLedger
	engine *TransferEngine
	items  domain.ItemRepository
	authz  Authorizer
}

// NewStockService creates a StockService
func NewStockService(ledger *StockLedger, engine *TransferEngine, items domain.ItemRepository, authz Authorizer) *StockService {
	return &StockService{ledger: ledger, engine: engine, items: items, authz: authz}
}

// GetByItem returns every stock row of an item
func (s *StockService) GetByItem(ctx context.Context, session domain.Session, itemID string) ([]StockView, error) {
	item, err := visibleItem(ctx, s.items, session, itemID)
	if err != nil {
		return nil, err
	}
	rows, err := s.ledger.FindAllForItem(ctx, itemID)
	if err != nil {
		return nil, err
	}
	views := make([]StockView, len(rows))
	for i, row := range rows {
		views[i] = newStockView(row, item)
	}
	return views, nil
}

// GetByLocation returns the rows at loc for items the session can see
func (s *StockService) GetByLocation(ctx context.Context, session domain.Session, loc domain.Location) ([]StockView, error) {
	loc = loc.Normalize()
	if err := loc.Validate(); err != nil {
		return nil, err
	}
	rows, err := s.ledger.FindByLocation(ctx, loc)
	if err != nil {
		return nil, err
	}

	items := make(map[string]*domain.InventoryItem)
	views := make([]StockView, 0, len(rows))
	for _, row := range rows {
		item, seen := items[row.InventoryItemID]
		if !seen {
			item, err = visibleItem(ctx, s.items, session, row.InventoryItemID)
			if err != nil && !isNotFound(err) {
				return nil, err
			}
			items[row.InventoryItemID] = item
		}
		if item != nil {
			views = append(views, newStockView(row, item))
		}
	}
	return views, nil
}

// Adjust sets the physical count at a location
func (s *StockService) Adjust(ctx context.Context, session domain.Session, cmd AdjustStockCommand) (StockView, *domain.InventoryMovement, error) {
	if err := requireCapability(ctx, s.authz, session, domain.CapAdjustStock); err != nil {
		return StockView{}, nil, err
	}
	item, err := visibleItem(ctx, s.items, session, cmd.InventoryItemID)
	if err != nil {
		return StockView{}, nil, err
	}
	cmd.ActorID = session.UserID
	cmd.CompanyID = session.CompanyID
	cmd.CompanyGroupID = session.CompanyGroupID

	stock, movement, err := s.ledger.SetAbsolute(ctx, cmd)
	if err != nil {
		return StockView{}, nil, err
	}
	return newStockView(stock, item), movement, nil
}

// Transfer moves stock between two locations outside of any request
func (s *StockService) Transfer(ctx context.Context, session domain.Session, cmd TransferStockCommand) (*domain.InventoryMovement, error) {
	if err := requireCapability(ctx, s.authz, session, domain.CapTransferStock); err != nil {
		return nil, err
	}
	if _, err := visibleItem(ctx, s.items, session, cmd.InventoryItemID); err != nil {
		return nil, err
	}
	return s.engine.Transfer(ctx, domain.TransferCommand{
		InventoryItemID: cmd.InventoryItemID,
		From:            cmd.From,
		To:              cmd.To,
		Quantity:        cmd.Quantity,
		Reason:          cmd.Reason,
		WorkOrderID:     cmd.WorkOrderID,
		ActorID:         session.UserID,
		CompanyID:       session.CompanyID,
		CompanyGroupID:  session.CompanyGroupID,
	})
}
