package application

import (
	"context"
	"fmt"

	"github.com/mantenix/inventory-service/internal/domain"
	"github.com/mantenix/inventory-service/pkg/logging"
)

// ItemService manages the item catalog of the session's company
type ItemService struct {
	repo   domain.ItemRepository
	authz  Authorizer
	clock  Clock
	logger *logging.Logger
}

// NewItemService creates an ItemService
func NewItemService(repo domain.ItemRepository, authz Authorizer, clock Clock, logger *logging.Logger) *ItemService {
	if clock == nil {
		clock = SystemClock
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	return &ItemService{
		repo:   repo,
		authz:  authz,
		clock:  clock,
		logger: logger.WithComponent("item-service"),
	}
}

// Create adds an item owned by the session's company
func (s *ItemService) Create(ctx context.Context, session domain.Session, attrs domain.ItemAttributes) (*domain.InventoryItem, error) {
	if err := requireCapability(ctx, s.authz, session, domain.CapCreateItem); err != nil {
		return nil, err
	}
	item, err := domain.NewInventoryItem(session.CompanyID, session.CompanyGroupID, session.UserID, attrs, s.clock())
	if err != nil {
		return nil, err
	}
	if err := s.repo.Create(ctx, item); err != nil {
		return nil, err
	}
	s.logger.Audit(ctx, "create", "inventory_item", item.ID, session.UserID, map[string]any{
		"code": item.Code,
	})
	return item, nil
}

// Update replaces an item's catalog attributes
func (s *ItemService) Update(ctx context.Context, session domain.Session, id string, attrs domain.ItemAttributes) (*domain.InventoryItem, error) {
	if err := requireCapability(ctx, s.authz, session, domain.CapUpdateItem); err != nil {
		return nil, err
	}
	item, err := s.owned(ctx, session, id)
	if err != nil {
		return nil, err
	}
	if err := item.Update(attrs, s.clock()); err != nil {
		return nil, err
	}
	if err := s.repo.Update(ctx, item); err != nil {
		return nil, err
	}
	s.logger.Audit(ctx, "update", "inventory_item", item.ID, session.UserID, map[string]any{
		"code":     item.Code,
		"unitCost": item.UnitCost.String(),
	})
	return item, nil
}

// Deactivate soft-deletes an item. Its stock rows and movements remain.
func (s *ItemService) Deactivate(ctx context.Context, session domain.Session, id string) (*domain.InventoryItem, error) {
	if err := requireCapability(ctx, s.authz, session, domain.CapDeleteItem); err != nil {
		return nil, err
	}
	item, err := s.owned(ctx, session, id)
	if err != nil {
		return nil, err
	}
	if !item.IsActive {
		return item, nil
	}
	item.Deactivate(s.clock())
	if err := s.repo.Update(ctx, item); err != nil {
		return nil, err
	}
	s.logger.Audit(ctx, "deactivate", "inventory_item", item.ID, session.UserID, nil)
	return item, nil
}

// Get returns an item visible to the session
func (s *ItemService) Get(ctx context.Context, session domain.Session, id string) (*domain.InventoryItem, error) {
	return visibleItem(ctx, s.repo, session, id)
}

// List returns one page of items visible to the session
func (s *ItemService) List(ctx context.Context, session domain.Session, f domain.ItemFilter, page domain.Page) ([]*domain.InventoryItem, int64, error) {
	return s.repo.List(ctx, f, session.Scope(), page)
}

// owned returns an item the session's company may change. Group members see
// each other's items but only the owner edits them.
func (s *ItemService) owned(ctx context.Context, session domain.Session, id string) (*domain.InventoryItem, error) {
	item, err := visibleItem(ctx, s.repo, session, id)
	if err != nil {
		return nil, err
	}
	if item.CompanyID != session.CompanyID {
		return nil, fmt.Errorf("%w: item %s belongs to company %s", domain.ErrForbidden, id, item.CompanyID)
	}
	return item, nil
}

func visibleItem(ctx context.Context, repo domain.ItemRepository, session domain.Session, id string) (*domain.InventoryItem, error) {
	item, err := repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !session.Scope().Covers(item.CompanyID, item.CompanyGroupID) {
		return nil, domain.NewNotFoundError("inventory item", id)
	}
	return item, nil
}
