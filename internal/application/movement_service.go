package application

import (
	"context"
	"errors"

	"github.com/mantenix/inventory-service/internal/domain"
)

// MovementService reads the movement log on behalf of a session
type MovementService struct {
	log *MovementLog
}

// NewMovementService creates a MovementService
func NewMovementService(log *MovementLog) *MovementService {
	return &MovementService{log: log}
}

// List returns one page of movements visible to the session
func (s *MovementService) List(ctx context.Context, session domain.Session, f domain.MovementFilter, page domain.Page) ([]*domain.InventoryMovement, int64, error) {
	return s.log.List(ctx, f, session.Scope(), page)
}

// Get returns a movement recorded by, or moving stock of, a company in scope
func (s *MovementService) Get(ctx context.Context, session domain.Session, id string) (*domain.InventoryMovement, error) {
	m, err := s.log.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	scope := session.Scope()
	if scope.Covers(m.CompanyID, m.CompanyGroupID) ||
		(m.FromCompanyID != "" && m.FromCompanyID == scope.CompanyID) ||
		(m.ToCompanyID != "" && m.ToCompanyID == scope.CompanyID) {
		return m, nil
	}
	return nil, domain.NewNotFoundError("inventory movement", id)
}

func isNotFound(err error) bool {
	return errors.Is(err, domain.ErrNotFound)
}
