package application

import (
	"context"
	"fmt"

	"github.com/mantenix/inventory-service/internal/domain"
	"github.com/mantenix/inventory-service/pkg/tenant"
)

// MovementLog is the append-only audit trail of quantity changes
type MovementLog struct {
	repo domain.MovementRepository
}

// NewMovementLog creates a MovementLog
func NewMovementLog(repo domain.MovementRepository) *MovementLog {
	return &MovementLog{repo: repo}
}

// Record validates required fields and appends m
func (l *MovementLog) Record(ctx context.Context, m *domain.InventoryMovement) error {
	if err := m.Validate(); err != nil {
		return err
	}
	if err := l.repo.Append(ctx, m); err != nil {
		return fmt.Errorf("failed to record movement: %w", err)
	}
	return nil
}

// FindByID returns one movement
func (l *MovementLog) FindByID(ctx context.Context, id string) (*domain.InventoryMovement, error) {
	return l.repo.FindByID(ctx, id)
}

// FindByRequest returns the transfer recorded for a request, or an error
// matching domain.ErrNotFound.
func (l *MovementLog) FindByRequest(ctx context.Context, requestID string) (*domain.InventoryMovement, error) {
	return l.repo.FindTransferByRequest(ctx, requestID)
}

// List returns one page of movements visible in scope, newest first
func (l *MovementLog) List(ctx context.Context, f domain.MovementFilter, scope tenant.Scope, page domain.Page) ([]*domain.InventoryMovement, int64, error) {
	return l.repo.List(ctx, f, scope, page)
}
