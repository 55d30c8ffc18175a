package application

import (
	"context"
	"errors"
	"fmt"

	"github.com/mantenix/inventory-service/internal/domain"
	"github.com/mantenix/inventory-service/pkg/logging"
)

// reconcileBatch bounds the PENDING requests examined per run
const reconcileBatch = 500

// Reconciler finds PENDING requests whose transfer movement was recorded
// and approves them from that movement. Stock is never moved again.
type Reconciler struct {
	requests  domain.RequestRepository
	movements *MovementLog
	tx        Transactor
	events    EventPublisher
	metrics   Recorder
	clock     Clock
	logger    *logging.Logger
}

// NewReconciler creates a Reconciler
func NewReconciler(requests domain.RequestRepository, movements *MovementLog, tx Transactor, events EventPublisher, metrics Recorder, clock Clock, logger *logging.Logger) *Reconciler {
	if events == nil {
		events = NopPublisher
	}
	if metrics == nil {
		metrics = NopRecorder
	}
	if clock == nil {
		clock = SystemClock
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Reconciler{
		requests:  requests,
		movements: movements,
		tx:        tx,
		events:    events,
		metrics:   metrics,
		clock:     clock,
		logger:    logger.WithComponent("approval-reconciler"),
	}
}

// Run repairs what it can and returns the number of requests approved.
// A failure on one request is logged and does not stop the others.
func (r *Reconciler) Run(ctx context.Context) (int, error) {
	pending, err := r.requests.FindByStatus(ctx, domain.StatusPending, reconcileBatch)
	if err != nil {
		return 0, fmt.Errorf("failed to list pending requests: %w", err)
	}

	repaired := 0
	for _, candidate := range pending {
		if err := ctx.Err(); err != nil {
			return repaired, err
		}

		movement, err := r.movements.FindByRequest(ctx, candidate.ID)
		if errors.Is(err, domain.ErrNotFound) {
			continue
		}
		if err != nil {
			r.logger.WithContext(ctx).Warn("Movement lookup failed", "requestId", candidate.ID, "error", err)
			continue
		}

		if err := r.repair(ctx, candidate.ID, movement); err != nil {
			r.logger.WithContext(ctx).Warn("Reconciliation failed",
				"requestId", candidate.ID,
				"movementId", movement.ID,
				"error", err,
			)
			continue
		}
		repaired++
		r.logger.WithContext(ctx).Info("Recovered approval from recorded transfer",
			"requestId", candidate.ID,
			"movementId", movement.ID,
			"quantity", movement.Quantity,
			"approvedBy", movement.CreatedBy,
		)
	}

	if repaired > 0 {
		r.metrics.RecordReconciled(repaired)
	}
	return repaired, nil
}

func (r *Reconciler) repair(ctx context.Context, id string, movement *domain.InventoryMovement) error {
	return r.tx.WithTransaction(ctx, func(txCtx context.Context) error {
		req, err := r.requests.FindByID(txCtx, id)
		if err != nil {
			return err
		}
		pre := req.Precondition()
		if err := req.MarkApprovedFromMovement(movement, r.clock()); err != nil {
			return err
		}
		if err := r.requests.Update(txCtx, req, pre); err != nil {
			return err
		}
		if err := r.events.Publish(txCtx, req.GetDomainEvents()...); err != nil {
			return err
		}
		req.ClearDomainEvents()
		return nil
	})
}
