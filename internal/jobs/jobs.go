package jobs

import (
	"context"
	"time"

	"github.com/mantenix/inventory-service/pkg/logging"
)

// Job names
const (
	ReconcileApprovals = "reconcile-approvals"
	CleanIdempotency   = "clean-idempotency-keys"
	CleanOutbox        = "clean-outbox"
)

type approvalReconciler interface {
	Run(ctx context.Context) (int, error)
}

type keyCleaner interface {
	Clean(ctx context.Context, before time.Time) (int64, error)
}

type outboxCleaner interface {
	Cleanup(ctx context.Context, retention time.Duration) (int64, error)
}

// NewReconcileJob repairs PENDING requests whose transfer already committed
func NewReconcileJob(schedule string, r approvalReconciler) Job {
	return Job{
		Name:     ReconcileApprovals,
		Schedule: schedule,
		Run: func(ctx context.Context) error {
			_, err := r.Run(ctx)
			return err
		},
	}
}

// NewIdempotencyCleanupJob deletes expired idempotency keys
func NewIdempotencyCleanupJob(schedule string, repo keyCleaner, logger *logging.Logger) Job {
	return Job{
		Name:     CleanIdempotency,
		Schedule: schedule,
		Run: func(ctx context.Context) error {
			n, err := repo.Clean(ctx, time.Now().UTC())
			if err != nil {
				return err
			}
			if n > 0 {
				logger.WithContext(ctx).Info("Expired idempotency keys removed", "count", n)
			}
			return nil
		},
	}
}

// NewOutboxCleanupJob deletes outbox events published more than retention ago
func NewOutboxCleanupJob(schedule string, relay outboxCleaner, retention time.Duration, logger *logging.Logger) Job {
	return Job{
		Name:     CleanOutbox,
		Schedule: schedule,
		Run: func(ctx context.Context) error {
			n, err := relay.Cleanup(ctx, retention)
			if err != nil {
				return err
			}
			if n > 0 {
				logger.WithContext(ctx).Info("Published outbox events removed", "count", n)
			}
			return nil
		},
	}
}
