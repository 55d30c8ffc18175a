package outbox

import (
	"context"
	"time"
)

// Repository stores outbox entries. SaveAll must join the transaction
// carried by ctx, if any.
type Repository interface {
	SaveAll(ctx context.Context, entries []*Entry) error

	// FindDue returns unpublished entries with fewer than maxAttempts
	// attempts whose next attempt is not after now, oldest first.
	FindDue(ctx context.Context, now time.Time, maxAttempts, limit int) ([]*Entry, error)

	MarkPublished(ctx context.Context, id string, at time.Time) error

	// RecordFailure counts a failed attempt and defers the next one
	RecordFailure(ctx context.Context, id, reason string, nextAttempt time.Time) error

	// DeletePublished removes entries published before cutoff
	DeletePublished(ctx context.Context, cutoff time.Time) (int64, error)
}
