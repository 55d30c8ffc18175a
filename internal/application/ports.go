package application

import (
	"context"
	"fmt"
	"time"

	"github.com/mantenix/inventory-service/internal/domain"
)

// Authorizer is the permission authority
type Authorizer interface {
	HasCapability(ctx context.Context, session domain.Session, capability string) (bool, error)
	RequireCapability(ctx context.Context, session domain.Session, capability string) error
}

// Directory is the read-only work order, site, company and user directory.
// Lookups of unknown ids return an error matching domain.ErrNotFound.
type Directory interface {
	WorkOrder(ctx context.Context, id string) (*domain.DirectoryEntry, error)
	Site(ctx context.Context, id string) (*domain.DirectoryEntry, error)
	Company(ctx context.Context, id string) (*domain.DirectoryEntry, error)
	User(ctx context.Context, id string) (*domain.DirectoryEntry, error)
}

// Transactor runs fn in one storage transaction. Nested calls join the
// outer transaction. fn may be retried and must not keep side effects
// outside ctx.
type Transactor interface {
	WithTransaction(ctx context.Context, fn func(txCtx context.Context) error) error
}

// EventPublisher stages domain events. Called inside a transaction, the
// events commit or roll back with it.
type EventPublisher interface {
	Publish(ctx context.Context, events ...domain.DomainEvent) error
}

// NameCache caches resolved location names
type NameCache interface {
	Get(ctx context.Context, loc domain.Location) (string, bool)
	Set(ctx context.Context, loc domain.Location, name string)
}

// Recorder receives ledger metrics
type Recorder interface {
	RecordTransfer(outcome string, duration time.Duration)
	RecordAdjustment(delta int64)
	RecordRequestTransition(toStatus string)
	RecordReconciled(count int)
}

// Clock returns the current time
type Clock func() time.Time

// SystemClock returns UTC time truncated to the millisecond BSON stores
func SystemClock() time.Time {
	return time.Now().UTC().Truncate(time.Millisecond)
}

type nopRecorder struct{}

func (nopRecorder) RecordTransfer(string, time.Duration) {}
func (nopRecorder) RecordAdjustment(int64)               {}
func (nopRecorder) RecordRequestTransition(string)       {}
func (nopRecorder) RecordReconciled(int)                 {}

// NopRecorder discards metrics
var NopRecorder Recorder = nopRecorder{}

type nopPublisher struct{}

func (nopPublisher) Publish(context.Context, ...domain.DomainEvent) error { return nil }

// NopPublisher drops events
var NopPublisher EventPublisher = nopPublisher{}

func requireCapability(ctx context.Context, authz Authorizer, session domain.Session, capability string) error {
	if err := authz.RequireCapability(ctx, session, capability); err != nil {
		return fmt.Errorf("%s requires %s: %w", session.UserID, capability, err)
	}
	return nil
}
