package directory

import (
	"context"
	"errors"
	"log/slog"

	"github.com/mantenix/inventory-service/internal/application"
	"github.com/mantenix/inventory-service/internal/domain"
	"github.com/mantenix/inventory-service/pkg/resilience"
)

// Resilient guards a directory with a circuit breaker and retries transient
// failures. Unknown ids are answers, not failures, and never trip the
// breaker or get retried.
type Resilient struct {
	next    application.Directory
	breaker *resilience.CircuitBreaker
	retry   *resilience.RetryConfig
}

// NewResilient wraps next. observer may be nil.
func NewResilient(next application.Directory, logger *slog.Logger, observer resilience.StateObserver) *Resilient {
	cbConfig := resilience.DefaultCircuitBreakerConfig("directory")
	cbConfig.IsSuccessful = isNotFound

	retry := resilience.DefaultRetryConfig()
	retry.RetryableErrors = func(err error) bool {
		return !isNotFound(err) && !errors.Is(err, resilience.ErrCircuitOpen)
	}

	return &Resilient{
		next:    next,
		breaker: resilience.NewCircuitBreaker(cbConfig, logger, observer),
		retry:   retry,
	}
}

func (r *Resilient) WorkOrder(ctx context.Context, id string) (*domain.DirectoryEntry, error) {
	return r.call(ctx, func(ctx context.Context) (*domain.DirectoryEntry, error) { return r.next.WorkOrder(ctx, id) })
}

func (r *Resilient) Site(ctx context.Context, id string) (*domain.DirectoryEntry, error) {
	return r.call(ctx, func(ctx context.Context) (*domain.DirectoryEntry, error) { return r.next.Site(ctx, id) })
}

func (r *Resilient) Company(ctx context.Context, id string) (*domain.DirectoryEntry, error) {
	return r.call(ctx, func(ctx context.Context) (*domain.DirectoryEntry, error) { return r.next.Company(ctx, id) })
}

func (r *Resilient) User(ctx context.Context, id string) (*domain.DirectoryEntry, error) {
	return r.call(ctx, func(ctx context.Context) (*domain.DirectoryEntry, error) { return r.next.User(ctx, id) })
}

func (r *Resilient) call(ctx context.Context, fn func(context.Context) (*domain.DirectoryEntry, error)) (*domain.DirectoryEntry, error) {
	var entry *domain.DirectoryEntry
	err := resilience.Retry(ctx, r.retry, func(ctx context.Context) error {
		var err error
		entry, err = resilience.Execute(ctx, r.breaker, fn)
		return err
	})
	if err != nil {
		return nil, err
	}
	return entry, nil
}

// State exposes the breaker state for readiness reporting
func (r *Resilient) State() string {
	return r.breaker.State().String()
}

func isNotFound(err error) bool {
	return errors.Is(err, domain.ErrNotFound)
}
