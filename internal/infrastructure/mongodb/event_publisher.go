package mongodb

import (
	"context"
	"fmt"

	"github.com/mantenix/inventory-service/internal/domain"
	"github.com/mantenix/inventory-service/pkg/cloudevents"
	"github.com/mantenix/inventory-service/pkg/contracts/events"
	"github.com/mantenix/inventory-service/pkg/kafka"
	"github.com/mantenix/inventory-service/pkg/outbox"
)

// OutboxPublisher stages domain events in the outbox. Called with a
// transaction context, the events commit together with the state change.
type OutboxPublisher struct {
	repo      outbox.Repository
	factory   *cloudevents.EventFactory
	validator *events.Validator
}

// NewOutboxPublisher creates an OutboxPublisher. validator may be nil to
// skip payload validation.
func NewOutboxPublisher(repo outbox.Repository, factory *cloudevents.EventFactory, validator *events.Validator) *OutboxPublisher {
	return &OutboxPublisher{repo: repo, factory: factory, validator: validator}
}

// Publish wraps each event in a CloudEvent and saves them in one insert
func (p *OutboxPublisher) Publish(ctx context.Context, domainEvents ...domain.DomainEvent) error {
	if len(domainEvents) == 0 {
		return nil
	}

	staged := make([]*outbox.Entry, 0, len(domainEvents))
	for _, e := range domainEvents {
		topic := kafka.Topics.InventoryStock
		subject := "movements/" + e.AggregateID()
		if e.AggregateType() == domain.AggregateRequest {
			topic = kafka.Topics.InventoryRequests
			subject = "requests/" + e.AggregateID()
		}

		ce, err := p.factory.CreateEvent(ctx, e.EventType(), subject, e)
		if err != nil {
			return err
		}
		ce.WithTenant(e.Tenant())

		if p.validator != nil {
			if err := p.validator.Validate(ce); err != nil {
				return fmt.Errorf("event %s failed contract validation: %w", e.EventType(), err)
			}
		}

		entry, err := outbox.NewEntry(e.AggregateType(), e.AggregateID(), topic, ce)
		if err != nil {
			return fmt.Errorf("failed to stage outbox entry: %w", err)
		}
		staged = append(staged, entry)
	}
	return p.repo.SaveAll(ctx, staged)
}
