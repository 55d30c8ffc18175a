package kafka

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/mantenix/inventory-service/pkg/cloudevents"
	"github.com/mantenix/inventory-service/pkg/logging"
	"github.com/mantenix/inventory-service/pkg/metrics"
	"github.com/mantenix/inventory-service/pkg/resilience"
	"github.com/mantenix/inventory-service/pkg/tracing"
)

// EventPublisher publishes one CloudEvent to a topic
type EventPublisher interface {
	PublishEvent(ctx context.Context, topic string, event *cloudevents.Event) error
}

// InstrumentedProducer wraps a publisher with a circuit breaker, metrics and tracing
type InstrumentedProducer struct {
	next    EventPublisher
	breaker *resilience.CircuitBreaker
	metrics *metrics.Metrics
	logger  *logging.Logger
	tracer  trace.Tracer
}

// NewInstrumentedProducer creates a new instrumented producer. m may be nil.
func NewInstrumentedProducer(next EventPublisher, m *metrics.Metrics, logger *logging.Logger) *InstrumentedProducer {
	cfg := resilience.DefaultCircuitBreakerConfig("kafka-producer")
	cfg.MaxRequests = 5

	var observer resilience.StateObserver
	if m != nil {
		observer = m
	}

	return &InstrumentedProducer{
		next:    next,
		breaker: resilience.NewCircuitBreaker(cfg, logger.Logger, observer),
		metrics: m,
		logger:  logger,
		tracer:  otel.Tracer("kafka-producer"),
	}
}

// PublishEvent publishes through the breaker and records the outcome
func (p *InstrumentedProducer) PublishEvent(ctx context.Context, topic string, event *cloudevents.Event) error {
	start := time.Now()

	ctx, span := p.tracer.Start(ctx, "kafka.publish",
		trace.WithSpanKind(trace.SpanKindProducer),
		trace.WithAttributes(tracing.MessagingSpanAttributes("kafka", topic, "publish")...),
		trace.WithAttributes(
			attribute.String("messaging.message_id", event.ID),
			attribute.String("cloudevents.event_type", event.Type),
		),
	)
	defer span.End()

	_, err := resilience.Execute(ctx, p.breaker, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, p.next.PublishEvent(ctx, topic, event)
	})

	duration := time.Since(start)
	if p.metrics != nil {
		p.metrics.RecordKafkaPublish(topic, event.Type, err == nil, duration)
	}
	p.logger.KafkaPublish(ctx, topic, event.Type, err == nil, duration)

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}
	span.SetStatus(codes.Ok, "")
	return nil
}
