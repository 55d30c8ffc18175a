package mongodb

import (
	"context"
	"sync"
	"time"

	"github.com/mantenix/inventory-service/pkg/logging"
	"github.com/mantenix/inventory-service/pkg/metrics"
	"go.mongodb.org/mongo-driver/event"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	semconv "go.opentelemetry.io/otel/semconv/v1.21.0"
	"go.opentelemetry.io/otel/trace"
)

// NewCommandMonitor returns a driver monitor that records every command in
// Prometheus and logs failures, keyed by collection and command name.
func NewCommandMonitor(m *metrics.Metrics, logger *logging.Logger) *event.CommandMonitor {
	var collections sync.Map // requestID -> collection name

	finish := func(ctx context.Context, requestID int64, command string, duration time.Duration, success bool) {
		collection := "unknown"
		if v, ok := collections.LoadAndDelete(requestID); ok {
			collection = v.(string)
		}
		if m != nil {
			m.RecordMongoDBOperation(collection, command, success, duration)
		}
		if logger != nil {
			logger.DatabaseQuery(ctx, collection, command, duration, success)
		}
	}

	return &event.CommandMonitor{
		Started: func(_ context.Context, e *event.CommandStartedEvent) {
			if v, err := e.Command.LookupErr(e.CommandName); err == nil {
				if name, ok := v.StringValueOK(); ok {
					collections.Store(e.RequestID, name)
				}
			}
		},
		Succeeded: func(ctx context.Context, e *event.CommandSucceededEvent) {
			finish(ctx, e.RequestID, e.CommandName, e.Duration, true)
		},
		Failed: func(ctx context.Context, e *event.CommandFailedEvent) {
			finish(ctx, e.RequestID, e.CommandName, e.Duration, false)
		},
	}
}

// InstrumentedClient adds tracing around transactions
type InstrumentedClient struct {
	*Client
	tracer trace.Tracer
}

// NewInstrumentedClient creates a new instrumented MongoDB client
func NewInstrumentedClient(client *Client) *InstrumentedClient {
	return &InstrumentedClient{
		Client: client,
		tracer: otel.Tracer("mongodb"),
	}
}

// HealthCheck performs a health check with tracing
func (c *InstrumentedClient) HealthCheck(ctx context.Context) error {
	ctx, span := c.tracer.Start(ctx, "mongodb.ping",
		trace.WithAttributes(
			semconv.DBSystemMongoDB,
			semconv.DBNameKey.String(c.config.Database),
		),
	)
	defer span.End()

	err := c.Client.HealthCheck(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	} else {
		span.SetStatus(codes.Ok, "")
	}
	return err
}

// WithTransaction executes fn within a transaction under a tracing span
func (c *InstrumentedClient) WithTransaction(ctx context.Context, fn func(txCtx context.Context) error) error {
	if InTransaction(ctx) {
		return fn(ctx)
	}

	ctx, span := c.tracer.Start(ctx, "mongodb.transaction",
		trace.WithAttributes(
			semconv.DBSystemMongoDB,
			semconv.DBNameKey.String(c.config.Database),
		),
	)
	defer span.End()

	err := c.Client.WithTransaction(ctx, fn)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	} else {
		span.SetStatus(codes.Ok, "")
	}
	return err
}
