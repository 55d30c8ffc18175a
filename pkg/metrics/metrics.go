package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all inventory service metrics
type Metrics struct {
	serviceName string
	registry    *prometheus.Registry

	// HTTP metrics
	HTTPRequestsTotal    *prometheus.CounterVec
	HTTPRequestDuration  *prometheus.HistogramVec
	HTTPRequestsInFlight prometheus.Gauge

	// Kafka metrics
	KafkaEventsPublished *prometheus.CounterVec
	KafkaPublishDuration *prometheus.HistogramVec

	// MongoDB metrics
	MongoDBOperations        *prometheus.CounterVec
	MongoDBOperationDuration *prometheus.HistogramVec

	// Ledger metrics
	StockTransfers     *prometheus.CounterVec
	TransferDuration   prometheus.Histogram
	StockAdjustments   *prometheus.CounterVec
	RequestTransitions *prometheus.CounterVec
	ReconciledRequests prometheus.Counter

	// Outbox metrics
	OutboxPending   prometheus.Gauge
	OutboxPublished *prometheus.CounterVec

	// Idempotency metrics
	IdempotencyRequests *prometheus.CounterVec

	// Circuit breaker metrics
	CircuitBreakerState *prometheus.GaugeVec
	CircuitBreakerTrips *prometheus.CounterVec
}

// Config holds metrics configuration
type Config struct {
	ServiceName string
	Namespace   string
}

// DefaultConfig returns default metrics configuration
func DefaultConfig(serviceName string) *Config {
	return &Config{
		ServiceName: serviceName,
		Namespace:   "mantenix",
	}
}

// New creates a new Metrics instance on a private registry
func New(config *Config) *Metrics {
	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector())
	registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	m := &Metrics{
		serviceName: config.ServiceName,
		registry:    registry,
	}
	ns := config.Namespace
	service := prometheus.Labels{"service": config.ServiceName}

	m.HTTPRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace:   ns,
			Name:        "http_requests_total",
			Help:        "Total number of HTTP requests",
			ConstLabels: service,
		},
		[]string{"method", "path", "status"},
	)
	m.HTTPRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace:   ns,
			Name:        "http_request_duration_seconds",
			Help:        "HTTP request duration in seconds",
			Buckets:     []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5},
			ConstLabels: service,
		},
		[]string{"method", "path"},
	)
	m.HTTPRequestsInFlight = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace:   ns,
			Name:        "http_requests_in_flight",
			Help:        "Number of HTTP requests currently being processed",
			ConstLabels: service,
		},
	)

	m.KafkaEventsPublished = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace:   ns,
			Name:        "kafka_events_published_total",
			Help:        "Total number of Kafka events published",
			ConstLabels: service,
		},
		[]string{"topic", "event_type", "status"},
	)
	m.KafkaPublishDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace:   ns,
			Name:        "kafka_publish_duration_seconds",
			Help:        "Kafka publish duration in seconds",
			Buckets:     prometheus.DefBuckets,
			ConstLabels: service,
		},
		[]string{"topic"},
	)

	m.MongoDBOperations = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace:   ns,
			Name:        "mongodb_operations_total",
			Help:        "Total number of MongoDB commands",
			ConstLabels: service,
		},
		[]string{"collection", "operation", "status"},
	)
	m.MongoDBOperationDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace:   ns,
			Name:        "mongodb_operation_duration_seconds",
			Help:        "MongoDB command duration in seconds",
			Buckets:     []float64{.0005, .001, .005, .01, .025, .05, .1, .25, .5, 1},
			ConstLabels: service,
		},
		[]string{"collection", "operation"},
	)

	m.StockTransfers = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace:   ns,
			Name:        "stock_transfers_total",
			Help:        "Stock transfers by outcome",
			ConstLabels: service,
		},
		[]string{"outcome"},
	)
	m.TransferDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace:   ns,
			Name:        "stock_transfer_duration_seconds",
			Help:        "Duration of a stock transfer including its transaction",
			Buckets:     prometheus.DefBuckets,
			ConstLabels: service,
		},
	)
	m.StockAdjustments = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace:   ns,
			Name:        "stock_adjustments_total",
			Help:        "Absolute stock adjustments by direction",
			ConstLabels: service,
		},
		[]string{"direction"},
	)
	m.RequestTransitions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace:   ns,
			Name:        "inventory_request_transitions_total",
			Help:        "Inventory request status transitions",
			ConstLabels: service,
		},
		[]string{"to_status"},
	)
	m.ReconciledRequests = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace:   ns,
			Name:        "inventory_requests_reconciled_total",
			Help:        "Pending requests repaired by the approval reconciler",
			ConstLabels: service,
		},
	)

	m.OutboxPending = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace:   ns,
			Name:        "outbox_pending_events",
			Help:        "Unpublished outbox events seen in the last poll",
			ConstLabels: service,
		},
	)
	m.OutboxPublished = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace:   ns,
			Name:        "outbox_events_total",
			Help:        "Outbox events processed by result",
			ConstLabels: service,
		},
		[]string{"result"},
	)

	m.IdempotencyRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace:   ns,
			Name:        "idempotency_requests_total",
			Help:        "Idempotent requests by result",
			ConstLabels: service,
		},
		[]string{"result"},
	)

	m.CircuitBreakerState = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace:   ns,
			Name:        "circuit_breaker_state",
			Help:        "Circuit breaker state (0=closed, 1=half-open, 2=open)",
			ConstLabels: service,
		},
		[]string{"name"},
	)
	m.CircuitBreakerTrips = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace:   ns,
			Name:        "circuit_breaker_trips_total",
			Help:        "Total number of circuit breaker trips",
			ConstLabels: service,
		},
		[]string{"name"},
	)

	registry.MustRegister(
		m.HTTPRequestsTotal, m.HTTPRequestDuration, m.HTTPRequestsInFlight,
		m.KafkaEventsPublished, m.KafkaPublishDuration,
		m.MongoDBOperations, m.MongoDBOperationDuration,
		m.StockTransfers, m.TransferDuration, m.StockAdjustments,
		m.RequestTransitions, m.ReconciledRequests,
		m.OutboxPending, m.OutboxPublished,
		m.IdempotencyRequests,
		m.CircuitBreakerState, m.CircuitBreakerTrips,
	)

	return m
}

// Handler returns the HTTP handler for the metrics endpoint
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{
		EnableOpenMetrics: true,
	})
}

// RecordHTTPRequest records an HTTP request
func (m *Metrics) RecordHTTPRequest(method, path string, status int, duration time.Duration) {
	m.HTTPRequestsTotal.WithLabelValues(method, path, strconv.Itoa(status)).Inc()
	m.HTTPRequestDuration.WithLabelValues(method, path).Observe(duration.Seconds())
}

// RecordKafkaPublish records a Kafka publish
func (m *Metrics) RecordKafkaPublish(topic, eventType string, success bool, duration time.Duration) {
	m.KafkaEventsPublished.WithLabelValues(topic, eventType, status(success)).Inc()
	m.KafkaPublishDuration.WithLabelValues(topic).Observe(duration.Seconds())
}

// RecordMongoDBOperation records a MongoDB command
func (m *Metrics) RecordMongoDBOperation(collection, operation string, success bool, duration time.Duration) {
	m.MongoDBOperations.WithLabelValues(collection, operation, status(success)).Inc()
	m.MongoDBOperationDuration.WithLabelValues(collection, operation).Observe(duration.Seconds())
}

// RecordTransfer records a transfer outcome such as "ok", "insufficient" or "failed"
func (m *Metrics) RecordTransfer(outcome string, duration time.Duration) {
	m.StockTransfers.WithLabelValues(outcome).Inc()
	m.TransferDuration.Observe(duration.Seconds())
}

// RecordAdjustment records an absolute stock adjustment
func (m *Metrics) RecordAdjustment(delta int64) {
	direction := "none"
	switch {
	case delta > 0:
		direction = "increase"
	case delta < 0:
		direction = "decrease"
	}
	m.StockAdjustments.WithLabelValues(direction).Inc()
}

// RecordRequestTransition records a request reaching a status
func (m *Metrics) RecordRequestTransition(toStatus string) {
	m.RequestTransitions.WithLabelValues(toStatus).Inc()
}

// RecordReconciled records repaired pending requests
func (m *Metrics) RecordReconciled(count int) {
	m.ReconciledRequests.Add(float64(count))
}

// SetOutboxPending sets the number of unpublished outbox events
func (m *Metrics) SetOutboxPending(count int) {
	m.OutboxPending.Set(float64(count))
}

// RecordOutboxResult records "published", "retry" or "deleted"
func (m *Metrics) RecordOutboxResult(result string, count int) {
	m.OutboxPublished.WithLabelValues(result).Add(float64(count))
}

// RecordIdempotency records "hit", "miss", "conflict" or "mismatch"
func (m *Metrics) RecordIdempotency(result string) {
	m.IdempotencyRequests.WithLabelValues(result).Inc()
}

// SetCircuitBreakerState sets circuit breaker state
func (m *Metrics) SetCircuitBreakerState(name string, state int) {
	m.CircuitBreakerState.WithLabelValues(name).Set(float64(state))
}

// RecordCircuitBreakerTrip records a circuit breaker trip
func (m *Metrics) RecordCircuitBreakerTrip(name string) {
	m.CircuitBreakerTrips.WithLabelValues(name).Inc()
}

func status(success bool) string {
	if success {
		return "success"
	}
	return "failure"
}
