package outbox

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/mantenix/inventory-service/pkg/kafka"
	"github.com/mantenix/inventory-service/pkg/logging"
	"github.com/mantenix/inventory-service/pkg/metrics"
)

var ErrAlreadyRunning = errors.New("outbox relay already running")

// RelayConfig tunes the relay
type RelayConfig struct {
	PollInterval time.Duration
	BatchSize    int
	// MaxAttempts bounds delivery attempts per entry. Entries that reach it
	// stay in the collection for inspection and are no longer polled.
	MaxAttempts int
	// Backoff after the n-th failure is BaseBackoff * 2^(n-1), capped at MaxBackoff.
	BaseBackoff time.Duration
	MaxBackoff  time.Duration
}

func DefaultRelayConfig() *RelayConfig {
	return &RelayConfig{
		PollInterval: time.Second,
		BatchSize:    100,
		MaxAttempts:  10,
		BaseBackoff:  time.Second,
		MaxBackoff:   5 * time.Minute,
	}
}

// RelayStats counts attempts since the relay was created
type RelayStats struct {
	Published int
	Failed    int
	Abandoned int
}

// Relay polls the outbox and publishes due entries to Kafka
type Relay struct {
	repo     Repository
	producer kafka.EventPublisher
	logger   *logging.Logger
	metrics  *metrics.Metrics
	config   RelayConfig
	now      func() time.Time

	mu      sync.Mutex
	stats   RelayStats
	stop    chan struct{}
	stopped chan struct{}
}

// NewRelay creates a Relay. m may be nil; a nil config uses DefaultRelayConfig.
func NewRelay(repo Repository, producer kafka.EventPublisher, logger *logging.Logger, m *metrics.Metrics, config *RelayConfig) *Relay {
	if config == nil {
		config = DefaultRelayConfig()
	}
	return &Relay{
		repo:     repo,
		producer: producer,
		logger:   logger.WithComponent("outbox-relay"),
		metrics:  m,
		config:   *config,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// Start polls in the background until Stop is called or ctx ends
func (r *Relay) Start(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.stop != nil {
		return ErrAlreadyRunning
	}
	r.stop = make(chan struct{})
	r.stopped = make(chan struct{})

	r.logger.Info("Starting outbox relay",
		"interval", r.config.PollInterval,
		"batchSize", r.config.BatchSize,
		"maxAttempts", r.config.MaxAttempts,
	)
	go r.loop(ctx, r.stop, r.stopped)
	return nil
}

// Stop ends the poll loop after the batch in flight
func (r *Relay) Stop() {
	r.mu.Lock()
	stop, stopped := r.stop, r.stopped
	r.stop, r.stopped = nil, nil
	r.mu.Unlock()
	if stop == nil {
		return
	}

	close(stop)
	<-stopped

	s := r.Stats()
	r.logger.Info("Outbox relay stopped", "published", s.Published, "failed", s.Failed, "abandoned", s.Abandoned)
}

// Running reports whether the poll loop is active
func (r *Relay) Running() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.stop != nil
}

func (r *Relay) Stats() RelayStats {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.stats
}

func (r *Relay) loop(ctx context.Context, stop <-chan struct{}, stopped chan<- struct{}) {
	defer close(stopped)

	ticker := time.NewTicker(r.config.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.Drain(ctx)
		}
	}
}

// Drain publishes one batch of due entries and returns how many succeeded
func (r *Relay) Drain(ctx context.Context) int {
	entries, err := r.repo.FindDue(ctx, r.now(), r.config.MaxAttempts, r.config.BatchSize)
	if err != nil {
		r.logger.WithError(err).Error("Failed to load due outbox entries")
		return 0
	}
	if r.metrics != nil {
		r.metrics.SetOutboxPending(len(entries))
	}

	published := 0
	for _, entry := range entries {
		if r.deliver(ctx, entry) {
			published++
		}
	}

	if r.metrics != nil && len(entries) > 0 {
		r.metrics.RecordOutboxResult("published", published)
		r.metrics.RecordOutboxResult("retry", len(entries)-published)
	}
	return published
}

func (r *Relay) deliver(ctx context.Context, entry *Entry) bool {
	log := r.logger.With("entryId", entry.ID, "eventType", entry.EventType, "aggregateId", entry.AggregateID)

	err := r.publish(ctx, entry)
	if err == nil {
		r.record(func(s *RelayStats) { s.Published++ })
		if err := r.repo.MarkPublished(ctx, entry.ID, r.now()); err != nil {
			// The entry will be sent again; consumers dedupe on the CloudEvent id.
			log.Error("Failed to mark outbox entry published", "error", err.Error())
		}
		return true
	}

	attempts := entry.Attempts + 1
	if attempts >= r.config.MaxAttempts {
		r.record(func(s *RelayStats) { s.Failed++; s.Abandoned++ })
		log.Error("Giving up on outbox entry", "error", err.Error(), "attempts", attempts)
	} else {
		r.record(func(s *RelayStats) { s.Failed++ })
		log.Warn("Outbox publish failed", "error", err.Error(), "attempts", attempts)
	}

	next := r.now().Add(r.backoff(attempts))
	if err := r.repo.RecordFailure(ctx, entry.ID, err.Error(), next); err != nil {
		log.Error("Failed to record outbox failure", "error", err.Error())
	}
	return false
}

func (r *Relay) publish(ctx context.Context, entry *Entry) error {
	ce, err := entry.Event()
	if err != nil {
		return fmt.Errorf("failed to decode CloudEvent: %w", err)
	}
	if err := r.producer.PublishEvent(ctx, entry.Topic, ce); err != nil {
		return fmt.Errorf("failed to publish to Kafka: %w", err)
	}
	return nil
}

func (r *Relay) backoff(attempts int) time.Duration {
	d := r.config.BaseBackoff
	for i := 1; i < attempts && d < r.config.MaxBackoff; i++ {
		d *= 2
	}
	return min(d, r.config.MaxBackoff)
}

func (r *Relay) record(fn func(*RelayStats)) {
	r.mu.Lock()
	fn(&r.stats)
	r.mu.Unlock()
}

// Cleanup deletes entries published more than retention ago
func (r *Relay) Cleanup(ctx context.Context, retention time.Duration) (int64, error) {
	n, err := r.repo.DeletePublished(ctx, r.now().Add(-retention))
	if err != nil {
		return 0, err
	}
	if r.metrics != nil && n > 0 {
		r.metrics.RecordOutboxResult("deleted", int(n))
	}
	return n, nil
}
