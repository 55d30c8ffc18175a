// Package outbox implements the transactional outbox: events are stored in
// the same transaction as the state change they describe and relayed to
// Kafka afterwards, so a committed change is never lost to a broker outage.
package outbox

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/mantenix/inventory-service/pkg/cloudevents"
)

// Entry is one staged event
type Entry struct {
	ID            string          `bson:"_id" json:"id"`
	AggregateType string          `bson:"aggregateType" json:"aggregateType"`
	AggregateID   string          `bson:"aggregateId" json:"aggregateId"`
	EventType     string          `bson:"eventType" json:"eventType"`
	Topic         string          `bson:"topic" json:"topic"`
	Payload       json.RawMessage `bson:"payload" json:"payload"`
	CreatedAt     time.Time       `bson:"createdAt" json:"createdAt"`

	// Delivery state, owned by the relay
	PublishedAt   *time.Time `bson:"publishedAt,omitempty" json:"publishedAt,omitempty"`
	Attempts      int        `bson:"attempts" json:"attempts"`
	NextAttemptAt time.Time  `bson:"nextAttemptAt" json:"nextAttemptAt"`
	LastError     string     `bson:"lastError,omitempty" json:"lastError,omitempty"`
}

// NewEntry stages ce for topic. The entry is due immediately.
func NewEntry(aggregateType, aggregateID, topic string, ce *cloudevents.Event) (*Entry, error) {
	payload, err := json.Marshal(ce)
	if err != nil {
		return nil, err
	}
	now := time.Now().UTC().Truncate(time.Millisecond)
	return &Entry{
		ID:            uuid.NewString(),
		AggregateType: aggregateType,
		AggregateID:   aggregateID,
		EventType:     ce.Type,
		Topic:         topic,
		Payload:       payload,
		CreatedAt:     now,
		NextAttemptAt: now,
	}, nil
}

// Published reports whether the relay has delivered the entry
func (e *Entry) Published() bool {
	return e.PublishedAt != nil
}

// Event decodes the stored CloudEvent
func (e *Entry) Event() (*cloudevents.Event, error) {
	var ce cloudevents.Event
	if err := json.Unmarshal(e.Payload, &ce); err != nil {
		return nil, err
	}
	return &ce, nil
}
