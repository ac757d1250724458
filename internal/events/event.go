package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Aggregate types used as the first half of an event's identity.
const (
	AggregateCart    = "Cart"
	AggregateOrder   = "Order"
	AggregatePayment = "Payment"
)

// Event is the envelope published to the event stream.
type Event struct {
	ID            string          `json:"id"`
	AggregateID   string          `json:"aggregate_id"`
	AggregateType string          `json:"aggregate_type"`
	EventType     string          `json:"event_type"`
	Data          json.RawMessage `json:"data"`
	Timestamp     time.Time       `json:"timestamp"`
}

// New wraps payload in an envelope with a fresh ID.
func New(aggregateType, aggregateID, eventType string, payload any, at time.Time) (Event, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return Event{}, err
	}
	return Event{
		ID:            uuid.New().String(),
		AggregateID:   aggregateID,
		AggregateType: aggregateType,
		EventType:     eventType,
		Data:          data,
		Timestamp:     at.UTC(),
	}, nil
}

// Decode unmarshals the payload into v.
func (e Event) Decode(v any) error {
	return json.Unmarshal(e.Data, v)
}

// Publisher sends events keyed for partitioning.
type Publisher interface {
	Publish(ctx context.Context, key string, event any) error
}

// NopPublisher drops every event. It is used when no broker is configured.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, string, any) error { return nil }
