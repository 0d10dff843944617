package events

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Event is the envelope every notification travels in.
type Event struct {
	ID        string      `json:"id"`
	Type      string      `json:"type"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   interface{} `json:"payload"`
}

// sink is the part of RedisClient the publisher needs.
type sink interface {
	Publish(ctx context.Context, channel string, message interface{}) error
}

// Publisher sends scheduling notifications to a single channel.
type Publisher struct {
	sink    sink
	channel string
	now     func() time.Time
}

// NewPublisher creates a publisher writing to channel through client.
func NewPublisher(client *RedisClient, channel string) *Publisher {
	return newPublisher(client, channel)
}

func newPublisher(s sink, channel string) *Publisher {
	return &Publisher{
		sink:    s,
		channel: channel,
		now:     time.Now,
	}
}

// Publish wraps payload in an Event and publishes it.
func (p *Publisher) Publish(ctx context.Context, eventType string, payload interface{}) error {
	event := Event{
		ID:        uuid.New().String(),
		Type:      eventType,
		Timestamp: p.now().UTC(),
		Payload:   payload,
	}
	return p.sink.Publish(ctx, p.channel, event)
}
