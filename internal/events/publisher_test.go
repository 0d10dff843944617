package events

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type captureSink struct {
	channel string
	message interface{}
	err     error
}

func (c *captureSink) Publish(_ context.Context, channel string, message interface{}) error {
	c.channel = channel
	c.message = message
	return c.err
}

func TestPublisher_WrapsPayload(t *testing.T) {
	sink := &captureSink{}
	p := newPublisher(sink, "scheduling")
	fixed := time.Date(2024, 1, 2, 3, 4, 5, 0, time.FixedZone("X", 3600))
	p.now = func() time.Time { return fixed }

	payload := map[string]interface{}{"sender": "alice", "receiver": "bob"}
	require.NoError(t, p.Publish(context.Background(), "contact_invite_sent", payload))

	assert.Equal(t, "scheduling", sink.channel)
	event, ok := sink.message.(Event)
	require.True(t, ok)
	assert.Equal(t, "contact_invite_sent", event.Type)
	assert.Equal(t, payload, event.Payload)
	assert.Equal(t, fixed.UTC(), event.Timestamp)
	_, err := uuid.Parse(event.ID)
	assert.NoError(t, err)
}

func TestPublisher_UniqueIDs(t *testing.T) {
	sink := &captureSink{}
	p := newPublisher(sink, "c")

	require.NoError(t, p.Publish(context.Background(), "t", nil))
	first := sink.message.(Event).ID
	require.NoError(t, p.Publish(context.Background(), "t", nil))
	assert.NotEqual(t, first, sink.message.(Event).ID)
}

func TestPublisher_PropagatesSinkError(t *testing.T) {
	boom := errors.New("boom")
	p := newPublisher(&captureSink{err: boom}, "c")

	assert.ErrorIs(t, p.Publish(context.Background(), "t", nil), boom)
}

func TestNewRedisClient_InvalidURL(t *testing.T) {
	_, err := NewRedisClient(context.Background(), "not-a-redis-url", zerolog.Nop())
	assert.Error(t, err)
}
