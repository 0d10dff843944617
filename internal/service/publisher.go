package service

import (
	"context"

	"github.com/rs/zerolog"
)

// Notification types published after a successful commit.
const (
	NotifyContactInviteSent      = "contact_invite_sent"
	NotifyContactAdded           = "contact_added"
	NotifyContactInviteCancelled = "contact_invite_cancelled"
	NotifyContactRemoved         = "contact_removed"
	NotifyEventCreated           = "event_created"
	NotifyEventInviteAccepted    = "event_invite_accepted"
	NotifyEventInviteDeclined    = "event_invite_declined"
)

// Publisher delivers domain notifications to interested listeners.
type Publisher interface {
	Publish(ctx context.Context, eventType string, payload interface{}) error
}

// NopPublisher drops every notification.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, string, interface{}) error { return nil }

// notify publishes and logs failures. Notifications never fail an operation.
func notify(ctx context.Context, pub Publisher, log zerolog.Logger, eventType string, payload map[string]interface{}) {
	if err := pub.Publish(ctx, eventType, payload); err != nil {
		log.Warn().Err(err).Str("type", eventType).Msg("Failed to publish notification")
	}
}
