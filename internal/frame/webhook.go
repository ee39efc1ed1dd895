package frame

import (
	"context"
	"fmt"

	"github.com/charmbracelet/log"
)

// Event names sent by the host. The frame_* spellings are the older names
// of the same events.
const (
	EventAdded                 = "miniapp_added"
	EventRemoved               = "miniapp_removed"
	EventNotificationsEnabled  = "notifications_enabled"
	EventNotificationsDisabled = "notifications_disabled"
)

var legacyEvents = map[string]string{
	"frame_added":   EventAdded,
	"frame_removed": EventRemoved,
}

// Event is a decoded webhook payload.
type Event struct {
	FID                 int64                `json:"-"`
	Name                string               `json:"event"`
	NotificationDetails *NotificationDetails `json:"notificationDetails,omitempty"`
}

// DecodeEvent decodes the webhook envelope. The signature is not verified.
func DecodeEvent(env Envelope) (Event, error) {
	h, err := env.DecodeHeader()
	if err != nil {
		return Event{}, err
	}
	var ev Event
	if err := env.DecodePayload(&ev); err != nil {
		return Event{}, err
	}
	if h.FID <= 0 {
		return Event{}, fmt.Errorf("%w: missing fid", ErrMalformedEnvelope)
	}
	ev.FID = h.FID
	if name, ok := legacyEvents[ev.Name]; ok {
		ev.Name = name
	}
	return ev, nil
}

// Webhook applies lifecycle events to the token registry.
type Webhook struct {
	tokens TokenStore
	logger *log.Logger
}

// NewWebhook creates a Webhook over tokens.
func NewWebhook(tokens TokenStore, logger *log.Logger) *Webhook {
	if logger == nil {
		logger = log.Default()
	}
	return &Webhook{tokens: tokens, logger: logger}
}

// Handle decodes env and updates the registry. Unknown events are ignored.
func (w *Webhook) Handle(ctx context.Context, env Envelope) (Event, error) {
	ev, err := DecodeEvent(env)
	if err != nil {
		return Event{}, err
	}

	switch ev.Name {
	case EventAdded, EventNotificationsEnabled:
		if ev.NotificationDetails != nil && ev.NotificationDetails.Token != "" {
			err = w.tokens.Set(ctx, ev.FID, *ev.NotificationDetails)
		}
	case EventRemoved, EventNotificationsDisabled:
		err = w.tokens.Delete(ctx, ev.FID)
	default:
		w.logger.Debug("ignoring webhook event", "event", ev.Name, "fid", ev.FID)
		return ev, nil
	}
	if err != nil {
		return ev, fmt.Errorf("updating notification tokens: %w", err)
	}
	w.logger.Info("webhook event", "event", ev.Name, "fid", ev.FID)
	return ev, nil
}
