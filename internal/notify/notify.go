// Package notify delivers fire-and-forget event notifications. Dispatch
// failures are logged and swallowed; they never surface to the caller of
// the operation that triggered them.
package notify

import (
	"context"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/rs/zerolog/log"
)

// Event names the things users get notified about.
type Event string

const (
	// EventLetterScheduled is emitted to the recipient when a letter is
	// scheduled. Delivery firing itself does not notify; the single
	// notification happens at schedule time.
	EventLetterScheduled Event = "letter_scheduled"
	// EventMessageReceived is emitted to the peer on a new chat message.
	EventMessageReceived Event = "message_received"
)

// Dispatcher sends a notification to one user. Implementations must be
// non-blocking failure-wise: log and move on.
type Dispatcher interface {
	Notify(ctx context.Context, userID string, event Event, payload map[string]any)
}

// Webhook posts notification events to the push-gateway webhook.
type Webhook struct {
	client *resty.Client
	url    string
}

// NewWebhook builds a dispatcher with retries and a bounded timeout.
func NewWebhook(url, authKey string, timeout time.Duration) *Webhook {
	client := resty.New().
		SetTimeout(timeout).
		SetRetryCount(3).
		SetRetryWaitTime(500 * time.Millisecond).
		SetRetryMaxWaitTime(2 * time.Second).
		SetHeader("Content-Type", "application/json").
		SetHeader("x-wf-auth-key", authKey)
	return &Webhook{client: client, url: url}
}

type envelope struct {
	UserID    string         `json:"userId"`
	Event     Event          `json:"event"`
	Payload   map[string]any `json:"payload,omitempty"`
	Timestamp string         `json:"timestamp"`
}

// Notify posts the event. Errors are logged, never returned.
func (w *Webhook) Notify(ctx context.Context, userID string, event Event, payload map[string]any) {
	body := envelope{
		UserID:    userID,
		Event:     event,
		Payload:   payload,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}
	resp, err := w.client.R().
		SetContext(ctx).
		SetBody(body).
		Post(w.url)
	if err != nil {
		log.Warn().Err(err).Str("event", string(event)).Str("user_id", userID).
			Msg("notification dispatch failed")
		return
	}
	if resp.StatusCode() >= http.StatusBadRequest {
		log.Warn().Int("status", resp.StatusCode()).Str("event", string(event)).
			Str("user_id", userID).Msg("notification webhook rejected event")
	}
}

// Nop discards every notification. Used when no webhook is configured and
// in tests.
type Nop struct{}

// Notify implements Dispatcher.
func (Nop) Notify(context.Context, string, Event, map[string]any) {}
