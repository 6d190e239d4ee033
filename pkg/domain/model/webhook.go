package model

import "time"

// WebhookEventType represents the type of webhook event received
type WebhookEventType string

const (
	EventTypePush    WebhookEventType = "push"
	EventTypePing    WebhookEventType = "ping"
	EventTypeUnknown WebhookEventType = "unknown"
)

// NewWebhookEventType maps the X-GitHub-Event header value to a known event type
func NewWebhookEventType(header string) WebhookEventType {
	switch WebhookEventType(header) {
	case EventTypePush, EventTypePing:
		return WebhookEventType(header)
	default:
		return EventTypeUnknown
	}
}

// WebhookEvent represents a webhook event received from GitHub
type WebhookEvent struct {
	ID         string           // Retrieved from X-GitHub-Delivery header
	Type       WebhookEventType // Retrieved from X-GitHub-Event header
	ReceivedAt time.Time        // Time when the event was received
	RawPayload []byte           // Raw JSON payload
}

// IsSupportedEvent checks if the event can start a pipeline
func (e *WebhookEvent) IsSupportedEvent() bool {
	return e.Type == EventTypePush
}
