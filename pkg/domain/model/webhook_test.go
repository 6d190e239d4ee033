package model_test

import (
	"testing"

	"github.com/m-mizutani/githook/pkg/domain/model"
	"github.com/m-mizutani/gt"
)

func TestWebhookEvent_IsSupportedEvent(t *testing.T) {
	tests := []struct {
		name     string
		event    *model.WebhookEvent
		expected bool
	}{
		{
			name:     "Push event - supported",
			event:    &model.WebhookEvent{Type: model.EventTypePush},
			expected: true,
		},
		{
			name:     "Ping event - not supported",
			event:    &model.WebhookEvent{Type: model.EventTypePing},
			expected: false,
		},
		{
			name:     "Unknown event type",
			event:    &model.WebhookEvent{Type: model.EventTypeUnknown},
			expected: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gt.Value(t, tt.event.IsSupportedEvent()).Equal(tt.expected)
		})
	}
}

func TestNewWebhookEventType(t *testing.T) {
	gt.Value(t, model.NewWebhookEventType("push")).Equal(model.EventTypePush)
	gt.Value(t, model.NewWebhookEventType("ping")).Equal(model.EventTypePing)
	gt.Value(t, model.NewWebhookEventType("issues")).Equal(model.EventTypeUnknown)
	gt.Value(t, model.NewWebhookEventType("")).Equal(model.EventTypeUnknown)
}
