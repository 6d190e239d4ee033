package http_test

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/google/go-github/v75/github"
	controller "github.com/m-mizutani/githook/pkg/controller/http"
	"github.com/m-mizutani/githook/pkg/domain/model"
	"github.com/m-mizutani/gt"
)

type processedEvent struct {
	Event   *model.WebhookEvent
	Payload any
}

// MockEventProcessor is a mock implementation of EventProcessor
type MockEventProcessor struct {
	mu     sync.Mutex
	events []processedEvent
	err    error
}

func (m *MockEventProcessor) ProcessEvent(ctx context.Context, event *model.WebhookEvent, payload any) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, processedEvent{Event: event, Payload: payload})
	return m.err
}

const pushPayload = `{
  "ref": "refs/heads/master",
  "compare": "https://github.com/acme/api/compare/000000...abc123",
  "repository": {"full_name": "acme/api", "ssh_url": "git@github.com:acme/api.git"},
  "head_commit": {"id": "abc123", "message": "fix"},
  "commits": [{"id": "abc123", "message": "fix"}],
  "sender": {"login": "alice"}
}`

func newWebhookRequest(event, body string) *http.Request {
	req := httptest.NewRequest(http.MethodPost, "/", bytes.NewReader([]byte(body)))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-GitHub-Event", event)
	req.Header.Set("X-GitHub-Delivery", "test-delivery")
	return req
}

func TestWebhookHandler_SignatureVerification(t *testing.T) {
	secret := "test-secret"

	tests := []struct {
		name      string
		signature func([]byte) (string, string)
		processed bool
	}{
		{
			name:      "Valid sha1 signature",
			signature: func(b []byte) (string, string) { return generateSignature(secret, b), "" },
			processed: true,
		},
		{
			name:      "Valid sha256 signature",
			signature: func(b []byte) (string, string) { return "", generateSignature256(secret, b) },
			processed: true,
		},
		{
			name:      "Invalid signature",
			signature: func(b []byte) (string, string) { return "sha1=invalid", "" },
			processed: false,
		},
		{
			name:      "Missing signature",
			signature: func(b []byte) (string, string) { return "", "" },
			processed: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			processor := &MockEventProcessor{}
			handler := controller.NewWebhookHandler(secret, processor)

			req := newWebhookRequest("push", pushPayload)
			sha1Sig, sha256Sig := tt.signature([]byte(pushPayload))
			if sha1Sig != "" {
				req.Header.Set("X-Hub-Signature", sha1Sig)
			}
			if sha256Sig != "" {
				req.Header.Set("X-Hub-Signature-256", sha256Sig)
			}

			w := httptest.NewRecorder()
			handler.Handle(w, req)

			if w.Code != http.StatusAccepted {
				t.Errorf("Handle() status = %v, want %v", w.Code, http.StatusAccepted)
			}
			gt.Value(t, w.Header().Get("Content-Type")).Equal("text/plain")
			gt.Value(t, len(processor.events) == 1).Equal(tt.processed)
		})
	}
}

func TestWebhookHandler_EventParsing(t *testing.T) {
	processor := &MockEventProcessor{}
	handler := controller.NewWebhookHandler("test-secret", processor)

	w := httptest.NewRecorder()
	handler.Handle(w, newWebhookRequest("push", pushPayload))

	if w.Code != http.StatusAccepted {
		t.Fatalf("Handle() status = %v, want %v", w.Code, http.StatusAccepted)
	}
	gt.Number(t, len(processor.events)).Equal(1)

	ev := processor.events[0]
	gt.Value(t, ev.Event.ID).Equal("test-delivery")
	gt.Value(t, ev.Event.Type).Equal(model.EventTypePush)
	gt.Value(t, string(ev.Event.RawPayload)).Equal(pushPayload)

	push, ok := ev.Payload.(*github.PushEvent)
	gt.True(t, ok)
	gt.Value(t, push.GetRepo().GetFullName()).Equal("acme/api")
	gt.Value(t, push.GetHeadCommit().GetID()).Equal("abc123")
}

func TestWebhookHandler_AlwaysAccepted(t *testing.T) {
	tests := []struct {
		name      string
		event     string
		body      string
		processed bool
		err       error
	}{
		{name: "malformed JSON", event: "push", body: `{"ref":`, processed: false},
		{name: "ping", event: "ping", body: `{"zen":"Design for failure."}`, processed: true},
		{name: "processor error", event: "push", body: pushPayload, processed: true, err: errors.New("boom")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			processor := &MockEventProcessor{err: tt.err}
			handler := controller.NewWebhookHandler("", processor)

			w := httptest.NewRecorder()
			handler.Handle(w, newWebhookRequest(tt.event, tt.body))

			if w.Code != http.StatusAccepted {
				t.Errorf("Handle() status = %v, want %v", w.Code, http.StatusAccepted)
			}
			gt.Value(t, len(processor.events) == 1).Equal(tt.processed)
		})
	}
}

func TestWebhookHandler_EmptySecret(t *testing.T) {
	tests := []struct {
		name      string
		sha1      string
		sha256    string
		processed bool
	}{
		{name: "unsigned delivery", processed: true},
		{name: "forged sha1", sha1: "sha1=deadbeef", processed: false},
		{name: "forged sha256", sha256: "sha256=deadbeef", processed: false},
		{name: "signed with another secret", sha1: generateSignature("other", []byte(pushPayload)), processed: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			processor := &MockEventProcessor{}
			handler := controller.NewWebhookHandler("", processor)

			req := newWebhookRequest("push", pushPayload)
			if tt.sha1 != "" {
				req.Header.Set("X-Hub-Signature", tt.sha1)
			}
			if tt.sha256 != "" {
				req.Header.Set("X-Hub-Signature-256", tt.sha256)
			}
			w := httptest.NewRecorder()
			handler.Handle(w, req)

			if w.Code != http.StatusAccepted {
				t.Errorf("Handle() status = %v, want %v", w.Code, http.StatusAccepted)
			}
			gt.Value(t, len(processor.events) == 1).Equal(tt.processed)
		})
	}
}
