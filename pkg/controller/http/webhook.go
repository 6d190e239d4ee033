package http

import (
	"io"
	"net/http"
	"time"

	"github.com/google/go-github/v75/github"
	"github.com/m-mizutani/githook/pkg/domain/interfaces"
	"github.com/m-mizutani/githook/pkg/domain/model"
	"github.com/m-mizutani/githook/pkg/utils/errutil"
	"github.com/m-mizutani/githook/pkg/utils/logging"
	"github.com/m-mizutani/goerr/v2"
)

// WebhookHandler handles GitHub webhooks
type WebhookHandler struct {
	secret    string
	processor interfaces.EventProcessor
}

// NewWebhookHandler creates a new WebhookHandler
func NewWebhookHandler(secret string, processor interfaces.EventProcessor) *WebhookHandler {
	return &WebhookHandler{
		secret:    secret,
		processor: processor,
	}
}

// Handle accepts a webhook delivery. The sender always gets 202 once the
// body is read; verification and processing results are only logged.
func (h *WebhookHandler) Handle(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	eventType := r.Header.Get("X-GitHub-Event")
	deliveryID := r.Header.Get("X-GitHub-Delivery")
	logger := logging.From(ctx).With("delivery_id", deliveryID, "event_type", eventType)

	// Read payload
	body, err := io.ReadAll(r.Body)
	if err != nil {
		logger.Error("Failed to read request body", "error", err)
		writeText(w, http.StatusInternalServerError, "")
		return
	}
	defer r.Body.Close()

	writeText(w, http.StatusAccepted, "")

	// Verify signature
	if !VerifySignature(h.secret, body,
		r.Header.Get("X-Hub-Signature"),
		r.Header.Get("X-Hub-Signature-256"),
	) {
		logger.Error("Webhook signature mismatch")
		return
	}

	// Parse event using GitHub SDK
	payload, err := github.ParseWebHook(eventType, body)
	if err != nil {
		logger.Warn("Failed to parse webhook payload", "error", err)
		return
	}

	event := &model.WebhookEvent{
		ID:         deliveryID,
		Type:       model.NewWebhookEventType(eventType),
		ReceivedAt: time.Now(),
		RawPayload: body,
	}

	if err := h.processor.ProcessEvent(logging.With(ctx, logger), event, payload); err != nil {
		errutil.Handle(ctx, "failed to process webhook event",
			goerr.Wrap(err, "failed to process webhook event", goerr.V("delivery_id", deliveryID)))
	}
}
