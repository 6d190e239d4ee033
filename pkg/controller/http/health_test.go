package http_test

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	controller "github.com/m-mizutani/githook/pkg/controller/http"
	"github.com/m-mizutani/gt"
)

func newTestServer(t *testing.T, processor *MockEventProcessor) *controller.Server {
	t.Helper()
	server, err := controller.NewServer(
		context.Background(),
		processor,
		controller.WithAddr("localhost:0"),
		controller.WithWebhookSecret("test-secret"),
	)
	if err != nil {
		t.Fatalf("Failed to create server: %v", err)
	}
	return server
}

func TestHealthEndpoint(t *testing.T) {
	server := newTestServer(t, &MockEventProcessor{})

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	w := httptest.NewRecorder()
	server.Handler.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("Status code = %v, want %v", w.Code, http.StatusOK)
	}
	gt.Number(t, w.Body.Len()).Equal(0)
}

func TestRootEndpoint(t *testing.T) {
	server := newTestServer(t, &MockEventProcessor{})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	w := httptest.NewRecorder()
	server.Handler.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("Status code = %v, want %v", w.Code, http.StatusOK)
	}
	gt.Value(t, w.Header().Get("Content-Type")).Equal("text/plain")
	gt.Value(t, w.Body.String()).Equal("ARRRG")
}

func TestOtherRequests(t *testing.T) {
	tests := []struct {
		method string
		path   string
	}{
		{method: http.MethodGet, path: "/unknown"},
		{method: http.MethodPost, path: "/hooks/github"},
		{method: http.MethodDelete, path: "/a/b/c"},
	}

	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			processor := &MockEventProcessor{}
			server := newTestServer(t, processor)

			req := httptest.NewRequest(tt.method, tt.path, nil)
			w := httptest.NewRecorder()
			server.Handler.ServeHTTP(w, req)

			if w.Code != http.StatusAccepted {
				t.Errorf("Status code = %v, want %v", w.Code, http.StatusAccepted)
			}
			gt.Value(t, w.Header().Get("Content-Type")).Equal("text/plain")
			gt.Number(t, len(processor.events)).Equal(0)
		})
	}
}

func TestWebhookOnAnyPath(t *testing.T) {
	for _, path := range []string{"/", "/githook", "/hooks/github/push"} {
		t.Run(path, func(t *testing.T) {
			processor := &MockEventProcessor{}
			server := newTestServer(t, processor)

			body := []byte(pushPayload)
			req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(body))
			req.Header.Set("X-GitHub-Event", "push")
			req.Header.Set("X-GitHub-Delivery", "delivery-1")
			req.Header.Set("X-Hub-Signature", generateSignature("test-secret", body))

			w := httptest.NewRecorder()
			server.Handler.ServeHTTP(w, req)

			if w.Code != http.StatusAccepted {
				t.Errorf("Status code = %v, want %v", w.Code, http.StatusAccepted)
			}
			gt.Number(t, len(processor.events)).Equal(1)
		})
	}
}

func TestWebhookSignatureMismatchThroughServer(t *testing.T) {
	processor := &MockEventProcessor{}
	server := newTestServer(t, processor)

	req := httptest.NewRequest(http.MethodPost, "/", bytes.NewReader([]byte(pushPayload)))
	req.Header.Set("X-GitHub-Event", "push")
	req.Header.Set("X-Hub-Signature", "sha1=deadbeef")

	w := httptest.NewRecorder()
	server.Handler.ServeHTTP(w, req)

	if w.Code != http.StatusAccepted {
		t.Errorf("Status code = %v, want %v", w.Code, http.StatusAccepted)
	}
	gt.Number(t, len(processor.events)).Equal(0)
}
