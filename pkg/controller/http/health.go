package http

import (
	"net/http"

	"github.com/m-mizutani/githook/pkg/utils/logging"
)

const rootBody = "ARRRG"

// handleHealth handles health check requests
func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
}

// handleRoot answers requests to / that are not webhook deliveries
func handleRoot(w http.ResponseWriter, r *http.Request) {
	writeText(w, http.StatusOK, rootBody)
}

// handleOther accepts anything else without acting on it
func handleOther(w http.ResponseWriter, r *http.Request) {
	logging.From(r.Context()).Warn("Unexpected request", "method", r.Method, "path", r.URL.Path)
	writeText(w, http.StatusAccepted, "")
}
