package handlers

import (
	"net/http"

	"rachiohook/internal/platform/metrics"
)

type MetricsHandler struct {
	exporter http.Handler
}

func NewMetricsHandler() *MetricsHandler {
	return &MetricsHandler{exporter: metrics.Handler()}
}

// Export serves the Prometheus text exposition.
func (h *MetricsHandler) Export(w http.ResponseWriter, r *http.Request) {
	h.exporter.ServeHTTP(w, r)
}
