package handlers

import (
	"encoding/json"
	"net/http"
	"time"
)

type HealthHandler struct {
	startedAt time.Time
	checks    map[string]func() error
}

// NewHealthHandler reports on the named checks; a failing check marks the
// service degraded.
func NewHealthHandler(checks map[string]func() error) *HealthHandler {
	return &HealthHandler{startedAt: time.Now(), checks: checks}
}

// Liveness answers the plain "OK" Rachio and load balancers probe for.
func (h *HealthHandler) Liveness(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Write([]byte("OK"))
}

func (h *HealthHandler) Check(w http.ResponseWriter, r *http.Request) {
	checks := make(map[string]string, len(h.checks))
	status := "healthy"

	for name, check := range h.checks {
		if err := check(); err != nil {
			checks[name] = "unhealthy: " + err.Error()
			status = "degraded"
		} else {
			checks[name] = "healthy"
		}
	}

	response := struct {
		Status    string            `json:"status"`
		Timestamp int64             `json:"timestamp"`
		Uptime    string            `json:"uptime"`
		Checks    map[string]string `json:"checks"`
	}{
		Status:    status,
		Timestamp: time.Now().Unix(),
		Uptime:    time.Since(h.startedAt).Round(time.Second).String(),
		Checks:    checks,
	}

	statusCode := http.StatusOK
	if status == "degraded" {
		statusCode = http.StatusServiceUnavailable
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(response)
}
