package handlers

import (
	"net/http"
	"time"

	"wazuhgate/internal/respond"
)

// StatusReporter is the forwarder view the health routes need.
type StatusReporter interface {
	SocketPresent() bool
	Stats() (delivered, failed uint64)
}

// HealthHandler serves the detailed status endpoint and the orchestrator
// probes. The agent socket is an externally observed fact: present or not.
type HealthHandler struct {
	forwarder StatusReporter
	started   time.Time
}

// NewHealthHandler creates a new health handler
func NewHealthHandler(f StatusReporter) *HealthHandler {
	return &HealthHandler{forwarder: f, started: time.Now()}
}

// HealthStatus is the detailed health response.
type HealthStatus struct {
	Status        string `json:"status"`
	WazuhSocket   string `json:"wazuh_socket"`
	UptimeSeconds int64  `json:"uptime_seconds"`
	Delivered     uint64 `json:"events_delivered"`
	Failed        uint64 `json:"events_failed"`
}

// Detailed handles GET /health (authenticated).
func (h *HealthHandler) Detailed(w http.ResponseWriter, r *http.Request) {
	status := "healthy"
	socket := "connected"
	if !h.forwarder.SocketPresent() {
		status = "unhealthy"
		socket = "disconnected"
	}

	delivered, failed := h.forwarder.Stats()
	respond.JSON(w, r, http.StatusOK, HealthStatus{
		Status:        status,
		WazuhSocket:   socket,
		UptimeSeconds: int64(time.Since(h.started).Seconds()),
		Delivered:     delivered,
		Failed:        failed,
	})
}

// Live handles GET /health/live: the process is up.
func (h *HealthHandler) Live(w http.ResponseWriter, r *http.Request) {
	respond.JSON(w, r, http.StatusOK, map[string]string{"status": "alive"})
}

// Ready handles GET /health/ready: ready only when the agent socket exists.
func (h *HealthHandler) Ready(w http.ResponseWriter, r *http.Request) {
	if !h.forwarder.SocketPresent() {
		respond.JSON(w, r, http.StatusServiceUnavailable, map[string]string{"status": "not_ready"})
		return
	}
	respond.JSON(w, r, http.StatusOK, map[string]string{"status": "ready"})
}
