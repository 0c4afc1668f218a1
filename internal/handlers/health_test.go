package handlers_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"wazuhgate/internal/handlers"
)

type stubReporter struct {
	socketPresent bool
	delivered     uint64
	failed        uint64
}

func (s *stubReporter) SocketPresent() bool            { return s.socketPresent }
func (s *stubReporter) Stats() (uint64, uint64)        { return s.delivered, s.failed }

func TestDetailedHealth(t *testing.T) {
	tests := []struct {
		name       string
		socket     bool
		wantStatus string
		wantSocket string
	}{
		{"socket present", true, "healthy", "connected"},
		{"socket absent", false, "unhealthy", "disconnected"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := handlers.NewHealthHandler(&stubReporter{socketPresent: tt.socket, delivered: 7, failed: 2})

			req := httptest.NewRequest(http.MethodGet, "/health", nil)
			w := httptest.NewRecorder()
			h.Detailed(w, req)

			// Detailed health always answers 200; the body carries the verdict
			if w.Code != http.StatusOK {
				t.Fatalf("status = %d, want 200", w.Code)
			}
			var resp handlers.HealthStatus
			if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
				t.Fatal(err)
			}
			if resp.Status != tt.wantStatus {
				t.Errorf("status = %q, want %q", resp.Status, tt.wantStatus)
			}
			if resp.WazuhSocket != tt.wantSocket {
				t.Errorf("wazuh_socket = %q, want %q", resp.WazuhSocket, tt.wantSocket)
			}
			if resp.Delivered != 7 || resp.Failed != 2 {
				t.Errorf("counters = %d/%d, want 7/2", resp.Delivered, resp.Failed)
			}
		})
	}
}

func TestLiveAlwaysOK(t *testing.T) {
	h := handlers.NewHealthHandler(&stubReporter{socketPresent: false})

	w := httptest.NewRecorder()
	h.Live(w, httptest.NewRequest(http.MethodGet, "/health/live", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	var resp map[string]string
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if resp["status"] != "alive" {
		t.Errorf("status = %q", resp["status"])
	}
}

func TestReadyTracksSocket(t *testing.T) {
	tests := []struct {
		name     string
		socket   bool
		wantCode int
		wantBody string
	}{
		{"ready", true, http.StatusOK, "ready"},
		{"not ready", false, http.StatusServiceUnavailable, "not_ready"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := handlers.NewHealthHandler(&stubReporter{socketPresent: tt.socket})

			w := httptest.NewRecorder()
			h.Ready(w, httptest.NewRequest(http.MethodGet, "/health/ready", nil))

			if w.Code != tt.wantCode {
				t.Fatalf("status = %d, want %d", w.Code, tt.wantCode)
			}
			var resp map[string]string
			if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
				t.Fatal(err)
			}
			if resp["status"] != tt.wantBody {
				t.Errorf("status = %q, want %q", resp["status"], tt.wantBody)
			}
		})
	}
}
