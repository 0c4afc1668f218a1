package middleware_test

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"

	"wazuhgate/internal/middleware"
	"wazuhgate/internal/ratelimit"
	"wazuhgate/internal/reqctx"
)

func TestRequestIDAssignsFreshID(t *testing.T) {
	var seen string
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rc, ok := reqctx.From(r.Context())
		if !ok {
			t.Fatal("request context missing")
		}
		seen = rc.RequestID
		if rc.Method != http.MethodPost || rc.Path != "/ingest" {
			t.Errorf("unexpected request context: %+v", rc)
		}
		if rc.ClientIP == "" {
			t.Error("client ip not captured")
		}
	})

	req := httptest.NewRequest(http.MethodPost, "/ingest", nil)
	w := httptest.NewRecorder()
	middleware.RequestID(next).ServeHTTP(w, req)

	if seen == "" {
		t.Fatal("no request id assigned")
	}
	if _, err := uuid.Parse(seen); err != nil {
		t.Errorf("request id is not a UUID: %q", seen)
	}
	if got := w.Header().Get("X-Request-ID"); got != seen {
		t.Errorf("response header %q does not match context id %q", got, seen)
	}
}

func TestRequestIDIgnoresClientSuppliedID(t *testing.T) {
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {})
	req := httptest.NewRequest(http.MethodPost, "/ingest", nil)
	req.Header.Set("X-Request-ID", "attacker-chosen")
	w := httptest.NewRecorder()
	middleware.RequestID(next).ServeHTTP(w, req)

	if got := w.Header().Get("X-Request-ID"); got == "attacker-chosen" {
		t.Error("client-supplied correlation id must not be trusted")
	}
}

// failingBody fails the test if anything reads it.
type failingBody struct {
	t *testing.T
}

func (b *failingBody) Read(p []byte) (int, error) {
	b.t.Error("body was read before the size check")
	return 0, errors.New("body must not be read")
}

func (b *failingBody) Close() error { return nil }

func TestPayloadSizeLimitRejectsBeforeBodyRead(t *testing.T) {
	handlerCalled := false
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		handlerCalled = true
	})

	req := httptest.NewRequest(http.MethodPost, "/ingest", nil)
	req.Body = &failingBody{t: t}
	req.Header.Set("Content-Length", "2097152") // 2 MiB declared
	w := httptest.NewRecorder()

	middleware.PayloadSizeLimit(1<<20)(next).ServeHTTP(w, req)

	if handlerCalled {
		t.Error("handler must not run for oversized declared payloads")
	}
	if w.Code != http.StatusRequestEntityTooLarge {
		t.Errorf("status = %d, want 413", w.Code)
	}
}

func TestPayloadSizeLimitTable(t *testing.T) {
	tests := []struct {
		name          string
		contentLength string
		wantStatus    int
	}{
		{"within limit", "512", http.StatusOK},
		{"at limit", "1048576", http.StatusOK},
		{"over limit", "1048577", http.StatusRequestEntityTooLarge},
		{"absent declaration", "", http.StatusOK},
		{"unparsable", "one-megabyte", http.StatusBadRequest},
		{"negative", "-5", http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusOK)
			})
			req := httptest.NewRequest(http.MethodPost, "/ingest", nil)
			if tt.contentLength != "" {
				req.Header.Set("Content-Length", tt.contentLength)
			}
			w := httptest.NewRecorder()
			middleware.PayloadSizeLimit(1<<20)(next).ServeHTTP(w, req)

			if w.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", w.Code, tt.wantStatus)
			}
		})
	}
}

func TestTimeoutReturnsGatewayTimeout(t *testing.T) {
	slow := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(5 * time.Second):
			t.Error("handler context was not cancelled")
		}
	})

	h := middleware.Chain(slow,
		middleware.RequestID,
		middleware.Timeout(50*time.Millisecond),
	)

	req := httptest.NewRequest(http.MethodPost, "/ingest", nil)
	w := httptest.NewRecorder()

	start := time.Now()
	h.ServeHTTP(w, req)
	elapsed := time.Since(start)

	if w.Code != http.StatusGatewayTimeout {
		t.Fatalf("status = %d, want 504", w.Code)
	}
	if elapsed > 2*time.Second {
		t.Errorf("timeout response took too long: %v", elapsed)
	}

	var body struct {
		Error     string `json:"error"`
		RequestID string `json:"request_id"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("invalid JSON body: %v", err)
	}
	if body.Error != "Gateway Timeout" {
		t.Errorf("error name = %q", body.Error)
	}
	if body.RequestID == "" {
		t.Error("timeout response must carry the correlation id")
	}
}

func TestTimeoutPassesFastRequests(t *testing.T) {
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte("ok"))
	})

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	w := httptest.NewRecorder()
	middleware.Timeout(time.Second)(next).ServeHTTP(w, req)

	if w.Code != http.StatusCreated {
		t.Errorf("status = %d, want 201", w.Code)
	}
	if w.Body.String() != "ok" {
		t.Errorf("body = %q", w.Body.String())
	}
}

func TestRateLimitMiddleware(t *testing.T) {
	limiter := ratelimit.New(1, time.Minute)
	defer limiter.Stop()

	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	h := middleware.Chain(next, middleware.RequestID, middleware.RateLimit(limiter))

	send := func(remote string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/batch", nil)
		req.RemoteAddr = remote
		w := httptest.NewRecorder()
		h.ServeHTTP(w, req)
		return w
	}

	if w := send("10.1.1.1:5000"); w.Code != http.StatusOK {
		t.Fatalf("first request: status = %d", w.Code)
	}
	w := send("10.1.1.1:5001")
	if w.Code != http.StatusTooManyRequests {
		t.Fatalf("second request: status = %d, want 429", w.Code)
	}
	if w.Header().Get("Retry-After") == "" {
		t.Error("429 response missing Retry-After")
	}

	// A different client address has its own budget
	if w := send("10.2.2.2:5000"); w.Code != http.StatusOK {
		t.Errorf("other client: status = %d, want 200", w.Code)
	}
}

func TestChainAppliesOutermostFirst(t *testing.T) {
	var order []string
	tag := func(name string) func(http.Handler) http.Handler {
		return func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				order = append(order, name)
				next.ServeHTTP(w, r)
			})
		}
	}

	h := middleware.Chain(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			order = append(order, "handler")
		}),
		tag("outer"), tag("middle"), tag("inner"),
	)

	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))

	want := []string{"outer", "middle", "inner", "handler"}
	for i := range want {
		if i >= len(order) || order[i] != want[i] {
			t.Fatalf("execution order = %v, want %v", order, want)
		}
	}
}
