// Package middleware implements the guard chain wrapping every inbound
// request. Composition order is a data-driven list passed to Chain, so the
// ordering of defenses is auditable in one place (see internal/server).
package middleware

import (
	"fmt"
	"net/http"
	"runtime/debug"
	"time"

	"wazuhgate/internal/logger"
	"wazuhgate/internal/metrics"
	"wazuhgate/internal/reqctx"
	"wazuhgate/internal/respond"
)

// responseWriter wraps http.ResponseWriter to capture status and size and to
// stamp the request duration header before the status line goes out.
type responseWriter struct {
	http.ResponseWriter
	status int
	size   int
	start  time.Time
}

func (rw *responseWriter) WriteHeader(status int) {
	if rw.status == 0 {
		rw.status = status
		rw.Header().Set("X-Request-Duration", time.Since(rw.start).String())
	}
	rw.ResponseWriter.WriteHeader(status)
}

func (rw *responseWriter) Write(b []byte) (int, error) {
	if rw.status == 0 {
		rw.WriteHeader(http.StatusOK)
	}
	n, err := rw.ResponseWriter.Write(b)
	rw.size += n
	return n, err
}

// Logging logs all HTTP requests with structured logging and emits a warning
// for requests slower than slowThreshold. The threshold is observability
// only: slow requests are never rejected here, the hard ceiling is Timeout.
func Logging(slowThreshold time.Duration) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rc, _ := reqctx.From(r.Context())

			// Wrap response writer
			rw := &responseWriter{ResponseWriter: w, start: start}

			// Create logger with request context
			log := logger.Logger.With().
				Str("request_id", requestIDOf(rc)).
				Str("method", r.Method).
				Str("path", r.URL.Path).
				Str("client_ip", clientIPOf(rc, r)).
				Logger()

			log.Info().
				Int64("content_length", r.ContentLength).
				Msg("request received")

			// Call next handler
			next.ServeHTTP(rw, r)

			// Log response
			duration := time.Since(start)
			log.Info().
				Int("status", rw.status).
				Int("response_size", rw.size).
				Dur("duration_ms", duration).
				Msg("request completed")

			if duration > slowThreshold {
				log.Warn().
					Dur("duration_ms", duration).
					Dur("threshold_ms", slowThreshold).
					Msg("slow request")
				metrics.HTTPSlowRequests.WithLabelValues(r.Method, r.URL.Path).Inc()
			}

			// Record metrics
			metrics.HTTPRequestsTotal.WithLabelValues(
				r.Method,
				r.URL.Path,
				fmt.Sprintf("%d", rw.status),
			).Inc()

			metrics.HTTPRequestDuration.WithLabelValues(
				r.Method,
				r.URL.Path,
				fmt.Sprintf("%d", rw.status),
			).Observe(duration.Seconds())

			if r.ContentLength > 0 {
				metrics.HTTPRequestSize.WithLabelValues(
					r.Method,
					r.URL.Path,
				).Observe(float64(r.ContentLength))
			}
		})
	}
}

// Recovery recovers from panics at the outermost boundary. The stack trace
// stays server-side; the client gets the generic 500 through the presenter.
func Recovery(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if err := recover(); err != nil {
				// Get stack trace
				stack := debug.Stack()

				// Log panic
				log := logger.WithRequestID(reqctx.RequestID(r.Context()))
				log.Error().
					Str("method", r.Method).
					Str("path", r.URL.Path).
					Interface("panic", err).
					Bytes("stack", stack).
					Msg("panic recovered")

				// Record metric
				metrics.PanicsRecovered.WithLabelValues("http_handler").Inc()

				// Return error response
				respond.Unexpected(w, r)
			}
		}()

		next.ServeHTTP(w, r)
	})
}

// Chain applies middlewares in order
func Chain(h http.Handler, middlewares ...func(http.Handler) http.Handler) http.Handler {
	for i := len(middlewares) - 1; i >= 0; i-- {
		h = middlewares[i](h)
	}
	return h
}

func requestIDOf(rc *reqctx.RequestContext) string {
	if rc == nil {
		return ""
	}
	return rc.RequestID
}

func clientIPOf(rc *reqctx.RequestContext, r *http.Request) string {
	if rc != nil && rc.ClientIP != "" {
		return rc.ClientIP
	}
	return r.RemoteAddr
}
