package middleware

import (
	"bytes"
	"context"
	"net/http"
	"sync"
	"time"

	"wazuhgate/internal/logger"
	"wazuhgate/internal/metrics"
	"wazuhgate/internal/reqctx"
	"wazuhgate/internal/respond"
)

// Timeout races request processing against a hard deadline. On expiry the
// in-flight work is cancelled through the request context and the client
// gets a Gateway-Timeout carrying the correlation id. Exceeding the ceiling
// is reported, not retried.
func Timeout(limit time.Duration) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx, cancel := context.WithTimeout(r.Context(), limit)
			defer cancel()
			r = r.WithContext(ctx)

			start := time.Now()
			tw := &timeoutWriter{header: make(http.Header)}
			done := make(chan struct{})
			panicChan := make(chan interface{}, 1)

			go func() {
				defer func() {
					if p := recover(); p != nil {
						panicChan <- p
					}
				}()
				next.ServeHTTP(tw, r)
				close(done)
			}()

			select {
			case p := <-panicChan:
				panic(p)

			case <-done:
				tw.mu.Lock()
				defer tw.mu.Unlock()
				dst := w.Header()
				for k, vv := range tw.header {
					dst[k] = vv
				}
				if tw.status == 0 {
					tw.status = http.StatusOK
				}
				w.WriteHeader(tw.status)
				_, _ = w.Write(tw.buf.Bytes())

			case <-ctx.Done():
				tw.mu.Lock()
				tw.timedOut = true
				tw.mu.Unlock()

				elapsed := time.Since(start)
				log := logger.WithRequestID(reqctx.RequestID(r.Context()))
				log.Error().
					Str("method", r.Method).
					Str("path", r.URL.Path).
					Dur("elapsed_ms", elapsed).
					Dur("limit_ms", limit).
					Msg("request timed out")
				metrics.HTTPTimeouts.WithLabelValues(r.Method, r.URL.Path).Inc()

				respond.Error(w, r, http.StatusGatewayTimeout, "Request processing exceeded the time limit")
			}
		})
	}
}

// timeoutWriter buffers the inner handler's response so a late write after
// expiry cannot race the timeout response on the real connection.
type timeoutWriter struct {
	mu       sync.Mutex
	header   http.Header
	buf      bytes.Buffer
	status   int
	timedOut bool
}

func (tw *timeoutWriter) Header() http.Header {
	return tw.header
}

func (tw *timeoutWriter) WriteHeader(status int) {
	tw.mu.Lock()
	defer tw.mu.Unlock()
	if tw.timedOut || tw.status != 0 {
		return
	}
	tw.status = status
}

func (tw *timeoutWriter) Write(b []byte) (int, error) {
	tw.mu.Lock()
	defer tw.mu.Unlock()
	if tw.timedOut {
		return 0, http.ErrHandlerTimeout
	}
	if tw.status == 0 {
		tw.status = http.StatusOK
	}
	return tw.buf.Write(b)
}
