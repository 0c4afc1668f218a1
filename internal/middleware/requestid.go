package middleware

import (
	"net"
	"net/http"
	"time"

	"github.com/google/uuid"

	"wazuhgate/internal/reqctx"
)

// RequestID assigns a fresh random correlation identifier to every request
// and attaches it to the response as a header. It is the outermost stage of
// the guard chain so every later failure can be correlated.
func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := uuid.New().String()

		rc := &reqctx.RequestContext{
			RequestID: requestID,
			ClientIP:  clientIP(r),
			Method:    r.Method,
			Path:      r.URL.Path,
			StartTime: time.Now(),
		}

		// Add to response header
		w.Header().Set("X-Request-ID", requestID)

		next.ServeHTTP(w, r.WithContext(reqctx.With(r.Context(), rc)))
	})
}

// clientIP strips the port from the remote address.
func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
