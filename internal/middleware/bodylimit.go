package middleware

import (
	"net/http"
	"strconv"

	"wazuhgate/internal/logger"
	"wazuhgate/internal/metrics"
	"wazuhgate/internal/reqctx"
	"wazuhgate/internal/respond"
)

// PayloadSizeLimit rejects requests whose declared Content-Length exceeds
// the per-route ceiling, before the body is read, so oversized attacker
// input is never buffered. An absent declaration is permitted: the actual
// body read is bounded by MaxBytesReader.
func PayloadSizeLimit(limit int64) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if cl := r.Header.Get("Content-Length"); cl != "" {
				declared, err := strconv.ParseInt(cl, 10, 64)
				if err != nil || declared < 0 {
					respond.Error(w, r, http.StatusBadRequest, "Invalid Content-Length header")
					return
				}
				if declared > limit {
					log := logger.WithRequestID(reqctx.RequestID(r.Context()))
					log.Warn().
						Str("path", r.URL.Path).
						Int64("declared", declared).
						Int64("limit", limit).
						Msg("payload size rejected")
					metrics.PayloadRejections.WithLabelValues(r.URL.Path).Inc()
					respond.Error(w, r, http.StatusRequestEntityTooLarge, "Request payload exceeds the size limit")
					return
				}
			}

			// Backstop for undeclared or chunked bodies
			r.Body = http.MaxBytesReader(w, r.Body, limit)
			next.ServeHTTP(w, r)
		})
	}
}
