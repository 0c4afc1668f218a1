// Package respond shapes every client-facing response. Internal failures are
// logged with full detail server-side; only sanitized, non-identifying
// messages leave the process.
package respond

import (
	"encoding/json"
	"net/http"

	"wazuhgate/internal/logger"
	"wazuhgate/internal/models"
	"wazuhgate/internal/reqctx"
)

// GenericServerError is the only message an unhandled failure may surface.
const GenericServerError = "An unexpected error occurred. Please try again later."

// errorNames maps status codes to fixed human-readable error names.
var errorNames = map[int]string{
	http.StatusBadRequest:            "Bad Request",
	http.StatusUnauthorized:          "Unauthorized",
	http.StatusForbidden:             "Forbidden",
	http.StatusNotFound:              "Not Found",
	http.StatusMethodNotAllowed:      "Method Not Allowed",
	http.StatusRequestEntityTooLarge: "Payload Too Large",
	http.StatusTooManyRequests:       "Too Many Requests",
	http.StatusInternalServerError:   "Internal Server Error",
	http.StatusGatewayTimeout:        "Gateway Timeout",
}

// ErrorName returns the fixed name for a status code.
func ErrorName(status int) string {
	if name, ok := errorNames[status]; ok {
		return name
	}
	return http.StatusText(status)
}

// ErrorBody is the client-facing error shape. The correlation id appears in
// both the body and the X-Request-ID header.
type ErrorBody struct {
	Error     string              `json:"error"`
	Message   string              `json:"message"`
	RequestID string              `json:"request_id,omitempty"`
	Details   []models.FieldError `json:"details,omitempty"`
}

// JSON writes v with the given status. The X-Request-ID header is set from
// the request context when present.
func JSON(w http.ResponseWriter, r *http.Request, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if id := reqctx.RequestID(r.Context()); id != "" {
		w.Header().Set("X-Request-ID", id)
	}
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// Error writes a declared HTTP-level failure: the original status code, its
// fixed error name, and the message passed through the sanitization rules.
func Error(w http.ResponseWriter, r *http.Request, status int, message string) {
	JSON(w, r, status, ErrorBody{
		Error:     ErrorName(status),
		Message:   Sanitize(message),
		RequestID: reqctx.RequestID(r.Context()),
	})
}

// ValidationFailed writes a 400 with per-field detail. Field paths drop the
// synthetic "body" root segment; the server-side log keeps them untouched.
func ValidationFailed(w http.ResponseWriter, r *http.Request, verr *models.ValidationError) {
	log := logger.WithRequestID(reqctx.RequestID(r.Context()))
	log.Warn().
		Str("path", r.URL.Path).
		Str("detail", verr.Error()).
		Msg("validation failed")

	details := make([]models.FieldError, len(verr.Fields))
	for i, f := range verr.Fields {
		details[i] = models.FieldError{
			Field:   sanitizeFieldPath(f.Field),
			Message: Sanitize(f.Message),
		}
	}
	JSON(w, r, http.StatusBadRequest, ErrorBody{
		Error:     ErrorName(http.StatusBadRequest),
		Message:   "Validation failed",
		RequestID: reqctx.RequestID(r.Context()),
		Details:   details,
	})
}

// Unexpected converts an unhandled failure into the generic 500. Full detail
// stays server-side.
func Unexpected(w http.ResponseWriter, r *http.Request) {
	JSON(w, r, http.StatusInternalServerError, ErrorBody{
		Error:     ErrorName(http.StatusInternalServerError),
		Message:   GenericServerError,
		RequestID: reqctx.RequestID(r.Context()),
	})
}
