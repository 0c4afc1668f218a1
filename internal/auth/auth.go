// Package auth gates protected routes behind the shared API key.
package auth

import (
	"crypto/sha256"
	"crypto/subtle"
	"errors"
	"net/http"

	"wazuhgate/internal/logger"
	"wazuhgate/internal/metrics"
	"wazuhgate/internal/reqctx"
	"wazuhgate/internal/respond"
)

// APIKeyHeader is the header clients present the credential in.
const APIKeyHeader = "X-API-Key"

var (
	// ErrMissingCredentials is returned when the header is absent.
	ErrMissingCredentials = errors.New("authentication required")

	// ErrInvalidCredentials is returned when the presented key does not match.
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrNoKeyConfigured is a startup condition: the gateway refuses to run
	// without a configured credential.
	ErrNoKeyConfigured = errors.New("no API key configured")
)

// Authenticator performs constant-time API-key checks. The configured key is
// stored as a SHA-256 digest so comparisons are independent of both content
// and length of the presented value.
type Authenticator struct {
	keyDigest [sha256.Size]byte
}

// New creates an Authenticator for the configured credential.
func New(key string) (*Authenticator, error) {
	if key == "" {
		return nil, ErrNoKeyConfigured
	}
	return &Authenticator{keyDigest: sha256.Sum256([]byte(key))}, nil
}

// Authenticate checks a presented header value. The comparison runs on
// fixed-size digests through crypto/subtle so response latency carries no
// signal about matching prefix length.
func (a *Authenticator) Authenticate(headerValue string) error {
	if headerValue == "" {
		return ErrMissingCredentials
	}
	presented := sha256.Sum256([]byte(headerValue))
	if subtle.ConstantTimeCompare(presented[:], a.keyDigest[:]) != 1 {
		return ErrInvalidCredentials
	}
	return nil
}

// Require wraps a handler with the API-key check. Rejections are logged with
// request context; the response body carries only the generic reason.
func (a *Authenticator) Require(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		err := a.Authenticate(r.Header.Get(APIKeyHeader))
		if err == nil {
			next.ServeHTTP(w, r)
			return
		}

		reason := "invalid"
		message := "Invalid credentials"
		if errors.Is(err, ErrMissingCredentials) {
			reason = "missing"
			message = "Authentication required"
		}

		log := logger.WithRequestID(reqctx.RequestID(r.Context()))
		log.Warn().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Str("remote_addr", r.RemoteAddr).
			Str("reason", reason).
			Msg("authentication rejected")
		metrics.AuthFailuresTotal.WithLabelValues(reason).Inc()

		respond.Error(w, r, http.StatusUnauthorized, message)
	})
}
