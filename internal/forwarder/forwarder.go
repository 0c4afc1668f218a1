// Package forwarder serializes validated events into the agent wire format
// and delivers them over the local Unix datagram socket.
//
// Delivery is fire-and-forget per event: the socket is opened, used, and
// closed within one call, no connection state crosses requests, and there is
// no automatic retry.
package forwarder

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"os"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"wazuhgate/internal/logger"
	"wazuhgate/internal/metrics"
	"wazuhgate/internal/models"
)

// ErrorKind classifies a delivery failure.
type ErrorKind string

const (
	KindSocketUnavailable ErrorKind = "socket_unavailable"
	KindMessageTooLarge   ErrorKind = "message_too_large"
	KindTransportError    ErrorKind = "transport_error"
	KindUnexpected        ErrorKind = "unexpected"
)

// Outcome statuses
const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// Client-facing messages. Generic by design: internal paths and error codes
// never reach the client.
const (
	msgSent              = "Event sent"
	msgSocketUnavailable = "Backend service unavailable"
	msgTooLarge          = "Message too long"
	msgTransportError    = "Failed to deliver event"
	msgUnexpected        = "Unexpected delivery failure"
)

// Outcome is the per-event delivery result. One is produced per event and
// never retried automatically.
type Outcome struct {
	Status    string    `json:"status"`
	Message   string    `json:"message"`
	ErrorKind ErrorKind `json:"error_kind,omitempty"`
}

// Forwarder builds wire messages and delivers them to the agent socket.
type Forwarder struct {
	socketPath     string
	defaultDecoder string

	// Metrics
	delivered atomic.Uint64
	failed    atomic.Uint64
}

// New creates a Forwarder for the agent socket at socketPath. Events that do
// not name a decoder get defaultDecoder in the wire header.
func New(socketPath, defaultDecoder string) *Forwarder {
	return &Forwarder{
		socketPath:     socketPath,
		defaultDecoder: defaultDecoder,
	}
}

// wireEvent is the event as the agent sees it: the validated event plus the
// injected ingest marker.
type wireEvent struct {
	models.Event
	Ingest string `json:"ingest"`
}

// BuildWireMessage renders the datagram: ASCII header "1:<decoder>:"
// immediately followed by the JSON-encoded event with the ingest marker.
func (f *Forwarder) BuildWireMessage(event *models.Event) ([]byte, error) {
	decoder := event.Decoder
	if decoder == "" {
		decoder = f.defaultDecoder
	}

	payload, err := json.Marshal(wireEvent{Event: *event, Ingest: "api"})
	if err != nil {
		return nil, err
	}

	header := "1:" + decoder + ":"
	msg := make([]byte, 0, len(header)+len(payload))
	msg = append(msg, header...)
	msg = append(msg, payload...)
	return msg, nil
}

// SocketPresent reports whether the agent socket path exists.
func (f *Forwarder) SocketPresent() bool {
	_, err := os.Stat(f.socketPath)
	return err == nil
}

// Deliver sends one event to the agent. Every non-success outcome is logged
// with full detail server-side; the returned message is generic.
func (f *Forwarder) Deliver(ctx context.Context, event *models.Event, requestID string) Outcome {
	start := time.Now()
	log := logger.WithRequestID(requestID)

	msg, err := f.BuildWireMessage(event)
	if err != nil {
		return f.fail(log, KindUnexpected, err)
	}

	// Check the path before connecting so an absent agent is reported
	// without a dial attempt.
	if !f.SocketPresent() {
		return f.fail(log, KindSocketUnavailable, errors.New("agent socket not found at "+f.socketPath))
	}

	var d net.Dialer
	conn, err := d.DialContext(ctx, "unixgram", f.socketPath)
	if err != nil {
		return f.fail(log, classify(err), err)
	}
	defer conn.Close()

	n, err := conn.Write(msg)
	if err != nil {
		return f.fail(log, classify(err), err)
	}

	f.delivered.Add(1)
	metrics.ForwardTotal.WithLabelValues(StatusSuccess).Inc()
	metrics.ForwardDuration.Observe(time.Since(start).Seconds())
	metrics.ForwardBytesWritten.Add(float64(n))
	log.Debug().
		Int("bytes", n).
		Dur("duration", time.Since(start)).
		Msg("event delivered")

	return Outcome{Status: StatusSuccess, Message: msgSent}
}

// DeliverBatch delivers events strictly in order. Each delivery is
// independent: one event's failure never skips subsequent events. Returns
// the per-item outcomes at their original indexes and the aggregate error
// count.
func (f *Forwarder) DeliverBatch(ctx context.Context, events []models.Event, requestID string) ([]Outcome, int) {
	outcomes := make([]Outcome, len(events))
	errorCount := 0
	for i := range events {
		outcomes[i] = f.Deliver(ctx, &events[i], requestID)
		if outcomes[i].Status != StatusSuccess {
			errorCount++
		}
	}
	return outcomes, errorCount
}

// fail records a non-success outcome: full detail in the server log and
// metrics, a generic phrase in the returned outcome.
func (f *Forwarder) fail(log zerolog.Logger, kind ErrorKind, err error) Outcome {
	f.failed.Add(1)
	metrics.ForwardTotal.WithLabelValues(string(kind)).Inc()
	log.Error().
		Err(err).
		Str("error_kind", string(kind)).
		Msg("event delivery failed")
	return Outcome{Status: StatusError, Message: clientMessage(kind), ErrorKind: kind}
}

// clientMessage returns the generic, non-identifying phrase for a kind.
func clientMessage(kind ErrorKind) string {
	switch kind {
	case KindSocketUnavailable:
		return msgSocketUnavailable
	case KindMessageTooLarge:
		return msgTooLarge
	case KindTransportError:
		return msgTransportError
	default:
		return msgUnexpected
	}
}

// Stats returns total delivered and failed event counts since startup.
func (f *Forwarder) Stats() (delivered, failed uint64) {
	return f.delivered.Load(), f.failed.Load()
}

// classify maps a transport error to its failure kind.
func classify(err error) ErrorKind {
	switch {
	case errors.Is(err, syscall.ENOENT), errors.Is(err, syscall.ECONNREFUSED):
		return KindSocketUnavailable
	case errors.Is(err, syscall.EMSGSIZE):
		return KindMessageTooLarge
	default:
		var netErr net.Error
		var opErr *net.OpError
		if errors.As(err, &netErr) || errors.As(err, &opErr) {
			return KindTransportError
		}
		return KindUnexpected
	}
}
