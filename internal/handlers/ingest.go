package handlers

import (
	"context"
	"errors"
	"io"
	"net/http"

	"wazuhgate/internal/forwarder"
	"wazuhgate/internal/metrics"
	"wazuhgate/internal/models"
	"wazuhgate/internal/reqctx"
	"wazuhgate/internal/respond"
)

// Deliverer is the forwarding capability the ingest routes need.
type Deliverer interface {
	Deliver(ctx context.Context, event *models.Event, requestID string) forwarder.Outcome
	DeliverBatch(ctx context.Context, events []models.Event, requestID string) ([]forwarder.Outcome, int)
}

// IngestHandler handles event ingestion via HTTP and forwards validated
// events to the agent.
type IngestHandler struct {
	forwarder Deliverer
}

// NewIngestHandler creates a new ingest handler
func NewIngestHandler(f Deliverer) *IngestHandler {
	return &IngestHandler{forwarder: f}
}

// IngestResponse is returned for a single-event ingestion. The request
// itself succeeds even when delivery fails; the outcome says which.
type IngestResponse struct {
	forwarder.Outcome
	RequestID string `json:"request_id"`
}

// BatchResponse reports per-item outcomes at their original indexes plus the
// aggregate error count.
type BatchResponse struct {
	Status    string              `json:"status"`
	Total     int                 `json:"total"`
	Errors    int                 `json:"errors"`
	Details   []forwarder.Outcome `json:"details"`
	RequestID string              `json:"request_id"`
}

// Ingest handles POST /ingest: one validated event, one delivery attempt.
func (h *IngestHandler) Ingest(w http.ResponseWriter, r *http.Request) {
	body, ok := h.readBody(w, r)
	if !ok {
		return
	}

	event, verr := models.ParseEvent(body)
	if verr != nil {
		h.rejectValidation(w, r, verr)
		return
	}
	metrics.IngestEventsTotal.WithLabelValues(r.URL.Path, "accepted").Inc()

	requestID := reqctx.RequestID(r.Context())
	outcome := h.forwarder.Deliver(r.Context(), event, requestID)

	respond.JSON(w, r, http.StatusOK, IngestResponse{
		Outcome:   outcome,
		RequestID: requestID,
	})
}

// Batch handles POST /batch: 1..1000 events, validated as a unit before any
// delivery, then delivered strictly in order with independent outcomes.
func (h *IngestHandler) Batch(w http.ResponseWriter, r *http.Request) {
	body, ok := h.readBody(w, r)
	if !ok {
		return
	}

	batch, verr := models.ParseBatch(body)
	if verr != nil {
		h.rejectValidation(w, r, verr)
		return
	}
	metrics.IngestBatchSize.Observe(float64(len(batch.Events)))
	metrics.IngestEventsTotal.WithLabelValues(r.URL.Path, "accepted").Add(float64(len(batch.Events)))

	requestID := reqctx.RequestID(r.Context())
	outcomes, errorCount := h.forwarder.DeliverBatch(r.Context(), batch.Events, requestID)

	respond.JSON(w, r, http.StatusOK, BatchResponse{
		Status:    "batch_processed",
		Total:     len(batch.Events),
		Errors:    errorCount,
		Details:   outcomes,
		RequestID: requestID,
	})
}

// readBody reads the (already size-bounded) request body.
func (h *IngestHandler) readBody(w http.ResponseWriter, r *http.Request) ([]byte, bool) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			metrics.PayloadRejections.WithLabelValues(r.URL.Path).Inc()
			respond.Error(w, r, http.StatusRequestEntityTooLarge, "Request payload exceeds the size limit")
		} else {
			respond.Error(w, r, http.StatusBadRequest, "Failed to read request body")
		}
		return nil, false
	}
	return body, true
}

func (h *IngestHandler) rejectValidation(w http.ResponseWriter, r *http.Request, verr *models.ValidationError) {
	metrics.IngestValidationErrors.WithLabelValues(r.URL.Path).Add(float64(len(verr.Fields)))
	metrics.IngestEventsTotal.WithLabelValues(r.URL.Path, "rejected").Inc()
	respond.ValidationFailed(w, r, verr)
}
