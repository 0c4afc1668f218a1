package models

import (
	"encoding/json"
	"fmt"
)

// Batch cardinality bounds
const (
	MinBatchSize = 1
	MaxBatchSize = 1000
)

// BatchRequest is an ordered sequence of events ingested in one request.
// Order is preserved end-to-end; each event's delivery outcome is reported
// at its original index.
type BatchRequest struct {
	Events []Event `json:"events"`
}

// ParseBatch decodes and validates a batch payload. The whole batch is
// rejected before any delivery is attempted: cardinality violations and any
// per-event field error fail the request as a unit.
func ParseBatch(data []byte) (*BatchRequest, *ValidationError) {
	var batch BatchRequest
	if err := json.Unmarshal(data, &batch); err != nil {
		return nil, &ValidationError{Fields: []FieldError{
			{Field: "body", Message: "invalid JSON payload"},
		}}
	}

	if len(batch.Events) < MinBatchSize {
		return nil, &ValidationError{Fields: []FieldError{
			{Field: "events", Message: fmt.Sprintf("batch must contain at least %d event", MinBatchSize)},
		}}
	}
	if len(batch.Events) > MaxBatchSize {
		return nil, &ValidationError{Fields: []FieldError{
			{Field: "events", Message: fmt.Sprintf("batch must contain at most %d events", MaxBatchSize)},
		}}
	}

	var fields []FieldError
	for i := range batch.Events {
		if verr := batch.Events[i].Validate(); verr != nil {
			for _, f := range verr.Fields {
				fields = append(fields, FieldError{
					Field:   fmt.Sprintf("events[%d].%s", i, f.Field),
					Message: f.Message,
				})
			}
		}
	}
	if len(fields) > 0 {
		return nil, &ValidationError{Fields: fields}
	}

	return &batch, nil
}
