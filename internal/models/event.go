package models

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Level represents event severity levels accepted by the gateway.
type Level string

const (
	LevelDebug    Level = "debug"
	LevelInfo     Level = "info"
	LevelWarning  Level = "warning"
	LevelError    Level = "error"
	LevelCritical Level = "critical"
)

// Field bounds
const (
	MinTimestampLength = 10
	MaxSourceLength    = 256
	MaxMessageLength   = 65536 // 64KB max message size
	MaxTagLength       = 64
	MaxDecoderLength   = 128
)

// Event represents a single log record destined for the downstream agent.
// Unknown JSON fields are ignored so newer clients stay compatible.
type Event struct {
	// Timestamp the event was generated, ISO-8601
	Timestamp string `json:"timestamp"`

	// Source service or application that generated the event
	Source string `json:"source"`

	// Event message content
	Message string `json:"message"`

	// Severity level, defaults to info
	Level Level `json:"level,omitempty"`

	// Optional ordered tags
	Tags []string `json:"tags,omitempty"`

	// Optional structured metadata
	Metadata map[string]interface{} `json:"metadata,omitempty"`

	// Optional downstream decoder override for the wire header
	Decoder string `json:"decoder,omitempty"`
}

// FieldError describes a validation failure on a single field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationError aggregates all field-level failures for one payload.
type ValidationError struct {
	Fields []FieldError
}

func (e *ValidationError) Error() string {
	if len(e.Fields) == 0 {
		return "validation failed"
	}
	parts := make([]string, len(e.Fields))
	for i, f := range e.Fields {
		parts[i] = f.Field + ": " + f.Message
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// IsValid checks if the level is one of the accepted severities.
func (l Level) IsValid() bool {
	switch l {
	case LevelDebug, LevelInfo, LevelWarning, LevelError, LevelCritical:
		return true
	default:
		return false
	}
}

// validateTimestamp requires an ISO-8601 string of at least MinTimestampLength.
func validateTimestamp(v string) error {
	if v == "" {
		return fmt.Errorf("field is required")
	}
	if len(v) < MinTimestampLength {
		return fmt.Errorf("must be at least %d characters", MinTimestampLength)
	}
	if _, err := ParseTimestamp(v); err != nil {
		return fmt.Errorf("must be an ISO-8601 timestamp")
	}
	return nil
}

func validateSource(v string) error {
	if v == "" {
		return fmt.Errorf("field is required")
	}
	if len(v) > MaxSourceLength {
		return fmt.Errorf("must be at most %d characters", MaxSourceLength)
	}
	return nil
}

func validateMessage(v string) error {
	if v == "" {
		return fmt.Errorf("field is required")
	}
	if len(v) > MaxMessageLength {
		return fmt.Errorf("must be at most %d characters", MaxMessageLength)
	}
	return nil
}

// validateLevel lower-cases and checks enum membership. An empty level
// defaults to info; anything outside the enum is rejected.
func validateLevel(v string) (Level, error) {
	if v == "" {
		return LevelInfo, nil
	}
	level := Level(strings.ToLower(v))
	if !level.IsValid() {
		return "", fmt.Errorf("must be one of debug, info, warning, error, critical")
	}
	return level, nil
}

func validateTags(tags []string) error {
	for i, tag := range tags {
		if len(tag) > MaxTagLength {
			return fmt.Errorf("tags[%d] must be at most %d characters", i, MaxTagLength)
		}
	}
	return nil
}

func validateDecoder(v string) error {
	if len(v) > MaxDecoderLength {
		return fmt.Errorf("must be at most %d characters", MaxDecoderLength)
	}
	return nil
}

// Validate runs every field validator, collecting all failures, and
// canonicalizes the event in place (level lower-cased and defaulted,
// tags trimmed). Validating an already-canonical event is a no-op.
func (e *Event) Validate() *ValidationError {
	var fields []FieldError

	if err := validateTimestamp(e.Timestamp); err != nil {
		fields = append(fields, FieldError{Field: "timestamp", Message: err.Error()})
	}
	if err := validateSource(e.Source); err != nil {
		fields = append(fields, FieldError{Field: "source", Message: err.Error()})
	}
	if err := validateMessage(e.Message); err != nil {
		fields = append(fields, FieldError{Field: "message", Message: err.Error()})
	}

	level, err := validateLevel(string(e.Level))
	if err != nil {
		fields = append(fields, FieldError{Field: "level", Message: err.Error()})
	} else {
		e.Level = level
	}

	for i, tag := range e.Tags {
		e.Tags[i] = strings.TrimSpace(tag)
	}
	if err := validateTags(e.Tags); err != nil {
		fields = append(fields, FieldError{Field: "tags", Message: err.Error()})
	}
	if err := validateDecoder(e.Decoder); err != nil {
		fields = append(fields, FieldError{Field: "decoder", Message: err.Error()})
	}

	if len(fields) > 0 {
		return &ValidationError{Fields: fields}
	}
	return nil
}

// ParseEvent decodes and validates a single event payload.
// Structural errors short-circuit; field errors are collected.
func ParseEvent(data []byte) (*Event, *ValidationError) {
	var event Event
	if err := json.Unmarshal(data, &event); err != nil {
		return nil, &ValidationError{Fields: []FieldError{
			{Field: "body", Message: "invalid JSON payload"},
		}}
	}
	if verr := event.Validate(); verr != nil {
		return nil, verr
	}
	return &event, nil
}
