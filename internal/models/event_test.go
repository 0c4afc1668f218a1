package models_test

import (
	"reflect"
	"strings"
	"testing"

	"wazuhgate/internal/models"
)

func validEventJSON() string {
	return `{
        "timestamp": "2024-01-15T10:30:00Z",
        "source": "srv1",
        "message": "hello"
    }`
}

func TestParseEventValid(t *testing.T) {
	event, verr := models.ParseEvent([]byte(validEventJSON()))
	if verr != nil {
		t.Fatalf("unexpected validation error: %v", verr)
	}
	if event.Level != models.LevelInfo {
		t.Errorf("level not defaulted to info: got %q", event.Level)
	}
	if event.Source != "srv1" || event.Message != "hello" {
		t.Errorf("unexpected event: %+v", event)
	}
}

func TestParseEventFieldErrors(t *testing.T) {
	tests := []struct {
		name      string
		body      string
		wantField string
	}{
		{"invalid JSON", `{not json`, "body"},
		{"missing timestamp", `{"source":"s","message":"m"}`, "timestamp"},
		{"short timestamp", `{"timestamp":"2024","source":"s","message":"m"}`, "timestamp"},
		{"unparsable timestamp", `{"timestamp":"not-a-timestamp","source":"s","message":"m"}`, "timestamp"},
		{"missing source", `{"timestamp":"2024-01-15T10:30:00Z","message":"m"}`, "source"},
		{"source too long", `{"timestamp":"2024-01-15T10:30:00Z","source":"` + strings.Repeat("a", 257) + `","message":"m"}`, "source"},
		{"missing message", `{"timestamp":"2024-01-15T10:30:00Z","source":"s"}`, "message"},
		{"invalid level", `{"timestamp":"2024-01-15T10:30:00Z","source":"s","message":"m","level":"loud"}`, "level"},
		{"tag too long", `{"timestamp":"2024-01-15T10:30:00Z","source":"s","message":"m","tags":["` + strings.Repeat("t", 65) + `"]}`, "tags"},
		{"decoder too long", `{"timestamp":"2024-01-15T10:30:00Z","source":"s","message":"m","decoder":"` + strings.Repeat("d", 129) + `"}`, "decoder"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, verr := models.ParseEvent([]byte(tt.body))
			if verr == nil {
				t.Fatal("expected validation error, got none")
			}
			found := false
			for _, f := range verr.Fields {
				if f.Field == tt.wantField {
					found = true
				}
			}
			if !found {
				t.Errorf("expected error on field %q, got %+v", tt.wantField, verr.Fields)
			}
		})
	}
}

func TestParseEventMessageTooLong(t *testing.T) {
	body := `{"timestamp":"2024-01-15T10:30:00Z","source":"s","message":"` +
		strings.Repeat("m", models.MaxMessageLength+1) + `"}`
	_, verr := models.ParseEvent([]byte(body))
	if verr == nil {
		t.Fatal("expected validation error for oversized message")
	}
}

func TestParseEventCollectsAllFieldErrors(t *testing.T) {
	_, verr := models.ParseEvent([]byte(`{"level":"loud"}`))
	if verr == nil {
		t.Fatal("expected validation error")
	}
	if len(verr.Fields) < 4 {
		t.Errorf("expected errors on timestamp, source, message and level, got %+v", verr.Fields)
	}
}

func TestLevelNormalization(t *testing.T) {
	tests := []struct {
		in   string
		want models.Level
	}{
		{"", models.LevelInfo},
		{"info", models.LevelInfo},
		{"INFO", models.LevelInfo},
		{"Warning", models.LevelWarning},
		{"CRITICAL", models.LevelCritical},
	}
	for _, tt := range tests {
		body := `{"timestamp":"2024-01-15T10:30:00Z","source":"s","message":"m","level":"` + tt.in + `"}`
		if tt.in == "" {
			body = validEventJSON()
		}
		event, verr := models.ParseEvent([]byte(body))
		if verr != nil {
			t.Fatalf("level %q: unexpected error %v", tt.in, verr)
		}
		if event.Level != tt.want {
			t.Errorf("level %q: got %q, want %q", tt.in, event.Level, tt.want)
		}
	}
}

func TestValidateIdempotent(t *testing.T) {
	body := `{"timestamp":"2024-01-15T10:30:00Z","source":"s","message":"m","level":"ERROR","tags":["  a  ","b"]}`
	event, verr := models.ParseEvent([]byte(body))
	if verr != nil {
		t.Fatalf("unexpected error: %v", verr)
	}

	canonical := *event
	canonical.Tags = append([]string(nil), event.Tags...)

	if verr := event.Validate(); verr != nil {
		t.Fatalf("re-validation failed: %v", verr)
	}
	if !reflect.DeepEqual(*event, canonical) {
		t.Errorf("re-validation changed canonical form: %+v vs %+v", *event, canonical)
	}
}

func TestParseEventIgnoresUnknownFields(t *testing.T) {
	body := `{"timestamp":"2024-01-15T10:30:00Z","source":"s","message":"m","future_field":42}`
	if _, verr := models.ParseEvent([]byte(body)); verr != nil {
		t.Errorf("unknown fields must be ignored, got %v", verr)
	}
}
