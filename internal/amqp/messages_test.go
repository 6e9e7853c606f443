package amqp

import (
	"testing"
	"time"
)

func TestNewChangeMessages(t *testing.T) {
	m := NewMetaChange()
	if m.Kind != KindMeta || m.Year != 0 {
		t.Fatalf("got %+v", m)
	}
	if m.Timestamp.IsZero() {
		t.Fatal("timestamp should be set")
	}

	y := NewYearChange(2024)
	if y.Kind != KindYear || y.Year != 2024 {
		t.Fatalf("got %+v", y)
	}
}

func TestChangeMessageJSON(t *testing.T) {
	msg := &ChangeMessage{
		Kind:      KindYear,
		Year:      2024,
		Timestamp: time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC),
	}

	data, err := msg.ToJSON()
	if err != nil {
		t.Fatalf("ToJSON: %v", err)
	}
	parsed, err := ChangeMessageFromJSON(data)
	if err != nil {
		t.Fatalf("FromJSON: %v", err)
	}
	if parsed.Kind != msg.Kind || parsed.Year != msg.Year || !parsed.Timestamp.Equal(msg.Timestamp) {
		t.Fatalf("round trip mismatch: %+v", parsed)
	}
}

func TestChangeMessageInvalidJSON(t *testing.T) {
	if _, err := ChangeMessageFromJSON([]byte(`{"year": "not_a_number"}`)); err == nil {
		t.Fatal("expected error for invalid JSON")
	}
}
