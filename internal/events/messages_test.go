package events

import (
	"testing"
	"time"
)

func TestRecordEventRoundTrip(t *testing.T) {
	event := NewRecordEvent("r1", "u1", ActionCreated)

	data, err := event.ToJSON()
	if err != nil {
		t.Fatalf("to json: %v", err)
	}

	got, err := RecordEventFromJSON(data)
	if err != nil {
		t.Fatalf("from json: %v", err)
	}
	if got.RecordID != "r1" || got.OwnerID != "u1" || got.Action != ActionCreated {
		t.Fatalf("round trip mismatch: %+v", got)
	}
	if got.Timestamp.IsZero() || time.Since(got.Timestamp) > time.Minute {
		t.Fatalf("unexpected timestamp %v", got.Timestamp)
	}
}

func TestRecordEventFromJSONRejectsGarbage(t *testing.T) {
	if _, err := RecordEventFromJSON([]byte("not json")); err == nil {
		t.Fatalf("expected error")
	}
}
