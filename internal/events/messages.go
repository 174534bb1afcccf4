package events

import (
	"encoding/json"
	"time"
)

const (
	ActionCreated = "created"
	ActionDeleted = "deleted"
)

// RecordEvent announces a change to one expense record. Consumers
// fetch anything more they need from the store; the message carries
// only identifiers.
type RecordEvent struct {
	RecordID  string    `json:"record_id"`
	OwnerID   string    `json:"owner_id"`
	Action    string    `json:"action"`
	Timestamp time.Time `json:"timestamp"`
}

// NewRecordEvent builds an event stamped with the current time.
func NewRecordEvent(recordID, ownerID, action string) *RecordEvent {
	return &RecordEvent{
		RecordID:  recordID,
		OwnerID:   ownerID,
		Action:    action,
		Timestamp: time.Now(),
	}
}

// ToJSON converts the event to JSON bytes
func (e *RecordEvent) ToJSON() ([]byte, error) {
	return json.Marshal(e)
}

// RecordEventFromJSON creates an event from JSON bytes
func RecordEventFromJSON(data []byte) (*RecordEvent, error) {
	var e RecordEvent
	if err := json.Unmarshal(data, &e); err != nil {
		return nil, err
	}
	return &e, nil
}
