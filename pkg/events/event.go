package events

import (
	"encoding/json"
	"time"
)

// Event is a domain event tagged with a hierarchical object path.
type Event struct {
	ID         string         `json:"event_id,omitempty"`
	ObjectPath string         `json:"object_path"`
	EventType  string         `json:"event_type"`
	Timestamp  time.Time      `json:"timestamp"`
	Data       map[string]any `json:"data,omitempty"`
}

// Decode parses a wire payload into an Event. A missing timestamp defaults
// to the current time so downstream ordering never sees a zero value.
func Decode(payload []byte) (Event, error) {
	var evt Event
	if err := json.Unmarshal(payload, &evt); err != nil {
		return Event{}, err
	}
	if evt.ObjectPath == "" || evt.EventType == "" {
		return Event{}, ErrMalformedEvent
	}
	if evt.Timestamp.IsZero() {
		evt.Timestamp = time.Now()
	}
	return evt, nil
}
