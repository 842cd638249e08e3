package notification

import (
	"time"
)

// Severity classifies how urgent a notification is.
type Severity string

const (
	SeverityInfo     Severity = "info"
	SeverityWarning  Severity = "warning"
	SeverityError    Severity = "error"
	SeverityCritical Severity = "critical"
)

// Valid reports whether the severity is one of the known values.
func (s Severity) Valid() bool {
	switch s {
	case SeverityInfo, SeverityWarning, SeverityError, SeverityCritical:
		return true
	}
	return false
}

// Notification is a durable record of an event delivered to one subscriber.
//
// Inherited is true when the matched subscription covered the event through
// an ancestor path rather than the exact object path. SubscriptionID
// references the subscription that caused delivery; it becomes empty when
// that subscription is later removed.
type Notification struct {
	ID             string         `json:"id"`
	SubscriberID   string         `json:"subscriber_id"`
	EventType      string         `json:"event_type"`
	Title          string         `json:"title"`
	Content        string         `json:"content"`
	Severity       Severity       `json:"severity"`
	ObjectPath     string         `json:"object_path"`
	Timestamp      time.Time      `json:"timestamp"`
	IsRead         bool           `json:"is_read"`
	ActionURL      string         `json:"action_url,omitempty"`
	SubscriptionID string         `json:"subscription_id,omitempty"`
	Inherited      bool           `json:"inherited"`
	Extra          map[string]any `json:"extra,omitempty"`
}
