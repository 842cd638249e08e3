package notification

import (
	"context"
	"time"
)

// Filter narrows which notifications a query covers. Zero values mean "no
// restriction" for strings; IsRead, From and To use pointers for the same
// reason.
type Filter struct {
	Path      string     // exact object path
	EventType string     // exact event type
	Severity  Severity   // exact severity
	IsRead    *bool      // read state
	From      *time.Time // inclusive lower bound on Timestamp
	To        *time.Time // inclusive upper bound on Timestamp
	Search    string     // case-insensitive substring over title and content
}

// ListOptions adds offset pagination to a Filter.
type ListOptions struct {
	Filter
	Limit  int // maximum rows to return (0 means no limit)
	Offset int // rows to skip
}

// Storage handles notification persistence and retrieval.
//
// List returns rows ordered by timestamp descending with id descending as
// the tiebreak, a stable total order so that offset windows over a fixed
// data set never overlap or interleave. Count is the authoritative
// cardinality for a filter regardless of pagination state.
type Storage interface {
	// Create stores a new notification row.
	Create(ctx context.Context, n Notification) error

	// Get retrieves one notification, scoped to the subscriber.
	Get(ctx context.Context, subscriberID, id string) (*Notification, error)

	// List returns a page of the subscriber's notifications.
	List(ctx context.Context, subscriberID string, opts ListOptions) ([]Notification, error)

	// Count returns how many notifications match the filter.
	Count(ctx context.Context, subscriberID string, filter Filter) (int, error)

	// MarkRead transitions one notification to read. Idempotent: marking an
	// already-read row succeeds as a no-op. Returns ErrNotFound if the id
	// does not belong to the subscriber.
	MarkRead(ctx context.Context, subscriberID, id string) error

	// BulkMarkRead marks a set of the subscriber's notifications as read
	// and reports how many rows actually changed state. Unknown and foreign
	// ids are skipped, not errors.
	BulkMarkRead(ctx context.Context, subscriberID string, ids []string) (int, error)
}
