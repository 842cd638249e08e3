package subscription

import (
	"context"
	"slices"
	"time"
)

// Subscription binds a subscriber to a canonical object path.
// Path is always canonical (see pkg/hierarchy); raw input is normalized by
// the Service before it reaches the store.
type Subscription struct {
	ID              string    `json:"id"`
	SubscriberID    string    `json:"subscriber_id"`
	Path            string    `json:"path"`
	IncludeChildren bool      `json:"include_children"`
	EventTypes      []string  `json:"event_types,omitempty"` // nil means all event types
	CreatedAt       time.Time `json:"created_at"`
}

// AllowsEvent reports whether the subscription's event-type filter admits
// the given event type. An empty filter admits everything.
func (s Subscription) AllowsEvent(eventType string) bool {
	if len(s.EventTypes) == 0 {
		return true
	}
	return slices.Contains(s.EventTypes, eventType)
}

// Store handles subscription persistence. Implementations must support
// efficient lookup by exact path sets; the matcher feeds it ancestor chains
// instead of scanning all rows.
type Store interface {
	// Save inserts the subscription, or updates IncludeChildren and
	// EventTypes in place when the subscriber already has one for the path.
	Save(ctx context.Context, sub Subscription) (Subscription, error)

	// Get retrieves a subscription by id, scoped to the subscriber.
	Get(ctx context.Context, subscriberID, id string) (*Subscription, error)

	// List returns all subscriptions of a subscriber ordered by path,
	// optionally restricted to a path prefix.
	List(ctx context.Context, subscriberID, pathPrefix string) ([]Subscription, error)

	// ListByPaths returns all subscriptions whose path is in the given set,
	// across all subscribers.
	ListByPaths(ctx context.Context, paths []string) ([]Subscription, error)

	// Delete removes a subscription by id, scoped to the subscriber.
	// Returns ErrNotFound if no such subscription exists.
	Delete(ctx context.Context, subscriberID, id string) error
}
