package subscription

import (
	"context"

	"github.com/dmitrymomot/notifier/pkg/hierarchy"
)

// Match is the resolution of one event against one subscriber: the
// subscription that caused delivery and whether it matched the exact path.
type Match struct {
	SubscriberID   string
	SubscriptionID string
	// Direct is true when the subscription path equals the event path.
	Direct bool
}

// Status reports a subscriber's relation to a path. Direct and Inherited are
// independent: both may be set when the subscriber holds a subscription on
// the path itself and another on an ancestor with IncludeChildren.
type Status struct {
	Path         string        `json:"path"`
	IsSubscribed bool          `json:"is_subscribed"`
	Direct       *Subscription `json:"direct_subscription,omitempty"`
	Inherited    *Subscription `json:"inherited_subscription,omitempty"`
}

// Matcher resolves event paths to the set of subscribers that must be
// notified. It never caches store rows beyond a single call.
type Matcher struct {
	store Store
}

// NewMatcher creates a matcher over the given store.
func NewMatcher(store Store) *Matcher {
	return &Matcher{store: store}
}

// Match returns at most one Match per subscriber for the event.
//
// The event path's ancestor chain keys the store lookup, so the cost is
// O(depth x subscriptions-per-ancestor). A subscription matches directly on
// the exact path, or as inherited from a strict ancestor with
// IncludeChildren. Subscriptions whose event-type filter excludes eventType
// never match. Per subscriber, a direct match beats any inherited one and
// the deepest ancestor beats shallower ones.
func (m *Matcher) Match(ctx context.Context, eventPath, eventType string) ([]Match, error) {
	path, err := hierarchy.Canonicalize(eventPath)
	if err != nil {
		return nil, err
	}

	subs, err := m.store.ListByPaths(ctx, hierarchy.Ancestors(path))
	if err != nil {
		return nil, err
	}

	// best subscription per subscriber under the collapse rule
	best := make(map[string]Subscription)
	order := make([]string, 0, len(subs))

	for _, sub := range subs {
		if !sub.AllowsEvent(eventType) {
			continue
		}

		direct := sub.Path == path
		if !direct && !sub.IncludeChildren {
			continue
		}

		current, seen := best[sub.SubscriberID]
		if !seen {
			best[sub.SubscriberID] = sub
			order = append(order, sub.SubscriberID)
			continue
		}
		if preferred(sub, current, path) {
			best[sub.SubscriberID] = sub
		}
	}

	matches := make([]Match, 0, len(best))
	for _, subscriberID := range order {
		sub := best[subscriberID]
		matches = append(matches, Match{
			SubscriberID:   subscriberID,
			SubscriptionID: sub.ID,
			Direct:         sub.Path == path,
		})
	}
	return matches, nil
}

// preferred reports whether candidate beats current for an event at path:
// direct wins over inherited, then the deeper subscription path wins.
func preferred(candidate, current Subscription, path string) bool {
	candidateDirect := candidate.Path == path
	currentDirect := current.Path == path
	if candidateDirect != currentDirect {
		return candidateDirect
	}
	return hierarchy.Depth(candidate.Path) > hierarchy.Depth(current.Path)
}

// CheckStatus reports whether the subscriber is covered for a path, either by
// a direct subscription or by inheritance from the nearest ancestor with
// IncludeChildren. Both can be present at once.
func (m *Matcher) CheckStatus(ctx context.Context, subscriberID, rawPath string) (Status, error) {
	if subscriberID == "" {
		return Status{}, ErrMissingSubscriberID
	}
	path, err := hierarchy.Canonicalize(rawPath)
	if err != nil {
		return Status{}, err
	}

	subs, err := m.store.ListByPaths(ctx, hierarchy.Ancestors(path))
	if err != nil {
		return Status{}, err
	}

	status := Status{Path: path}
	for i := range subs {
		sub := subs[i]
		if sub.SubscriberID != subscriberID {
			continue
		}
		if sub.Path == path {
			status.Direct = &sub
			continue
		}
		if !sub.IncludeChildren {
			continue
		}
		// nearest covering ancestor wins
		if status.Inherited == nil || hierarchy.Depth(sub.Path) > hierarchy.Depth(status.Inherited.Path) {
			status.Inherited = &sub
		}
	}
	status.IsSubscribed = status.Direct != nil || status.Inherited != nil
	return status, nil
}
