package subscription

import (
	"context"
	"sort"
	"sync"

	"github.com/dmitrymomot/notifier/pkg/hierarchy"
)

// MemoryStore is an in-memory implementation of Store with a path-keyed
// index. Suitable for development and testing.
type MemoryStore struct {
	mu     sync.RWMutex
	byID   map[string]Subscription   // id -> subscription
	byPath map[string][]string       // path -> subscription ids
}

// NewMemoryStore creates an empty in-memory subscription store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		byID:   make(map[string]Subscription),
		byPath: make(map[string][]string),
	}
}

func (s *MemoryStore) Save(ctx context.Context, sub Subscription) (Subscription, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	// Upsert on (subscriber, path): keep the original id and creation time.
	for _, id := range s.byPath[sub.Path] {
		existing := s.byID[id]
		if existing.SubscriberID == sub.SubscriberID {
			existing.IncludeChildren = sub.IncludeChildren
			existing.EventTypes = sub.EventTypes
			s.byID[id] = existing
			return existing, nil
		}
	}

	s.byID[sub.ID] = sub
	s.byPath[sub.Path] = append(s.byPath[sub.Path], sub.ID)
	return sub, nil
}

func (s *MemoryStore) Get(ctx context.Context, subscriberID, id string) (*Subscription, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sub, ok := s.byID[id]
	if !ok || sub.SubscriberID != subscriberID {
		return nil, ErrNotFound
	}
	out := sub
	return &out, nil
}

func (s *MemoryStore) List(ctx context.Context, subscriberID, pathPrefix string) ([]Subscription, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Subscription, 0)
	for _, sub := range s.byID {
		if sub.SubscriberID != subscriberID {
			continue
		}
		// Segment-aware match: a prefix of "/a" covers "/a" and "/a/b",
		// never the sibling "/ab".
		if pathPrefix != "" && sub.Path != pathPrefix && !hierarchy.IsAncestor(pathPrefix, sub.Path) {
			continue
		}
		out = append(out, sub)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Path < out[j].Path })
	return out, nil
}

func (s *MemoryStore) ListByPaths(ctx context.Context, paths []string) ([]Subscription, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Subscription, 0)
	for _, path := range paths {
		for _, id := range s.byPath[path] {
			out = append(out, s.byID[id])
		}
	}
	return out, nil
}

func (s *MemoryStore) Delete(ctx context.Context, subscriberID, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sub, ok := s.byID[id]
	if !ok || sub.SubscriberID != subscriberID {
		return ErrNotFound
	}

	delete(s.byID, id)
	ids := s.byPath[sub.Path]
	for i, candidate := range ids {
		if candidate == id {
			s.byPath[sub.Path] = append(ids[:i], ids[i+1:]...)
			break
		}
	}
	if len(s.byPath[sub.Path]) == 0 {
		delete(s.byPath, sub.Path)
	}
	return nil
}
