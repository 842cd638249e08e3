package notification

import (
	"context"
	"sort"
	"strings"
	"sync"
)

// MemoryStorage is an in-memory implementation of Storage.
// Suitable for development and testing.
type MemoryStorage struct {
	mu   sync.RWMutex
	rows map[string][]Notification // subscriberID -> rows in insertion order
}

// NewMemoryStorage creates an empty in-memory notification storage.
func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{
		rows: make(map[string][]Notification),
	}
}

func (s *MemoryStorage) Create(ctx context.Context, n Notification) error {
	if n.ID == "" || n.SubscriberID == "" {
		return ErrMissingSubscriberID
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.rows[n.SubscriberID] = append(s.rows[n.SubscriberID], n)
	return nil
}

func (s *MemoryStorage) Get(ctx context.Context, subscriberID, id string) (*Notification, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, n := range s.rows[subscriberID] {
		if n.ID == id {
			out := n
			return &out, nil
		}
	}
	return nil, ErrNotFound
}

func (s *MemoryStorage) List(ctx context.Context, subscriberID string, opts ListOptions) ([]Notification, error) {
	s.mu.RLock()
	filtered := s.filtered(subscriberID, opts.Filter)
	s.mu.RUnlock()

	// Stable total order: timestamp descending, id descending as tiebreak.
	sort.Slice(filtered, func(i, j int) bool {
		if !filtered[i].Timestamp.Equal(filtered[j].Timestamp) {
			return filtered[i].Timestamp.After(filtered[j].Timestamp)
		}
		return filtered[i].ID > filtered[j].ID
	})

	if opts.Offset >= len(filtered) {
		return []Notification{}, nil
	}
	filtered = filtered[opts.Offset:]
	if opts.Limit > 0 && opts.Limit < len(filtered) {
		filtered = filtered[:opts.Limit]
	}
	return filtered, nil
}

func (s *MemoryStorage) Count(ctx context.Context, subscriberID string, filter Filter) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.filtered(subscriberID, filter)), nil
}

func (s *MemoryStorage) MarkRead(ctx context.Context, subscriberID, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	rows := s.rows[subscriberID]
	for i := range rows {
		if rows[i].ID == id {
			rows[i].IsRead = true
			return nil
		}
	}
	return ErrNotFound
}

func (s *MemoryStorage) BulkMarkRead(ctx context.Context, subscriberID string, ids []string) (int, error) {
	if len(ids) == 0 {
		return 0, nil
	}

	wanted := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		wanted[id] = struct{}{}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	updated := 0
	rows := s.rows[subscriberID]
	for i := range rows {
		if _, ok := wanted[rows[i].ID]; !ok {
			continue
		}
		if rows[i].IsRead {
			continue
		}
		rows[i].IsRead = true
		updated++
	}
	return updated, nil
}

// filtered returns a copy of the subscriber's rows matching the filter.
// Callers must hold at least the read lock.
func (s *MemoryStorage) filtered(subscriberID string, f Filter) []Notification {
	out := make([]Notification, 0)
	for _, n := range s.rows[subscriberID] {
		if f.Path != "" && n.ObjectPath != f.Path {
			continue
		}
		if f.EventType != "" && n.EventType != f.EventType {
			continue
		}
		if f.Severity != "" && n.Severity != f.Severity {
			continue
		}
		if f.IsRead != nil && n.IsRead != *f.IsRead {
			continue
		}
		if f.From != nil && n.Timestamp.Before(*f.From) {
			continue
		}
		if f.To != nil && n.Timestamp.After(*f.To) {
			continue
		}
		if f.Search != "" && !containsFold(n.Title, f.Search) && !containsFold(n.Content, f.Search) {
			continue
		}
		out = append(out, n)
	}
	return out
}

func containsFold(haystack, needle string) bool {
	return strings.Contains(strings.ToLower(haystack), strings.ToLower(needle))
}
