package notification_test

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/notifier/pkg/notification"
)

func boolPtr(b bool) *bool { return &b }

func timePtr(t time.Time) *time.Time { return &t }

func seedNotification(t *testing.T, storage notification.Storage, n notification.Notification) notification.Notification {
	t.Helper()

	if n.Severity == "" {
		n.Severity = notification.SeverityInfo
	}
	if n.Timestamp.IsZero() {
		n.Timestamp = time.Now()
	}
	require.NoError(t, storage.Create(context.Background(), n))
	return n
}

func TestMemoryStorage_ListOrderingAndPagination(t *testing.T) {
	t.Parallel()

	storage := notification.NewMemoryStorage()
	base := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)

	// 120 rows, some sharing a timestamp to exercise the id tiebreak.
	for i := range 120 {
		seedNotification(t, storage, notification.Notification{
			ID:           fmt.Sprintf("n-%03d", i),
			SubscriberID: "user-1",
			EventType:    "updated",
			Title:        "t",
			Content:      "c",
			ObjectPath:   "/projects/alpha",
			Timestamp:    base.Add(time.Duration(i/2) * time.Minute),
		})
	}

	first, err := storage.List(context.Background(), "user-1", notification.ListOptions{Limit: 50})
	require.NoError(t, err)
	second, err := storage.List(context.Background(), "user-1", notification.ListOptions{Limit: 50, Offset: 50})
	require.NoError(t, err)
	third, err := storage.List(context.Background(), "user-1", notification.ListOptions{Limit: 50, Offset: 100})
	require.NoError(t, err)

	require.Len(t, first, 50)
	require.Len(t, second, 50)
	require.Len(t, third, 20)

	seen := make(map[string]struct{})
	var all []notification.Notification
	for _, page := range [][]notification.Notification{first, second, third} {
		for _, n := range page {
			_, dup := seen[n.ID]
			require.False(t, dup, "pages must be disjoint, got %s twice", n.ID)
			seen[n.ID] = struct{}{}
			all = append(all, n)
		}
	}

	// Order is consistent across page boundaries: timestamp desc, id desc.
	for i := 1; i < len(all); i++ {
		prev, cur := all[i-1], all[i]
		if prev.Timestamp.Equal(cur.Timestamp) {
			assert.Greater(t, prev.ID, cur.ID)
		} else {
			assert.True(t, prev.Timestamp.After(cur.Timestamp))
		}
	}

	count, err := storage.Count(context.Background(), "user-1", notification.Filter{})
	require.NoError(t, err)
	assert.Equal(t, 120, count, "count equals the sum across all pages")
}

func TestMemoryStorage_CountUnreadIndependentOfPagination(t *testing.T) {
	t.Parallel()

	storage := notification.NewMemoryStorage()
	base := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)

	for i := range 3000 {
		seedNotification(t, storage, notification.Notification{
			ID:           fmt.Sprintf("n-%04d", i),
			SubscriberID: "user-1",
			EventType:    "updated",
			Title:        "t",
			Content:      "c",
			ObjectPath:   "/projects",
			Timestamp:    base.Add(time.Duration(i) * time.Second),
			IsRead:       i >= 1200, // first 1200 unread
		})
	}

	// Fetch only one page; the unread count must not depend on it.
	page, err := storage.List(context.Background(), "user-1", notification.ListOptions{Limit: 50})
	require.NoError(t, err)
	require.Len(t, page, 50)

	unread, err := storage.Count(context.Background(), "user-1", notification.Filter{IsRead: boolPtr(false)})
	require.NoError(t, err)
	assert.Equal(t, 1200, unread)
}

func TestMemoryStorage_Filters(t *testing.T) {
	t.Parallel()

	storage := notification.NewMemoryStorage()
	base := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)

	seedNotification(t, storage, notification.Notification{
		ID: "n-1", SubscriberID: "user-1", EventType: "created",
		Title: "New Task created", Content: "Alice created a new Task",
		ObjectPath: "/projects/alpha", Timestamp: base,
	})
	seedNotification(t, storage, notification.Notification{
		ID: "n-2", SubscriberID: "user-1", EventType: "deleted",
		Title: "Task was deleted", Content: "Bob deleted Task",
		Severity: notification.SeverityWarning,
		ObjectPath: "/projects/beta", Timestamp: base.Add(time.Hour),
	})

	tests := []struct {
		name   string
		filter notification.Filter
		want   []string
	}{
		{name: "by path", filter: notification.Filter{Path: "/projects/alpha"}, want: []string{"n-1"}},
		{name: "by event type", filter: notification.Filter{EventType: "deleted"}, want: []string{"n-2"}},
		{name: "by severity", filter: notification.Filter{Severity: notification.SeverityWarning}, want: []string{"n-2"}},
		{name: "by search", filter: notification.Filter{Search: "alice"}, want: []string{"n-1"}},
		{name: "from bound", filter: notification.Filter{From: timePtr(base.Add(time.Minute))}, want: []string{"n-2"}},
		{name: "to bound", filter: notification.Filter{To: timePtr(base.Add(time.Minute))}, want: []string{"n-1"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := storage.List(context.Background(), "user-1", notification.ListOptions{Filter: tt.filter})
			require.NoError(t, err)
			ids := make([]string, len(got))
			for i, n := range got {
				ids[i] = n.ID
			}
			assert.Equal(t, tt.want, ids)
		})
	}
}

func TestMemoryStorage_MarkReadIdempotent(t *testing.T) {
	t.Parallel()

	storage := notification.NewMemoryStorage()
	seedNotification(t, storage, notification.Notification{
		ID: "n-1", SubscriberID: "user-1", EventType: "updated",
		Title: "t", Content: "c", ObjectPath: "/a",
	})

	require.NoError(t, storage.MarkRead(context.Background(), "user-1", "n-1"))
	require.NoError(t, storage.MarkRead(context.Background(), "user-1", "n-1"), "second call is a no-op, not an error")

	got, err := storage.Get(context.Background(), "user-1", "n-1")
	require.NoError(t, err)
	assert.True(t, got.IsRead)
}

func TestMemoryStorage_MarkRead_ForeignID(t *testing.T) {
	t.Parallel()

	storage := notification.NewMemoryStorage()
	seedNotification(t, storage, notification.Notification{
		ID: "n-1", SubscriberID: "user-1", EventType: "updated",
		Title: "t", Content: "c", ObjectPath: "/a",
	})

	err := storage.MarkRead(context.Background(), "user-2", "n-1")
	assert.ErrorIs(t, err, notification.ErrNotFound)
}

func TestMemoryStorage_BulkMarkRead(t *testing.T) {
	t.Parallel()

	storage := notification.NewMemoryStorage()
	for i := range 4 {
		seedNotification(t, storage, notification.Notification{
			ID: fmt.Sprintf("mine-%d", i), SubscriberID: "user-1", EventType: "updated",
			Title: "t", Content: "c", ObjectPath: "/a",
		})
	}
	seedNotification(t, storage, notification.Notification{
		ID: "theirs-1", SubscriberID: "user-2", EventType: "updated",
		Title: "t", Content: "c", ObjectPath: "/a",
	})
	require.NoError(t, storage.MarkRead(context.Background(), "user-1", "mine-0"))

	// Foreign, unknown and already-read ids are skipped; only genuinely
	// transitioned rows are counted.
	updated, err := storage.BulkMarkRead(context.Background(), "user-1",
		[]string{"mine-0", "mine-1", "mine-2", "theirs-1", "ghost"})
	require.NoError(t, err)
	assert.Equal(t, 2, updated)

	theirs, err := storage.Get(context.Background(), "user-2", "theirs-1")
	require.NoError(t, err)
	assert.False(t, theirs.IsRead, "foreign rows are untouched")
}

func TestMemoryStorage_BulkMarkRead_EmptySet(t *testing.T) {
	t.Parallel()

	// An empty id set is a no-op, never an error.
	storage := notification.NewMemoryStorage()
	updated, err := storage.BulkMarkRead(context.Background(), "user-1", nil)
	require.NoError(t, err)
	assert.Zero(t, updated)
}

func TestMemoryStorage_ConcurrentBulkMarkRead(t *testing.T) {
	t.Parallel()

	storage := notification.NewMemoryStorage()
	ids := make([]string, 100)
	for i := range ids {
		ids[i] = fmt.Sprintf("n-%03d", i)
		seedNotification(t, storage, notification.Notification{
			ID: ids[i], SubscriberID: "user-1", EventType: "updated",
			Title: "t", Content: "c", ObjectPath: "/a",
		})
	}

	// Overlapping bulk updates are safe because the transition is monotonic;
	// the combined count equals the number of rows that actually flipped.
	var wg sync.WaitGroup
	counts := make([]int, 4)
	errs := make([]error, 4)
	for i := range counts {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			counts[i], errs[i] = storage.BulkMarkRead(context.Background(), "user-1", ids)
		}(i)
	}
	wg.Wait()

	for _, err := range errs {
		require.NoError(t, err)
	}

	total := 0
	for _, c := range counts {
		total += c
	}
	assert.Equal(t, 100, total)

	unread, err := storage.Count(context.Background(), "user-1", notification.Filter{IsRead: boolPtr(false)})
	require.NoError(t, err)
	assert.Zero(t, unread)
}
