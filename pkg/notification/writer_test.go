package notification_test

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/notifier/pkg/events"
	"github.com/dmitrymomot/notifier/pkg/hierarchy"
	"github.com/dmitrymomot/notifier/pkg/notification"
	"github.com/dmitrymomot/notifier/pkg/subscription"
)

func subscribe(t *testing.T, store subscription.Store, subscriberID, path string, includeChildren bool, eventTypes ...string) {
	t.Helper()

	_, err := store.Save(context.Background(), subscription.Subscription{
		ID:              uuid.New().String(),
		SubscriberID:    subscriberID,
		Path:            path,
		IncludeChildren: includeChildren,
		EventTypes:      eventTypes,
		CreatedAt:       time.Now(),
	})
	require.NoError(t, err)
}

// flakyStorage fails Create for notifications of a chosen subscriber, a
// configurable number of times per notification id.
type flakyStorage struct {
	notification.Storage

	mu         sync.Mutex
	failFor    string
	failures   int
	attempts   map[string]int
	allCreates []string
}

func newFlakyStorage(failFor string, failures int) *flakyStorage {
	return &flakyStorage{
		Storage:  notification.NewMemoryStorage(),
		failFor:  failFor,
		failures: failures,
		attempts: map[string]int{},
	}
}

func (s *flakyStorage) Create(ctx context.Context, n notification.Notification) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.allCreates = append(s.allCreates, n.SubscriberID)
	if n.SubscriberID == s.failFor {
		s.attempts[n.ID]++
		if s.attempts[n.ID] <= s.failures {
			return errors.New("storage unavailable")
		}
	}
	return s.Storage.Create(ctx, n)
}

type recordingDeliverer struct {
	mu        sync.Mutex
	delivered []notification.Notification
	err       error
}

func (d *recordingDeliverer) Deliver(ctx context.Context, n notification.Notification) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.delivered = append(d.delivered, n)
	return d.err
}

func listAll(t *testing.T, storage notification.Storage, subscriberID string) []notification.Notification {
	t.Helper()

	rows, err := storage.List(context.Background(), subscriberID, notification.ListOptions{})
	require.NoError(t, err)
	return rows
}

func TestWriter_FanOut(t *testing.T) {
	t.Parallel()

	store := subscription.NewMemoryStore()
	subscribe(t, store, "user-1", "/projects/alpha", false)
	subscribe(t, store, "user-2", "/projects", true)
	subscribe(t, store, "user-3", "/other", true)

	storage := notification.NewMemoryStorage()
	deliverer := &recordingDeliverer{}
	writer := notification.NewWriter(subscription.NewMatcher(store), storage, deliverer)

	evt := events.Event{
		ID:         "evt-1",
		ObjectPath: "/projects/alpha",
		EventType:  "updated",
		Timestamp:  time.Now(),
		Data:       map[string]any{"user_name": "Alice"},
	}
	require.NoError(t, writer.Consume(context.Background(), evt))

	direct := listAll(t, storage, "user-1")
	require.Len(t, direct, 1)
	assert.False(t, direct[0].Inherited)
	assert.Equal(t, "/projects/alpha", direct[0].ObjectPath)
	assert.Equal(t, "/app/projects/alpha", direct[0].ActionURL)
	assert.Equal(t, "Alpha was updated", direct[0].Title)
	assert.Equal(t, "Alice updated Alpha", direct[0].Content)

	inherited := listAll(t, storage, "user-2")
	require.Len(t, inherited, 1)
	assert.True(t, inherited[0].Inherited)

	assert.Empty(t, listAll(t, storage, "user-3"))

	system := listAll(t, storage, notification.SystemSubscriberID)
	require.Len(t, system, 1, "one monitoring record per event")
	assert.False(t, system[0].Inherited)

	deliverer.mu.Lock()
	defer deliverer.mu.Unlock()
	assert.Len(t, deliverer.delivered, 2, "only subscriber rows are handed to the deliverer")
}

func TestWriter_FailureIsolation(t *testing.T) {
	t.Parallel()

	store := subscription.NewMemoryStore()
	subscribe(t, store, "user-1", "/projects", true)
	subscribe(t, store, "user-2", "/projects", true)
	subscribe(t, store, "user-3", "/projects", true)

	// user-2 rows never persist; the other subscribers must be unaffected.
	storage := newFlakyStorage("user-2", 100)
	writer := notification.NewWriter(subscription.NewMatcher(store), storage, nil,
		notification.WithRetryAttempts(2),
	)

	evt := events.Event{ObjectPath: "/projects/alpha", EventType: "created"}
	require.NoError(t, writer.Consume(context.Background(), evt),
		"per-row persistence failures are absorbed, not returned")

	assert.Len(t, listAll(t, storage, "user-1"), 1)
	assert.Empty(t, listAll(t, storage, "user-2"))
	assert.Len(t, listAll(t, storage, "user-3"), 1)

	storage.mu.Lock()
	defer storage.mu.Unlock()
	for id, attempts := range storage.attempts {
		assert.Equal(t, 2, attempts, "retries are bounded for %s", id)
	}
}

func TestWriter_RetrySucceeds(t *testing.T) {
	t.Parallel()

	store := subscription.NewMemoryStore()
	subscribe(t, store, "user-1", "/projects", true)

	// First attempt fails, second succeeds within the default bound of 3.
	storage := newFlakyStorage("user-1", 1)
	writer := notification.NewWriter(subscription.NewMatcher(store), storage, nil)

	evt := events.Event{ObjectPath: "/projects/alpha", EventType: "created"}
	require.NoError(t, writer.Consume(context.Background(), evt))
	assert.Len(t, listAll(t, storage, "user-1"), 1)
}

func TestWriter_DelivererFailureTolerated(t *testing.T) {
	t.Parallel()

	store := subscription.NewMemoryStore()
	subscribe(t, store, "user-1", "/projects", true)

	storage := notification.NewMemoryStorage()
	deliverer := &recordingDeliverer{err: errors.New("transport down")}
	writer := notification.NewWriter(subscription.NewMatcher(store), storage, deliverer)

	evt := events.Event{ObjectPath: "/projects/alpha", EventType: "created"}
	require.NoError(t, writer.Consume(context.Background(), evt))

	// The row is durable even though real-time delivery failed.
	assert.Len(t, listAll(t, storage, "user-1"), 1)
}

func TestWriter_InvalidPath(t *testing.T) {
	t.Parallel()

	writer := notification.NewWriter(
		subscription.NewMatcher(subscription.NewMemoryStore()),
		notification.NewMemoryStorage(), nil)

	evt := events.Event{ObjectPath: "//bad//", EventType: "created"}
	err := writer.Consume(context.Background(), evt)
	assert.ErrorIs(t, err, hierarchy.ErrInvalidPath)
}

func TestWriter_SystemRecordDisabled(t *testing.T) {
	t.Parallel()

	storage := notification.NewMemoryStorage()
	writer := notification.NewWriter(
		subscription.NewMatcher(subscription.NewMemoryStore()), storage, nil,
		notification.WithSystemSubscriber(""),
	)

	evt := events.Event{ObjectPath: "/projects/alpha", EventType: "created"}
	require.NoError(t, writer.Consume(context.Background(), evt))
	assert.Empty(t, listAll(t, storage, notification.SystemSubscriberID))
}

func TestWriter_CatalogSeverity(t *testing.T) {
	t.Parallel()

	store := subscription.NewMemoryStore()
	subscribe(t, store, "user-1", "/projects", true)

	catalog, err := notification.LoadCatalog(strings.NewReader("severities:\n  deleted: warning\n"))
	require.NoError(t, err)

	storage := notification.NewMemoryStorage()
	writer := notification.NewWriter(subscription.NewMatcher(store), storage, nil,
		notification.WithCatalog(catalog),
	)

	evt := events.Event{ObjectPath: "/projects/alpha", EventType: "deleted"}
	require.NoError(t, writer.Consume(context.Background(), evt))

	rows := listAll(t, storage, "user-1")
	require.Len(t, rows, 1)
	assert.Equal(t, notification.SeverityWarning, rows[0].Severity)
}
