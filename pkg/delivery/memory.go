package delivery

import (
	"context"
	"sync"

	"github.com/dmitrymomot/notifier/pkg/notification"
)

type memoryFeed struct {
	ch     chan notification.Notification
	mu     sync.RWMutex
	closed bool
}

func newMemoryFeed(bufferSize int) *memoryFeed {
	return &memoryFeed{ch: make(chan notification.Notification, bufferSize)}
}

func (f *memoryFeed) Receive() <-chan notification.Notification { return f.ch }

func (f *memoryFeed) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if !f.closed {
		close(f.ch)
		f.closed = true
	}
	return nil
}

// send is non-blocking: a full buffer means the message is dropped for this
// feed rather than stalling the writer.
func (f *memoryFeed) send(n notification.Notification) bool {
	f.mu.RLock()
	defer f.mu.RUnlock()

	if f.closed {
		return false
	}

	select {
	case f.ch <- n:
		return true
	default:
		return false
	}
}

// MemoryTransport fans notifications out to in-process feeds, keyed by
// subscriber id. Suited to single-instance deployments and tests; use the
// Redis transport when multiple instances serve live connections.
// All methods are safe for concurrent use.
type MemoryTransport struct {
	mu         sync.RWMutex
	feeds      map[string]map[*memoryFeed]struct{}
	bufferSize int
	closed     bool
	done       chan struct{}
	cleanupWg  sync.WaitGroup
}

// NewMemoryTransport creates an in-memory transport. Each feed buffers up to
// bufferSize notifications; a minimum of 1 is enforced so sends never block.
func NewMemoryTransport(bufferSize int) *MemoryTransport {
	return &MemoryTransport{
		feeds:      make(map[string]map[*memoryFeed]struct{}),
		bufferSize: max(bufferSize, 1),
		done:       make(chan struct{}),
	}
}

// Deliver sends the notification to every open feed of its subscriber.
// Feeds with a full buffer miss the message and are dropped.
func (t *MemoryTransport) Deliver(ctx context.Context, n notification.Notification) error {
	t.mu.RLock()
	defer t.mu.RUnlock()

	if t.closed {
		return ErrTransportClosed
	}

	for feed := range t.feeds[n.SubscriberID] {
		if !feed.send(n) {
			// Removing under a write lock here would contend with the
			// read-heavy delivery path, so slow feeds go asynchronously.
			go t.remove(n.SubscriberID, feed)
		}
	}
	return nil
}

// Subscribe opens a feed for the subscriber. The feed is removed when the
// context is cancelled or when Close is called on it.
func (t *MemoryTransport) Subscribe(ctx context.Context, subscriberID string) (Feed, error) {
	if subscriberID == "" {
		return nil, ErrMissingSubscriberID
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	if t.closed {
		return nil, ErrTransportClosed
	}

	feed := newMemoryFeed(t.bufferSize)
	if _, ok := t.feeds[subscriberID]; !ok {
		t.feeds[subscriberID] = make(map[*memoryFeed]struct{})
	}
	t.feeds[subscriberID][feed] = struct{}{}

	if ctx.Done() != nil {
		t.cleanupWg.Add(1)
		go func() {
			defer t.cleanupWg.Done()
			// Close must not wait for caller contexts, so the watcher also
			// unblocks on transport shutdown.
			select {
			case <-ctx.Done():
				t.remove(subscriberID, feed)
			case <-t.done:
			}
		}()
	}

	return feed, nil
}

// Close shuts the transport down and closes all open feeds.
// Safe to call multiple times.
func (t *MemoryTransport) Close() error {
	t.mu.Lock()

	if t.closed {
		t.mu.Unlock()
		return nil
	}
	t.closed = true
	close(t.done)

	for _, feeds := range t.feeds {
		for feed := range feeds {
			_ = feed.Close()
		}
	}
	clear(t.feeds)
	t.mu.Unlock()

	t.cleanupWg.Wait()
	return nil
}

func (t *MemoryTransport) remove(subscriberID string, feed *memoryFeed) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if feeds, ok := t.feeds[subscriberID]; ok {
		delete(feeds, feed)
		if len(feeds) == 0 {
			delete(t.feeds, subscriberID)
		}
	}
	_ = feed.Close()
}
