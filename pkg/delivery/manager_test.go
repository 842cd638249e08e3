package delivery_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/notifier/pkg/delivery"
	"github.com/dmitrymomot/notifier/pkg/notification"
)

// stubFeed is a manually driven feed.
type stubFeed struct {
	ch chan notification.Notification

	mu     sync.Mutex
	closed bool
}

func newStubFeed() *stubFeed {
	return &stubFeed{ch: make(chan notification.Notification, 16)}
}

func (f *stubFeed) Receive() <-chan notification.Notification { return f.ch }

func (f *stubFeed) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.closed {
		close(f.ch)
		f.closed = true
	}
	return nil
}

func (f *stubFeed) isClosed() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.closed
}

// stubTransport lets a test hold Subscribe calls in flight and release them
// on demand, simulating a slow handshake. Gates and feeds are indexed by
// Subscribe call order.
type stubTransport struct {
	mu       sync.Mutex
	gates    []chan struct{}
	feeds    map[int]*stubFeed
	err      error
	inflight chan struct{} // signalled once per Subscribe call entering
}

func newStubTransport() *stubTransport {
	return &stubTransport{
		feeds:    make(map[int]*stubFeed),
		inflight: make(chan struct{}, 16),
	}
}

func (t *stubTransport) Deliver(ctx context.Context, n notification.Notification) error { return nil }

func (t *stubTransport) Subscribe(ctx context.Context, subscriberID string) (delivery.Feed, error) {
	gate := make(chan struct{})
	t.mu.Lock()
	call := len(t.gates)
	t.gates = append(t.gates, gate)
	err := t.err
	t.mu.Unlock()
	t.inflight <- struct{}{}

	select {
	case <-gate:
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	if err != nil {
		return nil, err
	}

	feed := newStubFeed()
	t.mu.Lock()
	t.feeds[call] = feed
	t.mu.Unlock()
	return feed, nil
}

func (t *stubTransport) Close() error { return nil }

// release lets the i-th Subscribe call return.
func (t *stubTransport) release(i int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	close(t.gates[i])
}

func (t *stubTransport) feed(i int) *stubFeed {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.feeds[i]
}

type activateResult struct {
	sess *delivery.Session
	err  error
}

func activateAsync(manager *delivery.Manager, ctx context.Context, subscriberID string) <-chan activateResult {
	done := make(chan activateResult, 1)
	go func() {
		sess, err := manager.Activate(ctx, subscriberID)
		done <- activateResult{sess: sess, err: err}
	}()
	return done
}

func activate(t *testing.T, manager *delivery.Manager, transport *stubTransport, subscriberID string, call int) *delivery.Session {
	t.Helper()

	done := activateAsync(manager, context.Background(), subscriberID)
	<-transport.inflight
	transport.release(call)

	select {
	case res := <-done:
		require.NoError(t, res.err)
		return res.sess
	case <-time.After(time.Second):
		t.Fatal("activation did not complete")
		return nil
	}
}

func TestManager_ActivateConnects(t *testing.T) {
	t.Parallel()

	transport := newStubTransport()
	manager := delivery.NewManager(transport)

	done := activateAsync(manager, context.Background(), "user-1")
	<-transport.inflight
	assert.Equal(t, delivery.StateConnecting, manager.State())

	transport.release(0)
	res := <-done

	require.NoError(t, res.err)
	assert.Equal(t, delivery.StateConnected, res.sess.State())
	assert.Equal(t, "user-1", res.sess.SubscriberID())
	assert.Equal(t, uint64(1), res.sess.Generation())
}

func TestManager_SupersedeDuringHandshake(t *testing.T) {
	t.Parallel()

	transport := newStubTransport()
	manager := delivery.NewManager(transport)

	// First activation stalls in the transport handshake.
	first := activateAsync(manager, context.Background(), "user-a")
	<-transport.inflight

	// Second activation arrives while the first is still connecting.
	second := activateAsync(manager, context.Background(), "user-b")
	<-transport.inflight

	// Complete the second handshake first, then the stale first one.
	transport.release(1)
	res := <-second
	require.NoError(t, res.err)
	assert.Equal(t, delivery.StateConnected, res.sess.State())

	transport.release(0)
	stale := <-first
	assert.ErrorIs(t, stale.err, delivery.ErrSuperseded)

	// The late handshake's feed was closed on arrival; the second session
	// stays the only connected one.
	assert.True(t, transport.feed(0).isClosed(), "stale feed must be closed immediately")
	assert.False(t, transport.feed(1).isClosed())
	assert.Same(t, res.sess, manager.Current())
	assert.Equal(t, delivery.StateConnected, manager.State())
}

func TestManager_SupersedeConnectedSession(t *testing.T) {
	t.Parallel()

	transport := newStubTransport()
	manager := delivery.NewManager(transport)

	first := activate(t, manager, transport, "user-a", 0)
	second := activate(t, manager, transport, "user-b", 1)

	assert.Equal(t, delivery.StateDisconnected, first.State())
	assert.True(t, transport.feed(0).isClosed())
	assert.Equal(t, delivery.StateConnected, second.State())
	assert.Greater(t, second.Generation(), first.Generation())
}

func TestManager_CancelledHandshake(t *testing.T) {
	t.Parallel()

	transport := newStubTransport()
	manager := delivery.NewManager(transport)

	ctx, cancel := context.WithCancel(context.Background())
	done := activateAsync(manager, ctx, "user-1")
	<-transport.inflight

	cancel()
	res := <-done
	assert.ErrorIs(t, res.err, context.Canceled)
	assert.Equal(t, delivery.StateDisconnected, manager.State(),
		"cancellation ends the session disconnected, not in error")
	assert.Nil(t, manager.Current())
}

func TestManager_HandshakeFailure(t *testing.T) {
	t.Parallel()

	transport := newStubTransport()
	transport.err = errors.New("connection refused")
	manager := delivery.NewManager(transport)

	done := activateAsync(manager, context.Background(), "user-1")
	<-transport.inflight
	transport.release(0)

	res := <-done
	require.Error(t, res.err)
	assert.NotErrorIs(t, res.err, delivery.ErrSuperseded)
	assert.Equal(t, delivery.StateError, manager.State())

	// No automatic reconnect: the state stays error until a fresh Activate.
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, delivery.StateError, manager.State())
}

func TestManager_Deactivate(t *testing.T) {
	t.Parallel()

	transport := newStubTransport()
	manager := delivery.NewManager(transport)

	sess := activate(t, manager, transport, "user-1", 0)
	require.NoError(t, manager.Deactivate(context.Background()))

	assert.Equal(t, delivery.StateDisconnected, sess.State())
	assert.True(t, transport.feed(0).isClosed())
	assert.Nil(t, manager.Current())

	assert.ErrorIs(t, manager.Deactivate(context.Background()), delivery.ErrNoSession)
}

func TestManager_MissingSubscriberID(t *testing.T) {
	t.Parallel()

	manager := delivery.NewManager(newStubTransport())
	_, err := manager.Activate(context.Background(), "")
	assert.ErrorIs(t, err, delivery.ErrMissingSubscriberID)
}

func TestSession_ReceivesFromFeed(t *testing.T) {
	t.Parallel()

	transport := newStubTransport()
	manager := delivery.NewManager(transport)
	sess := activate(t, manager, transport, "user-1", 0)

	want := notification.Notification{ID: "n-1", SubscriberID: "user-1", Title: "t"}
	transport.feed(0).ch <- want

	select {
	case got := <-sess.Receive():
		assert.Equal(t, want.ID, got.ID)
	case <-time.After(time.Second):
		t.Fatal("notification not forwarded to the session")
	}
}

func TestSession_TransportFailureMarksError(t *testing.T) {
	t.Parallel()

	transport := newStubTransport()
	manager := delivery.NewManager(transport)
	sess := activate(t, manager, transport, "user-1", 0)

	// Feed closing without a deliberate teardown is a transport failure.
	require.NoError(t, transport.feed(0).Close())

	select {
	case _, ok := <-sess.Receive():
		assert.False(t, ok, "receive channel closes with the feed")
	case <-time.After(time.Second):
		t.Fatal("receive channel not closed")
	}

	require.Eventually(t, func() bool {
		return sess.State() == delivery.StateError
	}, time.Second, 10*time.Millisecond)
}
