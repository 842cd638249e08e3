package delivery

import (
	"context"
	"sync"

	"github.com/dmitrymomot/notifier/pkg/notification"
	"github.com/dmitrymomot/notifier/pkg/statemachine"
)

// Delivery session lifecycle states.
const (
	StateDisconnected statemachine.State = "disconnected"
	StateConnecting   statemachine.State = "connecting"
	StateConnected    statemachine.State = "connected"
	StateError        statemachine.State = "error"
)

// Lifecycle events.
const (
	eventConnect     statemachine.Event = "connect"
	eventEstablished statemachine.Event = "established"
	eventFail        statemachine.Event = "fail"
	eventDisconnect  statemachine.Event = "disconnect"
)

// Session is one live delivery attempt for one subscriber, owned by a
// Manager. A session moves through connecting into connected, then ends in
// disconnected (deliberate teardown) or error (transport failure). A session
// never reconnects; a failed or torn-down session stays terminal.
type Session struct {
	subscriberID string
	generation   uint64
	machine      *statemachine.Machine
	out          chan notification.Notification

	mu   sync.Mutex
	feed Feed
	torn bool
}

func newSession(subscriberID string, generation uint64) *Session {
	s := &Session{
		subscriberID: subscriberID,
		generation:   generation,
		out:          make(chan notification.Notification, 16),
	}
	s.machine = statemachine.New(StateDisconnected,
		statemachine.T(StateDisconnected, StateConnecting, eventConnect, nil),
		// A superseded session must not become connected even if the
		// handshake result and the teardown race; the guard runs under the
		// machine lock, making the check and the transition atomic.
		statemachine.T(StateConnecting, StateConnected, eventEstablished, func(context.Context) bool {
			return !s.isTorn()
		}),
		statemachine.T(StateConnecting, StateError, eventFail, nil),
		statemachine.T(StateConnecting, StateDisconnected, eventDisconnect, nil),
		statemachine.T(StateConnected, StateError, eventFail, nil),
		statemachine.T(StateConnected, StateDisconnected, eventDisconnect, nil),
	)
	return s
}

// SubscriberID returns the subscriber this session delivers to.
func (s *Session) SubscriberID() string { return s.subscriberID }

// Generation returns the manager's activation counter value for this
// session. A larger generation always supersedes a smaller one.
func (s *Session) Generation() uint64 { return s.generation }

// State returns the session's current lifecycle state.
func (s *Session) State() statemachine.State { return s.machine.Current() }

// Receive returns the channel carrying delivered notifications. The channel
// closes when the session ends, for any reason.
func (s *Session) Receive() <-chan notification.Notification { return s.out }

func (s *Session) isTorn() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.torn
}

// attach binds the handshaken feed and moves connecting -> connected.
// Returns false if the session was torn down meanwhile; the caller then owns
// closing the feed.
func (s *Session) attach(ctx context.Context, feed Feed) bool {
	if err := s.machine.Fire(ctx, eventEstablished); err != nil {
		return false
	}

	s.mu.Lock()
	s.feed = feed
	s.mu.Unlock()

	go s.pump(feed)
	return true
}

// pump forwards the feed into the session's receive channel. An unexpected
// feed closure, one not preceded by teardown, marks the session failed.
func (s *Session) pump(feed Feed) {
	defer close(s.out)

	for n := range feed.Receive() {
		select {
		case s.out <- n:
		default:
			// Consumer stalled; the row is already durable, skip it.
		}
	}

	if !s.isTorn() {
		_ = s.machine.Fire(context.Background(), eventFail)
	}
}

// teardown ends the session deliberately. Idempotent; safe whatever state
// the session is in.
func (s *Session) teardown(ctx context.Context) {
	s.mu.Lock()
	if s.torn {
		s.mu.Unlock()
		return
	}
	s.torn = true
	feed := s.feed
	s.mu.Unlock()

	// No transition is defined out of error; that is fine, the session is
	// already terminal.
	_ = s.machine.Fire(ctx, eventDisconnect)
	if feed != nil {
		_ = feed.Close()
	}
}

// fail marks the session failed without touching the feed.
func (s *Session) fail(ctx context.Context) {
	_ = s.machine.Fire(ctx, eventFail)
}
