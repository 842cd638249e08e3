package delivery

import (
	"context"
	"log/slog"
	"sync"

	"github.com/dmitrymomot/notifier/pkg/logger"
	"github.com/dmitrymomot/notifier/pkg/statemachine"
)

// Manager owns the delivery session of one client connection. At most one
// session is live at a time: Activate tears the previous session down before
// the new one reports connected, and a handshake that completes after its
// session was superseded or cancelled is closed on arrival.
//
// Create one Manager per client connection; sessions of different clients
// are independent.
type Manager struct {
	transport Transport
	log       *slog.Logger

	mu         sync.Mutex
	generation uint64
	current    *Session
}

// ManagerOption configures a Manager.
type ManagerOption func(*Manager)

// WithManagerLogger sets the logger for the manager.
func WithManagerLogger(log *slog.Logger) ManagerOption {
	return func(m *Manager) {
		m.log = log
	}
}

// NewManager creates a session manager on the given transport.
func NewManager(transport Transport, opts ...ManagerOption) *Manager {
	m := &Manager{
		transport: transport,
		log:       slog.Default(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Activate opens a delivery session for the subscriber. Any current session
// is torn down first, before the handshake of the new one begins. Returns
// ErrSuperseded if another Activate took over while this one was still
// connecting; a transport handshake failure leaves the session in the error
// state and is returned as-is, while caller cancellation tears the session
// down to disconnected. Failed sessions do not retry; call Activate again to
// open a fresh one.
func (m *Manager) Activate(ctx context.Context, subscriberID string) (*Session, error) {
	if subscriberID == "" {
		return nil, ErrMissingSubscriberID
	}

	m.mu.Lock()
	if m.current != nil {
		m.current.teardown(ctx)
	}
	m.generation++
	sess := newSession(subscriberID, m.generation)
	if err := sess.machine.Fire(ctx, eventConnect); err != nil {
		m.mu.Unlock()
		return nil, err
	}
	m.current = sess
	m.mu.Unlock()

	// Handshake outside the lock: a blocked transport must not stop a newer
	// Activate from superseding this session.
	feed, err := m.transport.Subscribe(ctx, subscriberID)

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.current != sess || sess.isTorn() {
		// Late handshake: a newer activation owns the manager now.
		if feed != nil {
			_ = feed.Close()
		}
		return nil, ErrSuperseded
	}

	if err == nil && ctx.Err() != nil {
		// The caller gave up while the transport was still answering.
		_ = feed.Close()
		sess.teardown(ctx)
		m.current = nil
		return nil, ctx.Err()
	}

	if err != nil {
		if ctx.Err() != nil {
			// Cancellation is a deliberate stop, not a transport fault:
			// the session ends disconnected.
			sess.teardown(ctx)
			m.current = nil
			return nil, err
		}
		sess.fail(ctx)
		m.log.LogAttrs(ctx, slog.LevelError, "delivery handshake failed",
			logger.SubscriberID(subscriberID),
			logger.Generation(sess.generation),
			logger.Error(err),
		)
		return nil, err
	}

	if !sess.attach(ctx, feed) {
		_ = feed.Close()
		return nil, ErrSuperseded
	}

	m.log.LogAttrs(ctx, slog.LevelDebug, "delivery session connected",
		logger.SubscriberID(subscriberID),
		logger.Generation(sess.generation),
	)
	return sess, nil
}

// Deactivate tears down the current session. Returns ErrNoSession when
// nothing is active.
func (m *Manager) Deactivate(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.current == nil {
		return ErrNoSession
	}
	m.current.teardown(ctx)
	m.current = nil
	return nil
}

// Current returns the active session, or nil.
func (m *Manager) Current() *Session {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.current
}

// State returns the current session's state, or StateDisconnected when no
// session is active.
func (m *Manager) State() statemachine.State {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.current == nil {
		return StateDisconnected
	}
	return m.current.State()
}
