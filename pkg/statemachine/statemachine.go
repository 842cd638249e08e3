package statemachine

import (
	"context"
	"sync"
)

// State identifies a state by name.
type State string

// Event identifies a transition trigger by name.
type Event string

// Guard evaluates whether a transition may proceed. A nil guard always passes.
type Guard func(ctx context.Context) bool

// Transition defines a state change triggered by an event.
type Transition struct {
	From  State
	To    State
	Event Event
	Guard Guard
}

// T is a shorthand constructor for a Transition.
func T(from, to State, event Event, guard Guard) Transition {
	return Transition{From: from, To: to, Event: event, Guard: guard}
}

// Machine is a thread-safe finite state machine.
// The transition table is fixed at construction; only the current state mutates.
type Machine struct {
	mu          sync.RWMutex
	current     State
	transitions map[State]map[Event]Transition
}

// New creates a machine in the given initial state with a fixed transition table.
// Later definitions for the same (from, event) pair overwrite earlier ones.
func New(initial State, transitions ...Transition) *Machine {
	table := make(map[State]map[Event]Transition, len(transitions))
	for _, t := range transitions {
		if _, ok := table[t.From]; !ok {
			table[t.From] = make(map[Event]Transition)
		}
		table[t.From][t.Event] = t
	}
	return &Machine{current: initial, transitions: table}
}

// Current returns the machine's current state.
func (m *Machine) Current() State {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.current
}

// Is reports whether the machine is currently in the given state.
func (m *Machine) Is(s State) bool {
	return m.Current() == s
}

// Fire attempts the transition triggered by event from the current state.
// Returns ErrNoTransition if none is defined, ErrTransitionRejected if the
// guard blocks it. The guard runs under the machine lock, so the decision and
// the state change are atomic with respect to concurrent Fire calls.
func (m *Machine) Fire(ctx context.Context, event Event) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	events, ok := m.transitions[m.current]
	if !ok {
		return noTransitionError(m.current, event)
	}
	t, ok := events[event]
	if !ok {
		return noTransitionError(m.current, event)
	}

	if t.Guard != nil && !t.Guard(ctx) {
		return rejectedError(m.current, event)
	}

	m.current = t.To
	return nil
}
