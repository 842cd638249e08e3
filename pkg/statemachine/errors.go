package statemachine

import (
	"errors"
	"fmt"
)

// ErrNoTransition indicates no transition exists for the current state and event.
var ErrNoTransition = errors.New("statemachine: no transition available")

// ErrTransitionRejected indicates the transition's guard blocked it.
var ErrTransitionRejected = errors.New("statemachine: transition rejected by guard")

func noTransitionError(state State, event Event) error {
	return fmt.Errorf("%w: from %q on %q", ErrNoTransition, state, event)
}

func rejectedError(state State, event Event) error {
	return fmt.Errorf("%w: from %q on %q", ErrTransitionRejected, state, event)
}
