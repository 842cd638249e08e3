package events

import "errors"

var (
	// ErrMalformedEvent is returned when a wire payload lacks an object path
	// or event type.
	ErrMalformedEvent = errors.New("events: malformed event payload")

	// ErrBusClosed is returned when the bus subscription terminates.
	ErrBusClosed = errors.New("events: bus closed")
)
