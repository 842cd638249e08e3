package notification

import "errors"

var (
	// ErrNotFound is returned when a notification does not exist or belongs
	// to a different subscriber.
	ErrNotFound = errors.New("notification: not found")

	// ErrMissingSubscriberID is returned when an operation is attempted
	// without a subscriber identifier.
	ErrMissingSubscriberID = errors.New("notification: subscriber id is required")

	// ErrInvalidSeverity is returned when a catalog entry carries an
	// unknown severity value.
	ErrInvalidSeverity = errors.New("notification: invalid severity")
)
