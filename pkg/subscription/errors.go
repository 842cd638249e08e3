package subscription

import "errors"

var (
	// ErrNotFound is returned when a subscription does not exist or belongs
	// to a different subscriber.
	ErrNotFound = errors.New("subscription: not found")

	// ErrMissingSubscriberID is returned when an operation is attempted
	// without a subscriber identifier.
	ErrMissingSubscriberID = errors.New("subscription: subscriber id is required")
)
