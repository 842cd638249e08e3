package delivery

import "errors"

var (
	// ErrTransportClosed is returned by transport operations after Close.
	ErrTransportClosed = errors.New("delivery: transport closed")

	// ErrSuperseded is returned from Activate when a newer activation took
	// over the manager while this one was still connecting.
	ErrSuperseded = errors.New("delivery: session superseded")

	// ErrNoSession is returned by Deactivate when no session is active.
	ErrNoSession = errors.New("delivery: no active session")

	// ErrMissingSubscriberID is returned when an empty subscriber id is given.
	ErrMissingSubscriberID = errors.New("delivery: missing subscriber id")
)
