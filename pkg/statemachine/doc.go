// Package statemachine provides a small, thread-safe finite state machine
// with guarded transitions.
//
// The notifier uses it to drive the delivery channel lifecycle
// (disconnected → connecting → connected → {error, disconnected}) where
// guards enforce that a superseded activation can never be promoted.
//
// Example:
//
//	sm := statemachine.New("disconnected",
//	    statemachine.T("disconnected", "connecting", "activate", nil),
//	    statemachine.T("connecting", "connected", "handshake", notCancelled),
//	)
//	err := sm.Fire(ctx, "activate")
package statemachine
