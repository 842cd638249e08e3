// Package delivery implements real-time notification delivery.
//
// A Transport moves notifications from the writer to live subscriber feeds;
// the package ships an in-memory fanout for single-process setups and tests,
// and a Redis pub/sub transport for multi-instance deployments.
//
// A Manager owns at most one live delivery session per client connection and
// drives it through an explicit lifecycle (disconnected, connecting,
// connected, error). Activating a new session supersedes the current one:
// the old session is torn down before the new one reports connected, so two
// sessions are never live at the same time. Sessions do not reconnect on
// their own; the client activates a fresh session after a failure.
package delivery
