// Package center exposes the notification center over HTTP: managing
// subscriptions, browsing and acknowledging notifications, and a server-sent
// events stream for live delivery.
//
// All routes are scoped to a subscriber, identified by the X-Subscriber-ID
// header. The header is expected to be injected by the authenticating edge
// in front of this service; requests without it are rejected.
package center
