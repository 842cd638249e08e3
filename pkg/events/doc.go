// Package events defines the domain event consumed by the notification
// writer and the bus it arrives on.
//
// Events describe something that happened to an object in the hierarchy:
// an object path, an event type and an arbitrary payload. The bus delivers
// them at-least-once with no ordering guarantee across paths; the notifier
// runs exactly one consumer per process, so duplicate suppression is not
// performed here.
//
// The Redis implementation pattern-subscribes to "app.events.*" where
// producers publish one channel per object, e.g.
// "app.events.projects.alpha.tasks.1".
package events
