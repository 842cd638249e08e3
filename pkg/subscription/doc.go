// Package subscription manages hierarchical path subscriptions and resolves
// which subscribers an event must fan out to.
//
// A subscription binds a subscriber to a canonical object path. With
// IncludeChildren enabled it also covers every descendant of that path, and
// an optional event-type filter narrows which events apply.
//
// # Matching
//
// The Matcher resolves an event path against the subscription store using the
// path's ancestor chain as an index key, so the cost is proportional to the
// path depth rather than the total number of subscriptions. A subscription on
// the exact event path matches directly; a subscription on a strict ancestor
// with IncludeChildren matches as inherited. When a subscriber holds several
// matching subscriptions for one event, exactly one match is emitted: direct
// wins over inherited, and among inherited the deepest subscription path wins.
//
// # Storage
//
// Store is implemented twice: MemoryStore for tests and development, and
// PostgresStore (pgx) for production, with subscriptions unique per
// (subscriber, path) pair and upsert semantics on Save.
package subscription
