// Package notification owns durable notification records: the Writer that
// fans events out to matched subscribers, the Storage that persists and
// retrieves rows at scale, and read-state transitions.
//
// # Architecture
//
//   - Writer: consumes domain events, resolves matches via the subscription
//     matcher, persists one row per matched subscriber and hands each stored
//     row to a Deliverer for real-time delivery (best effort).
//   - Storage: persistence with offset pagination, filtering, authoritative
//     unread counting and idempotent read-state mutation. Implemented by
//     MemoryStorage and PostgresStorage.
//   - Catalog: maps event types to severities and renders titles/contents,
//     configurable from YAML.
//
// Rows are created exactly once per qualifying event x subscriber pair and
// never deleted in normal operation; the only mutation is the monotonic
// unread -> read transition, which makes concurrent bulk updates over
// overlapping id sets safe.
package notification
