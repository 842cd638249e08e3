// Package redis manages the Redis connection used by the notifier for its
// pub/sub surfaces: the inbound event bus (pkg/events) and the per-subscriber
// live delivery transport (pkg/delivery).
//
// The package only exposes connection bootstrap and a health check; all
// publish/subscribe logic lives with the components that own the channels.
package redis
