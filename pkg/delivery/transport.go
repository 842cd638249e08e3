package delivery

import (
	"context"

	"github.com/dmitrymomot/notifier/pkg/notification"
)

// Feed is a live stream of notifications for one subscriber.
// Implementations must be safe for concurrent use.
type Feed interface {
	// Receive returns the channel carrying incoming notifications.
	// The channel is closed when the feed closes, whether by Close or by a
	// transport-side failure.
	Receive() <-chan notification.Notification

	// Close tears the feed down and closes the receive channel.
	// Close is idempotent.
	Close() error
}

// Transport moves notifications between the writer and live subscriber
// feeds. Deliver satisfies notification.Deliverer, so a transport plugs
// straight into the notification writer.
type Transport interface {
	// Deliver pushes a notification towards the feeds of its subscriber.
	// Delivery is best effort: slow consumers may miss messages.
	Deliver(ctx context.Context, n notification.Notification) error

	// Subscribe opens a feed for one subscriber. The call completes the
	// transport handshake; a returned feed is live.
	Subscribe(ctx context.Context, subscriberID string) (Feed, error)

	// Close shuts the transport down and closes all open feeds.
	Close() error
}
