package delivery

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"

	"github.com/redis/go-redis/v9"

	"github.com/dmitrymomot/notifier/pkg/logger"
	"github.com/dmitrymomot/notifier/pkg/notification"
)

// RedisConfig controls channel naming for the Redis transport.
type RedisConfig struct {
	ChannelPrefix string `env:"DELIVERY_CHANNEL_PREFIX" envDefault:"notification."` // ChannelPrefix is prepended to the subscriber id to form the pub/sub channel name.
}

// RedisTransport delivers notifications over Redis pub/sub, one channel per
// subscriber. It lets any instance serving a live connection receive rows
// written by any other instance.
type RedisTransport struct {
	client redis.UniversalClient
	prefix string
	log    *slog.Logger

	mu     sync.Mutex
	feeds  map[*redisFeed]struct{}
	closed bool
}

// RedisTransportOption configures a RedisTransport.
type RedisTransportOption func(*RedisTransport)

// WithTransportLogger sets the logger for the transport.
func WithTransportLogger(log *slog.Logger) RedisTransportOption {
	return func(t *RedisTransport) {
		t.log = log
	}
}

// NewRedisTransport creates a Redis-backed delivery transport.
func NewRedisTransport(client redis.UniversalClient, cfg RedisConfig, opts ...RedisTransportOption) *RedisTransport {
	t := &RedisTransport{
		client: client,
		prefix: cfg.ChannelPrefix,
		log:    slog.Default(),
		feeds:  make(map[*redisFeed]struct{}),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

func (t *RedisTransport) channel(subscriberID string) string {
	return t.prefix + subscriberID
}

// Deliver publishes the notification on its subscriber's channel.
func (t *RedisTransport) Deliver(ctx context.Context, n notification.Notification) error {
	t.mu.Lock()
	closed := t.closed
	t.mu.Unlock()
	if closed {
		return ErrTransportClosed
	}

	payload, err := json.Marshal(n)
	if err != nil {
		return fmt.Errorf("encode notification %s: %w", n.ID, err)
	}
	return t.client.Publish(ctx, t.channel(n.SubscriberID), payload).Err()
}

// Subscribe opens a pub/sub feed on the subscriber's channel. The handshake
// is confirmed with the server before the feed is returned, so a nil error
// means the feed is live.
func (t *RedisTransport) Subscribe(ctx context.Context, subscriberID string) (Feed, error) {
	if subscriberID == "" {
		return nil, ErrMissingSubscriberID
	}

	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		return nil, ErrTransportClosed
	}
	t.mu.Unlock()

	sub := t.client.Subscribe(ctx, t.channel(subscriberID))
	if _, err := sub.Receive(ctx); err != nil {
		_ = sub.Close()
		return nil, fmt.Errorf("subscribe %s: %w", t.channel(subscriberID), err)
	}

	feed := &redisFeed{
		sub: sub,
		out: make(chan notification.Notification, 16),
		log: t.log,
	}

	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		_ = feed.Close()
		return nil, ErrTransportClosed
	}
	t.feeds[feed] = struct{}{}
	t.mu.Unlock()

	go func() {
		feed.pump(ctx)
		t.remove(feed)
	}()

	return feed, nil
}

// Close shuts the transport down and closes all open feeds. The shared Redis
// client is left open for its owner to close.
func (t *RedisTransport) Close() error {
	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		return nil
	}
	t.closed = true
	feeds := make([]*redisFeed, 0, len(t.feeds))
	for feed := range t.feeds {
		feeds = append(feeds, feed)
	}
	clear(t.feeds)
	t.mu.Unlock()

	for _, feed := range feeds {
		_ = feed.Close()
	}
	return nil
}

func (t *RedisTransport) remove(feed *redisFeed) {
	t.mu.Lock()
	delete(t.feeds, feed)
	t.mu.Unlock()
	_ = feed.Close()
}

type redisFeed struct {
	sub *redis.PubSub
	out chan notification.Notification
	log *slog.Logger

	closeOnce sync.Once
}

func (f *redisFeed) Receive() <-chan notification.Notification { return f.out }

// Close unsubscribes from Redis; the receive channel closes once the pump
// drains out.
func (f *redisFeed) Close() error {
	var err error
	f.closeOnce.Do(func() {
		err = f.sub.Close()
	})
	return err
}

// pump decodes pub/sub payloads into the receive channel until the
// subscription or the context ends. Malformed payloads are logged and
// dropped; slow consumers miss messages rather than blocking the pump.
func (f *redisFeed) pump(ctx context.Context) {
	defer close(f.out)

	ch := f.sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}

			var n notification.Notification
			if err := json.Unmarshal([]byte(msg.Payload), &n); err != nil {
				f.log.LogAttrs(ctx, slog.LevelWarn, "dropping malformed notification payload",
					slog.String("channel", msg.Channel),
					logger.Error(err),
				)
				continue
			}

			select {
			case f.out <- n:
			default:
				f.log.LogAttrs(ctx, slog.LevelWarn, "dropping notification for slow consumer",
					logger.NotificationID(n.ID),
					logger.SubscriberID(n.SubscriberID),
				)
			}
		}
	}
}
