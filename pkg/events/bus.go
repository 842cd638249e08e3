package events

import (
	"context"
	"log/slog"

	"github.com/redis/go-redis/v9"

	"github.com/dmitrymomot/notifier/pkg/logger"
)

// Handler processes a single inbound event. A returned error is logged and
// the event is dropped; the bus keeps running since delivery is at-least-once
// and producers may redeliver.
type Handler func(ctx context.Context, evt Event) error

// Config controls the Redis event bus subscription.
type Config struct {
	Pattern string `env:"EVENT_BUS_PATTERN" envDefault:"app.events.*"` // Pattern is the channel glob events are published on.
}

// RedisBus consumes events from Redis pub/sub channels matching a pattern.
type RedisBus struct {
	client  redis.UniversalClient
	pattern string
	log     *slog.Logger
}

// RedisBusOption configures a RedisBus.
type RedisBusOption func(*RedisBus)

// WithBusLogger sets the logger for the bus.
func WithBusLogger(log *slog.Logger) RedisBusOption {
	return func(b *RedisBus) {
		b.log = log
	}
}

// NewRedisBus creates an event bus consuming from channels matching cfg.Pattern.
func NewRedisBus(client redis.UniversalClient, cfg Config, opts ...RedisBusOption) *RedisBus {
	b := &RedisBus{
		client:  client,
		pattern: cfg.Pattern,
		log:     slog.Default(),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Run subscribes to the configured pattern and dispatches events to the
// handler until ctx is cancelled. Malformed payloads and handler failures
// are logged and skipped; only subscription loss terminates the loop.
func (b *RedisBus) Run(ctx context.Context, handler Handler) error {
	sub := b.client.PSubscribe(ctx, b.pattern)
	defer func() {
		if err := sub.Close(); err != nil {
			b.log.LogAttrs(ctx, slog.LevelWarn, "failed to close event bus subscription",
				logger.Error(err),
			)
		}
	}()

	// Confirm the subscription before consuming so startup failures surface
	// immediately instead of as a silent empty feed.
	if _, err := sub.Receive(ctx); err != nil {
		return err
	}

	ch := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg, ok := <-ch:
			if !ok {
				return ErrBusClosed
			}

			evt, err := Decode([]byte(msg.Payload))
			if err != nil {
				b.log.LogAttrs(ctx, slog.LevelWarn, "dropping malformed event",
					slog.String("channel", msg.Channel),
					logger.Error(err),
				)
				continue
			}

			if err := handler(ctx, evt); err != nil {
				b.log.LogAttrs(ctx, slog.LevelError, "event handler failed",
					logger.Path(evt.ObjectPath),
					logger.EventType(evt.EventType),
					logger.Error(err),
				)
			}
		}
	}
}
