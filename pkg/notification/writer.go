package notification

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/dmitrymomot/notifier/pkg/events"
	"github.com/dmitrymomot/notifier/pkg/hierarchy"
	"github.com/dmitrymomot/notifier/pkg/logger"
	"github.com/dmitrymomot/notifier/pkg/subscription"
)

// SystemSubscriberID is the reserved subscriber receiving one record per
// event for monitoring purposes.
const SystemSubscriberID = "system"

// Deliverer hands freshly persisted notifications to the real-time delivery
// layer. Delivery is best effort: a failure is logged, never propagated, as
// the row is already durable and retrievable.
type Deliverer interface {
	Deliver(ctx context.Context, n Notification) error
}

// NoOpDeliverer discards notifications. Useful when real-time delivery is
// not wired, and in tests.
type NoOpDeliverer struct{}

func (NoOpDeliverer) Deliver(ctx context.Context, n Notification) error { return nil }

// Writer consumes domain events and fans them out to matched subscribers:
// one durable row per match, then a best-effort hand-off to the deliverer.
type Writer struct {
	matcher   *subscription.Matcher
	storage   Storage
	deliverer Deliverer
	catalog   *Catalog
	log       *slog.Logger

	retryAttempts int
	systemID      string
}

// WriterOption configures a Writer.
type WriterOption func(*Writer)

// WithWriterLogger sets the logger for the Writer.
func WithWriterLogger(log *slog.Logger) WriterOption {
	return func(w *Writer) {
		w.log = log
	}
}

// WithCatalog sets the event-type catalog used for severity resolution.
func WithCatalog(c *Catalog) WriterOption {
	return func(w *Writer) {
		if c != nil {
			w.catalog = c
		}
	}
}

// WithRetryAttempts bounds how often a failed row persist is retried before
// the row is dropped. Default is 3.
func WithRetryAttempts(n int) WriterOption {
	return func(w *Writer) {
		if n > 0 {
			w.retryAttempts = n
		}
	}
}

// WithSystemSubscriber overrides the reserved monitoring subscriber id.
// An empty id disables the system record entirely.
func WithSystemSubscriber(id string) WriterOption {
	return func(w *Writer) {
		w.systemID = id
	}
}

// NewWriter creates a notification writer.
func NewWriter(matcher *subscription.Matcher, storage Storage, deliverer Deliverer, opts ...WriterOption) *Writer {
	if deliverer == nil {
		deliverer = NoOpDeliverer{}
	}

	w := &Writer{
		matcher:       matcher,
		storage:       storage,
		deliverer:     deliverer,
		catalog:       DefaultCatalog(),
		log:           slog.Default(),
		retryAttempts: 3,
		systemID:      SystemSubscriberID,
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Consume processes one event: resolve matches, persist one row per matched
// subscriber and hand each stored row to the deliverer.
//
// Rows are written independently; a persistence failure for one subscriber
// never blocks the others. Each failed row is retried up to the configured
// bound, then logged and dropped. Only pre-match failures (invalid path,
// match query errors) surface to the caller.
func (w *Writer) Consume(ctx context.Context, evt events.Event) error {
	path, err := hierarchy.Canonicalize(evt.ObjectPath)
	if err != nil {
		return err
	}

	matches, err := w.matcher.Match(ctx, path, evt.EventType)
	if err != nil {
		return err
	}

	for _, match := range matches {
		n := w.build(path, evt, match.SubscriberID, match.SubscriptionID, !match.Direct)
		if !w.persist(ctx, n) {
			continue
		}
		if err := w.deliverer.Deliver(ctx, n); err != nil {
			w.log.LogAttrs(ctx, slog.LevelWarn, "notification stored but real-time delivery failed",
				logger.NotificationID(n.ID),
				logger.SubscriberID(n.SubscriberID),
				logger.Error(err),
			)
		}
	}

	// Monitoring record, independent from subscriber fan-out.
	if w.systemID != "" {
		w.persist(ctx, w.build(path, evt, w.systemID, "", false))
	}

	return nil
}

// persist writes one row with bounded retries. Reports whether the row made
// it to storage; a dropped row is logged with the attempt count.
func (w *Writer) persist(ctx context.Context, n Notification) bool {
	var lastErr error
	for attempt := 1; attempt <= w.retryAttempts; attempt++ {
		if lastErr = w.storage.Create(ctx, n); lastErr == nil {
			return true
		}
		w.log.LogAttrs(ctx, slog.LevelDebug, "notification persist attempt failed",
			logger.NotificationID(n.ID),
			logger.SubscriberID(n.SubscriberID),
			logger.RetryCount(attempt),
			logger.Error(lastErr),
		)
	}

	w.log.LogAttrs(ctx, slog.LevelWarn, "dropping notification after retries exhausted",
		logger.NotificationID(n.ID),
		logger.SubscriberID(n.SubscriberID),
		logger.RetryCount(w.retryAttempts),
		logger.Error(lastErr),
	)
	return false
}

func (w *Writer) build(path string, evt events.Event, subscriberID, subscriptionID string, inherited bool) Notification {
	timestamp := evt.Timestamp
	if timestamp.IsZero() {
		timestamp = time.Now()
	}

	return Notification{
		ID:             uuid.New().String(),
		SubscriberID:   subscriberID,
		EventType:      evt.EventType,
		Title:          Title(path, evt.EventType),
		Content:        Content(path, evt.EventType, evt.Data),
		Severity:       w.catalog.SeverityFor(evt.EventType),
		ObjectPath:     path,
		Timestamp:      timestamp,
		IsRead:         false,
		ActionURL:      ActionURL(path),
		SubscriptionID: subscriptionID,
		Inherited:      inherited,
		Extra: map[string]any{
			"event_id": evt.ID,
			"payload":  evt.Data,
		},
	}
}
