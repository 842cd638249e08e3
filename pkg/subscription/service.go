package subscription

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/dmitrymomot/notifier/pkg/hierarchy"
	"github.com/dmitrymomot/notifier/pkg/logger"
)

// Service exposes subscriber-facing subscription operations on top of a Store.
// It owns path canonicalization so stored paths are always canonical.
type Service struct {
	store Store
	log   *slog.Logger
}

// ServiceOption configures a Service.
type ServiceOption func(*Service)

// WithServiceLogger sets the logger for the Service.
func WithServiceLogger(log *slog.Logger) ServiceOption {
	return func(s *Service) {
		s.log = log
	}
}

// NewService creates a subscription service.
func NewService(store Store, opts ...ServiceOption) *Service {
	s := &Service{
		store: store,
		log:   slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// SubscribeParams carries the mutable attributes of a subscription.
type SubscribeParams struct {
	Path            string
	IncludeChildren bool
	EventTypes      []string
}

// Subscribe creates a subscription for the subscriber, or updates the
// existing one for the same path.
func (s *Service) Subscribe(ctx context.Context, subscriberID string, params SubscribeParams) (Subscription, error) {
	if subscriberID == "" {
		return Subscription{}, ErrMissingSubscriberID
	}

	path, err := hierarchy.Canonicalize(params.Path)
	if err != nil {
		return Subscription{}, err
	}

	sub, err := s.store.Save(ctx, Subscription{
		ID:              uuid.New().String(),
		SubscriberID:    subscriberID,
		Path:            path,
		IncludeChildren: params.IncludeChildren,
		EventTypes:      params.EventTypes,
		CreatedAt:       time.Now(),
	})
	if err != nil {
		return Subscription{}, err
	}

	s.log.LogAttrs(ctx, slog.LevelDebug, "subscription saved",
		logger.SubscriberID(subscriberID),
		logger.SubscriptionID(sub.ID),
		logger.Path(path),
	)
	return sub, nil
}

// Unsubscribe deletes the subscriber's subscription by id.
// Returns ErrNotFound if the id is unknown or owned by someone else.
func (s *Service) Unsubscribe(ctx context.Context, subscriberID, id string) error {
	if subscriberID == "" {
		return ErrMissingSubscriberID
	}
	return s.store.Delete(ctx, subscriberID, id)
}

// List returns all subscriptions of a subscriber, optionally restricted to a
// path prefix. The prefix is canonicalized when non-empty.
func (s *Service) List(ctx context.Context, subscriberID, pathPrefix string) ([]Subscription, error) {
	if subscriberID == "" {
		return nil, ErrMissingSubscriberID
	}
	if pathPrefix != "" {
		prefix, err := hierarchy.Canonicalize(pathPrefix)
		if err != nil {
			return nil, err
		}
		pathPrefix = prefix
	}
	return s.store.List(ctx, subscriberID, pathPrefix)
}
