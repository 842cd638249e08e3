package center

import (
	"log/slog"

	"github.com/go-chi/chi/v5"

	"github.com/dmitrymomot/notifier/pkg/delivery"
	"github.com/dmitrymomot/notifier/pkg/notification"
	"github.com/dmitrymomot/notifier/pkg/requestid"
	"github.com/dmitrymomot/notifier/pkg/subscription"
)

// Module bundles the notification center's HTTP handlers around its services.
type Module struct {
	subscriptions *subscription.Service
	matcher       *subscription.Matcher
	storage       notification.Storage
	transport     delivery.Transport
	log           *slog.Logger
}

// ModuleOption configures a Module.
type ModuleOption func(*Module)

// WithModuleLogger sets the logger for the module.
func WithModuleLogger(log *slog.Logger) ModuleOption {
	return func(m *Module) {
		m.log = log
	}
}

// NewModule creates the notification center HTTP module. The transport may
// be nil; the stream endpoint then answers 503.
func NewModule(
	subscriptions *subscription.Service,
	matcher *subscription.Matcher,
	storage notification.Storage,
	transport delivery.Transport,
	opts ...ModuleOption,
) *Module {
	m := &Module{
		subscriptions: subscriptions,
		matcher:       matcher,
		storage:       storage,
		transport:     transport,
		log:           slog.Default(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Router mounts all notification center routes.
func (m *Module) Router() chi.Router {
	r := chi.NewRouter()
	r.Use(requestid.Middleware)
	r.Use(requireSubscriber)

	r.Route("/subscriptions", func(r chi.Router) {
		r.Get("/", m.listSubscriptions)
		r.Post("/", m.createSubscription)
		r.Get("/check", m.checkSubscription)
		r.Delete("/{id}", m.deleteSubscription)
	})

	r.Route("/notifications", func(r chi.Router) {
		r.Get("/", m.listNotifications)
		r.Get("/count", m.countNotifications)
		r.Post("/{id}/read", m.markRead)
		r.Post("/bulk-read", m.bulkMarkRead)
		r.Get("/stream", m.stream)
	})

	return r
}
