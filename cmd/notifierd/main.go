package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/go-chi/chi/v5"

	"github.com/dmitrymomot/notifier/modules/center"
	"github.com/dmitrymomot/notifier/pkg/config"
	"github.com/dmitrymomot/notifier/pkg/delivery"
	"github.com/dmitrymomot/notifier/pkg/events"
	"github.com/dmitrymomot/notifier/pkg/httpserver"
	"github.com/dmitrymomot/notifier/pkg/logger"
	"github.com/dmitrymomot/notifier/pkg/notification"
	"github.com/dmitrymomot/notifier/pkg/pg"
	"github.com/dmitrymomot/notifier/pkg/redis"
	"github.com/dmitrymomot/notifier/pkg/subscription"
)

type appConfig struct {
	Environment string `env:"APP_ENV" envDefault:"production"`   // Environment selects the logging profile: development or production.
	CatalogPath string `env:"SEVERITY_CATALOG_PATH"`             // CatalogPath points to an optional YAML event-type severity catalog.
	APIPrefix   string `env:"API_PREFIX" envDefault:"/api/v1"`   // APIPrefix is where the notification center routes are mounted.
}

func main() {
	if err := run(context.Background()); err != nil {
		slog.Error("notifierd stopped", logger.Error(err))
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var (
		appCfg      appConfig
		pgCfg       pg.Config
		redisCfg    redis.Config
		httpCfg     httpserver.Config
		busCfg      events.Config
		deliveryCfg delivery.RedisConfig
	)
	config.MustLoad(&appCfg)
	config.MustLoad(&pgCfg)
	config.MustLoad(&redisCfg)
	config.MustLoad(&httpCfg)
	config.MustLoad(&busCfg)
	config.MustLoad(&deliveryCfg)

	logOpt := logger.WithProduction("notifierd")
	if appCfg.Environment == "development" {
		logOpt = logger.WithDevelopment("notifierd")
	}
	log := logger.New(logOpt)
	logger.SetAsDefault(log)

	pool, err := pg.Connect(ctx, pgCfg)
	if err != nil {
		return fmt.Errorf("connect postgres: %w", err)
	}
	defer pool.Close()

	if err := pg.Migrate(ctx, pool, pgCfg, log); err != nil {
		return fmt.Errorf("apply migrations: %w", err)
	}

	redisClient, err := redis.Connect(ctx, redisCfg)
	if err != nil {
		return fmt.Errorf("connect redis: %w", err)
	}
	defer redisClient.Close()

	catalog, err := loadCatalog(appCfg.CatalogPath)
	if err != nil {
		return err
	}

	store := subscription.NewPostgresStore(pool)
	storage := notification.NewPostgresStorage(pool)
	matcher := subscription.NewMatcher(store)
	service := subscription.NewService(store,
		subscription.WithServiceLogger(log.With(logger.Component("subscriptions"))))

	transport := delivery.NewRedisTransport(redisClient, deliveryCfg,
		delivery.WithTransportLogger(log.With(logger.Component("delivery"))))
	defer transport.Close()

	writer := notification.NewWriter(matcher, storage, transport,
		notification.WithWriterLogger(log.With(logger.Component("writer"))),
		notification.WithCatalog(catalog),
	)

	// Event consumption runs beside the HTTP server; losing the bus
	// subscription brings the process down so the orchestrator restarts it.
	bus := events.NewRedisBus(redisClient, busCfg,
		events.WithBusLogger(log.With(logger.Component("bus"))))
	busErr := make(chan error, 1)
	go func() {
		busErr <- bus.Run(ctx, writer.Consume)
	}()

	module := center.NewModule(service, matcher, storage, transport, center.WithModuleLogger(log))

	router := chi.NewRouter()
	router.Get("/healthz", httpserver.HealthCheckHandler(ctx, log))
	router.Get("/readyz", httpserver.HealthCheckHandler(ctx, log,
		pg.Healthcheck(pool),
		redis.Healthcheck(redisClient),
	))
	router.Mount(appCfg.APIPrefix, module.Router())

	srv := httpserver.NewFromConfig(httpCfg, httpserver.WithLogger(log))

	srvErr := make(chan error, 1)
	go func() {
		srvErr <- srv.Run(ctx, router)
	}()

	select {
	case err := <-busErr:
		cancel()
		<-srvErr
		if err != nil && !errors.Is(err, context.Canceled) {
			return fmt.Errorf("event bus: %w", err)
		}
		return nil
	case err := <-srvErr:
		cancel()
		<-busErr
		return err
	}
}

func loadCatalog(path string) (*notification.Catalog, error) {
	if path == "" {
		return notification.DefaultCatalog(), nil
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open severity catalog: %w", err)
	}
	defer f.Close()

	catalog, err := notification.LoadCatalog(f)
	if err != nil {
		return nil, fmt.Errorf("load severity catalog %s: %w", path, err)
	}
	return catalog, nil
}
