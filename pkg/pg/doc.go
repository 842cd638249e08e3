// Package pg bootstraps the PostgreSQL layer of the notifier: connection
// pooling via pgx/v5, schema migrations via goose/v3, health checks and
// common error classification helpers.
//
// Notification and subscription rows live in Postgres; this package only
// handles connectivity, leaving queries to the storage implementations in
// pkg/subscription and pkg/notification.
//
// # Usage
//
//	var cfg pg.Config
//	config.MustLoad(&cfg)
//
//	pool, err := pg.Connect(ctx, cfg)
//	if err != nil {
//	    return err
//	}
//	defer pool.Close()
//
//	if err := pg.Migrate(ctx, pool, cfg, slog.Default()); err != nil {
//	    return err
//	}
package pg
