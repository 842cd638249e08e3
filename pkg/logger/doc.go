// Package logger provides a slog factory with functional options and helper
// attribute constructors shared by every component of the notifier.
//
// A single factory – New – creates a *slog.Logger configured by Option
// functions: output format (text or json), minimum level, and static
// attributes applied to every record.
//
// Helper constructors such as Error, SubscriberID, Path and EventType live in
// attr.go and keep attribute naming consistent across the codebase.
//
// # Usage
//
//	log := logger.New(
//	    logger.WithProduction("notifier"),
//	    logger.WithAttr(slog.String("version", version)),
//	)
//	logger.SetAsDefault(log)
//
//	log.InfoContext(ctx, "notification stored",
//	    logger.SubscriberID(n.SubscriberID),
//	    logger.NotificationID(n.ID),
//	)
package logger
