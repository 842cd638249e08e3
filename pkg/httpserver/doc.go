// Package httpserver wraps net/http with graceful shutdown, configurable
// timeouts and a health-check handler.
//
// Run blocks until the context is cancelled or SIGINT/SIGTERM arrives, then
// drains in-flight requests within the shutdown timeout. Construction uses
// functional options or NewFromConfig with env-backed Config. Startup errors
// are wrapped with ErrStart, shutdown errors with ErrShutdown, so callers
// can distinguish them with errors.Is.
package httpserver
