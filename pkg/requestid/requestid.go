// Package requestid attaches a correlation id to every HTTP request.
//
// A client-supplied X-Request-ID header is reused when it looks sane,
// otherwise a fresh UUID is generated. The id travels in the request context
// and is echoed back in the response header, so log records of one request
// can be correlated across services.
package requestid

import (
	"context"
	"log/slog"
	"net/http"
	"regexp"

	"github.com/google/uuid"
)

// Header carries the request id on the wire.
const Header = "X-Request-ID"

const maxIDLength = 128

var validID = regexp.MustCompile("^[a-zA-Z0-9_-]+$")

type contextKey struct{}

// WithContext stores the request id in the context.
func WithContext(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, contextKey{}, requestID)
}

// FromContext returns the request id, or "" when none is set.
func FromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	requestID, _ := ctx.Value(contextKey{}).(string)
	return requestID
}

// Attr returns a slog attribute with the context's request id, and false
// when the context carries none.
func Attr(ctx context.Context) (slog.Attr, bool) {
	if requestID := FromContext(ctx); requestID != "" {
		return slog.String("request_id", requestID), true
	}
	return slog.Attr{}, false
}

// Middleware ensures every request has a valid correlation id.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get(Header)
		if !isValid(requestID) {
			requestID = uuid.New().String()
		}
		w.Header().Set(Header, requestID)
		next.ServeHTTP(w, r.WithContext(WithContext(r.Context(), requestID)))
	})
}

func isValid(id string) bool {
	return id != "" && len(id) <= maxIDLength && validID.MatchString(id)
}
