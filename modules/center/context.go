package center

import (
	"context"
	"net/http"
)

// SubscriberHeader identifies the subscriber on every request.
const SubscriberHeader = "X-Subscriber-ID"

type subscriberKey struct{}

// withSubscriber stores the subscriber id in the context.
func withSubscriber(ctx context.Context, subscriberID string) context.Context {
	return context.WithValue(ctx, subscriberKey{}, subscriberID)
}

// subscriberFrom returns the request's subscriber id, or "".
func subscriberFrom(ctx context.Context) string {
	id, _ := ctx.Value(subscriberKey{}).(string)
	return id
}

// requireSubscriber rejects requests without a subscriber identity.
func requireSubscriber(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		subscriberID := r.Header.Get(SubscriberHeader)
		if subscriberID == "" {
			writeError(w, http.StatusUnauthorized, "missing "+SubscriberHeader+" header")
			return
		}
		next.ServeHTTP(w, r.WithContext(withSubscriber(r.Context(), subscriberID)))
	})
}
