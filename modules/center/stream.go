package center

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/dmitrymomot/notifier/pkg/delivery"
	"github.com/dmitrymomot/notifier/pkg/logger"
	"github.com/dmitrymomot/notifier/pkg/notification"
)

// keepaliveInterval spaces SSE comments so idle connections survive proxies.
const keepaliveInterval = 30 * time.Second

// stream serves live notifications as server-sent events. Each request gets
// its own delivery session; when the client reconnects, the fresh session
// supersedes nothing since the managers are per-connection. The stream ends
// when the client disconnects or the delivery transport fails; clients
// reconnect and backfill via the paginated listing.
func (m *Module) stream(w http.ResponseWriter, r *http.Request) {
	if m.transport == nil {
		writeError(w, http.StatusServiceUnavailable, "real-time delivery is not configured")
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, http.StatusInternalServerError, "streaming unsupported")
		return
	}

	// The server's write timeout would sever the stream mid-flight; lift it
	// for this long-lived response only.
	_ = http.NewResponseController(w).SetWriteDeadline(time.Time{})

	subscriberID := subscriberFrom(r.Context())
	manager := delivery.NewManager(m.transport, delivery.WithManagerLogger(m.log))
	sess, err := manager.Activate(r.Context(), subscriberID)
	if err != nil {
		m.respondError(w, r, err)
		return
	}
	defer func() { _ = manager.Deactivate(r.Context()) }()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)

	// Announce the session so clients can tell an open stream from a
	// buffering proxy.
	fmt.Fprintf(w, "event: connected\ndata: {\"subscriber_id\":%q}\n\n", subscriberID)
	flusher.Flush()

	keepalive := time.NewTicker(keepaliveInterval)
	defer keepalive.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case <-keepalive.C:
			fmt.Fprint(w, ": keepalive\n\n")
			flusher.Flush()
		case n, ok := <-sess.Receive():
			if !ok {
				// Transport gone; the client owns reconnecting.
				m.log.LogAttrs(r.Context(), slog.LevelWarn, "delivery session ended",
					logger.SubscriberID(subscriberID),
					logger.Generation(sess.Generation()),
				)
				return
			}
			if err := writeEvent(w, n); err != nil {
				return
			}
			flusher.Flush()
		}
	}
}

func writeEvent(w http.ResponseWriter, n notification.Notification) error {
	payload, err := json.Marshal(n)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(w, "event: notification\nid: %s\ndata: %s\n\n", n.ID, payload)
	return err
}
