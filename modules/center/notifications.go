package center

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/dmitrymomot/notifier/pkg/notification"
)

const (
	defaultPageSize = 50
	maxPageSize     = 200
)

type listNotificationsResponse struct {
	Notifications []notification.Notification `json:"notifications"`
	Limit         int                         `json:"limit"`
	Offset        int                         `json:"offset"`
}

type countResponse struct {
	Count int `json:"count"`
}

type bulkMarkReadRequest struct {
	NotificationIDs []string `json:"notification_ids"`
}

type bulkMarkReadResponse struct {
	Updated int `json:"updated"`
}

// parseFilter reads the shared filter query parameters. Unparsable values
// are reported, not silently ignored, so clients learn about typos.
func parseFilter(r *http.Request) (notification.Filter, error) {
	q := r.URL.Query()
	filter := notification.Filter{
		Path:      q.Get("path"),
		EventType: q.Get("event_type"),
		Severity:  notification.Severity(q.Get("severity")),
		Search:    q.Get("search"),
	}

	if raw := q.Get("is_read"); raw != "" {
		isRead, err := strconv.ParseBool(raw)
		if err != nil {
			return filter, errBadQueryParam("is_read", raw)
		}
		filter.IsRead = &isRead
	}
	if raw := q.Get("from"); raw != "" {
		from, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return filter, errBadQueryParam("from", raw)
		}
		filter.From = &from
	}
	if raw := q.Get("to"); raw != "" {
		to, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return filter, errBadQueryParam("to", raw)
		}
		filter.To = &to
	}
	if filter.Severity != "" && !filter.Severity.Valid() {
		return filter, errBadQueryParam("severity", string(filter.Severity))
	}
	return filter, nil
}

func parsePage(r *http.Request) (limit, offset int, err error) {
	limit = defaultPageSize
	q := r.URL.Query()

	if raw := q.Get("limit"); raw != "" {
		limit, err = strconv.Atoi(raw)
		if err != nil || limit < 1 {
			return 0, 0, errBadQueryParam("limit", raw)
		}
		limit = min(limit, maxPageSize)
	}
	if raw := q.Get("offset"); raw != "" {
		offset, err = strconv.Atoi(raw)
		if err != nil || offset < 0 {
			return 0, 0, errBadQueryParam("offset", raw)
		}
	}
	return limit, offset, nil
}

func (m *Module) listNotifications(w http.ResponseWriter, r *http.Request) {
	filter, err := parseFilter(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	limit, offset, err := parsePage(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	rows, err := m.storage.List(r.Context(), subscriberFrom(r.Context()), notification.ListOptions{
		Filter: filter,
		Limit:  limit,
		Offset: offset,
	})
	if err != nil {
		m.respondError(w, r, err)
		return
	}
	if rows == nil {
		rows = []notification.Notification{}
	}
	writeJSON(w, http.StatusOK, listNotificationsResponse{
		Notifications: rows,
		Limit:         limit,
		Offset:        offset,
	})
}

func (m *Module) countNotifications(w http.ResponseWriter, r *http.Request) {
	filter, err := parseFilter(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	count, err := m.storage.Count(r.Context(), subscriberFrom(r.Context()), filter)
	if err != nil {
		m.respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, countResponse{Count: count})
}

func (m *Module) markRead(w http.ResponseWriter, r *http.Request) {
	err := m.storage.MarkRead(r.Context(), subscriberFrom(r.Context()), chi.URLParam(r, "id"))
	if err != nil {
		m.respondError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (m *Module) bulkMarkRead(w http.ResponseWriter, r *http.Request) {
	var req bulkMarkReadRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "malformed request body")
		return
	}

	updated, err := m.storage.BulkMarkRead(r.Context(), subscriberFrom(r.Context()), req.NotificationIDs)
	if err != nil {
		m.respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, bulkMarkReadResponse{Updated: updated})
}
