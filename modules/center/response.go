package center

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/dmitrymomot/notifier/pkg/hierarchy"
	"github.com/dmitrymomot/notifier/pkg/logger"
	"github.com/dmitrymomot/notifier/pkg/notification"
	"github.com/dmitrymomot/notifier/pkg/subscription"
)

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}

func errBadQueryParam(param, value string) error {
	return fmt.Errorf("invalid query parameter %s=%q", param, value)
}

// respondError maps domain errors onto HTTP statuses. Unclassified errors
// become opaque 500s; the detail goes to the log, not the client.
func (m *Module) respondError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, hierarchy.ErrInvalidPath):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, subscription.ErrNotFound),
		errors.Is(err, notification.ErrNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, subscription.ErrMissingSubscriberID),
		errors.Is(err, notification.ErrMissingSubscriberID):
		writeError(w, http.StatusUnauthorized, err.Error())
	default:
		m.log.LogAttrs(r.Context(), slog.LevelError, "request failed",
			slog.String("method", r.Method),
			slog.String("url", r.URL.Path),
			logger.Error(err),
		)
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}
