package center

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/dmitrymomot/notifier/pkg/subscription"
)

type createSubscriptionRequest struct {
	Path            string   `json:"path"`
	IncludeChildren bool     `json:"include_children"`
	EventTypes      []string `json:"event_types,omitempty"`
}

func (m *Module) listSubscriptions(w http.ResponseWriter, r *http.Request) {
	subs, err := m.subscriptions.List(r.Context(), subscriberFrom(r.Context()), r.URL.Query().Get("path_prefix"))
	if err != nil {
		m.respondError(w, r, err)
		return
	}
	if subs == nil {
		subs = []subscription.Subscription{}
	}
	writeJSON(w, http.StatusOK, subs)
}

func (m *Module) createSubscription(w http.ResponseWriter, r *http.Request) {
	var req createSubscriptionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "malformed request body")
		return
	}

	sub, err := m.subscriptions.Subscribe(r.Context(), subscriberFrom(r.Context()), subscription.SubscribeParams{
		Path:            req.Path,
		IncludeChildren: req.IncludeChildren,
		EventTypes:      req.EventTypes,
	})
	if err != nil {
		m.respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, sub)
}

func (m *Module) deleteSubscription(w http.ResponseWriter, r *http.Request) {
	err := m.subscriptions.Unsubscribe(r.Context(), subscriberFrom(r.Context()), chi.URLParam(r, "id"))
	if err != nil {
		m.respondError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (m *Module) checkSubscription(w http.ResponseWriter, r *http.Request) {
	status, err := m.matcher.CheckStatus(r.Context(), subscriberFrom(r.Context()), r.URL.Query().Get("path"))
	if err != nil {
		m.respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, status)
}
