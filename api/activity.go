package api

import (
	"net/http"

	"github.com/billbatista/household-hub/apperr"
)

func (h *handler) activity(w http.ResponseWriter, r *http.Request) {
	eventType := r.URL.Query().Get("type")
	if eventType == "" {
		h.fail(w, r, "list activity", apperr.Validation("type", "type query parameter is required"))
		return
	}
	limit, err := queryLimit(r, 50)
	if err != nil {
		h.fail(w, r, "list activity", err)
		return
	}

	events, err := h.Activity.GetByType(r.Context(), eventType, limit)
	if err != nil {
		h.fail(w, r, "list activity", err, "event_type", eventType)
		return
	}
	writeJSON(w, http.StatusOK, events)
}
