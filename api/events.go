package api

import (
	"net/http"
	"strconv"

	"github.com/billbatista/household-hub/apperr"
	"github.com/billbatista/household-hub/calendar"
)

func (h *handler) listEvents(w http.ResponseWriter, r *http.Request) {
	events, err := h.Calendar.List(r.Context())
	if err != nil {
		h.fail(w, r, "list events", err)
		return
	}
	writeJSON(w, http.StatusOK, events)
}

func (h *handler) upcomingEvents(w http.ResponseWriter, r *http.Request) {
	limit, err := queryLimit(r, calendar.DefaultUpcomingLimit)
	if err != nil {
		h.fail(w, r, "list upcoming events", err)
		return
	}

	events, err := h.Calendar.Upcoming(r.Context(), h.Now(), limit)
	if err != nil {
		h.fail(w, r, "list upcoming events", err)
		return
	}
	writeJSON(w, http.StatusOK, events)
}

func (h *handler) addEvent(w http.ResponseWriter, r *http.Request) {
	var in calendar.Input
	if err := decode(r, &in, false); err != nil {
		h.fail(w, r, "add event", err)
		return
	}

	event, err := h.Calendar.Add(r.Context(), in)
	if err != nil {
		h.fail(w, r, "add event", err)
		return
	}

	h.record(r, calendar.EventCreated, map[string]string{"event_id": event.ID.String(), "title": event.Title})
	writeJSON(w, http.StatusCreated, event)
}

func (h *handler) updateEvent(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		h.fail(w, r, "update event", err)
		return
	}
	var in calendar.Input
	if err := decode(r, &in, false); err != nil {
		h.fail(w, r, "update event", err)
		return
	}

	event, err := h.Calendar.Update(r.Context(), id, in)
	if err != nil {
		h.fail(w, r, "update event", err, "event_id", id)
		return
	}

	h.record(r, calendar.EventUpdated, map[string]string{"event_id": id.String(), "title": event.Title})
	writeJSON(w, http.StatusOK, event)
}

func (h *handler) deleteEvent(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		h.fail(w, r, "delete event", err)
		return
	}

	deleted, err := h.Calendar.Delete(r.Context(), id)
	if err != nil {
		h.fail(w, r, "delete event", err, "event_id", id)
		return
	}

	if deleted {
		h.record(r, calendar.EventDeleted, map[string]string{"event_id": id.String()})
	}
	writeJSON(w, http.StatusOK, messageResponse{Message: "Event deleted"})
}

func queryLimit(r *http.Request, fallback int) (int, error) {
	raw := r.URL.Query().Get("limit")
	if raw == "" {
		return fallback, nil
	}
	limit, err := strconv.Atoi(raw)
	if err != nil || limit < 1 {
		return 0, apperr.Validation("limit", "limit must be a positive integer")
	}
	return limit, nil
}
