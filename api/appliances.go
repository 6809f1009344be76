package api

import (
	"net/http"

	"github.com/billbatista/household-hub/appliance"
)

func (h *handler) listAppliances(w http.ResponseWriter, r *http.Request) {
	appliances, err := h.Appliances.List(r.Context())
	if err != nil {
		h.fail(w, r, "list appliances", err)
		return
	}
	writeJSON(w, http.StatusOK, appliances)
}

func (h *handler) startAppliance(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		h.fail(w, r, "start appliance", err)
		return
	}
	var in appliance.StartInput
	if err := decode(r, &in, true); err != nil {
		h.fail(w, r, "start appliance", err)
		return
	}

	a, err := h.Appliances.Start(r.Context(), id, in)
	if err != nil {
		h.fail(w, r, "start appliance", err, "appliance_id", id)
		return
	}

	h.record(r, appliance.EventStarted, map[string]any{
		"appliance_id":     id.String(),
		"name":             a.Name,
		"duration_minutes": in.DurationMinutes,
	})
	writeJSON(w, http.StatusOK, a)
}

func (h *handler) finishAppliance(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		h.fail(w, r, "finish appliance", err)
		return
	}

	a, err := h.Appliances.Done(r.Context(), id)
	if err != nil {
		h.fail(w, r, "finish appliance", err, "appliance_id", id)
		return
	}

	h.record(r, appliance.EventFinished, map[string]string{"appliance_id": id.String(), "name": a.Name})
	writeJSON(w, http.StatusOK, a)
}

func (h *handler) resetAppliance(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		h.fail(w, r, "reset appliance", err)
		return
	}

	a, err := h.Appliances.Reset(r.Context(), id)
	if err != nil {
		h.fail(w, r, "reset appliance", err, "appliance_id", id)
		return
	}

	h.record(r, appliance.EventReset, map[string]string{"appliance_id": id.String(), "name": a.Name})
	writeJSON(w, http.StatusOK, a)
}
