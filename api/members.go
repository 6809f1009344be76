package api

import (
	"net/http"

	"github.com/billbatista/household-hub/apperr"
	"github.com/billbatista/household-hub/member"
)

const (
	eventMemberCreated = "member.created"
	eventMemberUpdated = "member.updated"
	eventMemberDeleted = "member.deleted"
)

func (h *handler) listMembers(w http.ResponseWriter, r *http.Request) {
	members, err := h.Members.List(r.Context())
	if err != nil {
		h.fail(w, r, "list members", err)
		return
	}
	writeJSON(w, http.StatusOK, members)
}

func (h *handler) getMember(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		h.fail(w, r, "get member", err)
		return
	}

	m, err := h.Members.GetByID(r.Context(), id)
	if err != nil {
		h.fail(w, r, "get member", err, "member_id", id)
		return
	}
	if m == nil {
		h.fail(w, r, "get member", apperr.NotFound("member", id.String()))
		return
	}
	writeJSON(w, http.StatusOK, m)
}

func (h *handler) createMember(w http.ResponseWriter, r *http.Request) {
	var in member.Input
	if err := decode(r, &in, false); err != nil {
		h.fail(w, r, "create member", err)
		return
	}

	m, err := h.Members.Create(r.Context(), in)
	if err != nil {
		h.fail(w, r, "create member", err)
		return
	}

	h.record(r, eventMemberCreated, map[string]string{"member_id": m.ID.String(), "name": m.Name})
	writeJSON(w, http.StatusCreated, m)
}

func (h *handler) updateMember(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		h.fail(w, r, "update member", err)
		return
	}
	var in member.Input
	if err := decode(r, &in, false); err != nil {
		h.fail(w, r, "update member", err)
		return
	}

	m, err := h.Members.Update(r.Context(), id, in)
	if err != nil {
		h.fail(w, r, "update member", err, "member_id", id)
		return
	}

	h.record(r, eventMemberUpdated, map[string]string{"member_id": m.ID.String(), "name": m.Name})
	writeJSON(w, http.StatusOK, m)
}

func (h *handler) deleteMember(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		h.fail(w, r, "delete member", err)
		return
	}

	deleted, err := h.Members.Delete(r.Context(), id)
	if err != nil {
		h.fail(w, r, "delete member", err, "member_id", id)
		return
	}

	if deleted {
		h.record(r, eventMemberDeleted, map[string]string{"member_id": id.String()})
	}
	writeJSON(w, http.StatusOK, messageResponse{Message: "Member deleted"})
}
