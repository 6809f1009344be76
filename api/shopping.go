package api

import (
	"net/http"

	"github.com/billbatista/household-hub/shopping"
	"github.com/google/uuid"
)

type purchaseRequest struct {
	PurchasedBy uuid.NullUUID `json:"purchased_by"`
}

type clearResponse struct {
	Message string `json:"message"`
	Removed int64  `json:"removed"`
}

func (h *handler) listShopping(w http.ResponseWriter, r *http.Request) {
	items, err := h.Shopping.List(r.Context())
	if err != nil {
		h.fail(w, r, "list shopping items", err)
		return
	}
	writeJSON(w, http.StatusOK, items)
}

func (h *handler) addShoppingItem(w http.ResponseWriter, r *http.Request) {
	var in shopping.Input
	if err := decode(r, &in, false); err != nil {
		h.fail(w, r, "add shopping item", err)
		return
	}

	item, err := h.Shopping.Add(r.Context(), in)
	if err != nil {
		h.fail(w, r, "add shopping item", err)
		return
	}

	h.record(r, shopping.EventItemAdded, map[string]string{"item_id": item.ID.String(), "item_name": item.ItemName})
	writeJSON(w, http.StatusCreated, item)
}

func (h *handler) purchaseShoppingItem(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		h.fail(w, r, "purchase shopping item", err)
		return
	}
	var req purchaseRequest
	if err := decode(r, &req, true); err != nil {
		h.fail(w, r, "purchase shopping item", err)
		return
	}

	item, err := h.Shopping.MarkPurchased(r.Context(), id, req.PurchasedBy)
	if err != nil {
		h.fail(w, r, "purchase shopping item", err, "item_id", id)
		return
	}

	h.record(r, shopping.EventItemPurchased, map[string]string{"item_id": id.String(), "item_name": item.ItemName})
	writeJSON(w, http.StatusOK, item)
}

func (h *handler) unpurchaseShoppingItem(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		h.fail(w, r, "unpurchase shopping item", err)
		return
	}

	item, err := h.Shopping.UnmarkPurchased(r.Context(), id)
	if err != nil {
		h.fail(w, r, "unpurchase shopping item", err, "item_id", id)
		return
	}

	h.record(r, shopping.EventItemUnpurchased, map[string]string{"item_id": id.String()})
	writeJSON(w, http.StatusOK, item)
}

func (h *handler) deleteShoppingItem(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		h.fail(w, r, "delete shopping item", err)
		return
	}

	deleted, err := h.Shopping.Delete(r.Context(), id)
	if err != nil {
		h.fail(w, r, "delete shopping item", err, "item_id", id)
		return
	}

	if deleted {
		h.record(r, shopping.EventItemDeleted, map[string]string{"item_id": id.String()})
	}
	writeJSON(w, http.StatusOK, messageResponse{Message: "Item deleted"})
}

func (h *handler) clearPurchased(w http.ResponseWriter, r *http.Request) {
	removed, err := h.Shopping.ClearPurchased(r.Context())
	if err != nil {
		h.fail(w, r, "clear purchased items", err)
		return
	}

	if removed > 0 {
		h.record(r, shopping.EventCleared, map[string]int64{"removed": removed})
	}
	writeJSON(w, http.StatusOK, clearResponse{Message: "Purchased items cleared", Removed: removed})
}
