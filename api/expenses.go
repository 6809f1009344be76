package api

import (
	"net/http"

	"github.com/billbatista/household-hub/ledger"
)

func (h *handler) listExpenses(w http.ResponseWriter, r *http.Request) {
	expenses, err := h.Ledger.ListExpenses(r.Context())
	if err != nil {
		h.fail(w, r, "list expenses", err)
		return
	}
	writeJSON(w, http.StatusOK, expenses)
}

func (h *handler) balances(w http.ResponseWriter, r *http.Request) {
	balances, err := h.Ledger.ComputeBalances(r.Context())
	if err != nil {
		h.fail(w, r, "compute balances", err)
		return
	}
	writeJSON(w, http.StatusOK, balances)
}

func (h *handler) settlements(w http.ResponseWriter, r *http.Request) {
	settlements, err := h.Ledger.SuggestSettlements(r.Context())
	if err != nil {
		h.fail(w, r, "suggest settlements", err)
		return
	}
	writeJSON(w, http.StatusOK, settlements)
}

func (h *handler) addExpense(w http.ResponseWriter, r *http.Request) {
	var in ledger.NewExpense
	if err := decode(r, &in, false); err != nil {
		h.fail(w, r, "add expense", err)
		return
	}

	expense, err := h.Ledger.AddExpense(r.Context(), in)
	if err != nil {
		h.fail(w, r, "add expense", err, "paid_by", in.PaidBy)
		return
	}
	writeJSON(w, http.StatusCreated, expense)
}

func (h *handler) deleteExpense(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		h.fail(w, r, "delete expense", err)
		return
	}

	if err := h.Ledger.DeleteExpense(r.Context(), id); err != nil {
		h.fail(w, r, "delete expense", err, "expense_id", id)
		return
	}
	writeJSON(w, http.StatusOK, messageResponse{Message: "Expense deleted"})
}
