package ledger

import "github.com/billbatista/household-hub/eventlogger"

const (
	EventExpenseAdded   = "expense.added"
	EventExpenseDeleted = "expense.deleted"
)

type ExpenseAddedEvent struct {
	ExpenseID   string  `json:"expense_id"`
	PaidBy      string  `json:"paid_by"`
	AmountCents int64   `json:"amount_cents"` // total amount in cents
	Description string  `json:"description"`
	Category    string  `json:"category"` // e.g. "groceries", "utilities", "rent"
	Date        string  `json:"date"`
	Splits      []Split `json:"splits"` // how the expense is divided among members
}

type Split struct {
	MemberID    string `json:"member_id"`
	AmountCents int64  `json:"amount_cents"` // amount this member owes for this expense
}

type ExpenseDeletedEvent struct {
	ExpenseID string `json:"expense_id"`
}

func expenseAddedEvent(e *Expense) eventlogger.Event {
	splits := make([]Split, 0, len(e.Splits))
	for _, s := range e.Splits {
		splits = append(splits, Split{MemberID: s.MemberID.String(), AmountCents: int64(s.Amount)})
	}
	return eventlogger.NewEvent(
		eventlogger.WithType(EventExpenseAdded),
		eventlogger.WithData(ExpenseAddedEvent{
			ExpenseID:   e.ID.String(),
			PaidBy:      e.PaidBy.String(),
			AmountCents: int64(e.Amount),
			Description: e.Description,
			Category:    e.Category,
			Date:        e.Date,
			Splits:      splits,
		}),
	)
}

func expenseDeletedEvent(id string) eventlogger.Event {
	return eventlogger.NewEvent(
		eventlogger.WithType(EventExpenseDeleted),
		eventlogger.WithData(ExpenseDeletedEvent{ExpenseID: id}),
	)
}
