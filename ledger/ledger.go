// Package ledger records the household's shared expenses and works out who
// owes whom. Amounts are integer cents throughout; balances are always
// derived from the stored expenses and splits, never persisted.
package ledger

import (
	"bytes"
	"cmp"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/billbatista/household-hub/apperr"
	"github.com/billbatista/household-hub/money"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const (
	DefaultCategory      = "general"
	DateLayout           = "2006-01-02"
	maxDescriptionLength = 200
)

type Expense struct {
	ID          uuid.UUID      `json:"id"`
	Description string         `json:"description"`
	Amount      money.Cents    `json:"amount"`
	PaidBy      uuid.UUID      `json:"paid_by"`
	PaidByName  string         `json:"paid_by_name"`
	PaidByColor string         `json:"paid_by_color"`
	Date        string         `json:"date"`
	Category    string         `json:"category"`
	CreatedAt   time.Time      `json:"created_at"`
	Splits      []ExpenseSplit `json:"splits"`
}

type ExpenseSplit struct {
	ID          uuid.UUID   `json:"id"`
	ExpenseID   uuid.UUID   `json:"expense_id"`
	MemberID    uuid.UUID   `json:"member_id"`
	MemberName  string      `json:"member_name"`
	MemberColor string      `json:"member_color"`
	Amount      money.Cents `json:"amount"` // owed by MemberID
}

// Balance is one member's net position. Positive means the household owes
// them, negative means they owe the household.
type Balance struct {
	MemberID uuid.UUID   `json:"member_id"`
	Name     string      `json:"name"`
	Color    string      `json:"color"`
	Paid     money.Cents `json:"paid"`
	Owed     money.Cents `json:"owed"`
	Balance  money.Cents `json:"balance"`
}

// Settlement is a suggested transfer that moves From and To towards zero.
type Settlement struct {
	From     uuid.UUID   `json:"from"`
	FromName string      `json:"from_name"`
	To       uuid.UUID   `json:"to"`
	ToName   string      `json:"to_name"`
	Amount   money.Cents `json:"amount"`
}

// NewExpense is the caller's request to record an expense. Amounts stay
// decimals until validation so an over-precise value is reported as such
// instead of failing to decode.
type NewExpense struct {
	Description string          `json:"description"`
	Amount      decimal.Decimal `json:"amount"`
	PaidBy      uuid.UUID       `json:"paid_by"`
	Date        string          `json:"date,omitempty"`
	Category    string          `json:"category,omitempty"`
	Splits      []SplitInput    `json:"splits"`
}

type SplitInput struct {
	MemberID uuid.UUID       `json:"member_id"`
	Amount   decimal.Decimal `json:"amount"`
}

var (
	ErrEmptyDescription     = apperr.Validation("description", "description can't be empty")
	ErrDescriptionTooLong   = apperr.Validation("description", "description can't be longer than 200 characters")
	ErrInvalidAmount        = apperr.Validation("amount", "amount must be positive")
	ErrAmountTooPrecise     = apperr.Validation("amount", "amount can't have more than two decimal places")
	ErrAmountOutOfRange     = apperr.Validation("amount", "amount can't be larger than 100000000000.00")
	ErrMissingPayer         = apperr.Validation("paid_by", "paid_by is required")
	ErrInvalidDate          = apperr.Validation("date", "date must be formatted as YYYY-MM-DD")
	ErrNoSplits             = apperr.Validation("splits", "at least one split is required")
	ErrMissingSplitMember   = apperr.Validation("splits", "every split needs a member_id")
	ErrInvalidSplitAmount   = apperr.Validation("splits", "split amounts must be positive")
	ErrSplitTooPrecise      = apperr.Validation("splits", "split amounts can't have more than two decimal places")
	ErrSplitOutOfRange      = apperr.Validation("splits", "split amounts can't be larger than 100000000000.00")
	ErrDuplicateSplitMember = apperr.Validation("splits", "a member can appear only once in an expense's splits")
	ErrSplitSumMismatch     = apperr.Validation("splits", "split amounts must add up to the expense amount")
	ErrNoMembers            = apperr.Validation("members", "no members to split expense")
)

// validExpense is a NewExpense after validation, converted to cents.
type validExpense struct {
	description string
	amount      money.Cents
	paidBy      uuid.UUID
	date        string
	category    string
	splits      []validSplit
}

type validSplit struct {
	memberID uuid.UUID
	amount   money.Cents
}

// validate checks every input rule before anything is written. today fills
// in a missing date.
func (n NewExpense) validate(today time.Time) (validExpense, error) {
	description := strings.TrimSpace(n.Description)
	if description == "" {
		return validExpense{}, ErrEmptyDescription
	}
	if utf8.RuneCountInString(description) > maxDescriptionLength {
		return validExpense{}, ErrDescriptionTooLong
	}

	if !n.Amount.IsPositive() {
		return validExpense{}, ErrInvalidAmount
	}
	amount, err := toCents(n.Amount, ErrAmountTooPrecise, ErrAmountOutOfRange)
	if err != nil {
		return validExpense{}, err
	}

	if n.PaidBy == uuid.Nil {
		return validExpense{}, ErrMissingPayer
	}

	date := strings.TrimSpace(n.Date)
	if date == "" {
		date = today.UTC().Format(DateLayout)
	} else if _, err := time.Parse(DateLayout, date); err != nil {
		return validExpense{}, ErrInvalidDate
	}

	category := strings.TrimSpace(n.Category)
	if category == "" {
		category = DefaultCategory
	}

	if len(n.Splits) == 0 {
		return validExpense{}, ErrNoSplits
	}

	splits := make([]validSplit, 0, len(n.Splits))
	seen := make(map[uuid.UUID]bool, len(n.Splits))
	var total money.Cents
	for _, s := range n.Splits {
		if s.MemberID == uuid.Nil {
			return validExpense{}, ErrMissingSplitMember
		}
		if !s.Amount.IsPositive() {
			return validExpense{}, ErrInvalidSplitAmount
		}
		cents, err := toCents(s.Amount, ErrSplitTooPrecise, ErrSplitOutOfRange)
		if err != nil {
			return validExpense{}, err
		}
		if seen[s.MemberID] {
			return validExpense{}, ErrDuplicateSplitMember
		}
		seen[s.MemberID] = true
		// total never passes amount, so it can't wrap.
		if cents > amount-total {
			return validExpense{}, fmt.Errorf("%w: splits total more than the expense's %s", ErrSplitSumMismatch, amount)
		}
		total += cents
		splits = append(splits, validSplit{memberID: s.MemberID, amount: cents})
	}

	// With whole cents, "within 0.01" can only mean equal.
	if total != amount {
		return validExpense{}, fmt.Errorf("%w: splits total %s, expense is %s", ErrSplitSumMismatch, total, amount)
	}

	return validExpense{
		description: description,
		amount:      amount,
		paidBy:      n.PaidBy,
		date:        date,
		category:    category,
		splits:      splits,
	}, nil
}

func toCents(d decimal.Decimal, tooPrecise, outOfRange error) (money.Cents, error) {
	c, err := money.FromDecimal(d)
	switch {
	case errors.Is(err, money.ErrTooPrecise):
		return 0, tooPrecise
	case err != nil:
		return 0, outOfRange
	}
	return c, nil
}

// EqualSplits divides amount into one share per member. Shares differ by at
// most a cent; the leftover cents go to the first members.
func EqualSplits(amount money.Cents, memberIDs []uuid.UUID) ([]SplitInput, error) {
	numMembers := int64(len(memberIDs))
	if numMembers == 0 {
		return nil, ErrNoMembers
	}
	if amount <= 0 {
		return nil, ErrInvalidAmount
	}

	baseAmount := int64(amount) / numMembers
	remainder := int64(amount) % numMembers

	splits := make([]SplitInput, 0, numMembers)
	for i, memberID := range memberIDs {
		share := baseAmount
		if int64(i) < remainder {
			share++
		}
		splits = append(splits, SplitInput{
			MemberID: memberID,
			Amount:   money.Cents(share).Decimal(),
		})
	}
	return splits, nil
}

// MemberInfo is the slice of a member the ledger needs to label balances.
type MemberInfo struct {
	ID    uuid.UUID
	Name  string
	Color string
}

// CalculateBalances builds one Balance per member from the per-member paid
// and owed totals. Members without activity get zeros. The result is sorted
// by member id.
func CalculateBalances(members []MemberInfo, paid, owed map[uuid.UUID]money.Cents) []Balance {
	balances := make([]Balance, 0, len(members))
	for _, m := range members {
		p, o := paid[m.ID], owed[m.ID]
		balances = append(balances, Balance{
			MemberID: m.ID,
			Name:     m.Name,
			Color:    m.Color,
			Paid:     p,
			Owed:     o,
			Balance:  p - o,
		})
	}

	slices.SortFunc(balances, func(a, b Balance) int {
		return bytes.Compare(a.MemberID[:], b.MemberID[:])
	})
	return balances
}

// SuggestSettlements pairs the largest debtor with the largest creditor
// until every balance is zero. Ties are broken by member id so the result is
// stable.
func SuggestSettlements(balances []Balance) []Settlement {
	type position struct {
		id     uuid.UUID
		name   string
		amount money.Cents
	}

	var debtors, creditors []position
	for _, b := range balances {
		switch {
		case b.Balance < 0:
			debtors = append(debtors, position{b.MemberID, b.Name, -b.Balance})
		case b.Balance > 0:
			creditors = append(creditors, position{b.MemberID, b.Name, b.Balance})
		}
	}

	largestFirst := func(a, b position) int {
		if c := cmp.Compare(b.amount, a.amount); c != 0 {
			return c
		}
		return bytes.Compare(a.id[:], b.id[:])
	}
	slices.SortFunc(debtors, largestFirst)
	slices.SortFunc(creditors, largestFirst)

	settlements := make([]Settlement, 0)
	i, j := 0, 0
	for i < len(debtors) && j < len(creditors) {
		debtor, creditor := &debtors[i], &creditors[j]

		amount := min(debtor.amount, creditor.amount)
		settlements = append(settlements, Settlement{
			From:     debtor.id,
			FromName: debtor.name,
			To:       creditor.id,
			ToName:   creditor.name,
			Amount:   amount,
		})

		debtor.amount -= amount
		creditor.amount -= amount
		if debtor.amount == 0 {
			i++
		}
		if creditor.amount == 0 {
			j++
		}
	}
	return settlements
}
