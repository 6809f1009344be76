package client

import (
	"errors"

	"github.com/billbatista/household-hub/ledger"
	"github.com/billbatista/household-hub/money"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// SplitEvenly fills in an expense's splits so every member owes the same
// share; leftover cents go to the first members listed.
func SplitEvenly(amount decimal.Decimal, memberIDs []uuid.UUID) ([]ledger.SplitInput, error) {
	cents, err := money.FromDecimal(amount)
	switch {
	case errors.Is(err, money.ErrTooPrecise):
		return nil, ledger.ErrAmountTooPrecise
	case err != nil:
		return nil, ledger.ErrAmountOutOfRange
	}
	return ledger.EqualSplits(cents, memberIDs)
}
