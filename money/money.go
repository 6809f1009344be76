// Package money represents currency amounts as integer cents.
//
// Amounts cross the API boundary as decimals (JSON numbers or numeric
// strings) and are converted once with FromDecimal. All arithmetic after
// that point is integer arithmetic on Cents, so repeated split-sum
// comparisons never drift.
package money

import (
	"errors"

	"github.com/shopspring/decimal"
)

// Cents is an amount in minor currency units.
type Cents int64

var (
	ErrTooPrecise = errors.New("amount has more than two decimal places")
	ErrOutOfRange = errors.New("amount is out of range")
	ErrMalformed  = errors.New("amount is not a number")
)

// MaxCents bounds every amount accepted from callers: 100 billion in major
// units. Sums of many such amounts still fit in int64 and stay exact as
// float64.
const MaxCents Cents = 10_000_000_000_000

var (
	maxCents = decimal.NewFromInt(int64(MaxCents))
	minCents = maxCents.Neg()
)

// FromDecimal converts a decimal amount to cents. Trailing zeros are fine
// ("12.500"), a non-zero third decimal is not. Magnitudes above MaxCents are
// ErrOutOfRange.
func FromDecimal(d decimal.Decimal) (Cents, error) {
	if !d.Equal(d.Round(2)) {
		return 0, ErrTooPrecise
	}
	shifted := d.Shift(2)
	if shifted.GreaterThan(maxCents) || shifted.LessThan(minCents) {
		return 0, ErrOutOfRange
	}
	return Cents(shifted.IntPart()), nil
}

// Parse reads a decimal string such as "12.34".
func Parse(s string) (Cents, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, ErrMalformed
	}
	return FromDecimal(d)
}

// MustParse is Parse for literals in tests and seed data.
func MustParse(s string) Cents {
	c, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return c
}

func (c Cents) Decimal() decimal.Decimal {
	return decimal.New(int64(c), -2)
}

// String formats with exactly two decimals, e.g. "-25.00".
func (c Cents) String() string {
	return c.Decimal().StringFixed(2)
}

// Float64 is for display only.
func (c Cents) Float64() float64 {
	return float64(c) / 100
}

func (c Cents) MarshalJSON() ([]byte, error) {
	return []byte(c.String()), nil
}

func (c *Cents) UnmarshalJSON(b []byte) error {
	var d decimal.Decimal
	if err := d.UnmarshalJSON(b); err != nil {
		return ErrMalformed
	}
	v, err := FromDecimal(d)
	if err != nil {
		return err
	}
	*c = v
	return nil
}

// Sum adds amounts.
func Sum(amounts ...Cents) Cents {
	var total Cents
	for _, a := range amounts {
		total += a
	}
	return total
}
