package types

import (
	"strconv"

	"github.com/shopspring/decimal"
)

// Money is a decimal amount held at two fraction digits. Rounding is half
// away from zero, which is half-up for the non-negative amounts used here.
type Money struct {
	decimal.Decimal
}

// NewMoney rounds d to two places.
func NewMoney(d decimal.Decimal) Money {
	return Money{Decimal: d.Round(2)}
}

// MarshalJSON renders the amount as a quoted string with two decimals.
func (m Money) MarshalJSON() ([]byte, error) {
	return []byte(strconv.Quote(m.StringFixed(2))), nil
}

func (m Money) String() string {
	return m.StringFixed(2)
}
