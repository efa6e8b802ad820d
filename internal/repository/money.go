package repository

import "github.com/shopspring/decimal"

// ToCents converts an amount with at most two decimal places to integer
// cents. Finer amounts are rounded half away from zero.
func ToCents(amount decimal.Decimal) int64 {
	return amount.Shift(2).Round(0).IntPart()
}

// FromCents is the inverse of ToCents.
func FromCents(cents int64) decimal.Decimal {
	return decimal.New(cents, -2)
}

// centsBound keeps an inclusive range exact over integer cents: a lower bound
// rounds up and an upper bound rounds down.
func centsBound(bound decimal.Decimal, lower bool) any {
	shifted := bound.Shift(2)
	if lower {
		return shifted.Ceil().IntPart()
	}
	return shifted.Floor().IntPart()
}
