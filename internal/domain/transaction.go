package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Kind classifies a transaction as money in or money out.
type Kind string

const (
	KindIncome  Kind = "income"
	KindExpense Kind = "expense"
)

// Valid reports whether k is one of the known kinds.
func (k Kind) Valid() bool {
	return k == KindIncome || k == KindExpense
}

// Transaction is a single signed ledger entry owned by one user.
// Expenses are stored negative, income positive.
type Transaction struct {
	ID          int64
	OwnerID     int64
	Date        Date
	Amount      decimal.Decimal
	Kind        Kind
	Category    string
	Description string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// TransactionInput carries the caller supplied, mutable fields of a transaction.
type TransactionInput struct {
	Date        Date
	Amount      decimal.Decimal
	Kind        Kind
	Category    string
	Description string
}

// MaxAmount is the exclusive upper bound on a transaction's magnitude. It
// keeps amounts inside NUMERIC(14, 2).
var MaxAmount = decimal.New(1, 12)

// NormalizeAmount maps a magnitude and kind to the signed stored amount.
// Applying it to an already normalized amount returns the same value.
func NormalizeAmount(amount decimal.Decimal, kind Kind) decimal.Decimal {
	if kind == KindExpense {
		return amount.Abs().Neg()
	}
	return amount.Abs()
}

// Normalize validates the input and returns a copy with a signed amount.
func (in TransactionInput) Normalize() (TransactionInput, error) {
	if !in.Amount.Equal(in.Amount.Round(2)) {
		return TransactionInput{}, invalid("amount has more than 2 decimal places")
	}
	if in.Amount.Abs().GreaterThanOrEqual(MaxAmount) {
		return TransactionInput{}, invalid("amount is too large")
	}
	if in.Amount.IsZero() {
		return TransactionInput{}, invalid("amount is zero")
	}
	if !in.Kind.Valid() {
		return TransactionInput{}, invalid("invalid kind")
	}
	if in.Date.IsZero() {
		return TransactionInput{}, invalid("date is required")
	}
	out := in
	out.Amount = NormalizeAmount(in.Amount, in.Kind)
	return out, nil
}

// Apply copies the input fields onto tx. Id, owner and timestamps are untouched.
// Callers must pass an input returned by Normalize.
func (in TransactionInput) Apply(tx *Transaction) {
	tx.Date = in.Date
	tx.Amount = in.Amount
	tx.Kind = in.Kind
	tx.Category = in.Category
	tx.Description = in.Description
}
