package repository

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Dialect captures the SQL differences between the supported backends.
type Dialect struct {
	// Placeholder renders the n-th (1-based) bind parameter.
	Placeholder func(n int) string
	// NoLimit is the LIMIT value meaning "unbounded", needed before OFFSET.
	NoLimit string
	// AmountColumn holds the signed amount.
	AmountColumn string
	// AmountBound converts a range bound into a bind argument for AmountColumn.
	AmountBound func(bound decimal.Decimal, lower bool) any
}

var (
	SQLiteDialect = Dialect{
		Placeholder:  func(int) string { return "?" },
		NoLimit:      "-1",
		AmountColumn: "amount_cents",
		AmountBound:  centsBound,
	}
	PostgresDialect = Dialect{
		Placeholder:  func(n int) string { return fmt.Sprintf("$%d", n) },
		NoLimit:      "ALL",
		AmountColumn: "amount",
		AmountBound:  func(bound decimal.Decimal, _ bool) any { return bound },
	}
)

// BuildWhere renders the WHERE/ORDER/LIMIT tail of a transaction query for
// the owner and filter, returning the SQL fragment and its arguments.
func (d Dialect) BuildWhere(ownerID int64, f TransactionFilter) (string, []any) {
	var (
		conds []string
		args  []any
	)
	add := func(cond string, arg any) {
		args = append(args, arg)
		conds = append(conds, fmt.Sprintf(cond, d.Placeholder(len(args))))
	}

	add("user_id = %s", ownerID)
	if f.Start != nil {
		add("date >= %s", *f.Start)
	}
	if f.End != nil {
		add("date <= %s", *f.End)
	}
	if f.Category != nil {
		add("category = %s", *f.Category)
	}
	if f.MinAmount != nil {
		add(d.AmountColumn+" >= %s", d.AmountBound(*f.MinAmount, true))
	}
	if f.MaxAmount != nil {
		add(d.AmountColumn+" <= %s", d.AmountBound(*f.MaxAmount, false))
	}
	if f.Kind != nil {
		add("kind = %s", string(*f.Kind))
	}

	var b strings.Builder
	b.WriteString("WHERE ")
	b.WriteString(strings.Join(conds, " AND "))
	b.WriteString(" ORDER BY id ASC")

	switch {
	case f.Limit > 0:
		args = append(args, f.Limit)
		fmt.Fprintf(&b, " LIMIT %s", d.Placeholder(len(args)))
	case f.Offset > 0:
		fmt.Fprintf(&b, " LIMIT %s", d.NoLimit)
	}
	if f.Offset > 0 {
		args = append(args, f.Offset)
		fmt.Fprintf(&b, " OFFSET %s", d.Placeholder(len(args)))
	}
	return b.String(), args
}
