package domain

import (
	"sort"

	"github.com/shopspring/decimal"
)

// HealthTier grades spending against income.
type HealthTier string

const (
	// HealthExcellent: expenses are at most half of income.
	HealthExcellent HealthTier = "excellent"
	// HealthCaution: expenses are above half and at most 70% of income.
	HealthCaution HealthTier = "caution"
	HealthAlert   HealthTier = "alert"
)

// Health is the expense to income ratio (a percentage) and its tier.
type Health struct {
	ExpenseRatio decimal.Decimal
	Tier         HealthTier
}

// DailyTotal holds income and expense magnitudes for one day.
type DailyTotal struct {
	Date     Date
	Income   decimal.Decimal
	Expenses decimal.Decimal
}

// MonthlyCategoryTotal is the expense magnitude of one category in one month.
type MonthlyCategoryTotal struct {
	Month    string
	Category string
	Total    decimal.Decimal
	Count    int
}

var hundred = decimal.NewFromInt(100)

// AssessHealth grades a summary. It returns nil when there is no income to
// compare against.
func AssessHealth(s Summary) *Health {
	if !s.TotalIncome.IsPositive() {
		return nil
	}

	// compare on the exact fractions, the ratio itself is rounded for display
	tier := HealthAlert
	switch {
	case s.TotalExpenses.Mul(decimal.NewFromInt(2)).LessThanOrEqual(s.TotalIncome):
		tier = HealthExcellent
	case s.TotalExpenses.Mul(decimal.NewFromInt(10)).LessThanOrEqual(s.TotalIncome.Mul(decimal.NewFromInt(7))):
		tier = HealthCaution
	}
	return &Health{
		ExpenseRatio: s.TotalExpenses.Mul(hundred).DivRound(s.TotalIncome, 2),
		Tier:         tier,
	}
}

// DailySeries buckets transactions by day, oldest first.
func DailySeries(txs []Transaction) []DailyTotal {
	index := map[string]int{}
	var out []DailyTotal
	for _, tx := range txs {
		key := tx.Date.String()
		i, ok := index[key]
		if !ok {
			i = len(out)
			index[key] = i
			out = append(out, DailyTotal{Date: tx.Date, Income: decimal.Zero, Expenses: decimal.Zero})
		}
		switch tx.Kind {
		case KindIncome:
			out[i].Income = out[i].Income.Add(tx.Amount.Abs())
		case KindExpense:
			out[i].Expenses = out[i].Expenses.Add(tx.Amount.Abs())
		}
	}

	sort.Slice(out, func(a, b int) bool { return out[a].Date.Before(out[b].Date.Time) })
	return out
}

// SpendingPatterns totals expenses per month and category. Months run oldest
// first; within a month the largest category comes first.
func SpendingPatterns(txs []Transaction) []MonthlyCategoryTotal {
	type key struct{ month, category string }
	index := map[key]int{}
	var out []MonthlyCategoryTotal
	for _, tx := range txs {
		if tx.Kind != KindExpense {
			continue
		}
		k := key{tx.Date.MonthKey(), tx.Category}
		i, ok := index[k]
		if !ok {
			i = len(out)
			index[k] = i
			out = append(out, MonthlyCategoryTotal{Month: k.month, Category: k.category, Total: decimal.Zero})
		}
		out[i].Total = out[i].Total.Add(tx.Amount.Abs())
		out[i].Count++
	}

	sort.Slice(out, func(a, b int) bool {
		if out[a].Month != out[b].Month {
			return out[a].Month < out[b].Month
		}
		if c := out[a].Total.Cmp(out[b].Total); c != 0 {
			return c > 0
		}
		return out[a].Category < out[b].Category
	})
	return out
}

// Recent returns up to n transactions, newest date first. Entries on the same
// day are ordered by descending id.
func Recent(txs []Transaction, n int) []Transaction {
	out := make([]Transaction, len(txs))
	copy(out, txs)
	sort.SliceStable(out, func(a, b int) bool {
		if !out[a].Date.Equal(out[b].Date.Time) {
			return out[a].Date.After(out[b].Date.Time)
		}
		return out[a].ID > out[b].ID
	})
	if n >= 0 && len(out) > n {
		out = out[:n]
	}
	return out
}
