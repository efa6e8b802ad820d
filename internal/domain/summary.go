package domain

import (
	"sort"

	"github.com/shopspring/decimal"
)

// Summary holds the headline totals for a set of transactions.
// TotalExpenses is a magnitude (non-negative).
type Summary struct {
	TotalIncome   decimal.Decimal
	TotalExpenses decimal.Decimal
	NetBalance    decimal.Decimal
}

// CategoryTotal is the magnitude spent or earned in one category.
type CategoryTotal struct {
	Category string
	Total    decimal.Decimal
	Count    int
}

// MonthlyTotal aggregates one calendar month (YYYY-MM).
type MonthlyTotal struct {
	Month    string
	Income   decimal.Decimal
	Expenses decimal.Decimal
	Net      decimal.Decimal
}

// RecentLimit is how many of the latest transactions a Dashboard carries.
const RecentLimit = 5

// Dashboard bundles every aggregate the front end draws. Health is nil when
// there is no income.
type Dashboard struct {
	Summary           Summary
	Health            *Health
	ExpenseByCategory []CategoryTotal
	IncomeByCategory  []CategoryTotal
	Monthly           []MonthlyTotal
	Daily             []DailyTotal
	SpendingPatterns  []MonthlyCategoryTotal
	Recent            []Transaction
}

// Summarize folds transactions into income, expense and net totals.
func Summarize(txs []Transaction) Summary {
	income := decimal.Zero
	expenses := decimal.Zero
	for _, tx := range txs {
		switch tx.Kind {
		case KindIncome:
			income = income.Add(tx.Amount)
		case KindExpense:
			expenses = expenses.Add(tx.Amount)
		}
	}
	expenses = expenses.Abs()
	return Summary{
		TotalIncome:   income,
		TotalExpenses: expenses,
		NetBalance:    income.Sub(expenses),
	}
}

// BreakdownByCategory totals the magnitudes of transactions of one kind per
// category, largest first. Ties are ordered by category name.
func BreakdownByCategory(txs []Transaction, kind Kind) []CategoryTotal {
	index := map[string]int{}
	var out []CategoryTotal
	for _, tx := range txs {
		if tx.Kind != kind {
			continue
		}
		i, ok := index[tx.Category]
		if !ok {
			i = len(out)
			index[tx.Category] = i
			out = append(out, CategoryTotal{Category: tx.Category, Total: decimal.Zero})
		}
		out[i].Total = out[i].Total.Add(tx.Amount.Abs())
		out[i].Count++
	}

	sort.SliceStable(out, func(a, b int) bool {
		if c := out[a].Total.Cmp(out[b].Total); c != 0 {
			return c > 0
		}
		return out[a].Category < out[b].Category
	})
	return out
}

// MonthlySeries buckets transactions by calendar month, oldest first.
func MonthlySeries(txs []Transaction) []MonthlyTotal {
	index := map[string]int{}
	var out []MonthlyTotal
	for _, tx := range txs {
		key := tx.Date.MonthKey()
		i, ok := index[key]
		if !ok {
			i = len(out)
			index[key] = i
			out = append(out, MonthlyTotal{
				Month:    key,
				Income:   decimal.Zero,
				Expenses: decimal.Zero,
			})
		}
		switch tx.Kind {
		case KindIncome:
			out[i].Income = out[i].Income.Add(tx.Amount.Abs())
		case KindExpense:
			out[i].Expenses = out[i].Expenses.Add(tx.Amount.Abs())
		}
	}

	for i := range out {
		out[i].Net = out[i].Income.Sub(out[i].Expenses)
	}
	sort.Slice(out, func(a, b int) bool { return out[a].Month < out[b].Month })
	return out
}
