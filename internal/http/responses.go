package http

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"

	"fintrack/internal/domain"
	"fintrack/internal/service"
)

type UserResponse struct {
	ID        int64  `json:"id"`
	Username  string `json:"username"`
	Email     string `json:"email"`
	CreatedAt string `json:"created_at"`
}

type TokenResponse struct {
	AccessToken string       `json:"access_token"`
	TokenType   string       `json:"token_type"`
	User        UserResponse `json:"user"`
}

type TransactionResponse struct {
	ID              int64       `json:"id"`
	UserID          int64       `json:"user_id"`
	Date            domain.Date `json:"date"`
	Amount          json.Number `json:"amount"`
	TransactionType domain.Kind `json:"transaction_type"`
	Category        string      `json:"category"`
	Description     string      `json:"description"`
	CreatedAt       string      `json:"created_at"`
	UpdatedAt       string      `json:"updated_at"`
}

type SummaryResponse struct {
	TotalIncome   json.Number `json:"total_income"`
	TotalExpenses json.Number `json:"total_expenses"`
	NetBalance    json.Number `json:"net_balance"`
}

type CategoryTotalResponse struct {
	Category string      `json:"category"`
	Total    json.Number `json:"total"`
	Count    int         `json:"count"`
}

type MonthlyTotalResponse struct {
	Month    string      `json:"month"`
	Income   json.Number `json:"income"`
	Expenses json.Number `json:"expenses"`
	Net      json.Number `json:"net"`
}

type DailyTotalResponse struct {
	Date     domain.Date `json:"date"`
	Income   json.Number `json:"income"`
	Expenses json.Number `json:"expenses"`
}

type SpendingPatternResponse struct {
	Month    string      `json:"month"`
	Category string      `json:"category"`
	Total    json.Number `json:"total"`
	Count    int         `json:"count"`
}

// HealthResponse leaves ratio and tier empty until some income exists.
type HealthResponse struct {
	Available    bool              `json:"available"`
	ExpenseRatio *json.Number      `json:"expense_ratio,omitempty"`
	Tier         domain.HealthTier `json:"tier,omitempty"`
}

type DashboardResponse struct {
	Summary           SummaryResponse           `json:"summary"`
	Health            HealthResponse            `json:"health"`
	ExpenseByCategory []CategoryTotalResponse   `json:"expense_by_category"`
	IncomeByCategory  []CategoryTotalResponse   `json:"income_by_category"`
	Monthly           []MonthlyTotalResponse    `json:"monthly"`
	Daily             []DailyTotalResponse      `json:"daily"`
	SpendingPatterns  []SpendingPatternResponse `json:"spending_patterns"`
	Recent            []TransactionResponse     `json:"recent"`
}

type ExportResponse struct {
	Key          string `json:"key"`
	Location     string `json:"location"`
	URL          string `json:"url,omitempty"`
	Transactions int    `json:"transactions,omitempty"`
	Size         int64  `json:"size"`
	CreatedAt    string `json:"created_at,omitempty"`
}

// money renders an amount as a bare JSON number with two decimals.
func money(d decimal.Decimal) json.Number {
	return json.Number(d.StringFixed(2))
}

func userToResponse(u *domain.User) UserResponse {
	return UserResponse{
		ID:        u.ID,
		Username:  u.Username,
		Email:     u.Email,
		CreatedAt: u.CreatedAt.Format(time.RFC3339),
	}
}

func transactionToResponse(tx domain.Transaction) TransactionResponse {
	return TransactionResponse{
		ID:              tx.ID,
		UserID:          tx.OwnerID,
		Date:            tx.Date,
		Amount:          money(tx.Amount),
		TransactionType: tx.Kind,
		Category:        tx.Category,
		Description:     tx.Description,
		CreatedAt:       tx.CreatedAt.Format(time.RFC3339),
		UpdatedAt:       tx.UpdatedAt.Format(time.RFC3339),
	}
}

func transactionsToResponse(txs []domain.Transaction) []TransactionResponse {
	resp := make([]TransactionResponse, 0, len(txs))
	for _, tx := range txs {
		resp = append(resp, transactionToResponse(tx))
	}
	return resp
}

func summaryToResponse(s domain.Summary) SummaryResponse {
	return SummaryResponse{
		TotalIncome:   money(s.TotalIncome),
		TotalExpenses: money(s.TotalExpenses),
		NetBalance:    money(s.NetBalance),
	}
}

func categoriesToResponse(totals []domain.CategoryTotal) []CategoryTotalResponse {
	resp := make([]CategoryTotalResponse, 0, len(totals))
	for _, t := range totals {
		resp = append(resp, CategoryTotalResponse{Category: t.Category, Total: money(t.Total), Count: t.Count})
	}
	return resp
}

func monthsToResponse(months []domain.MonthlyTotal) []MonthlyTotalResponse {
	resp := make([]MonthlyTotalResponse, 0, len(months))
	for _, m := range months {
		resp = append(resp, MonthlyTotalResponse{
			Month:    m.Month,
			Income:   money(m.Income),
			Expenses: money(m.Expenses),
			Net:      money(m.Net),
		})
	}
	return resp
}

func daysToResponse(days []domain.DailyTotal) []DailyTotalResponse {
	resp := make([]DailyTotalResponse, 0, len(days))
	for _, d := range days {
		resp = append(resp, DailyTotalResponse{Date: d.Date, Income: money(d.Income), Expenses: money(d.Expenses)})
	}
	return resp
}

func patternsToResponse(patterns []domain.MonthlyCategoryTotal) []SpendingPatternResponse {
	resp := make([]SpendingPatternResponse, 0, len(patterns))
	for _, p := range patterns {
		resp = append(resp, SpendingPatternResponse{
			Month:    p.Month,
			Category: p.Category,
			Total:    money(p.Total),
			Count:    p.Count,
		})
	}
	return resp
}

func healthToResponse(h *domain.Health) HealthResponse {
	if h == nil {
		return HealthResponse{}
	}
	ratio := money(h.ExpenseRatio)
	return HealthResponse{Available: true, ExpenseRatio: &ratio, Tier: h.Tier}
}

func dashboardToResponse(d *domain.Dashboard) DashboardResponse {
	return DashboardResponse{
		Summary:           summaryToResponse(d.Summary),
		Health:            healthToResponse(d.Health),
		ExpenseByCategory: categoriesToResponse(d.ExpenseByCategory),
		IncomeByCategory:  categoriesToResponse(d.IncomeByCategory),
		Monthly:           monthsToResponse(d.Monthly),
		Daily:             daysToResponse(d.Daily),
		SpendingPatterns:  patternsToResponse(d.SpendingPatterns),
		Recent:            transactionsToResponse(d.Recent),
	}
}

func exportToResponse(e service.Export) ExportResponse {
	resp := ExportResponse{
		Key:          e.Key,
		Location:     e.Location,
		URL:          e.URL,
		Transactions: e.Transactions,
		Size:         e.Size,
	}
	if !e.CreatedAt.IsZero() {
		resp.CreatedAt = e.CreatedAt.Format(time.RFC3339)
	}
	return resp
}
