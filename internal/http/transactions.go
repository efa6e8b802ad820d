package http

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"fintrack/internal/domain"
	"fintrack/internal/repository"
	"fintrack/internal/service"
)

type TransactionRequest struct {
	Date            domain.Date     `json:"date"`
	Amount          decimal.Decimal `json:"amount"`
	TransactionType domain.Kind     `json:"transaction_type"`
	Category        string          `json:"category"`
	Description     string          `json:"description"`
}

func (r TransactionRequest) input() domain.TransactionInput {
	return domain.TransactionInput{
		Date:        r.Date,
		Amount:      r.Amount,
		Kind:        r.TransactionType,
		Category:    r.Category,
		Description: r.Description,
	}
}

func (h *Handler) createTransaction(c *gin.Context) {
	var req TransactionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}

	tx, err := h.transactions.Create(c.Request.Context(), currentUser(c).ID, req.input())
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, transactionToResponse(*tx))
}

func (h *Handler) getTransaction(c *gin.Context) {
	id, ok := transactionID(c)
	if !ok {
		return
	}

	tx, err := h.transactions.GetOwned(c.Request.Context(), id, currentUser(c).ID)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, transactionToResponse(*tx))
}

func (h *Handler) updateTransaction(c *gin.Context) {
	id, ok := transactionID(c)
	if !ok {
		return
	}
	var req TransactionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}

	tx, err := h.transactions.Update(c.Request.Context(), id, currentUser(c).ID, req.input())
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, transactionToResponse(*tx))
}

func (h *Handler) deleteTransaction(c *gin.Context) {
	id, ok := transactionID(c)
	if !ok {
		return
	}

	tx, err := h.transactions.Delete(c.Request.Context(), id, currentUser(c).ID)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, transactionToResponse(*tx))
}

// listTransactions pages through the caller's history. Any filter parameter
// switches to the combined filter query.
func (h *Handler) listTransactions(c *gin.Context) {
	q := listQuery{c: c}
	filter := repository.TransactionFilter{
		Offset:    q.intValue("skip", 0),
		Limit:     q.intValue("limit", service.DefaultPageLimit),
		Start:     q.dateValue("start"),
		End:       q.dateValue("end"),
		MinAmount: q.decimalValue("min_amount"),
		MaxAmount: q.decimalValue("max_amount"),
		Category:  q.stringValue("category"),
		Kind:      q.kindValue("kind"),
	}
	if q.err != nil {
		badRequest(c, q.err.Error())
		return
	}

	ownerID := currentUser(c).ID
	var (
		txs []domain.Transaction
		err error
	)
	if filter.Start == nil && filter.End == nil && filter.MinAmount == nil && filter.MaxAmount == nil &&
		filter.Category == nil && filter.Kind == nil {
		txs, err = h.transactions.ListForOwner(c.Request.Context(), ownerID, filter.Offset, filter.Limit)
	} else {
		txs, err = h.transactions.ListFiltered(c.Request.Context(), ownerID, filter)
	}
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, transactionsToResponse(txs))
}

func (h *Handler) listByAmount(c *gin.Context) {
	q := listQuery{c: c}
	minAmount, maxAmount := q.decimalValue("min_amount"), q.decimalValue("max_amount")
	q.require(minAmount != nil, "min_amount")
	q.require(maxAmount != nil, "max_amount")
	if q.err != nil {
		badRequest(c, q.err.Error())
		return
	}

	txs, err := h.transactions.ListByAmountRange(c.Request.Context(), currentUser(c).ID, *minAmount, *maxAmount)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, transactionsToResponse(txs))
}

func (h *Handler) listByDate(c *gin.Context) {
	q := listQuery{c: c}
	start, end := q.dateValue("start"), q.dateValue("end")
	q.require(start != nil, "start")
	q.require(end != nil, "end")
	if q.err != nil {
		badRequest(c, q.err.Error())
		return
	}

	txs, err := h.transactions.ListByDateRange(c.Request.Context(), currentUser(c).ID, *start, *end)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, transactionsToResponse(txs))
}

func (h *Handler) listByCategory(c *gin.Context) {
	category, ok := c.GetQuery("category")
	if !ok {
		badRequest(c, "category is required")
		return
	}

	txs, err := h.transactions.ListByCategory(c.Request.Context(), currentUser(c).ID, category)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, transactionsToResponse(txs))
}

func (h *Handler) summary(c *gin.Context) {
	s, err := h.transactions.Summarize(c.Request.Context(), currentUser(c).ID)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, summaryToResponse(s))
}

func (h *Handler) breakdown(c *gin.Context) {
	kind := domain.Kind(c.DefaultQuery("kind", string(domain.KindExpense)))
	totals, err := h.transactions.CategoryBreakdown(c.Request.Context(), currentUser(c).ID, kind)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, categoriesToResponse(totals))
}

func (h *Handler) monthly(c *gin.Context) {
	months, err := h.transactions.MonthlySeries(c.Request.Context(), currentUser(c).ID)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, monthsToResponse(months))
}

func (h *Handler) dashboard(c *gin.Context) {
	d, err := h.transactions.Dashboard(c.Request.Context(), currentUser(c).ID)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, dashboardToResponse(d))
}

func (h *Handler) daily(c *gin.Context) {
	days, err := h.transactions.DailySeries(c.Request.Context(), currentUser(c).ID)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, daysToResponse(days))
}

func (h *Handler) spendingPatterns(c *gin.Context) {
	patterns, err := h.transactions.SpendingPatterns(c.Request.Context(), currentUser(c).ID)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, patternsToResponse(patterns))
}

func (h *Handler) health(c *gin.Context) {
	health, err := h.transactions.Health(c.Request.Context(), currentUser(c).ID)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, healthToResponse(health))
}

func transactionID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		badRequest(c, "invalid transaction id")
		return 0, false
	}
	return id, true
}

// listQuery parses optional query parameters, keeping the first error.
type listQuery struct {
	c   *gin.Context
	err error
}

func (q *listQuery) fail(format string, args ...any) {
	if q.err == nil {
		q.err = fmt.Errorf(format, args...)
	}
}

func (q *listQuery) require(present bool, name string) {
	if !present {
		q.fail("%s is required", name)
	}
}

func (q *listQuery) intValue(name string, fallback int) int {
	raw, ok := q.c.GetQuery(name)
	if !ok || raw == "" {
		return fallback
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v < 0 {
		q.fail("invalid %s", name)
		return fallback
	}
	return v
}

func (q *listQuery) stringValue(name string) *string {
	raw, ok := q.c.GetQuery(name)
	if !ok {
		return nil
	}
	return &raw
}

func (q *listQuery) dateValue(name string) *domain.Date {
	raw, ok := q.c.GetQuery(name)
	if !ok || raw == "" {
		return nil
	}
	d, err := domain.ParseDate(raw)
	if err != nil {
		q.fail("invalid %s: expected YYYY-MM-DD", name)
		return nil
	}
	return &d
}

func (q *listQuery) decimalValue(name string) *decimal.Decimal {
	raw, ok := q.c.GetQuery(name)
	if !ok || raw == "" {
		return nil
	}
	d, err := decimal.NewFromString(raw)
	if err != nil {
		q.fail("invalid %s", name)
		return nil
	}
	return &d
}

func (q *listQuery) kindValue(name string) *domain.Kind {
	raw, ok := q.c.GetQuery(name)
	if !ok || raw == "" {
		return nil
	}
	k := domain.Kind(raw)
	if !k.Valid() {
		q.fail("invalid %s", name)
		return nil
	}
	return &k
}
