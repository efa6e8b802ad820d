package service

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"fintrack/internal/domain"
	"fintrack/internal/repository"
)

// DefaultPageLimit applies when a listing asks for no explicit limit.
const DefaultPageLimit = 100

// TransactionService validates, stores and aggregates ledger entries.
type TransactionService interface {
	Create(ctx context.Context, ownerID int64, input domain.TransactionInput) (*domain.Transaction, error)
	Get(ctx context.Context, id int64) (*domain.Transaction, error)
	GetOwned(ctx context.Context, id, callerID int64) (*domain.Transaction, error)
	ListForOwner(ctx context.Context, ownerID int64, offset, limit int) ([]domain.Transaction, error)
	ListByDateRange(ctx context.Context, ownerID int64, start, end domain.Date) ([]domain.Transaction, error)
	ListByCategory(ctx context.Context, ownerID int64, category string) ([]domain.Transaction, error)
	ListByAmountRange(ctx context.Context, ownerID int64, minAmount, maxAmount decimal.Decimal) ([]domain.Transaction, error)
	ListFiltered(ctx context.Context, ownerID int64, filter repository.TransactionFilter) ([]domain.Transaction, error)
	Update(ctx context.Context, id, callerID int64, input domain.TransactionInput) (*domain.Transaction, error)
	Delete(ctx context.Context, id, callerID int64) (*domain.Transaction, error)
	Summarize(ctx context.Context, ownerID int64) (domain.Summary, error)
	CategoryBreakdown(ctx context.Context, ownerID int64, kind domain.Kind) ([]domain.CategoryTotal, error)
	MonthlySeries(ctx context.Context, ownerID int64) ([]domain.MonthlyTotal, error)
	DailySeries(ctx context.Context, ownerID int64) ([]domain.DailyTotal, error)
	SpendingPatterns(ctx context.Context, ownerID int64) ([]domain.MonthlyCategoryTotal, error)
	Health(ctx context.Context, ownerID int64) (*domain.Health, error)
	Dashboard(ctx context.Context, ownerID int64) (*domain.Dashboard, error)
}

type transactionService struct {
	txs repository.TransactionRepository
}

func NewTransactionService(txs repository.TransactionRepository) TransactionService {
	return &transactionService{txs: txs}
}

func (s *transactionService) Create(ctx context.Context, ownerID int64, input domain.TransactionInput) (*domain.Transaction, error) {
	normalized, err := input.Normalize()
	if err != nil {
		return nil, err
	}

	tx := &domain.Transaction{OwnerID: ownerID}
	normalized.Apply(tx)

	if _, err := s.txs.Create(ctx, tx); err != nil {
		return nil, err
	}
	return tx, nil
}

func (s *transactionService) Get(ctx context.Context, id int64) (*domain.Transaction, error) {
	return s.txs.Get(ctx, id)
}

func (s *transactionService) GetOwned(ctx context.Context, id, callerID int64) (*domain.Transaction, error) {
	tx, err := s.txs.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if tx.OwnerID != callerID {
		return nil, fmt.Errorf("transaction %d: %w", id, domain.ErrForbidden)
	}
	return tx, nil
}

func (s *transactionService) ListForOwner(ctx context.Context, ownerID int64, offset, limit int) ([]domain.Transaction, error) {
	if offset < 0 {
		offset = 0
	}
	if limit <= 0 {
		limit = DefaultPageLimit
	}
	return s.txs.Query(ctx, ownerID, repository.TransactionFilter{Offset: offset, Limit: limit})
}

func (s *transactionService) ListByDateRange(ctx context.Context, ownerID int64, start, end domain.Date) ([]domain.Transaction, error) {
	return s.txs.Query(ctx, ownerID, repository.TransactionFilter{Start: &start, End: &end})
}

func (s *transactionService) ListByCategory(ctx context.Context, ownerID int64, category string) ([]domain.Transaction, error) {
	return s.txs.Query(ctx, ownerID, repository.TransactionFilter{Category: &category})
}

// ListByAmountRange compares against stored signed amounts, so expense
// ranges need negative bounds.
func (s *transactionService) ListByAmountRange(ctx context.Context, ownerID int64, minAmount, maxAmount decimal.Decimal) ([]domain.Transaction, error) {
	return s.txs.Query(ctx, ownerID, repository.TransactionFilter{MinAmount: &minAmount, MaxAmount: &maxAmount})
}

func (s *transactionService) ListFiltered(ctx context.Context, ownerID int64, filter repository.TransactionFilter) ([]domain.Transaction, error) {
	if filter.Offset < 0 {
		filter.Offset = 0
	}
	if filter.Limit <= 0 {
		filter.Limit = DefaultPageLimit
	}
	return s.txs.Query(ctx, ownerID, filter)
}

func (s *transactionService) Update(ctx context.Context, id, callerID int64, input domain.TransactionInput) (*domain.Transaction, error) {
	tx, err := s.GetOwned(ctx, id, callerID)
	if err != nil {
		return nil, err
	}

	normalized, err := input.Normalize()
	if err != nil {
		return nil, err
	}
	normalized.Apply(tx)

	if err := s.txs.Update(ctx, tx); err != nil {
		return nil, err
	}
	return tx, nil
}

func (s *transactionService) Delete(ctx context.Context, id, callerID int64) (*domain.Transaction, error) {
	tx, err := s.GetOwned(ctx, id, callerID)
	if err != nil {
		return nil, err
	}
	if err := s.txs.Delete(ctx, id); err != nil {
		return nil, err
	}
	return tx, nil
}

func (s *transactionService) all(ctx context.Context, ownerID int64) ([]domain.Transaction, error) {
	return s.txs.Query(ctx, ownerID, repository.TransactionFilter{})
}

func (s *transactionService) Summarize(ctx context.Context, ownerID int64) (domain.Summary, error) {
	txs, err := s.all(ctx, ownerID)
	if err != nil {
		return domain.Summary{}, err
	}
	return domain.Summarize(txs), nil
}

func (s *transactionService) CategoryBreakdown(ctx context.Context, ownerID int64, kind domain.Kind) ([]domain.CategoryTotal, error) {
	if !kind.Valid() {
		return nil, domain.ValidationError{Reason: "invalid kind"}
	}
	txs, err := s.txs.Query(ctx, ownerID, repository.TransactionFilter{Kind: &kind})
	if err != nil {
		return nil, err
	}
	return domain.BreakdownByCategory(txs, kind), nil
}

func (s *transactionService) MonthlySeries(ctx context.Context, ownerID int64) ([]domain.MonthlyTotal, error) {
	txs, err := s.all(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	return domain.MonthlySeries(txs), nil
}

func (s *transactionService) DailySeries(ctx context.Context, ownerID int64) ([]domain.DailyTotal, error) {
	txs, err := s.all(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	return domain.DailySeries(txs), nil
}

func (s *transactionService) SpendingPatterns(ctx context.Context, ownerID int64) ([]domain.MonthlyCategoryTotal, error) {
	kind := domain.KindExpense
	txs, err := s.txs.Query(ctx, ownerID, repository.TransactionFilter{Kind: &kind})
	if err != nil {
		return nil, err
	}
	return domain.SpendingPatterns(txs), nil
}

// Health returns nil, without error, when the owner has recorded no income.
func (s *transactionService) Health(ctx context.Context, ownerID int64) (*domain.Health, error) {
	summary, err := s.Summarize(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	return domain.AssessHealth(summary), nil
}

func (s *transactionService) Dashboard(ctx context.Context, ownerID int64) (*domain.Dashboard, error) {
	var dash domain.Dashboard
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		txs, err := s.all(gctx, ownerID)
		if err != nil {
			return err
		}
		dash.Summary = domain.Summarize(txs)
		dash.Health = domain.AssessHealth(dash.Summary)
		dash.Monthly = domain.MonthlySeries(txs)
		dash.Daily = domain.DailySeries(txs)
		dash.SpendingPatterns = domain.SpendingPatterns(txs)
		dash.Recent = domain.Recent(txs, domain.RecentLimit)
		return nil
	})
	g.Go(func() error {
		totals, err := s.CategoryBreakdown(gctx, ownerID, domain.KindExpense)
		dash.ExpenseByCategory = totals
		return err
	})
	g.Go(func() error {
		totals, err := s.CategoryBreakdown(gctx, ownerID, domain.KindIncome)
		dash.IncomeByCategory = totals
		return err
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return &dash, nil
}
