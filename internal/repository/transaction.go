package repository

import (
	"context"

	"github.com/shopspring/decimal"

	"fintrack/internal/domain"
)

// TransactionFilter narrows a transaction query. Nil fields are unconstrained,
// bounds are inclusive and Limit 0 means no limit. Results are ordered by id.
type TransactionFilter struct {
	Start     *domain.Date
	End       *domain.Date
	Category  *string
	MinAmount *decimal.Decimal
	MaxAmount *decimal.Decimal
	Kind      *domain.Kind
	Offset    int
	Limit     int
}

// TransactionRepository exposes persistence operations for transactions.
type TransactionRepository interface {
	Create(ctx context.Context, tx *domain.Transaction) (int64, error)
	Get(ctx context.Context, id int64) (*domain.Transaction, error)
	Update(ctx context.Context, tx *domain.Transaction) error
	Delete(ctx context.Context, id int64) error
	Query(ctx context.Context, ownerID int64, filter TransactionFilter) ([]domain.Transaction, error)
}
