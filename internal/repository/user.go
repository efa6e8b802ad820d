package repository

import (
	"context"

	"fintrack/internal/domain"
)

// UserRepository defines persistence operations for User entities.
// Lookups return domain.ErrNotFound when no row matches and Create returns
// domain.ErrConflict when a unique column is already taken.
type UserRepository interface {
	Create(ctx context.Context, user *domain.User) (int64, error)
	GetByID(ctx context.Context, id int64) (*domain.User, error)
	GetByUsername(ctx context.Context, username string) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
}
