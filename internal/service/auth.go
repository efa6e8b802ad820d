package service

import (
	"context"

	"fintrack/internal/domain"
)

// AuthProvider verifies credentials and issues and resolves session tokens.
type AuthProvider interface {
	Hash(password string) (string, error)
	Verify(ctx context.Context, username, password string) (*domain.User, error)
	IssueToken(user *domain.User) (string, error)
	ResolveToken(ctx context.Context, token string) (*domain.User, error)
}
