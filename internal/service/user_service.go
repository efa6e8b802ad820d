package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"fintrack/internal/domain"
	"fintrack/internal/repository"
)

// UserService describes user lifecycle operations.
type UserService interface {
	Register(ctx context.Context, username, email, password string) (*domain.User, error)
	Login(ctx context.Context, username, password string) (string, *domain.User, error)
	GetByID(ctx context.Context, id int64) (*domain.User, error)
}

type userService struct {
	users repository.UserRepository
	auth  AuthProvider
}

func NewUserService(users repository.UserRepository, auth AuthProvider) UserService {
	return &userService{
		users: users,
		auth:  auth,
	}
}

func (s *userService) Register(ctx context.Context, username, email, password string) (*domain.User, error) {
	username = strings.TrimSpace(username)
	email = strings.TrimSpace(email)

	if username == "" {
		return nil, domain.ValidationError{Reason: "username is required"}
	}
	if email == "" {
		return nil, domain.ValidationError{Reason: "email is required"}
	}
	if !strings.Contains(email, "@") {
		return nil, domain.ValidationError{Reason: "email is invalid"}
	}
	if err := domain.ValidatePassword(password); err != nil {
		return nil, err
	}

	if taken, err := s.exists(ctx, s.users.GetByEmail, email); err != nil {
		return nil, err
	} else if taken {
		return nil, domain.ErrEmailTaken
	}
	if taken, err := s.exists(ctx, s.users.GetByUsername, username); err != nil {
		return nil, err
	} else if taken {
		return nil, domain.ErrUsernameTaken
	}

	hash, err := s.auth.Hash(password)
	if err != nil {
		return nil, err
	}

	user := &domain.User{
		Username:     username,
		Email:        email,
		PasswordHash: hash,
	}
	// a concurrent registration can still win the race; the repository
	// reports that as ErrConflict from its unique constraints
	if _, err := s.users.Create(ctx, user); err != nil {
		return nil, err
	}
	return user.Sanitize(), nil
}

func (s *userService) exists(ctx context.Context, lookup func(context.Context, string) (*domain.User, error), key string) (bool, error) {
	_, err := lookup(ctx, key)
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, domain.ErrNotFound):
		return false, nil
	default:
		return false, fmt.Errorf("lookup user: %w", err)
	}
}

func (s *userService) Login(ctx context.Context, username, password string) (string, *domain.User, error) {
	user, err := s.auth.Verify(ctx, username, password)
	if err != nil {
		return "", nil, err
	}
	token, err := s.auth.IssueToken(user)
	if err != nil {
		return "", nil, err
	}
	return token, user, nil
}

func (s *userService) GetByID(ctx context.Context, id int64) (*domain.User, error) {
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return user.Sanitize(), nil
}
