package service

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"fintrack/internal/auth"
	"fintrack/internal/domain"
	"fintrack/internal/repository"
	"fintrack/internal/repository/migrations"
	"fintrack/internal/repository/sqlite"
)

type fixture struct {
	users repository.UserRepository
	txs   repository.TransactionRepository
	auth  *auth.Provider

	userService        UserService
	transactionService TransactionService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	path := filepath.Join(t.TempDir(), "service.db")
	require.NoError(t, migrations.Up(migrations.DriverSQLite, path))
	db, err := sqlite.Open(path)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	f := &fixture{
		users: sqlite.NewUserRepository(db),
		txs:   sqlite.NewTransactionRepository(db),
	}
	f.auth = auth.NewProvider(f.users, "test-secret", time.Hour, auth.WithBcryptCost(bcrypt.MinCost))
	f.userService = NewUserService(f.users, f.auth)
	f.transactionService = NewTransactionService(f.txs)
	return f
}

func (f *fixture) register(t *testing.T, name string) *domain.User {
	t.Helper()
	u, err := f.userService.Register(context.Background(), name, name+"@example.com", "TestPass123!")
	require.NoError(t, err)
	return u
}

func (f *fixture) add(t *testing.T, ownerID int64, kind domain.Kind, amount, category string, date domain.Date) *domain.Transaction {
	t.Helper()
	tx, err := f.transactionService.Create(context.Background(), ownerID, domain.TransactionInput{
		Date:        date,
		Amount:      decimal.RequireFromString(amount),
		Kind:        kind,
		Category:    category,
		Description: "Test",
	})
	require.NoError(t, err)
	return tx
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}
