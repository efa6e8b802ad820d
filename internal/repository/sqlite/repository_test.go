package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fintrack/internal/domain"
	"fintrack/internal/repository"
	"fintrack/internal/repository/migrations"
)

func openTestDB(t *testing.T) *sql.DB {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	require.NoError(t, migrations.Up(migrations.DriverSQLite, path))
	db, err := Open(path)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func createUser(t *testing.T, users repository.UserRepository, name string) *domain.User {
	t.Helper()
	u := &domain.User{Username: name, Email: name + "@example.com", PasswordHash: "hash"}
	_, err := users.Create(context.Background(), u)
	require.NoError(t, err)
	return u
}

func TestUserRepository_CreateAndGet(t *testing.T) {
	ctx := context.Background()
	users := NewUserRepository(openTestDB(t))

	u := createUser(t, users, "alice")
	assert.NotZero(t, u.ID)

	byID, err := users.GetByID(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, "alice", byID.Username)
	assert.Equal(t, "alice@example.com", byID.Email)
	assert.Equal(t, "hash", byID.PasswordHash)

	byName, err := users.GetByUsername(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, u.ID, byName.ID)

	byEmail, err := users.GetByEmail(ctx, "alice@example.com")
	require.NoError(t, err)
	assert.Equal(t, u.ID, byEmail.ID)

	_, err = users.GetByUsername(ctx, "nobody")
	assert.True(t, errors.Is(err, domain.ErrNotFound))
}

func TestUserRepository_UniqueViolations(t *testing.T) {
	ctx := context.Background()
	users := NewUserRepository(openTestDB(t))
	createUser(t, users, "alice")

	_, err := users.Create(ctx, &domain.User{Username: "other", Email: "alice@example.com", PasswordHash: "x"})
	assert.True(t, errors.Is(err, domain.ErrEmailTaken))
	assert.True(t, errors.Is(err, domain.ErrConflict))

	_, err = users.Create(ctx, &domain.User{Username: "alice", Email: "new@example.com", PasswordHash: "x"})
	assert.True(t, errors.Is(err, domain.ErrUsernameTaken))
}

func TestTransactionRepository_CRUD(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)
	owner := createUser(t, NewUserRepository(db), "alice")
	txs := NewTransactionRepository(db)

	tx := &domain.Transaction{
		OwnerID:     owner.ID,
		Date:        domain.NewDate(2024, 6, 1),
		Amount:      decimal.RequireFromString("-100.50"),
		Kind:        domain.KindExpense,
		Category:    "Food",
		Description: "Groceries",
	}
	id, err := txs.Create(ctx, tx)
	require.NoError(t, err)
	assert.Equal(t, id, tx.ID)

	got, err := txs.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, owner.ID, got.OwnerID)
	assert.Equal(t, "2024-06-01", got.Date.String())
	assert.True(t, got.Amount.Equal(decimal.RequireFromString("-100.50")), "amount %s", got.Amount)
	assert.Equal(t, domain.KindExpense, got.Kind)
	assert.Equal(t, "Groceries", got.Description)

	got.Amount = decimal.NewFromInt(2500)
	got.Kind = domain.KindIncome
	got.Category = "Salary"
	require.NoError(t, txs.Update(ctx, got))

	updated, err := txs.Get(ctx, id)
	require.NoError(t, err)
	assert.True(t, updated.Amount.Equal(decimal.NewFromInt(2500)))
	assert.Equal(t, "Salary", updated.Category)

	require.NoError(t, txs.Delete(ctx, id))
	_, err = txs.Get(ctx, id)
	assert.True(t, errors.Is(err, domain.ErrNotFound))

	assert.True(t, errors.Is(txs.Delete(ctx, id), domain.ErrNotFound))
	assert.True(t, errors.Is(txs.Update(ctx, &domain.Transaction{ID: 999, Date: domain.NewDate(2024, 1, 1), Amount: decimal.NewFromInt(1), Kind: domain.KindIncome}), domain.ErrNotFound))
}

func TestTransactionRepository_Query(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)
	users := NewUserRepository(db)
	alice := createUser(t, users, "alice")
	bob := createUser(t, users, "bob")
	txs := NewTransactionRepository(db)

	base := domain.NewDate(2024, 3, 10)
	for i, amount := range []int64{-50, -100, -150, -200} {
		_, err := txs.Create(ctx, &domain.Transaction{
			OwnerID:  alice.ID,
			Date:     base.AddDays(i),
			Amount:   decimal.NewFromInt(amount),
			Kind:     domain.KindExpense,
			Category: []string{"Food", "Bills", "Food", "Shopping"}[i],
		})
		require.NoError(t, err)
	}
	_, err := txs.Create(ctx, &domain.Transaction{
		OwnerID: bob.ID, Date: base, Amount: decimal.NewFromInt(-75), Kind: domain.KindExpense, Category: "Food",
	})
	require.NoError(t, err)

	all, err := txs.Query(ctx, alice.ID, repository.TransactionFilter{})
	require.NoError(t, err)
	require.Len(t, all, 4)
	for i := 1; i < len(all); i++ {
		assert.Less(t, all[i-1].ID, all[i].ID)
	}

	food := "Food"
	byCategory, err := txs.Query(ctx, alice.ID, repository.TransactionFilter{Category: &food})
	require.NoError(t, err)
	assert.Len(t, byCategory, 2)

	lo, hi := decimal.NewFromInt(-175), decimal.NewFromInt(-75)
	byAmount, err := txs.Query(ctx, alice.ID, repository.TransactionFilter{MinAmount: &lo, MaxAmount: &hi})
	require.NoError(t, err)
	require.Len(t, byAmount, 2)
	assert.True(t, byAmount[0].Amount.Equal(decimal.NewFromInt(-100)))
	assert.True(t, byAmount[1].Amount.Equal(decimal.NewFromInt(-150)))

	start, end := base.AddDays(1), base.AddDays(2)
	byDate, err := txs.Query(ctx, alice.ID, repository.TransactionFilter{Start: &start, End: &end})
	require.NoError(t, err)
	assert.Len(t, byDate, 2)

	page, err := txs.Query(ctx, alice.ID, repository.TransactionFilter{Offset: 1, Limit: 2})
	require.NoError(t, err)
	require.Len(t, page, 2)
	assert.Equal(t, all[1].ID, page[0].ID)

	tail, err := txs.Query(ctx, alice.ID, repository.TransactionFilter{Offset: 3})
	require.NoError(t, err)
	require.Len(t, tail, 1)
	assert.Equal(t, all[3].ID, tail[0].ID)
}

func TestTransactionRepository_ForeignKey(t *testing.T) {
	txs := NewTransactionRepository(openTestDB(t))
	_, err := txs.Create(context.Background(), &domain.Transaction{
		OwnerID: 12345, Date: domain.NewDate(2024, 1, 1), Amount: decimal.NewFromInt(1), Kind: domain.KindIncome,
	})
	assert.Error(t, err)
}

func TestOpen_ForeignKeysOnEveryConnection(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)
	db.SetMaxOpenConns(3)
	db.SetMaxIdleConns(0)

	var conns []*sql.Conn
	for range 3 {
		conn, err := db.Conn(ctx)
		require.NoError(t, err)
		conns = append(conns, conn)
	}
	for i, conn := range conns {
		var enabled int
		require.NoError(t, conn.QueryRowContext(ctx, `PRAGMA foreign_keys`).Scan(&enabled))
		assert.Equal(t, 1, enabled, "connection %d", i)
		require.NoError(t, conn.Close())
	}
}

func TestTransactionRepository_StoresIntegerCents(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)
	owner := createUser(t, NewUserRepository(db), "alice")
	txs := NewTransactionRepository(db)

	var ids []int64
	for _, amount := range []string{"0.10", "0.20", "-19.99"} {
		id, err := txs.Create(ctx, &domain.Transaction{
			OwnerID: owner.ID, Date: domain.NewDate(2024, 1, 1), Amount: decimal.RequireFromString(amount), Kind: domain.KindIncome,
		})
		require.NoError(t, err)
		ids = append(ids, id)
	}

	var (
		typ   string
		cents int64
	)
	require.NoError(t, db.QueryRowContext(ctx, `SELECT typeof(amount_cents), amount_cents FROM transactions WHERE id = ?`, ids[2]).Scan(&typ, &cents))
	assert.Equal(t, "integer", typ)
	assert.Equal(t, int64(-1999), cents)

	all, err := txs.Query(ctx, owner.ID, repository.TransactionFilter{})
	require.NoError(t, err)
	sum := decimal.Zero
	for _, tx := range all {
		sum = sum.Add(tx.Amount)
	}
	assert.Equal(t, "-19.69", sum.StringFixed(2))
	assert.True(t, all[0].Amount.Add(all[1].Amount).Equal(decimal.RequireFromString("0.3")))
}
