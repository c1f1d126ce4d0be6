package services

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"dinero/internal/cache"
	"dinero/internal/core"
	"dinero/internal/storage"
)

// testEnv wires every service against a real sqlite file in a temp dir. No
// AMQP client: publishing degrades to a no-op, which is also the production
// behavior without a broker.
type testEnv struct {
	repo         *storage.Repository
	cache        *cache.Memory
	balance      *BalanceCalculator
	transactions *TransactionService
	accounts     *AccountService
	categories   *CategoryService
	savings      *SavingsService
	recurring    *RecurringService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	repo, err := storage.NewRepository(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { repo.Close() })

	memCache := cache.NewMemory(100)
	balance := NewBalanceCalculator(repo)

	return &testEnv{
		repo:         repo,
		cache:        memCache,
		balance:      balance,
		transactions: NewTransactionService(repo, balance, memCache, nil),
		accounts:     NewAccountService(repo, balance, memCache, nil),
		categories:   NewCategoryService(repo, memCache, nil),
		savings:      NewSavingsService(repo, balance, memCache, nil),
		recurring:    NewRecurringService(repo, memCache, nil),
	}
}

// seedUser provisions default categories and one account, mirroring user
// registration.
func (e *testEnv) seedUser(t *testing.T, userID int64, currency string) *core.Account {
	t.Helper()
	ctx := context.Background()

	require.NoError(t, e.categories.SeedDefaults(ctx, userID))
	account, err := e.accounts.Create(ctx, CreateAccountRequest{
		UserID:   userID,
		Name:     "Principal",
		Currency: currency,
	})
	require.NoError(t, err)
	return account
}

func (e *testEnv) categoryID(t *testing.T, userID int64, name string) int64 {
	t.Helper()
	c, err := e.repo.GetCategoryByName(context.Background(), userID, name)
	require.NoError(t, err)
	return c.ID
}

func (e *testEnv) addIncome(t *testing.T, userID int64, amount string) *core.Transaction {
	t.Helper()
	tx, err := e.transactions.Create(context.Background(), CreateTransactionRequest{
		UserID:      userID,
		CategoryID:  e.categoryID(t, userID, "Salario"),
		Amount:      decimal.RequireFromString(amount),
		Type:        core.Income,
		Description: "Nómina",
		Date:        time.Now().UTC(),
	})
	require.NoError(t, err)
	return tx
}

func (e *testEnv) addExpense(t *testing.T, userID int64, amount, description string) *core.Transaction {
	t.Helper()
	tx, err := e.transactions.Create(context.Background(), CreateTransactionRequest{
		UserID:      userID,
		CategoryID:  e.categoryID(t, userID, "Comida"),
		Amount:      decimal.RequireFromString(amount),
		Type:        core.Expense,
		Description: description,
		Date:        time.Now().UTC(),
	})
	require.NoError(t, err)
	return tx
}

func requireCode(t *testing.T, err error, code string) *core.Error {
	t.Helper()
	require.Error(t, err)
	var bizErr *core.Error
	require.ErrorAs(t, err, &bizErr)
	require.Equal(t, code, bizErr.Code)
	return bizErr
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}
