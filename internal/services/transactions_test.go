package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dinero/internal/core"
)

func TestCreateRejectsOverdraft(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.seedUser(t, 1, "EUR")

	env.addIncome(t, 1, "100")

	_, err := env.transactions.Create(ctx, CreateTransactionRequest{
		UserID:      1,
		CategoryID:  env.categoryID(t, 1, "Comida"),
		Amount:      dec("100.01"),
		Type:        core.Expense,
		Description: "Un céntimo de más",
		Date:        time.Now().UTC(),
	})
	bizErr := requireCode(t, err, core.CodeInsufficientBalance)
	assert.Equal(t, "100.00", bizErr.Details["available"])
	assert.Equal(t, "EUR", bizErr.Details["currency"])
}

func TestCreateAllowsExactBalance(t *testing.T) {
	env := newTestEnv(t)
	account := env.seedUser(t, 1, "EUR")
	env.addIncome(t, 1, "100")

	env.addExpense(t, 1, "100", "Hasta el último céntimo")

	available, err := env.balance.AvailableBalance(context.Background(), account.ID)
	require.NoError(t, err)
	assert.True(t, available.IsZero())
}

func TestIncomeNeverGuarded(t *testing.T) {
	env := newTestEnv(t)
	env.seedUser(t, 1, "EUR")

	// Income on an empty account is always fine.
	tx := env.addIncome(t, 1, "50")
	assert.Equal(t, core.Income, tx.Type)
}

func TestUpdateAddsBackOwnAmount(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.seedUser(t, 1, "EUR")

	env.addIncome(t, 1, "70")
	expense := env.addExpense(t, 1, "50", "Cena")

	// Available is 20, but editing the 50 up to 65 must pass: the stored row's
	// own debit is added back before the check.
	newAmount := dec("65")
	updated, err := env.transactions.Update(ctx, UpdateTransactionRequest{
		UserID: 1,
		ID:     expense.ID,
		Amount: &newAmount,
	})
	require.NoError(t, err)
	assert.True(t, updated.Amount.Equal(dec("65")))

	// Raising past total income still fails.
	tooMuch := dec("70.01")
	_, err = env.transactions.Update(ctx, UpdateTransactionRequest{
		UserID: 1,
		ID:     expense.ID,
		Amount: &tooMuch,
	})
	bizErr := requireCode(t, err, core.CodeInsufficientBalance)
	assert.Equal(t, "70.00", bizErr.Details["available"])
}

func TestCreateUsesDefaultAccountAndItsCurrency(t *testing.T) {
	env := newTestEnv(t)
	account := env.seedUser(t, 1, "EUR")

	tx := env.addIncome(t, 1, "10")

	require.NotNil(t, tx.AccountID)
	assert.Equal(t, account.ID, *tx.AccountID)
	assert.Equal(t, "EUR", tx.Currency, "currency comes from the account, not the request")
}

func TestCreateUnassignedWithoutAccounts(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	require.NoError(t, env.categories.SeedDefaults(ctx, 1))

	// No accounts at all: the transaction stays unassigned and needs an
	// explicit currency. The guard does not apply.
	_, err := env.transactions.Create(ctx, CreateTransactionRequest{
		UserID:      1,
		CategoryID:  env.categoryID(t, 1, "Comida"),
		Amount:      dec("25"),
		Type:        core.Expense,
		Description: "Sin cuenta",
		Date:        time.Now().UTC(),
	})
	requireCode(t, err, core.CodeInvalidInput)

	tx, err := env.transactions.Create(ctx, CreateTransactionRequest{
		UserID:      1,
		CategoryID:  env.categoryID(t, 1, "Comida"),
		Amount:      dec("25"),
		Currency:    "EUR",
		Type:        core.Expense,
		Description: "Sin cuenta",
		Date:        time.Now().UTC(),
	})
	require.NoError(t, err)
	assert.Nil(t, tx.AccountID)
}

func TestAutoCategorization(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.seedUser(t, 1, "EUR")
	env.addIncome(t, 1, "500")

	tx, err := env.transactions.Create(ctx, CreateTransactionRequest{
		UserID:      1,
		Amount:      dec("32.50"),
		Type:        core.Expense,
		Description: "Cena en restaurante",
		Date:        time.Now().UTC(),
	})
	require.NoError(t, err)
	assert.Equal(t, env.categoryID(t, 1, "Comida"), tx.CategoryID)

	// No keyword hit falls back to the Otros category.
	tx, err = env.transactions.Create(ctx, CreateTransactionRequest{
		UserID:      1,
		Amount:      dec("15"),
		Type:        core.Expense,
		Description: "Zzz misterioso",
		Date:        time.Now().UTC(),
	})
	require.NoError(t, err)
	assert.Equal(t, env.categoryID(t, 1, core.FallbackCategoryName), tx.CategoryID)
}

func TestOwnershipEnforced(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.seedUser(t, 1, "EUR")
	env.seedUser(t, 2, "EUR")

	env.addIncome(t, 1, "100")
	tx := env.addExpense(t, 1, "10", "Privado")

	_, err := env.transactions.Get(ctx, 2, tx.ID)
	require.Error(t, err)
	assert.Equal(t, core.KindForbidden, core.KindOf(err))

	err = env.transactions.Delete(ctx, 2, tx.ID)
	require.Error(t, err)
	assert.Equal(t, core.KindForbidden, core.KindOf(err))
}

func TestMutationInvalidatesCachedAggregates(t *testing.T) {
	env := newTestEnv(t)
	env.seedUser(t, 1, "EUR")

	key := "dashboard:1:all"
	env.cache.Set(key, "stale", time.Minute)

	env.addIncome(t, 1, "100")

	_, ok := env.cache.Get(key)
	assert.False(t, ok, "ledger mutation must sweep the user's cached aggregates")
}
