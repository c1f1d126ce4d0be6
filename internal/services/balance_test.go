package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dinero/internal/core"
)

func TestComputeBalanceBasic(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	account := env.seedUser(t, 1, "EUR")

	env.addIncome(t, 1, "1000")
	env.addExpense(t, 1, "200", "Supermercado")

	stats, err := env.balance.ComputeBalance(ctx, *account)
	require.NoError(t, err)

	assert.True(t, stats.Balance.Equal(dec("800")), "balance = %s", stats.Balance)
	assert.True(t, stats.TotalIncome.Equal(dec("1000")))
	assert.True(t, stats.TotalExpenses.Equal(dec("200")))
	assert.True(t, stats.MonthlyIncome.Equal(dec("1000")))
	assert.True(t, stats.MonthlyExpenses.Equal(dec("200")))
	assert.Equal(t, "EUR", stats.Currency)
}

func TestComputeBalanceEmptyAccount(t *testing.T) {
	env := newTestEnv(t)
	account := env.seedUser(t, 1, "EUR")

	stats, err := env.balance.ComputeBalance(context.Background(), *account)
	require.NoError(t, err)

	assert.True(t, stats.Balance.IsZero())
	assert.True(t, stats.TotalIncome.IsZero())
	assert.True(t, stats.TotalSaved.IsZero())
}

func TestMonthlyWindowExcludesOlderTransactions(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	account := env.seedUser(t, 1, "EUR")

	env.addIncome(t, 1, "1000")

	// Last month's expense counts all-time but not monthly.
	_, err := env.transactions.Create(ctx, CreateTransactionRequest{
		UserID:      1,
		CategoryID:  env.categoryID(t, 1, "Comida"),
		Amount:      dec("150"),
		Type:        core.Expense,
		Description: "Mes anterior",
		Date:        time.Now().UTC().AddDate(0, -1, 0),
	})
	require.NoError(t, err)

	stats, err := env.balance.ComputeBalance(ctx, *account)
	require.NoError(t, err)

	assert.True(t, stats.TotalExpenses.Equal(dec("150")))
	assert.True(t, stats.MonthlyExpenses.IsZero())
	assert.True(t, stats.Balance.Equal(dec("850")))
}

func TestSoftDeleteDropsFromAggregates(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	account := env.seedUser(t, 1, "EUR")

	env.addIncome(t, 1, "1000")
	expense := env.addExpense(t, 1, "200", "Cena")

	require.NoError(t, env.transactions.Delete(ctx, 1, expense.ID))

	stats, err := env.balance.ComputeBalance(ctx, *account)
	require.NoError(t, err)
	assert.True(t, stats.Balance.Equal(dec("1000")), "deleted expense must not count")
	assert.True(t, stats.TotalExpenses.IsZero())

	// Deleting again reports not found; the row is invisible now.
	err = env.transactions.Delete(ctx, 1, expense.ID)
	require.Error(t, err)
	assert.Equal(t, core.KindNotFound, core.KindOf(err))
}

func TestTransferReducesBalanceButNotExpenses(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	account := env.seedUser(t, 1, "EUR")

	env.addIncome(t, 1, "1000")
	_, err := env.transactions.Create(ctx, CreateTransactionRequest{
		UserID:      1,
		CategoryID:  env.categoryID(t, 1, core.SavingsCategoryName),
		Amount:      dec("300"),
		Type:        core.TransferToSavings,
		Description: "Ahorro manual",
		Date:        time.Now().UTC(),
	})
	require.NoError(t, err)

	stats, err := env.balance.ComputeBalance(ctx, *account)
	require.NoError(t, err)

	assert.True(t, stats.Balance.Equal(dec("700")), "transfer debits the balance")
	assert.True(t, stats.TotalExpenses.IsZero(), "transfer is not an expense")
	assert.True(t, stats.TotalIncome.Equal(dec("1000")))
}

func TestTotalSavedOnlySameCurrencyGoals(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	account := env.seedUser(t, 1, "EUR")

	eurGoal, err := env.savings.CreateGoal(ctx, CreateGoalRequest{
		UserID: 1, Name: "Vacaciones", TargetAmount: dec("1000"), Currency: "EUR",
	})
	require.NoError(t, err)
	usdGoal, err := env.savings.CreateGoal(ctx, CreateGoalRequest{
		UserID: 1, Name: "Viaje NYC", TargetAmount: dec("1000"), Currency: "USD",
	})
	require.NoError(t, err)

	_, err = env.savings.Deposit(ctx, DepositRequest{UserID: 1, GoalID: eurGoal.ID, Amount: dec("120")})
	require.NoError(t, err)
	_, err = env.savings.Deposit(ctx, DepositRequest{UserID: 1, GoalID: usdGoal.ID, Amount: dec("80")})
	require.NoError(t, err)

	stats, err := env.balance.ComputeBalance(ctx, *account)
	require.NoError(t, err)
	assert.True(t, stats.TotalSaved.Equal(dec("120")), "cross-currency goals are excluded, not converted")
}
