package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dinero/internal/core"
	"dinero/internal/storage"
)

func TestSweepMaterializesDueTemplate(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	account := env.seedUser(t, 1, "EUR")

	template, err := env.recurring.Create(ctx, CreateRecurringRequest{
		UserID:        1,
		CategoryID:    env.categoryID(t, 1, "Salario"),
		Amount:        dec("1800"),
		Currency:      "EUR",
		Description:   "Nómina mensual",
		Frequency:     core.Monthly,
		NextExecution: time.Date(2026, time.January, 31, 0, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)

	now := time.Date(2026, time.February, 1, 8, 0, 0, 0, time.UTC)
	result, err := env.recurring.ProcessDue(ctx, now)
	require.NoError(t, err)
	assert.Equal(t, core.SweepResult{Processed: 1, Total: 1}, result)

	txs, err := env.transactions.List(ctx, 1, storage.TransactionFilter{})
	require.NoError(t, err)
	require.Len(t, txs, 1)
	assert.True(t, txs[0].IsRecurring)
	require.NotNil(t, txs[0].RecurringID)
	assert.Equal(t, template.ID, *txs[0].RecurringID)
	require.NotNil(t, txs[0].AccountID)
	assert.Equal(t, account.ID, *txs[0].AccountID)
	assert.Equal(t, core.Income, txs[0].Type, "transaction type follows the category type")

	// The schedule advances from the previous schedule point with month-end
	// clamping, not from the sweep time.
	got, err := env.recurring.Get(ctx, 1, template.ID)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2026, time.February, 28, 0, 0, 0, 0, time.UTC), got.NextExecution.UTC())
}

func TestSweepContinuesPastFailures(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.seedUser(t, 1, "EUR")

	// User 2 has categories but no account, so their template cannot resolve
	// a default account and fails during the sweep.
	require.NoError(t, env.categories.SeedDefaults(ctx, 2))

	due := time.Date(2026, time.March, 1, 0, 0, 0, 0, time.UTC)
	_, err := env.recurring.Create(ctx, CreateRecurringRequest{
		UserID:        1,
		CategoryID:    env.categoryID(t, 1, "Hogar"),
		Amount:        dec("750"),
		Currency:      "EUR",
		Description:   "Alquiler",
		Frequency:     core.Monthly,
		NextExecution: due,
	})
	require.NoError(t, err)
	_, err = env.recurring.Create(ctx, CreateRecurringRequest{
		UserID:        2,
		CategoryID:    env.categoryID(t, 2, "Hogar"),
		Amount:        dec("600"),
		Currency:      "EUR",
		Description:   "Alquiler",
		Frequency:     core.Monthly,
		NextExecution: due,
	})
	require.NoError(t, err)

	result, err := env.recurring.ProcessDue(ctx, due.AddDate(0, 0, 1))
	require.NoError(t, err)
	assert.Equal(t, core.SweepResult{Processed: 1, Errors: 1, Total: 2}, result)

	// The healthy user's transaction landed despite the neighbor's failure.
	txs, err := env.transactions.List(ctx, 1, storage.TransactionFilter{})
	require.NoError(t, err)
	assert.Len(t, txs, 1)
	txs, err = env.transactions.List(ctx, 2, storage.TransactionFilter{})
	require.NoError(t, err)
	assert.Empty(t, txs)
}

func TestSweepSkipsInactiveAndFutureTemplates(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.seedUser(t, 1, "EUR")

	now := time.Date(2026, time.June, 15, 0, 0, 0, 0, time.UTC)

	paused, err := env.recurring.Create(ctx, CreateRecurringRequest{
		UserID:        1,
		CategoryID:    env.categoryID(t, 1, "Ocio"),
		Amount:        dec("12.99"),
		Currency:      "EUR",
		Description:   "Streaming",
		Frequency:     core.Monthly,
		NextExecution: now.AddDate(0, 0, -5),
	})
	require.NoError(t, err)
	require.NoError(t, env.recurring.SetActive(ctx, 1, paused.ID, false))

	_, err = env.recurring.Create(ctx, CreateRecurringRequest{
		UserID:        1,
		CategoryID:    env.categoryID(t, 1, "Hogar"),
		Amount:        dec("50"),
		Currency:      "EUR",
		Description:   "Internet",
		Frequency:     core.Monthly,
		NextExecution: now.AddDate(0, 0, 10),
	})
	require.NoError(t, err)

	result, err := env.recurring.ProcessDue(ctx, now)
	require.NoError(t, err)
	assert.Equal(t, core.SweepResult{}, result)

	// Resuming puts the paused template back in the next sweep.
	require.NoError(t, env.recurring.SetActive(ctx, 1, paused.ID, true))
	result, err = env.recurring.ProcessDue(ctx, now)
	require.NoError(t, err)
	assert.Equal(t, core.SweepResult{Processed: 1, Total: 1}, result)
}

func TestRecurringOwnershipEnforced(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.seedUser(t, 1, "EUR")
	env.seedUser(t, 2, "EUR")

	template, err := env.recurring.Create(ctx, CreateRecurringRequest{
		UserID:        1,
		CategoryID:    env.categoryID(t, 1, "Ocio"),
		Amount:        dec("9.99"),
		Currency:      "EUR",
		Description:   "Gimnasio",
		Frequency:     core.Monthly,
		NextExecution: time.Now().UTC().AddDate(0, 1, 0),
	})
	require.NoError(t, err)

	_, err = env.recurring.Get(ctx, 2, template.ID)
	require.Error(t, err)
	assert.Equal(t, core.KindForbidden, core.KindOf(err))

	err = env.recurring.Delete(ctx, 2, template.ID)
	require.Error(t, err)
	assert.Equal(t, core.KindForbidden, core.KindOf(err))
}

func TestUpdateRecurringTemplate(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.seedUser(t, 1, "EUR")

	template, err := env.recurring.Create(ctx, CreateRecurringRequest{
		UserID:        1,
		CategoryID:    env.categoryID(t, 1, "Salario"),
		Amount:        dec("1200"),
		Currency:      "EUR",
		Description:   "Nómina",
		Frequency:     core.Monthly,
		NextExecution: time.Date(2026, time.September, 30, 0, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)

	amount := dec("1350")
	freq := core.Weekly
	description := "Nómina revisada"
	updated, err := env.recurring.Update(ctx, UpdateRecurringRequest{
		UserID:      1,
		ID:          template.ID,
		Amount:      &amount,
		Frequency:   &freq,
		Description: &description,
	})
	require.NoError(t, err)
	assert.True(t, updated.Amount.Equal(dec("1350")))
	assert.Equal(t, core.Weekly, updated.Frequency)
	assert.Equal(t, "Nómina revisada", updated.Description)
	assert.Equal(t, template.NextExecution, updated.NextExecution.UTC(), "schedule untouched unless set explicitly")

	got, err := env.recurring.Get(ctx, 1, template.ID)
	require.NoError(t, err)
	assert.True(t, got.Amount.Equal(dec("1350")))

	// Moving a template onto someone else's category is refused.
	env.seedUser(t, 2, "EUR")
	foreign := env.categoryID(t, 2, "Comida")
	_, err = env.recurring.Update(ctx, UpdateRecurringRequest{UserID: 1, ID: template.ID, CategoryID: &foreign})
	require.Error(t, err)
	assert.Equal(t, core.KindForbidden, core.KindOf(err))

	_, err = env.recurring.Update(ctx, UpdateRecurringRequest{UserID: 2, ID: template.ID, Amount: &amount})
	require.Error(t, err)
	assert.Equal(t, core.KindForbidden, core.KindOf(err))
}
