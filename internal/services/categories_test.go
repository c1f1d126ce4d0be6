package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dinero/internal/core"
)

func TestSeedDefaultsIdempotent(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	require.NoError(t, env.categories.SeedDefaults(ctx, 1))
	first, err := env.categories.List(ctx, 1, "")
	require.NoError(t, err)
	require.NotEmpty(t, first)

	require.NoError(t, env.categories.SeedDefaults(ctx, 1))
	second, err := env.categories.List(ctx, 1, "")
	require.NoError(t, err)
	assert.Len(t, second, len(first), "reseeding creates no duplicates")

	names := make(map[string]core.Category, len(second))
	for _, c := range second {
		assert.True(t, c.IsDefault)
		names[c.Name] = c
	}
	assert.Contains(t, names, core.SavingsCategoryName)
	assert.Contains(t, names, core.FallbackCategoryName)
	assert.Equal(t, core.CategoryIncome, names["Salario"].Type)
}

func TestCreateCategoryDuplicateName(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.seedUser(t, 1, "EUR")

	_, err := env.categories.Create(ctx, CreateCategoryRequest{
		UserID: 1, Name: "Comida", Type: core.CategoryExpense,
	})
	requireCode(t, err, core.CodeDuplicateName)

	// The same name under a different owner is fine.
	_, err = env.categories.Create(ctx, CreateCategoryRequest{
		UserID: 2, Name: "Comida", Type: core.CategoryExpense,
	})
	require.NoError(t, err)
}

func TestDeleteCategoryGuards(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.seedUser(t, 1, "EUR")
	env.addIncome(t, 1, "100")

	err := env.categories.Delete(ctx, 1, env.categoryID(t, 1, "Comida"))
	requireCode(t, err, core.CodeDefaultCategoryDelete)

	custom, err := env.categories.Create(ctx, CreateCategoryRequest{
		UserID: 1, Name: "Mascotas", Type: core.CategoryExpense,
	})
	require.NoError(t, err)
	_, err = env.transactions.Create(ctx, CreateTransactionRequest{
		UserID:      1,
		CategoryID:  custom.ID,
		Amount:      dec("20"),
		Type:        core.Expense,
		Description: "Pienso",
	})
	require.NoError(t, err)

	err = env.categories.Delete(ctx, 1, custom.ID)
	requireCode(t, err, core.CodeCategoryHasTransactions)

	unused, err := env.categories.Create(ctx, CreateCategoryRequest{
		UserID: 1, Name: "Efímera", Type: core.CategoryExpense,
	})
	require.NoError(t, err)
	require.NoError(t, env.categories.Delete(ctx, 1, unused.ID))
}

func TestUpdateCategoryKeywords(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.seedUser(t, 1, "EUR")

	id := env.categoryID(t, 1, "Ocio")
	keywords := []string{"cine", "teatro", "festival"}
	updated, err := env.categories.Update(ctx, UpdateCategoryRequest{
		UserID: 1, ID: id, Keywords: &keywords,
	})
	require.NoError(t, err)
	assert.Equal(t, keywords, updated.Keywords)

	got, err := env.categories.Get(ctx, 1, id)
	require.NoError(t, err)
	assert.Equal(t, keywords, got.Keywords)
}
