package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dinero/internal/core"
)

func TestReportSummary(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.seedUser(t, 1, "EUR")
	env.addIncome(t, 1, "1000")
	env.addExpense(t, 1, "200", "Supermercado")
	env.addExpense(t, 1, "50", "Restaurante")

	now := time.Now().UTC()
	reports := NewReportService(env.repo, env.cache)
	summary, err := reports.Summary(ctx, core.ReportFilter{
		UserID: 1,
		Start:  now.AddDate(0, 0, -1),
		End:    now.AddDate(0, 0, 1),
	})
	require.NoError(t, err)
	assert.True(t, summary.TotalIncome.Equal(dec("1000")))
	assert.True(t, summary.TotalExpenses.Equal(dec("250")))
	assert.True(t, summary.Net.Equal(dec("750")))

	totals := map[string]core.CategoryTotal{}
	for _, ct := range summary.ByCategory {
		totals[ct.CategoryName] = ct
	}
	require.Contains(t, totals, "Comida")
	assert.True(t, totals["Comida"].Total.Equal(dec("250")))
	assert.Equal(t, 2, totals["Comida"].Count)
	require.Contains(t, totals, "Salario")
	assert.True(t, totals["Salario"].Total.Equal(dec("1000")))
}

func TestReportSummaryFilters(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.seedUser(t, 1, "EUR")
	env.addIncome(t, 1, "1000")
	env.addExpense(t, 1, "200", "Supermercado")

	now := time.Now().UTC()
	reports := NewReportService(env.repo, env.cache)

	byType, err := reports.Summary(ctx, core.ReportFilter{
		UserID: 1,
		Start:  now.AddDate(0, 0, -1),
		End:    now.AddDate(0, 0, 1),
		Type:   core.Expense,
	})
	require.NoError(t, err)
	require.Len(t, byType.ByCategory, 1)
	assert.Equal(t, "Comida", byType.ByCategory[0].CategoryName)

	// Out-of-range window sees nothing.
	empty, err := reports.Summary(ctx, core.ReportFilter{
		UserID: 1,
		Start:  now.AddDate(0, -2, 0),
		End:    now.AddDate(0, -1, 0),
	})
	require.NoError(t, err)
	assert.True(t, empty.TotalIncome.IsZero())
	assert.Empty(t, empty.ByCategory)
}

func TestReportSummaryRejectsInvertedRange(t *testing.T) {
	env := newTestEnv(t)
	now := time.Now().UTC()

	_, err := NewReportService(env.repo, env.cache).Summary(context.Background(), core.ReportFilter{
		UserID: 1,
		Start:  now,
		End:    now.AddDate(0, 0, -7),
	})
	requireCode(t, err, core.CodeInvalidInput)
}

func TestReportComparison(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.seedUser(t, 1, "EUR")
	env.addIncome(t, 1, "1000")
	env.addExpense(t, 1, "300", "Supermercado")

	now := time.Now().UTC()
	current := core.ReportFilter{UserID: 1, Start: now.AddDate(0, 0, -1), End: now.AddDate(0, 0, 1)}
	previous := core.ReportFilter{UserID: 1, Start: now.AddDate(0, 0, -3), End: now.AddDate(0, 0, -1)}

	cmp, err := NewReportService(env.repo, env.cache).Comparison(ctx, current, previous)
	require.NoError(t, err)
	assert.True(t, cmp.Current.TotalIncome.Equal(dec("1000")))
	assert.True(t, cmp.Previous.TotalIncome.IsZero())
	assert.True(t, cmp.IncomeDelta.Equal(dec("1000")))
	assert.True(t, cmp.ExpensesDelta.Equal(dec("300")))
}
