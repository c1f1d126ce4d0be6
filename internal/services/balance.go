// Package services holds the domain service layer. Each service takes its
// collaborators (repository, cache, rate provider, event publisher) through
// its constructor; none of them reach for globals.
package services

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"dinero/internal/core"
	"dinero/internal/storage"
)

// BalanceCalculator derives spendable balances and per-account statistics
// from ledger aggregates plus savings-goal deductions.
type BalanceCalculator struct {
	store *storage.Repository
	now   func() time.Time
}

func NewBalanceCalculator(store *storage.Repository) *BalanceCalculator {
	return &BalanceCalculator{store: store, now: time.Now}
}

// ComputeBalance builds the full figure set for one account.
//
// The spendable balance is income minus expenses minus savings transfers;
// the transfers reduce the balance but stay out of the income/expense
// reporting totals. totalSaved adds the current amount of every goal sharing
// the account's currency (cross-currency goals are excluded, not converted).
// Every emitted figure is rounded to the cent independently; intermediate
// sums keep raw precision.
func (b *BalanceCalculator) ComputeBalance(ctx context.Context, account core.Account) (core.BalanceStats, error) {
	allTime, err := b.store.SumByType(ctx, account.ID, time.Time{})
	if err != nil {
		return core.BalanceStats{}, err
	}
	monthly, err := b.store.SumByType(ctx, account.ID, startOfMonth(b.now()))
	if err != nil {
		return core.BalanceStats{}, err
	}

	balance := allTime[core.Income].
		Sub(allTime[core.Expense]).
		Sub(allTime[core.TransferToSavings])

	totalSaved := decimal.Zero
	goals, err := b.store.ListGoals(ctx, account.UserID)
	if err != nil {
		return core.BalanceStats{}, err
	}
	for _, g := range goals {
		if g.Currency == account.Currency {
			totalSaved = totalSaved.Add(g.CurrentAmount)
		}
	}

	return core.BalanceStats{
		AccountID:       account.ID,
		Currency:        account.Currency,
		TotalIncome:     core.Round2(allTime[core.Income]),
		TotalExpenses:   core.Round2(allTime[core.Expense]),
		Balance:         core.Round2(balance),
		MonthlyIncome:   core.Round2(monthly[core.Income]),
		MonthlyExpenses: core.Round2(monthly[core.Expense]),
		TotalSaved:      core.Round2(totalSaved),
	}, nil
}

// AvailableBalance is the guard's fast path: only the spendable balance,
// computed in a single aggregate query.
func (b *BalanceCalculator) AvailableBalance(ctx context.Context, accountID int64) (decimal.Decimal, error) {
	return b.store.AvailableBalance(ctx, accountID)
}

func startOfMonth(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
}
