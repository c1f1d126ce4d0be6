package services

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"

	"dinero/internal/cache"
	"dinero/internal/core"
	"dinero/internal/currency"
	"dinero/internal/storage"
)

// DashboardService aggregates balances across a user's accounts into the
// dashboard figure set, converting everything into one target currency.
// Results are cached for a few minutes; the cache is advisory and a missing
// backend just recomputes.
type DashboardService struct {
	store   *storage.Repository
	balance *BalanceCalculator
	rates   *currency.Provider
	cache   cache.Store
	now     func() time.Time
}

func NewDashboardService(store *storage.Repository, balance *BalanceCalculator, rates *currency.Provider, cacheStore cache.Store) *DashboardService {
	return &DashboardService{
		store:   store,
		balance: balance,
		rates:   rates,
		cache:   cacheStore,
		now:     time.Now,
	}
}

// GetStats returns dashboard statistics for one account (accountID != 0) or
// for all accounts combined (accountID == 0).
func (s *DashboardService) GetStats(ctx context.Context, userID, accountID int64) (core.DashboardStats, error) {
	key := cache.DashboardKey(userID, accountID)
	if s.cache != nil {
		if raw, ok := s.cache.Get(key); ok {
			var stats core.DashboardStats
			if err := json.Unmarshal([]byte(raw), &stats); err == nil {
				return stats, nil
			}
		}
	}

	stats, err := s.compute(ctx, userID, accountID)
	if err != nil {
		return core.DashboardStats{}, err
	}

	if s.cache != nil {
		if raw, err := json.Marshal(stats); err == nil {
			s.cache.Set(key, string(raw), cache.TTLDashboard)
		} else {
			slog.WarnContext(ctx, "Failed to cache dashboard stats", "error", err)
		}
	}
	return stats, nil
}

func (s *DashboardService) compute(ctx context.Context, userID, accountID int64) (core.DashboardStats, error) {
	if accountID != 0 {
		account, err := s.store.GetAccount(ctx, accountID)
		if err != nil {
			return core.DashboardStats{}, err
		}
		if account.UserID != userID {
			return core.DashboardStats{}, core.Forbidden("account", accountID)
		}
		bal, err := s.balance.ComputeBalance(ctx, *account)
		if err != nil {
			return core.DashboardStats{}, err
		}
		return core.DashboardStats{
			Currency:        account.Currency,
			Balance:         bal.Balance,
			TotalIncome:     bal.TotalIncome,
			TotalExpenses:   bal.TotalExpenses,
			MonthlyIncome:   bal.MonthlyIncome,
			MonthlyExpenses: bal.MonthlyExpenses,
			TotalSaved:      bal.TotalSaved,
			Accounts:        []core.BalanceStats{bal},
		}, nil
	}

	accounts, err := s.store.ListAccounts(ctx, userID)
	if err != nil {
		return core.DashboardStats{}, err
	}
	if len(accounts) == 0 {
		return core.DashboardStats{}, nil
	}

	// The default account's currency is the dashboard's target currency.
	target := accounts[0].Currency
	for _, a := range accounts {
		if a.IsDefault {
			target = a.Currency
			break
		}
	}

	stats := core.DashboardStats{Currency: target}
	for _, account := range accounts {
		bal, err := s.balance.ComputeBalance(ctx, account)
		if err != nil {
			return core.DashboardStats{}, err
		}
		stats.Accounts = append(stats.Accounts, bal)

		from := account.Currency
		stats.Balance = stats.Balance.Add(s.rates.Convert(ctx, bal.Balance, from, target))
		stats.TotalIncome = stats.TotalIncome.Add(s.rates.Convert(ctx, bal.TotalIncome, from, target))
		stats.TotalExpenses = stats.TotalExpenses.Add(s.rates.Convert(ctx, bal.TotalExpenses, from, target))
		stats.MonthlyIncome = stats.MonthlyIncome.Add(s.rates.Convert(ctx, bal.MonthlyIncome, from, target))
		stats.MonthlyExpenses = stats.MonthlyExpenses.Add(s.rates.Convert(ctx, bal.MonthlyExpenses, from, target))
	}

	// Goals are summed directly, not per account: the per-account totalSaved
	// repeats a goal for every account sharing its currency.
	goals, err := s.store.ListGoals(ctx, userID)
	if err != nil {
		return core.DashboardStats{}, err
	}
	saved := decimal.Zero
	for _, g := range goals {
		saved = saved.Add(s.rates.Convert(ctx, g.CurrentAmount, g.Currency, target))
	}
	stats.TotalSaved = core.Round2(saved)

	stats.Balance = core.Round2(stats.Balance)
	stats.TotalIncome = core.Round2(stats.TotalIncome)
	stats.TotalExpenses = core.Round2(stats.TotalExpenses)
	stats.MonthlyIncome = core.Round2(stats.MonthlyIncome)
	stats.MonthlyExpenses = core.Round2(stats.MonthlyExpenses)
	return stats, nil
}

// MonthlySummary backs the current-month dashboard widget.
func (s *DashboardService) MonthlySummary(ctx context.Context, userID int64) (core.MonthlySummary, error) {
	now := s.now().UTC()
	key := cache.MonthlySummaryKey(userID, now.Year(), now.Month())
	if s.cache != nil {
		if raw, ok := s.cache.Get(key); ok {
			var summary core.MonthlySummary
			if err := json.Unmarshal([]byte(raw), &summary); err == nil {
				return summary, nil
			}
		}
	}

	sums, err := s.store.SumByTypeForUser(ctx, userID, startOfMonth(now), time.Time{})
	if err != nil {
		return core.MonthlySummary{}, err
	}
	summary := core.MonthlySummary{
		Year:     now.Year(),
		Month:    int(now.Month()),
		Income:   core.Round2(sums[core.Income]),
		Expenses: core.Round2(sums[core.Expense]),
		Net:      core.Round2(sums[core.Income].Sub(sums[core.Expense])),
	}

	if s.cache != nil {
		if raw, err := json.Marshal(summary); err == nil {
			s.cache.Set(key, string(raw), cache.TTLMonthly)
		}
	}
	return summary, nil
}
