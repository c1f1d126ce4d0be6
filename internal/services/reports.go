package services

import (
	"context"
	"encoding/json"
	"log/slog"

	"dinero/internal/cache"
	"dinero/internal/core"
	"dinero/internal/storage"
)

// ReportService builds per-period spending reports and period comparisons.
type ReportService struct {
	store *storage.Repository
	cache cache.Store
}

func NewReportService(store *storage.Repository, cacheStore cache.Store) *ReportService {
	return &ReportService{store: store, cache: cacheStore}
}

// Summary returns income/expense totals and a per-category breakdown for the
// filter's date range.
func (s *ReportService) Summary(ctx context.Context, f core.ReportFilter) (core.ReportSummary, error) {
	if f.End.Before(f.Start) {
		return core.ReportSummary{}, core.Validation(core.CodeInvalidInput, "end date before start date")
	}

	key := cache.ReportKey(f.UserID, f.Start, f.End, string(f.Type), f.CategoryID)
	if s.cache != nil {
		if raw, ok := s.cache.Get(key); ok {
			var summary core.ReportSummary
			if err := json.Unmarshal([]byte(raw), &summary); err == nil {
				return summary, nil
			}
		}
	}

	sums, err := s.store.SumByTypeForUser(ctx, f.UserID, f.Start, f.End)
	if err != nil {
		return core.ReportSummary{}, err
	}
	byCategory, err := s.store.CategoryTotals(ctx, f)
	if err != nil {
		return core.ReportSummary{}, err
	}

	summary := core.ReportSummary{
		Start:         f.Start,
		End:           f.End,
		TotalIncome:   core.Round2(sums[core.Income]),
		TotalExpenses: core.Round2(sums[core.Expense]),
		Net:           core.Round2(sums[core.Income].Sub(sums[core.Expense])),
		ByCategory:    byCategory,
	}

	if s.cache != nil {
		if raw, err := json.Marshal(summary); err == nil {
			s.cache.Set(key, string(raw), cache.TTLReport)
		} else {
			slog.WarnContext(ctx, "Failed to cache report summary", "error", err)
		}
	}
	return summary, nil
}

// Comparison builds summaries for two ranges and the deltas between them.
// The previous range is typically the same-length window immediately before
// the current one.
func (s *ReportService) Comparison(ctx context.Context, current, previous core.ReportFilter) (core.ReportComparison, error) {
	cur, err := s.Summary(ctx, current)
	if err != nil {
		return core.ReportComparison{}, err
	}
	prev, err := s.Summary(ctx, previous)
	if err != nil {
		return core.ReportComparison{}, err
	}
	return core.ReportComparison{
		Current:       cur,
		Previous:      prev,
		IncomeDelta:   cur.TotalIncome.Sub(prev.TotalIncome),
		ExpensesDelta: cur.TotalExpenses.Sub(prev.TotalExpenses),
	}, nil
}
