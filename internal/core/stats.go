package core

import (
	"time"

	"github.com/shopspring/decimal"
)

type (
	// BalanceStats is the per-account figure set emitted by the balance
	// calculator. All fields are rounded to the cent at emission.
	BalanceStats struct {
		AccountID       int64           `json:"accountId"`
		Currency        string          `json:"currency"`
		TotalIncome     decimal.Decimal `json:"totalIncome"`
		TotalExpenses   decimal.Decimal `json:"totalExpenses"`
		Balance         decimal.Decimal `json:"balance"`
		MonthlyIncome   decimal.Decimal `json:"monthlyIncome"`
		MonthlyExpenses decimal.Decimal `json:"monthlyExpenses"`
		TotalSaved      decimal.Decimal `json:"totalSaved"`
	}

	// DashboardStats aggregates either one account or all of a user's
	// accounts, in the requested target currency.
	DashboardStats struct {
		Currency        string          `json:"currency"`
		Balance         decimal.Decimal `json:"balance"`
		TotalIncome     decimal.Decimal `json:"totalIncome"`
		TotalExpenses   decimal.Decimal `json:"totalExpenses"`
		MonthlyIncome   decimal.Decimal `json:"monthlyIncome"`
		MonthlyExpenses decimal.Decimal `json:"monthlyExpenses"`
		TotalSaved      decimal.Decimal `json:"totalSaved"`
		Accounts        []BalanceStats  `json:"accounts"`
	}

	// CategoryTotal is one slice of a report breakdown.
	CategoryTotal struct {
		CategoryID   int64           `json:"categoryId"`
		CategoryName string          `json:"categoryName"`
		Total        decimal.Decimal `json:"total"`
		Count        int             `json:"count"`
	}

	ReportFilter struct {
		UserID     int64
		Start      time.Time
		End        time.Time
		Type       TransactionType // "" = all
		CategoryID int64           // 0 = all
	}

	ReportSummary struct {
		Start         time.Time       `json:"start"`
		End           time.Time       `json:"end"`
		TotalIncome   decimal.Decimal `json:"totalIncome"`
		TotalExpenses decimal.Decimal `json:"totalExpenses"`
		Net           decimal.Decimal `json:"net"`
		ByCategory    []CategoryTotal `json:"byCategory"`
	}

	ReportComparison struct {
		Current       ReportSummary   `json:"current"`
		Previous      ReportSummary   `json:"previous"`
		IncomeDelta   decimal.Decimal `json:"incomeDelta"`
		ExpensesDelta decimal.Decimal `json:"expensesDelta"`
	}

	// MonthlySummary backs the dashboard widget showing the current month.
	MonthlySummary struct {
		Year     int             `json:"year"`
		Month    int             `json:"month"`
		Income   decimal.Decimal `json:"income"`
		Expenses decimal.Decimal `json:"expenses"`
		Net      decimal.Decimal `json:"net"`
	}

	// SweepResult summarizes one recurring-processor run.
	SweepResult struct {
		Processed int `json:"processed"`
		Errors    int `json:"errors"`
		Total     int `json:"total"`
	}

	// AccountOption is an account offered as a funding source for a savings
	// goal, annotated with its current available balance.
	AccountOption struct {
		Account   Account         `json:"account"`
		Available decimal.Decimal `json:"available"`
	}
)
