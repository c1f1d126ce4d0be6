package core

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

const (
	Expense           TransactionType = "EXPENSE"
	Income            TransactionType = "INCOME"
	TransferToSavings TransactionType = "TRANSFER_TO_SAVINGS"
)

const (
	CategoryExpense CategoryType = "EXPENSE"
	CategoryIncome  CategoryType = "INCOME"
)

const (
	Daily   Frequency = "DAILY"
	Weekly  Frequency = "WEEKLY"
	Monthly Frequency = "MONTHLY"
	Yearly  Frequency = "YEARLY"
)

// Category names the savings flow depends on. They are seeded per user and
// auto-created on first use if the user removed them.
const (
	SavingsCategoryName  = "Ahorros"
	FallbackCategoryName = "Otros"
)

type (
	TransactionType string

	CategoryType string

	Frequency string

	Account struct {
		ID        int64     `json:"id"`
		UserID    int64     `json:"userId"`
		Name      string    `json:"name"`
		Currency  string    `json:"currency"`
		Color     string    `json:"color"`
		Icon      string    `json:"icon"`
		IsDefault bool      `json:"isDefault"`
		SortOrder int       `json:"sortOrder"`
		CreatedAt time.Time `json:"createdAt"`
	}

	Transaction struct {
		ID          int64           `json:"id"`
		UserID      int64           `json:"userId"`
		AccountID   *int64          `json:"accountId"` // nil = unassigned
		CategoryID  int64           `json:"categoryId"`
		Amount      decimal.Decimal `json:"amount"`
		Currency    string          `json:"currency"`
		Type        TransactionType `json:"type"`
		Description string          `json:"description"`
		Date        time.Time       `json:"date"`
		ReceiptURL  string          `json:"receiptUrl,omitempty"`
		IsRecurring bool            `json:"isRecurring"`
		RecurringID *int64          `json:"recurringId,omitempty"`
		DeletedAt   *time.Time      `json:"-"`
		CreatedAt   time.Time       `json:"createdAt"`
	}

	Category struct {
		ID        int64        `json:"id"`
		UserID    int64        `json:"userId"`
		Name      string       `json:"name"`
		Icon      string       `json:"icon"`
		Color     string       `json:"color"`
		Type      CategoryType `json:"type"`
		IsDefault bool         `json:"isDefault"`
		Keywords  []string     `json:"keywords"`
		CreatedAt time.Time    `json:"createdAt"`
	}

	RecurringTemplate struct {
		ID            int64           `json:"id"`
		UserID        int64           `json:"userId"`
		CategoryID    int64           `json:"categoryId"`
		Amount        decimal.Decimal `json:"amount"`
		Currency      string          `json:"currency"`
		Description   string          `json:"description"`
		Frequency     Frequency       `json:"frequency"`
		NextExecution time.Time       `json:"nextExecution"`
		IsActive      bool            `json:"isActive"`
		CreatedAt     time.Time       `json:"createdAt"`
	}

	SavingsGoal struct {
		ID                int64           `json:"id"`
		UserID            int64           `json:"userId"`
		Name              string          `json:"name"`
		TargetAmount      decimal.Decimal `json:"targetAmount"`
		CurrentAmount     decimal.Decimal `json:"currentAmount"`
		Currency          string          `json:"currency"`
		Deadline          *time.Time      `json:"deadline,omitempty"`
		DeductFromBalance bool            `json:"deductFromBalance"`
		AccountID         *int64          `json:"accountId,omitempty"` // default funding account
		CreatedAt         time.Time       `json:"createdAt"`
	}

	SavingsDeposit struct {
		ID        int64           `json:"id"`
		GoalID    int64           `json:"goalId"`
		Amount    decimal.Decimal `json:"amount"`
		Currency  string          `json:"currency"`
		Note      string          `json:"note,omitempty"`
		AccountID *int64          `json:"accountId,omitempty"`
		Date      time.Time       `json:"date"`
	}
)

// Debits reports whether a transaction of this type reduces the spendable
// balance of its account.
func (t TransactionType) Debits() bool {
	return t == Expense || t == TransferToSavings
}

func (t TransactionType) Valid() bool {
	switch t {
	case Expense, Income, TransferToSavings:
		return true
	}
	return false
}

func (c CategoryType) Valid() bool {
	return c == CategoryExpense || c == CategoryIncome
}

// TransactionType maps a category type to the transaction type recorded
// against it. Used when materializing recurring templates.
func (c CategoryType) TransactionType() TransactionType {
	if c == CategoryIncome {
		return Income
	}
	return Expense
}

func (f Frequency) Valid() bool {
	switch f {
	case Daily, Weekly, Monthly, Yearly:
		return true
	}
	return false
}

// Next advances a schedule timestamp by one frequency unit. The step is taken
// from the previous execution time, not from "now", so a delayed sweep keeps
// its cadence. Monthly and yearly steps clamp to the last day of the target
// month (Jan 31 + 1 month = Feb 28/29).
func (f Frequency) Next(from time.Time) time.Time {
	switch f {
	case Daily:
		return from.AddDate(0, 0, 1)
	case Weekly:
		return from.AddDate(0, 0, 7)
	case Yearly:
		return addMonthsClamped(from, 12)
	default:
		return addMonthsClamped(from, 1)
	}
}

func addMonthsClamped(t time.Time, months int) time.Time {
	year, month, day := t.Date()
	m := int(month) + months
	year += (m - 1) / 12
	month = time.Month((m-1)%12 + 1)

	if last := daysInMonth(year, month); day > last {
		day = last
	}
	hour, min, sec := t.Clock()
	return time.Date(year, month, day, hour, min, sec, t.Nanosecond(), t.Location())
}

func daysInMonth(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

func (a Account) Validate() error {
	if strings.TrimSpace(a.Name) == "" {
		return Validation(CodeInvalidInput, "account name cannot be empty")
	}
	if len(a.Currency) != 3 {
		return Validation(CodeInvalidInput, "currency must be a 3-letter ISO code")
	}
	return nil
}

func (t Transaction) Validate() error {
	if err := ValidateAmount(t.Amount); err != nil {
		return err
	}
	if !t.Type.Valid() {
		return Validation(CodeInvalidInput, "unknown transaction type")
	}
	if t.Date.IsZero() {
		return Validation(CodeInvalidInput, "transaction date cannot be zero")
	}
	if len(t.Description) > 200 {
		return Validation(CodeInvalidInput, "description too long (max 200 characters)")
	}
	return nil
}

func (c Category) Validate() error {
	if strings.TrimSpace(c.Name) == "" {
		return Validation(CodeInvalidInput, "category name cannot be empty")
	}
	if !c.Type.Valid() {
		return Validation(CodeInvalidInput, "unknown category type")
	}
	return nil
}

func (r RecurringTemplate) Validate() error {
	if err := ValidateAmount(r.Amount); err != nil {
		return err
	}
	if !r.Frequency.Valid() {
		return Validation(CodeInvalidInput, "unknown frequency")
	}
	if r.NextExecution.IsZero() {
		return Validation(CodeInvalidInput, "next execution cannot be zero")
	}
	return nil
}

func (g SavingsGoal) Validate() error {
	if strings.TrimSpace(g.Name) == "" {
		return Validation(CodeInvalidInput, "goal name cannot be empty")
	}
	if err := ValidateAmount(g.TargetAmount); err != nil {
		return err
	}
	if len(g.Currency) != 3 {
		return Validation(CodeInvalidInput, "currency must be a 3-letter ISO code")
	}
	return nil
}

// Remaining returns the headroom left before the goal hits its target.
func (g SavingsGoal) Remaining() decimal.Decimal {
	return g.TargetAmount.Sub(g.CurrentAmount)
}
