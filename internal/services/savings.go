package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"dinero/internal/cache"
	"dinero/internal/core"
	"dinero/internal/events"
	"dinero/internal/storage"
)

// SavingsService manages savings goals and their deposits. Deposits never
// overshoot the target; deduct-from-balance goals additionally debit a
// funding account through a synthetic TRANSFER_TO_SAVINGS transaction.
type SavingsService struct {
	store   *storage.Repository
	balance *BalanceCalculator
	cache   cache.Store
	events  *events.Client
}

func NewSavingsService(store *storage.Repository, balance *BalanceCalculator, cacheStore cache.Store, eventsClient *events.Client) *SavingsService {
	return &SavingsService{
		store:   store,
		balance: balance,
		cache:   cacheStore,
		events:  eventsClient,
	}
}

type CreateGoalRequest struct {
	UserID            int64
	Name              string
	TargetAmount      decimal.Decimal
	Currency          string
	Deadline          *time.Time
	DeductFromBalance bool
	AccountID         *int64 // default funding account
}

type DepositRequest struct {
	UserID    int64
	GoalID    int64
	Amount    decimal.Decimal
	Note      string
	AccountID *int64
	Date      time.Time
}

func (s *SavingsService) CreateGoal(ctx context.Context, req CreateGoalRequest) (*core.SavingsGoal, error) {
	goal := &core.SavingsGoal{
		UserID:            req.UserID,
		Name:              req.Name,
		TargetAmount:      req.TargetAmount,
		CurrentAmount:     decimal.Zero,
		Currency:          req.Currency,
		Deadline:          req.Deadline,
		DeductFromBalance: req.DeductFromBalance,
		AccountID:         req.AccountID,
	}
	if err := goal.Validate(); err != nil {
		return nil, err
	}
	if req.AccountID != nil {
		account, err := s.ownedAccount(ctx, req.UserID, *req.AccountID)
		if err != nil {
			return nil, err
		}
		if account.Currency != goal.Currency {
			return nil, currencyMismatch(goal.Currency, account.Currency)
		}
	}
	if err := s.store.CreateGoal(ctx, goal); err != nil {
		return nil, err
	}
	return goal, nil
}

type UpdateGoalRequest struct {
	UserID            int64
	ID                int64
	Name              *string
	TargetAmount      *decimal.Decimal
	Deadline          *time.Time
	DeductFromBalance *bool
	AccountID         *int64
}

// UpdateGoal amends a goal. Currency is immutable after creation; lowering
// the target below the current amount is rejected.
func (s *SavingsService) UpdateGoal(ctx context.Context, req UpdateGoalRequest) (*core.SavingsGoal, error) {
	goal, err := s.ownedGoal(ctx, req.UserID, req.ID)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		goal.Name = *req.Name
	}
	if req.TargetAmount != nil {
		if err := core.ValidateAmount(*req.TargetAmount); err != nil {
			return nil, err
		}
		if req.TargetAmount.LessThan(goal.CurrentAmount) {
			return nil, core.Validation(core.CodeInvalidInput, "target cannot drop below the current amount").
				WithDetail("currentAmount", core.Round2(goal.CurrentAmount).StringFixed(2))
		}
		goal.TargetAmount = *req.TargetAmount
	}
	if req.Deadline != nil {
		goal.Deadline = req.Deadline
	}
	if req.DeductFromBalance != nil {
		goal.DeductFromBalance = *req.DeductFromBalance
	}
	if req.AccountID != nil {
		account, err := s.ownedAccount(ctx, req.UserID, *req.AccountID)
		if err != nil {
			return nil, err
		}
		if account.Currency != goal.Currency {
			return nil, currencyMismatch(goal.Currency, account.Currency)
		}
		goal.AccountID = &account.ID
	}

	if err := goal.Validate(); err != nil {
		return nil, err
	}
	if err := s.store.UpdateGoal(ctx, goal); err != nil {
		return nil, err
	}
	return goal, nil
}

// DeleteGoal removes a goal unconditionally. Unlike accounts and categories,
// goals have no dependency check.
func (s *SavingsService) DeleteGoal(ctx context.Context, userID, id int64) error {
	if _, err := s.ownedGoal(ctx, userID, id); err != nil {
		return err
	}
	return s.store.DeleteGoal(ctx, id)
}

func (s *SavingsService) ListGoals(ctx context.Context, userID int64) ([]core.SavingsGoal, error) {
	return s.store.ListGoals(ctx, userID)
}

func (s *SavingsService) GetGoal(ctx context.Context, userID, id int64) (*core.SavingsGoal, error) {
	return s.ownedGoal(ctx, userID, id)
}

func (s *SavingsService) ListDeposits(ctx context.Context, userID, goalID int64) ([]core.SavingsDeposit, error) {
	if _, err := s.ownedGoal(ctx, userID, goalID); err != nil {
		return nil, err
	}
	return s.store.ListDeposits(ctx, goalID)
}

// Deposit adds money to a goal. The goal's current amount may never exceed
// its target; the rejection reports the remaining headroom. For
// deduct-from-balance goals the deposit also debits a funding account;
// transfer transaction and goal increment commit atomically.
func (s *SavingsService) Deposit(ctx context.Context, req DepositRequest) (*core.SavingsDeposit, error) {
	if err := core.ValidateAmount(req.Amount); err != nil {
		return nil, err
	}
	goal, err := s.ownedGoal(ctx, req.UserID, req.GoalID)
	if err != nil {
		return nil, err
	}

	date := req.Date
	if date.IsZero() {
		date = time.Now().UTC()
	}
	deposit := &core.SavingsDeposit{
		GoalID:   goal.ID,
		Amount:   req.Amount,
		Currency: goal.Currency,
		Note:     req.Note,
		Date:     date,
	}

	if !goal.DeductFromBalance {
		// Plain deposit: no ledger write, no cache touched.
		err := s.store.InTx(ctx, func(tx *storage.Repository) error {
			if err := checkOvershoot(ctx, tx, goal.ID, req.Amount); err != nil {
				return err
			}
			if err := tx.CreateDeposit(ctx, deposit); err != nil {
				return err
			}
			return tx.IncrementGoal(ctx, goal.ID, core.AmountToCents(req.Amount))
		})
		if err != nil {
			return nil, err
		}
		return deposit, nil
	}

	account, err := s.resolveFundingAccount(ctx, goal, req.AccountID)
	if err != nil {
		return nil, err
	}
	if account.Currency != goal.Currency {
		return nil, currencyMismatch(goal.Currency, account.Currency)
	}
	deposit.AccountID = &account.ID

	categoryID, err := s.savingsCategory(ctx, req.UserID)
	if err != nil {
		return nil, err
	}

	transfer := &core.Transaction{
		UserID:      req.UserID,
		AccountID:   &account.ID,
		CategoryID:  categoryID,
		Amount:      req.Amount,
		Currency:    account.Currency,
		Type:        core.TransferToSavings,
		Description: fmt.Sprintf("Ahorro: %s", goal.Name),
		Date:        date,
	}

	err = s.store.InTx(ctx, func(tx *storage.Repository) error {
		if err := checkOvershoot(ctx, tx, goal.ID, req.Amount); err != nil {
			return err
		}
		available, err := tx.AvailableBalance(ctx, account.ID)
		if err != nil {
			return err
		}
		if req.Amount.GreaterThan(available) {
			return insufficientBalance(available, account.Currency)
		}
		if err := tx.CreateTransaction(ctx, transfer); err != nil {
			return err
		}
		if err := tx.CreateDeposit(ctx, deposit); err != nil {
			return err
		}
		return tx.IncrementGoal(ctx, goal.ID, core.AmountToCents(req.Amount))
	})
	if err != nil {
		return nil, err
	}

	cache.InvalidateUser(s.cache, req.UserID)
	publishEvent(ctx, s.events, req.UserID, events.SavingsDeducted)
	return deposit, nil
}

// checkOvershoot re-reads the goal inside the write transaction and verifies
// the deposit fits. Checking against a goal loaded before the transaction
// opened would let two concurrent deposits both pass against the same stale
// current amount.
func checkOvershoot(ctx context.Context, tx *storage.Repository, goalID int64, amount decimal.Decimal) error {
	goal, err := tx.GetGoal(ctx, goalID)
	if err != nil {
		return err
	}
	if goal.CurrentAmount.Add(amount).GreaterThan(goal.TargetAmount) {
		return core.Validation(core.CodeGoalOvershoot, "deposit exceeds goal target").
			WithDetail("remaining", core.Round2(goal.Remaining()).StringFixed(2)).
			WithDetail("currency", goal.Currency)
	}
	return nil
}

// DeductedTotal sums every deposit that debited an account, reconciling the
// dashboard balance against per-account balances.
func (s *SavingsService) DeductedTotal(ctx context.Context, userID int64) (decimal.Decimal, error) {
	total, err := s.store.SumDeductedSavings(ctx, userID)
	if err != nil {
		return decimal.Zero, err
	}
	return core.Round2(total), nil
}

// resolveFundingAccount picks the account a deduct-from-balance deposit
// debits: explicit request, then the goal's default account, then the
// owner's default account.
func (s *SavingsService) resolveFundingAccount(ctx context.Context, goal *core.SavingsGoal, accountID *int64) (*core.Account, error) {
	switch {
	case accountID != nil:
		return s.ownedAccount(ctx, goal.UserID, *accountID)
	case goal.AccountID != nil:
		return s.ownedAccount(ctx, goal.UserID, *goal.AccountID)
	default:
		return s.store.DefaultAccount(ctx, goal.UserID)
	}
}

// savingsCategory finds the per-owner "Ahorros" category, creating it on
// first use if the user removed it.
func (s *SavingsService) savingsCategory(ctx context.Context, userID int64) (int64, error) {
	category, err := s.store.GetCategoryByName(ctx, userID, core.SavingsCategoryName)
	if err == nil {
		return category.ID, nil
	}
	var bizErr *core.Error
	if !errors.As(err, &bizErr) || bizErr.Kind != core.KindNotFound {
		return 0, err
	}

	created := &core.Category{
		UserID:    userID,
		Name:      core.SavingsCategoryName,
		Type:      core.CategoryExpense,
		Icon:      "piggy-bank",
		IsDefault: true,
	}
	if err := s.store.CreateCategory(ctx, created); err != nil {
		return 0, err
	}
	return created.ID, nil
}

func (s *SavingsService) ownedGoal(ctx context.Context, userID, id int64) (*core.SavingsGoal, error) {
	g, err := s.store.GetGoal(ctx, id)
	if err != nil {
		return nil, err
	}
	if g.UserID != userID {
		return nil, core.Forbidden("savings goal", id)
	}
	return g, nil
}

func (s *SavingsService) ownedAccount(ctx context.Context, userID, id int64) (*core.Account, error) {
	a, err := s.store.GetAccount(ctx, id)
	if err != nil {
		return nil, err
	}
	if a.UserID != userID {
		return nil, core.Forbidden("account", id)
	}
	return a, nil
}

func currencyMismatch(goalCurrency, accountCurrency string) *core.Error {
	return core.Validation(core.CodeCurrencyMismatch, "funding account currency does not match goal").
		WithDetail("goalCurrency", goalCurrency).
		WithDetail("accountCurrency", accountCurrency)
}
