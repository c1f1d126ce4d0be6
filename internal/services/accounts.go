package services

import (
	"context"

	"dinero/internal/cache"
	"dinero/internal/core"
	"dinero/internal/events"
	"dinero/internal/storage"
)

// AccountService manages currency-tagged accounts. Exactly one account per
// user carries the default flag; account currency never changes after
// creation.
type AccountService struct {
	store   *storage.Repository
	balance *BalanceCalculator
	cache   cache.Store
	events  *events.Client
}

func NewAccountService(store *storage.Repository, balance *BalanceCalculator, cacheStore cache.Store, eventsClient *events.Client) *AccountService {
	return &AccountService{store: store, balance: balance, cache: cacheStore, events: eventsClient}
}

// afterMutation keeps other API processes coherent: local sweep plus a
// ledger event so remote caches invalidate too.
func (s *AccountService) afterMutation(ctx context.Context, userID int64) {
	cache.InvalidateUser(s.cache, userID)
	publishEvent(ctx, s.events, userID, events.AccountChanged)
}

type CreateAccountRequest struct {
	UserID    int64
	Name      string
	Currency  string
	Color     string
	Icon      string
	IsDefault bool
	SortOrder int
}

type UpdateAccountRequest struct {
	UserID    int64
	ID        int64
	Name      *string
	Color     *string
	Icon      *string
	IsDefault *bool
	SortOrder *int
}

func (s *AccountService) Create(ctx context.Context, req CreateAccountRequest) (*core.Account, error) {
	account := &core.Account{
		UserID:    req.UserID,
		Name:      req.Name,
		Currency:  req.Currency,
		Color:     req.Color,
		Icon:      req.Icon,
		IsDefault: req.IsDefault,
		SortOrder: req.SortOrder,
	}
	if err := account.Validate(); err != nil {
		return nil, err
	}

	existing, err := s.store.ListAccounts(ctx, req.UserID)
	if err != nil {
		return nil, err
	}
	// The first account is always the default.
	if len(existing) == 0 {
		account.IsDefault = true
	}

	if err := s.store.CreateAccount(ctx, account); err != nil {
		return nil, err
	}
	if account.IsDefault && len(existing) > 0 {
		if err := s.store.SetDefaultAccount(ctx, req.UserID, account.ID); err != nil {
			return nil, err
		}
	}

	s.afterMutation(ctx, req.UserID)
	return account, nil
}

func (s *AccountService) Update(ctx context.Context, req UpdateAccountRequest) (*core.Account, error) {
	account, err := s.owned(ctx, req.UserID, req.ID)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		account.Name = *req.Name
	}
	if req.Color != nil {
		account.Color = *req.Color
	}
	if req.Icon != nil {
		account.Icon = *req.Icon
	}
	if req.SortOrder != nil {
		account.SortOrder = *req.SortOrder
	}
	if err := account.Validate(); err != nil {
		return nil, err
	}
	if err := s.store.UpdateAccount(ctx, account); err != nil {
		return nil, err
	}

	// Promoting to default demotes the previous one. Demoting the current
	// default directly is not supported; pick a new default instead.
	if req.IsDefault != nil && *req.IsDefault && !account.IsDefault {
		if err := s.store.SetDefaultAccount(ctx, req.UserID, account.ID); err != nil {
			return nil, err
		}
		account.IsDefault = true
	}

	s.afterMutation(ctx, req.UserID)
	return account, nil
}

// Delete refuses to remove the default account or any account that still has
// non-deleted transactions.
func (s *AccountService) Delete(ctx context.Context, userID, id int64) error {
	account, err := s.owned(ctx, userID, id)
	if err != nil {
		return err
	}
	if account.IsDefault {
		return core.Validation(core.CodeDefaultAccountDelete, "cannot delete the default account")
	}
	count, err := s.store.CountByAccount(ctx, id)
	if err != nil {
		return err
	}
	if count > 0 {
		return core.Validation(core.CodeAccountHasTransactions,
			"account still has transactions").
			WithDetail("transactionCount", count)
	}

	if err := s.store.DeleteAccount(ctx, id); err != nil {
		return err
	}
	s.afterMutation(ctx, userID)
	return nil
}

func (s *AccountService) Reorder(ctx context.Context, userID int64, ids []int64) error {
	for _, id := range ids {
		if _, err := s.owned(ctx, userID, id); err != nil {
			return err
		}
	}
	if err := s.store.ReorderAccounts(ctx, userID, ids); err != nil {
		return err
	}
	s.afterMutation(ctx, userID)
	return nil
}

func (s *AccountService) List(ctx context.Context, userID int64) ([]core.Account, error) {
	return s.store.ListAccounts(ctx, userID)
}

func (s *AccountService) Get(ctx context.Context, userID, id int64) (*core.Account, error) {
	return s.owned(ctx, userID, id)
}

// GetBalance returns the full balance statistics for one account.
func (s *AccountService) GetBalance(ctx context.Context, userID, id int64) (core.BalanceStats, error) {
	account, err := s.owned(ctx, userID, id)
	if err != nil {
		return core.BalanceStats{}, err
	}
	return s.balance.ComputeBalance(ctx, *account)
}

// AvailableForGoal lists the accounts matching a goal's currency, each
// annotated with its current available balance, for the deposit funding
// picker.
func (s *AccountService) AvailableForGoal(ctx context.Context, userID int64, goal *core.SavingsGoal) ([]core.AccountOption, error) {
	accounts, err := s.store.ListAccounts(ctx, userID)
	if err != nil {
		return nil, err
	}
	options := make([]core.AccountOption, 0, len(accounts))
	for _, a := range accounts {
		if a.Currency != goal.Currency {
			continue
		}
		available, err := s.balance.AvailableBalance(ctx, a.ID)
		if err != nil {
			return nil, err
		}
		options = append(options, core.AccountOption{
			Account:   a,
			Available: core.Round2(available),
		})
	}
	return options, nil
}

func (s *AccountService) owned(ctx context.Context, userID, id int64) (*core.Account, error) {
	a, err := s.store.GetAccount(ctx, id)
	if err != nil {
		return nil, err
	}
	if a.UserID != userID {
		return nil, core.Forbidden("account", id)
	}
	return a, nil
}
