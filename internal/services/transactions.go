package services

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"

	"dinero/internal/cache"
	"dinero/internal/core"
	"dinero/internal/events"
	"dinero/internal/storage"
)

// TransactionService owns ledger writes: create, amend and soft-delete, with
// the balance guard enforced on every debit.
type TransactionService struct {
	store   *storage.Repository
	balance *BalanceCalculator
	cache   cache.Store
	events  *events.Client
}

func NewTransactionService(store *storage.Repository, balance *BalanceCalculator, cacheStore cache.Store, eventsClient *events.Client) *TransactionService {
	return &TransactionService{
		store:   store,
		balance: balance,
		cache:   cacheStore,
		events:  eventsClient,
	}
}

// CreateTransactionRequest carries the create payload. AccountID nil falls
// back to the owner's default account (the transaction stays unassigned when
// there is none); CategoryID 0 triggers keyword auto-categorization.
type CreateTransactionRequest struct {
	UserID      int64
	AccountID   *int64
	CategoryID  int64
	Amount      decimal.Decimal
	Currency    string
	Type        core.TransactionType
	Description string
	Date        time.Time
	ReceiptURL  string
}

// UpdateTransactionRequest carries the amend payload. Nil fields keep the
// stored value.
type UpdateTransactionRequest struct {
	UserID      int64
	ID          int64
	AccountID   *int64
	CategoryID  *int64
	Amount      *decimal.Decimal
	Type        *core.TransactionType
	Description *string
	Date        *time.Time
	ReceiptURL  *string
}

func (s *TransactionService) Create(ctx context.Context, req CreateTransactionRequest) (*core.Transaction, error) {
	if !req.Type.Valid() {
		return nil, core.Validation(core.CodeInvalidInput, "unknown transaction type")
	}
	if err := core.ValidateAmount(req.Amount); err != nil {
		return nil, err
	}

	account, err := s.resolveAccount(ctx, req.UserID, req.AccountID)
	if err != nil {
		return nil, err
	}

	currency := req.Currency
	if account != nil {
		currency = account.Currency
	}
	if currency == "" {
		return nil, core.Validation(core.CodeInvalidInput, "currency required for unassigned transactions")
	}

	categoryID, err := s.resolveCategory(ctx, req.UserID, req.CategoryID, req.Type, req.Description)
	if err != nil {
		return nil, err
	}

	date := req.Date
	if date.IsZero() {
		date = time.Now().UTC()
	}

	t := &core.Transaction{
		UserID:      req.UserID,
		CategoryID:  categoryID,
		Amount:      req.Amount,
		Currency:    currency,
		Type:        req.Type,
		Description: req.Description,
		Date:        date,
		ReceiptURL:  req.ReceiptURL,
	}
	if account != nil {
		t.AccountID = &account.ID
	}
	if err := t.Validate(); err != nil {
		return nil, err
	}

	// The guard check and the insert share one database transaction so two
	// concurrent debits cannot both pass against the same balance.
	err = s.store.InTx(ctx, func(tx *storage.Repository) error {
		if account != nil && t.Type.Debits() {
			available, err := tx.AvailableBalance(ctx, account.ID)
			if err != nil {
				return err
			}
			if t.Amount.GreaterThan(available) {
				return insufficientBalance(available, account.Currency)
			}
		}
		return tx.CreateTransaction(ctx, t)
	})
	if err != nil {
		return nil, err
	}

	s.afterMutation(ctx, req.UserID, events.TransactionCreated)
	return t, nil
}

func (s *TransactionService) Update(ctx context.Context, req UpdateTransactionRequest) (*core.Transaction, error) {
	existing, err := s.ownedTransaction(ctx, req.UserID, req.ID)
	if err != nil {
		return nil, err
	}

	next := *existing
	if req.Type != nil {
		if !req.Type.Valid() {
			return nil, core.Validation(core.CodeInvalidInput, "unknown transaction type")
		}
		next.Type = *req.Type
	}
	if req.Amount != nil {
		if err := core.ValidateAmount(*req.Amount); err != nil {
			return nil, err
		}
		next.Amount = *req.Amount
	}
	if req.AccountID != nil {
		account, err := s.ownedAccount(ctx, req.UserID, *req.AccountID)
		if err != nil {
			return nil, err
		}
		next.AccountID = &account.ID
		next.Currency = account.Currency
	}
	if req.CategoryID != nil {
		if _, err := s.ownedCategory(ctx, req.UserID, *req.CategoryID); err != nil {
			return nil, err
		}
		next.CategoryID = *req.CategoryID
	}
	if req.Description != nil {
		next.Description = *req.Description
	}
	if req.Date != nil {
		next.Date = *req.Date
	}
	if req.ReceiptURL != nil {
		next.ReceiptURL = *req.ReceiptURL
	}
	if err := next.Validate(); err != nil {
		return nil, err
	}

	err = s.store.InTx(ctx, func(tx *storage.Repository) error {
		if next.AccountID != nil && next.Type.Debits() {
			available, err := tx.AvailableBalance(ctx, *next.AccountID)
			if err != nil {
				return err
			}
			// The stored row already debits this account, so add its amount
			// back before comparing: otherwise the edit would be counted
			// against itself.
			if existing.AccountID != nil && *existing.AccountID == *next.AccountID && existing.Type.Debits() {
				available = available.Add(existing.Amount)
			}
			if next.Amount.GreaterThan(available) {
				return insufficientBalance(available, next.Currency)
			}
		}
		return tx.UpdateTransaction(ctx, &next)
	})
	if err != nil {
		return nil, err
	}

	s.afterMutation(ctx, req.UserID, events.TransactionUpdated)
	return &next, nil
}

// Delete soft-deletes a transaction; aggregates drop it immediately.
func (s *TransactionService) Delete(ctx context.Context, userID, id int64) error {
	if _, err := s.ownedTransaction(ctx, userID, id); err != nil {
		return err
	}
	if err := s.store.SoftDeleteTransaction(ctx, id, time.Now().UTC()); err != nil {
		return err
	}
	s.afterMutation(ctx, userID, events.TransactionDeleted)
	return nil
}

func (s *TransactionService) Get(ctx context.Context, userID, id int64) (*core.Transaction, error) {
	return s.ownedTransaction(ctx, userID, id)
}

func (s *TransactionService) List(ctx context.Context, userID int64, f storage.TransactionFilter) ([]core.Transaction, error) {
	return s.store.ListTransactions(ctx, userID, f)
}

// resolveAccount loads the explicit account (with ownership check) or the
// owner's default. No default means the transaction stays unassigned.
func (s *TransactionService) resolveAccount(ctx context.Context, userID int64, accountID *int64) (*core.Account, error) {
	if accountID != nil {
		return s.ownedAccount(ctx, userID, *accountID)
	}
	account, err := s.store.DefaultAccount(ctx, userID)
	if err != nil {
		var bizErr *core.Error
		if errors.As(err, &bizErr) && bizErr.Code == core.CodeNoAccount {
			return nil, nil
		}
		return nil, err
	}
	return account, nil
}

// resolveCategory returns the explicit category (with ownership check) or
// auto-categorizes from the description, falling back to the "Otros" category
// and then to the first category of the matching type.
func (s *TransactionService) resolveCategory(ctx context.Context, userID, categoryID int64, typ core.TransactionType, description string) (int64, error) {
	if categoryID != 0 {
		c, err := s.ownedCategory(ctx, userID, categoryID)
		if err != nil {
			return 0, err
		}
		return c.ID, nil
	}

	categoryType := core.CategoryExpense
	if typ == core.Income {
		categoryType = core.CategoryIncome
	}
	categories, err := s.store.ListCategories(ctx, userID, categoryType)
	if err != nil {
		return 0, err
	}
	if matched := MatchCategory(description, categories); matched != nil {
		return matched.ID, nil
	}
	for _, c := range categories {
		if c.Name == core.FallbackCategoryName {
			return c.ID, nil
		}
	}
	if len(categories) > 0 {
		return categories[0].ID, nil
	}
	return 0, core.Validation(core.CodeNoCategory, "no category available for transaction")
}

func (s *TransactionService) ownedTransaction(ctx context.Context, userID, id int64) (*core.Transaction, error) {
	t, err := s.store.GetTransaction(ctx, id)
	if err != nil {
		return nil, err
	}
	if t.UserID != userID {
		return nil, core.Forbidden("transaction", id)
	}
	return t, nil
}

func (s *TransactionService) ownedAccount(ctx context.Context, userID, id int64) (*core.Account, error) {
	a, err := s.store.GetAccount(ctx, id)
	if err != nil {
		return nil, err
	}
	if a.UserID != userID {
		return nil, core.Forbidden("account", id)
	}
	return a, nil
}

func (s *TransactionService) ownedCategory(ctx context.Context, userID, id int64) (*core.Category, error) {
	c, err := s.store.GetCategory(ctx, id)
	if err != nil {
		return nil, err
	}
	if c.UserID != userID {
		return nil, core.Forbidden("category", id)
	}
	return c, nil
}

func (s *TransactionService) afterMutation(ctx context.Context, userID int64, kind string) {
	cache.InvalidateUser(s.cache, userID)
	publishEvent(ctx, s.events, userID, kind)
}

func insufficientBalance(available decimal.Decimal, currency string) *core.Error {
	return core.Validation(core.CodeInsufficientBalance, "amount exceeds available balance").
		WithDetail("available", core.Round2(available).StringFixed(2)).
		WithDetail("currency", currency)
}

// publishEvent is nil-safe and best-effort: a missing or failing broker only
// logs.
func publishEvent(ctx context.Context, client *events.Client, userID int64, kind string) {
	if client == nil {
		return
	}
	if err := client.PublishLedgerEvent(ctx, userID, kind); err != nil {
		slog.ErrorContext(ctx, "Failed to publish ledger event",
			"user_id", userID, "kind", kind, "error", err)
	}
}
