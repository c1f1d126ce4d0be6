package services

import (
	"context"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"

	"dinero/internal/cache"
	"dinero/internal/core"
	"dinero/internal/events"
	"dinero/internal/storage"
)

// RecurringService manages recurring templates and the daily sweep that
// materializes due ones into ledger transactions.
type RecurringService struct {
	store  *storage.Repository
	cache  cache.Store
	events *events.Client
}

func NewRecurringService(store *storage.Repository, cacheStore cache.Store, eventsClient *events.Client) *RecurringService {
	return &RecurringService{store: store, cache: cacheStore, events: eventsClient}
}

type CreateRecurringRequest struct {
	UserID        int64
	CategoryID    int64
	Amount        decimal.Decimal
	Currency      string
	Description   string
	Frequency     core.Frequency
	NextExecution time.Time
}

func (s *RecurringService) Create(ctx context.Context, req CreateRecurringRequest) (*core.RecurringTemplate, error) {
	template := &core.RecurringTemplate{
		UserID:        req.UserID,
		CategoryID:    req.CategoryID,
		Amount:        req.Amount,
		Currency:      req.Currency,
		Description:   req.Description,
		Frequency:     req.Frequency,
		NextExecution: req.NextExecution,
		IsActive:      true,
	}
	if err := template.Validate(); err != nil {
		return nil, err
	}
	if _, err := s.ownedCategory(ctx, req.UserID, req.CategoryID); err != nil {
		return nil, err
	}
	if err := s.store.CreateRecurring(ctx, template); err != nil {
		return nil, err
	}
	return template, nil
}

type UpdateRecurringRequest struct {
	UserID        int64
	ID            int64
	CategoryID    *int64
	Amount        *decimal.Decimal
	Currency      *string
	Description   *string
	Frequency     *core.Frequency
	NextExecution *time.Time
}

func (s *RecurringService) Update(ctx context.Context, req UpdateRecurringRequest) (*core.RecurringTemplate, error) {
	template, err := s.owned(ctx, req.UserID, req.ID)
	if err != nil {
		return nil, err
	}

	if req.CategoryID != nil {
		if _, err := s.ownedCategory(ctx, req.UserID, *req.CategoryID); err != nil {
			return nil, err
		}
		template.CategoryID = *req.CategoryID
	}
	if req.Amount != nil {
		template.Amount = *req.Amount
	}
	if req.Currency != nil {
		template.Currency = *req.Currency
	}
	if req.Description != nil {
		template.Description = *req.Description
	}
	if req.Frequency != nil {
		template.Frequency = *req.Frequency
	}
	if req.NextExecution != nil {
		template.NextExecution = *req.NextExecution
	}

	if err := template.Validate(); err != nil {
		return nil, err
	}
	if err := s.store.UpdateRecurring(ctx, template); err != nil {
		return nil, err
	}
	return template, nil
}

// SetActive pauses or resumes a template. Templates are never auto-deleted.
func (s *RecurringService) SetActive(ctx context.Context, userID, id int64, active bool) error {
	if _, err := s.owned(ctx, userID, id); err != nil {
		return err
	}
	return s.store.SetRecurringActive(ctx, id, active)
}

func (s *RecurringService) Delete(ctx context.Context, userID, id int64) error {
	if _, err := s.owned(ctx, userID, id); err != nil {
		return err
	}
	return s.store.DeleteRecurring(ctx, id)
}

func (s *RecurringService) List(ctx context.Context, userID int64) ([]core.RecurringTemplate, error) {
	return s.store.ListRecurring(ctx, userID)
}

func (s *RecurringService) Get(ctx context.Context, userID, id int64) (*core.RecurringTemplate, error) {
	return s.owned(ctx, userID, id)
}

// ProcessDue materializes every active template due at now. Items are
// processed independently: one failure is counted and the sweep moves on.
func (s *RecurringService) ProcessDue(ctx context.Context, now time.Time) (core.SweepResult, error) {
	due, err := s.store.DueRecurring(ctx, now)
	if err != nil {
		return core.SweepResult{}, err
	}

	slog.InfoContext(ctx, "Processing due recurring templates",
		"total_due", len(due),
		"processing_date", now.Format("2006-01-02"))

	result := core.SweepResult{Total: len(due)}
	for _, template := range due {
		if err := s.processOne(ctx, template, now); err != nil {
			slog.ErrorContext(ctx, "Failed to process recurring template",
				"template_id", template.ID,
				"user_id", template.UserID,
				"error", err)
			result.Errors++
			continue
		}
		result.Processed++
	}

	slog.InfoContext(ctx, "Recurring sweep complete",
		"processed", result.Processed,
		"errors", result.Errors,
		"total", result.Total)
	return result, nil
}

func (s *RecurringService) processOne(ctx context.Context, template core.RecurringTemplate, now time.Time) error {
	// A deleted category degrades to EXPENSE rather than failing the item.
	txType := core.Expense
	category, err := s.store.GetCategory(ctx, template.CategoryID)
	switch {
	case err == nil:
		txType = category.Type.TransactionType()
	case core.KindOf(err) != core.KindNotFound:
		return err
	}

	account, err := s.store.DefaultAccount(ctx, template.UserID)
	if err != nil {
		return err
	}

	transaction := &core.Transaction{
		UserID:      template.UserID,
		AccountID:   &account.ID,
		CategoryID:  template.CategoryID,
		Amount:      template.Amount,
		Currency:    template.Currency,
		Type:        txType,
		Description: template.Description,
		Date:        now,
		IsRecurring: true,
		RecurringID: &template.ID,
	}

	// Advance from the previous schedule point, not from now, so a delayed
	// sweep does not drift the cadence.
	next := template.Frequency.Next(template.NextExecution)
	if err := s.store.ExecuteRecurring(ctx, transaction, template.ID, next); err != nil {
		return err
	}

	cache.InvalidateUser(s.cache, template.UserID)
	publishEvent(ctx, s.events, template.UserID, events.RecurringExecuted)
	return nil
}

func (s *RecurringService) owned(ctx context.Context, userID, id int64) (*core.RecurringTemplate, error) {
	t, err := s.store.GetRecurring(ctx, id)
	if err != nil {
		return nil, err
	}
	if t.UserID != userID {
		return nil, core.Forbidden("recurring template", id)
	}
	return t, nil
}

func (s *RecurringService) ownedCategory(ctx context.Context, userID, id int64) (*core.Category, error) {
	c, err := s.store.GetCategory(ctx, id)
	if err != nil {
		return nil, err
	}
	if c.UserID != userID {
		return nil, core.Forbidden("category", id)
	}
	return c, nil
}
