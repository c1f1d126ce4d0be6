package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"dinero/internal/core"
)

const recurringColumns = `id, user_id, category_id, amount_cents, currency, description,
	frequency, next_execution, is_active, created_at`

func scanRecurring(row interface{ Scan(...any) error }) (*core.RecurringTemplate, error) {
	var r core.RecurringTemplate
	var cents int64
	err := row.Scan(&r.ID, &r.UserID, &r.CategoryID, &cents, &r.Currency,
		&r.Description, &r.Frequency, &r.NextExecution, &r.IsActive, &r.CreatedAt)
	if err != nil {
		return nil, err
	}
	r.Amount = core.CentsToAmount(cents)
	return &r, nil
}

func (r *Repository) CreateRecurring(ctx context.Context, t *core.RecurringTemplate) error {
	err := r.db.QueryRowContext(ctx, `
		INSERT INTO recurring_transactions
			(user_id, category_id, amount_cents, currency, description, frequency, next_execution, is_active)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		RETURNING id, created_at`,
		t.UserID, t.CategoryID, core.AmountToCents(t.Amount), t.Currency,
		t.Description, t.Frequency, t.NextExecution, t.IsActive,
	).Scan(&t.ID, &t.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert recurring template: %w", err)
	}
	return nil
}

func (r *Repository) GetRecurring(ctx context.Context, id int64) (*core.RecurringTemplate, error) {
	t, err := scanRecurring(r.db.QueryRowContext(ctx,
		`SELECT `+recurringColumns+` FROM recurring_transactions WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, core.NotFound("recurring template", id)
	}
	if err != nil {
		return nil, fmt.Errorf("get recurring template: %w", err)
	}
	return t, nil
}

func (r *Repository) ListRecurring(ctx context.Context, userID int64) ([]core.RecurringTemplate, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+recurringColumns+` FROM recurring_transactions WHERE user_id = ? ORDER BY next_execution`,
		userID)
	if err != nil {
		return nil, fmt.Errorf("list recurring templates: %w", err)
	}
	defer rows.Close()

	var templates []core.RecurringTemplate
	for rows.Next() {
		t, err := scanRecurring(rows)
		if err != nil {
			return nil, fmt.Errorf("scan recurring template: %w", err)
		}
		templates = append(templates, *t)
	}
	return templates, rows.Err()
}

// DueRecurring selects active templates whose next execution is at or before
// now, oldest first.
func (r *Repository) DueRecurring(ctx context.Context, now time.Time) ([]core.RecurringTemplate, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+recurringColumns+` FROM recurring_transactions
		 WHERE is_active = 1 AND next_execution <= ?
		 ORDER BY next_execution`, now)
	if err != nil {
		return nil, fmt.Errorf("select due templates: %w", err)
	}
	defer rows.Close()

	var due []core.RecurringTemplate
	for rows.Next() {
		t, err := scanRecurring(rows)
		if err != nil {
			return nil, fmt.Errorf("scan due template: %w", err)
		}
		due = append(due, *t)
	}
	return due, rows.Err()
}

func (r *Repository) UpdateRecurring(ctx context.Context, t *core.RecurringTemplate) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE recurring_transactions
		SET category_id = ?, amount_cents = ?, currency = ?, description = ?,
		    frequency = ?, next_execution = ?, is_active = ?
		WHERE id = ?`,
		t.CategoryID, core.AmountToCents(t.Amount), t.Currency, t.Description,
		t.Frequency, t.NextExecution, t.IsActive, t.ID)
	if err != nil {
		return fmt.Errorf("update recurring template: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return core.NotFound("recurring template", t.ID)
	}
	return nil
}

func (r *Repository) SetRecurringActive(ctx context.Context, id int64, active bool) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE recurring_transactions SET is_active = ? WHERE id = ?`, active, id)
	if err != nil {
		return fmt.Errorf("toggle recurring template: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return core.NotFound("recurring template", id)
	}
	return nil
}

func (r *Repository) DeleteRecurring(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM recurring_transactions WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete recurring template: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return core.NotFound("recurring template", id)
	}
	return nil
}

// ExecuteRecurring materializes one due template: it inserts the ledger
// transaction and advances next_execution in a single database transaction.
// Both commit or neither does.
func (r *Repository) ExecuteRecurring(ctx context.Context, t *core.Transaction, templateID int64, next time.Time) error {
	return r.InTx(ctx, func(tx *Repository) error {
		if err := tx.CreateTransaction(ctx, t); err != nil {
			return err
		}
		res, err := tx.db.ExecContext(ctx,
			`UPDATE recurring_transactions SET next_execution = ? WHERE id = ?`, next, templateID)
		if err != nil {
			return fmt.Errorf("advance schedule: %w", err)
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return core.NotFound("recurring template", templateID)
		}
		return nil
	})
}
