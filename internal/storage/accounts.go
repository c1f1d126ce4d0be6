package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"dinero/internal/core"
)

func scanAccount(row interface{ Scan(...any) error }) (*core.Account, error) {
	var a core.Account
	err := row.Scan(&a.ID, &a.UserID, &a.Name, &a.Currency, &a.Color, &a.Icon,
		&a.IsDefault, &a.SortOrder, &a.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &a, nil
}

const accountColumns = `id, user_id, name, currency, color, icon, is_default, sort_order, created_at`

func (r *Repository) CreateAccount(ctx context.Context, a *core.Account) error {
	err := r.db.QueryRowContext(ctx, `
		INSERT INTO accounts (user_id, name, currency, color, icon, is_default, sort_order)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		RETURNING id, created_at`,
		a.UserID, a.Name, a.Currency, a.Color, a.Icon, a.IsDefault, a.SortOrder,
	).Scan(&a.ID, &a.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert account: %w", err)
	}
	return nil
}

func (r *Repository) GetAccount(ctx context.Context, id int64) (*core.Account, error) {
	a, err := scanAccount(r.db.QueryRowContext(ctx,
		`SELECT `+accountColumns+` FROM accounts WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, core.NotFound("account", id)
	}
	if err != nil {
		return nil, fmt.Errorf("get account: %w", err)
	}
	return a, nil
}

func (r *Repository) ListAccounts(ctx context.Context, userID int64) ([]core.Account, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+accountColumns+` FROM accounts WHERE user_id = ? ORDER BY sort_order, id`, userID)
	if err != nil {
		return nil, fmt.Errorf("list accounts: %w", err)
	}
	defer rows.Close()

	var accounts []core.Account
	for rows.Next() {
		a, err := scanAccount(rows)
		if err != nil {
			return nil, fmt.Errorf("scan account: %w", err)
		}
		accounts = append(accounts, *a)
	}
	return accounts, rows.Err()
}

// DefaultAccount returns the user's default account, or a NOT_FOUND error
// when the user has none.
func (r *Repository) DefaultAccount(ctx context.Context, userID int64) (*core.Account, error) {
	a, err := scanAccount(r.db.QueryRowContext(ctx,
		`SELECT `+accountColumns+` FROM accounts WHERE user_id = ? AND is_default = 1`, userID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, core.Validation(core.CodeNoAccount, "no default account configured")
	}
	if err != nil {
		return nil, fmt.Errorf("get default account: %w", err)
	}
	return a, nil
}

// UpdateAccount persists mutable account fields. Currency is immutable after
// creation: it is deliberately absent from the SET list.
func (r *Repository) UpdateAccount(ctx context.Context, a *core.Account) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE accounts SET name = ?, color = ?, icon = ?, is_default = ?, sort_order = ?
		WHERE id = ?`,
		a.Name, a.Color, a.Icon, a.IsDefault, a.SortOrder, a.ID)
	if err != nil {
		return fmt.Errorf("update account: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return core.NotFound("account", a.ID)
	}
	return nil
}

// SetDefaultAccount makes id the user's sole default.
func (r *Repository) SetDefaultAccount(ctx context.Context, userID, id int64) error {
	return r.InTx(ctx, func(tx *Repository) error {
		if _, err := tx.db.ExecContext(ctx,
			`UPDATE accounts SET is_default = 0 WHERE user_id = ? AND id != ?`, userID, id); err != nil {
			return fmt.Errorf("clear default accounts: %w", err)
		}
		res, err := tx.db.ExecContext(ctx,
			`UPDATE accounts SET is_default = 1 WHERE user_id = ? AND id = ?`, userID, id)
		if err != nil {
			return fmt.Errorf("set default account: %w", err)
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return core.NotFound("account", id)
		}
		return nil
	})
}

// DeleteAccount removes an account row. Soft-deleted transactions and goal
// funding references clear to NULL via the schema's ON DELETE SET NULL; the
// service layer blocks deletion while non-deleted transactions remain.
func (r *Repository) DeleteAccount(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM accounts WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete account: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return core.NotFound("account", id)
	}
	return nil
}

// ReorderAccounts rewrites sort_order following the given id order.
func (r *Repository) ReorderAccounts(ctx context.Context, userID int64, ids []int64) error {
	return r.InTx(ctx, func(tx *Repository) error {
		for i, id := range ids {
			res, err := tx.db.ExecContext(ctx,
				`UPDATE accounts SET sort_order = ? WHERE user_id = ? AND id = ?`, i, userID, id)
			if err != nil {
				return fmt.Errorf("reorder account %d: %w", id, err)
			}
			if n, _ := res.RowsAffected(); n == 0 {
				return core.NotFound("account", id)
			}
		}
		return nil
	})
}
