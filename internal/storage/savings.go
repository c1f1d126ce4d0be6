package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"dinero/internal/core"
)

const goalColumns = `id, user_id, name, target_amount_cents, current_amount_cents, currency,
	deadline, deduct_from_balance, account_id, created_at`

func scanGoal(row interface{ Scan(...any) error }) (*core.SavingsGoal, error) {
	var (
		g         core.SavingsGoal
		target    int64
		current   int64
		deadline  sql.NullTime
		accountID sql.NullInt64
	)
	err := row.Scan(&g.ID, &g.UserID, &g.Name, &target, &current, &g.Currency,
		&deadline, &g.DeductFromBalance, &accountID, &g.CreatedAt)
	if err != nil {
		return nil, err
	}
	g.TargetAmount = core.CentsToAmount(target)
	g.CurrentAmount = core.CentsToAmount(current)
	if deadline.Valid {
		g.Deadline = &deadline.Time
	}
	if accountID.Valid {
		g.AccountID = &accountID.Int64
	}
	return &g, nil
}

func (r *Repository) CreateGoal(ctx context.Context, g *core.SavingsGoal) error {
	var deadline any
	if g.Deadline != nil {
		deadline = *g.Deadline
	}
	err := r.db.QueryRowContext(ctx, `
		INSERT INTO savings_goals
			(user_id, name, target_amount_cents, current_amount_cents, currency,
			 deadline, deduct_from_balance, account_id)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		RETURNING id, created_at`,
		g.UserID, g.Name, core.AmountToCents(g.TargetAmount), core.AmountToCents(g.CurrentAmount),
		g.Currency, deadline, g.DeductFromBalance, nullableID(g.AccountID),
	).Scan(&g.ID, &g.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert savings goal: %w", err)
	}
	return nil
}

func (r *Repository) GetGoal(ctx context.Context, id int64) (*core.SavingsGoal, error) {
	g, err := scanGoal(r.db.QueryRowContext(ctx,
		`SELECT `+goalColumns+` FROM savings_goals WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, core.NotFound("savings goal", id)
	}
	if err != nil {
		return nil, fmt.Errorf("get savings goal: %w", err)
	}
	return g, nil
}

func (r *Repository) ListGoals(ctx context.Context, userID int64) ([]core.SavingsGoal, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+goalColumns+` FROM savings_goals WHERE user_id = ? ORDER BY id`, userID)
	if err != nil {
		return nil, fmt.Errorf("list savings goals: %w", err)
	}
	defer rows.Close()

	var goals []core.SavingsGoal
	for rows.Next() {
		g, err := scanGoal(rows)
		if err != nil {
			return nil, fmt.Errorf("scan savings goal: %w", err)
		}
		goals = append(goals, *g)
	}
	return goals, rows.Err()
}

func (r *Repository) UpdateGoal(ctx context.Context, g *core.SavingsGoal) error {
	var deadline any
	if g.Deadline != nil {
		deadline = *g.Deadline
	}
	res, err := r.db.ExecContext(ctx, `
		UPDATE savings_goals
		SET name = ?, target_amount_cents = ?, deadline = ?, deduct_from_balance = ?, account_id = ?
		WHERE id = ?`,
		g.Name, core.AmountToCents(g.TargetAmount), deadline,
		g.DeductFromBalance, nullableID(g.AccountID), g.ID)
	if err != nil {
		return fmt.Errorf("update savings goal: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return core.NotFound("savings goal", g.ID)
	}
	return nil
}

// DeleteGoal removes a goal unconditionally; deposits cascade.
func (r *Repository) DeleteGoal(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM savings_goals WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete savings goal: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return core.NotFound("savings goal", id)
	}
	return nil
}

func (r *Repository) CreateDeposit(ctx context.Context, d *core.SavingsDeposit) error {
	err := r.db.QueryRowContext(ctx, `
		INSERT INTO savings_deposits (goal_id, amount_cents, currency, note, account_id, deposit_date)
		VALUES (?, ?, ?, ?, ?, ?)
		RETURNING id`,
		d.GoalID, core.AmountToCents(d.Amount), d.Currency, d.Note,
		nullableID(d.AccountID), d.Date,
	).Scan(&d.ID)
	if err != nil {
		return fmt.Errorf("insert savings deposit: %w", err)
	}
	return nil
}

func (r *Repository) ListDeposits(ctx context.Context, goalID int64) ([]core.SavingsDeposit, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, goal_id, amount_cents, currency, note, account_id, deposit_date
		FROM savings_deposits WHERE goal_id = ? ORDER BY deposit_date DESC, id DESC`, goalID)
	if err != nil {
		return nil, fmt.Errorf("list savings deposits: %w", err)
	}
	defer rows.Close()

	var deposits []core.SavingsDeposit
	for rows.Next() {
		var (
			d         core.SavingsDeposit
			cents     int64
			accountID sql.NullInt64
		)
		if err := rows.Scan(&d.ID, &d.GoalID, &cents, &d.Currency, &d.Note, &accountID, &d.Date); err != nil {
			return nil, fmt.Errorf("scan savings deposit: %w", err)
		}
		d.Amount = core.CentsToAmount(cents)
		if accountID.Valid {
			d.AccountID = &accountID.Int64
		}
		deposits = append(deposits, d)
	}
	return deposits, rows.Err()
}

// IncrementGoal adds cents to current_amount_cents atomically.
func (r *Repository) IncrementGoal(ctx context.Context, id int64, cents int64) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE savings_goals SET current_amount_cents = current_amount_cents + ? WHERE id = ?`,
		cents, id)
	if err != nil {
		return fmt.Errorf("increment savings goal: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return core.NotFound("savings goal", id)
	}
	return nil
}
