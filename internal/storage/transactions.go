package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"dinero/internal/core"
)

const transactionColumns = `id, user_id, account_id, category_id, amount_cents, currency, type,
	description, transaction_date, receipt_url, is_recurring, recurring_id, deleted_at, created_at`

func scanTransaction(row interface{ Scan(...any) error }) (*core.Transaction, error) {
	var (
		t           core.Transaction
		cents       int64
		accountID   sql.NullInt64
		recurringID sql.NullInt64
		deletedAt   sql.NullTime
	)
	err := row.Scan(&t.ID, &t.UserID, &accountID, &t.CategoryID, &cents, &t.Currency,
		&t.Type, &t.Description, &t.Date, &t.ReceiptURL, &t.IsRecurring,
		&recurringID, &deletedAt, &t.CreatedAt)
	if err != nil {
		return nil, err
	}
	t.Amount = core.CentsToAmount(cents)
	if accountID.Valid {
		t.AccountID = &accountID.Int64
	}
	if recurringID.Valid {
		t.RecurringID = &recurringID.Int64
	}
	if deletedAt.Valid {
		t.DeletedAt = &deletedAt.Time
	}
	return &t, nil
}

func (r *Repository) CreateTransaction(ctx context.Context, t *core.Transaction) error {
	err := r.db.QueryRowContext(ctx, `
		INSERT INTO transactions
			(user_id, account_id, category_id, amount_cents, currency, type,
			 description, transaction_date, receipt_url, is_recurring, recurring_id)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		RETURNING id, created_at`,
		t.UserID, nullableID(t.AccountID), t.CategoryID, core.AmountToCents(t.Amount),
		t.Currency, t.Type, t.Description, t.Date, t.ReceiptURL, t.IsRecurring,
		nullableID(t.RecurringID),
	).Scan(&t.ID, &t.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert transaction: %w", err)
	}
	return nil
}

func (r *Repository) GetTransaction(ctx context.Context, id int64) (*core.Transaction, error) {
	t, err := scanTransaction(r.db.QueryRowContext(ctx,
		`SELECT `+transactionColumns+` FROM transactions WHERE id = ? AND deleted_at IS NULL`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, core.NotFound("transaction", id)
	}
	if err != nil {
		return nil, fmt.Errorf("get transaction: %w", err)
	}
	return t, nil
}

func (r *Repository) UpdateTransaction(ctx context.Context, t *core.Transaction) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE transactions
		SET account_id = ?, category_id = ?, amount_cents = ?, currency = ?, type = ?,
		    description = ?, transaction_date = ?, receipt_url = ?
		WHERE id = ? AND deleted_at IS NULL`,
		nullableID(t.AccountID), t.CategoryID, core.AmountToCents(t.Amount), t.Currency,
		t.Type, t.Description, t.Date, t.ReceiptURL, t.ID)
	if err != nil {
		return fmt.Errorf("update transaction: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return core.NotFound("transaction", t.ID)
	}
	return nil
}

// SoftDeleteTransaction stamps deleted_at; the row stays for audit but drops
// out of every aggregate.
func (r *Repository) SoftDeleteTransaction(ctx context.Context, id int64, at time.Time) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE transactions SET deleted_at = ? WHERE id = ? AND deleted_at IS NULL`, at, id)
	if err != nil {
		return fmt.Errorf("soft delete transaction: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return core.NotFound("transaction", id)
	}
	return nil
}

// TransactionFilter narrows ListTransactions. Zero values mean "no filter".
type TransactionFilter struct {
	AccountID  int64
	CategoryID int64
	Type       core.TransactionType
	Start      time.Time
	End        time.Time
	Limit      int
}

func (r *Repository) ListTransactions(ctx context.Context, userID int64, f TransactionFilter) ([]core.Transaction, error) {
	query := `SELECT ` + transactionColumns + ` FROM transactions WHERE user_id = ? AND deleted_at IS NULL`
	args := []any{userID}

	if f.AccountID != 0 {
		query += ` AND account_id = ?`
		args = append(args, f.AccountID)
	}
	if f.CategoryID != 0 {
		query += ` AND category_id = ?`
		args = append(args, f.CategoryID)
	}
	if f.Type != "" {
		query += ` AND type = ?`
		args = append(args, f.Type)
	}
	if !f.Start.IsZero() {
		query += ` AND transaction_date >= ?`
		args = append(args, f.Start)
	}
	if !f.End.IsZero() {
		query += ` AND transaction_date < ?`
		args = append(args, f.End)
	}
	query += ` ORDER BY transaction_date DESC, id DESC`
	if f.Limit > 0 {
		query += ` LIMIT ?`
		args = append(args, f.Limit)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	defer rows.Close()

	var transactions []core.Transaction
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}
		transactions = append(transactions, *t)
	}
	return transactions, rows.Err()
}

// SumByType returns per-type sums over an account's non-deleted transactions.
// A zero since means all-time; otherwise only rows dated since or later count.
// Missing types map to zero.
func (r *Repository) SumByType(ctx context.Context, accountID int64, since time.Time) (map[core.TransactionType]decimal.Decimal, error) {
	query := `
		SELECT type, COALESCE(SUM(amount_cents), 0)
		FROM transactions
		WHERE account_id = ? AND deleted_at IS NULL`
	args := []any{accountID}
	if !since.IsZero() {
		query += ` AND transaction_date >= ?`
		args = append(args, since)
	}
	query += ` GROUP BY type`

	return r.sumByType(ctx, query, args...)
}

// SumByTypeForUser is SumByType over every transaction of a user, including
// unassigned ones. Backs the all-accounts dashboard and reports.
func (r *Repository) SumByTypeForUser(ctx context.Context, userID int64, start, end time.Time) (map[core.TransactionType]decimal.Decimal, error) {
	query := `
		SELECT type, COALESCE(SUM(amount_cents), 0)
		FROM transactions
		WHERE user_id = ? AND deleted_at IS NULL`
	args := []any{userID}
	if !start.IsZero() {
		query += ` AND transaction_date >= ?`
		args = append(args, start)
	}
	if !end.IsZero() {
		query += ` AND transaction_date < ?`
		args = append(args, end)
	}
	query += ` GROUP BY type`

	return r.sumByType(ctx, query, args...)
}

func (r *Repository) sumByType(ctx context.Context, query string, args ...any) (map[core.TransactionType]decimal.Decimal, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("sum by type: %w", err)
	}
	defer rows.Close()

	sums := map[core.TransactionType]decimal.Decimal{
		core.Income:            decimal.Zero,
		core.Expense:           decimal.Zero,
		core.TransferToSavings: decimal.Zero,
	}
	for rows.Next() {
		var typ core.TransactionType
		var cents int64
		if err := rows.Scan(&typ, &cents); err != nil {
			return nil, fmt.Errorf("scan sum: %w", err)
		}
		sums[typ] = core.CentsToAmount(cents)
	}
	return sums, rows.Err()
}

// AvailableBalance computes income minus debits for one account in a single
// scan. This is the guard's hot path; it skips the full stats breakdown.
func (r *Repository) AvailableBalance(ctx context.Context, accountID int64) (decimal.Decimal, error) {
	var cents int64
	err := r.db.QueryRowContext(ctx, `
		SELECT COALESCE(SUM(CASE WHEN type = ? THEN amount_cents ELSE -amount_cents END), 0)
		FROM transactions
		WHERE account_id = ? AND deleted_at IS NULL`,
		core.Income, accountID).Scan(&cents)
	if err != nil {
		return decimal.Zero, fmt.Errorf("available balance: %w", err)
	}
	return core.CentsToAmount(cents), nil
}

// CountByAccount counts non-deleted transactions; a positive count blocks
// account deletion.
func (r *Repository) CountByAccount(ctx context.Context, accountID int64) (int64, error) {
	var n int64
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM transactions WHERE account_id = ? AND deleted_at IS NULL`,
		accountID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count transactions by account: %w", err)
	}
	return n, nil
}

// CategoryTotals breaks a date range down by category for reports.
func (r *Repository) CategoryTotals(ctx context.Context, f core.ReportFilter) ([]core.CategoryTotal, error) {
	query := `
		SELECT c.id, c.name, COALESCE(SUM(t.amount_cents), 0), COUNT(t.id)
		FROM transactions t
		JOIN categories c ON c.id = t.category_id
		WHERE t.user_id = ? AND t.deleted_at IS NULL
		  AND t.transaction_date >= ? AND t.transaction_date < ?`
	args := []any{f.UserID, f.Start, f.End}
	if f.Type != "" {
		query += ` AND t.type = ?`
		args = append(args, f.Type)
	}
	if f.CategoryID != 0 {
		query += ` AND t.category_id = ?`
		args = append(args, f.CategoryID)
	}
	query += ` GROUP BY c.id, c.name ORDER BY SUM(t.amount_cents) DESC`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("category totals: %w", err)
	}
	defer rows.Close()

	var totals []core.CategoryTotal
	for rows.Next() {
		var ct core.CategoryTotal
		var cents int64
		if err := rows.Scan(&ct.CategoryID, &ct.CategoryName, &cents, &ct.Count); err != nil {
			return nil, fmt.Errorf("scan category total: %w", err)
		}
		ct.Total = core.CentsToAmount(cents)
		totals = append(totals, ct)
	}
	return totals, rows.Err()
}

// SumDeductedSavings totals the TRANSFER_TO_SAVINGS transactions on the
// ledger, reconciling the dashboard against per-account balances. Summing
// from the deposit audit trail would keep counting a transfer after its
// ledger row was soft-deleted.
func (r *Repository) SumDeductedSavings(ctx context.Context, userID int64) (decimal.Decimal, error) {
	var cents int64
	err := r.db.QueryRowContext(ctx, `
		SELECT COALESCE(SUM(amount_cents), 0)
		FROM transactions
		WHERE user_id = ? AND type = ? AND deleted_at IS NULL`,
		userID, core.TransferToSavings).Scan(&cents)
	if err != nil {
		return decimal.Zero, fmt.Errorf("sum deducted savings: %w", err)
	}
	return core.CentsToAmount(cents), nil
}
