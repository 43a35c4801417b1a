package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"fintrack/internal/core"
)

// CreateTransaction inserts a ledger entry and returns its id.
func (r *Repository) CreateTransaction(ctx context.Context, t core.Transaction) (int64, error) {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO transactions (user_id, type, category, amount_cents, description, tx_date)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		t.UserID, string(t.Type), t.Category, t.Amount.Cents, t.Description, t.Date.String(),
	)
	if err != nil {
		return 0, fmt.Errorf("insert transaction: %w", err)
	}
	return res.LastInsertId()
}

func (r *Repository) GetTransaction(ctx context.Context, userID, id int64) (core.Transaction, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT id, user_id, type, category, amount_cents, description, tx_date
		 FROM transactions WHERE id = ? AND user_id = ?`, id, userID)

	t, err := scanTransaction(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Transaction{}, core.ErrNotFound
	}
	if err != nil {
		return core.Transaction{}, fmt.Errorf("get transaction: %w", err)
	}
	return t, nil
}

// UpdateTransaction rewrites all mutable fields of an owned row.
func (r *Repository) UpdateTransaction(ctx context.Context, t core.Transaction) error {
	return execOwned(ctx, r.db,
		`UPDATE transactions SET type = ?, category = ?, amount_cents = ?, description = ?, tx_date = ?
		 WHERE id = ? AND user_id = ?`,
		string(t.Type), t.Category, t.Amount.Cents, t.Description, t.Date.String(), t.ID, t.UserID)
}

func (r *Repository) DeleteTransaction(ctx context.Context, userID, id int64) error {
	return execOwned(ctx, r.db,
		"DELETE FROM transactions WHERE id = ? AND user_id = ?", id, userID)
}

// ListTransactions returns the user's entries matching the filter, most
// recent date first. Every filter clause binds its value as a parameter.
func (r *Repository) ListTransactions(ctx context.Context, userID int64, f core.Filter) ([]core.Transaction, error) {
	where, args := transactionWhere(userID, f)
	query := `SELECT id, user_id, type, category, amount_cents, description, tx_date
		 FROM transactions WHERE ` + where + ` ORDER BY tx_date DESC, id DESC`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	defer rows.Close()

	var out []core.Transaction
	for rows.Next() {
		t, err := scanTransaction(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

// RecentTransactions returns the latest n entries by date.
func (r *Repository) RecentTransactions(ctx context.Context, userID int64, n int) ([]core.Transaction, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, user_id, type, category, amount_cents, description, tx_date
		 FROM transactions WHERE user_id = ? ORDER BY tx_date DESC, id DESC LIMIT ?`,
		userID, n)
	if err != nil {
		return nil, fmt.Errorf("recent transactions: %w", err)
	}
	defer rows.Close()

	var out []core.Transaction
	for rows.Next() {
		t, err := scanTransaction(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

// SumByType totals one transaction type over an optional date range.
// No matching rows yields zero, not an error.
func (r *Repository) SumByType(ctx context.Context, userID int64, typ core.TransactionType, dr core.DateRange) (core.Money, error) {
	where, args := transactionWhere(userID, core.Filter{Type: typ, From: dr.From, To: dr.To})
	var cents int64
	err := r.db.QueryRowContext(ctx,
		"SELECT COALESCE(SUM(amount_cents), 0) FROM transactions WHERE "+where, args...,
	).Scan(&cents)
	if err != nil {
		return core.Money{}, fmt.Errorf("sum by type: %w", err)
	}
	return core.Money{Cents: cents}, nil
}

// SumByCategory totals one transaction type per category. Only categories
// with at least one matching row appear.
func (r *Repository) SumByCategory(ctx context.Context, userID int64, typ core.TransactionType, dr core.DateRange) ([]core.CategoryAmount, error) {
	where, args := transactionWhere(userID, core.Filter{Type: typ, From: dr.From, To: dr.To})
	rows, err := r.db.QueryContext(ctx,
		`SELECT category, SUM(amount_cents) FROM transactions
		 WHERE `+where+` GROUP BY category ORDER BY category`, args...)
	if err != nil {
		return nil, fmt.Errorf("sum by category: %w", err)
	}
	defer rows.Close()

	var out []core.CategoryAmount
	for rows.Next() {
		var ca core.CategoryAmount
		if err := rows.Scan(&ca.Name, &ca.Amount.Cents); err != nil {
			return nil, fmt.Errorf("scan category sum: %w", err)
		}
		out = append(out, ca)
	}
	return out, rows.Err()
}

// SumCategoryExpenses totals expense entries for one category inside a date
// range, used by the budget alert computation.
func (r *Repository) SumCategoryExpenses(ctx context.Context, userID int64, category string, dr core.DateRange) (core.Money, error) {
	where, args := transactionWhere(userID, core.Filter{
		Type: core.Expense, Category: category, From: dr.From, To: dr.To,
	})
	var cents int64
	err := r.db.QueryRowContext(ctx,
		"SELECT COALESCE(SUM(amount_cents), 0) FROM transactions WHERE "+where, args...,
	).Scan(&cents)
	if err != nil {
		return core.Money{}, fmt.Errorf("sum category expenses: %w", err)
	}
	return core.Money{Cents: cents}, nil
}

// transactionWhere builds the WHERE clause for a structured filter. Absent
// fields add no clause; date bounds are inclusive.
func transactionWhere(userID int64, f core.Filter) (string, []any) {
	clauses := []string{"user_id = ?"}
	args := []any{userID}

	if f.Type != "" {
		clauses = append(clauses, "type = ?")
		args = append(args, string(f.Type))
	}
	if f.Category != "" {
		clauses = append(clauses, "category = ?")
		args = append(args, f.Category)
	}
	if !f.From.IsZero() {
		clauses = append(clauses, "tx_date >= ?")
		args = append(args, f.From.String())
	}
	if !f.To.IsZero() {
		clauses = append(clauses, "tx_date <= ?")
		args = append(args, f.To.String())
	}
	return strings.Join(clauses, " AND "), args
}

func scanTransaction(scan func(...any) error) (core.Transaction, error) {
	var (
		t       core.Transaction
		typ     string
		dateStr string
	)
	if err := scan(&t.ID, &t.UserID, &typ, &t.Category, &t.Amount.Cents, &t.Description, &dateStr); err != nil {
		return core.Transaction{}, err
	}
	t.Type = core.TransactionType(typ)
	d, err := scanDate(dateStr)
	if err != nil {
		return core.Transaction{}, err
	}
	t.Date = d
	return t, nil
}
