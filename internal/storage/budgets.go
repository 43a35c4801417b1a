package storage

import (
	"context"
	"fmt"

	"fintrack/internal/core"
)

// CreateBudget inserts a monthly category budget. A second budget for the
// same (user, category, month, year) is rejected with core.ErrDuplicate
// instead of overwriting the first.
func (r *Repository) CreateBudget(ctx context.Context, b core.Budget) (int64, error) {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO budgets (user_id, category, amount_cents, month, year)
		 VALUES (?, ?, ?, ?, ?)`,
		b.UserID, b.Category, b.Amount.Cents, b.Month, b.Year,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return 0, fmt.Errorf("budget %s %d/%d: %w", b.Category, b.Month, b.Year, core.ErrDuplicate)
		}
		return 0, fmt.Errorf("insert budget: %w", err)
	}
	return res.LastInsertId()
}

// UpdateBudget changes the limit of an owned budget.
func (r *Repository) UpdateBudget(ctx context.Context, userID, id int64, amount core.Money) error {
	return execOwned(ctx, r.db,
		"UPDATE budgets SET amount_cents = ? WHERE id = ? AND user_id = ?",
		amount.Cents, id, userID)
}

func (r *Repository) DeleteBudget(ctx context.Context, userID, id int64) error {
	return execOwned(ctx, r.db,
		"DELETE FROM budgets WHERE id = ? AND user_id = ?", id, userID)
}

// ListBudgets returns the user's budgets for one month, category ascending.
func (r *Repository) ListBudgets(ctx context.Context, userID int64, month, year int) ([]core.Budget, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, user_id, category, amount_cents, month, year
		 FROM budgets WHERE user_id = ? AND month = ? AND year = ?
		 ORDER BY category`,
		userID, month, year)
	if err != nil {
		return nil, fmt.Errorf("list budgets: %w", err)
	}
	defer rows.Close()

	var out []core.Budget
	for rows.Next() {
		var b core.Budget
		if err := rows.Scan(&b.ID, &b.UserID, &b.Category, &b.Amount.Cents, &b.Month, &b.Year); err != nil {
			return nil, fmt.Errorf("scan budget: %w", err)
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

// ListAllBudgets returns every budget of the user, for exports.
func (r *Repository) ListAllBudgets(ctx context.Context, userID int64) ([]core.Budget, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, user_id, category, amount_cents, month, year
		 FROM budgets WHERE user_id = ? ORDER BY year, month, category`,
		userID)
	if err != nil {
		return nil, fmt.Errorf("list all budgets: %w", err)
	}
	defer rows.Close()

	var out []core.Budget
	for rows.Next() {
		var b core.Budget
		if err := rows.Scan(&b.ID, &b.UserID, &b.Category, &b.Amount.Cents, &b.Month, &b.Year); err != nil {
			return nil, fmt.Errorf("scan budget: %w", err)
		}
		out = append(out, b)
	}
	return out, rows.Err()
}
