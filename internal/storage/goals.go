package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"fintrack/internal/core"
)

// CreateGoal inserts a savings goal and returns its id.
func (r *Repository) CreateGoal(ctx context.Context, g core.Goal) (int64, error) {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO goals (user_id, title, target_cents, current_cents, deadline)
		 VALUES (?, ?, ?, ?, ?)`,
		g.UserID, g.Title, g.Target.Cents, g.Current.Cents, g.Deadline.String(),
	)
	if err != nil {
		return 0, fmt.Errorf("insert goal: %w", err)
	}
	return res.LastInsertId()
}

func (r *Repository) GetGoal(ctx context.Context, userID, id int64) (core.Goal, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT id, user_id, title, target_cents, current_cents, deadline
		 FROM goals WHERE id = ? AND user_id = ?`, id, userID)

	g, err := scanGoal(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Goal{}, core.ErrNotFound
	}
	if err != nil {
		return core.Goal{}, fmt.Errorf("get goal: %w", err)
	}
	return g, nil
}

// UpdateGoal rewrites the mutable fields of an owned goal.
func (r *Repository) UpdateGoal(ctx context.Context, g core.Goal) error {
	return execOwned(ctx, r.db,
		`UPDATE goals SET title = ?, target_cents = ?, current_cents = ?, deadline = ?
		 WHERE id = ? AND user_id = ?`,
		g.Title, g.Target.Cents, g.Current.Cents, g.Deadline.String(), g.ID, g.UserID)
}

func (r *Repository) DeleteGoal(ctx context.Context, userID, id int64) error {
	return execOwned(ctx, r.db,
		"DELETE FROM goals WHERE id = ? AND user_id = ?", id, userID)
}

// ListGoals returns the user's goals ordered by deadline ascending.
func (r *Repository) ListGoals(ctx context.Context, userID int64) ([]core.Goal, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, user_id, title, target_cents, current_cents, deadline
		 FROM goals WHERE user_id = ? ORDER BY deadline, id`, userID)
	if err != nil {
		return nil, fmt.Errorf("list goals: %w", err)
	}
	defer rows.Close()

	var out []core.Goal
	for rows.Next() {
		g, err := scanGoal(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("scan goal: %w", err)
		}
		out = append(out, g)
	}
	return out, rows.Err()
}

// Contribute applies a goal top-up atomically: the goal's current amount is
// incremented and the mirroring expense entry is inserted inside one SQL
// transaction. If either write fails, neither persists. Writers share one
// pooled connection, so two concurrent contributions to the same goal
// serialize instead of losing an update.
func (r *Repository) Contribute(ctx context.Context, userID, goalID int64, amount core.Money, date core.Date) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin contribution: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx,
		`UPDATE goals SET current_cents = current_cents + ?
		 WHERE id = ? AND user_id = ?`,
		amount.Cents, goalID, userID)
	if err != nil {
		return fmt.Errorf("increment goal: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return core.ErrNotFound
	}

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO transactions (user_id, type, category, amount_cents, description, tx_date)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		userID, string(core.Expense), core.GoalCategory, amount.Cents, core.GoalNote, date.String(),
	); err != nil {
		return fmt.Errorf("record contribution: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit contribution: %w", err)
	}
	return nil
}

func scanGoal(scan func(...any) error) (core.Goal, error) {
	var (
		g        core.Goal
		deadline string
	)
	if err := scan(&g.ID, &g.UserID, &g.Title, &g.Target.Cents, &g.Current.Cents, &deadline); err != nil {
		return core.Goal{}, err
	}
	d, err := scanDate(deadline)
	if err != nil {
		return core.Goal{}, err
	}
	g.Deadline = d
	return g, nil
}
