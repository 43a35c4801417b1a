package services

import (
	"context"

	"fintrack/internal/amqp"
	"fintrack/internal/core"
	"fintrack/internal/storage"
)

// BudgetService manages monthly category budgets and computes utilization
// alerts against the ledger.
type BudgetService struct {
	storage *storage.Repository
	events  EventPublisher
}

func NewBudgetService(storage *storage.Repository, events EventPublisher) *BudgetService {
	return &BudgetService{storage: storage, events: events}
}

// Set creates a budget. A second budget for the same (category, month, year)
// is rejected with core.ErrDuplicate.
func (s *BudgetService) Set(ctx context.Context, b core.Budget) (int64, error) {
	if err := b.Validate(); err != nil {
		return 0, err
	}

	id, err := s.storage.CreateBudget(ctx, b)
	if err != nil {
		return 0, err
	}

	publishEvent(ctx, s.events, b.UserID, amqp.EntityBudget, id, amqp.OpCreate)
	return id, nil
}

func (s *BudgetService) Update(ctx context.Context, userID, id int64, amount core.Money) error {
	if err := amount.Validate(); err != nil {
		return err
	}
	if err := s.storage.UpdateBudget(ctx, userID, id, amount); err != nil {
		return err
	}
	publishEvent(ctx, s.events, userID, amqp.EntityBudget, id, amqp.OpUpdate)
	return nil
}

func (s *BudgetService) Delete(ctx context.Context, userID, id int64) error {
	if err := s.storage.DeleteBudget(ctx, userID, id); err != nil {
		return err
	}
	publishEvent(ctx, s.events, userID, amqp.EntityBudget, id, amqp.OpDelete)
	return nil
}

func (s *BudgetService) List(ctx context.Context, userID int64, month, year int) ([]core.Budget, error) {
	return s.storage.ListBudgets(ctx, userID, month, year)
}

// Alerts evaluates every budget of the month against the expenses recorded
// inside that month's calendar window. Budgets under the alert threshold
// produce nothing; no qualifying budget yields an empty slice, not an error.
func (s *BudgetService) Alerts(ctx context.Context, userID int64, month, year int) ([]core.BudgetAlert, error) {
	budgets, err := s.storage.ListBudgets(ctx, userID, month, year)
	if err != nil {
		return nil, err
	}

	window := core.MonthRange(year, month)

	alerts := []core.BudgetAlert{}
	for _, b := range budgets {
		spent, err := s.storage.SumCategoryExpenses(ctx, userID, b.Category, window)
		if err != nil {
			return nil, err
		}
		if alert, ok := core.EvaluateAlert(b.Category, b.Amount, spent); ok {
			alerts = append(alerts, alert)
		}
	}
	return alerts, nil
}
