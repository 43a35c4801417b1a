package services

import (
	"context"
	"log/slog"

	"fintrack/internal/amqp"
	"fintrack/internal/core"
	"fintrack/internal/storage"
)

// GoalService manages savings goals. Contributions are mirrored into the
// ledger as expense entries in a single atomic write.
type GoalService struct {
	storage *storage.Repository
	events  EventPublisher
}

func NewGoalService(storage *storage.Repository, events EventPublisher) *GoalService {
	return &GoalService{storage: storage, events: events}
}

func (s *GoalService) Set(ctx context.Context, g core.Goal) (int64, error) {
	if err := g.Validate(); err != nil {
		return 0, err
	}

	id, err := s.storage.CreateGoal(ctx, g)
	if err != nil {
		return 0, err
	}

	publishEvent(ctx, s.events, g.UserID, amqp.EntityGoal, id, amqp.OpCreate)
	return id, nil
}

func (s *GoalService) Update(ctx context.Context, g core.Goal) error {
	if err := g.Validate(); err != nil {
		return err
	}
	if err := s.storage.UpdateGoal(ctx, g); err != nil {
		return err
	}
	publishEvent(ctx, s.events, g.UserID, amqp.EntityGoal, g.ID, amqp.OpUpdate)
	return nil
}

func (s *GoalService) Delete(ctx context.Context, userID, id int64) error {
	if err := s.storage.DeleteGoal(ctx, userID, id); err != nil {
		return err
	}
	publishEvent(ctx, s.events, userID, amqp.EntityGoal, id, amqp.OpDelete)
	return nil
}

func (s *GoalService) Get(ctx context.Context, userID, id int64) (core.Goal, error) {
	return s.storage.GetGoal(ctx, userID, id)
}

// List returns the user's goals ordered by deadline.
func (s *GoalService) List(ctx context.Context, userID int64) ([]core.Goal, error) {
	return s.storage.ListGoals(ctx, userID)
}

// Contribute tops up a goal and records the matching expense entry dated
// today. Both writes commit atomically or not at all. The engine permits
// funding past the target; callers that want the remaining-gap bound
// enforce it themselves.
func (s *GoalService) Contribute(ctx context.Context, userID, goalID int64, amount core.Money) error {
	if err := amount.Validate(); err != nil {
		return err
	}

	if err := s.storage.Contribute(ctx, userID, goalID, amount, core.Today()); err != nil {
		return err
	}

	slog.InfoContext(ctx, "Goal contribution recorded",
		"goal_id", goalID,
		"amount_cents", amount.Cents)

	publishEvent(ctx, s.events, userID, amqp.EntityGoal, goalID, amqp.OpUpdate)
	return nil
}
