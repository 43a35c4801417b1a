package services

import (
	"context"

	"fintrack/internal/amqp"
	"fintrack/internal/core"
	"fintrack/internal/storage"
)

// LedgerService is the transaction engine: validated CRUD plus the
// aggregation queries the report generator builds on.
type LedgerService struct {
	storage *storage.Repository
	events  EventPublisher
}

func NewLedgerService(storage *storage.Repository, events EventPublisher) *LedgerService {
	return &LedgerService{storage: storage, events: events}
}

// Add validates and stores a new ledger entry, returning its id.
func (s *LedgerService) Add(ctx context.Context, t core.Transaction) (int64, error) {
	if err := t.Validate(); err != nil {
		return 0, err
	}

	id, err := s.storage.CreateTransaction(ctx, t)
	if err != nil {
		return 0, err
	}

	publishEvent(ctx, s.events, t.UserID, amqp.EntityTransaction, id, amqp.OpCreate)
	return id, nil
}

// Update rewrites an owned entry; core.ErrNotFound when the id does not
// belong to the user.
func (s *LedgerService) Update(ctx context.Context, t core.Transaction) error {
	if err := t.Validate(); err != nil {
		return err
	}
	if err := s.storage.UpdateTransaction(ctx, t); err != nil {
		return err
	}
	publishEvent(ctx, s.events, t.UserID, amqp.EntityTransaction, t.ID, amqp.OpUpdate)
	return nil
}

// Delete is strict: removing an entry that does not exist (or is owned by
// another user) fails with core.ErrNotFound.
func (s *LedgerService) Delete(ctx context.Context, userID, id int64) error {
	if err := s.storage.DeleteTransaction(ctx, userID, id); err != nil {
		return err
	}
	publishEvent(ctx, s.events, userID, amqp.EntityTransaction, id, amqp.OpDelete)
	return nil
}

func (s *LedgerService) Get(ctx context.Context, userID, id int64) (core.Transaction, error) {
	return s.storage.GetTransaction(ctx, userID, id)
}

// List returns entries matching the filter, most recent first.
func (s *LedgerService) List(ctx context.Context, userID int64, f core.Filter) ([]core.Transaction, error) {
	return s.storage.ListTransactions(ctx, userID, f)
}

func (s *LedgerService) SumByType(ctx context.Context, userID int64, typ core.TransactionType, dr core.DateRange) (core.Money, error) {
	if err := typ.Validate(); err != nil {
		return core.Money{}, err
	}
	return s.storage.SumByType(ctx, userID, typ, dr)
}

func (s *LedgerService) SumByCategory(ctx context.Context, userID int64, typ core.TransactionType, dr core.DateRange) ([]core.CategoryAmount, error) {
	if err := typ.Validate(); err != nil {
		return nil, err
	}
	return s.storage.SumByCategory(ctx, userID, typ, dr)
}
