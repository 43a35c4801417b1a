// Package services holds the engines: thin orchestration over the store
// with input validation, ownership checks and change-event publishing.
package services

import (
	"context"
	"log/slog"

	"fintrack/internal/amqp"
)

// EventPublisher notifies interested consumers (the backup worker) about
// committed ledger mutations.
type EventPublisher interface {
	PublishLedgerEvent(ctx context.Context, ev *amqp.LedgerEvent) error
}

// publishEvent sends a change notification best effort. A nil publisher
// means events are disabled; a publish failure is logged but never fails
// the originating operation, which has already committed.
func publishEvent(ctx context.Context, pub EventPublisher, userID int64, entity string, entityID int64, op string) {
	if pub == nil {
		return
	}
	ev := amqp.NewLedgerEvent(userID, entity, entityID, op)
	if err := pub.PublishLedgerEvent(ctx, ev); err != nil {
		slog.ErrorContext(ctx, "Failed to publish ledger event",
			"entity", entity,
			"entity_id", entityID,
			"op", op,
			"error", err)
	}
}
