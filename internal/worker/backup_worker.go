package worker

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"fintrack/internal/amqp"
)

// Consumer delivers ledger change events until the context is cancelled.
type Consumer interface {
	Consume(ctx context.Context, handler func(context.Context, *amqp.LedgerEvent) error) error
}

// BackupWorker listens for ledger change events and periodically backs up
// every user that changed since the last run. The ticker also acts as a
// safety net for events lost while the worker was down.
type BackupWorker struct {
	consumer Consumer
	sync     *CloudSync
	interval time.Duration

	mu    sync.Mutex
	dirty map[int64]struct{}
}

func NewBackupWorker(consumer Consumer, cloudSync *CloudSync, interval time.Duration) *BackupWorker {
	return &BackupWorker{
		consumer: consumer,
		sync:     cloudSync,
		interval: interval,
		dirty:    make(map[int64]struct{}),
	}
}

// MarkDirty schedules a user for the next backup run.
func (w *BackupWorker) MarkDirty(userID int64) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.dirty[userID] = struct{}{}
}

func (w *BackupWorker) takeDirty() []int64 {
	w.mu.Lock()
	defer w.mu.Unlock()
	if len(w.dirty) == 0 {
		return nil
	}
	users := make([]int64, 0, len(w.dirty))
	for id := range w.dirty {
		users = append(users, id)
	}
	w.dirty = make(map[int64]struct{})
	return users
}

// Run blocks until the context is cancelled. It consumes change events and
// flushes dirty users on every tick.
func (w *BackupWorker) Run(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return w.consumer.Consume(ctx, func(_ context.Context, ev *amqp.LedgerEvent) error {
			w.MarkDirty(ev.UserID)
			return nil
		})
	})

	g.Go(func() error {
		ticker := time.NewTicker(w.interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-ticker.C:
				w.Flush(ctx)
			}
		}
	})

	return g.Wait()
}

// Flush runs a cloud sync for every user marked dirty since the last flush.
// A failed run keeps the user dirty so the next tick retries it.
func (w *BackupWorker) Flush(ctx context.Context) {
	users := w.takeDirty()
	if len(users) == 0 {
		return
	}

	slog.InfoContext(ctx, "Running backups", "users", len(users))
	for _, userID := range users {
		if err := w.backup(ctx, userID); err != nil {
			slog.ErrorContext(ctx, "Backup failed", "user_id", userID, "error", err)
			w.MarkDirty(userID)
		}
	}
}

func (w *BackupWorker) backup(ctx context.Context, userID int64) error {
	for ev := range w.sync.Run(ctx, userID) {
		switch ev.Type {
		case EventProgress:
			slog.DebugContext(ctx, "Backup progress", "user_id", userID, "percent", ev.Percent)
		case EventFinished:
			slog.InfoContext(ctx, "Backup finished", "user_id", userID, "ref", ev.Ref)
		case EventFailed:
			return ev.Err
		}
	}
	return nil
}
