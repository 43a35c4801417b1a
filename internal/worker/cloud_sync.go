// Package worker runs the cloud backup pipeline off the request path.
package worker

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"fintrack/internal/blob"
	"fintrack/internal/core"
	"fintrack/internal/export"
)

type EventType string

const (
	EventProgress EventType = "progress"
	EventFinished EventType = "finished"
	EventFailed   EventType = "failed"
)

// Event is one notification from a sync run. Progress percentages are
// non-decreasing; exactly one Finished or Failed event terminates the
// stream, after which the channel is closed.
type Event struct {
	Type    EventType
	Percent int
	Ref     string
	Err     error
}

// WorkbookSource builds the full per-user workbook to be archived.
type WorkbookSource interface {
	Workbook(ctx context.Context, userID int64) (export.Workbook, error)
}

// CloudSync exports a user's ledger to a local archive, uploads it to the
// blob store and removes the local copy. The archive is removed even when
// the upload fails.
type CloudSync struct {
	reports  WorkbookSource
	uploader blob.Uploader
	tempDir  string
	now      func() time.Time
}

func NewCloudSync(reports WorkbookSource, uploader blob.Uploader, tempDir string) *CloudSync {
	return &CloudSync{
		reports:  reports,
		uploader: uploader,
		tempDir:  tempDir,
		now:      time.Now,
	}
}

// Run executes the pipeline on its own goroutine and returns the event
// channel. The channel is buffered to hold every event a run can emit, so
// the pipeline never blocks on a slow consumer.
func (s *CloudSync) Run(ctx context.Context, userID int64) <-chan Event {
	events := make(chan Event, 8)
	go s.run(ctx, userID, events)
	return events
}

func (s *CloudSync) run(ctx context.Context, userID int64, events chan<- Event) {
	defer close(events)

	fail := func(step string, err error) {
		serr := &core.SyncError{Step: step, Err: err}
		slog.ErrorContext(ctx, "Cloud sync failed", "user_id", userID, "step", step, "error", err)
		events <- Event{Type: EventFailed, Err: serr}
	}

	events <- Event{Type: EventProgress, Percent: 10}

	if err := ctx.Err(); err != nil {
		fail("export", err)
		return
	}

	wb, err := s.reports.Workbook(ctx, userID)
	if err != nil {
		fail("export", err)
		return
	}

	key := fmt.Sprintf("%d_%d", userID, s.now().Unix())
	path := filepath.Join(s.tempDir, key+".zip")
	if err := export.WriteArchive(path, wb); err != nil {
		fail("export", err)
		return
	}

	events <- Event{Type: EventProgress, Percent: 30}

	if err := ctx.Err(); err != nil {
		s.cleanup(ctx, path)
		fail("upload", err)
		return
	}

	ref, err := s.upload(ctx, key, path)
	if err != nil {
		s.cleanup(ctx, path)
		fail("upload", err)
		return
	}

	events <- Event{Type: EventProgress, Percent: 60}

	s.cleanup(ctx, path)
	events <- Event{Type: EventProgress, Percent: 90}

	slog.InfoContext(ctx, "Cloud sync completed", "user_id", userID, "key", key, "ref", ref)
	events <- Event{Type: EventProgress, Percent: 100}
	events <- Event{Type: EventFinished, Ref: ref}
}

func (s *CloudSync) upload(ctx context.Context, key, path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("open archive: %w", err)
	}
	defer f.Close()

	return s.uploader.Upload(ctx, key, f)
}

// cleanup removes the local archive. A missing file is not an error.
func (s *CloudSync) cleanup(ctx context.Context, path string) {
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		slog.WarnContext(ctx, "Failed to remove archive", "path", path, "error", err)
	}
}
