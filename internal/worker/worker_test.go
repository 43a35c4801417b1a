package worker

import (
	"context"
	"errors"
	"io"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fintrack/internal/amqp"
	"fintrack/internal/blob/memory"
	"fintrack/internal/core"
	"fintrack/internal/export"
)

type stubSource struct {
	wb  export.Workbook
	err error
}

func (s *stubSource) Workbook(context.Context, int64) (export.Workbook, error) {
	return s.wb, s.err
}

type failingUploader struct{}

func (failingUploader) Upload(context.Context, string, io.Reader) (string, error) {
	return "", errors.New("network down")
}

func testWorkbook() export.Workbook {
	return export.Workbook{Sheets: []export.Sheet{{
		Name:   "Transactions",
		Header: []string{"ID", "Amount"},
		Rows:   [][]string{{"1", "12.50"}},
	}}}
}

// collect drains the event channel and returns everything emitted.
func collect(t *testing.T, events <-chan Event) []Event {
	t.Helper()
	var out []Event
	deadline := time.After(5 * time.Second)
	for {
		select {
		case ev, ok := <-events:
			if !ok {
				return out
			}
			out = append(out, ev)
		case <-deadline:
			t.Fatal("event channel never closed")
		}
	}
}

func requireSingleTerminal(t *testing.T, events []Event) Event {
	t.Helper()
	require.NotEmpty(t, events)
	last := events[len(events)-1]
	require.Contains(t, []EventType{EventFinished, EventFailed}, last.Type)
	for _, ev := range events[:len(events)-1] {
		require.Equal(t, EventProgress, ev.Type, "terminal event arrived before the end")
	}
	return last
}

func TestCloudSyncSuccess(t *testing.T) {
	store := memory.New()
	tempDir := t.TempDir()
	cs := NewCloudSync(&stubSource{wb: testWorkbook()}, store, tempDir)

	events := collect(t, cs.Run(context.Background(), 42))

	last := requireSingleTerminal(t, events)
	require.Equal(t, EventFinished, last.Type)
	assert.NotEmpty(t, last.Ref)

	var percents []int
	for _, ev := range events[:len(events)-1] {
		percents = append(percents, ev.Percent)
	}
	assert.Equal(t, []int{10, 30, 60, 90, 100}, percents)

	keys := store.Keys()
	require.Len(t, keys, 1)
	assert.True(t, strings.HasPrefix(keys[0], "42_"))

	entries, err := os.ReadDir(tempDir)
	require.NoError(t, err)
	assert.Empty(t, entries, "archive should be removed after upload")
}

func TestCloudSyncUploadFailureStillCleansUp(t *testing.T) {
	tempDir := t.TempDir()
	cs := NewCloudSync(&stubSource{wb: testWorkbook()}, failingUploader{}, tempDir)

	events := collect(t, cs.Run(context.Background(), 7))

	last := requireSingleTerminal(t, events)
	require.Equal(t, EventFailed, last.Type)

	var serr *core.SyncError
	require.ErrorAs(t, last.Err, &serr)
	assert.Equal(t, "upload", serr.Step)

	entries, err := os.ReadDir(tempDir)
	require.NoError(t, err)
	assert.Empty(t, entries, "archive should be removed even when upload fails")
}

func TestCloudSyncExportFailure(t *testing.T) {
	cs := NewCloudSync(&stubSource{err: errors.New("storage gone")}, memory.New(), t.TempDir())

	events := collect(t, cs.Run(context.Background(), 7))

	last := requireSingleTerminal(t, events)
	require.Equal(t, EventFailed, last.Type)

	var serr *core.SyncError
	require.ErrorAs(t, last.Err, &serr)
	assert.Equal(t, "export", serr.Step)
}

func TestCloudSyncCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	cs := NewCloudSync(&stubSource{wb: testWorkbook()}, memory.New(), t.TempDir())
	events := collect(t, cs.Run(ctx, 7))

	last := requireSingleTerminal(t, events)
	require.Equal(t, EventFailed, last.Type)
	assert.ErrorIs(t, last.Err, context.Canceled)
}

func TestBackupWorkerFlush(t *testing.T) {
	store := memory.New()
	cs := NewCloudSync(&stubSource{wb: testWorkbook()}, store, t.TempDir())
	w := NewBackupWorker(nil, cs, time.Minute)

	w.MarkDirty(1)
	w.MarkDirty(2)
	w.MarkDirty(1)
	w.Flush(context.Background())

	assert.Len(t, store.Keys(), 2)
	assert.Empty(t, w.takeDirty(), "flush should clear the dirty set")
}

func TestBackupWorkerFlushRetainsFailedUsers(t *testing.T) {
	cs := NewCloudSync(&stubSource{wb: testWorkbook()}, failingUploader{}, t.TempDir())
	w := NewBackupWorker(nil, cs, time.Minute)

	w.MarkDirty(5)
	w.Flush(context.Background())

	assert.Equal(t, []int64{5}, w.takeDirty(), "failed user should stay dirty")
}

type stubConsumer struct {
	events []*amqp.LedgerEvent
}

func (c *stubConsumer) Consume(ctx context.Context, handler func(context.Context, *amqp.LedgerEvent) error) error {
	for _, ev := range c.events {
		if err := handler(ctx, ev); err != nil {
			return err
		}
	}
	<-ctx.Done()
	return ctx.Err()
}

func TestBackupWorkerRunBacksUpChangedUsers(t *testing.T) {
	store := memory.New()
	cs := NewCloudSync(&stubSource{wb: testWorkbook()}, store, t.TempDir())
	consumer := &stubConsumer{events: []*amqp.LedgerEvent{
		{UserID: 9, Entity: amqp.EntityTransaction, Op: amqp.OpCreate},
	}}
	w := NewBackupWorker(consumer, cs, 10*time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), 500*time.Millisecond)
	defer cancel()

	err := w.Run(ctx)
	require.ErrorIs(t, err, context.DeadlineExceeded)

	keys := store.Keys()
	require.Len(t, keys, 1)
	assert.True(t, strings.HasPrefix(keys[0], "9_"))
}
