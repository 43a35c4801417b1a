// Package memory is an in-process workbook destination used in tests and
// when no Google spreadsheet is configured.
package memory

import (
	"context"
	"fmt"
	"sync"

	"fintrack/internal/export"
	ports "fintrack/internal/sheets"
)

type Store struct {
	mu      sync.Mutex
	written []export.Workbook
}

var _ ports.WorkbookWriter = (*Store)(nil)

func New() *Store {
	return &Store{}
}

// WriteWorkbook records the workbook and returns a synthetic reference.
func (s *Store) WriteWorkbook(_ context.Context, wb export.Workbook) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.written = append(s.written, wb)
	return fmt.Sprintf("mem:%d", len(s.written)), nil
}

// Written returns a copy of everything stored so far.
func (s *Store) Written() []export.Workbook {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]export.Workbook(nil), s.written...)
}
