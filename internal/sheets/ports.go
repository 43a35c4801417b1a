package sheets

import (
	"context"

	"fintrack/internal/export"
)

// WorkbookWriter renders a workbook to a spreadsheet destination.
type WorkbookWriter interface {
	// WriteWorkbook replaces the destination sheets with the workbook's
	// contents and returns an opaque reference to the written target.
	WriteWorkbook(ctx context.Context, wb export.Workbook) (ref string, err error)
}
