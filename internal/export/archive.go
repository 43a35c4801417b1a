package export

import (
	"archive/zip"
	"encoding/csv"
	"fmt"
	"os"
)

// WriteArchive writes the workbook as a zip of one CSV file per sheet.
// This is the portable spreadsheet artifact handed to the blob store during
// cloud sync.
func WriteArchive(path string, wb Workbook) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create archive: %w", err)
	}

	zw := zip.NewWriter(f)
	for _, sheet := range wb.Sheets {
		w, err := zw.Create(sheet.Name + ".csv")
		if err != nil {
			zw.Close()
			f.Close()
			return fmt.Errorf("create sheet %s: %w", sheet.Name, err)
		}
		cw := csv.NewWriter(w)
		if err := cw.Write(sheet.Header); err != nil {
			zw.Close()
			f.Close()
			return fmt.Errorf("write header %s: %w", sheet.Name, err)
		}
		if err := cw.WriteAll(sheet.Rows); err != nil {
			zw.Close()
			f.Close()
			return fmt.Errorf("write rows %s: %w", sheet.Name, err)
		}
	}

	if err := zw.Close(); err != nil {
		f.Close()
		return fmt.Errorf("finalize archive: %w", err)
	}
	return f.Close()
}
