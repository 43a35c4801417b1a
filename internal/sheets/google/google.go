// Package google writes workbooks to a Google spreadsheet through the
// Sheets API. Authentication uses Service Account credentials from the
// environment.
package google

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"fintrack/internal/export"
	ports "fintrack/internal/sheets"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"
)

type Client struct {
	svc           *gsheet.Service
	spreadsheetID string
}

var _ ports.WorkbookWriter = (*Client)(nil)

// NewFromEnv creates a Sheets client from environment variables.
// Required: GOOGLE_SPREADSHEET_ID. Credentials come from
// GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE or
// GOOGLE_APPLICATION_CREDENTIALS.
func NewFromEnv(ctx context.Context) (*Client, error) {
	spreadsheetID := strings.TrimSpace(os.Getenv("GOOGLE_SPREADSHEET_ID"))
	if spreadsheetID == "" {
		return nil, errors.New("missing GOOGLE_SPREADSHEET_ID")
	}

	svc, err := newSheetsService(ctx)
	if err != nil {
		return nil, fmt.Errorf("sheets service: %w", err)
	}

	return &Client{svc: svc, spreadsheetID: spreadsheetID}, nil
}

func newSheetsService(ctx context.Context) (*gsheet.Service, error) {
	serviceAccountJSON := strings.TrimSpace(os.Getenv("GOOGLE_SERVICE_ACCOUNT_JSON"))
	serviceAccountFile := strings.TrimSpace(os.Getenv("GOOGLE_SERVICE_ACCOUNT_FILE"))
	if serviceAccountJSON == "" && serviceAccountFile == "" {
		serviceAccountFile = strings.TrimSpace(os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"))
	}

	var credentialsJSON []byte
	switch {
	case serviceAccountJSON != "":
		credentialsJSON = []byte(serviceAccountJSON)
	case serviceAccountFile != "":
		b, err := os.ReadFile(serviceAccountFile)
		if err != nil {
			return nil, fmt.Errorf("read service account file: %w", err)
		}
		credentialsJSON = b
	default:
		// Fall back to Application Default Credentials.
		return gsheet.NewService(ctx)
	}

	return gsheet.NewService(ctx, goption.WithCredentialsJSON(credentialsJSON))
}

// WriteWorkbook ensures one tab per sheet exists, clears it and writes the
// header plus rows.
func (c *Client) WriteWorkbook(ctx context.Context, wb export.Workbook) (string, error) {
	for _, sheet := range wb.Sheets {
		if err := c.ensureSheet(ctx, sheet.Name); err != nil {
			return "", fmt.Errorf("ensure sheet %s: %w", sheet.Name, err)
		}

		clearRange := fmt.Sprintf("%s!A:Z", sheet.Name)
		if _, err := c.svc.Spreadsheets.Values.Clear(c.spreadsheetID, clearRange, &gsheet.ClearValuesRequest{}).
			Context(ctx).Do(); err != nil {
			return "", fmt.Errorf("clear sheet %s: %w", sheet.Name, err)
		}

		values := make([][]interface{}, 0, len(sheet.Rows)+1)
		header := make([]interface{}, len(sheet.Header))
		for i, h := range sheet.Header {
			header[i] = h
		}
		values = append(values, header)
		for _, row := range sheet.Rows {
			cells := make([]interface{}, len(row))
			for i, v := range row {
				cells[i] = v
			}
			values = append(values, cells)
		}

		writeRange := fmt.Sprintf("%s!A1", sheet.Name)
		_, err := c.svc.Spreadsheets.Values.Update(c.spreadsheetID, writeRange, &gsheet.ValueRange{
			Values: values,
		}).ValueInputOption("RAW").Context(ctx).Do()
		if err != nil {
			return "", fmt.Errorf("write sheet %s: %w", sheet.Name, err)
		}

		slog.InfoContext(ctx, "Wrote sheet",
			"spreadsheet_id", c.spreadsheetID,
			"sheet", sheet.Name,
			"rows", len(sheet.Rows))
	}

	return c.spreadsheetID, nil
}

// ensureSheet adds the tab if it is not present yet.
func (c *Client) ensureSheet(ctx context.Context, name string) error {
	meta, err := c.svc.Spreadsheets.Get(c.spreadsheetID).Fields("sheets.properties.title").
		Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("get spreadsheet: %w", err)
	}
	for _, s := range meta.Sheets {
		if s.Properties != nil && s.Properties.Title == name {
			return nil
		}
	}

	_, err = c.svc.Spreadsheets.BatchUpdate(c.spreadsheetID, &gsheet.BatchUpdateSpreadsheetRequest{
		Requests: []*gsheet.Request{{
			AddSheet: &gsheet.AddSheetRequest{
				Properties: &gsheet.SheetProperties{Title: name},
			},
		}},
	}).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("add sheet: %w", err)
	}
	return nil
}
