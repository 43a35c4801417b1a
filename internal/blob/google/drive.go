// Package google uploads backup archives to Google Drive. Authentication
// uses Service Account credentials from the environment, same as the
// spreadsheet writer.
package google

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"fintrack/internal/blob"

	gdrive "google.golang.org/api/drive/v3"
	goption "google.golang.org/api/option"
)

type Client struct {
	svc      *gdrive.Service
	folderID string
}

var _ blob.Uploader = (*Client)(nil)

// NewFromEnv creates a Drive client from environment variables.
// Optional: GOOGLE_DRIVE_FOLDER_ID places uploads inside a folder.
// Credentials come from GOOGLE_SERVICE_ACCOUNT_JSON,
// GOOGLE_SERVICE_ACCOUNT_FILE or GOOGLE_APPLICATION_CREDENTIALS.
func NewFromEnv(ctx context.Context) (*Client, error) {
	svc, err := newDriveService(ctx)
	if err != nil {
		return nil, fmt.Errorf("drive service: %w", err)
	}

	return &Client{
		svc:      svc,
		folderID: strings.TrimSpace(os.Getenv("GOOGLE_DRIVE_FOLDER_ID")),
	}, nil
}

func newDriveService(ctx context.Context) (*gdrive.Service, error) {
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
		return gdrive.NewService(ctx)
	}

	return gdrive.NewService(ctx, goption.WithCredentialsJSON(credentialsJSON))
}

// Upload stores the blob under key and returns the Drive file ID.
func (c *Client) Upload(ctx context.Context, key string, r io.Reader) (string, error) {
	meta := &gdrive.File{Name: key}
	if c.folderID != "" {
		meta.Parents = []string{c.folderID}
	}

	file, err := c.svc.Files.Create(meta).
		Media(r).
		Fields("id").
		Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("create drive file: %w", err)
	}

	slog.InfoContext(ctx, "Uploaded archive", "key", key, "file_id", file.Id)
	return file.Id, nil
}
