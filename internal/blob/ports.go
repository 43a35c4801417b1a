// Package blob defines the destination for backup archives.
package blob

import (
	"context"
	"io"
)

// Uploader stores a named blob and returns a reference to the stored copy.
type Uploader interface {
	Upload(ctx context.Context, key string, r io.Reader) (string, error)
}
