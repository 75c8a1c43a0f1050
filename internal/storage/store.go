// Package storage holds receipt blobs.
package storage

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"time"

	"github.com/jask/hangarledger/internal/config"
)

// ErrNotFound is returned by Download for a missing object.
var ErrNotFound = errors.New("object not found")

// Store is a flat object store addressed by slash-separated paths.
type Store interface {
	Upload(ctx context.Context, path string, data []byte, contentType string) error
	Download(ctx context.Context, path string) ([]byte, error)
	Delete(ctx context.Context, path string) error
}

// Open returns the backend selected by cfg.
func Open(ctx context.Context, cfg config.StorageConfig) (Store, error) {
	switch cfg.Backend {
	case "fs", "":
		return NewFSStore(cfg.Dir)
	case "gcs":
		return NewGCSStore(ctx, cfg.Bucket, cfg.CredentialsFile)
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.Backend)
	}
}

var unsafeChars = regexp.MustCompile(`[^a-zA-Z0-9.-]`)

// SanitizeFilename replaces everything outside [a-zA-Z0-9.-] with '_'.
func SanitizeFilename(name string) string {
	return unsafeChars.ReplaceAllString(name, "_")
}

// ReceiptPath is where a receipt for expenseID is stored.
func ReceiptPath(expenseID, filename string, now time.Time) string {
	return fmt.Sprintf("receipts/%s/%d-%s", expenseID, now.UnixMilli(), SanitizeFilename(filename))
}
