package storage

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/jask/hangarledger/internal/config"
)

func TestFSStoreRoundTrip(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	root := t.TempDir()
	s, err := NewFSStore(root)
	require.NoError(t, err)

	require.NoError(t, s.Upload(ctx, "receipts/e1/1-a.pdf", []byte("pdf"), "application/pdf"))
	data, err := s.Download(ctx, "receipts/e1/1-a.pdf")
	require.NoError(t, err)
	require.Equal(t, []byte("pdf"), data)

	_, err = os.Stat(filepath.Join(root, "receipts", "e1", "1-a.pdf"))
	require.NoError(t, err)

	require.NoError(t, s.Delete(ctx, "receipts/e1/1-a.pdf"))
	require.NoError(t, s.Delete(ctx, "receipts/e1/1-a.pdf"))
	_, err = s.Download(ctx, "receipts/e1/1-a.pdf")
	require.True(t, errors.Is(err, ErrNotFound))
}

func TestFSStoreStaysUnderRoot(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	root := t.TempDir()
	s, err := NewFSStore(filepath.Join(root, "blobs"))
	require.NoError(t, err)

	require.NoError(t, s.Upload(ctx, "../../escape.txt", []byte("x"), ""))
	_, err = os.Stat(filepath.Join(root, "blobs", "escape.txt"))
	require.NoError(t, err)

	require.Error(t, s.Upload(ctx, "/", []byte("x"), ""))
}

func TestReceiptPath(t *testing.T) {
	t.Parallel()

	now := time.UnixMilli(1700000000123)
	require.Equal(t, "receipts/e1/1700000000123-2025-01-05_N491JL_322077_KAUS.pdf",
		ReceiptPath("e1", "2025-01-05 N491JL 322077 KAUS.pdf", now))
	require.Equal(t, "a_b_c.png", SanitizeFilename("a/b c.png"))
}

func TestOpenSelectsBackend(t *testing.T) {
	t.Parallel()

	s, err := Open(context.Background(), config.StorageConfig{Backend: "fs", Dir: t.TempDir()})
	require.NoError(t, err)
	require.IsType(t, &FSStore{}, s)

	_, err = Open(context.Background(), config.StorageConfig{Backend: "s3"})
	require.Error(t, err)
}
