package storage

import (
	"context"
	"errors"
	"fmt"
	"io"

	gcs "cloud.google.com/go/storage"
	"google.golang.org/api/option"
)

// GCSStore keeps objects in a Google Cloud Storage bucket.
type GCSStore struct {
	client *gcs.Client
	bucket string
}

// NewGCSStore connects with the credentials file when given, otherwise with
// application default credentials.
func NewGCSStore(ctx context.Context, bucket, credentialsFile string) (*GCSStore, error) {
	if bucket == "" {
		return nil, errors.New("storage bucket is required")
	}
	var opts []option.ClientOption
	if credentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(credentialsFile))
	}
	client, err := gcs.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("gcs client: %w", err)
	}
	return &GCSStore{client: client, bucket: bucket}, nil
}

func (s *GCSStore) Upload(ctx context.Context, path string, data []byte, contentType string) error {
	w := s.client.Bucket(s.bucket).Object(path).NewWriter(ctx)
	w.ContentType = contentType
	if _, err := w.Write(data); err != nil {
		_ = w.Close()
		return fmt.Errorf("upload %s: %w", path, err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("upload %s: %w", path, err)
	}
	return nil
}

func (s *GCSStore) Download(ctx context.Context, path string) ([]byte, error) {
	r, err := s.client.Bucket(s.bucket).Object(path).NewReader(ctx)
	if err != nil {
		if errors.Is(err, gcs.ErrObjectNotExist) {
			return nil, fmt.Errorf("%s: %w", path, ErrNotFound)
		}
		return nil, fmt.Errorf("download %s: %w", path, err)
	}
	defer r.Close()
	return io.ReadAll(r)
}

func (s *GCSStore) Delete(ctx context.Context, path string) error {
	err := s.client.Bucket(s.bucket).Object(path).Delete(ctx)
	if err != nil && !errors.Is(err, gcs.ErrObjectNotExist) {
		return fmt.Errorf("delete %s: %w", path, err)
	}
	return nil
}

func (s *GCSStore) Close() error {
	return s.client.Close()
}
