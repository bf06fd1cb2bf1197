package objectstore

import (
	"context"
	"fmt"
	"io"
	"time"

	"cloud.google.com/go/storage"
)

// objectWriters opens writers for new objects.
type objectWriters interface {
	NewWriter(ctx context.Context, bucket, key, contentType string) io.WriteCloser
}

type gcsWriters struct {
	client *storage.Client
}

func (g gcsWriters) NewWriter(ctx context.Context, bucket, key, contentType string) io.WriteCloser {
	w := g.client.Bucket(bucket).Object(key).NewWriter(ctx)
	if contentType != "" {
		w.ContentType = contentType
	}
	return w
}

// GCSStore writes objects into a publicly readable GCS bucket.
type GCSStore struct {
	writers objectWriters
	bucket  string
	now     func() time.Time
}

// NewGCSStore uses application default credentials.
func NewGCSStore(ctx context.Context, bucket string) (*GCSStore, error) {
	client, err := storage.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create gcs client: %w", err)
	}
	return newGCSStore(gcsWriters{client: client}, bucket, time.Now), nil
}

func newGCSStore(writers objectWriters, bucket string, now func() time.Time) *GCSStore {
	return &GCSStore{writers: writers, bucket: bucket, now: now}
}

func (s *GCSStore) Upload(ctx context.Context, filename, contentType string, _ int64, body io.Reader) (string, error) {
	key := ObjectKey(s.now(), filename)
	w := s.writers.NewWriter(ctx, s.bucket, key, contentType)
	if _, err := io.Copy(w, body); err != nil {
		_ = w.Close()
		return "", fmt.Errorf("failed to write object %s: %w", key, err)
	}
	if err := w.Close(); err != nil {
		return "", fmt.Errorf("failed to finalize object %s: %w", key, err)
	}
	return s.URL(key), nil
}

// URL returns https://storage.googleapis.com/{bucket}/{key}.
func (s *GCSStore) URL(key string) string {
	return publicURL("https", "storage.googleapis.com", s.bucket, key)
}
