// Package objectstore uploads image files and returns their public URLs.
package objectstore

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"path"
	"time"

	"seungpyo.lee/MemoryJournal/services/web-front/internal/config"
)

// Store uploads a single object. There is no retry and no delete.
type Store interface {
	Upload(ctx context.Context, filename, contentType string, size int64, body io.Reader) (string, error)
}

// ObjectKey names an object "{unixMillis}-{filename}".
func ObjectKey(now time.Time, filename string) string {
	return fmt.Sprintf("%d-%s", now.UnixMilli(), path.Base(filename))
}

// publicURL joins base and key, escaping the key as a path.
func publicURL(scheme, host, prefix, key string) string {
	u := url.URL{Scheme: scheme, Host: host, Path: path.Join("/", prefix, key)}
	return u.String()
}

// New builds the Store selected by cfg.StorageDriver.
func New(ctx context.Context, cfg *config.WebConfig) (Store, error) {
	switch cfg.StorageDriver {
	case config.DriverS3:
		return NewS3Store(ctx, cfg.AWSRegion, cfg.AWSBucketName, cfg.AWSAccessKeyID, cfg.AWSSecretAccessKey)
	case config.DriverAzBlob:
		return NewBlobStore(ctx, cfg.AzureStorageConnectionString, cfg.BlobContainerName)
	case config.DriverGCS:
		return NewGCSStore(ctx, cfg.GCSBucketName)
	}
	return nil, fmt.Errorf("unknown storage driver %q", cfg.StorageDriver)
}
