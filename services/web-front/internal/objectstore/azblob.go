package objectstore

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"time"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/to"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob/blob"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob/bloberror"
)

type blobAPI interface {
	UploadStream(ctx context.Context, containerName, blobName string, body io.Reader, o *azblob.UploadStreamOptions) (azblob.UploadStreamResponse, error)
	URL() string
}

// BlobStore uploads into a public-read Azure blob container.
type BlobStore struct {
	client    blobAPI
	container string
	now       func() time.Time
}

// NewBlobStore connects with a connection string and creates the container if needed.
func NewBlobStore(ctx context.Context, connectionString, container string) (*BlobStore, error) {
	client, err := azblob.NewClientFromConnectionString(connectionString, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create blob client: %w", err)
	}
	_, err = client.CreateContainer(ctx, container, &azblob.CreateContainerOptions{
		Access: to.Ptr(azblob.PublicAccessTypeBlob),
	})
	if err != nil {
		var respErr *azcore.ResponseError
		if !errors.As(err, &respErr) || respErr.ErrorCode != string(bloberror.ContainerAlreadyExists) {
			return nil, fmt.Errorf("failed to create container %s: %w", container, err)
		}
	}
	return newBlobStore(client, container, time.Now), nil
}

func newBlobStore(client blobAPI, container string, now func() time.Time) *BlobStore {
	return &BlobStore{client: client, container: container, now: now}
}

func (s *BlobStore) Upload(ctx context.Context, filename, contentType string, _ int64, body io.Reader) (string, error) {
	key := ObjectKey(s.now(), filename)
	_, err := s.client.UploadStream(ctx, s.container, key, body, &azblob.UploadStreamOptions{
		BlockSize:   int64(1024) * 256, // 256KB
		HTTPHeaders: &blob.HTTPHeaders{BlobContentType: to.Ptr(contentType)},
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload blob %s: %w", key, err)
	}
	return s.URL(key)
}

// URL returns {serviceURL}/{container}/{key}.
func (s *BlobStore) URL(key string) (string, error) {
	base, err := url.Parse(s.client.URL())
	if err != nil {
		return "", fmt.Errorf("invalid blob service url: %w", err)
	}
	return publicURL(base.Scheme, base.Host, s.container, key), nil
}
