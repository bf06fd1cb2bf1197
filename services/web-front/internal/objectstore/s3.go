package objectstore

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

type s3API interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// S3Store puts objects into a public S3 bucket.
type S3Store struct {
	client s3API
	bucket string
	region string
	now    func() time.Time
}

// NewS3Store loads AWS configuration for region. Static keys are used when both are set.
func NewS3Store(ctx context.Context, region, bucket, accessKeyID, secretAccessKey string) (*S3Store, error) {
	opts := []func(*awsconfig.LoadOptions) error{awsconfig.WithRegion(region)}
	if accessKeyID != "" && secretAccessKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(accessKeyID, secretAccessKey, "")))
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load aws config: %w", err)
	}
	return newS3Store(s3.NewFromConfig(awsCfg), region, bucket, time.Now), nil
}

func newS3Store(client s3API, region, bucket string, now func() time.Time) *S3Store {
	return &S3Store{client: client, bucket: bucket, region: region, now: now}
}

func (s *S3Store) Upload(ctx context.Context, filename, contentType string, size int64, body io.Reader) (string, error) {
	key := ObjectKey(s.now(), filename)
	input := &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        body,
		ContentType: aws.String(contentType),
	}
	if size >= 0 {
		input.ContentLength = aws.Int64(size)
	}
	if _, err := s.client.PutObject(ctx, input); err != nil {
		return "", fmt.Errorf("failed to put object %s: %w", key, err)
	}
	return s.URL(key), nil
}

// URL returns https://{bucket}.s3.{region}.amazonaws.com/{key}.
func (s *S3Store) URL(key string) string {
	return publicURL("https", fmt.Sprintf("%s.s3.%s.amazonaws.com", s.bucket, s.region), "", key)
}
