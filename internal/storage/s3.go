// Package storage uploads media binaries to S3-compatible object storage
// (MinIO in development). The local temp file written by the upload handler
// is removed here on both outcomes; callers only react to the returned URL.
package storage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"

	"github.com/clipstream/backend/internal/config"
)

// MediaStorage is the collaborator interface the handlers depend on; tests
// substitute a fake.
type MediaStorage interface {
	Upload(ctx context.Context, localPath string) (string, error)
}

type S3Storage struct {
	client   *s3.Client
	bucket   string
	endpoint string
}

func New(ctx context.Context, cfg *config.Config) (*S3Storage, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(cfg.S3_REGION),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			cfg.S3_ACCESS_KEY,
			cfg.S3_SECRET_KEY,
			"",
		)))
	if err != nil {
		return nil, fmt.Errorf("load s3 config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.S3_ENDPOINT != "" {
			o.BaseEndpoint = aws.String(cfg.S3_ENDPOINT)
		}
		o.UsePathStyle = true
	})

	return &S3Storage{
		client:   client,
		bucket:   cfg.S3_BUCKET,
		endpoint: cfg.S3_ENDPOINT,
	}, nil
}

func storageKey(ext string) string {
	d := time.Now()
	return fmt.Sprintf("media/%d/%02d/%02d/%s%s", d.Year(), d.Month(), d.Day(), uuid.NewString(), ext)
}

// Upload puts the file at localPath into the bucket and returns its public
// URL. The temp file is removed whether or not the put succeeds.
func (s *S3Storage) Upload(ctx context.Context, localPath string) (string, error) {
	defer os.Remove(localPath)

	f, err := os.Open(localPath)
	if err != nil {
		return "", fmt.Errorf("open media file: %w", err)
	}
	defer f.Close()

	key := storageKey(filepath.Ext(localPath))
	_, err = s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
		Body:   f,
	})
	if err != nil {
		return "", fmt.Errorf("put object: %w", err)
	}

	return fmt.Sprintf("%s/%s/%s", s.endpoint, s.bucket, key), nil
}
