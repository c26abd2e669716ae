// Package objstore wraps S3-compatible object storage. Brand knowledge chunks
// are written here under deterministic per-agent keys; the object store is the
// source of truth for chunk bytes, the database only records metadata.
package objstore

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"

	"github.com/draftmill/draftmill-api/internal/config"
	"github.com/draftmill/draftmill-api/internal/platform/logger"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// Client uploads objects to a single configured bucket.
type Client struct {
	mc     *minio.Client
	bucket string
	logger *slog.Logger
}

// New creates a Client and ensures the configured bucket exists.
func New(ctx context.Context, cfg config.StorageConfig, log *slog.Logger) (*Client, error) {
	if log == nil {
		log = slog.Default()
	}

	mc, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create object storage client: %w", err)
	}

	exists, err := mc.BucketExists(ctx, cfg.Bucket)
	if err != nil {
		return nil, fmt.Errorf("failed to check bucket %q: %w", cfg.Bucket, err)
	}
	if !exists {
		if err := mc.MakeBucket(ctx, cfg.Bucket, minio.MakeBucketOptions{}); err != nil {
			return nil, fmt.Errorf("failed to create bucket %q: %w", cfg.Bucket, err)
		}
		log.Info("created object storage bucket", slog.String("bucket", cfg.Bucket))
	}

	return &Client{
		mc:     mc,
		bucket: cfg.Bucket,
		logger: log.With(slog.String("component", "objstore")),
	}, nil
}

// Upload writes data to the bucket under the given key. Writes are keyed, so
// re-uploading the same key is last-write-wins and safe to retry.
func (c *Client) Upload(ctx context.Context, key string, data []byte, contentType string) error {
	log := logger.FromContextOrDefault(ctx, c.logger)

	_, err := c.mc.PutObject(ctx, c.bucket, key, bytes.NewReader(data), int64(len(data)),
		minio.PutObjectOptions{ContentType: contentType})
	if err != nil {
		log.Error("failed to upload object",
			slog.String("key", key),
			slog.Int("size", len(data)),
			slog.String("error", err.Error()))
		return fmt.Errorf("failed to upload object %q: %w", key, err)
	}

	log.Debug("object uploaded",
		slog.String("key", key),
		slog.Int("size", len(data)))
	return nil
}
