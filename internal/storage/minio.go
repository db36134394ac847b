package storage

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// MinioConfig holds connection settings for an S3-compatible endpoint.
type MinioConfig struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	Region    string
	UseSSL    bool
}

// Minio stores objects in a MinIO bucket.
type Minio struct {
	client *minio.Client
	bucket string
	log    *slog.Logger
}

// NewMinio connects and creates the bucket when it does not exist.
func NewMinio(ctx context.Context, cfg MinioConfig, log *slog.Logger) (*Minio, error) {
	if log == nil {
		log = slog.Default()
	}
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create MinIO client: %w", err)
	}

	exists, err := client.BucketExists(ctx, cfg.Bucket)
	if err != nil {
		return nil, fmt.Errorf("failed to check bucket existence: %w", err)
	}
	if !exists {
		if err := client.MakeBucket(ctx, cfg.Bucket, minio.MakeBucketOptions{Region: cfg.Region}); err != nil {
			return nil, fmt.Errorf("failed to create bucket: %w", err)
		}
		log.Info("created bucket", "bucket", cfg.Bucket)
	}

	return &Minio{client: client, bucket: cfg.Bucket, log: log}, nil
}

func (m *Minio) Store(ctx context.Context, r io.Reader, key string) (string, error) {
	_, err := m.client.PutObject(ctx, m.bucket, key, r, -1, minio.PutObjectOptions{
		ContentType: "text/markdown; charset=utf-8",
	})
	if err != nil {
		m.log.Error("failed to store object", "bucket", m.bucket, "key", key, "error", err)
		return "", fmt.Errorf("failed to store file: %w", err)
	}
	return fmt.Sprintf("%s/%s", m.bucket, key), nil
}

func (m *Minio) Get(ctx context.Context, key string) (io.ReadCloser, error) {
	if _, err := m.client.StatObject(ctx, m.bucket, key, minio.StatObjectOptions{}); err != nil {
		if minio.ToErrorResponse(err).Code == "NoSuchKey" {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, key)
		}
		return nil, fmt.Errorf("failed to get file: %w", err)
	}
	obj, err := m.client.GetObject(ctx, m.bucket, key, minio.GetObjectOptions{})
	if err != nil {
		m.log.Error("failed to get object", "bucket", m.bucket, "key", key, "error", err)
		return nil, fmt.Errorf("failed to get file: %w", err)
	}
	return obj, nil
}

func (m *Minio) Delete(ctx context.Context, key string) error {
	if err := m.client.RemoveObject(ctx, m.bucket, key, minio.RemoveObjectOptions{}); err != nil {
		m.log.Error("failed to delete object", "bucket", m.bucket, "key", key, "error", err)
		return fmt.Errorf("failed to delete file: %w", err)
	}
	return nil
}

func (m *Minio) CleanupBefore(ctx context.Context, threshold time.Time) error {
	for obj := range m.client.ListObjects(ctx, m.bucket, minio.ListObjectsOptions{Recursive: true}) {
		if obj.Err != nil {
			m.log.Error("error listing objects", "bucket", m.bucket, "error", obj.Err)
			continue
		}
		if !obj.LastModified.Before(threshold) {
			continue
		}
		if err := m.Delete(ctx, obj.Key); err != nil {
			continue
		}
		m.log.Info("deleted expired object", "key", obj.Key, "last_modified", obj.LastModified)
	}
	return nil
}
