package storage

import (
	"context"
	"errors"
	"io"
	"time"
)

// ErrNotFound is returned by Get and Delete for unknown keys.
var ErrNotFound = errors.New("object not found")

// Storage publishes translated artifacts.
type Storage interface {
	// Store writes r under key and returns the location it was written to.
	Store(ctx context.Context, r io.Reader, key string) (string, error)
	Get(ctx context.Context, key string) (io.ReadCloser, error)
	Delete(ctx context.Context, key string) error
	// CleanupBefore removes objects last modified before threshold.
	CleanupBefore(ctx context.Context, threshold time.Time) error
}

var (
	_ Storage = (*Local)(nil)
	_ Storage = (*Minio)(nil)
)
