package pipeline

import (
	"context"
	"errors"
	"time"

	"github.com/dgallion1/docxlate/internal/translate"
)

// IsRetryable reports whether err is a transient service-side failure.
// Every failure is retried; this only classifies it for logging.
func IsRetryable(err error) bool {
	var retryErr *translate.RetryableError
	return errors.As(err, &retryErr)
}

// Backoff returns the delay after the given failed attempt (1-indexed):
// initial, 2×initial, 4×initial, ...
func Backoff(initial time.Duration, attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	return initial * time.Duration(1<<uint(attempt-1))
}

// sleepCtx blocks for d or until ctx is done.
func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
