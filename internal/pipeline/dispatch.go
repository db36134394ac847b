package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/dgallion1/docxlate/internal/document"
)

// Transformer turns one unit of text into its transformed form.
type Transformer interface {
	Transform(ctx context.Context, text string) (string, error)
}

// TransformFunc adapts a function to Transformer.
type TransformFunc func(ctx context.Context, text string) (string, error)

func (f TransformFunc) Transform(ctx context.Context, text string) (string, error) {
	return f(ctx, text)
}

// JobStatus is the state of one unit's dispatch.
type JobStatus string

const (
	JobPending   JobStatus = "pending"
	JobRetrying  JobStatus = "retrying"
	JobSucceeded JobStatus = "succeeded"
	JobFailed    JobStatus = "failed"
)

// Job binds one unit to its attempt state. Only the worker that took it
// from the queue touches it.
type Job struct {
	Slot     int
	Unit     document.Unit
	Attempts int
	Status   JobStatus
}

// Result is the outcome of one Job.
type Result struct {
	Index    int
	Text     string
	Err      error
	Attempts int
}

// OK reports whether the unit was transformed.
func (r Result) OK() bool { return r.Err == nil }

// UnitError is recorded when every attempt for a unit failed.
type UnitError struct {
	Index       int
	Attempts    int
	MaxAttempts int
	Err         error
}

func (e *UnitError) Error() string {
	return fmt.Sprintf("unit %d attempt %d/%d failed: %v", e.Index, e.Attempts, e.MaxAttempts, e.Err)
}

func (e *UnitError) Unwrap() error { return e.Err }

// Placeholder keeps the untransformed content in place of a failed unit.
func Placeholder(content string, err error) string {
	return fmt.Sprintf("\n<!-- translation failed: %s -->\n%s\n", err, content)
}

// DispatchConfig bounds concurrency and retries.
type DispatchConfig struct {
	MaxWorkers     int
	MaxRetries     int
	InitialBackoff time.Duration
}

// DefaultDispatchConfig returns sensible defaults.
func DefaultDispatchConfig() DispatchConfig {
	return DispatchConfig{
		MaxWorkers:     3,
		MaxRetries:     3,
		InitialBackoff: time.Second,
	}
}

// ProgressFunc is called after each unit finishes. It may be called from
// several workers at once.
type ProgressFunc func(done, total int, r Result)

// Dispatcher runs units through a Transformer with a fixed pool of workers.
type Dispatcher struct {
	transformer Transformer
	cfg         DispatchConfig
	log         *slog.Logger
	sleep       func(context.Context, time.Duration) error
}

func NewDispatcher(t Transformer, cfg DispatchConfig, log *slog.Logger) *Dispatcher {
	def := DefaultDispatchConfig()
	if cfg.MaxWorkers <= 0 {
		cfg.MaxWorkers = def.MaxWorkers
	}
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = def.MaxRetries
	}
	if cfg.InitialBackoff <= 0 {
		cfg.InitialBackoff = def.InitialBackoff
	}
	if log == nil {
		log = slog.Default()
	}
	return &Dispatcher{
		transformer: t,
		cfg:         cfg,
		log:         log,
		sleep:       sleepCtx,
	}
}

// Config returns the effective configuration.
func (d *Dispatcher) Config() DispatchConfig {
	return d.cfg
}

// Dispatch transforms every unit and returns results in unit order.
// All jobs are queued up front; MaxWorkers goroutines drain the queue, each
// handling one job end to end including its backoff sleeps. Unit failures
// never abort the run.
func (d *Dispatcher) Dispatch(ctx context.Context, units []document.Unit, progress ProgressFunc) *Output {
	total := len(units)
	out := &Output{Results: make([]Result, total)}
	if total == 0 {
		return out
	}

	queue := make(chan *Job, total)
	for i, u := range units {
		queue <- &Job{Slot: i, Unit: u, Status: JobPending}
	}
	close(queue)

	var (
		errMu sync.Mutex
		done  atomic.Int64
	)

	var g errgroup.Group
	for w := range min(d.cfg.MaxWorkers, total) {
		log := d.log.With("worker", w)
		g.Go(func() error {
			for job := range queue {
				r := d.runJob(ctx, job, log)
				// Each slot has exactly one writer.
				out.Results[job.Slot] = r

				if ue, ok := r.Err.(*UnitError); ok {
					errMu.Lock()
					out.Errors = append(out.Errors, ue)
					errMu.Unlock()
				}
				if progress != nil {
					progress(int(done.Add(1)), total, r)
				}
			}
			return nil
		})
	}
	_ = g.Wait()

	slices.SortFunc(out.Errors, func(a, b *UnitError) int { return a.Index - b.Index })
	return out
}

func (d *Dispatcher) runJob(ctx context.Context, job *Job, log *slog.Logger) Result {
	maxAttempts := d.cfg.MaxRetries
	var lastErr error

	for attempt := 1; attempt <= maxAttempts; attempt++ {
		job.Attempts = attempt
		text, err := d.transformer.Transform(ctx, job.Unit.Content)
		if err == nil {
			job.Status = JobSucceeded
			log.Info("unit translated", "unit", job.Slot, "attempts", attempt)
			return Result{Index: job.Slot, Text: text, Attempts: attempt}
		}
		lastErr = err
		if attempt == maxAttempts {
			break
		}

		job.Status = JobRetrying
		wait := Backoff(d.cfg.InitialBackoff, attempt)
		log.Warn("translation attempt failed",
			"unit", job.Slot,
			"attempt", attempt,
			"max_attempts", maxAttempts,
			"retryable", IsRetryable(err),
			"retry_in", wait.String(),
			"error", err,
		)
		if err := d.sleep(ctx, wait); err != nil {
			lastErr = err
			break
		}
	}

	job.Status = JobFailed
	ue := &UnitError{
		Index:       job.Slot,
		Attempts:    job.Attempts,
		MaxAttempts: maxAttempts,
		Err:         lastErr,
	}
	log.Error("unit failed", "unit", job.Slot, "error", ue)
	return Result{
		Index:    job.Slot,
		Text:     Placeholder(job.Unit.Content, ue),
		Err:      ue,
		Attempts: job.Attempts,
	}
}
