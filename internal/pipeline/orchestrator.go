package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

var (
	// ErrQueueFull is returned by Submit when the run queue has no room.
	ErrQueueFull = errors.New("run queue is full")
	// ErrStopped is returned by Submit once Stop has been called.
	ErrStopped = errors.New("orchestrator stopped")
)

// OrchestratorConfig sizes the run queue and its consumers.
type OrchestratorConfig struct {
	Workers       int
	MaxQueueSize  int
	RunTTL        time.Duration
	CleanupPeriod time.Duration
}

// Orchestrator queues translation runs and hands them to a Runner.
type Orchestrator struct {
	runs   *RunStore
	queue  chan *Run
	runner *Runner
	log    *slog.Logger
	cfg    OrchestratorConfig

	cancel context.CancelFunc
	wg     sync.WaitGroup

	// mu guards stopped and the close of queue against concurrent Submits.
	mu      sync.Mutex
	stopped bool
}

// NewOrchestrator creates the pipeline; call Start to begin consuming.
func NewOrchestrator(cfg OrchestratorConfig, runner *Runner, log *slog.Logger) *Orchestrator {
	if cfg.Workers <= 0 {
		cfg.Workers = 2
	}
	if cfg.MaxQueueSize <= 0 {
		cfg.MaxQueueSize = 50
	}
	if cfg.RunTTL <= 0 {
		cfg.RunTTL = time.Hour
	}
	if cfg.CleanupPeriod <= 0 {
		cfg.CleanupPeriod = 5 * time.Minute
	}
	if log == nil {
		log = slog.Default()
	}
	return &Orchestrator{
		runs:   NewRunStore(cfg.RunTTL),
		queue:  make(chan *Run, cfg.MaxQueueSize),
		runner: runner,
		log:    log,
		cfg:    cfg,
	}
}

// Start launches worker goroutines.
func (o *Orchestrator) Start(ctx context.Context) {
	workerCtx, cancel := context.WithCancel(ctx)
	o.cancel = cancel

	for i := range o.cfg.Workers {
		o.wg.Add(1)
		go func() {
			defer o.wg.Done()
			log := o.log.With("run_worker", i)
			for {
				select {
				case <-workerCtx.Done():
					return
				case run, ok := <-o.queue:
					if !ok {
						return
					}
					log.Debug("run dequeued", "run_id", run.ID)
					o.runner.Process(workerCtx, run)
				}
			}
		}()
	}

	// Start run store cleanup.
	o.wg.Add(1)
	go func() {
		defer o.wg.Done()
		ticker := time.NewTicker(o.cfg.CleanupPeriod)
		defer ticker.Stop()
		for {
			select {
			case <-workerCtx.Done():
				return
			case <-ticker.C:
				o.cleanup(workerCtx)
			}
		}
	}()
}

func (o *Orchestrator) cleanup(ctx context.Context) {
	before := o.runs.Len()
	o.runs.Cleanup()
	if after := o.runs.Len(); after != before {
		o.log.Info("expired runs removed", "removed", before-after, "remaining", after)
	}
	if err := o.runner.CleanupArtifacts(ctx, time.Now().Add(-o.cfg.RunTTL)); err != nil {
		o.log.Warn("artifact cleanup failed", "error", err)
	}
}

// Stop gracefully shuts down the pipeline.
func (o *Orchestrator) Stop() {
	o.mu.Lock()
	if o.stopped {
		o.mu.Unlock()
		return
	}
	o.stopped = true
	close(o.queue)
	o.mu.Unlock()

	if o.cancel != nil {
		o.cancel()
	}
	o.wg.Wait()
}

// Submit queues a new run for processing.
func (o *Orchestrator) Submit(run *Run) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.stopped {
		run.SetStatus(StatusFailed, "shutdown")
		return ErrStopped
	}

	o.runs.Put(run)
	select {
	case o.queue <- run:
		o.log.Info("run queued", "run_id", run.ID, "file", run.Filename, "queue_depth", len(o.queue))
		return nil
	default:
		run.SetStatus(StatusFailed, "queue_full")
		return fmt.Errorf("%w (%d)", ErrQueueFull, o.cfg.MaxQueueSize)
	}
}

// GetRun returns a run by ID.
func (o *Orchestrator) GetRun(id string) *Run {
	return o.runs.Get(id)
}

// QueueDepth returns current queue depth.
func (o *Orchestrator) QueueDepth() int {
	return len(o.queue)
}

// Runner returns the runner used for every run.
func (o *Orchestrator) Runner() *Runner {
	return o.runner
}
