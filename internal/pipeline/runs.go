package pipeline

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// RunStatus represents the state of a translation run.
type RunStatus string

const (
	StatusQueued      RunStatus = "queued"
	StatusParsing     RunStatus = "parsing"
	StatusChunking    RunStatus = "chunking"
	StatusTranslating RunStatus = "translating"
	StatusWriting     RunStatus = "writing"
	StatusCompleted   RunStatus = "completed"
	StatusPartial     RunStatus = "partial"
	StatusFailed      RunStatus = "failed"
)

// Terminal reports whether no further transitions will happen.
func (s RunStatus) Terminal() bool {
	switch s {
	case StatusCompleted, StatusPartial, StatusFailed:
		return true
	}
	return false
}

// Run tracks one document translation request.
type Run struct {
	mu sync.Mutex

	ID       string    `json:"run_id"`
	Status   RunStatus `json:"status"`
	Phase    string    `json:"phase"`
	Filename string    `json:"filename"`
	Title    string    `json:"title"`
	Assets   []string  `json:"assets,omitempty"`

	Progress Progress `json:"progress"`

	OutputPath string    `json:"output_path,omitempty"`
	ObjectKey  string    `json:"object_key,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`

	// Internal: not serialized.
	fileData  []byte
	maxTokens int
	errors    []string
}

// Progress tracks unit-level progress.
type Progress struct {
	TotalUnits     int      `json:"total_units"`
	UnitsProcessed int      `json:"units_processed"`
	UnitsFailed    int      `json:"units_failed"`
	Oversized      int      `json:"oversized"`
	Summary        string   `json:"summary,omitempty"`
	Errors         []string `json:"errors"`
}

// NewRun creates a queued run for an uploaded file. maxTokens <= 0 keeps the
// runner's default budget.
func NewRun(filename string, data []byte, maxTokens int) *Run {
	now := time.Now()
	return &Run{
		ID:        uuid.NewString(),
		Status:    StatusQueued,
		Phase:     "queued",
		Filename:  filename,
		CreatedAt: now,
		UpdatedAt: now,
		fileData:  data,
		maxTokens: maxTokens,
	}
}

// RunStore is a thread-safe in-memory run registry with TTL eviction.
type RunStore struct {
	mu   sync.Mutex
	runs map[string]*Run
	ttl  time.Duration
}

func NewRunStore(ttl time.Duration) *RunStore {
	return &RunStore{
		runs: make(map[string]*Run),
		ttl:  ttl,
	}
}

func (s *RunStore) Put(run *Run) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.runs[run.ID] = run
}

func (s *RunStore) Get(id string) *Run {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.runs[id]
}

// Len returns the number of tracked runs.
func (s *RunStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.runs)
}

// Cleanup removes expired runs.
func (s *RunStore) Cleanup() {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now()
	for id, run := range s.runs {
		if now.Sub(run.updated()) > s.ttl {
			delete(s.runs, id)
		}
	}
}

func (r *Run) updated() time.Time {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.UpdatedAt
}

// SetStatus updates run status atomically.
func (r *Run) SetStatus(status RunStatus, phase string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Status = status
	r.Phase = phase
	r.UpdatedAt = time.Now()
}

// AddError records an error.
func (r *Run) AddError(err string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.errors = append(r.errors, err)
	r.Progress.Errors = r.errors
	r.UpdatedAt = time.Now()
}

// SetUnits records the chunking outcome.
func (r *Run) SetUnits(total, oversized int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Progress.TotalUnits = total
	r.Progress.Oversized = oversized
	r.UpdatedAt = time.Now()
}

// UnitDone records one finished unit. A failed unit's error is appended in
// the same update as the failure count.
func (r *Run) UnitDone(res Result) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Progress.UnitsProcessed++
	if !res.OK() {
		r.Progress.UnitsFailed++
		r.errors = append(r.errors, res.Err.Error())
		r.Progress.Errors = r.errors
	}
	r.UpdatedAt = time.Now()
}

// Finish records the output location and final tally.
func (r *Run) Finish(outputPath, objectKey, summary string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.OutputPath = outputPath
	r.ObjectKey = objectKey
	r.Progress.Summary = summary
	r.UpdatedAt = time.Now()
}

// SetDocument records the parsed document title and the assets it references.
func (r *Run) SetDocument(title string, assets []string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Title = title
	r.Assets = append([]string(nil), assets...)
}

// FileData returns the uploaded bytes.
func (r *Run) FileData() []byte {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.fileData
}

// releaseFileData drops the upload once it has been parsed.
func (r *Run) releaseFileData() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.fileData = nil
}

// RunSnapshot is a read-only, JSON-safe copy of run state.
type RunSnapshot struct {
	ID         string    `json:"run_id"`
	Status     RunStatus `json:"status"`
	Phase      string    `json:"phase"`
	Filename   string    `json:"filename"`
	Title      string    `json:"title"`
	Assets     []string  `json:"assets,omitempty"`
	Progress   Progress  `json:"progress"`
	OutputPath string    `json:"output_path,omitempty"`
	ObjectKey  string    `json:"object_key,omitempty"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// Snapshot returns a JSON-safe copy of the run state.
func (r *Run) Snapshot() RunSnapshot {
	r.mu.Lock()
	defer r.mu.Unlock()
	errs := make([]string, len(r.Progress.Errors))
	copy(errs, r.Progress.Errors)
	p := r.Progress
	p.Errors = errs
	return RunSnapshot{
		ID:         r.ID,
		Status:     r.Status,
		Phase:      r.Phase,
		Filename:   r.Filename,
		Title:      r.Title,
		Assets:     append([]string(nil), r.Assets...),
		Progress:   p,
		OutputPath: r.OutputPath,
		ObjectKey:  r.ObjectKey,
		UpdatedAt:  r.UpdatedAt,
	}
}
