package pipeline

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"golang.org/x/sync/semaphore"

	"github.com/dgallion1/docxlate/internal/chunker"
	"github.com/dgallion1/docxlate/internal/document"
	"github.com/dgallion1/docxlate/internal/filename"
	"github.com/dgallion1/docxlate/internal/parser"
	"github.com/dgallion1/docxlate/internal/storage"
)

// Converter turns a PDF on disk into a Markdown file, returning its path.
type Converter interface {
	Convert(ctx context.Context, pdfPath, outDir string) (string, error)
}

// RunnerConfig holds per-document processing settings.
type RunnerConfig struct {
	Chunk     chunker.Config
	Dispatch  DispatchConfig
	OutputDir string
}

// Runner takes one document from upload to translated Markdown.
type Runner struct {
	transformer Transformer
	counter     chunker.TokenCounter
	store       storage.Storage
	ocr         Converter
	ocrSem      *semaphore.Weighted
	log         *slog.Logger
	cfg         RunnerConfig
}

func NewRunner(t Transformer, counter chunker.TokenCounter, cfg RunnerConfig, log *slog.Logger) *Runner {
	if cfg.Chunk.MaxTokens <= 0 {
		cfg.Chunk = chunker.DefaultConfig()
	}
	if cfg.OutputDir == "" {
		cfg.OutputDir = "output"
	}
	if log == nil {
		log = slog.Default()
	}
	return &Runner{
		transformer: t,
		counter:     counter,
		log:         log,
		cfg:         cfg,
	}
}

// WithStorage publishes every written output to s.
func (r *Runner) WithStorage(s storage.Storage) *Runner {
	r.store = s
	return r
}

// WithOCR routes PDF inputs through c, allowing at most maxConcurrent
// conversions at a time across all runs.
func (r *Runner) WithOCR(c Converter, maxConcurrent int64) *Runner {
	if maxConcurrent <= 0 {
		maxConcurrent = 1
	}
	r.ocr = c
	r.ocrSem = semaphore.NewWeighted(maxConcurrent)
	return r
}

// Storage returns the artifact store, or nil.
func (r *Runner) Storage() storage.Storage {
	return r.store
}

// Chunk cuts doc into units. maxTokens <= 0 uses the configured budget.
func (r *Runner) Chunk(doc *document.RawDocument, maxTokens int, log *slog.Logger) ([]document.Unit, chunker.Stats, error) {
	cfg := r.cfg.Chunk
	if maxTokens > 0 {
		cfg.MaxTokens = maxTokens
	}

	units, st, err := chunker.Chunk(doc.Text, r.counter, cfg)
	if err != nil {
		return nil, st, err
	}
	for _, u := range units {
		if u.Oversized {
			log.Warn("oversized unit",
				"unit", u.Index,
				"tokens", u.Tokens,
				"max_tokens", cfg.MaxTokens,
			)
		}
	}
	log.Info("chunked document",
		"segments", st.Segments,
		"sections", st.Sections,
		"units", st.Units,
		"oversized", st.Oversized,
		"max_tokens", cfg.MaxTokens,
	)
	return units, st, nil
}

// Translate chunks doc and dispatches every unit. Unit failures are carried
// in the Output; only an empty document is an error.
func (r *Runner) Translate(ctx context.Context, doc *document.RawDocument, maxTokens int, progress ProgressFunc) (*Output, chunker.Stats, error) {
	log := r.log.With("file", doc.Filename)
	units, st, err := r.Chunk(doc, maxTokens, log)
	if err != nil {
		return nil, st, err
	}
	out := r.dispatch(ctx, units, progress, log)
	return out, st, nil
}

func (r *Runner) dispatch(ctx context.Context, units []document.Unit, progress ProgressFunc, log *slog.Logger) *Output {
	d := NewDispatcher(r.transformer, r.cfg.Dispatch, log)
	start := time.Now()
	out := d.Dispatch(ctx, units, progress)
	log.Info("dispatch complete",
		"summary", out.Summary(),
		"failed", out.Failed(),
		"workers", d.Config().MaxWorkers,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return out
}

// Process runs the full pipeline for a queued run.
func (r *Runner) Process(ctx context.Context, run *Run) {
	log := r.log.With("run_id", run.ID, "file", run.Filename)
	workDir := filepath.Join(r.cfg.OutputDir, "runs", run.ID)

	// Phase 1: Parse
	run.SetStatus(StatusParsing, "parsing")
	doc, err := r.parse(ctx, run, workDir, log)
	if err != nil {
		log.Error("parse failed", "error", err)
		run.AddError(fmt.Sprintf("parse: %s", err))
		run.SetStatus(StatusFailed, "parsing")
		return
	}
	run.SetDocument(doc.Title, doc.Assets)
	run.releaseFileData()
	log.Info("document parsed", "title", doc.Title, "assets", len(doc.Assets))

	// Phase 2: Chunk
	run.SetStatus(StatusChunking, "chunking")
	units, st, err := r.Chunk(doc, run.maxTokens, log)
	if err != nil {
		log.Error("chunking failed", "error", err)
		run.AddError(err.Error())
		run.SetStatus(StatusFailed, "chunking")
		return
	}
	run.SetUnits(len(units), st.Oversized)

	// Phase 3: Translate
	run.SetStatus(StatusTranslating, "translating")
	out := r.dispatch(ctx, units, func(done, total int, res Result) {
		run.UnitDone(res)
	}, log)

	// Phase 4: Write
	run.SetStatus(StatusWriting, "writing")
	outPath := filename.OutputPath(filepath.Join(workDir, stemOf(run.Filename)+".md"), "", time.Now())
	if err := WriteOutput(outPath, out); err != nil {
		log.Error("write failed", "path", outPath, "error", err)
		run.AddError(err.Error())
		run.SetStatus(StatusFailed, "writing")
		return
	}
	log.Info("output written", "path", outPath)

	key := r.publish(ctx, run, outPath, log)
	run.Finish(outPath, key, out.Summary())

	switch {
	case out.Failed() == 0:
		run.SetStatus(StatusCompleted, "done")
	case out.Succeeded() > 0:
		run.SetStatus(StatusPartial, "done")
	default:
		run.SetStatus(StatusFailed, "translating")
	}
	log.Info("run finished", "summary", out.Summary())
}

// parse turns the uploaded bytes into a RawDocument, going through OCR for
// PDFs when a converter is configured.
func (r *Runner) parse(ctx context.Context, run *Run, workDir string, log *slog.Logger) (*document.RawDocument, error) {
	data := run.FileData()

	if r.ocr != nil && strings.EqualFold(filepath.Ext(run.Filename), ".pdf") {
		doc, err := r.parseOCR(ctx, run.Filename, data, workDir, log)
		if err == nil {
			return doc, nil
		}
		if ctx.Err() != nil {
			return nil, err
		}
		log.Warn("ocr failed, falling back to local pdf text", "error", err)
	}

	p, err := parser.ForFile(run.Filename)
	if err != nil {
		return nil, err
	}
	return p.Parse(bytes.NewReader(data), run.Filename)
}

func (r *Runner) parseOCR(ctx context.Context, name string, data []byte, workDir string, log *slog.Logger) (*document.RawDocument, error) {
	if err := r.ocrSem.Acquire(ctx, 1); err != nil {
		return nil, err
	}
	defer r.ocrSem.Release(1)

	if err := os.MkdirAll(workDir, 0o755); err != nil {
		return nil, err
	}
	pdfPath := filepath.Join(workDir, filename.Sanitize(filepath.Base(name)))
	if err := os.WriteFile(pdfPath, data, 0o644); err != nil {
		return nil, fmt.Errorf("save upload: %w", err)
	}

	mdPath, err := r.ocr.Convert(ctx, pdfPath, workDir)
	if err != nil {
		return nil, err
	}
	log.Info("ocr complete", "markdown", mdPath)
	return ParseFile(mdPath)
}

// ParseFile opens path and parses it with the parser for its extension.
func ParseFile(path string) (*document.RawDocument, error) {
	p, err := parser.ForFile(path)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return p.Parse(f, filepath.Base(path))
}

func (r *Runner) publish(ctx context.Context, run *Run, path string, log *slog.Logger) string {
	if r.store == nil {
		return ""
	}
	f, err := os.Open(path)
	if err != nil {
		log.Error("publish failed", "error", err)
		run.AddError(fmt.Sprintf("publish: %s", err))
		return ""
	}
	defer f.Close()

	key := run.ID + "/" + filepath.Base(path)
	loc, err := r.store.Store(ctx, f, key)
	if err != nil {
		log.Error("publish failed", "key", key, "error", err)
		run.AddError(fmt.Sprintf("publish: %s", err))
		return ""
	}
	log.Info("output published", "key", key, "location", loc)
	return key
}

// CleanupArtifacts removes published outputs older than before.
func (r *Runner) CleanupArtifacts(ctx context.Context, before time.Time) error {
	if r.store == nil {
		return nil
	}
	return r.store.CleanupBefore(ctx, before)
}

// IsEmptyInput reports whether err means the document had nothing to translate.
func IsEmptyInput(err error) bool {
	return errors.Is(err, chunker.ErrEmptyInput)
}

func stemOf(name string) string {
	base := filepath.Base(name)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
