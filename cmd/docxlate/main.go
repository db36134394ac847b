// Command docxlate translates one document to Chinese Markdown.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/dgallion1/docxlate/internal/chunker"
	"github.com/dgallion1/docxlate/internal/config"
	"github.com/dgallion1/docxlate/internal/filename"
	"github.com/dgallion1/docxlate/internal/logging"
	"github.com/dgallion1/docxlate/internal/ocr"
	"github.com/dgallion1/docxlate/internal/pipeline"
	"github.com/dgallion1/docxlate/internal/tokenizer"
	"github.com/dgallion1/docxlate/internal/translate"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

type options struct {
	output    string
	useOCR    bool
	maxTokens int
	workers   int
	retries   int
	backoff   float64
	input     string
}

func parseFlags(args []string, stderr io.Writer) (options, error) {
	var o options
	fs := flag.NewFlagSet("docxlate", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.StringVar(&o.output, "o", "", "output file or directory (default: next to the input)")
	fs.BoolVar(&o.useOCR, "ocr", false, "convert PDF input through the OCR service first")
	fs.IntVar(&o.maxTokens, "max-tokens", 0, "token budget per translation unit")
	fs.IntVar(&o.workers, "workers", 0, "concurrent translation calls")
	fs.IntVar(&o.retries, "retries", 0, "attempts per unit")
	fs.Float64Var(&o.backoff, "backoff", 0, "initial retry backoff in seconds")
	fs.Usage = func() {
		fmt.Fprintln(stderr, "usage: docxlate [flags] input")
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		return o, err
	}
	if fs.NArg() != 1 {
		fs.Usage()
		return o, errors.New("exactly one input file is required")
	}
	o.input = fs.Arg(0)
	return o, nil
}

// apply overrides cfg with any flags that were set.
func (o options) apply(cfg *config.Config) {
	if o.maxTokens > 0 {
		cfg.MaxTokens = o.maxTokens
	}
	if o.workers > 0 {
		cfg.MaxWorkers = o.workers
	}
	if o.retries > 0 {
		cfg.MaxRetries = o.retries
	}
	if o.backoff > 0 {
		cfg.InitialBackoffSeconds = o.backoff
	}
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	opts, err := parseFlags(args, stderr)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 2
	}

	cfg, err := config.Load()
	log, logCloser := logging.New(stderr, logging.Options{Level: cfg.LogLevel, File: cfg.LogFile})
	defer logCloser.Close()
	if err != nil {
		log.Error("invalid configuration", "error", err)
		return 1
	}
	opts.apply(&cfg)
	if err := cfg.Validate(); err != nil {
		log.Error("invalid configuration", "error", err)
		return 1
	}

	input := opts.input
	if opts.useOCR && strings.EqualFold(filepath.Ext(input), ".pdf") {
		conv := ocr.NewClient(cfg.OCRURL, ocr.DefaultOptions(), 0, log)
		md, err := conv.Convert(ctx, input, cfg.OutputDir)
		if err != nil {
			log.Error("ocr failed", "input", input, "error", err)
			return 1
		}
		input = md
	}

	doc, err := pipeline.ParseFile(input)
	if err != nil {
		log.Error("read input failed", "input", input, "error", err)
		return 1
	}

	llm := translate.NewClient(cfg.LLMBaseURL, cfg.LLMAPIKey, cfg.LLMModel, cfg.LLMTimeout)
	defer llm.Close()

	runner := pipeline.NewRunner(llm, tokenizer.New().ForModel(cfg.TokenModel), pipeline.RunnerConfig{
		Chunk: chunker.Config{MaxTokens: cfg.MaxTokens},
		Dispatch: pipeline.DispatchConfig{
			MaxWorkers:     cfg.MaxWorkers,
			MaxRetries:     cfg.MaxRetries,
			InitialBackoff: cfg.InitialBackoff(),
		},
		OutputDir: cfg.OutputDir,
	}, log)

	start := time.Now()
	out, _, err := runner.Translate(ctx, doc, 0, func(done, total int, r pipeline.Result) {
		fmt.Fprintf(stderr, "[%d/%d] unit %d %s\n", done, total, r.Index, resultWord(r))
	})
	if err != nil {
		log.Error("translation aborted", "input", input, "error", err)
		return 1
	}

	outPath := filename.OutputPath(input, opts.output, time.Now())
	if err := pipeline.WriteOutput(outPath, out); err != nil {
		log.Error("write failed", "error", err)
		return 1
	}

	log.Info("translation finished",
		"output", outPath,
		"summary", out.Summary(),
		"duration_ms", time.Since(start).Milliseconds(),
		"llm", llm.Stats.Snapshot(),
	)
	fmt.Fprintf(stdout, "%s: %s\n", out.Summary(), outPath)
	return 0
}

func resultWord(r pipeline.Result) string {
	if r.OK() {
		return "ok"
	}
	return "failed"
}
