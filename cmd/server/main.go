package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/dgallion1/docxlate/internal/api"
	"github.com/dgallion1/docxlate/internal/chunker"
	"github.com/dgallion1/docxlate/internal/config"
	"github.com/dgallion1/docxlate/internal/logging"
	"github.com/dgallion1/docxlate/internal/ocr"
	"github.com/dgallion1/docxlate/internal/pipeline"
	"github.com/dgallion1/docxlate/internal/storage"
	"github.com/dgallion1/docxlate/internal/tokenizer"
	"github.com/dgallion1/docxlate/internal/translate"
)

func main() {
	cfg, err := config.Load()
	log, logCloser := logging.Stdout(logging.Options{Level: cfg.LogLevel, File: cfg.LogFile})
	defer logCloser.Close()
	if err != nil {
		log.Error("invalid configuration", "error", err)
		os.Exit(1)
	}
	if err := cfg.ValidateServer(); err != nil {
		log.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize clients.
	llm := translate.NewClient(cfg.LLMBaseURL, cfg.LLMAPIKey, cfg.LLMModel, cfg.LLMTimeout)
	store, err := newStorage(ctx, cfg, log)
	if err != nil {
		log.Error("storage init failed", "error", err)
		os.Exit(1)
	}

	runner := pipeline.NewRunner(llm, tokenizer.New().ForModel(cfg.TokenModel), pipeline.RunnerConfig{
		Chunk: chunker.Config{MaxTokens: cfg.MaxTokens},
		Dispatch: pipeline.DispatchConfig{
			MaxWorkers:     cfg.MaxWorkers,
			MaxRetries:     cfg.MaxRetries,
			InitialBackoff: cfg.InitialBackoff(),
		},
		OutputDir: cfg.OutputDir,
	}, log).WithStorage(store)
	if cfg.OCRURL != "" {
		runner.WithOCR(ocr.NewClient(cfg.OCRURL, ocr.DefaultOptions(), 0, log), 1)
	}

	// Initialize pipeline.
	orch := pipeline.NewOrchestrator(pipeline.OrchestratorConfig{
		Workers:      cfg.RunWorkers,
		MaxQueueSize: cfg.MaxQueueSize,
		RunTTL:       cfg.JobTTL,
	}, runner, log)
	orch.Start(ctx)

	// Initialize HTTP server.
	srv := api.NewServer(orch, llm, log, cfg)

	httpServer := &http.Server{
		Addr:        ":" + cfg.Port,
		Handler:     srv,
		ReadTimeout: 30 * time.Second,
		// Result downloads and event streams can run long.
		WriteTimeout: 0,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown.
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh
		log.Info("shutting down...")

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		httpServer.Shutdown(shutdownCtx)

		orch.Stop()
		llm.Close()
	}()

	log.Info("starting docxlate",
		"port", cfg.Port,
		"llm_model", cfg.LLMModel,
		"max_tokens", cfg.MaxTokens,
		"max_workers", cfg.MaxWorkers,
		"minio", cfg.MinioEnabled(),
	)
	if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Error("server error", "error", err)
		os.Exit(1)
	}
}

// newStorage publishes to MinIO when configured and to a local directory
// otherwise.
func newStorage(ctx context.Context, cfg config.Config, log *slog.Logger) (storage.Storage, error) {
	if cfg.MinioEnabled() {
		initCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
		defer cancel()
		return storage.NewMinio(initCtx, storage.MinioConfig{
			Endpoint:  cfg.MinioEndpoint,
			AccessKey: cfg.MinioAccessKey,
			SecretKey: cfg.MinioSecretKey,
			Bucket:    cfg.MinioBucket,
			UseSSL:    cfg.MinioUseSSL,
		}, log)
	}
	return storage.NewLocal(filepath.Join(cfg.OutputDir, "published"), log)
}
