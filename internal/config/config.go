package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	// Chunking
	MaxTokens  int    `yaml:"max_tokens"`
	TokenModel string `yaml:"token_model"`

	// Dispatch
	MaxWorkers            int     `yaml:"max_workers"`
	MaxRetries            int     `yaml:"max_retries"`
	InitialBackoffSeconds float64 `yaml:"initial_backoff_seconds"`

	// Translation service
	LLMBaseURL string        `yaml:"llm_base_url"`
	LLMAPIKey  string        `yaml:"llm_api_key"`
	LLMModel   string        `yaml:"llm_model"`
	LLMTimeout time.Duration `yaml:"llm_timeout"`

	// OCR
	OCRURL string `yaml:"ocr_url"`

	OutputDir string `yaml:"output_dir"`

	// Server
	Port           string        `yaml:"port"`
	APIKey         string        `yaml:"api_key"`
	RunWorkers     int           `yaml:"run_workers"`
	MaxQueueSize   int           `yaml:"max_queue_size"`
	JobTTL         time.Duration `yaml:"job_ttl"`
	MaxUploadBytes int64         `yaml:"max_upload_bytes"`

	// Artifact publishing; disabled when MinioEndpoint is empty.
	MinioEndpoint  string `yaml:"minio_endpoint"`
	MinioAccessKey string `yaml:"minio_access_key"`
	MinioSecretKey string `yaml:"minio_secret_key"`
	MinioBucket    string `yaml:"minio_bucket"`
	MinioUseSSL    bool   `yaml:"minio_use_ssl"`

	// Logging
	LogLevel string `yaml:"log_level"`
	LogFile  string `yaml:"log_file"`
}

// Defaults returns the built-in configuration.
func Defaults() Config {
	return Config{
		MaxTokens:  2048,
		TokenModel: "gpt-3.5-turbo",

		MaxWorkers:            3,
		MaxRetries:            3,
		InitialBackoffSeconds: 1.0,

		LLMBaseURL: "https://api.deepseek.com",
		LLMModel:   "deepseek-chat",
		LLMTimeout: 5 * time.Minute,

		OCRURL:    "http://localhost:8000/file_parse",
		OutputDir: "output",

		Port:           "8091",
		RunWorkers:     2,
		MaxQueueSize:   50,
		JobTTL:         1 * time.Hour,
		MaxUploadBytes: 52428800, // 50MB

		MinioBucket: "docxlate",

		LogLevel: "info",
	}
}

// Load builds the configuration from defaults, an optional YAML file named by
// DOCXLATE_CONFIG, then the environment. A .env file in the working directory
// is loaded first if present.
func Load() (Config, error) {
	_ = godotenv.Load()

	cfg := Defaults()
	if path := os.Getenv("DOCXLATE_CONFIG"); path != "" {
		if err := loadFile(path, &cfg); err != nil {
			return cfg, err
		}
	}
	applyEnv(&cfg)
	cfg.fillZero()
	return cfg, nil
}

func loadFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}
	return nil
}

func applyEnv(cfg *Config) {
	cfg.MaxTokens = envInt("MAX_TOKENS", cfg.MaxTokens)
	cfg.TokenModel = envOr("TOKEN_MODEL", cfg.TokenModel)

	cfg.MaxWorkers = envInt("MAX_WORKERS", cfg.MaxWorkers)
	cfg.MaxRetries = envInt("MAX_RETRIES", cfg.MaxRetries)
	cfg.InitialBackoffSeconds = envFloat("INITIAL_BACKOFF_SECONDS", cfg.InitialBackoffSeconds)

	cfg.LLMBaseURL = envOr("LLM_BASE_URL", cfg.LLMBaseURL)
	cfg.LLMAPIKey = envOr("LLM_API_KEY", cfg.LLMAPIKey)
	cfg.LLMModel = envOr("LLM_MODEL", cfg.LLMModel)
	cfg.LLMTimeout = envDuration("LLM_TIMEOUT", cfg.LLMTimeout)

	cfg.OCRURL = envOr("OCR_URL", cfg.OCRURL)
	cfg.OutputDir = envOr("OUTPUT_DIR", cfg.OutputDir)

	cfg.Port = envOr("PORT", cfg.Port)
	cfg.APIKey = envOr("DOCXLATE_API_KEY", cfg.APIKey)
	cfg.RunWorkers = envInt("RUN_WORKERS", cfg.RunWorkers)
	cfg.MaxQueueSize = envInt("MAX_QUEUE_SIZE", cfg.MaxQueueSize)
	cfg.JobTTL = envDuration("JOB_TTL", cfg.JobTTL)
	cfg.MaxUploadBytes = envInt64("MAX_UPLOAD_BYTES", cfg.MaxUploadBytes)

	cfg.MinioEndpoint = envOr("MINIO_ENDPOINT", cfg.MinioEndpoint)
	cfg.MinioAccessKey = envOr("MINIO_ACCESS_KEY", cfg.MinioAccessKey)
	cfg.MinioSecretKey = envOr("MINIO_SECRET_KEY", cfg.MinioSecretKey)
	cfg.MinioBucket = envOr("MINIO_BUCKET", cfg.MinioBucket)
	cfg.MinioUseSSL = envBool("MINIO_USE_SSL", cfg.MinioUseSSL)

	cfg.LogLevel = envOr("LOG_LEVEL", cfg.LogLevel)
	cfg.LogFile = envOr("LOG_FILE", cfg.LogFile)
}

// fillZero restores defaults for non-positive numeric settings.
func (c *Config) fillZero() {
	def := Defaults()
	if c.MaxTokens <= 0 {
		c.MaxTokens = def.MaxTokens
	}
	if c.MaxWorkers <= 0 {
		c.MaxWorkers = def.MaxWorkers
	}
	if c.MaxRetries <= 0 {
		c.MaxRetries = def.MaxRetries
	}
	if c.InitialBackoffSeconds <= 0 {
		c.InitialBackoffSeconds = def.InitialBackoffSeconds
	}
	if c.LLMTimeout <= 0 {
		c.LLMTimeout = def.LLMTimeout
	}
	if c.RunWorkers <= 0 {
		c.RunWorkers = def.RunWorkers
	}
	if c.MaxQueueSize <= 0 {
		c.MaxQueueSize = def.MaxQueueSize
	}
	if c.JobTTL <= 0 {
		c.JobTTL = def.JobTTL
	}
	if c.MaxUploadBytes <= 0 {
		c.MaxUploadBytes = def.MaxUploadBytes
	}
}

// InitialBackoff returns the first retry delay.
func (c Config) InitialBackoff() time.Duration {
	return time.Duration(c.InitialBackoffSeconds * float64(time.Second))
}

// MinioEnabled reports whether artifact publishing is configured.
func (c Config) MinioEnabled() bool {
	return c.MinioEndpoint != ""
}

// Validate checks what every entry point needs.
func (c Config) Validate() error {
	if c.LLMAPIKey == "" {
		return errors.New("LLM_API_KEY is required")
	}
	if c.LLMBaseURL == "" {
		return errors.New("LLM_BASE_URL is required")
	}
	if c.MinioEnabled() && (c.MinioAccessKey == "" || c.MinioSecretKey == "") {
		return errors.New("MINIO_ACCESS_KEY and MINIO_SECRET_KEY are required when MINIO_ENDPOINT is set")
	}
	return nil
}

// ValidateServer adds the checks only the HTTP service needs.
func (c Config) ValidateServer() error {
	if err := c.Validate(); err != nil {
		return err
	}
	if c.APIKey == "" {
		return errors.New("DOCXLATE_API_KEY is required")
	}
	return nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envInt64(key string, fallback int64) int64 {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			return n
		}
	}
	return fallback
}

func envFloat(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
