// Package config provides environment-driven configuration for the mindmap server.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Secret wraps a sensitive string to prevent accidental logging or marshalling.
type Secret string

// String implements fmt.Stringer, returning a redacted placeholder.
func (s Secret) String() string { return "[REDACTED]" }

// GoString implements fmt.GoStringer, returning a redacted placeholder.
func (s Secret) GoString() string { return "[REDACTED]" }

// MarshalText implements encoding.TextMarshaler, returning a redacted placeholder.
func (s Secret) MarshalText() ([]byte, error) { return []byte("[REDACTED]"), nil }

// Value returns the underlying secret string.
func (s Secret) Value() string { return string(s) }

// Generator backends.
const (
	GeneratorOpenAI = "openai"
	GeneratorStub   = "stub"
)

// Config holds all application configuration values.
type Config struct {
	DatabaseURL      Secret
	DBMaxConns       int
	Port             string
	ListenHost       string
	CORSOrigins      []string
	LogLevel         string
	LogFile          string
	Generator        string
	OpenAIAPIKey     Secret
	OpenAIBaseURL    string
	OpenAIModel      string
	GenerateTimeout  time.Duration
	PDFToTextPath    string
	CacheSizeMB      int
	SyncQueueSize    int
	ExportMaxRetries int
}

// Load reads configuration from environment variables with sensible defaults.
func Load() (*Config, error) {
	cfg := &Config{
		DatabaseURL:   Secret(envOrDefault("DATABASE_URL", "")),
		Port:          envOrDefault("PORT", "3030"),
		ListenHost:    envOrDefault("LISTEN_HOST", "127.0.0.1"),
		LogLevel:      envOrDefault("LOG_LEVEL", "info"),
		LogFile:       envOrDefault("LOG_FILE", ""),
		Generator:     envOrDefault("GENERATOR", GeneratorOpenAI),
		OpenAIAPIKey:  Secret(envOrDefault("OPENAI_API_KEY", "")),
		OpenAIBaseURL: envOrDefault("OPENAI_BASE_URL", "https://api.openai.com/v1"),
		OpenAIModel:   envOrDefault("OPENAI_MODEL", "gpt-4o-mini"),
		PDFToTextPath: envOrDefault("PDFTOTEXT_PATH", "pdftotext"),
	}

	var err error

	if cfg.DBMaxConns, err = envInt("DB_MAX_CONNS", "21", 2, 200); err != nil {
		return nil, err
	}

	if cfg.CacheSizeMB, err = envInt("CACHE_SIZE_MB", "64", 1, 4096); err != nil {
		return nil, err
	}

	if cfg.SyncQueueSize, err = envInt("SYNC_QUEUE_SIZE", "1000", 1, 100000); err != nil {
		return nil, err
	}

	if cfg.ExportMaxRetries, err = envInt("EXPORT_MAX_RETRIES", "10", 0, 100); err != nil {
		return nil, err
	}

	timeout, err := time.ParseDuration(envOrDefault("GENERATE_TIMEOUT", "2m"))
	if err != nil || timeout <= 0 {
		return nil, fmt.Errorf("GENERATE_TIMEOUT must be a positive duration")
	}
	cfg.GenerateTimeout = timeout

	origins := envOrDefault("CORS_ORIGINS", "http://localhost:3000")
	cfg.CORSOrigins = strings.Split(origins, ",")

	for i, o := range cfg.CORSOrigins {
		cfg.CORSOrigins[i] = strings.TrimSpace(o)
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}

	return cfg, nil
}

// Addr returns the listen address in host:port format.
func (c *Config) Addr() string {
	return c.ListenHost + ":" + c.Port
}

// CacheSizeBytes returns the in-memory cache budget.
func (c *Config) CacheSizeBytes() int {
	return c.CacheSizeMB * 1024 * 1024
}

func envInt(key, fallback string, lo, hi int) (int, error) {
	v, err := strconv.Atoi(envOrDefault(key, fallback))
	if err != nil || v < lo || v > hi {
		return 0, fmt.Errorf("%s must be an integer between %d and %d", key, lo, hi)
	}

	return v, nil
}

func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}

	return fallback
}
