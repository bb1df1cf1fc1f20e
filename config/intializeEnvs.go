package config

import (
	"fmt"
	"log/slog"
	"os"
	"runtime"
	"strconv"
	"strings"
	"time"

	godotenv "github.com/joho/godotenv"
)

const (
	PolicyIsolate = "isolate"
	PolicyAbort   = "abort"
)

type Config struct {
	ServerAddr         string
	FullImagesDir      string
	PreviewImagesDir   string
	RegistryDir        string
	Workers            int
	FetchTimeout       time.Duration
	MaxImageBytes      int64
	MaxImagePixels     int64
	FailurePolicy      string
	AllowedSubtypes    []string
	RateLimitPerMinute int
	RabbitMqURL        string
	RabbitMqExchange   string
	RabbitMqRoutingKey string
	AwsBucketName      string
}

func NewConfig() *Config {
	return &Config{
		ServerAddr:         "0.0.0.0:8088",
		FullImagesDir:      "images/full",
		PreviewImagesDir:   "images/preview",
		RegistryDir:        "images/registry",
		Workers:            runtime.NumCPU(),
		FetchTimeout:       30 * time.Second,
		MaxImageBytes:      32 << 20,
		MaxImagePixels:     1 << 24,
		FailurePolicy:      PolicyIsolate,
		AllowedSubtypes:    []string{"jpeg", "png", "gif", "webp", "bmp", "tiff"},
		RateLimitPerMinute: 600,
		RabbitMqExchange:   "image_ingest",
		RabbitMqRoutingKey: "asset.stored",
	}
}

// loadDotEnv picks the env file from APP_ENV. A missing file is not an error,
// the process environment is used as is.
func loadDotEnv() {
	switch os.Getenv("APP_ENV") {
	case "dev", "":
		if err := godotenv.Overload(".env.dev"); err == nil {
			slog.Info("loaded env file", "file", ".env.dev")
		} else if err := godotenv.Overload(".env"); err == nil {
			slog.Info("loaded env file", "file", ".env")
		} else {
			slog.Debug("no .env.dev or .env found, using system environment variables")
		}
	default:
		fname := ".env." + os.Getenv("APP_ENV")
		if err := godotenv.Overload(fname); err == nil {
			slog.Info("loaded env file", "file", fname)
		} else if err := godotenv.Overload(".env"); err == nil {
			slog.Info("loaded env file", "file", ".env")
		} else {
			slog.Debug("no env file found, using system environment variables", "file", fname)
		}
	}
}

// InitializeEnvs loads the env file for APP_ENV and builds a Config from the
// environment, falling back to defaults for unset variables.
func InitializeEnvs() (*Config, error) {
	loadDotEnv()
	return FromEnv()
}

// FromEnv reads the configuration from the current process environment only.
func FromEnv() (*Config, error) {
	cfg := NewConfig()

	cfg.ServerAddr = getEnv("SERVER_ADDR", cfg.ServerAddr)
	cfg.FullImagesDir = getEnv("FULL_IMAGES_DIR", cfg.FullImagesDir)
	cfg.PreviewImagesDir = getEnv("PREVIEW_IMAGES_DIR", cfg.PreviewImagesDir)
	cfg.RegistryDir = getEnv("REGISTRY_DIR", cfg.RegistryDir)
	cfg.RabbitMqURL = os.Getenv("RABBITMQ_URL")
	cfg.RabbitMqExchange = getEnv("RABBITMQ_EXCHANGE", cfg.RabbitMqExchange)
	cfg.RabbitMqRoutingKey = getEnv("RABBITMQ_ROUTING_KEY", cfg.RabbitMqRoutingKey)
	cfg.AwsBucketName = os.Getenv("AWS_BUCKET_NAME")

	var err error
	if cfg.Workers, err = getEnvInt("WORKERS", cfg.Workers); err != nil {
		return nil, err
	}
	if cfg.Workers < 1 {
		return nil, fmt.Errorf("WORKERS must be at least 1, got %d", cfg.Workers)
	}
	if cfg.RateLimitPerMinute, err = getEnvInt("RATE_LIMIT_PER_MINUTE", cfg.RateLimitPerMinute); err != nil {
		return nil, err
	}
	maxBytes, err := getEnvInt("MAX_IMAGE_BYTES", int(cfg.MaxImageBytes))
	if err != nil {
		return nil, err
	}
	if maxBytes < 1 {
		return nil, fmt.Errorf("MAX_IMAGE_BYTES must be positive, got %d", maxBytes)
	}
	cfg.MaxImageBytes = int64(maxBytes)

	maxPixels, err := getEnvInt("MAX_IMAGE_PIXELS", int(cfg.MaxImagePixels))
	if err != nil {
		return nil, err
	}
	if maxPixels < 1 {
		return nil, fmt.Errorf("MAX_IMAGE_PIXELS must be positive, got %d", maxPixels)
	}
	cfg.MaxImagePixels = int64(maxPixels)

	if v := os.Getenv("FETCH_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return nil, fmt.Errorf("invalid FETCH_TIMEOUT %q: %w", v, err)
		}
		cfg.FetchTimeout = d
	}

	policy := strings.ToLower(getEnv("FAILURE_POLICY", cfg.FailurePolicy))
	if policy != PolicyIsolate && policy != PolicyAbort {
		return nil, fmt.Errorf("FAILURE_POLICY must be %q or %q, got %q", PolicyIsolate, PolicyAbort, policy)
	}
	cfg.FailurePolicy = policy

	if v := os.Getenv("ALLOWED_SUBTYPES"); v != "" {
		cfg.AllowedSubtypes = splitList(v)
	}

	return cfg, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return defaultValue, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, v, err)
	}
	return n, nil
}

func splitList(v string) []string {
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for i := range parts {
		p := strings.ToLower(strings.TrimSpace(parts[i]))
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}
