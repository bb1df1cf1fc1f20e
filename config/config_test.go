package config

import (
	"runtime"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromEnvDefaults(t *testing.T) {
	cfg, err := FromEnv()
	require.NoError(t, err)

	assert.Equal(t, "0.0.0.0:8088", cfg.ServerAddr)
	assert.Equal(t, "images/full", cfg.FullImagesDir)
	assert.Equal(t, "images/preview", cfg.PreviewImagesDir)
	assert.Equal(t, runtime.NumCPU(), cfg.Workers)
	assert.Equal(t, 30*time.Second, cfg.FetchTimeout)
	assert.Equal(t, int64(32<<20), cfg.MaxImageBytes)
	assert.Equal(t, int64(16777216), cfg.MaxImagePixels)
	assert.Equal(t, PolicyIsolate, cfg.FailurePolicy)
	assert.Equal(t, []string{"jpeg", "png", "gif", "webp", "bmp", "tiff"}, cfg.AllowedSubtypes)
	assert.Empty(t, cfg.RabbitMqURL)
	assert.Empty(t, cfg.AwsBucketName)
}

func TestFromEnvOverrides(t *testing.T) {
	t.Setenv("SERVER_ADDR", "127.0.0.1:9000")
	t.Setenv("FULL_IMAGES_DIR", "/data/full")
	t.Setenv("WORKERS", "3")
	t.Setenv("FETCH_TIMEOUT", "5s")
	t.Setenv("MAX_IMAGE_BYTES", "1024")
	t.Setenv("MAX_IMAGE_PIXELS", "4096")
	t.Setenv("FAILURE_POLICY", "ABORT")
	t.Setenv("ALLOWED_SUBTYPES", " PNG, jpeg ,,")
	t.Setenv("AWS_BUCKET_NAME", "uploads")

	cfg, err := FromEnv()
	require.NoError(t, err)

	assert.Equal(t, "127.0.0.1:9000", cfg.ServerAddr)
	assert.Equal(t, "/data/full", cfg.FullImagesDir)
	assert.Equal(t, 3, cfg.Workers)
	assert.Equal(t, 5*time.Second, cfg.FetchTimeout)
	assert.Equal(t, int64(1024), cfg.MaxImageBytes)
	assert.Equal(t, int64(4096), cfg.MaxImagePixels)
	assert.Equal(t, PolicyAbort, cfg.FailurePolicy)
	assert.Equal(t, []string{"png", "jpeg"}, cfg.AllowedSubtypes)
	assert.Equal(t, "uploads", cfg.AwsBucketName)
}

func TestFromEnvInvalid(t *testing.T) {
	tests := []struct {
		name string
		key  string
		val  string
	}{
		{"non numeric workers", "WORKERS", "many"},
		{"zero workers", "WORKERS", "0"},
		{"bad timeout", "FETCH_TIMEOUT", "soon"},
		{"negative size cap", "MAX_IMAGE_BYTES", "-1"},
		{"zero pixel cap", "MAX_IMAGE_PIXELS", "0"},
		{"unknown policy", "FAILURE_POLICY", "retry"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(tt.key, tt.val)
			_, err := FromEnv()
			assert.Error(t, err)
		})
	}
}
