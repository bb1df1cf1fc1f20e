package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/mahirjain10/image-ingest/config"
	"github.com/mahirjain10/image-ingest/internal/aws"
	"github.com/mahirjain10/image-ingest/internal/httpapi"
	"github.com/mahirjain10/image-ingest/internal/ingest"
	"github.com/mahirjain10/image-ingest/internal/logging"
	"github.com/mahirjain10/image-ingest/internal/queue"
	"github.com/mahirjain10/image-ingest/internal/store"
	"github.com/mahirjain10/image-ingest/internal/transformation"
)

const shutdownTimeout = 15 * time.Second

type App struct {
	config    *config.Config
	registry  *store.Registry
	pipeline  *ingest.Pipeline
	publisher *queue.AssetPublisher
	server    *http.Server
}

// NewApp creates and initializes a new App instance with all dependencies
func NewApp(ctx context.Context, envConfig *config.Config) (*App, error) {
	for _, dir := range []string{envConfig.FullImagesDir, envConfig.PreviewImagesDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create storage root %s: %w", dir, err)
		}
	}

	registry, err := store.NewRegistry(envConfig.RegistryDir)
	if err != nil {
		return nil, err
	}
	app := &App{config: envConfig, registry: registry}

	opts := ingest.Options{
		Writer:      ingest.NewWriter(envConfig.FullImagesDir, envConfig.MaxImageBytes),
		Thumbnailer: transformation.NewThumbnailer(envConfig.FullImagesDir, envConfig.PreviewImagesDir).WithMaxPixels(envConfig.MaxImagePixels),
		Classifier:  ingest.NewClassifier(envConfig.AllowedSubtypes),
		HTTPClient:  &http.Client{Timeout: envConfig.FetchTimeout},
		Recorder:    registry,
		Workers:     envConfig.Workers,
		Policy:      ingest.FailurePolicy(envConfig.FailurePolicy),
	}

	if envConfig.AwsBucketName != "" {
		awsConfig, err := config.InitializeAws(ctx)
		if err != nil {
			app.Close()
			return nil, fmt.Errorf("failed to initialize AWS config: %w", err)
		}
		opts.S3 = aws.NewS3Service(aws.NewS3Client(awsConfig), envConfig.AwsBucketName, envConfig.FetchTimeout)
		slog.Info("s3 source enabled", "bucket", envConfig.AwsBucketName)
	}

	if envConfig.RabbitMqURL != "" {
		publisher, err := queue.NewAssetPublisher(envConfig.RabbitMqURL, envConfig.RabbitMqExchange, envConfig.RabbitMqRoutingKey)
		if err != nil {
			app.Close()
			return nil, err
		}
		app.publisher = publisher
		opts.Publisher = publisher
		slog.Info("asset events enabled", "exchange", envConfig.RabbitMqExchange, "routing_key", envConfig.RabbitMqRoutingKey)
	}

	pipeline, err := ingest.NewPipeline(opts)
	if err != nil {
		app.Close()
		return nil, fmt.Errorf("failed to build pipeline: %w", err)
	}

	app.pipeline = pipeline

	handler := httpapi.NewHandler(pipeline, registry, httpapi.JSONBodyLimit(envConfig.MaxImageBytes))
	router := httpapi.NewRouter(handler, httpapi.RouterOptions{
		FullImagesDir:      envConfig.FullImagesDir,
		PreviewImagesDir:   envConfig.PreviewImagesDir,
		RateLimitPerMinute: envConfig.RateLimitPerMinute,
	})
	app.server = &http.Server{
		Addr:              envConfig.ServerAddr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return app, nil
}

// Run serves until ctx is cancelled, then drains in-flight requests.
func (a *App) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		slog.Info("server listening", "addr", a.config.ServerAddr, "workers", a.config.Workers, "failure_policy", a.pipeline.Policy())
		errCh <- a.server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	slog.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := a.server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}
	return nil
}

// Close releases the registry and the amqp connection.
func (a *App) Close() {
	if a.publisher != nil {
		if err := a.publisher.Close(); err != nil {
			slog.Warn("error closing publisher", "error", err)
		}
	}
	if a.registry != nil {
		if err := a.registry.Close(); err != nil {
			slog.Warn("error closing registry", "error", err)
		}
	}
}

var rootCmd = &cobra.Command{
	Use:           "image-ingest",
	Short:         "Accepts images over HTTP and stores them with a 100x100 preview",
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		if env, _ := cmd.Flags().GetString("env"); env != "" {
			if err := os.Setenv("APP_ENV", env); err != nil {
				return err
			}
		}

		envConfig, err := config.InitializeEnvs()
		if err != nil {
			return fmt.Errorf("failed to initialize environment config: %w", err)
		}
		slog.SetDefault(logging.CreateLogger())

		if addr, _ := cmd.Flags().GetString("addr"); addr != "" {
			envConfig.ServerAddr = addr
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		app, err := NewApp(ctx, envConfig)
		if err != nil {
			return err
		}
		defer app.Close()

		return app.Run(ctx)
	},
}

func init() {
	rootCmd.Flags().String("addr", "", "bind address, overrides SERVER_ADDR")
	rootCmd.Flags().String("env", "", "env file suffix, overrides APP_ENV")
}

func main() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		slog.Error("image-ingest failed", "error", err)
		os.Exit(1)
	}
}
