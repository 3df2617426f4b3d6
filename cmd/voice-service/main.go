// main package for the voice-service
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/book-expert/logger"
	"github.com/nats-io/nats.go"

	"github.com/voicestudio/voice-service/internal/audio"
	"github.com/voicestudio/voice-service/internal/audiostore"
	"github.com/voicestudio/voice-service/internal/catalog"
	"github.com/voicestudio/voice-service/internal/config"
	"github.com/voicestudio/voice-service/internal/engine"
	"github.com/voicestudio/voice-service/internal/objectstore"
	"github.com/voicestudio/voice-service/internal/server"
	"github.com/voicestudio/voice-service/internal/service"
	"github.com/voicestudio/voice-service/internal/worker"
)

const shutdownTimeout = 15 * time.Second

func setupLogger(logPath string) (*logger.Logger, error) {
	log, err := logger.New(logPath, "voice-service.log")
	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}

	return log, nil
}

func run() error {
	// 1. Create a temporary logger for the bootstrap process.
	bootstrapLog, err := setupLogger(os.TempDir())
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: Failed to create bootstrap logger: %v\n", err)

		return err
	}

	// 2. Load configuration using the central configurator.
	cfg, err := config.Load(bootstrapLog)
	if err != nil {
		bootstrapLog.Error("Failed to load configuration: %v", err)

		return fmt.Errorf("failed to load configuration: %w", err)
	}

	// 3. Initialize the final logger based on the loaded configuration.
	log, err := setupLogger(cfg.Paths.BaseLogsDir)
	if err != nil {
		bootstrapLog.Error("Failed to create final logger: %v", err)

		return fmt.Errorf("failed to create final logger: %w", err)
	}

	defer func() {
		closeErr := log.Close()
		if closeErr != nil {
			fmt.Fprintf(os.Stderr, "error closing logger: %v\n", closeErr)
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	return serve(ctx, cfg, log)
}

func serve(ctx context.Context, cfg *config.Config, log *logger.Logger) error {
	natsConnection, err := nats.Connect(cfg.NATS.URL)
	if err != nil {
		return fmt.Errorf("failed to connect to NATS at %s: %w", cfg.NATS.URL, err)
	}

	defer natsConnection.Close()

	svc, cleanup, err := buildService(ctx, cfg, natsConnection, log)
	if err != nil {
		return err
	}

	defer cleanup()

	natsWorker, err := worker.NewNatsWorker(
		natsConnection, cfg.NATS.SynthesisRequestedSubject,
		cfg.NATS.SynthesisCompletedSubject, svc, log)
	if err != nil {
		return fmt.Errorf("failed to create NATS worker: %w", err)
	}

	workerErr := make(chan error, 1)

	go func() {
		workerErr <- natsWorker.Run(ctx)
	}()

	httpServer := server.New(cfg.Server.Addr(), cfg.Server.CORSOrigins, svc, log)

	go func() {
		<-ctx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		shutdownErr := httpServer.Shutdown(shutdownCtx)
		if shutdownErr != nil {
			log.Error("HTTP server shutdown failed: %v", shutdownErr)
		}
	}()

	log.System("voice-service listening on %s, jobs on subject %s",
		cfg.Server.Addr(), cfg.NATS.SynthesisRequestedSubject)

	err = httpServer.ListenAndServe()
	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("HTTP server failed: %w", err)
	}

	drainErr := <-workerErr
	if drainErr != nil {
		return fmt.Errorf("worker shutdown failed: %w", drainErr)
	}

	return nil
}

// buildService wires the catalog, stores, and engine into the orchestration
// service. The returned cleanup closes everything the service owns.
func buildService(
	ctx context.Context,
	cfg *config.Config,
	natsConnection *nats.Conn,
	log *logger.Logger,
) (*service.Service, func(), error) {
	jetstreamContext, err := natsConnection.JetStream()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create JetStream context: %w", err)
	}

	artifacts, err := objectstore.New(jetstreamContext, cfg.NATS.ArtifactBucket)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create artifact store: %w", err)
	}

	modelCatalog, err := catalog.Open(cfg.Paths.CatalogDBPath, artifacts, log)
	if err != nil {
		return nil, nil, err
	}

	cleanup := func() {
		closeErr := modelCatalog.Close()
		if closeErr != nil {
			log.Error("Failed to close catalog: %v", closeErr)
		}
	}

	presets, err := catalog.LoadPresets(cfg.Paths.PresetsFile)
	if err != nil {
		cleanup()

		return nil, nil, err
	}

	err = modelCatalog.SeedPresets(ctx, presets)
	if err != nil {
		cleanup()

		return nil, nil, err
	}

	generated, err := audiostore.New(cfg.Paths.GeneratedAudioDir)
	if err != nil {
		cleanup()

		return nil, nil, err
	}

	engineClient := engine.New(engine.Options{
		BaseURL:      cfg.Engine.BaseURL,
		Timeout:      time.Duration(cfg.Engine.TimeoutSeconds) * time.Second,
		MaxTextChars: cfg.Engine.MaxTextChars,
		Languages:    cfg.Engine.Languages,
	})

	svc := service.New(service.Options{
		Catalog:         modelCatalog,
		Engine:          engineClient,
		Artifacts:       artifacts,
		Generated:       generated,
		Validator:       audio.NewValidator(validationLimits(cfg)),
		DefaultPresetID: cfg.Engine.DefaultPresetID,
		Logger:          log,
	})

	return svc, cleanup, nil
}

// validationLimits maps the configuration onto validator limits, falling
// back to the defaults for any threshold left unset.
func validationLimits(cfg *config.Config) audio.Limits {
	limits := audio.DefaultLimits()

	if cfg.Validation.MinDurationSeconds > 0 {
		limits.MinDurationSeconds = cfg.Validation.MinDurationSeconds
	}

	if cfg.Validation.MaxDurationSeconds > 0 {
		limits.MaxDurationSeconds = cfg.Validation.MaxDurationSeconds
	}

	if cfg.Validation.MaxSilenceRatio > 0 {
		limits.MaxSilenceRatio = cfg.Validation.MaxSilenceRatio
	}

	if cfg.Validation.MaxClippingRatio > 0 {
		limits.MaxClippingRatio = cfg.Validation.MaxClippingRatio
	}

	if cfg.Validation.MinSNRDB > 0 {
		limits.MinSNRDB = cfg.Validation.MinSNRDB
	}

	return limits
}

func main() {
	err := run()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Service exited with error: %v\n", err)
		os.Exit(1)
	}
}
