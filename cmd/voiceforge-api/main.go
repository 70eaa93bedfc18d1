// main package for the voiceforge API service.
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/book-expert/logger"
	"github.com/nats-io/nats.go"

	"github.com/voiceforge/voiceforge-api/internal/auth"
	"github.com/voiceforge/voiceforge-api/internal/config"
	"github.com/voiceforge/voiceforge-api/internal/events"
	"github.com/voiceforge/voiceforge-api/internal/httpapi"
	"github.com/voiceforge/voiceforge-api/internal/objectstore"
	"github.com/voiceforge/voiceforge-api/internal/qwen"
	"github.com/voiceforge/voiceforge-api/internal/service"
	"github.com/voiceforge/voiceforge-api/internal/signer"
	"github.com/voiceforge/voiceforge-api/internal/store"
)

const seedTimeout = 30 * time.Second

func setupLogger(logPath string) (*logger.Logger, error) {
	log, err := logger.New(logPath, "voiceforge-api.log")
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
	finalLog, err := setupLogger(cfg.Paths.BaseLogsDir)
	if err != nil {
		bootstrapLog.Error("Failed to create final logger: %v", err)

		return fmt.Errorf("failed to create final logger: %w", err)
	}

	defer func() {
		closeErr := finalLog.Close()
		if closeErr != nil {
			fmt.Fprintf(os.Stderr, "error closing final logger: %v\n", closeErr)
		}
	}()

	return serve(cfg, finalLog)
}

func serve(cfg *config.Config, log *logger.Logger) error {
	natsConnection, err := nats.Connect(cfg.NATS.URL)
	if err != nil {
		return fmt.Errorf("failed to connect to NATS at %s: %w", cfg.NATS.URL, err)
	}
	defer natsConnection.Close()

	jetstreamContext, err := natsConnection.JetStream()
	if err != nil {
		return fmt.Errorf("failed to create JetStream context: %w", err)
	}

	dataStore, err := store.New(jetstreamContext, store.Buckets{
		Voices:      cfg.NATS.VoicesBucket,
		Generations: cfg.NATS.GenerationsBucket,
		Profiles:    cfg.NATS.ProfilesBucket,
	})
	if err != nil {
		return fmt.Errorf("failed to initialize data store: %w", err)
	}

	audioStore, err := objectstore.New(jetstreamContext, cfg.NATS.AudioObjectStoreBucket)
	if err != nil {
		return fmt.Errorf("failed to initialize audio store: %w", err)
	}

	seedCtx, cancel := context.WithTimeout(context.Background(), seedTimeout)
	defer cancel()

	err = store.SeedDefaultVoices(seedCtx, dataStore)
	if err != nil {
		return fmt.Errorf("failed to seed default voices: %w", err)
	}

	urlSigner, err := signer.New(cfg.Secrets.SigningSecret)
	if err != nil {
		return fmt.Errorf("failed to create URL signer: %w", err)
	}

	svc := service.New(service.Options{
		Voices:      dataStore,
		Generations: dataStore,
		Profiles:    dataStore,
		Objects:     audioStore,
		Synthesizer: qwen.NewClient(
			cfg.Qwen.BaseURL,
			cfg.Secrets.QwenAPIKey,
			time.Duration(cfg.Qwen.TimeoutSeconds)*time.Second,
		),
		Signer:       urlSigner,
		Publisher:    events.NewNatsPublisher(natsConnection, cfg.NATS.GenerationCreatedSubject),
		Logger:       log,
		PublicURL:    cfg.HTTP.PublicBaseURL,
		SignedURLTTL: time.Duration(cfg.Storage.SignedURLTTLSeconds) * time.Second,
	})

	verifier := auth.NewHTTPVerifier(
		cfg.Auth.BaseURL,
		time.Duration(cfg.Auth.TimeoutSeconds)*time.Second,
	)

	server := httpapi.New(svc, verifier, urlSigner, log)

	log.System("VoiceForge API listening on %s", cfg.HTTP.ListenAddr)

	runErr := server.Run(cfg.HTTP.ListenAddr)
	if runErr != nil {
		return fmt.Errorf("HTTP server exited: %w", runErr)
	}

	return nil
}

func main() {
	err := run()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Service exited with error: %v\n", err)
		os.Exit(1)
	}
}
