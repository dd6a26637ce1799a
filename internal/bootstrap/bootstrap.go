// Package bootstrap builds the shared components used by the commands from
// loaded configuration.
package bootstrap

import (
	"context"
	"fmt"
	"log"
	"time"

	"fleetdocs/internal/analyzer"
	"fleetdocs/internal/config"
	"fleetdocs/internal/extractor"
	"fleetdocs/internal/extractor/claude"
	"fleetdocs/internal/extractor/gemini"
	"fleetdocs/internal/extractor/openai"
	"fleetdocs/internal/extractor/vertex"
	"fleetdocs/internal/pipeline"
	"fleetdocs/internal/port"
	"fleetdocs/internal/repository/firestore"
	"fleetdocs/internal/repository/postgres"
	"fleetdocs/internal/service"
	"fleetdocs/internal/storage/gcs"
	s3storage "fleetdocs/internal/storage/s3"
)

// RegisterProviders adds every generative AI provider to the extractor registry.
func RegisterProviders() {
	gemini.Register()
	claude.Register()
	openai.Register()
	vertex.Register()
}

// NewPipelines builds one analysis pipeline per category. A backend that
// cannot be built is logged and left nil, so analysis requests fail with
// domain.ErrAIConfigMissing instead of the process refusing to start.
func NewPipelines(ctx context.Context, cfg *config.Config) (*pipeline.Set, error) {
	pcfg, err := pipeline.ConfigFromSettings(&cfg.Pipeline)
	if err != nil {
		return nil, fmt.Errorf("pipeline config: %w", err)
	}

	ocr, err := analyzer.NewBackend(ctx, &cfg.Analyzer)
	if err != nil {
		log.Printf("WARNING: analyzer backend not configured: %v", err)
		ocr = nil
	}

	gen, err := extractor.NewBackendFromConfig(&cfg.Extractor)
	if err != nil {
		log.Printf("WARNING: extraction provider not configured: %v", err)
		gen = nil
	}

	return pipeline.NewSet(ocr, gen, pcfg), nil
}

// NewStorage builds the configured cloud drive, or nil for provider "none".
func NewStorage(ctx context.Context, cfg *config.Config) (port.ObjectStorage, error) {
	switch cfg.Storage.Provider {
	case "s3":
		return s3storage.NewS3Client(&cfg.S3)
	case "gcs":
		return gcs.NewGCSClient(ctx, &cfg.GCS)
	case "none", "":
		return nil, nil
	default:
		return nil, fmt.Errorf("unknown storage provider %q", cfg.Storage.Provider)
	}
}

// NewRepository opens the configured record store. The returned close
// function releases its connections.
func NewRepository(ctx context.Context, cfg *config.Config) (port.AnalysisRecordRepository, func() error, error) {
	switch cfg.Store.Driver {
	case "postgres", "":
		db, err := postgres.NewDB(&cfg.DB)
		if err != nil {
			return nil, nil, err
		}
		return postgres.NewAnalysisRecordRepo(db), db.Close, nil
	case "firestore":
		client, err := firestore.NewClient(ctx, cfg.Store.FirestoreProject)
		if err != nil {
			return nil, nil, err
		}
		return firestore.NewAnalysisRecordRepo(client, cfg.Store.FirestoreCollection), client.Close, nil
	default:
		return nil, nil, fmt.Errorf("unknown store driver %q", cfg.Store.Driver)
	}
}

// UploadWorkerConfig converts loaded upload settings.
func UploadWorkerConfig(cfg *config.UploadConfig) service.UploadWorkerConfig {
	return service.UploadWorkerConfig{
		Concurrency: cfg.Concurrency,
		Buffer:      cfg.Buffer,
		MaxAttempts: cfg.MaxAttempts,
		Timeout:     time.Duration(cfg.TimeoutSecs) * time.Second,
	}
}

// PresignExpiry returns the download URL lifetime of the configured cloud drive.
func PresignExpiry(cfg *config.Config) int64 {
	if cfg.Storage.Provider == "gcs" {
		return cfg.GCS.PresignExpiry
	}
	return cfg.S3.PresignExpiry
}
