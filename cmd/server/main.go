package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"fleetdocs/internal/bootstrap"
	"fleetdocs/internal/config"
	"fleetdocs/internal/handler"
	"fleetdocs/internal/router"
	"fleetdocs/internal/service"
)

// @title Fleetdocs API
// @version 1.0
// @description Ship document analysis: chunked PDF analysis, field extraction and fleet document registers.
// @BasePath /api/v1

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Printf("WARNING: reading .env: %v", err)
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	bootstrap.RegisterProviders()

	// Initialize record store
	repo, closeRepo, err := bootstrap.NewRepository(ctx, cfg)
	if err != nil {
		return fmt.Errorf("failed to open record store: %w", err)
	}
	defer closeRepo()

	// Initialize storage
	storage, err := bootstrap.NewStorage(ctx, cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize storage: %w", err)
	}

	// Initialize pipelines
	pipelines, err := bootstrap.NewPipelines(ctx, cfg)
	if err != nil {
		return fmt.Errorf("failed to build analysis pipelines: %w", err)
	}

	// Start the deferred upload worker
	// Upload worker; stopped only after the HTTP server has drained.
	var queue service.UploadQueue
	workerCtx, stopWorker := context.WithCancel(context.Background())
	defer stopWorker()
	workerDone := make(chan struct{})
	if storage != nil {
		worker := service.NewUploadWorker(storage, repo, bootstrap.UploadWorkerConfig(&cfg.Upload))
		queue = worker
		go func() {
			worker.Start(workerCtx)
			close(workerDone)
		}()
	} else {
		close(workerDone)
		log.Println("WARNING: no storage provider configured, original files will not be kept")
	}

	analysisSvc := service.NewAnalysisService(pipelines, repo, storage, queue, service.AnalysisServiceConfig{
		KeyPrefix:     cfg.Storage.KeyPrefix,
		URLExpirySecs: bootstrap.PresignExpiry(cfg),
	})

	// Initialize handlers
	maxUpload := cfg.Pipeline.MaxFileSizeMB << 20
	analysisH := handler.NewAnalysisHandler(analysisSvc, maxUpload)
	healthH := handler.NewHealthHandler(repo)

	// Setup router
	r := router.Setup(analysisH, healthH, cfg.CORS.AllowedOrigins)

	srv := &http.Server{
		Addr:         cfg.Server.Port,
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Printf("Server starting on %s", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server failed: %w", err)
		}
	case <-ctx.Done():
	}

	log.Println("Shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	shutdownErr := srv.Shutdown(shutdownCtx)
	stopWorker()
	<-workerDone
	if shutdownErr != nil {
		return fmt.Errorf("server shutdown: %w", shutdownErr)
	}
	log.Println("Server stopped")
	return nil
}
