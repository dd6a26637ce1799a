package service

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"

	"fleetdocs/internal/domain"
	"fleetdocs/internal/port"
)

// UploadTask is a deferred upload of an analysed document's original file.
type UploadTask struct {
	RecordID    uuid.UUID
	Key         string
	ContentType string
	// Payload is the base64 encoded file from the analysis result.
	Payload string
}

// UploadQueue accepts deferred uploads without blocking the caller.
type UploadQueue interface {
	Enqueue(task UploadTask) error
}

// UploadWorkerConfig holds settings for the upload worker.
type UploadWorkerConfig struct {
	Concurrency int
	Buffer      int
	MaxAttempts int
	Timeout     time.Duration
	RetryDelay  time.Duration
}

// UploadWorker drains upload tasks onto the cloud drive and records the
// outcome on the analysis record.
type UploadWorker struct {
	storage port.ObjectStorage
	repo    port.AnalysisRecordRepository
	cfg     UploadWorkerConfig
	tasks   chan UploadTask
	wg      sync.WaitGroup

	mu      sync.RWMutex
	closing bool
}

// NewUploadWorker creates a new UploadWorker.
func NewUploadWorker(storage port.ObjectStorage, repo port.AnalysisRecordRepository, cfg UploadWorkerConfig) *UploadWorker {
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 1
	}
	if cfg.Buffer <= 0 {
		cfg.Buffer = 64
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 1
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 2 * time.Minute
	}
	if cfg.RetryDelay <= 0 {
		cfg.RetryDelay = time.Second
	}
	return &UploadWorker{
		storage: storage,
		repo:    repo,
		cfg:     cfg,
		tasks:   make(chan UploadTask, cfg.Buffer),
	}
}

// Enqueue queues task. It fails with domain.ErrUploadQueueFull instead of
// blocking when the buffer is full, and with domain.ErrUploadQueueClosed once
// the worker is shutting down.
func (w *UploadWorker) Enqueue(task UploadTask) error {
	w.mu.RLock()
	defer w.mu.RUnlock()
	if w.closing {
		return domain.ErrUploadQueueClosed
	}
	select {
	case w.tasks <- task:
		return nil
	default:
		return domain.ErrUploadQueueFull
	}
}

// Start processes queued uploads until ctx is canceled. On cancellation it
// stops accepting tasks, uploads everything still buffered and blocks until
// all uploads have finished.
func (w *UploadWorker) Start(ctx context.Context) {
	sem := make(chan struct{}, w.cfg.Concurrency)

	log.Printf("uploadWorker: started (concurrency=%d, buffer=%d, maxAttempts=%d)",
		w.cfg.Concurrency, w.cfg.Buffer, w.cfg.MaxAttempts)

	for {
		select {
		case <-ctx.Done():
			w.mu.Lock()
			w.closing = true
			w.mu.Unlock()

			log.Printf("uploadWorker: shutting down, draining %d queued uploads...", len(w.tasks))
			for {
				select {
				case task := <-w.tasks:
					w.dispatch(sem, task)
				default:
					w.wg.Wait()
					log.Printf("uploadWorker: shutdown complete")
					return
				}
			}
		case task := <-w.tasks:
			w.dispatch(sem, task)
		}
	}
}

func (w *UploadWorker) dispatch(sem chan struct{}, task UploadTask) {
	sem <- struct{}{} // acquire
	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		defer func() { <-sem }() // release

		// Detached from the worker ctx so queued uploads complete during shutdown.
		w.process(context.Background(), task)
	}()
}

func (w *UploadWorker) process(ctx context.Context, task UploadTask) {
	data, err := base64.StdEncoding.DecodeString(task.Payload)
	if err != nil {
		w.finish(ctx, task, fmt.Errorf("decoding payload: %w", err))
		return
	}

	var lastErr error
	for attempt := 1; attempt <= w.cfg.MaxAttempts; attempt++ {
		if attempt > 1 {
			time.Sleep(time.Duration(attempt-1) * w.cfg.RetryDelay)
		}
		lastErr = w.upload(ctx, task, data)
		if lastErr == nil {
			log.Printf("uploadWorker: record %s uploaded to %s (attempt %d)", task.RecordID, task.Key, attempt)
			w.finish(ctx, task, nil)
			return
		}
		log.Printf("uploadWorker: record %s attempt %d/%d failed: %v", task.RecordID, attempt, w.cfg.MaxAttempts, lastErr)
	}
	w.finish(ctx, task, fmt.Errorf("%w: %w", domain.ErrUploadFailed, lastErr))
}

func (w *UploadWorker) upload(ctx context.Context, task UploadTask, data []byte) error {
	uploadCtx, cancel := context.WithTimeout(ctx, w.cfg.Timeout)
	defer cancel()

	_, err := w.storage.Upload(uploadCtx, port.UploadInput{
		Key:         task.Key,
		Body:        bytes.NewReader(data),
		ContentType: task.ContentType,
		Size:        int64(len(data)),
	})
	return err
}

func (w *UploadWorker) finish(ctx context.Context, task UploadTask, uploadErr error) {
	if uploadErr != nil {
		log.Printf("uploadWorker: record %s upload failed: %v", task.RecordID, uploadErr)
		if err := w.repo.UpdateUpload(ctx, task.RecordID, domain.UploadStatusFailed, "", uploadErr.Error()); err != nil {
			log.Printf("uploadWorker: updating record %s: %v", task.RecordID, err)
		}
		return
	}

	if err := w.repo.UpdateUpload(ctx, task.RecordID, domain.UploadStatusUploaded, task.Key, ""); err != nil {
		// No record points at the object now.
		log.Printf("uploadWorker: updating record %s: %v; removing %s", task.RecordID, err, task.Key)
		if derr := w.storage.Delete(ctx, task.Key); derr != nil {
			log.Printf("uploadWorker: removing orphaned object %s: %v", task.Key, derr)
		}
	}
}
