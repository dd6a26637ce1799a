package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"path"
	"time"

	"github.com/google/uuid"

	"fleetdocs/internal/domain"
	"fleetdocs/internal/export"
	"fleetdocs/internal/pipeline"
	"fleetdocs/internal/port"
)

const defaultURLExpiry = 3600

// AnalyzeInput is the DTO for analysing an uploaded ship document.
type AnalyzeInput struct {
	ShipID           string
	Category         domain.Category
	FileName         string
	ContentType      string
	FileBytes        []byte
	BypassValidation bool
}

// AnalyzeOutput pairs the stored record with the full pipeline result.
type AnalyzeOutput struct {
	Record *domain.AnalysisRecord
	Result *domain.AnalysisResult
}

// AnalysisServiceConfig holds settings for the analysis service.
type AnalysisServiceConfig struct {
	KeyPrefix     string
	URLExpirySecs int64
}

// AnalysisService defines the document analysis contract.
type AnalysisService interface {
	Analyze(ctx context.Context, input *AnalyzeInput) (*AnalyzeOutput, error)
	GetRecord(ctx context.Context, id uuid.UUID) (*domain.AnalysisRecord, error)
	ListRecords(ctx context.Context, shipID string, offset, limit int) ([]domain.AnalysisRecord, int, error)
	GetFileURL(ctx context.Context, id uuid.UUID) (string, error)
	ExportRecords(ctx context.Context, shipID string, format export.Format, w io.Writer) error
}

type analysisService struct {
	pipelines *pipeline.Set
	repo      port.AnalysisRecordRepository
	storage   port.ObjectStorage // nil when no cloud drive is configured
	queue     UploadQueue
	cfg       AnalysisServiceConfig
}

// NewAnalysisService creates a new AnalysisService implementation.
func NewAnalysisService(
	pipelines *pipeline.Set,
	repo port.AnalysisRecordRepository,
	storage port.ObjectStorage,
	queue UploadQueue,
	cfg AnalysisServiceConfig,
) AnalysisService {
	if cfg.URLExpirySecs <= 0 {
		cfg.URLExpirySecs = defaultURLExpiry
	}
	return &analysisService{
		pipelines: pipelines,
		repo:      repo,
		storage:   storage,
		queue:     queue,
		cfg:       cfg,
	}
}

// Analyze runs the category pipeline and stores the result. When every chunk
// failed the partial result is still stored for manual entry, and the
// returned error wraps domain.ErrAllChunksFailed alongside a non-nil output.
func (s *analysisService) Analyze(ctx context.Context, input *AnalyzeInput) (*AnalyzeOutput, error) {
	if input.ShipID == "" {
		return nil, fmt.Errorf("%w: ship id is required", domain.ErrInvalidInput)
	}
	p, err := s.pipelines.For(input.Category)
	if err != nil {
		return nil, err
	}

	log.Printf("service.AnalysisService.Analyze: ship=%s category=%s file=%s size=%d",
		input.ShipID, input.Category, input.FileName, len(input.FileBytes))

	res, runErr := p.Run(ctx, pipeline.Input{
		Bytes:            input.FileBytes,
		FileName:         input.FileName,
		ContentType:      input.ContentType,
		ShipID:           input.ShipID,
		BypassValidation: input.BypassValidation,
	})
	status := domain.RecordStatusCompleted
	if runErr != nil {
		var failed *domain.AllChunksFailedError
		if !errors.As(runErr, &failed) || failed.Result == nil {
			return nil, runErr
		}
		res = failed.Result
		status = domain.RecordStatusManualEntryRequired
	}

	rec, err := domain.NewAnalysisRecord(res, status)
	if err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	rec.CreatedAt = now
	rec.UpdatedAt = now
	if s.storage == nil || s.queue == nil {
		rec.UploadStatus = domain.UploadStatusSkipped
	}

	if err := s.repo.Create(ctx, rec); err != nil {
		return nil, fmt.Errorf("saving analysis record: %w", err)
	}

	if rec.UploadStatus == domain.UploadStatusPending {
		s.enqueueUpload(ctx, rec, res)
	}

	log.Printf("service.AnalysisService.Analyze: record %s stored (status=%s, method=%s, upload=%s)",
		rec.ID, rec.Status, rec.ProcessingMethod, rec.UploadStatus)
	return &AnalyzeOutput{Record: rec, Result: res}, runErr
}

func (s *analysisService) enqueueUpload(ctx context.Context, rec *domain.AnalysisRecord, res *domain.AnalysisResult) {
	task := UploadTask{
		RecordID:    rec.ID,
		Key:         s.storageKey(rec),
		ContentType: rec.ContentType,
		Payload:     res.FilePayload,
	}
	err := s.queue.Enqueue(task)
	if err == nil {
		return
	}

	log.Printf("service.AnalysisService.enqueueUpload: record %s: %v", rec.ID, err)
	rec.UploadStatus = domain.UploadStatusFailed
	rec.UploadError = err.Error()
	if uerr := s.repo.UpdateUpload(ctx, rec.ID, domain.UploadStatusFailed, "", err.Error()); uerr != nil {
		log.Printf("service.AnalysisService.enqueueUpload: marking record %s failed: %v", rec.ID, uerr)
	}
}

// storageKey places originals under ships/<ship>/<category>/<record>/<file>.
func (s *analysisService) storageKey(rec *domain.AnalysisRecord) string {
	name := path.Base(rec.FileName)
	if name == "." || name == "/" {
		name = "document.pdf"
	}
	return s.cfg.KeyPrefix + path.Join("ships", rec.ShipID, string(rec.Category), rec.ID.String(), name)
}

func (s *analysisService) GetRecord(ctx context.Context, id uuid.UUID) (*domain.AnalysisRecord, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *analysisService) ListRecords(ctx context.Context, shipID string, offset, limit int) ([]domain.AnalysisRecord, int, error) {
	return s.repo.ListByShip(ctx, shipID, offset, limit)
}

// GetFileURL returns a presigned download URL for the record's original file.
func (s *analysisService) GetFileURL(ctx context.Context, id uuid.UUID) (string, error) {
	if s.storage == nil {
		return "", domain.ErrStorageNotEnabled
	}
	rec, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return "", err
	}
	if rec.UploadStatus != domain.UploadStatusUploaded || rec.StorageKey == "" {
		return "", fmt.Errorf("%w: file for record %s is not uploaded (%s)", domain.ErrNotFound, id, rec.UploadStatus)
	}
	return s.storage.GetPresignedURL(ctx, rec.StorageKey, s.cfg.URLExpirySecs)
}

// ExportRecords writes the ship's register, one section per category.
func (s *analysisService) ExportRecords(ctx context.Context, shipID string, format export.Format, w io.Writer) error {
	byCategory := make(map[domain.Category][]domain.AnalysisRecord)
	total := 0
	for _, c := range domain.Categories() {
		recs, err := s.repo.ListByShipAndCategory(ctx, shipID, c)
		if err != nil {
			return fmt.Errorf("listing %s records: %w", c, err)
		}
		if len(recs) > 0 {
			byCategory[c] = recs
			total += len(recs)
		}
	}
	if total == 0 {
		return domain.ErrExportEmpty
	}

	log.Printf("service.AnalysisService.ExportRecords: ship=%s format=%s records=%d", shipID, format, total)
	return export.Write(w, format, shipID, byCategory)
}
