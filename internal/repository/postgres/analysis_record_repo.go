package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"fleetdocs/internal/domain"
	"fleetdocs/internal/port"
)

type analysisRecordRepo struct {
	db *sqlx.DB
}

// NewAnalysisRecordRepo creates a new PostgreSQL-backed AnalysisRecordRepository.
func NewAnalysisRecordRepo(db *sqlx.DB) port.AnalysisRecordRepository {
	return &analysisRecordRepo{db: db}
}

func (r *analysisRecordRepo) Create(ctx context.Context, rec *domain.AnalysisRecord) error {
	if rec.CreatedAt.IsZero() {
		now := time.Now().UTC()
		rec.CreatedAt = now
		rec.UpdatedAt = now
	}

	query := `INSERT INTO analysis_records (
		id, ship_id, category, file_name, content_type, status,
		fields, summary, confidence, processing_method, split_info, notes,
		storage_key, upload_status, upload_error, created_at, updated_at
	) VALUES (
		:id, :ship_id, :category, :file_name, :content_type, :status,
		:fields, :summary, :confidence, :processing_method, :split_info, :notes,
		:storage_key, :upload_status, :upload_error, :created_at, :updated_at
	)`

	if _, err := r.db.NamedExecContext(ctx, query, rec); err != nil {
		return fmt.Errorf("analysisRecordRepo.Create: %w", err)
	}
	return nil
}

func (r *analysisRecordRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.AnalysisRecord, error) {
	var rec domain.AnalysisRecord
	err := r.db.GetContext(ctx, &rec, "SELECT * FROM analysis_records WHERE id = $1", id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("analysisRecordRepo.GetByID: %w", err)
	}
	return &rec, nil
}

func (r *analysisRecordRepo) ListByShip(ctx context.Context, shipID string, offset, limit int) ([]domain.AnalysisRecord, int, error) {
	var total int
	err := r.db.GetContext(ctx, &total,
		"SELECT COUNT(*) FROM analysis_records WHERE ship_id = $1", shipID)
	if err != nil {
		return nil, 0, fmt.Errorf("analysisRecordRepo.ListByShip count: %w", err)
	}

	var recs []domain.AnalysisRecord
	err = r.db.SelectContext(ctx, &recs,
		`SELECT * FROM analysis_records WHERE ship_id = $1
		 ORDER BY created_at DESC LIMIT $2 OFFSET $3`,
		shipID, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("analysisRecordRepo.ListByShip: %w", err)
	}
	return recs, total, nil
}

func (r *analysisRecordRepo) ListByShipAndCategory(ctx context.Context, shipID string, category domain.Category) ([]domain.AnalysisRecord, error) {
	var recs []domain.AnalysisRecord
	err := r.db.SelectContext(ctx, &recs,
		`SELECT * FROM analysis_records WHERE ship_id = $1 AND category = $2
		 ORDER BY created_at ASC`,
		shipID, category)
	if err != nil {
		return nil, fmt.Errorf("analysisRecordRepo.ListByShipAndCategory: %w", err)
	}
	return recs, nil
}

func (r *analysisRecordRepo) UpdateUpload(ctx context.Context, id uuid.UUID, status domain.UploadStatus, storageKey, uploadErr string) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE analysis_records
		 SET upload_status = $1, storage_key = $2, upload_error = $3, updated_at = $4
		 WHERE id = $5`,
		status, storageKey, uploadErr, time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("analysisRecordRepo.UpdateUpload: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("analysisRecordRepo.UpdateUpload rows: %w", err)
	}
	if rows == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *analysisRecordRepo) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}
