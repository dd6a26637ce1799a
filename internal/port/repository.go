package port

import (
	"context"

	"github.com/google/uuid"

	"fleetdocs/internal/domain"
)

// AnalysisRecordRepository defines the contract for analysis record persistence.
// Listing is always scoped to a ship.
type AnalysisRecordRepository interface {
	Create(ctx context.Context, rec *domain.AnalysisRecord) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.AnalysisRecord, error)
	ListByShip(ctx context.Context, shipID string, offset, limit int) ([]domain.AnalysisRecord, int, error)
	ListByShipAndCategory(ctx context.Context, shipID string, category domain.Category) ([]domain.AnalysisRecord, error)
	UpdateUpload(ctx context.Context, id uuid.UUID, status domain.UploadStatus, storageKey, uploadErr string) error
	Ping(ctx context.Context) error
}
