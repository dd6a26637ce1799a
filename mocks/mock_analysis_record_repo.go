package mocks

import (
	"context"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"fleetdocs/internal/domain"
)

// MockAnalysisRecordRepo is a mock implementation of port.AnalysisRecordRepository.
type MockAnalysisRecordRepo struct {
	mock.Mock
}

func (m *MockAnalysisRecordRepo) Create(ctx context.Context, rec *domain.AnalysisRecord) error {
	args := m.Called(ctx, rec)
	return args.Error(0)
}

func (m *MockAnalysisRecordRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.AnalysisRecord, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.AnalysisRecord), args.Error(1)
}

func (m *MockAnalysisRecordRepo) ListByShip(ctx context.Context, shipID string, offset, limit int) ([]domain.AnalysisRecord, int, error) {
	args := m.Called(ctx, shipID, offset, limit)
	if args.Get(0) == nil {
		return nil, args.Int(1), args.Error(2)
	}
	return args.Get(0).([]domain.AnalysisRecord), args.Int(1), args.Error(2)
}

func (m *MockAnalysisRecordRepo) ListByShipAndCategory(ctx context.Context, shipID string, category domain.Category) ([]domain.AnalysisRecord, error) {
	args := m.Called(ctx, shipID, category)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.AnalysisRecord), args.Error(1)
}

func (m *MockAnalysisRecordRepo) UpdateUpload(ctx context.Context, id uuid.UUID, status domain.UploadStatus, storageKey, uploadErr string) error {
	args := m.Called(ctx, id, status, storageKey, uploadErr)
	return args.Error(0)
}

func (m *MockAnalysisRecordRepo) Ping(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}
