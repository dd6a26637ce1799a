package mocks

import (
	"context"
	"io"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"fleetdocs/internal/domain"
	"fleetdocs/internal/export"
	"fleetdocs/internal/service"
)

// MockAnalysisService is a mock implementation of service.AnalysisService.
type MockAnalysisService struct {
	mock.Mock
}

func (m *MockAnalysisService) Analyze(ctx context.Context, input *service.AnalyzeInput) (*service.AnalyzeOutput, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.AnalyzeOutput), args.Error(1)
}

func (m *MockAnalysisService) GetRecord(ctx context.Context, id uuid.UUID) (*domain.AnalysisRecord, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.AnalysisRecord), args.Error(1)
}

func (m *MockAnalysisService) ListRecords(ctx context.Context, shipID string, offset, limit int) ([]domain.AnalysisRecord, int, error) {
	args := m.Called(ctx, shipID, offset, limit)
	if args.Get(0) == nil {
		return nil, args.Int(1), args.Error(2)
	}
	return args.Get(0).([]domain.AnalysisRecord), args.Int(1), args.Error(2)
}

func (m *MockAnalysisService) GetFileURL(ctx context.Context, id uuid.UUID) (string, error) {
	args := m.Called(ctx, id)
	return args.String(0), args.Error(1)
}

func (m *MockAnalysisService) ExportRecords(ctx context.Context, shipID string, format export.Format, w io.Writer) error {
	args := m.Called(ctx, shipID, format, w)
	return args.Error(0)
}
