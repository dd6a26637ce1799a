package mocks

import (
	"github.com/stretchr/testify/mock"

	"fleetdocs/internal/service"
)

// MockUploadQueue is a mock implementation of service.UploadQueue.
type MockUploadQueue struct {
	mock.Mock
}

func (m *MockUploadQueue) Enqueue(task service.UploadTask) error {
	args := m.Called(task)
	return args.Error(0)
}
