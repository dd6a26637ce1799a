package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"fleetdocs/internal/port"
)

// MockGenerativeBackend is a mock implementation of port.GenerativeBackend.
type MockGenerativeBackend struct {
	mock.Mock
}

func (m *MockGenerativeBackend) Generate(ctx context.Context, input port.GenerateInput) (*port.GenerateOutput, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*port.GenerateOutput), args.Error(1)
}
