package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"marksheet/internal/domain"
	"marksheet/internal/service"
)

// MockExtractionService is a mock implementation of service.ExtractionService.
type MockExtractionService struct {
	mock.Mock
}

func (m *MockExtractionService) Extract(ctx context.Context, input service.ExtractInput) (*domain.MarksheetResponse, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.MarksheetResponse), args.Error(1)
}
