package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"marksheet/internal/domain"
)

// MockTextExtractor is a mock implementation of port.TextExtractor.
type MockTextExtractor struct {
	mock.Mock
}

func (m *MockTextExtractor) ExtractRawText(ctx context.Context, data []byte, kind domain.DocumentKind) (string, error) {
	args := m.Called(ctx, data, kind)
	return args.String(0), args.Error(1)
}
