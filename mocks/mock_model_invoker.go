package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"
)

// MockModelInvoker is a mock implementation of port.ModelInvoker.
type MockModelInvoker struct {
	mock.Mock
}

func (m *MockModelInvoker) Invoke(ctx context.Context, prompt, rawText string) (string, error) {
	args := m.Called(ctx, prompt, rawText)
	return args.String(0), args.Error(1)
}
