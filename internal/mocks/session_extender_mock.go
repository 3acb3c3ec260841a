package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"
)

// MockSessionExtender is a mock implementation of the monitor's
// SessionExtender dependency.
type MockSessionExtender struct {
	mock.Mock
}

func (m *MockSessionExtender) ExtendSession(ctx context.Context, scope string) error {
	args := m.Called(ctx, scope)
	return args.Error(0)
}
