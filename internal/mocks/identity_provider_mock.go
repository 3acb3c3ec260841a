package mocks

import (
	"context"

	"github.com/bmsuite/bms-session-server/internal/models"
	"github.com/stretchr/testify/mock"
)

// MockIdentityProvider is a mock implementation of the IdentityProvider
// interface.
type MockIdentityProvider struct {
	mock.Mock
}

func (m *MockIdentityProvider) LoginInteractive(ctx context.Context, creds *models.Credentials) (*models.TokenResult, error) {
	args := m.Called(ctx, creds)
	if tok, ok := args.Get(0).(*models.TokenResult); ok {
		return tok, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockIdentityProvider) SilentLogin(ctx context.Context) (*models.TokenResult, error) {
	args := m.Called(ctx)
	if tok, ok := args.Get(0).(*models.TokenResult); ok {
		return tok, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockIdentityProvider) AcquireToken(ctx context.Context, scopes []string) (*models.TokenResult, error) {
	args := m.Called(ctx, scopes)
	if tok, ok := args.Get(0).(*models.TokenResult); ok {
		return tok, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockIdentityProvider) Profile(ctx context.Context, accessToken string) (*models.UserProfile, error) {
	args := m.Called(ctx, accessToken)
	if user, ok := args.Get(0).(*models.UserProfile); ok {
		return user, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockIdentityProvider) Logout(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}
