package mocks

import (
	"context"

	"github.com/bmsuite/bms-session-server/internal/models"
	"github.com/stretchr/testify/mock"
)

// MockSessionAuthenticator is a mock implementation of the
// SessionAuthenticator facade for handler tests.
type MockSessionAuthenticator struct {
	mock.Mock
}

func (m *MockSessionAuthenticator) Initialize(ctx context.Context, scope string) error {
	args := m.Called(ctx, scope)
	return args.Error(0)
}

func (m *MockSessionAuthenticator) Login(ctx context.Context, scope string, creds *models.Credentials) (*models.Session, error) {
	args := m.Called(ctx, scope, creds)
	if sess, ok := args.Get(0).(*models.Session); ok {
		return sess, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockSessionAuthenticator) Logout(ctx context.Context, scope string) error {
	args := m.Called(ctx, scope)
	return args.Error(0)
}

func (m *MockSessionAuthenticator) GetAccessToken(ctx context.Context, scope string, scopes []string) (*models.TokenResult, error) {
	args := m.Called(ctx, scope, scopes)
	if tok, ok := args.Get(0).(*models.TokenResult); ok {
		return tok, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockSessionAuthenticator) ExtendSession(ctx context.Context, scope string) error {
	args := m.Called(ctx, scope)
	return args.Error(0)
}

func (m *MockSessionAuthenticator) SessionInfo(ctx context.Context, scope string) models.SessionInfo {
	args := m.Called(ctx, scope)
	return args.Get(0).(models.SessionInfo)
}

func (m *MockSessionAuthenticator) IsAuthenticated(ctx context.Context, scope string) bool {
	args := m.Called(ctx, scope)
	return args.Bool(0)
}

func (m *MockSessionAuthenticator) CurrentUser(ctx context.Context, scope string) *models.UserProfile {
	args := m.Called(ctx, scope)
	if user, ok := args.Get(0).(*models.UserProfile); ok {
		return user
	}
	return nil
}
