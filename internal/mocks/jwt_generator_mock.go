package mocks

import (
	"time"

	"github.com/stretchr/testify/mock"
)

// MockJWTGenerator is a mock type for the JWTGenerator type
type MockJWTGenerator struct {
	mock.Mock
}

// GenerateToken provides a mock function with given fields: subject, scope
func (_m *MockJWTGenerator) GenerateToken(subject, scope string) (string, time.Time, error) {
	ret := _m.Called(subject, scope)

	return ret.Get(0).(string), ret.Get(1).(time.Time), ret.Error(2)
}

// ValidateToken provides a mock function with given fields: tokenString
func (_m *MockJWTGenerator) ValidateToken(tokenString string) (string, string, error) {
	ret := _m.Called(tokenString)

	return ret.String(0), ret.String(1), ret.Error(2)
}
