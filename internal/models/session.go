package models

import (
	"time"
)

// Session represents the authenticated state for one dashboard tab (scope).
type Session struct {
	User         UserProfile `json:"user"`                   // Identity record, owned by the session
	AccessToken  string      `json:"accessToken,omitempty"`  // Opaque provider credential; absent for demo logins
	RefreshToken string      `json:"refreshToken,omitempty"` // Optional provider refresh credential
	ExpiresAt    time.Time   `json:"expiresAt"`              // Provider-side token expiry; zero when the provider gave none
	LoginTime    time.Time   `json:"loginTime"`              // When the session was created or last extended
}

// IsExpiredAt reports whether the session is expired at the given instant.
// A session is expired if the provider token expiry has passed, or if the
// session age exceeds the absolute timeout. Either condition alone suffices.
func (s *Session) IsExpiredAt(now time.Time, timeout time.Duration) bool {
	if !s.ExpiresAt.IsZero() && s.ExpiresAt.Before(now) {
		return true
	}
	if !s.LoginTime.IsZero() && now.Sub(s.LoginTime) > timeout {
		return true
	}
	return false
}

// IsExpired checks the session against the wall clock.
func (s *Session) IsExpired(timeout time.Duration) bool {
	return s.IsExpiredAt(time.Now().UTC(), timeout)
}

// SessionInfo is the derived, read-only view of a session's current status.
// It is computed on demand and never persisted.
type SessionInfo struct {
	HasSession    bool          `json:"hasSession"`
	IsExpired     bool          `json:"isExpired"`
	LoginTime     time.Time     `json:"loginTime"`
	TimeRemaining time.Duration `json:"timeRemaining"`
	User          *UserProfile  `json:"user,omitempty"`
}
