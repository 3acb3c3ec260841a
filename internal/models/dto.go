package models

import "time"

// LoginRequest is the body for credential logins.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginResponse is returned on successful login. SessionToken is the bearer
// token for the protected session routes; Scope identifies the tab's storage
// scope and is also embedded in the token's sid claim.
type LoginResponse struct {
	Scope        string      `json:"scope"`
	SessionToken string      `json:"sessionToken"`
	User         UserProfile `json:"user"`
	ExpiresAt    time.Time   `json:"expiresAt"`
}

// SessionInfoResponse wraps SessionInfo with minutes-based remaining time for
// the dashboard's status badge.
type SessionInfoResponse struct {
	HasSession       bool         `json:"hasSession"`
	IsExpired        bool         `json:"isExpired"`
	LoginTime        time.Time    `json:"loginTime"`
	RemainingMs      int64        `json:"timeRemainingMs"`
	RemainingMinutes float64      `json:"timeRemainingMinutes"`
	User             *UserProfile `json:"user,omitempty"`
}

// ExtendSessionResponse reports the renewed window after an extension.
type ExtendSessionResponse struct {
	Extended    bool      `json:"extended"`
	LoginTime   time.Time `json:"loginTime"`
	RemainingMs int64     `json:"timeRemainingMs"`
}

// ActivityRequest reports a client interaction event to the activity monitor.
type ActivityRequest struct {
	Event string `json:"event"`
}

// VisibilityRequest reports a tab visibility transition.
type VisibilityRequest struct {
	Visible bool `json:"visible"`
}

// AccessTokenResponse carries a cached or freshly acquired provider token.
type AccessTokenResponse struct {
	AccessToken string    `json:"accessToken"`
	ExpiresAt   time.Time `json:"expiresAt"`
}

// VerifySessionResponse reports whether the presented session is live.
type VerifySessionResponse struct {
	Scope   string `json:"scope"`
	IsValid bool   `json:"isValid"`
}
