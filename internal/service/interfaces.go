package service

import (
	"context"
	"time"

	"github.com/bmsuite/bms-session-server/internal/models"
)

// IdentityProvider is the opaque boundary to the external token source.
// Implementations: DemoProvider (fixed user table, locally minted tokens) and
// MSOAuthProvider (Microsoft OAuth2/OIDC + Graph).
type IdentityProvider interface {
	// LoginInteractive performs a credentialed login. A nil creds value asks
	// the provider for its default identity resolution (demo login).
	LoginInteractive(ctx context.Context, creds *models.Credentials) (*models.TokenResult, error)
	// SilentLogin restores an already-live external session without user
	// interaction. Returns ErrNoActiveSession when there is none.
	SilentLogin(ctx context.Context) (*models.TokenResult, error)
	// AcquireToken requests a fresh access token for the given scopes.
	AcquireToken(ctx context.Context, scopes []string) (*models.TokenResult, error)
	// Profile resolves the identity record behind an access token.
	Profile(ctx context.Context, accessToken string) (*models.UserProfile, error)
	// Logout ends the provider-side session, best effort.
	Logout(ctx context.Context) error
}

// JWTGenerator issues and validates the bearer tokens that tie a dashboard
// tab to its session scope.
type JWTGenerator interface {
	GenerateToken(subject, scope string) (string, time.Time, error)
	ValidateToken(tokenString string) (subject, scope string, err error)
}

// SessionAuthenticator is the facade contract the HTTP layer programs
// against.
type SessionAuthenticator interface {
	Initialize(ctx context.Context, scope string) error
	Login(ctx context.Context, scope string, creds *models.Credentials) (*models.Session, error)
	Logout(ctx context.Context, scope string) error
	GetAccessToken(ctx context.Context, scope string, scopes []string) (*models.TokenResult, error)
	ExtendSession(ctx context.Context, scope string) error
	SessionInfo(ctx context.Context, scope string) models.SessionInfo
	IsAuthenticated(ctx context.Context, scope string) bool
	CurrentUser(ctx context.Context, scope string) *models.UserProfile
}
