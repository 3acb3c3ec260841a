package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/bmsuite/bms-session-server/internal/models"
	"github.com/bmsuite/bms-session-server/internal/session"
	"github.com/rs/zerolog/log"
)

var _ SessionAuthenticator = (*AuthService)(nil)

// AuthService is the single point of authentication truth. It mediates
// between the HTTP layer, the session store, and the identity provider.
// Provider failures during login and token refresh surface as
// AuthProviderError; storage corruption and expiry normalize to "not
// authenticated" and are never raised.
type AuthService struct {
	store    *session.Store
	provider IdentityProvider

	// initialized tracks scopes whose startup restore already ran, making
	// Initialize idempotent per scope.
	initialized sync.Map

	now func() time.Time
}

// NewAuthService creates the auth facade over a session store and an
// identity provider.
func NewAuthService(store *session.Store, provider IdentityProvider) *AuthService {
	return &AuthService{
		store:    store,
		provider: provider,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// Initialize restores the scope's session: store fast path first, then an
// optional provider silent login. "Not logged in" is an expected terminal
// state, never an error. Repeat calls for the same scope are no-ops.
func (s *AuthService) Initialize(ctx context.Context, scope string) error {
	if _, alreadyRan := s.initialized.LoadOrStore(scope, struct{}{}); alreadyRan {
		return nil
	}

	if s.store.HasValidSession(ctx, scope) {
		log.Info().Str("scope", scope).Msg("Restored session from store")
		return nil
	}

	tok, err := s.provider.SilentLogin(ctx)
	if err != nil {
		if !errors.Is(err, ErrNoActiveSession) {
			log.Warn().Err(err).Str("scope", scope).Msg("Silent login failed, continuing anonymous")
		}
		return nil
	}

	profile, err := s.provider.Profile(ctx, tok.AccessToken)
	if err != nil {
		log.Warn().Err(err).Str("scope", scope).Msg("Profile lookup after silent login failed, continuing anonymous")
		return nil
	}

	if err := s.saveSession(ctx, scope, profile, tok); err != nil {
		log.Error().Err(err).Str("scope", scope).Msg("Failed to persist restored session")
	}
	return nil
}

// Login authenticates against the identity provider and persists the
// resulting session. Provider errors are surfaced to the caller with the
// message preserved; there is no automatic retry.
func (s *AuthService) Login(ctx context.Context, scope string, creds *models.Credentials) (*models.Session, error) {
	tok, err := s.provider.LoginInteractive(ctx, creds)
	if err != nil {
		return nil, &AuthProviderError{Op: "login", Err: err}
	}

	profile, err := s.provider.Profile(ctx, tok.AccessToken)
	if err != nil {
		return nil, &AuthProviderError{Op: "profile lookup", Err: err}
	}

	sess := &models.Session{
		User:         *profile,
		AccessToken:  tok.AccessToken,
		RefreshToken: tok.RefreshToken,
		ExpiresAt:    tok.ExpiresAt,
	}
	if err := s.store.Save(ctx, scope, sess); err != nil {
		// The identity is established; a storage hiccup costs the caller a
		// re-login later, not this login.
		log.Error().Err(err).Str("scope", scope).Msg("Failed to persist session after login")
	}
	s.initialized.Store(scope, struct{}{})

	log.Info().Str("scope", scope).Str("user", profile.DisplayName).Msg("User logged in")
	return sess, nil
}

// Logout clears local state first so the caller is logged out regardless of
// what the provider does, then notifies the provider best effort.
func (s *AuthService) Logout(ctx context.Context, scope string) error {
	if err := s.store.Clear(ctx, scope); err != nil {
		log.Warn().Err(err).Str("scope", scope).Msg("Failed to clear session storage on logout")
	}
	s.initialized.Delete(scope)

	if err := s.provider.Logout(ctx); err != nil {
		// Local state is already gone; the user-visible logout succeeded.
		log.Warn().Err(err).Str("scope", scope).Msg("Provider-side logout failed")
	}
	log.Info().Str("scope", scope).Msg("User logged out")
	return nil
}

// GetAccessToken returns the cached token when it is still live, otherwise
// requests a fresh one from the provider and writes it back to the store
// without resetting the session clock.
func (s *AuthService) GetAccessToken(ctx context.Context, scope string, scopes []string) (*models.TokenResult, error) {
	sess := s.store.Load(ctx, scope)
	if sess == nil {
		return nil, ErrNotAuthenticated
	}

	if sess.AccessToken != "" && !sess.ExpiresAt.IsZero() && sess.ExpiresAt.After(s.now()) {
		return &models.TokenResult{
			AccessToken:  sess.AccessToken,
			RefreshToken: sess.RefreshToken,
			ExpiresAt:    sess.ExpiresAt,
		}, nil
	}

	tok, err := s.provider.AcquireToken(ctx, scopes)
	if err != nil {
		return nil, &AuthProviderError{Op: "token refresh", Err: err}
	}

	if err := s.store.UpdateAccessToken(ctx, scope, tok.AccessToken, tok.ExpiresAt); err != nil {
		log.Warn().Err(err).Str("scope", scope).Msg("Failed to cache refreshed access token")
	}
	return tok, nil
}

// ExtendSession resets the session's age clock.
func (s *AuthService) ExtendSession(ctx context.Context, scope string) error {
	return s.store.Extend(ctx, scope)
}

// SessionInfo returns the derived status view for the scope.
func (s *AuthService) SessionInfo(ctx context.Context, scope string) models.SessionInfo {
	return s.store.Info(ctx, scope)
}

// IsAuthenticated reports whether the scope holds a live session.
func (s *AuthService) IsAuthenticated(ctx context.Context, scope string) bool {
	return s.store.HasValidSession(ctx, scope)
}

// CurrentUser returns the identity behind the scope's session, if any.
func (s *AuthService) CurrentUser(ctx context.Context, scope string) *models.UserProfile {
	return s.store.User(ctx, scope)
}

func (s *AuthService) saveSession(ctx context.Context, scope string, profile *models.UserProfile, tok *models.TokenResult) error {
	return s.store.Save(ctx, scope, &models.Session{
		User:         *profile,
		AccessToken:  tok.AccessToken,
		RefreshToken: tok.RefreshToken,
		ExpiresAt:    tok.ExpiresAt,
	})
}
