package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/goccy/go-json"

	"github.com/bmsuite/bms-session-server/internal/config"
	"github.com/bmsuite/bms-session-server/internal/models"
	"github.com/coreos/go-oidc/v3/oidc"
	"github.com/rs/zerolog/log"
	"golang.org/x/oauth2"
)

var _ IdentityProvider = (*MSOAuthProvider)(nil)

// MSOAuthProvider implements IdentityProvider against Microsoft. Interactive
// logins arrive as authorization codes from the dashboard's redirect flow;
// profiles come from the Graph /me endpoint.
type MSOAuthProvider struct {
	cfg         *config.Config
	oAuthConfig *oauth2.Config
	api         string

	mu        sync.Mutex
	lastToken *oauth2.Token
}

// NewMSOAuthProvider creates a new instance of MSOAuthProvider.
func NewMSOAuthProvider(cfg *config.Config) *MSOAuthProvider {
	return &MSOAuthProvider{
		cfg:         cfg,
		oAuthConfig: cfg.OAuth["MICROSOFT"],
		api:         "https://graph.microsoft.com/v1.0/me",
	}
}

// AuthCodeURL generates the URL for the Microsoft login page.
func (p *MSOAuthProvider) AuthCodeURL(state string) string {
	return p.oAuthConfig.AuthCodeURL(state, oauth2.AccessTypeOffline)
}

// LoginInteractive exchanges the authorization code carried in creds for a
// token, optionally with PKCE, and verifies the accompanying ID token.
func (p *MSOAuthProvider) LoginInteractive(ctx context.Context, creds *models.Credentials) (*models.TokenResult, error) {
	if creds == nil || creds.AuthCode == "" {
		return nil, errors.New("authorization code required")
	}

	var opts []oauth2.AuthCodeOption
	if creds.CodeVerifier != "" {
		opts = append(opts, oauth2.SetAuthURLParam("code_verifier", creds.CodeVerifier))
	}

	token, err := p.oAuthConfig.Exchange(ctx, creds.AuthCode, opts...)
	if err != nil {
		log.Error().Err(err).Msg("Error exchanging OAuth code for token")
		return nil, fmt.Errorf("failed to exchange code: %w", err)
	}
	if !token.Valid() {
		log.Warn().Msg("Received invalid OAuth token after exchange")
		return nil, errors.New("received invalid token")
	}

	if err := p.verifyIDToken(ctx, token); err != nil {
		return nil, err
	}

	p.mu.Lock()
	p.lastToken = token
	p.mu.Unlock()

	log.Info().Int("accessTokenLength", len(token.AccessToken)).Msg("OAuth token obtained successfully")
	return tokenResult(token), nil
}

// SilentLogin reuses or refreshes the last obtained provider token without
// user interaction.
func (p *MSOAuthProvider) SilentLogin(ctx context.Context) (*models.TokenResult, error) {
	p.mu.Lock()
	last := p.lastToken
	p.mu.Unlock()

	if last == nil {
		return nil, ErrNoActiveSession
	}
	if last.Valid() {
		return tokenResult(last), nil
	}
	return p.refresh(ctx, last)
}

// AcquireToken returns a fresh access token, refreshing through the stored
// refresh token when needed. Scopes beyond the configured set require a new
// interactive consent, so the parameter is accepted but not renegotiated.
func (p *MSOAuthProvider) AcquireToken(ctx context.Context, scopes []string) (*models.TokenResult, error) {
	p.mu.Lock()
	last := p.lastToken
	p.mu.Unlock()

	if last == nil {
		return nil, ErrNoActiveSession
	}
	return p.refresh(ctx, last)
}

func (p *MSOAuthProvider) refresh(ctx context.Context, last *oauth2.Token) (*models.TokenResult, error) {
	token, err := p.oAuthConfig.TokenSource(ctx, last).Token()
	if err != nil {
		log.Error().Err(err).Msg("Error refreshing OAuth token")
		return nil, fmt.Errorf("failed to refresh token: %w", err)
	}

	p.mu.Lock()
	p.lastToken = token
	p.mu.Unlock()
	return tokenResult(token), nil
}

// Profile fetches user details from the Microsoft Graph API.
func (p *MSOAuthProvider) Profile(ctx context.Context, accessToken string) (*models.UserProfile, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.api, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create profile request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)
	req.Header.Set("Accept", "application/json")

	client := &http.Client{Timeout: 10 * time.Second}
	resp, err := client.Do(req)
	if err != nil {
		log.Error().Err(err).Str("api", p.api).Msg("Error fetching user info from Graph API")
		return nil, fmt.Errorf("failed to get user info: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		bodyBytes, _ := io.ReadAll(resp.Body)
		log.Warn().Int("statusCode", resp.StatusCode).Str("body", string(bodyBytes)).Str("api", p.api).Msg("Error response from Graph API")
		return nil, fmt.Errorf("graph API request failed with status: %s", resp.Status)
	}

	var user models.UserProfile
	if err := json.NewDecoder(resp.Body).Decode(&user); err != nil {
		log.Error().Err(err).Msg("Error decoding user info JSON from Graph API")
		return nil, fmt.Errorf("failed to decode user info: %w", err)
	}
	return &user, nil
}

// Logout drops the cached provider token. Microsoft offers no non-interactive
// server-side logout for this flow, so local state is all there is to clear.
func (p *MSOAuthProvider) Logout(ctx context.Context) error {
	p.mu.Lock()
	p.lastToken = nil
	p.mu.Unlock()
	log.Debug().Msg("Cached OAuth token dropped")
	return nil
}

// verifyIDToken checks the id_token riding along with the OAuth token against
// the Microsoft OIDC issuer.
func (p *MSOAuthProvider) verifyIDToken(ctx context.Context, oauth2Token *oauth2.Token) error {
	providerURL := fmt.Sprintf("https://login.microsoftonline.com/%s/v2.0", p.cfg.MicrosoftTenant)

	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	provider, err := oidc.NewProvider(ctx, providerURL)
	if err != nil {
		log.Error().Err(err).Str("providerURL", providerURL).Msg("Failed to create OIDC provider")
		return fmt.Errorf("failed to create OIDC provider: %w", err)
	}

	rawIDToken, ok := oauth2Token.Extra("id_token").(string)
	if !ok {
		log.Warn().Msg("ID token missing from OAuth token response")
		return errors.New("id_token missing from response")
	}

	verifier := provider.Verifier(&oidc.Config{ClientID: p.oAuthConfig.ClientID})
	idToken, err := verifier.Verify(ctx, rawIDToken)
	if err != nil {
		log.Warn().Err(err).Msg("Failed to verify ID token")
		return fmt.Errorf("failed to verify ID token: %w", err)
	}
	log.Info().Str("issuer", idToken.Issuer).Str("subject", idToken.Subject).Msg("ID token verified successfully")
	return nil
}

func tokenResult(token *oauth2.Token) *models.TokenResult {
	return &models.TokenResult{
		AccessToken:  token.AccessToken,
		RefreshToken: token.RefreshToken,
		ExpiresAt:    token.Expiry,
	}
}
