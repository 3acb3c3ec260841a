package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/bmsuite/bms-session-server/internal/config"
	"github.com/bmsuite/bms-session-server/internal/models"
	"github.com/bmsuite/bms-session-server/internal/service"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"
)

// OAuthHandler drives the Microsoft redirect flow. The callback completes the
// login through the auth facade, so the resulting session is indistinguishable
// from a credential login.
type OAuthHandler struct {
	Provider *service.MSOAuthProvider
	Auth     service.SessionAuthenticator
	Tokens   service.JWTGenerator
	Config   *config.Config
}

// NewOAuthHandler creates a new instance of OAuthHandler.
func NewOAuthHandler(provider *service.MSOAuthProvider, auth service.SessionAuthenticator, tokens service.JWTGenerator, cfg *config.Config) *OAuthHandler {
	return &OAuthHandler{Provider: provider, Auth: auth, Tokens: tokens, Config: cfg}
}

// Login initiates the OAuth2 flow by redirecting the user to Microsoft.
func (h *OAuthHandler) Login(c echo.Context) error {
	state := uuid.NewString()

	c.SetCookie(&http.Cookie{
		Name:     h.Config.StateCookieName,
		Value:    state,
		Expires:  time.Now().Add(10 * time.Minute),
		HttpOnly: true,
		Secure:   c.IsTLS(),
		SameSite: http.SameSiteLaxMode,
	})

	authURL := h.Provider.AuthCodeURL(state)
	log.Debug().Str("authURL", authURL).Msg("Redirecting user to Microsoft login")
	return c.Redirect(http.StatusTemporaryRedirect, authURL)
}

// Callback handles the web redirect back from Microsoft after authentication.
func (h *OAuthHandler) Callback(c echo.Context) error {
	// State verification (CSRF protection).
	queryState := c.QueryParam("state")
	cookieState := ""
	if cookie, err := c.Cookie(h.Config.StateCookieName); err == nil {
		cookieState = cookie.Value
	}

	// Clear the state cookie immediately after reading.
	c.SetCookie(&http.Cookie{
		Name:     h.Config.StateCookieName,
		Value:    "",
		Expires:  time.Now().Add(-1 * time.Hour),
		HttpOnly: true,
		Secure:   c.IsTLS(),
		SameSite: http.SameSiteLaxMode,
	})

	if queryState == "" {
		log.Warn().Msg("OAuth callback missing state parameter")
		return echo.NewHTTPError(http.StatusBadRequest, "State parameter missing")
	}
	if cookieState == "" {
		log.Warn().Msg("OAuth callback missing state cookie")
		return echo.NewHTTPError(http.StatusBadRequest, "State cookie missing or expired")
	}
	if queryState != cookieState {
		log.Warn().Msg("OAuth callback state mismatch")
		return echo.NewHTTPError(http.StatusUnauthorized, "Invalid state parameter")
	}

	code := c.QueryParam("code")
	if code == "" {
		errorDesc := c.QueryParam("error_description")
		log.Warn().
			Str("error", c.QueryParam("error")).
			Str("description", errorDesc).
			Msg("OAuth callback missing authorization code")
		return echo.NewHTTPError(http.StatusBadRequest, "Authorization code missing or error occurred during login: "+errorDesc)
	}

	scope := uuid.NewString()
	ctx := c.Request().Context()

	sess, err := h.Auth.Login(ctx, scope, &models.Credentials{AuthCode: code})
	if err != nil {
		var provErr *service.AuthProviderError
		if errors.As(err, &provErr) {
			log.Warn().Err(err).Msg("Microsoft login rejected")
			return echo.NewHTTPError(http.StatusUnauthorized, provErr.Err.Error())
		}
		log.Error().Err(err).Msg("Microsoft login failed")
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to complete Microsoft login")
	}

	sessionToken, expiresAt, err := h.Tokens.GenerateToken(sess.User.ID, scope)
	if err != nil {
		log.Error().Err(err).Str("scope", scope).Msg("Failed to issue session token")
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to issue session token")
	}

	log.Info().Str("user", sess.User.DisplayName).Str("scope", scope).Msg("Microsoft login successful")
	return c.JSON(http.StatusOK, models.LoginResponse{
		Scope:        scope,
		SessionToken: sessionToken,
		User:         sess.User,
		ExpiresAt:    expiresAt,
	})
}
