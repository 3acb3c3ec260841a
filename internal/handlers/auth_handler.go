package handlers

import (
	"errors"
	"net/http"

	"github.com/bmsuite/bms-session-server/internal/models"
	"github.com/bmsuite/bms-session-server/internal/service"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"
)

// AuthHandler handles login, logout and verification requests.
type AuthHandler struct {
	Auth   service.SessionAuthenticator
	Tokens service.JWTGenerator
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(auth service.SessionAuthenticator, tokens service.JWTGenerator) *AuthHandler {
	return &AuthHandler{Auth: auth, Tokens: tokens}
}

// Login authenticates with credentials. Each login opens a fresh session
// scope; the response carries the scope and its bearer token.
func (h *AuthHandler) Login(c echo.Context) error {
	var req models.LoginRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request body")
	}
	if req.Email == "" || req.Password == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "Email and password are required")
	}

	return h.openSession(c, &models.Credentials{Email: req.Email, Password: req.Password})
}

// DemoLogin opens a session using the provider's default identity
// resolution, no credentials required.
func (h *AuthHandler) DemoLogin(c echo.Context) error {
	return h.openSession(c, nil)
}

func (h *AuthHandler) openSession(c echo.Context, creds *models.Credentials) error {
	scope := uuid.NewString()
	ctx := c.Request().Context()

	sess, err := h.Auth.Login(ctx, scope, creds)
	if err != nil {
		var provErr *service.AuthProviderError
		if errors.As(err, &provErr) {
			log.Warn().Err(err).Msg("Login rejected by identity provider")
			return echo.NewHTTPError(http.StatusUnauthorized, provErr.Err.Error())
		}
		log.Error().Err(err).Msg("Login failed")
		return echo.NewHTTPError(http.StatusInternalServerError, "Login failed")
	}

	sessionToken, expiresAt, err := h.Tokens.GenerateToken(sess.User.ID, scope)
	if err != nil {
		log.Error().Err(err).Str("scope", scope).Msg("Failed to issue session token")
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to issue session token")
	}

	return c.JSON(http.StatusOK, models.LoginResponse{
		Scope:        scope,
		SessionToken: sessionToken,
		User:         sess.User,
		ExpiresAt:    expiresAt,
	})
}

// DemoUsers returns the demo identity catalog for the login form.
func (h *AuthHandler) DemoUsers(c echo.Context) error {
	return c.JSON(http.StatusOK, echo.Map{"users": service.DemoUsers()})
}

// Logout clears the caller's session scope. The response is 200 regardless
// of provider-side logout outcome; local state is already cleared.
func (h *AuthHandler) Logout(c echo.Context) error {
	scope, err := scopeFromContext(c)
	if err != nil {
		return err
	}
	if err := h.Auth.Logout(c.Request().Context(), scope); err != nil {
		log.Warn().Err(err).Str("scope", scope).Msg("Logout reported an error")
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "Successfully logged out"})
}

// Verify reports whether the presented bearer token maps to a live session.
func (h *AuthHandler) Verify(c echo.Context) error {
	scope, err := scopeFromContext(c)
	if err != nil {
		return err
	}
	if !h.Auth.IsAuthenticated(c.Request().Context(), scope) {
		return echo.NewHTTPError(http.StatusUnauthorized, "Invalid or expired session")
	}
	return c.JSON(http.StatusOK, models.VerifySessionResponse{Scope: scope, IsValid: true})
}
