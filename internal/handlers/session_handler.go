package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/bmsuite/bms-session-server/internal/models"
	"github.com/bmsuite/bms-session-server/internal/monitor"
	"github.com/bmsuite/bms-session-server/internal/service"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"
)

// SessionHandler serves the per-scope session lifecycle routes.
type SessionHandler struct {
	Auth    service.SessionAuthenticator
	Monitor *monitor.Monitor
}

// NewSessionHandler creates a new SessionHandler.
func NewSessionHandler(auth service.SessionAuthenticator, mon *monitor.Monitor) *SessionHandler {
	return &SessionHandler{Auth: auth, Monitor: mon}
}

// Initialize restores the caller's scope on dashboard startup: store fast
// path, then an optional provider silent login. Responds with the resulting
// session status; an anonymous outcome is still a 200.
func (h *SessionHandler) Initialize(c echo.Context) error {
	scope, err := scopeFromContext(c)
	if err != nil {
		return err
	}
	ctx := c.Request().Context()
	if err := h.Auth.Initialize(ctx, scope); err != nil {
		log.Error().Err(err).Str("scope", scope).Msg("Session initialization failed")
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to initialize session")
	}
	return c.JSON(http.StatusOK, sessionInfoResponse(h.Auth.SessionInfo(ctx, scope)))
}

// Info returns the derived session status for the caller's scope.
func (h *SessionHandler) Info(c echo.Context) error {
	scope, err := scopeFromContext(c)
	if err != nil {
		return err
	}
	info := h.Auth.SessionInfo(c.Request().Context(), scope)
	return c.JSON(http.StatusOK, sessionInfoResponse(info))
}

// Extend resets the session clock for the caller's scope and returns the
// renewed window.
func (h *SessionHandler) Extend(c echo.Context) error {
	scope, err := scopeFromContext(c)
	if err != nil {
		return err
	}
	ctx := c.Request().Context()
	if err := h.Auth.ExtendSession(ctx, scope); err != nil {
		log.Error().Err(err).Str("scope", scope).Msg("Failed to extend session")
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to extend session")
	}

	info := h.Auth.SessionInfo(ctx, scope)
	return c.JSON(http.StatusOK, models.ExtendSessionResponse{
		Extended:    info.HasSession && !info.IsExpired,
		LoginTime:   info.LoginTime,
		RemainingMs: info.TimeRemaining.Milliseconds(),
	})
}

// Activity reports a client interaction event to the activity monitor.
// Accepted asynchronously; any resulting extension happens on the monitor's
// event loop.
func (h *SessionHandler) Activity(c echo.Context) error {
	scope, err := scopeFromContext(c)
	if err != nil {
		return err
	}
	var req models.ActivityRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request body")
	}
	if req.Event == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "Event name is required")
	}
	h.Monitor.RecordActivity(scope, req.Event)
	return c.NoContent(http.StatusAccepted)
}

// Visibility reports a tab visibility transition to the activity monitor.
func (h *SessionHandler) Visibility(c echo.Context) error {
	scope, err := scopeFromContext(c)
	if err != nil {
		return err
	}
	var req models.VisibilityRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request body")
	}
	h.Monitor.RecordVisibility(scope, req.Visible)
	return c.NoContent(http.StatusAccepted)
}

// Token returns a live provider access token for the caller's scope, cached
// when possible.
func (h *SessionHandler) Token(c echo.Context) error {
	scope, err := scopeFromContext(c)
	if err != nil {
		return err
	}

	var tokenScopes []string
	if raw := c.QueryParam("scopes"); raw != "" {
		tokenScopes = strings.Fields(strings.ReplaceAll(raw, ",", " "))
	}

	tok, err := h.Auth.GetAccessToken(c.Request().Context(), scope, tokenScopes)
	if err != nil {
		if errors.Is(err, service.ErrNotAuthenticated) {
			return echo.NewHTTPError(http.StatusUnauthorized, "No active session")
		}
		var provErr *service.AuthProviderError
		if errors.As(err, &provErr) {
			log.Warn().Err(err).Str("scope", scope).Msg("Token refresh rejected by identity provider")
			return echo.NewHTTPError(http.StatusBadGateway, provErr.Err.Error())
		}
		log.Error().Err(err).Str("scope", scope).Msg("Token acquisition failed")
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to acquire token")
	}

	return c.JSON(http.StatusOK, models.AccessTokenResponse{
		AccessToken: tok.AccessToken,
		ExpiresAt:   tok.ExpiresAt,
	})
}

func sessionInfoResponse(info models.SessionInfo) models.SessionInfoResponse {
	return models.SessionInfoResponse{
		HasSession:       info.HasSession,
		IsExpired:        info.IsExpired,
		LoginTime:        info.LoginTime,
		RemainingMs:      info.TimeRemaining.Milliseconds(),
		RemainingMinutes: info.TimeRemaining.Minutes(),
		User:             info.User,
	}
}
