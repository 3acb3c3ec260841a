package handlers_test

import (
	"errors"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/goccy/go-json"

	"github.com/bmsuite/bms-session-server/internal/handlers"
	"github.com/bmsuite/bms-session-server/internal/mocks"
	"github.com/bmsuite/bms-session-server/internal/models"
	"github.com/bmsuite/bms-session-server/internal/monitor"
	"github.com/bmsuite/bms-session-server/internal/repository/memory"
	"github.com/bmsuite/bms-session-server/internal/router"
	"github.com/bmsuite/bms-session-server/internal/service"
	"github.com/bmsuite/bms-session-server/internal/session"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type sessionHandlerTestDeps struct {
	mockAuth *mocks.MockSessionAuthenticator
	monitor  *monitor.Monitor
	tokens   *service.JWTService
	echo     *echo.Echo
}

func setupSessionHandlerTest(t *testing.T) sessionHandlerTestDeps {
	t.Helper()
	kv := memory.NewMemoryKVStore(time.Minute)
	t.Cleanup(kv.StopCleanup)

	deps := sessionHandlerTestDeps{
		mockAuth: new(mocks.MockSessionAuthenticator),
		tokens:   service.NewTokenService(testJWTSecret, time.Hour),
	}
	// The monitor is not started; Record calls drop their events, which is
	// all the handler contract requires.
	deps.monitor = monitor.New(session.NewStore(kv), new(mocks.MockSessionExtender), monitor.Options{})
	deps.echo = echo.New()
	router.SetupSessionRoutes(deps.echo, handlers.NewSessionHandler(deps.mockAuth, deps.monitor), router.NewJWTMiddleware(testJWTSecret))
	return deps
}

func (d sessionHandlerTestDeps) bearerToken(t *testing.T, scope string) string {
	t.Helper()
	token, _, err := d.tokens.GenerateToken("1", scope)
	require.NoError(t, err)
	return token
}

func TestSessionHandler_Info(t *testing.T) {
	t.Run("LiveSession", func(t *testing.T) {
		deps := setupSessionHandlerTest(t)
		token := deps.bearerToken(t, "scope-abc")

		loginTime := time.Now().UTC().Add(-time.Hour)
		deps.mockAuth.On("SessionInfo", mock.Anything, "scope-abc").Return(models.SessionInfo{
			HasSession:    true,
			LoginTime:     loginTime,
			TimeRemaining: 7 * time.Hour,
			User:          &models.UserProfile{ID: "1", DisplayName: "John Smith"},
		}).Once()

		rec := performRequest(deps.echo, http.MethodGet, "/api/session/info", token, nil)

		require.Equal(t, http.StatusOK, rec.Code)
		var resp models.SessionInfoResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.True(t, resp.HasSession)
		assert.False(t, resp.IsExpired)
		assert.Equal(t, (7 * time.Hour).Milliseconds(), resp.RemainingMs)
		assert.InDelta(t, 420, resp.RemainingMinutes, 0.01)
		require.NotNil(t, resp.User)
		assert.Equal(t, "John Smith", resp.User.DisplayName)
	})

	t.Run("NoSession", func(t *testing.T) {
		deps := setupSessionHandlerTest(t)
		token := deps.bearerToken(t, "scope-abc")

		deps.mockAuth.On("SessionInfo", mock.Anything, "scope-abc").Return(models.SessionInfo{}).Once()

		rec := performRequest(deps.echo, http.MethodGet, "/api/session/info", token, nil)

		require.Equal(t, http.StatusOK, rec.Code)
		var resp models.SessionInfoResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.False(t, resp.HasSession)
		assert.Nil(t, resp.User)
	})

	t.Run("MissingToken", func(t *testing.T) {
		deps := setupSessionHandlerTest(t)

		rec := performRequest(deps.echo, http.MethodGet, "/api/session/info", "", nil)

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		deps.mockAuth.AssertNotCalled(t, "SessionInfo", mock.Anything, mock.Anything)
	})
}

func TestSessionHandler_Initialize(t *testing.T) {
	t.Run("RestoresSession", func(t *testing.T) {
		deps := setupSessionHandlerTest(t)
		token := deps.bearerToken(t, "scope-abc")

		deps.mockAuth.On("Initialize", mock.Anything, "scope-abc").Return(nil).Once()
		deps.mockAuth.On("SessionInfo", mock.Anything, "scope-abc").Return(models.SessionInfo{
			HasSession:    true,
			TimeRemaining: 8 * time.Hour,
		}).Once()

		rec := performRequest(deps.echo, http.MethodPost, "/api/session/initialize", token, nil)

		require.Equal(t, http.StatusOK, rec.Code)
		var resp models.SessionInfoResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.True(t, resp.HasSession)
		deps.mockAuth.AssertExpectations(t)
	})

	t.Run("AnonymousOutcomeIsStillOK", func(t *testing.T) {
		deps := setupSessionHandlerTest(t)
		token := deps.bearerToken(t, "scope-abc")

		deps.mockAuth.On("Initialize", mock.Anything, "scope-abc").Return(nil).Once()
		deps.mockAuth.On("SessionInfo", mock.Anything, "scope-abc").Return(models.SessionInfo{}).Once()

		rec := performRequest(deps.echo, http.MethodPost, "/api/session/initialize", token, nil)

		require.Equal(t, http.StatusOK, rec.Code)
		var resp models.SessionInfoResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.False(t, resp.HasSession)
	})
}

func TestSessionHandler_Extend(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		deps := setupSessionHandlerTest(t)
		token := deps.bearerToken(t, "scope-abc")

		now := time.Now().UTC()
		deps.mockAuth.On("ExtendSession", mock.Anything, "scope-abc").Return(nil).Once()
		deps.mockAuth.On("SessionInfo", mock.Anything, "scope-abc").Return(models.SessionInfo{
			HasSession:    true,
			LoginTime:     now,
			TimeRemaining: 8 * time.Hour,
		}).Once()

		rec := performRequest(deps.echo, http.MethodPost, "/api/session/extend", token, nil)

		require.Equal(t, http.StatusOK, rec.Code)
		var resp models.ExtendSessionResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.True(t, resp.Extended)
		assert.Equal(t, (8 * time.Hour).Milliseconds(), resp.RemainingMs)
		deps.mockAuth.AssertExpectations(t)
	})

	t.Run("NoSessionReportsNotExtended", func(t *testing.T) {
		deps := setupSessionHandlerTest(t)
		token := deps.bearerToken(t, "scope-abc")

		deps.mockAuth.On("ExtendSession", mock.Anything, "scope-abc").Return(nil).Once()
		deps.mockAuth.On("SessionInfo", mock.Anything, "scope-abc").Return(models.SessionInfo{}).Once()

		rec := performRequest(deps.echo, http.MethodPost, "/api/session/extend", token, nil)

		require.Equal(t, http.StatusOK, rec.Code)
		var resp models.ExtendSessionResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.False(t, resp.Extended)
	})

	t.Run("StorageError", func(t *testing.T) {
		deps := setupSessionHandlerTest(t)
		token := deps.bearerToken(t, "scope-abc")

		deps.mockAuth.On("ExtendSession", mock.Anything, "scope-abc").Return(errors.New("storage down")).Once()

		rec := performRequest(deps.echo, http.MethodPost, "/api/session/extend", token, nil)

		assert.Equal(t, http.StatusInternalServerError, rec.Code)
	})
}

func TestSessionHandler_Activity(t *testing.T) {
	t.Run("Accepted", func(t *testing.T) {
		deps := setupSessionHandlerTest(t)
		token := deps.bearerToken(t, "scope-abc")

		body := strings.NewReader(`{"event":"pointerdown"}`)
		rec := performRequest(deps.echo, http.MethodPost, "/api/session/activity", token, body)

		assert.Equal(t, http.StatusAccepted, rec.Code)
	})

	t.Run("MissingEvent", func(t *testing.T) {
		deps := setupSessionHandlerTest(t)
		token := deps.bearerToken(t, "scope-abc")

		body := strings.NewReader(`{}`)
		rec := performRequest(deps.echo, http.MethodPost, "/api/session/activity", token, body)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestSessionHandler_Visibility(t *testing.T) {
	deps := setupSessionHandlerTest(t)
	token := deps.bearerToken(t, "scope-abc")

	body := strings.NewReader(`{"visible":true}`)
	rec := performRequest(deps.echo, http.MethodPost, "/api/session/visibility", token, body)

	assert.Equal(t, http.StatusAccepted, rec.Code)
}

func TestSessionHandler_Token(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		deps := setupSessionHandlerTest(t)
		token := deps.bearerToken(t, "scope-abc")

		expiresAt := time.Now().UTC().Add(time.Hour).Truncate(time.Second)
		deps.mockAuth.On("GetAccessToken", mock.Anything, "scope-abc", []string(nil)).
			Return(&models.TokenResult{AccessToken: "provider-token", ExpiresAt: expiresAt}, nil).Once()

		rec := performRequest(deps.echo, http.MethodGet, "/api/session/token", token, nil)

		require.Equal(t, http.StatusOK, rec.Code)
		var resp models.AccessTokenResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Equal(t, "provider-token", resp.AccessToken)
	})

	t.Run("ScopesQueryIsParsed", func(t *testing.T) {
		deps := setupSessionHandlerTest(t)
		token := deps.bearerToken(t, "scope-abc")

		deps.mockAuth.On("GetAccessToken", mock.Anything, "scope-abc", []string{"User.Read", "Mail.Read"}).
			Return(&models.TokenResult{AccessToken: "provider-token"}, nil).Once()

		rec := performRequest(deps.echo, http.MethodGet, "/api/session/token?scopes=User.Read,Mail.Read", token, nil)

		assert.Equal(t, http.StatusOK, rec.Code)
		deps.mockAuth.AssertExpectations(t)
	})

	t.Run("NotAuthenticated", func(t *testing.T) {
		deps := setupSessionHandlerTest(t)
		token := deps.bearerToken(t, "scope-abc")

		deps.mockAuth.On("GetAccessToken", mock.Anything, "scope-abc", []string(nil)).
			Return(nil, service.ErrNotAuthenticated).Once()

		rec := performRequest(deps.echo, http.MethodGet, "/api/session/token", token, nil)

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("ProviderFailure", func(t *testing.T) {
		deps := setupSessionHandlerTest(t)
		token := deps.bearerToken(t, "scope-abc")

		deps.mockAuth.On("GetAccessToken", mock.Anything, "scope-abc", []string(nil)).
			Return(nil, &service.AuthProviderError{Op: "token refresh", Err: errors.New("refresh denied")}).Once()

		rec := performRequest(deps.echo, http.MethodGet, "/api/session/token", token, nil)

		assert.Equal(t, http.StatusBadGateway, rec.Code)
		assert.Contains(t, rec.Body.String(), "refresh denied")
	})
}
