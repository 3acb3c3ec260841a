package router

import (
	echojwt "github.com/labstack/echo-jwt/v4"
	"github.com/labstack/echo/v4"

	"github.com/bmsuite/bms-session-server/internal/handlers"
)

// SetupAuthRoutes wires the login surface. Login routes are public; logout
// and verify require the bearer token so the scope can be derived from it.
func SetupAuthRoutes(app *echo.Echo, authHandler *handlers.AuthHandler, jwtMiddleware echo.MiddlewareFunc) {
	api := app.Group("/api/auth")

	api.POST("/login", authHandler.Login)
	api.POST("/login/demo", authHandler.DemoLogin)
	api.GET("/demo-users", authHandler.DemoUsers)

	api.POST("/logout", authHandler.Logout, jwtMiddleware)
	api.GET("/verify", authHandler.Verify, jwtMiddleware)
}

// SetupSessionRoutes wires the session lifecycle surface. Every route needs
// the bearer token.
func SetupSessionRoutes(app *echo.Echo, sessionHandler *handlers.SessionHandler, jwtMiddleware echo.MiddlewareFunc) {
	api := app.Group("/api/session", jwtMiddleware)

	api.GET("", sessionHandler.Info)
	api.GET("/info", sessionHandler.Info)
	api.POST("/initialize", sessionHandler.Initialize)
	api.POST("/extend", sessionHandler.Extend)
	api.POST("/activity", sessionHandler.Activity)
	api.POST("/visibility", sessionHandler.Visibility)
	api.GET("/token", sessionHandler.Token)
}

// SetupOAuthRoutes wires the Microsoft redirect flow.
func SetupOAuthRoutes(app *echo.Echo, oauthHandler *handlers.OAuthHandler) {
	oauth := app.Group("/api/auth/oauth")

	ms := oauth.Group("/microsoft")
	ms.GET("/login", oauthHandler.Login)
	ms.GET("/callback", oauthHandler.Callback)
}

// NewJWTMiddleware builds the bearer-token middleware protecting the session
// routes.
func NewJWTMiddleware(secret string) echo.MiddlewareFunc {
	return echojwt.WithConfig(echojwt.Config{
		SigningKey: []byte(secret),
	})
}
