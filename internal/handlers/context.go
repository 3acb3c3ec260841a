package handlers

import (
	"net/http"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
)

// scopeFromContext extracts the session scope from the bearer token the JWT
// middleware stored in the request context.
func scopeFromContext(c echo.Context) (string, error) {
	token, ok := c.Get("user").(*jwt.Token)
	if !ok {
		return "", echo.NewHTTPError(http.StatusUnauthorized, "User not authenticated: context missing token")
	}
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return "", echo.NewHTTPError(http.StatusUnauthorized, "Invalid token claims")
	}
	scope, ok := claims["sid"].(string)
	if !ok || scope == "" {
		return "", echo.NewHTTPError(http.StatusUnauthorized, "Invalid token: session scope claim is missing")
	}
	return scope, nil
}
