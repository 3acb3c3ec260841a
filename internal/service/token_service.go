package service

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var _ JWTGenerator = (*JWTService)(nil)

// JWTService signs and validates the HS256 bearer tokens used by the session
// routes. The session scope rides in the sid claim.
type JWTService struct {
	jwtSecret []byte
	duration  time.Duration
}

// NewTokenService creates a JWTService. Tokens live for the given duration,
// normally the session timeout.
func NewTokenService(secret string, duration time.Duration) *JWTService {
	return &JWTService{jwtSecret: []byte(secret), duration: duration}
}

// GenerateToken creates a new JWT tying a user to a session scope.
func (s *JWTService) GenerateToken(subject, scope string) (string, time.Time, error) {
	now := time.Now()
	exp := now.Add(s.duration)
	claims := jwt.MapClaims{
		"sub": subject,
		"sid": scope,
		"iss": "bms-session-server",
		"aud": "bms-dashboard",
		"exp": exp.Unix(),
		"iat": now.Unix(),
		"nbf": now.Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString(s.jwtSecret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to sign token: %w", err)
	}
	return tokenString, exp, nil
}

// ValidateToken parses a bearer token and extracts the subject and scope.
func (s *JWTService) ValidateToken(tokenString string) (string, string, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.jwtSecret, nil
	})
	if err != nil {
		return "", "", fmt.Errorf("failed to parse token: %w", err)
	}
	if !token.Valid {
		return "", "", fmt.Errorf("invalid token")
	}
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return "", "", fmt.Errorf("invalid token claims")
	}
	subject, err := claims.GetSubject()
	if err != nil || subject == "" {
		return "", "", fmt.Errorf("invalid token claims: missing subject")
	}
	scope, ok := claims["sid"].(string)
	if !ok || scope == "" {
		return "", "", fmt.Errorf("invalid token claims: missing sid")
	}
	return subject, scope, nil
}
