package models

import "time"

// UserProfile is the identity record attached to a session. Field names
// follow the Microsoft Graph /me shape so the OAuth provider can decode
// straight into it.
type UserProfile struct {
	ID                string `json:"id"`
	DisplayName       string `json:"displayName"`
	Mail              string `json:"mail"`
	UserPrincipalName string `json:"userPrincipalName"`
	JobTitle          string `json:"jobTitle,omitempty"`
	OfficeLocation    string `json:"officeLocation,omitempty"`
	Department        string `json:"department,omitempty"`
}

// Credentials carries whatever the active identity provider needs for an
// interactive login. The demo provider reads Email/Password; the OAuth
// provider reads AuthCode/CodeVerifier from its callback exchange.
type Credentials struct {
	Email        string `json:"email,omitempty"`
	Password     string `json:"password,omitempty"`
	AuthCode     string `json:"code,omitempty"`
	CodeVerifier string `json:"codeVerifier,omitempty"`
}

// TokenResult is what an identity provider returns from a token acquisition.
type TokenResult struct {
	AccessToken  string    `json:"accessToken"`
	RefreshToken string    `json:"refreshToken,omitempty"`
	ExpiresAt    time.Time `json:"expiresAt"`
}
