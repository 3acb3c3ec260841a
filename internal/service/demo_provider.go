package service

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/bmsuite/bms-session-server/internal/models"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// demoUsers is the fixed identity table backing demo logins.
var demoUsers = []models.UserProfile{
	{
		ID:                "1",
		DisplayName:       "John Smith",
		Mail:              "john.smith@company.com",
		UserPrincipalName: "john.smith@company.com",
		JobTitle:          "Senior Manager",
		OfficeLocation:    "Sydney Office",
		Department:        "Business Management",
	},
	{
		ID:                "2",
		DisplayName:       "Sarah Johnson",
		Mail:              "sarah.johnson@company.com",
		UserPrincipalName: "sarah.johnson@company.com",
		JobTitle:          "Project Coordinator",
		OfficeLocation:    "Melbourne Office",
		Department:        "Operations",
	},
	{
		ID:                "3",
		DisplayName:       "Michael Brown",
		Mail:              "michael.brown@company.com",
		UserPrincipalName: "michael.brown@company.com",
		JobTitle:          "Document Controller",
		OfficeLocation:    "Brisbane Office",
		Department:        "Quality Assurance",
	},
}

// DemoUsers returns the demo identity catalog for the login form.
func DemoUsers() []models.UserProfile {
	users := make([]models.UserProfile, len(demoUsers))
	copy(users, demoUsers)
	return users
}

var _ IdentityProvider = (*DemoProvider)(nil)

// DemoProvider is an IdentityProvider over the fixed demo-user table. It
// mints opaque tokens locally and keeps an issued-token index so Profile can
// resolve them. No network, no persistence.
type DemoProvider struct {
	tokenTTL time.Duration

	mu      sync.Mutex
	current *models.UserProfile
	issued  map[string]models.UserProfile
}

// NewDemoProvider creates a DemoProvider whose tokens live for tokenTTL.
func NewDemoProvider(tokenTTL time.Duration) *DemoProvider {
	return &DemoProvider{
		tokenTTL: tokenTTL,
		issued:   make(map[string]models.UserProfile),
	}
}

// LoginInteractive validates credentials against the demo table, or resolves
// the default demo identity when creds is nil.
func (p *DemoProvider) LoginInteractive(ctx context.Context, creds *models.Credentials) (*models.TokenResult, error) {
	var user models.UserProfile
	if creds == nil || creds.Email == "" {
		user = demoUsers[0]
	} else {
		found := false
		for _, u := range demoUsers {
			if strings.EqualFold(u.Mail, creds.Email) {
				user = u
				found = true
				break
			}
		}
		if !found {
			return nil, errors.New("user not found")
		}
		if creds.Password != "password" && creds.Password != "demo" {
			return nil, errors.New("invalid password")
		}
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	p.current = &user
	return p.issueLocked(user), nil
}

// SilentLogin restores the in-process identity, if a login already happened.
func (p *DemoProvider) SilentLogin(ctx context.Context) (*models.TokenResult, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.current == nil {
		return nil, ErrNoActiveSession
	}
	return p.issueLocked(*p.current), nil
}

// AcquireToken mints a fresh token for the current identity. Scopes are
// accepted for interface parity and ignored.
func (p *DemoProvider) AcquireToken(ctx context.Context, scopes []string) (*models.TokenResult, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.current == nil {
		return nil, ErrNoActiveSession
	}
	return p.issueLocked(*p.current), nil
}

// Profile resolves an issued token back to its identity record.
func (p *DemoProvider) Profile(ctx context.Context, accessToken string) (*models.UserProfile, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	user, ok := p.issued[accessToken]
	if !ok {
		return nil, errors.New("unknown access token")
	}
	return &user, nil
}

// Logout drops the in-process identity and all issued tokens.
func (p *DemoProvider) Logout(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.current = nil
	p.issued = make(map[string]models.UserProfile)
	log.Debug().Msg("Demo provider session cleared")
	return nil
}

func (p *DemoProvider) issueLocked(user models.UserProfile) *models.TokenResult {
	token := "demo-" + uuid.NewString()
	p.issued[token] = user
	return &models.TokenResult{
		AccessToken: token,
		ExpiresAt:   time.Now().UTC().Add(p.tokenTTL),
	}
}
