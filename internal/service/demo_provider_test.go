package service

import (
	"context"
	"testing"
	"time"

	"github.com/bmsuite/bms-session-server/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDemoProvider_LoginInteractive(t *testing.T) {
	ctx := context.Background()

	t.Run("ValidCredentials", func(t *testing.T) {
		p := NewDemoProvider(time.Hour)

		tok, err := p.LoginInteractive(ctx, &models.Credentials{
			Email:    "sarah.johnson@company.com",
			Password: "password",
		})
		require.NoError(t, err)
		assert.NotEmpty(t, tok.AccessToken)
		assert.True(t, tok.ExpiresAt.After(time.Now()))

		user, err := p.Profile(ctx, tok.AccessToken)
		require.NoError(t, err)
		assert.Equal(t, "Sarah Johnson", user.DisplayName)
	})

	t.Run("EmailIsCaseInsensitive", func(t *testing.T) {
		p := NewDemoProvider(time.Hour)

		tok, err := p.LoginInteractive(ctx, &models.Credentials{
			Email:    "John.Smith@Company.COM",
			Password: "demo",
		})
		require.NoError(t, err)

		user, err := p.Profile(ctx, tok.AccessToken)
		require.NoError(t, err)
		assert.Equal(t, "John Smith", user.DisplayName)
	})

	t.Run("UnknownUser", func(t *testing.T) {
		p := NewDemoProvider(time.Hour)

		_, err := p.LoginInteractive(ctx, &models.Credentials{
			Email:    "nobody@company.com",
			Password: "password",
		})
		assert.ErrorContains(t, err, "user not found")
	})

	t.Run("WrongPassword", func(t *testing.T) {
		p := NewDemoProvider(time.Hour)

		_, err := p.LoginInteractive(ctx, &models.Credentials{
			Email:    "john.smith@company.com",
			Password: "hunter2",
		})
		assert.ErrorContains(t, err, "invalid password")
	})

	t.Run("NilCredentialsUsesDefaultIdentity", func(t *testing.T) {
		p := NewDemoProvider(time.Hour)

		tok, err := p.LoginInteractive(ctx, nil)
		require.NoError(t, err)

		user, err := p.Profile(ctx, tok.AccessToken)
		require.NoError(t, err)
		assert.Equal(t, "John Smith", user.DisplayName)
	})
}

func TestDemoProvider_SilentLogin(t *testing.T) {
	ctx := context.Background()

	t.Run("NoPriorLogin", func(t *testing.T) {
		p := NewDemoProvider(time.Hour)

		_, err := p.SilentLogin(ctx)
		assert.ErrorIs(t, err, ErrNoActiveSession)
	})

	t.Run("RestoresCurrentIdentity", func(t *testing.T) {
		p := NewDemoProvider(time.Hour)

		_, err := p.LoginInteractive(ctx, &models.Credentials{
			Email:    "michael.brown@company.com",
			Password: "password",
		})
		require.NoError(t, err)

		tok, err := p.SilentLogin(ctx)
		require.NoError(t, err)

		user, err := p.Profile(ctx, tok.AccessToken)
		require.NoError(t, err)
		assert.Equal(t, "Michael Brown", user.DisplayName)
	})
}

func TestDemoProvider_AcquireToken(t *testing.T) {
	ctx := context.Background()

	t.Run("MintsFreshToken", func(t *testing.T) {
		p := NewDemoProvider(time.Hour)

		first, err := p.LoginInteractive(ctx, nil)
		require.NoError(t, err)

		second, err := p.AcquireToken(ctx, []string{"User.Read"})
		require.NoError(t, err)
		assert.NotEqual(t, first.AccessToken, second.AccessToken)

		// Both tokens resolve to the same identity.
		u1, err := p.Profile(ctx, first.AccessToken)
		require.NoError(t, err)
		u2, err := p.Profile(ctx, second.AccessToken)
		require.NoError(t, err)
		assert.Equal(t, u1.ID, u2.ID)
	})

	t.Run("NoCurrentIdentity", func(t *testing.T) {
		p := NewDemoProvider(time.Hour)

		_, err := p.AcquireToken(ctx, nil)
		assert.ErrorIs(t, err, ErrNoActiveSession)
	})
}

func TestDemoProvider_Logout(t *testing.T) {
	ctx := context.Background()
	p := NewDemoProvider(time.Hour)

	tok, err := p.LoginInteractive(ctx, nil)
	require.NoError(t, err)

	require.NoError(t, p.Logout(ctx))

	_, err = p.SilentLogin(ctx)
	assert.ErrorIs(t, err, ErrNoActiveSession)

	_, err = p.Profile(ctx, tok.AccessToken)
	assert.ErrorContains(t, err, "unknown access token")
}

func TestDemoUsers(t *testing.T) {
	users := DemoUsers()
	require.Len(t, users, 3)
	assert.Equal(t, "John Smith", users[0].DisplayName)

	// Mutating the returned slice must not affect the catalog.
	users[0].DisplayName = "Changed"
	assert.Equal(t, "John Smith", DemoUsers()[0].DisplayName)
}
