package session

import (
	"context"
	"errors"
	"time"

	"github.com/goccy/go-json"

	"github.com/bmsuite/bms-session-server/internal/models"
	"github.com/bmsuite/bms-session-server/internal/repository"
	"github.com/rs/zerolog/log"
)

// DefaultTimeout is the absolute session ceiling measured from login or the
// last extension.
const DefaultTimeout = 8 * time.Hour

// Storage key prefixes. The composite session record is authoritative; the
// user profile and tokens are duplicated for fast lookup.
const (
	sessionKeyPrefix = "bms_auth_session:"
	tokenKeyPrefix   = "bms_access_token:"
	refreshKeyPrefix = "bms_refresh_token:"
	userKeyPrefix    = "bms_user_profile:"
)

// Store persists one session record per scope (dashboard tab) in a KVStore
// and derives SessionInfo on demand. All read paths fail closed to "no
// session": corrupt or expired records are cleared rather than surfaced.
type Store struct {
	kv      repository.KVStore
	timeout time.Duration
	now     func() time.Time
}

type Option func(*Store)

// WithTimeout overrides the absolute session timeout.
func WithTimeout(timeout time.Duration) Option {
	return func(s *Store) { s.timeout = timeout }
}

// WithClock overrides the wall clock, for tests.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

func NewStore(kv repository.KVStore, opts ...Option) *Store {
	s := &Store{
		kv:      kv,
		timeout: DefaultTimeout,
		now:     func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Timeout returns the absolute session ceiling the store enforces.
func (s *Store) Timeout() time.Duration {
	return s.timeout
}

// Save writes the full session record plus the duplicated user/token entries,
// stamping LoginTime with the current instant. Records carry a TTL matching
// the session window so shared backends shed dead scopes on their own.
func (s *Store) Save(ctx context.Context, scope string, sess *models.Session) error {
	if sess == nil {
		return errors.New("session cannot be nil")
	}
	now := s.now()
	sess.LoginTime = now
	return s.write(ctx, scope, sess, now)
}

// write persists a session as-is, without touching LoginTime.
func (s *Store) write(ctx context.Context, scope string, sess *models.Session, now time.Time) error {
	ttl := s.timeout - now.Sub(sess.LoginTime)
	if !sess.ExpiresAt.IsZero() {
		if until := sess.ExpiresAt.Sub(now); until < ttl {
			ttl = until
		}
	}
	if ttl <= 0 {
		// Already dead on arrival; storing it would only leave garbage.
		return s.Clear(ctx, scope)
	}

	data, err := json.Marshal(sess)
	if err != nil {
		return err
	}
	if err := s.kv.Set(ctx, sessionKeyPrefix+scope, data, ttl); err != nil {
		return err
	}

	userData, err := json.Marshal(sess.User)
	if err != nil {
		return err
	}
	if err := s.kv.Set(ctx, userKeyPrefix+scope, userData, ttl); err != nil {
		return err
	}
	if sess.AccessToken != "" {
		if err := s.kv.Set(ctx, tokenKeyPrefix+scope, []byte(sess.AccessToken), ttl); err != nil {
			return err
		}
	}
	if sess.RefreshToken != "" {
		if err := s.kv.Set(ctx, refreshKeyPrefix+scope, []byte(sess.RefreshToken), ttl); err != nil {
			return err
		}
	}
	return nil
}

// Load returns the stored session for the scope, or nil when absent, corrupt
// or expired. Corrupt and expired records are cleared as a side effect; no
// storage failure ever propagates.
func (s *Store) Load(ctx context.Context, scope string) *models.Session {
	data, err := s.kv.Get(ctx, sessionKeyPrefix+scope)
	if errors.Is(err, repository.ErrKeyNotFound) {
		return nil
	}
	if err != nil {
		log.Warn().Err(err).Str("scope", scope).Msg("Session read failed, treating as logged out")
		return nil
	}

	var sess models.Session
	if err := json.Unmarshal(data, &sess); err != nil {
		log.Warn().Err(err).Str("scope", scope).Msg("Corrupt session record, clearing storage")
		if clearErr := s.Clear(ctx, scope); clearErr != nil {
			log.Warn().Err(clearErr).Str("scope", scope).Msg("Failed to clear corrupt session")
		}
		return nil
	}

	if sess.IsExpiredAt(s.now(), s.timeout) {
		log.Info().Str("scope", scope).Msg("Session expired, clearing storage")
		if clearErr := s.Clear(ctx, scope); clearErr != nil {
			log.Warn().Err(clearErr).Str("scope", scope).Msg("Failed to clear expired session")
		}
		return nil
	}
	return &sess
}

// User is a convenience projection of Load.
func (s *Store) User(ctx context.Context, scope string) *models.UserProfile {
	sess := s.Load(ctx, scope)
	if sess == nil {
		return nil
	}
	return &sess.User
}

// AccessToken returns the duplicated token entry without validating the
// session record; callers wanting a guaranteed-live token go through the
// auth service.
func (s *Store) AccessToken(ctx context.Context, scope string) string {
	data, err := s.kv.Get(ctx, tokenKeyPrefix+scope)
	if err != nil {
		return ""
	}
	return string(data)
}

// RefreshToken returns the duplicated refresh token entry, if any.
func (s *Store) RefreshToken(ctx context.Context, scope string) string {
	data, err := s.kv.Get(ctx, refreshKeyPrefix+scope)
	if err != nil {
		return ""
	}
	return string(data)
}

// UpdateAccessToken replaces the token and expiry fields of an existing
// session without resetting LoginTime. No-op when the scope has no session.
func (s *Store) UpdateAccessToken(ctx context.Context, scope, token string, expiresAt time.Time) error {
	sess := s.Load(ctx, scope)
	if sess == nil {
		return nil
	}
	sess.AccessToken = token
	if !expiresAt.IsZero() {
		sess.ExpiresAt = expiresAt
	}
	return s.write(ctx, scope, sess, s.now())
}

// HasValidSession reports whether the scope holds a live session.
func (s *Store) HasValidSession(ctx context.Context, scope string) bool {
	return s.Load(ctx, scope) != nil
}

// Info derives the read-only status view. Unlike Load it does not self-heal:
// an expired record is reported with HasSession=true and IsExpired=true so
// the activity monitor's sweep can decide to clear it.
func (s *Store) Info(ctx context.Context, scope string) models.SessionInfo {
	data, err := s.kv.Get(ctx, sessionKeyPrefix+scope)
	if err != nil {
		return models.SessionInfo{}
	}
	var sess models.Session
	if err := json.Unmarshal(data, &sess); err != nil {
		return models.SessionInfo{}
	}

	now := s.now()
	expired := sess.IsExpiredAt(now, s.timeout)
	remaining := s.timeout - now.Sub(sess.LoginTime)
	if expired || remaining < 0 {
		remaining = 0
	}
	return models.SessionInfo{
		HasSession:    true,
		IsExpired:     expired,
		LoginTime:     sess.LoginTime,
		TimeRemaining: remaining,
		User:          &sess.User,
	}
}

// Clear removes every storage entry for the scope. Idempotent.
func (s *Store) Clear(ctx context.Context, scope string) error {
	return s.kv.Delete(ctx,
		sessionKeyPrefix+scope,
		tokenKeyPrefix+scope,
		refreshKeyPrefix+scope,
		userKeyPrefix+scope,
	)
}

// Extend resets the session's age clock, restoring the full timeout window.
// No-op when the scope has no live session.
func (s *Store) Extend(ctx context.Context, scope string) error {
	sess := s.Load(ctx, scope)
	if sess == nil {
		return nil
	}
	return s.Save(ctx, scope, sess)
}
