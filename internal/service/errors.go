package service

import (
	"errors"
	"fmt"
)

// ErrNoActiveSession is returned by SilentLogin when the provider holds no
// live external session. It is an expected terminal state, not a failure.
var ErrNoActiveSession = errors.New("no active provider session")

// ErrNotAuthenticated is returned when an operation requires a live session
// and none exists.
var ErrNotAuthenticated = errors.New("not authenticated")

// AuthProviderError wraps an identity-provider failure. It is the only error
// class the auth service surfaces to callers; the provider's message is
// preserved so the UI can display it.
type AuthProviderError struct {
	Op  string
	Err error
}

func (e *AuthProviderError) Error() string {
	return fmt.Sprintf("identity provider %s failed: %v", e.Op, e.Err)
}

func (e *AuthProviderError) Unwrap() error {
	return e.Err
}
