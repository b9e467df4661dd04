// Package auth maintains the authenticated session against the optimization
// service: login, transparent recovery from access-token expiry, and the
// bearer-injecting HTTP client every API call goes through.
//
// Refresh tokens rotate server-side, so issuing two concurrent renewal calls
// can invalidate the whole session. The Refresher therefore runs renewals
// single-flight: concurrent callers await and share one in-flight result.
package auth

import (
	"errors"
	"fmt"
)

const (
	loginPath   = "/auth/login/"
	refreshPath = "/auth/refresh/"
)

var (
	// ErrRefreshFailed means credential renewal failed and the session has
	// been torn down. Callers must surface this as a forced logout; there is
	// no local recovery.
	ErrRefreshFailed = errors.New("auth: refresh failed")

	// ErrInvalidCredentials means the login endpoint rejected the
	// username/password pair.
	ErrInvalidCredentials = errors.New("auth: invalid credentials")

	// ErrRejectedAfterRefresh means a request was rejected again after a
	// successful credential renewal. The retry budget is one; the session is
	// torn down instead of refreshing a second time.
	ErrRejectedAfterRefresh = errors.New("auth: request rejected after credential renewal")
)

// AuthError is a terminal authentication failure: the access credential was
// rejected and could not be recovered within the bounded retry. The session
// has been cleared by the time it is returned.
type AuthError struct {
	Op         string // operation that hit the failure
	StatusCode int    // last rejected status, 0 if refresh itself failed
	Err        error
}

func (e *AuthError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("auth: %s: rejected with status %d: %v", e.Op, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("auth: %s: %v", e.Op, e.Err)
}

func (e *AuthError) Unwrap() error { return e.Err }
