// Package api wraps the optimization service's HTTP endpoints behind typed
// calls. Every call goes through the authenticated client, which owns bearer
// injection and the bounded expiry-recovery retry; this package owns payload
// shapes and the error taxonomy above the transport.
package api

import (
	"fmt"
)

// NetworkError is a transport failure with the originating operation
// identified. It is not retried automatically.
type NetworkError struct {
	Op  string
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("api: %s: network failure: %v", e.Op, e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }

// UpstreamError is a non-success response from the service that is not an
// authentication problem. The server-provided detail is carried verbatim;
// submission state is the caller's to reset for another attempt.
type UpstreamError struct {
	Op         string
	StatusCode int
	Detail     string
}

func (e *UpstreamError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("api: %s: upstream returned %d: %s", e.Op, e.StatusCode, e.Detail)
	}
	return fmt.Sprintf("api: %s: upstream returned %d", e.Op, e.StatusCode)
}
