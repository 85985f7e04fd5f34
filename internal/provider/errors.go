package provider

import (
	"errors"
	"fmt"
)

// Sentinel errors for provider API responses
var (
	// ErrUnauthorized indicates the access token was rejected (HTTP 401)
	ErrUnauthorized = errors.New("provider rejected access token")

	// ErrForbidden indicates insufficient API scope (HTTP 403); never retried
	ErrForbidden = errors.New("insufficient provider API scope")

	// ErrRateLimited indicates the provider throttled the request (HTTP 429)
	ErrRateLimited = errors.New("provider rate limit exceeded")

	// ErrInvalidGrant indicates the refresh token is no longer valid and the
	// company must reconnect; never retried
	ErrInvalidGrant = errors.New("refresh token is invalid or revoked")
)

// TransientError wraps a 5xx response or a network failure. The caller may
// retry the operation later.
type TransientError struct {
	Err        error
	StatusCode int
}

func (e *TransientError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("transient provider error: status %d", e.StatusCode)
	}
	return fmt.Sprintf("transient provider error: %v", e.Err)
}

// Unwrap returns the underlying error for errors.Is/As support
func (e *TransientError) Unwrap() error {
	return e.Err
}
