package service

import "fmt"

// ServiceError represents a business logic error with a code
type ServiceError struct {
	Err     error
	Message string
	Code    string
}

func (e *ServiceError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap returns the underlying error for errors.Is/As support
func (e *ServiceError) Unwrap() error {
	return e.Err
}

// Common error codes
const (
	// ErrCodeAuthentication: token invalid or expired even after a refresh
	// attempt; the company must reconnect to the provider
	ErrCodeAuthentication = "authentication_error"

	// ErrCodePermission: insufficient API scope; never retried
	ErrCodePermission = "permission_error"

	// ErrCodeTransientServer: 5xx, network failure, or timeout; the caller
	// may retry the sync later
	ErrCodeTransientServer = "transient_server_error"

	// ErrCodeRateLimited: provider throttling; retryable after a delay
	ErrCodeRateLimited = "rate_limit_error"

	// ErrCodeValidation: malformed recipient contact or invalid upload;
	// reported, never retried
	ErrCodeValidation = "validation_error"

	// ErrCodePaginationAborted: the pagination loop-breaker fired; partial
	// results were returned
	ErrCodePaginationAborted = "pagination_aborted"

	// ErrCodeConfiguration: missing client credentials or similar setup problem
	ErrCodeConfiguration = "configuration_error"

	ErrCodeLinkNotFound = "upload_link_not_found"
	ErrCodeLinkUsed     = "upload_link_used"
	ErrCodeLinkExpired  = "upload_link_expired"
	ErrCodeInternal     = "internal_error"
)
