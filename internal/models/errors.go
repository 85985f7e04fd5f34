package models

import "errors"

// Domain errors that can be returned by repositories
var (
	// ErrNotFound indicates the requested entity was not found
	ErrNotFound = errors.New("not found")

	// ErrDuplicateLink indicates a live upload link already exists for the
	// same (transaction_id, company_id) pair
	ErrDuplicateLink = errors.New("duplicate upload link")

	// ErrLinkUsed indicates the upload link has already been consumed
	ErrLinkUsed = errors.New("upload link already used")
)
