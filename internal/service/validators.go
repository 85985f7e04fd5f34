package service

import (
	"fmt"
	"net/mail"
	"strings"

	"github.com/ttacon/libphonenumber"
)

// defaultPhoneRegion is used when a phone number lacks a country prefix
const defaultPhoneRegion = "US"

// ValidatePhoneNumber checks that a recipient phone number parses to a
// valid number. Validation happens before any provider call so a malformed
// number costs zero network round trips.
func ValidatePhoneNumber(number string) error {
	if strings.TrimSpace(number) == "" {
		return fmt.Errorf("phone number is empty")
	}

	parsed, err := libphonenumber.Parse(number, defaultPhoneRegion)
	if err != nil {
		return fmt.Errorf("invalid phone number: %w", err)
	}

	if !libphonenumber.IsValidNumber(parsed) {
		return fmt.Errorf("invalid phone number: failed validity check")
	}

	return nil
}

// ValidateEmail checks that a recipient email address is a plain,
// well-formed address.
func ValidateEmail(address string) error {
	if strings.TrimSpace(address) == "" {
		return fmt.Errorf("email address is empty")
	}

	parsed, err := mail.ParseAddress(address)
	if err != nil {
		return fmt.Errorf("invalid email address: %w", err)
	}

	// Reject display-name forms like "Jo <jo@example.com>"; configs must
	// store the bare address.
	if parsed.Address != address {
		return fmt.Errorf("invalid email address: must be a bare address")
	}

	return nil
}
