package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidatePhoneNumber(t *testing.T) {
	tests := []struct {
		name    string
		number  string
		wantErr bool
	}{
		{name: "valid e164 number", number: "+16502530000", wantErr: false},
		{name: "valid national number with default region", number: "6502530000", wantErr: false},
		{name: "valid number with formatting", number: "(650) 253-0000", wantErr: false},
		{name: "empty number", number: "", wantErr: true},
		{name: "whitespace only", number: "   ", wantErr: true},
		{name: "not a number", number: "call-me-maybe", wantErr: true},
		{name: "too short", number: "12345", wantErr: true},
		{name: "invalid country code", number: "+999123456789", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidatePhoneNumber(tt.number)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestValidateEmail(t *testing.T) {
	tests := []struct {
		name    string
		address string
		wantErr bool
	}{
		{name: "valid address", address: "billing@example.com", wantErr: false},
		{name: "valid address with plus tag", address: "billing+receipts@example.com", wantErr: false},
		{name: "empty address", address: "", wantErr: true},
		{name: "whitespace only", address: "   ", wantErr: true},
		{name: "missing domain", address: "billing@", wantErr: true},
		{name: "missing local part", address: "@example.com", wantErr: true},
		{name: "display name form rejected", address: "Billing <billing@example.com>", wantErr: true},
		{name: "not an address", address: "not-an-email", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateEmail(tt.address)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
