package models

import "time"

// NotificationConfig holds a company's remediation notification preferences.
// Owned and edited elsewhere; read-only to this core.
type NotificationConfig struct {
	CreatedAt    time.Time `db:"created_at"`
	UpdatedAt    time.Time `db:"updated_at"`
	Threshold    *float64  `db:"threshold"`
	CompanyID    string    `db:"company_id"`
	CompanyName  string    `db:"company_name"`
	PhoneNumber  string    `db:"phone_number"`
	EmailAddress string    `db:"email_address"`
	SMSEnabled   bool      `db:"sms_enabled"`
	EmailEnabled bool      `db:"email_enabled"`
}

// NotificationResult records the outcome of a dispatch attempt across channels
type NotificationResult struct {
	SMSError       string `json:"sms_error,omitempty"`
	EmailError     string `json:"email_error,omitempty"`
	SMSMessageID   string `json:"sms_message_id,omitempty"`
	EmailMessageID string `json:"email_message_id,omitempty"`
	SMSAttempted   bool   `json:"sms_attempted"`
	SMSSent        bool   `json:"sms_sent"`
	EmailAttempted bool   `json:"email_attempted"`
	EmailSent      bool   `json:"email_sent"`
}

// Delivered reports whether at least one channel succeeded
func (r *NotificationResult) Delivered() bool {
	return r.SMSSent || r.EmailSent
}
