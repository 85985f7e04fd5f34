package models

import (
	"time"

	"github.com/google/uuid"
)

// UploadLink is a single-use, time-limited, token-secured URL allowing
// submission of a missing attachment without full system authentication.
//
// Lifecycle: CREATED → (EXTENDED)* → USED (terminal). An expired-but-unused
// link is eligible for extension on the next detection cycle. At most one
// live (unused, unexpired) link exists per (transaction_id, company_id).
type UploadLink struct {
	CreatedAt       time.Time    `db:"created_at"`
	UpdatedAt       time.Time    `db:"updated_at"`
	ExpiresAt       time.Time    `db:"expires_at"`
	UsedAt          *time.Time   `db:"used_at"`
	TransactionID   string       `db:"transaction_id"`
	CompanyID       string       `db:"company_id"`
	TenantID        string       `db:"tenant_id"`
	Token           string       `db:"token"`
	TransactionType ResourceType `db:"transaction_type"`
	Used            bool         `db:"used"`
	ID              uuid.UUID    `db:"id"`
}

// Expired reports whether the link's expiry has passed
func (l *UploadLink) Expired() bool {
	return time.Now().After(l.ExpiresAt)
}

// Live reports whether the link is still usable for an upload
func (l *UploadLink) Live() bool {
	return !l.Used && !l.Expired()
}
