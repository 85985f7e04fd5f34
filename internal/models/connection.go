package models

import (
	"time"

	"github.com/google/uuid"
)

// ConnectionStatus represents the lifecycle state of a provider connection
type ConnectionStatus string

const (
	ConnectionStatusActive  ConnectionStatus = "ACTIVE"
	ConnectionStatusExpired ConnectionStatus = "EXPIRED"
	ConnectionStatusRevoked ConnectionStatus = "REVOKED"
	ConnectionStatusError   ConnectionStatus = "ERROR"
)

// TokenScheme identifies how a stored refresh token is protected at rest.
// The scheme is decided at write time and stored alongside the token;
// it is never inferred from the token's content.
type TokenScheme string

const (
	// TokenSchemePlaintext marks rows written before encryption was enabled
	TokenSchemePlaintext TokenScheme = "plaintext.v0"

	// TokenSchemeAESGCM marks refresh tokens sealed with AES-256-GCM
	TokenSchemeAESGCM TokenScheme = "aes256gcm.v1"
)

// Connection represents an authorized link between a company and a tenant
// on the external accounting provider. At most one record exists per
// (company_id, tenant_id).
type Connection struct {
	CreatedAt      time.Time        `db:"created_at"`
	UpdatedAt      time.Time        `db:"updated_at"`
	TokenExpiresAt time.Time        `db:"token_expires_at"`
	CompanyID      string           `db:"company_id"`
	TenantID       string           `db:"tenant_id"`
	AccessToken    string           `db:"access_token"`
	RefreshToken   string           `db:"refresh_token"`
	TokenScheme    TokenScheme      `db:"token_scheme"`
	Status         ConnectionStatus `db:"status"`
	ID             uuid.UUID        `db:"id"`
}

// TokenExpiresWithin reports whether the access token is expired or will
// expire within the given safety buffer.
func (c *Connection) TokenExpiresWithin(buffer time.Duration) bool {
	return !time.Now().Add(buffer).Before(c.TokenExpiresAt)
}
