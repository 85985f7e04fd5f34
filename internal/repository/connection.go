package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/benx421/receiptsync/internal/models"
	"github.com/google/uuid"
)

// ConnectionRepository defines the interface for provider connection data access
type ConnectionRepository interface {
	FindByCompanyID(ctx context.Context, companyID string) (*models.Connection, error)
	Upsert(ctx context.Context, conn *models.Connection) error
	UpdateTokens(ctx context.Context, id uuid.UUID, accessToken, refreshToken string, scheme models.TokenScheme, expiresAt time.Time) error
	UpdateStatus(ctx context.Context, id uuid.UUID, status models.ConnectionStatus) error
	Disconnect(ctx context.Context, companyID string) error
}

// connectionRepository implements ConnectionRepository
type connectionRepository struct {
	db Querier
}

// NewConnectionRepository creates a new ConnectionRepository
func NewConnectionRepository(database Querier) ConnectionRepository {
	return &connectionRepository{db: database}
}

const connectionColumns = `
	id, company_id, tenant_id, access_token, refresh_token,
	token_scheme, token_expires_at, status, created_at, updated_at
`

// FindByCompanyID retrieves the most recently updated active connection for a company
func (r *connectionRepository) FindByCompanyID(ctx context.Context, companyID string) (*models.Connection, error) {
	query := `
		SELECT ` + connectionColumns + `
		FROM connections
		WHERE company_id = $1 AND status = $2
		ORDER BY updated_at DESC
		LIMIT 1
	`

	conn, err := scanConnection(r.db.QueryRowContext(ctx, query, companyID, models.ConnectionStatusActive))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("connection not found: %w", models.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find connection by company id: %w", err)
	}

	return conn, nil
}

// Upsert creates or replaces the connection keyed by (company_id, tenant_id)
func (r *connectionRepository) Upsert(ctx context.Context, conn *models.Connection) error {
	query := `
		INSERT INTO connections (
			id, company_id, tenant_id, access_token, refresh_token,
			token_scheme, token_expires_at, status, created_at, updated_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, NOW(), NOW())
		ON CONFLICT (company_id, tenant_id) DO UPDATE SET
			access_token = EXCLUDED.access_token,
			refresh_token = EXCLUDED.refresh_token,
			token_scheme = EXCLUDED.token_scheme,
			token_expires_at = EXCLUDED.token_expires_at,
			status = EXCLUDED.status,
			updated_at = NOW()
	`

	_, err := r.db.ExecContext(ctx, query,
		conn.ID,
		conn.CompanyID,
		conn.TenantID,
		conn.AccessToken,
		conn.RefreshToken,
		conn.TokenScheme,
		conn.TokenExpiresAt,
		conn.Status,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert connection: %w", err)
	}

	return nil
}

// UpdateTokens atomically replaces the token pair, scheme, and expiry in a
// single statement. Readers always see either the old pair or the new pair.
func (r *connectionRepository) UpdateTokens(ctx context.Context, id uuid.UUID, accessToken, refreshToken string, scheme models.TokenScheme, expiresAt time.Time) error {
	query := `
		UPDATE connections
		SET access_token = $2,
		    refresh_token = $3,
		    token_scheme = $4,
		    token_expires_at = $5,
		    status = $6,
		    updated_at = NOW()
		WHERE id = $1
	`

	result, err := r.db.ExecContext(ctx, query, id, accessToken, refreshToken, scheme, expiresAt, models.ConnectionStatusActive)
	if err != nil {
		return fmt.Errorf("failed to update connection tokens: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("connection not found: %w", models.ErrNotFound)
	}

	return nil
}

// UpdateStatus transitions the connection to a new lifecycle status
func (r *connectionRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status models.ConnectionStatus) error {
	query := `
		UPDATE connections
		SET status = $2, updated_at = NOW()
		WHERE id = $1
	`

	result, err := r.db.ExecContext(ctx, query, id, status)
	if err != nil {
		return fmt.Errorf("failed to update connection status: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("connection not found: %w", models.ErrNotFound)
	}

	return nil
}

// Disconnect soft-invalidates every connection for a company
func (r *connectionRepository) Disconnect(ctx context.Context, companyID string) error {
	query := `
		UPDATE connections
		SET status = $2, updated_at = NOW()
		WHERE company_id = $1 AND status = $3
	`

	_, err := r.db.ExecContext(ctx, query, companyID, models.ConnectionStatusRevoked, models.ConnectionStatusActive)
	if err != nil {
		return fmt.Errorf("failed to disconnect company: %w", err)
	}

	return nil
}

func scanConnection(row *sql.Row) (*models.Connection, error) {
	var conn models.Connection
	err := row.Scan(
		&conn.ID,
		&conn.CompanyID,
		&conn.TenantID,
		&conn.AccessToken,
		&conn.RefreshToken,
		&conn.TokenScheme,
		&conn.TokenExpiresAt,
		&conn.Status,
		&conn.CreatedAt,
		&conn.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &conn, nil
}
