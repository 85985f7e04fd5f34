package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/benx421/receiptsync/internal/models"
	"github.com/google/uuid"
	"github.com/lib/pq"
)

// UploadLinkRepository defines the interface for upload link data access
type UploadLinkRepository interface {
	FindLive(ctx context.Context, transactionID, companyID string) (*models.UploadLink, error)
	FindUnused(ctx context.Context, transactionID, companyID string) (*models.UploadLink, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.UploadLink, error)
	Create(ctx context.Context, link *models.UploadLink) error
	ExtendExpiry(ctx context.Context, id uuid.UUID, expiresAt time.Time) error
	MarkUsed(ctx context.Context, id uuid.UUID) error
}

// uploadLinkRepository implements UploadLinkRepository
type uploadLinkRepository struct {
	db Querier
}

// NewUploadLinkRepository creates a new UploadLinkRepository
func NewUploadLinkRepository(database Querier) UploadLinkRepository {
	return &uploadLinkRepository{db: database}
}

const uploadLinkColumns = `
	id, token, transaction_id, company_id, tenant_id, transaction_type,
	expires_at, used, used_at, created_at, updated_at
`

// FindLive retrieves the unused, unexpired link for a transaction, if any
func (r *uploadLinkRepository) FindLive(ctx context.Context, transactionID, companyID string) (*models.UploadLink, error) {
	query := `
		SELECT ` + uploadLinkColumns + `
		FROM upload_links
		WHERE transaction_id = $1 AND company_id = $2
		  AND used = FALSE AND expires_at > NOW()
		ORDER BY created_at DESC
		LIMIT 1
	`

	link, err := scanUploadLink(r.db.QueryRowContext(ctx, query, transactionID, companyID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("live upload link not found: %w", models.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find live upload link: %w", err)
	}

	return link, nil
}

// FindUnused retrieves the newest unused link for a transaction regardless
// of expiry. Expired links returned here are candidates for extension.
func (r *uploadLinkRepository) FindUnused(ctx context.Context, transactionID, companyID string) (*models.UploadLink, error) {
	query := `
		SELECT ` + uploadLinkColumns + `
		FROM upload_links
		WHERE transaction_id = $1 AND company_id = $2 AND used = FALSE
		ORDER BY created_at DESC
		LIMIT 1
	`

	link, err := scanUploadLink(r.db.QueryRowContext(ctx, query, transactionID, companyID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("unused upload link not found: %w", models.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find unused upload link: %w", err)
	}

	return link, nil
}

// FindByID retrieves an upload link by its ID
func (r *uploadLinkRepository) FindByID(ctx context.Context, id uuid.UUID) (*models.UploadLink, error) {
	query := `
		SELECT ` + uploadLinkColumns + `
		FROM upload_links
		WHERE id = $1
	`

	link, err := scanUploadLink(r.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("upload link not found: %w", models.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find upload link by id: %w", err)
	}

	return link, nil
}

// Create inserts a new upload link. A partial unique index on
// (transaction_id, company_id) WHERE used = FALSE turns concurrent duplicate
// issuance into models.ErrDuplicateLink.
func (r *uploadLinkRepository) Create(ctx context.Context, link *models.UploadLink) error {
	query := `
		INSERT INTO upload_links (
			id, token, transaction_id, company_id, tenant_id,
			transaction_type, expires_at, used, created_at, updated_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, FALSE, NOW(), NOW())
	`

	_, err := r.db.ExecContext(ctx, query,
		link.ID,
		link.Token,
		link.TransactionID,
		link.CompanyID,
		link.TenantID,
		link.TransactionType,
		link.ExpiresAt,
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			return fmt.Errorf("upload link already exists for transaction %s: %w", link.TransactionID, models.ErrDuplicateLink)
		}
		return fmt.Errorf("failed to create upload link: %w", err)
	}

	return nil
}

// ExtendExpiry pushes an unused link's expiry forward. Used links are terminal
// and cannot be extended.
func (r *uploadLinkRepository) ExtendExpiry(ctx context.Context, id uuid.UUID, expiresAt time.Time) error {
	query := `
		UPDATE upload_links
		SET expires_at = $2, updated_at = NOW()
		WHERE id = $1 AND used = FALSE
	`

	result, err := r.db.ExecContext(ctx, query, id, expiresAt)
	if err != nil {
		return fmt.Errorf("failed to extend upload link expiry: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("upload link not extendable: %w", models.ErrLinkUsed)
	}

	return nil
}

// MarkUsed performs the terminal used transition. Called only after the
// uploaded file has been durably stored.
func (r *uploadLinkRepository) MarkUsed(ctx context.Context, id uuid.UUID) error {
	query := `
		UPDATE upload_links
		SET used = TRUE, used_at = NOW(), updated_at = NOW()
		WHERE id = $1 AND used = FALSE
	`

	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to mark upload link used: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		if _, findErr := r.FindByID(ctx, id); findErr != nil {
			return findErr
		}
		return fmt.Errorf("upload link already consumed: %w", models.ErrLinkUsed)
	}

	return nil
}

func scanUploadLink(row *sql.Row) (*models.UploadLink, error) {
	var link models.UploadLink
	err := row.Scan(
		&link.ID,
		&link.Token,
		&link.TransactionID,
		&link.CompanyID,
		&link.TenantID,
		&link.TransactionType,
		&link.ExpiresAt,
		&link.Used,
		&link.UsedAt,
		&link.CreatedAt,
		&link.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &link, nil
}
