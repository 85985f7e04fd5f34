package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/benx421/receiptsync/internal/models"
)

// NotificationConfigRepository defines read access to company notification
// preferences. The configuration is owned and edited elsewhere.
type NotificationConfigRepository interface {
	FindByCompanyID(ctx context.Context, companyID string) (*models.NotificationConfig, error)
}

// notificationConfigRepository implements NotificationConfigRepository
type notificationConfigRepository struct {
	db Querier
}

// NewNotificationConfigRepository creates a new NotificationConfigRepository
func NewNotificationConfigRepository(database Querier) NotificationConfigRepository {
	return &notificationConfigRepository{db: database}
}

// FindByCompanyID retrieves a company's notification configuration
func (r *notificationConfigRepository) FindByCompanyID(ctx context.Context, companyID string) (*models.NotificationConfig, error) {
	query := `
		SELECT company_id, company_name, sms_enabled, email_enabled,
		       phone_number, email_address, threshold, created_at, updated_at
		FROM notification_configs
		WHERE company_id = $1
	`

	var cfg models.NotificationConfig
	err := r.db.QueryRowContext(ctx, query, companyID).Scan(
		&cfg.CompanyID,
		&cfg.CompanyName,
		&cfg.SMSEnabled,
		&cfg.EmailEnabled,
		&cfg.PhoneNumber,
		&cfg.EmailAddress,
		&cfg.Threshold,
		&cfg.CreatedAt,
		&cfg.UpdatedAt,
	)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("notification config not found: %w", models.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find notification config: %w", err)
	}

	return &cfg, nil
}
