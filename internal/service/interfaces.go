package service

import (
	"context"

	"github.com/benx421/receiptsync/internal/models"
	"github.com/benx421/receiptsync/internal/provider"
	"github.com/google/uuid"
)

// ProviderClient is the subset of the accounting provider API used by the
// services in this package.
type ProviderClient interface {
	RefreshAccessToken(ctx context.Context, refreshToken string) (*provider.TokenPair, error)
	Connections(ctx context.Context, accessToken string) ([]provider.Tenant, error)
	FetchPage(ctx context.Context, accessToken, tenantID string, resourceType models.ResourceType, page, pageSize int) ([]models.Transaction, error)
}

// TokenProvider manages the OAuth token lifecycle for a company's connection
type TokenProvider interface {
	GetValidAccessToken(ctx context.Context, companyID string) (string, error)
	RefreshAccessToken(ctx context.Context, companyID string) error
	ValidateTenantAccess(ctx context.Context, companyID, requestedTenantID string) (string, error)
}

// Fetcher retrieves full provider collections across pages
type Fetcher interface {
	FetchAll(ctx context.Context, companyID, tenantID string, resourceType models.ResourceType) ([]models.Transaction, error)
}

// LinkIssuer manages idempotent upload link issuance
type LinkIssuer interface {
	FindOrCreate(ctx context.Context, transactionID, companyID, tenantID string, transactionType models.ResourceType) (*models.UploadLink, error)
	MarkUsed(ctx context.Context, id uuid.UUID) error
	PublicURL(link *models.UploadLink) string
}

// Detector runs detection and remediation passes for a company
type Detector interface {
	Detect(ctx context.Context, companyID, requestedTenantID string) (*DetectResult, error)
	Process(ctx context.Context, companyID, requestedTenantID string) (*Summary, error)
}

// Notifier dispatches remediation notifications across channels
type Notifier interface {
	SendMissingAttachmentNotification(ctx context.Context, cfg *models.NotificationConfig, flagged []models.FlaggedTransaction, linkURL string) (*models.NotificationResult, error)
}

// SMSSender is the external SMS provider collaborator
type SMSSender interface {
	Send(ctx context.Context, to, body string) (messageID string, err error)
}

// EmailSender is the external email provider collaborator
type EmailSender interface {
	Send(ctx context.Context, to, subject, body string) (messageID string, err error)
}

// Ensure concrete types implement interfaces
var (
	_ ProviderClient = (*provider.Client)(nil)
	_ TokenProvider  = (*TokenService)(nil)
	_ Fetcher        = (*FetchService)(nil)
	_ LinkIssuer     = (*UploadLinkService)(nil)
	_ Notifier       = (*NotificationService)(nil)
	_ Detector       = (*DetectionService)(nil)
)
