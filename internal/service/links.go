package service

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/benx421/receiptsync/internal/models"
	"github.com/benx421/receiptsync/internal/repository"
	"github.com/google/uuid"
)

// linkTokenBytes is the entropy of an upload link's secret token
const linkTokenBytes = 32

// UploadLinkService issues and manages single-use remediation upload links.
// Issuance is idempotent: re-running detection never produces a second live
// link for the same transaction.
type UploadLinkService struct {
	links   repository.UploadLinkRepository
	logger  *slog.Logger
	baseURL string
	ttl     time.Duration
}

// NewUploadLinkService creates a new UploadLinkService
func NewUploadLinkService(
	links repository.UploadLinkRepository,
	baseURL string,
	ttl time.Duration,
	logger *slog.Logger,
) *UploadLinkService {
	return &UploadLinkService{
		links:   links,
		logger:  logger,
		baseURL: baseURL,
		ttl:     ttl,
	}
}

// FindOrCreate returns the live link for a transaction, extends an
// expired-but-unused one, or issues a new link. Extension keeps the original
// URL so the recipient is never sent two different links for one transaction.
func (s *UploadLinkService) FindOrCreate(ctx context.Context, transactionID, companyID, tenantID string, transactionType models.ResourceType) (*models.UploadLink, error) {
	live, err := s.links.FindLive(ctx, transactionID, companyID)
	if err == nil {
		return live, nil
	}
	if !errors.Is(err, models.ErrNotFound) {
		return nil, &ServiceError{
			Code:    ErrCodeInternal,
			Message: "failed to look up live upload link",
			Err:     err,
		}
	}

	unused, err := s.links.FindUnused(ctx, transactionID, companyID)
	if err == nil {
		return s.extend(ctx, unused)
	}
	if !errors.Is(err, models.ErrNotFound) {
		return nil, &ServiceError{
			Code:    ErrCodeInternal,
			Message: "failed to look up unused upload link",
			Err:     err,
		}
	}

	return s.create(ctx, transactionID, companyID, tenantID, transactionType)
}

// MarkUsed performs the terminal transition after a successful upload has
// been durably stored.
func (s *UploadLinkService) MarkUsed(ctx context.Context, id uuid.UUID) error {
	if err := s.links.MarkUsed(ctx, id); err != nil {
		switch {
		case errors.Is(err, models.ErrNotFound):
			return &ServiceError{Code: ErrCodeLinkNotFound, Message: "upload link not found", Err: err}
		case errors.Is(err, models.ErrLinkUsed):
			return &ServiceError{Code: ErrCodeLinkUsed, Message: "upload link already used", Err: err}
		default:
			return &ServiceError{Code: ErrCodeInternal, Message: "failed to mark upload link used", Err: err}
		}
	}

	s.logger.Info("upload link marked used", "link_id", id)
	return nil
}

// Validate checks a link ID and secret token presented to the public upload
// endpoint. The token comparison is constant time.
func (s *UploadLinkService) Validate(ctx context.Context, id uuid.UUID, token string) (*models.UploadLink, error) {
	link, err := s.links.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, &ServiceError{Code: ErrCodeLinkNotFound, Message: "upload link not found", Err: err}
		}
		return nil, &ServiceError{Code: ErrCodeInternal, Message: "failed to load upload link", Err: err}
	}

	if subtle.ConstantTimeCompare([]byte(link.Token), []byte(token)) != 1 {
		return nil, &ServiceError{Code: ErrCodeValidation, Message: "upload link token mismatch"}
	}
	if link.Used {
		return nil, &ServiceError{Code: ErrCodeLinkUsed, Message: "upload link already used"}
	}
	if link.Expired() {
		return nil, &ServiceError{Code: ErrCodeLinkExpired, Message: "upload link expired"}
	}

	return link, nil
}

// PublicURL derives the user-facing URL for a link
func (s *UploadLinkService) PublicURL(link *models.UploadLink) string {
	return fmt.Sprintf("%s/upload/%s?token=%s", s.baseURL, link.ID, link.Token)
}

func (s *UploadLinkService) extend(ctx context.Context, link *models.UploadLink) (*models.UploadLink, error) {
	expiresAt := time.Now().Add(s.ttl)
	if err := s.links.ExtendExpiry(ctx, link.ID, expiresAt); err != nil {
		return nil, &ServiceError{
			Code:    ErrCodeInternal,
			Message: "failed to extend upload link expiry",
			Err:     err,
		}
	}

	link.ExpiresAt = expiresAt

	s.logger.Info("extended expired upload link",
		"link_id", link.ID,
		"transaction_id", link.TransactionID,
		"expires_at", expiresAt,
	)

	return link, nil
}

func (s *UploadLinkService) create(ctx context.Context, transactionID, companyID, tenantID string, transactionType models.ResourceType) (*models.UploadLink, error) {
	token, err := generateLinkToken()
	if err != nil {
		return nil, &ServiceError{
			Code:    ErrCodeInternal,
			Message: "failed to generate upload link token",
			Err:     err,
		}
	}

	link := &models.UploadLink{
		ID:              uuid.New(),
		Token:           token,
		TransactionID:   transactionID,
		CompanyID:       companyID,
		TenantID:        tenantID,
		TransactionType: transactionType,
		ExpiresAt:       time.Now().Add(s.ttl),
		CreatedAt:       time.Now(),
	}

	if err := s.links.Create(ctx, link); err != nil {
		// A concurrent run won the race; reuse its link.
		if errors.Is(err, models.ErrDuplicateLink) {
			existing, findErr := s.links.FindUnused(ctx, transactionID, companyID)
			if findErr == nil {
				return existing, nil
			}
		}
		return nil, &ServiceError{
			Code:    ErrCodeInternal,
			Message: "failed to create upload link",
			Err:     err,
		}
	}

	s.logger.Info("issued upload link",
		"link_id", link.ID,
		"transaction_id", transactionID,
		"company_id", companyID,
		"expires_at", link.ExpiresAt,
	)

	return link, nil
}

// generateLinkToken produces an unguessable URL-safe secret
func generateLinkToken() (string, error) {
	buf := make([]byte, linkTokenBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to read random bytes: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}
