package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/benx421/receiptsync/internal/config"
	"github.com/benx421/receiptsync/internal/models"
	"github.com/benx421/receiptsync/internal/provider"
	"github.com/benx421/receiptsync/internal/repository"
	"github.com/benx421/receiptsync/internal/secrets"
)

// TokenService owns access/refresh token validity for provider connections:
// it refreshes expired tokens with a bounded retry budget and resolves which
// tenant a run operates on.
type TokenService struct {
	connections    repository.ConnectionRepository
	provider       ProviderClient
	cipher         *secrets.Cipher
	logger         *slog.Logger
	tokenBuffer    time.Duration
	refreshDelay   time.Duration
	refreshRetries int
	credentialsSet bool
}

// NewTokenService creates a new TokenService
func NewTokenService(
	connections repository.ConnectionRepository,
	providerClient ProviderClient,
	cipher *secrets.Cipher,
	cfg *config.ProviderConfig,
	logger *slog.Logger,
) *TokenService {
	return &TokenService{
		connections:    connections,
		provider:       providerClient,
		cipher:         cipher,
		logger:         logger,
		tokenBuffer:    cfg.TokenBuffer,
		refreshDelay:   cfg.RefreshDelay,
		refreshRetries: cfg.RefreshRetries,
		credentialsSet: cfg.ClientID != "" && cfg.ClientSecret != "",
	}
}

// GetValidAccessToken returns an access token confirmed non-expired (with a
// small safety buffer) or freshly refreshed. The stored connection is always
// re-read rather than cached, so concurrent refreshes converge on whichever
// update landed last.
func (s *TokenService) GetValidAccessToken(ctx context.Context, companyID string) (string, error) {
	conn, err := s.findConnection(ctx, companyID)
	if err != nil {
		return "", err
	}

	if !conn.TokenExpiresWithin(s.tokenBuffer) {
		return conn.AccessToken, nil
	}

	s.logger.Debug("access token expired or expiring, refreshing",
		"company_id", companyID,
		"token_expires_at", conn.TokenExpiresAt,
	)

	if err := s.RefreshAccessToken(ctx, companyID); err != nil {
		return "", err
	}

	conn, err = s.findConnection(ctx, companyID)
	if err != nil {
		return "", err
	}

	return conn.AccessToken, nil
}

// RefreshAccessToken exchanges the stored refresh token for a new pair and
// persists it in a single atomic update. Transient failures are retried up
// to the configured budget; an invalid_grant response is terminal and marks
// the connection as needing reconnection.
func (s *TokenService) RefreshAccessToken(ctx context.Context, companyID string) error {
	if !s.credentialsSet {
		return &ServiceError{
			Code:    ErrCodeConfiguration,
			Message: "provider client credentials are not configured",
		}
	}

	conn, err := s.findConnection(ctx, companyID)
	if err != nil {
		return err
	}

	refreshToken, err := s.cipher.Open(conn.RefreshToken, conn.TokenScheme)
	if err != nil {
		return &ServiceError{
			Code:    ErrCodeInternal,
			Message: "failed to decrypt stored refresh token",
			Err:     err,
		}
	}

	attempts := s.refreshRetries + 1
	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		pair, refreshErr := s.provider.RefreshAccessToken(ctx, refreshToken)
		if refreshErr == nil {
			return s.persistTokenPair(ctx, conn, pair)
		}

		if errors.Is(refreshErr, provider.ErrInvalidGrant) {
			if statusErr := s.connections.UpdateStatus(ctx, conn.ID, models.ConnectionStatusError); statusErr != nil {
				s.logger.Error("failed to mark connection as errored",
					"company_id", companyID,
					"error", statusErr,
				)
			}
			return &ServiceError{
				Code:    ErrCodeAuthentication,
				Message: "refresh token rejected; please reconnect to the provider",
				Err:     refreshErr,
			}
		}

		lastErr = refreshErr
		s.logger.Warn("token refresh attempt failed",
			"company_id", companyID,
			"attempt", attempt,
			"max_attempts", attempts,
			"error", refreshErr,
		)

		if attempt < attempts {
			if err := sleepContext(ctx, s.refreshDelay); err != nil {
				return fmt.Errorf("token refresh cancelled: %w", err)
			}
		}
	}

	return &ServiceError{
		Code:    ErrCodeTransientServer,
		Message: fmt.Sprintf("token refresh failed after %d attempts", attempts),
		Err:     lastErr,
	}
}

// ValidateTenantAccess resolves the tenant a run should operate on. A
// requested tenant that is no longer authorized falls back to the first
// authorized tenant rather than failing; an empty authorization list means
// the company must reconnect.
func (s *TokenService) ValidateTenantAccess(ctx context.Context, companyID, requestedTenantID string) (string, error) {
	accessToken, err := s.GetValidAccessToken(ctx, companyID)
	if err != nil {
		return "", err
	}

	tenants, err := s.provider.Connections(ctx, accessToken)
	if err != nil {
		return "", mapProviderError(err, "failed to list authorized tenants")
	}

	if len(tenants) == 0 {
		return "", &ServiceError{
			Code:    ErrCodeAuthentication,
			Message: "no authorized tenants; please reconnect to the provider",
		}
	}

	if requestedTenantID == "" {
		return tenants[0].TenantID, nil
	}

	for _, tenant := range tenants {
		if tenant.TenantID == requestedTenantID {
			return tenant.TenantID, nil
		}
	}

	s.logger.Warn("requested tenant not authorized, falling back to first authorized tenant",
		"company_id", companyID,
		"requested_tenant_id", requestedTenantID,
		"fallback_tenant_id", tenants[0].TenantID,
	)

	return tenants[0].TenantID, nil
}

func (s *TokenService) findConnection(ctx context.Context, companyID string) (*models.Connection, error) {
	conn, err := s.connections.FindByCompanyID(ctx, companyID)
	if errors.Is(err, models.ErrNotFound) {
		return nil, &ServiceError{
			Code:    ErrCodeAuthentication,
			Message: "no active provider connection; please reconnect",
			Err:     err,
		}
	}
	if err != nil {
		return nil, &ServiceError{
			Code:    ErrCodeInternal,
			Message: "failed to load provider connection",
			Err:     err,
		}
	}
	return conn, nil
}

func (s *TokenService) persistTokenPair(ctx context.Context, conn *models.Connection, pair *provider.TokenPair) error {
	sealed, scheme, err := s.cipher.Seal(pair.RefreshToken)
	if err != nil {
		return &ServiceError{
			Code:    ErrCodeInternal,
			Message: "failed to encrypt refresh token",
			Err:     err,
		}
	}

	expiresAt := time.Now().Add(time.Duration(pair.ExpiresIn) * time.Second)
	if err := s.connections.UpdateTokens(ctx, conn.ID, pair.AccessToken, sealed, scheme, expiresAt); err != nil {
		return &ServiceError{
			Code:    ErrCodeInternal,
			Message: "failed to persist refreshed token pair",
			Err:     err,
		}
	}

	s.logger.Info("refreshed provider access token",
		"company_id", conn.CompanyID,
		"tenant_id", conn.TenantID,
		"token_expires_at", expiresAt,
	)

	return nil
}

// mapProviderError converts provider package errors into service errors
func mapProviderError(err error, message string) error {
	var transient *provider.TransientError

	switch {
	case errors.Is(err, provider.ErrUnauthorized):
		return &ServiceError{Code: ErrCodeAuthentication, Message: message, Err: err}
	case errors.Is(err, provider.ErrForbidden):
		return &ServiceError{Code: ErrCodePermission, Message: message, Err: err}
	case errors.Is(err, provider.ErrRateLimited):
		return &ServiceError{Code: ErrCodeRateLimited, Message: message, Err: err}
	case errors.As(err, &transient):
		return &ServiceError{Code: ErrCodeTransientServer, Message: message, Err: err}
	default:
		return &ServiceError{Code: ErrCodeInternal, Message: message, Err: err}
	}
}

// sleepContext waits for the duration unless the context is cancelled first
func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
