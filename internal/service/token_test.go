package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/benx421/receiptsync/internal/config"
	"github.com/benx421/receiptsync/internal/models"
	"github.com/benx421/receiptsync/internal/provider"
	"github.com/benx421/receiptsync/internal/repository/mocks"
	"github.com/benx421/receiptsync/internal/secrets"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func testProviderConfig() *config.ProviderConfig {
	return &config.ProviderConfig{
		ClientID:       "client-id",
		ClientSecret:   "client-secret",
		RefreshRetries: 2,
		RefreshDelay:   0,
		TokenBuffer:    60 * time.Second,
	}
}

func plaintextCipher(t *testing.T) *secrets.Cipher {
	t.Helper()
	c, err := secrets.NewCipher(nil)
	require.NoError(t, err)
	return c
}

func activeConnection(expiresIn time.Duration) *models.Connection {
	return &models.Connection{
		ID:             uuid.New(),
		CompanyID:      "company-1",
		TenantID:       "tenant-1",
		AccessToken:    "access-token",
		RefreshToken:   "refresh-token",
		TokenScheme:    models.TokenSchemePlaintext,
		TokenExpiresAt: time.Now().Add(expiresIn),
		Status:         models.ConnectionStatusActive,
	}
}

func TestTokenService_GetValidAccessToken_NotExpiring(t *testing.T) {
	connections := mocks.NewMockConnectionRepository(t)
	connections.On("FindByCompanyID", mock.Anything, "company-1").
		Return(activeConnection(time.Hour), nil).Once()

	providerClient := &fakeProviderClient{}

	svc := NewTokenService(connections, providerClient, plaintextCipher(t), testProviderConfig(), testLogger())

	token, err := svc.GetValidAccessToken(context.Background(), "company-1")
	require.NoError(t, err)
	assert.Equal(t, "access-token", token)
	assert.Equal(t, 0, providerClient.refreshCalls)
}

func TestTokenService_GetValidAccessToken_RefreshesExpiring(t *testing.T) {
	expiring := activeConnection(10 * time.Second)
	refreshed := activeConnection(30 * time.Minute)
	refreshed.ID = expiring.ID
	refreshed.AccessToken = "new-access-token"

	connections := mocks.NewMockConnectionRepository(t)
	// read before refresh, read inside refresh, re-read after refresh
	connections.On("FindByCompanyID", mock.Anything, "company-1").Return(expiring, nil).Twice()
	connections.On("FindByCompanyID", mock.Anything, "company-1").Return(refreshed, nil).Once()
	connections.On("UpdateTokens", mock.Anything, expiring.ID, "new-access-token", "new-refresh-token", models.TokenSchemePlaintext, mock.Anything).
		Return(nil).Once()

	providerClient := &fakeProviderClient{
		refreshFn: func(_ context.Context, refreshToken string) (*provider.TokenPair, error) {
			assert.Equal(t, "refresh-token", refreshToken)
			return &provider.TokenPair{
				AccessToken:  "new-access-token",
				RefreshToken: "new-refresh-token",
				ExpiresIn:    1800,
			}, nil
		},
	}

	svc := NewTokenService(connections, providerClient, plaintextCipher(t), testProviderConfig(), testLogger())

	token, err := svc.GetValidAccessToken(context.Background(), "company-1")
	require.NoError(t, err)
	assert.Equal(t, "new-access-token", token)
	assert.Equal(t, 1, providerClient.refreshCalls)
}

func TestTokenService_RefreshAccessToken_InvalidGrantIsTerminal(t *testing.T) {
	conn := activeConnection(time.Hour)

	connections := mocks.NewMockConnectionRepository(t)
	connections.On("FindByCompanyID", mock.Anything, "company-1").Return(conn, nil).Once()
	connections.On("UpdateStatus", mock.Anything, conn.ID, models.ConnectionStatusError).Return(nil).Once()

	providerClient := &fakeProviderClient{
		refreshFn: func(_ context.Context, _ string) (*provider.TokenPair, error) {
			return nil, provider.ErrInvalidGrant
		},
	}

	svc := NewTokenService(connections, providerClient, plaintextCipher(t), testProviderConfig(), testLogger())

	err := svc.RefreshAccessToken(context.Background(), "company-1")
	require.Error(t, err)

	var svcErr *ServiceError
	require.ErrorAs(t, err, &svcErr)
	assert.Equal(t, ErrCodeAuthentication, svcErr.Code)
	assert.Contains(t, svcErr.Message, "reconnect")
	// no retry on a terminal rejection
	assert.Equal(t, 1, providerClient.refreshCalls)
}

func TestTokenService_RefreshAccessToken_RetriesTransientThenSucceeds(t *testing.T) {
	conn := activeConnection(time.Hour)

	connections := mocks.NewMockConnectionRepository(t)
	connections.On("FindByCompanyID", mock.Anything, "company-1").Return(conn, nil).Once()
	connections.On("UpdateTokens", mock.Anything, conn.ID, "new-access-token", "new-refresh-token", models.TokenSchemePlaintext, mock.Anything).
		Return(nil).Once()

	attempts := 0
	providerClient := &fakeProviderClient{
		refreshFn: func(_ context.Context, _ string) (*provider.TokenPair, error) {
			attempts++
			if attempts < 3 {
				return nil, &provider.TransientError{StatusCode: 503}
			}
			return &provider.TokenPair{
				AccessToken:  "new-access-token",
				RefreshToken: "new-refresh-token",
				ExpiresIn:    1800,
			}, nil
		},
	}

	svc := NewTokenService(connections, providerClient, plaintextCipher(t), testProviderConfig(), testLogger())

	err := svc.RefreshAccessToken(context.Background(), "company-1")
	require.NoError(t, err)
	assert.Equal(t, 3, attempts)
}

func TestTokenService_RefreshAccessToken_ExhaustsRetryBudget(t *testing.T) {
	conn := activeConnection(time.Hour)

	connections := mocks.NewMockConnectionRepository(t)
	connections.On("FindByCompanyID", mock.Anything, "company-1").Return(conn, nil).Once()

	providerClient := &fakeProviderClient{
		refreshFn: func(_ context.Context, _ string) (*provider.TokenPair, error) {
			return nil, &provider.TransientError{StatusCode: 502}
		},
	}

	svc := NewTokenService(connections, providerClient, plaintextCipher(t), testProviderConfig(), testLogger())

	err := svc.RefreshAccessToken(context.Background(), "company-1")
	require.Error(t, err)

	var svcErr *ServiceError
	require.ErrorAs(t, err, &svcErr)
	assert.Equal(t, ErrCodeTransientServer, svcErr.Code)
	// retries plus the initial attempt
	assert.Equal(t, 3, providerClient.refreshCalls)
}

func TestTokenService_RefreshAccessToken_MissingCredentials(t *testing.T) {
	connections := mocks.NewMockConnectionRepository(t)
	providerClient := &fakeProviderClient{}

	cfg := testProviderConfig()
	cfg.ClientID = ""

	svc := NewTokenService(connections, providerClient, plaintextCipher(t), cfg, testLogger())

	err := svc.RefreshAccessToken(context.Background(), "company-1")
	require.Error(t, err)

	var svcErr *ServiceError
	require.ErrorAs(t, err, &svcErr)
	assert.Equal(t, ErrCodeConfiguration, svcErr.Code)
}

func TestTokenService_GetValidAccessToken_NoConnection(t *testing.T) {
	connections := mocks.NewMockConnectionRepository(t)
	connections.On("FindByCompanyID", mock.Anything, "company-1").
		Return(nil, models.ErrNotFound).Once()

	svc := NewTokenService(connections, &fakeProviderClient{}, plaintextCipher(t), testProviderConfig(), testLogger())

	_, err := svc.GetValidAccessToken(context.Background(), "company-1")
	require.Error(t, err)

	var svcErr *ServiceError
	require.ErrorAs(t, err, &svcErr)
	assert.Equal(t, ErrCodeAuthentication, svcErr.Code)
	assert.True(t, errors.Is(err, models.ErrNotFound))
}

func TestTokenService_ValidateTenantAccess(t *testing.T) {
	tenants := []provider.Tenant{
		{TenantID: "tenant-1", TenantName: "First Org"},
		{TenantID: "tenant-2", TenantName: "Second Org"},
	}

	tests := []struct {
		name       string
		requested  string
		tenants    []provider.Tenant
		expectID   string
		expectCode string
	}{
		{name: "requested tenant is authorized", requested: "tenant-2", tenants: tenants, expectID: "tenant-2"},
		{name: "empty request resolves to first tenant", requested: "", tenants: tenants, expectID: "tenant-1"},
		{name: "unauthorized request falls back to first tenant", requested: "tenant-9", tenants: tenants, expectID: "tenant-1"},
		{name: "no authorized tenants", requested: "tenant-1", tenants: nil, expectCode: ErrCodeAuthentication},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			connections := mocks.NewMockConnectionRepository(t)
			connections.On("FindByCompanyID", mock.Anything, "company-1").
				Return(activeConnection(time.Hour), nil)

			providerClient := &fakeProviderClient{
				tenantsFn: func(_ context.Context, accessToken string) ([]provider.Tenant, error) {
					assert.Equal(t, "access-token", accessToken)
					return tt.tenants, nil
				},
			}

			svc := NewTokenService(connections, providerClient, plaintextCipher(t), testProviderConfig(), testLogger())

			tenantID, err := svc.ValidateTenantAccess(context.Background(), "company-1", tt.requested)
			if tt.expectCode != "" {
				require.Error(t, err)
				var svcErr *ServiceError
				require.ErrorAs(t, err, &svcErr)
				assert.Equal(t, tt.expectCode, svcErr.Code)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expectID, tenantID)
		})
	}
}
