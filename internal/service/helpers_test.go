package service

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"

	"github.com/benx421/receiptsync/internal/models"
	"github.com/benx421/receiptsync/internal/provider"
	"github.com/google/uuid"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// fakeProviderClient implements ProviderClient with pluggable behavior
type fakeProviderClient struct {
	refreshFn   func(ctx context.Context, refreshToken string) (*provider.TokenPair, error)
	tenantsFn   func(ctx context.Context, accessToken string) ([]provider.Tenant, error)
	fetchPageFn func(ctx context.Context, accessToken, tenantID string, resourceType models.ResourceType, page, pageSize int) ([]models.Transaction, error)

	mu           sync.Mutex
	refreshCalls int
	fetchCalls   int
}

func (f *fakeProviderClient) RefreshAccessToken(ctx context.Context, refreshToken string) (*provider.TokenPair, error) {
	f.mu.Lock()
	f.refreshCalls++
	f.mu.Unlock()
	return f.refreshFn(ctx, refreshToken)
}

func (f *fakeProviderClient) Connections(ctx context.Context, accessToken string) ([]provider.Tenant, error) {
	return f.tenantsFn(ctx, accessToken)
}

func (f *fakeProviderClient) FetchPage(ctx context.Context, accessToken, tenantID string, resourceType models.ResourceType, page, pageSize int) ([]models.Transaction, error) {
	f.mu.Lock()
	f.fetchCalls++
	f.mu.Unlock()
	return f.fetchPageFn(ctx, accessToken, tenantID, resourceType, page, pageSize)
}

// fakeTokenProvider implements TokenProvider with pluggable behavior
type fakeTokenProvider struct {
	token    string
	tenantID string
	tokenErr error

	mu           sync.Mutex
	refreshCalls int
	refreshErr   error
}

func (f *fakeTokenProvider) GetValidAccessToken(_ context.Context, _ string) (string, error) {
	if f.tokenErr != nil {
		return "", f.tokenErr
	}
	return f.token, nil
}

func (f *fakeTokenProvider) RefreshAccessToken(_ context.Context, _ string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.refreshCalls++
	return f.refreshErr
}

func (f *fakeTokenProvider) ValidateTenantAccess(_ context.Context, _, requestedTenantID string) (string, error) {
	if f.tenantID != "" {
		return f.tenantID, nil
	}
	return requestedTenantID, nil
}

// fakeFetcher serves canned transactions per resource type
type fakeFetcher struct {
	byType map[models.ResourceType][]models.Transaction
	errs   map[models.ResourceType]error
}

func (f *fakeFetcher) FetchAll(_ context.Context, _, _ string, resourceType models.ResourceType) ([]models.Transaction, error) {
	if err := f.errs[resourceType]; err != nil {
		return nil, err
	}
	return f.byType[resourceType], nil
}

// fakeLinkIssuer issues stateful in-memory links keyed by transaction ID
type fakeLinkIssuer struct {
	mu      sync.Mutex
	links   map[string]*models.UploadLink
	creates int
	err     error
}

func newFakeLinkIssuer() *fakeLinkIssuer {
	return &fakeLinkIssuer{links: make(map[string]*models.UploadLink)}
}

func (f *fakeLinkIssuer) FindOrCreate(_ context.Context, transactionID, companyID, tenantID string, transactionType models.ResourceType) (*models.UploadLink, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	if link, ok := f.links[transactionID]; ok {
		return link, nil
	}
	link := &models.UploadLink{
		ID:              uuid.New(),
		Token:           "token-" + transactionID,
		TransactionID:   transactionID,
		CompanyID:       companyID,
		TenantID:        tenantID,
		TransactionType: transactionType,
	}
	f.links[transactionID] = link
	f.creates++
	return link, nil
}

func (f *fakeLinkIssuer) MarkUsed(_ context.Context, id uuid.UUID) error {
	return nil
}

func (f *fakeLinkIssuer) PublicURL(link *models.UploadLink) string {
	return fmt.Sprintf("https://upload.test/upload/%s?token=%s", link.ID, link.Token)
}

// fakeNotifier records dispatches
type fakeNotifier struct {
	mu         sync.Mutex
	dispatches []string
	result     *models.NotificationResult
	err        error
}

func (f *fakeNotifier) SendMissingAttachmentNotification(_ context.Context, _ *models.NotificationConfig, flagged []models.FlaggedTransaction, _ string) (*models.NotificationResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	for _, fl := range flagged {
		f.dispatches = append(f.dispatches, fl.Transaction.ID)
	}
	if f.result != nil {
		return f.result, nil
	}
	return &models.NotificationResult{SMSAttempted: true, SMSSent: true}, nil
}

// fakeSMSSender records sends and can be made to fail
type fakeSMSSender struct {
	mu    sync.Mutex
	calls []string
	err   error
}

func (f *fakeSMSSender) Send(_ context.Context, to, _ string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return "", f.err
	}
	f.calls = append(f.calls, to)
	return "sms-msg-1", nil
}

// fakeEmailSender records sends and can be made to fail
type fakeEmailSender struct {
	mu       sync.Mutex
	calls    []string
	subjects []string
	bodies   []string
	err      error
}

func (f *fakeEmailSender) Send(_ context.Context, to, subject, body string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return "", f.err
	}
	f.calls = append(f.calls, to)
	f.subjects = append(f.subjects, subject)
	f.bodies = append(f.bodies, body)
	return "email-msg-1", nil
}
