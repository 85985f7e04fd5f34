// Package provider implements the HTTP client for the external accounting
// platform: OAuth token refresh, tenant discovery, and paginated transaction
// listing. Endpoints are bearer-token plus tenant-header authenticated.
package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/benx421/receiptsync/internal/config"
	"github.com/benx421/receiptsync/internal/models"
)

const tenantHeader = "Xero-Tenant-Id"

// Client is an HTTP client for the accounting provider API
type Client struct {
	httpClient      *http.Client
	logger          *slog.Logger
	apiBaseURL      string
	identityBaseURL string
	clientID        string
	clientSecret    string
}

// NewClient creates a provider client from configuration
func NewClient(cfg *config.ProviderConfig, logger *slog.Logger) *Client {
	return &Client{
		httpClient:      &http.Client{Timeout: cfg.HTTPTimeout},
		logger:          logger,
		apiBaseURL:      strings.TrimRight(cfg.APIBaseURL, "/"),
		identityBaseURL: strings.TrimRight(cfg.IdentityBaseURL, "/"),
		clientID:        cfg.ClientID,
		clientSecret:    cfg.ClientSecret,
	}
}

// TokenPair is the response from the identity provider's token endpoint
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int    `json:"expires_in"`
}

// Tenant is an organization the connection is authorized to access
type Tenant struct {
	TenantID   string `json:"tenantId"`
	TenantName string `json:"tenantName"`
	TenantType string `json:"tenantType"`
}

// RefreshAccessToken exchanges a refresh token for a new token pair.
// An invalid_grant response maps to ErrInvalidGrant; 5xx and network
// failures map to TransientError.
func (c *Client) RefreshAccessToken(ctx context.Context, refreshToken string) (*TokenPair, error) {
	form := url.Values{}
	form.Set("grant_type", "refresh_token")
	form.Set("refresh_token", refreshToken)

	endpoint := c.identityBaseURL + "/connect/token"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("failed to build token request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.SetBasicAuth(c.clientID, c.clientSecret)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &TransientError{Err: err}
	}
	defer resp.Body.Close() //nolint:errcheck // nothing useful to do with a close error

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &TransientError{Err: err}
	}

	switch {
	case resp.StatusCode == http.StatusOK:
		// fall through to decode
	case resp.StatusCode >= 500:
		return nil, &TransientError{StatusCode: resp.StatusCode}
	case resp.StatusCode == http.StatusTooManyRequests:
		return nil, fmt.Errorf("token endpoint: %w", ErrRateLimited)
	default:
		var errResp struct {
			Error string `json:"error"`
		}
		//nolint:errcheck // best effort decode; unknown bodies fall through
		json.Unmarshal(body, &errResp)
		if errResp.Error == "invalid_grant" {
			return nil, ErrInvalidGrant
		}
		return nil, fmt.Errorf("token endpoint returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var pair TokenPair
	if err := json.Unmarshal(body, &pair); err != nil {
		return nil, fmt.Errorf("failed to decode token response: %w", err)
	}
	if pair.AccessToken == "" {
		return nil, fmt.Errorf("token response missing access token")
	}

	return &pair, nil
}

// Connections lists the tenants this access token is authorized for
func (c *Client) Connections(ctx context.Context, accessToken string) ([]Tenant, error) {
	endpoint := c.identityBaseURL + "/connections"
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("failed to build connections request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &TransientError{Err: err}
	}
	defer resp.Body.Close() //nolint:errcheck // nothing useful to do with a close error

	if err := statusToError(resp.StatusCode, "connections"); err != nil {
		return nil, err
	}

	var tenants []Tenant
	if err := json.NewDecoder(resp.Body).Decode(&tenants); err != nil {
		return nil, fmt.Errorf("failed to decode connections response: %w", err)
	}

	return tenants, nil
}

// collection names each resource type's list endpoint and response envelope key
var collection = map[models.ResourceType]string{
	models.ResourceTypeInvoice:         "Invoices",
	models.ResourceTypeBankTransaction: "BankTransactions",
	models.ResourceTypeReceipt:         "Receipts",
	models.ResourceTypePurchaseOrder:   "PurchaseOrders",
}

// wireTransaction matches the provider's JSON for one list record. Each
// resource type carries its ID under a type-specific key.
type wireTransaction struct {
	InvoiceID         string `json:"InvoiceID"`
	BankTransactionID string `json:"BankTransactionID"`
	ReceiptID         string `json:"ReceiptID"`
	PurchaseOrderID   string `json:"PurchaseOrderID"`
	Contact           struct {
		Name string `json:"Name"`
	} `json:"Contact"`
	CurrencyCode   string  `json:"CurrencyCode"`
	Total          float64 `json:"Total"`
	TotalTax       float64 `json:"TotalTax"`
	SubTotal       float64 `json:"SubTotal"`
	HasAttachments bool    `json:"HasAttachments"`
}

func (w *wireTransaction) id() string {
	for _, id := range []string{w.InvoiceID, w.BankTransactionID, w.ReceiptID, w.PurchaseOrderID} {
		if id != "" {
			return id
		}
	}
	return ""
}

// FetchPage retrieves a single page of the given resource type.
// Page numbering starts at 1.
func (c *Client) FetchPage(ctx context.Context, accessToken, tenantID string, resourceType models.ResourceType, page, pageSize int) ([]models.Transaction, error) {
	name, ok := collection[resourceType]
	if !ok {
		return nil, fmt.Errorf("unknown resource type %q", resourceType)
	}

	endpoint := fmt.Sprintf("%s/%s?page=%d&pageSize=%d", c.apiBaseURL, name, page, pageSize)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("failed to build %s request: %w", name, err)
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)
	req.Header.Set(tenantHeader, tenantID)
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &TransientError{Err: err}
	}
	defer resp.Body.Close() //nolint:errcheck // nothing useful to do with a close error

	if err := statusToError(resp.StatusCode, name); err != nil {
		return nil, err
	}

	var envelope map[string]json.RawMessage
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return nil, fmt.Errorf("failed to decode %s response: %w", name, err)
	}

	raw, ok := envelope[name]
	if !ok {
		return nil, fmt.Errorf("%s response missing %q collection", name, name)
	}

	var records []wireTransaction
	if err := json.Unmarshal(raw, &records); err != nil {
		return nil, fmt.Errorf("failed to decode %s records: %w", name, err)
	}

	c.logger.Debug("fetched provider page",
		"resource_type", resourceType,
		"page", page,
		"records", len(records),
		"elapsed", time.Since(start).String(),
	)

	transactions := make([]models.Transaction, 0, len(records))
	for i := range records {
		w := &records[i]
		transactions = append(transactions, models.Transaction{
			ID:               w.id(),
			Type:             resourceType,
			CounterpartyName: w.Contact.Name,
			Currency:         w.CurrencyCode,
			Total:            w.Total,
			Tax:              w.TotalTax,
			SubTotal:         w.SubTotal,
			HasAttachment:    w.HasAttachments,
		})
	}

	return transactions, nil
}

func statusToError(statusCode int, operation string) error {
	switch {
	case statusCode == http.StatusOK:
		return nil
	case statusCode == http.StatusUnauthorized:
		return fmt.Errorf("%s: %w", operation, ErrUnauthorized)
	case statusCode == http.StatusForbidden:
		return fmt.Errorf("%s: %w", operation, ErrForbidden)
	case statusCode == http.StatusTooManyRequests:
		return fmt.Errorf("%s: %w", operation, ErrRateLimited)
	case statusCode >= 500:
		return &TransientError{StatusCode: statusCode}
	default:
		return fmt.Errorf("%s returned unexpected status %d", operation, statusCode)
	}
}
