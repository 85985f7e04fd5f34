// Package messaging contains thin HTTP clients for the SMS and email
// gateways used to reach companies about flagged transactions.
package messaging

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/benx421/receiptsync/internal/config"
)

// SMSClient sends messages through the SMS gateway's HTTP API
type SMSClient struct {
	httpClient *http.Client
	logger     *slog.Logger
	apiURL     string
	apiKey     string
	from       string
}

// NewSMSClient creates a new SMSClient
func NewSMSClient(cfg *config.MessagingConfig, logger *slog.Logger) *SMSClient {
	return &SMSClient{
		httpClient: &http.Client{Timeout: cfg.HTTPTimeout},
		logger:     logger,
		apiURL:     cfg.SMSAPIURL,
		apiKey:     cfg.SMSAPIKey,
		from:       cfg.SMSFrom,
	}
}

type smsRequest struct {
	From string `json:"from"`
	To   string `json:"to"`
	Body string `json:"body"`
}

type smsResponse struct {
	MessageID string `json:"message_id"`
}

// Send delivers one SMS and returns the gateway's message ID
func (c *SMSClient) Send(ctx context.Context, to, body string) (string, error) {
	if c.apiURL == "" {
		return "", fmt.Errorf("sms gateway is not configured")
	}

	payload, err := json.Marshal(smsRequest{From: c.from, To: to, Body: body})
	if err != nil {
		return "", fmt.Errorf("failed to encode sms request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.apiURL+"/messages", bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("failed to build sms request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("sms gateway request failed: %w", err)
	}
	defer resp.Body.Close() //nolint:errcheck // response body close errors are not actionable

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("sms gateway returned status %d", resp.StatusCode)
	}

	var parsed smsResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", fmt.Errorf("failed to decode sms response: %w", err)
	}

	c.logger.Debug("sms accepted by gateway", "message_id", parsed.MessageID)
	return parsed.MessageID, nil
}
