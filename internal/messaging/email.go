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

// EmailClient sends messages through the email gateway's HTTP API
type EmailClient struct {
	httpClient *http.Client
	logger     *slog.Logger
	apiURL     string
	apiKey     string
	from       string
}

// NewEmailClient creates a new EmailClient
func NewEmailClient(cfg *config.MessagingConfig, logger *slog.Logger) *EmailClient {
	return &EmailClient{
		httpClient: &http.Client{Timeout: cfg.HTTPTimeout},
		logger:     logger,
		apiURL:     cfg.EmailAPIURL,
		apiKey:     cfg.EmailAPIKey,
		from:       cfg.EmailFrom,
	}
}

type emailRequest struct {
	From    string `json:"from"`
	To      string `json:"to"`
	Subject string `json:"subject"`
	Body    string `json:"body"`
}

type emailResponse struct {
	MessageID string `json:"message_id"`
}

// Send delivers one email and returns the gateway's message ID
func (c *EmailClient) Send(ctx context.Context, to, subject, body string) (string, error) {
	if c.apiURL == "" {
		return "", fmt.Errorf("email gateway is not configured")
	}

	payload, err := json.Marshal(emailRequest{From: c.from, To: to, Subject: subject, Body: body})
	if err != nil {
		return "", fmt.Errorf("failed to encode email request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.apiURL+"/messages", bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("failed to build email request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("email gateway request failed: %w", err)
	}
	defer resp.Body.Close() //nolint:errcheck // response body close errors are not actionable

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("email gateway returned status %d", resp.StatusCode)
	}

	var parsed emailResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", fmt.Errorf("failed to decode email response: %w", err)
	}

	c.logger.Debug("email accepted by gateway", "message_id", parsed.MessageID)
	return parsed.MessageID, nil
}
