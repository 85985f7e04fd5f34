package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/benx421/receiptsync/internal/models"
)

// NotificationService dispatches missing-attachment notifications. SMS is the
// primary channel with email as fallback; when SMS is disabled for a company,
// email is the direct channel. Recipients are validated before any provider
// call, so a malformed phone number or address never reaches the wire.
type NotificationService struct {
	sms    SMSSender
	email  EmailSender
	logger *slog.Logger
}

// NewNotificationService creates a new NotificationService
func NewNotificationService(sms SMSSender, email EmailSender, logger *slog.Logger) *NotificationService {
	return &NotificationService{
		sms:    sms,
		email:  email,
		logger: logger,
	}
}

// SendMissingAttachmentNotification notifies a company about flagged
// transactions and the upload link to remediate them. The returned result
// records per-channel outcomes; a nil error means dispatch was attempted, not
// that any channel succeeded. Callers check result.Delivered().
func (s *NotificationService) SendMissingAttachmentNotification(
	ctx context.Context,
	cfg *models.NotificationConfig,
	flagged []models.FlaggedTransaction,
	linkURL string,
) (*models.NotificationResult, error) {
	if cfg == nil {
		return nil, &ServiceError{
			Code:    ErrCodeValidation,
			Message: "notification config is required",
		}
	}
	if len(flagged) == 0 {
		return nil, &ServiceError{
			Code:    ErrCodeValidation,
			Message: "no flagged transactions to notify about",
		}
	}

	result := &models.NotificationResult{}

	if cfg.SMSEnabled {
		s.trySMS(ctx, cfg, flagged, linkURL, result)
	}

	needEmail := !cfg.SMSEnabled || !result.SMSSent
	if needEmail && cfg.EmailEnabled {
		s.tryEmail(ctx, cfg, flagged, linkURL, result)
	}

	if !result.Delivered() {
		s.logger.Warn("notification not delivered on any channel",
			"company_id", cfg.CompanyID,
			"sms_error", result.SMSError,
			"email_error", result.EmailError,
		)
	}

	return result, nil
}

func (s *NotificationService) trySMS(ctx context.Context, cfg *models.NotificationConfig, flagged []models.FlaggedTransaction, linkURL string, result *models.NotificationResult) {
	if err := ValidatePhoneNumber(cfg.PhoneNumber); err != nil {
		result.SMSError = err.Error()
		s.logger.Warn("skipping SMS, recipient number invalid",
			"company_id", cfg.CompanyID,
			"error", err,
		)
		return
	}

	result.SMSAttempted = true

	messageID, err := s.sms.Send(ctx, cfg.PhoneNumber, smsBody(cfg, flagged, linkURL))
	if err != nil {
		result.SMSError = err.Error()
		s.logger.Warn("SMS dispatch failed, falling back to email",
			"company_id", cfg.CompanyID,
			"error", err,
		)
		return
	}

	result.SMSSent = true
	result.SMSMessageID = messageID

	s.logger.Info("sent missing attachment SMS",
		"company_id", cfg.CompanyID,
		"message_id", messageID,
		"transactions", len(flagged),
	)
}

func (s *NotificationService) tryEmail(ctx context.Context, cfg *models.NotificationConfig, flagged []models.FlaggedTransaction, linkURL string, result *models.NotificationResult) {
	if err := ValidateEmail(cfg.EmailAddress); err != nil {
		result.EmailError = err.Error()
		s.logger.Warn("skipping email, recipient address invalid",
			"company_id", cfg.CompanyID,
			"error", err,
		)
		return
	}

	result.EmailAttempted = true

	messageID, err := s.email.Send(ctx, cfg.EmailAddress, emailSubject(flagged), emailBody(cfg, flagged, linkURL))
	if err != nil {
		result.EmailError = err.Error()
		s.logger.Warn("email dispatch failed",
			"company_id", cfg.CompanyID,
			"error", err,
		)
		return
	}

	result.EmailSent = true
	result.EmailMessageID = messageID

	s.logger.Info("sent missing attachment email",
		"company_id", cfg.CompanyID,
		"message_id", messageID,
		"transactions", len(flagged),
	)
}

// smsBody keeps the message short: counterparty, amount and the upload link
func smsBody(cfg *models.NotificationConfig, flagged []models.FlaggedTransaction, linkURL string) string {
	if len(flagged) == 1 {
		tx := flagged[0].Transaction
		return fmt.Sprintf(
			"%s: transaction %s %.2f from %s is missing a receipt. Upload it here: %s",
			cfg.CompanyName, tx.Currency, tx.Total, counterparty(tx), linkURL,
		)
	}
	return fmt.Sprintf(
		"%s: %d transactions are missing receipts. Upload them here: %s",
		cfg.CompanyName, len(flagged), linkURL,
	)
}

func emailSubject(flagged []models.FlaggedTransaction) string {
	if len(flagged) == 1 {
		return "Missing receipt for a recent transaction"
	}
	return fmt.Sprintf("Missing receipts for %d recent transactions", len(flagged))
}

func emailBody(cfg *models.NotificationConfig, flagged []models.FlaggedTransaction, linkURL string) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Hello %s,\n\n", cfg.CompanyName)
	if len(flagged) == 1 {
		b.WriteString("The following transaction is missing a receipt:\n\n")
	} else {
		fmt.Fprintf(&b, "The following %d transactions are missing receipts:\n\n", len(flagged))
	}

	for _, f := range flagged {
		tx := f.Transaction
		fmt.Fprintf(&b, "  - %s %s %.2f from %s (risk: %s)\n",
			tx.Type, tx.Currency, tx.Total, counterparty(tx), f.Risk.RiskLevel)
	}

	fmt.Fprintf(&b, "\nUpload the missing documents here:\n%s\n", linkURL)
	b.WriteString("\nThe link can be used once and expires automatically.\n")

	return b.String()
}

func counterparty(tx models.Transaction) string {
	if tx.CounterpartyName == "" {
		return "an unknown counterparty"
	}
	return tx.CounterpartyName
}
