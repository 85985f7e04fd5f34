package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/benx421/receiptsync/internal/config"
	"github.com/benx421/receiptsync/internal/models"
	"github.com/benx421/receiptsync/internal/repository"
	"golang.org/x/sync/errgroup"
)

// ProcessingError records a failure isolated to one stage of a run. A failed
// resource type or a failed notification never aborts the rest of the run.
type ProcessingError struct {
	Stage         string              `json:"stage"`
	ResourceType  models.ResourceType `json:"resource_type,omitempty"`
	TransactionID string              `json:"transaction_id,omitempty"`
	Message       string              `json:"message"`
}

// DetectResult is the outcome of a detection pass
type DetectResult struct {
	TenantID  string                      `json:"tenant_id"`
	Threshold float64                     `json:"threshold"`
	Flagged   []models.FlaggedTransaction `json:"flagged"`
	Errors    []ProcessingError           `json:"errors,omitempty"`
}

// Summary is the outcome of a full processing run
type Summary struct {
	TenantID          string            `json:"tenant_id"`
	TotalFlagged      int               `json:"total_flagged"`
	HighRisk          int               `json:"high_risk"`
	LowRisk           int               `json:"low_risk"`
	LinksIssued       int               `json:"links_issued"`
	NotificationsSent int               `json:"notifications_sent"`
	Errors            []ProcessingError `json:"errors,omitempty"`
}

// DetectionService runs the end-to-end pipeline: resolve the tenant, pull
// every supported resource type, flag transactions missing attachments,
// issue upload links and dispatch notifications.
type DetectionService struct {
	tokens        TokenProvider
	fetcher       Fetcher
	links         LinkIssuer
	notifier      Notifier
	configs       repository.NotificationConfigRepository
	logger        *slog.Logger
	riskThreshold float64
	penaltyRate   float64
}

// NewDetectionService creates a new DetectionService
func NewDetectionService(
	tokens TokenProvider,
	fetcher Fetcher,
	links LinkIssuer,
	notifier Notifier,
	configs repository.NotificationConfigRepository,
	cfg *config.AppConfig,
	logger *slog.Logger,
) *DetectionService {
	return &DetectionService{
		tokens:        tokens,
		fetcher:       fetcher,
		links:         links,
		notifier:      notifier,
		configs:       configs,
		logger:        logger,
		riskThreshold: cfg.RiskThreshold,
		penaltyRate:   cfg.PenaltyRate,
	}
}

// Detect finds transactions missing attachments across all supported resource
// types and classifies their risk. Resource types are fetched concurrently;
// a failure in one type is recorded and the others still contribute results.
// Flagged transactions are ordered by resource type, then provider order.
func (s *DetectionService) Detect(ctx context.Context, companyID, requestedTenantID string) (*DetectResult, error) {
	tenantID, err := s.tokens.ValidateTenantAccess(ctx, companyID, requestedTenantID)
	if err != nil {
		return nil, err
	}

	threshold := s.resolveThreshold(ctx, companyID)

	var (
		mu      sync.Mutex
		byType  = make(map[models.ResourceType][]models.Transaction)
		fetches []ProcessingError
	)

	g, gctx := errgroup.WithContext(ctx)
	for _, resourceType := range models.AllResourceTypes {
		resourceType := resourceType
		g.Go(func() error {
			records, fetchErr := s.fetcher.FetchAll(gctx, companyID, tenantID, resourceType)

			mu.Lock()
			defer mu.Unlock()
			if fetchErr != nil {
				s.logger.Error("failed to fetch resource type",
					"resource_type", resourceType,
					"tenant_id", tenantID,
					"error", fetchErr,
				)
				fetches = append(fetches, ProcessingError{
					Stage:        "fetch",
					ResourceType: resourceType,
					Message:      fetchErr.Error(),
				})
				return nil
			}
			byType[resourceType] = records
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("detection cancelled: %w", err)
	}

	result := &DetectResult{
		TenantID:  tenantID,
		Threshold: threshold,
		Errors:    fetches,
	}

	for _, resourceType := range models.AllResourceTypes {
		for _, tx := range byType[resourceType] {
			if tx.HasAttachment {
				continue
			}
			result.Flagged = append(result.Flagged, models.FlaggedTransaction{
				Transaction: tx,
				Risk:        CalculateRisk(tx, threshold, s.penaltyRate),
			})
		}
	}

	s.logger.Info("detection pass complete",
		"company_id", companyID,
		"tenant_id", tenantID,
		"flagged", len(result.Flagged),
		"fetch_errors", len(fetches),
	)

	return result, nil
}

// Process runs detection and then remediation: one upload link and one
// notification per flagged transaction. Link issuance is idempotent, so
// re-running after a partial failure reuses the links already issued.
func (s *DetectionService) Process(ctx context.Context, companyID, requestedTenantID string) (*Summary, error) {
	detected, err := s.Detect(ctx, companyID, requestedTenantID)
	if err != nil {
		return nil, err
	}

	summary := &Summary{
		TenantID:     detected.TenantID,
		TotalFlagged: len(detected.Flagged),
		Errors:       detected.Errors,
	}
	for _, f := range detected.Flagged {
		if f.Risk.RiskLevel == models.RiskLevelHigh {
			summary.HighRisk++
		} else {
			summary.LowRisk++
		}
	}

	if len(detected.Flagged) == 0 {
		return summary, nil
	}

	notifyCfg, cfgErr := s.configs.FindByCompanyID(ctx, companyID)
	if cfgErr != nil && !errors.Is(cfgErr, models.ErrNotFound) {
		return nil, &ServiceError{
			Code:    ErrCodeInternal,
			Message: "failed to load notification config",
			Err:     cfgErr,
		}
	}
	if notifyCfg == nil {
		summary.Errors = append(summary.Errors, ProcessingError{
			Stage:   "notify",
			Message: "no notification config for company; links issued without notification",
		})
	}

	for _, f := range detected.Flagged {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("processing cancelled: %w", err)
		}

		link, linkErr := s.links.FindOrCreate(ctx, f.Transaction.ID, companyID, detected.TenantID, f.Transaction.Type)
		if linkErr != nil {
			s.logger.Error("failed to issue upload link",
				"transaction_id", f.Transaction.ID,
				"error", linkErr,
			)
			summary.Errors = append(summary.Errors, ProcessingError{
				Stage:         "link",
				ResourceType:  f.Transaction.Type,
				TransactionID: f.Transaction.ID,
				Message:       linkErr.Error(),
			})
			continue
		}
		summary.LinksIssued++

		if notifyCfg == nil {
			continue
		}

		result, notifyErr := s.notifier.SendMissingAttachmentNotification(
			ctx, notifyCfg, []models.FlaggedTransaction{f}, s.links.PublicURL(link),
		)
		if notifyErr != nil {
			summary.Errors = append(summary.Errors, ProcessingError{
				Stage:         "notify",
				ResourceType:  f.Transaction.Type,
				TransactionID: f.Transaction.ID,
				Message:       notifyErr.Error(),
			})
			continue
		}
		if result.Delivered() {
			summary.NotificationsSent++
		} else {
			summary.Errors = append(summary.Errors, ProcessingError{
				Stage:         "notify",
				ResourceType:  f.Transaction.Type,
				TransactionID: f.Transaction.ID,
				Message:       undeliveredMessage(result),
			})
		}
	}

	s.logger.Info("processing run complete",
		"company_id", companyID,
		"tenant_id", summary.TenantID,
		"flagged", summary.TotalFlagged,
		"links_issued", summary.LinksIssued,
		"notifications_sent", summary.NotificationsSent,
		"errors", len(summary.Errors),
	)

	return summary, nil
}

// resolveThreshold applies a company's configured threshold override, if any
func (s *DetectionService) resolveThreshold(ctx context.Context, companyID string) float64 {
	cfg, err := s.configs.FindByCompanyID(ctx, companyID)
	if err != nil {
		if !errors.Is(err, models.ErrNotFound) {
			s.logger.Warn("failed to load notification config, using default threshold",
				"company_id", companyID,
				"error", err,
			)
		}
		return s.riskThreshold
	}
	if cfg.Threshold != nil && *cfg.Threshold > 0 {
		return *cfg.Threshold
	}
	return s.riskThreshold
}

func undeliveredMessage(result *models.NotificationResult) string {
	switch {
	case result.SMSError != "" && result.EmailError != "":
		return fmt.Sprintf("all channels failed: sms: %s; email: %s", result.SMSError, result.EmailError)
	case result.SMSError != "":
		return fmt.Sprintf("sms failed and email disabled: %s", result.SMSError)
	case result.EmailError != "":
		return fmt.Sprintf("email failed: %s", result.EmailError)
	default:
		return "no notification channel enabled"
	}
}
