package service

import (
	"context"
	"errors"
	"fmt"
	"hash/fnv"
	"log/slog"
	"time"

	"github.com/benx421/receiptsync/internal/config"
	"github.com/benx421/receiptsync/internal/models"
	"github.com/benx421/receiptsync/internal/provider"
)

// signatureRecords is how many leading records feed the duplicate-page
// signature. A loop-breaking heuristic, not an exact duplicate check.
const signatureRecords = 3

// FetchService retrieves full provider collections page by page, with
// safety bounds against runaway pagination and a single-refresh retry on
// token expiry mid-fetch.
type FetchService struct {
	provider    ProviderClient
	tokens      TokenProvider
	logger      *slog.Logger
	pageDelay   time.Duration
	pageSize    int
	pageCeiling int
}

// NewFetchService creates a new FetchService
func NewFetchService(
	providerClient ProviderClient,
	tokens TokenProvider,
	cfg *config.ProviderConfig,
	logger *slog.Logger,
) *FetchService {
	return &FetchService{
		provider:    providerClient,
		tokens:      tokens,
		logger:      logger,
		pageDelay:   cfg.PageDelay,
		pageSize:    cfg.PageSize,
		pageCeiling: cfg.PageCeiling,
	}
}

// FetchAll retrieves every record of the resource type across pages.
// Pagination within one resource type is sequential: each page's
// continuation decision depends on the previous page's size and content.
//
// The loop stops on a short page (natural end), the page ceiling (truncation
// warning, partial data), or a repeated page signature (provider pagination
// bug guard; partial data, no error).
func (s *FetchService) FetchAll(ctx context.Context, companyID, tenantID string, resourceType models.ResourceType) ([]models.Transaction, error) {
	accessToken, err := s.tokens.GetValidAccessToken(ctx, companyID)
	if err != nil {
		return nil, err
	}

	var all []models.Transaction
	seen := make(map[uint64]int)
	refreshed := false

	page := 1
	for {
		if page > s.pageCeiling {
			s.logger.Warn("page ceiling reached, returning truncated results",
				"resource_type", resourceType,
				"tenant_id", tenantID,
				"page_ceiling", s.pageCeiling,
				"records", len(all),
			)
			break
		}

		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("fetch cancelled: %w", err)
		}

		records, err := s.provider.FetchPage(ctx, accessToken, tenantID, resourceType, page, s.pageSize)
		if err != nil {
			if errors.Is(err, provider.ErrUnauthorized) {
				if refreshed {
					return nil, &ServiceError{
						Code:    ErrCodeAuthentication,
						Message: "access token rejected after refresh; please reconnect",
						Err:     err,
					}
				}
				refreshed = true

				s.logger.Info("access token rejected mid-fetch, refreshing once",
					"resource_type", resourceType,
					"page", page,
				)
				if refreshErr := s.tokens.RefreshAccessToken(ctx, companyID); refreshErr != nil {
					return nil, refreshErr
				}
				accessToken, err = s.tokens.GetValidAccessToken(ctx, companyID)
				if err != nil {
					return nil, err
				}
				continue // retry the same page once
			}

			return nil, mapProviderError(err, fmt.Sprintf("failed to fetch %s page %d", resourceType, page))
		}

		if len(records) > 0 {
			sig := pageSignature(records)
			if firstPage, dup := seen[sig]; dup {
				s.logger.Warn("duplicate page signature detected, aborting pagination",
					"resource_type", resourceType,
					"page", page,
					"first_seen_page", firstPage,
					"records", len(all),
				)
				break
			}
			seen[sig] = page
		}

		all = append(all, records...)

		if len(records) < s.pageSize {
			break
		}

		if err := sleepContext(ctx, s.pageDelay); err != nil {
			return nil, fmt.Errorf("fetch cancelled: %w", err)
		}
		page++
	}

	s.logger.Debug("fetched resource type",
		"resource_type", resourceType,
		"tenant_id", tenantID,
		"records", len(all),
		"pages", page,
	)

	return all, nil
}

// pageSignature hashes the IDs of a page's leading records
func pageSignature(records []models.Transaction) uint64 {
	h := fnv.New64a()
	for i := 0; i < len(records) && i < signatureRecords; i++ {
		h.Write([]byte(records[i].ID)) //nolint:errcheck // hash writes cannot fail
		h.Write([]byte{0})             //nolint:errcheck // hash writes cannot fail
	}
	return h.Sum64()
}
