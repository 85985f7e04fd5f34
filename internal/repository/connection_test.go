package repository

import (
	"context"
	"testing"
	"time"

	"github.com/benx421/receiptsync/internal/models"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedConnection(t *testing.T, repo ConnectionRepository, companyID, tenantID string) *models.Connection {
	t.Helper()

	conn := &models.Connection{
		ID:             uuid.New(),
		CompanyID:      companyID,
		TenantID:       tenantID,
		AccessToken:    "access-token",
		RefreshToken:   "refresh-token",
		TokenScheme:    models.TokenSchemePlaintext,
		TokenExpiresAt: time.Now().Add(30 * time.Minute),
		Status:         models.ConnectionStatusActive,
	}
	require.NoError(t, repo.Upsert(context.Background(), conn))
	return conn
}

func TestConnectionRepository_UpsertAndFind(t *testing.T) {
	database := setupTestDB(t)
	defer cleanupTestDB(t, database)
	truncateTables(t, database)

	repo := NewConnectionRepository(database)
	seeded := seedConnection(t, repo, "company-1", "tenant-1")

	found, err := repo.FindByCompanyID(context.Background(), "company-1")
	require.NoError(t, err)
	assert.Equal(t, seeded.ID, found.ID)
	assert.Equal(t, "tenant-1", found.TenantID)
	assert.Equal(t, models.TokenSchemePlaintext, found.TokenScheme)
	assert.Equal(t, models.ConnectionStatusActive, found.Status)
}

func TestConnectionRepository_UpsertReplacesExisting(t *testing.T) {
	database := setupTestDB(t)
	defer cleanupTestDB(t, database)
	truncateTables(t, database)

	repo := NewConnectionRepository(database)
	seeded := seedConnection(t, repo, "company-1", "tenant-1")

	replacement := *seeded
	replacement.AccessToken = "rotated-access"
	replacement.RefreshToken = "rotated-refresh"
	require.NoError(t, repo.Upsert(context.Background(), &replacement))

	found, err := repo.FindByCompanyID(context.Background(), "company-1")
	require.NoError(t, err)
	assert.Equal(t, "rotated-access", found.AccessToken)
}

func TestConnectionRepository_FindByCompanyID_NotFound(t *testing.T) {
	database := setupTestDB(t)
	defer cleanupTestDB(t, database)
	truncateTables(t, database)

	repo := NewConnectionRepository(database)

	_, err := repo.FindByCompanyID(context.Background(), "missing-company")
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestConnectionRepository_UpdateTokens(t *testing.T) {
	database := setupTestDB(t)
	defer cleanupTestDB(t, database)
	truncateTables(t, database)

	repo := NewConnectionRepository(database)
	seeded := seedConnection(t, repo, "company-1", "tenant-1")

	newExpiry := time.Now().Add(time.Hour).Truncate(time.Second)
	err := repo.UpdateTokens(context.Background(), seeded.ID, "new-access", "new-refresh", models.TokenSchemeAESGCM, newExpiry)
	require.NoError(t, err)

	found, err := repo.FindByCompanyID(context.Background(), "company-1")
	require.NoError(t, err)
	assert.Equal(t, "new-access", found.AccessToken)
	assert.Equal(t, "new-refresh", found.RefreshToken)
	assert.Equal(t, models.TokenSchemeAESGCM, found.TokenScheme)
	assert.WithinDuration(t, newExpiry, found.TokenExpiresAt, time.Second)
}

func TestConnectionRepository_UpdateTokens_NotFound(t *testing.T) {
	database := setupTestDB(t)
	defer cleanupTestDB(t, database)
	truncateTables(t, database)

	repo := NewConnectionRepository(database)

	err := repo.UpdateTokens(context.Background(), uuid.New(), "a", "r", models.TokenSchemePlaintext, time.Now())
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestConnectionRepository_UpdateStatus(t *testing.T) {
	database := setupTestDB(t)
	defer cleanupTestDB(t, database)
	truncateTables(t, database)

	repo := NewConnectionRepository(database)
	seeded := seedConnection(t, repo, "company-1", "tenant-1")

	require.NoError(t, repo.UpdateStatus(context.Background(), seeded.ID, models.ConnectionStatusError))

	// errored connections are no longer returned as active
	_, err := repo.FindByCompanyID(context.Background(), "company-1")
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestConnectionRepository_Disconnect(t *testing.T) {
	database := setupTestDB(t)
	defer cleanupTestDB(t, database)
	truncateTables(t, database)

	repo := NewConnectionRepository(database)
	seedConnection(t, repo, "company-1", "tenant-1")
	seedConnection(t, repo, "company-1", "tenant-2")

	require.NoError(t, repo.Disconnect(context.Background(), "company-1"))

	_, err := repo.FindByCompanyID(context.Background(), "company-1")
	assert.ErrorIs(t, err, models.ErrNotFound)
}
