// ABOUTME: Shared fixtures for repository tests
// ABOUTME: Opens a single-connection in-memory database with the schema applied
package db

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/harperreed/expirytrack/models"
	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/require"
)

func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()
	database, err := sql.Open("sqlite3", ":memory:")
	require.NoError(t, err)
	// Every pooled connection to :memory: would see its own empty database.
	database.SetMaxOpenConns(1)
	require.NoError(t, InitSchema(database))
	t.Cleanup(func() { _ = database.Close() })
	return database
}

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func seedUser(t *testing.T, repo *UserRepository, email string, role models.Role, org, sub string) *models.User {
	t.Helper()
	user := &models.User{Email: email, Role: role, OrgUnit: org, SubUnit: sub}
	require.NoError(t, repo.Create(context.Background(), user))
	return user
}

func seedRule(t *testing.T, repo *CatalogRepository, topic string, window int) *models.ValidityRule {
	t.Helper()
	rule := &models.ValidityRule{Domain: models.DomainSafety, Topic: topic, ValidityWindowDays: window}
	require.NoError(t, repo.Create(context.Background(), rule))
	return rule
}

func seedAsset(t *testing.T, repo *AssetRepository, externalID string, rule *models.ValidityRule, owner *models.User, inspected time.Time) *models.Asset {
	t.Helper()
	asset := &models.Asset{
		ExternalID:         externalID,
		RuleID:             rule.ID,
		OwnerID:            owner.ID,
		LastInspectionDate: inspected,
		ExpirationDate:     inspected.AddDate(0, 0, rule.ValidityWindowDays),
		OrgUnit:            owner.OrgUnit,
		SubUnit:            owner.SubUnit,
	}
	require.NoError(t, repo.Create(context.Background(), asset))
	return asset
}
