// ABOUTME: Tests for the user repository
// ABOUTME: Covers email normalization, uniqueness and role filtering
package db

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/harperreed/expirytrack/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUserCreateAndLookup(t *testing.T) {
	ctx := context.Background()
	repo := NewUserRepository(setupTestDB(t))

	user := seedUser(t, repo, "  Dana@Example.COM ", models.RoleUser, "North", "Lab 1")
	assert.Equal(t, "dana@example.com", user.Email)
	assert.NotEqual(t, uuid.Nil, user.ID)

	byID, err := repo.Get(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, models.RoleUser, byID.Role)
	assert.Equal(t, "North", byID.OrgUnit)
	assert.Equal(t, "Lab 1", byID.SubUnit)

	byEmail, err := repo.GetByEmail(ctx, "DANA@example.com")
	require.NoError(t, err)
	assert.Equal(t, user.ID, byEmail.ID)
}

func TestUserDuplicateEmail(t *testing.T) {
	repo := NewUserRepository(setupTestDB(t))
	seedUser(t, repo, "dana@example.com", models.RoleAdmin, "", "")

	err := repo.Create(context.Background(), &models.User{Email: "DANA@example.com", Role: models.RoleAdmin})
	assert.ErrorIs(t, err, ErrDuplicate)
}

func TestUserInvalidRole(t *testing.T) {
	repo := NewUserRepository(setupTestDB(t))
	err := repo.Create(context.Background(), &models.User{Email: "x@example.com"})
	assert.Error(t, err)
}

func TestUserNotFound(t *testing.T) {
	ctx := context.Background()
	repo := NewUserRepository(setupTestDB(t))

	_, err := repo.Get(ctx, uuid.New())
	assert.ErrorIs(t, err, ErrUserNotFound)
	_, err = repo.GetByEmail(ctx, "nobody@example.com")
	assert.ErrorIs(t, err, ErrUserNotFound)
	assert.ErrorIs(t, repo.Delete(ctx, uuid.New()), ErrUserNotFound)
}

func TestUserListByRoles(t *testing.T) {
	ctx := context.Background()
	repo := NewUserRepository(setupTestDB(t))
	seedUser(t, repo, "admin@example.com", models.RoleAdmin, "", "")
	seedUser(t, repo, "boss@example.com", models.RoleSupervisor, "North", "")
	seedUser(t, repo, "worker@example.com", models.RoleUser, "North", "Lab 1")

	all, err := repo.List(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 3)

	dist, err := repo.ListByRoles(ctx, models.RoleAdmin, models.RoleSupervisor)
	require.NoError(t, err)
	require.Len(t, dist, 2)
	assert.Equal(t, "admin@example.com", dist[0].Email)
	assert.Equal(t, "boss@example.com", dist[1].Email)

	none, err := repo.ListByRoles(ctx)
	require.NoError(t, err)
	assert.Empty(t, none)
}
