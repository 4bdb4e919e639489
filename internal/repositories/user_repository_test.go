package repositories

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"soko_backend/internal/models"
)

func TestUserRepository_CreateAndFind(t *testing.T) {
	repo := NewUserRepository(newTestDB(t))
	ctx := context.Background()

	user := &models.User{
		ClerkID: "user_2abc",
		Email:   "grace@njeri.co.ke",
		Name:    "Grace Njeri",
		Role:    models.UserRoleCustomer,
	}
	require.NoError(t, repo.Create(ctx, user))

	byEmail, err := repo.FindByEmail(ctx, "GRACE@njeri.co.ke")
	require.NoError(t, err)
	assert.Equal(t, user.ID, byEmail.ID)

	byClerk, err := repo.FindByClerkID(ctx, "user_2abc")
	require.NoError(t, err)
	assert.Equal(t, user.ID, byClerk.ID)

	_, err = repo.FindByEmail(ctx, "nobody@example.com")
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestUserRepository_UpdateRoleByEmail(t *testing.T) {
	repo := NewUserRepository(newTestDB(t))
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, &models.User{
		Email: "grace@njeri.co.ke",
		Name:  "Grace Njeri",
		Role:  models.UserRoleSellerPending,
	}))

	require.NoError(t, repo.UpdateRoleByEmail(ctx, "grace@njeri.co.ke", models.UserRoleSeller))

	updated, err := repo.FindByEmail(ctx, "grace@njeri.co.ke")
	require.NoError(t, err)
	assert.Equal(t, models.UserRoleSeller, updated.Role)
}

func TestUserRepository_UpdateRoleMissingUser(t *testing.T) {
	repo := NewUserRepository(newTestDB(t))

	err := repo.UpdateRoleByEmail(context.Background(), "nobody@example.com", models.UserRoleSeller)
	assert.ErrorIs(t, err, ErrUserNotFound)
}
