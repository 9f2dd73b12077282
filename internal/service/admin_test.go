package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/colivhub/portal-server-go/internal/model"
	"github.com/colivhub/portal-server-go/internal/util"
)

func TestAdminService(t *testing.T) {
	ctx := context.Background()
	hash, err := util.HashPassword("staff-password")
	require.NoError(t, err)

	t.Run("login creates a session", func(t *testing.T) {
		repo := &mockAdminSessionRepo{}
		repo.On("Create", ctx, mock.AnythingOfType("model.CreateAdminSessionParams")).
			Return(&model.AdminSession{ID: "a1"}, nil)
		svc := NewAdminService(repo, hash, "admin-secret")

		token, err := svc.Login(ctx, "staff-password")
		require.NoError(t, err)
		assert.Len(t, token, 64)

		repo.On("FindByTokenHash", ctx, util.NewTokenHasher("admin-secret").Hash(token)).
			Return(&model.AdminSession{ID: "a1"}, nil)
		assert.True(t, svc.ValidateSession(ctx, token))
	})

	t.Run("wrong password", func(t *testing.T) {
		repo := &mockAdminSessionRepo{}
		svc := NewAdminService(repo, hash, "admin-secret")

		token, err := svc.Login(ctx, "nope")
		require.NoError(t, err)
		assert.Empty(t, token)
		repo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})

	t.Run("disabled without a password hash", func(t *testing.T) {
		svc := NewAdminService(&mockAdminSessionRepo{}, "", "admin-secret")
		assert.False(t, svc.Enabled())

		token, err := svc.Login(ctx, "")
		require.NoError(t, err)
		assert.Empty(t, token)
	})

	t.Run("empty or unknown session", func(t *testing.T) {
		repo := &mockAdminSessionRepo{}
		repo.On("FindByTokenHash", ctx, mock.Anything).Return(nil, nil)
		svc := NewAdminService(repo, hash, "admin-secret")

		assert.False(t, svc.ValidateSession(ctx, ""))
		assert.False(t, svc.ValidateSession(ctx, "unknown"))
	})
}
