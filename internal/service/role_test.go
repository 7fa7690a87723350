package service

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ivlev/authsvc/internal/domain"
)

func TestRoleLifecycle(t *testing.T) {
	ctx := context.Background()
	users := newFakeUserStore()
	svc := NewRoleService(newFakeRoleStore(), users)

	user, err := users.Create(ctx, domain.User{Email: strPtr("a@x.com"), ServiceType: domain.ServiceTypeEmail})
	require.NoError(t, err)

	role, err := svc.CreateRole(ctx, "editor", strPtr("can edit content"))
	require.NoError(t, err)
	assert.Equal(t, "editor", role.Name)

	_, err = svc.CreateRole(ctx, "editor", nil)
	assert.ErrorIs(t, err, domain.ErrConflict)

	require.NoError(t, svc.AssignRole(ctx, user.ID, "editor"))

	err = svc.AssignRole(ctx, user.ID, "editor")
	assert.ErrorIs(t, err, domain.ErrConflict)

	got, err := svc.GetUserWithRoles(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"editor"}, got.Roles)
}

func TestAssignRoleMissingUserOrRole(t *testing.T) {
	ctx := context.Background()
	users := newFakeUserStore()
	svc := NewRoleService(newFakeRoleStore(), users)

	err := svc.AssignRole(ctx, uuid.New(), "editor")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	user, err := users.Create(ctx, domain.User{Email: strPtr("a@x.com"), ServiceType: domain.ServiceTypeEmail})
	require.NoError(t, err)

	err = svc.AssignRole(ctx, user.ID, "missing-role")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestGetUserWithRolesEmpty(t *testing.T) {
	ctx := context.Background()
	users := newFakeUserStore()
	svc := NewRoleService(newFakeRoleStore(), users)

	user, err := users.Create(ctx, domain.User{Email: strPtr("a@x.com"), ServiceType: domain.ServiceTypeEmail})
	require.NoError(t, err)

	got, err := svc.GetUserWithRoles(ctx, user.ID)
	require.NoError(t, err)
	assert.Empty(t, got.Roles)
	assert.NotNil(t, got.Roles)
}
