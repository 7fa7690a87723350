package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/ivlev/authsvc/internal/domain"
)

// RoleStore defines the role data access interface consumed by RoleService.
type RoleStore interface {
	Create(ctx context.Context, name string, description *string) (*domain.Role, error)
	FindByName(ctx context.Context, name string) (*domain.Role, error)
	Assign(ctx context.Context, userID, roleID uuid.UUID) error
	NamesForUser(ctx context.Context, userID uuid.UUID) ([]string, error)
}

// RoleService manages roles and role assignments.
type RoleService struct {
	roles RoleStore
	users UserStore
}

// NewRoleService creates a RoleService.
func NewRoleService(roles RoleStore, users UserStore) *RoleService {
	return &RoleService{roles: roles, users: users}
}

// CreateRole creates a new role with a globally unique name.
func (s *RoleService) CreateRole(ctx context.Context, name string, description *string) (*domain.Role, error) {
	role, err := s.roles.Create(ctx, name, description)
	if err != nil {
		if errors.Is(err, domain.ErrConflict) {
			return nil, fmt.Errorf("%w: role %q already exists", domain.ErrConflict, name)
		}
		return nil, err
	}
	return role, nil
}

// AssignRole assigns a named role to a user. The user and the role
// must exist; a repeated assignment reports domain.ErrConflict.
func (s *RoleService) AssignRole(ctx context.Context, userID uuid.UUID, roleName string) error {
	if _, err := s.users.FindByID(ctx, userID); err != nil {
		return err
	}

	role, err := s.roles.FindByName(ctx, roleName)
	if err != nil {
		return err
	}

	if err := s.roles.Assign(ctx, userID, role.ID); err != nil {
		if errors.Is(err, domain.ErrConflict) {
			return fmt.Errorf("%w: user already has role %q", domain.ErrConflict, roleName)
		}
		return err
	}
	return nil
}

// GetUserWithRoles returns a user along with their role names.
func (s *RoleService) GetUserWithRoles(ctx context.Context, userID uuid.UUID) (*domain.UserWithRoles, error) {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	names, err := s.roles.NamesForUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if names == nil {
		names = []string{}
	}

	return &domain.UserWithRoles{User: *user, Roles: names}, nil
}
