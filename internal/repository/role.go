package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/ivlev/authsvc/internal/domain"
)

// RoleRepository handles role and role-assignment data access.
type RoleRepository struct {
	db *sqlx.DB
}

// NewRoleRepository creates a new RoleRepository.
func NewRoleRepository(db *sqlx.DB) *RoleRepository {
	return &RoleRepository{db: db}
}

// Create inserts a new role. A duplicate name is reported as
// domain.ErrConflict via the unique index on role_name.
func (r *RoleRepository) Create(ctx context.Context, name string, description *string) (*domain.Role, error) {
	var role domain.Role
	err := r.db.QueryRowxContext(ctx,
		`INSERT INTO roles (role_id, role_name, description)
		 VALUES ($1, $2, $3)
		 RETURNING role_id, role_name, description`,
		uuid.New(), name, description,
	).StructScan(&role)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, domain.ErrConflict
		}
		return nil, fmt.Errorf("create role: %w", err)
	}
	return &role, nil
}

// FindByName retrieves a role by its unique name.
func (r *RoleRepository) FindByName(ctx context.Context, name string) (*domain.Role, error) {
	var role domain.Role
	err := r.db.GetContext(ctx, &role,
		`SELECT role_id, role_name, description FROM roles WHERE role_name = $1`, name)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("find role %q: %w", name, err)
	}
	return &role, nil
}

// Assign links a role to a user. The composite primary key on
// (user_id, role_id) turns a duplicate assignment into domain.ErrConflict.
func (r *RoleRepository) Assign(ctx context.Context, userID, roleID uuid.UUID) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO user_roles (user_id, role_id) VALUES ($1, $2)`,
		userID, roleID)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrConflict
		}
		return fmt.Errorf("assign role: %w", err)
	}
	return nil
}

// NamesForUser returns the role names assigned to a user.
func (r *RoleRepository) NamesForUser(ctx context.Context, userID uuid.UUID) ([]string, error) {
	var names []string
	err := r.db.SelectContext(ctx, &names,
		`SELECT r.role_name
		 FROM roles r
		 JOIN user_roles ur ON ur.role_id = r.role_id
		 WHERE ur.user_id = $1
		 ORDER BY r.role_name`, userID)
	if err != nil {
		return nil, fmt.Errorf("roles for user %s: %w", userID, err)
	}
	return names, nil
}
