package domain

import "github.com/google/uuid"

// Role is a named authorization role. Role names are globally unique.
type Role struct {
	ID          uuid.UUID `json:"role_id" db:"role_id"`
	Name        string    `json:"role_name" db:"role_name"`
	Description *string   `json:"description,omitempty" db:"description"`
}

// UserRole assigns a role to a user. A pair is assigned at most once.
type UserRole struct {
	UserID uuid.UUID `json:"user_id" db:"user_id"`
	RoleID uuid.UUID `json:"role_id" db:"role_id"`
}

// UserWithRoles is the authorization view of a user.
type UserWithRoles struct {
	User
	Roles []string `json:"roles"`
}
