package handler

import (
	"fmt"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/ivlev/authsvc/internal/domain"
	"github.com/ivlev/authsvc/internal/service"
)

// UserHandler handles role management and user lookup endpoints.
type UserHandler struct {
	roles *service.RoleService
}

// NewUserHandler creates a new UserHandler.
func NewUserHandler(roles *service.RoleService) *UserHandler {
	return &UserHandler{roles: roles}
}

type createRoleRequest struct {
	RoleName    string  `json:"role_name" validate:"required"`
	Description *string `json:"description"`
}

// CreateRole creates a new role.
func (h *UserHandler) CreateRole(c echo.Context) error {
	var body createRoleRequest
	if err := c.Bind(&body); err != nil {
		return fmt.Errorf("%w: invalid request body", domain.ErrInvalidInput)
	}
	if err := c.Validate(&body); err != nil {
		return err
	}

	role, err := h.roles.CreateRole(c.Request().Context(), body.RoleName, body.Description)
	if err != nil {
		return err
	}
	return JSON(c, http.StatusCreated, role)
}

type assignRoleRequest struct {
	UserID   uuid.UUID `json:"user_id" validate:"required"`
	RoleName string    `json:"role_name" validate:"required"`
}

// AssignRole assigns a named role to a user.
func (h *UserHandler) AssignRole(c echo.Context) error {
	var body assignRoleRequest
	if err := c.Bind(&body); err != nil {
		return fmt.Errorf("%w: invalid request body", domain.ErrInvalidInput)
	}
	if err := c.Validate(&body); err != nil {
		return err
	}

	if err := h.roles.AssignRole(c.Request().Context(), body.UserID, body.RoleName); err != nil {
		return err
	}
	return JSON(c, http.StatusOK, map[string]string{"message": "role assigned"})
}

// GetUser returns a user with their assigned role names.
func (h *UserHandler) GetUser(c echo.Context) error {
	userID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return fmt.Errorf("%w: invalid user id", domain.ErrInvalidInput)
	}

	user, err := h.roles.GetUserWithRoles(c.Request().Context(), userID)
	if err != nil {
		return err
	}
	return JSON(c, http.StatusOK, user)
}
