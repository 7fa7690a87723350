package handler

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ivlev/authsvc/internal/domain"
)

func TestMapError(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
	}{
		{"not found", domain.ErrNotFound, http.StatusNotFound, "not_found"},
		{"unauthorized", domain.ErrUnauthorized, http.StatusUnauthorized, "unauthorized"},
		{"conflict", domain.ErrConflict, http.StatusConflict, "conflict"},
		{"invalid input", domain.ErrInvalidInput, http.StatusBadRequest, "invalid_input"},
		{"invalid credential", domain.ErrInvalidCredential, http.StatusBadRequest, "invalid_credential"},
		{"expired", domain.ErrExpired, http.StatusBadRequest, "expired"},
		{"already revoked", domain.ErrAlreadyRevoked, http.StatusBadRequest, "already_revoked"},
		{"malformed", domain.ErrMalformed, http.StatusBadRequest, "malformed_token"},
		{"wrapped sentinel", fmt.Errorf("%w: email already registered", domain.ErrConflict), http.StatusConflict, "conflict"},
		{"unknown", fmt.Errorf("disk on fire"), http.StatusInternalServerError, "internal_error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, apiErr := mapError(tt.err)
			assert.Equal(t, tt.wantStatus, status)
			assert.Equal(t, tt.wantCode, apiErr.Code)
		})
	}
}

func TestMapValidationError(t *testing.T) {
	status, apiErr := mapError(&domain.ValidationError{Field: "email", Message: "failed on 'email' validation"})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "validation_error", apiErr.Code)
	assert.Len(t, apiErr.Details, 1)
	assert.Equal(t, "email", apiErr.Details[0].Field)
}
