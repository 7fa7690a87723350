package domain

import (
	"time"

	"github.com/google/uuid"
)

// Provider identifies an external identity source.
type Provider string

const (
	ProviderVK       Provider = "vk"
	ProviderTelegram Provider = "telegram"
	ProviderYandex   Provider = "yandex"
)

// ServiceType records the channel a user first registered through:
// "email", "phone", or a provider name.
type ServiceType string

const (
	ServiceTypeEmail ServiceType = "email"
	ServiceTypePhone ServiceType = "phone"
)

// User is a canonical user identity. Email and phone are globally
// unique when present; the password hash is set only for CMS accounts.
type User struct {
	ID           uuid.UUID   `json:"user_id" db:"user_id"`
	Email        *string     `json:"email,omitempty" db:"email"`
	Phone        *string     `json:"phone,omitempty" db:"phone"`
	PasswordHash *string     `json:"-" db:"password_hash"`
	ServiceType  ServiceType `json:"service_type" db:"service_type"`
	CreatedAt    time.Time   `json:"created_at" db:"created_at"`
}

// ProviderLink associates a user with an external provider subject.
// At most one link exists per (provider, provider_id).
type ProviderLink struct {
	UserID     uuid.UUID `json:"user_id" db:"user_id"`
	Provider   Provider  `json:"provider" db:"provider"`
	ProviderID string    `json:"provider_id" db:"provider_id"`
}
