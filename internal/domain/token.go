package domain

import (
	"time"

	"github.com/google/uuid"
)

// RefreshToken is a ledger row for an issued refresh token. Rotation
// overwrites Token and ExpiresAt of the same row; the old token value
// simply stops resolving.
type RefreshToken struct {
	ID        int64     `json:"id" db:"id"`
	UserID    uuid.UUID `json:"user_id" db:"user_id"`
	Token     string    `json:"token" db:"refresh_token"`
	ExpiresAt time.Time `json:"expires_at" db:"expires_at"`
	Revoked   bool      `json:"revoked" db:"is_revoked"`
}

// TokenPair holds an access token and refresh token.
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}
