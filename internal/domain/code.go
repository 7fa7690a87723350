package domain

import (
	"time"

	"github.com/google/uuid"
)

// CodeChannel is the delivery channel of a one-time code.
type CodeChannel string

const (
	CodeChannelEmail CodeChannel = "email"
	CodeChannelPhone CodeChannel = "phone"
)

// OneTimeCode is a short-lived, single-use verification code. A user
// may hold several outstanding codes at once; each stays valid until
// it is used or expires.
type OneTimeCode struct {
	ID        int64       `json:"id" db:"id"`
	UserID    uuid.UUID   `json:"user_id" db:"user_id"`
	Channel   CodeChannel `json:"channel" db:"channel"`
	Code      string      `json:"code" db:"code"`
	ExpiresAt time.Time   `json:"expires_at" db:"expires_at"`
}
