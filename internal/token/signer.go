package token

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/ivlev/authsvc/internal/domain"
)

// Kind distinguishes the two token types this service mints.
const (
	KindAccess  = "access"
	KindRefresh = "refresh"
)

// Claims is the verified content of a signed token.
type Claims struct {
	UserID uuid.UUID
	Kind   string
}

// Signer mints and verifies HS256-signed tokens. It is stateless; the
// clock is injectable so expiry behavior is testable.
type Signer struct {
	secret []byte
	now    func() time.Time
}

// NewSigner creates a Signer with the given secret, using the given
// clock. A nil clock defaults to time.Now.
func NewSigner(secret string, now func() time.Time) *Signer {
	if now == nil {
		now = time.Now
	}
	return &Signer{secret: []byte(secret), now: now}
}

// Mint produces a signed token of the given kind for the user,
// expiring after ttl.
func (s *Signer) Mint(userID uuid.UUID, kind string, ttl time.Duration) (string, error) {
	now := s.now()

	t := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":  userID.String(),
		"type": kind,
		"iat":  now.Unix(),
		"exp":  now.Add(ttl).Unix(),
	})

	signed, err := t.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("sign %s token: %w", kind, err)
	}
	return signed, nil
}

// Verify parses and validates a signed token. It reports
// domain.ErrExpired for expired tokens, domain.ErrMalformed for
// unparseable ones, and domain.ErrInvalidCredential for bad signatures.
func (s *Signer) Verify(raw string) (Claims, error) {
	t, err := jwt.Parse(raw, func(t *jwt.Token) (any, error) {
		return s.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(s.now))
	if err != nil {
		switch {
		case errors.Is(err, jwt.ErrTokenExpired):
			return Claims{}, domain.ErrExpired
		case errors.Is(err, jwt.ErrTokenMalformed):
			return Claims{}, domain.ErrMalformed
		default:
			return Claims{}, fmt.Errorf("%w: %v", domain.ErrInvalidCredential, err)
		}
	}

	mc, ok := t.Claims.(jwt.MapClaims)
	if !ok || !t.Valid {
		return Claims{}, domain.ErrInvalidCredential
	}

	kind, _ := mc["type"].(string)
	if kind != KindAccess && kind != KindRefresh {
		return Claims{}, domain.ErrMalformed
	}

	sub, _ := mc["sub"].(string)
	userID, err := uuid.Parse(sub)
	if err != nil {
		return Claims{}, domain.ErrMalformed
	}

	return Claims{UserID: userID, Kind: kind}, nil
}
