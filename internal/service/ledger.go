package service

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/ivlev/authsvc/internal/domain"
	"github.com/ivlev/authsvc/internal/token"
)

// TokenStore is the refresh-token ledger persistence interface.
type TokenStore interface {
	Insert(ctx context.Context, t domain.RefreshToken) error
	Rotate(ctx context.Context, oldToken string, now time.Time, mint func(userID uuid.UUID) (string, time.Time, error)) (string, error)
	Revoke(ctx context.Context, token string) error
}

// RefreshLedger issues, rotates, and revokes refresh tokens. A token
// is accepted only while its ledger row is unexpired and unrevoked;
// the signed expiry inside the token is not consulted here.
type RefreshLedger struct {
	tokens TokenStore
	signer *token.Signer
	ttl    time.Duration
	now    func() time.Time
}

// NewRefreshLedger creates a RefreshLedger. A nil clock defaults to time.Now.
func NewRefreshLedger(tokens TokenStore, signer *token.Signer, ttl time.Duration, now func() time.Time) *RefreshLedger {
	if now == nil {
		now = time.Now
	}
	return &RefreshLedger{tokens: tokens, signer: signer, ttl: ttl, now: now}
}

// Issue mints a refresh token for the user and records it in the ledger.
func (l *RefreshLedger) Issue(ctx context.Context, userID uuid.UUID) (string, error) {
	raw, err := l.signer.Mint(userID, token.KindRefresh, l.ttl)
	if err != nil {
		return "", err
	}

	err = l.tokens.Insert(ctx, domain.RefreshToken{
		UserID:    userID,
		Token:     raw,
		ExpiresAt: l.now().Add(l.ttl),
	})
	if err != nil {
		return "", err
	}
	return raw, nil
}

// Rotate exchanges a live refresh token for a fresh one, overwriting
// the same ledger row. The old value stops resolving immediately.
// Returns the owning user so the caller can mint a matching access
// token.
func (l *RefreshLedger) Rotate(ctx context.Context, oldToken string) (uuid.UUID, string, error) {
	var owner uuid.UUID
	newToken, err := l.tokens.Rotate(ctx, oldToken, l.now(), func(userID uuid.UUID) (string, time.Time, error) {
		owner = userID
		raw, err := l.signer.Mint(userID, token.KindRefresh, l.ttl)
		if err != nil {
			return "", time.Time{}, err
		}
		return raw, l.now().Add(l.ttl), nil
	})
	if err != nil {
		return uuid.Nil, "", err
	}
	return owner, newToken, nil
}

// Revoke invalidates a refresh token for all future rotations.
func (l *RefreshLedger) Revoke(ctx context.Context, raw string) error {
	return l.tokens.Revoke(ctx, raw)
}
