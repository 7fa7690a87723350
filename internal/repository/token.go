package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/ivlev/authsvc/internal/domain"
)

// TokenRepository is the refresh-token ledger. A ledger row is the
// authority on whether a refresh token is accepted; signature validity
// alone is never enough.
type TokenRepository struct {
	db *sqlx.DB
}

// NewTokenRepository creates a new TokenRepository.
func NewTokenRepository(db *sqlx.DB) *TokenRepository {
	return &TokenRepository{db: db}
}

// Insert records a newly issued refresh token.
func (r *TokenRepository) Insert(ctx context.Context, t domain.RefreshToken) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO refresh_tokens (user_id, refresh_token, expires_at, is_revoked)
		 VALUES ($1, $2, $3, false)`,
		t.UserID, t.Token, t.ExpiresAt)
	if err != nil {
		return fmt.Errorf("insert refresh token: %w", err)
	}
	return nil
}

// Rotate replaces the token value and expiry of the row holding
// oldToken, in place. The row is locked for the duration so concurrent
// rotations of the same token have exactly one winner; the loser finds
// no row under the old value and gets domain.ErrNotFound. The mint
// callback produces the replacement token once the row's owner is
// known.
func (r *TokenRepository) Rotate(ctx context.Context, oldToken string, now time.Time, mint func(userID uuid.UUID) (string, time.Time, error)) (string, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	row, err := lockByToken(ctx, tx, oldToken)
	if err != nil {
		return "", err
	}
	if row.Revoked {
		return "", domain.ErrAlreadyRevoked
	}
	if !row.ExpiresAt.After(now) {
		return "", domain.ErrExpired
	}

	newToken, expiresAt, err := mint(row.UserID)
	if err != nil {
		return "", err
	}

	_, err = tx.ExecContext(ctx,
		`UPDATE refresh_tokens SET refresh_token = $1, expires_at = $2 WHERE id = $3`,
		newToken, expiresAt, row.ID)
	if err != nil {
		return "", fmt.Errorf("rotate refresh token: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("commit rotation: %w", err)
	}
	return newToken, nil
}

// Revoke marks the row holding token as revoked. Revoking an unknown
// token reports domain.ErrNotFound; revoking twice reports
// domain.ErrAlreadyRevoked, so replay shows up instead of being
// silently absorbed.
func (r *TokenRepository) Revoke(ctx context.Context, token string) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	row, err := lockByToken(ctx, tx, token)
	if err != nil {
		return err
	}
	if row.Revoked {
		return domain.ErrAlreadyRevoked
	}

	_, err = tx.ExecContext(ctx,
		`UPDATE refresh_tokens SET is_revoked = true WHERE id = $1`, row.ID)
	if err != nil {
		return fmt.Errorf("revoke refresh token: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit revocation: %w", err)
	}
	return nil
}

func lockByToken(ctx context.Context, tx *sqlx.Tx, token string) (*domain.RefreshToken, error) {
	var row domain.RefreshToken
	err := tx.GetContext(ctx, &row,
		`SELECT id, user_id, refresh_token, expires_at, is_revoked
		 FROM refresh_tokens WHERE refresh_token = $1 FOR UPDATE`, token)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("lock refresh token: %w", err)
	}
	return &row, nil
}
