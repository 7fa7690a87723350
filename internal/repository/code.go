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

// CodeRepository persists one-time verification codes.
type CodeRepository struct {
	db *sqlx.DB
}

// NewCodeRepository creates a new CodeRepository.
func NewCodeRepository(db *sqlx.DB) *CodeRepository {
	return &CodeRepository{db: db}
}

// Insert stores a fresh code row. Earlier codes for the same user are
// left untouched; each outstanding code is independently valid.
func (r *CodeRepository) Insert(ctx context.Context, code domain.OneTimeCode) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO one_time_codes (user_id, channel, code, expires_at)
		 VALUES ($1, $2, $3, $4)`,
		code.UserID, code.Channel, code.Code, code.ExpiresAt)
	if err != nil {
		return fmt.Errorf("insert one-time code: %w", err)
	}
	return nil
}

// Consume deletes the matching unexpired code row in one statement,
// enforcing single use. It returns domain.ErrNotFound when no row
// matches at all and domain.ErrExpired when the row exists but is past
// its expiry (the stale row is evicted on the way out).
func (r *CodeRepository) Consume(ctx context.Context, userID uuid.UUID, channel domain.CodeChannel, code string, now time.Time) error {
	var expiresAt time.Time
	err := r.db.QueryRowxContext(ctx,
		`DELETE FROM one_time_codes
		 WHERE id IN (
		   SELECT id FROM one_time_codes
		   WHERE user_id = $1 AND channel = $2 AND code = $3
		   LIMIT 1
		 )
		 RETURNING expires_at`,
		userID, channel, code).Scan(&expiresAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.ErrNotFound
		}
		return fmt.Errorf("consume one-time code: %w", err)
	}

	if !expiresAt.After(now) {
		return domain.ErrExpired
	}
	return nil
}

// DeleteExpired sweeps codes whose expiry is before now. Housekeeping
// only; Consume already rejects expired codes lazily.
func (r *CodeRepository) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM one_time_codes WHERE expires_at <= $1`, now)
	if err != nil {
		return 0, fmt.Errorf("delete expired codes: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("delete expired codes: %w", err)
	}
	return n, nil
}
