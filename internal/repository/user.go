package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jmoiron/sqlx"

	"github.com/ivlev/authsvc/internal/domain"
)

const userColumns = `user_id, email, phone, password_hash, service_type, created_at`

// UserRepository handles user and provider-link data access.
type UserRepository struct {
	db *sqlx.DB
}

// NewUserRepository creates a new UserRepository.
func NewUserRepository(db *sqlx.DB) *UserRepository {
	return &UserRepository{db: db}
}

// FindByID retrieves a user by their ID.
func (r *UserRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	var user domain.User
	err := r.db.GetContext(ctx, &user,
		`SELECT `+userColumns+` FROM users_auth WHERE user_id = $1`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("find user by id %s: %w", id, err)
	}
	return &user, nil
}

// FindByEmail retrieves a user by email.
func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*domain.User, error) {
	var user domain.User
	err := r.db.GetContext(ctx, &user,
		`SELECT `+userColumns+` FROM users_auth WHERE email = $1`, email)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("find user by email: %w", err)
	}
	return &user, nil
}

// FindByPhone retrieves a user by phone number.
func (r *UserRepository) FindByPhone(ctx context.Context, phone string) (*domain.User, error) {
	var user domain.User
	err := r.db.GetContext(ctx, &user,
		`SELECT `+userColumns+` FROM users_auth WHERE phone = $1`, phone)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("find user by phone: %w", err)
	}
	return &user, nil
}

// Create inserts a new user. The unique indexes on email and phone are
// the duplicate arbiter: a violation is reported as domain.ErrConflict.
func (r *UserRepository) Create(ctx context.Context, user domain.User) (*domain.User, error) {
	var result domain.User
	err := r.db.QueryRowxContext(ctx,
		`INSERT INTO users_auth (user_id, email, phone, password_hash, service_type)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING `+userColumns,
		uuid.New(), user.Email, user.Phone, user.PasswordHash, user.ServiceType,
	).StructScan(&result)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, domain.ErrConflict
		}
		return nil, fmt.Errorf("create user: %w", err)
	}
	return &result, nil
}

// ResolveOrCreateByProvider returns the user linked to
// (provider, providerID), creating the user and the link when no link
// exists. Concurrent calls with the same arguments yield the same user:
// the loser of the link-insert race re-reads the winner's row.
func (r *UserRepository) ResolveOrCreateByProvider(ctx context.Context, provider domain.Provider, providerID string) (*domain.User, error) {
	user, err := r.findByProvider(ctx, provider, providerID)
	if err == nil {
		return user, nil
	}
	if !errors.Is(err, domain.ErrNotFound) {
		return nil, err
	}

	created, err := r.createWithProvider(ctx, provider, providerID)
	if err == nil {
		return created, nil
	}
	if errors.Is(err, domain.ErrConflict) {
		// Lost the race; the link now exists.
		return r.findByProvider(ctx, provider, providerID)
	}
	return nil, err
}

func (r *UserRepository) findByProvider(ctx context.Context, provider domain.Provider, providerID string) (*domain.User, error) {
	var user domain.User
	err := r.db.GetContext(ctx, &user,
		`SELECT u.user_id, u.email, u.phone, u.password_hash, u.service_type, u.created_at
		 FROM users_auth u
		 JOIN auth_providers ap ON ap.user_id = u.user_id
		 WHERE ap.provider = $1 AND ap.provider_id = $2`, provider, providerID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("find user by provider %s/%s: %w", provider, providerID, err)
	}
	return &user, nil
}

func (r *UserRepository) createWithProvider(ctx context.Context, provider domain.Provider, providerID string) (*domain.User, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	var user domain.User
	err = tx.QueryRowxContext(ctx,
		`INSERT INTO users_auth (user_id, service_type)
		 VALUES ($1, $2)
		 RETURNING `+userColumns,
		uuid.New(), string(provider),
	).StructScan(&user)
	if err != nil {
		return nil, fmt.Errorf("create provider user: %w", err)
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO auth_providers (user_id, provider, provider_id)
		 VALUES ($1, $2, $3)`,
		user.ID, provider, providerID)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, domain.ErrConflict
		}
		return nil, fmt.Errorf("create provider link: %w", err)
	}

	if err := tx.Commit(); err != nil {
		if isUniqueViolation(err) {
			return nil, domain.ErrConflict
		}
		return nil, fmt.Errorf("commit provider user: %w", err)
	}
	return &user, nil
}

// isUniqueViolation reports whether err is a Postgres unique-constraint
// violation (SQLSTATE 23505).
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
