package db

import (
	"context"

	"github.com/jmoiron/sqlx"
)

const authSchema = `
CREATE TABLE IF NOT EXISTS users_auth (
    user_id uuid PRIMARY KEY,
    email text UNIQUE,
    phone text UNIQUE,
    password_hash text,
    service_type text NOT NULL,
    created_at timestamptz NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS auth_providers (
    user_id uuid NOT NULL REFERENCES users_auth(user_id),
    provider text NOT NULL,
    provider_id text NOT NULL,
    CONSTRAINT auth_providers_subject_unique UNIQUE (provider, provider_id)
);

CREATE TABLE IF NOT EXISTS one_time_codes (
    id bigserial PRIMARY KEY,
    user_id uuid NOT NULL REFERENCES users_auth(user_id),
    channel text NOT NULL,
    code text NOT NULL,
    expires_at timestamptz NOT NULL
);

CREATE INDEX IF NOT EXISTS one_time_codes_user_idx
ON one_time_codes (user_id, channel);

CREATE TABLE IF NOT EXISTS refresh_tokens (
    id bigserial PRIMARY KEY,
    user_id uuid NOT NULL REFERENCES users_auth(user_id),
    refresh_token text NOT NULL UNIQUE,
    expires_at timestamptz NOT NULL,
    is_revoked boolean NOT NULL DEFAULT false
);

CREATE TABLE IF NOT EXISTS roles (
    role_id uuid PRIMARY KEY,
    role_name text NOT NULL UNIQUE,
    description text
);

CREATE TABLE IF NOT EXISTS user_roles (
    user_id uuid NOT NULL REFERENCES users_auth(user_id),
    role_id uuid NOT NULL REFERENCES roles(role_id),
    PRIMARY KEY (user_id, role_id)
);
`

// Migrate applies the schema. Statements are idempotent so running at
// every startup is safe. The unique constraints here are the arbiters
// for duplicate emails, phones, provider links, and role assignments.
func Migrate(ctx context.Context, db *sqlx.DB) error {
	_, err := db.ExecContext(ctx, authSchema)
	return err
}
