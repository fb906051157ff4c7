// store/pg/schema.go — DDL idempotente aplicado al arrancar.
package pg

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
)

// bootstrap crea las tablas si no existen. El DDL es idempotente, así que
// es seguro correrlo en cada arranque sin un tracking de versiones.
func bootstrap(ctx context.Context, pool *pgxpool.Pool) error {
	const ddl = `
CREATE TABLE IF NOT EXISTS app_user (
	id                      UUID PRIMARY KEY,
	email                   TEXT NOT NULL UNIQUE,
	password_hash           TEXT,
	first_name              TEXT NOT NULL DEFAULT '',
	last_name               TEXT NOT NULL DEFAULT '',
	avatar                  TEXT NOT NULL DEFAULT '',
	active                  BOOLEAN NOT NULL DEFAULT TRUE,
	email_verified          BOOLEAN NOT NULL DEFAULT FALSE,
	google_id               TEXT UNIQUE,
	github_id               TEXT UNIQUE,
	verification_token      TEXT,
	verification_expires_at TIMESTAMPTZ,
	reset_token             TEXT,
	reset_expires_at        TIMESTAMPTZ,
	last_login_at           TIMESTAMPTZ,
	created_at              TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	updated_at              TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS role (
	id          UUID PRIMARY KEY,
	name        TEXT NOT NULL UNIQUE,
	description TEXT NOT NULL DEFAULT '',
	is_default  BOOLEAN NOT NULL DEFAULT FALSE,
	created_at  TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS permission (
	id          UUID PRIMARY KEY,
	name        TEXT NOT NULL UNIQUE,
	resource    TEXT NOT NULL DEFAULT '',
	action      TEXT NOT NULL DEFAULT '',
	description TEXT NOT NULL DEFAULT '',
	created_at  TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS user_role (
	user_id UUID NOT NULL REFERENCES app_user(id) ON DELETE CASCADE,
	role_id UUID NOT NULL REFERENCES role(id) ON DELETE CASCADE,
	PRIMARY KEY (user_id, role_id)
);

CREATE TABLE IF NOT EXISTS role_permission (
	role_id       UUID NOT NULL REFERENCES role(id) ON DELETE CASCADE,
	permission_id UUID NOT NULL REFERENCES permission(id) ON DELETE CASCADE,
	PRIMARY KEY (role_id, permission_id)
);

CREATE TABLE IF NOT EXISTS user_permission (
	user_id       UUID NOT NULL REFERENCES app_user(id) ON DELETE CASCADE,
	permission_id UUID NOT NULL REFERENCES permission(id) ON DELETE CASCADE,
	PRIMARY KEY (user_id, permission_id)
);

CREATE TABLE IF NOT EXISTS refresh_token (
	id         UUID PRIMARY KEY,
	user_id    UUID NOT NULL REFERENCES app_user(id) ON DELETE CASCADE,
	token_hash TEXT NOT NULL UNIQUE,
	issued_at  TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	expires_at TIMESTAMPTZ NOT NULL,
	revoked_at TIMESTAMPTZ,
	user_agent TEXT NOT NULL DEFAULT '',
	ip         TEXT NOT NULL DEFAULT ''
);

CREATE INDEX IF NOT EXISTS idx_refresh_token_user ON refresh_token(user_id);
CREATE INDEX IF NOT EXISTS idx_refresh_token_expires ON refresh_token(expires_at);

CREATE TABLE IF NOT EXISTS blacklisted_token (
	token      TEXT PRIMARY KEY,
	expires_at TIMESTAMPTZ NOT NULL,
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS idx_blacklisted_token_expires ON blacklisted_token(expires_at);
`
	_, err := pool.Exec(ctx, ddl)
	return err
}
