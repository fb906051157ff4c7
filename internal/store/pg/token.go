// store/pg/token.go — Implementación PostgreSQL de TokenRepository.
package pg

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dropDatabas3/authgate/internal/domain/repository"
)

type tokenRepo struct {
	pool *pgxpool.Pool
}

func newTokenRepo(pool *pgxpool.Pool) *tokenRepo {
	return &tokenRepo{pool: pool}
}

func (r *tokenRepo) Create(ctx context.Context, input repository.CreateRefreshTokenInput) (string, error) {
	id := uuid.NewString()
	const query = `
		INSERT INTO refresh_token (id, user_id, token_hash, issued_at, expires_at, user_agent, ip)
		VALUES ($1, $2, $3, NOW(), $4, $5, $6)
	`
	_, err := r.pool.Exec(ctx, query,
		id, input.UserID, input.TokenHash, input.ExpiresAt, input.UserAgent, input.IP,
	)
	if err != nil {
		return "", mapConflict(err)
	}
	return id, nil
}

func (r *tokenRepo) GetByHash(ctx context.Context, tokenHash string) (*repository.RefreshToken, error) {
	const query = `
		SELECT id, user_id, token_hash, issued_at, expires_at, revoked_at, user_agent, ip
		FROM refresh_token WHERE token_hash = $1
	`
	var t repository.RefreshToken
	err := r.pool.QueryRow(ctx, query, tokenHash).Scan(
		&t.ID, &t.UserID, &t.TokenHash, &t.IssuedAt, &t.ExpiresAt, &t.RevokedAt,
		&t.UserAgent, &t.IP,
	)
	if err == pgx.ErrNoRows {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// RevokeIfActive es el punto de serialización de la rotación: el UPDATE
// condicional garantiza que de N refresh concurrentes sobre el mismo
// token exactamente uno observa RowsAffected == 1.
func (r *tokenRepo) RevokeIfActive(ctx context.Context, tokenID string) (bool, error) {
	const query = `
		UPDATE refresh_token SET revoked_at = NOW()
		WHERE id = $1 AND revoked_at IS NULL
	`
	tag, err := r.pool.Exec(ctx, query, tokenID)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

func (r *tokenRepo) Revoke(ctx context.Context, tokenID string) error {
	const query = `
		UPDATE refresh_token SET revoked_at = NOW()
		WHERE id = $1 AND revoked_at IS NULL
	`
	_, err := r.pool.Exec(ctx, query, tokenID)
	return err
}

func (r *tokenRepo) RevokeAllByUser(ctx context.Context, userID, exceptID string) (int, error) {
	// exceptID viaja como NULL cuando no hay sesión a preservar: un ''
	// literal obligaría a Postgres a castear ''::uuid y la query entera
	// falla antes de tocar filas.
	const query = `
		UPDATE refresh_token SET revoked_at = NOW()
		WHERE user_id = $1 AND revoked_at IS NULL AND ($2::uuid IS NULL OR id <> $2::uuid)
	`
	tag, err := r.pool.Exec(ctx, query, userID, nullIfEmpty(exceptID))
	if err != nil {
		return 0, err
	}
	return int(tag.RowsAffected()), nil
}

// nullIfEmpty traduce "" a NULL para parámetros uuid opcionales.
func nullIfEmpty(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func (r *tokenRepo) DeleteExpired(ctx context.Context, now time.Time) (int, error) {
	const query = `DELETE FROM refresh_token WHERE expires_at < $1`
	tag, err := r.pool.Exec(ctx, query, now)
	if err != nil {
		return 0, err
	}
	return int(tag.RowsAffected()), nil
}
