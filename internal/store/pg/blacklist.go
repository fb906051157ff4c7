// store/pg/blacklist.go — Implementación PostgreSQL de BlacklistRepository.
package pg

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

type blacklistRepo struct {
	pool *pgxpool.Pool
}

func newBlacklistRepo(pool *pgxpool.Pool) *blacklistRepo {
	return &blacklistRepo{pool: pool}
}

func (r *blacklistRepo) Add(ctx context.Context, token string, expiresAt time.Time) error {
	const query = `
		INSERT INTO blacklisted_token (token, expires_at, created_at)
		VALUES ($1, $2, NOW())
		ON CONFLICT (token) DO NOTHING
	`
	_, err := r.pool.Exec(ctx, query, token, expiresAt)
	return err
}

func (r *blacklistRepo) Contains(ctx context.Context, token string, now time.Time) (bool, error) {
	const query = `
		SELECT EXISTS (
			SELECT 1 FROM blacklisted_token WHERE token = $1 AND expires_at > $2
		)
	`
	var found bool
	if err := r.pool.QueryRow(ctx, query, token, now).Scan(&found); err != nil {
		return false, err
	}
	return found, nil
}

func (r *blacklistRepo) DeleteExpired(ctx context.Context, now time.Time) (int, error) {
	const query = `DELETE FROM blacklisted_token WHERE expires_at < $1`
	tag, err := r.pool.Exec(ctx, query, now)
	if err != nil {
		return 0, err
	}
	return int(tag.RowsAffected()), nil
}
