// store/pg/store.go — Acceso a PostgreSQL vía pgxpool.
// Todas las implementaciones de repositorio comparten el mismo pool.
package pg

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dropDatabas3/authgate/internal/domain/repository"
)

// Store agrupa el pool y expone los repositorios concretos.
type Store struct {
	pool *pgxpool.Pool

	Users     repository.UserRepository
	RBAC      repository.RBACRepository
	Tokens    repository.TokenRepository
	Blacklist repository.BlacklistRepository
}

// New abre el pool, verifica conectividad y materializa el esquema.
func New(ctx context.Context, dsn string) (*Store, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("pg: parse dsn: %w", err)
	}
	cfg.MaxConnLifetime = 30 * time.Minute
	cfg.MaxConnIdleTime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("pg: new pool: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("pg: ping: %w", err)
	}

	if err := bootstrap(ctx, pool); err != nil {
		pool.Close()
		return nil, fmt.Errorf("pg: bootstrap schema: %w", err)
	}

	return &Store{
		pool:      pool,
		Users:     newUserRepo(pool),
		RBAC:      newRBACRepo(pool),
		Tokens:    newTokenRepo(pool),
		Blacklist: newBlacklistRepo(pool),
	}, nil
}

// Ping verifica que la conexión siga viva (para /readyz).
func (s *Store) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// Close cierra el pool.
func (s *Store) Close() {
	s.pool.Close()
}

// mapConflict traduce violaciones de unicidad a repository.ErrConflict.
func mapConflict(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return repository.ErrConflict
	}
	return err
}
