// store/pg/user.go — Implementación PostgreSQL de UserRepository.
package pg

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dropDatabas3/authgate/internal/domain/repository"
)

type userRepo struct {
	pool *pgxpool.Pool
}

func newUserRepo(pool *pgxpool.Pool) *userRepo {
	return &userRepo{pool: pool}
}

// userColumns es el orden canónico de columnas que usan los scans.
const userColumns = `
	id, email, password_hash, first_name, last_name, avatar,
	active, email_verified, google_id, github_id,
	verification_token, verification_expires_at, reset_token, reset_expires_at,
	last_login_at, created_at, updated_at
`

func scanUser(row pgx.Row) (*repository.User, error) {
	var u repository.User
	err := row.Scan(
		&u.ID, &u.Email, &u.PasswordHash, &u.FirstName, &u.LastName, &u.Avatar,
		&u.Active, &u.EmailVerified, &u.GoogleID, &u.GitHubID,
		&u.VerificationToken, &u.VerificationExpiresAt, &u.ResetToken, &u.ResetExpiresAt,
		&u.LastLoginAt, &u.CreatedAt, &u.UpdatedAt,
	)
	if err == pgx.ErrNoRows {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *userRepo) GetByEmail(ctx context.Context, email string) (*repository.User, error) {
	query := `SELECT ` + userColumns + ` FROM app_user WHERE email = $1`
	return scanUser(r.pool.QueryRow(ctx, query, email))
}

func (r *userRepo) GetByID(ctx context.Context, userID string) (*repository.User, error) {
	query := `SELECT ` + userColumns + ` FROM app_user WHERE id = $1`
	return scanUser(r.pool.QueryRow(ctx, query, userID))
}

func (r *userRepo) GetByProvider(ctx context.Context, provider, providerID string) (*repository.User, error) {
	col, err := providerColumn(provider)
	if err != nil {
		return nil, err
	}
	query := `SELECT ` + userColumns + ` FROM app_user WHERE ` + col + ` = $1`
	return scanUser(r.pool.QueryRow(ctx, query, providerID))
}

func (r *userRepo) Create(ctx context.Context, input repository.CreateUserInput) (*repository.User, error) {
	id := uuid.NewString()
	now := time.Now().UTC()

	// Las columnas opcionales entran como NULL cuando vienen vacías.
	var hash, googleID, githubID *string
	if input.PasswordHash != "" {
		hash = &input.PasswordHash
	}
	if input.GoogleID != "" {
		googleID = &input.GoogleID
	}
	if input.GitHubID != "" {
		githubID = &input.GitHubID
	}

	const query = `
		INSERT INTO app_user (id, email, password_hash, first_name, last_name, avatar,
			active, email_verified, google_id, github_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, TRUE, $7, $8, $9, $10, $10)
	`
	_, err := r.pool.Exec(ctx, query,
		id, input.Email, hash, input.FirstName, input.LastName, input.Avatar,
		input.EmailVerified, googleID, githubID, now,
	)
	if err != nil {
		return nil, mapConflict(err)
	}
	return r.GetByID(ctx, id)
}

func (r *userRepo) UpdateProfile(ctx context.Context, userID string, input repository.UpdateProfileInput) error {
	const query = `
		UPDATE app_user SET
			first_name = COALESCE($2, first_name),
			last_name  = COALESCE($3, last_name),
			avatar     = COALESCE($4, avatar),
			updated_at = NOW()
		WHERE id = $1
	`
	tag, err := r.pool.Exec(ctx, query, userID, input.FirstName, input.LastName, input.Avatar)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *userRepo) SetProviderID(ctx context.Context, userID, provider, providerID string) error {
	col, err := providerColumn(provider)
	if err != nil {
		return err
	}
	query := `UPDATE app_user SET ` + col + ` = $2, updated_at = NOW() WHERE id = $1`
	tag, err := r.pool.Exec(ctx, query, userID, providerID)
	if err != nil {
		return mapConflict(err)
	}
	if tag.RowsAffected() == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *userRepo) SetActive(ctx context.Context, userID string, active bool) error {
	const query = `UPDATE app_user SET active = $2, updated_at = NOW() WHERE id = $1`
	tag, err := r.pool.Exec(ctx, query, userID, active)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *userRepo) SetEmailVerified(ctx context.Context, userID string) error {
	const query = `
		UPDATE app_user SET
			email_verified = TRUE,
			verification_token = NULL,
			verification_expires_at = NULL,
			updated_at = NOW()
		WHERE id = $1
	`
	tag, err := r.pool.Exec(ctx, query, userID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *userRepo) StampLastLogin(ctx context.Context, userID string, at time.Time) error {
	const query = `UPDATE app_user SET last_login_at = $2 WHERE id = $1`
	_, err := r.pool.Exec(ctx, query, userID, at)
	return err
}

func (r *userRepo) UpdatePasswordHash(ctx context.Context, userID, newHash string) error {
	const query = `UPDATE app_user SET password_hash = $2, updated_at = NOW() WHERE id = $1`
	tag, err := r.pool.Exec(ctx, query, userID, newHash)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *userRepo) SetVerificationToken(ctx context.Context, userID, token string, expiresAt time.Time) error {
	const query = `
		UPDATE app_user SET verification_token = $2, verification_expires_at = $3, updated_at = NOW()
		WHERE id = $1
	`
	tag, err := r.pool.Exec(ctx, query, userID, token, expiresAt)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *userRepo) GetByVerificationToken(ctx context.Context, token string, now time.Time) (*repository.User, error) {
	query := `SELECT ` + userColumns + ` FROM app_user
		WHERE verification_token = $1 AND verification_expires_at > $2`
	return scanUser(r.pool.QueryRow(ctx, query, token, now))
}

func (r *userRepo) SetResetToken(ctx context.Context, userID, token string, expiresAt time.Time) error {
	const query = `
		UPDATE app_user SET reset_token = $2, reset_expires_at = $3, updated_at = NOW()
		WHERE id = $1
	`
	tag, err := r.pool.Exec(ctx, query, userID, token, expiresAt)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *userRepo) GetByResetToken(ctx context.Context, token string, now time.Time) (*repository.User, error) {
	query := `SELECT ` + userColumns + ` FROM app_user
		WHERE reset_token = $1 AND reset_expires_at > $2`
	return scanUser(r.pool.QueryRow(ctx, query, token, now))
}

func (r *userRepo) ClearResetToken(ctx context.Context, userID string) error {
	const query = `
		UPDATE app_user SET reset_token = NULL, reset_expires_at = NULL, updated_at = NOW()
		WHERE id = $1
	`
	_, err := r.pool.Exec(ctx, query, userID)
	return err
}

func (r *userRepo) Delete(ctx context.Context, userID string) error {
	const query = `DELETE FROM app_user WHERE id = $1`
	tag, err := r.pool.Exec(ctx, query, userID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// providerColumn mapea el nombre del proveedor a su columna. Solo se
// aceptan valores conocidos: el nombre termina interpolado en SQL.
func providerColumn(provider string) (string, error) {
	switch provider {
	case "google":
		return "google_id", nil
	case "github":
		return "github_id", nil
	default:
		return "", fmt.Errorf("%w: unknown provider %q", repository.ErrInvalidInput, provider)
	}
}
