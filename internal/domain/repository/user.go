package repository

import (
	"context"
	"time"
)

// User representa un usuario del sistema.
type User struct {
	ID            string
	Email         string
	PasswordHash  *string // nil para cuentas solo-OAuth
	FirstName     string
	LastName      string
	Avatar        string
	Active        bool
	EmailVerified bool
	GoogleID      *string
	GitHubID      *string
	LastLoginAt   *time.Time
	CreatedAt     time.Time
	UpdatedAt     time.Time

	// Tokens de un solo uso (valor + expiración, se limpian al usarse).
	VerificationToken     *string
	VerificationExpiresAt *time.Time
	ResetToken            *string
	ResetExpiresAt        *time.Time
}

// CreateUserInput contiene los datos para crear un usuario.
type CreateUserInput struct {
	Email         string
	PasswordHash  string // vacío para cuentas OAuth
	FirstName     string
	LastName      string
	Avatar        string
	EmailVerified bool
	GoogleID      string
	GitHubID      string
}

// UpdateProfileInput contiene los campos actualizables del perfil.
type UpdateProfileInput struct {
	FirstName *string
	LastName  *string
	Avatar    *string
}

// UserRepository define operaciones sobre usuarios.
type UserRepository interface {
	// GetByEmail busca un usuario por email (ya normalizado a minúsculas).
	// Retorna ErrNotFound si no existe.
	GetByEmail(ctx context.Context, email string) (*User, error)

	// GetByID busca un usuario por ID.
	// Retorna ErrNotFound si no existe.
	GetByID(ctx context.Context, userID string) (*User, error)

	// GetByProvider busca un usuario por su ID externo de OAuth.
	// provider es "google" o "github".
	GetByProvider(ctx context.Context, provider, providerID string) (*User, error)

	// Create crea un nuevo usuario.
	// Retorna ErrConflict si el email ya existe.
	Create(ctx context.Context, input CreateUserInput) (*User, error)

	// UpdateProfile actualiza campos del perfil.
	UpdateProfile(ctx context.Context, userID string, input UpdateProfileInput) error

	// SetProviderID registra (backfill) el ID externo de un proveedor OAuth.
	SetProviderID(ctx context.Context, userID, provider, providerID string) error

	// SetActive habilita o deshabilita la cuenta.
	SetActive(ctx context.Context, userID string, active bool) error

	// SetEmailVerified marca el email como verificado y limpia el token de verificación.
	SetEmailVerified(ctx context.Context, userID string) error

	// StampLastLogin actualiza last_login_at.
	StampLastLogin(ctx context.Context, userID string, at time.Time) error

	// UpdatePasswordHash reemplaza el hash del password.
	UpdatePasswordHash(ctx context.Context, userID, newHash string) error

	// SetVerificationToken guarda el token de verificación de email.
	SetVerificationToken(ctx context.Context, userID, token string, expiresAt time.Time) error

	// GetByVerificationToken busca por token de verificación vigente.
	// Retorna ErrNotFound tanto si no existe como si expiró (no se distingue).
	GetByVerificationToken(ctx context.Context, token string, now time.Time) (*User, error)

	// SetResetToken guarda el token de reset de password.
	SetResetToken(ctx context.Context, userID, token string, expiresAt time.Time) error

	// GetByResetToken busca por token de reset vigente.
	// Retorna ErrNotFound tanto si no existe como si expiró (no se distingue).
	GetByResetToken(ctx context.Context, token string, now time.Time) (*User, error)

	// ClearResetToken limpia los campos de reset.
	ClearResetToken(ctx context.Context, userID string) error

	// Delete elimina el usuario. Los refresh tokens se eliminan en cascada.
	Delete(ctx context.Context, userID string) error
}
