package repository

import (
	"context"
	"time"
)

// RefreshToken representa una sesión de login activa o histórica.
// Se guarda el hash del token firmado, nunca el token literal.
type RefreshToken struct {
	ID        string
	UserID    string
	TokenHash string
	IssuedAt  time.Time
	ExpiresAt time.Time
	RevokedAt *time.Time

	// Metadata del cliente capturada al emitir, para auditoría.
	UserAgent string
	IP        string
}

// Revoked reporta si el token fue revocado.
func (t *RefreshToken) Revoked() bool { return t.RevokedAt != nil }

// CreateRefreshTokenInput contiene los datos para crear un refresh token.
type CreateRefreshTokenInput struct {
	UserID    string
	TokenHash string
	// ExpiresAt viene del claim exp del token firmado; la fila lo espeja
	// para poder consultar por expiración sin decodificar.
	ExpiresAt time.Time
	UserAgent string
	IP        string
}

// TokenRepository define operaciones sobre refresh tokens.
type TokenRepository interface {
	// Create crea un nuevo refresh token. Retorna el ID de la fila.
	Create(ctx context.Context, input CreateRefreshTokenInput) (string, error)

	// GetByHash busca un token por su hash.
	// Retorna ErrNotFound si no existe.
	GetByHash(ctx context.Context, tokenHash string) (*RefreshToken, error)

	// RevokeIfActive marca el token como revocado solo si aún no lo está
	// (compare-and-set a nivel de storage). Retorna false si el token ya
	// estaba revocado: así dos refresh concurrentes sobre el mismo token
	// producen exactamente un ganador.
	RevokeIfActive(ctx context.Context, tokenID string) (bool, error)

	// Revoke marca el token como revocado. Idempotente.
	Revoke(ctx context.Context, tokenID string) error

	// RevokeAllByUser revoca todos los tokens activos de un usuario,
	// excepto exceptID si no es vacío. Retorna el número revocado.
	RevokeAllByUser(ctx context.Context, userID, exceptID string) (int, error)

	// DeleteExpired elimina filas con expires_at < now. Retorna el número
	// de filas eliminadas.
	DeleteExpired(ctx context.Context, now time.Time) (int, error)
}

// BlacklistedToken es una entrada de denylist para un access token
// invalidado antes de su expiración natural (logout).
type BlacklistedToken struct {
	Token     string // access token literal
	ExpiresAt time.Time
	CreatedAt time.Time
}

// BlacklistRepository define operaciones sobre la denylist de access tokens.
type BlacklistRepository interface {
	// Add inserta una entrada. Idempotente sobre el mismo token.
	Add(ctx context.Context, token string, expiresAt time.Time) error

	// Contains reporta si el token está en la denylist y su entrada sigue
	// vigente (now < expires_at).
	Contains(ctx context.Context, token string, now time.Time) (bool, error)

	// DeleteExpired elimina entradas con expires_at < now.
	DeleteExpired(ctx context.Context, now time.Time) (int, error)
}
