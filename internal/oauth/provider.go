// Package oauth define el contrato común de los proveedores de login
// social. Cada proveedor normaliza su payload a un Profile; el resto del
// servicio nunca ve tokens ni claims del proveedor.
package oauth

import "context"

// Profile es la identidad normalizada que entrega un proveedor.
type Profile struct {
	Provider      string // "google" | "github"
	ProviderID    string // sub de Google, id numérico de GitHub
	Email         string
	EmailVerified bool
	FirstName     string
	LastName      string
	Avatar        string
}

// Provider abstrae un proveedor OAuth/OIDC.
type Provider interface {
	// Name retorna el identificador del proveedor.
	Name() string

	// AuthURL construye la URL de autorización para redirigir al usuario.
	AuthURL(ctx context.Context, state, nonce string) (string, error)

	// FetchProfile canjea el authorization code y retorna el perfil
	// normalizado. nonce se valida cuando el proveedor lo soporta.
	FetchProfile(ctx context.Context, code, nonce string) (*Profile, error)
}
