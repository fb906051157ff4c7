// Package auth implementa la lógica de negocio de autenticación:
// registro, login con password, ciclo de vida de sesiones y flujos de
// email (verificación, recuperación de password).
package auth

import (
	"context"
	"fmt"
	"time"

	"github.com/dropDatabas3/authgate/internal/domain/repository"
	"github.com/dropDatabas3/authgate/internal/email"
	"github.com/dropDatabas3/authgate/internal/http/dto"
	"github.com/dropDatabas3/authgate/internal/security/password"
	"github.com/dropDatabas3/authgate/internal/token"
)

// Errores del servicio de auth.
var (
	ErrMissingFields      = fmt.Errorf("missing required fields")
	ErrInvalidCredentials = fmt.Errorf("invalid credentials")
	ErrUserDisabled       = fmt.Errorf("user disabled")
	ErrEmailNotVerified   = fmt.Errorf("email not verified")
	ErrEmailExists        = fmt.Errorf("email already registered")
	ErrWeakPassword       = fmt.Errorf("password does not meet policy")
	ErrInvalidToken       = fmt.Errorf("invalid or expired token")
	ErrTokenExpired       = fmt.Errorf("token expired")
	ErrUserNotFound       = fmt.Errorf("user not found")
	ErrNoPassword         = fmt.Errorf("account has no password set")
	ErrTokenIssueFailed   = fmt.Errorf("failed to issue token")
)

// Service define las operaciones de autenticación.
type Service interface {
	Register(ctx context.Context, in dto.RegisterRequest) (*dto.UserProfile, error)
	Login(ctx context.Context, in dto.LoginRequest, meta token.ClientMeta) (*dto.LoginResponse, error)
	Refresh(ctx context.Context, refreshToken string) (*dto.TokenPair, error)
	Logout(ctx context.Context, accessToken, refreshToken string)
	LogoutAll(ctx context.Context, userID, exceptRefresh string) (int, error)

	VerifyEmail(ctx context.Context, verifyToken string) error
	ResendVerification(ctx context.Context, emailAddr string) error
	ForgotPassword(ctx context.Context, emailAddr string) error
	ResetPassword(ctx context.Context, resetToken, newPassword string) error
	ChangePassword(ctx context.Context, userID, currentPassword, newPassword string) error

	Me(ctx context.Context, userID string) (*dto.UserProfile, error)
	UpdateProfile(ctx context.Context, userID string, in dto.UpdateProfileRequest) (*dto.UserProfile, error)
	DeleteAccount(ctx context.Context, userID, accessToken string) error
}

// Deps contiene las dependencias del servicio.
type Deps struct {
	Users     repository.UserRepository
	RBAC      repository.RBACRepository
	Authority *token.Authority
	Email     *email.Service // nil = no se envían correos (dev)
	Policy    password.Policy
	Hash      password.Params
	VerifyTTL time.Duration
	ResetTTL  time.Duration
}

type service struct {
	deps Deps
}

// NewService crea el servicio de autenticación.
func NewService(deps Deps) Service {
	if deps.VerifyTTL == 0 {
		deps.VerifyTTL = 48 * time.Hour
	}
	if deps.ResetTTL == 0 {
		deps.ResetTTL = time.Hour
	}
	if deps.Hash.Memory == 0 {
		deps.Hash = password.Default
	}
	if deps.Policy.MinLength == 0 {
		deps.Policy = password.DefaultPolicy
	}
	return &service{deps: deps}
}
