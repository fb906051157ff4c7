// Package social implementa el puente entre los proveedores OAuth y las
// cuentas locales: resolución find-or-create, backfill de provider IDs y
// emisión del par de tokens propio.
package social

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/dropDatabas3/authgate/internal/authz"
	"github.com/dropDatabas3/authgate/internal/cache"
	"github.com/dropDatabas3/authgate/internal/domain/repository"
	"github.com/dropDatabas3/authgate/internal/http/dto"
	"github.com/dropDatabas3/authgate/internal/metrics"
	"github.com/dropDatabas3/authgate/internal/oauth"
	"github.com/dropDatabas3/authgate/internal/observability/logger"
	tokens "github.com/dropDatabas3/authgate/internal/security/token"
	"github.com/dropDatabas3/authgate/internal/token"
)

// Errores del servicio social.
var (
	ErrUnknownProvider = fmt.Errorf("unknown oauth provider")
	ErrInvalidState    = fmt.Errorf("invalid or expired oauth state")
	ErrExchangeFailed  = fmt.Errorf("oauth code exchange failed")
	ErrNoEmail         = fmt.Errorf("provider returned no email")
	ErrUserDisabled    = fmt.Errorf("user disabled")
)

const stateTTL = 10 * time.Minute

// Service define el flujo OAuth de dos pasos.
type Service interface {
	// Begin genera state+nonce, los persiste y retorna la URL de
	// autorización del proveedor.
	Begin(ctx context.Context, provider string) (string, error)

	// Callback valida el state (un solo uso), canjea el code y resuelve
	// la cuenta local. Retorna el par de tokens propio.
	Callback(ctx context.Context, provider, state, code string, meta token.ClientMeta) (*dto.LoginResponse, error)
}

// Deps contiene las dependencias del servicio.
type Deps struct {
	Users     repository.UserRepository
	RBAC      repository.RBACRepository
	Authority *token.Authority
	Cache     cache.Client
	Providers map[string]oauth.Provider
}

type service struct {
	deps Deps
}

// NewService crea el servicio social.
func NewService(deps Deps) Service {
	return &service{deps: deps}
}

func stateKey(state string) string { return "oauth:state:" + state }

func (s *service) Begin(ctx context.Context, provider string) (string, error) {
	p, ok := s.deps.Providers[provider]
	if !ok {
		return "", ErrUnknownProvider
	}

	state, err := tokens.GenerateOpaqueToken(24)
	if err != nil {
		return "", err
	}
	nonce, err := tokens.GenerateOpaqueToken(24)
	if err != nil {
		return "", err
	}

	// El nonce queda atado al state para validarlo en el callback.
	if err := s.deps.Cache.Set(ctx, stateKey(state), nonce, stateTTL); err != nil {
		return "", err
	}

	return p.AuthURL(ctx, state, nonce)
}

func (s *service) Callback(ctx context.Context, provider, state, code string, meta token.ClientMeta) (*dto.LoginResponse, error) {
	log := logger.From(ctx).With(
		logger.Layer("service"),
		logger.Component("social"),
		logger.Op("Callback"),
		logger.Provider(provider),
	)

	p, ok := s.deps.Providers[provider]
	if !ok {
		return nil, ErrUnknownProvider
	}
	if state == "" || code == "" {
		return nil, ErrInvalidState
	}

	// State de un solo uso: leer y borrar.
	nonce, err := s.deps.Cache.Get(ctx, stateKey(state))
	if err != nil {
		if cache.IsNotFound(err) {
			log.Warn("oauth state not found or reused")
			return nil, ErrInvalidState
		}
		return nil, err
	}
	_ = s.deps.Cache.Delete(ctx, stateKey(state))

	profile, err := p.FetchProfile(ctx, code, nonce)
	if err != nil {
		log.Warn("profile fetch failed", logger.Err(err))
		return nil, ErrExchangeFailed
	}
	if profile.Email == "" {
		return nil, ErrNoEmail
	}
	profile.Email = strings.ToLower(profile.Email)

	user, err := s.resolveUser(ctx, profile)
	if err != nil {
		return nil, err
	}

	log = log.With(logger.UserID(user.ID))

	if !user.Active {
		log.Info("user disabled")
		return nil, ErrUserDisabled
	}

	userRoles, err := s.deps.RBAC.GetUserRoles(ctx, user.ID)
	if err != nil {
		return nil, err
	}
	direct, err := s.deps.RBAC.GetUserDirectPermissions(ctx, user.ID)
	if err != nil {
		return nil, err
	}
	roles := authz.RoleNames(userRoles)
	perms := authz.Flatten(userRoles, direct)

	pair, err := s.deps.Authority.IssuePair(ctx, user.ID, user.Email, roles, perms, meta)
	if err != nil {
		log.Error("token issue failed", logger.Err(err))
		return nil, err
	}

	now := time.Now().UTC()
	if err := s.deps.Users.StampLastLogin(ctx, user.ID, now); err != nil {
		log.Warn("stamp last login failed", logger.Err(err))
	}
	user.LastLoginAt = &now

	metrics.Login("success")
	log.Info("social login ok")

	if roles == nil {
		roles = []string{}
	}
	if perms == nil {
		perms = []string{}
	}
	return &dto.LoginResponse{
		TokenPair: dto.TokenPair{
			AccessToken:  pair.AccessToken,
			RefreshToken: pair.RefreshToken,
			TokenType:    "Bearer",
			ExpiresIn:    pair.ExpiresIn,
		},
		User: dto.UserProfile{
			ID:            user.ID,
			Email:         user.Email,
			FirstName:     user.FirstName,
			LastName:      user.LastName,
			Avatar:        user.Avatar,
			EmailVerified: user.EmailVerified,
			Roles:         roles,
			Permissions:   perms,
			LastLoginAt:   user.LastLoginAt,
			CreatedAt:     user.CreatedAt,
		},
	}, nil
}

// resolveUser aplica el orden de resolución: por provider ID, luego por
// email (con backfill del provider ID), y por último crea la cuenta.
func (s *service) resolveUser(ctx context.Context, profile *oauth.Profile) (*repository.User, error) {
	log := logger.From(ctx).With(logger.Component("social"), logger.Op("resolveUser"))

	user, err := s.deps.Users.GetByProvider(ctx, profile.Provider, profile.ProviderID)
	if err == nil {
		s.syncAvatar(ctx, user, profile.Avatar)
		return user, nil
	}
	if !repository.IsNotFound(err) {
		return nil, err
	}

	user, err = s.deps.Users.GetByEmail(ctx, profile.Email)
	if err == nil {
		// Cuenta existente con el mismo email: vincular el proveedor.
		if err := s.deps.Users.SetProviderID(ctx, user.ID, profile.Provider, profile.ProviderID); err != nil {
			log.Warn("provider backfill failed", logger.Err(err))
		}
		if !user.EmailVerified && profile.EmailVerified {
			if err := s.deps.Users.SetEmailVerified(ctx, user.ID); err != nil {
				log.Warn("email verified backfill failed", logger.Err(err))
			} else {
				user.EmailVerified = true
			}
		}
		s.syncAvatar(ctx, user, profile.Avatar)
		return user, nil
	}
	if !repository.IsNotFound(err) {
		return nil, err
	}

	// Cuenta nueva. El proveedor ya verificó la casilla, no se repite el
	// flujo de verificación propio.
	input := repository.CreateUserInput{
		Email:         profile.Email,
		FirstName:     profile.FirstName,
		LastName:      profile.LastName,
		Avatar:        profile.Avatar,
		EmailVerified: true,
	}
	switch profile.Provider {
	case "google":
		input.GoogleID = profile.ProviderID
	case "github":
		input.GitHubID = profile.ProviderID
	}

	user, err = s.deps.Users.Create(ctx, input)
	if err != nil {
		return nil, err
	}

	if def, derr := s.deps.RBAC.GetDefaultRole(ctx); derr == nil {
		if aerr := s.deps.RBAC.AssignRole(ctx, user.ID, def.ID); aerr != nil {
			log.Warn("default role assignment failed", logger.Err(aerr))
		}
	} else if !repository.IsNotFound(derr) {
		log.Warn("default role lookup failed", logger.Err(derr))
	}

	log.Info("user created from social login", logger.Email(user.Email))
	return user, nil
}

// syncAvatar refresca el avatar con el del proveedor cuando cambió.
// Best-effort: un perfil desactualizado no bloquea el login.
func (s *service) syncAvatar(ctx context.Context, user *repository.User, avatar string) {
	if avatar == "" || avatar == user.Avatar {
		return
	}
	if err := s.deps.Users.UpdateProfile(ctx, user.ID, repository.UpdateProfileInput{Avatar: &avatar}); err != nil {
		logger.From(ctx).Warn("avatar sync failed",
			logger.Component("social"), logger.Err(err))
		return
	}
	user.Avatar = avatar
}
