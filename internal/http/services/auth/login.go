package auth

import (
	"context"
	"strings"
	"time"

	"github.com/dropDatabas3/authgate/internal/authz"
	"github.com/dropDatabas3/authgate/internal/domain/repository"
	"github.com/dropDatabas3/authgate/internal/http/dto"
	"github.com/dropDatabas3/authgate/internal/metrics"
	"github.com/dropDatabas3/authgate/internal/observability/logger"
	"github.com/dropDatabas3/authgate/internal/security/password"
	"github.com/dropDatabas3/authgate/internal/token"
)

// dummyHash se verifica cuando el email no existe, para que el tiempo de
// respuesta no delate si la cuenta está registrada.
var dummyHash, _ = password.Hash(password.Default, "dummy-timing-equalizer")

func (s *service) Login(ctx context.Context, in dto.LoginRequest, meta token.ClientMeta) (*dto.LoginResponse, error) {
	log := logger.From(ctx).With(
		logger.Layer("service"),
		logger.Component("auth.login"),
		logger.Op("Login"),
	)

	in.Email = strings.TrimSpace(strings.ToLower(in.Email))
	if in.Email == "" || in.Password == "" {
		return nil, ErrMissingFields
	}

	user, err := s.deps.Users.GetByEmail(ctx, in.Email)
	if err != nil {
		if repository.IsNotFound(err) {
			password.Verify(in.Password, dummyHash)
			log.Debug("user not found")
			metrics.Login("failure")
			return nil, ErrInvalidCredentials
		}
		log.Error("user lookup failed", logger.Err(err))
		return nil, err
	}

	log = log.With(logger.UserID(user.ID))

	if user.PasswordHash == nil || *user.PasswordHash == "" {
		// Cuenta solo-OAuth: login con password no aplica.
		password.Verify(in.Password, dummyHash)
		log.Debug("no password identity")
		metrics.Login("failure")
		return nil, ErrInvalidCredentials
	}

	if !password.Verify(in.Password, *user.PasswordHash) {
		log.Debug("password check failed")
		metrics.Login("failure")
		return nil, ErrInvalidCredentials
	}

	// Estos dos checks van DESPUÉS de validar credenciales: quien llega
	// acá ya probó conocer el password, así que mensajes distintos no
	// filtran existencia de cuentas.
	if !user.Active {
		log.Info("user disabled")
		metrics.Login("disabled")
		return nil, ErrUserDisabled
	}
	if !user.EmailVerified {
		log.Info("email not verified")
		metrics.Login("unverified")
		return nil, ErrEmailNotVerified
	}

	roles, perms, err := s.resolveAccess(ctx, user.ID)
	if err != nil {
		log.Error("rbac resolution failed", logger.Err(err))
		return nil, err
	}

	pair, err := s.deps.Authority.IssuePair(ctx, user.ID, user.Email, roles, perms, meta)
	if err != nil {
		log.Error("token issue failed", logger.Err(err))
		metrics.Login("failure")
		return nil, ErrTokenIssueFailed
	}

	now := time.Now().UTC()
	if err := s.deps.Users.StampLastLogin(ctx, user.ID, now); err != nil {
		// No bloquea el login.
		log.Warn("stamp last login failed", logger.Err(err))
	}
	user.LastLoginAt = &now

	metrics.Login("success")
	log.Info("login ok")

	return &dto.LoginResponse{
		TokenPair: toTokenPair(pair),
		User:      toProfile(user, roles, perms),
	}, nil
}

// resolveAccess junta roles y permisos efectivos del usuario.
func (s *service) resolveAccess(ctx context.Context, userID string) (roles, perms []string, err error) {
	userRoles, err := s.deps.RBAC.GetUserRoles(ctx, userID)
	if err != nil {
		return nil, nil, err
	}
	direct, err := s.deps.RBAC.GetUserDirectPermissions(ctx, userID)
	if err != nil {
		return nil, nil, err
	}
	return authz.RoleNames(userRoles), authz.Flatten(userRoles, direct), nil
}

func toTokenPair(p *token.Pair) dto.TokenPair {
	return dto.TokenPair{
		AccessToken:  p.AccessToken,
		RefreshToken: p.RefreshToken,
		TokenType:    "Bearer",
		ExpiresIn:    p.ExpiresIn,
	}
}

func toProfile(u *repository.User, roles, perms []string) dto.UserProfile {
	if roles == nil {
		roles = []string{}
	}
	if perms == nil {
		perms = []string{}
	}
	return dto.UserProfile{
		ID:            u.ID,
		Email:         u.Email,
		FirstName:     u.FirstName,
		LastName:      u.LastName,
		Avatar:        u.Avatar,
		EmailVerified: u.EmailVerified,
		Roles:         roles,
		Permissions:   perms,
		LastLoginAt:   u.LastLoginAt,
		CreatedAt:     u.CreatedAt,
	}
}
