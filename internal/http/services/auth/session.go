package auth

import (
	"context"
	"errors"
	"strings"

	"github.com/dropDatabas3/authgate/internal/http/dto"
	"github.com/dropDatabas3/authgate/internal/observability/logger"
	"github.com/dropDatabas3/authgate/internal/token"
)

func (s *service) Refresh(ctx context.Context, refreshToken string) (*dto.TokenPair, error) {
	refreshToken = strings.TrimSpace(refreshToken)
	if refreshToken == "" {
		return nil, ErrMissingFields
	}

	pair, err := s.deps.Authority.Refresh(ctx, refreshToken)
	if err != nil {
		switch {
		case errors.Is(err, token.ErrAccountDisabled):
			return nil, ErrUserDisabled
		case errors.Is(err, token.ErrExpiredToken):
			// Sesión vencida naturalmente: el cliente muestra otra cosa
			// que ante un token inválido o rotado.
			return nil, ErrTokenExpired
		case errors.Is(err, token.ErrInvalidToken):
			return nil, ErrInvalidToken
		default:
			return nil, err
		}
	}

	out := toTokenPair(pair)
	return &out, nil
}

// Logout revoca el refresh token y mete el access token en la denylist.
// Nunca falla: un logout con tokens ya inválidos sigue siendo un logout.
func (s *service) Logout(ctx context.Context, accessToken, refreshToken string) {
	log := logger.From(ctx).With(
		logger.Layer("service"),
		logger.Component("auth.session"),
		logger.Op("Logout"),
	)

	if refreshToken != "" {
		s.deps.Authority.Revoke(ctx, refreshToken)
	}
	if accessToken != "" {
		s.deps.Authority.BlacklistAccess(ctx, accessToken)
	}
	log.Info("logout")
}

// LogoutAll revoca todas las sesiones del usuario. Si exceptRefresh no es
// vacío, esa sesión sobrevive (logout de "los demás dispositivos").
func (s *service) LogoutAll(ctx context.Context, userID, exceptRefresh string) (int, error) {
	return s.deps.Authority.RevokeAll(ctx, userID, exceptRefresh, "logout_all")
}
