package middlewares

import (
	"net/http"
	"strings"

	"github.com/dropDatabas3/authgate/internal/authz"
	"github.com/dropDatabas3/authgate/internal/http/errors"
	"github.com/dropDatabas3/authgate/internal/metrics"
	"github.com/dropDatabas3/authgate/internal/observability/logger"
	"github.com/dropDatabas3/authgate/internal/token"
)

// bearerToken extrae el token del header Authorization.
func bearerToken(r *http.Request) string {
	h := r.Header.Get("Authorization")
	if len(h) > 7 && strings.EqualFold(h[:7], "Bearer ") {
		return strings.TrimSpace(h[7:])
	}
	return ""
}

// RequireAuth valida el access token Bearer y deja la Identity y el
// token literal en el contexto. Un token en la denylist cuenta como
// inválido aunque su firma y expiración estén bien.
func RequireAuth(authority *token.Authority) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw := bearerToken(r)
			if raw == "" {
				w.Header().Set("WWW-Authenticate", `Bearer realm="authgate"`)
				errors.WriteError(w, errors.ErrUnauthorized.WithDetail("missing bearer token"))
				return
			}

			claims, err := authority.VerifyAccess(raw)
			if err != nil {
				w.Header().Set("WWW-Authenticate", `Bearer error="invalid_token"`)
				if err == token.ErrExpiredToken {
					errors.WriteError(w, errors.ErrTokenExpired)
					return
				}
				errors.WriteError(w, errors.ErrUnauthorized.WithDetail("token invalid"))
				return
			}

			if authority.IsBlacklisted(r.Context(), raw) {
				metrics.BlacklistHit()
				logger.From(r.Context()).Info("blacklisted token rejected",
					logger.Component("http.auth"),
					logger.UserID(claims.UserID()),
				)
				w.Header().Set("WWW-Authenticate", `Bearer error="invalid_token"`)
				errors.WriteError(w, errors.ErrUnauthorized.WithDetail("token invalid"))
				return
			}

			id := authz.Identity{
				UserID:      claims.UserID(),
				Email:       claims.Email,
				Roles:       claims.Roles,
				Permissions: claims.Permissions,
			}
			ctx := WithIdentity(r.Context(), id)
			ctx = withAccessToken(ctx, raw)
			ctx = logger.ToContext(ctx, logger.From(ctx).With(logger.UserID(id.UserID)))
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
