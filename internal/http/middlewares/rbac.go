package middlewares

import (
	"net/http"

	"github.com/dropDatabas3/authgate/internal/http/errors"
)

// Los middlewares RBAC asumen RequireAuth aplicado antes: sin Identity
// en el contexto responden 401, no 403.

// RequireRole exige al menos uno de los roles dados.
func RequireRole(roles ...string) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id, ok := GetIdentity(r.Context())
			if !ok {
				w.Header().Set("WWW-Authenticate", `Bearer error="invalid_token"`)
				errors.WriteError(w, errors.ErrUnauthorized.WithDetail("token invalid or missing"))
				return
			}
			if !id.HasAnyRole(roles...) {
				errors.WriteError(w, errors.ErrForbidden.WithDetail("insufficient role"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequirePermission exige al menos uno de los permisos dados.
func RequirePermission(perms ...string) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id, ok := GetIdentity(r.Context())
			if !ok {
				w.Header().Set("WWW-Authenticate", `Bearer error="invalid_token"`)
				errors.WriteError(w, errors.ErrUnauthorized.WithDetail("token invalid or missing"))
				return
			}
			if !id.HasAnyPermission(perms...) {
				errors.WriteError(w, errors.ErrForbidden.WithDetail("insufficient permission"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequireAllPermissions exige TODOS los permisos dados.
func RequireAllPermissions(perms ...string) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id, ok := GetIdentity(r.Context())
			if !ok {
				w.Header().Set("WWW-Authenticate", `Bearer error="invalid_token"`)
				errors.WriteError(w, errors.ErrUnauthorized.WithDetail("token invalid or missing"))
				return
			}
			if !id.HasAllPermissions(perms...) {
				errors.WriteError(w, errors.ErrForbidden.WithDetail("insufficient permission"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
