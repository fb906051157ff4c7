// Package router arma el árbol de rutas del servicio.
package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	adminctrl "github.com/dropDatabas3/authgate/internal/http/controllers/admin"
	authctrl "github.com/dropDatabas3/authgate/internal/http/controllers/auth"
	healthctrl "github.com/dropDatabas3/authgate/internal/http/controllers/health"
	oauthctrl "github.com/dropDatabas3/authgate/internal/http/controllers/oauth"
	mw "github.com/dropDatabas3/authgate/internal/http/middlewares"
	"github.com/dropDatabas3/authgate/internal/rate"
	"github.com/dropDatabas3/authgate/internal/token"
)

// Deps contiene todo lo que el router necesita para armar el árbol.
type Deps struct {
	Auth   *authctrl.Controller
	OAuth  *oauthctrl.Controller
	Admin  *adminctrl.Controller
	Health *healthctrl.Controller

	Authority *token.Authority

	// Limiters por endpoint. nil = sin límite.
	LoginLimiter   rate.Limiter
	ForgotLimiter  rate.Limiter
	RefreshLimiter rate.Limiter

	// MetricsHandler sirve /metrics. nil = no se expone.
	MetricsHandler http.Handler

	CORSAllowedOrigins []string
}

// routePattern devuelve la ruta chi registrada, para métricas sin
// cardinalidad por IDs.
func routePattern(r *http.Request) string {
	if rctx := chi.RouteContext(r.Context()); rctx != nil {
		if p := rctx.RoutePattern(); p != "" {
			return p
		}
	}
	return r.URL.Path
}

// New construye el router con todas las rutas y middlewares.
func New(deps Deps) http.Handler {
	r := chi.NewRouter()

	// Globales, del más externo al más interno.
	r.Use(mw.WithRequestID())
	r.Use(mw.WithRecover())
	r.Use(mw.WithSecurityHeaders())
	if len(deps.CORSAllowedOrigins) > 0 {
		r.Use(mw.WithCORS(deps.CORSAllowedOrigins))
	}
	r.Use(mw.WithLogging(routePattern))

	// Infra
	r.Get("/healthz", deps.Health.Healthz)
	r.Get("/readyz", deps.Health.Readyz)
	if deps.MetricsHandler != nil {
		r.Method(http.MethodGet, "/metrics", deps.MetricsHandler)
	}

	requireAuth := mw.RequireAuth(deps.Authority)

	r.Route("/v1", func(v1 chi.Router) {
		v1.Route("/auth", func(a chi.Router) {
			// Todo /v1/auth devuelve o toca tokens: nunca cacheable.
			a.Use(mw.WithNoStore())

			a.Group(func(g chi.Router) {
				g.Use(mw.WithRateLimit(deps.LoginLimiter, nil))
				g.Post("/register", deps.Auth.Register)
				g.Post("/login", deps.Auth.Login)
			})
			a.Group(func(g chi.Router) {
				g.Use(mw.WithRateLimit(deps.RefreshLimiter, nil))
				g.Post("/refresh", deps.Auth.Refresh)
			})
			a.Group(func(g chi.Router) {
				g.Use(mw.WithRateLimit(deps.ForgotLimiter, nil))
				g.Post("/forgot-password", deps.Auth.ForgotPassword)
				g.Post("/resend-verification", deps.Auth.ResendVerification)
			})
			a.Get("/verify-email", deps.Auth.VerifyEmail)
			a.Post("/reset-password", deps.Auth.ResetPassword)

			a.Group(func(g chi.Router) {
				g.Use(requireAuth)
				g.Post("/logout", deps.Auth.Logout)
				g.Post("/logout-all", deps.Auth.LogoutAll)
				g.Post("/change-password", deps.Auth.ChangePassword)
				g.Get("/me", deps.Auth.Me)
				g.Patch("/me", deps.Auth.UpdateProfile)
				g.Delete("/me", deps.Auth.DeleteAccount)
			})
		})

		v1.Route("/oauth", func(o chi.Router) {
			o.Use(mw.WithNoStore())
			o.Get("/{provider}", deps.OAuth.Begin)
			o.Get("/{provider}/callback", deps.OAuth.Callback)
		})

		v1.Route("/admin", func(ad chi.Router) {
			ad.Use(requireAuth)
			ad.Use(mw.RequireRole("admin"))

			ad.Get("/roles", deps.Admin.ListRoles)
			ad.Post("/roles", deps.Admin.CreateRole)
			ad.Delete("/roles/{roleID}", deps.Admin.DeleteRole)
			ad.Put("/roles/{roleID}/permissions/{permissionID}", deps.Admin.AddPermissionToRole)
			ad.Delete("/roles/{roleID}/permissions/{permissionID}", deps.Admin.RemovePermissionFromRole)

			ad.Get("/permissions", deps.Admin.ListPermissions)
			ad.Post("/permissions", deps.Admin.CreatePermission)

			ad.Put("/users/{userID}/roles/{roleID}", deps.Admin.AssignRole)
			ad.Delete("/users/{userID}/roles/{roleID}", deps.Admin.RemoveRole)
			ad.Put("/users/{userID}/permissions/{permissionID}", deps.Admin.GrantPermission)
			ad.Delete("/users/{userID}/permissions/{permissionID}", deps.Admin.RevokePermission)
			ad.Put("/users/{userID}/enable", deps.Admin.EnableUser)
			ad.Put("/users/{userID}/disable", deps.Admin.DisableUser)
		})
	})

	return r
}
