// Package oauth contiene los controllers del flujo de login social.
package oauth

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	httperrors "github.com/dropDatabas3/authgate/internal/http/errors"
	"github.com/dropDatabas3/authgate/internal/http/middlewares"
	svc "github.com/dropDatabas3/authgate/internal/http/services/social"
	"github.com/dropDatabas3/authgate/internal/observability/logger"
	"github.com/dropDatabas3/authgate/internal/token"
)

// Controller expone los handlers del flujo OAuth.
type Controller struct {
	service svc.Service
}

// NewController crea el controller de OAuth.
func NewController(service svc.Service) *Controller {
	return &Controller{service: service}
}

// Begin maneja GET /v1/oauth/{provider} — redirige al proveedor.
func (c *Controller) Begin(w http.ResponseWriter, r *http.Request) {
	provider := chi.URLParam(r, "provider")

	authURL, err := c.service.Begin(r.Context(), provider)
	if err != nil {
		if errors.Is(err, svc.ErrUnknownProvider) {
			httperrors.WriteError(w, httperrors.ErrNotFound.WithDetail("unknown provider"))
			return
		}
		logger.From(r.Context()).Error("oauth begin failed",
			logger.Layer("controller"), logger.Op("Begin"), logger.Provider(provider), logger.Err(err))
		httperrors.WriteError(w, err)
		return
	}

	http.Redirect(w, r, authURL, http.StatusFound)
}

// Callback maneja GET /v1/oauth/{provider}/callback
func (c *Controller) Callback(w http.ResponseWriter, r *http.Request) {
	provider := chi.URLParam(r, "provider")
	q := r.URL.Query()

	if errCode := q.Get("error"); errCode != "" {
		// El usuario canceló o el proveedor rechazó.
		httperrors.WriteError(w, httperrors.ErrUnauthorized.WithDetail("provider error: "+errCode))
		return
	}

	meta := token.ClientMeta{UserAgent: r.UserAgent(), IP: middlewares.ClientIP(r)}
	result, err := c.service.Callback(r.Context(), provider, q.Get("state"), q.Get("code"), meta)
	if err != nil {
		logger.From(r.Context()).Debug("oauth callback failed",
			logger.Layer("controller"), logger.Op("Callback"), logger.Provider(provider), logger.Err(err))
		writeSocialError(w, err)
		return
	}

	httperrors.WriteJSON(w, http.StatusOK, result)
}

func writeSocialError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, svc.ErrUnknownProvider):
		httperrors.WriteError(w, httperrors.ErrNotFound.WithDetail("unknown provider"))
	case errors.Is(err, svc.ErrInvalidState):
		httperrors.WriteError(w, httperrors.ErrUnauthorized.WithDetail("state invalid or expired"))
	case errors.Is(err, svc.ErrExchangeFailed), errors.Is(err, svc.ErrNoEmail):
		httperrors.WriteError(w, httperrors.ErrUnauthorized.WithDetail("provider authentication failed"))
	case errors.Is(err, svc.ErrUserDisabled):
		httperrors.WriteError(w, httperrors.ErrAccountDisabled)
	default:
		httperrors.WriteError(w, err)
	}
}
