// Package auth contiene los controllers HTTP de autenticación. Los
// controllers validan el boundary (JSON, tamaño de body) y traducen los
// errores del service a AppError; la lógica vive en los services.
package auth

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	httperrors "github.com/dropDatabas3/authgate/internal/http/errors"
	svc "github.com/dropDatabas3/authgate/internal/http/services/auth"
)

const maxBodySize = 64 * 1024 // 64KB

// Controller expone los handlers de auth.
type Controller struct {
	service svc.Service

	// RefreshCookieTTL controla el Max-Age de la cookie authgate_rt.
	// Cero usa el default del refresh token (168h).
	RefreshCookieTTL time.Duration
}

// NewController crea el controller de auth.
func NewController(service svc.Service) *Controller {
	return &Controller{service: service}
}

// decodeJSON limita y parsea el body JSON.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodySize)
	defer r.Body.Close()
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		httperrors.WriteError(w, httperrors.ErrInvalidJSON)
		return false
	}
	return true
}

// decodeJSONOptional es decodeJSON pero tolera body vacío, para
// endpoints que aceptan el refresh token también por cookie.
func decodeJSONOptional(w http.ResponseWriter, r *http.Request, dst any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodySize)
	defer r.Body.Close()
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil && !errors.Is(err, io.EOF) {
		httperrors.WriteError(w, httperrors.ErrInvalidJSON)
		return false
	}
	return true
}

// writeServiceError traduce los sentinels del service a AppError.
func writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, svc.ErrMissingFields):
		httperrors.WriteError(w, httperrors.ErrMissingFields)
	case errors.Is(err, svc.ErrWeakPassword):
		httperrors.WriteError(w, httperrors.ErrWeakPassword)
	case errors.Is(err, svc.ErrInvalidCredentials):
		httperrors.WriteError(w, httperrors.ErrInvalidCredentials)
	case errors.Is(err, svc.ErrUserDisabled):
		httperrors.WriteError(w, httperrors.ErrAccountDisabled)
	case errors.Is(err, svc.ErrEmailNotVerified):
		httperrors.WriteError(w, httperrors.ErrEmailNotVerified)
	case errors.Is(err, svc.ErrEmailExists):
		httperrors.WriteError(w, httperrors.ErrConflict.WithDetail("email already registered"))
	case errors.Is(err, svc.ErrTokenExpired):
		httperrors.WriteError(w, httperrors.ErrTokenExpired)
	case errors.Is(err, svc.ErrInvalidToken):
		httperrors.WriteError(w, httperrors.ErrUnauthorized.WithDetail("token invalid or expired"))
	case errors.Is(err, svc.ErrUserNotFound):
		httperrors.WriteError(w, httperrors.ErrNotFound)
	case errors.Is(err, svc.ErrNoPassword):
		httperrors.WriteError(w, httperrors.ErrBadRequest.WithDetail("account has no password; use your social login"))
	default:
		httperrors.WriteError(w, err)
	}
}

