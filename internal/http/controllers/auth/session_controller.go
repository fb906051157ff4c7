package auth

import (
	"net/http"
	"time"

	"github.com/dropDatabas3/authgate/internal/http/dto"
	httperrors "github.com/dropDatabas3/authgate/internal/http/errors"
	"github.com/dropDatabas3/authgate/internal/http/middlewares"
	"github.com/dropDatabas3/authgate/internal/observability/logger"
	"github.com/dropDatabas3/authgate/internal/token"
)

// clientMeta captura user agent e IP para auditoría de sesiones.
func clientMeta(r *http.Request) token.ClientMeta {
	return token.ClientMeta{
		UserAgent: r.UserAgent(),
		IP:        middlewares.ClientIP(r),
	}
}

// refreshCookieName es la cookie HttpOnly donde viaja el refresh token
// para clientes browser; el body JSON tiene prioridad si trae ambos.
const refreshCookieName = "authgate_rt"

func (c *Controller) setRefreshCookie(w http.ResponseWriter, refreshToken string) {
	ttl := c.RefreshCookieTTL
	if ttl <= 0 {
		ttl = 168 * time.Hour
	}
	http.SetCookie(w, &http.Cookie{
		Name:     refreshCookieName,
		Value:    refreshToken,
		Path:     "/v1/auth",
		MaxAge:   int(ttl.Seconds()),
		HttpOnly: true,
		Secure:   true,
		SameSite: http.SameSiteLaxMode,
	})
}

func clearRefreshCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     refreshCookieName,
		Value:    "",
		Path:     "/v1/auth",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   true,
		SameSite: http.SameSiteLaxMode,
	})
}

// refreshTokenFrom prefiere el token del body y cae a la cookie.
func refreshTokenFrom(r *http.Request, bodyToken string) string {
	if bodyToken != "" {
		return bodyToken
	}
	if ck, err := r.Cookie(refreshCookieName); err == nil {
		return ck.Value
	}
	return ""
}

// Login maneja POST /v1/auth/login
func (c *Controller) Login(w http.ResponseWriter, r *http.Request) {
	var req dto.LoginRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	result, err := c.service.Login(r.Context(), req, clientMeta(r))
	if err != nil {
		logger.From(r.Context()).Debug("login failed",
			logger.Layer("controller"), logger.Op("Login"), logger.Err(err))
		writeServiceError(w, err)
		return
	}
	c.setRefreshCookie(w, result.RefreshToken)
	httperrors.WriteJSON(w, http.StatusOK, result)
}

// Refresh maneja POST /v1/auth/refresh. El refresh token llega por el
// body JSON o por la cookie authgate_rt.
func (c *Controller) Refresh(w http.ResponseWriter, r *http.Request) {
	var req dto.RefreshRequest
	if !decodeJSONOptional(w, r, &req) {
		return
	}

	pair, err := c.service.Refresh(r.Context(), refreshTokenFrom(r, req.RefreshToken))
	if err != nil {
		logger.From(r.Context()).Debug("refresh failed",
			logger.Layer("controller"), logger.Op("Refresh"), logger.Err(err))
		writeServiceError(w, err)
		return
	}
	c.setRefreshCookie(w, pair.RefreshToken)
	httperrors.WriteJSON(w, http.StatusOK, pair)
}

// Logout maneja POST /v1/auth/logout (requiere auth)
func (c *Controller) Logout(w http.ResponseWriter, r *http.Request) {
	var req dto.LogoutRequest
	if !decodeJSONOptional(w, r, &req) {
		return
	}

	access := middlewares.GetAccessToken(r.Context())
	c.service.Logout(r.Context(), access, refreshTokenFrom(r, req.RefreshToken))
	clearRefreshCookie(w)
	httperrors.WriteJSON(w, http.StatusOK, dto.MessageResponse{Message: "logged out"})
}

// LogoutAll maneja POST /v1/auth/logout-all (requiere auth). La sesión
// que pide el logout-all sobrevive: el refresh token del body o de la
// cookie se pasa como excepción y el access token en mano sigue válido.
func (c *Controller) LogoutAll(w http.ResponseWriter, r *http.Request) {
	id, ok := middlewares.GetIdentity(r.Context())
	if !ok {
		httperrors.WriteError(w, httperrors.ErrUnauthorized)
		return
	}

	var req dto.LogoutRequest
	if !decodeJSONOptional(w, r, &req) {
		return
	}
	except := refreshTokenFrom(r, req.RefreshToken)

	n, err := c.service.LogoutAll(r.Context(), id.UserID, except)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	if except == "" {
		// Sin token que preservar la propia sesión también cayó.
		clearRefreshCookie(w)
	}

	httperrors.WriteJSON(w, http.StatusOK, dto.SessionsRevokedResponse{
		Message: "all sessions revoked",
		Revoked: n,
	})
}
