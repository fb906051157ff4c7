package auth

import (
	"net/http"

	"github.com/dropDatabas3/authgate/internal/http/dto"
	httperrors "github.com/dropDatabas3/authgate/internal/http/errors"
	"github.com/dropDatabas3/authgate/internal/http/middlewares"
	"github.com/dropDatabas3/authgate/internal/observability/logger"
)

// ForgotPassword maneja POST /v1/auth/forgot-password
func (c *Controller) ForgotPassword(w http.ResponseWriter, r *http.Request) {
	var req dto.ForgotPasswordRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	if err := c.service.ForgotPassword(r.Context(), req.Email); err != nil {
		writeServiceError(w, err)
		return
	}
	// Respuesta idéntica exista o no la cuenta.
	httperrors.WriteJSON(w, http.StatusOK, dto.MessageResponse{
		Message: "if the account exists, a reset email was sent",
	})
}

// ResetPassword maneja POST /v1/auth/reset-password
func (c *Controller) ResetPassword(w http.ResponseWriter, r *http.Request) {
	var req dto.ResetPasswordRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	if err := c.service.ResetPassword(r.Context(), req.Token, req.NewPassword); err != nil {
		logger.From(r.Context()).Debug("reset failed",
			logger.Layer("controller"), logger.Op("ResetPassword"), logger.Err(err))
		writeServiceError(w, err)
		return
	}
	httperrors.WriteJSON(w, http.StatusOK, dto.MessageResponse{Message: "password updated"})
}

// ChangePassword maneja POST /v1/auth/change-password (requiere auth)
func (c *Controller) ChangePassword(w http.ResponseWriter, r *http.Request) {
	id, ok := middlewares.GetIdentity(r.Context())
	if !ok {
		httperrors.WriteError(w, httperrors.ErrUnauthorized)
		return
	}

	var req dto.ChangePasswordRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	if err := c.service.ChangePassword(r.Context(), id.UserID, req.CurrentPassword, req.NewPassword); err != nil {
		writeServiceError(w, err)
		return
	}
	httperrors.WriteJSON(w, http.StatusOK, dto.MessageResponse{Message: "password changed"})
}
