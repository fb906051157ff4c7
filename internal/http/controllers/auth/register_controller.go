package auth

import (
	"net/http"

	"github.com/dropDatabas3/authgate/internal/http/dto"
	httperrors "github.com/dropDatabas3/authgate/internal/http/errors"
	"github.com/dropDatabas3/authgate/internal/observability/logger"
)

// Register maneja POST /v1/auth/register
func (c *Controller) Register(w http.ResponseWriter, r *http.Request) {
	var req dto.RegisterRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	profile, err := c.service.Register(r.Context(), req)
	if err != nil {
		logger.From(r.Context()).Debug("register failed",
			logger.Layer("controller"), logger.Op("Register"), logger.Err(err))
		writeServiceError(w, err)
		return
	}
	httperrors.WriteJSON(w, http.StatusCreated, profile)
}

// VerifyEmail maneja GET /v1/auth/verify-email?token=...
func (c *Controller) VerifyEmail(w http.ResponseWriter, r *http.Request) {
	verifyToken := r.URL.Query().Get("token")
	if verifyToken == "" {
		httperrors.WriteError(w, httperrors.ErrMissingFields.WithDetail("token query parameter required"))
		return
	}

	if err := c.service.VerifyEmail(r.Context(), verifyToken); err != nil {
		writeServiceError(w, err)
		return
	}
	httperrors.WriteJSON(w, http.StatusOK, dto.MessageResponse{Message: "email verified"})
}

// ResendVerification maneja POST /v1/auth/resend-verification
func (c *Controller) ResendVerification(w http.ResponseWriter, r *http.Request) {
	var req dto.ForgotPasswordRequest // mismo shape: {email}
	if !decodeJSON(w, r, &req) {
		return
	}

	if err := c.service.ResendVerification(r.Context(), req.Email); err != nil {
		writeServiceError(w, err)
		return
	}
	httperrors.WriteJSON(w, http.StatusOK, dto.MessageResponse{
		Message: "if the account exists, a verification email was sent",
	})
}
