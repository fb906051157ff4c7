package auth

import (
	"net/http"

	"github.com/dropDatabas3/authgate/internal/http/dto"
	httperrors "github.com/dropDatabas3/authgate/internal/http/errors"
	"github.com/dropDatabas3/authgate/internal/http/middlewares"
)

// Me maneja GET /v1/auth/me (requiere auth)
func (c *Controller) Me(w http.ResponseWriter, r *http.Request) {
	id, ok := middlewares.GetIdentity(r.Context())
	if !ok {
		httperrors.WriteError(w, httperrors.ErrUnauthorized)
		return
	}

	profile, err := c.service.Me(r.Context(), id.UserID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	httperrors.WriteJSON(w, http.StatusOK, profile)
}

// UpdateProfile maneja PATCH /v1/auth/me (requiere auth)
func (c *Controller) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	id, ok := middlewares.GetIdentity(r.Context())
	if !ok {
		httperrors.WriteError(w, httperrors.ErrUnauthorized)
		return
	}

	var req dto.UpdateProfileRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	profile, err := c.service.UpdateProfile(r.Context(), id.UserID, req)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	httperrors.WriteJSON(w, http.StatusOK, profile)
}

// DeleteAccount maneja DELETE /v1/auth/me (requiere auth)
func (c *Controller) DeleteAccount(w http.ResponseWriter, r *http.Request) {
	id, ok := middlewares.GetIdentity(r.Context())
	if !ok {
		httperrors.WriteError(w, httperrors.ErrUnauthorized)
		return
	}

	if err := c.service.DeleteAccount(r.Context(), id.UserID, middlewares.GetAccessToken(r.Context())); err != nil {
		writeServiceError(w, err)
		return
	}
	httperrors.WriteJSON(w, http.StatusOK, dto.MessageResponse{Message: "account deleted"})
}
