// Package admin contiene los controllers de administración RBAC.
package admin

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/dropDatabas3/authgate/internal/http/dto"
	httperrors "github.com/dropDatabas3/authgate/internal/http/errors"
	svc "github.com/dropDatabas3/authgate/internal/http/services/admin"
)

const maxBodySize = 64 * 1024

// Controller expone los handlers de administración.
type Controller struct {
	service svc.Service
}

// NewController crea el controller admin.
func NewController(service svc.Service) *Controller {
	return &Controller{service: service}
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodySize)
	defer r.Body.Close()
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		httperrors.WriteError(w, httperrors.ErrInvalidJSON)
		return false
	}
	return true
}

func writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, svc.ErrMissingFields):
		httperrors.WriteError(w, httperrors.ErrMissingFields)
	case errors.Is(err, svc.ErrNotFound):
		httperrors.WriteError(w, httperrors.ErrNotFound)
	case errors.Is(err, svc.ErrNameTaken):
		httperrors.WriteError(w, httperrors.ErrConflict.WithDetail("name already in use"))
	default:
		httperrors.WriteError(w, err)
	}
}

// ListRoles maneja GET /v1/admin/roles
func (c *Controller) ListRoles(w http.ResponseWriter, r *http.Request) {
	roles, err := c.service.ListRoles(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	httperrors.WriteJSON(w, http.StatusOK, roles)
}

// CreateRole maneja POST /v1/admin/roles
func (c *Controller) CreateRole(w http.ResponseWriter, r *http.Request) {
	var req dto.CreateRoleRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	role, err := c.service.CreateRole(r.Context(), req)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	httperrors.WriteJSON(w, http.StatusCreated, role)
}

// DeleteRole maneja DELETE /v1/admin/roles/{roleID}
func (c *Controller) DeleteRole(w http.ResponseWriter, r *http.Request) {
	if err := c.service.DeleteRole(r.Context(), chi.URLParam(r, "roleID")); err != nil {
		writeServiceError(w, err)
		return
	}
	httperrors.WriteJSON(w, http.StatusOK, dto.MessageResponse{Message: "role deleted"})
}

// ListPermissions maneja GET /v1/admin/permissions
func (c *Controller) ListPermissions(w http.ResponseWriter, r *http.Request) {
	perms, err := c.service.ListPermissions(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	httperrors.WriteJSON(w, http.StatusOK, perms)
}

// CreatePermission maneja POST /v1/admin/permissions
func (c *Controller) CreatePermission(w http.ResponseWriter, r *http.Request) {
	var req dto.CreatePermissionRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	perm, err := c.service.CreatePermission(r.Context(), req)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	httperrors.WriteJSON(w, http.StatusCreated, perm)
}

// AddPermissionToRole maneja PUT /v1/admin/roles/{roleID}/permissions/{permissionID}
func (c *Controller) AddPermissionToRole(w http.ResponseWriter, r *http.Request) {
	err := c.service.AddPermissionToRole(r.Context(), chi.URLParam(r, "roleID"), chi.URLParam(r, "permissionID"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	httperrors.WriteJSON(w, http.StatusOK, dto.MessageResponse{Message: "permission added to role"})
}

// RemovePermissionFromRole maneja DELETE /v1/admin/roles/{roleID}/permissions/{permissionID}
func (c *Controller) RemovePermissionFromRole(w http.ResponseWriter, r *http.Request) {
	err := c.service.RemovePermissionFromRole(r.Context(), chi.URLParam(r, "roleID"), chi.URLParam(r, "permissionID"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	httperrors.WriteJSON(w, http.StatusOK, dto.MessageResponse{Message: "permission removed from role"})
}

// AssignRole maneja PUT /v1/admin/users/{userID}/roles/{roleID}
func (c *Controller) AssignRole(w http.ResponseWriter, r *http.Request) {
	err := c.service.AssignRole(r.Context(), chi.URLParam(r, "userID"), chi.URLParam(r, "roleID"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	httperrors.WriteJSON(w, http.StatusOK, dto.MessageResponse{Message: "role assigned"})
}

// RemoveRole maneja DELETE /v1/admin/users/{userID}/roles/{roleID}
func (c *Controller) RemoveRole(w http.ResponseWriter, r *http.Request) {
	err := c.service.RemoveRole(r.Context(), chi.URLParam(r, "userID"), chi.URLParam(r, "roleID"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	httperrors.WriteJSON(w, http.StatusOK, dto.MessageResponse{Message: "role removed"})
}

// GrantPermission maneja PUT /v1/admin/users/{userID}/permissions/{permissionID}
func (c *Controller) GrantPermission(w http.ResponseWriter, r *http.Request) {
	err := c.service.GrantPermission(r.Context(), chi.URLParam(r, "userID"), chi.URLParam(r, "permissionID"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	httperrors.WriteJSON(w, http.StatusOK, dto.MessageResponse{Message: "permission granted"})
}

// RevokePermission maneja DELETE /v1/admin/users/{userID}/permissions/{permissionID}
func (c *Controller) RevokePermission(w http.ResponseWriter, r *http.Request) {
	err := c.service.RevokePermission(r.Context(), chi.URLParam(r, "userID"), chi.URLParam(r, "permissionID"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	httperrors.WriteJSON(w, http.StatusOK, dto.MessageResponse{Message: "permission revoked"})
}

// EnableUser maneja PUT /v1/admin/users/{userID}/enable
func (c *Controller) EnableUser(w http.ResponseWriter, r *http.Request) {
	if err := c.service.SetUserActive(r.Context(), chi.URLParam(r, "userID"), true); err != nil {
		writeServiceError(w, err)
		return
	}
	httperrors.WriteJSON(w, http.StatusOK, dto.MessageResponse{Message: "user enabled"})
}

// DisableUser maneja PUT /v1/admin/users/{userID}/disable
func (c *Controller) DisableUser(w http.ResponseWriter, r *http.Request) {
	if err := c.service.SetUserActive(r.Context(), chi.URLParam(r, "userID"), false); err != nil {
		writeServiceError(w, err)
		return
	}
	httperrors.WriteJSON(w, http.StatusOK, dto.MessageResponse{Message: "user disabled"})
}
