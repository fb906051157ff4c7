// Package admin implementa la administración de RBAC y cuentas.
package admin

import (
	"context"
	"fmt"
	"strings"

	"github.com/dropDatabas3/authgate/internal/domain/repository"
	"github.com/dropDatabas3/authgate/internal/http/dto"
	"github.com/dropDatabas3/authgate/internal/observability/logger"
	"github.com/dropDatabas3/authgate/internal/token"
)

// Errores del servicio admin.
var (
	ErrMissingFields = fmt.Errorf("missing required fields")
	ErrNotFound      = fmt.Errorf("not found")
	ErrNameTaken     = fmt.Errorf("name already in use")
)

// Service define las operaciones administrativas.
type Service interface {
	ListRoles(ctx context.Context) ([]dto.RoleView, error)
	CreateRole(ctx context.Context, in dto.CreateRoleRequest) (*dto.RoleView, error)
	DeleteRole(ctx context.Context, roleID string) error

	ListPermissions(ctx context.Context) ([]dto.PermissionView, error)
	CreatePermission(ctx context.Context, in dto.CreatePermissionRequest) (*dto.PermissionView, error)
	AddPermissionToRole(ctx context.Context, roleID, permissionID string) error
	RemovePermissionFromRole(ctx context.Context, roleID, permissionID string) error

	AssignRole(ctx context.Context, userID, roleID string) error
	RemoveRole(ctx context.Context, userID, roleID string) error
	GrantPermission(ctx context.Context, userID, permissionID string) error
	RevokePermission(ctx context.Context, userID, permissionID string) error

	SetUserActive(ctx context.Context, userID string, active bool) error
}

// Deps contiene las dependencias del servicio.
type Deps struct {
	Users     repository.UserRepository
	RBAC      repository.RBACRepository
	Authority *token.Authority
}

type service struct {
	deps Deps
}

// NewService crea el servicio admin.
func NewService(deps Deps) Service {
	return &service{deps: deps}
}

func (s *service) ListRoles(ctx context.Context) ([]dto.RoleView, error) {
	roles, err := s.deps.RBAC.ListRoles(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]dto.RoleView, 0, len(roles))
	for _, r := range roles {
		out = append(out, toRoleView(&r))
	}
	return out, nil
}

func (s *service) CreateRole(ctx context.Context, in dto.CreateRoleRequest) (*dto.RoleView, error) {
	in.Name = strings.TrimSpace(in.Name)
	if in.Name == "" {
		return nil, ErrMissingFields
	}
	role, err := s.deps.RBAC.CreateRole(ctx, repository.RoleInput{
		Name:        in.Name,
		Description: in.Description,
		IsDefault:   in.IsDefault,
	})
	if err != nil {
		if repository.IsConflict(err) {
			return nil, ErrNameTaken
		}
		return nil, err
	}
	v := toRoleView(role)
	return &v, nil
}

func (s *service) DeleteRole(ctx context.Context, roleID string) error {
	err := s.deps.RBAC.DeleteRole(ctx, roleID)
	if repository.IsNotFound(err) {
		return ErrNotFound
	}
	return err
}

func (s *service) ListPermissions(ctx context.Context) ([]dto.PermissionView, error) {
	perms, err := s.deps.RBAC.ListPermissions(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]dto.PermissionView, 0, len(perms))
	for _, p := range perms {
		out = append(out, toPermissionView(&p))
	}
	return out, nil
}

func (s *service) CreatePermission(ctx context.Context, in dto.CreatePermissionRequest) (*dto.PermissionView, error) {
	in.Name = strings.TrimSpace(in.Name)
	if in.Name == "" {
		return nil, ErrMissingFields
	}
	perm, err := s.deps.RBAC.CreatePermission(ctx, repository.PermissionInput{
		Name:        in.Name,
		Resource:    in.Resource,
		Action:      in.Action,
		Description: in.Description,
	})
	if err != nil {
		if repository.IsConflict(err) {
			return nil, ErrNameTaken
		}
		return nil, err
	}
	v := toPermissionView(perm)
	return &v, nil
}

func (s *service) AddPermissionToRole(ctx context.Context, roleID, permissionID string) error {
	return s.deps.RBAC.AddPermissionToRole(ctx, roleID, permissionID)
}

func (s *service) RemovePermissionFromRole(ctx context.Context, roleID, permissionID string) error {
	err := s.deps.RBAC.RemovePermissionFromRole(ctx, roleID, permissionID)
	if repository.IsNotFound(err) {
		return ErrNotFound
	}
	return err
}

func (s *service) AssignRole(ctx context.Context, userID, roleID string) error {
	if _, err := s.deps.Users.GetByID(ctx, userID); err != nil {
		if repository.IsNotFound(err) {
			return ErrNotFound
		}
		return err
	}
	return s.deps.RBAC.AssignRole(ctx, userID, roleID)
}

// RemoveRole quita un rol. El cambio recién pega en los access tokens
// nuevos: los vigentes conservan sus claims hasta expirar o refrescar.
func (s *service) RemoveRole(ctx context.Context, userID, roleID string) error {
	err := s.deps.RBAC.RemoveRole(ctx, userID, roleID)
	if repository.IsNotFound(err) {
		return ErrNotFound
	}
	return err
}

func (s *service) GrantPermission(ctx context.Context, userID, permissionID string) error {
	if _, err := s.deps.Users.GetByID(ctx, userID); err != nil {
		if repository.IsNotFound(err) {
			return ErrNotFound
		}
		return err
	}
	return s.deps.RBAC.GrantPermission(ctx, userID, permissionID)
}

func (s *service) RevokePermission(ctx context.Context, userID, permissionID string) error {
	err := s.deps.RBAC.RevokePermission(ctx, userID, permissionID)
	if repository.IsNotFound(err) {
		return ErrNotFound
	}
	return err
}

// SetUserActive habilita o deshabilita la cuenta. Al deshabilitar se
// revocan todas las sesiones: el próximo refresh falla cerrado.
func (s *service) SetUserActive(ctx context.Context, userID string, active bool) error {
	log := logger.From(ctx).With(
		logger.Layer("service"),
		logger.Component("admin"),
		logger.Op("SetUserActive"),
		logger.UserID(userID),
	)

	if err := s.deps.Users.SetActive(ctx, userID, active); err != nil {
		if repository.IsNotFound(err) {
			return ErrNotFound
		}
		return err
	}
	if !active {
		if n, err := s.deps.Authority.RevokeAll(ctx, userID, "", "account_disabled"); err != nil {
			log.Warn("session revocation failed", logger.Err(err))
		} else {
			log.Info("user disabled", logger.Count(n))
		}
	}
	return nil
}

func toRoleView(r *repository.Role) dto.RoleView {
	perms := r.Permissions
	if perms == nil {
		perms = []string{}
	}
	return dto.RoleView{
		ID:          r.ID,
		Name:        r.Name,
		Description: r.Description,
		IsDefault:   r.IsDefault,
		Permissions: perms,
		CreatedAt:   r.CreatedAt,
	}
}

func toPermissionView(p *repository.Permission) dto.PermissionView {
	return dto.PermissionView{
		ID:          p.ID,
		Name:        p.Name,
		Resource:    p.Resource,
		Action:      p.Action,
		Description: p.Description,
		CreatedAt:   p.CreatedAt,
	}
}
