package repository

import (
	"context"
	"time"
)

// Role representa un grupo de permisos con nombre único.
type Role struct {
	ID          string
	Name        string
	Description string
	IsDefault   bool
	Permissions []string // nombres de permisos del rol
	CreatedAt   time.Time
}

// Permission representa una capacidad atómica.
// Name es único global; (Resource, Action) se usa para display/filtrado.
type Permission struct {
	ID          string
	Name        string
	Resource    string
	Action      string
	Description string
	CreatedAt   time.Time
}

// RoleInput representa los datos para crear un rol.
type RoleInput struct {
	Name        string
	Description string
	IsDefault   bool
}

// PermissionInput representa los datos para crear un permiso.
type PermissionInput struct {
	Name        string
	Resource    string
	Action      string
	Description string
}

// RBACRepository define operaciones sobre roles y permisos.
type RBACRepository interface {
	// GetUserRoles retorna los roles asignados a un usuario, con sus permisos.
	GetUserRoles(ctx context.Context, userID string) ([]Role, error)

	// GetUserDirectPermissions retorna los permisos otorgados directamente
	// al usuario (sin pasar por roles).
	GetUserDirectPermissions(ctx context.Context, userID string) ([]string, error)

	// GetDefaultRole retorna el rol marcado como default. Si hay varios,
	// gana el más antiguo por fecha de creación; si no hay ninguno,
	// retorna ErrNotFound.
	GetDefaultRole(ctx context.Context) (*Role, error)

	// AssignRole asigna un rol a un usuario. Idempotente.
	AssignRole(ctx context.Context, userID, roleID string) error

	// RemoveRole quita un rol de un usuario.
	RemoveRole(ctx context.Context, userID, roleID string) error

	// GrantPermission otorga un permiso directo a un usuario. Idempotente.
	GrantPermission(ctx context.Context, userID, permissionID string) error

	// RevokePermission quita un permiso directo de un usuario.
	RevokePermission(ctx context.Context, userID, permissionID string) error

	// ListRoles lista todos los roles.
	ListRoles(ctx context.Context) ([]Role, error)

	// GetRoleByName obtiene un rol por nombre.
	GetRoleByName(ctx context.Context, name string) (*Role, error)

	// CreateRole crea un nuevo rol. Retorna ErrConflict si el nombre existe.
	CreateRole(ctx context.Context, input RoleInput) (*Role, error)

	// DeleteRole elimina un rol y sus asignaciones.
	DeleteRole(ctx context.Context, roleID string) error

	// ListPermissions lista todos los permisos.
	ListPermissions(ctx context.Context) ([]Permission, error)

	// CreatePermission crea un permiso. Retorna ErrConflict si el nombre existe.
	CreatePermission(ctx context.Context, input PermissionInput) (*Permission, error)

	// AddPermissionToRole vincula un permiso a un rol. Idempotente.
	AddPermissionToRole(ctx context.Context, roleID, permissionID string) error

	// RemovePermissionFromRole desvincula un permiso de un rol.
	RemovePermissionFromRole(ctx context.Context, roleID, permissionID string) error
}
