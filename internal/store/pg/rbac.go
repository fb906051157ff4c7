// store/pg/rbac.go — Implementación PostgreSQL de RBACRepository.
package pg

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dropDatabas3/authgate/internal/domain/repository"
)

type rbacRepo struct {
	pool *pgxpool.Pool
}

func newRBACRepo(pool *pgxpool.Pool) *rbacRepo {
	return &rbacRepo{pool: pool}
}

func (r *rbacRepo) GetUserRoles(ctx context.Context, userID string) ([]repository.Role, error) {
	// array_remove limpia el NULL que deja el LEFT JOIN en roles sin permisos.
	const query = `
		SELECT ro.id, ro.name, ro.description, ro.is_default, ro.created_at,
			array_remove(array_agg(p.name ORDER BY p.name), NULL)
		FROM role ro
		JOIN user_role ur ON ur.role_id = ro.id
		LEFT JOIN role_permission rp ON rp.role_id = ro.id
		LEFT JOIN permission p ON p.id = rp.permission_id
		WHERE ur.user_id = $1
		GROUP BY ro.id
		ORDER BY ro.created_at
	`
	rows, err := r.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectRoles(rows)
}

func (r *rbacRepo) GetUserDirectPermissions(ctx context.Context, userID string) ([]string, error) {
	const query = `
		SELECT p.name
		FROM permission p
		JOIN user_permission up ON up.permission_id = p.id
		WHERE up.user_id = $1
		ORDER BY p.name
	`
	rows, err := r.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		names = append(names, name)
	}
	return names, rows.Err()
}

func (r *rbacRepo) GetDefaultRole(ctx context.Context) (*repository.Role, error) {
	// Si hay varios default gana el más antiguo.
	const query = `
		SELECT ro.id, ro.name, ro.description, ro.is_default, ro.created_at,
			array_remove(array_agg(p.name ORDER BY p.name), NULL)
		FROM role ro
		LEFT JOIN role_permission rp ON rp.role_id = ro.id
		LEFT JOIN permission p ON p.id = rp.permission_id
		WHERE ro.is_default
		GROUP BY ro.id
		ORDER BY ro.created_at
		LIMIT 1
	`
	return scanRole(r.pool.QueryRow(ctx, query))
}

func (r *rbacRepo) AssignRole(ctx context.Context, userID, roleID string) error {
	const query = `
		INSERT INTO user_role (user_id, role_id) VALUES ($1, $2)
		ON CONFLICT DO NOTHING
	`
	_, err := r.pool.Exec(ctx, query, userID, roleID)
	return err
}

func (r *rbacRepo) RemoveRole(ctx context.Context, userID, roleID string) error {
	const query = `DELETE FROM user_role WHERE user_id = $1 AND role_id = $2`
	tag, err := r.pool.Exec(ctx, query, userID, roleID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *rbacRepo) GrantPermission(ctx context.Context, userID, permissionID string) error {
	const query = `
		INSERT INTO user_permission (user_id, permission_id) VALUES ($1, $2)
		ON CONFLICT DO NOTHING
	`
	_, err := r.pool.Exec(ctx, query, userID, permissionID)
	return err
}

func (r *rbacRepo) RevokePermission(ctx context.Context, userID, permissionID string) error {
	const query = `DELETE FROM user_permission WHERE user_id = $1 AND permission_id = $2`
	tag, err := r.pool.Exec(ctx, query, userID, permissionID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *rbacRepo) ListRoles(ctx context.Context) ([]repository.Role, error) {
	const query = `
		SELECT ro.id, ro.name, ro.description, ro.is_default, ro.created_at,
			array_remove(array_agg(p.name ORDER BY p.name), NULL)
		FROM role ro
		LEFT JOIN role_permission rp ON rp.role_id = ro.id
		LEFT JOIN permission p ON p.id = rp.permission_id
		GROUP BY ro.id
		ORDER BY ro.created_at
	`
	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectRoles(rows)
}

func (r *rbacRepo) GetRoleByName(ctx context.Context, name string) (*repository.Role, error) {
	const query = `
		SELECT ro.id, ro.name, ro.description, ro.is_default, ro.created_at,
			array_remove(array_agg(p.name ORDER BY p.name), NULL)
		FROM role ro
		LEFT JOIN role_permission rp ON rp.role_id = ro.id
		LEFT JOIN permission p ON p.id = rp.permission_id
		WHERE ro.name = $1
		GROUP BY ro.id
	`
	return scanRole(r.pool.QueryRow(ctx, query, name))
}

func (r *rbacRepo) CreateRole(ctx context.Context, input repository.RoleInput) (*repository.Role, error) {
	id := uuid.NewString()
	now := time.Now().UTC()
	const query = `
		INSERT INTO role (id, name, description, is_default, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`
	_, err := r.pool.Exec(ctx, query, id, input.Name, input.Description, input.IsDefault, now)
	if err != nil {
		return nil, mapConflict(err)
	}
	return &repository.Role{
		ID:          id,
		Name:        input.Name,
		Description: input.Description,
		IsDefault:   input.IsDefault,
		CreatedAt:   now,
	}, nil
}

func (r *rbacRepo) DeleteRole(ctx context.Context, roleID string) error {
	// user_role y role_permission caen por cascada.
	const query = `DELETE FROM role WHERE id = $1`
	tag, err := r.pool.Exec(ctx, query, roleID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *rbacRepo) ListPermissions(ctx context.Context) ([]repository.Permission, error) {
	const query = `
		SELECT id, name, resource, action, description, created_at
		FROM permission ORDER BY name
	`
	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var perms []repository.Permission
	for rows.Next() {
		var p repository.Permission
		if err := rows.Scan(&p.ID, &p.Name, &p.Resource, &p.Action, &p.Description, &p.CreatedAt); err != nil {
			return nil, err
		}
		perms = append(perms, p)
	}
	return perms, rows.Err()
}

func (r *rbacRepo) CreatePermission(ctx context.Context, input repository.PermissionInput) (*repository.Permission, error) {
	id := uuid.NewString()
	now := time.Now().UTC()
	const query = `
		INSERT INTO permission (id, name, resource, action, description, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	_, err := r.pool.Exec(ctx, query, id, input.Name, input.Resource, input.Action, input.Description, now)
	if err != nil {
		return nil, mapConflict(err)
	}
	return &repository.Permission{
		ID:          id,
		Name:        input.Name,
		Resource:    input.Resource,
		Action:      input.Action,
		Description: input.Description,
		CreatedAt:   now,
	}, nil
}

func (r *rbacRepo) AddPermissionToRole(ctx context.Context, roleID, permissionID string) error {
	const query = `
		INSERT INTO role_permission (role_id, permission_id) VALUES ($1, $2)
		ON CONFLICT DO NOTHING
	`
	_, err := r.pool.Exec(ctx, query, roleID, permissionID)
	return err
}

func (r *rbacRepo) RemovePermissionFromRole(ctx context.Context, roleID, permissionID string) error {
	const query = `DELETE FROM role_permission WHERE role_id = $1 AND permission_id = $2`
	tag, err := r.pool.Exec(ctx, query, roleID, permissionID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func scanRole(row pgx.Row) (*repository.Role, error) {
	var ro repository.Role
	err := row.Scan(&ro.ID, &ro.Name, &ro.Description, &ro.IsDefault, &ro.CreatedAt, &ro.Permissions)
	if err == pgx.ErrNoRows {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &ro, nil
}

func collectRoles(rows pgx.Rows) ([]repository.Role, error) {
	var roles []repository.Role
	for rows.Next() {
		var ro repository.Role
		if err := rows.Scan(&ro.ID, &ro.Name, &ro.Description, &ro.IsDefault, &ro.CreatedAt, &ro.Permissions); err != nil {
			return nil, err
		}
		roles = append(roles, ro)
	}
	return roles, rows.Err()
}
