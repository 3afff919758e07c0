package authz

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/advista/advista/internal/shared"
)

// RoleStore persists roles. Roles are seeded at bootstrap and read-mostly.
type RoleStore interface {
	EnsureRole(ctx context.Context, name string, level int) (Role, error)
	GetRoleByName(ctx context.Context, name string) (Role, error)
	ListRoles(ctx context.Context) ([]Role, error)
}

// Repository provides PostgreSQL backed persistence for the permission
// catalog, role grants and roles. Every mutation is a single-row idempotent
// upsert or delete; every read reflects the latest committed state.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

var (
	_ CatalogStore = (*Repository)(nil)
	_ GrantStore   = (*Repository)(nil)
	_ RoleStore    = (*Repository)(nil)
)

// RegisterPermission upserts a permission definition. Re-registering an
// existing (module, action) pair refreshes display metadata only; it never
// duplicates the row and never touches is_active.
func (r *Repository) RegisterPermission(ctx context.Context, module, action, displayName string) (Permission, error) {
	module = strings.TrimSpace(module)
	action = strings.TrimSpace(action)
	if module == "" || action == "" {
		return Permission{}, errors.New("authz: permission module and action required")
	}
	var p Permission
	err := r.pool.QueryRow(ctx, `
		INSERT INTO permissions (module, action, display_name, is_active)
		VALUES ($1, $2, $3, TRUE)
		ON CONFLICT (module, action) DO UPDATE SET display_name = EXCLUDED.display_name
		RETURNING id, module, action, display_name, is_active`,
		module, action, strings.TrimSpace(displayName)).
		Scan(&p.ID, &p.Module, &p.Action, &p.DisplayName, &p.IsActive)
	if err != nil {
		return Permission{}, fmt.Errorf("authz: register permission %s.%s: %w", module, action, err)
	}
	return p, nil
}

// LookupPermission fetches a permission by its natural key.
func (r *Repository) LookupPermission(ctx context.Context, module, action string) (Permission, error) {
	var p Permission
	err := r.pool.QueryRow(ctx, `
		SELECT id, module, action, display_name, is_active
		FROM permissions
		WHERE module = $1 AND action = $2`,
		module, action).
		Scan(&p.ID, &p.Module, &p.Action, &p.DisplayName, &p.IsActive)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Permission{}, shared.ErrNotFound
		}
		return Permission{}, fmt.Errorf("authz: lookup permission %s.%s: %w", module, action, err)
	}
	return p, nil
}

// ListActivePermissions returns active permissions, optionally filtered by module.
func (r *Repository) ListActivePermissions(ctx context.Context, moduleFilter string) ([]Permission, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, module, action, display_name, is_active
		FROM permissions
		WHERE is_active AND ($1 = '' OR module = $1)
		ORDER BY module, action`,
		moduleFilter)
	if err != nil {
		return nil, fmt.Errorf("authz: list permissions: %w", err)
	}
	defer rows.Close()
	return scanPermissions(rows)
}

// SetPermissionActive toggles a permission's active flag. Grant rows that
// reference it are preserved so reactivation restores prior grants.
func (r *Repository) SetPermissionActive(ctx context.Context, module, action string, active bool) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE permissions SET is_active = $3 WHERE module = $1 AND action = $2`,
		module, action, active)
	if err != nil {
		return fmt.Errorf("authz: set permission active %s.%s: %w", module, action, err)
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// Grant idempotently attaches a permission to a role. Re-granting an existing
// pair is a no-op, not an error.
func (r *Repository) Grant(ctx context.Context, roleID, permissionID int64) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO role_permissions (role_id, permission_id)
		VALUES ($1, $2)
		ON CONFLICT (role_id, permission_id) DO NOTHING`,
		roleID, permissionID)
	if err != nil {
		return fmt.Errorf("authz: grant role=%d permission=%d: %w", roleID, permissionID, err)
	}
	return nil
}

// Revoke idempotently detaches a permission from a role. An absent pair is
// not an error.
func (r *Repository) Revoke(ctx context.Context, roleID, permissionID int64) error {
	_, err := r.pool.Exec(ctx, `
		DELETE FROM role_permissions WHERE role_id = $1 AND permission_id = $2`,
		roleID, permissionID)
	if err != nil {
		return fmt.Errorf("authz: revoke role=%d permission=%d: %w", roleID, permissionID, err)
	}
	return nil
}

// HasGrant reports whether the pair exists and the permission is active.
// Inactive permissions are treated as absent even when a grant row exists.
func (r *Repository) HasGrant(ctx context.Context, roleID, permissionID int64) (bool, error) {
	var ok bool
	err := r.pool.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1
			FROM role_permissions rp
			JOIN permissions p ON p.id = rp.permission_id
			WHERE rp.role_id = $1 AND rp.permission_id = $2 AND p.is_active
		)`,
		roleID, permissionID).Scan(&ok)
	if err != nil {
		return false, fmt.Errorf("authz: has grant role=%d permission=%d: %w", roleID, permissionID, err)
	}
	return ok, nil
}

// ListGrants returns the active permissions granted to a role.
func (r *Repository) ListGrants(ctx context.Context, roleID int64) ([]Permission, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT p.id, p.module, p.action, p.display_name, p.is_active
		FROM role_permissions rp
		JOIN permissions p ON p.id = rp.permission_id
		WHERE rp.role_id = $1 AND p.is_active
		ORDER BY p.module, p.action`,
		roleID)
	if err != nil {
		return nil, fmt.Errorf("authz: list grants role=%d: %w", roleID, err)
	}
	defer rows.Close()
	return scanPermissions(rows)
}

// EnsureRole upserts a role by name.
func (r *Repository) EnsureRole(ctx context.Context, name string, level int) (Role, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return Role{}, errors.New("authz: role name required")
	}
	var role Role
	err := r.pool.QueryRow(ctx, `
		INSERT INTO roles (name, level, is_active)
		VALUES ($1, $2, TRUE)
		ON CONFLICT (name) DO UPDATE SET level = EXCLUDED.level
		RETURNING id, name, level, is_active`,
		name, level).
		Scan(&role.ID, &role.Name, &role.Level, &role.IsActive)
	if err != nil {
		return Role{}, fmt.Errorf("authz: ensure role %s: %w", name, err)
	}
	return role, nil
}

// GetRoleByName fetches a role by its unique name.
func (r *Repository) GetRoleByName(ctx context.Context, name string) (Role, error) {
	var role Role
	err := r.pool.QueryRow(ctx, `
		SELECT id, name, level, is_active FROM roles WHERE name = $1`,
		name).
		Scan(&role.ID, &role.Name, &role.Level, &role.IsActive)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Role{}, shared.ErrNotFound
		}
		return Role{}, fmt.Errorf("authz: get role %s: %w", name, err)
	}
	return role, nil
}

// ListRoles returns all roles ordered by level, most privileged first.
func (r *Repository) ListRoles(ctx context.Context) ([]Role, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, name, level, is_active FROM roles ORDER BY level DESC, name`)
	if err != nil {
		return nil, fmt.Errorf("authz: list roles: %w", err)
	}
	defer rows.Close()
	var roles []Role
	for rows.Next() {
		var role Role
		if err := rows.Scan(&role.ID, &role.Name, &role.Level, &role.IsActive); err != nil {
			return nil, err
		}
		roles = append(roles, role)
	}
	return roles, rows.Err()
}

func scanPermissions(rows pgx.Rows) ([]Permission, error) {
	var perms []Permission
	for rows.Next() {
		var p Permission
		if err := rows.Scan(&p.ID, &p.Module, &p.Action, &p.DisplayName, &p.IsActive); err != nil {
			return nil, err
		}
		perms = append(perms, p)
	}
	return perms, rows.Err()
}
