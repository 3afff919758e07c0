package authz

import (
	"context"
	"fmt"
)

// Definition declares a permission that should exist in the catalog.
type Definition struct {
	Module      string
	Action      string
	DisplayName string
}

// Key returns the definition's natural key.
func (d Definition) Key() PermissionKey {
	return PermissionKey{Module: d.Module, Action: d.Action}
}

// DefaultDefinitions lists the permissions the dashboard ships with.
func DefaultDefinitions() []Definition {
	defs := make([]Definition, 0, 24)
	for _, m := range []struct{ module, label string }{
		{ModuleCampaigns, "Campaigns"},
		{ModuleBrands, "Brands"},
		{ModuleCards, "Cards"},
		{ModuleReports, "Reports"},
	} {
		defs = append(defs,
			Definition{m.module, ActionCreate, "Create " + m.label},
			Definition{m.module, ActionRead, "View " + m.label},
			Definition{m.module, ActionUpdate, "Edit " + m.label},
			Definition{m.module, ActionDelete, "Delete " + m.label},
		)
	}
	defs = append(defs,
		Definition{ModuleReports, ActionExport, "Export Reports"},
		Definition{ModuleUsers, ActionRead, "View Users"},
		Definition{ModuleRoles, ActionRead, "View Roles"},
		Definition{ModuleRoles, ActionUpdate, "Manage Role Grants"},
	)
	return defs
}

// Provisioner exposes the only sanctioned entry points for seeding the
// catalog and grants. Both operations are idempotent by construction and are
// safe to re-run any number of times, including concurrently with live
// traffic.
type Provisioner struct {
	catalog CatalogStore
	grants  GrantStore
}

// NewProvisioner constructs a Provisioner.
func NewProvisioner(catalog CatalogStore, grants GrantStore) *Provisioner {
	return &Provisioner{catalog: catalog, grants: grants}
}

// EnsureCatalog registers every definition. Running twice with the same input
// yields an identical catalog: no duplicates, no errors, no active-state
// changes.
func (p *Provisioner) EnsureCatalog(ctx context.Context, defs []Definition) error {
	for _, def := range defs {
		if _, err := p.catalog.RegisterPermission(ctx, def.Module, def.Action, def.DisplayName); err != nil {
			return fmt.Errorf("authz: ensure catalog: %w", err)
		}
	}
	return nil
}

// EnsureGrants resolves each key and grants it to the role. Unregistered keys
// are a provisioning defect and fail fast; duplicate grants are no-ops.
func (p *Provisioner) EnsureGrants(ctx context.Context, roleID int64, keys []PermissionKey) error {
	for _, key := range keys {
		perm, err := p.catalog.LookupPermission(ctx, key.Module, key.Action)
		if err != nil {
			return fmt.Errorf("authz: ensure grants: resolve %s.%s: %w", key.Module, key.Action, err)
		}
		if err := p.grants.Grant(ctx, roleID, perm.ID); err != nil {
			return fmt.Errorf("authz: ensure grants: %w", err)
		}
	}
	return nil
}
