package authz

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnsureCatalogIdempotent(t *testing.T) {
	store := newMemStore()
	prov := NewProvisioner(store, store)
	ctx := context.Background()
	defs := DefaultDefinitions()

	require.NoError(t, prov.EnsureCatalog(ctx, defs))
	first, err := store.ListActivePermissions(ctx, "")
	require.NoError(t, err)

	require.NoError(t, prov.EnsureCatalog(ctx, defs))
	second, err := store.ListActivePermissions(ctx, "")
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Len(t, second, len(defs))
}

func TestEnsureCatalogRefreshesDisplayName(t *testing.T) {
	store := newMemStore()
	prov := NewProvisioner(store, store)
	ctx := context.Background()

	require.NoError(t, prov.EnsureCatalog(ctx, []Definition{{ModuleCampaigns, ActionRead, "View"}}))
	require.NoError(t, prov.EnsureCatalog(ctx, []Definition{{ModuleCampaigns, ActionRead, "View Campaigns"}}))

	perm, err := store.LookupPermission(ctx, ModuleCampaigns, ActionRead)
	require.NoError(t, err)
	assert.Equal(t, "View Campaigns", perm.DisplayName)
}

func TestEnsureCatalogPreservesActiveState(t *testing.T) {
	store := newMemStore()
	prov := NewProvisioner(store, store)
	ctx := context.Background()
	defs := []Definition{{ModuleCampaigns, ActionRead, "View Campaigns"}}

	require.NoError(t, prov.EnsureCatalog(ctx, defs))
	require.NoError(t, store.SetPermissionActive(ctx, ModuleCampaigns, ActionRead, false))

	// A provisioning re-run must not resurrect a soft-disabled capability.
	require.NoError(t, prov.EnsureCatalog(ctx, defs))
	perm, err := store.LookupPermission(ctx, ModuleCampaigns, ActionRead)
	require.NoError(t, err)
	assert.False(t, perm.IsActive)
}

func TestEnsureGrantsIdempotent(t *testing.T) {
	store := newMemStore()
	prov := NewProvisioner(store, store)
	ctx := context.Background()

	role, err := store.EnsureRole(ctx, "advertiser", 1)
	require.NoError(t, err)
	require.NoError(t, prov.EnsureCatalog(ctx, DefaultDefinitions()))

	keys := []PermissionKey{
		{ModuleCampaigns, ActionCreate},
		{ModuleCampaigns, ActionRead},
	}
	require.NoError(t, prov.EnsureGrants(ctx, role.ID, keys))
	first, err := store.ListGrants(ctx, role.ID)
	require.NoError(t, err)

	require.NoError(t, prov.EnsureGrants(ctx, role.ID, keys))
	second, err := store.ListGrants(ctx, role.ID)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Len(t, second, 2)
}

func TestEnsureGrantsUnknownKeyFails(t *testing.T) {
	store := newMemStore()
	prov := NewProvisioner(store, store)
	ctx := context.Background()

	role, err := store.EnsureRole(ctx, "advertiser", 1)
	require.NoError(t, err)

	err = prov.EnsureGrants(ctx, role.ID, []PermissionKey{{ModuleCards, ActionExport}})
	assert.Error(t, err)
}

func TestGrantRevokeRoundTrip(t *testing.T) {
	store := newMemStore()
	ctx := context.Background()

	role, err := store.EnsureRole(ctx, "advertiser", 1)
	require.NoError(t, err)
	perm, err := store.RegisterPermission(ctx, ModuleCampaigns, ActionUpdate, "Edit Campaigns")
	require.NoError(t, err)

	before, err := store.ListGrants(ctx, role.ID)
	require.NoError(t, err)

	require.NoError(t, store.Grant(ctx, role.ID, perm.ID))
	require.NoError(t, store.Grant(ctx, role.ID, perm.ID)) // duplicate grant is a no-op
	require.NoError(t, store.Revoke(ctx, role.ID, perm.ID))
	require.NoError(t, store.Revoke(ctx, role.ID, perm.ID)) // duplicate revoke is a no-op

	after, err := store.ListGrants(ctx, role.ID)
	require.NoError(t, err)
	assert.Equal(t, before, after)
}
