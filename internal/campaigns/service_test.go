package campaigns

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/advista/advista/internal/authz"
	"github.com/advista/advista/internal/shared"
)

// fakeAuthzStore is a minimal in-memory catalog + grant store for wiring a
// real engine in service tests.
type fakeAuthzStore struct {
	perms  map[authz.PermissionKey]authz.Permission
	grants map[[2]int64]struct{}
	nextID int64
}

func newFakeAuthzStore() *fakeAuthzStore {
	return &fakeAuthzStore{
		perms:  make(map[authz.PermissionKey]authz.Permission),
		grants: make(map[[2]int64]struct{}),
		nextID: 1,
	}
}

func (f *fakeAuthzStore) RegisterPermission(_ context.Context, module, action, displayName string) (authz.Permission, error) {
	key := authz.PermissionKey{Module: module, Action: action}
	if p, ok := f.perms[key]; ok {
		p.DisplayName = displayName
		f.perms[key] = p
		return p, nil
	}
	p := authz.Permission{ID: f.nextID, Module: module, Action: action, DisplayName: displayName, IsActive: true}
	f.nextID++
	f.perms[key] = p
	return p, nil
}

func (f *fakeAuthzStore) LookupPermission(_ context.Context, module, action string) (authz.Permission, error) {
	p, ok := f.perms[authz.PermissionKey{Module: module, Action: action}]
	if !ok {
		return authz.Permission{}, shared.ErrNotFound
	}
	return p, nil
}

func (f *fakeAuthzStore) ListActivePermissions(_ context.Context, _ string) ([]authz.Permission, error) {
	return nil, nil
}

func (f *fakeAuthzStore) SetPermissionActive(_ context.Context, module, action string, active bool) error {
	key := authz.PermissionKey{Module: module, Action: action}
	p, ok := f.perms[key]
	if !ok {
		return shared.ErrNotFound
	}
	p.IsActive = active
	f.perms[key] = p
	return nil
}

func (f *fakeAuthzStore) Grant(_ context.Context, roleID, permissionID int64) error {
	f.grants[[2]int64{roleID, permissionID}] = struct{}{}
	return nil
}

func (f *fakeAuthzStore) Revoke(_ context.Context, roleID, permissionID int64) error {
	delete(f.grants, [2]int64{roleID, permissionID})
	return nil
}

func (f *fakeAuthzStore) HasGrant(_ context.Context, roleID, permissionID int64) (bool, error) {
	_, ok := f.grants[[2]int64{roleID, permissionID}]
	return ok, nil
}

func (f *fakeAuthzStore) ListGrants(_ context.Context, _ int64) ([]authz.Permission, error) {
	return nil, nil
}

// mockRepository stores campaigns in memory and honours the scope predicate
// the way the SQL repository does.
type mockRepository struct {
	campaigns map[int64]*Campaign
	nextID    int64
}

func newMockRepository() *mockRepository {
	return &mockRepository{campaigns: make(map[int64]*Campaign), nextID: 1}
}

func (m *mockRepository) ListCampaigns(_ context.Context, scope authz.Predicate, limit, offset int) ([]Campaign, int, error) {
	var visible []Campaign
	for id := int64(1); id < m.nextID; id++ {
		c, ok := m.campaigns[id]
		if !ok || !scope.Match(c.OwnerID) {
			continue
		}
		visible = append(visible, *c)
	}
	total := len(visible)
	if offset > len(visible) {
		offset = len(visible)
	}
	visible = visible[offset:]
	if limit < len(visible) {
		visible = visible[:limit]
	}
	return visible, total, nil
}

func (m *mockRepository) GetCampaign(_ context.Context, id int64) (*Campaign, error) {
	c, ok := m.campaigns[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	copied := *c
	return &copied, nil
}

func (m *mockRepository) CreateCampaign(_ context.Context, c Campaign) (*Campaign, error) {
	c.ID = m.nextID
	c.CreatedAt = time.Now()
	c.UpdatedAt = c.CreatedAt
	m.nextID++
	m.campaigns[c.ID] = &c
	copied := c
	return &copied, nil
}

func (m *mockRepository) UpdateCampaign(_ context.Context, c Campaign) error {
	stored, ok := m.campaigns[c.ID]
	if !ok {
		return shared.ErrNotFound
	}
	c.OwnerID = stored.OwnerID
	c.UpdatedAt = time.Now()
	m.campaigns[c.ID] = &c
	return nil
}

func (m *mockRepository) DeleteCampaign(_ context.Context, id int64) error {
	if _, ok := m.campaigns[id]; !ok {
		return shared.ErrNotFound
	}
	delete(m.campaigns, id)
	return nil
}

const advertiserRoleID = int64(2)

func newTestService(t *testing.T) (*Service, *mockRepository, *fakeAuthzStore) {
	t.Helper()
	store := newFakeAuthzStore()
	require.NoError(t, authz.NewProvisioner(store, store).EnsureCatalog(context.Background(), authz.DefaultDefinitions()))
	repo := newMockRepository()
	return NewService(repo, authz.NewEngine(store, store)), repo, store
}

func grantTo(t *testing.T, store *fakeAuthzStore, roleID int64, module, action string) {
	t.Helper()
	perm, err := store.LookupPermission(context.Background(), module, action)
	require.NoError(t, err)
	require.NoError(t, store.Grant(context.Background(), roleID, perm.ID))
}

func advertiser(userID int64) authz.Subject {
	return authz.Subject{UserID: userID, RoleID: advertiserRoleID, RoleName: "advertiser", RoleLevel: 1}
}

func TestAdvertiserGrantAndOwnershipFlow(t *testing.T) {
	service, _, store := newTestService(t)
	ctx := context.Background()

	// Advertiser starts with create+read only.
	grantTo(t, store, advertiserRoleID, authz.ModuleCampaigns, authz.ActionCreate)
	grantTo(t, store, advertiserRoleID, authz.ModuleCampaigns, authz.ActionRead)

	u1 := advertiser(101)
	u2 := advertiser(102)

	created, err := service.Create(ctx, u1, CampaignInput{BrandID: 1, Name: "Spring Launch", BudgetCents: 50_000})
	require.NoError(t, err)
	assert.Equal(t, u1.UserID, created.OwnerID)
	assert.Equal(t, StatusDraft, created.Status)

	// Update denied: no campaigns.update grant yet.
	_, err = service.Update(ctx, u1, created.ID, CampaignInput{BrandID: 1, Name: "Spring Launch v2"})
	var denied *authz.DeniedError
	require.ErrorAs(t, err, &denied)
	assert.Equal(t, authz.ReasonMissingGrant, denied.Reason)

	// Grant update to the role; the owner may now update.
	grantTo(t, store, advertiserRoleID, authz.ModuleCampaigns, authz.ActionUpdate)
	updated, err := service.Update(ctx, u1, created.ID, CampaignInput{BrandID: 1, Name: "Spring Launch v2"})
	require.NoError(t, err)
	assert.Equal(t, "Spring Launch v2", updated.Name)

	// Same role, different user: module grant passes, ownership fails.
	_, err = service.Update(ctx, u2, created.ID, CampaignInput{BrandID: 1, Name: "Hijack"})
	require.ErrorAs(t, err, &denied)
	assert.Equal(t, authz.ReasonNotOwner, denied.Reason)
	assert.ErrorIs(t, err, shared.ErrForbidden)
}

func TestListScopesToOwner(t *testing.T) {
	service, _, store := newTestService(t)
	ctx := context.Background()
	grantTo(t, store, advertiserRoleID, authz.ModuleCampaigns, authz.ActionCreate)
	grantTo(t, store, advertiserRoleID, authz.ModuleCampaigns, authz.ActionRead)

	u1 := advertiser(101)
	u2 := advertiser(102)
	admin := authz.Subject{UserID: 1, RoleID: 1, RoleName: "admin", RoleLevel: 9}

	for _, name := range []string{"A", "B"} {
		_, err := service.Create(ctx, u1, CampaignInput{BrandID: 1, Name: name})
		require.NoError(t, err)
	}
	_, err := service.Create(ctx, u2, CampaignInput{BrandID: 1, Name: "C"})
	require.NoError(t, err)

	mine, pagination, err := service.List(ctx, u1, 1, 10)
	require.NoError(t, err)
	assert.Len(t, mine, 2)
	assert.Equal(t, 2, pagination.Total)
	for _, c := range mine {
		assert.Equal(t, u1.UserID, c.OwnerID)
	}

	// A subject who owns nothing gets an empty list, never everything.
	u3 := advertiser(103)
	none, pagination, err := service.List(ctx, u3, 1, 10)
	require.NoError(t, err)
	assert.Empty(t, none)
	assert.Equal(t, 0, pagination.Total)

	// Privileged subjects see the full set without any grant.
	all, pagination, err := service.List(ctx, admin, 1, 10)
	require.NoError(t, err)
	assert.Len(t, all, 3)
	assert.Equal(t, 3, pagination.Total)
}

func TestGetOutsideScopeIsNotFound(t *testing.T) {
	service, _, store := newTestService(t)
	ctx := context.Background()
	grantTo(t, store, advertiserRoleID, authz.ModuleCampaigns, authz.ActionCreate)
	grantTo(t, store, advertiserRoleID, authz.ModuleCampaigns, authz.ActionRead)

	u1 := advertiser(101)
	u2 := advertiser(102)

	created, err := service.Create(ctx, u1, CampaignInput{BrandID: 1, Name: "Private"})
	require.NoError(t, err)

	_, err = service.Get(ctx, u2, created.ID)
	assert.ErrorIs(t, err, shared.ErrNotFound)

	got, err := service.Get(ctx, u1, created.ID)
	require.NoError(t, err)
	assert.Equal(t, created.ID, got.ID)
}

func TestAdminBypassesOwnership(t *testing.T) {
	service, repo, store := newTestService(t)
	ctx := context.Background()
	grantTo(t, store, advertiserRoleID, authz.ModuleCampaigns, authz.ActionCreate)

	u1 := advertiser(101)
	admin := authz.Subject{UserID: 1, RoleID: 1, RoleName: "admin", RoleLevel: 9}

	created, err := service.Create(ctx, u1, CampaignInput{BrandID: 1, Name: "Doomed"})
	require.NoError(t, err)

	// No delete grant exists for the admin role; the bypass covers both the
	// module check and the ownership guard.
	require.NoError(t, service.Delete(ctx, admin, created.ID))

	_, err = repo.GetCampaign(ctx, created.ID)
	assert.ErrorIs(t, err, shared.ErrNotFound)
}

func TestUnregisteredModuleActionIsConfigurationError(t *testing.T) {
	store := newFakeAuthzStore()
	repo := newMockRepository()
	service := NewService(repo, authz.NewEngine(store, store))

	_, _, err := service.List(context.Background(), advertiser(101), 1, 10)
	var denied *authz.DeniedError
	require.ErrorAs(t, err, &denied)
	assert.Equal(t, authz.ReasonConfigurationError, denied.Reason)
	assert.True(t, errors.Is(err, shared.ErrForbidden))
}
