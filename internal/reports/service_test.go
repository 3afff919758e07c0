package reports

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/advista/advista/internal/authz"
	"github.com/advista/advista/internal/shared"
)

type memStore struct {
	mu     sync.Mutex
	perms  map[authz.PermissionKey]authz.Permission
	grants map[int64]map[int64]bool
}

func newMemStore() *memStore {
	return &memStore{
		perms:  make(map[authz.PermissionKey]authz.Permission),
		grants: make(map[int64]map[int64]bool),
	}
}

func (s *memStore) RegisterPermission(_ context.Context, module, action, displayName string) (authz.Permission, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := authz.PermissionKey{Module: module, Action: action}
	if p, ok := s.perms[key]; ok {
		return p, nil
	}
	p := authz.Permission{ID: int64(len(s.perms) + 1), Module: module, Action: action, DisplayName: displayName, IsActive: true}
	s.perms[key] = p
	return p, nil
}

func (s *memStore) LookupPermission(_ context.Context, module, action string) (authz.Permission, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.perms[authz.PermissionKey{Module: module, Action: action}]
	if !ok {
		return authz.Permission{}, shared.ErrNotFound
	}
	return p, nil
}

func (s *memStore) ListActivePermissions(context.Context, string) ([]authz.Permission, error) {
	return nil, nil
}

func (s *memStore) SetPermissionActive(context.Context, string, string, bool) error { return nil }

func (s *memStore) Grant(_ context.Context, roleID, permissionID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.grants[roleID] == nil {
		s.grants[roleID] = make(map[int64]bool)
	}
	s.grants[roleID][permissionID] = true
	return nil
}

func (s *memStore) Revoke(_ context.Context, roleID, permissionID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.grants[roleID], permissionID)
	return nil
}

func (s *memStore) HasGrant(_ context.Context, roleID, permissionID int64) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.grants[roleID][permissionID], nil
}

func (s *memStore) ListGrants(context.Context, int64) ([]authz.Permission, error) { return nil, nil }

type fakeRepo struct {
	snapshots    []Snapshot
	owners       map[int64]int64
	summarizeCnt atomic.Int64
}

func (r *fakeRepo) ListSnapshots(_ context.Context, scope authz.Predicate, limit, offset int) ([]Snapshot, int, error) {
	var visible []Snapshot
	for _, s := range r.snapshots {
		if scope.Match(s.OwnerID) {
			visible = append(visible, s)
		}
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

func (r *fakeRepo) GetSnapshot(_ context.Context, id int64) (*Snapshot, error) {
	for _, s := range r.snapshots {
		if s.ID == id {
			copied := s
			return &copied, nil
		}
	}
	return nil, shared.ErrNotFound
}

func (r *fakeRepo) Summarize(_ context.Context, scope authz.Predicate) (*Summary, error) {
	r.summarizeCnt.Add(1)
	var out Summary
	campaigns := make(map[int64]struct{})
	for _, s := range r.snapshots {
		if !scope.Match(s.OwnerID) {
			continue
		}
		campaigns[s.CampaignID] = struct{}{}
		out.Impressions += s.Impressions
		out.Clicks += s.Clicks
		out.SpendCents += s.SpendCents
	}
	out.Campaigns = int64(len(campaigns))
	if out.Impressions > 0 {
		out.CTR = float64(out.Clicks) / float64(out.Impressions)
	}
	return &out, nil
}

func (r *fakeRepo) CampaignOwner(_ context.Context, campaignID int64) (int64, error) {
	owner, ok := r.owners[campaignID]
	if !ok {
		return 0, shared.ErrNotFound
	}
	return owner, nil
}

type recordingEnqueuer struct {
	mu    sync.Mutex
	tasks []string
}

func (e *recordingEnqueuer) EnqueueReportSnapshot(_ context.Context, campaignID int64, period string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.tasks = append(e.tasks, period)
	return nil
}

const analystRoleID = int64(4)

func analyst(userID int64) authz.Subject {
	return authz.Subject{UserID: userID, RoleID: analystRoleID, RoleName: "analyst", RoleLevel: 3}
}

func setupReports(t *testing.T, actions ...string) (*Service, *fakeRepo, *recordingEnqueuer) {
	t.Helper()
	store := newMemStore()
	ctx := context.Background()
	require.NoError(t, authz.NewProvisioner(store, store).EnsureCatalog(ctx, authz.DefaultDefinitions()))
	keys := make([]authz.PermissionKey, 0, len(actions))
	for _, a := range actions {
		keys = append(keys, authz.PermissionKey{Module: authz.ModuleReports, Action: a})
	}
	require.NoError(t, authz.NewProvisioner(store, store).EnsureGrants(ctx, analystRoleID, keys))

	repo := &fakeRepo{
		snapshots: []Snapshot{
			{ID: 1, OwnerID: 10, CampaignID: 1, Period: "2026-07", Impressions: 1000, Clicks: 50, SpendCents: 20_000, BuiltAt: time.Now()},
			{ID: 2, OwnerID: 10, CampaignID: 2, Period: "2026-07", Impressions: 500, Clicks: 10, SpendCents: 5_000, BuiltAt: time.Now()},
			{ID: 3, OwnerID: 20, CampaignID: 3, Period: "2026-07", Impressions: 9000, Clicks: 900, SpendCents: 90_000, BuiltAt: time.Now()},
		},
		owners: map[int64]int64{1: 10, 2: 10, 3: 20},
	}
	enq := &recordingEnqueuer{}
	return NewService(repo, authz.NewEngine(store, store), enq), repo, enq
}

func TestSummaryScopesToOwner(t *testing.T) {
	service, _, _ := setupReports(t, authz.ActionRead)
	ctx := context.Background()

	got, err := service.Summary(ctx, analyst(10))
	require.NoError(t, err)
	assert.Equal(t, int64(2), got.Campaigns)
	assert.Equal(t, int64(1500), got.Impressions)
	assert.Equal(t, int64(60), got.Clicks)
	assert.InDelta(t, 0.04, got.CTR, 1e-9)

	admin := authz.Subject{UserID: 1, RoleID: 1, RoleName: "super_admin", RoleLevel: 9}
	all, err := service.Summary(ctx, admin)
	require.NoError(t, err)
	assert.Equal(t, int64(3), all.Campaigns)
	assert.Equal(t, int64(10000), all.Impressions)
}

func TestExportRequiresExportGrant(t *testing.T) {
	service, _, _ := setupReports(t, authz.ActionRead)
	ctx := context.Background()

	_, err := service.Export(ctx, analyst(10))
	var denied *authz.DeniedError
	require.ErrorAs(t, err, &denied)
	assert.Equal(t, authz.ReasonMissingGrant, denied.Reason)

	withExport, _, _ := setupReports(t, authz.ActionRead, authz.ActionExport)
	items, err := withExport.Export(ctx, analyst(10))
	require.NoError(t, err)
	assert.Len(t, items, 2)
}

func TestRequestRebuildEnforcesOwnership(t *testing.T) {
	service, _, enq := setupReports(t, authz.ActionUpdate)
	ctx := context.Background()

	// Campaign 3 belongs to user 20.
	_, err := service.RequestRebuild(ctx, analyst(10), RebuildInput{CampaignID: 3})
	var denied *authz.DeniedError
	require.ErrorAs(t, err, &denied)
	assert.Equal(t, authz.ReasonNotOwner, denied.Reason)
	assert.Empty(t, enq.tasks)

	period, err := service.RequestRebuild(ctx, analyst(10), RebuildInput{CampaignID: 1, Period: "2026-07"})
	require.NoError(t, err)
	assert.Equal(t, "2026-07", period)
	assert.Equal(t, []string{"2026-07"}, enq.tasks)
}

func TestRequestRebuildWithoutWorker(t *testing.T) {
	service, repo, _ := setupReports(t, authz.ActionUpdate)
	noWorker := NewService(repo, service.engine, nil)

	_, err := noWorker.RequestRebuild(context.Background(), analyst(10), RebuildInput{CampaignID: 1})
	assert.ErrorIs(t, err, shared.ErrUnavailable)
}

func TestSummaryCollapsesConcurrentCalls(t *testing.T) {
	service, repo, _ := setupReports(t, authz.ActionRead)
	ctx := context.Background()

	const callers = 16
	var wg sync.WaitGroup
	wg.Add(callers)
	for i := 0; i < callers; i++ {
		go func() {
			defer wg.Done()
			_, err := service.Summary(ctx, analyst(10))
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	// Not strictly one, but far fewer than one per caller.
	assert.Less(t, repo.summarizeCnt.Load(), int64(callers))
}
