package authz

import (
	"context"
	"sort"
	"sync"

	"github.com/advista/advista/internal/shared"
)

// memStore is an in-memory CatalogStore/GrantStore/RoleStore used by the
// engine and provisioning tests. Error injection fields simulate store
// unavailability.
type memStore struct {
	mu          sync.Mutex
	nextPermID  int64
	nextRoleID  int64
	permsByKey  map[PermissionKey]*Permission
	permsByID   map[int64]*Permission
	grants      map[[2]int64]struct{}
	roles       map[string]*Role
	lookupErr   error
	hasGrantErr error
	grantErr    error
}

func newMemStore() *memStore {
	return &memStore{
		nextPermID: 1,
		nextRoleID: 1,
		permsByKey: make(map[PermissionKey]*Permission),
		permsByID:  make(map[int64]*Permission),
		grants:     make(map[[2]int64]struct{}),
		roles:      make(map[string]*Role),
	}
}

func (s *memStore) RegisterPermission(ctx context.Context, module, action, displayName string) (Permission, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := PermissionKey{Module: module, Action: action}
	if p, ok := s.permsByKey[key]; ok {
		p.DisplayName = displayName
		return *p, nil
	}
	p := &Permission{ID: s.nextPermID, Module: module, Action: action, DisplayName: displayName, IsActive: true}
	s.nextPermID++
	s.permsByKey[key] = p
	s.permsByID[p.ID] = p
	return *p, nil
}

func (s *memStore) LookupPermission(ctx context.Context, module, action string) (Permission, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.lookupErr != nil {
		return Permission{}, s.lookupErr
	}
	p, ok := s.permsByKey[PermissionKey{Module: module, Action: action}]
	if !ok {
		return Permission{}, shared.ErrNotFound
	}
	return *p, nil
}

func (s *memStore) ListActivePermissions(ctx context.Context, moduleFilter string) ([]Permission, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var perms []Permission
	for _, p := range s.permsByKey {
		if !p.IsActive {
			continue
		}
		if moduleFilter != "" && p.Module != moduleFilter {
			continue
		}
		perms = append(perms, *p)
	}
	sort.Slice(perms, func(i, j int) bool { return perms[i].ID < perms[j].ID })
	return perms, nil
}

func (s *memStore) SetPermissionActive(ctx context.Context, module, action string, active bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.permsByKey[PermissionKey{Module: module, Action: action}]
	if !ok {
		return shared.ErrNotFound
	}
	p.IsActive = active
	return nil
}

func (s *memStore) Grant(ctx context.Context, roleID, permissionID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.grantErr != nil {
		return s.grantErr
	}
	s.grants[[2]int64{roleID, permissionID}] = struct{}{}
	return nil
}

func (s *memStore) Revoke(ctx context.Context, roleID, permissionID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.grants, [2]int64{roleID, permissionID})
	return nil
}

func (s *memStore) HasGrant(ctx context.Context, roleID, permissionID int64) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.hasGrantErr != nil {
		return false, s.hasGrantErr
	}
	if _, ok := s.grants[[2]int64{roleID, permissionID}]; !ok {
		return false, nil
	}
	p, ok := s.permsByID[permissionID]
	return ok && p.IsActive, nil
}

func (s *memStore) ListGrants(ctx context.Context, roleID int64) ([]Permission, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var perms []Permission
	for pair := range s.grants {
		if pair[0] != roleID {
			continue
		}
		if p, ok := s.permsByID[pair[1]]; ok && p.IsActive {
			perms = append(perms, *p)
		}
	}
	sort.Slice(perms, func(i, j int) bool { return perms[i].ID < perms[j].ID })
	return perms, nil
}

func (s *memStore) EnsureRole(ctx context.Context, name string, level int) (Role, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if r, ok := s.roles[name]; ok {
		r.Level = level
		return *r, nil
	}
	r := &Role{ID: s.nextRoleID, Name: name, Level: level, IsActive: true}
	s.nextRoleID++
	s.roles[name] = r
	return *r, nil
}

func (s *memStore) GetRoleByName(ctx context.Context, name string) (Role, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.roles[name]
	if !ok {
		return Role{}, shared.ErrNotFound
	}
	return *r, nil
}

func (s *memStore) ListRoles(ctx context.Context) ([]Role, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var roles []Role
	for _, r := range s.roles {
		roles = append(roles, *r)
	}
	sort.Slice(roles, func(i, j int) bool { return roles[i].ID < roles[j].ID })
	return roles, nil
}
