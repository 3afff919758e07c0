package authz

import "strings"

// AdminLevelThreshold is the role level at or above which a role bypasses
// permission and ownership checks.
const AdminLevelThreshold = 8

// privilegedRoleNames are role names that bypass checks regardless of level.
var privilegedRoleNames = map[string]struct{}{
	"admin":       {},
	"super_admin": {},
}

// IsPrivileged is the single authoritative admin predicate. Every component
// that needs an "is this an admin" answer calls this; nothing re-derives it.
func IsPrivileged(role Role) bool {
	if role.Level >= AdminLevelThreshold {
		return true
	}
	_, ok := privilegedRoleNames[strings.ToLower(strings.TrimSpace(role.Name))]
	return ok
}
