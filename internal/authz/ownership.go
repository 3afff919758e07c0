package authz

// EnforceOwnership is the second-layer check applied to update/delete on a
// specific row. A module-level grant never substitutes for it: callers run
// Check first, then this, and both must pass. Privileged subjects bypass it.
func EnforceOwnership(subject Subject, resourceOwnerID int64) Decision {
	if IsPrivileged(subject.Role()) {
		return Allow(ReasonAdminBypass)
	}
	if resourceOwnerID == subject.UserID {
		return Allow(ReasonOwner)
	}
	return Deny(ReasonNotOwner)
}
