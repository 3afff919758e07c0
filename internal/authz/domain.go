package authz

// Module names recognised by the permission catalog.
const (
	ModuleCampaigns = "campaigns"
	ModuleBrands    = "brands"
	ModuleCards     = "cards"
	ModuleReports   = "reports"
	ModuleUsers     = "users"
	ModuleRoles     = "roles"
)

// Actions recognised by the permission catalog.
const (
	ActionCreate = "create"
	ActionRead   = "read"
	ActionUpdate = "update"
	ActionDelete = "delete"
	ActionExport = "export"
)

// Role represents a flat permission grouping with a privilege level.
type Role struct {
	ID       int64
	Name     string
	Level    int
	IsActive bool
}

// Permission represents an atomic capability keyed by (module, action).
type Permission struct {
	ID          int64
	Module      string
	Action      string
	DisplayName string
	IsActive    bool
}

// PermissionKey is the natural key of a permission.
type PermissionKey struct {
	Module string
	Action string
}

// Subject is the resolved caller identity, passed by value into every check.
// It is produced once per request by the identity layer and never persisted.
type Subject struct {
	UserID    int64
	RoleID    int64
	RoleName  string
	RoleLevel int
}

// Role reconstructs the subject's role for policy evaluation.
func (s Subject) Role() Role {
	return Role{ID: s.RoleID, Name: s.RoleName, Level: s.RoleLevel}
}

// Reason explains a Decision outcome.
type Reason string

const (
	// ReasonAdminBypass marks a decision allowed by the admin policy.
	ReasonAdminBypass Reason = "admin_bypass"
	// ReasonGranted marks a decision allowed by an explicit role grant.
	ReasonGranted Reason = "granted"
	// ReasonOwner marks an ownership check that passed.
	ReasonOwner Reason = "owner"
	// ReasonMissingGrant marks a denial because the role lacks the grant.
	ReasonMissingGrant Reason = "missing_grant"
	// ReasonNotOwner marks a denial because the caller does not own the row.
	ReasonNotOwner Reason = "not_owner"
	// ReasonConfigurationError marks a denial because the (module, action)
	// pair was never registered or is inactive.
	ReasonConfigurationError Reason = "configuration_error"
	// ReasonUnavailable marks a fail-closed denial because the store could
	// not be read.
	ReasonUnavailable Reason = "unavailable"
)

// Decision is the outcome of an authorization or ownership check.
type Decision struct {
	Allowed bool
	Reason  Reason
}

// Allow builds an allowed decision.
func Allow(reason Reason) Decision {
	return Decision{Allowed: true, Reason: reason}
}

// Deny builds a denied decision.
func Deny(reason Reason) Decision {
	return Decision{Allowed: false, Reason: reason}
}

// Err converts a denied decision into an error for service layers. Allowed
// decisions yield nil.
func (d Decision) Err() error {
	if d.Allowed {
		return nil
	}
	return &DeniedError{Reason: d.Reason}
}
