package authz

import (
	"context"
	"errors"
	"log/slog"

	"github.com/advista/advista/internal/shared"
)

// CatalogStore is the permission catalog consumed by the engine.
type CatalogStore interface {
	RegisterPermission(ctx context.Context, module, action, displayName string) (Permission, error)
	LookupPermission(ctx context.Context, module, action string) (Permission, error)
	ListActivePermissions(ctx context.Context, moduleFilter string) ([]Permission, error)
	SetPermissionActive(ctx context.Context, module, action string, active bool) error
}

// GrantStore is the role-to-permission mapping consumed by the engine.
type GrantStore interface {
	Grant(ctx context.Context, roleID, permissionID int64) error
	Revoke(ctx context.Context, roleID, permissionID int64) error
	HasGrant(ctx context.Context, roleID, permissionID int64) (bool, error)
	ListGrants(ctx context.Context, roleID int64) ([]Permission, error)
}

// DecisionObserver receives every decision for audit logging and metrics.
// Implementations must be non-blocking and must never fail the decision path.
type DecisionObserver interface {
	ObserveDecision(ctx context.Context, subject Subject, module, action string, d Decision)
}

// Engine evaluates the two-tier module/action permission check. It holds no
// mutable state and is safe for unlimited concurrent use; every call reads
// grant state from the store exactly once, with no caching layer in between.
type Engine struct {
	catalog   CatalogStore
	grants    GrantStore
	observers []DecisionObserver
}

// NewEngine constructs an Engine. Observers are optional.
func NewEngine(catalog CatalogStore, grants GrantStore, observers ...DecisionObserver) *Engine {
	return &Engine{catalog: catalog, grants: grants, observers: observers}
}

// Check decides whether subject may perform action on module.
//
// The admin policy short-circuits before any store read. Missing or inactive
// permissions deny with ConfigurationError; a missing grant denies with
// MissingGrant. Any store failure, including timeout or cancellation, denies
// with Unavailable — never an error, never a default allow.
func (e *Engine) Check(ctx context.Context, subject Subject, module, action string) Decision {
	if IsPrivileged(subject.Role()) {
		return e.observed(ctx, subject, module, action, Allow(ReasonAdminBypass))
	}

	perm, err := e.catalog.LookupPermission(ctx, module, action)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return e.observed(ctx, subject, module, action, Deny(ReasonConfigurationError))
		}
		return e.observed(ctx, subject, module, action, Deny(ReasonUnavailable))
	}
	if !perm.IsActive {
		return e.observed(ctx, subject, module, action, Deny(ReasonConfigurationError))
	}

	ok, err := e.grants.HasGrant(ctx, subject.RoleID, perm.ID)
	if err != nil {
		return e.observed(ctx, subject, module, action, Deny(ReasonUnavailable))
	}
	if !ok {
		return e.observed(ctx, subject, module, action, Deny(ReasonMissingGrant))
	}
	return e.observed(ctx, subject, module, action, Allow(ReasonGranted))
}

func (e *Engine) observed(ctx context.Context, subject Subject, module, action string, d Decision) Decision {
	for _, o := range e.observers {
		o.ObserveDecision(ctx, subject, module, action, d)
	}
	return d
}

// SlogDecisionLogger writes admin bypasses and denials to a structured log.
type SlogDecisionLogger struct {
	Logger *slog.Logger
}

// ObserveDecision implements DecisionObserver.
func (l SlogDecisionLogger) ObserveDecision(ctx context.Context, subject Subject, module, action string, d Decision) {
	if l.Logger == nil {
		return
	}
	attrs := []any{
		slog.Int64("user_id", subject.UserID),
		slog.Int64("role_id", subject.RoleID),
		slog.String("role", subject.RoleName),
		slog.String("module", module),
		slog.String("action", action),
		slog.String("reason", string(d.Reason)),
	}
	switch {
	case !d.Allowed:
		l.Logger.WarnContext(ctx, "authorization denied", attrs...)
	case d.Reason == ReasonAdminBypass:
		l.Logger.InfoContext(ctx, "authorization admin bypass", attrs...)
	}
}
