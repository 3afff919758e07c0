package authz

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/advista/advista/internal/platform/httpx"
	"github.com/advista/advista/internal/shared"
)

// Handler exposes the administrative permissions API: catalog listing, role
// grant management and permission deactivation. Routes are gated by the
// engine through Middleware.Require.
type Handler struct {
	logger   *slog.Logger
	catalog  CatalogStore
	grants   GrantStore
	roles    RoleStore
	audit    *shared.AuditLogger
	validate *validator.Validate
}

// NewHandler constructs the permissions admin handler.
func NewHandler(logger *slog.Logger, catalog CatalogStore, grants GrantStore, roles RoleStore, audit *shared.AuditLogger) *Handler {
	return &Handler{
		logger:   logger,
		catalog:  catalog,
		grants:   grants,
		roles:    roles,
		audit:    audit,
		validate: validator.New(),
	}
}

// MountRoutes registers the admin permission routes. Reads require the roles
// read grant; every mutation requires the roles update grant.
func (h *Handler) MountRoutes(r chi.Router, mw Middleware) {
	r.Group(func(r chi.Router) {
		r.Use(mw.Require(ModuleRoles, ActionRead))
		r.Get("/", h.listPermissions)
		r.Get("/roles", h.listRoles)
		r.Get("/roles/{roleID}", h.listGrants)
	})
	r.Group(func(r chi.Router) {
		r.Use(mw.Require(ModuleRoles, ActionUpdate))
		r.Post("/roles/{roleID}/grant", h.grant)
		r.Post("/roles/{roleID}/revoke", h.revoke)
		r.Post("/deactivate", h.setActive(false))
		r.Post("/activate", h.setActive(true))
	})
}

type permissionKeyRequest struct {
	Module string `json:"module" validate:"required"`
	Action string `json:"action" validate:"required"`
}

func (h *Handler) listPermissions(w http.ResponseWriter, r *http.Request) {
	perms, err := h.catalog.ListActivePermissions(r.Context(), r.URL.Query().Get("module"))
	if err != nil {
		h.logger.Error("list permissions", slog.Any("error", err))
		httpx.RespondError(w, shared.ErrUnavailable)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"permissions": toPermissionViews(perms)})
}

func (h *Handler) listRoles(w http.ResponseWriter, r *http.Request) {
	roles, err := h.roles.ListRoles(r.Context())
	if err != nil {
		h.logger.Error("list roles", slog.Any("error", err))
		httpx.RespondError(w, shared.ErrUnavailable)
		return
	}
	views := make([]map[string]any, 0, len(roles))
	for _, role := range roles {
		views = append(views, map[string]any{
			"id":        role.ID,
			"name":      role.Name,
			"level":     role.Level,
			"is_active": role.IsActive,
		})
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"roles": views})
}

func (h *Handler) listGrants(w http.ResponseWriter, r *http.Request) {
	roleID, err := parseRoleID(r)
	if err != nil {
		httpx.RespondError(w, shared.ErrValidation)
		return
	}
	perms, err := h.grants.ListGrants(r.Context(), roleID)
	if err != nil {
		h.logger.Error("list grants", slog.Int64("role_id", roleID), slog.Any("error", err))
		httpx.RespondError(w, shared.ErrUnavailable)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"role_id": roleID, "grants": toPermissionViews(perms)})
}

func (h *Handler) grant(w http.ResponseWriter, r *http.Request) {
	h.mutateGrant(w, r, "permission.grant", h.grants.Grant)
}

func (h *Handler) revoke(w http.ResponseWriter, r *http.Request) {
	h.mutateGrant(w, r, "permission.revoke", h.grants.Revoke)
}

func (h *Handler) mutateGrant(w http.ResponseWriter, r *http.Request, auditAction string, mutate func(ctx context.Context, roleID, permissionID int64) error) {
	roleID, err := parseRoleID(r)
	if err != nil {
		httpx.RespondError(w, shared.ErrValidation)
		return
	}
	var req permissionKeyRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, shared.ErrValidation)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.RespondError(w, shared.ErrValidation)
		return
	}

	perm, err := h.catalog.LookupPermission(r.Context(), req.Module, req.Action)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	if err := mutate(r.Context(), roleID, perm.ID); err != nil {
		h.logger.Error("mutate grant", slog.String("audit_action", auditAction), slog.Any("error", err))
		httpx.RespondError(w, shared.ErrUnavailable)
		return
	}

	h.recordAudit(r, auditAction, perm, roleID)
	httpx.JSON(w, http.StatusOK, map[string]any{"role_id": roleID, "module": perm.Module, "action": perm.Action})
}

func (h *Handler) setActive(active bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req permissionKeyRequest
		if err := httpx.DecodeJSON(r, &req); err != nil {
			httpx.RespondError(w, shared.ErrValidation)
			return
		}
		if err := h.validate.Struct(req); err != nil {
			httpx.RespondError(w, shared.ErrValidation)
			return
		}
		if err := h.catalog.SetPermissionActive(r.Context(), req.Module, req.Action, active); err != nil {
			httpx.RespondError(w, err)
			return
		}
		auditAction := "permission.deactivate"
		if active {
			auditAction = "permission.activate"
		}
		h.recordAudit(r, auditAction, Permission{Module: req.Module, Action: req.Action}, 0)
		httpx.JSON(w, http.StatusOK, map[string]any{"module": req.Module, "action": req.Action, "is_active": active})
	}
}

func (h *Handler) recordAudit(r *http.Request, action string, perm Permission, roleID int64) {
	if h.audit == nil {
		return
	}
	subject, _ := SubjectFromContext(r.Context())
	meta := map[string]any{"module": perm.Module, "action": perm.Action}
	if roleID != 0 {
		meta["role_id"] = roleID
	}
	if err := h.audit.Record(r.Context(), shared.AuditLog{
		ActorID:  subject.UserID,
		Action:   action,
		Entity:   "permission",
		EntityID: perm.Module + "." + perm.Action,
		Meta:     meta,
	}); err != nil && h.logger != nil {
		h.logger.Warn("audit record", slog.Any("error", err))
	}
}

func parseRoleID(r *http.Request) (int64, error) {
	return strconv.ParseInt(chi.URLParam(r, "roleID"), 10, 64)
}

func toPermissionViews(perms []Permission) []map[string]any {
	views := make([]map[string]any, 0, len(perms))
	for _, p := range perms {
		views = append(views, map[string]any{
			"id":           p.ID,
			"module":       p.Module,
			"action":       p.Action,
			"display_name": p.DisplayName,
			"is_active":    p.IsActive,
		})
	}
	return views
}
