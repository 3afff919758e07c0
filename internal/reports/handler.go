package reports

import (
	"encoding/csv"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/advista/advista/internal/authz"
	"github.com/advista/advista/internal/platform/httpx"
	"github.com/advista/advista/internal/shared"
)

// Handler exposes the reports JSON API and the CSV export.
type Handler struct {
	logger   *slog.Logger
	service  *Service
	validate *validator.Validate
}

// NewHandler constructs the reports handler.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service, validate: validator.New()}
}

// MountRoutes registers the report routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.list)
	r.Get("/summary", h.summary)
	r.Get("/export", h.export)
	r.Post("/rebuild", h.rebuild)
	r.Get("/{snapshotID}", h.get)
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	subject, ok := authz.SubjectFromContext(r.Context())
	if !ok {
		httpx.Problem(w, http.StatusUnauthorized, "Unauthorized", "authentication required")
		return
	}
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	perPage, _ := strconv.Atoi(r.URL.Query().Get("per_page"))

	items, pagination, err := h.service.List(r.Context(), subject, page, perPage)
	if err != nil {
		h.respondError(w, "list snapshots", err)
		return
	}
	if items == nil {
		items = []Snapshot{}
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"snapshots": items, "pagination": pagination})
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	subject, ok := authz.SubjectFromContext(r.Context())
	if !ok {
		httpx.Problem(w, http.StatusUnauthorized, "Unauthorized", "authentication required")
		return
	}
	id, err := strconv.ParseInt(chi.URLParam(r, "snapshotID"), 10, 64)
	if err != nil {
		httpx.RespondError(w, shared.ErrValidation)
		return
	}
	snapshot, err := h.service.Get(r.Context(), subject, id)
	if err != nil {
		h.respondError(w, "get snapshot", err)
		return
	}
	httpx.JSON(w, http.StatusOK, snapshot)
}

func (h *Handler) summary(w http.ResponseWriter, r *http.Request) {
	subject, ok := authz.SubjectFromContext(r.Context())
	if !ok {
		httpx.Problem(w, http.StatusUnauthorized, "Unauthorized", "authentication required")
		return
	}
	summary, err := h.service.Summary(r.Context(), subject)
	if err != nil {
		h.respondError(w, "report summary", err)
		return
	}
	httpx.JSON(w, http.StatusOK, summary)
}

func (h *Handler) export(w http.ResponseWriter, r *http.Request) {
	subject, ok := authz.SubjectFromContext(r.Context())
	if !ok {
		httpx.Problem(w, http.StatusUnauthorized, "Unauthorized", "authentication required")
		return
	}
	items, err := h.service.Export(r.Context(), subject)
	if err != nil {
		h.respondError(w, "export snapshots", err)
		return
	}

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="report_snapshots.csv"`)
	cw := csv.NewWriter(w)
	_ = cw.Write([]string{"campaign_id", "period", "impressions", "clicks", "spend_cents", "built_at"})
	for _, s := range items {
		_ = cw.Write([]string{
			strconv.FormatInt(s.CampaignID, 10),
			s.Period,
			strconv.FormatInt(s.Impressions, 10),
			strconv.FormatInt(s.Clicks, 10),
			strconv.FormatInt(s.SpendCents, 10),
			s.BuiltAt.UTC().Format("2006-01-02T15:04:05Z"),
		})
	}
	cw.Flush()
}

func (h *Handler) rebuild(w http.ResponseWriter, r *http.Request) {
	subject, ok := authz.SubjectFromContext(r.Context())
	if !ok {
		httpx.Problem(w, http.StatusUnauthorized, "Unauthorized", "authentication required")
		return
	}
	var input RebuildInput
	if err := httpx.DecodeJSON(r, &input); err != nil {
		httpx.RespondError(w, shared.ErrValidation)
		return
	}
	if err := h.validate.Struct(input); err != nil {
		httpx.RespondError(w, shared.ErrValidation)
		return
	}
	period, err := h.service.RequestRebuild(r.Context(), subject, input)
	if err != nil {
		h.respondError(w, "rebuild snapshot", err)
		return
	}
	httpx.JSON(w, http.StatusAccepted, map[string]any{
		"status":      "queued",
		"campaign_id": input.CampaignID,
		"period":      period,
	})
}

func (h *Handler) respondError(w http.ResponseWriter, op string, err error) {
	if h.logger != nil {
		h.logger.Warn(op, slog.Any("error", err))
	}
	httpx.RespondError(w, err)
}
