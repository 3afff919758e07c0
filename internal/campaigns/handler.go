package campaigns

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/advista/advista/internal/authz"
	"github.com/advista/advista/internal/platform/httpx"
	"github.com/advista/advista/internal/shared"
)

// Handler exposes the campaigns JSON API.
type Handler struct {
	logger   *slog.Logger
	service  *Service
	validate *validator.Validate
}

// NewHandler constructs the campaigns handler.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service, validate: validator.New()}
}

// MountRoutes registers the campaign routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.list)
	r.Post("/", h.create)
	r.Get("/{campaignID}", h.get)
	r.Put("/{campaignID}", h.update)
	r.Delete("/{campaignID}", h.delete)
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
		h.respondError(w, "list campaigns", err)
		return
	}
	if items == nil {
		items = []Campaign{}
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"campaigns": items, "pagination": pagination})
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	subject, ok := authz.SubjectFromContext(r.Context())
	if !ok {
		httpx.Problem(w, http.StatusUnauthorized, "Unauthorized", "authentication required")
		return
	}
	id, err := parseCampaignID(r)
	if err != nil {
		httpx.RespondError(w, shared.ErrValidation)
		return
	}
	campaign, err := h.service.Get(r.Context(), subject, id)
	if err != nil {
		h.respondError(w, "get campaign", err)
		return
	}
	httpx.JSON(w, http.StatusOK, campaign)
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	subject, ok := authz.SubjectFromContext(r.Context())
	if !ok {
		httpx.Problem(w, http.StatusUnauthorized, "Unauthorized", "authentication required")
		return
	}
	input, err := h.decodeInput(r)
	if err != nil {
		httpx.RespondError(w, shared.ErrValidation)
		return
	}
	campaign, err := h.service.Create(r.Context(), subject, input)
	if err != nil {
		h.respondError(w, "create campaign", err)
		return
	}
	httpx.JSON(w, http.StatusCreated, campaign)
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	subject, ok := authz.SubjectFromContext(r.Context())
	if !ok {
		httpx.Problem(w, http.StatusUnauthorized, "Unauthorized", "authentication required")
		return
	}
	id, err := parseCampaignID(r)
	if err != nil {
		httpx.RespondError(w, shared.ErrValidation)
		return
	}
	input, err := h.decodeInput(r)
	if err != nil {
		httpx.RespondError(w, shared.ErrValidation)
		return
	}
	campaign, err := h.service.Update(r.Context(), subject, id, input)
	if err != nil {
		h.respondError(w, "update campaign", err)
		return
	}
	httpx.JSON(w, http.StatusOK, campaign)
}

func (h *Handler) delete(w http.ResponseWriter, r *http.Request) {
	subject, ok := authz.SubjectFromContext(r.Context())
	if !ok {
		httpx.Problem(w, http.StatusUnauthorized, "Unauthorized", "authentication required")
		return
	}
	id, err := parseCampaignID(r)
	if err != nil {
		httpx.RespondError(w, shared.ErrValidation)
		return
	}
	if err := h.service.Delete(r.Context(), subject, id); err != nil {
		h.respondError(w, "delete campaign", err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"status": "deleted", "id": id})
}

func (h *Handler) decodeInput(r *http.Request) (CampaignInput, error) {
	var input CampaignInput
	if err := httpx.DecodeJSON(r, &input); err != nil {
		return input, err
	}
	return input, h.validate.Struct(input)
}

func (h *Handler) respondError(w http.ResponseWriter, op string, err error) {
	if h.logger != nil {
		h.logger.Warn(op, slog.Any("error", err))
	}
	httpx.RespondError(w, err)
}

func parseCampaignID(r *http.Request) (int64, error) {
	return strconv.ParseInt(chi.URLParam(r, "campaignID"), 10, 64)
}
