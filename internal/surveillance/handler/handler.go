// Package handler wires the surveillance HTTP API to the surveillance
// service. Every route requires an authenticated owner; the owner always
// comes from the token, never from the payload.
package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"vigie/internal/surveillance/dispatch"
	"vigie/internal/surveillance/models"
	surveillance "vigie/internal/surveillance/service"
	id "vigie/pkg/domain"
	dErrors "vigie/pkg/domain-errors"
	"vigie/pkg/platform/httputil"
	"vigie/pkg/requestcontext"
)

// Service defines the interface for surveillance operations.
type Service interface {
	Create(ctx context.Context, ownerID id.UserID, params surveillance.CreateParams) (*models.Surveillance, error)
	Get(ctx context.Context, ownerID id.UserID, surveillanceID id.SurveillanceID) (*surveillance.Detail, error)
	List(ctx context.Context, ownerID id.UserID) ([]surveillance.Overview, error)
	Update(ctx context.Context, ownerID id.UserID, surveillanceID id.SurveillanceID, patch models.Patch) (*models.Surveillance, error)
	Toggle(ctx context.Context, ownerID id.UserID, surveillanceID id.SurveillanceID) (*models.Surveillance, error)
	Delete(ctx context.Context, ownerID id.UserID, surveillanceID id.SurveillanceID) error
	ListChanges(ctx context.Context, ownerID id.UserID, surveillanceID id.SurveillanceID, filter models.ChangeFilter, page models.PageRequest) (models.ChangePage, error)
	WatchTypes() []models.WatchTypeInfo
	Stats(ctx context.Context, ownerID id.UserID) (*surveillance.OwnerStats, error)
	ManualCheck(ctx context.Context, ownerID id.UserID, surveillanceID id.SurveillanceID) (*surveillance.CheckResult, error)
	TestWebhook(ctx context.Context, ownerID id.UserID, rawURL string) (dispatch.TestResult, error)
}

// Handler wires surveillance endpoints to the surveillance service.
type Handler struct {
	service Service
	logger  *slog.Logger
}

// New constructs a surveillance handler with its dependencies.
func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{
		service: service,
		logger:  logger,
	}
}

// Register mounts surveillance endpoints on the router. Fixed segments are
// registered before the {surveillanceID} subtree so "types" and "stats" are
// never parsed as IDs.
func (h *Handler) Register(r chi.Router) {
	r.Route("/surveillances", func(r chi.Router) {
		r.Post("/", h.HandleCreate)
		r.Get("/", h.HandleList)
		r.Get("/types", h.HandleWatchTypes)
		r.Get("/stats", h.HandleStats)
		r.Post("/test-webhook", h.HandleTestWebhook)

		r.Route("/{surveillanceID}", func(r chi.Router) {
			r.Get("/", h.HandleGet)
			r.Put("/", h.HandleUpdate)
			r.Delete("/", h.HandleDelete)
			r.Post("/toggle", h.HandleToggle)
			r.Get("/changes", h.HandleListChanges)
			r.Post("/check", h.HandleCheck)
		})
	})
}

// HandleCreate handles POST /surveillances requests.
func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)
	start := time.Now()

	ownerID, ok := h.authenticate(w, ctx)
	if !ok {
		return
	}

	req, ok := httputil.DecodeAndPrepare[CreateRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	created, err := h.service.Create(ctx, ownerID, req.Params())
	if err != nil {
		h.logger.ErrorContext(ctx, "surveillance creation failed",
			"request_id", requestID,
			"owner_id", ownerID,
			"siren", req.SIREN,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "surveillance created",
		"request_id", requestID,
		"owner_id", ownerID,
		"surveillance_id", created.ID,
		"siren", created.SIREN,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	httputil.WriteJSON(w, http.StatusCreated, FromSurveillance(created))
}

// HandleList handles GET /surveillances requests.
func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	ownerID, ok := h.authenticate(w, ctx)
	if !ok {
		return
	}

	overviews, err := h.service.List(ctx, ownerID)
	if err != nil {
		h.logger.ErrorContext(ctx, "surveillance listing failed",
			"request_id", requestcontext.RequestID(ctx),
			"owner_id", ownerID,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, FromOverviews(overviews))
}

// HandleWatchTypes handles GET /surveillances/types requests.
func (h *Handler) HandleWatchTypes(w http.ResponseWriter, r *http.Request) {
	if _, ok := h.authenticate(w, r.Context()); !ok {
		return
	}
	httputil.WriteJSON(w, http.StatusOK, WatchTypesResponse{WatchTypes: h.service.WatchTypes()})
}

// HandleStats handles GET /surveillances/stats requests.
func (h *Handler) HandleStats(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	ownerID, ok := h.authenticate(w, ctx)
	if !ok {
		return
	}

	stats, err := h.service.Stats(ctx, ownerID)
	if err != nil {
		h.logger.ErrorContext(ctx, "surveillance stats failed",
			"request_id", requestcontext.RequestID(ctx),
			"owner_id", ownerID,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, FromStats(stats))
}

// HandleGet handles GET /surveillances/{surveillanceID} requests.
func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	ownerID, ok := h.authenticate(w, ctx)
	if !ok {
		return
	}
	surveillanceID, err := surveillanceIDParam(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	detail, err := h.service.Get(ctx, ownerID, surveillanceID)
	if err != nil {
		h.logger.ErrorContext(ctx, "surveillance lookup failed",
			"request_id", requestcontext.RequestID(ctx),
			"owner_id", ownerID,
			"surveillance_id", surveillanceID,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, FromDetail(detail))
}

// HandleUpdate handles PUT /surveillances/{surveillanceID} requests.
func (h *Handler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	ownerID, ok := h.authenticate(w, ctx)
	if !ok {
		return
	}
	surveillanceID, err := surveillanceIDParam(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	req, ok := httputil.DecodeAndPrepare[UpdateRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	updated, err := h.service.Update(ctx, ownerID, surveillanceID, req.Patch())
	if err != nil {
		h.logger.ErrorContext(ctx, "surveillance update failed",
			"request_id", requestID,
			"owner_id", ownerID,
			"surveillance_id", surveillanceID,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "surveillance updated",
		"request_id", requestID,
		"owner_id", ownerID,
		"surveillance_id", updated.ID,
	)
	httputil.WriteJSON(w, http.StatusOK, FromSurveillance(updated))
}

// HandleDelete handles DELETE /surveillances/{surveillanceID} requests.
func (h *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	ownerID, ok := h.authenticate(w, ctx)
	if !ok {
		return
	}
	surveillanceID, err := surveillanceIDParam(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	if err := h.service.Delete(ctx, ownerID, surveillanceID); err != nil {
		h.logger.ErrorContext(ctx, "surveillance deletion failed",
			"request_id", requestID,
			"owner_id", ownerID,
			"surveillance_id", surveillanceID,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "surveillance deleted",
		"request_id", requestID,
		"owner_id", ownerID,
		"surveillance_id", surveillanceID,
	)
	w.WriteHeader(http.StatusNoContent)
}

// HandleToggle handles POST /surveillances/{surveillanceID}/toggle requests.
func (h *Handler) HandleToggle(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	ownerID, ok := h.authenticate(w, ctx)
	if !ok {
		return
	}
	surveillanceID, err := surveillanceIDParam(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	toggled, err := h.service.Toggle(ctx, ownerID, surveillanceID)
	if err != nil {
		h.logger.ErrorContext(ctx, "surveillance toggle failed",
			"request_id", requestID,
			"owner_id", ownerID,
			"surveillance_id", surveillanceID,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "surveillance toggled",
		"request_id", requestID,
		"owner_id", ownerID,
		"surveillance_id", toggled.ID,
		"active", toggled.Active,
	)
	httputil.WriteJSON(w, http.StatusOK, FromSurveillance(toggled))
}

// HandleListChanges handles GET /surveillances/{surveillanceID}/changes
// requests.
func (h *Handler) HandleListChanges(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	ownerID, ok := h.authenticate(w, ctx)
	if !ok {
		return
	}
	surveillanceID, err := surveillanceIDParam(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	filter, page, err := changeListQuery(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	result, err := h.service.ListChanges(ctx, ownerID, surveillanceID, filter, page)
	if err != nil {
		h.logger.ErrorContext(ctx, "change listing failed",
			"request_id", requestcontext.RequestID(ctx),
			"owner_id", ownerID,
			"surveillance_id", surveillanceID,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, FromChangePage(result))
}

// HandleCheck handles POST /surveillances/{surveillanceID}/check requests.
func (h *Handler) HandleCheck(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)
	start := time.Now()

	ownerID, ok := h.authenticate(w, ctx)
	if !ok {
		return
	}
	surveillanceID, err := surveillanceIDParam(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	result, err := h.service.ManualCheck(ctx, ownerID, surveillanceID)
	if err != nil {
		h.logger.ErrorContext(ctx, "manual check failed",
			"request_id", requestID,
			"owner_id", ownerID,
			"surveillance_id", surveillanceID,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "manual check completed",
		"request_id", requestID,
		"owner_id", ownerID,
		"surveillance_id", surveillanceID,
		"changes_detected", len(result.Changes),
		"duration_ms", time.Since(start).Milliseconds(),
	)
	httputil.WriteJSON(w, http.StatusOK, FromCheckResult(result))
}

// HandleTestWebhook handles POST /surveillances/test-webhook requests.
func (h *Handler) HandleTestWebhook(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	ownerID, ok := h.authenticate(w, ctx)
	if !ok {
		return
	}

	req, ok := httputil.DecodeAndPrepare[TestWebhookRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	result, err := h.service.TestWebhook(ctx, ownerID, req.URL)
	if err != nil {
		h.logger.WarnContext(ctx, "webhook test rejected",
			"request_id", requestID,
			"owner_id", ownerID,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, result)
}

// authenticate resolves the owner set by the auth middleware.
func (h *Handler) authenticate(w http.ResponseWriter, ctx context.Context) (id.UserID, bool) {
	ownerID := requestcontext.UserID(ctx)
	if ownerID.IsNil() {
		httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "authentication required"))
		return id.UserID{}, false
	}
	return ownerID, true
}

// surveillanceIDParam parses the {surveillanceID} path segment.
func surveillanceIDParam(r *http.Request) (id.SurveillanceID, error) {
	surveillanceID, err := id.ParseSurveillanceID(chi.URLParam(r, "surveillanceID"))
	if err != nil {
		return id.SurveillanceID{}, dErrors.New(dErrors.CodeBadRequest, "invalid surveillance ID")
	}
	return surveillanceID, nil
}
