// Package handler exposes the registry over HTTP. Reads are public;
// mutations require a bearer identity token; administrative flags sit behind
// the admin token header.
package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"veracity/internal/platform/middleware"
	"veracity/internal/registry/models"
	"veracity/pkg/domain"
	dErrors "veracity/pkg/domain-errors"
	"veracity/pkg/platform/httputil"
	"veracity/pkg/requestcontext"
)

// Service defines the registry operations the handler depends on.
type Service interface {
	RegisterSource(ctx context.Context, name string) (*models.Source, error)
	GetSource(ctx context.Context, identity domain.Identity) (*models.Source, error)
	PublishContent(ctx context.Context, fingerprint, contentType string) (*models.ContentRecord, error)
	GetContent(ctx context.Context, contentID domain.ContentID) (*models.ContentRecord, error)
	RecordModification(ctx context.Context, contentID domain.ContentID, fingerprint, description string) (int, error)
	GetModification(ctx context.Context, contentID domain.ContentID, index int) (*models.Modification, error)
	ListModifications(ctx context.Context, contentID domain.ContentID) ([]models.Modification, error)
	ListContentByPublisher(ctx context.Context, publisher domain.Identity) ([]domain.ContentID, error)
	AdjustCredibility(ctx context.Context, identity domain.Identity, delta int) (*models.Source, error)
	SetSourceVerified(ctx context.Context, identity domain.Identity, verified bool) (*models.Source, error)
	SetContentVerified(ctx context.Context, contentID domain.ContentID, verified bool) (*models.ContentRecord, error)
}

// Handler handles registry endpoints.
type Handler struct {
	registry   Service
	logger     *slog.Logger
	validator  middleware.TokenValidator
	adminToken string
}

// New creates a registry Handler.
func New(registry Service, logger *slog.Logger, validator middleware.TokenValidator, adminToken string) *Handler {
	return &Handler{
		registry:   registry,
		logger:     logger,
		validator:  validator,
		adminToken: adminToken,
	}
}

// Register registers the registry routes with the chi router.
func (h *Handler) Register(r chi.Router) {
	registryRouter := chi.NewRouter()
	registryRouter.Use(middleware.Recovery(h.logger))
	registryRouter.Use(middleware.RequestID)
	registryRouter.Use(middleware.RequestTime)
	registryRouter.Use(middleware.Logger(h.logger))
	registryRouter.Use(middleware.Timeout(30 * time.Second))
	registryRouter.Use(middleware.ContentTypeJSON)

	registryRouter.Get("/registry/sources/{identity}", h.handleGetSource)
	registryRouter.Get("/registry/sources/{identity}/content", h.handleListPublishedContent)
	registryRouter.Get("/registry/content/{contentID}", h.handleGetContent)
	registryRouter.Get("/registry/content/{contentID}/modifications", h.handleListModifications)
	registryRouter.Get("/registry/content/{contentID}/modifications/{index}", h.handleGetModification)

	registryRouter.Group(func(gr chi.Router) {
		gr.Use(middleware.RequireAuth(h.validator, h.logger))
		gr.Post("/registry/sources", h.handleRegisterSource)
		gr.Post("/registry/content", h.handlePublishContent)
		gr.Post("/registry/content/{contentID}/modifications", h.handleRecordModification)
	})

	registryRouter.Group(func(gr chi.Router) {
		gr.Use(middleware.RequireAdminToken(h.adminToken))
		gr.Post("/admin/sources/{identity}/credibility", h.handleAdjustCredibility)
		gr.Post("/admin/sources/{identity}/verified", h.handleSetSourceVerified)
		gr.Post("/admin/content/{contentID}/verified", h.handleSetContentVerified)
	})

	r.Mount("/", registryRouter)
}

func (h *Handler) handleRegisterSource(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req registerSourceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}

	src, err := h.registry.RegisterSource(ctx, req.Name)
	if err != nil {
		h.writeServiceError(ctx, w, err, "failed to register source")
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, src)
}

func (h *Handler) handleGetSource(w http.ResponseWriter, r *http.Request) {
	identity, err := domain.ParseIdentity(chi.URLParam(r, "identity"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	src, err := h.registry.GetSource(r.Context(), identity)
	if err != nil {
		h.writeServiceError(r.Context(), w, err, "failed to load source")
		return
	}
	httputil.WriteJSON(w, http.StatusOK, src)
}

func (h *Handler) handleListPublishedContent(w http.ResponseWriter, r *http.Request) {
	identity, err := domain.ParseIdentity(chi.URLParam(r, "identity"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	ids, err := h.registry.ListContentByPublisher(r.Context(), identity)
	if err != nil {
		h.writeServiceError(r.Context(), w, err, "failed to list published content")
		return
	}

	resp := contentListResponse{Publisher: identity.String(), ContentIDs: make([]string, 0, len(ids))}
	for _, id := range ids {
		resp.ContentIDs = append(resp.ContentIDs, id.String())
	}
	httputil.WriteJSON(w, http.StatusOK, resp)
}

func (h *Handler) handlePublishContent(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req publishContentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}

	rec, err := h.registry.PublishContent(ctx, req.Fingerprint, req.ContentType)
	if err != nil {
		h.writeServiceError(ctx, w, err, "failed to publish content")
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, rec)
}

func (h *Handler) handleGetContent(w http.ResponseWriter, r *http.Request) {
	contentID, err := domain.ParseContentID(chi.URLParam(r, "contentID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	rec, err := h.registry.GetContent(r.Context(), contentID)
	if err != nil {
		h.writeServiceError(r.Context(), w, err, "failed to load content")
		return
	}
	httputil.WriteJSON(w, http.StatusOK, rec)
}

func (h *Handler) handleRecordModification(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	contentID, err := domain.ParseContentID(chi.URLParam(r, "contentID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	var req recordModificationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}

	index, err := h.registry.RecordModification(ctx, contentID, req.Fingerprint, req.Description)
	if err != nil {
		h.writeServiceError(ctx, w, err, "failed to record modification")
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, recordModificationResponse{Index: index})
}

func (h *Handler) handleGetModification(w http.ResponseWriter, r *http.Request) {
	contentID, err := domain.ParseContentID(chi.URLParam(r, "contentID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	index, err := strconv.Atoi(chi.URLParam(r, "index"))
	if err != nil || index < 0 {
		httputil.WriteError(w, dErrors.New(dErrors.CodeInvalidInput, "index must be a non-negative integer"))
		return
	}

	mod, err := h.registry.GetModification(r.Context(), contentID, index)
	if err != nil {
		h.writeServiceError(r.Context(), w, err, "failed to load modification")
		return
	}
	httputil.WriteJSON(w, http.StatusOK, mod)
}

func (h *Handler) handleListModifications(w http.ResponseWriter, r *http.Request) {
	contentID, err := domain.ParseContentID(chi.URLParam(r, "contentID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	history, err := h.registry.ListModifications(r.Context(), contentID)
	if err != nil {
		h.writeServiceError(r.Context(), w, err, "failed to load modification history")
		return
	}
	if history == nil {
		history = []models.Modification{}
	}
	httputil.WriteJSON(w, http.StatusOK, history)
}

func (h *Handler) handleAdjustCredibility(w http.ResponseWriter, r *http.Request) {
	identity, err := domain.ParseIdentity(chi.URLParam(r, "identity"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	var req adjustCredibilityRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}

	src, err := h.registry.AdjustCredibility(r.Context(), identity, req.Delta)
	if err != nil {
		h.writeServiceError(r.Context(), w, err, "failed to adjust credibility")
		return
	}
	httputil.WriteJSON(w, http.StatusOK, src)
}

func (h *Handler) handleSetSourceVerified(w http.ResponseWriter, r *http.Request) {
	identity, err := domain.ParseIdentity(chi.URLParam(r, "identity"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	var req setVerifiedRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}

	src, err := h.registry.SetSourceVerified(r.Context(), identity, req.Verified)
	if err != nil {
		h.writeServiceError(r.Context(), w, err, "failed to update source verification")
		return
	}
	httputil.WriteJSON(w, http.StatusOK, src)
}

func (h *Handler) handleSetContentVerified(w http.ResponseWriter, r *http.Request) {
	contentID, err := domain.ParseContentID(chi.URLParam(r, "contentID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	var req setVerifiedRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}

	rec, err := h.registry.SetContentVerified(r.Context(), contentID, req.Verified)
	if err != nil {
		h.writeServiceError(r.Context(), w, err, "failed to update content verification")
		return
	}
	httputil.WriteJSON(w, http.StatusOK, rec)
}

// writeServiceError logs unexpected failures and writes the error envelope.
func (h *Handler) writeServiceError(ctx context.Context, w http.ResponseWriter, err error, msg string) {
	code := dErrors.CodeOf(err)
	if code == dErrors.CodeInternal || code == dErrors.CodeUnavailable {
		h.logger.ErrorContext(ctx, msg,
			"request_id", requestcontext.RequestID(ctx),
			"error", err.Error(),
		)
	}
	httputil.WriteError(w, err)
}
