package handler

import (
	"context"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/prn-tf/monedero/internal/auth"
	"github.com/prn-tf/monedero/internal/domain"
	"github.com/prn-tf/monedero/internal/repository"
)

// TotalCountHeader carries the unpaginated row count of list responses.
const TotalCountHeader = "X-Total-Count"

// ResourceService is the ownership-scoped CRUD contract served by a
// ResourceHandler. *service.ResourceService implements it.
type ResourceService[R domain.Resource] interface {
	Kind() string
	List(ctx context.Context, ownerID int64, opts repository.ListOptions) (*repository.ListResult[R], error)
	Get(ctx context.Context, ownerID, id int64) (R, error)
	Create(ctx context.Context, ownerID int64, patch domain.Patch[R]) (R, error)
	Update(ctx context.Context, ownerID, id int64, patch domain.Patch[R]) (R, error)
	Delete(ctx context.Context, ownerID, id int64) error
}

// ResourceHandler serves CRUD routes for one owned resource. P is the patch
// type decoded from request bodies.
type ResourceHandler[R domain.Resource, P domain.Patch[R]] struct {
	svc      ResourceService[R]
	newPatch func() P
	logger   zerolog.Logger
}

// NewResourceHandler creates a handler over svc. newPatch returns an empty
// patch to decode each request body into.
func NewResourceHandler[R domain.Resource, P domain.Patch[R]](svc ResourceService[R], newPatch func() P, logger zerolog.Logger) *ResourceHandler[R, P] {
	return &ResourceHandler[R, P]{
		svc:      svc,
		newPatch: newPatch,
		logger:   logger.With().Str("handler", svc.Kind()).Logger(),
	}
}

// RegisterRoutes registers the CRUD routes relative to the resource root.
// PUT and PATCH are both partial updates.
func (h *ResourceHandler[R, P]) RegisterRoutes(r chi.Router) {
	r.Get("/", h.handleList)
	r.Post("/", h.handleCreate)
	r.Get("/{id}", h.handleGet)
	r.Put("/{id}", h.handleUpdate)
	r.Patch("/{id}", h.handleUpdate)
	r.Delete("/{id}", h.handleDelete)
}

func (h *ResourceHandler[R, P]) handleList(w http.ResponseWriter, r *http.Request) {
	identity, err := auth.RequireIdentity(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}

	opts, err := listOptions(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	result, err := h.svc.List(r.Context(), identity.UserID, opts)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	items := result.Items
	if items == nil {
		items = []R{}
	}
	w.Header().Set(TotalCountHeader, strconv.FormatInt(result.Total, 10))
	writeJSON(w, http.StatusOK, items)
}

func (h *ResourceHandler[R, P]) handleGet(w http.ResponseWriter, r *http.Request) {
	identity, id, ok := h.target(w, r)
	if !ok {
		return
	}

	item, err := h.svc.Get(r.Context(), identity.UserID, id)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, item)
}

func (h *ResourceHandler[R, P]) handleCreate(w http.ResponseWriter, r *http.Request) {
	identity, err := auth.RequireIdentity(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}

	patch := h.newPatch()
	if err := decode(r, patch); err != nil {
		h.fail(w, r, err)
		return
	}

	item, err := h.svc.Create(r.Context(), identity.UserID, patch)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, item)
}

func (h *ResourceHandler[R, P]) handleUpdate(w http.ResponseWriter, r *http.Request) {
	identity, id, ok := h.target(w, r)
	if !ok {
		return
	}

	patch := h.newPatch()
	if err := decode(r, patch); err != nil {
		h.fail(w, r, err)
		return
	}

	item, err := h.svc.Update(r.Context(), identity.UserID, id, patch)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, item)
}

func (h *ResourceHandler[R, P]) handleDelete(w http.ResponseWriter, r *http.Request) {
	identity, id, ok := h.target(w, r)
	if !ok {
		return
	}

	if err := h.svc.Delete(r.Context(), identity.UserID, id); err != nil {
		h.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// target resolves the caller and the {id} parameter, writing the error
// response itself when either is missing.
func (h *ResourceHandler[R, P]) target(w http.ResponseWriter, r *http.Request) (*auth.Identity, int64, bool) {
	identity, err := auth.RequireIdentity(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return nil, 0, false
	}
	id, err := pathID(r)
	if err != nil {
		h.fail(w, r, err)
		return nil, 0, false
	}
	return identity, id, true
}

func (h *ResourceHandler[R, P]) fail(w http.ResponseWriter, r *http.Request, err error) {
	writeServiceError(w, r, h.logger, err)
}
