package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"investgate/internal/application/models"
	"investgate/pkg/domain"
	dErrors "investgate/pkg/domain-errors"
	"investgate/pkg/platform/httputil"
	"investgate/pkg/requestcontext"
)

// Service defines the interface for application operations.
type Service interface {
	Create(ctx context.Context, req *models.CreateRequest) (*models.View, error)
	List(ctx context.Context) ([]models.View, error)
	Get(ctx context.Context, id domain.ApplicationID) (*models.View, error)
	Update(ctx context.Context, id domain.ApplicationID, req *models.UpdateRequest) (*models.View, error)
	Transition(ctx context.Context, id domain.ApplicationID, next models.Status, note string) (*models.View, error)
}

// Handler wires the application endpoints to the application service.
type Handler struct {
	service Service
	logger  *slog.Logger
}

func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register mounts the application routes. All routes require
// authentication; status transitions additionally require
// officer-or-above.
func (h *Handler) Register(r chi.Router, authenticated, officerOnly func(http.Handler) http.Handler) {
	r.Route("/applications", func(r chi.Router) {
		r.Use(authenticated)
		r.Post("/", h.HandleCreate)
		r.Get("/", h.HandleList)
		r.Get("/{id}", h.HandleGet)
		r.Put("/{id}", h.HandleUpdate)

		r.Group(func(r chi.Router) {
			r.Use(officerOnly)
			r.Patch("/{id}/status", h.HandleTransition)
		})
	})
}

func applicationID(r *http.Request) (domain.ApplicationID, error) {
	id, err := domain.ParseApplicationID(chi.URLParam(r, "id"))
	if err != nil {
		return domain.ApplicationID{}, dErrors.New(dErrors.CodeInvalidInput, "Invalid application id")
	}
	return id, nil
}

// HandleCreate handles POST /applications requests.
func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	req, ok := httputil.Decode[models.CreateRequest](w, r)
	if !ok {
		return
	}

	view, err := h.service.Create(ctx, req)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "application submitted",
		"request_id", requestcontext.RequestID(ctx),
		"application_id", view.ID,
	)
	httputil.WriteJSON(w, http.StatusCreated, "Application submitted", view)
}

// HandleList handles GET /applications requests.
func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	views, err := h.service.List(r.Context())
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, "", views)
}

// HandleGet handles GET /applications/{id} requests.
func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	id, err := applicationID(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	view, err := h.service.Get(r.Context(), id)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, "", view)
}

// HandleUpdate handles PUT /applications/{id} requests.
func (h *Handler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, err := applicationID(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	req, ok := httputil.Decode[models.UpdateRequest](w, r)
	if !ok {
		return
	}

	view, err := h.service.Update(ctx, id, req)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, "Application updated", view)
}

// HandleTransition handles PATCH /applications/{id}/status requests.
func (h *Handler) HandleTransition(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, err := applicationID(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	req, ok := httputil.Decode[models.TransitionRequest](w, r)
	if !ok {
		return
	}

	view, err := h.service.Transition(ctx, id, models.Status(req.Status), req.ReviewNote)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "application status changed",
		"request_id", requestcontext.RequestID(ctx),
		"application_id", view.ID,
		"status", view.Status,
	)
	httputil.WriteJSON(w, http.StatusOK, "Status updated", view)
}
