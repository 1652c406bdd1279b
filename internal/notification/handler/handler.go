package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"investgate/internal/notification/models"
	"investgate/pkg/domain"
	dErrors "investgate/pkg/domain-errors"
	"investgate/pkg/platform/httputil"
)

// Service defines the interface for notification operations.
type Service interface {
	ListOwn(ctx context.Context) ([]models.View, error)
	MarkRead(ctx context.Context, id domain.NotificationID) error
}

type Handler struct {
	service Service
	logger  *slog.Logger
}

func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register mounts the notification routes behind authentication.
func (h *Handler) Register(r chi.Router, authenticated func(http.Handler) http.Handler) {
	r.Route("/notifications", func(r chi.Router) {
		r.Use(authenticated)
		r.Get("/", h.HandleList)
		r.Patch("/{id}/read", h.HandleMarkRead)
	})
}

// HandleList handles GET /notifications requests.
func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	views, err := h.service.ListOwn(r.Context())
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, "", views)
}

// HandleMarkRead handles PATCH /notifications/{id}/read requests.
func (h *Handler) HandleMarkRead(w http.ResponseWriter, r *http.Request) {
	id, err := domain.ParseNotificationID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeInvalidInput, "Invalid notification id"))
		return
	}
	if err := h.service.MarkRead(r.Context(), id); err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, "Notification marked read", nil)
}
