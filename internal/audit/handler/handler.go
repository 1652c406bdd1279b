package handler

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"investgate/internal/audit"
	"investgate/pkg/domain"
	dErrors "investgate/pkg/domain-errors"
	"investgate/pkg/platform/httputil"
	"investgate/pkg/requestcontext"
)

// Handler exposes the audit trail to administrators.
type Handler struct {
	store  audit.Store
	logger *slog.Logger
}

func New(store audit.Store, logger *slog.Logger) *Handler {
	return &Handler{store: store, logger: logger}
}

// Register mounts the audit routes behind authentication plus an
// ADMIN-or-above role check.
func (h *Handler) Register(r chi.Router, authenticated, adminOnly func(http.Handler) http.Handler) {
	r.Route("/audit", func(r chi.Router) {
		r.Use(authenticated, adminOnly)
		r.Get("/users/{id}", h.HandleListBySubject)
	})
}

// EventView is the client-facing projection of one audit record.
type EventView struct {
	SubjectID  string         `json:"subjectId"`
	Action     string         `json:"action"`
	EntityType string         `json:"entityType"`
	EntityID   string         `json:"entityId,omitempty"`
	Changes    map[string]any `json:"changes,omitempty"`
	IPAddress  string         `json:"ipAddress,omitempty"`
	Device     string         `json:"device,omitempty"`
	Timestamp  time.Time      `json:"timestamp"`
}

// HandleListBySubject handles GET /audit/users/{id} requests.
func (h *Handler) HandleListBySubject(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	subjectID, err := domain.ParseUserID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeInvalidInput, "Invalid user id"))
		return
	}

	events, err := h.store.ListBySubject(ctx, subjectID)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to list audit events",
			"error", err,
			"subject_id", subjectID.String(),
			"request_id", requestcontext.RequestID(ctx),
		)
		httputil.WriteError(w, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list audit events"))
		return
	}

	views := make([]EventView, 0, len(events))
	for _, e := range events {
		views = append(views, EventView{
			SubjectID:  e.SubjectID.String(),
			Action:     string(e.Action),
			EntityType: e.EntityType,
			EntityID:   e.EntityID,
			Changes:    e.Changes,
			IPAddress:  e.ClientIP,
			Device:     e.Device,
			Timestamp:  e.Timestamp,
		})
	}
	httputil.WriteJSON(w, http.StatusOK, "", views)
}
