package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"investgate/internal/auth/models"
	"investgate/pkg/domain"
	dErrors "investgate/pkg/domain-errors"
	"investgate/pkg/platform/httputil"
	"investgate/pkg/requestcontext"
)

// Service defines the interface for authentication and user administration.
type Service interface {
	Register(ctx context.Context, req *models.RegisterRequest) (*models.AuthResult, error)
	Login(ctx context.Context, req *models.LoginRequest) (*models.AuthResult, error)
	Refresh(ctx context.Context) (*models.AuthResult, error)
	Logout(ctx context.Context) error
	Me(ctx context.Context) (*models.View, error)
	ListUsers(ctx context.Context) ([]models.View, error)
	ChangeRole(ctx context.Context, targetID domain.UserID, newRole domain.Role) (*models.View, error)
	SetActive(ctx context.Context, targetID domain.UserID, active bool) (*models.View, error)
}

// Handler wires the auth endpoints to the auth service.
type Handler struct {
	service Service
	logger  *slog.Logger
}

func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register mounts the auth and user-administration routes. The
// authenticated group is wrapped with the credential gate; the admin
// group additionally requires an ADMIN-or-above role.
func (h *Handler) Register(r chi.Router, authenticated, adminOnly func(http.Handler) http.Handler) {
	r.Route("/auth", func(r chi.Router) {
		r.Post("/register", h.HandleRegister)
		r.Post("/login", h.HandleLogin)

		r.Group(func(r chi.Router) {
			r.Use(authenticated)
			r.Post("/logout", h.HandleLogout)
			r.Post("/refresh", h.HandleRefresh)
			r.Get("/me", h.HandleMe)
		})
	})

	r.Route("/users", func(r chi.Router) {
		r.Use(authenticated, adminOnly)
		r.Get("/", h.HandleListUsers)
		r.Patch("/{id}/role", h.HandleChangeRole)
		r.Patch("/{id}/status", h.HandleSetActive)
	})
}

// HandleRegister handles POST /auth/register requests.
func (h *Handler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	req, ok := httputil.Decode[models.RegisterRequest](w, r)
	if !ok {
		return
	}

	result, err := h.service.Register(ctx, req)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "user registered",
		"request_id", requestcontext.RequestID(ctx),
		"user_id", result.User.ID,
	)
	httputil.WriteJSON(w, http.StatusCreated, "Registration successful", result)
}

// HandleLogin handles POST /auth/login requests.
func (h *Handler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	req, ok := httputil.Decode[models.LoginRequest](w, r)
	if !ok {
		return
	}

	result, err := h.service.Login(ctx, req)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "user logged in",
		"request_id", requestcontext.RequestID(ctx),
		"user_id", result.User.ID,
	)
	httputil.WriteJSON(w, http.StatusOK, "Login successful", result)
}

// HandleRefresh handles POST /auth/refresh requests.
func (h *Handler) HandleRefresh(w http.ResponseWriter, r *http.Request) {
	result, err := h.service.Refresh(r.Context())
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, "Token refreshed", result)
}

// HandleLogout handles POST /auth/logout requests.
func (h *Handler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	if err := h.service.Logout(r.Context()); err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, "Logged out", nil)
}

// HandleMe handles GET /auth/me requests.
func (h *Handler) HandleMe(w http.ResponseWriter, r *http.Request) {
	view, err := h.service.Me(r.Context())
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, "", view)
}

// HandleListUsers handles GET /users requests.
func (h *Handler) HandleListUsers(w http.ResponseWriter, r *http.Request) {
	views, err := h.service.ListUsers(r.Context())
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, "", views)
}

func targetID(r *http.Request) (domain.UserID, error) {
	id, err := domain.ParseUserID(chi.URLParam(r, "id"))
	if err != nil {
		return domain.UserID{}, dErrors.New(dErrors.CodeInvalidInput, "Invalid user id")
	}
	return id, nil
}

// HandleChangeRole handles PATCH /users/{id}/role requests.
func (h *Handler) HandleChangeRole(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, err := targetID(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	req, ok := httputil.Decode[models.ChangeRoleRequest](w, r)
	if !ok {
		return
	}

	view, err := h.service.ChangeRole(ctx, id, domain.Role(req.Role))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "user role changed",
		"request_id", requestcontext.RequestID(ctx),
		"target_id", id.String(),
		"role", req.Role,
	)
	httputil.WriteJSON(w, http.StatusOK, "Role updated", view)
}

// HandleSetActive handles PATCH /users/{id}/status requests.
func (h *Handler) HandleSetActive(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, err := targetID(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	req, ok := httputil.Decode[models.SetActiveRequest](w, r)
	if !ok {
		return
	}

	view, err := h.service.SetActive(ctx, id, req.IsActive)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "user status changed",
		"request_id", requestcontext.RequestID(ctx),
		"target_id", id.String(),
		"is_active", req.IsActive,
	)
	httputil.WriteJSON(w, http.StatusOK, "Status updated", view)
}
