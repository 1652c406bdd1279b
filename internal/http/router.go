// Package http assembles the API router from the domain handlers.
package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	apphandler "investgate/internal/application/handler"
	audithandler "investgate/internal/audit/handler"
	authhandler "investgate/internal/auth/handler"
	notifhandler "investgate/internal/notification/handler"
	"investgate/internal/platform/middleware"
	"investgate/pkg/platform/httputil"
)

// HealthCheck is one named backend probe consulted by /healthz.
type HealthCheck struct {
	Name  string
	Check func(ctx context.Context) error
}

// Deps collects everything the router mounts. Middleware gates are built
// by the caller so the router stays wiring-only.
type Deps struct {
	Logger        *slog.Logger
	Auth          *authhandler.Handler
	Applications  *apphandler.Handler
	Notifications *notifhandler.Handler
	Audit         *audithandler.Handler
	Authenticated func(http.Handler) http.Handler
	AdminOnly     func(http.Handler) http.Handler
	OfficerOnly   func(http.Handler) http.Handler
	HealthChecks  []HealthCheck
}

// New builds the full API router.
func New(deps Deps) chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestMetadata)

	r.Route("/api", func(r chi.Router) {
		deps.Auth.Register(r, deps.Authenticated, deps.AdminOnly)
		deps.Applications.Register(r, deps.Authenticated, deps.OfficerOnly)
		deps.Notifications.Register(r, deps.Authenticated)
		deps.Audit.Register(r, deps.Authenticated, deps.AdminOnly)
	})

	r.Get("/healthz", healthHandler(deps.Logger, deps.HealthChecks))
	r.Handle("/metrics", promhttp.Handler())

	return r
}

// healthHandler answers 200 when every backend probe passes and 503 with
// the failing probe names otherwise.
func healthHandler(logger *slog.Logger, checks []HealthCheck) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		var failing []string
		for _, c := range checks {
			if err := c.Check(ctx); err != nil {
				logger.ErrorContext(ctx, "health check failed", "check", c.Name, "error", err)
				failing = append(failing, c.Name)
			}
		}
		if len(failing) > 0 {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusServiceUnavailable)
			_ = json.NewEncoder(w).Encode(httputil.Envelope{
				Success: false,
				Message: "unhealthy",
				Errors:  failing,
			})
			return
		}
		httputil.WriteJSON(w, http.StatusOK, "ok", nil)
	}
}
