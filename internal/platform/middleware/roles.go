package middleware

import (
	"log/slog"
	"net/http"

	"investgate/pkg/domain"
	dErrors "investgate/pkg/domain-errors"
	"investgate/pkg/platform/httputil"
	"investgate/pkg/requestcontext"
)

// RequireAnyOf passes requests whose identity holds one of the allowed
// roles. A request with no identity gets 401, not 403: authorization must
// never run without a prior successful authentication, so a missing
// identity means the chain was mis-wired or the gate was bypassed.
func RequireAnyOf(logger *slog.Logger, roles ...domain.Role) func(http.Handler) http.Handler {
	allowed := make(map[domain.Role]struct{}, len(roles))
	for _, r := range roles {
		allowed[r] = struct{}{}
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			ident, ok := requestcontext.IdentityFrom(ctx)
			if !ok {
				logger.ErrorContext(ctx, "authorization reached without identity - authentication gate missing upstream",
					"path", r.URL.Path,
					"request_id", requestcontext.RequestID(ctx),
				)
				httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "Authentication required"))
				return
			}

			if _, ok := allowed[ident.Role]; !ok {
				logger.WarnContext(ctx, "forbidden - role not allowed",
					"role", ident.Role.String(),
					"path", r.URL.Path,
					"request_id", requestcontext.RequestID(ctx),
				)
				httputil.WriteError(w, dErrors.New(dErrors.CodeForbidden, "Insufficient permissions"))
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// RequireAtLeast derives the allowed set from the role privilege table, so
// "officer-or-above" stays correct if the hierarchy ever grows.
func RequireAtLeast(logger *slog.Logger, min domain.Role) func(http.Handler) http.Handler {
	return RequireAnyOf(logger, domain.RolesAtLeast(min)...)
}
