// Package middleware implements the request filters every protected route
// passes through: metadata extraction, authentication, and role checks.
package middleware

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"investgate/internal/token"
	"investgate/pkg/domain"
	dErrors "investgate/pkg/domain-errors"
	"investgate/pkg/platform/httputil"
	"investgate/pkg/platform/sentinel"
	"investgate/pkg/requestcontext"
)

// CredentialVerifier checks a bearer credential's signature, shape, and
// expiry.
type CredentialVerifier interface {
	Verify(tokenString string) (*token.Verified, error)
}

// Directory resolves a verified subject to its current active role. Missing
// and deactivated subjects both come back as sentinel.ErrNotFound.
type Directory interface {
	FindActiveByID(ctx context.Context, id domain.UserID) (domain.Role, error)
}

// RevocationChecker reports whether a credential was revoked at logout.
// A nil checker preserves pure stateless-token semantics.
type RevocationChecker interface {
	IsRevoked(ctx context.Context, jti string) (bool, error)
}

// RequireAuth authenticates every request: bearer extraction, credential
// verification, then a live directory lookup. On success the resolved
// identity is bound to the request context; every failure edge answers 401
// with the same client-facing message so callers cannot probe which check
// failed. Server logs keep the distinction.
func RequireAuth(verifier CredentialVerifier, directory Directory, revocations RevocationChecker, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			requestID := requestcontext.RequestID(ctx)

			authHeader := r.Header.Get("Authorization")
			const bearerPrefix = "Bearer "
			raw, ok := strings.CutPrefix(authHeader, bearerPrefix)
			if !ok || raw == "" {
				logger.WarnContext(ctx, "unauthenticated - missing bearer credential",
					"request_id", requestID,
				)
				httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "Authentication required"))
				return
			}

			verified, err := verifier.Verify(raw)
			if err != nil {
				// Expired vs forged matters for operators, never for clients.
				logger.WarnContext(ctx, "unauthenticated - credential rejected",
					"error", err,
					"expired", token.IsExpired(err),
					"request_id", requestID,
				)
				httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "Invalid or expired token"))
				return
			}

			if revocations != nil {
				revoked, err := revocations.IsRevoked(ctx, verified.JTI)
				if err != nil {
					logger.ErrorContext(ctx, "failed to check credential revocation",
						"error", err,
						"request_id", requestID,
					)
					httputil.WriteError(w, dErrors.Wrap(err, dErrors.CodeInternal, "failed to validate credential"))
					return
				}
				if revoked {
					logger.WarnContext(ctx, "unauthenticated - credential revoked",
						"jti", verified.JTI,
						"request_id", requestID,
					)
					httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "Invalid or expired token"))
					return
				}
			}

			role, err := directory.FindActiveByID(ctx, verified.UserID)
			if err != nil {
				if errors.Is(err, sentinel.ErrNotFound) {
					logger.WarnContext(ctx, "unauthenticated - subject missing or inactive",
						"user_id", verified.UserID.String(),
						"request_id", requestID,
					)
					httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "Invalid or expired token"))
					return
				}
				logger.ErrorContext(ctx, "directory lookup failed",
					"error", err,
					"request_id", requestID,
				)
				httputil.WriteError(w, dErrors.Wrap(err, dErrors.CodeInternal, "failed to resolve identity"))
				return
			}

			ctx = requestcontext.WithIdentity(ctx, requestcontext.Identity{
				UserID: verified.UserID,
				Role:   role,
			})
			ctx = requestcontext.WithTokenID(ctx, verified.JTI)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
