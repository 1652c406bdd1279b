package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"investgate/pkg/domain"
	"investgate/pkg/requestcontext"
)

func doWithIdentity(t *testing.T, handler http.Handler, role domain.Role, withIdentity bool) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, "/admin/thing", nil)
	if withIdentity {
		ctx := requestcontext.WithIdentity(req.Context(), requestcontext.Identity{
			UserID: domain.UserID(uuid.New()),
			Role:   role,
		})
		req = req.WithContext(ctx)
	}
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func TestRequireAnyOf(t *testing.T) {
	var reached bool
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reached = true
		w.WriteHeader(http.StatusOK)
	})
	officerOnly := RequireAnyOf(testLogger(), domain.RoleOfficer, domain.RoleAdmin, domain.RoleSuperAdmin)(next)

	t.Run("allowed role passes", func(t *testing.T) {
		reached = false
		rec := doWithIdentity(t, officerOnly, domain.RoleOfficer, true)
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.True(t, reached)
	})

	t.Run("authenticated but outside the set gets 403", func(t *testing.T) {
		reached = false
		rec := doWithIdentity(t, officerOnly, domain.RoleInvestor, true)
		assert.Equal(t, http.StatusForbidden, rec.Code)
		assert.False(t, reached)
	})

	t.Run("missing identity gets 401, never 403", func(t *testing.T) {
		reached = false
		rec := doWithIdentity(t, officerOnly, domain.RoleAdmin, false)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.False(t, reached)
	})
}

func TestRequireAtLeast(t *testing.T) {
	var reached bool
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reached = true
		w.WriteHeader(http.StatusOK)
	})
	adminOrAbove := RequireAtLeast(testLogger(), domain.RoleAdmin)(next)

	cases := []struct {
		role domain.Role
		want int
	}{
		{domain.RoleInvestor, http.StatusForbidden},
		{domain.RoleOfficer, http.StatusForbidden},
		{domain.RoleAdmin, http.StatusOK},
		{domain.RoleSuperAdmin, http.StatusOK},
	}
	for _, tc := range cases {
		t.Run(tc.role.String(), func(t *testing.T) {
			reached = false
			rec := doWithIdentity(t, adminOrAbove, tc.role, true)
			assert.Equal(t, tc.want, rec.Code)
			assert.Equal(t, tc.want == http.StatusOK, reached)
		})
	}
}
