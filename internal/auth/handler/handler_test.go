package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"investgate/internal/audit"
	auditmem "investgate/internal/audit/store/memory"
	"investgate/internal/auth"
	"investgate/internal/auth/service"
	userstore "investgate/internal/auth/store/user"
	"investgate/internal/platform/middleware"
	"investgate/internal/token"
	"investgate/pkg/domain"
)

type env struct {
	router   chi.Router
	svc      *service.Service
	users    *userstore.InMemoryStore
	codec    *token.Codec
	recorder *audit.Recorder
}

func newEnv(t *testing.T) *env {
	t.Helper()
	logger := slog.New(slog.DiscardHandler)
	users := userstore.New()
	codec := token.NewCodec("handler-test-key", "investgate")
	recorder := audit.NewRecorder(64, logger)
	svc := service.New(users, codec, recorder, logger)

	authenticated := middleware.RequireAuth(codec, auth.NewDirectory(users), nil, logger)
	adminOnly := middleware.RequireAtLeast(logger, domain.RoleAdmin)

	r := chi.NewRouter()
	r.Use(middleware.RequestMetadata)
	New(svc, logger).Register(r, authenticated, adminOnly)

	return &env{router: r, svc: svc, users: users, codec: codec, recorder: recorder}
}

func (e *env) do(t *testing.T, method, path, bearer string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

type envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
	Errors  []string        `json:"errors"`
}

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	return env
}

// registerAndLogin creates an account, optionally reassigns its role
// directly in the store, and returns a credential for it.
func (e *env) registerAndLogin(t *testing.T, email string, role domain.Role) (string, string) {
	t.Helper()
	rec := e.do(t, http.MethodPost, "/auth/register", "", map[string]string{
		"name": "Test User", "email": email, "password": "longenough1",
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	u, err := e.users.FindByEmail(context.Background(), email)
	require.NoError(t, err)
	if role != domain.RoleInvestor {
		u.Role = role
		require.NoError(t, e.users.Update(context.Background(), u))
	}

	signed, err := e.codec.Issue(u.ID, u.Role, time.Hour)
	require.NoError(t, err)
	return signed, u.ID.String()
}

func TestRegisterEndpoint(t *testing.T) {
	t.Run("returns created with user and token", func(t *testing.T) {
		e := newEnv(t)
		rec := e.do(t, http.MethodPost, "/auth/register", "", map[string]string{
			"name": "Jane", "email": "jane@example.com", "password": "longenough1",
		})
		require.Equal(t, http.StatusCreated, rec.Code)

		env := decodeEnvelope(t, rec)
		assert.True(t, env.Success)

		var result struct {
			User  struct{ Email, Role string }
			Token string
		}
		require.NoError(t, json.Unmarshal(env.Data, &result))
		assert.Equal(t, "jane@example.com", result.User.Email)
		assert.Equal(t, "INVESTOR", result.User.Role)

		verified, err := e.codec.Verify(result.Token)
		require.NoError(t, err)
		assert.Equal(t, domain.RoleInvestor, verified.Role)
	})

	t.Run("validation failures list every violation", func(t *testing.T) {
		e := newEnv(t)
		rec := e.do(t, http.MethodPost, "/auth/register", "", map[string]string{
			"name": "", "email": "nope", "password": "short",
		})
		require.Equal(t, http.StatusBadRequest, rec.Code)

		env := decodeEnvelope(t, rec)
		assert.False(t, env.Success)
		assert.Len(t, env.Errors, 3)
	})

	t.Run("malformed body is a bad request", func(t *testing.T) {
		e := newEnv(t)
		req := httptest.NewRequest(http.MethodPost, "/auth/register", bytes.NewBufferString("{not json"))
		rec := httptest.NewRecorder()
		e.router.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("duplicate email conflicts", func(t *testing.T) {
		e := newEnv(t)
		e.registerAndLogin(t, "dup@example.com", domain.RoleInvestor)
		rec := e.do(t, http.MethodPost, "/auth/register", "", map[string]string{
			"name": "Again", "email": "dup@example.com", "password": "longenough1",
		})
		assert.Equal(t, http.StatusConflict, rec.Code)
		assert.Equal(t, "Email is already registered", decodeEnvelope(t, rec).Message)
	})
}

func TestLoginEndpoint(t *testing.T) {
	e := newEnv(t)
	e.registerAndLogin(t, "login@example.com", domain.RoleInvestor)

	t.Run("wrong password answers the uniform message", func(t *testing.T) {
		rec := e.do(t, http.MethodPost, "/auth/login", "", map[string]string{
			"email": "login@example.com", "password": "wrongwrong",
		})
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Equal(t, "Invalid email or password", decodeEnvelope(t, rec).Message)
	})

	t.Run("valid credentials succeed", func(t *testing.T) {
		rec := e.do(t, http.MethodPost, "/auth/login", "", map[string]string{
			"email": "login@example.com", "password": "longenough1",
		})
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.True(t, decodeEnvelope(t, rec).Success)
	})
}

func TestProtectedRoutes(t *testing.T) {
	e := newEnv(t)
	investorToken, investorID := e.registerAndLogin(t, "inv@example.com", domain.RoleInvestor)
	adminToken, _ := e.registerAndLogin(t, "admin@example.com", domain.RoleAdmin)
	superToken, _ := e.registerAndLogin(t, "super@example.com", domain.RoleSuperAdmin)

	t.Run("me without a credential is unauthorized", func(t *testing.T) {
		rec := e.do(t, http.MethodGet, "/auth/me", "", nil)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Equal(t, "Authentication required", decodeEnvelope(t, rec).Message)
	})

	t.Run("me returns the caller's profile", func(t *testing.T) {
		rec := e.do(t, http.MethodGet, "/auth/me", investorToken, nil)
		require.Equal(t, http.StatusOK, rec.Code)

		var view struct{ ID, Email string }
		require.NoError(t, json.Unmarshal(decodeEnvelope(t, rec).Data, &view))
		assert.Equal(t, investorID, view.ID)
	})

	t.Run("refresh issues a fresh credential", func(t *testing.T) {
		rec := e.do(t, http.MethodPost, "/auth/refresh", investorToken, nil)
		require.Equal(t, http.StatusOK, rec.Code)

		var result struct{ Token string }
		require.NoError(t, json.Unmarshal(decodeEnvelope(t, rec).Data, &result))
		_, err := e.codec.Verify(result.Token)
		assert.NoError(t, err)
	})

	t.Run("investor cannot list users", func(t *testing.T) {
		rec := e.do(t, http.MethodGet, "/users/", investorToken, nil)
		assert.Equal(t, http.StatusForbidden, rec.Code)
		assert.Equal(t, "Insufficient permissions", decodeEnvelope(t, rec).Message)
	})

	t.Run("admin lists users", func(t *testing.T) {
		rec := e.do(t, http.MethodGet, "/users/", adminToken, nil)
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("super admin promotes the investor", func(t *testing.T) {
		rec := e.do(t, http.MethodPatch, fmt.Sprintf("/users/%s/role", investorID), superToken,
			map[string]string{"role": "OFFICER"})
		require.Equal(t, http.StatusOK, rec.Code)

		var view struct{ Role string }
		require.NoError(t, json.Unmarshal(decodeEnvelope(t, rec).Data, &view))
		assert.Equal(t, "OFFICER", view.Role)
	})

	t.Run("admin deactivates the investor", func(t *testing.T) {
		rec := e.do(t, http.MethodPatch, fmt.Sprintf("/users/%s/status", investorID), adminToken,
			map[string]any{"isActive": false})
		assert.Equal(t, http.StatusOK, rec.Code)

		// The deactivated user's credential stops working immediately.
		rec = e.do(t, http.MethodGet, "/auth/me", investorToken, nil)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("garbage user id is a bad request", func(t *testing.T) {
		rec := e.do(t, http.MethodPatch, "/users/not-a-uuid/role", superToken,
			map[string]string{"role": "OFFICER"})
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

// A broken audit pipeline must never surface to clients: requests succeed
// even when every sink write fails.
func TestAuditFailureNeverChangesResponse(t *testing.T) {
	e := newEnv(t)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	failing := audit.NamedSink{Name: "failing", Sink: failingSink{}}
	healthy := auditmem.New()
	worker := audit.NewWorker(e.recorder.Inbox(), slog.New(slog.DiscardHandler),
		failing, audit.NamedSink{Name: "memory", Sink: healthy})
	go worker.Run(ctx)

	rec := e.do(t, http.MethodPost, "/auth/register", "", map[string]string{
		"name": "Jane", "email": "audited@example.com", "password": "longenough1",
	})
	assert.Equal(t, http.StatusCreated, rec.Code)

	require.Eventually(t, func() bool {
		return len(healthy.All()) == 1
	}, 2*time.Second, 10*time.Millisecond)
}

type failingSink struct{}

func (failingSink) Append(context.Context, audit.Event) error {
	return assert.AnError
}
