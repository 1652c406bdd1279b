package service

import (
	"context"
	"log/slog"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"investgate/internal/application/models"
	"investgate/internal/application/store/memory"
	"investgate/internal/audit"
	"investgate/pkg/domain"
	dErrors "investgate/pkg/domain-errors"
	"investgate/pkg/requestcontext"
)

type notifierSpy struct {
	calls []models.Status
	err   error
}

func (n *notifierSpy) ApplicationStatusChanged(_ context.Context, _ domain.UserID, _ domain.ApplicationID, status models.Status) error {
	n.calls = append(n.calls, status)
	return n.err
}

type fixture struct {
	svc      *Service
	apps     *memory.Store
	recorder *audit.Recorder
	notifier *notifierSpy
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	apps := memory.New()
	recorder := audit.NewRecorder(32, slog.New(slog.DiscardHandler))
	notifier := &notifierSpy{}
	svc := New(apps, recorder, notifier, slog.New(slog.DiscardHandler))
	return &fixture{svc: svc, apps: apps, recorder: recorder, notifier: notifier}
}

func (f *fixture) drainAudit() []audit.Event {
	var out []audit.Event
	for {
		select {
		case e := <-f.recorder.Inbox():
			out = append(out, e)
		default:
			return out
		}
	}
}

func identityCtx(userID domain.UserID, role domain.Role) context.Context {
	return requestcontext.WithIdentity(context.Background(), requestcontext.Identity{
		UserID: userID,
		Role:   role,
	})
}

func validCreate() *models.CreateRequest {
	return &models.CreateRequest{
		Title:            "Textile plant expansion",
		Sector:           "Manufacturing",
		InvestmentAmount: 500_000,
		Description:      "Second production line",
	}
}

func (f *fixture) submit(t *testing.T, owner domain.UserID) *models.View {
	t.Helper()
	view, err := f.svc.Create(identityCtx(owner, domain.RoleInvestor), validCreate())
	require.NoError(t, err)
	f.drainAudit()
	return view
}

func parseAppID(t *testing.T, view *models.View) domain.ApplicationID {
	t.Helper()
	id, err := domain.ParseApplicationID(view.ID)
	require.NoError(t, err)
	return id
}

func TestCreate(t *testing.T) {
	t.Run("submits in SUBMITTED and audits creation", func(t *testing.T) {
		f := newFixture(t)
		owner := domain.UserID(uuid.New())

		view, err := f.svc.Create(identityCtx(owner, domain.RoleInvestor), validCreate())
		require.NoError(t, err)
		assert.Equal(t, "SUBMITTED", view.Status)
		assert.Equal(t, owner.String(), view.OwnerID)

		events := f.drainAudit()
		require.Len(t, events, 1)
		assert.Equal(t, audit.ActionCreate, events[0].Action)
		assert.Equal(t, "application", events[0].EntityType)
	})

	t.Run("requires authentication", func(t *testing.T) {
		f := newFixture(t)
		_, err := f.svc.Create(context.Background(), validCreate())
		assert.True(t, dErrors.HasCode(err, dErrors.CodeUnauthorized))
	})

	t.Run("collects validation violations", func(t *testing.T) {
		f := newFixture(t)
		_, err := f.svc.Create(identityCtx(domain.UserID(uuid.New()), domain.RoleInvestor), &models.CreateRequest{
			Title:            "",
			Sector:           "",
			InvestmentAmount: -1,
		})
		var de *dErrors.Error
		require.ErrorAs(t, err, &de)
		assert.Len(t, de.Violations, 3)
	})
}

func TestList(t *testing.T) {
	f := newFixture(t)
	alice := domain.UserID(uuid.New())
	bob := domain.UserID(uuid.New())
	f.submit(t, alice)
	f.submit(t, alice)
	f.submit(t, bob)

	t.Run("investor sees only their own", func(t *testing.T) {
		views, err := f.svc.List(identityCtx(alice, domain.RoleInvestor))
		require.NoError(t, err)
		assert.Len(t, views, 2)
	})

	t.Run("officer sees everything", func(t *testing.T) {
		views, err := f.svc.List(identityCtx(domain.UserID(uuid.New()), domain.RoleOfficer))
		require.NoError(t, err)
		assert.Len(t, views, 3)
	})
}

func TestGet(t *testing.T) {
	f := newFixture(t)
	owner := domain.UserID(uuid.New())
	view := f.submit(t, owner)
	id := parseAppID(t, view)

	t.Run("owner reads their application", func(t *testing.T) {
		got, err := f.svc.Get(identityCtx(owner, domain.RoleInvestor), id)
		require.NoError(t, err)
		assert.Equal(t, view.ID, got.ID)
	})

	t.Run("other investor gets not found, not forbidden", func(t *testing.T) {
		_, err := f.svc.Get(identityCtx(domain.UserID(uuid.New()), domain.RoleInvestor), id)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeNotFound))
	})

	t.Run("officer reads any application", func(t *testing.T) {
		_, err := f.svc.Get(identityCtx(domain.UserID(uuid.New()), domain.RoleOfficer), id)
		assert.NoError(t, err)
	})
}

func TestUpdate(t *testing.T) {
	t.Run("owner amends a submitted application with a change snapshot", func(t *testing.T) {
		f := newFixture(t)
		owner := domain.UserID(uuid.New())
		id := parseAppID(t, f.submit(t, owner))

		req := &models.UpdateRequest{
			Title:            "Textile plant expansion",
			Sector:           "Manufacturing",
			InvestmentAmount: 750_000,
			Description:      "Second production line",
		}
		view, err := f.svc.Update(identityCtx(owner, domain.RoleInvestor), id, req)
		require.NoError(t, err)
		assert.Equal(t, int64(750_000), view.InvestmentAmount)

		events := f.drainAudit()
		require.Len(t, events, 1)
		assert.Equal(t, audit.ActionUpdate, events[0].Action)
		assert.Contains(t, events[0].Changes, "investmentAmount")
		assert.NotContains(t, events[0].Changes, "title")
	})

	t.Run("non-owner cannot amend", func(t *testing.T) {
		f := newFixture(t)
		id := parseAppID(t, f.submit(t, domain.UserID(uuid.New())))

		_, err := f.svc.Update(identityCtx(domain.UserID(uuid.New()), domain.RoleInvestor), id, &models.UpdateRequest{
			Title: "x", Sector: "y", InvestmentAmount: 1,
		})
		assert.True(t, dErrors.HasCode(err, dErrors.CodeNotFound))
	})

	t.Run("amending after review starts conflicts", func(t *testing.T) {
		f := newFixture(t)
		owner := domain.UserID(uuid.New())
		id := parseAppID(t, f.submit(t, owner))

		officer := identityCtx(domain.UserID(uuid.New()), domain.RoleOfficer)
		_, err := f.svc.Transition(officer, id, models.StatusUnderReview, "")
		require.NoError(t, err)
		f.drainAudit()

		_, err = f.svc.Update(identityCtx(owner, domain.RoleInvestor), id, &models.UpdateRequest{
			Title: "x", Sector: "y", InvestmentAmount: 1,
		})
		assert.True(t, dErrors.HasCode(err, dErrors.CodeConflict))
	})
}

func TestTransition(t *testing.T) {
	t.Run("officer moves to under review and the owner is notified", func(t *testing.T) {
		f := newFixture(t)
		id := parseAppID(t, f.submit(t, domain.UserID(uuid.New())))

		view, err := f.svc.Transition(identityCtx(domain.UserID(uuid.New()), domain.RoleOfficer), id, models.StatusUnderReview, "")
		require.NoError(t, err)
		assert.Equal(t, "UNDER_REVIEW", view.Status)

		events := f.drainAudit()
		require.Len(t, events, 1)
		assert.Equal(t, audit.ActionStatusChanged, events[0].Action)
		assert.Equal(t, map[string]any{"from": "SUBMITTED", "to": "UNDER_REVIEW"}, events[0].Changes["status"])
		assert.Equal(t, []models.Status{models.StatusUnderReview}, f.notifier.calls)
	})

	t.Run("approval records the review note", func(t *testing.T) {
		f := newFixture(t)
		id := parseAppID(t, f.submit(t, domain.UserID(uuid.New())))
		officer := identityCtx(domain.UserID(uuid.New()), domain.RoleOfficer)

		_, err := f.svc.Transition(officer, id, models.StatusUnderReview, "")
		require.NoError(t, err)
		view, err := f.svc.Transition(officer, id, models.StatusApproved, "meets all criteria")
		require.NoError(t, err)
		assert.Equal(t, "meets all criteria", view.ReviewNote)
	})

	t.Run("investor cannot transition", func(t *testing.T) {
		f := newFixture(t)
		owner := domain.UserID(uuid.New())
		id := parseAppID(t, f.submit(t, owner))

		_, err := f.svc.Transition(identityCtx(owner, domain.RoleInvestor), id, models.StatusUnderReview, "")
		assert.True(t, dErrors.HasCode(err, dErrors.CodeForbidden))
	})

	t.Run("skipping review conflicts", func(t *testing.T) {
		f := newFixture(t)
		id := parseAppID(t, f.submit(t, domain.UserID(uuid.New())))

		_, err := f.svc.Transition(identityCtx(domain.UserID(uuid.New()), domain.RoleOfficer), id, models.StatusApproved, "")
		assert.True(t, dErrors.HasCode(err, dErrors.CodeConflict))
	})

	t.Run("terminal states never move again", func(t *testing.T) {
		f := newFixture(t)
		id := parseAppID(t, f.submit(t, domain.UserID(uuid.New())))
		officer := identityCtx(domain.UserID(uuid.New()), domain.RoleOfficer)

		_, err := f.svc.Transition(officer, id, models.StatusUnderReview, "")
		require.NoError(t, err)
		_, err = f.svc.Transition(officer, id, models.StatusRejected, "incomplete")
		require.NoError(t, err)

		_, err = f.svc.Transition(officer, id, models.StatusApproved, "")
		assert.True(t, dErrors.HasCode(err, dErrors.CodeConflict))
	})

	t.Run("unknown status is invalid input", func(t *testing.T) {
		f := newFixture(t)
		id := parseAppID(t, f.submit(t, domain.UserID(uuid.New())))

		_, err := f.svc.Transition(identityCtx(domain.UserID(uuid.New()), domain.RoleOfficer), id, models.Status("PENDING"), "")
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})

	t.Run("notifier failure never fails the transition", func(t *testing.T) {
		f := newFixture(t)
		f.notifier.err = assert.AnError
		id := parseAppID(t, f.submit(t, domain.UserID(uuid.New())))

		view, err := f.svc.Transition(identityCtx(domain.UserID(uuid.New()), domain.RoleOfficer), id, models.StatusUnderReview, "")
		require.NoError(t, err)
		assert.Equal(t, "UNDER_REVIEW", view.Status)
	})
}
