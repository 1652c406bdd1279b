// Package service implements the application review workflow: investors
// submit and amend, officers move applications through the review machine.
package service

import (
	"context"
	"errors"
	"log/slog"

	"github.com/asaskevich/govalidator"
	"github.com/google/uuid"

	"investgate/internal/application/models"
	"investgate/internal/application/store"
	"investgate/internal/audit"
	"investgate/pkg/domain"
	dErrors "investgate/pkg/domain-errors"
	"investgate/pkg/platform/sentinel"
	"investgate/pkg/requestcontext"
)

// Notifier tells an application's owner about a review decision. Delivery
// is best-effort: a failure is logged, never propagated.
type Notifier interface {
	ApplicationStatusChanged(ctx context.Context, ownerID domain.UserID, appID domain.ApplicationID, status models.Status) error
}

type Service struct {
	apps     store.ApplicationStore
	recorder *audit.Recorder
	notifier Notifier
	logger   *slog.Logger
}

func New(apps store.ApplicationStore, recorder *audit.Recorder, notifier Notifier, logger *slog.Logger) *Service {
	return &Service{apps: apps, recorder: recorder, notifier: notifier, logger: logger}
}

func validateFields(title, sector string, amount int64) error {
	var violations []string
	if !govalidator.StringLength(title, "1", "255") {
		violations = append(violations, "title is required")
	}
	if !govalidator.StringLength(sector, "1", "100") {
		violations = append(violations, "sector is required")
	}
	if amount <= 0 {
		violations = append(violations, "investment amount must be positive")
	}
	if len(violations) > 0 {
		return dErrors.Validation(violations)
	}
	return nil
}

// Create submits a new application owned by the caller. It starts in
// SUBMITTED and is audited as a creation.
func (s *Service) Create(ctx context.Context, req *models.CreateRequest) (*models.View, error) {
	ident, ok := requestcontext.IdentityFrom(ctx)
	if !ok {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "Authentication required")
	}
	if req == nil {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "request is required")
	}
	if err := validateFields(req.Title, req.Sector, req.InvestmentAmount); err != nil {
		return nil, err
	}

	now := requestcontext.Now(ctx)
	app := &models.Application{
		ID:               domain.ApplicationID(uuid.New()),
		OwnerID:          ident.UserID,
		Title:            req.Title,
		Sector:           req.Sector,
		InvestmentAmount: req.InvestmentAmount,
		Description:      req.Description,
		Status:           models.StatusSubmitted,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	if err := s.apps.Create(ctx, app); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to create application")
	}

	s.recorder.Record(ctx, audit.Event{
		SubjectID:  ident.UserID,
		Action:     audit.ActionCreate,
		EntityType: "application",
		EntityID:   app.ID.String(),
	})

	v := app.View()
	return &v, nil
}

// List returns the caller's own applications for investors and every
// application for officer-or-above.
func (s *Service) List(ctx context.Context) ([]models.View, error) {
	ident, ok := requestcontext.IdentityFrom(ctx)
	if !ok {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "Authentication required")
	}

	var (
		apps []*models.Application
		err  error
	)
	if ident.Role.AtLeast(domain.RoleOfficer) {
		apps, err = s.apps.List(ctx)
	} else {
		apps, err = s.apps.ListByOwner(ctx, ident.UserID)
	}
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list applications")
	}

	out := make([]models.View, 0, len(apps))
	for _, app := range apps {
		out = append(out, app.View())
	}
	return out, nil
}

// Get returns one application to its owner or to officer-or-above. Other
// callers get NotFound rather than Forbidden so applications cannot be
// enumerated by id.
func (s *Service) Get(ctx context.Context, id domain.ApplicationID) (*models.View, error) {
	ident, ok := requestcontext.IdentityFrom(ctx)
	if !ok {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "Authentication required")
	}

	app, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	if app.OwnerID != ident.UserID && !ident.Role.AtLeast(domain.RoleOfficer) {
		return nil, dErrors.New(dErrors.CodeNotFound, "Application not found")
	}
	v := app.View()
	return &v, nil
}

// Update amends an application's fields. Only the owner may update, and
// only while the application is still SUBMITTED.
func (s *Service) Update(ctx context.Context, id domain.ApplicationID, req *models.UpdateRequest) (*models.View, error) {
	ident, ok := requestcontext.IdentityFrom(ctx)
	if !ok {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "Authentication required")
	}
	if req == nil {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "request is required")
	}
	if err := validateFields(req.Title, req.Sector, req.InvestmentAmount); err != nil {
		return nil, err
	}

	app, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	if app.OwnerID != ident.UserID {
		return nil, dErrors.New(dErrors.CodeNotFound, "Application not found")
	}
	if app.Status != models.StatusSubmitted {
		return nil, dErrors.New(dErrors.CodeConflict, "Application is already under review")
	}

	changes := diff(app, req)
	app.Title = req.Title
	app.Sector = req.Sector
	app.InvestmentAmount = req.InvestmentAmount
	app.Description = req.Description
	app.UpdatedAt = requestcontext.Now(ctx)
	if err := s.apps.Update(ctx, app); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to update application")
	}

	if len(changes) > 0 {
		s.recorder.Record(ctx, audit.Event{
			SubjectID:  ident.UserID,
			Action:     audit.ActionUpdate,
			EntityType: "application",
			EntityID:   app.ID.String(),
			Changes:    changes,
		})
	}

	v := app.View()
	return &v, nil
}

// Transition moves an application through the review machine. Requires
// officer-or-above; the route-level gate enforces this, and the check here
// keeps the rule intact if the service is reused behind another transport.
func (s *Service) Transition(ctx context.Context, id domain.ApplicationID, next models.Status, note string) (*models.View, error) {
	ident, ok := requestcontext.IdentityFrom(ctx)
	if !ok {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "Authentication required")
	}
	if !ident.Role.AtLeast(domain.RoleOfficer) {
		return nil, dErrors.New(dErrors.CodeForbidden, "Insufficient permissions")
	}
	if !next.Valid() {
		return nil, dErrors.Newf(dErrors.CodeInvalidInput, "unknown status: %s", next)
	}

	app, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	if !app.Status.CanTransition(next) {
		return nil, dErrors.Newf(dErrors.CodeConflict, "Cannot move application from %s to %s", app.Status, next)
	}

	previous := app.Status
	app.Status = next
	app.ReviewNote = note
	app.UpdatedAt = requestcontext.Now(ctx)
	if err := s.apps.Update(ctx, app); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to update application")
	}

	s.recorder.Record(ctx, audit.Event{
		SubjectID:  ident.UserID,
		Action:     audit.ActionStatusChanged,
		EntityType: "application",
		EntityID:   app.ID.String(),
		Changes: map[string]any{
			"status": map[string]any{"from": previous.String(), "to": next.String()},
		},
	})

	if s.notifier != nil {
		if err := s.notifier.ApplicationStatusChanged(ctx, app.OwnerID, app.ID, next); err != nil {
			s.logger.ErrorContext(ctx, "failed to notify application owner",
				"error", err,
				"application_id", app.ID.String(),
				"request_id", requestcontext.RequestID(ctx),
			)
		}
	}

	v := app.View()
	return &v, nil
}

func (s *Service) find(ctx context.Context, id domain.ApplicationID) (*models.Application, error) {
	app, err := s.apps.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "Application not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to look up application")
	}
	return app, nil
}

func diff(app *models.Application, req *models.UpdateRequest) map[string]any {
	changes := make(map[string]any)
	if app.Title != req.Title {
		changes["title"] = map[string]any{"from": app.Title, "to": req.Title}
	}
	if app.Sector != req.Sector {
		changes["sector"] = map[string]any{"from": app.Sector, "to": req.Sector}
	}
	if app.InvestmentAmount != req.InvestmentAmount {
		changes["investmentAmount"] = map[string]any{"from": app.InvestmentAmount, "to": req.InvestmentAmount}
	}
	if app.Description != req.Description {
		changes["description"] = map[string]any{"from": app.Description, "to": req.Description}
	}
	return changes
}
