// Package service creates and serves in-app notifications.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	appmodels "investgate/internal/application/models"
	"investgate/internal/notification/models"
	"investgate/internal/notification/store"
	"investgate/pkg/domain"
	dErrors "investgate/pkg/domain-errors"
	"investgate/pkg/platform/sentinel"
	"investgate/pkg/requestcontext"
)

var statusMessages = map[appmodels.Status]string{
	appmodels.StatusUnderReview: "Your application %s is now under review",
	appmodels.StatusApproved:    "Your application %s has been approved",
	appmodels.StatusRejected:    "Your application %s has been rejected",
}

type Service struct {
	notifications store.NotificationStore
	logger        *slog.Logger
}

func New(notifications store.NotificationStore, logger *slog.Logger) *Service {
	return &Service{notifications: notifications, logger: logger}
}

// ApplicationStatusChanged creates a notification for the application's
// owner. Satisfies the application service's Notifier.
func (s *Service) ApplicationStatusChanged(ctx context.Context, ownerID domain.UserID, appID domain.ApplicationID, status appmodels.Status) error {
	template, ok := statusMessages[status]
	if !ok {
		return nil
	}

	n := &models.Notification{
		ID:          domain.NotificationID(uuid.New()),
		RecipientID: ownerID,
		Message:     fmt.Sprintf(template, appID.String()),
		EntityType:  "application",
		EntityID:    appID.String(),
		CreatedAt:   requestcontext.Now(ctx),
	}
	if err := s.notifications.Create(ctx, n); err != nil {
		return fmt.Errorf("create notification: %w", err)
	}
	return nil
}

// ListOwn returns the caller's notifications, newest first.
func (s *Service) ListOwn(ctx context.Context) ([]models.View, error) {
	ident, ok := requestcontext.IdentityFrom(ctx)
	if !ok {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "Authentication required")
	}

	list, err := s.notifications.ListByRecipient(ctx, ident.UserID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list notifications")
	}

	out := make([]models.View, 0, len(list))
	for _, n := range list {
		out = append(out, n.View())
	}
	return out, nil
}

// MarkRead marks one of the caller's notifications as read. Someone
// else's notification reads as missing, never as forbidden.
func (s *Service) MarkRead(ctx context.Context, id domain.NotificationID) error {
	ident, ok := requestcontext.IdentityFrom(ctx)
	if !ok {
		return dErrors.New(dErrors.CodeUnauthorized, "Authentication required")
	}

	n, err := s.notifications.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return dErrors.New(dErrors.CodeNotFound, "Notification not found")
		}
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to look up notification")
	}
	if n.RecipientID != ident.UserID {
		return dErrors.New(dErrors.CodeNotFound, "Notification not found")
	}

	if err := s.notifications.MarkRead(ctx, id); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to mark notification read")
	}
	return nil
}
