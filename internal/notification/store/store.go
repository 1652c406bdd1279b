// Package store defines the persistence contract for notifications.
package store

import (
	"context"

	"investgate/internal/notification/models"
	"investgate/pkg/domain"
)

type NotificationStore interface {
	Create(ctx context.Context, n *models.Notification) error
	FindByID(ctx context.Context, id domain.NotificationID) (*models.Notification, error)
	ListByRecipient(ctx context.Context, recipientID domain.UserID) ([]*models.Notification, error)
	MarkRead(ctx context.Context, id domain.NotificationID) error
}
