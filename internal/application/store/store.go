// Package store defines the persistence contract for applications.
// Implementations return sentinel errors; services translate them into
// domain errors.
package store

import (
	"context"

	"investgate/internal/application/models"
	"investgate/pkg/domain"
)

type ApplicationStore interface {
	Create(ctx context.Context, app *models.Application) error
	FindByID(ctx context.Context, id domain.ApplicationID) (*models.Application, error)
	ListByOwner(ctx context.Context, ownerID domain.UserID) ([]*models.Application, error)
	List(ctx context.Context) ([]*models.Application, error)
	Update(ctx context.Context, app *models.Application) error
}
