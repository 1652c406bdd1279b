// Package store declares the persistence contracts the auth service
// depends on. Implementations live in subpackages (memory, postgres) and
// report facts with sentinel errors; services translate those into coded
// domain errors.
package store

import (
	"context"

	"investgate/internal/auth/models"
	"investgate/pkg/domain"
)

type UserStore interface {
	// Create persists a new user. Returns sentinel.ErrConflict when the
	// email is already registered.
	Create(ctx context.Context, user *models.User) error
	FindByID(ctx context.Context, id domain.UserID) (*models.User, error)
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	List(ctx context.Context) ([]*models.User, error)
	// Update rewrites the mutable fields (role, active flag, name).
	Update(ctx context.Context, user *models.User) error
}
