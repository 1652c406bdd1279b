// Package auth hosts the user directory, the auth service, and their
// storage contracts.
package auth

import (
	"context"
	"errors"

	"investgate/internal/auth/store"
	"investgate/pkg/domain"
	"investgate/pkg/platform/sentinel"
)

// Directory resolves a verified subject to its current role, consulting the
// live user store on every request. A missing record and a deactivated one
// are indistinguishable to callers: both are ErrNotFound, so the caller's
// only possible verdict is "not authenticated".
type Directory struct {
	users store.UserStore
}

func NewDirectory(users store.UserStore) *Directory {
	return &Directory{users: users}
}

// FindActiveByID returns the role of an active user, or sentinel.ErrNotFound.
func (d *Directory) FindActiveByID(ctx context.Context, id domain.UserID) (domain.Role, error) {
	u, err := d.users.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return "", sentinel.ErrNotFound
		}
		return "", err
	}
	if !u.IsActive {
		return "", sentinel.ErrNotFound
	}
	return u.Role, nil
}
