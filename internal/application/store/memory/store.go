// Package memory provides the in-memory application store used by unit
// tests and local development.
package memory

import (
	"context"
	"sort"
	"sync"

	"investgate/internal/application/models"
	"investgate/pkg/domain"
	"investgate/pkg/platform/sentinel"
)

type Store struct {
	mu   sync.RWMutex
	byID map[domain.ApplicationID]*models.Application
}

func New() *Store {
	return &Store{byID: make(map[domain.ApplicationID]*models.Application)}
}

func (s *Store) Create(_ context.Context, app *models.Application) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.byID[app.ID]; exists {
		return sentinel.ErrConflict
	}
	cp := *app
	s.byID[app.ID] = &cp
	return nil
}

func (s *Store) FindByID(_ context.Context, id domain.ApplicationID) (*models.Application, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	app, ok := s.byID[id]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	cp := *app
	return &cp, nil
}

func (s *Store) ListByOwner(_ context.Context, ownerID domain.UserID) ([]*models.Application, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*models.Application
	for _, app := range s.byID {
		if app.OwnerID == ownerID {
			cp := *app
			out = append(out, &cp)
		}
	}
	sortByCreation(out)
	return out, nil
}

func (s *Store) List(_ context.Context) ([]*models.Application, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*models.Application, 0, len(s.byID))
	for _, app := range s.byID {
		cp := *app
		out = append(out, &cp)
	}
	sortByCreation(out)
	return out, nil
}

func (s *Store) Update(_ context.Context, app *models.Application) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.byID[app.ID]; !ok {
		return sentinel.ErrNotFound
	}
	cp := *app
	s.byID[app.ID] = &cp
	return nil
}

// Newest first, matching the Postgres ORDER BY.
func sortByCreation(apps []*models.Application) {
	sort.Slice(apps, func(i, j int) bool {
		return apps[i].CreatedAt.After(apps[j].CreatedAt)
	})
}
