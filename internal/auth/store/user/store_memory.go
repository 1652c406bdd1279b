package user

import (
	"context"
	"strings"
	"sync"

	"investgate/internal/auth/models"
	"investgate/pkg/domain"
	"investgate/pkg/platform/sentinel"
)

// InMemoryStore keeps users in a map guarded by a mutex. It backs unit
// tests and local development; production uses the Postgres store.
type InMemoryStore struct {
	mu      sync.RWMutex
	byID    map[domain.UserID]*models.User
	byEmail map[string]domain.UserID
}

func New() *InMemoryStore {
	return &InMemoryStore{
		byID:    make(map[domain.UserID]*models.User),
		byEmail: make(map[string]domain.UserID),
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (s *InMemoryStore) Create(_ context.Context, user *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := normalizeEmail(user.Email)
	if _, exists := s.byEmail[key]; exists {
		return sentinel.ErrConflict
	}
	cp := *user
	s.byID[user.ID] = &cp
	s.byEmail[key] = user.ID
	return nil
}

func (s *InMemoryStore) FindByID(_ context.Context, id domain.UserID) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	u, ok := s.byID[id]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (s *InMemoryStore) FindByEmail(_ context.Context, email string) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.byEmail[normalizeEmail(email)]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	cp := *s.byID[id]
	return &cp, nil
}

func (s *InMemoryStore) List(_ context.Context) ([]*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*models.User, 0, len(s.byID))
	for _, u := range s.byID {
		cp := *u
		out = append(out, &cp)
	}
	return out, nil
}

func (s *InMemoryStore) Update(_ context.Context, user *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.byID[user.ID]; !ok {
		return sentinel.ErrNotFound
	}
	cp := *user
	s.byID[user.ID] = &cp
	return nil
}
