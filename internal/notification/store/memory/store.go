// Package memory provides the in-memory notification store used by unit
// tests and local development.
package memory

import (
	"context"
	"sort"
	"sync"

	"investgate/internal/notification/models"
	"investgate/pkg/domain"
	"investgate/pkg/platform/sentinel"
)

type Store struct {
	mu   sync.RWMutex
	byID map[domain.NotificationID]*models.Notification
}

func New() *Store {
	return &Store{byID: make(map[domain.NotificationID]*models.Notification)}
}

func (s *Store) Create(_ context.Context, n *models.Notification) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.byID[n.ID]; exists {
		return sentinel.ErrConflict
	}
	cp := *n
	s.byID[n.ID] = &cp
	return nil
}

func (s *Store) FindByID(_ context.Context, id domain.NotificationID) (*models.Notification, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	n, ok := s.byID[id]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	cp := *n
	return &cp, nil
}

func (s *Store) ListByRecipient(_ context.Context, recipientID domain.UserID) ([]*models.Notification, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*models.Notification
	for _, n := range s.byID {
		if n.RecipientID == recipientID {
			cp := *n
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

func (s *Store) MarkRead(_ context.Context, id domain.NotificationID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	n, ok := s.byID[id]
	if !ok {
		return sentinel.ErrNotFound
	}
	n.IsRead = true
	return nil
}
