// Package models defines in-app notifications delivered to users when
// something they own changes state.
package models

import (
	"time"

	"investgate/pkg/domain"
)

type Notification struct {
	ID          domain.NotificationID
	RecipientID domain.UserID
	Message     string
	EntityType  string
	EntityID    string
	IsRead      bool
	CreatedAt   time.Time
}

type View struct {
	ID         string    `json:"id"`
	Message    string    `json:"message"`
	EntityType string    `json:"entityType,omitempty"`
	EntityID   string    `json:"entityId,omitempty"`
	IsRead     bool      `json:"isRead"`
	CreatedAt  time.Time `json:"createdAt"`
}

func (n *Notification) View() View {
	return View{
		ID:         n.ID.String(),
		Message:    n.Message,
		EntityType: n.EntityType,
		EntityID:   n.EntityID,
		IsRead:     n.IsRead,
		CreatedAt:  n.CreatedAt,
	}
}
