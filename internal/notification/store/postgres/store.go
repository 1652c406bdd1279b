// Package postgres persists notifications via a pgx pool.
package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"investgate/internal/notification/models"
	"investgate/pkg/domain"
	"investgate/pkg/platform/sentinel"
)

type Store struct {
	pool *pgxpool.Pool
}

func New(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

func (s *Store) Create(ctx context.Context, n *models.Notification) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO notifications (id, recipient_id, message, entity_type, entity_id, is_read, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`,
		uuid.UUID(n.ID),
		uuid.UUID(n.RecipientID),
		n.Message,
		n.EntityType,
		n.EntityID,
		n.IsRead,
		n.CreatedAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("insert notification: %w", err)
	}
	return nil
}

func (s *Store) FindByID(ctx context.Context, id domain.NotificationID) (*models.Notification, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT id, recipient_id, message, entity_type, entity_id, is_read, created_at
		FROM notifications WHERE id = $1`, uuid.UUID(id))

	n, err := scanNotification(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("select notification: %w", err)
	}
	return n, nil
}

func (s *Store) ListByRecipient(ctx context.Context, recipientID domain.UserID) ([]*models.Notification, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, recipient_id, message, entity_type, entity_id, is_read, created_at
		FROM notifications WHERE recipient_id = $1 ORDER BY created_at DESC`, uuid.UUID(recipientID))
	if err != nil {
		return nil, fmt.Errorf("list notifications: %w", err)
	}
	defer rows.Close()

	var out []*models.Notification
	for rows.Next() {
		n, err := scanNotification(rows)
		if err != nil {
			return nil, fmt.Errorf("scan notification: %w", err)
		}
		out = append(out, n)
	}
	return out, rows.Err()
}

func (s *Store) MarkRead(ctx context.Context, id domain.NotificationID) error {
	tag, err := s.pool.Exec(ctx, `UPDATE notifications SET is_read = true WHERE id = $1`, uuid.UUID(id))
	if err != nil {
		return fmt.Errorf("mark notification read: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

func scanNotification(row pgx.Row) (*models.Notification, error) {
	var (
		n           models.Notification
		id          uuid.UUID
		recipientID uuid.UUID
	)
	if err := row.Scan(&id, &recipientID, &n.Message, &n.EntityType, &n.EntityID, &n.IsRead, &n.CreatedAt); err != nil {
		return nil, err
	}
	n.ID = domain.NotificationID(id)
	n.RecipientID = domain.UserID(recipientID)
	return &n, nil
}
