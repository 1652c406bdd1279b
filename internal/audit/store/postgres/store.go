package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	_ "github.com/lib/pq"

	"investgate/internal/audit"
	"investgate/pkg/domain"
)

// Store persists audit events to the audit_events table via database/sql.
// Inserts are idempotent per event ID so a retried append cannot duplicate
// a record.
type Store struct {
	db *sql.DB
}

func New(db *sql.DB) *Store {
	return &Store{db: db}
}

// Open dials Postgres with the pq driver. Callers own the returned handle.
func Open(url string) (*sql.DB, error) {
	db, err := sql.Open("postgres", url)
	if err != nil {
		return nil, fmt.Errorf("open audit db: %w", err)
	}
	return db, nil
}

func (s *Store) Append(ctx context.Context, event audit.Event) error {
	var changes []byte
	if event.Changes != nil {
		var err error
		changes, err = json.Marshal(event.Changes)
		if err != nil {
			return fmt.Errorf("marshal changes snapshot: %w", err)
		}
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO audit_events (id, subject_id, action, entity_type, entity_id, changes, request_id, client_ip, device, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (id) DO NOTHING
	`,
		event.ID,
		uuid.UUID(event.SubjectID),
		string(event.Action),
		event.EntityType,
		event.EntityID,
		changes,
		event.RequestID,
		event.ClientIP,
		event.Device,
		event.Timestamp.UTC(),
	)
	if err != nil {
		return fmt.Errorf("insert audit event: %w", err)
	}
	return nil
}

func (s *Store) ListBySubject(ctx context.Context, subjectID domain.UserID) ([]audit.Event, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT subject_id, action, entity_type, entity_id, changes, request_id, client_ip, device, created_at
		FROM audit_events
		WHERE subject_id = $1
		ORDER BY created_at
	`, uuid.UUID(subjectID))
	if err != nil {
		return nil, fmt.Errorf("list audit events: %w", err)
	}
	defer rows.Close()

	var out []audit.Event
	for rows.Next() {
		var (
			e       audit.Event
			subject uuid.UUID
			action  string
			changes []byte
		)
		if err := rows.Scan(&subject, &action, &e.EntityType, &e.EntityID, &changes, &e.RequestID, &e.ClientIP, &e.Device, &e.Timestamp); err != nil {
			return nil, fmt.Errorf("scan audit event: %w", err)
		}
		e.SubjectID = domain.UserID(subject)
		e.Action = audit.Action(action)
		if len(changes) > 0 {
			if err := json.Unmarshal(changes, &e.Changes); err != nil {
				return nil, fmt.Errorf("unmarshal changes snapshot: %w", err)
			}
		}
		out = append(out, e)
	}
	return out, rows.Err()
}
