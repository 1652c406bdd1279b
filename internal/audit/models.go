// Package audit records immutable events for sensitive actions. Events are
// emitted after the triggering mutation commits and are persisted by a
// background worker; a failed write never surfaces to the client.
package audit

import (
	"context"
	"time"

	"github.com/google/uuid"

	"investgate/pkg/domain"
)

// Event is one append-only audit record. The ID is assigned once at record
// time so retried sink appends stay idempotent. Changes holds a snapshot of
// the mutated fields for update actions; it is never interpreted by the
// core, only stored for reporting consumers.
type Event struct {
	ID         uuid.UUID
	SubjectID  domain.UserID
	Action     Action
	EntityType string
	EntityID   string
	Changes    map[string]any
	RequestID  string
	ClientIP   string
	Device     string
	Timestamp  time.Time
}

// Action names a sensitive state-changing operation.
type Action string

const (
	ActionLogin           Action = "LOGIN"
	ActionLogout          Action = "LOGOUT"
	ActionRegister        Action = "REGISTER"
	ActionTokenRefreshed  Action = "TOKEN_REFRESHED"
	ActionUserRoleChanged Action = "USER_ROLE_CHANGED"
	ActionUserActivated   Action = "USER_ACTIVATED"
	ActionUserDeactivated Action = "USER_DEACTIVATED"
	ActionCreate          Action = "CREATE"
	ActionUpdate          Action = "UPDATE"
	ActionStatusChanged   Action = "STATUS_CHANGED"
)

// Sink receives events for persistence or forwarding. Implementations:
// the memory and Postgres stores, and the Kafka forwarder.
type Sink interface {
	Append(ctx context.Context, event Event) error
}

// Store is a queryable sink backing the admin audit listing.
type Store interface {
	Sink
	ListBySubject(ctx context.Context, subjectID domain.UserID) ([]Event, error)
}
