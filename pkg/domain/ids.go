package domain

import (
	"github.com/google/uuid"

	dErrors "investgate/pkg/domain-errors"
)

// Typed IDs prevent cross-entity assignment at compile time. All IDs are
// UUIDs under the hood; parsing enforces "valid, non-empty, non-nil" at
// trust boundaries.
type (
	UserID         uuid.UUID
	ApplicationID  uuid.UUID
	NotificationID uuid.UUID
)

func parseUUID(raw, what string) (uuid.UUID, error) {
	if raw == "" {
		return uuid.Nil, dErrors.Newf(dErrors.CodeInvalidInput, "%s is required", what)
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, dErrors.Newf(dErrors.CodeInvalidInput, "invalid %s", what)
	}
	if id == uuid.Nil {
		return uuid.Nil, dErrors.Newf(dErrors.CodeInvalidInput, "invalid %s", what)
	}
	return id, nil
}

func ParseUserID(raw string) (UserID, error) {
	id, err := parseUUID(raw, "user id")
	return UserID(id), err
}

func ParseApplicationID(raw string) (ApplicationID, error) {
	id, err := parseUUID(raw, "application id")
	return ApplicationID(id), err
}

func ParseNotificationID(raw string) (NotificationID, error) {
	id, err := parseUUID(raw, "notification id")
	return NotificationID(id), err
}

func (id UserID) String() string         { return uuid.UUID(id).String() }
func (id ApplicationID) String() string  { return uuid.UUID(id).String() }
func (id NotificationID) String() string { return uuid.UUID(id).String() }

func (id UserID) IsNil() bool         { return uuid.UUID(id) == uuid.Nil }
func (id ApplicationID) IsNil() bool  { return uuid.UUID(id) == uuid.Nil }
func (id NotificationID) IsNil() bool { return uuid.UUID(id) == uuid.Nil }
