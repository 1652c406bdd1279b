package service

import (
	"context"
	"errors"

	"investgate/internal/audit"
	"investgate/internal/auth/models"
	"investgate/pkg/domain"
	dErrors "investgate/pkg/domain-errors"
	"investgate/pkg/platform/sentinel"
	"investgate/pkg/requestcontext"
)

// ListUsers returns every directory record. Route-level authorization
// restricts this to admin-or-above.
func (s *Service) ListUsers(ctx context.Context) ([]models.View, error) {
	users, err := s.users.List(ctx)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list users")
	}
	out := make([]models.View, 0, len(users))
	for _, u := range users {
		out = append(out, u.View())
	}
	return out, nil
}

// canAdminister enforces the escalation rule: touching an ADMIN or
// SUPER_ADMIN account, or granting a role at ADMIN or above, takes a
// SUPER_ADMIN actor. Plain admins manage investors and officers only.
func canAdminister(actor domain.Role, target domain.Role, granting domain.Role) bool {
	if actor == domain.RoleSuperAdmin {
		return true
	}
	if target.AtLeast(domain.RoleAdmin) {
		return false
	}
	if granting != "" && granting.AtLeast(domain.RoleAdmin) {
		return false
	}
	return true
}

// ChangeRole reassigns a user's role and audits the transition.
func (s *Service) ChangeRole(ctx context.Context, targetID domain.UserID, newRole domain.Role) (*models.View, error) {
	ident, ok := requestcontext.IdentityFrom(ctx)
	if !ok {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "Authentication required")
	}
	if !newRole.Valid() {
		return nil, dErrors.Newf(dErrors.CodeInvalidInput, "unknown role: %s", newRole)
	}
	if ident.UserID == targetID {
		return nil, dErrors.New(dErrors.CodeForbidden, "Cannot change your own role")
	}

	target, err := s.users.FindByID(ctx, targetID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "User not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to look up user")
	}

	if !canAdminister(ident.Role, target.Role, newRole) {
		return nil, dErrors.New(dErrors.CodeForbidden, "Insufficient permissions")
	}

	oldRole := target.Role
	if oldRole == newRole {
		v := target.View()
		return &v, nil
	}

	target.Role = newRole
	target.UpdatedAt = requestcontext.Now(ctx)
	if err := s.users.Update(ctx, target); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to update user")
	}

	s.recorder.Record(ctx, audit.Event{
		SubjectID:  ident.UserID,
		Action:     audit.ActionUserRoleChanged,
		EntityType: "user",
		EntityID:   target.ID.String(),
		Changes: map[string]any{
			"role": map[string]any{"from": oldRole.String(), "to": newRole.String()},
		},
	})

	v := target.View()
	return &v, nil
}

// SetActive flips the active flag. Deactivation is what actually locks an
// account out: the authentication gate re-reads the flag on every request.
func (s *Service) SetActive(ctx context.Context, targetID domain.UserID, active bool) (*models.View, error) {
	ident, ok := requestcontext.IdentityFrom(ctx)
	if !ok {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "Authentication required")
	}
	if ident.UserID == targetID {
		return nil, dErrors.New(dErrors.CodeForbidden, "Cannot change your own account status")
	}

	target, err := s.users.FindByID(ctx, targetID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "User not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to look up user")
	}

	if !canAdminister(ident.Role, target.Role, "") {
		return nil, dErrors.New(dErrors.CodeForbidden, "Insufficient permissions")
	}

	if target.IsActive == active {
		v := target.View()
		return &v, nil
	}

	target.IsActive = active
	target.UpdatedAt = requestcontext.Now(ctx)
	if err := s.users.Update(ctx, target); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to update user")
	}

	action := audit.ActionUserDeactivated
	if active {
		action = audit.ActionUserActivated
	}
	s.recorder.Record(ctx, audit.Event{
		SubjectID:  ident.UserID,
		Action:     action,
		EntityType: "user",
		EntityID:   target.ID.String(),
		Changes:    map[string]any{"isActive": map[string]any{"from": !active, "to": active}},
	})

	v := target.View()
	return &v, nil
}
