package models

import (
	"time"

	"investgate/pkg/domain"
)

// User is the directory record behind every authenticated request.
// PasswordHash never leaves the auth service.
type User struct {
	ID           domain.UserID
	Email        string
	Name         string
	PasswordHash string
	Role         domain.Role
	IsActive     bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// View is the client-facing projection of a user record.
type View struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	Role      string    `json:"role"`
	IsActive  bool      `json:"isActive"`
	CreatedAt time.Time `json:"createdAt"`
}

func (u *User) View() View {
	return View{
		ID:        u.ID.String(),
		Email:     u.Email,
		Name:      u.Name,
		Role:      u.Role.String(),
		IsActive:  u.IsActive,
		CreatedAt: u.CreatedAt,
	}
}

type RegisterRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// AuthResult pairs the user projection with a freshly issued credential.
type AuthResult struct {
	User  View   `json:"user"`
	Token string `json:"token"`
}

type ChangeRoleRequest struct {
	Role string `json:"role"`
}

type SetActiveRequest struct {
	IsActive bool `json:"isActive"`
}
