// Package models defines investment applications and their review
// lifecycle.
package models

import (
	"time"

	"investgate/pkg/domain"
)

// Status is the review state of an application. The lifecycle is a fixed
// machine: SUBMITTED -> UNDER_REVIEW -> APPROVED | REJECTED. Terminal
// states never transition again.
type Status string

const (
	StatusSubmitted   Status = "SUBMITTED"
	StatusUnderReview Status = "UNDER_REVIEW"
	StatusApproved    Status = "APPROVED"
	StatusRejected    Status = "REJECTED"
)

var transitions = map[Status][]Status{
	StatusSubmitted:   {StatusUnderReview},
	StatusUnderReview: {StatusApproved, StatusRejected},
}

func (s Status) Valid() bool {
	switch s {
	case StatusSubmitted, StatusUnderReview, StatusApproved, StatusRejected:
		return true
	}
	return false
}

// CanTransition reports whether the machine allows moving to next.
func (s Status) CanTransition(next Status) bool {
	for _, allowed := range transitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

func (s Status) String() string { return string(s) }

// Application is one investment application owned by an investor.
type Application struct {
	ID               domain.ApplicationID
	OwnerID          domain.UserID
	Title            string
	Sector           string
	InvestmentAmount int64
	Description      string
	Status           Status
	ReviewNote       string
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// View is the client-facing projection.
type View struct {
	ID               string    `json:"id"`
	OwnerID          string    `json:"ownerId"`
	Title            string    `json:"title"`
	Sector           string    `json:"sector"`
	InvestmentAmount int64     `json:"investmentAmount"`
	Description      string    `json:"description"`
	Status           string    `json:"status"`
	ReviewNote       string    `json:"reviewNote,omitempty"`
	CreatedAt        time.Time `json:"createdAt"`
	UpdatedAt        time.Time `json:"updatedAt"`
}

func (a *Application) View() View {
	return View{
		ID:               a.ID.String(),
		OwnerID:          a.OwnerID.String(),
		Title:            a.Title,
		Sector:           a.Sector,
		InvestmentAmount: a.InvestmentAmount,
		Description:      a.Description,
		Status:           a.Status.String(),
		ReviewNote:       a.ReviewNote,
		CreatedAt:        a.CreatedAt,
		UpdatedAt:        a.UpdatedAt,
	}
}

type CreateRequest struct {
	Title            string `json:"title"`
	Sector           string `json:"sector"`
	InvestmentAmount int64  `json:"investmentAmount"`
	Description      string `json:"description"`
}

type UpdateRequest struct {
	Title            string `json:"title"`
	Sector           string `json:"sector"`
	InvestmentAmount int64  `json:"investmentAmount"`
	Description      string `json:"description"`
}

type TransitionRequest struct {
	Status     string `json:"status"`
	ReviewNote string `json:"reviewNote"`
}
