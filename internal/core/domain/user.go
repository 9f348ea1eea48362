package domain

import (
	"errors"
	"time"
)

// Plan is a subscription tier.
type Plan string

const (
	PlanStarter Plan = "starter"
	PlanPro     Plan = "pro"
	PlanScale   Plan = "scale"
)

var (
	ErrUserNotFound       = errors.New("user not found")
	ErrUserExists         = errors.New("user already exists")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrInvalidPlan        = errors.New("invalid plan")
	ErrEmptyName          = errors.New("name is required")

	// ErrAuth is returned when the session store refuses to create an identity.
	ErrAuth = errors.New("failed to sign up")
	// ErrProfile is returned when the identity exists but its profile row could not be written.
	ErrProfile = errors.New("failed to create user profile")
	ErrLogout  = errors.New("failed to logout")
	ErrUpdate  = errors.New("failed to update plan")
)

// PlanInfo is the display data for a plan card.
type PlanInfo struct {
	Plan  Plan
	Name  string
	Price string
}

// Plans lists the catalog in display order.
var Plans = []PlanInfo{
	{Plan: PlanStarter, Name: "Starter", Price: "$19/mo"},
	{Plan: PlanPro, Name: "Pro", Price: "$49/mo"},
	{Plan: PlanScale, Name: "Scale", Price: "$99/mo"},
}

// ParsePlan validates s against the catalog.
func ParsePlan(s string) (Plan, error) {
	switch p := Plan(s); p {
	case PlanStarter, PlanPro, PlanScale:
		return p, nil
	}
	return "", ErrInvalidPlan
}

// Info returns the catalog entry for p. ok is false for unknown plans.
func (p Plan) Info() (PlanInfo, bool) {
	for _, info := range Plans {
		if info.Plan == p {
			return info, true
		}
	}
	return PlanInfo{}, false
}

// User is the profile row owned by the relational store.
type User struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	Plan      *Plan     `json:"plan,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}
