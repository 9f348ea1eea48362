package handler

import (
	"strings"

	"github.com/celanai/celan/internal/core/domain"
)

// errorResponse is the standard error envelope returned on all 4xx/5xx responses.
type errorResponse struct {
	Error string `json:"error"`
}

// --- Auth ---

type signupRequest struct {
	Email    string `json:"email"    validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
	Name     string `json:"name"     validate:"required"`
	Plan     string `json:"plan"     validate:"omitempty,oneof=starter pro scale"`
}

func (r *signupRequest) normalize() {
	r.Email = strings.TrimSpace(r.Email)
	r.Name = strings.TrimSpace(r.Name)
}

type loginRequest struct {
	Email    string `json:"email"    validate:"required"`
	Password string `json:"password" validate:"required"`
}

type userResponse struct {
	User *domain.User `json:"user"`
}

type updatePlanRequest struct {
	Plan string `json:"plan" validate:"required,oneof=starter pro scale"`
}

// --- Agents ---

type createAgentRequest struct {
	Name        string `json:"name"        validate:"required"`
	Type        string `json:"type"        validate:"required,oneof=Support Sales Marketing Other"`
	Description string `json:"description"`
}

type updateStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=Active Paused"`
}

type agentsResponse struct {
	Agents []domain.Agent `json:"agents"`
}

// --- Chat ---

type chatRequest struct {
	Messages []domain.ChatMessage `json:"messages"`
}

type chatResponse struct {
	Message string `json:"message"`
}
