package ports

import (
	"context"
	"time"

	"github.com/celanai/celan/internal/core/domain"
)

// AgentRepository is the agents table of the relational store. Every
// mutation is scoped by owner: a row belonging to another user is reported
// as domain.ErrAgentNotFound.
type AgentRepository interface {
	Insert(ctx context.Context, agent *domain.Agent) (*domain.Agent, error)
	// ListByUser returns the user's agents, most recently created first.
	ListByUser(ctx context.Context, userID string) ([]domain.Agent, error)
	FindByID(ctx context.Context, userID, agentID string) (*domain.Agent, error)
	UpdateStatus(ctx context.Context, userID, agentID string, status domain.AgentStatus) (*domain.Agent, error)
	UpdateLastRun(ctx context.Context, userID, agentID string, lastRun time.Time) (*domain.Agent, error)
	Delete(ctx context.Context, userID, agentID string) error
}
