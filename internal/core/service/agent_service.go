package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/celanai/celan/internal/core/domain"
	"github.com/celanai/celan/internal/core/ports"
)

type AgentService struct {
	repo ports.AgentRepository
	now  func() time.Time
	log  zerolog.Logger
}

func NewAgentService(repo ports.AgentRepository, log zerolog.Logger) *AgentService {
	return &AgentService{repo: repo, now: time.Now, log: log}
}

// CreateAgent stores a new Active agent owned by in.UserID. An empty
// description is stored as NULL.
func (s *AgentService) CreateAgent(ctx context.Context, in ports.CreateAgentInput) (*domain.Agent, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, domain.ErrEmptyAgentName
	}
	agentType, err := domain.ParseAgentType(in.Type)
	if err != nil {
		return nil, err
	}

	var description *string
	if d := strings.TrimSpace(in.Description); d != "" {
		description = &d
	}

	now := s.now().UTC()
	agent, err := s.repo.Insert(ctx, &domain.Agent{
		ID:          uuid.NewString(),
		UserID:      in.UserID,
		Name:        name,
		Type:        agentType,
		Description: description,
		Status:      domain.AgentActive,
		LastRun:     now,
		CreatedAt:   now,
	})
	if err != nil {
		s.log.Error().Err(err).Str("user_id", in.UserID).Msg("create agent failed")
		return nil, fmt.Errorf("%w: %w", domain.ErrCreate, err)
	}

	s.log.Info().Str("agent_id", agent.ID).Str("user_id", in.UserID).Msg("agent created")
	return agent, nil
}

// GetUserAgents returns the user's agents newest first, or an empty slice
// if the store fails.
func (s *AgentService) GetUserAgents(ctx context.Context, userID string) []domain.Agent {
	agents, err := s.ListAgents(ctx, userID)
	if err != nil {
		s.log.Warn().Err(err).Str("user_id", userID).Msg("list agents failed")
		return []domain.Agent{}
	}
	return agents
}

func (s *AgentService) ListAgents(ctx context.Context, userID string) ([]domain.Agent, error) {
	agents, err := s.repo.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list agents: %w", err)
	}
	if agents == nil {
		agents = []domain.Agent{}
	}
	return agents, nil
}

func (s *AgentService) UpdateAgentStatus(ctx context.Context, userID, agentID string, status domain.AgentStatus) (*domain.Agent, error) {
	if _, err := domain.ParseAgentStatus(string(status)); err != nil {
		return nil, err
	}
	agent, err := s.repo.UpdateStatus(ctx, userID, agentID, status)
	if err != nil {
		return nil, s.wrap("update agent status", err)
	}
	s.log.Info().Str("agent_id", agentID).Str("status", string(status)).Msg("agent status updated")
	return agent, nil
}

// ToggleAgentStatus flips Active and Paused.
func (s *AgentService) ToggleAgentStatus(ctx context.Context, userID, agentID string) (*domain.Agent, error) {
	current, err := s.repo.FindByID(ctx, userID, agentID)
	if err != nil {
		return nil, s.wrap("toggle agent status", err)
	}
	return s.UpdateAgentStatus(ctx, userID, agentID, current.Status.Toggled())
}

// RunAgent stamps last_run. Nothing is executed. The stored value only
// ever moves forward, by at least one nanosecond per run.
func (s *AgentService) RunAgent(ctx context.Context, userID, agentID string) (*domain.Agent, error) {
	current, err := s.repo.FindByID(ctx, userID, agentID)
	if err != nil {
		return nil, s.wrap("run agent", err)
	}

	lastRun := s.now().UTC()
	if !lastRun.After(current.LastRun) {
		lastRun = current.LastRun.Add(time.Nanosecond)
	}

	agent, err := s.repo.UpdateLastRun(ctx, userID, agentID, lastRun)
	if err != nil {
		return nil, s.wrap("run agent", err)
	}
	s.log.Info().Str("agent_id", agentID).Time("last_run", lastRun).Msg("agent run recorded")
	return agent, nil
}

func (s *AgentService) DeleteAgent(ctx context.Context, userID, agentID string) error {
	if err := s.repo.Delete(ctx, userID, agentID); err != nil {
		return s.wrap("delete agent", err)
	}
	s.log.Info().Str("agent_id", agentID).Msg("agent deleted")
	return nil
}

func (s *AgentService) wrap(op string, err error) error {
	if errors.Is(err, domain.ErrAgentNotFound) {
		return domain.ErrAgentNotFound
	}
	return fmt.Errorf("%s: %w", op, err)
}
