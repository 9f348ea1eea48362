package sqldb

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/celanai/celan/internal/core/domain"
)

// AgentRepository scopes every query by user_id, so another user's agent
// looks exactly like a missing one.
type AgentRepository struct {
	db *sql.DB
}

func NewAgentRepository(db *sql.DB) *AgentRepository {
	return &AgentRepository{db: db}
}

const agentColumns = `id, user_id, name, type, description, status, last_run, created_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func (r *AgentRepository) Insert(ctx context.Context, agent *domain.Agent) (*domain.Agent, error) {
	var description sql.NullString
	if agent.Description != nil {
		description = sql.NullString{String: *agent.Description, Valid: true}
	}

	_, err := r.db.ExecContext(ctx,
		`INSERT INTO agents (`+agentColumns+`) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		agent.ID, agent.UserID, agent.Name, string(agent.Type), description,
		string(agent.Status), toNanos(agent.LastRun), toNanos(agent.CreatedAt))
	if err != nil {
		return nil, fmt.Errorf("insert agent: %w", err)
	}
	return r.FindByID(ctx, agent.UserID, agent.ID)
}

func (r *AgentRepository) ListByUser(ctx context.Context, userID string) ([]domain.Agent, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+agentColumns+` FROM agents WHERE user_id = $1 ORDER BY created_at DESC, id`,
		userID)
	if err != nil {
		return nil, fmt.Errorf("query agents: %w", err)
	}
	defer rows.Close()

	agents := []domain.Agent{}
	for rows.Next() {
		a, err := scanAgent(rows)
		if err != nil {
			return nil, err
		}
		agents = append(agents, *a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate agents: %w", err)
	}
	return agents, nil
}

func (r *AgentRepository) FindByID(ctx context.Context, userID, agentID string) (*domain.Agent, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+agentColumns+` FROM agents WHERE id = $1 AND user_id = $2`,
		agentID, userID)
	return scanAgent(row)
}

func (r *AgentRepository) UpdateStatus(ctx context.Context, userID, agentID string, status domain.AgentStatus) (*domain.Agent, error) {
	row := r.db.QueryRowContext(ctx,
		`UPDATE agents SET status = $1 WHERE id = $2 AND user_id = $3 RETURNING `+agentColumns,
		string(status), agentID, userID)
	return scanAgent(row)
}

func (r *AgentRepository) UpdateLastRun(ctx context.Context, userID, agentID string, lastRun time.Time) (*domain.Agent, error) {
	row := r.db.QueryRowContext(ctx,
		`UPDATE agents SET last_run = $1 WHERE id = $2 AND user_id = $3 RETURNING `+agentColumns,
		toNanos(lastRun), agentID, userID)
	return scanAgent(row)
}

func (r *AgentRepository) Delete(ctx context.Context, userID, agentID string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM agents WHERE id = $1 AND user_id = $2`, agentID, userID)
	if err != nil {
		return fmt.Errorf("delete agent: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete agent: %w", err)
	}
	if n == 0 {
		return domain.ErrAgentNotFound
	}
	return nil
}

func scanAgent(row rowScanner) (*domain.Agent, error) {
	var (
		a           domain.Agent
		agentType   string
		status      string
		description sql.NullString
		lastRun     int64
		createdAt   int64
	)
	err := row.Scan(&a.ID, &a.UserID, &a.Name, &agentType, &description, &status, &lastRun, &createdAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrAgentNotFound
		}
		return nil, fmt.Errorf("scan agent row: %w", err)
	}

	a.Type = domain.AgentType(agentType)
	a.Status = domain.AgentStatus(status)
	if description.Valid {
		d := description.String
		a.Description = &d
	}
	a.LastRun = fromNanos(lastRun)
	a.CreatedAt = fromNanos(createdAt)
	return &a, nil
}
