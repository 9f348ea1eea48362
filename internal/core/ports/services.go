package ports

import (
	"context"

	"github.com/celanai/celan/internal/core/domain"
)

// SessionStore issues, resolves, and revokes login sessions.
type SessionStore interface {
	SignUp(ctx context.Context, email, password string) (*domain.Identity, *domain.Session, error)
	SignIn(ctx context.Context, email, password string) (*domain.Identity, *domain.Session, error)
	SignOut(ctx context.Context, refreshToken string) error
	// Resolve validates the presented tokens. refreshed is true when the
	// access token had to be re-minted from the refresh token, in which case
	// the caller must hand the new tokens back to the browser.
	Resolve(ctx context.Context, tokens domain.Tokens) (session *domain.Session, refreshed bool, err error)
	DeleteIdentity(ctx context.Context, identityID string) error
}

// SignupInput carries the signup form.
type SignupInput struct {
	Email    string
	Password string
	Name     string
	Plan     string // optional
}

// AuthResult is returned by signup and login.
type AuthResult struct {
	User    *domain.User
	Session *domain.Session
}

// AuthService covers account operations.
type AuthService interface {
	Signup(ctx context.Context, in SignupInput) (*AuthResult, error)
	Login(ctx context.Context, email, password string) (*AuthResult, error)
	Logout(ctx context.Context, refreshToken string) error
	// CurrentUser never fails; nil means "not logged in".
	CurrentUser(ctx context.Context, tokens domain.Tokens) *domain.User
	IsAuthenticated(ctx context.Context, tokens domain.Tokens) bool
	UpdateUserPlan(ctx context.Context, userID string, plan domain.Plan) (*domain.User, error)
}

// CreateAgentInput carries the create-agent form.
type CreateAgentInput struct {
	UserID      string
	Name        string
	Type        string
	Description string
}

// AgentService covers the agent list on the dashboard.
type AgentService interface {
	CreateAgent(ctx context.Context, in CreateAgentInput) (*domain.Agent, error)
	// GetUserAgents never fails; a store error yields an empty slice.
	GetUserAgents(ctx context.Context, userID string) []domain.Agent
	ListAgents(ctx context.Context, userID string) ([]domain.Agent, error)
	UpdateAgentStatus(ctx context.Context, userID, agentID string, status domain.AgentStatus) (*domain.Agent, error)
	ToggleAgentStatus(ctx context.Context, userID, agentID string) (*domain.Agent, error)
	RunAgent(ctx context.Context, userID, agentID string) (*domain.Agent, error)
	DeleteAgent(ctx context.Context, userID, agentID string) error
}

// ChatService answers a conversation with one assistant reply.
type ChatService interface {
	Reply(ctx context.Context, history []domain.ChatMessage) (string, error)
}
