package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/celanai/celan/internal/api/middleware"
	"github.com/celanai/celan/internal/core/domain"
	"github.com/celanai/celan/internal/core/ports"
	"github.com/celanai/celan/internal/web"
)

type stubAuthService struct {
	user       *domain.User
	session    *domain.Session
	signupErr  error
	loginErr   error
	logoutErr  error
	updateErr  error
	lastSignup ports.SignupInput
	lastPlan   domain.Plan
	loggedOut  string
}

func (s *stubAuthService) Signup(_ context.Context, in ports.SignupInput) (*ports.AuthResult, error) {
	s.lastSignup = in
	if s.signupErr != nil {
		return nil, s.signupErr
	}
	return &ports.AuthResult{User: s.user, Session: s.session}, nil
}

func (s *stubAuthService) Login(_ context.Context, _, _ string) (*ports.AuthResult, error) {
	if s.loginErr != nil {
		return nil, s.loginErr
	}
	return &ports.AuthResult{User: s.user, Session: s.session}, nil
}

func (s *stubAuthService) Logout(_ context.Context, refreshToken string) error {
	s.loggedOut = refreshToken
	return s.logoutErr
}

func (s *stubAuthService) CurrentUser(_ context.Context, tokens domain.Tokens) *domain.User {
	if tokens.Empty() {
		return nil
	}
	return s.user
}

func (s *stubAuthService) IsAuthenticated(ctx context.Context, tokens domain.Tokens) bool {
	return s.CurrentUser(ctx, tokens) != nil
}

func (s *stubAuthService) UpdateUserPlan(_ context.Context, _ string, plan domain.Plan) (*domain.User, error) {
	s.lastPlan = plan
	if s.updateErr != nil {
		return nil, s.updateErr
	}
	u := *s.user
	u.Plan = &plan
	return &u, nil
}

type stubResolver struct {
	session   *domain.Session
	refreshed bool
	err       error
}

func (r *stubResolver) Resolve(_ context.Context, _ domain.Tokens) (*domain.Session, bool, error) {
	if r.err != nil {
		return nil, false, r.err
	}
	return r.session, r.refreshed, nil
}

type stubAgentService struct {
	agents    []domain.Agent
	err       error
	created   ports.CreateAgentInput
	lastID    string
	lastOwner string
}

func (s *stubAgentService) CreateAgent(_ context.Context, in ports.CreateAgentInput) (*domain.Agent, error) {
	s.created = in
	if s.err != nil {
		return nil, s.err
	}
	return &domain.Agent{ID: "a-new", UserID: in.UserID, Name: in.Name, Type: domain.AgentType(in.Type), Status: domain.AgentActive}, nil
}

func (s *stubAgentService) GetUserAgents(ctx context.Context, userID string) []domain.Agent {
	agents, err := s.ListAgents(ctx, userID)
	if err != nil {
		return []domain.Agent{}
	}
	return agents
}

func (s *stubAgentService) ListAgents(_ context.Context, _ string) ([]domain.Agent, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.agents, nil
}

func (s *stubAgentService) record(userID, agentID string) (*domain.Agent, error) {
	s.lastOwner, s.lastID = userID, agentID
	if s.err != nil {
		return nil, s.err
	}
	return &domain.Agent{ID: agentID, UserID: userID, Status: domain.AgentPaused}, nil
}

func (s *stubAgentService) UpdateAgentStatus(_ context.Context, userID, agentID string, _ domain.AgentStatus) (*domain.Agent, error) {
	return s.record(userID, agentID)
}

func (s *stubAgentService) ToggleAgentStatus(_ context.Context, userID, agentID string) (*domain.Agent, error) {
	return s.record(userID, agentID)
}

func (s *stubAgentService) RunAgent(_ context.Context, userID, agentID string) (*domain.Agent, error) {
	return s.record(userID, agentID)
}

func (s *stubAgentService) DeleteAgent(_ context.Context, userID, agentID string) error {
	_, err := s.record(userID, agentID)
	return err
}

type stubChatService struct {
	reply   string
	err     error
	history []domain.ChatMessage
}

func (s *stubChatService) Reply(_ context.Context, history []domain.ChatMessage) (string, error) {
	s.history = history
	return s.reply, s.err
}

var testCookies = &middleware.Cookies{MaxAge: time.Hour}

func testUser() *domain.User {
	plan := domain.PlanPro
	return &domain.User{ID: "u1", Email: "a@b.com", Name: "A", Plan: &plan}
}

func testSession() *domain.Session {
	return &domain.Session{UserID: "u1", Email: "a@b.com", AccessToken: "acc", RefreshToken: "ref"}
}

func newTestEcho(t *testing.T) *echo.Echo {
	t.Helper()
	e := echo.New()
	e.Validator = NewValidator()
	r, err := web.NewRenderer()
	if err != nil {
		t.Fatalf("NewRenderer: %v", err)
	}
	e.Renderer = r
	return e
}

func jsonContext(e *echo.Echo, method, target, body string) (echo.Context, *httptest.ResponseRecorder) {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

func formContext(e *echo.Echo, target, body string) (echo.Context, *httptest.ResponseRecorder) {
	req := httptest.NewRequest(http.MethodPost, target, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationForm)
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

// withSession stores s where RequireSession and SessionGate put it.
func withSession(c echo.Context, s *domain.Session) {
	c.Set("session", s)
}

func httpStatus(t *testing.T, err error) int {
	t.Helper()
	he, ok := err.(*echo.HTTPError)
	if !ok {
		t.Fatalf("expected *echo.HTTPError, got %T: %v", err, err)
	}
	return he.Code
}

func cookieValue(rec *httptest.ResponseRecorder, name string) (string, bool) {
	for _, ck := range rec.Result().Cookies() {
		if ck.Name == name {
			return ck.Value, true
		}
	}
	return "", false
}
