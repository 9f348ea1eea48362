package handler

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/celanai/celan/internal/api/middleware"
	"github.com/celanai/celan/internal/core/domain"
	"github.com/celanai/celan/internal/helpcenter"
)

type pageFixture struct {
	e      *echo.Echo
	h      *PageHandler
	auth   *stubAuthService
	agents *stubAgentService
	chat   *stubChatService
}

func newPageFixture(t *testing.T) *pageFixture {
	t.Helper()
	help, err := helpcenter.Load()
	if err != nil {
		t.Fatalf("helpcenter.Load: %v", err)
	}
	f := &pageFixture{
		e:      newTestEcho(t),
		auth:   &stubAuthService{user: testUser(), session: testSession()},
		agents: &stubAgentService{},
		chat:   &stubChatService{reply: "Happy to help"},
	}
	f.h = NewPageHandler(f.auth, f.agents, f.chat, help, testCookies, zerolog.Nop())
	return f
}

func (f *pageFixture) get(target string, loggedIn bool) (echo.Context, *httptest.ResponseRecorder) {
	req := httptest.NewRequest(http.MethodGet, target, nil)
	if loggedIn {
		req.AddCookie(&http.Cookie{Name: middleware.AccessCookie, Value: "acc"})
	}
	rec := httptest.NewRecorder()
	return f.e.NewContext(req, rec), rec
}

func (f *pageFixture) post(target string, form url.Values, loggedIn bool) (echo.Context, *httptest.ResponseRecorder) {
	c, rec := formContext(f.e, target, form.Encode())
	if loggedIn {
		c.Request().AddCookie(&http.Cookie{Name: middleware.AccessCookie, Value: "acc"})
	}
	return c, rec
}

func location(rec *httptest.ResponseRecorder) string {
	return rec.Header().Get(echo.HeaderLocation)
}

func TestSafeRedirect(t *testing.T) {
	cases := []struct{ in, want string }{
		{"", "/dashboard"},
		{"/app", "/app"},
		{"/app?x=1", "/app?x=1"},
		{"//evil.com", "/dashboard"},
		{"/\\evil.com", "/dashboard"},
		{"https://evil.com/app", "/dashboard"},
		{"javascript:alert(1)", "/dashboard"},
		{"dashboard", "/dashboard"},
	}
	for _, tc := range cases {
		if got := safeRedirect(tc.in, "/dashboard"); got != tc.want {
			t.Fatalf("safeRedirect(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestPage_Landing(t *testing.T) {
	f := newPageFixture(t)

	c, rec := f.get("/", false)
	if err := f.h.Landing(c); err != nil {
		t.Fatalf("Landing returned error: %v", err)
	}
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "/signup?plan=scale") {
		t.Fatalf("unexpected landing: %d", rec.Code)
	}
}

func TestPage_Login_RedirectsToSafeTarget(t *testing.T) {
	f := newPageFixture(t)

	c, rec := f.post("/login", url.Values{"email": {"a@b.com"}, "password": {"secret1"}, "redirect": {"/app"}}, false)
	if err := f.h.Login(c); err != nil {
		t.Fatalf("Login returned error: %v", err)
	}
	if rec.Code != http.StatusSeeOther || location(rec) != "/app" {
		t.Fatalf("expected 303 to /app, got %d %q", rec.Code, location(rec))
	}
	if _, ok := cookieValue(rec, middleware.RefreshCookie); !ok {
		t.Fatalf("session cookies not written")
	}

	c, rec = f.post("/login", url.Values{"email": {"a@b.com"}, "password": {"secret1"}, "redirect": {"https://evil.com"}}, false)
	_ = f.h.Login(c)
	if location(rec) != "/dashboard" {
		t.Fatalf("expected fallback to /dashboard, got %q", location(rec))
	}
}

func TestPage_Login_GenericError(t *testing.T) {
	f := newPageFixture(t)
	f.auth.loginErr = errors.New("mongo: connection refused")

	c, rec := f.post("/login", url.Values{"email": {"a@b.com"}, "password": {"x"}}, false)
	if err := f.h.Login(c); err != nil {
		t.Fatalf("Login returned error: %v", err)
	}
	body := rec.Body.String()
	if rec.Code != http.StatusUnauthorized || !strings.Contains(body, msgInvalidLogin) {
		t.Fatalf("expected generic login error, got %d", rec.Code)
	}
	if strings.Contains(body, "mongo") {
		t.Fatalf("internal cause leaked")
	}
}

func TestPage_SignupForm_PreselectsPlan(t *testing.T) {
	f := newPageFixture(t)

	c, rec := f.get("/signup?plan=scale", false)
	if err := f.h.SignupForm(c); err != nil {
		t.Fatalf("SignupForm returned error: %v", err)
	}
	if !strings.Contains(rec.Body.String(), `value="scale" selected`) {
		t.Fatalf("plan not preselected")
	}
}

func TestPage_Signup(t *testing.T) {
	f := newPageFixture(t)

	c, rec := f.post("/signup", url.Values{"name": {"A"}, "email": {"a@b.com"}, "password": {"secret1"}, "plan": {"pro"}}, false)
	if err := f.h.Signup(c); err != nil {
		t.Fatalf("Signup returned error: %v", err)
	}
	if rec.Code != http.StatusSeeOther || location(rec) != "/dashboard" {
		t.Fatalf("expected redirect to dashboard, got %d %q", rec.Code, location(rec))
	}
	if f.auth.lastSignup.Plan != "pro" {
		t.Fatalf("plan not forwarded")
	}
}

func TestPage_Signup_Errors(t *testing.T) {
	f := newPageFixture(t)

	c, rec := f.post("/signup", url.Values{"email": {"a@b.com"}, "password": {"secret1"}}, false)
	_ = f.h.Signup(c)
	if rec.Code != http.StatusUnprocessableEntity || !strings.Contains(rec.Body.String(), msgNameRequired) {
		t.Fatalf("expected name error, got %d", rec.Code)
	}

	f.auth.signupErr = errors.Join(domain.ErrAuth, domain.ErrUserExists)
	c, rec = f.post("/signup", url.Values{"name": {"A"}, "email": {"a@b.com"}, "password": {"secret1"}}, false)
	_ = f.h.Signup(c)
	if rec.Code != http.StatusConflict || !strings.Contains(rec.Body.String(), msgEmailTaken) {
		t.Fatalf("expected duplicate email error, got %d", rec.Code)
	}
}

func TestPage_ChangePlan(t *testing.T) {
	f := newPageFixture(t)

	c, rec := f.post("/plan", url.Values{"plan": {"scale"}, "return_to": {"/"}}, true)
	if err := f.h.ChangePlan(c); err != nil {
		t.Fatalf("ChangePlan returned error: %v", err)
	}
	if location(rec) != "/" || f.auth.lastPlan != domain.PlanScale {
		t.Fatalf("unexpected result %q %q", location(rec), f.auth.lastPlan)
	}
	flash, ok := cookieValue(rec, flashCookie)
	if !ok {
		t.Fatalf("flash not set")
	}
	if msg, _ := url.QueryUnescape(flash); !strings.Contains(msg, "Your plan has been updated to Scale!") {
		t.Fatalf("unexpected flash %q", msg)
	}
}

func TestPage_ChangePlan_Anonymous(t *testing.T) {
	f := newPageFixture(t)

	c, rec := f.post("/plan", url.Values{"plan": {"pro"}}, false)
	_ = f.h.ChangePlan(c)
	if location(rec) != "/signup?plan=pro" {
		t.Fatalf("expected signup redirect, got %q", location(rec))
	}
	if f.auth.lastPlan != "" {
		t.Fatalf("plan must not change for anonymous visitors")
	}
}

func TestPage_Dashboard(t *testing.T) {
	f := newPageFixture(t)
	f.agents.agents = []domain.Agent{{ID: "a1", Name: "Helpdesk", Type: domain.AgentTypeSupport, Status: domain.AgentActive}}

	c, rec := f.get("/dashboard", true)
	c.Request().AddCookie(&http.Cookie{Name: flashCookie, Value: url.QueryEscape("success:" + msgAgentRan)})
	if err := f.h.Dashboard(c); err != nil {
		t.Fatalf("Dashboard returned error: %v", err)
	}
	body := rec.Body.String()
	for _, want := range []string{"Helpdesk", "Pro", msgAgentRan} {
		if !strings.Contains(body, want) {
			t.Fatalf("dashboard missing %q", want)
		}
	}
}

func TestPage_Dashboard_AgentsUnavailable(t *testing.T) {
	f := newPageFixture(t)
	f.agents.err = errors.New("db down")

	c, rec := f.get("/dashboard", true)
	_ = f.h.Dashboard(c)
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "could not load your agents") {
		t.Fatalf("expected unavailable banner, got %d", rec.Code)
	}
}

func TestPage_Dashboard_WithoutProfile(t *testing.T) {
	f := newPageFixture(t)
	f.auth.user = nil

	c, rec := f.get("/dashboard", true)
	_ = f.h.Dashboard(c)
	if location(rec) != "/login?redirect=%2Fdashboard" {
		t.Fatalf("unexpected redirect %q", location(rec))
	}
}

func TestPage_CreateAgent(t *testing.T) {
	f := newPageFixture(t)

	c, rec := f.post("/dashboard/agents", url.Values{"name": {"Closer"}, "type": {"Sales"}}, true)
	if err := f.h.CreateAgent(c); err != nil {
		t.Fatalf("CreateAgent returned error: %v", err)
	}
	if rec.Code != http.StatusSeeOther || f.agents.created.UserID != "u1" {
		t.Fatalf("unexpected create: %d %+v", rec.Code, f.agents.created)
	}

	f.agents.err = domain.ErrEmptyAgentName
	c, rec = f.post("/dashboard/agents", url.Values{"name": {" "}, "type": {"Sales"}}, true)
	_ = f.h.CreateAgent(c)
	if rec.Code != http.StatusUnprocessableEntity || !strings.Contains(rec.Body.String(), "Agent name is required") {
		t.Fatalf("expected validation error, got %d", rec.Code)
	}
}

func TestPage_AgentActions(t *testing.T) {
	f := newPageFixture(t)

	actions := []func(echo.Context) error{f.h.ToggleAgent, f.h.RunAgent, f.h.DeleteAgent}
	for _, action := range actions {
		c, rec := f.post("/dashboard/agents/a9/x", url.Values{}, true)
		c.SetParamNames("id")
		c.SetParamValues("a9")
		if err := action(c); err != nil {
			t.Fatalf("action returned error: %v", err)
		}
		if location(rec) != "/dashboard" || f.agents.lastID != "a9" || f.agents.lastOwner != "u1" {
			t.Fatalf("unexpected action result %q %q %q", location(rec), f.agents.lastID, f.agents.lastOwner)
		}
	}
}

func TestPage_SendMessage(t *testing.T) {
	f := newPageFixture(t)

	form := url.Values{
		"role":    {"user", "assistant"},
		"content": {"Hi", "Hello"},
		"message": {"What plans exist?"},
	}
	c, rec := f.post("/app", form, true)
	if err := f.h.SendMessage(c); err != nil {
		t.Fatalf("SendMessage returned error: %v", err)
	}
	if len(f.chat.history) != 3 || f.chat.history[2].Content != "What plans exist?" {
		t.Fatalf("unexpected history %+v", f.chat.history)
	}
	if !strings.Contains(rec.Body.String(), "Happy to help") {
		t.Fatalf("reply not rendered")
	}
}

func TestPage_SendMessage_ErrorBecomesAssistantTurn(t *testing.T) {
	f := newPageFixture(t)
	f.chat.err = domain.ErrMissingCredential

	c, rec := f.post("/app", url.Values{"message": {"Hi"}}, true)
	_ = f.h.SendMessage(c)
	if !strings.Contains(rec.Body.String(), "Sorry, I encountered an error. Please try again.") {
		t.Fatalf("expected error reply")
	}
}

func TestHistoryFromForm_DropsUnknownRoles(t *testing.T) {
	history := historyFromForm([]string{"system", "user", "assistant"}, []string{"x", "a"})
	if len(history) != 1 || history[0].Role != domain.RoleUser {
		t.Fatalf("unexpected history %+v", history)
	}
}

func TestPage_Help(t *testing.T) {
	f := newPageFixture(t)

	c, rec := f.get("/help?lang=pt&q=reembolso", false)
	if err := f.h.Help(c); err != nil {
		t.Fatalf("Help returned error: %v", err)
	}
	body := rec.Body.String()
	if !strings.Contains(body, "Política de reembolso") || strings.Contains(body, "Primeiros Passos") {
		t.Fatalf("unexpected help results")
	}
}
