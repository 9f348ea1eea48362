package handler

import (
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/celanai/celan/internal/api/metrics"
	"github.com/celanai/celan/internal/api/middleware"
	"github.com/celanai/celan/internal/core/domain"
	"github.com/celanai/celan/internal/core/ports"
	"github.com/celanai/celan/internal/helpcenter"
	"github.com/celanai/celan/internal/web"
)

// Messages shown by the form pages. Internal causes are never rendered.
const (
	msgInvalidLogin   = "Invalid email or password"
	msgSignupFailed   = "Failed to create account"
	msgEmailTaken     = "An account with this email already exists"
	msgNameRequired   = "Please enter your name"
	msgAgentCreated   = "Agent created successfully!"
	msgAgentCreateErr = "Failed to create agent"
	msgAgentUpdated   = "Agent status updated!"
	msgAgentRan       = "Agent executed successfully!"
	msgAgentDeleted   = "Agent deleted."
	msgAgentActionErr = "Could not update the agent. Please try again."
	msgPlanErr        = "Failed to update plan"
	msgChatErr        = "Sorry, I encountered an error. Please try again."
)

// PageHandler serves the HTML pages and their form posts. Mutations answer
// with a 303 back to the page that shows the result.
type PageHandler struct {
	auth    ports.AuthService
	agents  ports.AgentService
	chat    ports.ChatService
	help    *helpcenter.Catalog
	cookies *middleware.Cookies
	log     zerolog.Logger
}

func NewPageHandler(
	auth ports.AuthService,
	agents ports.AgentService,
	chat ports.ChatService,
	help *helpcenter.Catalog,
	cookies *middleware.Cookies,
	log zerolog.Logger,
) *PageHandler {
	return &PageHandler{auth: auth, agents: agents, chat: chat, help: help, cookies: cookies, log: log}
}

// currentUser prefers the session resolved by the gate, whose tokens may be
// fresher than the request cookies.
func (h *PageHandler) currentUser(c echo.Context) *domain.User {
	tokens := h.cookies.Read(c)
	if s := middleware.SessionFrom(c); s != nil {
		tokens = domain.Tokens{Access: s.AccessToken, Refresh: s.RefreshToken}
	}
	if tokens.Empty() {
		return nil
	}
	return h.auth.CurrentUser(c.Request().Context(), tokens)
}

func (h *PageHandler) base(c echo.Context, title string, user *domain.User) web.Base {
	b := web.Base{Title: title, User: user}
	switch kind, msg := popFlash(c); kind {
	case flashSuccess:
		b.Flash = msg
	case flashError:
		b.Error = msg
	}
	return b
}

func seeOther(c echo.Context, path string) error {
	return c.Redirect(http.StatusSeeOther, path)
}

// toLogin drops cookies that resolve to a session without a profile, so the
// gate does not bounce the browser back from /login.
func (h *PageHandler) toLogin(c echo.Context, from string) error {
	h.cookies.Clear(c)
	return seeOther(c, "/login?"+url.Values{"redirect": {from}}.Encode())
}

// --- Landing & help ---

func (h *PageHandler) Landing(c echo.Context) error {
	user := h.currentUser(c)
	return c.Render(http.StatusOK, web.PageLanding, web.LandingView{
		Base:  h.base(c, "", user),
		Plans: domain.Plans,
	})
}

func (h *PageHandler) Help(c echo.Context) error {
	lang, texts := h.help.Language(c.QueryParam("lang"))
	query := strings.TrimSpace(c.QueryParam("q"))
	return c.Render(http.StatusOK, web.PageHelp, web.HelpView{
		Base:     h.base(c, texts.Title, h.currentUser(c)),
		Lang:     lang,
		Query:    query,
		Texts:    texts,
		Sections: h.help.Search(lang, query),
	})
}

// --- Login & signup ---

func (h *PageHandler) LoginForm(c echo.Context) error {
	return c.Render(http.StatusOK, web.PageLogin, web.LoginView{
		Base:     h.base(c, "Login", nil),
		Redirect: safeRedirect(c.QueryParam("redirect"), ""),
	})
}

func (h *PageHandler) Login(c echo.Context) error {
	email := strings.TrimSpace(c.FormValue("email"))
	redirect := safeRedirect(c.FormValue("redirect"), "/dashboard")

	res, err := h.auth.Login(c.Request().Context(), email, c.FormValue("password"))
	metrics.ObserveAuthOp("login", err)
	if err != nil {
		if !errors.Is(err, domain.ErrInvalidCredentials) {
			h.log.Error().Err(err).Msg("login failed")
		}
		return c.Render(http.StatusUnauthorized, web.PageLogin, web.LoginView{
			Base:     web.Base{Title: "Login", Error: msgInvalidLogin},
			Email:    email,
			Redirect: c.FormValue("redirect"),
		})
	}

	h.cookies.Write(c, res.Session)
	return seeOther(c, redirect)
}

func (h *PageHandler) SignupForm(c echo.Context) error {
	selected, _ := domain.ParsePlan(c.QueryParam("plan"))
	return c.Render(http.StatusOK, web.PageSignup, web.SignupView{
		Base:     h.base(c, "Create account", nil),
		Plans:    domain.Plans,
		Selected: selected,
	})
}

func (h *PageHandler) Signup(c echo.Context) error {
	req := signupRequest{
		Email:    strings.TrimSpace(c.FormValue("email")),
		Password: c.FormValue("password"),
		Name:     strings.TrimSpace(c.FormValue("name")),
		Plan:     c.FormValue("plan"),
	}
	view := web.SignupView{
		Base:  web.Base{Title: "Create account"},
		Name:  req.Name,
		Email: req.Email,
		Plans: domain.Plans,
	}
	view.Selected, _ = domain.ParsePlan(req.Plan)

	if req.Name == "" {
		view.Error = msgNameRequired
		return c.Render(http.StatusUnprocessableEntity, web.PageSignup, view)
	}
	if err := c.Validate(&req); err != nil {
		view.Error = err.Error()
		return c.Render(http.StatusUnprocessableEntity, web.PageSignup, view)
	}

	res, err := h.auth.Signup(c.Request().Context(), ports.SignupInput{
		Email:    req.Email,
		Password: req.Password,
		Name:     req.Name,
		Plan:     req.Plan,
	})
	metrics.ObserveAuthOp("signup", err)
	if err != nil {
		view.Error = msgSignupFailed
		status := http.StatusInternalServerError
		if errors.Is(err, domain.ErrUserExists) {
			view.Error = msgEmailTaken
			status = http.StatusConflict
		} else {
			h.log.Error().Err(err).Msg("signup failed")
		}
		return c.Render(status, web.PageSignup, view)
	}

	h.cookies.Write(c, res.Session)
	return seeOther(c, "/dashboard")
}

func (h *PageHandler) Logout(c echo.Context) error {
	err := h.auth.Logout(c.Request().Context(), h.cookies.Read(c).Refresh)
	metrics.ObserveAuthOp("logout", err)
	if err != nil {
		h.log.Warn().Err(err).Msg("logout failed")
	}
	h.cookies.Clear(c)
	return seeOther(c, "/")
}

// --- Plan ---

// ChangePlan is posted from the landing page and the dashboard. Anonymous
// visitors are sent to signup with the plan preselected.
func (h *PageHandler) ChangePlan(c echo.Context) error {
	plan, err := domain.ParsePlan(c.FormValue("plan"))
	returnTo := safeRedirect(c.FormValue("return_to"), "/dashboard")

	user := h.currentUser(c)
	if user == nil {
		if err != nil {
			return seeOther(c, "/signup")
		}
		return seeOther(c, "/signup?plan="+string(plan))
	}
	if err != nil {
		setFlash(c, flashError, msgPlanErr)
		return seeOther(c, returnTo)
	}

	_, err = h.auth.UpdateUserPlan(c.Request().Context(), user.ID, plan)
	metrics.ObserveAuthOp("update_plan", err)
	if err != nil {
		h.log.Error().Err(err).Str("user_id", user.ID).Msg("plan update failed")
		setFlash(c, flashError, msgPlanErr)
		return seeOther(c, returnTo)
	}

	info, _ := plan.Info()
	setFlash(c, flashSuccess, fmt.Sprintf("Your plan has been updated to %s!", info.Name))
	return seeOther(c, returnTo)
}

// --- Dashboard ---

func (h *PageHandler) Dashboard(c echo.Context) error {
	user := h.currentUser(c)
	if user == nil {
		return h.toLogin(c, "/dashboard")
	}
	return h.renderDashboard(c, http.StatusOK, h.dashboardView(c, user))
}

func (h *PageHandler) dashboardView(c echo.Context, user *domain.User) web.DashboardView {
	view := web.DashboardView{
		Base:       h.base(c, "Dashboard", user),
		Plans:      domain.Plans,
		AgentTypes: domain.AgentTypes,
		FormType:   string(domain.AgentTypeSupport),
	}
	agents, err := h.agents.ListAgents(c.Request().Context(), user.ID)
	if err != nil {
		h.log.Warn().Err(err).Str("user_id", user.ID).Msg("dashboard agent list failed")
		view.AgentsUnavailable = true
		agents = []domain.Agent{}
	}
	view.Agents = agents
	return view
}

func (h *PageHandler) renderDashboard(c echo.Context, status int, view web.DashboardView) error {
	return c.Render(status, web.PageDashboard, view)
}

func (h *PageHandler) CreateAgent(c echo.Context) error {
	user := h.currentUser(c)
	if user == nil {
		return h.toLogin(c, "/dashboard")
	}

	in := ports.CreateAgentInput{
		UserID:      user.ID,
		Name:        c.FormValue("name"),
		Type:        c.FormValue("type"),
		Description: c.FormValue("description"),
	}
	_, err := h.agents.CreateAgent(c.Request().Context(), in)
	metrics.ObserveAgentOp("create", err)
	if err == nil {
		setFlash(c, flashSuccess, msgAgentCreated)
		return seeOther(c, "/dashboard")
	}

	view := h.dashboardView(c, user)
	view.FormName, view.FormType, view.FormDescription = in.Name, in.Type, in.Description
	switch {
	case errors.Is(err, domain.ErrEmptyAgentName):
		view.Error = "Agent name is required"
	case errors.Is(err, domain.ErrInvalidAgentType):
		view.Error = "Please choose a valid agent type"
	default:
		view.Error = msgAgentCreateErr
		return h.renderDashboard(c, http.StatusInternalServerError, view)
	}
	return h.renderDashboard(c, http.StatusUnprocessableEntity, view)
}

func (h *PageHandler) ToggleAgent(c echo.Context) error {
	return h.agentAction(c, "toggle", msgAgentUpdated, func(userID, agentID string) error {
		_, err := h.agents.ToggleAgentStatus(c.Request().Context(), userID, agentID)
		return err
	})
}

func (h *PageHandler) RunAgent(c echo.Context) error {
	return h.agentAction(c, "run", msgAgentRan, func(userID, agentID string) error {
		_, err := h.agents.RunAgent(c.Request().Context(), userID, agentID)
		return err
	})
}

func (h *PageHandler) DeleteAgent(c echo.Context) error {
	return h.agentAction(c, "delete", msgAgentDeleted, func(userID, agentID string) error {
		return h.agents.DeleteAgent(c.Request().Context(), userID, agentID)
	})
}

func (h *PageHandler) agentAction(c echo.Context, op, success string, fn func(userID, agentID string) error) error {
	user := h.currentUser(c)
	if user == nil {
		return h.toLogin(c, "/dashboard")
	}

	agentID := c.Param("id")
	err := fn(user.ID, agentID)
	metrics.ObserveAgentOp(op, err)
	if err != nil {
		if !errors.Is(err, domain.ErrAgentNotFound) {
			h.log.Error().Err(err).Str("agent_id", agentID).Str("op", op).Msg("agent action failed")
		}
		setFlash(c, flashError, msgAgentActionErr)
		return seeOther(c, "/dashboard")
	}
	setFlash(c, flashSuccess, success)
	return seeOther(c, "/dashboard")
}

// --- Chat workspace ---

func (h *PageHandler) App(c echo.Context) error {
	user := h.currentUser(c)
	if user == nil {
		return h.toLogin(c, "/app")
	}
	return c.Render(http.StatusOK, web.PageApp, web.AppView{Base: h.base(c, "Workspace", user)})
}

// SendMessage appends the typed message to the posted history, asks the
// assistant, and renders the whole conversation. Failures become an
// assistant turn so the conversation can continue.
func (h *PageHandler) SendMessage(c echo.Context) error {
	user := h.currentUser(c)
	if user == nil {
		return h.toLogin(c, "/app")
	}

	form, err := c.FormParams()
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid form")
	}
	history := historyFromForm(form["role"], form["content"])

	view := web.AppView{Base: web.Base{Title: "Workspace", User: user}}
	text := strings.TrimSpace(c.FormValue("message"))
	if text == "" {
		view.Messages = history
		return c.Render(http.StatusOK, web.PageApp, view)
	}
	history = append(history, domain.ChatMessage{Role: domain.RoleUser, Content: text})

	reply, err := h.chat.Reply(c.Request().Context(), history)
	metrics.ChatRequestsTotal.WithLabelValues(metrics.ChatResult(err)).Inc()
	if err != nil {
		h.log.Warn().Err(err).Str("user_id", user.ID).Msg("chat reply failed")
		reply = msgChatErr
	}
	view.Messages = append(history, domain.ChatMessage{Role: domain.RoleAssistant, Content: reply})
	return c.Render(http.StatusOK, web.PageApp, view)
}

// historyFromForm pairs the hidden role/content fields. Unknown roles and
// unpaired trailing fields are dropped.
func historyFromForm(roles, contents []string) []domain.ChatMessage {
	n := min(len(roles), len(contents))
	history := make([]domain.ChatMessage, 0, n+2)
	for i := 0; i < n; i++ {
		role := domain.ChatRole(roles[i])
		if role != domain.RoleUser && role != domain.RoleAssistant {
			continue
		}
		history = append(history, domain.ChatMessage{Role: role, Content: contents[i]})
	}
	return history
}
