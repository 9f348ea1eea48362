package web

import (
	"github.com/celanai/celan/internal/core/domain"
	"github.com/celanai/celan/internal/helpcenter"
)

// Base is embedded by every view. User is nil for anonymous visitors.
type Base struct {
	Title string
	User  *domain.User
	Flash string
	Error string
}

type LandingView struct {
	Base
	Plans []domain.PlanInfo
}

type LoginView struct {
	Base
	Email    string
	Redirect string
}

type SignupView struct {
	Base
	Name  string
	Email string
	Plans []domain.PlanInfo
	// Selected is empty when no plan was chosen on the landing page.
	Selected domain.Plan
}

// SelectedInfo returns the catalog entry of the preselected plan, or nil.
func (v SignupView) SelectedInfo() *domain.PlanInfo {
	return planInfo(&v.Selected)
}

type DashboardView struct {
	Base
	Plans      []domain.PlanInfo
	Agents     []domain.Agent
	AgentTypes []domain.AgentType
	// AgentsUnavailable is set when the agent list could not be loaded.
	AgentsUnavailable bool
	FormName          string
	FormType          string
	FormDescription   string
}

// CurrentPlan returns the user's plan card, or nil.
func (v DashboardView) CurrentPlan() *domain.PlanInfo {
	if v.User == nil {
		return nil
	}
	return planInfo(v.User.Plan)
}

func (v DashboardView) ActiveAgents() int {
	n := 0
	for _, a := range v.Agents {
		if a.Status == domain.AgentActive {
			n++
		}
	}
	return n
}

type AppView struct {
	Base
	Messages []domain.ChatMessage
}

type HelpView struct {
	Base
	Lang     string
	Query    string
	Texts    helpcenter.Texts
	Sections []helpcenter.Category
}

func planInfo(p *domain.Plan) *domain.PlanInfo {
	if p == nil {
		return nil
	}
	info, ok := p.Info()
	if !ok {
		return nil
	}
	return &info
}

// ErrorView is the page shown to browsers when a request fails.
type ErrorView struct {
	Base
	Status  int
	Message string
}
