package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/celanai/celan/internal/api/metrics"
	"github.com/celanai/celan/internal/core/domain"
	"github.com/celanai/celan/internal/core/ports"
)

// AgentHandler serves the caller's agent list. Every route acts on the
// session user only.
type AgentHandler struct {
	service ports.AgentService
}

func NewAgentHandler(service ports.AgentService) *AgentHandler {
	return &AgentHandler{service: service}
}

// List returns the caller's agents, newest first. Store failures yield an
// empty list.
//
// @Summary      List agents
// @Tags         agents
// @Produce      json
// @Success      200  {object}  agentsResponse
// @Failure      401  {object}  errorResponse
// @Router       /api/agents [get]
func (h *AgentHandler) List(c echo.Context) error {
	session, err := ctxSession(c)
	if err != nil {
		return err
	}
	agents := h.service.GetUserAgents(c.Request().Context(), session.UserID)
	metrics.ObserveAgentOp("list", nil)
	return c.JSON(http.StatusOK, agentsResponse{Agents: agents})
}

// Create adds an Active agent.
//
// @Summary      Create agent
// @Tags         agents
// @Accept       json
// @Produce      json
// @Param        body  body      createAgentRequest  true  "Agent"
// @Success      201   {object}  domain.Agent
// @Failure      400   {object}  errorResponse
// @Failure      401   {object}  errorResponse
// @Failure      422   {object}  errorResponse
// @Router       /api/agents [post]
func (h *AgentHandler) Create(c echo.Context) error {
	session, err := ctxSession(c)
	if err != nil {
		return err
	}

	var req createAgentRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	agent, err := h.service.CreateAgent(c.Request().Context(), ports.CreateAgentInput{
		UserID:      session.UserID,
		Name:        req.Name,
		Type:        req.Type,
		Description: req.Description,
	})
	metrics.ObserveAgentOp("create", err)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, agent)
}

// UpdateStatus sets Active or Paused.
//
// @Summary      Update agent status
// @Tags         agents
// @Accept       json
// @Produce      json
// @Param        id    path      string               true  "Agent ID"
// @Param        body  body      updateStatusRequest  true  "New status"
// @Success      200   {object}  domain.Agent
// @Failure      404   {object}  errorResponse
// @Failure      422   {object}  errorResponse
// @Router       /api/agents/{id}/status [patch]
func (h *AgentHandler) UpdateStatus(c echo.Context) error {
	session, err := ctxSession(c)
	if err != nil {
		return err
	}

	var req updateStatusRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	agent, err := h.service.UpdateAgentStatus(c.Request().Context(), session.UserID, c.Param("id"), domain.AgentStatus(req.Status))
	metrics.ObserveAgentOp("update_status", err)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, agent)
}

// Run records a run of the agent.
//
// @Summary      Run agent
// @Tags         agents
// @Produce      json
// @Param        id   path      string  true  "Agent ID"
// @Success      200  {object}  domain.Agent
// @Failure      404  {object}  errorResponse
// @Router       /api/agents/{id}/run [post]
func (h *AgentHandler) Run(c echo.Context) error {
	session, err := ctxSession(c)
	if err != nil {
		return err
	}

	agent, err := h.service.RunAgent(c.Request().Context(), session.UserID, c.Param("id"))
	metrics.ObserveAgentOp("run", err)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, agent)
}

// Delete removes the agent.
//
// @Summary      Delete agent
// @Tags         agents
// @Param        id   path  string  true  "Agent ID"
// @Success      204
// @Failure      404  {object}  errorResponse
// @Router       /api/agents/{id} [delete]
func (h *AgentHandler) Delete(c echo.Context) error {
	session, err := ctxSession(c)
	if err != nil {
		return err
	}

	err = h.service.DeleteAgent(c.Request().Context(), session.UserID, c.Param("id"))
	metrics.ObserveAgentOp("delete", err)
	if err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}
