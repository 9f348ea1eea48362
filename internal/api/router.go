package api

import (
	"fmt"
	"net/http"

	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	echoSwagger "github.com/swaggo/echo-swagger"

	_ "github.com/celanai/celan/docs"
	"github.com/celanai/celan/internal/api/handler"
	"github.com/celanai/celan/internal/api/middleware"
	"github.com/celanai/celan/internal/core/ports"
	"github.com/celanai/celan/internal/helpcenter"
	"github.com/celanai/celan/internal/web"
)

// Deps are the services and settings the router wires into handlers.
type Deps struct {
	Auth     ports.AuthService
	Sessions middleware.SessionResolver
	Agents   ports.AgentService
	Chat     ports.ChatService
	Help     *helpcenter.Catalog
	Cookies  *middleware.Cookies
	Gate     middleware.GateConfig
	Checks   map[string]handler.Check
	// Registry receives the HTTP metrics. Nil means the default registry.
	Registry *prometheus.Registry
	Log      zerolog.Logger
}

// NewRouter builds and returns the Echo instance with all routes registered.
func NewRouter(d Deps) (*echo.Echo, error) {
	e := echo.New()
	e.HideBanner = true
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = NewHTTPErrorHandler(d.Log)

	renderer, err := web.NewRenderer()
	if err != nil {
		return nil, fmt.Errorf("load templates: %w", err)
	}
	e.Renderer = renderer

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestID())
	e.Use(echomiddleware.Logger())

	var registerer prometheus.Registerer = prometheus.DefaultRegisterer
	var gatherer prometheus.Gatherer = prometheus.DefaultGatherer
	if d.Registry != nil {
		registerer, gatherer = d.Registry, d.Registry
	}
	e.Use(echoprometheus.NewMiddlewareWithConfig(echoprometheus.MiddlewareConfig{
		Subsystem:  "celan",
		Registerer: registerer,
		Skipper: func(c echo.Context) bool {
			return c.Path() == "/metrics" || c.Path() == "/static/*"
		},
	}))
	e.Use(middleware.SessionGate(d.Gate, d.Sessions, d.Cookies, d.Log))

	// --- Ops ---
	e.GET("/health", handler.NewHealthHandler().Liveness)
	e.GET("/health/ready", handler.NewReadinessHandler(d.Checks).Readiness)
	e.GET("/metrics", echoprometheus.NewHandlerWithConfig(echoprometheus.HandlerConfig{Gatherer: gatherer}))
	e.GET("/swagger/*", echoSwagger.WrapHandler)

	// --- Assets ---
	e.GET("/static/*", echo.WrapHandler(web.Static()))
	icon := func(c echo.Context) error {
		return c.Blob(http.StatusOK, "image/svg+xml", web.Icon())
	}
	e.GET("/icon.svg", icon)
	e.GET("/favicon.ico", icon)

	// --- Pages ---
	pages := handler.NewPageHandler(d.Auth, d.Agents, d.Chat, d.Help, d.Cookies, d.Log)
	e.GET("/", pages.Landing)
	e.GET("/help", pages.Help)
	e.GET("/login", pages.LoginForm)
	e.POST("/login", pages.Login)
	e.GET("/signup", pages.SignupForm)
	e.POST("/signup", pages.Signup)
	e.POST("/logout", pages.Logout)
	e.POST("/plan", pages.ChangePlan)
	e.GET("/dashboard", pages.Dashboard)
	e.POST("/dashboard/agents", pages.CreateAgent)
	e.POST("/dashboard/agents/:id/toggle", pages.ToggleAgent)
	e.POST("/dashboard/agents/:id/run", pages.RunAgent)
	e.POST("/dashboard/agents/:id/delete", pages.DeleteAgent)
	e.GET("/app", pages.App)
	e.POST("/app", pages.SendMessage)

	// --- JSON API ---
	authHandler := handler.NewAuthHandler(d.Auth, d.Sessions, d.Cookies)
	agentHandler := handler.NewAgentHandler(d.Agents)
	chatHandler := handler.NewChatHandler(d.Chat, d.Log)

	apiGroup := e.Group("/api")
	apiGroup.POST("/auth/signup", authHandler.Signup)
	apiGroup.POST("/auth/login", authHandler.Login)
	apiGroup.POST("/auth/logout", authHandler.Logout)
	apiGroup.GET("/auth/me", authHandler.Me)
	apiGroup.POST("/chat", chatHandler.Chat)

	requireSession := middleware.RequireSession(d.Sessions, d.Cookies)
	apiGroup.PUT("/users/me/plan", authHandler.UpdatePlan, requireSession)

	agents := apiGroup.Group("/agents", requireSession)
	agents.GET("", agentHandler.List)
	agents.POST("", agentHandler.Create)
	agents.PATCH("/:id/status", agentHandler.UpdateStatus)
	agents.POST("/:id/run", agentHandler.Run)
	agents.DELETE("/:id", agentHandler.Delete)

	return e, nil
}
