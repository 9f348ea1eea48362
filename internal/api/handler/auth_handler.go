package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/celanai/celan/internal/api/metrics"
	"github.com/celanai/celan/internal/api/middleware"
	"github.com/celanai/celan/internal/core/domain"
	"github.com/celanai/celan/internal/core/ports"
)

type AuthHandler struct {
	authService ports.AuthService
	sessions    middleware.SessionResolver
	cookies     *middleware.Cookies
}

func NewAuthHandler(authService ports.AuthService, sessions middleware.SessionResolver, cookies *middleware.Cookies) *AuthHandler {
	return &AuthHandler{authService: authService, sessions: sessions, cookies: cookies}
}

// Signup creates an account and starts a session.
//
// @Summary      Sign up
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      signupRequest  true  "Account details"
// @Success      201   {object}  userResponse
// @Failure      400   {object}  errorResponse
// @Failure      409   {object}  errorResponse
// @Failure      422   {object}  errorResponse
// @Failure      500   {object}  errorResponse
// @Router       /api/auth/signup [post]
func (h *AuthHandler) Signup(c echo.Context) error {
	var req signupRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	res, err := h.authService.Signup(c.Request().Context(), ports.SignupInput{
		Email:    req.Email,
		Password: req.Password,
		Name:     req.Name,
		Plan:     req.Plan,
	})
	metrics.ObserveAuthOp("signup", err)
	if err != nil {
		return err
	}

	h.cookies.Write(c, res.Session)
	return c.JSON(http.StatusCreated, userResponse{User: res.User})
}

// Login authenticates with email and password and starts a session.
//
// @Summary      Login
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      loginRequest  true  "Login credentials"
// @Success      200   {object}  userResponse
// @Failure      400   {object}  errorResponse
// @Failure      401   {object}  errorResponse
// @Router       /api/auth/login [post]
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	res, err := h.authService.Login(c.Request().Context(), req.Email, req.Password)
	metrics.ObserveAuthOp("login", err)
	if err != nil {
		return err
	}

	h.cookies.Write(c, res.Session)
	return c.JSON(http.StatusOK, userResponse{User: res.User})
}

// Logout revokes the session and clears the cookies.
//
// @Summary      Logout
// @Tags         auth
// @Success      204
// @Failure      500   {object}  errorResponse
// @Router       /api/auth/logout [post]
func (h *AuthHandler) Logout(c echo.Context) error {
	tokens := h.cookies.Read(c)
	err := h.authService.Logout(c.Request().Context(), tokens.Refresh)
	metrics.ObserveAuthOp("logout", err)
	h.cookies.Clear(c)
	if err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

// Me returns the logged-in user, or {"user": null}. A refreshed session is
// written back to the cookies.
//
// @Summary      Current user
// @Tags         auth
// @Produce      json
// @Success      200   {object}  userResponse
// @Router       /api/auth/me [get]
func (h *AuthHandler) Me(c echo.Context) error {
	ctx := c.Request().Context()
	tokens := h.cookies.Read(c)
	if tokens.Empty() {
		return c.JSON(http.StatusOK, userResponse{})
	}

	session, refreshed, err := h.sessions.Resolve(ctx, tokens)
	if err != nil {
		return c.JSON(http.StatusOK, userResponse{})
	}
	if refreshed {
		h.cookies.Write(c, session)
	}

	user := h.authService.CurrentUser(ctx, domain.Tokens{Access: session.AccessToken, Refresh: session.RefreshToken})
	return c.JSON(http.StatusOK, userResponse{User: user})
}

// UpdatePlan changes the caller's subscription plan.
//
// @Summary      Change plan
// @Tags         users
// @Accept       json
// @Produce      json
// @Param        body  body      updatePlanRequest  true  "New plan"
// @Success      200   {object}  userResponse
// @Failure      401   {object}  errorResponse
// @Failure      422   {object}  errorResponse
// @Failure      500   {object}  errorResponse
// @Router       /api/users/me/plan [put]
func (h *AuthHandler) UpdatePlan(c echo.Context) error {
	session, err := ctxSession(c)
	if err != nil {
		return err
	}

	var req updatePlanRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	user, err := h.authService.UpdateUserPlan(c.Request().Context(), session.UserID, domain.Plan(req.Plan))
	metrics.ObserveAuthOp("update_plan", err)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, userResponse{User: user})
}
